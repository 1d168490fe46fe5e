package pneuma

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("OrificeMassFlow", func() {
	It("is zero with no pressure difference", func() {
		Expect(OrificeMassFlow(0.002, 0)).To(BeZero())
	})

	It("is zero for a closed orifice", func() {
		Expect(OrificeMassFlow(0, 1e5)).To(BeZero())
	})

	It("follows the sign of the pressure difference", func() {
		Expect(OrificeMassFlow(0.002, 1e5)).To(BeNumerically(">", 0))
		Expect(OrificeMassFlow(0.002, -1e5)).To(BeNumerically("<", 0))
	})

	It("scales with diameter squared", func() {
		small := OrificeMassFlow(0.001, 1e5)
		large := OrificeMassFlow(0.002, 1e5)
		Expect(large / small).To(BeNumerically("~", 4, 1e-9))
	})
})

var _ = Describe("CheckValve", func() {
	valve := CheckValve{CrackPressure: 5000, OrificeDiameter: 0.002}

	It("holds below the crack pressure", func() {
		Expect(valve.Flow(0)).To(BeZero())
		Expect(valve.Flow(4999)).To(BeZero())
		Expect(valve.Flow(5000)).To(BeZero())
	})

	It("conducts once the crack pressure is exceeded", func() {
		Expect(valve.Flow(5001)).To(BeNumerically(">", 0))
	})

	It("never conducts in reverse", func() {
		Expect(valve.Flow(-2e5)).To(BeZero())
	})

	It("is stateless across repeated evaluation", func() {
		first := valve.Flow(1e5)
		for i := 0; i < 100; i++ {
			Expect(valve.Flow(1e5)).To(Equal(first))
		}
	})
})

var _ = Describe("ReliefValve", func() {
	valve := ReliefValve{Min: 250000, Stiff: 1500000, Safety: 5000000, OrificeDiameter: 0.003}

	It("matches the graduated opening curve", func() {
		Expect(valve.Opening(200000)).To(BeZero())
		Expect(valve.Opening(250000)).To(BeZero())
		Expect(valve.Opening(900000)).To(BeNumerically(">", 0))
		Expect(valve.Opening(900000)).To(BeNumerically("<", 1))
		Expect(valve.Opening(5000000)).To(Equal(1.0))
		Expect(valve.Opening(6000000)).To(Equal(1.0))
	})

	It("opens monotonically from min to safety", func() {
		prev := -1.0
		for p := 0.0; p <= valve.Safety+1e6; p += 10000 {
			open := valve.Opening(p)
			Expect(open).To(BeNumerically(">=", prev))
			Expect(open).To(BeNumerically(">=", 0))
			Expect(open).To(BeNumerically("<=", 1))
			prev = open
		}
	})

	It("reports the safety threshold", func() {
		Expect(valve.SafetyBlown(4999999)).To(BeFalse())
		Expect(valve.SafetyBlown(5000000)).To(BeTrue())
	})

	It("never draws air back in", func() {
		Expect(valve.Flow(100000, 900000)).To(BeZero())
		Expect(valve.Flow(900000, 100000)).To(BeNumerically(">", 0))
	})
})

var _ = Describe("Throttle", func() {
	throttle := Throttle{MinDiameter: 0.001, StiffDiameter: 0.004}

	It("interpolates the effective diameter", func() {
		throttle.Fraction = 0
		Expect(throttle.Diameter()).To(Equal(0.001))
		throttle.Fraction = 1
		Expect(throttle.Diameter()).To(Equal(0.004))
		throttle.Fraction = 0.5
		Expect(throttle.Diameter()).To(BeNumerically("~", 0.0025, 1e-12))
	})

	It("clamps the fraction", func() {
		throttle.Fraction = -2
		Expect(throttle.Diameter()).To(Equal(0.001))
		throttle.Fraction = 3
		Expect(throttle.Diameter()).To(Equal(0.004))
	})

	It("flows both ways", func() {
		throttle.Fraction = 0.5
		Expect(throttle.Flow(1e5)).To(BeNumerically(">", 0))
		Expect(throttle.Flow(-1e5)).To(BeNumerically("<", 0))
	})
})
