package pneuma

import "math"

const (
	// dischargeCoefficient folds orifice geometry losses into the flow law.
	dischargeCoefficient = 0.62

	// referenceAirDensity is the upstream density assumed by the orifice
	// law, kg/m^3. A constant keeps the law in the diameter^2 * sqrt(|dP|)
	// form; density feedback is below the resolution this model targets.
	referenceAirDensity = 1.204
)

// OrificeMassFlow is the signed mass flow (kg/s) through an orifice of the
// given diameter under the given pressure difference. Magnitude follows
// Cd * A * sqrt(2*rho*|dP|), direction follows the sign of dP.
func OrificeMassFlow(diameter, dp float64) float64 {
	if dp == 0 || diameter <= 0 {
		return 0
	}
	area := math.Pi * diameter * diameter / 4
	mag := dischargeCoefficient * area * math.Sqrt(2*referenceAirDensity*math.Abs(dp))
	return math.Copysign(mag, dp)
}

// CheckValve conducts in one direction only, once the forward pressure
// difference exceeds its crack pressure. Check valves are stateless: the
// opening is recomputed from the instantaneous dP every step, with the crack
// pressure itself acting as the deadband against chatter.
type CheckValve struct {
	CrackPressure   float64 // Pa
	OrificeDiameter float64 // m
}

// Flow returns the forward mass flow for the given upstream-minus-downstream
// pressure difference, or zero when the valve holds.
func (v CheckValve) Flow(dp float64) float64 {
	if dp <= v.CrackPressure {
		return 0
	}
	return OrificeMassFlow(v.OrificeDiameter, dp-v.CrackPressure)
}

// ReliefValve bleeds overpressure through a graduated opening: closed at or
// below Min, proportional between Min and Stiff, saturated fully open from
// Stiff onward. Safety marks the hard-open threshold where the valve must be
// wide open no matter what; configuration enforces Min <= Stiff <= Safety.
type ReliefValve struct {
	Min             float64 // Pa
	Stiff           float64 // Pa
	Safety          float64 // Pa
	OrificeDiameter float64 // m
}

// Opening is the opening fraction in [0,1] for the given absolute pressure.
// Non-decreasing across the whole range.
func (v ReliefValve) Opening(p float64) float64 {
	switch {
	case p <= v.Min:
		return 0
	case p >= v.Stiff:
		return 1
	default:
		return (p - v.Min) / (v.Stiff - v.Min)
	}
}

// SafetyBlown reports that the pressure has passed the hard-open threshold.
func (v ReliefValve) SafetyBlown(p float64) bool { return p >= v.Safety }

// Flow is the bleed mass flow from a chamber at pressure p into the
// downstream space. Never negative: a relief valve cannot draw air back in.
func (v ReliefValve) Flow(p, downstream float64) float64 {
	open := v.Opening(p)
	if open == 0 || p <= downstream {
		return 0
	}
	return open * OrificeMassFlow(v.OrificeDiameter, p-downstream)
}

// Throttle is a bidirectional variable orifice. Fraction positions the
// effective diameter between the min (soft) and stiff settings.
type Throttle struct {
	MinDiameter   float64 // m
	StiffDiameter float64 // m
	Fraction      float64 // 0 = min, 1 = stiff
}

// Diameter is the effective orifice diameter for the current setting.
func (t Throttle) Diameter() float64 {
	f := t.Fraction
	if f < 0 {
		f = 0
	} else if f > 1 {
		f = 1
	}
	return t.MinDiameter + (t.StiffDiameter-t.MinDiameter)*f
}

// Flow is the signed mass flow for the given pressure difference.
func (t Throttle) Flow(dp float64) float64 {
	return OrificeMassFlow(t.Diameter(), dp)
}
