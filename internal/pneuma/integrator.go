package pneuma

import (
	"fmt"
	"math"
)

// CornerGas holds the two line chambers of one cylinder.
type CornerGas struct {
	Head Chamber
	Rod  Chamber
}

// State is the complete pneumatic state advanced by the integrator. Chamber
// volumes are owned by the kinematics side and handed in each step; the
// integrator owns every pressure in the system.
type State struct {
	Corners  []CornerGas
	Receiver Chamber
}

// NewState charges all line chambers to atmosphere and the receiver to the
// given pressure.
func NewState(net Network, headVols, rodVols []float64, receiverPressure float64) (State, error) {
	if len(headVols) != len(rodVols) {
		return State{}, fmt.Errorf("pneuma: %d head volumes vs %d rod volumes", len(headVols), len(rodVols))
	}
	st := State{Corners: make([]CornerGas, len(headVols))}
	for i := range st.Corners {
		st.Corners[i] = CornerGas{
			Head: NewChamber(net.AtmospherePressure, headVols[i], net.AtmosphereTemperature),
			Rod:  NewChamber(net.AtmospherePressure, rodVols[i], net.AtmosphereTemperature),
		}
	}
	st.Receiver = NewChamber(receiverPressure, net.ReceiverVolume, net.AtmosphereTemperature)
	return st, nil
}

// TotalMass sums the air mass across all chambers and the receiver. With the
// relief and make-up paths closed this is invariant under Step.
func (st State) TotalMass() float64 {
	m := st.Receiver.Mass()
	for _, c := range st.Corners {
		m += c.Head.Mass() + c.Rod.Mass()
	}
	return m
}

// transfer accumulates the mass moved into and out of one chamber during a
// step, with the mass-weighted inflow temperature.
type transfer struct {
	in     float64
	out    float64
	heatIn float64 // sum of dm * upstream temperature
}

func (t *transfer) addIn(dm, temp float64) {
	t.in += dm
	t.heatIn += dm * temp
}

func (t *transfer) inflowTemp(fallback float64) float64 {
	if t.in <= 0 {
		return fallback
	}
	return t.heatIn / t.in
}

// Integrator advances the pneumatic state one explicit step at a time. There
// is no internal sub-stepping: the caller's dt alone governs stability.
type Integrator struct {
	net Network
}

func NewIntegrator(net Network) (*Integrator, error) {
	if err := net.Validate(); err != nil {
		return nil, err
	}
	return &Integrator{net: net}, nil
}

// Network returns the active valve configuration.
func (it *Integrator) Network() Network { return it.net }

// SetNetwork swaps the valve configuration between steps. An invalid network
// is rejected and the prior one stays active.
func (it *Integrator) SetNetwork(net Network) error {
	if err := net.Validate(); err != nil {
		return err
	}
	it.net = net
	return nil
}

// Step advances all line and receiver pressures by dt seconds. The new
// chamber volumes (from the kinematics solve) are applied first under the
// configured gas law, then every valve path moves mass computed from the
// pre-flow pressures, so path evaluation order cannot bias the result.
func (it *Integrator) Step(st *State, headVols, rodVols []float64, dt float64) error {
	if len(headVols) != len(st.Corners) || len(rodVols) != len(st.Corners) {
		return fmt.Errorf("pneuma: volume count %d/%d does not match %d corners",
			len(headVols), len(rodVols), len(st.Corners))
	}
	if dt <= 0 {
		return fmt.Errorf("pneuma: non-positive dt %g", dt)
	}

	net := it.net
	mode := net.Thermo

	for i := range st.Corners {
		st.Corners[i].Head = st.Corners[i].Head.withVolume(headVols[i], mode)
		st.Corners[i].Rod = st.Corners[i].Rod.withVolume(rodVols[i], mode)
	}
	st.Receiver = st.Receiver.withVolume(net.ReceiverVolume, mode)

	lines := make([]*Chamber, 0, 2*len(st.Corners))
	for i := range st.Corners {
		lines = append(lines, &st.Corners[i].Head, &st.Corners[i].Rod)
	}

	moves := make([]transfer, len(lines))
	var recv transfer

	// Every outflow is bounded by the mass still uncommitted in its source
	// chamber, so a large dt can empty a chamber but never overdraw it: the
	// downstream side is credited exactly what was drawn.
	avail := make([]float64, len(lines))
	for li, line := range lines {
		avail[li] = math.Max(line.Mass()-minMass, 0)
	}
	recvAvail := math.Max(st.Receiver.Mass()-minMass, 0)

	draw := func(li int, dm float64) float64 {
		dm = math.Min(dm, avail[li])
		avail[li] -= dm
		return dm
	}
	drawReceiver := func(dm float64) float64 {
		dm = math.Min(dm, recvAvail)
		recvAvail -= dm
		return dm
	}

	for li, line := range lines {
		p := line.Pressure

		if f := net.AtmosphereCheck.Flow(net.AtmospherePressure - p); f > 0 {
			moves[li].addIn(f*dt, net.AtmosphereTemperature)
		}
		if f := net.Relief.Flow(p, net.AtmospherePressure); f > 0 {
			moves[li].out += draw(li, f*dt)
		}

		if !net.MasterIsolationOpen {
			continue
		}
		if f := net.ReceiverCheck.Flow(p - st.Receiver.Pressure); f > 0 {
			dm := draw(li, f*dt)
			moves[li].out += dm
			recv.addIn(dm, line.Temperature)
		}
		if f := net.SupplyThrottle.Flow(st.Receiver.Pressure - p); f > 0 {
			dm := drawReceiver(f * dt)
			moves[li].addIn(dm, st.Receiver.Temperature)
			recv.out += dm
		} else if f < 0 {
			dm := draw(li, -f*dt)
			moves[li].out += dm
			recv.addIn(dm, line.Temperature)
		}
	}

	for i := range st.Corners {
		head, rod := &st.Corners[i].Head, &st.Corners[i].Rod
		f := net.CrossThrottle.Flow(head.Pressure - rod.Pressure)
		if f > 0 {
			dm := draw(2*i, f*dt)
			moves[2*i].out += dm
			moves[2*i+1].addIn(dm, head.Temperature)
		} else if f < 0 {
			dm := draw(2*i+1, -f*dt)
			moves[2*i].addIn(dm, rod.Temperature)
			moves[2*i+1].out += dm
		}
	}

	for li, line := range lines {
		m := moves[li]
		*line = line.withMassFlow(m.in, m.inflowTemp(line.Temperature), m.out, mode)
	}
	st.Receiver = st.Receiver.withMassFlow(recv.in, recv.inflowTemp(st.Receiver.Temperature), recv.out, mode)
	return nil
}
