package pneuma

import "fmt"

// Network is the single shared valve arrangement of the rig. Every cylinder
// line (head or rod chamber) sees the same four paths:
//
//	atmosphere --[check]--> line              make-up air
//	line --[relief]--> atmosphere             graduated overpressure bleed
//	line --[check]--> receiver                return path
//	receiver <--[throttle]--> line            supply feed
//
// plus a fixed cross throttle between the head and rod lines of each corner,
// which is what damps the lever. MasterIsolationOpen=false severs both
// receiver paths regardless of the valve states on them.
type Network struct {
	AtmosphereCheck CheckValve
	ReceiverCheck   CheckValve
	Relief          ReliefValve
	SupplyThrottle  Throttle
	CrossThrottle   Throttle

	ReceiverVolume        float64
	AtmospherePressure    float64
	AtmosphereTemperature float64
	MasterIsolationOpen   bool
	Thermo                ThermoMode
}

// Validate rejects orderings and magnitudes that the valve model cannot
// represent. Called before a network is committed to a run.
func (n Network) Validate() error {
	if n.Relief.Min > n.Relief.Stiff || n.Relief.Stiff > n.Relief.Safety {
		return fmt.Errorf("pneuma: relief thresholds must satisfy min <= stiff <= safety, got %g/%g/%g",
			n.Relief.Min, n.Relief.Stiff, n.Relief.Safety)
	}
	if n.Relief.Min < 0 {
		return fmt.Errorf("pneuma: negative relief threshold %g", n.Relief.Min)
	}
	if n.AtmosphereCheck.CrackPressure < 0 || n.ReceiverCheck.CrackPressure < 0 {
		return fmt.Errorf("pneuma: negative check valve crack pressure")
	}
	if n.AtmosphereCheck.OrificeDiameter < 0 || n.ReceiverCheck.OrificeDiameter < 0 ||
		n.Relief.OrificeDiameter < 0 {
		return fmt.Errorf("pneuma: negative orifice diameter")
	}
	if n.SupplyThrottle.MinDiameter < 0 || n.SupplyThrottle.StiffDiameter < 0 ||
		n.CrossThrottle.MinDiameter < 0 || n.CrossThrottle.StiffDiameter < 0 {
		return fmt.Errorf("pneuma: negative throttle diameter")
	}
	if n.ReceiverVolume <= 0 {
		return fmt.Errorf("pneuma: receiver volume must be positive, got %g", n.ReceiverVolume)
	}
	if n.AtmosphereTemperature <= 0 {
		return fmt.Errorf("pneuma: atmosphere temperature must be positive, got %g K", n.AtmosphereTemperature)
	}
	if n.AtmospherePressure <= 0 {
		return fmt.Errorf("pneuma: atmosphere pressure must be positive, got %g Pa", n.AtmospherePressure)
	}
	return nil
}
