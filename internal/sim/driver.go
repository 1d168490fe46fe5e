package sim

import (
	"math"

	"pneurig/internal/config"
)

// LeverDriver supplies the externally driven lever angles (radians, corner
// order FL/FR/RL/RR) for a simulated time. Drivers must be pure: the same
// time always yields the same angles.
type LeverDriver interface {
	Angles(t float64) [4]float64
}

// ConstantDriver holds all levers at fixed angles.
type ConstantDriver [4]float64

func (d ConstantDriver) Angles(float64) [4]float64 { return d }

// SineDriver sweeps the levers sinusoidally, with the rear corners lagging
// the front by a fixed phase. This is the pitch-like excitation used by the
// CLI runs.
type SineDriver struct {
	Amplitude float64 // rad
	Frequency float64 // Hz
	RearPhase float64 // rad
}

func (d SineDriver) Angles(t float64) [4]float64 {
	front := d.Amplitude * math.Sin(2*math.Pi*d.Frequency*t)
	rear := d.Amplitude * math.Sin(2*math.Pi*d.Frequency*t-d.RearPhase)
	return [4]float64{front, front, rear, rear}
}

// DriverFromConfig builds the lever driver described by the drive section.
func DriverFromConfig(d config.DriveConfig) LeverDriver {
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }
	switch d.Mode {
	case "constant":
		a := rad(d.AngleDeg)
		return ConstantDriver{a, a, a, a}
	default:
		return SineDriver{
			Amplitude: rad(d.AmplitudeDeg),
			Frequency: d.FrequencyHz,
			RearPhase: rad(d.RearPhaseDeg),
		}
	}
}
