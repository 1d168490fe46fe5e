// Package pneuma models the shared valve network of the rig and advances the
// pneumatic state with an explicit fixed-step integrator. All units are SI:
// pressures in Pa, volumes in m^3, temperatures in K, mass in kg.
package pneuma

import (
	"fmt"
	"math"
)

const (
	// SpecificGasConstantAir is R for dry air, J/(kg*K).
	SpecificGasConstantAir = 287.05

	// AdiabaticIndexAir is the specific-heat ratio for air.
	AdiabaticIndexAir = 1.4

	// StandardAtmosphere is the ambient absolute pressure, Pa.
	StandardAtmosphere = 101325.0

	// minMass floors the air content of a chamber so an aggressive outflow
	// step cannot drive it negative.
	minMass = 1e-9
)

// ThermoMode selects the gas-law closure relating pressure and volume.
// Constant for a run.
type ThermoMode int

const (
	Isothermal ThermoMode = iota
	Adiabatic
)

func (m ThermoMode) String() string {
	switch m {
	case Isothermal:
		return "isothermal"
	case Adiabatic:
		return "adiabatic"
	default:
		return fmt.Sprintf("thermo(%d)", int(m))
	}
}

// ParseThermoMode maps a configuration string to a ThermoMode.
func ParseThermoMode(s string) (ThermoMode, error) {
	switch s {
	case "isothermal":
		return Isothermal, nil
	case "adiabatic":
		return Adiabatic, nil
	default:
		return 0, fmt.Errorf("pneuma: unknown thermo mode %q", s)
	}
}

// Chamber is the gas content of one fixed- or variable-volume space.
type Chamber struct {
	Pressure    float64
	Volume      float64
	Temperature float64
}

// NewChamber fills a chamber of the given volume at the given pressure and
// temperature.
func NewChamber(pressure, volume, temperature float64) Chamber {
	return Chamber{Pressure: pressure, Volume: volume, Temperature: temperature}
}

// Mass is the ideal-gas air mass currently held in the chamber.
func (c Chamber) Mass() float64 {
	return c.Pressure * c.Volume / (SpecificGasConstantAir * c.Temperature)
}

// withVolume applies a fixed-mass volume change under the given gas law.
// Isothermal keeps temperature constant (P*V invariant); adiabatic follows
// P*V^gamma with the matching temperature shift.
func (c Chamber) withVolume(volume float64, mode ThermoMode) Chamber {
	if volume <= 0 || volume == c.Volume {
		return c
	}
	ratio := c.Volume / volume
	switch mode {
	case Adiabatic:
		c.Pressure *= math.Pow(ratio, AdiabaticIndexAir)
		c.Temperature *= math.Pow(ratio, AdiabaticIndexAir-1)
	default:
		c.Pressure *= ratio
	}
	c.Volume = volume
	return c
}

// withMassFlow applies a net mass change at constant volume. Inflowing air
// mixes at the upstream temperature; outflow leaves the remaining gas
// temperature unchanged. Isothermal mode pins the temperature instead.
func (c Chamber) withMassFlow(dmIn, inflowTemp, dmOut float64, mode ThermoMode) Chamber {
	if dmIn == 0 && dmOut == 0 {
		return c
	}
	m := c.Mass()
	remaining := math.Max(m-dmOut, minMass)
	total := remaining + dmIn

	if mode == Adiabatic && dmIn > 0 {
		c.Temperature = (remaining*c.Temperature + dmIn*inflowTemp) / total
	}
	c.Pressure = total * SpecificGasConstantAir * c.Temperature / c.Volume
	return c
}
