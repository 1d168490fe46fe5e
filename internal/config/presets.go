package config

// Presets are named starting points for common rig setups. Each builds on
// the defaults so unspecified sections stay valid.
var presetBuilders = map[string]func(*Config){
	// Factory setup, mid throttle, sine drive.
	"stock": func(c *Config) {},

	// Soft throttles and a low relief band: the rig breathes with the
	// levers instead of fighting them.
	"softride": func(c *Config) {
		c.Pneumatic.SupplyThrottle.Fraction = 0
		c.Pneumatic.CrossThrottle.Fraction = 0
		c.Pneumatic.Relief.Min = 1.8e5
		c.Pneumatic.Relief.Stiff = 8e5
		c.Drive.AmplitudeDeg = 3
	},

	// High receiver charge and stiff throttles for a loaded chassis.
	"loaded": func(c *Config) {
		c.Pneumatic.ReceiverPressure = 9e5
		c.Pneumatic.SupplyThrottle.Fraction = 1
		c.Pneumatic.CrossThrottle.Fraction = 1
		c.Drive.AmplitudeDeg = 7
		c.Drive.FrequencyHz = 1.2
	},

	// Isolated receiver, levers held still: for inspecting the valve
	// network response alone.
	"workshop": func(c *Config) {
		c.Pneumatic.MasterIsolationOpen = false
		c.Drive.Mode = "constant"
		c.Drive.AngleDeg = 0
	},

	// Adiabatic gas law at a fast lever sweep, where the thermal term
	// actually matters.
	"thermal": func(c *Config) {
		c.Pneumatic.ThermoMode = "adiabatic"
		c.Drive.AmplitudeDeg = 8
		c.Drive.FrequencyHz = 2
	},
}

// GetPreset returns the named preset, or false when unknown.
func GetPreset(name string) (Config, bool) {
	build, ok := presetBuilders[name]
	if !ok {
		return Config{}, false
	}
	cfg := DefaultConfig()
	build(&cfg)
	return cfg, true
}

// ListPresets returns all preset names.
func ListPresets() []string {
	names := make([]string, 0, len(presetBuilders))
	for name := range presetBuilders {
		names = append(names, name)
	}
	return names
}
