// Package config defines the rig configuration consumed from the
// surrounding application: geometry, pneumatics, scheduling, and the lever
// drive. Configurations are value types; the simulation snapshots one per
// frame and never shares mutable fields with editors.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"pneurig/internal/chamber"
	"pneurig/internal/pneuma"
)

// Defaults for a mid-size rig. Pressures in Pa, lengths in meters.
const (
	DefaultPhysicsDt        = 0.001
	DefaultMaxSteps         = 10
	DefaultMaxFrameTime     = 0.008
	DefaultRenderHz         = 60
	DefaultLeverLength      = 0.8
	DefaultRodFraction      = 0.6
	DefaultBodyLength       = 0.6
	DefaultTailRodLength    = 0.1
	DefaultPistonRodLength  = 0.2
	DefaultBoreDiameter     = 0.05
	DefaultReceiverVolume   = 0.02
	DefaultReceiverPressure = 6e5
)

// CornerNames is the fixed corner order used everywhere: front-left,
// front-right, rear-left, rear-right.
var CornerNames = [4]string{"FL", "FR", "RL", "RR"}

type Config struct {
	Geometry   GeometryConfig   `yaml:"geometry"`
	Pneumatic  PneumaticConfig  `yaml:"pneumatic"`
	Scheduling SchedulingConfig `yaml:"scheduling"`
	Drive      DriveConfig      `yaml:"drive"`
}

type GeometryConfig struct {
	LeverLength         float64        `yaml:"lever_length"`
	RodPositionFraction float64        `yaml:"rod_position_fraction"`
	CylinderBodyLength  float64        `yaml:"cylinder_body_length"`
	TailRodLength       float64        `yaml:"tail_rod_length"`
	PistonRodLength     float64        `yaml:"piston_rod_length"`
	BoreDiameter        float64        `yaml:"bore_diameter"`
	DeadZoneHeadVolume  float64        `yaml:"dead_zone_head_volume"`
	DeadZoneRodVolume   float64        `yaml:"dead_zone_rod_volume"`
	Corners             []CornerConfig `yaml:"corners"`
}

type CornerConfig struct {
	Name     string  `yaml:"name"`
	ArmX     float64 `yaml:"arm_x"`
	ArmY     float64 `yaml:"arm_y"`
	TailX    float64 `yaml:"tail_x"`
	TailY    float64 `yaml:"tail_y"`
	Mirrored bool    `yaml:"mirrored"`
}

type ValveConfig struct {
	CrackPressure   float64 `yaml:"crack_pressure"`
	OrificeDiameter float64 `yaml:"orifice_diameter"`
}

type ReliefConfig struct {
	Min             float64 `yaml:"min"`
	Stiff           float64 `yaml:"stiff"`
	Safety          float64 `yaml:"safety"`
	OrificeDiameter float64 `yaml:"orifice_diameter"`
}

type ThrottleConfig struct {
	MinDiameter   float64 `yaml:"min_diameter"`
	StiffDiameter float64 `yaml:"stiff_diameter"`
	Fraction      float64 `yaml:"fraction"`
}

type PneumaticConfig struct {
	VolumeMode            string         `yaml:"volume_mode"`
	ReceiverVolume        float64        `yaml:"receiver_volume"`
	ReceiverVolumeMin     float64        `yaml:"receiver_volume_min"`
	ReceiverVolumeMax     float64        `yaml:"receiver_volume_max"`
	ReceiverPressure      float64        `yaml:"receiver_pressure"`
	AtmosphereCheck       ValveConfig    `yaml:"atmosphere_check"`
	ReceiverCheck         ValveConfig    `yaml:"receiver_check"`
	Relief                ReliefConfig   `yaml:"relief"`
	SupplyThrottle        ThrottleConfig `yaml:"supply_throttle"`
	CrossThrottle         ThrottleConfig `yaml:"cross_throttle"`
	AtmosphereTemperature float64        `yaml:"atmosphere_temperature"`
	MasterIsolationOpen   bool           `yaml:"master_isolation_open"`
	ThermoMode            string         `yaml:"thermo_mode"`
}

type SchedulingConfig struct {
	PhysicsDt        float64 `yaml:"physics_dt"`
	MaxStepsPerFrame int     `yaml:"max_steps_per_frame"`
	MaxFrameTime     float64 `yaml:"max_frame_time"`
	RenderIntervalHz int     `yaml:"render_interval_hz"`
}

type DriveConfig struct {
	Mode         string  `yaml:"mode"` // constant | sine
	AngleDeg     float64 `yaml:"angle_deg"`
	AmplitudeDeg float64 `yaml:"amplitude_deg"`
	FrequencyHz  float64 `yaml:"frequency_hz"`
	RearPhaseDeg float64 `yaml:"rear_phase_deg"`
}

// DefaultConfig is a reachable, stable starting point: levers near neutral,
// receiver charged, isolation open.
func DefaultConfig() Config {
	corners := make([]CornerConfig, 0, 4)
	for i, name := range CornerNames {
		mirrored := i%2 == 1 // right-side corners point along negative local x
		tailX := -0.3
		if mirrored {
			tailX = 0.3
		}
		corners = append(corners, CornerConfig{
			Name:     name,
			TailX:    tailX,
			TailY:    -0.05,
			Mirrored: mirrored,
		})
	}

	return Config{
		Geometry: GeometryConfig{
			LeverLength:         DefaultLeverLength,
			RodPositionFraction: DefaultRodFraction,
			CylinderBodyLength:  DefaultBodyLength,
			TailRodLength:       DefaultTailRodLength,
			PistonRodLength:     DefaultPistonRodLength,
			BoreDiameter:        DefaultBoreDiameter,
			DeadZoneHeadVolume:  2e-5,
			DeadZoneRodVolume:   1.5e-5,
			Corners:             corners,
		},
		Pneumatic: PneumaticConfig{
			VolumeMode:            chamber.Manual.String(),
			ReceiverVolume:        DefaultReceiverVolume,
			ReceiverVolumeMin:     0.001,
			ReceiverVolumeMax:     0.1,
			ReceiverPressure:      DefaultReceiverPressure,
			AtmosphereCheck:       ValveConfig{CrackPressure: 5000, OrificeDiameter: 0.0015},
			ReceiverCheck:         ValveConfig{CrackPressure: 20000, OrificeDiameter: 0.002},
			Relief:                ReliefConfig{Min: 2.5e5, Stiff: 1.5e6, Safety: 5e6, OrificeDiameter: 0.002},
			SupplyThrottle:        ThrottleConfig{MinDiameter: 0.001, StiffDiameter: 0.003, Fraction: 0.5},
			CrossThrottle:         ThrottleConfig{MinDiameter: 0.0008, StiffDiameter: 0.002, Fraction: 0.5},
			AtmosphereTemperature: 293.15,
			MasterIsolationOpen:   true,
			ThermoMode:            pneuma.Isothermal.String(),
		},
		Scheduling: SchedulingConfig{
			PhysicsDt:        DefaultPhysicsDt,
			MaxStepsPerFrame: DefaultMaxSteps,
			MaxFrameTime:     DefaultMaxFrameTime,
			RenderIntervalHz: DefaultRenderHz,
		},
		Drive: DriveConfig{
			Mode:         "sine",
			AmplitudeDeg: 5,
			FrequencyHz:  0.5,
			RearPhaseDeg: 90,
		},
	}
}

// Load reads a YAML file over the defaults, then validates.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects orderings and magnitudes the core cannot run with. A
// rejected configuration is never applied; the prior one stays active.
func (c Config) Validate() error {
	g := c.Geometry
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"lever_length", g.LeverLength},
		{"cylinder_body_length", g.CylinderBodyLength},
		{"tail_rod_length", g.TailRodLength},
		{"piston_rod_length", g.PistonRodLength},
		{"bore_diameter", g.BoreDiameter},
	} {
		if f.value <= 0 {
			return fmt.Errorf("config: %s must be positive, got %g", f.name, f.value)
		}
	}
	if g.RodPositionFraction < 0 || g.RodPositionFraction > 1 {
		return fmt.Errorf("config: rod_position_fraction %g outside [0,1]", g.RodPositionFraction)
	}
	if g.DeadZoneHeadVolume < 0 || g.DeadZoneRodVolume < 0 {
		return fmt.Errorf("config: dead zone volumes must be non-negative")
	}
	if len(g.Corners) != 4 {
		return fmt.Errorf("config: expected 4 corners, got %d", len(g.Corners))
	}
	seen := map[string]bool{}
	for _, corner := range g.Corners {
		valid := false
		for _, n := range CornerNames {
			if corner.Name == n {
				valid = true
			}
		}
		if !valid {
			return fmt.Errorf("config: unknown corner name %q", corner.Name)
		}
		if seen[corner.Name] {
			return fmt.Errorf("config: duplicate corner %q", corner.Name)
		}
		seen[corner.Name] = true
	}

	p := c.Pneumatic
	mode, err := chamber.ParseMode(p.VolumeMode)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := pneuma.ParseThermoMode(p.ThermoMode); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if mode == chamber.Manual {
		if p.ReceiverVolume <= 0 {
			return fmt.Errorf("config: receiver_volume must be positive, got %g", p.ReceiverVolume)
		}
		if p.ReceiverVolumeMin > 0 && p.ReceiverVolume < p.ReceiverVolumeMin {
			return fmt.Errorf("config: receiver_volume %g below limit %g", p.ReceiverVolume, p.ReceiverVolumeMin)
		}
		if p.ReceiverVolumeMax > 0 && p.ReceiverVolume > p.ReceiverVolumeMax {
			return fmt.Errorf("config: receiver_volume %g above limit %g", p.ReceiverVolume, p.ReceiverVolumeMax)
		}
	}
	if p.ReceiverPressure <= 0 {
		return fmt.Errorf("config: receiver_pressure must be positive, got %g", p.ReceiverPressure)
	}
	if p.Relief.Min > p.Relief.Stiff || p.Relief.Stiff > p.Relief.Safety {
		return fmt.Errorf("config: relief thresholds must satisfy min <= stiff <= safety, got %g/%g/%g",
			p.Relief.Min, p.Relief.Stiff, p.Relief.Safety)
	}
	if p.AtmosphereTemperature <= 0 {
		return fmt.Errorf("config: atmosphere_temperature must be positive, got %g", p.AtmosphereTemperature)
	}

	s := c.Scheduling
	if s.PhysicsDt <= 0 {
		return fmt.Errorf("config: physics_dt must be positive, got %g", s.PhysicsDt)
	}
	if s.MaxStepsPerFrame < 1 {
		return fmt.Errorf("config: max_steps_per_frame must be >= 1, got %d", s.MaxStepsPerFrame)
	}
	if s.RenderIntervalHz < 1 {
		return fmt.Errorf("config: render_interval_hz must be >= 1, got %d", s.RenderIntervalHz)
	}

	switch c.Drive.Mode {
	case "constant", "sine":
	default:
		return fmt.Errorf("config: unknown drive mode %q", c.Drive.Mode)
	}
	return nil
}

// Clone returns a deep copy; the corner slice is the only reference field.
func (c Config) Clone() Config {
	out := c
	out.Geometry.Corners = append([]CornerConfig(nil), c.Geometry.Corners...)
	return out
}
