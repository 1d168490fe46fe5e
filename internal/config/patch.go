package config

// Patch is a sparse configuration update: only non-nil fields are applied.
// A patch is merged into a copy of the active configuration and the result
// validated before commit, so a bad update can never half-apply.
type Patch struct {
	ReceiverVolume       *float64 `yaml:"receiver_volume"`
	MasterIsolationOpen  *bool    `yaml:"master_isolation_open"`
	SupplyFraction       *float64 `yaml:"supply_fraction"`
	CrossFraction        *float64 `yaml:"cross_fraction"`
	ReliefMin            *float64 `yaml:"relief_min"`
	ReliefStiff          *float64 `yaml:"relief_stiff"`
	ReliefSafety         *float64 `yaml:"relief_safety"`
	DriveMode            *string  `yaml:"drive_mode"`
	DriveAngleDeg        *float64 `yaml:"drive_angle_deg"`
	DriveAmplitudeDeg    *float64 `yaml:"drive_amplitude_deg"`
	DriveFrequencyHz     *float64 `yaml:"drive_frequency_hz"`
	MaxStepsPerFrame     *int     `yaml:"max_steps_per_frame"`
	MaxFrameTime         *float64 `yaml:"max_frame_time"`
	AtmosphereTempKelvin *float64 `yaml:"atmosphere_temperature"`
}

// IsZero reports an empty patch.
func (p Patch) IsZero() bool {
	return p == (Patch{})
}

// Apply merges the patch into a copy of cfg and validates the result. The
// input configuration is never modified.
func (p Patch) Apply(cfg Config) (Config, error) {
	out := cfg.Clone()

	if p.ReceiverVolume != nil {
		out.Pneumatic.ReceiverVolume = *p.ReceiverVolume
	}
	if p.MasterIsolationOpen != nil {
		out.Pneumatic.MasterIsolationOpen = *p.MasterIsolationOpen
	}
	if p.SupplyFraction != nil {
		out.Pneumatic.SupplyThrottle.Fraction = *p.SupplyFraction
	}
	if p.CrossFraction != nil {
		out.Pneumatic.CrossThrottle.Fraction = *p.CrossFraction
	}
	if p.ReliefMin != nil {
		out.Pneumatic.Relief.Min = *p.ReliefMin
	}
	if p.ReliefStiff != nil {
		out.Pneumatic.Relief.Stiff = *p.ReliefStiff
	}
	if p.ReliefSafety != nil {
		out.Pneumatic.Relief.Safety = *p.ReliefSafety
	}
	if p.DriveMode != nil {
		out.Drive.Mode = *p.DriveMode
	}
	if p.DriveAngleDeg != nil {
		out.Drive.AngleDeg = *p.DriveAngleDeg
	}
	if p.DriveAmplitudeDeg != nil {
		out.Drive.AmplitudeDeg = *p.DriveAmplitudeDeg
	}
	if p.DriveFrequencyHz != nil {
		out.Drive.FrequencyHz = *p.DriveFrequencyHz
	}
	if p.MaxStepsPerFrame != nil {
		out.Scheduling.MaxStepsPerFrame = *p.MaxStepsPerFrame
	}
	if p.MaxFrameTime != nil {
		out.Scheduling.MaxFrameTime = *p.MaxFrameTime
	}
	if p.AtmosphereTempKelvin != nil {
		out.Pneumatic.AtmosphereTemperature = *p.AtmosphereTempKelvin
	}

	if err := out.Validate(); err != nil {
		return Config{}, err
	}
	return out, nil
}
