package tracking

// SpeedModel supplies the assumed travel speed used for ETA derivation.
// No routing or traffic model is involved; speed is configuration.
type SpeedModel interface {
	// SpeedMps returns the assumed speed in meters per second for the given
	// vehicle type. An empty vehicle type yields the default speed.
	SpeedMps(vehicleType string) float64
}

// FixedSpeedModel returns a configured default speed with optional
// per-vehicle-type overrides.
type FixedSpeedModel struct {
	defaultMps float64
	overrides  map[string]float64
}

// NewFixedSpeedModel creates a FixedSpeedModel with the given default speed.
func NewFixedSpeedModel(defaultMps float64) *FixedSpeedModel {
	return &FixedSpeedModel{
		defaultMps: defaultMps,
		overrides:  make(map[string]float64),
	}
}

// WithOverride registers a speed override for a vehicle type.
func (m *FixedSpeedModel) WithOverride(vehicleType string, mps float64) *FixedSpeedModel {
	m.overrides[vehicleType] = mps
	return m
}

// SpeedMps implements SpeedModel.
func (m *FixedSpeedModel) SpeedMps(vehicleType string) float64 {
	if mps, ok := m.overrides[vehicleType]; ok {
		return mps
	}
	return m.defaultMps
}
