package block

// Tuning holds the per-block tunables.
type Tuning struct {
	FallSpeed          float64 `yaml:"fall_speed"`
	MoveSpeed          float64 `yaml:"move_speed"`
	RotationSpeed      float64 `yaml:"rotation_speed"`
	FastFallMultiplier float64 `yaml:"fast_fall_multiplier"`
	SnapThreshold      float64 `yaml:"snap_threshold"`
	SnapPauseTime      float64 `yaml:"snap_pause_time"`
	HoldTimeRequired   float64 `yaml:"hold_time_required"`
	TrapFadeDelay      float64 `yaml:"trap_fade_delay"`

	Float BuoyancyTuning `yaml:"float"`
}

// BuoyancyTuning controls how a dream block rises while unsupported.
type BuoyancyTuning struct {
	StartSpeed   float64 `yaml:"start_speed"`
	MaxSpeed     float64 `yaml:"max_speed"`
	Acceleration float64 `yaml:"acceleration"`
}

// DefaultTuning returns the tunables the game ships with.
func DefaultTuning() Tuning {
	return Tuning{
		FallSpeed:          5,
		MoveSpeed:          10,
		RotationSpeed:      180,
		FastFallMultiplier: 2,
		SnapThreshold:      5,
		SnapPauseTime:      0.2,
		HoldTimeRequired:   0,
		TrapFadeDelay:      1,
		Float: BuoyancyTuning{
			StartSpeed:   1,
			MaxSpeed:     5,
			Acceleration: 4,
		},
	}
}
