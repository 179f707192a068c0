package level

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/dreamtower/common"
)

// SweepTuning controls the horizontal sweep of the spawn point.
type SweepTuning struct {
	StartX           float64 `yaml:"start_x"`
	Y                float64 `yaml:"y"`
	MinOffset        float64 `yaml:"min_offset"`
	MaxOffset        float64 `yaml:"max_offset"`
	IncreasePerLevel float64 `yaml:"increase_per_level"`
	MoveDuration     float64 `yaml:"move_duration"`
}

// DefaultSweepTuning returns the sweep the game ships with.
func DefaultSweepTuning() SweepTuning {
	return SweepTuning{
		StartX:           0,
		Y:                32,
		MinOffset:        0,
		MaxOffset:        10,
		IncreasePerLevel: 1,
		MoveDuration:     10,
	}
}

// SpawnPoint sweeps from its start to the left edge, across to the right
// edge and back to the start, looping. The edges widen as levels go by.
type SpawnPoint struct {
	tuning  SweepTuning
	offset  float64
	y       float64
	elapsed float64
}

func NewSpawnPoint(t SweepTuning) *SpawnPoint {
	if t.MoveDuration <= 0 {
		t.MoveDuration = 1
	}
	return &SpawnPoint{tuning: t, offset: t.MinOffset, y: t.Y}
}

// Advance moves the sweep forward by dt seconds.
func (p *SpawnPoint) Advance(dt float64) {
	if p == nil {
		return
	}
	p.elapsed += dt
	if cycle := 2 * p.tuning.MoveDuration; p.elapsed >= cycle {
		p.elapsed -= cycle * float64(int(p.elapsed/cycle))
	}
}

// Position returns where the next block appears.
func (p *SpawnPoint) Position() cp.Vector {
	if p == nil {
		return cp.Vector{}
	}
	start := p.tuning.StartX
	left := start - p.offset
	right := start + p.offset
	half := p.tuning.MoveDuration / 2
	t := p.elapsed

	var x float64
	switch {
	case t < half:
		x = common.Lerp(start, left, t/half)
	case t < half+p.tuning.MoveDuration:
		x = common.Lerp(left, right, (t-half)/p.tuning.MoveDuration)
	default:
		x = common.Lerp(right, start, (t-half-p.tuning.MoveDuration)/half)
	}
	return cp.Vector{X: x, Y: p.y}
}

// UpdateMoveSetting widens the sweep for level and restarts it from the
// start position.
func (p *SpawnPoint) UpdateMoveSetting(level int) {
	if p == nil {
		return
	}
	p.offset += p.tuning.IncreasePerLevel * float64(level-1)
	if p.offset > p.tuning.MaxOffset {
		p.offset = p.tuning.MaxOffset
	}
	p.elapsed = 0
}

// Raise moves the spawn point up by dy.
func (p *SpawnPoint) Raise(dy float64) {
	if p == nil {
		return
	}
	p.y += dy
}

// Offset returns the current half-width of the sweep.
func (p *SpawnPoint) Offset() float64 {
	if p == nil {
		return 0
	}
	return p.offset
}
