package level

import (
	"fmt"
	"slices"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/dreamtower/block"
	"github.com/milk9111/dreamtower/ecs"
)

// TrapType selects which blocks a trap catches.
type TrapType uint8

const (
	TrapReality TrapType = iota
	TrapDream
	TrapAll
)

func (t TrapType) String() string {
	switch t {
	case TrapReality:
		return "reality"
	case TrapDream:
		return "dream"
	case TrapAll:
		return "all"
	default:
		return "unknown"
	}
}

// ParseTrapType maps a prefab name to a TrapType.
func ParseTrapType(s string) (TrapType, error) {
	switch s {
	case "reality":
		return TrapReality, nil
	case "dream":
		return TrapDream, nil
	case "all":
		return TrapAll, nil
	default:
		return TrapReality, fmt.Errorf("level: unknown trap type %q", s)
	}
}

// TrapSpec places a trap.
type TrapSpec struct {
	Type   string  `yaml:"type"`
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Trap is a sensor that fires TriggerTrap on every matching block resting
// inside it. Dream traps only catch dream blocks that are floating.
type Trap struct {
	id       ecs.Entity
	kind     TrapType
	center   cp.Vector
	width    float64
	height   float64
	touching []*block.Block
}

func NewTrap(id ecs.Entity, kind TrapType, center cp.Vector, width, height float64) *Trap {
	return &Trap{id: id, kind: kind, center: center, width: width, height: height}
}

func (t *Trap) ID() ecs.Entity { return t.id }
func (t *Trap) Type() TrapType { return t.kind }
func (t *Trap) Center() cp.Vector { return t.center }

// Size returns the sensor width and height.
func (t *Trap) Size() (float64, float64) {
	return t.width, t.height
}

// Enter records a block overlapping the sensor.
func (t *Trap) Enter(b *block.Block) {
	if t == nil || b == nil || slices.Contains(t.touching, b) {
		return
	}
	t.touching = append(t.touching, b)
}

// Exit forgets a block that left the sensor.
func (t *Trap) Exit(b *block.Block) {
	if t == nil {
		return
	}
	if i := slices.Index(t.touching, b); i >= 0 {
		t.touching = slices.Delete(t.touching, i, i+1)
	}
}

// Touching returns the number of blocks inside the sensor.
func (t *Trap) Touching() int {
	if t == nil {
		return 0
	}
	return len(t.touching)
}

func (t *Trap) matches(b *block.Block) bool {
	switch t.kind {
	case TrapReality:
		return b.Kind() == block.KindReality
	case TrapDream:
		return b.Kind() == block.KindDream && b.IsFloating()
	case TrapAll:
		return true
	default:
		return false
	}
}

// Update triggers every matching block still inside the sensor.
func (t *Trap) Update() []ecs.Event {
	if t == nil {
		return nil
	}
	var out []ecs.Event
	for _, b := range t.touching {
		if !b.Alive() || b.IsFixed() || !t.matches(b) {
			continue
		}
		out = append(out, b.TriggerTrap()...)
	}
	t.touching = slices.DeleteFunc(t.touching, func(b *block.Block) bool {
		return !b.Alive()
	})
	return out
}
