package prefabs

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/milk9111/dreamtower/audio"
	"github.com/milk9111/dreamtower/block"
	"github.com/milk9111/dreamtower/level"
	"github.com/milk9111/dreamtower/physics"
	"github.com/milk9111/dreamtower/spawner"
	"gopkg.in/yaml.v3"
)

const (
	TuningFile = "tuning.yaml"
	BlocksFile = "blocks.yaml"
	ArenaFile  = "arena.yaml"
)

var ErrInvalid = errors.New("prefabs: invalid spec")

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

// TuningSpec holds every gameplay tunable.
type TuningSpec struct {
	Block   block.Tuning          `yaml:"block"`
	Spawn   spawner.Policy        `yaml:"spawn"`
	Level   level.Tuning          `yaml:"level"`
	Sweep   level.SweepTuning     `yaml:"sweep"`
	Items   level.ItemTuning      `yaml:"items"`
	Physics physics.Config        `yaml:"physics"`
	Hearts  int                   `yaml:"hearts"`
	Sounds  map[string]audio.Tone `yaml:"sounds"`
}

func LoadTuning() (TuningSpec, error) {
	spec, err := LoadSpec[TuningSpec](TuningFile)
	if err != nil {
		return TuningSpec{}, err
	}
	if err := spec.Validate(); err != nil {
		return TuningSpec{}, fmt.Errorf("prefabs: %s: %w", TuningFile, err)
	}
	return spec, nil
}

// Validate rejects non-positive speeds and durations and probabilities
// outside [0,1].
func (s TuningSpec) Validate() error {
	b := s.Block
	switch {
	case b.FallSpeed <= 0:
		return invalid("block.fall_speed must be positive")
	case b.MoveSpeed <= 0:
		return invalid("block.move_speed must be positive")
	case b.RotationSpeed <= 0:
		return invalid("block.rotation_speed must be positive")
	case b.FastFallMultiplier < 1:
		return invalid("block.fast_fall_multiplier must be at least 1")
	case b.SnapThreshold < 0 || b.SnapThreshold >= 45:
		return invalid("block.snap_threshold must be in [0,45)")
	case b.SnapPauseTime < 0 || b.HoldTimeRequired < 0 || b.TrapFadeDelay < 0:
		return invalid("block timings must not be negative")
	case b.Float.StartSpeed < 0 || b.Float.Acceleration < 0:
		return invalid("block.float speeds must not be negative")
	case b.Float.MaxSpeed < b.Float.StartSpeed:
		return invalid("block.float.max_speed below start_speed")
	}

	p := s.Spawn
	for name, v := range map[string]float64{
		"base_probability": p.BaseProbability,
		"reality_penalty":  p.RealityPenalty,
		"dream_bonus":      p.DreamBonus,
	} {
		if v < 0 || v > 1 {
			return invalid("spawn.%s %.2f outside [0,1]", name, v)
		}
	}
	if p.SpawnDelay < 0 {
		return invalid("spawn.spawn_delay must not be negative")
	}

	l := s.Level
	switch {
	case l.TriggerHeight <= 0:
		return invalid("level.trigger_height must be positive")
	case l.Offset <= 0:
		return invalid("level.offset must be positive")
	case l.Duration <= 0:
		return invalid("level.duration must be positive")
	case l.RocketLevels < 1:
		return invalid("level.rocket_levels must be at least 1")
	}

	w := s.Sweep
	switch {
	case w.MoveDuration <= 0:
		return invalid("sweep.move_duration must be positive")
	case w.MinOffset < 0 || w.MaxOffset < w.MinOffset:
		return invalid("sweep offsets must satisfy 0 <= min <= max")
	case w.IncreasePerLevel < 0:
		return invalid("sweep.increase_per_level must not be negative")
	}

	it := s.Items
	switch {
	case it.HeightMax < it.HeightMin:
		return invalid("items.height_max below height_min")
	case it.WidthMax < it.WidthMin:
		return invalid("items.width_max below width_min")
	case it.Size <= 0:
		return invalid("items.size must be positive")
	}
	for _, name := range it.Kinds {
		if _, err := level.ParseItemKind(name); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}
	}

	if s.Hearts <= 0 {
		return invalid("hearts must be positive")
	}
	for name, tone := range s.Sounds {
		if err := tone.Validate(); err != nil {
			return fmt.Errorf("%w: sound %s: %w", ErrInvalid, name, err)
		}
	}
	return nil
}

// VariantSpec is one block shape.
type VariantSpec struct {
	Sprite string         `yaml:"sprite"`
	Color  YAMLColor      `yaml:"color"`
	Cells  []physics.Cell `yaml:"cells"`
}

// BlocksSpec lists the block shapes of each category.
type BlocksSpec struct {
	CellSize float64       `yaml:"cell_size"`
	Reality  []VariantSpec `yaml:"reality"`
	Dream    []VariantSpec `yaml:"dream"`
}

func LoadBlocks() (BlocksSpec, error) {
	spec, err := LoadSpec[BlocksSpec](BlocksFile)
	if err != nil {
		return BlocksSpec{}, err
	}
	if err := spec.Validate(); err != nil {
		return BlocksSpec{}, fmt.Errorf("prefabs: %s: %w", BlocksFile, err)
	}
	return spec, nil
}

// Validate requires a positive cell size and at least one cell per variant.
// Empty pools are left to the spawner, which refuses to start on them.
func (s BlocksSpec) Validate() error {
	if s.CellSize <= 0 {
		return invalid("cell_size must be positive")
	}
	for _, kind := range []block.Kind{block.KindReality, block.KindDream} {
		for i, v := range s.Variants(kind) {
			if len(v.Cells) == 0 {
				return invalid("%s variant %d has no cells", kind, i)
			}
		}
	}
	return nil
}

// Variants returns the shapes of kind.
func (s BlocksSpec) Variants(kind block.Kind) []VariantSpec {
	if kind == block.KindDream {
		return s.Dream
	}
	return s.Reality
}

// Variant returns shape i of kind.
func (s BlocksSpec) Variant(kind block.Kind, i int) (VariantSpec, bool) {
	list := s.Variants(kind)
	if i < 0 || i >= len(list) {
		return VariantSpec{}, false
	}
	return list[i], true
}

// Sprites returns the sprite names of kind in variant order.
func (s BlocksSpec) Sprites(kind block.Kind) []string {
	list := s.Variants(kind)
	out := make([]string, len(list))
	for i, v := range list {
		out[i] = v.Sprite
	}
	return out
}

// ArenaSpec is the static playfield.
type ArenaSpec struct {
	Left       float64          `yaml:"left"`
	Right      float64          `yaml:"right"`
	GroundY    float64          `yaml:"ground_y"`
	WallHeight float64          `yaml:"wall_height"`
	Traps      []level.TrapSpec `yaml:"traps"`
}

func LoadArena() (ArenaSpec, error) {
	spec, err := LoadSpec[ArenaSpec](ArenaFile)
	if err != nil {
		return ArenaSpec{}, err
	}
	if err := spec.Validate(); err != nil {
		return ArenaSpec{}, fmt.Errorf("prefabs: %s: %w", ArenaFile, err)
	}
	return spec, nil
}

func (s ArenaSpec) Validate() error {
	if s.Right <= s.Left {
		return invalid("right must be greater than left")
	}
	if s.WallHeight <= 0 {
		return invalid("wall_height must be positive")
	}
	for i, t := range s.Traps {
		if _, err := level.ParseTrapType(t.Type); err != nil {
			return fmt.Errorf("%w: trap %d: %w", ErrInvalid, i, err)
		}
		if t.Width <= 0 || t.Height <= 0 {
			return invalid("trap %d has no area", i)
		}
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

type YAMLColor struct {
	color.Color
}

func (c *YAMLColor) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("color must be a string")
	}

	s := strings.TrimPrefix(value.Value, "#")

	if len(s) != 6 && len(s) != 8 {
		return fmt.Errorf("invalid color format: %s", value.Value)
	}

	parse := func(start int) (uint8, error) {
		v, err := strconv.ParseUint(s[start:start+2], 16, 8)
		return uint8(v), err
	}

	r, err := parse(0)
	if err != nil {
		return err
	}
	g, err := parse(2)
	if err != nil {
		return err
	}
	b, err := parse(4)
	if err != nil {
		return err
	}

	a := uint8(255)
	if len(s) == 8 {
		a, err = parse(6)
		if err != nil {
			return err
		}
	}

	c.Color = color.NRGBA{R: r, G: g, B: b, A: a}
	return nil
}

// Or returns the parsed colour, or fallback when none was set.
func (c YAMLColor) Or(fallback color.Color) color.Color {
	if c.Color == nil {
		return fallback
	}
	return c.Color
}
