package script

import (
	"errors"
	"fmt"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/milk9111/dreamtower/block"
	"github.com/milk9111/dreamtower/prefabs"
)

var ErrNoDecide = errors.New("script: decide is not defined")

const dispatch = `
__out := undefined
if __phase == "decide" {
	__out = decide(__in, __memory)
}
`

// State is what a script sees of the controlled block each tick.
type State struct {
	BlockID  uint64
	Kind     string
	BlockX   float64
	BlockY   float64
	Rotation float64
	TargetX  float64
	Tick     uint64
	Level    int
}

// Autopilot turns block state into logical input with a tengo script. The
// script defines decide(state, memory) and returns a map with horizontal,
// vertical, rotate_cw and rotate_ccw. memory persists between calls.
type Autopilot struct {
	name     string
	compiled *tengo.Compiled
	memory   *tengo.Map
}

// LoadAutopilot compiles a script from the prefabs scripts directory.
func LoadAutopilot(name string) (*Autopilot, error) {
	src, err := prefabs.LoadScript(name)
	if err != nil {
		return nil, fmt.Errorf("script: load %s (bundled: %s): %w", name, strings.Join(prefabs.Scripts(), ", "), err)
	}
	a, err := NewAutopilot(name, src)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func NewAutopilot(name string, src []byte) (*Autopilot, error) {
	script := tengo.NewScript(append(append([]byte{}, src...), dispatch...))
	_ = script.Add("__phase", "")
	_ = script.Add("__in", map[string]any{})
	_ = script.Add("__memory", map[string]any{})
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("script: compile %s: %w", name, err)
	}
	if err := compiled.Run(); err != nil {
		return nil, fmt.Errorf("script: run %s: %w", name, err)
	}
	if !compiled.IsDefined("decide") {
		return nil, fmt.Errorf("%w: %s", ErrNoDecide, name)
	}
	return &Autopilot{
		name:     name,
		compiled: compiled,
		memory:   &tengo.Map{Value: map[string]tengo.Object{}},
	}, nil
}

func (a *Autopilot) Name() string { return a.name }

// Decide runs the script once.
func (a *Autopilot) Decide(s State) (block.Input, error) {
	if a == nil || a.compiled == nil {
		return block.Input{}, nil
	}
	in := map[string]any{
		"block_id": int64(s.BlockID),
		"kind":     s.Kind,
		"block_x":  s.BlockX,
		"block_y":  s.BlockY,
		"rotation": s.Rotation,
		"target_x": s.TargetX,
		"tick":     int64(s.Tick),
		"level":    int64(s.Level),
	}
	if err := a.compiled.Set("__phase", "decide"); err != nil {
		return block.Input{}, err
	}
	if err := a.compiled.Set("__in", in); err != nil {
		return block.Input{}, err
	}
	if err := a.compiled.Set("__memory", a.memory); err != nil {
		return block.Input{}, err
	}
	if err := a.compiled.Run(); err != nil {
		return block.Input{}, fmt.Errorf("script: run %s: %w", a.name, err)
	}

	out := a.compiled.Get("__out").Map()
	if out == nil {
		return block.Input{}, nil
	}
	return block.Input{
		Horizontal: axis(out["horizontal"]),
		Vertical:   axis(out["vertical"]),
		RotateCW:   truthy(out["rotate_cw"]),
		RotateCCW:  truthy(out["rotate_ccw"]),
	}, nil
}

// Reset forgets script memory.
func (a *Autopilot) Reset() {
	if a == nil {
		return
	}
	a.memory = &tengo.Map{Value: map[string]tengo.Object{}}
}

// axis clamps a script number to [-1,1].
func axis(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int64:
		f = float64(n)
	case int:
		f = float64(n)
	default:
		return 0
	}
	return max(-1, min(1, f))
}

func truthy(v any) bool {
	b, ok := v.(bool)
	return ok && b
}
