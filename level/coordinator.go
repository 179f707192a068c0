package level

import (
	"log"
	"math"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/dreamtower/block"
	"github.com/milk9111/dreamtower/common"
	"github.com/milk9111/dreamtower/ecs"
)

// Names of the sounds and effects the coordinator emits.
const (
	SoundLevelUp  = "level_up"
	EffectLevelUp = "level_up"
	EffectRocket  = "rocket_item"
)

// Tuning controls level progression.
type Tuning struct {
	CameraY       float64 `yaml:"camera_y"`
	TriggerHeight float64 `yaml:"trigger_height"`
	Offset        float64 `yaml:"offset"`
	Duration      float64 `yaml:"duration"`
	RocketLevels  int     `yaml:"rocket_levels"`
}

// DefaultTuning returns the progression the game ships with.
func DefaultTuning() Tuning {
	return Tuning{
		CameraY:       18,
		TriggerHeight: 12,
		Offset:        30,
		Duration:      3,
		RocketLevels:  4,
	}
}

// Tower is the part of the spawner the coordinator drives.
type Tower interface {
	SetCanSpawn(on bool)
	FixAllExceptControlled() []*block.Block
	Spawn() ([]ecs.Event, error)
}

// ItemDropper may place an item when a level is gained.
type ItemDropper interface {
	OnLevelUp(maxHeight float64) []ecs.Event
}

type cameraMove struct {
	from, to float64
	elapsed  float64
	duration float64
	easeIn   bool
}

func (m *cameraMove) at() float64 {
	if m.duration <= 0 || m.elapsed >= m.duration {
		return m.to
	}
	t := m.elapsed / m.duration
	if m.easeIn {
		t = 1 - math.Sqrt(1-t*t)
	}
	return common.Lerp(m.from, m.to, t)
}

// Coordinator advances the level when a settled reality block reaches the
// trigger line and tracks the maximum tower height.
type Coordinator struct {
	tuning Tuning
	tower  Tower
	point  *SpawnPoint
	timers *ecs.Timers
	items  ItemDropper

	level      int
	trigger    float64
	canLevelUp bool
	maxHeight  float64
	camera     cameraMove
	stopped    bool
}

func NewCoordinator(t Tuning, tower Tower, point *SpawnPoint, timers *ecs.Timers) *Coordinator {
	return &Coordinator{
		tuning:     t,
		tower:      tower,
		point:      point,
		timers:     timers,
		level:      1,
		trigger:    t.TriggerHeight,
		canLevelUp: true,
		camera:     cameraMove{from: t.CameraY, to: t.CameraY},
	}
}

// SetItems wires the item dropper consulted on level-up.
func (c *Coordinator) SetItems(items ItemDropper) {
	if c == nil {
		return
	}
	c.items = items
}

// Alive reports whether deferred level work may still run.
func (c *Coordinator) Alive() bool {
	return c != nil && !c.stopped
}

// Stop drops any level-up in flight.
func (c *Coordinator) Stop() {
	if c == nil {
		return
	}
	c.stopped = true
	c.canLevelUp = false
}

func (c *Coordinator) Level() int { return c.level }
func (c *Coordinator) TriggerHeight() float64 { return c.trigger }
func (c *Coordinator) MaxHeight() float64 { return c.maxHeight }
func (c *Coordinator) CanLevelUp() bool { return c.canLevelUp }

// CameraY returns where the camera is looking this tick.
func (c *Coordinator) CameraY() float64 {
	if c == nil {
		return 0
	}
	return c.camera.at()
}

// Advance moves the camera and the spawn sweep forward by dt seconds.
func (c *Coordinator) Advance(dt float64) {
	if c == nil {
		return
	}
	if c.camera.elapsed < c.camera.duration {
		c.camera.elapsed += dt
	}
	c.point.Advance(dt)
}

// ReportHeight records a tower height. Only a new maximum is announced.
func (c *Coordinator) ReportHeight(h float64) []ecs.Event {
	if c == nil || h <= c.maxHeight {
		return nil
	}
	c.maxHeight = h
	return []ecs.Event{{Kind: ecs.EventMaxHeight, Value: h}}
}

// Observe checks a block against the trigger line. top is the highest point
// of its body.
func (c *Coordinator) Observe(b *block.Block, top float64) []ecs.Event {
	if c == nil || !c.canLevelUp || c.stopped || b == nil {
		return nil
	}
	if b.Kind() != block.KindReality || b.IsControlled() || b.IsFixed() || !b.IsSettled() || !b.Alive() {
		return nil
	}
	if top < c.trigger {
		return nil
	}
	return c.levelUp(b.Position())
}

func (c *Coordinator) levelUp(at cp.Vector) []ecs.Event {
	c.canLevelUp = false
	c.tower.SetCanSpawn(false)
	c.tower.FixAllExceptControlled()
	c.level++
	log.Printf("Coordinator: level %d at (%.1f, %.1f)", c.level, at.X, at.Y)

	out := []ecs.Event{
		{Kind: ecs.EventLevelUp, Point: at, Value: float64(c.level)},
		{Kind: ecs.EventSound, Name: SoundLevelUp},
		{Kind: ecs.EventEffect, Name: EffectLevelUp, Point: at},
	}
	if c.items != nil {
		out = append(out, c.items.OnLevelUp(c.maxHeight)...)
	}
	c.moveUp(c.tuning.Offset, c.tuning.Duration, false)
	return out
}

// Rocket jumps several levels at once with a longer camera move.
func (c *Coordinator) Rocket() []ecs.Event {
	if c == nil || c.stopped {
		return nil
	}
	c.canLevelUp = false
	c.tower.SetCanSpawn(false)
	c.tower.FixAllExceptControlled()
	levels := c.tuning.RocketLevels
	c.level += levels
	log.Printf("Coordinator: rocket to level %d", c.level)

	c.moveUp(c.tuning.Offset*float64(levels), c.tuning.Duration*2, true)
	return []ecs.Event{
		{Kind: ecs.EventLevelUp, Value: float64(c.level)},
		{Kind: ecs.EventEffect, Name: EffectRocket},
	}
}

// moveUp starts the camera move and schedules the resume once it lands.
func (c *Coordinator) moveUp(shift, duration float64, easeIn bool) {
	from := c.camera.at()
	c.camera = cameraMove{from: from, to: from + shift, duration: duration, easeIn: easeIn}
	c.timers.After(c, duration, func() []ecs.Event {
		c.trigger += shift
		c.point.Raise(shift)
		c.tower.SetCanSpawn(true)
		evts, err := c.tower.Spawn()
		if err != nil {
			log.Printf("Coordinator: resume spawn: %v", err)
		}
		c.point.UpdateMoveSetting(c.level)
		c.canLevelUp = true
		return evts
	})
}
