package block

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/dreamtower/common"
	"github.com/milk9111/dreamtower/ecs"
)

// Input is the logical player input sampled once per tick.
type Input struct {
	Horizontal float64
	Vertical   float64
	RotateCW   bool
	RotateCCW  bool
}

// SoftDrop reports whether the player is pushing down.
func (in Input) SoftDrop() bool {
	return in.Vertical < 0
}

// Spec describes a block to build.
type Spec struct {
	ID       ecs.Entity
	Kind     Kind
	Variant  int
	Rotation float64
	Tuning   Tuning
}

type snapState struct {
	paused     bool
	pauseTimer float64
	lastAngle  float64
	hasLast    bool
}

// Block is a single falling, controllable, then settled unit. It starts
// falling and controlled, settles on its first qualifying contact and may be
// fixed permanently afterwards.
type Block struct {
	id      ecs.Entity
	kind    Kind
	variant int
	tuning  Tuning
	body    Body
	timers  *ecs.Timers

	falling    bool
	controlled bool
	fixed      bool
	settled    bool
	disabled   bool

	rotation float64
	snap     snapState
	holdCW   float64
	holdCCW  float64

	contact  cp.Vector
	buoyancy *Buoyancy
	removal  ecs.TimerID
}

// New builds a falling, controlled block around body. Dream blocks get a
// buoyancy capability.
func New(spec Spec, body Body, timers *ecs.Timers) *Block {
	b := &Block{
		id:         spec.ID,
		kind:       spec.Kind,
		variant:    spec.Variant,
		tuning:     spec.Tuning,
		body:       body,
		timers:     timers,
		falling:    true,
		controlled: true,
		rotation:   common.NormalizeDegrees(spec.Rotation),
	}
	if angle, ok := snapAngle(b.rotation); ok {
		b.snap.lastAngle = angle
		b.snap.hasLast = true
	}
	if spec.Kind == KindDream {
		b.buoyancy = newBuoyancy(spec.Tuning.Float)
	}
	if body != nil {
		body.SetAngle(b.rotation)
		body.SetMotion(MotionDriven)
	}
	return b
}

func (b *Block) ID() ecs.Entity {
	if b == nil {
		return 0
	}
	return b.id
}

func (b *Block) Kind() Kind { return b.kind }
func (b *Block) Variant() int { return b.variant }
func (b *Block) Body() Body { return b.body }
func (b *Block) Rotation() float64 { return b.rotation }
func (b *Block) IsFalling() bool { return b != nil && b.falling }
func (b *Block) IsControlled() bool { return b != nil && b.controlled }
func (b *Block) IsFixed() bool { return b != nil && b.fixed }
func (b *Block) IsSettled() bool { return b != nil && b.settled }
func (b *Block) IsPaused() bool { return b != nil && b.snap.paused }

// Alive reports whether the block still takes part in the simulation.
func (b *Block) Alive() bool {
	return b != nil && !b.disabled
}

// Buoyancy returns the float capability, nil for reality blocks.
func (b *Block) Buoyancy() *Buoyancy {
	if b == nil {
		return nil
	}
	return b.buoyancy
}

// IsFloating reports whether a dream block is currently rising.
func (b *Block) IsFloating() bool {
	return b != nil && b.buoyancy.Floating()
}

// LastSnapAngle returns the most recent detent angle.
func (b *Block) LastSnapAngle() (float64, bool) {
	return b.snap.lastAngle, b.snap.hasLast
}

// ContactPoint is where the settling contact happened.
func (b *Block) ContactPoint() cp.Vector {
	return b.contact
}

// Position returns the body position, or zero without a body.
func (b *Block) Position() cp.Vector {
	if b == nil || b.body == nil {
		return cp.Vector{}
	}
	return b.body.Position()
}

// Tick advances the block by dt seconds with the sampled input.
func (b *Block) Tick(dt float64, in Input) []ecs.Event {
	if b == nil || b.disabled || b.fixed || b.body == nil {
		return nil
	}
	if b.controlled {
		b.steer(dt, in)
	}
	b.buoyancy.tick(b, dt)
	return nil
}

func (b *Block) steer(dt float64, in Input) {
	vy := -b.tuning.FallSpeed
	if in.SoftDrop() {
		vy *= b.tuning.FastFallMultiplier
	}
	vx := common.Clamp(in.Horizontal, -1, 1) * b.tuning.MoveSpeed
	b.body.SetVelocity(cp.Vector{X: vx, Y: vy})
	b.rotate(dt, in)
}

// Disable removes the block from the simulation. Deferred work it owns is
// dropped.
func (b *Block) Disable() {
	if b == nil || b.disabled {
		return
	}
	b.disabled = true
	b.falling = false
	b.controlled = false
	b.buoyancy.stop()
	if b.removal != 0 {
		b.timers.Cancel(b.removal)
		b.removal = 0
	}
}
