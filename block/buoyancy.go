package block

import (
	"math"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/dreamtower/ecs"
)

type floatMode uint8

const (
	floatIdle floatMode = iota
	floatRising
	floatPinned
)

// Buoyancy makes a settled dream block rise while nothing solid touches it.
// Touching a reality or dream block stops it and pins the body; losing the
// last neighbour starts it again.
type Buoyancy struct {
	tuning   BuoyancyTuning
	overlaps map[ecs.Entity]struct{}
	mode     floatMode
	speed    float64
	stopped  bool
}

func newBuoyancy(t BuoyancyTuning) *Buoyancy {
	return &Buoyancy{
		tuning:   t,
		overlaps: make(map[ecs.Entity]struct{}),
	}
}

// Floating reports whether the block is rising.
func (f *Buoyancy) Floating() bool {
	return f != nil && f.mode == floatRising
}

// Pinned reports whether a neighbour is holding the block still.
func (f *Buoyancy) Pinned() bool {
	return f != nil && f.mode == floatPinned
}

// Overlaps returns the number of solid neighbours in contact.
func (f *Buoyancy) Overlaps() int {
	if f == nil {
		return 0
	}
	return len(f.overlaps)
}

// Speed returns the current upward speed.
func (f *Buoyancy) Speed() float64 {
	if f == nil {
		return 0
	}
	return f.speed
}

func (f *Buoyancy) enter(b *Block, c Collision) {
	if f == nil || !c.Tag.Solid() {
		return
	}
	f.overlaps[c.Other] = struct{}{}
	f.refresh(b)
}

func (f *Buoyancy) exit(b *Block, c Collision) {
	if f == nil || !c.Tag.Solid() {
		return
	}
	delete(f.overlaps, c.Other)
	f.refresh(b)
}

func (f *Buoyancy) desired(b *Block) floatMode {
	switch {
	case f.stopped, b.fixed, b.disabled, b.controlled:
		return floatIdle
	case len(f.overlaps) == 0:
		return floatRising
	default:
		return floatPinned
	}
}

// refresh moves to the mode the overlap set and block state call for.
func (f *Buoyancy) refresh(b *Block) {
	if f == nil {
		return
	}
	next := f.desired(b)
	if next == f.mode {
		return
	}
	f.mode = next
	switch next {
	case floatRising:
		f.speed = f.tuning.StartSpeed
		if b.body != nil {
			b.body.SetMotion(MotionDriven)
			b.body.SetVelocity(cp.Vector{Y: f.speed})
		}
	case floatPinned:
		f.speed = 0
		if b.body != nil {
			b.body.SetVelocity(cp.Vector{})
			b.body.SetMotion(MotionPinned)
		}
	default:
		f.speed = 0
	}
}

func (f *Buoyancy) tick(b *Block, dt float64) {
	if f == nil || f.mode != floatRising {
		return
	}
	f.speed = math.Min(f.tuning.MaxSpeed, f.speed+f.tuning.Acceleration*dt)
	if b.body != nil {
		b.body.SetVelocity(cp.Vector{Y: f.speed})
	}
}

func (f *Buoyancy) stop() {
	if f == nil {
		return
	}
	f.stopped = true
	f.mode = floatIdle
	f.speed = 0
}
