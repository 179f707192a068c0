package block

import (
	"math/rand/v2"
	"testing"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/dreamtower/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dt = 1.0 / 60.0

type fakeBody struct {
	pos       cp.Vector
	vel       cp.Vector
	angle     float64
	motion    Motion
	noCollide bool
	static    bool
}

func (f *fakeBody) Position() cp.Vector { return f.pos }
func (f *fakeBody) Velocity() cp.Vector { return f.vel }
func (f *fakeBody) SetVelocity(v cp.Vector) { f.vel = v }
func (f *fakeBody) Angle() float64 { return f.angle }
func (f *fakeBody) SetAngle(deg float64) { f.angle = deg }
func (f *fakeBody) SetMotion(m Motion) { f.motion = m }
func (f *fakeBody) SetCollisionEnabled(on bool) { f.noCollide = !on }
func (f *fakeBody) IsDynamic() bool { return !f.static && f.motion != MotionFrozen }

func newTestBlock(t *testing.T, kind Kind, rotation float64, mutate func(*Tuning)) (*Block, *fakeBody, *ecs.Timers) {
	t.Helper()
	tuning := DefaultTuning()
	if mutate != nil {
		mutate(&tuning)
	}
	body := &fakeBody{}
	timers := ecs.NewTimers(dt)
	b := New(Spec{ID: 7, Kind: kind, Rotation: rotation, Tuning: tuning}, body, timers)
	return b, body, timers
}

func countKind(evts []ecs.Event, kind ecs.EventKind) int {
	n := 0
	for _, e := range evts {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func TestNewBlockStartsFallingAndControlled(t *testing.T) {
	b, body, _ := newTestBlock(t, KindReality, 270, nil)

	assert.True(t, b.IsFalling())
	assert.True(t, b.IsControlled())
	assert.False(t, b.IsFixed())
	assert.Equal(t, 270.0, body.angle)
	assert.Equal(t, MotionDriven, body.motion)
	last, ok := b.LastSnapAngle()
	assert.True(t, ok)
	assert.Equal(t, 270.0, last)
	assert.Nil(t, b.Buoyancy())
}

func TestTickSteersControlledBlock(t *testing.T) {
	cases := []struct {
		name string
		in   Input
		want cp.Vector
	}{
		{"idle", Input{}, cp.Vector{X: 0, Y: -5}},
		{"right", Input{Horizontal: 1}, cp.Vector{X: 10, Y: -5}},
		{"left_soft_drop", Input{Horizontal: -0.5, Vertical: -1}, cp.Vector{X: -5, Y: -10}},
		{"clamped_axis", Input{Horizontal: 3}, cp.Vector{X: 10, Y: -5}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			b, body, _ := newTestBlock(t, KindReality, 0, nil)
			b.Tick(dt, c.in)
			assert.InDelta(t, c.want.X, body.vel.X, 1e-9)
			assert.InDelta(t, c.want.Y, body.vel.Y, 1e-9)
		})
	}
}

func TestSnapTriggersOnceAtDetent(t *testing.T) {
	b, body, _ := newTestBlock(t, KindReality, 88, nil)
	_, hasLast := b.LastSnapAngle()
	require.False(t, hasLast)

	snaps := 0
	wasPaused := false
	ccw := Input{RotateCCW: true}
	for i := 0; i < 20; i++ {
		b.Tick(dt, ccw)
		if b.IsPaused() && !wasPaused {
			snaps++
		}
		wasPaused = b.IsPaused()

		if i == 0 {
			assert.Equal(t, 90.0, b.Rotation(), "88 + 3 should snap to 90")
			assert.Equal(t, 90.0, body.angle)
		}
		if i > 0 && i < 11 {
			assert.Equal(t, 90.0, b.Rotation(), "rotation is frozen while paused (tick %d)", i)
		}
	}

	assert.Equal(t, 1, snaps)
	last, _ := b.LastSnapAngle()
	assert.Equal(t, 90.0, last)
	assert.Greater(t, b.Rotation(), 90.0)
	assert.Less(t, b.Rotation(), 180.0-DefaultTuning().SnapThreshold)
}

func TestSnapAtWrapAround(t *testing.T) {
	b, body, _ := newTestBlock(t, KindReality, 90, nil)
	b.rotation = 2
	b.snap.hasLast = false

	b.Tick(dt, Input{RotateCW: true})

	assert.Equal(t, 0.0, b.Rotation())
	assert.Equal(t, 0.0, body.angle)
	last, _ := b.LastSnapAngle()
	assert.Equal(t, 0.0, last)
}

func TestRotationStaysNormalized(t *testing.T) {
	r := rand.New(rand.NewPCG(42, 7))
	b, _, _ := newTestBlock(t, KindReality, 0, func(tn *Tuning) {
		tn.SnapPauseTime = 0
	})

	for i := 0; i < 5000; i++ {
		b.tuning.RotationSpeed = r.Float64() * 5000
		in := Input{RotateCW: r.IntN(2) == 0, RotateCCW: r.IntN(3) == 0}
		b.Tick(r.Float64()*0.5, in)
		rot := b.Rotation()
		if rot < 0 || rot >= 360 {
			t.Fatalf("rotation %v out of [0,360) at step %d", rot, i)
		}
	}
}

func TestHoldToRotate(t *testing.T) {
	b, _, _ := newTestBlock(t, KindReality, 10, func(tn *Tuning) {
		tn.HoldTimeRequired = 0.09
	})
	start := b.Rotation()
	ccw := Input{RotateCCW: true}

	for i := 0; i < 5; i++ {
		b.Tick(dt, ccw)
	}
	assert.Equal(t, start, b.Rotation(), "rotation before hold time elapses")

	b.Tick(dt, ccw)
	assert.Greater(t, b.Rotation(), start)

	moved := b.Rotation()
	b.Tick(dt, Input{})
	b.Tick(dt, ccw)
	assert.Equal(t, moved, b.Rotation(), "release resets the hold timer")
}

func TestSettleFiresOnce(t *testing.T) {
	b, body, _ := newTestBlock(t, KindReality, 0, nil)
	body.vel = cp.Vector{X: 3, Y: -5}
	other := &fakeBody{vel: cp.Vector{X: 1, Y: 1}}
	ground := &fakeBody{vel: cp.Vector{X: 2}, static: true}

	var evts []ecs.Event
	evts = append(evts, b.OnCollisionEnter(Collision{Other: 2, Tag: ecs.TagReality, Body: other, Point: cp.Vector{X: 1, Y: 2}})...)
	evts = append(evts, b.OnCollisionEnter(Collision{Other: 3, Tag: ecs.TagGround, Body: ground, Point: cp.Vector{X: 4}})...)

	require.Equal(t, 1, countKind(evts, ecs.EventBlockSettled))
	assert.Equal(t, 1, countKind(evts, ecs.EventSound))
	assert.False(t, b.IsFalling())
	assert.False(t, b.IsControlled())
	assert.True(t, b.IsSettled())
	assert.Equal(t, cp.Vector{}, body.vel)
	assert.Equal(t, cp.Vector{}, other.vel, "dynamic collider is stopped")
	assert.Equal(t, cp.Vector{X: 2}, ground.vel, "static collider is left alone")
	assert.Equal(t, cp.Vector{X: 1, Y: 2}, b.ContactPoint())
	assert.Equal(t, MotionFree, body.motion)
}

func TestUntaggedCollisionIgnored(t *testing.T) {
	for _, tag := range []ecs.Tag{ecs.TagNone, ecs.TagTrap, ecs.TagItem, ecs.TagWall} {
		b, _, _ := newTestBlock(t, KindReality, 0, nil)
		evts := b.OnCollisionEnter(Collision{Other: 2, Tag: tag})
		assert.Empty(t, evts, "tag %v", tag)
		assert.True(t, b.IsControlled(), "tag %v", tag)
	}
}

func TestFixedIsTerminal(t *testing.T) {
	b, body, timers := newTestBlock(t, KindReality, 0, nil)
	b.FixBlock()
	b.FixBlock()
	require.True(t, b.IsFixed())
	assert.Equal(t, MotionFrozen, body.motion)

	evts := b.OnCollisionEnter(Collision{Other: 2, Tag: ecs.TagReality})
	evts = append(evts, b.TriggerTrap()...)
	evts = append(evts, b.Tick(dt, Input{Horizontal: 1, RotateCW: true})...)
	b.OnCollisionExit(Collision{Other: 2, Tag: ecs.TagReality})

	assert.Empty(t, evts)
	assert.True(t, b.IsFixed())
	assert.False(t, b.IsFalling())
	assert.False(t, b.IsControlled())
	assert.Equal(t, 0, timers.Pending())
}

func TestTriggerTrapOnControlledBlock(t *testing.T) {
	b, body, timers := newTestBlock(t, KindReality, 0, func(tn *Tuning) {
		tn.TrapFadeDelay = 0.5
	})
	body.pos = cp.Vector{X: 3, Y: 9}

	evts := b.TriggerTrap()
	assert.Equal(t, 1, countKind(evts, ecs.EventBlockSettled))
	assert.Equal(t, 1, countKind(evts, ecs.EventDamage))
	assert.True(t, b.IsFixed())
	assert.True(t, body.noCollide)
	assert.Empty(t, b.TriggerTrap(), "second trigger is a no-op")
	assert.Empty(t, b.OnCollisionEnter(Collision{Other: 2, Tag: ecs.TagGround}))

	var removed []ecs.Event
	for i := 0; i < 30; i++ {
		removed = append(removed, timers.Advance()...)
		if i < 29 {
			require.Empty(t, removed, "removed early at tick %d", i)
		}
	}
	require.Len(t, removed, 1)
	assert.Equal(t, ecs.EventBlockRemoved, removed[0].Kind)
	assert.False(t, b.Alive())
}

func TestTriggerTrapOnSettledBlockDoesNotResettle(t *testing.T) {
	b, _, _ := newTestBlock(t, KindReality, 0, nil)
	b.OnCollisionEnter(Collision{Other: 2, Tag: ecs.TagGround})

	evts := b.TriggerTrap()
	assert.Equal(t, 0, countKind(evts, ecs.EventBlockSettled))
	assert.Equal(t, 1, countKind(evts, ecs.EventDamage))
}

func TestDisableCancelsTrapRemoval(t *testing.T) {
	b, _, timers := newTestBlock(t, KindReality, 0, nil)
	b.TriggerTrap()
	b.Disable()
	assert.Equal(t, 0, timers.Pending())
	for i := 0; i < 120; i++ {
		assert.Empty(t, timers.Advance())
	}
}
