package spawner

import (
	"errors"
	"testing"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/dreamtower/block"
	"github.com/milk9111/dreamtower/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dt = 1.0 / 60.0

type stubBody struct {
	vel    cp.Vector
	pos    cp.Vector
	angle  float64
	motion block.Motion
}

func (b *stubBody) Position() cp.Vector { return b.pos }
func (b *stubBody) Velocity() cp.Vector { return b.vel }
func (b *stubBody) SetVelocity(v cp.Vector) { b.vel = v }
func (b *stubBody) Angle() float64 { return b.angle }
func (b *stubBody) SetAngle(deg float64) { b.angle = deg }
func (b *stubBody) SetMotion(m block.Motion) { b.motion = m }
func (b *stubBody) SetCollisionEnabled(bool) {}
func (b *stubBody) IsDynamic() bool { return b.motion != block.MotionFrozen }

type stubFactory struct {
	timers *ecs.Timers
	next   ecs.Entity
	made   []*block.Block
	fail   error
}

func (f *stubFactory) NewBlock(d Descriptor, at cp.Vector) (*block.Block, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.next++
	b := block.New(block.Spec{
		ID:       f.next,
		Kind:     d.Kind,
		Variant:  d.Variant,
		Rotation: d.Rotation,
		Tuning:   block.DefaultTuning(),
	}, &stubBody{pos: at}, f.timers)
	f.made = append(f.made, b)
	return b, nil
}

func (f *stubFactory) controlledCount() int {
	n := 0
	for _, b := range f.made {
		if b.IsControlled() {
			n++
		}
	}
	return n
}

type harness struct {
	spawner *Spawner
	factory *stubFactory
	timers  *ecs.Timers
}

func newHarness(t *testing.T, seed uint64) *harness {
	t.Helper()
	timers := ecs.NewTimers(dt)
	factory := &stubFactory{timers: timers}
	sel := NewSelector(newRand(seed), DefaultPolicy(), []string{"r0", "r1", "r2"}, []string{"d0", "d1"})
	s := New(sel, factory, FixedPoint{X: 0, Y: 40}, timers, DefaultPolicy())
	return &harness{spawner: s, factory: factory, timers: timers}
}

func (h *harness) land(t *testing.T) *block.Block {
	t.Helper()
	b := h.spawner.Controlled()
	require.NotNil(t, b)
	evts := b.OnCollisionEnter(block.Collision{Other: 999, Tag: ecs.TagGround})
	for _, e := range evts {
		if e.Kind == ecs.EventBlockSettled {
			h.spawner.OnSettled(e.Data.(*block.Block))
		}
	}
	return b
}

func (h *harness) advance(ticks int) []ecs.Event {
	var out []ecs.Event
	for i := 0; i < ticks; i++ {
		out = append(out, h.timers.Advance()...)
	}
	return out
}

func TestStartSpawnsRealityBlockAndPreview(t *testing.T) {
	h := newHarness(t, 1)
	evts, err := h.spawner.Start()
	require.NoError(t, err)

	b := h.spawner.Controlled()
	require.NotNil(t, b)
	assert.Equal(t, block.KindReality, b.Kind())
	assert.True(t, b.IsControlled())
	assert.Equal(t, cp.Vector{X: 0, Y: 40}, b.Position())

	kinds := make([]ecs.EventKind, 0, len(evts))
	for _, e := range evts {
		kinds = append(kinds, e.Kind)
	}
	assert.Equal(t, []ecs.EventKind{ecs.EventPreviewUpdated, ecs.EventBlockSpawned, ecs.EventPreviewUpdated}, kinds)
	_, ok := h.spawner.Pending()
	assert.True(t, ok)
}

func TestStartFailsClosedOnEmptyPools(t *testing.T) {
	timers := ecs.NewTimers(dt)
	factory := &stubFactory{timers: timers}
	s := New(NewSelector(newRand(1), DefaultPolicy(), []string{"r0"}, nil), factory, FixedPoint{}, timers, DefaultPolicy())

	evts, err := s.Start()
	require.ErrorIs(t, err, ErrEmptyPool)
	assert.Empty(t, evts)
	assert.Nil(t, s.Controlled())
	assert.Empty(t, factory.made)
}

func TestSpawnGating(t *testing.T) {
	cases := []struct {
		name  string
		setup func(t *testing.T, h *harness)
	}{
		{"controlled_block_present", func(t *testing.T, h *harness) {}},
		{"disabled", func(t *testing.T, h *harness) {
			h.land(t)
			h.spawner.SetCanSpawn(false)
		}},
		{"no_pending", func(t *testing.T, h *harness) {
			h.land(t)
			h.spawner.pending = nil
		}},
		{"ended", func(t *testing.T, h *harness) {
			h.land(t)
			h.spawner.EndGame()
			h.spawner.SetCanSpawn(true)
		}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			h := newHarness(t, 2)
			_, err := h.spawner.Start()
			require.NoError(t, err)
			made := len(h.factory.made)
			c.setup(t, h)

			evts, err := h.spawner.Spawn()
			assert.NoError(t, err)
			assert.Empty(t, evts)
			assert.Len(t, h.factory.made, made)
		})
	}
}

func TestSettleSchedulesDelayedSpawn(t *testing.T) {
	h := newHarness(t, 3)
	_, err := h.spawner.Start()
	require.NoError(t, err)

	first := h.land(t)
	assert.Nil(t, h.spawner.Controlled())
	assert.Equal(t, []*block.Block{first}, h.spawner.Reality())
	assert.True(t, h.spawner.SpawnScheduled())
	assert.Len(t, h.factory.made, 1, "spawn is deferred, not immediate")

	evts := h.advance(29)
	assert.Empty(t, evts)
	assert.Nil(t, h.spawner.Controlled())

	evts = h.advance(1)
	require.NotEmpty(t, evts)
	assert.Equal(t, ecs.EventBlockSpawned, evts[0].Kind)
	assert.NotNil(t, h.spawner.Controlled())
	assert.False(t, h.spawner.SpawnScheduled())
}

func TestFirstSettledBlockRecordedAsReality(t *testing.T) {
	h := newHarness(t, 4)
	_, err := h.spawner.Start()
	require.NoError(t, err)

	// Even a dream first block seeds the reality list.
	dreamFirst := block.New(block.Spec{ID: 50, Kind: block.KindDream, Tuning: block.DefaultTuning()}, &stubBody{}, h.timers)
	h.spawner.current = dreamFirst
	h.land(t)

	assert.Equal(t, []*block.Block{dreamFirst}, h.spawner.Reality())
	assert.Empty(t, h.spawner.Dream())
}

func TestSettleIgnoresStaleBlock(t *testing.T) {
	h := newHarness(t, 5)
	_, err := h.spawner.Start()
	require.NoError(t, err)

	stranger := block.New(block.Spec{ID: 77, Tuning: block.DefaultTuning()}, &stubBody{}, h.timers)
	h.spawner.OnSettled(stranger)
	assert.NotNil(t, h.spawner.Controlled())
	assert.Empty(t, h.spawner.Reality())
	assert.False(t, h.spawner.SpawnScheduled())
}

func TestAtMostOneControlledBlock(t *testing.T) {
	for seed := uint64(0); seed < 20; seed++ {
		h := newHarness(t, seed)
		_, err := h.spawner.Start()
		require.NoError(t, err)
		r := newRand(seed + 100)

		for step := 0; step < 400; step++ {
			switch r.IntN(6) {
			case 0:
				if h.spawner.Controlled() != nil {
					h.land(t)
				}
			case 1:
				_, _ = h.spawner.Spawn()
			case 2:
				h.advance(1 + r.IntN(40))
			case 3:
				h.spawner.SetCanSpawn(r.IntN(3) != 0)
			case 4:
				h.spawner.FixAllExceptControlled()
			case 5:
				if c := h.spawner.Controlled(); c != nil && r.IntN(4) == 0 {
					for _, e := range c.TriggerTrap() {
						if e.Kind == ecs.EventBlockSettled {
							h.spawner.OnSettled(c)
						}
					}
				}
			}
			require.LessOrEqual(t, h.factory.controlledCount(), 1, "seed %d step %d", seed, step)
			if c := h.spawner.Controlled(); c != nil {
				require.True(t, c.IsControlled())
			}
		}
	}
}

func TestFixAllExceptControlled(t *testing.T) {
	h := newHarness(t, 6)
	_, err := h.spawner.Start()
	require.NoError(t, err)
	settled := h.land(t)
	h.advance(30)
	controlled := h.spawner.Controlled()
	require.NotNil(t, controlled)

	fixed := h.spawner.FixAllExceptControlled()
	assert.Equal(t, []*block.Block{settled}, fixed)
	assert.True(t, settled.IsFixed())
	assert.False(t, controlled.IsFixed())
	assert.True(t, controlled.IsControlled())
	assert.Same(t, controlled, h.spawner.Controlled())
	assert.Empty(t, h.spawner.Reality())
}

func TestEndGameCancelsPendingSpawn(t *testing.T) {
	h := newHarness(t, 7)
	_, err := h.spawner.Start()
	require.NoError(t, err)
	first := h.land(t)
	require.True(t, h.spawner.SpawnScheduled())

	fixed := h.spawner.EndGame()
	assert.Contains(t, fixed, first)
	assert.False(t, h.spawner.Alive())
	assert.Equal(t, 0, h.timers.Pending())

	assert.Empty(t, h.advance(120))
	assert.Len(t, h.factory.made, 1)
	assert.Nil(t, h.spawner.EndGame(), "second end game is a no-op")
}

func TestEndGameFixesControlledBlock(t *testing.T) {
	h := newHarness(t, 8)
	_, err := h.spawner.Start()
	require.NoError(t, err)
	c := h.spawner.Controlled()

	h.spawner.EndGame()
	assert.True(t, c.IsFixed())
	assert.False(t, c.IsControlled())
	assert.Nil(t, h.spawner.Controlled())
}

func TestForceNext(t *testing.T) {
	h := newHarness(t, 9)
	_, err := h.spawner.Start()
	require.NoError(t, err)
	before, _ := h.spawner.Pending()

	_, err = h.spawner.ForceNext(block.KindDream, 5)
	require.ErrorIs(t, err, ErrVariantOutOfRange)
	after, _ := h.spawner.Pending()
	assert.Equal(t, before, after)

	evts, err := h.spawner.ForceNext(block.KindDream, 1)
	require.NoError(t, err)
	require.Len(t, evts, 1)
	got, _ := h.spawner.Pending()
	assert.Equal(t, block.KindDream, got.Kind)
	assert.Equal(t, 1, got.Variant)
}

func TestForceNextRollsBackReplacedPick(t *testing.T) {
	h := newHarness(t, 12)
	_, err := h.spawner.Start()
	require.NoError(t, err)
	first := h.spawner.Controlled()
	require.NotNil(t, first)
	sel := h.spawner.Selector()

	reality, dream := sel.Streaks()
	prob := sel.Probability()
	_, err = h.spawner.ForceNext(block.KindReality, 7)
	require.ErrorIs(t, err, ErrVariantOutOfRange)
	r2, d2 := sel.Streaks()
	assert.Equal(t, []int{reality, dream}, []int{r2, d2})
	assert.Equal(t, prob, sel.Probability())

	_, err = h.spawner.ForceNext(block.KindDream, 1)
	require.NoError(t, err)
	reality, dream = sel.Streaks()
	assert.Equal(t, 1, reality, "only the spawned first block counts")
	assert.Equal(t, 0, dream)
	assert.Equal(t, DefaultPolicy().BaseProbability, sel.Probability())
	assert.Equal(t, first.Variant(), sel.LastVariant(block.KindReality))
	assert.Equal(t, 1, sel.LastVariant(block.KindDream))
}

func TestFixAllExceptControlledRecordsUnreportedSettle(t *testing.T) {
	h := newHarness(t, 13)
	_, err := h.spawner.Start()
	require.NoError(t, err)
	b := h.spawner.Controlled()
	require.NotNil(t, b)

	// Settled inside the tick; the spawner has not been told yet.
	b.OnCollisionEnter(block.Collision{Other: 999, Tag: ecs.TagGround})
	require.False(t, b.IsControlled())

	fixed := h.spawner.FixAllExceptControlled()
	assert.Contains(t, fixed, b)
	assert.True(t, b.IsFixed())
	assert.Nil(t, h.spawner.Controlled())
	assert.Equal(t, 1, h.spawner.Settled())

	h.spawner.OnSettled(b)
	assert.Equal(t, 1, h.spawner.Settled(), "late report is ignored")
	assert.Empty(t, h.spawner.Reality())
	assert.True(t, h.spawner.SpawnScheduled())
}

func TestFactoryErrorKeepsPending(t *testing.T) {
	h := newHarness(t, 10)
	h.factory.fail = errors.New("boom")

	_, err := h.spawner.Start()
	require.Error(t, err)
	_, ok := h.spawner.Pending()
	assert.True(t, ok)
	assert.Nil(t, h.spawner.Controlled())

	h.factory.fail = nil
	_, err = h.spawner.Spawn()
	require.NoError(t, err)
	assert.NotNil(t, h.spawner.Controlled())
}

func TestRemove(t *testing.T) {
	h := newHarness(t, 11)
	_, err := h.spawner.Start()
	require.NoError(t, err)
	first := h.land(t)

	assert.True(t, h.spawner.Remove(first))
	assert.False(t, h.spawner.Remove(first))
	assert.Empty(t, h.spawner.Reality())
}
