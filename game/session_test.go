package game

import (
	"testing"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/dreamtower/block"
	"github.com/milk9111/dreamtower/ecs"
	"github.com/milk9111/dreamtower/level"
	"github.com/milk9111/dreamtower/physics"
	"github.com/milk9111/dreamtower/prefabs"
	"github.com/milk9111/dreamtower/spawner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	sounds   []string
	effects  []string
	heights  []float64
	items    []string
	previews []spawner.Descriptor
	over     []float64
}

func (r *recorder) Play(name string) {
	r.sounds = append(r.sounds, name)
}

func (r *recorder) Effect(name string, _ cp.Vector) {
	r.effects = append(r.effects, name)
}

func (r *recorder) OnMaxHeight(h float64) {
	r.heights = append(r.heights, h)
}

func (r *recorder) OnItem(kind string) {
	r.items = append(r.items, kind)
}

func (r *recorder) ShowNext(d spawner.Descriptor) {
	r.previews = append(r.previews, d)
}

func (r *recorder) OnGameOver(h float64, _ int, _ float64) {
	r.over = append(r.over, h)
}

func (r *recorder) hooks() Hooks {
	return Hooks{Sounds: r, Effects: r, Scores: r, Preview: r}
}

func square(sprite string) prefabs.VariantSpec {
	return prefabs.VariantSpec{Sprite: sprite, Cells: []physics.Cell{{X: 0, Y: 0}}}
}

func testConfig() Config {
	return Config{
		Tuning: prefabs.TuningSpec{
			Block:   block.DefaultTuning(),
			Spawn:   spawner.DefaultPolicy(),
			Level:   level.DefaultTuning(),
			Sweep:   level.SweepTuning{Y: 10, MoveDuration: 10},
			Items:   level.ItemTuning{Kinds: []string{"none"}, HeightMin: 1, HeightMax: 2, Size: 2},
			Physics: physics.DefaultConfig(),
			Hearts:  3,
		},
		Blocks: prefabs.BlocksSpec{
			CellSize: 2,
			Reality:  []prefabs.VariantSpec{square("r0"), square("r1")},
			Dream:    []prefabs.VariantSpec{square("d0")},
		},
		Arena: prefabs.ArenaSpec{Left: -15, Right: 15, WallHeight: 100},
		Seed:  1,
	}
}

func runUntil(t *testing.T, s *Session, limit int, done func() bool) {
	t.Helper()
	for range limit {
		if done() {
			return
		}
		s.Update()
	}
	require.True(t, done(), "condition not reached in %d ticks", limit)
}

func TestSessionStartsWithRealityBlock(t *testing.T) {
	rec := &recorder{}
	s, err := New(testConfig(), rec.hooks())
	require.NoError(t, err)

	b := s.Controlled()
	require.NotNil(t, b)
	assert.Equal(t, block.KindReality, b.Kind())
	assert.True(t, b.IsFalling())
	assert.Len(t, s.Blocks(), 1)
	assert.Equal(t, 1, s.Physics().BodyCount())
	require.NotEmpty(t, rec.previews)

	next, ok := s.Spawner().Pending()
	require.True(t, ok)
	assert.Equal(t, next, rec.previews[len(rec.previews)-1])
}

func TestSessionLandsAndSpawnsNext(t *testing.T) {
	rec := &recorder{}
	s, err := New(testConfig(), rec.hooks())
	require.NoError(t, err)
	first := s.Controlled()

	runUntil(t, s, 600, func() bool { return s.Spawner().Settled() == 1 })
	assert.False(t, first.IsControlled())
	assert.Contains(t, rec.sounds, block.SoundLand)
	assert.Contains(t, rec.effects, block.EffectCameraShake)
	assert.Nil(t, s.Controlled())

	runUntil(t, s, 60, func() bool { return s.Controlled() != nil })
	assert.NotSame(t, first, s.Controlled())
	assert.Equal(t, 2, s.Spawner().Spawned())

	require.NotEmpty(t, rec.heights)
	assert.InDelta(t, 2.5, rec.heights[len(rec.heights)-1], 0.3)
}

func TestSessionAtMostOneControlledBlock(t *testing.T) {
	s, err := New(testConfig(), Hooks{})
	require.NoError(t, err)

	for range 900 {
		s.Update()
		controlled := 0
		for _, b := range s.Blocks() {
			if b.IsControlled() {
				controlled++
			}
		}
		require.LessOrEqual(t, controlled, 1)
	}
	assert.Greater(t, s.Spawner().Spawned(), 3)
}

func TestSessionTrapsEndTheGame(t *testing.T) {
	cfg := testConfig()
	cfg.Arena.Traps = []level.TrapSpec{{Type: "all", X: 0, Y: 1, Width: 8, Height: 2}}
	rec := &recorder{}
	s, err := New(cfg, rec.hooks())
	require.NoError(t, err)

	var removed []ecs.Entity
	damage := 0
	s.Subscribe(func(e ecs.Event) {
		switch e.Kind {
		case ecs.EventBlockRemoved:
			removed = append(removed, e.Entity)
		case ecs.EventDamage:
			damage++
		}
	})

	runUntil(t, s, 3000, s.Over)
	assert.Equal(t, 3, damage)
	assert.Zero(t, s.Health().Hearts())
	assert.True(t, s.Spawner().Ended())
	assert.Len(t, rec.over, 1)
	assert.Contains(t, rec.sounds, SoundGameOver)
	assert.Contains(t, rec.effects, block.EffectTrapHit)

	for range 120 {
		s.Update()
	}
	require.NotEmpty(t, removed)
	for _, id := range removed {
		_, ok := s.Block(id)
		assert.False(t, ok)
		_, ok = s.Physics().Body(id)
		assert.False(t, ok)
	}
	assert.Equal(t, len(s.Blocks()), s.Physics().BodyCount())
	assert.Len(t, rec.over, 1)
}

func TestSessionRestart(t *testing.T) {
	s, err := New(testConfig(), Hooks{})
	require.NoError(t, err)

	runUntil(t, s, 600, func() bool { return s.Spawner().SpawnScheduled() })
	oldWorld := s.World()
	require.NoError(t, s.Restart())

	assert.NotSame(t, oldWorld, s.World())
	assert.Zero(t, oldWorld.Timers().Pending())
	assert.Zero(t, s.World().Tick())
	assert.Zero(t, s.World().Timers().Pending())
	assert.Equal(t, 1, s.Spawner().Spawned())
	assert.Len(t, s.Blocks(), 1)
	assert.Equal(t, 1, s.Coordinator().Level())
	assert.False(t, s.Over())
}

func TestSessionEmptyPoolFailsClosed(t *testing.T) {
	cfg := testConfig()
	cfg.Blocks.Dream = nil
	s, err := New(cfg, Hooks{})
	require.ErrorIs(t, err, spawner.ErrEmptyPool)
	assert.Nil(t, s.Controlled())

	for range 30 {
		s.Update()
	}
	assert.Empty(t, s.Blocks())
}

func TestSessionApplyTuning(t *testing.T) {
	s, err := New(testConfig(), Hooks{})
	require.NoError(t, err)

	bad := testConfig().Tuning
	bad.Block.FallSpeed = 0
	assert.ErrorIs(t, s.ApplyTuning(bad), prefabs.ErrInvalid)

	good := testConfig().Tuning
	good.Spawn.SpawnDelay = 2
	good.Block.FallSpeed = 8
	require.NoError(t, s.ApplyTuning(good))
	assert.Equal(t, 2.0, s.Config().Tuning.Spawn.SpawnDelay)

	runUntil(t, s, 600, func() bool { return s.Spawner().Settled() == 1 })
	for range 60 {
		s.Update()
	}
	assert.Nil(t, s.Controlled(), "spawn delay is now two seconds")
	runUntil(t, s, 90, func() bool { return s.Controlled() != nil })
}

func TestSessionApplyBlocks(t *testing.T) {
	s, err := New(testConfig(), Hooks{})
	require.NoError(t, err)

	assert.ErrorIs(t, s.ApplyBlocks(prefabs.BlocksSpec{}), prefabs.ErrInvalid)

	blocks := testConfig().Blocks
	blocks.Reality = append(blocks.Reality, square("r2"))
	require.NoError(t, s.ApplyBlocks(blocks))
	assert.Len(t, s.Config().Blocks.Reality, 3)
}

func TestSessionItemsAreCollected(t *testing.T) {
	cfg := testConfig()
	cfg.Tuning.Items.Kinds = []string{"none", "shield"}
	rec := &recorder{}
	s, err := New(cfg, rec.hooks())
	require.NoError(t, err)

	for range 50 {
		if len(s.Items().Live()) > 0 {
			break
		}
		s.dispatch(s.Items().OnLevelUp(0))
	}
	require.Len(t, s.Items().Live(), 1)
	assert.Equal(t, []string{"shield"}, rec.items)
	require.Len(t, s.sensors, 1)

	runUntil(t, s, 600, func() bool { return s.Health().Shields() == 1 })
	assert.Empty(t, s.Items().Live())
	assert.Empty(t, s.sensors)
	assert.Contains(t, rec.sounds, level.SoundItemCollect)
}

func assertTowerFixed(t *testing.T, s *Session) {
	t.Helper()
	for _, b := range s.Blocks() {
		if !b.IsControlled() {
			assert.True(t, b.IsFixed(), "block %s left loose", b.ID())
		}
	}
}

func TestSessionLevelUpFixesTower(t *testing.T) {
	cfg := testConfig()
	cfg.Tuning.Level.TriggerHeight = 1
	cfg.Tuning.Level.Duration = 0.5
	rec := &recorder{}
	s, err := New(cfg, rec.hooks())
	require.NoError(t, err)
	first := s.Controlled()

	runUntil(t, s, 600, func() bool { return s.Coordinator().Level() == 2 })
	assert.True(t, first.IsFixed(), "the block that crossed the line is fixed")
	assertTowerFixed(t, s)
	assert.False(t, s.Spawner().CanSpawn())
	assert.Contains(t, rec.effects, level.EffectLevelUp)
	assert.Equal(t, 1, s.Spawner().Settled())

	runUntil(t, s, 45, func() bool { return s.Controlled() != nil })
	assert.True(t, s.Spawner().CanSpawn())
	assert.Equal(t, 2, s.Coordinator().Level())
	assert.Equal(t, 31.0, s.Coordinator().TriggerHeight())
	assertTowerFixed(t, s)
}

// collectItem places one item of kind under the falling block and runs until
// it is used.
func collectItem(t *testing.T, cfg Config, kind string) (*Session, *recorder, *block.Block) {
	t.Helper()
	cfg.Tuning.Items.Kinds = []string{"none", kind}
	rec := &recorder{}
	s, err := New(cfg, rec.hooks())
	require.NoError(t, err)
	first := s.Controlled()

	for range 50 {
		if len(s.Items().Live()) > 0 {
			break
		}
		s.dispatch(s.Items().OnLevelUp(0))
	}
	require.Len(t, s.Items().Live(), 1)
	runUntil(t, s, 600, func() bool { return len(s.Items().Live()) == 0 })
	return s, rec, first
}

func TestSessionIceItemFixesTower(t *testing.T) {
	s, rec, first := collectItem(t, testConfig(), "ice")

	assert.Contains(t, rec.effects, level.EffectIce)
	assert.True(t, first.IsFixed())
	assertTowerFixed(t, s)
	assert.Equal(t, 1, s.Coordinator().Level())

	runUntil(t, s, 60, func() bool { return s.Controlled() != nil })
	assert.False(t, s.Controlled().IsFixed())
}

func TestSessionRocketItemJumpsLevels(t *testing.T) {
	cfg := testConfig()
	cfg.Tuning.Level.Duration = 0.5
	s, rec, first := collectItem(t, cfg, "rocket")

	assert.Contains(t, rec.effects, level.EffectRocket)
	assert.True(t, first.IsFixed())
	assertTowerFixed(t, s)
	assert.Equal(t, 1+cfg.Tuning.Level.RocketLevels, s.Coordinator().Level())
	assert.False(t, s.Spawner().CanSpawn())

	runUntil(t, s, 90, func() bool { return s.Controlled() != nil })
	assert.True(t, s.Spawner().CanSpawn())
	assert.Equal(t, cfg.Tuning.Level.TriggerHeight+cfg.Tuning.Level.Offset*float64(cfg.Tuning.Level.RocketLevels), s.Coordinator().TriggerHeight())
}
