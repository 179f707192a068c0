package game

import (
	"errors"
	"fmt"
	"log"
	"math/rand/v2"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/dreamtower/block"
	"github.com/milk9111/dreamtower/common"
	"github.com/milk9111/dreamtower/ecs"
	"github.com/milk9111/dreamtower/level"
	"github.com/milk9111/dreamtower/physics"
	"github.com/milk9111/dreamtower/prefabs"
	"github.com/milk9111/dreamtower/spawner"
)

var ErrUnknownVariant = errors.New("game: unknown block variant")

// Session is one run of the tower. It owns the simulation and advances it
// one fixed tick per Update.
type Session struct {
	cfg   Config
	hooks Hooks
	rng   *rand.Rand

	world   *ecs.World
	physics *physics.World
	blocks  ecs.SparseSet[*block.Block]
	traps   []*level.Trap
	trapIDs map[ecs.Entity]*level.Trap
	sensors map[ecs.Entity]*cp.Shape

	spawner *spawner.Spawner
	point   *level.SpawnPoint
	coord   *level.Coordinator
	items   *level.Items
	health  *Health

	input     block.Input
	over      bool
	listeners []func(ecs.Event)
}

// New builds a session and spawns the first block. A start failure such
// as an empty block pool is returned; the session then never spawns.
func New(cfg Config, hooks Hooks) (*Session, error) {
	s := &Session{cfg: cfg, hooks: hooks}
	return s, s.build()
}

func (s *Session) build() error {
	seed := s.cfg.Seed
	s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	s.world = ecs.NewWorld(common.FixedDelta)
	s.physics = physics.NewWorld(s.cfg.Tuning.Physics)
	s.blocks = ecs.SparseSet[*block.Block]{}
	s.traps = nil
	s.trapIDs = make(map[ecs.Entity]*level.Trap)
	s.sensors = make(map[ecs.Entity]*cp.Shape)
	s.input = block.Input{}
	s.over = false

	s.buildArena()
	if err := s.buildTraps(); err != nil {
		return err
	}

	selector := spawner.NewSelector(s.rng, s.cfg.Tuning.Spawn,
		s.cfg.Blocks.Sprites(block.KindReality), s.cfg.Blocks.Sprites(block.KindDream))
	s.point = level.NewSpawnPoint(s.cfg.Tuning.Sweep)
	s.spawner = spawner.New(selector, factory{s}, s.point, s.world.Timers(), s.cfg.Tuning.Spawn)
	s.coord = level.NewCoordinator(s.cfg.Tuning.Level, s.spawner, s.point, s.world.Timers())

	items, err := level.NewItems(s.rng, s.cfg.Tuning.Items, placer{s}, itemUser{s})
	if err != nil {
		return fmt.Errorf("game: items: %w", err)
	}
	s.items = items
	s.coord.SetItems(items)
	s.health = NewHealth(s.cfg.Tuning.Hearts, s.endGame)

	s.world.AddSystem(ecs.PhaseRules, &levelSystem{s})
	s.world.AddSystem(ecs.PhasePhysics, &physicsSystem{s})
	s.world.AddSystem(ecs.PhaseControl, &blockSystem{s})

	evts, err := s.spawner.Start()
	s.dispatch(evts)
	if err != nil {
		return fmt.Errorf("game: start: %w", err)
	}
	log.Printf("Session: started with seed %d", seed)
	return nil
}

func (s *Session) buildArena() {
	a := s.cfg.Arena
	ground := s.world.CreateEntity()
	s.physics.AddGround(physics.Owner{ID: ground, Tag: ecs.TagGround}, a.Left, a.Right, a.GroundY)
	for _, x := range []float64{a.Left, a.Right} {
		wall := s.world.CreateEntity()
		s.physics.AddWall(physics.Owner{ID: wall, Tag: ecs.TagWall}, x, a.GroundY, a.GroundY+a.WallHeight)
	}
}

func (s *Session) buildTraps() error {
	for i, spec := range s.cfg.Arena.Traps {
		kind, err := level.ParseTrapType(spec.Type)
		if err != nil {
			return fmt.Errorf("game: trap %d: %w", i, err)
		}
		id := s.world.CreateEntity()
		center := cp.Vector{X: spec.X, Y: spec.Y}
		s.physics.AddSensor(physics.Owner{ID: id, Tag: ecs.TagTrap}, center, spec.Width, spec.Height)
		t := level.NewTrap(id, kind, center, spec.Width, spec.Height)
		s.traps = append(s.traps, t)
		s.trapIDs[id] = t
	}
	return nil
}

// Restart throws the run away and starts a fresh one with the same
// configuration. Timers of the old run never fire.
func (s *Session) Restart() error {
	if s == nil {
		return nil
	}
	s.world.Shutdown()
	s.coord.Stop()
	s.cfg.Seed++
	log.Printf("Session: restart")
	return s.build()
}

// SetInput sets the input applied to the controlled block on the next
// ticks.
func (s *Session) SetInput(in block.Input) {
	if s == nil {
		return
	}
	s.input = in
}

// Subscribe registers fn for every dispatched event.
func (s *Session) Subscribe(fn func(ecs.Event)) {
	if s == nil || fn == nil {
		return
	}
	s.listeners = append(s.listeners, fn)
}

// Update advances the simulation one fixed tick.
func (s *Session) Update() {
	if s == nil || s.world == nil {
		return
	}
	s.world.Update()
	s.dispatch(s.world.Events().Drain())
}

// Tick samples in and runs one fixed step.
func (s *Session) Tick(in block.Input) {
	s.SetInput(in)
	s.Update()
}

// ApplyTuning swaps the tunables. Blocks spawned afterwards and the spawner
// policy use the new values.
func (s *Session) ApplyTuning(t prefabs.TuningSpec) error {
	if s == nil {
		return nil
	}
	if err := t.Validate(); err != nil {
		return err
	}
	s.cfg.Tuning = t
	s.spawner.SetPolicy(t.Spawn)
	log.Printf("Session: tuning applied")
	return nil
}

// ApplyBlocks swaps the block shapes used by future spawns.
func (s *Session) ApplyBlocks(b prefabs.BlocksSpec) error {
	if s == nil {
		return nil
	}
	if err := b.Validate(); err != nil {
		return err
	}
	s.cfg.Blocks = b
	s.spawner.Selector().SetPools(b.Sprites(block.KindReality), b.Sprites(block.KindDream))
	log.Printf("Session: block shapes applied")
	return nil
}

func (s *Session) endGame() []ecs.Event {
	s.spawner.EndGame()
	s.coord.Stop()
	height := s.coord.MaxHeight()
	log.Printf("Session: game over at height %.1f level %d", height, s.coord.Level())
	return []ecs.Event{{Kind: ecs.EventGameOver, Value: height}}
}

// dispatch routes events to the simulation first and the hooks after.
// Handlers may produce more events; they are handled in the same call.
func (s *Session) dispatch(evts []ecs.Event) {
	for len(evts) > 0 {
		e := evts[0]
		evts = append(evts[1:], s.handle(e)...)
		for _, fn := range s.listeners {
			fn(e)
		}
	}
}

func (s *Session) handle(e ecs.Event) []ecs.Event {
	h := s.hooks
	switch e.Kind {
	case ecs.EventBlockSettled:
		if b, ok := s.blocks.Get(e.Entity); ok {
			s.spawner.OnSettled(b)
		}
	case ecs.EventBlockRemoved:
		s.removeBlock(e.Entity)
	case ecs.EventDamage:
		return s.health.Damage(int(e.Value))
	case ecs.EventItemSpawned:
		if h.Scores != nil {
			h.Scores.OnItem(e.Name)
		}
	case ecs.EventItemUsed:
		if shape, ok := s.sensors[e.Entity]; ok {
			s.physics.RemoveSensor(shape)
			delete(s.sensors, e.Entity)
			s.world.DestroyEntity(e.Entity)
		}
	case ecs.EventMaxHeight:
		if h.Scores != nil {
			h.Scores.OnMaxHeight(e.Value)
		}
	case ecs.EventGameOver:
		s.over = true
		if h.Scores != nil {
			h.Scores.OnGameOver(e.Value, s.coord.Level(), s.world.Elapsed())
		}
	case ecs.EventPreviewUpdated:
		if d, ok := e.Data.(spawner.Descriptor); ok && h.Preview != nil {
			h.Preview.ShowNext(d)
		}
	case ecs.EventSound:
		if h.Sounds != nil {
			h.Sounds.Play(e.Name)
		}
	case ecs.EventEffect:
		if h.Effects != nil {
			h.Effects.Effect(e.Name, e.Point)
		}
	}
	return nil
}

func (s *Session) removeBlock(id ecs.Entity) {
	b, ok := s.blocks.Get(id)
	if !ok {
		return
	}
	s.spawner.Remove(b)
	for _, t := range s.traps {
		t.Exit(b)
	}
	s.physics.Remove(id)
	s.blocks.Remove(id)
	s.world.DestroyEntity(id)
}

func (s *Session) World() *ecs.World { return s.world }
func (s *Session) Physics() *physics.World { return s.physics }
func (s *Session) Spawner() *spawner.Spawner { return s.spawner }
func (s *Session) Coordinator() *level.Coordinator { return s.coord }
func (s *Session) SpawnPoint() *level.SpawnPoint { return s.point }
func (s *Session) Health() *Health { return s.health }
func (s *Session) Items() *level.Items { return s.items }
func (s *Session) Config() Config { return s.cfg }
func (s *Session) Over() bool { return s.over }

// Blocks returns the live blocks.
func (s *Session) Blocks() []*block.Block {
	if s == nil {
		return nil
	}
	return s.blocks.Values()
}

// Block returns the live block for id.
func (s *Session) Block(id ecs.Entity) (*block.Block, bool) {
	if s == nil {
		return nil, false
	}
	return s.blocks.Get(id)
}

// Traps returns the placed traps.
func (s *Session) Traps() []*level.Trap {
	if s == nil {
		return nil
	}
	return s.traps
}

// Controlled returns the block under player control, if any.
func (s *Session) Controlled() *block.Block {
	if s == nil {
		return nil
	}
	return s.spawner.Controlled()
}

// Variant returns the shape a block was built from.
func (s *Session) Variant(b *block.Block) (prefabs.VariantSpec, bool) {
	if s == nil || b == nil {
		return prefabs.VariantSpec{}, false
	}
	return s.cfg.Blocks.Variant(b.Kind(), b.Variant())
}
