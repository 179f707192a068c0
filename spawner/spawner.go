package spawner

import (
	"errors"
	"log"
	"slices"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/dreamtower/block"
	"github.com/milk9111/dreamtower/ecs"
)

var ErrNoFactory = errors.New("spawner: no block factory")

// Factory instantiates a block for a descriptor at a spawn position.
type Factory interface {
	NewBlock(d Descriptor, at cp.Vector) (*block.Block, error)
}

// SpawnPoint reports where the next block appears.
type SpawnPoint interface {
	Position() cp.Vector
}

// FixedPoint is a SpawnPoint that never moves.
type FixedPoint cp.Vector

func (p FixedPoint) Position() cp.Vector { return cp.Vector(p) }

// Spawner decides, spawns and tracks blocks. At most one block is under
// player control at any time; the next one is scheduled through the timer
// queue after the current one settles.
type Spawner struct {
	selector *Selector
	factory  Factory
	point    SpawnPoint
	timers   *ecs.Timers
	policy   Policy

	canSpawn bool
	ended    bool

	pending  *Descriptor
	// unpicked is the selector state from before pending was drawn.
	unpicked governor
	current  *block.Block
	reality  []*block.Block
	dream    []*block.Block

	spawned   int
	settled   int
	nextSpawn ecs.TimerID
}

// New builds a spawner. Spawning is enabled until told otherwise.
func New(selector *Selector, factory Factory, point SpawnPoint, timers *ecs.Timers, policy Policy) *Spawner {
	return &Spawner{
		selector: selector,
		factory:  factory,
		point:    point,
		timers:   timers,
		policy:   policy,
		canSpawn: true,
	}
}

// Alive reports whether deferred spawner work may still run.
func (s *Spawner) Alive() bool {
	return s != nil && !s.ended
}

// Start precomputes the first descriptor and spawns it. Empty pools or a
// missing factory fail closed: nothing spawns and the error is returned.
func (s *Spawner) Start() ([]ecs.Event, error) {
	if s == nil {
		return nil, nil
	}
	if s.factory == nil {
		log.Printf("Spawner: start refused: %v", ErrNoFactory)
		return nil, ErrNoFactory
	}
	if err := s.selector.Validate(); err != nil {
		log.Printf("Spawner: start refused: %v", err)
		return nil, err
	}
	var out []ecs.Event
	if s.pending == nil {
		evts, err := s.precompute()
		if err != nil {
			return nil, err
		}
		out = append(out, evts...)
	}
	evts, err := s.Spawn()
	return append(out, evts...), err
}

// Spawn instantiates the pending block. It is a silent no-op while spawning
// is disabled, after the game ended, without a pending descriptor or while a
// block is still under control.
func (s *Spawner) Spawn() ([]ecs.Event, error) {
	if s == nil || !s.canSpawn || s.ended || s.pending == nil || s.current != nil {
		return nil, nil
	}
	if s.factory == nil {
		return nil, ErrNoFactory
	}
	var at cp.Vector
	if s.point != nil {
		at = s.point.Position()
	}
	d := *s.pending
	b, err := s.factory.NewBlock(d, at)
	if err != nil {
		log.Printf("Spawner: spawn %s failed: %v", d, err)
		return nil, err
	}
	s.current = b
	s.pending = nil
	s.spawned++

	out := []ecs.Event{{Kind: ecs.EventBlockSpawned, Entity: b.ID(), Point: at, Data: b}}
	evts, err := s.precompute()
	if err != nil {
		log.Printf("Spawner: precompute next: %v", err)
	}
	return append(out, evts...), nil
}

func (s *Spawner) precompute() ([]ecs.Event, error) {
	before := s.selector.snapshot()
	d, err := s.selector.Next()
	if err != nil {
		return nil, err
	}
	s.unpicked = before
	s.pending = &d
	return []ecs.Event{{Kind: ecs.EventPreviewUpdated, Data: d}}, nil
}

// OnSettled records the controlled block once it stops and schedules the
// next spawn after the spawn delay.
func (s *Spawner) OnSettled(b *block.Block) {
	if s == nil || b == nil || b != s.current {
		return
	}
	if s.settled == 0 || b.Kind() == block.KindReality {
		s.reality = append(s.reality, b)
	} else {
		s.dream = append(s.dream, b)
	}
	s.settled++
	s.current = nil
	s.scheduleSpawn()
}

func (s *Spawner) scheduleSpawn() {
	if s.ended || s.timers == nil {
		return
	}
	if s.nextSpawn != 0 {
		s.timers.Cancel(s.nextSpawn)
	}
	s.nextSpawn = s.timers.After(s, s.policy.SpawnDelay, func() []ecs.Event {
		s.nextSpawn = 0
		evts, err := s.Spawn()
		if err != nil {
			log.Printf("Spawner: deferred spawn: %v", err)
		}
		return evts
	})
}

// FixAllExceptControlled fixes every recorded block and clears the live
// lists. The controlled block keeps falling. A current block that settled
// this tick but has not been reported yet is recorded first so it is fixed
// with the rest.
func (s *Spawner) FixAllExceptControlled() []*block.Block {
	if s == nil {
		return nil
	}
	if s.current != nil && !s.current.IsControlled() {
		s.OnSettled(s.current)
	}
	fixed := make([]*block.Block, 0, len(s.reality)+len(s.dream))
	for _, list := range [][]*block.Block{s.reality, s.dream} {
		for _, b := range list {
			b.FixBlock()
			fixed = append(fixed, b)
		}
	}
	s.reality = s.reality[:0]
	s.dream = s.dream[:0]
	return fixed
}

// FixAll fixes every live block including the controlled one.
func (s *Spawner) FixAll() []*block.Block {
	if s == nil {
		return nil
	}
	fixed := s.FixAllExceptControlled()
	if s.current != nil {
		s.current.FixBlock()
		fixed = append(fixed, s.current)
		s.current = nil
	}
	return fixed
}

// EndGame disables spawning for good and fixes every block. A pending
// deferred spawn never fires.
func (s *Spawner) EndGame() []*block.Block {
	if s == nil || s.ended {
		return nil
	}
	s.ended = true
	s.canSpawn = false
	if s.nextSpawn != 0 {
		s.timers.Cancel(s.nextSpawn)
		s.nextSpawn = 0
	}
	return s.FixAll()
}

// SetCanSpawn enables or disables spawning. It has no effect after EndGame.
func (s *Spawner) SetCanSpawn(on bool) {
	if s == nil || s.ended {
		return
	}
	s.canSpawn = on
}

// ForceNext replaces the pending descriptor with a specific variant. The
// replaced pick is rolled back out of the governor. An out-of-range variant
// is rejected and nothing changes.
func (s *Spawner) ForceNext(kind block.Kind, variant int) ([]ecs.Event, error) {
	if s == nil {
		return nil, nil
	}
	current := s.selector.snapshot()
	if s.pending != nil {
		s.selector.restore(s.unpicked)
	}
	d, err := s.selector.Force(kind, variant)
	if err != nil {
		s.selector.restore(current)
		log.Printf("Spawner: force next: %v", err)
		return nil, err
	}
	s.pending = &d
	return []ecs.Event{{Kind: ecs.EventPreviewUpdated, Data: d}}, nil
}

// Remove drops b from the live lists.
func (s *Spawner) Remove(b *block.Block) bool {
	if s == nil || b == nil {
		return false
	}
	if s.current == b {
		s.current = nil
		return true
	}
	if i := slices.Index(s.reality, b); i >= 0 {
		s.reality = slices.Delete(s.reality, i, i+1)
		return true
	}
	if i := slices.Index(s.dream, b); i >= 0 {
		s.dream = slices.Delete(s.dream, i, i+1)
		return true
	}
	return false
}

// SetPolicy applies new tunables to future selections and spawns.
func (s *Spawner) SetPolicy(p Policy) {
	if s == nil {
		return
	}
	s.policy = p
	s.selector.SetPolicy(p)
}

func (s *Spawner) Controlled() *block.Block { return s.current }
func (s *Spawner) Reality() []*block.Block { return s.reality }
func (s *Spawner) Dream() []*block.Block { return s.dream }
func (s *Spawner) CanSpawn() bool { return s.canSpawn }
func (s *Spawner) Ended() bool { return s.ended }
func (s *Spawner) Spawned() int { return s.spawned }
func (s *Spawner) Settled() int { return s.settled }
func (s *Spawner) Selector() *Selector { return s.selector }

// Pending returns the next descriptor for the preview.
func (s *Spawner) Pending() (Descriptor, bool) {
	if s == nil || s.pending == nil {
		return Descriptor{}, false
	}
	return *s.pending, true
}

// SpawnScheduled reports whether a deferred spawn is waiting.
func (s *Spawner) SpawnScheduled() bool {
	return s != nil && s.nextSpawn != 0
}
