package game

import (
	"fmt"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/dreamtower/block"
	"github.com/milk9111/dreamtower/ecs"
	"github.com/milk9111/dreamtower/level"
	"github.com/milk9111/dreamtower/physics"
	"github.com/milk9111/dreamtower/spawner"
)

// factory builds block bodies from the configured shapes.
type factory struct {
	s *Session
}

func (f factory) NewBlock(d spawner.Descriptor, at cp.Vector) (*block.Block, error) {
	s := f.s
	v, ok := s.cfg.Blocks.Variant(d.Kind, d.Variant)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariant, d)
	}
	id := s.world.CreateEntity()
	owner := physics.Owner{ID: id, Tag: d.Kind.Tag()}
	body, err := s.physics.AddBlock(owner, v.Cells, s.cfg.Blocks.CellSize, at, d.Rotation)
	if err != nil {
		s.world.DestroyEntity(id)
		return nil, err
	}
	b := block.New(block.Spec{
		ID:       id,
		Kind:     d.Kind,
		Variant:  d.Variant,
		Rotation: d.Rotation,
		Tuning:   s.cfg.Tuning.Block,
	}, body, s.world.Timers())
	s.blocks.Set(id, b)
	return b, nil
}

// placer puts item sensors into the space.
type placer struct {
	s *Session
}

func (p placer) PlaceItem(kind level.ItemKind, at cp.Vector, size float64) (ecs.Entity, error) {
	s := p.s
	id := s.world.CreateEntity()
	shape := s.physics.AddSensor(physics.Owner{ID: id, Tag: ecs.TagItem}, at, size, size)
	if shape == nil {
		s.world.DestroyEntity(id)
		return 0, fmt.Errorf("game: no space for %s", kind)
	}
	s.sensors[id] = shape
	return id, nil
}

// itemUser applies item effects to the session.
type itemUser struct {
	s *Session
}

func (u itemUser) HealAll() []ecs.Event {
	return u.s.health.HealAll()
}

func (u itemUser) AddShield(n int) []ecs.Event {
	return u.s.health.AddShield(n)
}

func (u itemUser) FixAllExceptControlled() []*block.Block {
	return u.s.spawner.FixAllExceptControlled()
}

func (u itemUser) Rocket() []ecs.Event {
	return u.s.coord.Rocket()
}
