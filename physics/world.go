package physics

import (
	"errors"
	"log"

	"github.com/jakecoffman/cp"
	"github.com/kamstrup/intmap"
	"github.com/milk9111/dreamtower/ecs"
)

const (
	collisionTypeBlock cp.CollisionType = iota + 1
	collisionTypeSolid
	collisionTypeSensor
)

var (
	ErrNoCells       = errors.New("physics: block has no cells")
	ErrDuplicateBody = errors.New("physics: body already registered")
)

// Config holds the space tunables.
type Config struct {
	Gravity    float64 `yaml:"gravity"`
	Iterations int     `yaml:"iterations"`
	Friction   float64 `yaml:"friction"`
	Density    float64 `yaml:"density"`
}

// DefaultConfig returns the space tunables the game ships with.
func DefaultConfig() Config {
	return Config{
		Gravity:    -20,
		Iterations: 20,
		Friction:   0.8,
		Density:    1,
	}
}

// Owner identifies what a shape belongs to.
type Owner struct {
	ID  ecs.Entity
	Tag ecs.Tag
}

// World owns the Chipmunk space, the static level geometry and every block
// body. Contacts are buffered while the space steps and handed back after.
type World struct {
	cfg   Config
	space *cp.Space

	bodies *intmap.Map[ecs.Entity, *Body]
	owners map[*cp.Shape]Owner
	pairs  map[pairKey]int

	pending []Contact
}

// NewWorld creates an empty space with gravity and collision handlers.
func NewWorld(cfg Config) *World {
	if cfg.Iterations <= 0 {
		cfg.Iterations = 20
	}
	if cfg.Density <= 0 {
		cfg.Density = 1
	}
	space := cp.NewSpace()
	space.Iterations = uint(cfg.Iterations)
	space.SetGravity(cp.Vector{X: 0, Y: cfg.Gravity})

	w := &World{
		cfg:    cfg,
		space:  space,
		bodies: intmap.New[ecs.Entity, *Body](64),
		owners: make(map[*cp.Shape]Owner),
		pairs:  make(map[pairKey]int),
	}
	w.setupHandlers()
	return w
}

// Space returns the underlying Chipmunk space.
func (w *World) Space() *cp.Space {
	if w == nil {
		return nil
	}
	return w.space
}

// Body returns the registered body for id.
func (w *World) Body(id ecs.Entity) (*Body, bool) {
	if w == nil {
		return nil, false
	}
	return w.bodies.Get(id)
}

// BodyCount returns the number of registered block bodies.
func (w *World) BodyCount() int {
	if w == nil {
		return 0
	}
	return w.bodies.Len()
}

// AddGround adds a static floor segment at height y spanning [left,right].
func (w *World) AddGround(owner Owner, left, right, y float64) {
	w.addStaticSegment(owner, cp.Vector{X: left, Y: y}, cp.Vector{X: right, Y: y})
}

// AddWall adds a static vertical segment at x from bottom to top.
func (w *World) AddWall(owner Owner, x, bottom, top float64) {
	w.addStaticSegment(owner, cp.Vector{X: x, Y: bottom}, cp.Vector{X: x, Y: top})
}

func (w *World) addStaticSegment(owner Owner, a, b cp.Vector) {
	if w == nil || w.space == nil {
		return
	}
	shape := cp.NewSegment(w.space.StaticBody, a, b, 0.5)
	shape.SetFriction(w.cfg.Friction)
	shape.SetCollisionType(collisionTypeSolid)
	w.space.AddShape(shape)
	w.owners[shape] = owner
}

// AddSensor adds a static sensor box centred on center.
func (w *World) AddSensor(owner Owner, center cp.Vector, width, height float64) *cp.Shape {
	if w == nil || w.space == nil {
		return nil
	}
	bb := cp.BB{
		L: center.X - width/2,
		B: center.Y - height/2,
		R: center.X + width/2,
		T: center.Y + height/2,
	}
	shape := cp.NewBox2(w.space.StaticBody, bb, 0)
	shape.SetSensor(true)
	shape.SetCollisionType(collisionTypeSensor)
	w.space.AddShape(shape)
	w.owners[shape] = owner
	return shape
}

// RemoveSensor drops a sensor added with AddSensor.
func (w *World) RemoveSensor(shape *cp.Shape) {
	if w == nil || shape == nil {
		return
	}
	if w.space.ContainsShape(shape) {
		w.space.RemoveShape(shape)
	}
	w.forget(w.owners[shape].ID, shape)
}

// Step advances the space and returns the contacts that began or ended
// since the previous step.
func (w *World) Step(dt float64) []Contact {
	if w == nil || w.space == nil {
		return nil
	}
	w.space.Step(dt)
	out := w.pending
	w.pending = nil
	return out
}

// Remove drops the body registered for id and all of its shapes.
func (w *World) Remove(id ecs.Entity) bool {
	if w == nil {
		return false
	}
	b, ok := w.bodies.Get(id)
	if !ok {
		return false
	}
	b.detachShapes()
	if w.space.ContainsBody(b.body) {
		w.space.RemoveBody(b.body)
	}
	for _, shape := range b.shapes {
		w.forget(id, shape)
	}
	w.bodies.Del(id)
	return true
}

// forget drops the shape owner and any contact pair counts still open for
// id.
func (w *World) forget(id ecs.Entity, shape *cp.Shape) {
	delete(w.owners, shape)
	for key := range w.pairs {
		if key.a == id || key.b == id {
			delete(w.pairs, key)
		}
	}
}

// Clear removes every body and static shape.
func (w *World) Clear() {
	if w == nil {
		return
	}
	ids := make([]ecs.Entity, 0, w.bodies.Len())
	w.bodies.ForEach(func(id ecs.Entity, _ *Body) bool {
		ids = append(ids, id)
		return true
	})
	for _, id := range ids {
		w.Remove(id)
	}
	for shape := range w.owners {
		if w.space.ContainsShape(shape) {
			w.space.RemoveShape(shape)
		}
	}
	w.owners = make(map[*cp.Shape]Owner)
	w.pairs = make(map[pairKey]int)
	w.pending = nil
	log.Printf("PhysicsWorld: cleared")
}
