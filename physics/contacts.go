package physics

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/dreamtower/ecs"
)

// Phase says whether a contact started or ended.
type Phase uint8

const (
	ContactBegin Phase = iota
	ContactEnd
)

func (p Phase) String() string {
	if p == ContactEnd {
		return "end"
	}
	return "begin"
}

// Contact is a begin or end between two owners. A block body made of many
// shapes reports one begin when its first shape touches and one end when its
// last shape lets go.
type Contact struct {
	Phase Phase
	A     Owner
	B     Owner
	Point cp.Vector
}

// Involves reports whether id is one side of the contact and returns the
// other side.
func (c Contact) Involves(id ecs.Entity) (Owner, bool) {
	switch id {
	case c.A.ID:
		return c.B, true
	case c.B.ID:
		return c.A, true
	default:
		return Owner{}, false
	}
}

type pairKey struct {
	a, b ecs.Entity
}

func makePairKey(a, b ecs.Entity) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{a: a, b: b}
}

func (w *World) setupHandlers() {
	pairs := [][2]cp.CollisionType{
		{collisionTypeBlock, collisionTypeBlock},
		{collisionTypeBlock, collisionTypeSolid},
		{collisionTypeBlock, collisionTypeSensor},
	}
	for _, p := range pairs {
		handler := w.space.NewCollisionHandler(p[0], p[1])
		handler.UserData = w
		handler.BeginFunc = beginContact
		handler.SeparateFunc = separateContact
	}
}

func beginContact(arb *cp.Arbiter, space *cp.Space, userData interface{}) bool {
	world, ok := userData.(*World)
	if !ok || world == nil {
		return true
	}
	a, b, ok := world.arbiterOwners(arb)
	if !ok {
		return true
	}
	key := makePairKey(a.ID, b.ID)
	world.pairs[key]++
	if world.pairs[key] == 1 {
		world.pending = append(world.pending, Contact{Phase: ContactBegin, A: a, B: b, Point: contactPoint(arb)})
	}
	return true
}

func separateContact(arb *cp.Arbiter, space *cp.Space, userData interface{}) {
	world, ok := userData.(*World)
	if !ok || world == nil {
		return
	}
	a, b, ok := world.arbiterOwners(arb)
	if !ok {
		return
	}
	key := makePairKey(a.ID, b.ID)
	n, open := world.pairs[key]
	if !open {
		return
	}
	if n > 1 {
		world.pairs[key] = n - 1
		return
	}
	delete(world.pairs, key)
	world.pending = append(world.pending, Contact{Phase: ContactEnd, A: a, B: b, Point: contactPoint(arb)})
}

func (w *World) arbiterOwners(arb *cp.Arbiter) (Owner, Owner, bool) {
	shapeA, shapeB := arb.Shapes()
	a, okA := w.owners[shapeA]
	b, okB := w.owners[shapeB]
	if !okA || !okB || a.ID == b.ID {
		return Owner{}, Owner{}, false
	}
	return a, b, true
}

// contactPoint returns the last contact point, or the midpoint of the two
// bodies when the arbiter has none.
func contactPoint(arb *cp.Arbiter) cp.Vector {
	if p, ok := lastPoint(arb.ContactPointSet()); ok {
		return p
	}
	bodyA, bodyB := arb.Bodies()
	return bodyA.Position().Lerp(bodyB.Position(), 0.5)
}

func lastPoint(set cp.ContactPointSet) (cp.Vector, bool) {
	if set.Count <= 0 || set.Count > len(set.Points) {
		return cp.Vector{}, false
	}
	return set.Points[set.Count-1].PointA, true
}
