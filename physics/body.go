package physics

import (
	"fmt"
	"math"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/dreamtower/block"
	"github.com/milk9111/dreamtower/common"
	"github.com/milk9111/dreamtower/ecs"
)

// Cell is one square of a block shape in cell units.
type Cell struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// Body is a block rigid body made of one box shape per cell. It implements
// block.Body.
type Body struct {
	world   *World
	owner   Owner
	body    *cp.Body
	shapes  []*cp.Shape
	local   []cp.BB
	motion  block.Motion
	collide bool
}

var _ block.Body = (*Body)(nil)

// AddBlock builds a dynamic body for owner at pos, rotated angleDeg.
func (w *World) AddBlock(owner Owner, cells []Cell, cellSize float64, pos cp.Vector, angleDeg float64) (*Body, error) {
	if w == nil || w.space == nil {
		return nil, nil
	}
	if len(cells) == 0 {
		return nil, ErrNoCells
	}
	if _, ok := w.bodies.Get(owner.ID); ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateBody, owner.ID)
	}
	if cellSize <= 0 {
		cellSize = 1
	}

	var cx, cy float64
	for _, c := range cells {
		cx += float64(c.X) + 0.5
		cy += float64(c.Y) + 0.5
	}
	cx /= float64(len(cells))
	cy /= float64(len(cells))

	cellMass := w.cfg.Density * cellSize * cellSize
	boxes := make([]cp.BB, 0, len(cells))
	moment := 0.0
	for _, c := range cells {
		bb := cp.BB{
			L: (float64(c.X) - cx) * cellSize,
			B: (float64(c.Y) - cy) * cellSize,
			R: (float64(c.X) + 1 - cx) * cellSize,
			T: (float64(c.Y) + 1 - cy) * cellSize,
		}
		boxes = append(boxes, bb)
		center := bb.Center()
		moment += cp.MomentForBox(cellMass, cellSize, cellSize) + cellMass*center.LengthSq()
	}

	cpBody := cp.NewBody(cellMass*float64(len(cells)), moment)
	cpBody.SetPosition(pos)
	cpBody.SetAngle(common.DegToRad(angleDeg))
	w.space.AddBody(cpBody)

	b := &Body{world: w, owner: owner, body: cpBody, local: boxes, collide: true}
	for _, bb := range boxes {
		shape := cp.NewBox2(cpBody, bb, 0.02)
		shape.SetFriction(w.cfg.Friction)
		shape.SetCollisionType(collisionTypeBlock)
		w.space.AddShape(shape)
		w.owners[shape] = owner
		b.shapes = append(b.shapes, shape)
	}
	b.SetMotion(block.MotionDriven)
	w.bodies.Put(owner.ID, b)
	return b, nil
}

// Owner returns the entity and tag the body belongs to.
func (b *Body) Owner() Owner { return b.owner }

// Shapes returns the cell shapes.
func (b *Body) Shapes() []*cp.Shape { return b.shapes }

// Motion returns the current integration mode.
func (b *Body) Motion() block.Motion { return b.motion }

func (b *Body) Position() cp.Vector {
	if b == nil || b.body == nil {
		return cp.Vector{}
	}
	return b.body.Position()
}

func (b *Body) Velocity() cp.Vector {
	if b == nil || b.body == nil {
		return cp.Vector{}
	}
	return b.body.Velocity()
}

func (b *Body) SetVelocity(v cp.Vector) {
	if b == nil || b.body == nil || b.motion == block.MotionFrozen {
		return
	}
	b.body.SetVelocity(v.X, v.Y)
}

// Angle returns the body rotation in degrees within [0,360).
func (b *Body) Angle() float64 {
	if b == nil || b.body == nil {
		return 0
	}
	return common.NormalizeDegrees(common.RadToDeg(b.body.Angle()))
}

func (b *Body) SetAngle(deg float64) {
	if b == nil || b.body == nil || b.motion == block.MotionFrozen {
		return
	}
	b.body.SetAngle(common.DegToRad(deg))
	b.body.SetAngularVelocity(0)
}

// SetMotion switches how the space integrates the body. Frozen is final.
func (b *Body) SetMotion(m block.Motion) {
	if b == nil || b.body == nil || b.motion == block.MotionFrozen && b.body.GetType() == cp.BODY_STATIC {
		return
	}
	b.motion = m
	switch m {
	case block.MotionDriven:
		b.body.SetVelocityUpdateFunc(driveVelocity)
		b.body.SetPositionUpdateFunc(cp.BodyUpdatePosition)
	case block.MotionFree:
		b.body.SetVelocityUpdateFunc(cp.BodyUpdateVelocity)
		b.body.SetPositionUpdateFunc(cp.BodyUpdatePosition)
	case block.MotionPinned:
		b.body.SetVelocity(0, 0)
		b.body.SetAngularVelocity(0)
		b.body.SetVelocityUpdateFunc(holdVelocity)
		b.body.SetPositionUpdateFunc(holdPosition)
	case block.MotionFrozen:
		b.body.SetVelocity(0, 0)
		b.body.SetAngularVelocity(0)
		b.body.SetType(cp.BODY_STATIC)
	}
}

// driveVelocity keeps the velocity the controller set and ignores gravity
// and torque.
func driveVelocity(body *cp.Body, _ cp.Vector, _ float64, _ float64) {
	body.SetAngularVelocity(0)
}

func holdVelocity(body *cp.Body, _ cp.Vector, _ float64, _ float64) {
	body.SetVelocity(0, 0)
	body.SetAngularVelocity(0)
}

// holdPosition runs the normal integration to clear solver bias, then puts
// the body back where it was.
func holdPosition(body *cp.Body, dt float64) {
	p, a := body.Position(), body.Angle()
	cp.BodyUpdatePosition(body, dt)
	body.SetPosition(p)
	body.SetAngle(a)
}

// SetCollisionEnabled adds or removes the body shapes from the space.
// Removing them ends every open contact.
func (b *Body) SetCollisionEnabled(on bool) {
	if b == nil || b.world == nil || b.collide == on {
		return
	}
	b.collide = on
	if !on {
		b.detachShapes()
		return
	}
	for _, shape := range b.shapes {
		if !b.world.space.ContainsShape(shape) {
			b.world.space.AddShape(shape)
		}
	}
}

// CollisionEnabled reports whether the body shapes are in the space.
func (b *Body) CollisionEnabled() bool {
	return b != nil && b.collide
}

func (b *Body) detachShapes() {
	for _, shape := range b.shapes {
		if b.world.space.ContainsShape(shape) {
			b.world.space.RemoveShape(shape)
		}
	}
}

// IsDynamic reports whether contacts can move the body.
func (b *Body) IsDynamic() bool {
	return b != nil && b.body != nil && b.body.GetType() == cp.BODY_DYNAMIC
}

// Top returns the highest corner of the body.
func (b *Body) Top() float64 {
	if b == nil || b.body == nil {
		return math.Inf(-1)
	}
	top := math.Inf(-1)
	for _, quad := range b.Corners() {
		for _, v := range quad {
			top = math.Max(top, v.Y)
		}
	}
	return top
}

// Corners returns the world-space corners of every cell, four per cell.
func (b *Body) Corners() [][4]cp.Vector {
	if b == nil || b.body == nil {
		return nil
	}
	out := make([][4]cp.Vector, 0, len(b.local))
	for _, bb := range b.local {
		out = append(out, [4]cp.Vector{
			b.body.LocalToWorld(cp.Vector{X: bb.L, Y: bb.B}),
			b.body.LocalToWorld(cp.Vector{X: bb.R, Y: bb.B}),
			b.body.LocalToWorld(cp.Vector{X: bb.R, Y: bb.T}),
			b.body.LocalToWorld(cp.Vector{X: bb.L, Y: bb.T}),
		})
	}
	return out
}

// String renders the owner for logs.
func (b *Body) String() string {
	if b == nil {
		return "<nil body>"
	}
	return fmt.Sprintf("%s:%s", b.owner.Tag, b.owner.ID)
}

// TagOf returns the tag of a registered owner.
func (w *World) TagOf(id ecs.Entity) ecs.Tag {
	b, ok := w.Body(id)
	if !ok {
		return ecs.TagNone
	}
	return b.owner.Tag
}
