package block

import "github.com/jakecoffman/cp"

// Motion selects how the physics service integrates a body.
type Motion uint8

const (
	// MotionDriven bodies move only by the velocity the controller sets.
	MotionDriven Motion = iota
	// MotionFree bodies fall under gravity and respond to contacts.
	MotionFree
	// MotionPinned bodies stay dynamic but hold still.
	MotionPinned
	// MotionFrozen bodies are static for the rest of the session.
	MotionFrozen
)

func (m Motion) String() string {
	switch m {
	case MotionDriven:
		return "driven"
	case MotionFree:
		return "free"
	case MotionPinned:
		return "pinned"
	case MotionFrozen:
		return "frozen"
	default:
		return "unknown"
	}
}

// Body is the slice of a rigid body the block state machine drives.
// Angles are in degrees.
type Body interface {
	Position() cp.Vector
	Velocity() cp.Vector
	SetVelocity(v cp.Vector)
	Angle() float64
	SetAngle(deg float64)
	SetMotion(m Motion)
	SetCollisionEnabled(enabled bool)
	IsDynamic() bool
}
