package ecs

// Tag marks the collision capability of a physics owner.
type Tag uint8

const (
	TagNone Tag = iota
	TagGround
	TagWall
	TagReality
	TagDream
	TagTrap
	TagItem
)

// Solid reports whether blocks treat the tag as a stacking neighbour.
func (t Tag) Solid() bool {
	return t == TagReality || t == TagDream
}

func (t Tag) String() string {
	switch t {
	case TagGround:
		return "ground"
	case TagWall:
		return "wall"
	case TagReality:
		return "reality"
	case TagDream:
		return "dream"
	case TagTrap:
		return "trap"
	case TagItem:
		return "item"
	default:
		return "none"
	}
}
