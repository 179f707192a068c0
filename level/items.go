package level

import (
	"fmt"
	"log"
	"math/rand/v2"
	"slices"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/dreamtower/block"
	"github.com/milk9111/dreamtower/ecs"
)

// ItemKind is the effect an item has when a block picks it up.
type ItemKind uint8

const (
	ItemNone ItemKind = iota
	ItemHeal
	ItemIce
	ItemShield
	ItemRocket
)

func (k ItemKind) String() string {
	switch k {
	case ItemHeal:
		return "heal"
	case ItemIce:
		return "ice"
	case ItemShield:
		return "shield"
	case ItemRocket:
		return "rocket"
	default:
		return "none"
	}
}

// ParseItemKind maps a prefab name to an ItemKind.
func ParseItemKind(s string) (ItemKind, error) {
	switch s {
	case "none":
		return ItemNone, nil
	case "heal":
		return ItemHeal, nil
	case "ice":
		return ItemIce, nil
	case "shield":
		return ItemShield, nil
	case "rocket":
		return ItemRocket, nil
	default:
		return ItemNone, fmt.Errorf("level: unknown item kind %q", s)
	}
}

// Names of the sounds and effects items emit.
const (
	SoundItemCollect = "item_collect"
	EffectIce        = "ice_item"
	EffectHeal       = "heal_item"
)

// ItemTuning controls where and which items appear.
type ItemTuning struct {
	Kinds     []string `yaml:"kinds"`
	HeightMin float64  `yaml:"height_min"`
	HeightMax float64  `yaml:"height_max"`
	WidthMin  float64  `yaml:"width_min"`
	WidthMax  float64  `yaml:"width_max"`
	Size      float64  `yaml:"size"`
}

// DefaultItemTuning returns the item table the game ships with. The first
// entry is a miss.
func DefaultItemTuning() ItemTuning {
	return ItemTuning{
		Kinds:     []string{"none", "heal", "ice", "shield", "rocket"},
		HeightMin: 10,
		HeightMax: 15,
		WidthMin:  -12,
		WidthMax:  12,
		Size:      2,
	}
}

// ItemPlacer creates the sensor an item lives in.
type ItemPlacer interface {
	PlaceItem(kind ItemKind, at cp.Vector, size float64) (ecs.Entity, error)
}

// ItemUser applies item effects to the rest of the game.
type ItemUser interface {
	HealAll() []ecs.Event
	AddShield(n int) []ecs.Event
	FixAllExceptControlled() []*block.Block
	Rocket() []ecs.Event
}

// Item is a placed pickup.
type Item struct {
	ID       ecs.Entity
	Kind     ItemKind
	Pos      cp.Vector
	used     bool
	touching []*block.Block
}

// Used reports whether the item has been picked up.
func (i *Item) Used() bool { return i.used }

// Items drops pickups on level-up and applies them once a resting reality
// block touches them.
type Items struct {
	rng    *rand.Rand
	tuning ItemTuning
	kinds  []ItemKind
	placer ItemPlacer
	user   ItemUser
	live   []*Item
}

// NewItems parses the item table. Unknown names are rejected.
func NewItems(rng *rand.Rand, t ItemTuning, placer ItemPlacer, user ItemUser) (*Items, error) {
	kinds := make([]ItemKind, 0, len(t.Kinds))
	for _, name := range t.Kinds {
		k, err := ParseItemKind(name)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Items{rng: rng, tuning: t, kinds: kinds, placer: placer, user: user}, nil
}

// Live returns the items still on the map.
func (it *Items) Live() []*Item {
	if it == nil {
		return nil
	}
	return it.live
}

// OnLevelUp may place one item above maxHeight. Index 0 of the table never
// places anything.
func (it *Items) OnLevelUp(maxHeight float64) []ecs.Event {
	if it == nil || len(it.kinds) == 0 || it.placer == nil {
		return nil
	}
	idx := it.rng.IntN(len(it.kinds))
	kind := it.kinds[idx]
	if idx == 0 || kind == ItemNone {
		return nil
	}
	at := cp.Vector{
		X: it.tuning.WidthMin + it.rng.Float64()*(it.tuning.WidthMax-it.tuning.WidthMin),
		Y: maxHeight + it.tuning.HeightMin + it.rng.Float64()*(it.tuning.HeightMax-it.tuning.HeightMin),
	}
	id, err := it.placer.PlaceItem(kind, at, it.tuning.Size)
	if err != nil {
		log.Printf("Items: place %s: %v", kind, err)
		return nil
	}
	it.live = append(it.live, &Item{ID: id, Kind: kind, Pos: at})
	log.Printf("Items: %s spawned at (%.1f, %.1f)", kind, at.X, at.Y)
	return []ecs.Event{{Kind: ecs.EventItemSpawned, Entity: id, Name: kind.String(), Point: at}}
}

func (it *Items) find(id ecs.Entity) *Item {
	for _, item := range it.live {
		if item.ID == id {
			return item
		}
	}
	return nil
}

// Enter records a block touching item id.
func (it *Items) Enter(id ecs.Entity, b *block.Block) {
	if it == nil || b == nil {
		return
	}
	if item := it.find(id); item != nil && !slices.Contains(item.touching, b) {
		item.touching = append(item.touching, b)
	}
}

// Exit forgets a block that stopped touching item id.
func (it *Items) Exit(id ecs.Entity, b *block.Block) {
	if it == nil {
		return
	}
	if item := it.find(id); item != nil {
		if i := slices.Index(item.touching, b); i >= 0 {
			item.touching = slices.Delete(item.touching, i, i+1)
		}
	}
}

// Update uses every item a resting reality block is touching.
func (it *Items) Update() []ecs.Event {
	if it == nil {
		return nil
	}
	var out []ecs.Event
	for _, item := range it.live {
		if item.used || !it.collects(item) {
			continue
		}
		item.used = true
		out = append(out, it.use(item)...)
	}
	it.live = slices.DeleteFunc(it.live, func(item *Item) bool { return item.used })
	return out
}

func (it *Items) collects(item *Item) bool {
	for _, b := range item.touching {
		if b.Alive() && b.Kind() == block.KindReality && !b.IsFalling() {
			return true
		}
	}
	return false
}

func (it *Items) use(item *Item) []ecs.Event {
	log.Printf("Items: %s used", item.Kind)
	out := []ecs.Event{
		{Kind: ecs.EventItemUsed, Entity: item.ID, Name: item.Kind.String(), Point: item.Pos},
		{Kind: ecs.EventSound, Name: SoundItemCollect},
	}
	if it.user == nil {
		return out
	}
	switch item.Kind {
	case ItemHeal:
		out = append(out, it.user.HealAll()...)
		out = append(out, ecs.Event{Kind: ecs.EventEffect, Name: EffectHeal, Point: item.Pos})
	case ItemIce:
		it.user.FixAllExceptControlled()
		out = append(out, ecs.Event{Kind: ecs.EventEffect, Name: EffectIce, Point: item.Pos})
	case ItemShield:
		out = append(out, it.user.AddShield(1)...)
	case ItemRocket:
		out = append(out, it.user.Rocket()...)
	}
	return out
}

// Clear drops every item.
func (it *Items) Clear() {
	if it == nil {
		return
	}
	it.live = nil
}
