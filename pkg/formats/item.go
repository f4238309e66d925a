package formats

import (
	"fmt"

	"github.com/Faultbox/eschalon-utils/pkg/stream"
)

// AttrMod is an (attribute, bonus) pair.
type AttrMod struct {
	Attr     int
	Modifier int
}

// Item is a single inventory or container slot.
type Item struct {
	Book Book

	// NameOnly marks items stored in global map containers, where only the
	// item name is present on disk.
	NameOnly bool

	Category   int
	Subtype    int
	Name       string
	Weight     float64
	PictureID  int
	Value      int
	CanStack   int
	Quantity   int
	BaseDamage int
	BaseArmor  int
	Script     string
	Visibility int
	Zero1      int
	EmptyStr   string

	// Book I
	AttrModified  int
	AttrModifier  int
	SkillModified int
	SkillModifier int
	Hitpoint      int
	Mana          int
	ToHit         int
	Damage        int
	Armor         int
	Incr          int
	Flags         int
	Duration      int

	// Book II/III
	Mods        [3]AttrMod
	UnknownFlag int
	CurHP       int
	MaxHP       int
	UnknownC1   int
}

// NewItem returns an empty item for the book.
func NewItem(book Book) *Item {
	return &Item{Book: book}
}

func (i *Item) schema() stream.Schema {
	if i.NameOnly {
		return stream.Schema{stream.Str("name", &i.Name)}
	}
	if i.Book == Book1 {
		return stream.Schema{
			stream.I32("type", &i.Category),
			stream.I32("subtype", &i.Subtype),
			stream.Str("name", &i.Name),
			stream.F64("weight", &i.Weight),
			stream.I32("picid", &i.PictureID),
			stream.I32("value", &i.Value),
			stream.I32("canstack", &i.CanStack),
			stream.I32("quantity", &i.Quantity),
			stream.I32("basedamage", &i.BaseDamage),
			stream.I32("basearmor", &i.BaseArmor),
			stream.I32("attr_modified", &i.AttrModified),
			stream.I32("attr_modifier", &i.AttrModifier),
			stream.I32("skill_modified", &i.SkillModified),
			stream.I32("skill_modifier", &i.SkillModifier),
			stream.I32("hitpoint", &i.Hitpoint),
			stream.I32("mana", &i.Mana),
			stream.I32("tohit", &i.ToHit),
			stream.I32("damage", &i.Damage),
			stream.I32("armor", &i.Armor),
			stream.I32("incr", &i.Incr),
			stream.I32("flags", &i.Flags),
			stream.Str("script", &i.Script),
			stream.I32("visibility", &i.Visibility),
			stream.I32("duration", &i.Duration),
			stream.I32("zero1", &i.Zero1),
			stream.Str("emptystr", &i.EmptyStr),
		}
	}
	return stream.Schema{
		stream.U8("type", &i.Category),
		stream.U8("subtype", &i.Subtype),
		stream.Str("name", &i.Name),
		stream.F64("weight", &i.Weight),
		stream.U16("picid", &i.PictureID),
		stream.I32("value", &i.Value),
		stream.U8("canstack", &i.CanStack),
		stream.I32("quantity", &i.Quantity),
		stream.U8("basedamage", &i.BaseDamage),
		stream.U8("basearmor", &i.BaseArmor),
		stream.U8("attr_modified_1", &i.Mods[0].Attr),
		stream.U8("attr_modifier_1", &i.Mods[0].Modifier),
		stream.U8("attr_modified_2", &i.Mods[1].Attr),
		stream.U8("attr_modifier_2", &i.Mods[1].Modifier),
		stream.U8("attr_modified_3", &i.Mods[2].Attr),
		stream.I8("attr_modifier_3", &i.Mods[2].Modifier),
		stream.U8("itemunknownflag", &i.UnknownFlag),
		stream.I16("cur_hp", &i.CurHP),
		stream.I16("max_hp", &i.MaxHP),
		stream.U8("itemunknownc1", &i.UnknownC1),
		stream.Str("script", &i.Script),
		stream.U8("visibility", &i.Visibility),
		stream.I32("zero1", &i.Zero1),
		stream.Str("emptystr", &i.EmptyStr),
	}
}

// Read decodes the item.
func (i *Item) Read(s *stream.Stream) error { return i.schema().Read(s) }

// Write encodes the item.
func (i *Item) Write(s *stream.Stream) error { return i.schema().Write(s) }

// Replicate returns a deep copy.
func (i *Item) Replicate() *Item {
	c := *i
	return &c
}

// Equals reports whether both items produce the same bytes.
func (i *Item) Equals(o *Item) bool {
	return i.Book == o.Book && i.NameOnly == o.NameOnly && sameBytes(i, o)
}

// IsEmpty reports whether the slot holds nothing.
func (i *Item) IsEmpty() bool {
	return i.Name == "" && i.Category == 0
}

// Clear empties the slot in place, keeping its book and storage mode.
func (i *Item) Clear() {
	*i = Item{Book: i.Book, NameOnly: i.NameOnly}
}

// String returns a short description.
func (i *Item) String() string {
	if i.IsEmpty() {
		return "(empty)"
	}
	if i.Quantity > 1 {
		return fmt.Sprintf("%s x%d", i.Name, i.Quantity)
	}
	return i.Name
}

func newItems(book Book, n int, nameOnly bool) []Item {
	items := make([]Item, n)
	for idx := range items {
		items[idx] = Item{Book: book, NameOnly: nameOnly}
	}
	return items
}
