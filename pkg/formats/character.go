package formats

import (
	"fmt"

	"github.com/Faultbox/eschalon-utils/internal/logger"
	"github.com/Faultbox/eschalon-utils/pkg/stream"
	"go.uber.org/zap"
)

// Character constants.
const (
	NumStatuses     = 26
	NumReadySlots   = 10
	NumPortals      = 6
	AlchemyRecipes  = 25
	KeyringSize     = 20
	NumEquipLabels  = 13
	TrailingSpells  = 4
	FullNourishment = 1000

	// diseaseMask covers the curable conditions in Book II+ permanent
	// statuses; the high half holds feats.
	diseaseMask = 0x0000FFFF
)

// Attribute indexes into Character.Attributes.
const (
	AttrStrength = iota
	AttrDexterity
	AttrEndurance
	AttrSpeed
	AttrIntelligence
	AttrWisdom
	AttrPerception
	AttrConcentration
	NumAttributes
)

// AttributeNames lists the attributes in storage order.
var AttributeNames = [NumAttributes]string{
	"Strength", "Dexterity", "Endurance", "Speed",
	"Intelligence", "Wisdom", "Perception", "Concentration",
}

// EquipSlot indexes into Character.Equipment.
type EquipSlot int

// Equipment slots in storage order. EquipAltWeapon exists only in Book I.
const (
	EquipQuiver EquipSlot = iota
	EquipHelm
	EquipCloak
	EquipAmulet
	EquipTorso
	EquipPrimaryWeapon
	EquipBelt
	EquipGauntlet
	EquipLegs
	EquipRing1
	EquipRing2
	EquipShield
	EquipFeet
	EquipAltWeapon
)

var equipSlotNames = [...]string{
	"Quiver", "Helm", "Cloak", "Amulet", "Torso", "Primary Weapon", "Belt",
	"Gauntlet", "Legs", "Ring 1", "Ring 2", "Shield", "Feet", "Alt Weapon",
}

// String returns the slot label.
func (e EquipSlot) String() string {
	if e < 0 || int(e) >= len(equipSlotNames) {
		return fmt.Sprintf("Slot(%d)", int(e))
	}
	return equipSlotNames[e]
}

// EquipSlots returns the number of equipment slots for the book.
func (b Book) EquipSlots() int {
	if b == Book1 {
		return 14
	}
	return 13
}

// StatusPair is one status timer and its companion value.
type StatusPair struct {
	Duration int
	Extra    int
}

func (p *StatusPair) Read(s *stream.Stream) error {
	return stream.Schema{stream.I32("duration", &p.Duration), stream.I32("extra", &p.Extra)}.Read(s)
}

func (p *StatusPair) Write(s *stream.Stream) error {
	return stream.Schema{stream.I32("duration", &p.Duration), stream.I32("extra", &p.Extra)}.Write(s)
}

// ReadySlot is a spell bound to a hotkey.
type ReadySlot struct {
	Book  Book
	Spell string
	Level int
}

func (r *ReadySlot) schema() stream.Schema {
	kind := stream.KindU8
	if r.Book == Book1 {
		kind = stream.KindI32
	}
	return stream.Schema{stream.Str("spell", &r.Spell), stream.Int("level", kind, &r.Level)}
}

func (r *ReadySlot) Read(s *stream.Stream) error  { return r.schema().Read(s) }
func (r *ReadySlot) Write(s *stream.Stream) error { return r.schema().Write(s) }

// Portal is a Book II+ portal anchor.
type Portal struct {
	ID      int
	MapName string
	Coords  string
}

func (p *Portal) schema() stream.Schema {
	return stream.Schema{stream.I32("id", &p.ID), stream.Str("mapname", &p.MapName), stream.Str("coords", &p.Coords)}
}

func (p *Portal) Read(s *stream.Stream) error  { return p.schema().Read(s) }
func (p *Portal) Write(s *stream.Stream) error { return p.schema().Write(s) }

// Extension is one of the five Book I (string, string, int) records.
type Extension struct {
	A, B string
	N    int
}

func (e *Extension) schema() stream.Schema {
	return stream.Schema{stream.Str("a", &e.A), stream.Str("b", &e.B), stream.I32("n", &e.N)}
}

func (e *Extension) Read(s *stream.Stream) error  { return e.schema().Read(s) }
func (e *Extension) Write(s *stream.Stream) error { return e.schema().Write(s) }

// Character is a saved player.
type Character struct {
	Book Book
	Path string

	Name          string
	Attributes    [NumAttributes]int
	Skills        []int
	MaxHP         int
	CurHP         int
	MaxMana       int
	CurMana       int
	XP            int
	Level         int
	Gold          int
	ExtraAttr     int
	ExtraSkill    int
	Statuses      []StatusPair
	FX            []int
	Torches       int
	TorchUsed     int
	Spells        []int
	ReadySlots    []ReadySlot
	Orientation   int
	XPos          int
	YPos          int
	PicID         int
	Inventory     []Item
	Equipment     []Item
	ReadyItems    []Item
	TrailingBytes []byte

	// Book I
	InitZero        int
	UnknownStr      string
	Origin          string
	Axiom           string
	ClassName       string
	CharOne         int
	UnknownBlock    [17]int
	Extensions      [5]Extension
	ExtStrings      [2]string
	Zero1           int
	UnknownInt      int
	Disease         int
	UnknownShort    int
	EmptyStr        string
	UnknownInts     [21]int
	UnknownStrs     [2]string
	Zeros           [2]int
	FinalSpells     [TrailingSpells]int
	FinalSpellsGone bool

	// Book II/III
	Gender       int
	OriginID     int
	AxiomID      int
	ClassID      int
	UnknownC1    int
	Hunger       int
	Thirst       int
	Portals      [NumPortals]Portal
	ReadiedSpell string
	ReadiedLevel int
	Alchemy      [AlchemyRecipes]int
	PadInts      [14]int
	PadBytes     [5]int
	PadInts2     [3]int
	UsuallyOne   int
	PermStatuses int
	Keyring      [KeyringSize]string
	PadTail      [4]int
	EquipLabels  [NumEquipLabels * 2]string
}

// NewCharacter returns an empty character with containers sized for the book.
func NewCharacter(book Book) *Character {
	c := &Character{Book: book}
	c.alloc()
	return c
}

func (c *Character) alloc() {
	b := c.Book
	c.Skills = make([]int, b.SkillCount())
	c.Statuses = make([]StatusPair, NumStatuses)
	c.FX = make([]int, b.FXCount())
	c.Spells = make([]int, b.SpellCount())
	c.ReadySlots = make([]ReadySlot, NumReadySlots)
	for i := range c.ReadySlots {
		c.ReadySlots[i].Book = b
	}
	c.Inventory = newItems(b, b.InventoryRows()*b.InventoryCols(), false)
	c.Equipment = newItems(b, b.EquipSlots(), false)
	c.ReadyItems = newItems(b, b.ReadyItems(), false)
}

// DetectCharacterBook applies the two-byte rule: Book I files open with a
// zero int, so the second byte is zero.
func DetectCharacterBook(data []byte) (Book, error) {
	if len(data) < 2 {
		return 0, fmt.Errorf("detecting character book: %w", stream.ErrTruncated)
	}
	if data[1] == 0 {
		return Book1, nil
	}
	return Book2, nil
}

func (c *Character) schemaBook1() stream.Schema {
	return stream.Schema{
		stream.I32("initzero", &c.InitZero),
		stream.Str("name", &c.Name),
		stream.Str("unknownstr", &c.UnknownStr),
		stream.Str("origin", &c.Origin),
		stream.Str("axiom", &c.Axiom),
		stream.Str("classname", &c.ClassName),
		stream.I32("charone", &c.CharOne),
		stream.Ints("attributes", stream.KindI32, c.Attributes[:]),
		stream.Ints("skills", stream.KindI32, c.Skills),
		stream.I32("maxhp", &c.MaxHP),
		stream.I32("maxmana", &c.MaxMana),
		stream.I32("curhp", &c.CurHP),
		stream.I32("curmana", &c.CurMana),
		stream.I32("experience", &c.XP),
		stream.I32("level", &c.Level),
		stream.I32("gold", &c.Gold),
		stream.I32("extra_att_points", &c.ExtraAttr),
		stream.I32("extra_skill_points", &c.ExtraSkill),
		stream.Records("statuses", c.Statuses),
		stream.Ints("unknownblock", stream.KindI32, c.UnknownBlock[:]),
		stream.Records("extensions", c.Extensions[:]),
		stream.Strs("extstrings", c.ExtStrings[:]),
		stream.I32("torches", &c.Torches),
		stream.I32("torchused", &c.TorchUsed),
		stream.I32("zero1", &c.Zero1),
		stream.Ints("spells", stream.KindI32, c.Spells),
		stream.Records("readyslots", c.ReadySlots),
		stream.I32("orientation", &c.Orientation),
		stream.I32("xpos", &c.XPos),
		stream.I32("ypos", &c.YPos),
		stream.Ints("fx", stream.KindI32, c.FX),
		stream.I32("unknownint", &c.UnknownInt),
		stream.I32("picid", &c.PicID),
		stream.I32("disease", &c.Disease),
		stream.I16("unknownshort", &c.UnknownShort),
		stream.Str("emptystr", &c.EmptyStr),
		stream.Ints("unknownints", stream.KindI32, c.UnknownInts[:]),
		stream.Strs("unknownstrs", c.UnknownStrs[:]),
		stream.Ints("zeros", stream.KindI32, c.Zeros[:]),
		stream.Records("inventory", c.Inventory),
		stream.Records("equipment", c.Equipment),
		stream.Records("readyitems", c.ReadyItems),
		stream.Func("finalspells", c.readFinalSpells, c.writeFinalSpells),
	}
}

// readFinalSpells tolerates files that end before the out-of-band spell ints.
func (c *Character) readFinalSpells(s *stream.Stream) error {
	c.FinalSpells = [TrailingSpells]int{}
	c.FinalSpellsGone = false
	if s.EOF() {
		c.FinalSpellsGone = true
		logger.Info("character file omits final spell ints, padding with zeros",
			zap.String("path", c.Path))
		return nil
	}
	return stream.Schema{stream.Ints("finalspells", stream.KindI32, c.FinalSpells[:])}.Read(s)
}

func (c *Character) writeFinalSpells(s *stream.Stream) error {
	if c.FinalSpellsGone && c.FinalSpells == [TrailingSpells]int{} {
		return nil
	}
	return stream.Schema{stream.Ints("finalspells", stream.KindI32, c.FinalSpells[:])}.Write(s)
}

func (c *Character) schemaBook2() stream.Schema {
	return stream.Schema{
		stream.Str("name", &c.Name),
		stream.U8("gender", &c.Gender),
		stream.U8("origin", &c.OriginID),
		stream.U8("axiom", &c.AxiomID),
		stream.U8("classname", &c.ClassID),
		stream.U8("unknownc1", &c.UnknownC1),
		stream.Ints("attributes", stream.KindU8, c.Attributes[:]),
		stream.Ints("skills", stream.KindU8, c.Skills),
		stream.I32("maxhp", &c.MaxHP),
		stream.I32("curhp", &c.CurHP),
		stream.I32("maxmana", &c.MaxMana),
		stream.I32("curmana", &c.CurMana),
		stream.I32("experience", &c.XP),
		stream.I32("level", &c.Level),
		stream.I32("hunger", &c.Hunger),
		stream.I32("thirst", &c.Thirst),
		stream.U8("extra_att_points", &c.ExtraAttr),
		stream.U8("extra_skill_points", &c.ExtraSkill),
		stream.Ints("fx", stream.KindI32, c.FX),
		stream.Records("statuses", c.Statuses),
		stream.Records("portals", c.Portals[:]),
		stream.Ints("spells", stream.KindU8, c.Spells),
		stream.Str("readied_spell", &c.ReadiedSpell),
		stream.U8("readied_spell_lvl", &c.ReadiedLevel),
		stream.Records("readyslots", c.ReadySlots),
		stream.Ints("alchemy_book", stream.KindI32, c.Alchemy[:]),
		stream.Ints("padints", stream.KindI32, c.PadInts[:]),
		stream.U8("orientation", &c.Orientation),
		stream.I32("xpos", &c.XPos),
		stream.I32("ypos", &c.YPos),
		stream.Ints("padbytes", stream.KindU8, c.PadBytes[:]),
		stream.Ints("padints2", stream.KindI32, c.PadInts2[:]),
		stream.U8("usually_one", &c.UsuallyOne),
		stream.I32("permstatuses", &c.PermStatuses),
		stream.I32("picid", &c.PicID),
		stream.I32("gold", &c.Gold),
		stream.I32("torches", &c.Torches),
		stream.I32("torchused", &c.TorchUsed),
		stream.Strs("keyring", c.Keyring[:]),
		stream.Ints("padtail", stream.KindU8, c.PadTail[:]),
		stream.Records("inventory", c.Inventory),
		stream.Records("equipment", c.Equipment),
		stream.Records("readyitems", c.ReadyItems),
		stream.Strs("equip_labels", c.EquipLabels[:]),
	}
}

func (c *Character) schema() stream.Schema {
	if c.Skills == nil {
		c.alloc()
	}
	if c.Book == Book1 {
		return c.schemaBook1()
	}
	return c.schemaBook2()
}

// Read decodes the character. Bytes after the expected structure are kept
// and logged rather than rejected.
func (c *Character) Read(s *stream.Stream) error {
	c.alloc()
	if err := c.schema().Read(s); err != nil {
		return err
	}
	c.TrailingBytes = captureTrailing(s, c.Path, "character")
	return nil
}

// Write encodes the character.
func (c *Character) Write(s *stream.Stream) error {
	if err := c.schema().Write(s); err != nil {
		return err
	}
	return writeTrailing(s, c.TrailingBytes)
}

// LoadCharacter reads a character file. A zero book selects the book from
// the file contents; Book III must be requested explicitly.
func LoadCharacter(path string, book Book) (*Character, error) {
	s, err := stream.Open(path)
	if err != nil {
		return nil, loadError(path, err)
	}
	defer s.Close()

	detected, err := DetectCharacterBook(s.Peek(2))
	if err != nil {
		return nil, loadError(path, err)
	}
	if book == 0 {
		book = detected
	} else if (book == Book1) != (detected == Book1) {
		return nil, loadError(path, fmt.Errorf("%w: requested %s, file is %s", ErrBookMismatch, book, detected))
	}

	c := &Character{Book: book, Path: path}
	if err := c.Read(s); err != nil {
		return nil, loadError(path, err)
	}
	return c, nil
}

// Save writes the character to path.
func (c *Character) Save(path string) error {
	s := stream.Create(path)
	if err := c.Write(s); err != nil {
		s.Close()
		return loadError(path, err)
	}
	if err := s.Close(); err != nil {
		return loadError(path, err)
	}
	c.Path = path
	return nil
}

// Replicate returns a deep copy.
func (c *Character) Replicate() *Character {
	n := *c
	n.Skills = append([]int(nil), c.Skills...)
	n.Statuses = append([]StatusPair(nil), c.Statuses...)
	n.FX = append([]int(nil), c.FX...)
	n.Spells = append([]int(nil), c.Spells...)
	n.ReadySlots = append([]ReadySlot(nil), c.ReadySlots...)
	n.Inventory = append([]Item(nil), c.Inventory...)
	n.Equipment = append([]Item(nil), c.Equipment...)
	n.ReadyItems = append([]Item(nil), c.ReadyItems...)
	n.TrailingBytes = append([]byte(nil), c.TrailingBytes...)
	return &n
}

// Equals reports whether both characters produce identical bytes.
func (c *Character) Equals(o *Character) bool {
	return c.Book == o.Book && sameBytes(c, o)
}

// InventoryAt returns the inventory slot at (row, col), or nil.
func (c *Character) InventoryAt(row, col int) *Item {
	rows, cols := c.Book.InventoryRows(), c.Book.InventoryCols()
	if row < 0 || col < 0 || row >= rows || col >= cols {
		return nil
	}
	return &c.Inventory[row*cols+col]
}

// Equipped returns the item in slot, or nil when the book lacks the slot.
func (c *Character) Equipped(slot EquipSlot) *Item {
	if slot < 0 || int(slot) >= len(c.Equipment) {
		return nil
	}
	return &c.Equipment[slot]
}

// SetGold sets the carried gold.
func (c *Character) SetGold(n int) { c.Gold = n }

// SetMaxHP sets maximum hit points and raises or clamps current hit points
// to the new maximum.
func (c *Character) SetMaxHP(n int) {
	c.MaxHP = n
	c.CurHP = n
}

// SetCurHP sets current hit points without touching the maximum.
func (c *Character) SetCurHP(n int) { c.CurHP = n }

// SetMaxMana sets maximum mana and raises or clamps current mana to it.
func (c *Character) SetMaxMana(n int) {
	c.MaxMana = n
	c.CurMana = n
}

// SetCurMana sets current mana without touching the maximum.
func (c *Character) SetCurMana(n int) { c.CurMana = n }

// ClearDiseases removes diseases. Book I clears the disease bitfield;
// later books clear the low half of the permanent statuses, keeping feats.
func (c *Character) ClearDiseases() {
	if c.Book == Book1 {
		c.Disease = 0
		return
	}
	c.PermStatuses &^= diseaseMask
}

// HasDisease reports whether any disease bit is set.
func (c *Character) HasDisease() bool {
	if c.Book == Book1 {
		return c.Disease != 0
	}
	return c.PermStatuses&diseaseMask != 0
}

// ResetHunger sets hunger and thirst to fully sated. Book I has no hunger.
func (c *Character) ResetHunger() error {
	if c.Book == Book1 {
		return fmt.Errorf("%w: hunger and thirst exist from Book II", ErrNotApplicable)
	}
	c.Hunger = FullNourishment
	c.Thirst = FullNourishment
	return nil
}
