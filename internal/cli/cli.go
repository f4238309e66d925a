// Package cli renders characters, maps, save names and merchants as text
// and applies the command-line character edits.
package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/Faultbox/eschalon-utils/internal/constants"
	"github.com/Faultbox/eschalon-utils/pkg/encoding"
	"github.com/Faultbox/eschalon-utils/pkg/formats"
)

// Section is one part of a character listing.
type Section string

// Listing sections. The header is always printed.
const (
	SectionAll    Section = "all"
	SectionStats  Section = "stats"
	SectionAvatar Section = "avatar"
	SectionMagic  Section = "magic"
	SectionEquip  Section = "equip"
	SectionInv    Section = "inv"
)

// Sections lists the selectable sections in print order.
var Sections = []Section{SectionStats, SectionAvatar, SectionMagic, SectionEquip, SectionInv}

// ParseSections validates section names. No names, or "all", selects
// every section.
func ParseSections(names []string) ([]Section, error) {
	if len(names) == 0 {
		return Sections, nil
	}
	var out []Section
	for _, n := range names {
		s := Section(strings.ToLower(strings.TrimSpace(n)))
		if s == SectionAll {
			return Sections, nil
		}
		if !slices.Contains(Sections, s) {
			return nil, fmt.Errorf("unknown section %q (want one of all, stats, avatar, magic, equip, inv)", n)
		}
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out, nil
}

// Printer writes listings to w.
type Printer struct {
	w        io.Writer
	cat      *constants.Catalog
	Unknowns bool
}

// NewPrinter returns a printer using the lookup tables of book.
func NewPrinter(w io.Writer, book formats.Book) (*Printer, error) {
	cat, err := constants.Get(int(book))
	if err != nil {
		return nil, err
	}
	return &Printer{w: w, cat: cat}, nil
}

func (p *Printer) printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}

func (p *Printer) heading(title string) {
	p.printf("\n%s\n%s\n", title, strings.Repeat("-", len(title)))
}

func (p *Printer) field(label string, value any) {
	p.printf("%-20s %v\n", label+":", value)
}

func (p *Printer) unknown(label string, value any) {
	if p.Unknowns {
		p.field(label, value)
	}
}

func text(s string) string {
	return encoding.Display(s)
}

// Character prints the header and the selected sections of c.
func (p *Printer) Character(c *formats.Character, sections []Section) {
	p.printf("%s character: %s\n", c.Book, text(c.Name))
	if c.Book == formats.Book1 {
		p.field("Origin", text(c.Origin))
		p.field("Axiom", text(c.Axiom))
		p.field("Class", text(c.ClassName))
		p.unknown("Init zero", c.InitZero)
		p.unknown("Unknown string", text(c.UnknownStr))
	} else {
		p.field("Gender", p.cat.Gender(c.Gender))
		p.field("Origin", p.cat.Origin(c.OriginID))
		p.field("Axiom", p.cat.Axiom(c.AxiomID))
		p.field("Class", p.cat.Class(c.ClassID))
		p.unknown("Unknown c1", c.UnknownC1)
	}
	p.field("Level", c.Level)
	p.field("Experience", c.XP)
	p.field("Gold", c.Gold)

	for _, s := range sections {
		switch s {
		case SectionStats:
			p.stats(c)
		case SectionAvatar:
			p.avatar(c)
		case SectionMagic:
			p.magic(c)
		case SectionEquip:
			p.equip(c)
		case SectionInv:
			p.inventory(c)
		}
	}
	if p.Unknowns && len(c.TrailingBytes) > 0 {
		p.field("Trailing bytes", len(c.TrailingBytes))
	}
}

func (p *Printer) stats(c *formats.Character) {
	p.heading("Stats")
	p.field("HP", fmt.Sprintf("%d / %d", c.CurHP, c.MaxHP))
	p.field("Mana", fmt.Sprintf("%d / %d", c.CurMana, c.MaxMana))
	for i, v := range c.Attributes {
		p.field(p.cat.Attribute(i), v)
	}
	p.field("Unspent attributes", c.ExtraAttr)
	p.field("Unspent skills", c.ExtraSkill)

	p.printf("\nSkills:\n")
	for i, v := range c.Skills {
		if v != 0 || p.Unknowns {
			p.printf("  %-24s %d\n", p.cat.Skill(i), v)
		}
	}

	p.printf("\nStatus effects:\n")
	for i, st := range c.Statuses {
		if st.Duration != 0 || (p.Unknowns && st.Extra != 0) {
			p.printf("  %-24s %d (%d)\n", p.cat.Status(i), st.Duration, st.Extra)
		}
	}

	if c.Book == formats.Book1 {
		p.field("Diseases", joinOr(p.cat.DiseaseNames(c.Disease), "none"))
		p.unknown("Unknown short", c.UnknownShort)
		p.unknown("Unknown int", c.UnknownInt)
		p.unknown("Unknown block", c.UnknownBlock)
		p.unknown("Unknown ints", c.UnknownInts)
		return
	}
	p.field("Diseases", joinOr(p.cat.DiseaseNames(c.PermStatuses&0xFFFF), "none"))
	p.field("Feats", joinOr(p.cat.FeatNames(c.PermStatuses), "none"))
	p.field("Hunger", c.Hunger)
	p.field("Thirst", c.Thirst)
	p.unknown("Pad ints", c.PadInts)
	p.unknown("Pad bytes", c.PadBytes)
	p.unknown("Pad ints 2", c.PadInts2)
	p.unknown("Usually one", c.UsuallyOne)
	p.unknown("Pad tail", c.PadTail)
}

func (p *Printer) avatar(c *formats.Character) {
	p.heading("Avatar")
	p.field("Picture", c.PicID)
	p.field("Position", fmt.Sprintf("(%d, %d)", c.XPos, c.YPos))
	p.field("Orientation", c.Orientation)
	p.field("Torches", c.Torches)
	p.field("Torch used", c.TorchUsed)
	if c.Book != formats.Book1 {
		for i, portal := range c.Portals {
			if portal.MapName != "" {
				p.field(fmt.Sprintf("Portal %d", i+1), fmt.Sprintf("%s %s", text(portal.MapName), portal.Coords))
			}
		}
		var keys []string
		for _, k := range c.Keyring {
			if k != "" {
				keys = append(keys, text(k))
			}
		}
		p.field("Keyring", joinOr(keys, "empty"))
	}
	p.unknown("FX", c.FX)
}

func (p *Printer) magic(c *formats.Character) {
	p.heading("Magic")
	for i, lvl := range c.Spells {
		if lvl != 0 {
			p.printf("  %-24s level %d\n", p.cat.Spell(i), lvl)
		}
	}
	p.printf("\nReadied spells:\n")
	for i, r := range c.ReadySlots {
		if r.Spell != "" {
			p.printf("  %2d. %s (level %d)\n", i+1, text(r.Spell), r.Level)
		}
	}
	if c.Book == formats.Book1 {
		if c.FinalSpellsGone {
			p.unknown("Final spells", "absent")
		} else {
			p.unknown("Final spells", c.FinalSpells)
		}
		return
	}
	if c.ReadiedSpell != "" {
		p.field("Readied", fmt.Sprintf("%s (level %d)", text(c.ReadiedSpell), c.ReadiedLevel))
	}
	p.unknown("Alchemy", c.Alchemy)
}

func (p *Printer) equip(c *formats.Character) {
	p.heading("Equipment")
	for i := range c.Equipment {
		p.printf("  %-16s %s\n", formats.EquipSlot(i).String()+":", p.item(&c.Equipment[i]))
	}
	p.printf("\nReady items:\n")
	for i := range c.ReadyItems {
		if !c.ReadyItems[i].IsEmpty() {
			p.printf("  %2d. %s\n", i+1, p.item(&c.ReadyItems[i]))
		}
	}
}

func (p *Printer) inventory(c *formats.Character) {
	p.heading("Inventory")
	cols := c.Book.InventoryCols()
	for i := range c.Inventory {
		it := &c.Inventory[i]
		if it.IsEmpty() {
			continue
		}
		p.printf("  [%d,%d] %s\n", i/cols, i%cols, p.item(it))
	}
}

func (p *Printer) item(it *formats.Item) string {
	if it.IsEmpty() {
		return "(empty)"
	}
	s := text(it.String())
	if !p.Unknowns {
		return s
	}
	return fmt.Sprintf("%s [%s, value %d, weight %.2f]", s, p.cat.ItemType(it.Category), it.Value, it.Weight)
}

// Map prints the header and object summary of m.
func (p *Printer) Map(m *formats.Map) {
	p.printf("%s map: %s\n", m.Book, text(m.Name))
	if m.Book == formats.Book1 {
		p.field("Map ID", text(m.MapID))
		for i, dir := range []string{"North", "East", "South", "West"} {
			if m.Exits[i] != "" {
				p.field("Exit "+dir, text(m.Exits[i]))
			}
		}
	} else {
		p.field("Opening script", text(m.OpeningScript))
		p.field("Clouds", text(m.CloudFile))
	}
	p.field("Savegame", m.Savegame)
	p.field("Skybox", text(m.Skybox))
	p.field("Color", fmt.Sprintf("%d %d %d %d", m.Color[0], m.Color[1], m.Color[2], m.Color[3]))
	p.unknown("Savegame flags", m.SavegameFlags)
	if len(m.TrailingBytes) > 0 || len(m.EntTrailingBytes) > 0 {
		p.unknown("Trailing bytes", fmt.Sprintf("%d map, %d entity", len(m.TrailingBytes), len(m.EntTrailingBytes)))
	}

	p.heading(fmt.Sprintf("Objects (%d)", len(m.Contents)))
	for _, tc := range m.Contents {
		desc := text(tc.Description)
		if desc == "" {
			desc = "(no description)"
		}
		p.printf("  (%3d,%3d) %-24s %s\n", tc.X, tc.Y, desc, formats.ContentState(tc.State))
		if dest, x, y, ok := tc.MapLink(); ok && p.Unknowns {
			p.printf("            link to %s (%d, %d)\n", text(dest), x, y)
		}
		if tc.Script != "" {
			p.printf("            script: %s\n", text(tc.Script))
			if unknown := p.cat.UnknownCommands(tc.Script); len(unknown) > 0 {
				p.printf("            unknown commands: %s\n", strings.Join(unknown, ", "))
			}
		}
	}

	p.heading(fmt.Sprintf("Entities (%d)", len(m.Entities)))
	for _, e := range m.Entities {
		p.printf("  (%3d,%3d) %-24s facing %s", e.X, e.Y, p.cat.EntityName(e.ID), formats.Direction(e.Direction))
		if m.Savegame {
			p.printf(", health %d", e.Health)
		}
		p.printf("\n")
	}
}

// Savename prints a save slot's metadata.
func (p *Printer) Savename(sn *formats.Savename) {
	p.printf("%s save: %s\n", sn.Book, text(sn.Name))
	if sn.Version != "" {
		p.field("Version", sn.Version)
	}
	p.field("Saved", fmt.Sprintf("%s %s", sn.SaveDate, sn.SaveTime))
	p.field("Map", text(sn.MapName))
	p.field("Play time", fmt.Sprintf("%dh%02dm", sn.TotalSecs/3600, sn.TotalSecs%3600/60))
	p.field("Turns", sn.TotalTurns)
	p.field("Days", sn.TotalDays)
	if sn.Book == formats.Book3 {
		p.field("Mod path", text(sn.ModPath))
	}
	p.unknown("Options", sn.Options)
	p.unknown("Narrative", sn.Narrative)
	p.unknown("Quests", sn.Quests)
	p.unknown("NPCs", sn.NPCs)
}

// Merchant prints a shop's stock.
func (p *Printer) Merchant(m *formats.Merchant) {
	p.printf("%s merchant: %d items\n", m.Book, len(m.Items))
	p.field("Restock day", m.Day)
	p.field("Gold", m.Gold)
	for i := range m.Items {
		p.printf("  %3d. %s\n", i+1, p.item(&m.Items[i]))
	}
}

func joinOr(s []string, empty string) string {
	if len(s) == 0 {
		return empty
	}
	return strings.Join(s, ", ")
}
