package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/go-test/deep"
	"github.com/google/go-cmp/cmp"

	"github.com/Faultbox/eschalon-utils/pkg/formats"
)

func intp(n int) *int { return &n }

func TestParseSections(t *testing.T) {
	tests := []struct {
		in      []string
		want    []Section
		wantErr bool
	}{
		{nil, Sections, false},
		{[]string{"all"}, Sections, false},
		{[]string{"stats", "INV", "stats"}, []Section{SectionStats, SectionInv}, false},
		{[]string{"magic", "all"}, Sections, false},
		{[]string{"bogus"}, nil, true},
	}
	for _, tt := range tests {
		got, err := ParseSections(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSections(%v) error = %v", tt.in, err)
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("ParseSections(%v) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}

func TestEditsHP(t *testing.T) {
	c := formats.NewCharacter(formats.Book2)
	c.CurHP, c.MaxHP, c.Gold = 107, 112, 1654

	var out bytes.Buffer
	applied, err := Edits{HPMax: intp(200)}.Apply(&out, c)
	if err != nil || !applied {
		t.Fatalf("Apply: applied=%v err=%v", applied, err)
	}
	if c.MaxHP != 200 || c.CurHP != 200 {
		t.Errorf("hp = %d/%d, want 200/200", c.CurHP, c.MaxHP)
	}
	if c.Gold != 1654 {
		t.Errorf("gold changed to %d", c.Gold)
	}
	want := "Max HP: 112 -> 200\nCurrent HP: 107 -> 200\n"
	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}

	out.Reset()
	if _, err := (Edits{HPCur: intp(50), Gold: intp(9)}).Apply(&out, c); err != nil {
		t.Fatal(err)
	}
	if c.CurHP != 50 || c.MaxHP != 200 || c.Gold != 9 {
		t.Errorf("after --set-hp-cur: %d/%d gold %d", c.CurHP, c.MaxHP, c.Gold)
	}
}

func TestEditsDisease(t *testing.T) {
	b1 := formats.NewCharacter(formats.Book1)
	b1.Disease = 0x2000
	var out bytes.Buffer
	if _, err := (Edits{RmDisease: true}).Apply(&out, b1); err != nil {
		t.Fatal(err)
	}
	if b1.Disease != 0 {
		t.Errorf("book 1 disease = %#x", b1.Disease)
	}

	tests := []struct {
		before, after int
	}{
		{0x00000042, 0x00000000},
		{0x00100042, 0x00100000},
	}
	for _, tt := range tests {
		c := formats.NewCharacter(formats.Book2)
		c.PermStatuses = tt.before
		if _, err := (Edits{RmDisease: true}).Apply(&out, c); err != nil {
			t.Fatal(err)
		}
		if c.PermStatuses != tt.after {
			t.Errorf("permstatuses %#x -> %#x, want %#x", tt.before, c.PermStatuses, tt.after)
		}
	}
}

func TestEditsRejected(t *testing.T) {
	c := formats.NewCharacter(formats.Book1)
	c.Gold = 10
	before := c.Replicate()

	var out bytes.Buffer
	_, err := Edits{Gold: intp(500), ResetHunger: true}.Apply(&out, c)
	if !errors.Is(err, formats.ErrNotApplicable) {
		t.Fatalf("expected ErrNotApplicable, got %v", err)
	}
	if diff := deep.Equal(before, c); diff != nil {
		t.Errorf("rejected edits changed the character: %v", diff)
	}

	if _, err := (Edits{HPMax: intp(-1)}).Apply(&out, c); err == nil {
		t.Error("expected error for negative value")
	}
	if applied, err := (Edits{}).Apply(&out, c); applied || err != nil {
		t.Errorf("empty edits: applied=%v err=%v", applied, err)
	}
	if out.Len() != 0 {
		t.Errorf("rejected edits printed %q", out.String())
	}
}

func TestEditsResetHunger(t *testing.T) {
	c := formats.NewCharacter(formats.Book3)
	c.Hunger, c.Thirst = 12, 400
	var out bytes.Buffer
	if _, err := (Edits{ResetHunger: true}).Apply(&out, c); err != nil {
		t.Fatal(err)
	}
	if c.Hunger != formats.FullNourishment || c.Thirst != formats.FullNourishment {
		t.Errorf("hunger %d thirst %d", c.Hunger, c.Thirst)
	}
}

func TestCharacterListing(t *testing.T) {
	c := formats.NewCharacter(formats.Book2)
	c.Name = "Vessel"
	c.Gold = 1654
	c.Skills[0] = 3
	c.Spells[1] = 2
	c.PermStatuses = 0x00100042
	c.Inventory[12].Name = "Torch"
	c.Inventory[12].Quantity = 3
	c.Equipment[formats.EquipHelm].Name = "Iron Helm"

	var out bytes.Buffer
	p, err := NewPrinter(&out, c.Book)
	if err != nil {
		t.Fatal(err)
	}
	p.Character(c, Sections)
	got := out.String()

	for _, want := range []string{
		"Book II character: Vessel",
		"Gold:                1654",
		"Stats\n-----",
		"Magic\n-----",
		"[1,2] Torch x3",
		"Helm:            Iron Helm",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("listing missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Pad ints") {
		t.Error("pad fields shown without unknowns")
	}

	out.Reset()
	p.Unknowns = true
	p.Character(c, []Section{SectionStats})
	if got := out.String(); !strings.Contains(got, "Pad ints") || strings.Contains(got, "Inventory") {
		t.Errorf("unexpected stats-only listing:\n%s", got)
	}
}

func TestMapListing(t *testing.T) {
	m := formats.NewMap(formats.Book2, true)
	m.Name = "Thimble"
	tc := formats.NewTilecontent(m.Book, m.Savegame, 4, 5)
	tc.Description = "Chest"
	tc.Script = "open; frobnicate"
	if err := m.AddTilecontent(tc); err != nil {
		t.Fatal(err)
	}
	if err := m.AddEntity(formats.NewEntity(m.Book, m.Savegame, 1, 7, 8)); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	p, err := NewPrinter(&out, m.Book)
	if err != nil {
		t.Fatal(err)
	}
	p.Map(m)
	got := out.String()
	for _, want := range []string{
		"Book II map: Thimble",
		"Objects (1)",
		"(  4,  5) Chest",
		"unknown commands: frobnicate",
		"Entities (1)",
		"(  7,  8)",
		"health 0",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("listing missing %q:\n%s", want, got)
		}
	}
}

func TestSavenameListing(t *testing.T) {
	sn := formats.NewSavename(formats.Book3)
	sn.Name = "Before the tower"
	sn.TotalSecs = 3*3600 + 5*60
	sn.ModPath = "mods/none"

	var out bytes.Buffer
	p, err := NewPrinter(&out, sn.Book)
	if err != nil {
		t.Fatal(err)
	}
	p.Savename(sn)
	got := out.String()
	for _, want := range []string{"Book III save: Before the tower", "3h05m", "Version:             1.03", "mods/none"} {
		if !strings.Contains(got, want) {
			t.Errorf("listing missing %q:\n%s", want, got)
		}
	}
}
