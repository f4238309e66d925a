package formats

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/eschalon-utils/pkg/stream"
)

func sampleSavename(book Book) *Savename {
	sn := NewSavename(book)
	sn.Name = "Before the dragon"
	sn.SaveDate = "2010-05-01"
	sn.SaveTime = "21:14"
	sn.MapName = "Lake Crucible"
	sn.TotalSecs = 7200
	sn.TotalTurns = 15000
	sn.TotalDays = 3
	sn.Narrative[2] = 1
	sn.Quests[5] = 250
	sn.NPCs[1] = 1
	if book != Book1 {
		sn.Version = "1.05"
		sn.Coords = 4512
		sn.Weather = 2
		sn.WeatherIntensity = 40
	}
	if book == Book3 {
		sn.ModPath = "mods/main"
	}
	return sn
}

func TestSavenameRoundTrip(t *testing.T) {
	for _, book := range []Book{Book1, Book2, Book3} {
		t.Run(book.String(), func(t *testing.T) {
			data := mustEncode(t, sampleSavename(book))
			got := &Savename{Book: book}
			checkRoundTrip(t, data, got)
			if got.Name != "Before the dragon" || got.Quests[5] != 250 {
				t.Errorf("decoded %+v", got)
			}
		})
	}
}

func TestSavenameVersion(t *testing.T) {
	tests := []struct {
		version string
		ok      bool
	}{
		{"1.03", true},
		{"1.05", true},
		{"1.1", true},
		{"2.0", true},
		{"1.02", false},
		{"0.9", false},
		{"beta", false},
	}
	for _, tt := range tests {
		err := CheckSaveVersion(tt.version)
		if tt.ok && err != nil {
			t.Errorf("CheckSaveVersion(%q): %v", tt.version, err)
		}
		if !tt.ok && !errors.Is(err, ErrVersionTooOld) {
			t.Errorf("CheckSaveVersion(%q) = %v, want ErrVersionTooOld", tt.version, err)
		}
	}

	sn := sampleSavename(Book2)
	sn.Version = "1.02"
	data := mustEncode(t, sn)
	err := (&Savename{Book: Book2}).Read(stream.NewReader(data))
	if !errors.Is(err, ErrVersionTooOld) {
		t.Errorf("expected ErrVersionTooOld, got %v", err)
	}
}

func TestLoadSavenameDetect(t *testing.T) {
	dir := t.TempDir()
	for _, book := range []Book{Book1, Book2} {
		path := filepath.Join(dir, "savename"+book.String())
		if err := sampleSavename(book).Save(path); err != nil {
			t.Fatalf("Save: %v", err)
		}
		sn, err := LoadSavename(path, 0)
		if err != nil {
			t.Fatalf("LoadSavename: %v", err)
		}
		if sn.Book != book {
			t.Errorf("detected %s, want %s", sn.Book, book)
		}
	}
}

func TestSavenameReplicate(t *testing.T) {
	orig := sampleSavename(Book2)
	r := orig.Replicate()
	snapshot := orig.Replicate()
	orig.Quests[0] = 9
	orig.NPCs[0] = 1
	orig.Name = "other"
	if !r.Equals(snapshot) {
		t.Error("replica shares state with the original")
	}
}

func TestListSlots(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"slot10", "slot2", "slot1", "notes", "slotx"} {
		if err := os.Mkdir(filepath.Join(dir, name), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "slot3"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	slots, err := ListSlots(dir, Book2)
	if err != nil {
		t.Fatalf("ListSlots: %v", err)
	}
	var got []int
	for _, s := range slots {
		got = append(got, s.Number)
	}
	want := []int{1, 2, 10}
	if len(got) != len(want) {
		t.Fatalf("slots = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("slots = %v, want %v", got, want)
			break
		}
	}

	slot := slots[0]
	if err := sampleSavename(Book2).Save(slot.SavenamePath()); err != nil {
		t.Fatal(err)
	}
	if err := sampleCharacter(Book2).Save(slot.CharPath()); err != nil {
		t.Fatal(err)
	}
	if err := NewMap(Book2, true).Save(filepath.Join(slot.Dir, "b.map")); err != nil {
		t.Fatal(err)
	}
	if err := NewMerchant(Book2).Save(filepath.Join(slot.Dir, "shop.mer")); err != nil {
		t.Fatal(err)
	}

	if sn, err := slot.OpenSavename(); err != nil || sn.MapName != "Lake Crucible" {
		t.Errorf("OpenSavename: %v", err)
	}
	if c, err := slot.OpenCharacter(); err != nil || c.Gold != 1654 {
		t.Errorf("OpenCharacter: %v", err)
	}
	maps, err := slot.MapPaths()
	if err != nil || len(maps) != 1 {
		t.Fatalf("MapPaths = %v, %v", maps, err)
	}
	if _, err := slot.OpenMap(filepath.Base(maps[0])); err != nil {
		t.Errorf("OpenMap: %v", err)
	}
	mers, err := slot.MerchantPaths()
	if err != nil || len(mers) != 1 {
		t.Fatalf("MerchantPaths = %v, %v", mers, err)
	}
	if _, err := slot.OpenMerchant("shop.mer"); err != nil {
		t.Errorf("OpenMerchant: %v", err)
	}
}
