package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/Faultbox/eschalon-utils/internal/cli"
	"github.com/Faultbox/eschalon-utils/internal/config"
	"github.com/Faultbox/eschalon-utils/pkg/formats"
)

func intp(n int) *int { return &n }

func writeCharacter(t *testing.T, book formats.Book) string {
	t.Helper()
	c := formats.NewCharacter(book)
	c.Name = "Vessel"
	c.CurHP, c.MaxHP, c.Gold = 107, 112, 1654
	path := filepath.Join(t.TempDir(), "char")
	if err := c.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return path
}

func TestRunListCharacter(t *testing.T) {
	path := writeCharacter(t, formats.Book2)

	var out bytes.Buffer
	err := run(&options{book: 2, filename: path, list: true, sections: []string{"stats"}}, &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "Vessel") || !strings.Contains(got, "107 / 112") {
		t.Errorf("unexpected listing:\n%s", got)
	}
	if strings.Contains(got, "Inventory") {
		t.Error("inventory listed though only stats were selected")
	}
}

func TestRunEditCharacter(t *testing.T) {
	path := writeCharacter(t, formats.Book2)

	var out bytes.Buffer
	opts := &options{book: 2, filename: path, edits: cli.Edits{HPMax: intp(200), ResetHunger: true}}
	if err := run(opts, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "Max HP: 112 -> 200") {
		t.Errorf("missing change report:\n%s", out.String())
	}

	c, err := formats.LoadCharacter(path, formats.Book2)
	if err != nil {
		t.Fatal(err)
	}
	if c.MaxHP != 200 || c.CurHP != 200 || c.Gold != 1654 {
		t.Errorf("reloaded hp %d/%d gold %d", c.CurHP, c.MaxHP, c.Gold)
	}
	if c.Hunger != formats.FullNourishment {
		t.Errorf("hunger %d", c.Hunger)
	}
}

func TestRunErrors(t *testing.T) {
	charPath := writeCharacter(t, formats.Book1)
	before, err := os.ReadFile(charPath)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		opts *options
	}{
		{"no filename", &options{book: 1}},
		{"edit without filename", &options{book: 1, edits: cli.Edits{Gold: intp(1)}}},
		{"missing book", &options{filename: charPath}},
		{"bad section", &options{book: 1, filename: charPath, list: true, sections: []string{"spells"}}},
		{"hunger on book 1", &options{book: 1, filename: charPath, edits: cli.Edits{ResetHunger: true}}},
		{"book mismatch", &options{book: 2, filename: charPath}},
		{"edit a map", &options{book: 1, sub: subMap, filename: charPath, edits: cli.Edits{Gold: intp(1)}}},
		{"missing file", &options{book: 1, filename: filepath.Join(t.TempDir(), "nope")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			if err := run(tt.opts, &out); err == nil {
				t.Error("expected an error")
			}
		})
	}

	after, err := os.ReadFile(charPath)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Error("failed commands modified the file")
	}
}

func TestRunMapAndDump(t *testing.T) {
	m := formats.NewMap(formats.Book2, false)
	m.Name = "Outpost"
	path := filepath.Join(t.TempDir(), "outpost.map")
	if err := m.Save(path); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := run(&options{book: 2, sub: subMap, filename: path, dump: true}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "Book II map: Outpost") {
		t.Errorf("missing map header:\n%.400s", got)
	}
	if !strings.Contains(got, "(*formats.Map)") {
		t.Errorf("missing dump:\n%.400s", got)
	}
}

func TestRunSlots(t *testing.T) {
	dir := t.TempDir()
	for i, name := range map[int]string{1: "First", 10: "Tenth", 2: "Second"} {
		slot := filepath.Join(dir, "slot"+strconv.Itoa(i))
		if err := os.Mkdir(slot, 0755); err != nil {
			t.Fatal(err)
		}
		sn := formats.NewSavename(formats.Book2)
		sn.Name = name
		if err := sn.Save(filepath.Join(slot, "savename")); err != nil {
			t.Fatal(err)
		}
	}

	var out bytes.Buffer
	if err := run(&options{book: 2, slots: true, filename: dir}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	got := out.String()
	first, second, tenth := strings.Index(got, "First"), strings.Index(got, "Second"), strings.Index(got, "Tenth")
	if first < 0 || !(first < second && second < tenth) {
		t.Errorf("slots not in numeric order:\n%s", got)
	}
}

func TestRunSavePrefs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	cfg := config.Default()
	if err := cfg.SaveTo(path); err != nil {
		t.Fatal(err)
	}
	cfg.Paths.SavegamesB2 = "/discovered/saves"

	var out bytes.Buffer
	opts := &options{cfg: cfg, prefs: []string{"undo.capacity=20", "paths.gamedir_b2=/games/b2"}}
	if err := run(opts, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "Preferences saved to "+path) {
		t.Errorf("unexpected output: %q", out.String())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"capacity: 20", "gamedir_b2: /games/b2", "savegames_b2: /discovered/saves"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("saved preferences missing %q:\n%s", want, data)
		}
	}

	for _, bad := range []string{"undo.capacity", "undo.capacity=-1", "nope.key=1"} {
		if err := run(&options{cfg: cfg, prefs: []string{bad}}, &out); err == nil {
			t.Errorf("--set-pref %q: expected an error", bad)
		}
	}
	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(after, data) {
		t.Error("rejected preferences were written")
	}
}
