package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"github.com/Faultbox/eschalon-utils/internal/config"
	"github.com/Faultbox/eschalon-utils/pkg/pak"
)

var files = []pak.NamedFile{
	{Name: "gfx/Tiles/wall_001.png", Data: []byte("\x89PNG wall")},
	{Name: "gfx/tiles/floor_002.png", Data: bytes.Repeat([]byte("floor"), 300)},
	{Name: "sounds/door.ogg", Data: []byte("OggS")},
}

func gfxPak(t *testing.T) string {
	t.Helper()
	data, err := pak.BuildGfx(files)
	if err != nil {
		t.Fatalf("BuildGfx: %v", err)
	}
	path := filepath.Join(t.TempDir(), pak.GfxPakName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func zipPak(t *testing.T, password string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), pak.DatapakName)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := pak.BuildZip(f, password, files); err != nil {
		t.Fatalf("BuildZip: %v", err)
	}
	return path
}

func TestInfo(t *testing.T) {
	var out bytes.Buffer
	if err := run("info", []string{gfxPak(t)}, &out, &out); err != nil {
		t.Fatalf("info: %v", err)
	}
	got := out.String()
	for _, want := range []string{"Kind:    gfx.pak", "Files:   3", `"!PAK"`, ".png       2", ".ogg       1"} {
		if !strings.Contains(got, want) {
			t.Errorf("info missing %q:\n%s", want, got)
		}
	}
}

func TestListAndSearch(t *testing.T) {
	path := zipPak(t, "hunter2")

	var out, errOut bytes.Buffer
	if err := run("list", []string{"-p", "hunter2", path, "*.png"}, &out, &errOut); err != nil {
		t.Fatalf("list: %v", err)
	}
	want := "gfx/tiles/floor_002.png\ngfx/tiles/wall_001.png\n"
	if out.String() != want {
		t.Errorf("list = %q, want %q", out.String(), want)
	}

	out.Reset()
	if err := run("search", []string{"--password=hunter2", path, "DOOR"}, &out, &errOut); err != nil {
		t.Fatalf("search: %v", err)
	}
	if out.String() != "sounds/door.ogg\n" {
		t.Errorf("search = %q", out.String())
	}

	out.Reset()
	if err := run("ls", []string{"-n", "1", "-p", "hunter2", path}, &out, &errOut); err != nil {
		t.Fatal(err)
	}
	if strings.Count(out.String(), "\n") != 1 {
		t.Errorf("limit ignored: %q", out.String())
	}
}

func TestExtract(t *testing.T) {
	path := gfxPak(t)
	outDir := t.TempDir()

	var out, errOut bytes.Buffer
	if err := run("extract", []string{path, "GFX/Tiles/Floor_002.png", outDir}, &out, &errOut); err != nil {
		t.Fatalf("extract: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(outDir, "Floor_002.png"))
	if err != nil || !bytes.Equal(data, files[1].Data) {
		t.Errorf("extracted %d bytes, err %v", len(data), err)
	}

	patternDir := t.TempDir()
	if err := run("x", []string{path, "*.png", patternDir}, &out, &errOut); err != nil {
		t.Fatalf("extract pattern: %v", err)
	}
	if _, err := os.Stat(filepath.Join(patternDir, "gfx", "tiles", "wall_001.png")); err != nil {
		t.Errorf("pattern extract did not keep directories: %v", err)
	}
	if !strings.Contains(errOut.String(), "Extracted 2 files") {
		t.Errorf("unexpected summary: %q", errOut.String())
	}

	if err := run("extract", []string{path, "missing.png", outDir}, &out, &errOut); !errors.Is(err, pak.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGameDirectory(t *testing.T) {
	gamedir := t.TempDir()
	data := filepath.Join(gamedir, pak.DataDirName, "gfx")
	if err := os.MkdirAll(data, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(data, "portrait.png"), []byte("png"), 0644); err != nil {
		t.Fatal(err)
	}

	var out, errOut bytes.Buffer
	if err := run("list", []string{"--book", "3", gamedir}, &out, &errOut); err != nil {
		t.Fatalf("list: %v", err)
	}
	if out.String() != "gfx/portrait.png\n" {
		t.Errorf("list = %q", out.String())
	}
}

func TestInstalledDirectory(t *testing.T) {
	gamedir := t.TempDir()
	data := filepath.Join(gamedir, pak.DataDirName, "sounds")
	if err := os.MkdirAll(data, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(data, "door.ogg"), []byte("OggS"), 0644); err != nil {
		t.Fatal(err)
	}

	prefs := config.Default()
	prefs.Paths.GameDirB3 = gamedir
	prefsPath := filepath.Join(t.TempDir(), "prefs.yaml")
	if err := prefs.SaveTo(prefsPath); err != nil {
		t.Fatal(err)
	}
	if err := pflag.Set("config", prefsPath); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { pflag.Set("config", "") })

	var out, errOut bytes.Buffer
	if err := run("list", []string{"--book", "3", "--installed", "*.ogg"}, &out, &errOut); err != nil {
		t.Fatalf("list: %v", err)
	}
	if out.String() != "sounds/door.ogg\n" {
		t.Errorf("list = %q", out.String())
	}

	out.Reset()
	if err := run("info", []string{"-b", "3", "-i"}, &out, &errOut); err != nil {
		t.Fatalf("info: %v", err)
	}
	if !strings.Contains(out.String(), "Source:  "+gamedir) {
		t.Errorf("info did not use the configured directory:\n%s", out.String())
	}

	if err := run("list", []string{"--installed"}, &out, &errOut); !errors.Is(err, errUsage) {
		t.Errorf("--installed without --book: expected usage error, got %v", err)
	}
}

func TestUsageErrors(t *testing.T) {
	var out bytes.Buffer
	for _, tc := range []struct {
		cmd  string
		args []string
	}{
		{"info", nil},
		{"list", nil},
		{"extract", []string{"only-source"}},
		{"search", []string{"only-source"}},
	} {
		if err := run(tc.cmd, tc.args, &out, &out); !errors.Is(err, errUsage) {
			t.Errorf("%s %v: expected usage error, got %v", tc.cmd, tc.args, err)
		}
	}
	if err := run("frobnicate", nil, &out, &out); err == nil {
		t.Error("expected error for unknown command")
	}
	if err := run("info", []string{filepath.Join(t.TempDir(), "nothing")}, &out, &out); err == nil {
		t.Error("expected error for missing source")
	}
}
