package pak

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var testFiles = []NamedFile{
	{Name: "gfx/Tiles/wall_001.png", Data: []byte("\x89PNG wall")},
	{Name: "gfx/tiles/floor_002.png", Data: bytes.Repeat([]byte("floor"), 300)},
	{Name: "data/Sounds/door.ogg", Data: []byte{}},
}

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// installPath returns a real game install from the environment, if any.
func installPath(env string) string {
	p := os.Getenv(env)
	if p == "" {
		return ""
	}
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}

func checkSource(t *testing.T, src Source) {
	t.Helper()
	want := []string{"data/sounds/door.ogg", "gfx/tiles/floor_002.png", "gfx/tiles/wall_001.png"}
	if diff := cmp.Diff(want, src.List()); diff != "" {
		t.Errorf("%s: List() mismatch (-want +got):\n%s", src.Kind(), diff)
	}
	for _, f := range testFiles {
		for _, name := range []string{f.Name, strings.ToUpper(f.Name), strings.ReplaceAll(f.Name, "/", "\\")} {
			if !src.Contains(name) {
				t.Errorf("%s: Contains(%q) = false", src.Kind(), name)
			}
		}
		got, err := src.Read(f.Name)
		if err != nil {
			t.Errorf("%s: Read(%q): %v", src.Kind(), f.Name, err)
			continue
		}
		if !bytes.Equal(got, f.Data) {
			t.Errorf("%s: Read(%q) returned %d bytes, want %d", src.Kind(), f.Name, len(got), len(f.Data))
		}
	}
	if _, err := src.Read("missing.png"); !errors.Is(err, ErrNotFound) {
		t.Errorf("%s: expected ErrNotFound, got %v", src.Kind(), err)
	}
}

func TestGfxArchive(t *testing.T) {
	data, err := BuildGfx(testFiles)
	if err != nil {
		t.Fatalf("BuildGfx: %v", err)
	}
	if string(data[:4]) != "!PAK" {
		t.Fatalf("magic = %q", data[:4])
	}

	a, err := OpenGfx(writeTemp(t, GfxPakName, data))
	if err != nil {
		t.Fatalf("OpenGfx: %v", err)
	}
	defer a.Close()

	if a.Header().FileCount != uint32(len(testFiles)) {
		t.Errorf("FileCount = %d", a.Header().FileCount)
	}
	e, ok := a.Entry("gfx/tiles/floor_002.png")
	if !ok {
		t.Fatal("missing entry")
	}
	if e.Size != 1500 || e.CompressedSize >= e.Size {
		t.Errorf("entry sizes: %+v", e)
	}
	if int(e.Offset)+int(e.CompressedSize) > len(data) {
		t.Errorf("entry offset %d past end of file", e.Offset)
	}
	checkSource(t, a)
}

func TestGfxArchiveErrors(t *testing.T) {
	if _, err := OpenGfx(writeTemp(t, "bad.pak", []byte("PK\x03\x04 not a gfx pak at all"))); !errors.Is(err, ErrInvalidMagic) {
		t.Errorf("expected ErrInvalidMagic, got %v", err)
	}

	data, err := BuildGfx(testFiles)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := OpenGfx(writeTemp(t, "short.pak", data[:gfxHeaderSize+4])); !errors.Is(err, ErrCorrupt) {
		t.Errorf("expected ErrCorrupt for cut directory, got %v", err)
	}
	for _, tt := range []struct {
		name   string
		offset int
		value  uint32
	}{
		{"file count", 8, 0xFFFFFFFF},
		{"index size", 12, 0xFFFFFFF0},
		{"index past end", 12, uint32(len(data))},
	} {
		bad := append([]byte(nil), data...)
		binary.LittleEndian.PutUint32(bad[tt.offset:], tt.value)
		if _, err := OpenGfx(writeTemp(t, "bad.pak", bad)); !errors.Is(err, ErrCorrupt) {
			t.Errorf("%s: expected ErrCorrupt, got %v", tt.name, err)
		}
	}
	if _, err := OpenGfx(filepath.Join(t.TempDir(), "none.pak")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestPassword(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	iv := []byte("fedcba9876543210")

	for _, pw := range []string{"s3cret", "exactly16bytes!!", ""} {
		blob, err := SealPassword(key, iv, pw)
		if err != nil {
			t.Fatalf("SealPassword(%q): %v", pw, err)
		}
		if !bytes.Equal(blob[:16], iv) {
			t.Errorf("blob does not start with IV")
		}
		got, err := DecryptPassword(key, blob)
		if err != nil {
			t.Fatalf("DecryptPassword(%q): %v", pw, err)
		}
		if got != pw {
			t.Errorf("DecryptPassword = %q, want %q", got, pw)
		}
	}

	blob, _ := SealPassword(key, iv, "s3cret")
	wrong := bytes.Repeat([]byte{'k'}, 32)
	if _, err := DecryptPassword(wrong, blob); err == nil {
		// A wrong key yields a valid pad byte about 1 time in 256.
		t.Log("wrong key happened to produce valid padding")
	}
	if _, err := DecryptPassword(key, blob[:20]); !errors.Is(err, ErrBadPadding) {
		t.Errorf("expected ErrBadPadding for short blob, got %v", err)
	}
}

func TestKeyMaterial(t *testing.T) {
	if _, _, err := KeyMaterial(2); !errors.Is(err, ErrNoKey) {
		t.Errorf("expected ErrNoKey without build-time keys, got %v", err)
	}
	if _, err := OpenBookZip("datapak", 3); !errors.Is(err, ErrNoKey) {
		t.Errorf("expected ErrNoKey, got %v", err)
	}
}

func TestZipArchive(t *testing.T) {
	var buf bytes.Buffer
	if err := BuildZip(&buf, "hunter2", testFiles); err != nil {
		t.Fatalf("BuildZip: %v", err)
	}
	a, err := OpenZip(writeTemp(t, DatapakName, buf.Bytes()), "hunter2")
	if err != nil {
		t.Fatalf("OpenZip: %v", err)
	}
	defer a.Close()
	checkSource(t, a)

	if size, ok := a.Size("gfx/tiles/floor_002.png"); !ok || size != 1500 {
		t.Errorf("Size = %d, %v", size, ok)
	}

	bad, err := OpenZip(a.Path(), "wrong")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := bad.Read("gfx/tiles/wall_001.png"); err == nil {
		t.Error("expected error reading with the wrong password")
	}
}

func TestDirSource(t *testing.T) {
	root := t.TempDir()
	for _, f := range testFiles {
		path := filepath.Join(root, filepath.FromSlash(f.Name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, f.Data, 0644); err != nil {
			t.Fatal(err)
		}
	}
	d, err := OpenDir(root)
	if err != nil {
		t.Fatalf("OpenDir: %v", err)
	}
	checkSource(t, d)

	if _, err := OpenDir(filepath.Join(root, "gfx", "tiles", "wall_001.png")); err == nil {
		t.Error("expected error opening a file as a directory")
	}
}

func TestOpenGame(t *testing.T) {
	data, err := BuildGfx(testFiles)
	if err != nil {
		t.Fatal(err)
	}
	b1 := t.TempDir()
	if err := os.WriteFile(filepath.Join(b1, GfxPakName), data, 0644); err != nil {
		t.Fatal(err)
	}
	src, err := OpenGame(b1, 1)
	if err != nil {
		t.Fatalf("OpenGame(book 1): %v", err)
	}
	if src.Kind() != "gfx.pak" {
		t.Errorf("kind = %s", src.Kind())
	}

	b3 := t.TempDir()
	if _, err := OpenGame(b3, 3); !errors.Is(err, ErrNoSource) {
		t.Errorf("expected ErrNoSource for empty install, got %v", err)
	}
	if err := os.WriteFile(filepath.Join(b3, DatapakName), []byte("PK"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenGame(b3, 3); !errors.Is(err, ErrNoKey) {
		t.Errorf("expected ErrNoKey for datapak without keys, got %v", err)
	}
	if err := os.MkdirAll(filepath.Join(b3, DataDirName, "gfx"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(b3, DataDirName, "gfx", "icon.png"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	src, err = OpenGame(b3, 3)
	if err != nil {
		t.Fatalf("OpenGame(book 3) with data dir: %v", err)
	}
	if src.Kind() != "directory" || !src.Contains("GFX/ICON.PNG") {
		t.Errorf("expected directory source holding gfx/icon.png, got %s", src.Kind())
	}

	if _, err := OpenGame(b1, 9); err == nil {
		t.Error("expected error for unknown book")
	}
}

func TestOpenPath(t *testing.T) {
	data, _ := BuildGfx(testFiles)
	src, err := OpenPath(writeTemp(t, "gfx.pak", data), "")
	if err != nil || src.Kind() != "gfx.pak" {
		t.Errorf("OpenPath(gfx.pak) = %v, %v", src, err)
	}
	var buf bytes.Buffer
	if err := BuildZip(&buf, "", testFiles); err != nil {
		t.Fatal(err)
	}
	src, err = OpenPath(writeTemp(t, "plain.zip", buf.Bytes()), "")
	if err != nil || src.Kind() != "datapak" {
		t.Errorf("OpenPath(zip) = %v, %v", src, err)
	}
	if _, err := OpenPath(writeTemp(t, "junk", []byte("JUNKJUNK")), ""); !errors.Is(err, ErrInvalidMagic) {
		t.Errorf("expected ErrInvalidMagic, got %v", err)
	}
}

func TestRealInstall(t *testing.T) {
	dir := installPath("ESCHALON_B1_DIR")
	if dir == "" {
		t.Skip("No Book I install available for testing")
	}
	src, err := OpenGame(dir, 1)
	if err != nil {
		t.Fatalf("OpenGame: %v", err)
	}
	files := src.List()
	t.Logf("Total files: %d", len(files))
	if len(files) == 0 {
		t.Fatal("empty pak")
	}
	if _, err := src.Read(files[0]); err != nil {
		t.Errorf("Read(%s): %v", files[0], err)
	}
}
