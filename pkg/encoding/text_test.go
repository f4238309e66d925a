package encoding

import "testing"

func TestDisplay(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"café", "café"},
		{"caf\xe9", "café"},
		{"\x93quoted\x94", "“quoted”"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Display(tt.in); got != tt.want {
			t.Errorf("Display(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWindows1252RoundTrip(t *testing.T) {
	s := "Naïve – été"
	enc := UTF8ToWindows1252(s)
	if len(enc) != 11 {
		t.Errorf("expected 11 single-byte characters, got %d", len(enc))
	}
	if got := Windows1252ToUTF8(enc); got != s {
		t.Errorf("round trip = %q, want %q", got, s)
	}
}

func TestUTF8ToWindows1252Unmappable(t *testing.T) {
	s := "世"
	if got := UTF8ToWindows1252(s); string(got) != s {
		t.Errorf("unmappable text should come back unchanged, got %q", got)
	}
}

func TestNormalizePakPath(t *testing.T) {
	tests := map[string]string{
		`Data\GFX\Tiles.PNG`: "data/gfx/tiles.png",
		"./curses/sword.png": "curses/sword.png",
		"floor.png":          "floor.png",
	}
	for in, want := range tests {
		if got := NormalizePakPath(in); got != want {
			t.Errorf("NormalizePakPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFixedString(t *testing.T) {
	data := []byte{'w', 'a', 'l', 'l', '.', 'p', 'n', 'g', 0, 0, 'x'}
	if got := FixedString(data); got != "wall.png" {
		t.Errorf("FixedString = %q", got)
	}
	if got := string(TrimNullBytes([]byte("ab\x00\x00"))); got != "ab" {
		t.Errorf("TrimNullBytes = %q", got)
	}
}
