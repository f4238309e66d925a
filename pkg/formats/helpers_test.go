package formats

import (
	"bytes"
	"testing"

	"github.com/Faultbox/eschalon-utils/pkg/stream"
)

// mustEncode writes c into memory and fails the test on error.
func mustEncode(t *testing.T, c stream.Codec) []byte {
	t.Helper()
	data, err := encode(c)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return data
}

// checkRoundTrip decodes data into fresh and verifies the re-encoded bytes
// match, with nothing left over.
func checkRoundTrip(t *testing.T, data []byte, fresh stream.Codec) {
	t.Helper()
	s := stream.NewReader(data)
	if err := fresh.Read(s); err != nil {
		t.Fatalf("read: %v", err)
	}
	if !s.EOF() {
		t.Fatalf("read left %d bytes", s.Remaining())
	}
	again := mustEncode(t, fresh)
	if !bytes.Equal(data, again) {
		t.Fatalf("round trip mismatch: %d bytes in, %d bytes out", len(data), len(again))
	}
}

func sampleItem(book Book, name string) Item {
	it := Item{Book: book, Category: 3, Subtype: 1, Name: name, Weight: 2.5,
		PictureID: 40, Value: 120, CanStack: 0, Quantity: 1, BaseDamage: 6,
		Script: "item_script", Visibility: 1}
	if book == Book1 {
		it.AttrModified = 2
		it.AttrModifier = 1
		it.ToHit = 3
		it.Duration = -1
	} else {
		it.Mods[0] = AttrMod{Attr: 2, Modifier: 1}
		it.Mods[2] = AttrMod{Attr: 5, Modifier: -2}
		it.CurHP = 30
		it.MaxHP = 40
	}
	return it
}
