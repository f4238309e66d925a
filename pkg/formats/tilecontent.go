package formats

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/Faultbox/eschalon-utils/pkg/stream"
)

// ContentItems is the number of item slots in every map object.
const ContentItems = 8

// LockSlider is the lock value that marks a slider-combination lock.
const LockSlider = 99

// ContentState is the open/closed state of a map object.
type ContentState int

// Map object states.
const (
	StateNone ContentState = iota
	StateClosed
	StateOpen
	StateBroken
	StateToggle1
	StateToggle2
)

// String returns the state name.
func (s ContentState) String() string {
	switch s {
	case StateNone:
		return "None"
	case StateClosed:
		return "Closed"
	case StateOpen:
		return "Open"
	case StateBroken:
		return "Broken"
	case StateToggle1:
		return "Toggle 1"
	case StateToggle2:
		return "Toggle 2"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// Tilecontent is a scripted object attached to a tile: a container, door,
// sconce, trap, map link, sign and so on.
type Tilecontent struct {
	Book     Book
	Savegame bool
	X, Y     int

	// Description doubles as the destination map name for map links.
	Description string
	// ExtraText doubles as the destination coordinates for map links.
	ExtraText string
	Lock      int
	Trap      int
	State     int
	Script    string
	Items     []Item

	// Book I
	Flags      int
	Sturdiness int
	Zero1      int
	Zero2      int
	// Other holds the slider combination when Lock is LockSlider.
	Other int

	// Book II/III
	CurCondition int
	MaxCondition int
	OnEmpty      int
	B2Zero1      int
	// SliderLoot is the loot level, or the slider combination when Lock is
	// LockSlider.
	SliderLoot int
}

// NewTilecontent returns an empty map object at (x, y).
func NewTilecontent(book Book, savegame bool, x, y int) *Tilecontent {
	return &Tilecontent{
		Book:     book,
		Savegame: savegame,
		X:        x,
		Y:        y,
		Items:    newItems(book, ContentItems, !savegame),
	}
}

// Coords returns the packed on-disk coordinate.
func (tc *Tilecontent) Coords() int {
	return tc.Y*MapCols + tc.X
}

func (tc *Tilecontent) coordsField() stream.Field {
	return stream.Func("coords",
		func(s *stream.Stream) error {
			v, err := s.ReadI32()
			if err != nil {
				return err
			}
			tc.X, tc.Y = v%MapCols, v/MapCols
			return nil
		},
		func(s *stream.Stream) error { return s.WriteI32(tc.Coords()) },
	)
}

func (tc *Tilecontent) schema() stream.Schema {
	if len(tc.Items) != ContentItems {
		tc.Items = newItems(tc.Book, ContentItems, !tc.Savegame)
	}
	var sc stream.Schema
	if tc.Book == Book1 {
		sc = stream.Schema{
			tc.coordsField(),
			stream.Str("description", &tc.Description),
			stream.Str("extratext", &tc.ExtraText),
			stream.I32("flags", &tc.Flags),
			stream.I32("sturdiness", &tc.Sturdiness),
			stream.I32("lock", &tc.Lock),
			stream.I32("trap", &tc.Trap),
			stream.I32("other", &tc.Other),
			stream.I32("state", &tc.State),
			stream.I32("zero1", &tc.Zero1),
			stream.I32("zero2", &tc.Zero2),
			stream.Str("script", &tc.Script),
		}
	} else {
		sc = stream.Schema{
			tc.coordsField(),
			stream.Str("description", &tc.Description),
			stream.Str("extratext", &tc.ExtraText),
			stream.U8("lock", &tc.Lock),
			stream.U8("trap", &tc.Trap),
			stream.U8("state", &tc.State),
			stream.I32("curcondition", &tc.CurCondition),
			stream.I32("maxcondition", &tc.MaxCondition),
			stream.U8("onempty", &tc.OnEmpty),
			stream.U16("sliderloot", &tc.SliderLoot),
			stream.I32("zero1", &tc.B2Zero1),
			stream.Str("script", &tc.Script),
		}
	}
	return append(sc, stream.Records("items", tc.Items))
}

// Read decodes the map object including its item slots.
func (tc *Tilecontent) Read(s *stream.Stream) error { return tc.schema().Read(s) }

// Write encodes the map object.
func (tc *Tilecontent) Write(s *stream.Stream) error { return tc.schema().Write(s) }

// Replicate returns a deep copy.
func (tc *Tilecontent) Replicate() *Tilecontent {
	c := *tc
	c.Items = make([]Item, len(tc.Items))
	copy(c.Items, tc.Items)
	return &c
}

// Equals reports whether both objects produce identical bytes.
func (tc *Tilecontent) Equals(o *Tilecontent) bool {
	return tc.Book == o.Book && tc.Savegame == o.Savegame && sameBytes(tc, o)
}

// SetSavegame switches the storage mode of the object and its items.
func (tc *Tilecontent) SetSavegame(savegame bool) {
	tc.Savegame = savegame
	for i := range tc.Items {
		tc.Items[i].NameOnly = !savegame
	}
}

// SliderCombination returns the slider combination for slider locks.
func (tc *Tilecontent) SliderCombination() (int, bool) {
	if tc.Lock != LockSlider {
		return 0, false
	}
	if tc.Book == Book1 {
		return tc.Other, true
	}
	return tc.SliderLoot, true
}

var mapLinkCoords = regexp.MustCompile(`(\d+)\D+(\d+)`)

// MapLink interprets the object as a link to another map, returning the
// destination map name and coordinates.
func (tc *Tilecontent) MapLink() (mapName string, x, y int, ok bool) {
	m := mapLinkCoords.FindStringSubmatch(tc.ExtraText)
	if m == nil || tc.Description == "" {
		return "", 0, 0, false
	}
	x, _ = strconv.Atoi(m[1])
	y, _ = strconv.Atoi(m[2])
	return tc.Description, x, y, true
}
