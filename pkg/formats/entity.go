package formats

import (
	"fmt"

	"github.com/Faultbox/eschalon-utils/pkg/stream"
)

// EntityStatuses is the number of status timers on a Book II+ savegame entity.
const EntityStatuses = 26

// Direction is an entity facing, 1 through 8.
type Direction int

// Facings.
const (
	FacingNorth Direction = iota + 1
	FacingNorthEast
	FacingEast
	FacingSouthEast
	FacingSouth
	FacingSouthWest
	FacingWest
	FacingNorthWest
)

// String returns the compass abbreviation.
func (d Direction) String() string {
	names := [...]string{"", "N", "NE", "E", "SE", "S", "SW", "W", "NW"}
	if d < FacingNorth || d > FacingNorthWest {
		return fmt.Sprintf("Unknown(%d)", int(d))
	}
	return names[d]
}

// Entity is a single NPC or monster placed on a tile.
type Entity struct {
	Book     Book
	Savegame bool

	ID        int
	X, Y      int
	Direction int
	Script    string

	// Savegame only.
	Friendly   int
	Movement   int // Book II+
	UnknownC1  int // Book I
	UnknownC2  int // Book I
	Health     int
	InitialLoc int
	Statuses   []int // Book II+
}

// NewEntity returns an entity at (x, y).
func NewEntity(book Book, savegame bool, id, x, y int) *Entity {
	e := &Entity{Book: book, Savegame: savegame, ID: id, X: x, Y: y, Direction: int(FacingSouth)}
	e.InitialLoc = e.packedLoc()
	if book != Book1 {
		e.Statuses = make([]int, EntityStatuses)
	}
	return e
}

func (e *Entity) packedLoc() int {
	return e.Y*MapCols + e.X
}

// InitialTile decodes the packed initial-tile coordinate.
func (e *Entity) InitialTile() (x, y int) {
	return e.InitialLoc % MapCols, e.InitialLoc / MapCols
}

func (e *Entity) schema() stream.Schema {
	sc := stream.Schema{
		stream.U8("entid", &e.ID),
		stream.U8("x", &e.X),
		stream.U8("y", &e.Y),
		stream.U8("direction", &e.Direction),
		stream.Str("script", &e.Script),
	}
	if !e.Savegame {
		return sc
	}
	if e.Book == Book1 {
		return append(sc,
			stream.U8("friendly", &e.Friendly),
			stream.U8("unknownc1", &e.UnknownC1),
			stream.U8("unknownc2", &e.UnknownC2),
			stream.I32("health", &e.Health),
			stream.I32("initial_loc", &e.InitialLoc),
		)
	}
	if len(e.Statuses) != EntityStatuses {
		e.Statuses = make([]int, EntityStatuses)
	}
	return append(sc,
		stream.U8("friendly", &e.Friendly),
		stream.U8("movement", &e.Movement),
		stream.I32("health", &e.Health),
		stream.I32("initial_loc", &e.InitialLoc),
		stream.Ints("statuses", stream.KindI32, e.Statuses),
	)
}

// Read decodes the entity.
func (e *Entity) Read(s *stream.Stream) error { return e.schema().Read(s) }

// Write encodes the entity.
func (e *Entity) Write(s *stream.Stream) error { return e.schema().Write(s) }

// Replicate returns a deep copy.
func (e *Entity) Replicate() *Entity {
	c := *e
	if e.Statuses != nil {
		c.Statuses = append([]int(nil), e.Statuses...)
	}
	return &c
}

// Equals reports whether both entities produce identical bytes.
func (e *Entity) Equals(o *Entity) bool {
	return e.Book == o.Book && e.Savegame == o.Savegame && sameBytes(e, o)
}
