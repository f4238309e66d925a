package formats

import (
	"github.com/Faultbox/eschalon-utils/pkg/stream"
)

// Wall flag values.
const (
	WallNone       = 0
	WallBlocked    = 1
	WallSeeThrough = 5
)

// Tile is a single grid cell of a map.
type Tile struct {
	Book     Book
	Savegame bool
	X, Y     int

	Wall      int
	Floor     int
	Decal     int
	WallImg   int
	WallDecal int
	ObjType   int

	Unknown5    int // Book I
	TileFlag    int // Book II+, savegame only
	Cartography int // Book III, savegame only

	Entity   *Entity
	Contents []*Tilecontent
}

// NewTile returns an empty tile at (x, y).
func NewTile(book Book, savegame bool, x, y int) *Tile {
	return &Tile{Book: book, Savegame: savegame, X: x, Y: y}
}

func (t *Tile) schema() stream.Schema {
	if t.Book == Book1 {
		return stream.Schema{
			stream.U8("wall", &t.Wall),
			stream.U8("floorimg", &t.Floor),
			stream.U8("decalimg", &t.Decal),
			stream.U8("wallimg", &t.WallImg),
			stream.U8("walldecalimg", &t.WallDecal),
			stream.U8("unknown5", &t.Unknown5),
			stream.U8("objtype", &t.ObjType),
		}
	}
	sc := stream.Schema{
		stream.U8("wall", &t.Wall),
		stream.U8("floorimg", &t.Floor),
		stream.U8("decalimg", &t.Decal),
		stream.U16("wallimg", &t.WallImg),
		stream.U8("walldecalimg", &t.WallDecal),
		stream.U8("objtype", &t.ObjType),
	}
	if t.Savegame {
		sc = append(sc, stream.I32("tileflag", &t.TileFlag))
		if t.Book == Book3 {
			sc = append(sc, stream.I32("cartography", &t.Cartography))
		}
	}
	return sc
}

// Read decodes the tile body. Coordinates are implied by grid position.
func (t *Tile) Read(s *stream.Stream) error { return t.schema().Read(s) }

// Write encodes the tile body.
func (t *Tile) Write(s *stream.Stream) error { return t.schema().Write(s) }

// Replicate returns a deep copy including the tile's entity and map objects.
func (t *Tile) Replicate() *Tile {
	c := *t
	if t.Entity != nil {
		c.Entity = t.Entity.Replicate()
	}
	c.Contents = make([]*Tilecontent, len(t.Contents))
	for i, tc := range t.Contents {
		c.Contents[i] = tc.Replicate()
	}
	return &c
}

// Equals reports whether both tiles, their entities and their map objects
// produce identical bytes.
func (t *Tile) Equals(o *Tile) bool {
	if t.X != o.X || t.Y != o.Y || !sameBytes(t, o) {
		return false
	}
	if (t.Entity == nil) != (o.Entity == nil) {
		return false
	}
	if t.Entity != nil && !t.Entity.Equals(o.Entity) {
		return false
	}
	if len(t.Contents) != len(o.Contents) {
		return false
	}
	for i := range t.Contents {
		if !t.Contents[i].Equals(o.Contents[i]) {
			return false
		}
	}
	return true
}

// CopyFrom overwrites the image and flag fields with those of src. Owned
// objects and coordinates are untouched.
func (t *Tile) CopyFrom(src *Tile) {
	t.Wall = src.Wall
	t.Floor = src.Floor
	t.Decal = src.Decal
	t.WallImg = src.WallImg
	t.WallDecal = src.WallDecal
	t.ObjType = src.ObjType
	t.Unknown5 = src.Unknown5
	t.TileFlag = src.TileFlag
	t.Cartography = src.Cartography
}

// IsEmpty reports whether the tile has no images, flags or objects.
func (t *Tile) IsEmpty() bool {
	return t.Wall == 0 && t.Floor == 0 && t.Decal == 0 && t.WallImg == 0 &&
		t.WallDecal == 0 && t.ObjType == 0 && t.Entity == nil && len(t.Contents) == 0
}
