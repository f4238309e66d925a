package smartdraw

import (
	"testing"

	"github.com/Faultbox/eschalon-utils/pkg/formats"
)

type touchLog struct{ tiles []*formats.Tile }

func (l *touchLog) Touch(t *formats.Tile) { l.tiles = append(l.tiles, t) }

func newEngine(t *testing.T, book formats.Book) (*Engine, *formats.Map) {
	t.Helper()
	m := formats.NewMap(book, false)
	e, err := New(m, DefaultOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	e.Seed(1)
	return e, m
}

func TestRegistriesLoad(t *testing.T) {
	for _, book := range []formats.Book{formats.Book1, formats.Book2, formats.Book3} {
		r, err := ForBook(book)
		if err != nil {
			t.Fatalf("ForBook(%s): %v", book, err)
		}
		if len(r.WallIndexes()) != 10 || len(r.DecalIndexes()) != 18 {
			t.Errorf("%s: index sizes %d, %d", book, len(r.WallIndexes()), len(r.DecalIndexes()))
		}
		if len(r.Walls) == 0 || len(r.Kinds) != 4 || len(r.Premade) == 0 {
			t.Errorf("%s: incomplete registry", book)
		}
		limit := 1 << 16
		if book == formats.Book1 {
			limit = 1 << 8
		}
		for _, g := range r.Walls {
			if g.Start+10 > limit || g.Special >= limit {
				t.Errorf("%s: wall group %+v does not fit the wallimg field", book, g)
			}
		}
	}
	if _, err := ForBook(formats.Book(5)); err == nil {
		t.Error("expected error for unknown book")
	}
}

func TestParseRegistryErrors(t *testing.T) {
	tests := map[string]string{
		"bad mask":  `wall_index = ["NE QQ"]`,
		"bad layer": "[[complex]]\nname = \"x\"\nlayer = \"roof\"\nstart = 1\nsteps = [{ dir = \"NE\", image = 2 }]",
		"no steps":  "[[complex]]\nname = \"x\"\nlayer = \"wall\"\nstart = 1",
		"bad dir":   "[[complex]]\nname = \"x\"\nlayer = \"wall\"\nstart = 1\nsteps = [{ dir = \"UP\", image = 2 }]",
		"beach N":   "[[beach]]\nid = 3\nland = \"N\"",
		"not toml":  "wall_index = [",
	}
	for name, data := range tests {
		if _, err := ParseRegistry([]byte(data)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestMask(t *testing.T) {
	m, err := ParseMask("ne|SW")
	if err != nil {
		t.Fatal(err)
	}
	if m != ConnNE|ConnSW || m.String() != "NE|SW" {
		t.Errorf("ParseMask = %v", m)
	}
	if Mask(0).String() != "none" {
		t.Errorf("zero mask = %s", Mask(0))
	}
	ix := Index{ConnNE | ConnSW, ConnNW | ConnSE, ConnNE | ConnSE}
	if off, ok := ix.Lookup(ConnSE); !ok || off != 1 {
		t.Errorf("Lookup(SE) = %d, %v; want first superset", off, ok)
	}
	if off, ok := ix.Lookup(ConnNE | ConnSE); !ok || off != 2 {
		t.Errorf("Lookup(NE|SE) = %d, %v; want exact match", off, ok)
	}
	if _, ok := ix.Exact(ConnSE); ok {
		t.Error("Exact(SE) should fail")
	}
	if _, ok := ix.Mask(7); ok {
		t.Error("Mask(7) should fail")
	}
}

func wallOffset(t *testing.T, e *Engine, m Mask) int {
	t.Helper()
	off, ok := e.Reg.WallIndexes().Lookup(m)
	if !ok {
		t.Fatalf("no wall offset for %s", m)
	}
	return off
}

func TestSmartWallPropagation(t *testing.T) {
	e, m := newEngine(t, formats.Book2)
	const group = 256

	e.Paint(m.Tile(5, 5), LayerWall, group)
	if got, want := m.Tile(5, 5).WallImg, group+wallOffset(t, e, ConnNE|ConnSW); got != want {
		t.Fatalf("(5,5) = %d, want %d", got, want)
	}
	if m.Tile(5, 5).Wall != formats.WallBlocked {
		t.Error("painting a wall should set the wall flag")
	}

	e.Paint(m.Tile(5, 7), LayerWall, group)
	straight := group + wallOffset(t, e, ConnNE|ConnSW)
	if m.Tile(5, 5).WallImg != straight || m.Tile(5, 7).WallImg != straight {
		t.Errorf("after (5,7): (5,5)=%d (5,7)=%d, want %d", m.Tile(5, 5).WallImg, m.Tile(5, 7).WallImg, straight)
	}
	if !m.Tile(6, 6).IsEmpty() {
		t.Error("(6,6) should be untouched")
	}

	altered := e.Paint(m.Tile(6, 6), LayerWall, group)
	tests := []struct {
		x, y int
		conn Mask
	}{
		{5, 5, ConnSE},
		{6, 6, ConnSW | ConnNW},
		{5, 7, ConnNE},
	}
	for _, tt := range tests {
		got := m.Tile(tt.x, tt.y).WallImg
		off := wallOffset(t, e, tt.conn)
		if got != group+off {
			t.Errorf("(%d,%d) = %d, want %d (%s)", tt.x, tt.y, got, group+off, tt.conn)
		}
		if mask := e.Reg.WallIndexes()[got-group]; mask&tt.conn != tt.conn {
			t.Errorf("(%d,%d) piece %s does not show %s", tt.x, tt.y, mask, tt.conn)
		}
	}
	if len(altered) != 2 || altered[0] != m.Tile(6, 6) || altered[1] != m.Tile(5, 5) {
		t.Errorf("altered = %v", coords(altered))
	}

	// Drawing again is a no-op.
	if again := e.DrawWall(m.Tile(6, 6)); len(again) != 0 {
		t.Errorf("redraw altered %v", coords(again))
	}
}

func TestWallSpecialAndErase(t *testing.T) {
	e, m := newEngine(t, formats.Book2)
	center := m.Tile(10, 10)
	for _, d := range formats.Diagonals {
		n := m.Neighbor(center, d)
		e.Paint(n, LayerWall, 266)
	}
	e.Paint(center, LayerWall, 266)
	if center.WallImg != 301 {
		t.Errorf("four-way piece = %d, want special 301", center.WallImg)
	}

	ne := m.Neighbor(center, formats.DirNE)
	altered := e.Erase(center, LayerWall)
	if center.WallImg != 0 || center.Wall != formats.WallNone {
		t.Errorf("erase left %d/%d", center.WallImg, center.Wall)
	}
	if ne.WallImg != 266+wallOffset(t, e, 0) {
		t.Errorf("isolated neighbour = %d", ne.WallImg)
	}
	// NE and SW already showed the NE|SW piece; SE and NW flip back to it.
	if len(altered) != 3 {
		t.Errorf("erase altered %d tiles, want 3", len(altered))
	}
}

func TestUnknownWallIsNoop(t *testing.T) {
	e, m := newEngine(t, formats.Book2)
	tile := m.Tile(3, 3)
	tile.WallImg = 999
	if got := e.DrawWall(tile); got != nil || tile.WallImg != 999 {
		t.Errorf("DrawWall on unknown image changed things: %v", coords(got))
	}
}

func TestFences(t *testing.T) {
	e, m := newEngine(t, formats.Book2)
	a := m.Tile(20, 20)
	e.Paint(a, LayerWall, 320)
	for _, d := range formats.Diagonals {
		e.Paint(m.Neighbor(a, d), LayerWall, 320)
	}
	mask := e.Reg.fenceIx[a.WallImg-320]
	if mask != ConnNE|ConnSE {
		t.Errorf("fence centre shows %s, want the first two links NE|SE", mask)
	}

	b := m.Tile(40, 40)
	e.Paint(b, LayerWall, 340)
	if b.WallImg != 340 {
		t.Errorf("lone big fence = %d", b.WallImg)
	}
	e.Paint(m.Neighbor(b, formats.DirSE), LayerWall, 340)
	if b.WallImg != 341 {
		t.Errorf("big fence with SE neighbour = %d, want NW-SE piece 341", b.WallImg)
	}
}

func TestComplexObjectStamp(t *testing.T) {
	e, m := newEngine(t, formats.Book2)
	tile := m.Tile(10, 10)
	tile.WallImg = 23

	name, altered := e.DrawSmartComplexWall(tile)
	if name != "Bed NE/SW" {
		t.Fatalf("name = %q", name)
	}
	ne := m.Neighbor(tile, formats.DirNE)
	if ne.X != 10 || ne.Y != 9 {
		t.Fatalf("NE of (10,10) = (%d,%d)", ne.X, ne.Y)
	}
	if ne.WallImg != 24 {
		t.Errorf("neighbour wall image = %d, want 24", ne.WallImg)
	}
	if tile.Wall != 1 || ne.Wall != 1 {
		t.Errorf("wall flags = %d, %d", tile.Wall, ne.Wall)
	}
	if len(altered) != 2 || altered[1] != ne {
		t.Errorf("altered = %v", coords(altered))
	}

	name, altered = e.DrawSmartComplexWall(tile)
	if name != "Bed NE/SW" || len(altered) != 0 {
		t.Errorf("second stamp: %q, %v", name, coords(altered))
	}
}

func TestComplexObjectBackward(t *testing.T) {
	e, m := newEngine(t, formats.Book2)
	mid := m.Tile(30, 30)
	mid.WallImg = 61 // middle of the wagon

	name, _ := e.DrawSmartComplexWall(mid)
	if name != "Wagon" {
		t.Fatalf("name = %q", name)
	}
	back := m.Neighbor(mid, formats.DirSW)
	fwd := m.Neighbor(mid, formats.DirNE)
	if back.WallImg != 60 || fwd.WallImg != 62 {
		t.Errorf("wagon = %d, %d, %d", back.WallImg, mid.WallImg, fwd.WallImg)
	}

	if name, altered := e.DrawSmartComplexFloor(m.Tile(1, 1)); name != "" || altered != nil {
		t.Error("empty floor should not match a complex object")
	}
}

func TestComplexObjectAtEdge(t *testing.T) {
	e, m := newEngine(t, formats.Book2)
	tile := m.Tile(0, 0)
	tile.WallImg = 23
	name, altered := e.DrawSmartComplexWall(tile)
	if name == "" || len(altered) != 1 {
		t.Errorf("edge stamp = %q, %v", name, coords(altered))
	}
}

func TestDrawFloorEdges(t *testing.T) {
	e, m := newEngine(t, formats.Book2)
	grass, _ := e.Reg.Kind("grass")
	centre := m.Tile(50, 50)

	altered := e.Paint(centre, LayerFloor, grass.Tileset[0])
	if centre.Decal != 0 {
		t.Errorf("painted tile has decal %d", centre.Decal)
	}
	if len(altered) != 9 {
		t.Errorf("altered %d tiles, want the tile and its eight neighbours", len(altered))
	}
	for _, d := range formats.Diagonals {
		n := m.Neighbor(centre, d)
		mask := e.Reg.decalIx[n.Decal-grass.DecalStart]
		if mask != DirMask(d.Opposite()) {
			t.Errorf("%s neighbour shows %s", d, mask)
		}
	}
	north := m.Neighbor(centre, formats.DirN)
	if mask := e.Reg.decalIx[north.Decal-grass.DecalStart]; mask != ConnS {
		t.Errorf("north neighbour shows %s, want straight-path S", mask)
	}

	// Hand-placed decals survive.
	south := m.Neighbor(centre, formats.DirS)
	south.Decal = 7
	e.DrawFloor(centre, true)
	if south.Decal != 7 {
		t.Error("foreign decal was replaced")
	}

	// Surrounded tiles get a fullest decal.
	hole := m.Tile(60, 60)
	for _, d := range formats.Diagonals {
		e.Paint(m.Neighbor(hole, d), LayerFloor, grass.Tileset[1])
	}
	found := false
	for _, id := range grass.Fullest {
		found = found || hole.Decal == id
	}
	if !found {
		t.Errorf("surrounded tile decal = %d, want one of %v", hole.Decal, grass.Fullest)
	}
}

func TestDrawFloorLava(t *testing.T) {
	e, m := newEngine(t, formats.Book2)
	lava, _ := e.Reg.Kind("lava")
	tile := m.Tile(20, 40)
	e.Paint(tile, LayerFloor, lava.Tileset[0])
	if owner, ok := e.Reg.DecalKind(tile.Decal); !ok || owner != "lava" {
		t.Errorf("lava tile decal = %d, want its own overlap decal", tile.Decal)
	}
}

func TestDrawBeach(t *testing.T) {
	e, m := newEngine(t, formats.Book2)
	for i := range m.Tiles {
		m.Tiles[i].Floor = e.Reg.Water[0]
	}
	e.Opts.FloorKind = BeachKind
	centre := m.Tile(50, 50)
	altered := e.DrawFloor(centre, true)

	if centre.Floor != e.Reg.Sand {
		t.Errorf("clicked tile = %d, want sand", centre.Floor)
	}
	for _, d := range formats.Diagonals {
		n := m.Neighbor(centre, d)
		want, _ := e.Reg.BeachFor(DirMask(d.Opposite()))
		if n.Floor != want {
			t.Errorf("%s shore = %d, want %d", d, n.Floor, want)
		}
	}
	north := m.Neighbor(centre, formats.DirN)
	if !e.Reg.IsWater(north.Floor) {
		t.Errorf("north tile = %d, no diagonal land so it stays water", north.Floor)
	}
	if len(altered) != 5 {
		t.Errorf("altered %d tiles, want 5", len(altered))
	}
}

func TestPlaceObject(t *testing.T) {
	e, m := newEngine(t, formats.Book2)
	log := &touchLog{}
	e.SetRecorder(log)

	idx, ok := e.PremadeIndex("Wooden Door")
	if !ok {
		t.Fatal("missing premade door")
	}
	tile := m.Tile(12, 14)
	tile.Floor = 3
	if err := e.PlaceObject(tile, idx); err != nil {
		t.Fatal(err)
	}
	if tile.WallImg != 400 || tile.Wall != 1 || tile.ObjType != 4 || tile.Floor != 3 {
		t.Errorf("tile = %+v", tile)
	}
	if len(tile.Contents) != 1 || len(m.Contents) != 1 || tile.Contents[0] != m.Contents[0] {
		t.Fatal("door content not linked")
	}
	tc := tile.Contents[0]
	if tc.X != 12 || tc.Y != 14 || tc.Script != "door_open" || tc.MaxCondition != 20 {
		t.Errorf("content = %+v", tc)
	}
	if len(log.tiles) == 0 || log.tiles[0] != tile {
		t.Error("recorder was not told about the tile")
	}

	if err := e.PlaceObject(tile, idx); err != nil {
		t.Fatal(err)
	}
	if len(tile.Contents) != 2 || tile.Contents[0] == tile.Contents[1] {
		t.Error("each placement must attach a fresh content")
	}
	if err := m.ValidateLinks(); err != nil {
		t.Error(err)
	}
	if err := e.PlaceObject(tile, 99); err == nil {
		t.Error("expected error for bad index")
	}
}

func TestRandomize(t *testing.T) {
	e, m := newEngine(t, formats.Book2)
	e.Opts.Randomize = true
	seen := make(map[int]bool)
	for i := 0; i < 50; i++ {
		tile := m.Tile(i, 0)
		tile.Floor = 1
		e.RandomizeFloor(tile)
		seen[tile.Floor] = true
	}
	for v := range seen {
		if v < 1 || v > 5 {
			t.Errorf("floor %d is outside its class", v)
		}
	}
	if len(seen) < 2 {
		t.Errorf("50 draws produced %d distinct floors", len(seen))
	}
	tile := m.Tile(0, 5)
	tile.Floor = 99
	if e.RandomizeFloor(tile) {
		t.Error("floor without a class must not change")
	}
}

func TestRecorderSeesEveryChange(t *testing.T) {
	e, m := newEngine(t, formats.Book2)
	log := &touchLog{}
	e.SetRecorder(log)
	e.Paint(m.Tile(5, 5), LayerWall, 256)
	e.Paint(m.Tile(6, 6), LayerWall, 256)

	touched := make(map[*formats.Tile]bool)
	for _, tl := range log.tiles {
		touched[tl] = true
	}
	for _, p := range [][2]int{{5, 5}, {6, 6}} {
		if !touched[m.Tile(p[0], p[1])] {
			t.Errorf("(%d,%d) changed without a Touch", p[0], p[1])
		}
	}
}

func coords(tiles []*formats.Tile) [][2]int {
	out := make([][2]int, len(tiles))
	for i, t := range tiles {
		out[i] = [2]int{t.X, t.Y}
	}
	return out
}
