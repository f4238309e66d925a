package formats

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Faultbox/eschalon-utils/internal/logger"
	"github.com/Faultbox/eschalon-utils/pkg/stream"
	"go.uber.org/zap"
)

// mapHeaderStrings is the number of leading strings shared by the book
// detection rule.
const mapHeaderStrings = 9

// Map is a 100x200 grid of tiles plus its header, map objects and entities.
type Map struct {
	Book     Book
	Path     string
	Savegame bool

	// Book I header
	MapID     string
	Exits     [4]string // north, east, south, west
	Parallax1 int
	Parallax2 int
	ExtraData string

	// Shared header
	Name       string
	SoundFiles [3]string
	Skybox     string
	Color      [4]int // red, green, blue, alpha

	// Book II/III header
	OpeningScript string
	CloudFile     string
	UnknownStr1   string
	UnknownStr2   string
	Version       int
	UnknownC1     int
	ParallaxX     int
	ParallaxY     int
	Clouds        int
	TreeSet       int // Book III

	// SavegameFlags is the header triple that separates global maps (all
	// zero) from savegame maps.
	SavegameFlags [3]int

	Tiles    []Tile
	Entities []*Entity
	Contents []*Tilecontent

	// Bytes after the last complete record, kept so they are written back.
	TrailingBytes    []byte
	EntTrailingBytes []byte

	// hasEntityFile records whether a sibling .ent file was present on load.
	hasEntityFile bool
}

// NewMap returns a blank map.
func NewMap(book Book, savegame bool) *Map {
	m := &Map{Book: book, Savegame: savegame}
	if book != Book1 {
		m.Version = 1
	}
	if savegame {
		m.SavegameFlags = [3]int{1, 1, 1}
	}
	m.Tiles = make([]Tile, MapCols*MapRows)
	for y := 0; y < MapRows; y++ {
		for x := 0; x < MapCols; x++ {
			m.Tiles[y*MapCols+x] = Tile{Book: book, Savegame: savegame, X: x, Y: y}
		}
	}
	return m
}

// EntityPath returns the sibling entity file path for a .map path.
func EntityPath(mapPath string) string {
	if strings.HasSuffix(strings.ToLower(mapPath), ".map") {
		return mapPath[:len(mapPath)-4] + ".ent"
	}
	return mapPath + ".ent"
}

// DetectMapBook applies the header rule: after nine strings, a Book II+ map
// carries a version byte of 1.
func DetectMapBook(data []byte) (Book, error) {
	s := stream.NewReader(data)
	for i := 0; i < mapHeaderStrings; i++ {
		if _, err := s.ReadStr(); err != nil {
			return 0, fmt.Errorf("detecting map book: %w", err)
		}
	}
	b := s.Peek(2)
	if len(b) < 2 {
		return 0, fmt.Errorf("detecting map book: %w", stream.ErrTruncated)
	}
	if b[0] == 1 || b[1] == 1 {
		return Book2, nil
	}
	return Book1, nil
}

// Tile returns the tile at (x, y), or nil when out of bounds.
func (m *Map) Tile(x, y int) *Tile {
	if !InBounds(x, y) {
		return nil
	}
	return &m.Tiles[y*MapCols+x]
}

// Neighbor returns the tile one step from t in direction d, or nil.
func (m *Map) Neighbor(t *Tile, d Dir) *Tile {
	nx, ny, ok := Neighbor(t.X, t.Y, d)
	if !ok {
		return nil
	}
	return m.Tile(nx, ny)
}

func (m *Map) headerSchema() stream.Schema {
	if m.Book == Book1 {
		return stream.Schema{
			stream.Str("mapid", &m.MapID),
			stream.Str("mapname", &m.Name),
			stream.Strs("soundfiles", m.SoundFiles[:]),
			stream.Strs("exits", m.Exits[:]),
			stream.Str("skybox", &m.Skybox),
			stream.I32("parallax1", &m.Parallax1),
			stream.I32("parallax2", &m.Parallax2),
			stream.Ints("color", stream.KindI32, m.Color[:]),
			stream.Str("extradata", &m.ExtraData),
			stream.Ints("savegame", stream.KindI32, m.SavegameFlags[:]),
		}
	}
	sc := stream.Schema{
		stream.Str("mapname", &m.Name),
		stream.Strs("soundfiles", m.SoundFiles[:]),
		stream.Str("skybox", &m.Skybox),
		stream.Str("openingscript", &m.OpeningScript),
		stream.Str("cloudfile", &m.CloudFile),
		stream.Str("mapunknownstr1", &m.UnknownStr1),
		stream.Str("mapunknownstr2", &m.UnknownStr2),
		stream.U8("version", &m.Version),
		stream.U8("unknownc1", &m.UnknownC1),
		stream.Ints("color", stream.KindU8, m.Color[:]),
		stream.I32("parallax_x", &m.ParallaxX),
		stream.I32("parallax_y", &m.ParallaxY),
		stream.U8("clouds", &m.Clouds),
	}
	if m.Book == Book3 {
		sc = append(sc, stream.U8("tree_set", &m.TreeSet))
	}
	return append(sc, stream.Ints("savegame", stream.KindU8, m.SavegameFlags[:]))
}

// Read decodes the .map byte stream: header, tiles, then map objects until
// the end of the stream. A map object cut short fails the read; a tail of
// zero bytes is kept as padding.
func (m *Map) Read(s *stream.Stream) error {
	if err := m.headerSchema().Read(s); err != nil {
		return fmt.Errorf("header: %w", err)
	}
	m.Savegame = m.SavegameFlags != [3]int{}

	m.Tiles = make([]Tile, MapCols*MapRows)
	m.Contents = nil
	for y := 0; y < MapRows; y++ {
		for x := 0; x < MapCols; x++ {
			t := &m.Tiles[y*MapCols+x]
			*t = Tile{Book: m.Book, Savegame: m.Savegame, X: x, Y: y}
			if err := t.Read(s); err != nil {
				return fmt.Errorf("tile (%d, %d): %w", x, y, stripFirstItem(err))
			}
		}
	}

	m.TrailingBytes = nil
	for {
		start := s.Offset()
		tc := NewTilecontent(m.Book, m.Savegame, 0, 0)
		err := tc.Read(s)
		if errors.Is(err, stream.ErrFirstItemEOF) {
			break
		}
		if errors.Is(err, stream.ErrTruncated) || errors.Is(err, stream.ErrStringTooLong) {
			s.Seek(start)
			if !isPadding(s) {
				return fmt.Errorf("tilecontent %d: %w", len(m.Contents), err)
			}
			m.TrailingBytes = captureTrailing(s, m.Path, "map")
			break
		}
		if err != nil {
			return fmt.Errorf("tilecontent %d: %w", len(m.Contents), err)
		}
		if err := m.AddTilecontent(tc); err != nil {
			return fmt.Errorf("tilecontent %d: %w", len(m.Contents), err)
		}
	}
	return nil
}

// ReadEntities decodes a .ent byte stream, entity records until EOF.
func (m *Map) ReadEntities(s *stream.Stream) error {
	m.Entities = nil
	for i := range m.Tiles {
		m.Tiles[i].Entity = nil
	}
	m.EntTrailingBytes = nil
	for {
		start := s.Offset()
		e := &Entity{Book: m.Book, Savegame: m.Savegame}
		err := e.Read(s)
		if errors.Is(err, stream.ErrFirstItemEOF) {
			break
		}
		if errors.Is(err, stream.ErrTruncated) || errors.Is(err, stream.ErrStringTooLong) {
			s.Seek(start)
			if !isPadding(s) {
				return fmt.Errorf("entity %d: %w", len(m.Entities), err)
			}
			m.EntTrailingBytes = captureTrailing(s, EntityPath(m.Path), "entity")
			break
		}
		if err != nil {
			return fmt.Errorf("entity %d: %w", len(m.Entities), err)
		}
		if err := m.AddEntity(e); err != nil {
			return fmt.Errorf("entity %d: %w", len(m.Entities), err)
		}
	}
	m.hasEntityFile = true
	return nil
}

// Write encodes the .map byte stream.
func (m *Map) Write(s *stream.Stream) error {
	if err := m.headerSchema().Write(s); err != nil {
		return fmt.Errorf("header: %w", err)
	}
	for i := range m.Tiles {
		t := &m.Tiles[i]
		if err := t.Write(s); err != nil {
			return fmt.Errorf("tile (%d, %d): %w", t.X, t.Y, err)
		}
	}
	for i, tc := range m.Contents {
		if err := tc.Write(s); err != nil {
			return fmt.Errorf("tilecontent %d: %w", i, err)
		}
	}
	return writeTrailing(s, m.TrailingBytes)
}

// WriteEntities encodes the .ent byte stream in flat-list order.
func (m *Map) WriteEntities(s *stream.Stream) error {
	for i, e := range m.Entities {
		if err := e.Write(s); err != nil {
			return fmt.Errorf("entity %d: %w", i, err)
		}
	}
	return writeTrailing(s, m.EntTrailingBytes)
}

// Encode returns the .map and .ent byte images.
func (m *Map) Encode() (mapData, entData []byte, err error) {
	ms := stream.NewWriter()
	if err := m.Write(ms); err != nil {
		return nil, nil, err
	}
	es := stream.NewWriter()
	if err := m.WriteEntities(es); err != nil {
		return nil, nil, err
	}
	return ms.Bytes(), es.Bytes(), nil
}

// Equals reports whether both maps encode to identical .map and .ent bytes.
func (m *Map) Equals(o *Map) bool {
	am, ae, err := m.Encode()
	if err != nil {
		return false
	}
	bm, be, err := o.Encode()
	if err != nil {
		return false
	}
	return string(am) == string(bm) && string(ae) == string(be)
}

// LoadMap reads a .map file and, when present, its sibling .ent file. A
// zero book selects the book from the file header.
func LoadMap(path string, book Book) (*Map, error) {
	s, err := stream.Open(path)
	if err != nil {
		return nil, loadError(path, err)
	}
	defer s.Close()

	detected, err := DetectMapBook(s.Peek(s.Size()))
	if err != nil {
		return nil, loadError(path, err)
	}
	if book == 0 {
		book = detected
	} else if (book == Book1) != (detected == Book1) {
		return nil, loadError(path, fmt.Errorf("%w: requested %s, file is %s", ErrBookMismatch, book, detected))
	}

	m := &Map{Book: book, Path: path}
	if err := m.Read(s); err != nil {
		return nil, loadError(path, err)
	}

	entPath := EntityPath(path)
	if _, err := os.Stat(entPath); err == nil {
		es, err := stream.Open(entPath)
		if err != nil {
			return nil, loadError(entPath, err)
		}
		defer es.Close()
		if err := m.ReadEntities(es); err != nil {
			return nil, loadError(entPath, err)
		}
	}

	logger.Debug("loaded map",
		zap.String("path", path),
		zap.Stringer("book", book),
		zap.Bool("savegame", m.Savegame),
		zap.Int("tilecontents", len(m.Contents)),
		zap.Int("entities", len(m.Entities)))
	return m, nil
}

// Save writes the map to path, and its entities to the sibling .ent file
// when the map has entities or was loaded with an entity file.
func (m *Map) Save(path string) error {
	s := stream.Create(path)
	if err := m.Write(s); err != nil {
		s.Close()
		return loadError(path, err)
	}
	if err := s.Close(); err != nil {
		return loadError(path, err)
	}
	m.Path = path
	if len(m.Entities) == 0 && !m.hasEntityFile {
		return nil
	}
	entPath := EntityPath(path)
	es := stream.Create(entPath)
	if err := m.WriteEntities(es); err != nil {
		es.Close()
		return loadError(entPath, err)
	}
	if err := es.Close(); err != nil {
		return loadError(entPath, err)
	}
	m.hasEntityFile = true
	return nil
}

// SetSavegame switches the map and everything on it between global and
// savegame storage.
func (m *Map) SetSavegame(savegame bool) {
	m.Savegame = savegame
	if savegame {
		if m.SavegameFlags == [3]int{} {
			m.SavegameFlags = [3]int{1, 1, 1}
		}
	} else {
		m.SavegameFlags = [3]int{}
	}
	for i := range m.Tiles {
		m.Tiles[i].Savegame = savegame
	}
	for _, tc := range m.Contents {
		tc.SetSavegame(savegame)
	}
	for _, e := range m.Entities {
		e.Savegame = savegame
		if savegame && e.Book != Book1 && len(e.Statuses) != EntityStatuses {
			e.Statuses = make([]int, EntityStatuses)
		}
	}
}

// AddEntity places e on its tile and appends it to the flat entity list.
func (m *Map) AddEntity(e *Entity) error {
	t := m.Tile(e.X, e.Y)
	if t == nil {
		return fmt.Errorf("%w: entity at (%d, %d)", ErrOutOfBounds, e.X, e.Y)
	}
	if t.Entity != nil {
		logger.Warn("replacing entity on occupied tile", zap.Int("x", e.X), zap.Int("y", e.Y))
		m.RemoveEntity(t.Entity)
	}
	t.Entity = e
	m.Entities = append(m.Entities, e)
	return nil
}

// InsertEntity places e on its tile and inserts it at index idx of the flat list.
func (m *Map) InsertEntity(idx int, e *Entity) error {
	t := m.Tile(e.X, e.Y)
	if t == nil {
		return fmt.Errorf("%w: entity at (%d, %d)", ErrOutOfBounds, e.X, e.Y)
	}
	if idx < 0 || idx > len(m.Entities) {
		idx = len(m.Entities)
	}
	t.Entity = e
	m.Entities = append(m.Entities, nil)
	copy(m.Entities[idx+1:], m.Entities[idx:])
	m.Entities[idx] = e
	return nil
}

// RemoveEntity unlinks e from its tile and the flat list, returning the
// index it held or -1.
func (m *Map) RemoveEntity(e *Entity) int {
	if t := m.Tile(e.X, e.Y); t != nil && t.Entity == e {
		t.Entity = nil
	}
	idx := m.EntityIndex(e)
	if idx >= 0 {
		m.Entities = append(m.Entities[:idx], m.Entities[idx+1:]...)
	}
	return idx
}

// EntityIndex returns the flat-list index of e, or -1.
func (m *Map) EntityIndex(e *Entity) int {
	for i, cur := range m.Entities {
		if cur == e {
			return i
		}
	}
	return -1
}

// AddTilecontent attaches tc to its tile and appends it to the flat list.
func (m *Map) AddTilecontent(tc *Tilecontent) error {
	t := m.Tile(tc.X, tc.Y)
	if t == nil {
		return fmt.Errorf("%w: tilecontent at (%d, %d)", ErrOutOfBounds, tc.X, tc.Y)
	}
	t.Contents = append(t.Contents, tc)
	m.Contents = append(m.Contents, tc)
	return nil
}

// InsertTilecontent attaches tc to its tile and inserts it at index idx of
// the flat list.
func (m *Map) InsertTilecontent(idx int, tc *Tilecontent) error {
	t := m.Tile(tc.X, tc.Y)
	if t == nil {
		return fmt.Errorf("%w: tilecontent at (%d, %d)", ErrOutOfBounds, tc.X, tc.Y)
	}
	if idx < 0 || idx > len(m.Contents) {
		idx = len(m.Contents)
	}
	t.Contents = append(t.Contents, tc)
	m.Contents = append(m.Contents, nil)
	copy(m.Contents[idx+1:], m.Contents[idx:])
	m.Contents[idx] = tc
	return nil
}

// RemoveTilecontent unlinks tc from its tile and the flat list, returning
// the index it held or -1.
func (m *Map) RemoveTilecontent(tc *Tilecontent) int {
	if t := m.Tile(tc.X, tc.Y); t != nil {
		for i, cur := range t.Contents {
			if cur == tc {
				t.Contents = append(t.Contents[:i], t.Contents[i+1:]...)
				break
			}
		}
	}
	idx := m.TilecontentIndex(tc)
	if idx >= 0 {
		m.Contents = append(m.Contents[:idx], m.Contents[idx+1:]...)
	}
	return idx
}

// TilecontentIndex returns the flat-list index of tc, or -1.
func (m *Map) TilecontentIndex(tc *Tilecontent) int {
	for i, cur := range m.Contents {
		if cur == tc {
			return i
		}
	}
	return -1
}

// ValidateLinks checks the coordinate and cross-link invariants: every tile
// sits at its grid position, every owned object shares its tile's
// coordinates, and the flat lists hold exactly the objects owned by tiles.
func (m *Map) ValidateLinks() error {
	if len(m.Tiles) != MapCols*MapRows {
		return fmt.Errorf("%w: %d tiles", ErrInvalidContent, len(m.Tiles))
	}
	owned := make(map[*Entity]bool)
	ownedContents := make(map[*Tilecontent]bool)
	for i := range m.Tiles {
		t := &m.Tiles[i]
		if t.X != i%MapCols || t.Y != i/MapCols {
			return fmt.Errorf("%w: tile %d reports (%d, %d)", ErrInvalidContent, i, t.X, t.Y)
		}
		if t.Entity != nil {
			if t.Entity.X != t.X || t.Entity.Y != t.Y {
				return fmt.Errorf("%w: entity at (%d, %d) on tile (%d, %d)", ErrNotOnTile, t.Entity.X, t.Entity.Y, t.X, t.Y)
			}
			owned[t.Entity] = true
		}
		for _, tc := range t.Contents {
			if tc.X != t.X || tc.Y != t.Y {
				return fmt.Errorf("%w: tilecontent at (%d, %d) on tile (%d, %d)", ErrNotOnTile, tc.X, tc.Y, t.X, t.Y)
			}
			ownedContents[tc] = true
		}
	}
	if len(owned) != len(m.Entities) {
		return fmt.Errorf("%w: %d entities on tiles, %d in list", ErrNotOnTile, len(owned), len(m.Entities))
	}
	for _, e := range m.Entities {
		if !owned[e] {
			return fmt.Errorf("%w: listed entity at (%d, %d)", ErrNotOnTile, e.X, e.Y)
		}
	}
	if len(ownedContents) != len(m.Contents) {
		return fmt.Errorf("%w: %d tilecontents on tiles, %d in list", ErrNotOnTile, len(ownedContents), len(m.Contents))
	}
	for _, tc := range m.Contents {
		if !ownedContents[tc] {
			return fmt.Errorf("%w: listed tilecontent at (%d, %d)", ErrNotOnTile, tc.X, tc.Y)
		}
	}
	return nil
}

// stripFirstItem reports an EOF inside the fixed tile grid as truncation.
func stripFirstItem(err error) error {
	if errors.Is(err, stream.ErrFirstItemEOF) {
		return fmt.Errorf("%w: %v", stream.ErrTruncated, err)
	}
	return err
}
