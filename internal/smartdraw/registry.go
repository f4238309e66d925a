// Package smartdraw recomputes wall, fence, floor-edge and beach images from
// the neighbourhood of an edited tile, stamps multi-tile complex objects and
// places premade objects.
package smartdraw

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/Faultbox/eschalon-utils/pkg/formats"
)

//go:embed data/*.toml
var dataFS embed.FS

// Mask is a connection bitmask. The low nibble holds the diagonals and the
// high nibble the cardinals.
type Mask uint8

// Connection bits.
const (
	ConnNE Mask = 1 << iota
	ConnSE
	ConnSW
	ConnNW
	ConnN
	ConnE
	ConnS
	ConnW

	AllDiagonals = ConnNE | ConnSE | ConnSW | ConnNW
	AllCardinals = ConnN | ConnE | ConnS | ConnW
)

// DirMask returns the connection bit of a direction.
func DirMask(d formats.Dir) Mask {
	switch d {
	case formats.DirNE:
		return ConnNE
	case formats.DirSE:
		return ConnSE
	case formats.DirSW:
		return ConnSW
	case formats.DirNW:
		return ConnNW
	case formats.DirN:
		return ConnN
	case formats.DirE:
		return ConnE
	case formats.DirS:
		return ConnS
	case formats.DirW:
		return ConnW
	}
	return 0
}

// ParseMask reads a mask written as direction names separated by spaces or
// '|', e.g. "NE|SW". The empty string is the zero mask.
func ParseMask(s string) (Mask, error) {
	var m Mask
	for _, f := range strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == '|' }) {
		d, err := formats.ParseDir(strings.ToUpper(f))
		if err != nil {
			return 0, err
		}
		m |= DirMask(d)
	}
	return m, nil
}

// String renders the mask as "NE|SW".
func (m Mask) String() string {
	var parts []string
	for _, d := range append(formats.Diagonals[:], formats.Cardinals[:]...) {
		if m&DirMask(d) != 0 {
			parts = append(parts, d.String())
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Index maps offsets within an image set to connection masks. Order is
// significant: the first matching entry wins.
type Index []Mask

// Lookup returns the offset whose mask equals m, falling back to the first
// entry whose mask is a superset of m.
func (ix Index) Lookup(m Mask) (int, bool) {
	for off, v := range ix {
		if v == m {
			return off, true
		}
	}
	for off, v := range ix {
		if v&m == m {
			return off, true
		}
	}
	return 0, false
}

// Exact returns the offset whose mask equals m.
func (ix Index) Exact(m Mask) (int, bool) {
	for off, v := range ix {
		if v == m {
			return off, true
		}
	}
	return 0, false
}

// Mask returns the mask stored at offset.
func (ix Index) Mask(offset int) (Mask, bool) {
	if offset < 0 || offset >= len(ix) {
		return 0, false
	}
	return ix[offset], true
}

// Group is an image set: Start plus an offset from the set's index.
type Group struct {
	Start   int `toml:"start"`
	Special int `toml:"special"` // four-way piece, walls only
}

// FloorKind describes one smart floor material.
type FloorKind struct {
	Name       string `toml:"-"`
	Tileset    []int  `toml:"tileset"`
	DecalStart int    `toml:"decal_start"`
	Fullest    []int  `toml:"fullest"`

	tiles map[int]bool
}

// Has reports whether floor is part of the kind's tileset.
func (k *FloorKind) Has(floor int) bool { return k.tiles[floor] }

// BeachTile is a standalone beach image and the diagonals that are land.
type BeachTile struct {
	ID   int    `toml:"id"`
	Land string `toml:"land"`
	mask Mask
}

// Step is one link of a complex object chain.
type Step struct {
	Dir   string `toml:"dir"`
	Image int    `toml:"image"`
	dir   formats.Dir
}

// ComplexObject is a named multi-tile template.
type ComplexObject struct {
	Name  string `toml:"name"`
	Layer string `toml:"layer"` // wall, floor or decal
	Start int    `toml:"start"`
	Wall  *int   `toml:"wall"`
	Steps []Step `toml:"steps"`
}

// Images returns the chain images in order, starting image first.
func (c *ComplexObject) Images() []int {
	out := []int{c.Start}
	for _, s := range c.Steps {
		out = append(out, s.Image)
	}
	return out
}

// PremadeTile holds the tile fields a premade object sets; nil fields are
// left alone.
type PremadeTile struct {
	Wall      *int `toml:"wall"`
	Floor     *int `toml:"floor"`
	Decal     *int `toml:"decal"`
	WallImg   *int `toml:"wallimg"`
	WallDecal *int `toml:"walldecal"`
	ObjType   *int `toml:"objtype"`
}

// PremadeContent is the map object a premade stamps onto the tile.
type PremadeContent struct {
	Description  string `toml:"description"`
	ExtraText    string `toml:"extratext"`
	Lock         int    `toml:"lock"`
	Trap         int    `toml:"trap"`
	State        int    `toml:"state"`
	Script       string `toml:"script"`
	Flags        int    `toml:"flags"`
	Sturdiness   int    `toml:"sturdiness"`
	CurCondition int    `toml:"curcond"`
	MaxCondition int    `toml:"maxcond"`
	OnEmpty      int    `toml:"onempty"`
	SliderLoot   int    `toml:"sliderloot"`
}

// Premade is a one-click object template.
type Premade struct {
	Name    string          `toml:"name"`
	Tile    PremadeTile     `toml:"tile"`
	Content *PremadeContent `toml:"content"`
}

// RandomSets are the equivalence classes used by randomization.
type RandomSets struct {
	Terrain   [][]int `toml:"terrain"`
	Decal     [][]int `toml:"decal"`
	Obj       [][]int `toml:"obj"`
	WallDecal [][]int `toml:"walldecal"`
}

// Registry is the smart-draw data for one book.
type Registry struct {
	Book int `toml:"book"`

	WallIndex     []string `toml:"wall_index"`
	FenceIndex    []string `toml:"fence_index"`
	BigFenceIndex []string `toml:"bigfence_index"`
	DecalIndex    []string `toml:"decal_index"`

	Walls     []Group `toml:"walls"`
	Fences    []Group `toml:"fences"`
	BigFences []Group `toml:"bigfences"`

	Kinds map[string]*FloorKind `toml:"kinds"`
	Water []int                 `toml:"water"`
	Sand  int                   `toml:"sand"`
	Beach []BeachTile           `toml:"beach"`

	Complex []ComplexObject `toml:"complex"`
	Premade []Premade       `toml:"premade"`
	Random  RandomSets      `toml:"random"`

	wallIx, fenceIx, bigFenceIx, decalIx Index

	water  map[int]bool
	beach  map[int]Mask
	decals map[int]string // decal image -> kind name
}

var (
	registryOnce sync.Once
	registries   map[int]*Registry
	registryErr  error
)

// ForBook returns the registry for book; Book III shares Book II's tables.
func ForBook(book formats.Book) (*Registry, error) {
	registryOnce.Do(func() {
		registries = make(map[int]*Registry)
		for _, b := range []int{1, 2} {
			name := fmt.Sprintf("data/book%d.toml", b)
			data, err := dataFS.ReadFile(name)
			if err != nil {
				registryErr = err
				return
			}
			r, err := ParseRegistry(data)
			if err != nil {
				registryErr = fmt.Errorf("%s: %w", name, err)
				return
			}
			registries[b] = r
		}
	})
	if registryErr != nil {
		return nil, registryErr
	}
	switch book {
	case formats.Book1:
		return registries[1], nil
	case formats.Book2, formats.Book3:
		return registries[2], nil
	}
	return nil, fmt.Errorf("%w: %d", formats.ErrUnknownBook, int(book))
}

// ParseRegistry decodes and validates a TOML registry.
func ParseRegistry(data []byte) (*Registry, error) {
	r := &Registry{}
	if err := toml.Unmarshal(data, r); err != nil {
		return nil, err
	}
	var err error
	if r.wallIx, err = parseIndex("wall_index", r.WallIndex); err != nil {
		return nil, err
	}
	if r.fenceIx, err = parseIndex("fence_index", r.FenceIndex); err != nil {
		return nil, err
	}
	if r.bigFenceIx, err = parseIndex("bigfence_index", r.BigFenceIndex); err != nil {
		return nil, err
	}
	if r.decalIx, err = parseIndex("decal_index", r.DecalIndex); err != nil {
		return nil, err
	}

	r.decals = make(map[int]string)
	for name, k := range r.Kinds {
		k.Name = name
		k.tiles = make(map[int]bool, len(k.Tileset))
		for _, id := range k.Tileset {
			k.tiles[id] = true
		}
		for off := range r.decalIx {
			r.decals[k.DecalStart+off] = name
		}
		for _, id := range k.Fullest {
			r.decals[id] = name
		}
	}

	r.water = make(map[int]bool, len(r.Water))
	for _, id := range r.Water {
		r.water[id] = true
	}
	r.beach = make(map[int]Mask, len(r.Beach))
	for i := range r.Beach {
		b := &r.Beach[i]
		if b.mask, err = ParseMask(b.Land); err != nil {
			return nil, fmt.Errorf("beach %d: %w", b.ID, err)
		}
		if b.mask&AllCardinals != 0 {
			return nil, fmt.Errorf("beach %d: only diagonals allowed", b.ID)
		}
		r.beach[b.ID] = b.mask
	}

	for i := range r.Complex {
		c := &r.Complex[i]
		switch c.Layer {
		case "wall", "floor", "decal":
		default:
			return nil, fmt.Errorf("complex %q: unknown layer %q", c.Name, c.Layer)
		}
		if len(c.Steps) == 0 {
			return nil, fmt.Errorf("complex %q: no steps", c.Name)
		}
		for j := range c.Steps {
			d, err := formats.ParseDir(c.Steps[j].Dir)
			if err != nil {
				return nil, fmt.Errorf("complex %q: %w", c.Name, err)
			}
			c.Steps[j].dir = d
		}
	}
	return r, nil
}

func parseIndex(name string, entries []string) (Index, error) {
	ix := make(Index, len(entries))
	for i, e := range entries {
		m, err := ParseMask(e)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", name, i, err)
		}
		ix[i] = m
	}
	return ix, nil
}

// WallIndexes returns the wall set index.
func (r *Registry) WallIndexes() Index { return r.wallIx }

// DecalIndexes returns the floor-edge decal index shared by all floor kinds.
func (r *Registry) DecalIndexes() Index { return r.decalIx }

// WallGroup returns the wall group holding img.
func (r *Registry) WallGroup(img int) (Group, bool) {
	return findGroup(r.Walls, len(r.wallIx), img)
}

// FenceGroup returns the fence group holding img.
func (r *Registry) FenceGroup(img int) (Group, bool) {
	return findGroup(r.Fences, len(r.fenceIx), img)
}

// BigFenceGroup returns the big-fence group holding img.
func (r *Registry) BigFenceGroup(img int) (Group, bool) {
	return findGroup(r.BigFences, len(r.bigFenceIx), img)
}

func findGroup(groups []Group, size, img int) (Group, bool) {
	for _, g := range groups {
		if img >= g.Start && img < g.Start+size {
			return g, true
		}
		if g.Special != 0 && img == g.Special {
			return g, true
		}
	}
	return Group{}, false
}

// Kind returns the named floor kind.
func (r *Registry) Kind(name string) (*FloorKind, bool) {
	k, ok := r.Kinds[name]
	return k, ok
}

// DecalKind returns the floor kind a smart decal belongs to.
func (r *Registry) DecalKind(decal int) (string, bool) {
	k, ok := r.decals[decal]
	return k, ok
}

// IsWater reports whether floor is open water.
func (r *Registry) IsWater(floor int) bool { return r.water[floor] }

// IsBeach reports whether floor is a beach image.
func (r *Registry) IsBeach(floor int) bool {
	_, ok := r.beach[floor]
	return ok
}

// BeachFor returns the first beach image whose land mask equals m.
func (r *Registry) BeachFor(m Mask) (int, bool) {
	for _, b := range r.Beach {
		if b.mask == m {
			return b.ID, true
		}
	}
	return 0, false
}

// ComplexFor returns the complex object on layer that uses img, and the
// position of img in its chain.
func (r *Registry) ComplexFor(layer string, img int) (*ComplexObject, int, bool) {
	if img == 0 {
		return nil, 0, false
	}
	for i := range r.Complex {
		c := &r.Complex[i]
		if c.Layer != layer {
			continue
		}
		for pos, v := range c.Images() {
			if v == img {
				return c, pos, true
			}
		}
	}
	return nil, 0, false
}

// randomClass returns the equivalence class holding img, if any.
func randomClass(classes [][]int, img int) []int {
	for _, cls := range classes {
		for _, v := range cls {
			if v == img {
				return cls
			}
		}
	}
	return nil
}
