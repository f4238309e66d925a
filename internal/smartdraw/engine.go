package smartdraw

import (
	"fmt"
	"math/rand/v2"

	"github.com/Faultbox/eschalon-utils/pkg/formats"
)

// Recorder is told about every tile the engine is about to change, before
// the change happens.
type Recorder interface {
	Touch(t *formats.Tile)
}

// Layer selects the tile image a paint operation writes.
type Layer int

// Paintable layers.
const (
	LayerFloor Layer = iota
	LayerDecal
	LayerWall
	LayerWallDecal
)

// String returns the layer name used in complex-object tables.
func (l Layer) String() string {
	switch l {
	case LayerFloor:
		return "floor"
	case LayerDecal:
		return "decal"
	case LayerWall:
		return "wall"
	case LayerWallDecal:
		return "walldecal"
	}
	return fmt.Sprintf("Layer(%d)", int(l))
}

// BeachKind is the floor-kind name that selects beach drawing.
const BeachKind = "beach"

// Options are the drawing toggles.
type Options struct {
	DrawBarriers   bool // painting a wall image sets the wall flag
	SmartWalls     bool
	SmartFences    bool
	SmartFloors    bool
	StraightPaths  bool
	ComplexObjects bool
	Randomize      bool
	// FloorKind forces the decal kind for floor edges. Empty derives it
	// from the painted floor image.
	FloorKind string
}

// DefaultOptions enables every smart feature except randomization.
func DefaultOptions() Options {
	return Options{
		DrawBarriers:   true,
		SmartWalls:     true,
		SmartFences:    true,
		SmartFloors:    true,
		StraightPaths:  true,
		ComplexObjects: true,
	}
}

// Engine applies smart drawing to one map.
type Engine struct {
	Map  *formats.Map
	Reg  *Registry
	Opts Options

	rec Recorder
	rng *rand.Rand
}

// New returns an engine for m using the registry of the map's book.
func New(m *formats.Map, opts Options) (*Engine, error) {
	reg, err := ForBook(m.Book)
	if err != nil {
		return nil, err
	}
	return &Engine{Map: m, Reg: reg, Opts: opts}, nil
}

// SetRecorder installs the recorder notified before tiles change.
func (e *Engine) SetRecorder(r Recorder) { e.rec = r }

// Seed makes randomization reproducible.
func (e *Engine) Seed(seed uint64) {
	e.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func (e *Engine) intn(n int) int {
	if e.rng != nil {
		return e.rng.IntN(n)
	}
	return rand.IntN(n)
}

func (e *Engine) touch(t *formats.Tile) {
	if e.rec != nil {
		e.rec.Touch(t)
	}
}

func (e *Engine) set(t *formats.Tile, field *int, v int) bool {
	if *field == v {
		return false
	}
	e.touch(t)
	*field = v
	return true
}

func layerField(t *formats.Tile, l Layer) *int {
	switch l {
	case LayerFloor:
		return &t.Floor
	case LayerDecal:
		return &t.Decal
	case LayerWall:
		return &t.WallImg
	case LayerWallDecal:
		return &t.WallDecal
	}
	return nil
}

// appendTile adds t to list unless already present.
func appendTile(list []*formats.Tile, tiles ...*formats.Tile) []*formats.Tile {
outer:
	for _, t := range tiles {
		for _, cur := range list {
			if cur == t {
				continue outer
			}
		}
		list = append(list, t)
	}
	return list
}

// Paint writes img to layer on t and then runs the smart features the
// options enable. It returns every altered tile, t first.
func (e *Engine) Paint(t *formats.Tile, layer Layer, img int) []*formats.Tile {
	field := layerField(t, layer)
	if field == nil {
		return nil
	}
	var altered []*formats.Tile
	changed := e.set(t, field, img)
	if layer == LayerWall && e.Opts.DrawBarriers {
		flag := formats.WallNone
		if img != 0 {
			flag = formats.WallBlocked
		}
		if t.Wall == formats.WallNone || flag == formats.WallNone {
			changed = e.set(t, &t.Wall, flag) || changed
		}
	}
	if changed {
		altered = append(altered, t)
	}

	switch layer {
	case LayerWall:
		if e.Opts.ComplexObjects {
			if name, tiles := e.DrawSmartComplex(t, LayerWall); name != "" {
				return appendTile(altered, tiles...)
			}
		}
		switch {
		case e.Opts.SmartWalls && e.isWall(t.WallImg):
			altered = appendTile(altered, e.DrawWall(t)...)
		case e.Opts.SmartFences && e.isFence(t.WallImg):
			altered = appendTile(altered, e.DrawFence(t)...)
		case e.Opts.Randomize && e.RandomizeWall(t):
			altered = appendTile(altered, t)
		}
	case LayerFloor:
		if e.Opts.ComplexObjects {
			if name, tiles := e.DrawSmartComplex(t, LayerFloor); name != "" {
				return appendTile(altered, tiles...)
			}
		}
		if e.Opts.Randomize && e.RandomizeFloor(t) {
			altered = appendTile(altered, t)
		}
		if e.Opts.SmartFloors {
			altered = appendTile(altered, e.DrawFloor(t, true)...)
		}
	case LayerDecal:
		if e.Opts.ComplexObjects {
			if name, tiles := e.DrawSmartComplex(t, LayerDecal); name != "" {
				return appendTile(altered, tiles...)
			}
		}
		if e.Opts.Randomize && e.RandomizeDecal(t) {
			altered = appendTile(altered, t)
		}
	case LayerWallDecal:
		if e.Opts.Randomize && e.RandomizeWallDecal(t) {
			altered = appendTile(altered, t)
		}
	}
	return altered
}

// Erase clears layer on t and refreshes the neighbours that were
// connected to it.
func (e *Engine) Erase(t *formats.Tile, layer Layer) []*formats.Tile {
	var neighbours []*formats.Tile
	if layer == LayerWall {
		for _, d := range formats.Diagonals {
			if n := e.Map.Neighbor(t, d); n != nil && (e.sameWall(n, t.WallImg) || e.sameFence(n, t.WallImg)) {
				neighbours = append(neighbours, n)
			}
		}
	}
	saved := e.Opts
	e.Opts.ComplexObjects = false
	e.Opts.Randomize = false
	altered := e.Paint(t, layer, 0)
	e.Opts = saved

	for _, n := range neighbours {
		if e.refreshWall(n) {
			altered = appendTile(altered, n)
		}
	}
	return altered
}

func (e *Engine) isWall(img int) bool {
	_, ok := e.Reg.WallGroup(img)
	return ok
}

func (e *Engine) isFence(img int) bool {
	if _, ok := e.Reg.FenceGroup(img); ok {
		return true
	}
	_, ok := e.Reg.BigFenceGroup(img)
	return ok
}

func (e *Engine) sameWall(n *formats.Tile, img int) bool {
	g, ok := e.Reg.WallGroup(img)
	if !ok {
		return false
	}
	ng, ok := e.Reg.WallGroup(n.WallImg)
	return ok && ng.Start == g.Start
}

func (e *Engine) sameFence(n *formats.Tile, img int) bool {
	if g, ok := e.Reg.FenceGroup(img); ok {
		ng, ok := e.Reg.FenceGroup(n.WallImg)
		return ok && ng.Start == g.Start
	}
	if g, ok := e.Reg.BigFenceGroup(img); ok {
		ng, ok := e.Reg.BigFenceGroup(n.WallImg)
		return ok && ng.Start == g.Start
	}
	return false
}

// refreshWall recomputes a wall or fence tile from its own neighbours.
func (e *Engine) refreshWall(t *formats.Tile) bool {
	if g, ok := e.Reg.WallGroup(t.WallImg); ok {
		return e.set(t, &t.WallImg, e.wallImage(g, e.wallMask(t, g)))
	}
	if g, ok := e.Reg.FenceGroup(t.WallImg); ok {
		return e.set(t, &t.WallImg, e.fenceImage(g, e.fenceMask(t)))
	}
	if g, ok := e.Reg.BigFenceGroup(t.WallImg); ok {
		if img, ok := e.bigFenceImage(t, g); ok {
			return e.set(t, &t.WallImg, img)
		}
	}
	return false
}
