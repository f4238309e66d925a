package smartdraw

import (
	"slices"

	"github.com/Faultbox/eschalon-utils/pkg/formats"
)

// cardinalFlank lists, per cardinal bit, the two diagonals on either side.
var cardinalFlank = map[Mask]Mask{
	ConnN: ConnNE | ConnNW,
	ConnE: ConnNE | ConnSE,
	ConnS: ConnSE | ConnSW,
	ConnW: ConnSW | ConnNW,
}

// floorKind resolves the kind for a floor edit on t.
func (e *Engine) floorKind(t *formats.Tile) string {
	if e.Opts.FloorKind != "" {
		return e.Opts.FloorKind
	}
	if e.Reg.IsWater(t.Floor) || e.Reg.IsBeach(t.Floor) {
		return BeachKind
	}
	for name, k := range e.Reg.Kinds {
		if k.Has(t.Floor) {
			return name
		}
	}
	return ""
}

// DrawFloor recomputes floor-edge decals for t and, with recurse, for its
// diagonal and then cardinal neighbours. It returns the altered tiles.
func (e *Engine) DrawFloor(t *formats.Tile, recurse bool) []*formats.Tile {
	name := e.floorKind(t)
	if name == BeachKind {
		return e.DrawBeach(t)
	}
	k, ok := e.Reg.Kind(name)
	if !ok {
		return nil
	}

	var altered []*formats.Tile
	if e.floorDecal(t, k) {
		altered = append(altered, t)
	}
	if !recurse {
		return altered
	}
	for _, dirs := range [][4]formats.Dir{formats.Diagonals, formats.Cardinals} {
		for _, d := range dirs {
			if n := e.Map.Neighbor(t, d); n != nil && e.floorDecal(n, k) {
				altered = appendTile(altered, n)
			}
		}
	}
	return altered
}

// kindMask returns the diagonals of t whose floors belong to k, or with
// invert those that do not.
func (e *Engine) kindMask(t *formats.Tile, k *FloorKind, invert bool) Mask {
	var m Mask
	for _, d := range formats.Diagonals {
		n := e.Map.Neighbor(t, d)
		if n == nil {
			continue
		}
		if k.Has(n.Floor) != invert {
			m |= DirMask(d)
		}
	}
	return m
}

// floorDecal sets the edge decal of a single tile for kind k.
func (e *Engine) floorDecal(t *formats.Tile, k *FloorKind) bool {
	if k.Has(t.Floor) {
		if k.Name == "lava" {
			return e.lavaOverlap(t, k)
		}
		if owner, ok := e.Reg.DecalKind(t.Decal); ok && owner == k.Name {
			return e.set(t, &t.Decal, 0)
		}
		return false
	}
	// Hand-placed decals and those of other kinds are never replaced.
	if t.Decal != 0 {
		if owner, ok := e.Reg.DecalKind(t.Decal); !ok || owner != k.Name {
			return false
		}
	}

	mask := e.kindMask(t, k, false)
	if mask == AllDiagonals {
		if len(k.Fullest) == 0 || slices.Contains(k.Fullest, t.Decal) {
			return false
		}
		return e.set(t, &t.Decal, k.Fullest[e.intn(len(k.Fullest))])
	}

	if e.Opts.StraightPaths {
		for _, d := range formats.Cardinals {
			bit := DirMask(d)
			if mask&cardinalFlank[bit] != 0 {
				continue
			}
			if n := e.Map.Neighbor(t, d); n != nil && k.Has(n.Floor) {
				mask |= bit
			}
		}
	}

	if mask == 0 {
		return e.set(t, &t.Decal, 0)
	}
	off, ok := e.decalOffset(mask)
	if !ok {
		return false
	}
	return e.set(t, &t.Decal, k.DecalStart+off)
}

// decalOffset finds the decal for mask: an exact match, then the
// diagonals alone, then the first cardinal alone.
func (e *Engine) decalOffset(mask Mask) (int, bool) {
	ix := e.Reg.decalIx
	if off, ok := ix.Exact(mask); ok {
		return off, true
	}
	if diag := mask & AllDiagonals; diag != 0 {
		return ix.Lookup(diag)
	}
	for _, d := range formats.Cardinals {
		if bit := DirMask(d); mask&bit != 0 {
			return ix.Exact(bit)
		}
	}
	return 0, false
}

// lavaOverlap gives lava tiles their own edge decal toward non-lava
// neighbours so the glow overlaps both sides of the border.
func (e *Engine) lavaOverlap(t *formats.Tile, k *FloorKind) bool {
	if t.Decal != 0 {
		if owner, ok := e.Reg.DecalKind(t.Decal); !ok || owner != k.Name {
			return false
		}
	}
	mask := e.kindMask(t, k, true)
	if mask == 0 {
		return e.set(t, &t.Decal, 0)
	}
	off, ok := e.Reg.decalIx.Lookup(mask)
	if !ok {
		// Isolated lava: no edge piece covers all four sides.
		if len(k.Fullest) == 0 || slices.Contains(k.Fullest, t.Decal) {
			return false
		}
		return e.set(t, &t.Decal, k.Fullest[e.intn(len(k.Fullest))])
	}
	return e.set(t, &t.Decal, k.DecalStart+off)
}

// isLand treats every floor that is neither water nor beach as sand.
func (e *Engine) isLand(floor int) bool {
	return !e.Reg.IsWater(floor) && !e.Reg.IsBeach(floor)
}

// DrawBeach turns a water or beach tile into sand and re-fits the beach
// images of the surrounding water and beach tiles.
func (e *Engine) DrawBeach(t *formats.Tile) []*formats.Tile {
	var altered []*formats.Tile
	if !e.isLand(t.Floor) && e.set(t, &t.Floor, e.Reg.Sand) {
		altered = append(altered, t)
	}
	for _, dirs := range [][4]formats.Dir{formats.Diagonals, formats.Cardinals} {
		for _, d := range dirs {
			n := e.Map.Neighbor(t, d)
			if n == nil || e.isLand(n.Floor) {
				continue
			}
			if e.fitBeach(n) {
				altered = appendTile(altered, n)
			}
		}
	}
	return altered
}

// fitBeach picks the beach image matching the land around a shore tile:
// sand when surrounded, water when isolated.
func (e *Engine) fitBeach(t *formats.Tile) bool {
	var land Mask
	for _, d := range formats.Diagonals {
		if n := e.Map.Neighbor(t, d); n != nil && e.isLand(n.Floor) {
			land |= DirMask(d)
		}
	}
	switch land {
	case AllDiagonals:
		return e.set(t, &t.Floor, e.Reg.Sand)
	case 0:
		if e.Reg.IsWater(t.Floor) || len(e.Reg.Water) == 0 {
			return false
		}
		return e.set(t, &t.Floor, e.Reg.Water[0])
	}
	if id, ok := e.Reg.BeachFor(land); ok {
		return e.set(t, &t.Floor, id)
	}
	return false
}
