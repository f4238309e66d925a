package smartdraw

import (
	"github.com/Faultbox/eschalon-utils/pkg/formats"
)

// maxFenceLinks is the number of connections a fence piece can show.
const maxFenceLinks = 2

// DrawWall connects t to the diagonal neighbours of the same wall group and
// rewrites those neighbours to match their own surroundings. It returns the
// neighbours that changed. A wall image outside every group is left alone,
// or randomized when enabled.
func (e *Engine) DrawWall(t *formats.Tile) []*formats.Tile {
	g, ok := e.Reg.WallGroup(t.WallImg)
	if !ok {
		if e.Opts.Randomize {
			e.RandomizeWall(t)
		}
		return nil
	}

	mask := e.wallMask(t, g)
	e.set(t, &t.WallImg, e.wallImage(g, mask))

	var altered []*formats.Tile
	for _, d := range formats.Diagonals {
		if mask&DirMask(d) == 0 {
			continue
		}
		n := e.Map.Neighbor(t, d)
		if n != nil && e.set(n, &n.WallImg, e.wallImage(g, e.wallMask(n, g))) {
			altered = append(altered, n)
		}
	}
	return altered
}

func (e *Engine) wallMask(t *formats.Tile, g Group) Mask {
	var m Mask
	for _, d := range formats.Diagonals {
		n := e.Map.Neighbor(t, d)
		if n == nil {
			continue
		}
		if ng, ok := e.Reg.WallGroup(n.WallImg); ok && ng.Start == g.Start {
			m |= DirMask(d)
		}
	}
	return m
}

func (e *Engine) wallImage(g Group, m Mask) int {
	if m == AllDiagonals && g.Special != 0 {
		return g.Special
	}
	off, _ := e.Reg.wallIx.Lookup(m)
	return g.Start + off
}

// DrawFence is DrawWall for fences, which show at most two connections.
// Big fences only come in the two straight forms; the first connected
// neighbour picks which.
func (e *Engine) DrawFence(t *formats.Tile) []*formats.Tile {
	if g, ok := e.Reg.BigFenceGroup(t.WallImg); ok {
		return e.drawBigFence(t, g)
	}
	g, ok := e.Reg.FenceGroup(t.WallImg)
	if !ok {
		return nil
	}

	mask := e.fenceMask(t)
	e.set(t, &t.WallImg, e.fenceImage(g, mask))

	var altered []*formats.Tile
	for _, d := range formats.Diagonals {
		if mask&DirMask(d) == 0 {
			continue
		}
		n := e.Map.Neighbor(t, d)
		if n != nil && e.set(n, &n.WallImg, e.fenceImage(g, e.fenceMask(n))) {
			altered = append(altered, n)
		}
	}
	return altered
}

func (e *Engine) fenceMask(t *formats.Tile) Mask {
	var (
		m     Mask
		links int
	)
	for _, d := range formats.Diagonals {
		if links == maxFenceLinks {
			break
		}
		if n := e.Map.Neighbor(t, d); n != nil && e.sameFence(n, t.WallImg) {
			m |= DirMask(d)
			links++
		}
	}
	return m
}

func (e *Engine) fenceImage(g Group, m Mask) int {
	off, _ := e.Reg.fenceIx.Lookup(m)
	return g.Start + off
}

func (e *Engine) drawBigFence(t *formats.Tile, g Group) []*formats.Tile {
	img, ok := e.bigFenceImage(t, g)
	if !ok {
		return nil
	}
	e.set(t, &t.WallImg, img)

	var altered []*formats.Tile
	for _, d := range formats.Diagonals {
		n := e.Map.Neighbor(t, d)
		if n == nil || !e.sameFence(n, t.WallImg) {
			continue
		}
		if nimg, ok := e.bigFenceImage(n, g); ok && e.set(n, &n.WallImg, nimg) {
			altered = append(altered, n)
		}
	}
	return altered
}

// bigFenceImage picks the straight piece pointing at the first connected
// neighbour. Without neighbours the current piece stays.
func (e *Engine) bigFenceImage(t *formats.Tile, g Group) (int, bool) {
	for _, d := range formats.Diagonals {
		n := e.Map.Neighbor(t, d)
		if n == nil || !e.sameFence(n, t.WallImg) {
			continue
		}
		off, ok := e.Reg.bigFenceIx.Lookup(DirMask(d))
		if !ok {
			return 0, false
		}
		return g.Start + off, true
	}
	return 0, false
}
