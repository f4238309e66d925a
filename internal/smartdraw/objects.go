package smartdraw

import (
	"fmt"

	"github.com/Faultbox/eschalon-utils/pkg/formats"
)

// DrawSmartComplex extends a complex object from t. When the image on
// layer is a step of some template, the chain is walked forward and
// backward from that step, stamping each neighbour. It returns the
// template name and the tiles that changed, or "" when nothing matched.
func (e *Engine) DrawSmartComplex(t *formats.Tile, layer Layer) (string, []*formats.Tile) {
	field := layerField(t, layer)
	if field == nil {
		return "", nil
	}
	c, pos, ok := e.Reg.ComplexFor(layer.String(), *field)
	if !ok {
		return "", nil
	}
	images := c.Images()

	var altered []*formats.Tile
	stamp := func(tile *formats.Tile, img int) {
		changed := e.set(tile, layerField(tile, layer), img)
		if c.Wall != nil {
			changed = e.set(tile, &tile.Wall, *c.Wall) || changed
		}
		if changed {
			altered = appendTile(altered, tile)
		}
	}

	stamp(t, images[pos])
	cur := t
	for j := pos; j < len(c.Steps); j++ {
		if cur = e.Map.Neighbor(cur, c.Steps[j].dir); cur == nil {
			break
		}
		stamp(cur, images[j+1])
	}
	cur = t
	for j := pos - 1; j >= 0; j-- {
		if cur = e.Map.Neighbor(cur, c.Steps[j].dir.Opposite()); cur == nil {
			break
		}
		stamp(cur, images[j])
	}
	return c.Name, altered
}

// DrawSmartComplexWall extends a complex object on the wall layer.
func (e *Engine) DrawSmartComplexWall(t *formats.Tile) (string, []*formats.Tile) {
	return e.DrawSmartComplex(t, LayerWall)
}

// DrawSmartComplexFloor extends a complex object on the floor layer.
func (e *Engine) DrawSmartComplexFloor(t *formats.Tile) (string, []*formats.Tile) {
	return e.DrawSmartComplex(t, LayerFloor)
}

// DrawSmartComplexDecal extends a complex object on the decal layer.
func (e *Engine) DrawSmartComplexDecal(t *formats.Tile) (string, []*formats.Tile) {
	return e.DrawSmartComplex(t, LayerDecal)
}

// PremadeIndex returns the index of the premade object called name.
func (e *Engine) PremadeIndex(name string) (int, bool) {
	for i, p := range e.Reg.Premade {
		if p.Name == name {
			return i, true
		}
	}
	return 0, false
}

// PlaceObject stamps premade object idx onto t. The template's tile fields
// overwrite t and a fresh copy of its map object is attached to t and the
// map's flat list.
func (e *Engine) PlaceObject(t *formats.Tile, idx int) error {
	if idx < 0 || idx >= len(e.Reg.Premade) {
		return fmt.Errorf("premade object %d out of range (have %d)", idx, len(e.Reg.Premade))
	}
	p := e.Reg.Premade[idx]
	e.touch(t)

	for _, f := range []struct {
		src *int
		dst *int
	}{
		{p.Tile.Wall, &t.Wall},
		{p.Tile.Floor, &t.Floor},
		{p.Tile.Decal, &t.Decal},
		{p.Tile.WallImg, &t.WallImg},
		{p.Tile.WallDecal, &t.WallDecal},
		{p.Tile.ObjType, &t.ObjType},
	} {
		if f.src != nil {
			*f.dst = *f.src
		}
	}

	if p.Content == nil {
		return nil
	}
	c := p.Content
	tc := formats.NewTilecontent(e.Map.Book, e.Map.Savegame, t.X, t.Y)
	tc.Description = c.Description
	tc.ExtraText = c.ExtraText
	tc.Lock = c.Lock
	tc.Trap = c.Trap
	tc.State = c.State
	tc.Script = c.Script
	if e.Map.Book == formats.Book1 {
		tc.Flags = c.Flags
		tc.Sturdiness = c.Sturdiness
	} else {
		tc.CurCondition = c.CurCondition
		tc.MaxCondition = c.MaxCondition
		tc.OnEmpty = c.OnEmpty
		tc.SliderLoot = c.SliderLoot
	}
	return e.Map.AddTilecontent(tc)
}

func (e *Engine) randomize(t *formats.Tile, field *int, classes [][]int) bool {
	cls := randomClass(classes, *field)
	if len(cls) < 2 {
		return false
	}
	return e.set(t, field, cls[e.intn(len(cls))])
}

// RandomizeFloor swaps the floor for a random member of its terrain class.
func (e *Engine) RandomizeFloor(t *formats.Tile) bool {
	return e.randomize(t, &t.Floor, e.Reg.Random.Terrain)
}

// RandomizeDecal swaps the decal for a random member of its class.
func (e *Engine) RandomizeDecal(t *formats.Tile) bool {
	return e.randomize(t, &t.Decal, e.Reg.Random.Decal)
}

// RandomizeWall swaps a wall-layer object for a random member of its class.
func (e *Engine) RandomizeWall(t *formats.Tile) bool {
	return e.randomize(t, &t.WallImg, e.Reg.Random.Obj)
}

// RandomizeWallDecal swaps the wall decal for a random member of its class.
func (e *Engine) RandomizeWallDecal(t *formats.Tile) bool {
	return e.randomize(t, &t.WallDecal, e.Reg.Random.WallDecal)
}
