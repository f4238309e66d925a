// Package undo keeps a bounded history of map edits. Each frame records the
// touched tiles before and after the edit, together with the flat-list
// positions of their entities and map objects, so replay keeps the map's
// lists in their original order.
package undo

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/Faultbox/eschalon-utils/pkg/formats"
)

// DefaultCapacity is the number of frames kept.
const DefaultCapacity = 50

// Undo errors.
var (
	ErrFrameOpen   = errors.New("undo frame already open")
	ErrNoFrame     = errors.New("no undo frame open")
	ErrOutOfBounds = errors.New("tile out of bounds")
)

// snapshot is one tile at one moment.
type snapshot struct {
	tile       *formats.Tile // deep copy
	entityIdx  int           // -1 without entity
	contentIdx []int
}

// record is one tile's change within a frame.
type record struct {
	x, y     int
	old, new snapshot
}

// Frame is one undoable edit.
type Frame struct {
	records []*record
}

// Primary returns the coordinates of the tile the edit started on.
func (f *Frame) Primary() (x, y int) {
	return f.records[0].x, f.records[0].y
}

// Tiles returns the coordinates of every tile in the frame, primary first.
func (f *Frame) Tiles() [][2]int {
	out := make([][2]int, len(f.records))
	for i, r := range f.records {
		out[i] = [2]int{r.x, r.y}
	}
	return out
}

func (f *Frame) find(x, y int) *record {
	for _, r := range f.records {
		if r.x == x && r.y == y {
			return r
		}
	}
	return nil
}

// Stack is the undo/redo history of one map.
type Stack struct {
	m        *formats.Map
	capacity int
	frames   []*Frame
	cursor   int
	open     *Frame

	// Flat lists as they stood when the open frame was stored. Pre-edit
	// indices are taken from these so a tile touched late in an edit is
	// not shifted by removals made earlier in the same edit.
	baseEntities []*formats.Entity
	baseContents []*formats.Tilecontent
}

// New returns an empty history for m. A capacity below one uses
// DefaultCapacity.
func New(m *formats.Map, capacity int) *Stack {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Stack{m: m, capacity: capacity, cursor: -1}
}

// Cursor returns the index of the last applied frame, -1 when none.
func (s *Stack) Cursor() int { return s.cursor }

// Len returns the number of stored frames.
func (s *Stack) Len() int { return len(s.frames) }

// CanUndo reports whether Undo has a frame to revert.
func (s *Stack) CanUndo() bool { return s.cursor >= 0 }

// CanRedo reports whether Redo has a frame to reapply.
func (s *Stack) CanRedo() bool { return s.cursor+1 < len(s.frames) }

// Recording reports whether a frame is open.
func (s *Stack) Recording() bool { return s.open != nil }

// snap records t with the current flat-list positions of its objects.
func (s *Stack) snap(t *formats.Tile) snapshot {
	sn := snapshot{tile: t.Replicate(), entityIdx: -1}
	if t.Entity != nil {
		sn.entityIdx = s.m.EntityIndex(t.Entity)
	}
	sn.contentIdx = make([]int, len(t.Contents))
	for i, tc := range t.Contents {
		sn.contentIdx[i] = s.m.TilecontentIndex(tc)
	}
	return sn
}

// snapBase records t with the positions its objects held when the open
// frame was stored.
func (s *Stack) snapBase(t *formats.Tile) snapshot {
	sn := snapshot{tile: t.Replicate(), entityIdx: -1}
	if t.Entity != nil {
		sn.entityIdx = slices.Index(s.baseEntities, t.Entity)
	}
	sn.contentIdx = make([]int, len(t.Contents))
	for i, tc := range t.Contents {
		sn.contentIdx[i] = slices.Index(s.baseContents, tc)
	}
	return sn
}

// Store opens a frame whose primary tile is (x, y). Frames above the
// cursor are discarded.
func (s *Stack) Store(x, y int) error {
	if s.open != nil {
		return ErrFrameOpen
	}
	t := s.m.Tile(x, y)
	if t == nil {
		return fmt.Errorf("%w: (%d, %d)", ErrOutOfBounds, x, y)
	}
	s.frames = s.frames[:s.cursor+1]
	s.baseEntities = slices.Clone(s.m.Entities)
	s.baseContents = slices.Clone(s.m.Contents)
	s.open = &Frame{records: []*record{{x: x, y: y, old: s.snapBase(t)}}}
	return nil
}

// Touch adds t to the open frame unless it is already part of it. It is a
// no-op without an open frame.
func (s *Stack) Touch(t *formats.Tile) {
	if s.open == nil || s.open.find(t.X, t.Y) != nil {
		return
	}
	s.open.records = append(s.open.records, &record{x: t.X, y: t.Y, old: s.snapBase(t)})
}

// SetNew closes the open frame by recording the post-edit state. A frame
// in which nothing changed is dropped; the result reports whether the
// frame was kept.
func (s *Stack) SetNew() (bool, error) {
	f := s.open
	if f == nil {
		return false, ErrNoFrame
	}
	s.open = nil
	s.baseEntities, s.baseContents = nil, nil

	changed := false
	for _, r := range f.records {
		r.new = s.snap(s.m.Tile(r.x, r.y))
		if !r.new.equals(r.old) {
			changed = true
		}
	}
	if !changed {
		return false, nil
	}

	s.frames = append(s.frames, f)
	if len(s.frames) > s.capacity {
		s.frames = s.frames[len(s.frames)-s.capacity:]
	}
	s.cursor = len(s.frames) - 1
	return true, nil
}

// Cancel restores the tiles of the open frame and discards it.
func (s *Stack) Cancel() {
	f := s.open
	if f == nil {
		return
	}
	s.open = nil
	s.baseEntities, s.baseContents = nil, nil
	s.apply(f, false)
}

// Undo reverts the frame at the cursor and returns it.
func (s *Stack) Undo() (*Frame, bool) {
	if s.open != nil || !s.CanUndo() {
		return nil, false
	}
	f := s.frames[s.cursor]
	s.apply(f, false)
	s.cursor--
	return f, true
}

// Redo reapplies the frame above the cursor and returns it.
func (s *Stack) Redo() (*Frame, bool) {
	if s.open != nil || !s.CanRedo() {
		return nil, false
	}
	s.cursor++
	f := s.frames[s.cursor]
	s.apply(f, true)
	return f, true
}

// Clear drops all history.
func (s *Stack) Clear() {
	s.frames = nil
	s.open = nil
	s.baseEntities, s.baseContents = nil, nil
	s.cursor = -1
}

func (a snapshot) equals(b snapshot) bool {
	if a.entityIdx != b.entityIdx || len(a.contentIdx) != len(b.contentIdx) {
		return false
	}
	for i := range a.contentIdx {
		if a.contentIdx[i] != b.contentIdx[i] {
			return false
		}
	}
	return a.tile.Equals(b.tile)
}

type pendingContent struct {
	idx int
	tc  *formats.Tilecontent
}

type pendingEntity struct {
	idx int
	e   *formats.Entity
}

// apply puts every tile of f into its new (forward) or old state. Owned
// objects are first unlinked from all the frame's tiles, then fresh copies
// are reinserted in ascending list order so recorded indices stay valid.
func (s *Stack) apply(f *Frame, forward bool) {
	var (
		contents []pendingContent
		entities []pendingEntity
	)
	for _, r := range f.records {
		t := s.m.Tile(r.x, r.y)
		if t.Entity != nil {
			s.m.RemoveEntity(t.Entity)
		}
		for _, tc := range append([]*formats.Tilecontent(nil), t.Contents...) {
			s.m.RemoveTilecontent(tc)
		}

		sn := r.old
		if forward {
			sn = r.new
		}
		t.CopyFrom(sn.tile)
		if sn.tile.Entity != nil {
			entities = append(entities, pendingEntity{sn.entityIdx, sn.tile.Entity.Replicate()})
		}
		for i, tc := range sn.tile.Contents {
			contents = append(contents, pendingContent{sn.contentIdx[i], tc.Replicate()})
		}
	}

	sort.SliceStable(entities, func(i, j int) bool { return entities[i].idx < entities[j].idx })
	for _, p := range entities {
		s.m.InsertEntity(p.idx, p.e)
	}
	sort.SliceStable(contents, func(i, j int) bool { return contents[i].idx < contents[j].idx })
	for _, p := range contents {
		s.m.InsertTilecontent(p.idx, p.tc)
	}
}
