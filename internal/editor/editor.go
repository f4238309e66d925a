// Package editor ties a map, its smart-draw engine and its undo history
// into one editing session. Every edit runs inside an undo frame; an edit
// that fails or panics is rolled back before the error is returned.
package editor

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/eschalon-utils/internal/config"
	"github.com/Faultbox/eschalon-utils/internal/logger"
	"github.com/Faultbox/eschalon-utils/internal/smartdraw"
	"github.com/Faultbox/eschalon-utils/internal/undo"
	"github.com/Faultbox/eschalon-utils/pkg/formats"
)

// Config holds session settings.
type Config struct {
	Draw          smartdraw.Options
	UndoCapacity  int
	WarnGlobalMap bool // warn when a global map template is opened
}

// DefaultConfig enables the default smart-draw options and the default
// history size.
func DefaultConfig() Config {
	return Config{
		Draw:          smartdraw.DefaultOptions(),
		UndoCapacity:  undo.DefaultCapacity,
		WarnGlobalMap: true,
	}
}

// ConfigFrom builds session settings from the user's preferences.
func ConfigFrom(prefs *config.Config) Config {
	cfg := DefaultConfig()
	if prefs == nil {
		return cfg
	}
	if prefs.Undo.Capacity > 0 {
		cfg.UndoCapacity = prefs.Undo.Capacity
	}
	cfg.WarnGlobalMap = prefs.MapGUI.WarnGlobalMap
	return cfg
}

// Session is one open map.
type Session struct {
	Map    *formats.Map
	Engine *smartdraw.Engine
	Undo   *undo.Stack

	path  string
	dirty bool
}

// New creates a session for m.
func New(m *formats.Map, cfg Config) (*Session, error) {
	eng, err := smartdraw.New(m, cfg.Draw)
	if err != nil {
		return nil, fmt.Errorf("failed to create smart-draw engine: %w", err)
	}
	s := &Session{
		Map:    m,
		Engine: eng,
		Undo:   undo.New(m, cfg.UndoCapacity),
	}
	eng.SetRecorder(s.Undo)
	return s, nil
}

// Open loads the map at path and creates a session for it.
func Open(path string, book formats.Book, cfg Config) (*Session, error) {
	m, err := formats.LoadMap(path, book)
	if err != nil {
		return nil, err
	}
	s, err := New(m, cfg)
	if err != nil {
		return nil, err
	}
	s.path = path
	if !m.Savegame && cfg.WarnGlobalMap {
		logger.Warn("editing a global map; changes apply to every new game",
			zap.String("path", path))
	}
	logger.Info("map opened",
		zap.String("path", path),
		zap.Stringer("book", m.Book),
		zap.Int("objects", len(m.Contents)),
		zap.Int("entities", len(m.Entities)),
	)
	return s, nil
}

// Path returns the file the session was opened from, if any.
func (s *Session) Path() string { return s.path }

// Dirty reports whether the map changed since it was opened or saved.
func (s *Session) Dirty() bool { return s.dirty }

// Save writes the map to path, or to the path it was opened from when
// path is empty.
func (s *Session) Save(path string) error {
	if path == "" {
		path = s.path
	}
	if path == "" {
		return fmt.Errorf("no path to save map to")
	}
	if err := s.Map.Save(path); err != nil {
		return err
	}
	s.path = path
	s.dirty = false
	return nil
}

// Edit runs fn inside an undo frame whose primary tile is (x, y). When fn
// returns an error or panics, every tile it touched is restored.
func (s *Session) Edit(x, y int, fn func(t *formats.Tile) error) (err error) {
	if err := s.Undo.Store(x, y); err != nil {
		return err
	}
	t := s.Map.Tile(x, y)

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("edit at (%d, %d) panicked: %v", x, y, rec)
		}
		if err != nil {
			s.Undo.Cancel()
			logger.Warn("edit rolled back",
				zap.Int("x", x),
				zap.Int("y", y),
				zap.Error(err),
			)
			return
		}
		kept, serr := s.Undo.SetNew()
		if serr != nil {
			err = serr
			return
		}
		if kept {
			s.dirty = true
		}
	}()

	return fn(t)
}

// Paint draws img on layer at (x, y) with smart drawing and returns the
// tiles that changed.
func (s *Session) Paint(x, y int, layer smartdraw.Layer, img int) ([]*formats.Tile, error) {
	var altered []*formats.Tile
	err := s.Edit(x, y, func(t *formats.Tile) error {
		altered = s.Engine.Paint(t, layer, img)
		return nil
	})
	return altered, err
}

// Erase clears layer at (x, y) and refreshes the neighbours.
func (s *Session) Erase(x, y int, layer smartdraw.Layer) ([]*formats.Tile, error) {
	var altered []*formats.Tile
	err := s.Edit(x, y, func(t *formats.Tile) error {
		altered = s.Engine.Erase(t, layer)
		return nil
	})
	return altered, err
}

// PlaceObject stamps the named premade object at (x, y).
func (s *Session) PlaceObject(x, y int, name string) error {
	idx, ok := s.Engine.PremadeIndex(name)
	if !ok {
		return fmt.Errorf("unknown premade object %q", name)
	}
	return s.Edit(x, y, func(t *formats.Tile) error {
		return s.Engine.PlaceObject(t, idx)
	})
}

// Complex extends the complex object whose piece sits on layer at (x, y).
// It returns the template name, or "" when the piece belongs to none.
func (s *Session) Complex(x, y int, layer smartdraw.Layer) (string, []*formats.Tile, error) {
	var (
		name    string
		altered []*formats.Tile
	)
	err := s.Edit(x, y, func(t *formats.Tile) error {
		name, altered = s.Engine.DrawSmartComplex(t, layer)
		return nil
	})
	return name, altered, err
}

// AddObject attaches a new, empty map object to (x, y).
func (s *Session) AddObject(x, y int) (*formats.Tilecontent, error) {
	tc := formats.NewTilecontent(s.Map.Book, s.Map.Savegame, x, y)
	err := s.Edit(x, y, func(*formats.Tile) error {
		return s.Map.AddTilecontent(tc)
	})
	if err != nil {
		return nil, err
	}
	return tc, nil
}

// RemoveObject detaches the i-th map object of (x, y).
func (s *Session) RemoveObject(x, y, i int) error {
	return s.Edit(x, y, func(t *formats.Tile) error {
		if i < 0 || i >= len(t.Contents) {
			return fmt.Errorf("tile (%d, %d) has no object %d", x, y, i)
		}
		s.Map.RemoveTilecontent(t.Contents[i])
		return nil
	})
}

// PlaceEntity puts an entity of the given id on (x, y), replacing any
// entity already there.
func (s *Session) PlaceEntity(x, y, id int) (*formats.Entity, error) {
	e := formats.NewEntity(s.Map.Book, s.Map.Savegame, id, x, y)
	err := s.Edit(x, y, func(*formats.Tile) error {
		return s.Map.AddEntity(e)
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// RemoveEntity deletes the entity on (x, y).
func (s *Session) RemoveEntity(x, y int) error {
	return s.Edit(x, y, func(t *formats.Tile) error {
		if t.Entity == nil {
			return fmt.Errorf("tile (%d, %d) has no entity", x, y)
		}
		s.Map.RemoveEntity(t.Entity)
		return nil
	})
}

// UndoLast reverts the most recent edit and returns the tiles it covered.
func (s *Session) UndoLast() ([][2]int, bool) {
	f, ok := s.Undo.Undo()
	if !ok {
		return nil, false
	}
	s.dirty = true
	return f.Tiles(), true
}

// RedoNext reapplies the next undone edit and returns the tiles it covered.
func (s *Session) RedoNext() ([][2]int, bool) {
	f, ok := s.Undo.Redo()
	if !ok {
		return nil, false
	}
	s.dirty = true
	return f.Tiles(), true
}
