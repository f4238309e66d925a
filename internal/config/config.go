// Package config handles editor preferences: game and savegame locations,
// map editor defaults and logging.
package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Faultbox/eschalon-utils/internal/logger"
)

// Config holds all preferences.
type Config struct {
	Paths   PathsConfig   `yaml:"paths"`
	MapGUI  MapGUIConfig  `yaml:"mapgui"`
	Logging LoggingConfig `yaml:"logging"`
	Undo    UndoConfig    `yaml:"undo"`

	path string // file loaded from or last saved to
}

// PathsConfig holds the install and savegame directories of each book.
type PathsConfig struct {
	GameDir     string `yaml:"gamedir"`
	GameDirB2   string `yaml:"gamedir_b2"`
	GameDirB3   string `yaml:"gamedir_b3"`
	Savegames   string `yaml:"savegames"`
	SavegamesB2 string `yaml:"savegames_b2"`
	SavegamesB3 string `yaml:"savegames_b3"`
}

// MapGUIConfig holds map editor defaults.
type MapGUIConfig struct {
	DefaultZoom   int  `yaml:"default_zoom"`
	WarnGlobalMap bool `yaml:"warn_global_map"`
	WarnSlowZip   bool `yaml:"warn_slow_zip"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// UndoConfig bounds the map editor history.
type UndoConfig struct {
	Capacity int `yaml:"capacity"`
}

// Default returns a Config with the platform's usual install locations.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			GameDir:     defaultGameDir(1),
			GameDirB2:   defaultGameDir(2),
			GameDirB3:   defaultGameDir(3),
			Savegames:   defaultSavegameDir(1),
			SavegamesB2: defaultSavegameDir(2),
			SavegamesB3: defaultSavegameDir(3),
		},
		MapGUI: MapGUIConfig{
			DefaultZoom:   4,
			WarnGlobalMap: true,
			WarnSlowZip:   true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
		Undo: UndoConfig{
			Capacity: 50,
		},
	}
}

// Path returns the file the preferences were loaded from or last saved
// to, or "" for in-memory defaults.
func (c *Config) Path() string { return c.path }

// GameDir returns the install directory for book 1, 2 or 3.
func (c *Config) GameDir(book int) string {
	switch book {
	case 2:
		return c.Paths.GameDirB2
	case 3:
		return c.Paths.GameDirB3
	default:
		return c.Paths.GameDir
	}
}

// SavegameDir returns the savegame directory for book 1, 2 or 3.
func (c *Config) SavegameDir(book int) string {
	switch book {
	case 2:
		return c.Paths.SavegamesB2
	case 3:
		return c.Paths.SavegamesB3
	default:
		return c.Paths.Savegames
	}
}

// Get returns a preference by its dotted key, such as "paths.gamedir" or
// "mapgui.default_zoom", formatted as a string.
func (c *Config) Get(key string) (string, error) {
	switch strings.ToLower(key) {
	case "paths.gamedir":
		return c.Paths.GameDir, nil
	case "paths.gamedir_b2":
		return c.Paths.GameDirB2, nil
	case "paths.gamedir_b3":
		return c.Paths.GameDirB3, nil
	case "paths.savegames":
		return c.Paths.Savegames, nil
	case "paths.savegames_b2":
		return c.Paths.SavegamesB2, nil
	case "paths.savegames_b3":
		return c.Paths.SavegamesB3, nil
	case "mapgui.default_zoom":
		return strconv.Itoa(c.MapGUI.DefaultZoom), nil
	case "mapgui.warn_global_map":
		return strconv.FormatBool(c.MapGUI.WarnGlobalMap), nil
	case "mapgui.warn_slow_zip":
		return strconv.FormatBool(c.MapGUI.WarnSlowZip), nil
	case "logging.level":
		return c.Logging.Level, nil
	case "logging.log_file":
		return c.Logging.LogFile, nil
	case "undo.capacity":
		return strconv.Itoa(c.Undo.Capacity), nil
	default:
		return "", fmt.Errorf("unknown preference %q", key)
	}
}

// Set assigns a preference by its dotted key, parsing value for the key's
// type.
func (c *Config) Set(key, value string) error {
	var err error
	switch strings.ToLower(key) {
	case "paths.gamedir":
		c.Paths.GameDir = value
	case "paths.gamedir_b2":
		c.Paths.GameDirB2 = value
	case "paths.gamedir_b3":
		c.Paths.GameDirB3 = value
	case "paths.savegames":
		c.Paths.Savegames = value
	case "paths.savegames_b2":
		c.Paths.SavegamesB2 = value
	case "paths.savegames_b3":
		c.Paths.SavegamesB3 = value
	case "mapgui.default_zoom":
		err = setPositive(&c.MapGUI.DefaultZoom, value)
	case "mapgui.warn_global_map":
		err = setBool(&c.MapGUI.WarnGlobalMap, value)
	case "mapgui.warn_slow_zip":
		err = setBool(&c.MapGUI.WarnSlowZip, value)
	case "logging.level":
		if _, err = logger.ParseLevel(value); err == nil {
			c.Logging.Level = value
		}
	case "logging.log_file":
		c.Logging.LogFile = value
	case "undo.capacity":
		err = setPositive(&c.Undo.Capacity, value)
	default:
		return fmt.Errorf("unknown preference %q", key)
	}
	if err != nil {
		return fmt.Errorf("preference %s: %w", key, err)
	}
	return nil
}

func setPositive(dst *int, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return err
	}
	if n < 1 {
		return fmt.Errorf("must be at least 1, got %d", n)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return err
	}
	*dst = b
	return nil
}
