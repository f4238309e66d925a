package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// configFile is the preferences file name inside ConfigDir.
const configFile = "prefs.yaml"

// Load loads preferences with priority: defaults < file < flags. book
// selects which book's paths the path flags override.
func Load(book int) (*Config, error) {
	cfg := Default()

	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading preferences from %s: %w", configPath, err)
		}
		cfg.path = configPath
	}

	applyFlags(cfg, book)

	return cfg, nil
}

// findConfigFile looks for preferences in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./" + configFile,
		filepath.Join(ConfigDir(), configFile),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "EschalonUtils")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "EschalonUtils")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "eschalon-utils")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "eschalon-utils")
	}
}

// loadFromFile loads preferences from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

var bookDirNames = [...]string{"", "Book I", "Book II", "Book III"}

// defaultGameDir guesses where the book is installed.
func defaultGameDir(book int) string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join("/Applications", "Eschalon "+bookDirNames[book]+".app", "Contents", "Resources")
	case "windows":
		pf := os.Getenv("ProgramFiles")
		if pf == "" {
			pf = `C:\Program Files`
		}
		return filepath.Join(pf, "Basilisk Games", "Eschalon "+bookDirNames[book])
	default:
		return filepath.Join(home, fmt.Sprintf("eschalon_book_%d", book))
	}
}

// defaultSavegameDir guesses where the book keeps its save slots.
func defaultSavegameDir(book int) string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Eschalon "+bookDirNames[book], "Saved Games")
	case "windows":
		return filepath.Join(home, "Documents", "Eschalon "+bookDirNames[book], "Saved Games")
	default:
		return filepath.Join(home, fmt.Sprintf(".eschalon_b%d_saved_games", book))
	}
}
