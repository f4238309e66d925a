package pak

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/eschalon-utils/internal/logger"
)

// Well-known asset locations inside a game install.
const (
	GfxPakName  = "gfx.pak"
	DatapakName = "datapak"
	DataDirName = "data"
)

// OpenGame locates the asset source of an install. Book I reads gfx.pak.
// Books II and III prefer an unpacked data directory and fall back to the
// encrypted datapak.
func OpenGame(gamedir string, book int) (Source, error) {
	switch book {
	case 1:
		path := filepath.Join(gamedir, GfxPakName)
		if !isFile(path) {
			return nil, fmt.Errorf("%w: %s", ErrNoSource, path)
		}
		a, err := OpenGfx(path)
		if err != nil {
			return nil, err
		}
		logger.Info("Opened asset pak", zap.String("kind", a.Kind()), zap.String("path", path))
		return a, nil

	case 2, 3:
		dir := filepath.Join(gamedir, DataDirName)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			d, err := OpenDir(dir)
			if err != nil {
				return nil, err
			}
			logger.Info("Using unpacked assets", zap.String("path", dir), zap.Int("files", len(d.entries)))
			return d, nil
		}
		path := filepath.Join(gamedir, DatapakName)
		if !isFile(path) {
			return nil, fmt.Errorf("%w: neither %s nor %s", ErrNoSource, dir, path)
		}
		a, err := OpenBookZip(path, book)
		if err != nil {
			return nil, err
		}
		logger.Info("Opened asset pak", zap.String("kind", a.Kind()), zap.String("path", path))
		return a, nil
	}
	return nil, fmt.Errorf("unknown book %d", book)
}

// OpenPath opens whatever lives at path: a directory, a gfx.pak, or a zip
// read with password.
func OpenPath(path, password string) (Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return OpenDir(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	magic := make([]byte, 4)
	_, err = f.Read(magic)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("reading magic: %w", err)
	}
	switch string(magic) {
	case gfxMagic:
		return OpenGfx(path)
	case "PK\x03\x04":
		return OpenZip(path, password)
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidMagic, magic)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
