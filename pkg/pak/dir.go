package pak

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Faultbox/eschalon-utils/pkg/encoding"
)

// DirSource serves assets straight from an unpacked directory tree.
type DirSource struct {
	root    string
	entries map[string]string // normalized -> relative OS path
}

// OpenDir indexes every regular file below root.
func OpenDir(root string) (*DirSource, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: not a directory", root)
	}

	d := &DirSource{root: root, entries: make(map[string]string)}
	err = filepath.WalkDir(root, func(path string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if de.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		d.entries[encoding.NormalizePakPath(filepath.ToSlash(rel))] = rel
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("indexing %s: %w", root, err)
	}
	return d, nil
}

// Kind returns "directory".
func (d *DirSource) Kind() string { return "directory" }

// Root returns the indexed directory.
func (d *DirSource) Root() string { return d.root }

// List returns every indexed file.
func (d *DirSource) List() []string { return sortedKeys(d.entries) }

// Contains checks if a file exists.
func (d *DirSource) Contains(name string) bool {
	_, ok := d.entries[encoding.NormalizePakPath(name)]
	return ok
}

// Read returns a file's contents.
func (d *DirSource) Read(name string) ([]byte, error) {
	rel, ok := d.entries[encoding.NormalizePakPath(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return os.ReadFile(filepath.Join(d.root, rel))
}

// Close is a no-op.
func (d *DirSource) Close() error { return nil }
