// Package pak provides read-only access to game assets: the Book I gfx.pak
// archive, the password-protected datapak zip of Books II and III, and
// plain directory trees.
package pak

import (
	"errors"
	"sort"
)

// Pak errors.
var (
	ErrNotFound     = errors.New("file not found in pak")
	ErrInvalidMagic = errors.New("invalid pak magic")
	ErrCorrupt      = errors.New("corrupt pak")
	ErrNoKey        = errors.New("no datapak key material configured")
	ErrNoSource     = errors.New("no asset source found")
	ErrBadPadding   = errors.New("invalid password padding")
)

// Source is a read-only collection of named asset files. Names are
// matched case-insensitively with forward slashes.
type Source interface {
	// Kind names the source type for display.
	Kind() string
	// List returns every file name, sorted.
	List() []string
	// Contains reports whether name exists.
	Contains(name string) bool
	// Read returns the contents of name.
	Read(name string) ([]byte, error)
	// Close releases anything held by the source.
	Close() error
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
