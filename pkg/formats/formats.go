// Package formats provides the object model and binary layouts for the
// save files of all three books: characters, maps, entities, map objects,
// items, merchants and save names.
package formats

import (
	"errors"
	"fmt"

	"github.com/Faultbox/eschalon-utils/internal/logger"
	"github.com/Faultbox/eschalon-utils/pkg/stream"
	"go.uber.org/zap"
)

// Format errors.
var (
	ErrUnknownBook    = errors.New("unknown book")
	ErrBookMismatch   = errors.New("book mismatch")
	ErrVersionTooOld  = errors.New("save version too old")
	ErrTrailingData   = errors.New("trailing data after expected structure")
	ErrOutOfBounds    = errors.New("coordinates out of bounds")
	ErrNotApplicable  = errors.New("not applicable to this book")
	ErrNotOnTile      = errors.New("object is not linked to its tile")
	ErrInvalidContent = errors.New("invalid content")
)

// Book identifies one game of the trilogy.
type Book int

// Supported books.
const (
	Book1 Book = 1
	Book2 Book = 2
	Book3 Book = 3
)

// String returns "Book I", "Book II" or "Book III".
func (b Book) String() string {
	switch b {
	case Book1:
		return "Book I"
	case Book2:
		return "Book II"
	case Book3:
		return "Book III"
	default:
		return fmt.Sprintf("Book(%d)", int(b))
	}
}

// Valid reports whether b is one of the three books.
func (b Book) Valid() bool {
	return b >= Book1 && b <= Book3
}

// ParseBook converts 1, 2 or 3 into a Book.
func ParseBook(n int) (Book, error) {
	b := Book(n)
	if !b.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrUnknownBook, n)
	}
	return b, nil
}

// InventoryRows returns the number of inventory rows for the book.
func (b Book) InventoryRows() int {
	if b == Book1 {
		return 7
	}
	return 8
}

// InventoryCols returns the number of inventory columns.
func (b Book) InventoryCols() int { return 10 }

// ReadyItems returns the number of ready (belt) item slots.
func (b Book) ReadyItems() int {
	if b == Book1 {
		return 8
	}
	return 10
}

// SkillCount returns the number of skills stored in a character file.
func (b Book) SkillCount() int {
	if b == Book1 {
		return 24
	}
	return 26
}

// SpellCount returns the number of known-spell slots.
func (b Book) SpellCount() int {
	if b == Book1 {
		return 35
	}
	return 45
}

// FXCount returns the size of the character FX block.
func (b Book) FXCount() int {
	if b == Book1 {
		return 4
	}
	return 7
}

// LoadError reports a failure to decode or encode a file. It is the error
// surfaced to users for malformed input.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func loadError(path string, err error) error {
	if err == nil {
		return nil
	}
	var le *LoadError
	if errors.As(err, &le) {
		return err
	}
	return &LoadError{Path: path, Err: err}
}

// encode runs a codec into a fresh in-memory stream.
func encode(c stream.Codec) ([]byte, error) {
	w := stream.NewWriter()
	if err := c.Write(w); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// sameBytes reports whether two codecs produce identical byte images.
func sameBytes(a, b stream.Codec) bool {
	ab, err := encode(a)
	if err != nil {
		return false
	}
	bb, err := encode(b)
	if err != nil {
		return false
	}
	return string(ab) == string(bb)
}

// captureTrailing consumes and returns any bytes left after a structure,
// logging them as a warning. They are written back unchanged on save.
func captureTrailing(s *stream.Stream, path, what string) []byte {
	rest := s.Remaining()
	if rest <= 0 {
		return nil
	}
	data := append([]byte(nil), s.Peek(rest)...)
	s.Seek(s.Size())
	logger.Warn("trailing bytes after "+what+" data",
		zap.String("path", path),
		zap.Int("bytes", rest),
		zap.Error(ErrTrailingData))
	return data
}

// isPadding reports whether the unread rest of s is non-empty and all
// zero. No record encodes as all zeros, since each carries at least one
// CRLF-terminated string.
func isPadding(s *stream.Stream) bool {
	rest := s.Peek(s.Remaining())
	if len(rest) == 0 {
		return false
	}
	for _, b := range rest {
		if b != 0 {
			return false
		}
	}
	return true
}

func writeTrailing(s *stream.Stream, data []byte) error {
	for _, b := range data {
		if err := s.WriteU8(int(b)); err != nil {
			return err
		}
	}
	return nil
}
