package formats

import (
	"fmt"

	"github.com/Faultbox/eschalon-utils/internal/logger"
	"github.com/Faultbox/eschalon-utils/pkg/stream"
	"go.uber.org/zap"
)

// maxMerchantItems bounds the item count read from a merchant header.
const maxMerchantItems = 10000

// Merchant is a shop inventory with its restock day.
type Merchant struct {
	Book Book
	Path string

	Day           int
	Gold          int
	Items         []Item
	TrailingBytes []byte
}

// NewMerchant returns an empty merchant.
func NewMerchant(book Book) *Merchant {
	return &Merchant{Book: book}
}

func (m *Merchant) headerSchema(count *int) stream.Schema {
	return stream.Schema{
		stream.I32("day", &m.Day),
		stream.I32("count", count),
		stream.I32("gold", &m.Gold),
	}
}

// Read decodes the merchant header and its items.
func (m *Merchant) Read(s *stream.Stream) error {
	var count int
	if err := m.headerSchema(&count).Read(s); err != nil {
		return err
	}
	if count < 0 || count > maxMerchantItems {
		return fmt.Errorf("%w: merchant item count %d", ErrInvalidContent, count)
	}
	m.Items = newItems(m.Book, count, false)
	if err := (stream.Schema{stream.Records("items", m.Items)}).Read(s); err != nil {
		return err
	}
	m.TrailingBytes = captureTrailing(s, m.Path, "merchant")
	return nil
}

// Write encodes the merchant.
func (m *Merchant) Write(s *stream.Stream) error {
	count := len(m.Items)
	if err := m.headerSchema(&count).Write(s); err != nil {
		return err
	}
	if err := (stream.Schema{stream.Records("items", m.Items)}).Write(s); err != nil {
		return err
	}
	return writeTrailing(s, m.TrailingBytes)
}

// ResetRestock moves the restock day so the merchant regenerates stock.
func (m *Merchant) ResetRestock(day int) {
	m.Day = day
}

// Replicate returns a deep copy.
func (m *Merchant) Replicate() *Merchant {
	c := *m
	c.Items = append([]Item(nil), m.Items...)
	c.TrailingBytes = append([]byte(nil), m.TrailingBytes...)
	return &c
}

// Equals reports whether both merchants produce identical bytes.
func (m *Merchant) Equals(o *Merchant) bool {
	return m.Book == o.Book && sameBytes(m, o)
}

// LoadMerchant reads a .mer file.
func LoadMerchant(path string, book Book) (*Merchant, error) {
	if !book.Valid() {
		return nil, loadError(path, fmt.Errorf("%w: %d", ErrUnknownBook, int(book)))
	}
	s, err := stream.Open(path)
	if err != nil {
		return nil, loadError(path, err)
	}
	defer s.Close()

	m := &Merchant{Book: book, Path: path}
	if err := m.Read(s); err != nil {
		return nil, loadError(path, err)
	}
	logger.Debug("loaded merchant", zap.String("path", path), zap.Int("items", len(m.Items)))
	return m, nil
}

// Save writes the merchant to path.
func (m *Merchant) Save(path string) error {
	s := stream.Create(path)
	if err := m.Write(s); err != nil {
		s.Close()
		return loadError(path, err)
	}
	if err := s.Close(); err != nil {
		return loadError(path, err)
	}
	m.Path = path
	return nil
}
