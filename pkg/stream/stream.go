// Package stream provides typed, position-tracked reading and writing of the
// primitive values used by the game's save files.
//
// All integers are little-endian. Strings are opaque byte sequences terminated
// by CRLF on disk; the terminator is not part of the returned value.
package stream

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
)

// Stream errors.
var (
	// ErrFirstItemEOF is returned when a read begins exactly at the end of
	// the data. Repeat-until-EOF loops treat it as clean termination.
	ErrFirstItemEOF = errors.New("end of data")
	// ErrTruncated is returned when a read begins with data remaining but
	// would extend past the end.
	ErrTruncated = errors.New("truncated data")
	// ErrStringTooLong is returned when no CRLF is found within MaxStringLen bytes.
	ErrStringTooLong = errors.New("string exceeds maximum length")
	// ErrRange is returned when a value does not fit its on-disk width.
	ErrRange = errors.New("value out of range")
	// ErrMode is returned when reading a write stream or writing a read stream.
	ErrMode = errors.New("wrong stream mode")
)

// MaxStringLen caps the CRLF scan.
const MaxStringLen = 4096

// Mode is the direction of a stream.
type Mode int

// Stream modes.
const (
	ModeRead Mode = iota
	ModeWrite
)

// String returns the mode name.
func (m Mode) String() string {
	if m == ModeWrite {
		return "write"
	}
	return "read"
}

// Stream is a byte source or sink in exactly one mode.
type Stream struct {
	mode   Mode
	path   string
	data   []byte
	offset int
	buf    bytes.Buffer
	closed bool
}

// NewReader returns a read stream over data.
func NewReader(data []byte) *Stream {
	return &Stream{mode: ModeRead, data: data}
}

// Open loads the whole file at path into a read stream.
func Open(path string) (*Stream, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return &Stream{mode: ModeRead, path: path, data: data}, nil
}

// NewWriter returns an in-memory write stream.
func NewWriter() *Stream {
	return &Stream{mode: ModeWrite}
}

// Create returns a write stream whose contents replace the file at path
// when the stream is closed.
func Create(path string) *Stream {
	return &Stream{mode: ModeWrite, path: path}
}

// Close releases the stream. A file-backed write stream is flushed to disk.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.mode == ModeWrite && s.path != "" {
		if err := os.WriteFile(s.path, s.buf.Bytes(), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", s.path, err)
		}
	}
	s.data = nil
	return nil
}

// Mode returns the stream direction.
func (s *Stream) Mode() Mode { return s.mode }

// Path returns the backing file path, if any.
func (s *Stream) Path() string { return s.path }

// Offset returns the current byte position.
func (s *Stream) Offset() int {
	if s.mode == ModeWrite {
		return s.buf.Len()
	}
	return s.offset
}

// Size returns the total size of a read stream.
func (s *Stream) Size() int {
	if s.mode == ModeWrite {
		return s.buf.Len()
	}
	return len(s.data)
}

// Remaining returns the number of unread bytes.
func (s *Stream) Remaining() int {
	if s.mode == ModeWrite {
		return 0
	}
	return len(s.data) - s.offset
}

// EOF reports whether the read offset has reached the end of the data.
func (s *Stream) EOF() bool {
	return s.mode == ModeRead && s.offset == len(s.data)
}

// Bytes returns everything written so far.
func (s *Stream) Bytes() []byte {
	return s.buf.Bytes()
}

// Peek returns up to n bytes without advancing.
func (s *Stream) Peek(n int) []byte {
	if s.mode != ModeRead {
		return nil
	}
	end := s.offset + n
	if end > len(s.data) {
		end = len(s.data)
	}
	return s.data[s.offset:end]
}

// Seek moves the read offset to an absolute position.
func (s *Stream) Seek(offset int) error {
	if s.mode != ModeRead {
		return ErrMode
	}
	if offset < 0 || offset > len(s.data) {
		return fmt.Errorf("%w: seek to %d of %d", ErrTruncated, offset, len(s.data))
	}
	s.offset = offset
	return nil
}

func (s *Stream) take(n int) ([]byte, error) {
	if s.mode != ModeRead {
		return nil, ErrMode
	}
	if s.offset == len(s.data) {
		return nil, ErrFirstItemEOF
	}
	if s.offset+n > len(s.data) {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d",
			ErrTruncated, n, s.offset, len(s.data)-s.offset)
	}
	b := s.data[s.offset : s.offset+n]
	s.offset += n
	return b, nil
}

// ReadU8 reads an unsigned byte.
func (s *Stream) ReadU8() (int, error) {
	b, err := s.take(1)
	if err != nil {
		return 0, err
	}
	return int(b[0]), nil
}

// ReadI8 reads a signed byte.
func (s *Stream) ReadI8() (int, error) {
	b, err := s.take(1)
	if err != nil {
		return 0, err
	}
	return int(int8(b[0])), nil
}

// ReadU16 reads an unsigned 16-bit integer.
func (s *Stream) ReadU16() (int, error) {
	b, err := s.take(2)
	if err != nil {
		return 0, err
	}
	return int(binary.LittleEndian.Uint16(b)), nil
}

// ReadI16 reads a signed 16-bit integer.
func (s *Stream) ReadI16() (int, error) {
	b, err := s.take(2)
	if err != nil {
		return 0, err
	}
	return int(int16(binary.LittleEndian.Uint16(b))), nil
}

// ReadU32 reads an unsigned 32-bit integer.
func (s *Stream) ReadU32() (int, error) {
	b, err := s.take(4)
	if err != nil {
		return 0, err
	}
	return int(binary.LittleEndian.Uint32(b)), nil
}

// ReadI32 reads a signed 32-bit integer.
func (s *Stream) ReadI32() (int, error) {
	b, err := s.take(4)
	if err != nil {
		return 0, err
	}
	return int(int32(binary.LittleEndian.Uint32(b))), nil
}

// ReadF64 reads an IEEE-754 double.
func (s *Stream) ReadF64() (float64, error) {
	b, err := s.take(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

// ReadStr reads bytes up to and including the next CRLF and returns the bytes
// before the terminator.
func (s *Stream) ReadStr() (string, error) {
	if s.mode != ModeRead {
		return "", ErrMode
	}
	if s.offset == len(s.data) {
		return "", ErrFirstItemEOF
	}
	window := s.data[s.offset:]
	if len(window) > MaxStringLen+2 {
		window = window[:MaxStringLen+2]
	}
	idx := bytes.Index(window, []byte("\r\n"))
	if idx < 0 {
		if s.offset+len(window) == len(s.data) {
			return "", fmt.Errorf("%w: unterminated string at offset %d", ErrTruncated, s.offset)
		}
		return "", fmt.Errorf("%w: at offset %d", ErrStringTooLong, s.offset)
	}
	str := string(window[:idx])
	s.offset += idx + 2
	return str, nil
}

func (s *Stream) put(b []byte) error {
	if s.mode != ModeWrite {
		return ErrMode
	}
	s.buf.Write(b)
	return nil
}

func checkRange(v, min, max int) error {
	if v < min || v > max {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrRange, v, min, max)
	}
	return nil
}

// WriteU8 writes an unsigned byte.
func (s *Stream) WriteU8(v int) error {
	if err := checkRange(v, 0, math.MaxUint8); err != nil {
		return err
	}
	return s.put([]byte{byte(v)})
}

// WriteI8 writes a signed byte.
func (s *Stream) WriteI8(v int) error {
	if err := checkRange(v, math.MinInt8, math.MaxInt8); err != nil {
		return err
	}
	return s.put([]byte{byte(int8(v))})
}

// WriteU16 writes an unsigned 16-bit integer.
func (s *Stream) WriteU16(v int) error {
	if err := checkRange(v, 0, math.MaxUint16); err != nil {
		return err
	}
	return s.put(binary.LittleEndian.AppendUint16(nil, uint16(v)))
}

// WriteI16 writes a signed 16-bit integer.
func (s *Stream) WriteI16(v int) error {
	if err := checkRange(v, math.MinInt16, math.MaxInt16); err != nil {
		return err
	}
	return s.put(binary.LittleEndian.AppendUint16(nil, uint16(int16(v))))
}

// WriteU32 writes an unsigned 32-bit integer.
func (s *Stream) WriteU32(v int) error {
	if err := checkRange(v, 0, math.MaxUint32); err != nil {
		return err
	}
	return s.put(binary.LittleEndian.AppendUint32(nil, uint32(v)))
}

// WriteI32 writes a signed 32-bit integer.
func (s *Stream) WriteI32(v int) error {
	if err := checkRange(v, math.MinInt32, math.MaxInt32); err != nil {
		return err
	}
	return s.put(binary.LittleEndian.AppendUint32(nil, uint32(int32(v))))
}

// WriteF64 writes an IEEE-754 double.
func (s *Stream) WriteF64(v float64) error {
	return s.put(binary.LittleEndian.AppendUint64(nil, math.Float64bits(v)))
}

// WriteStr writes str followed by CRLF.
func (s *Stream) WriteStr(str string) error {
	if len(str) > MaxStringLen {
		return fmt.Errorf("%w: %d bytes", ErrStringTooLong, len(str))
	}
	if s.mode != ModeWrite {
		return ErrMode
	}
	s.buf.WriteString(str)
	s.buf.WriteString("\r\n")
	return nil
}
