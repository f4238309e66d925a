package pak

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/Faultbox/eschalon-utils/pkg/encoding"
)

const (
	gfxMagic      = "!PAK"
	gfxHeaderSize = 20
	gfxRecordSize = 272
	gfxNameSize   = 256

	// maxGfxFiles bounds the header's file count; Book I ships a few
	// thousand.
	maxGfxFiles = 1 << 16
)

// GfxHeader is the fixed header of a gfx.pak file.
type GfxHeader struct {
	Magic     [4]byte
	Unknown1  uint16
	Unknown2  uint16
	FileCount uint32
	IndexSize uint32 // compressed directory size
	Unknown3  uint32
}

// GfxEntry is one directory record.
type GfxEntry struct {
	Name           string
	CompressedSize uint32
	Offset         uint32 // absolute
	Size           uint32
	Unknown        uint32
}

// GfxArchive is an opened Book I gfx.pak. The directory is read once; each
// Read reopens the file.
type GfxArchive struct {
	path    string
	header  GfxHeader
	entries map[string]*GfxEntry
}

// OpenGfx reads the header and directory of a gfx.pak file.
func OpenGfx(path string) (*GfxArchive, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}

	a := &GfxArchive{path: path, entries: make(map[string]*GfxEntry)}
	if err := a.readHeader(file); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if err := a.checkHeader(info.Size()); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if err := a.readIndex(file); err != nil {
		return nil, fmt.Errorf("reading index: %w", err)
	}
	return a, nil
}

func (a *GfxArchive) readHeader(r io.Reader) error {
	if err := binary.Read(r, binary.LittleEndian, &a.header); err != nil {
		return err
	}
	if string(a.header.Magic[:]) != gfxMagic {
		return fmt.Errorf("%w: %q", ErrInvalidMagic, a.header.Magic[:])
	}
	return nil
}

// checkHeader rejects counts that cannot fit a file of size bytes before
// anything is allocated from them.
func (a *GfxArchive) checkHeader(size int64) error {
	if int64(a.header.IndexSize) > size-gfxHeaderSize {
		return fmt.Errorf("%w: directory of %d bytes in a %d byte file", ErrCorrupt, a.header.IndexSize, size)
	}
	if a.header.FileCount > maxGfxFiles {
		return fmt.Errorf("%w: %d files exceeds %d", ErrCorrupt, a.header.FileCount, maxGfxFiles)
	}
	return nil
}

func (a *GfxArchive) readIndex(r io.Reader) error {
	compressed := make([]byte, a.header.IndexSize)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return fmt.Errorf("%w: short directory: %v", ErrCorrupt, err)
	}
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	defer zr.Close()

	rec := make([]byte, gfxRecordSize)
	for i := 0; i < int(a.header.FileCount); i++ {
		if _, err := io.ReadFull(zr, rec); err != nil {
			return fmt.Errorf("%w: directory holds %d of %d records: %v", ErrCorrupt, i, a.header.FileCount, err)
		}
		e := &GfxEntry{
			CompressedSize: binary.LittleEndian.Uint32(rec[0:]),
			Offset:         binary.LittleEndian.Uint32(rec[4:]),
			Size:           binary.LittleEndian.Uint32(rec[8:]),
			Unknown:        binary.LittleEndian.Uint32(rec[12:]),
			Name:           encoding.FixedString(rec[16 : 16+gfxNameSize]),
		}
		a.entries[encoding.NormalizePakPath(e.Name)] = e
	}
	return nil
}

// Kind returns "gfx.pak".
func (a *GfxArchive) Kind() string { return "gfx.pak" }

// Path returns the archive location.
func (a *GfxArchive) Path() string { return a.path }

// Header returns the archive header.
func (a *GfxArchive) Header() GfxHeader { return a.header }

// List returns all file names in the archive.
func (a *GfxArchive) List() []string { return sortedKeys(a.entries) }

// Contains checks if a file exists.
func (a *GfxArchive) Contains(name string) bool {
	_, ok := a.entries[encoding.NormalizePakPath(name)]
	return ok
}

// Entry returns the directory record for name.
func (a *GfxArchive) Entry(name string) (*GfxEntry, bool) {
	e, ok := a.entries[encoding.NormalizePakPath(name)]
	return e, ok
}

// Read inflates a file from the archive.
func (a *GfxArchive) Read(name string) ([]byte, error) {
	entry, ok := a.entries[encoding.NormalizePakPath(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	file, err := os.Open(a.path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	compressed := make([]byte, entry.CompressedSize)
	if _, err := file.ReadAt(compressed, int64(entry.Offset)); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, name, err)
	}

	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, name, err)
	}
	defer zr.Close()

	result := make([]byte, entry.Size)
	if _, err := io.ReadFull(zr, result); err != nil {
		return nil, fmt.Errorf("%w: %s inflates short: %v", ErrCorrupt, name, err)
	}
	return result, nil
}

// Close is a no-op; no file handle is held between reads.
func (a *GfxArchive) Close() error { return nil }

// NamedFile is an input to BuildGfx.
type NamedFile struct {
	Name string
	Data []byte
}

// BuildGfx produces a gfx.pak image holding files in the given order.
func BuildGfx(files []NamedFile) ([]byte, error) {
	var body bytes.Buffer
	table := make([]byte, len(files)*gfxRecordSize)

	// Entry data follows the header and compressed directory, whose size is
	// only known after the directory is built, so offsets are relative first.
	rel := make([]uint32, len(files))
	for i, f := range files {
		if len(f.Name) >= gfxNameSize {
			return nil, fmt.Errorf("name too long: %s", f.Name)
		}
		rel[i] = uint32(body.Len())
		zw := zlib.NewWriter(&body)
		if _, err := zw.Write(f.Data); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		rec := table[i*gfxRecordSize:]
		binary.LittleEndian.PutUint32(rec[0:], uint32(body.Len())-rel[i])
		binary.LittleEndian.PutUint32(rec[8:], uint32(len(f.Data)))
		copy(rec[16:16+gfxNameSize], f.Name)
	}

	compressIndex := func() ([]byte, error) {
		var idx bytes.Buffer
		zw := zlib.NewWriter(&idx)
		if _, err := zw.Write(table); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		return idx.Bytes(), nil
	}

	// Absolute offsets change the directory bytes and possibly its
	// compressed size; iterate until the size is stable.
	var index []byte
	size := -1
	for range 8 {
		for i := range files {
			binary.LittleEndian.PutUint32(table[i*gfxRecordSize+4:], uint32(gfxHeaderSize+max(size, 0))+rel[i])
		}
		var err error
		if index, err = compressIndex(); err != nil {
			return nil, err
		}
		if len(index) == size {
			break
		}
		size = len(index)
	}
	if len(index) != size {
		return nil, fmt.Errorf("%w: directory size did not settle", ErrCorrupt)
	}

	var out bytes.Buffer
	hdr := GfxHeader{FileCount: uint32(len(files)), IndexSize: uint32(len(index))}
	copy(hdr.Magic[:], gfxMagic)
	if err := binary.Write(&out, binary.LittleEndian, hdr); err != nil {
		return nil, err
	}
	out.Write(index)
	out.Write(body.Bytes())
	return out.Bytes(), nil
}
