package pak

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/yeka/zip"

	"github.com/Faultbox/eschalon-utils/pkg/encoding"
)

// Datapak key material, injected at build time with
//
//	-ldflags "-X github.com/Faultbox/eschalon-utils/pkg/pak.Book2Key=... -X ..."
//
// Both values are base64. A build without them can still read directory
// installs and gfx.pak.
var (
	Book2Key  string
	Book2Blob string
	Book3Key  string
	Book3Blob string
)

// KeyMaterial returns the decoded key and blob for book 2 or 3.
func KeyMaterial(book int) (key, blob []byte, err error) {
	var k, b string
	switch book {
	case 2:
		k, b = Book2Key, Book2Blob
	case 3:
		k, b = Book3Key, Book3Blob
	}
	if k == "" || b == "" {
		return nil, nil, fmt.Errorf("%w for book %d", ErrNoKey, book)
	}
	if key, err = base64.StdEncoding.DecodeString(k); err != nil {
		return nil, nil, fmt.Errorf("decoding key: %w", err)
	}
	if blob, err = base64.StdEncoding.DecodeString(b); err != nil {
		return nil, nil, fmt.Errorf("decoding blob: %w", err)
	}
	return key, blob, nil
}

// DecryptPassword recovers the datapak password from blob: AES-CBC with the
// first block of blob as IV, then PKCS#7 unpadding.
func DecryptPassword(key, blob []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	if len(blob) < 2*aes.BlockSize || len(blob)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: blob length %d", ErrBadPadding, len(blob))
	}
	iv, body := blob[:aes.BlockSize], blob[aes.BlockSize:]
	plain := make([]byte, len(body))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, body)

	pad := int(plain[len(plain)-1])
	if pad == 0 || pad > aes.BlockSize || pad > len(plain) {
		return "", fmt.Errorf("%w: pad byte %d", ErrBadPadding, pad)
	}
	if !bytes.Equal(plain[len(plain)-pad:], bytes.Repeat([]byte{byte(pad)}, pad)) {
		return "", ErrBadPadding
	}
	return string(plain[:len(plain)-pad]), nil
}

// SealPassword is the inverse of DecryptPassword, used to build key
// material for tests and custom installs.
func SealPassword(key, iv []byte, password string) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	if len(iv) != aes.BlockSize {
		return nil, fmt.Errorf("iv must be %d bytes", aes.BlockSize)
	}
	pad := aes.BlockSize - len(password)%aes.BlockSize
	plain := append([]byte(password), bytes.Repeat([]byte{byte(pad)}, pad)...)
	out := make([]byte, aes.BlockSize+len(plain))
	copy(out, iv)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[aes.BlockSize:], plain)
	return out, nil
}

// ZipArchive is a datapak: a zip whose members may be encrypted with a
// single password. The zip is reopened for every Read.
type ZipArchive struct {
	path     string
	password string
	entries  map[string]string // normalized -> member name
	sizes    map[string]uint64
}

// OpenZip indexes the datapak at path.
func OpenZip(path, password string) (*ZipArchive, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening datapak: %w", err)
	}
	defer rc.Close()

	a := &ZipArchive{
		path:     path,
		password: password,
		entries:  make(map[string]string, len(rc.File)),
		sizes:    make(map[string]uint64, len(rc.File)),
	}
	for _, f := range rc.File {
		if f.FileInfo().IsDir() {
			continue
		}
		n := encoding.NormalizePakPath(f.Name)
		a.entries[n] = f.Name
		a.sizes[n] = f.UncompressedSize64
	}
	return a, nil
}

// OpenBookZip opens a datapak using the build-time key material for book.
func OpenBookZip(path string, book int) (*ZipArchive, error) {
	key, blob, err := KeyMaterial(book)
	if err != nil {
		return nil, err
	}
	password, err := DecryptPassword(key, blob)
	if err != nil {
		return nil, fmt.Errorf("recovering datapak password: %w", err)
	}
	return OpenZip(path, password)
}

// Kind returns "datapak".
func (a *ZipArchive) Kind() string { return "datapak" }

// Path returns the archive location.
func (a *ZipArchive) Path() string { return a.path }

// List returns all member names.
func (a *ZipArchive) List() []string { return sortedKeys(a.entries) }

// Contains checks if a member exists.
func (a *ZipArchive) Contains(name string) bool {
	_, ok := a.entries[encoding.NormalizePakPath(name)]
	return ok
}

// Size returns the uncompressed size of name.
func (a *ZipArchive) Size(name string) (uint64, bool) {
	s, ok := a.sizes[encoding.NormalizePakPath(name)]
	return s, ok
}

// Read extracts a member, decrypting it when needed.
func (a *ZipArchive) Read(name string) ([]byte, error) {
	member, ok := a.entries[encoding.NormalizePakPath(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	rc, err := zip.OpenReader(a.path)
	if err != nil {
		return nil, fmt.Errorf("opening datapak: %w", err)
	}
	defer rc.Close()

	for _, f := range rc.File {
		if f.Name != member {
			continue
		}
		if f.IsEncrypted() {
			f.SetPassword(a.password)
		}
		r, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		defer r.Close()
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, name, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Close is a no-op; no file handle is held between reads.
func (a *ZipArchive) Close() error { return nil }

// BuildZip writes files into a zip, encrypting each with password when it is
// non-empty.
func BuildZip(w io.Writer, password string, files []NamedFile) error {
	zw := zip.NewWriter(w)
	for _, f := range files {
		var (
			fw  io.Writer
			err error
		)
		if password != "" {
			fw, err = zw.Encrypt(f.Name, password, zip.AES256Encryption)
		} else {
			fw, err = zw.Create(f.Name)
		}
		if err != nil {
			return err
		}
		if _, err := fw.Write(f.Data); err != nil {
			return err
		}
	}
	return zw.Close()
}
