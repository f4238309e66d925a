// Package encoding converts the opaque byte strings found in save files and
// asset paks to and from displayable UTF-8.
package encoding

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Display returns s as UTF-8 for printing. Valid UTF-8 is returned as is;
// anything else is decoded as Windows-1252, the encoding the games write.
func Display(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return Windows1252ToUTF8([]byte(s))
}

// Windows1252ToUTF8 decodes Windows-1252 bytes. Returns the original bytes
// as a string if conversion fails.
func Windows1252ToUTF8(data []byte) string {
	result, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
	if err != nil {
		return string(data)
	}
	return string(result)
}

// UTF8ToWindows1252 encodes s for storage. Returns the original bytes if s
// holds characters Windows-1252 cannot represent.
func UTF8ToWindows1252(s string) []byte {
	result, _, err := transform.Bytes(charmap.Windows1252.NewEncoder(), []byte(s))
	if err != nil {
		return []byte(s)
	}
	return result
}

// NormalizePakPath normalizes an archive member path for case-insensitive
// lookup.
func NormalizePakPath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	path = strings.TrimPrefix(path, "./")
	return strings.ToLower(path)
}

// TrimNullBytes removes trailing null bytes from a byte slice.
func TrimNullBytes(data []byte) []byte {
	return bytes.TrimRight(data, "\x00")
}

// FixedString converts a NUL-padded fixed-size field to a string, stopping
// at the first NUL.
func FixedString(data []byte) string {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}
	return string(data)
}
