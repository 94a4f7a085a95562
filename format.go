package zread

import (
	"encoding/binary"
	"path/filepath"
	"strings"
)

// Format identifies the encoding of a stream
type Format int

const (
	Transparent Format = iota // plain bytes, passed through
	Gzip
	Bzip2
	Xz
)

var formatNames = [...]string{
	Transparent: "none",
	Gzip:        "gzip",
	Bzip2:       "bzip2",
	Xz:          "xz",
}

var formatExtensions = [...]string{
	Transparent: "",
	Gzip:        ".gz",
	Bzip2:       ".bz2",
	Xz:          ".xz",
}

func (f Format) String() string {
	if f < 0 || int(f) >= len(formatNames) {
		return "unknown"
	}
	return formatNames[f]
}

// Extension returns the conventional file extension for f, or "" for
// Transparent.
func (f Format) Extension() string {
	if f < 0 || int(f) >= len(formatExtensions) {
		return ""
	}
	return formatExtensions[f]
}

// magics is checked in order against the first 8 bytes read as a
// little-endian integer; the first masked match wins.
var magics = [...]struct {
	format      Format
	magic, mask uint64
}{
	{Gzip, 0x000000088b1f, 0x000000ffffff},  // 1f 8b 08
	{Bzip2, 0x000000685a42, 0x000000ffffff}, // "BZh"
	{Xz, 0x005a587a37fd, 0xffffffffffff},    // fd "7zXZ" 00
}

// Detect returns the format announced by the leading bytes of a file.
// Fewer than 8 bytes, or no matching magic, yields Transparent.
func Detect(head []byte) Format {
	if len(head) < lookback {
		return Transparent
	}
	h := binary.LittleEndian.Uint64(head)
	for _, m := range magics {
		if h&m.mask == m.magic {
			return m.format
		}
	}
	return Transparent
}

var reverseExtensionMap = map[string]Format{
	".gz":   Gzip,
	".gzip": Gzip,
	".tgz":  Gzip,
	".bz2":  Bzip2,
	".tbz2": Bzip2,
	".xz":   Xz,
	".txz":  Xz,
}

// FormatFromExtension guesses a format from a file name. It is advisory
// only: streams always trust the magic bytes.
func FormatFromExtension(name string) (Format, bool) {
	f, ok := reverseExtensionMap[strings.ToLower(filepath.Ext(name))]
	return f, ok
}
