package zread

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"
)

var allFormats = []Format{Transparent, Gzip, Bzip2, Xz}

// generateTestData returns semi-compressible data (mix of patterns and
// counters).
func generateTestData(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		if i%4 == 0 {
			data[i] = byte(i % 256)
		} else {
			data[i] = byte(i % 64)
		}
	}
	return data
}

func generateHighlyCompressibleData(size int) []byte {
	data := make([]byte, size)
	pattern := []byte("The quick brown fox jumps over the lazy dog. ")
	for i := range data {
		data[i] = pattern[i%len(pattern)]
	}
	return data
}

// generateIncompressibleData returns pseudo-random bytes.
func generateIncompressibleData(size int) []byte {
	data := make([]byte, size)
	seed := uint64(12345)
	for i := range data {
		seed = seed*1103515245 + 12345
		data[i] = byte(seed >> 16)
	}
	return data
}

// compressBytes encodes data in format f. Transparent returns a copy.
func compressBytes(tb testing.TB, f Format, data []byte) []byte {
	tb.Helper()

	var buf bytes.Buffer
	var w io.WriteCloser
	var err error
	switch f {
	case Transparent:
		return bytes.Clone(data)
	case Gzip:
		w = gzip.NewWriter(&buf)
	case Bzip2:
		w, err = bzip2.NewWriter(&buf, &bzip2.WriterConfig{})
	case Xz:
		w, err = xz.NewWriter(&buf)
	default:
		tb.Fatalf("No compressor for format %v", f)
	}
	if err != nil {
		tb.Fatalf("Failed to create %v compressor: %v", f, err)
	}
	if _, err := w.Write(data); err != nil {
		tb.Fatalf("Failed to compress %v data: %v", f, err)
	}
	if err := w.Close(); err != nil {
		tb.Fatalf("Failed to close %v compressor: %v", f, err)
	}
	return buf.Bytes()
}

// writeTemp writes data to a fresh file under the test's temp dir and
// returns its path.
func writeTemp(tb testing.TB, name string, data []byte) string {
	tb.Helper()
	path := filepath.Join(tb.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		tb.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

// openBytes writes data to a temp file and opens it as a stream.
func openBytes(tb testing.TB, data []byte, bulk int) *Stream {
	tb.Helper()
	s, err := OpenFile(writeTemp(tb, "input", data), &Config{BulkSize: bulk})
	if err != nil {
		tb.Fatalf("Failed to open stream: %v", err)
	}
	tb.Cleanup(func() { s.Close() })
	return s
}

// readAllWith drains s with reads cycling through sizes and checks that
// every short read coincides with the end of the stream.
func readAllWith(tb testing.TB, s *Stream, sizes []int) []byte {
	tb.Helper()

	var out []byte
	for i := 0; !s.AtEnd(); i++ {
		if i > 10_000_000 {
			tb.Fatalf("Stream did not end after %d reads", i)
		}
		want := sizes[i%len(sizes)]
		p := make([]byte, want)
		n, err := s.Read(p)
		if err != nil && !errors.Is(err, io.EOF) {
			tb.Fatalf("Read failed: %v", err)
		}
		if n < want && !s.AtEnd() {
			tb.Fatalf("Short read of %d/%d bytes before end of stream", n, want)
		}
		out = append(out, p[:n]...)
	}
	return out
}
