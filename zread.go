package zread

import (
	"errors"
	"io/fs"
	"math"
)

const (
	// DefaultBulkSize is the granularity of file reads and decode steps
	// used when no Config is given.
	DefaultBulkSize = 2 * 1024 * 1024

	// lookback is the number of contiguous bytes format detection and the
	// input stage rely on.
	lookback = 8

	// maxStalls bounds the number of consecutive decode steps that may
	// produce nothing without the backend signalling an end.
	maxStalls = 100
)

// Config holds stream configuration
type Config struct {
	// BulkSize is the size of every file read and of the output chunk
	// decoded for small requests. Both buffers of a stream are twice this
	// size. Must be at least 8 (default: 2MiB)
	BulkSize int
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		BulkSize: DefaultBulkSize,
	}
}

func (c *Config) validate() error {
	if c.BulkSize < lookback || c.BulkSize > math.MaxInt/2 {
		return ErrInvalidBulkSize
	}
	return nil
}

// Stats holds per-stream counters
type Stats struct {
	BytesIn  int64 // bytes read from the file
	BytesOut int64 // decoded bytes handed to the caller

	Refills   int64 // input stage refills
	Steps     int64 // decode steps
	BulkSteps int64 // decode steps written straight into the caller's slice
}

// Ratio returns BytesIn/BytesOut, i.e. the compressed size relative to the
// decoded size seen so far. A plain file reports about 1.
func (s Stats) Ratio() float64 {
	if s.BytesOut == 0 {
		return 0
	}
	return float64(s.BytesIn) / float64(s.BytesOut)
}

var (
	ErrInvalidBulkSize = errors.New("zread: bulk size must be at least 8 bytes")
	ErrBadHeader       = errors.New("zread: header rejected by decoder")
	ErrCorruptedData   = errors.New("zread: corrupted compressed data")
	ErrClosed          = fs.ErrClosed
)
