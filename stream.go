package zread

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/absfs/absfs"
	log "github.com/sirupsen/logrus"
)

// FileSystem is the part of absfs.Filer a Stream needs to open its file.
type FileSystem interface {
	OpenFile(name string, flag int, perm fs.FileMode) (absfs.File, error)
}

type state int

const (
	stateReading        state = iota // the file has more bytes
	stateInputExhausted              // the file is drained, the decoder may still have output
	stateDone                        // no more output, ever
)

// Stream reads the decoded content of one file. It owns the file, both
// buffers and the decoder until Close. A Stream is not safe for concurrent
// use.
type Stream struct {
	name   string
	format Format
	bulk   int

	file io.Closer
	src  *countingReader
	in   *stage // nil for Transparent
	out  span
	dec  decoder

	state  state
	ended  bool  // the decoder has given its terminal signal
	err    error // why the stream ended early, if it did
	stalls int

	stats  Stats
	closed bool
}

// Open opens the named file with the default configuration.
func Open(name string) (*Stream, error) {
	return OpenFile(name, nil)
}

// OpenFile opens the named file from the local file system. A nil config
// means DefaultConfig().
func OpenFile(name string, config *Config) (*Stream, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	return newStream(name, f, config)
}

// OpenFS opens the named file through fsys. A nil config means
// DefaultConfig().
func OpenFS(fsys FileSystem, name string, config *Config) (*Stream, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	f, err := fsys.OpenFile(name, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	return newStream(name, f, config)
}

// newStream reads the first block of f, picks the decoder and sets up the
// buffers. On error f is closed.
func newStream(name string, f io.ReadCloser, config *Config) (*Stream, error) {
	bulk := config.BulkSize
	s := &Stream{
		name: name,
		bulk: bulk,
		file: f,
		src:  &countingReader{r: f},
	}

	arena := make([]byte, 2*bulk)
	n, err := io.ReadFull(s.src, arena[:bulk])
	exhausted := false
	switch err {
	case nil:
	case io.EOF, io.ErrUnexpectedEOF:
		exhausted = true
	default:
		f.Close()
		return nil, &fs.PathError{Op: "read", Path: name, Err: err}
	}

	s.format = Detect(arena[:n])
	if s.format == Transparent {
		s.out = span{buf: arena, end: n}
		s.dec = &rawDecoder{src: s.src}
		if exhausted {
			s.ended = true
		}
	} else {
		s.in = newStage(arena, n, bulk, s.src, exhausted)
		s.out = span{buf: make([]byte, 2*bulk)}
		dec, err := newDecoder(s.format, s.in)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("zread: open %s as %v: %w: %w", name, s.format, ErrBadHeader, err)
		}
		s.dec = dec
	}
	s.settle()

	log.WithFields(log.Fields{"f": "zread.Open", "fn": name, "format": s.format}).Debug("stream opened")
	return s, nil
}

// Read fills p with decoded bytes. It returns len(p) unless the stream
// ends during the call. Once the stream has ended Read returns 0, io.EOF,
// including when it ended on a decoding error; see Err.
func (s *Stream) Read(p []byte) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	if s.state == stateDone {
		return 0, io.EOF
	}

	n := s.out.drain(p)

	// Large requests skip the output arena.
	for !s.ended && len(p)-n > 2*s.bulk {
		n += s.step(p[n:])
		s.stats.BulkSteps++
	}

	for !s.ended && n < len(p) {
		s.out.reset(s.step(s.out.buf[:s.bulk]))
		n += s.out.drain(p[n:])
	}

	s.settle()
	s.stats.BytesOut += int64(n)
	if n == 0 && s.state == stateDone {
		return 0, io.EOF
	}
	return n, nil
}

// step runs the decoder once into dst, refilling the input stage first when
// it runs low. A step that neither produces output nor consumes input is a
// stall; once the file is exhausted a single stall is final.
func (s *Stream) step(dst []byte) int {
	finishing := false
	var consumed int64
	if s.in != nil {
		if s.in.low() {
			s.in.refill()
		}
		finishing = s.in.exhausted
		consumed = s.in.consumed
	}

	n, sig, err := s.dec.decode(dst)
	s.stats.Steps++

	switch sig {
	case sigStreamEnd:
		s.ended = true
	case sigError:
		s.fail(err)
	case sigContinue:
		if n > 0 || (s.in != nil && s.in.consumed != consumed) {
			s.stalls = 0
			break
		}
		s.stalls++
		switch {
		case finishing:
			s.fail(io.ErrUnexpectedEOF)
		case s.stalls >= maxStalls:
			s.fail(io.ErrNoProgress)
		}
	}
	return n
}

func (s *Stream) fail(err error) {
	s.ended = true
	s.err = fmt.Errorf("zread: %s: %v: %w: %w", s.name, s.format, ErrCorruptedData, err)
}

// settle advances the state machine. Transitions only move forward.
func (s *Stream) settle() {
	if s.state == stateReading && s.inputExhausted() {
		s.state = stateInputExhausted
	}
	if s.state != stateDone && s.ended && s.out.buffered() == 0 {
		s.state = stateDone
		if s.err != nil {
			log.WithFields(log.Fields{"f": "Stream.settle", "fn": s.name, "format": s.format}).
				WithError(s.err).Debug("stream ended early")
		}
	}
}

func (s *Stream) inputExhausted() bool {
	if s.in != nil {
		return s.in.exhausted
	}
	// A raw read only ends when the file does.
	return s.ended
}

// AtEnd reports whether the stream will produce no more bytes.
func (s *Stream) AtEnd() bool {
	return s.state == stateDone
}

// Err returns the decoding error that ended the stream, or nil if the
// stream is still going or ended cleanly. The returned error wraps
// ErrCorruptedData.
func (s *Stream) Err() error {
	if s.state != stateDone {
		return nil
	}
	return s.err
}

// Format returns the format detected when the stream was opened.
func (s *Stream) Format() Format {
	return s.format
}

// Name returns the name the stream was opened with.
func (s *Stream) Name() string {
	return s.name
}

// Stats returns the stream's counters.
func (s *Stream) Stats() Stats {
	st := s.stats
	st.BytesIn = s.src.n
	if s.in != nil {
		st.Refills = s.in.refills
	}
	return st
}

// Close finalises the decoder, closes the file and drops both buffers.
// Calling Close more than once is a no-op.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var endErr error
	if s.dec != nil {
		// A decoder that already failed reports the same failure again.
		if err := s.dec.end(); err != nil && s.err == nil {
			endErr = err
		}
	}
	closeErr := s.file.Close()

	s.dec = nil
	s.in = nil
	s.out = span{}
	return errors.Join(endErr, closeErr)
}
