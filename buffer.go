package zread

import (
	"fmt"
	"io"
)

// span is the decoded-output arena. Bytes in [head, end) have been decoded
// but not yet handed to the caller.
type span struct {
	buf       []byte
	head, end int
}

func (b *span) buffered() int { return b.end - b.head }

func (b *span) unread() []byte { return b.buf[b.head:b.end] }

// drain copies buffered bytes into p and returns how many were copied.
func (b *span) drain(p []byte) int {
	n := copy(p, b.unread())
	b.advance(n)
	return n
}

func (b *span) advance(n int) {
	if n < 0 || b.head+n > b.end {
		panic(fmt.Sprintf("zread: advance %d past buffered %d", n, b.buffered()))
	}
	b.head += n
}

// reset marks the first n bytes of the arena as freshly decoded.
func (b *span) reset(n int) {
	if n < 0 || n > len(b.buf) {
		panic(fmt.Sprintf("zread: reset to %d outside arena of %d", n, len(b.buf)))
	}
	b.head, b.end = 0, n
}

// stage holds compressed input between file reads and decode steps. The
// unconsumed window is [next, end). Codecs read from it directly; being an
// io.ByteReader it keeps them from stacking their own bufio on top.
type stage struct {
	buf       []byte
	next, end int
	bulk      int
	src       io.Reader

	exhausted bool  // the file returned fewer bytes than asked
	err       error // read error other than EOF, handed to the codec
	consumed  int64
	refills   int64
}

func newStage(arena []byte, n, bulk int, src io.Reader, exhausted bool) *stage {
	return &stage{buf: arena, end: n, bulk: bulk, src: src, exhausted: exhausted}
}

func (s *stage) avail() int { return s.end - s.next }

// low reports whether a refill is due before the next decode step.
func (s *stage) low() bool { return s.avail() < lookback && !s.exhausted }

// refill moves the residual window (never more than lookback bytes when
// called from a decode step) to the arena start and appends one bulk block
// from the file.
func (s *stage) refill() {
	if s.exhausted {
		return
	}
	rem := s.avail()
	if rem > lookback {
		panic(fmt.Sprintf("zread: refill with %d bytes still staged", rem))
	}
	copy(s.buf[:rem], s.buf[s.next:s.end])
	s.next, s.end = 0, rem

	n, err := io.ReadFull(s.src, s.buf[rem:rem+s.bulk])
	s.end += n
	s.refills++
	switch err {
	case nil:
	case io.EOF, io.ErrUnexpectedEOF:
		s.exhausted = true
	default:
		s.exhausted = true
		s.err = err
	}
}

// fetch makes at least one byte available if the file still has any.
func (s *stage) fetch() error {
	if s.avail() > 0 {
		return nil
	}
	s.refill()
	if s.avail() > 0 {
		return nil
	}
	if s.err != nil {
		return s.err
	}
	return io.EOF
}

func (s *stage) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := s.fetch(); err != nil {
		return 0, err
	}
	n := copy(p, s.buf[s.next:s.end])
	s.next += n
	s.consumed += int64(n)
	return n, nil
}

func (s *stage) ReadByte() (byte, error) {
	if err := s.fetch(); err != nil {
		return 0, err
	}
	c := s.buf[s.next]
	s.next++
	s.consumed++
	return c, nil
}

// countingReader tallies the bytes pulled from the file.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
