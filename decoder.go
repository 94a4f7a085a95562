package zread

import (
	"fmt"
	"io"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"
)

// signal is the outcome of one decode step.
type signal int

const (
	sigContinue signal = iota
	sigStreamEnd
	sigError
)

// decoder is one incremental decompression backend. The set of
// implementations is closed: rawDecoder, gzipDecoder, bzip2Decoder and
// xzDecoder, picked once by newDecoder.
type decoder interface {
	// decode fills dst with as much output as one step yields.
	decode(dst []byte) (int, signal, error)
	// end releases codec state. It is called exactly once, by Stream.Close.
	end() error
}

// newDecoder initialises the backend for a compressed format on top of the
// input stage. Header errors surface here.
func newDecoder(f Format, in *stage) (decoder, error) {
	switch f {
	case Gzip:
		return newGzipDecoder(in)
	case Bzip2:
		return newBzip2Decoder(in)
	case Xz:
		return newXzDecoder(in)
	default:
		return nil, fmt.Errorf("zread: no decoder for format %v", f)
	}
}

// rawDecoder reads the file straight into the destination.
type rawDecoder struct {
	src io.Reader
}

func (d *rawDecoder) decode(dst []byte) (int, signal, error) {
	n, err := io.ReadFull(d.src, dst)
	switch err {
	case nil:
		return n, sigContinue, nil
	case io.EOF, io.ErrUnexpectedEOF:
		return n, sigStreamEnd, nil
	default:
		return n, sigError, err
	}
}

func (d *rawDecoder) end() error { return nil }

// gzipDecoder inflates one member at a time and restarts on the same input
// after each member, so concatenated members read as a single stream.
type gzipDecoder struct {
	in *stage
	zr *gzip.Reader
}

func newGzipDecoder(in *stage) (*gzipDecoder, error) {
	zr, err := gzip.NewReader(in)
	if err != nil {
		return nil, err
	}
	zr.Multistream(false)
	return &gzipDecoder{in: in, zr: zr}, nil
}

func (d *gzipDecoder) decode(dst []byte) (int, signal, error) {
	n, err := d.zr.Read(dst)
	switch err {
	case nil:
		return n, sigContinue, nil
	case io.EOF:
		// Member trailer verified; look for another member.
		if rerr := d.zr.Reset(d.in); rerr != nil {
			if rerr == io.EOF {
				return n, sigStreamEnd, nil
			}
			return n, sigError, rerr
		}
		d.zr.Multistream(false)
		return n, sigContinue, nil
	default:
		return n, sigError, err
	}
}

func (d *gzipDecoder) end() error { return d.zr.Close() }

// bzip2Decoder hands the whole file to the codec, which also decodes
// concatenated bzip2 streams. Its io.EOF is terminal.
type bzip2Decoder struct {
	br *bzip2.Reader
}

func newBzip2Decoder(in *stage) (*bzip2Decoder, error) {
	br, err := bzip2.NewReader(in, &bzip2.ReaderConfig{})
	if err != nil {
		return nil, err
	}
	return &bzip2Decoder{br: br}, nil
}

func (d *bzip2Decoder) decode(dst []byte) (int, signal, error) {
	n, err := d.br.Read(dst)
	switch err {
	case nil:
		return n, sigContinue, nil
	case io.EOF:
		return n, sigStreamEnd, nil
	default:
		return n, sigError, err
	}
}

func (d *bzip2Decoder) end() error { return d.br.Close() }

// xzDecoder relies on the library default of accepting concatenated
// streams and stream padding.
type xzDecoder struct {
	xr *xz.Reader
}

func newXzDecoder(in *stage) (*xzDecoder, error) {
	xr, err := xz.NewReader(in)
	if err != nil {
		return nil, err
	}
	return &xzDecoder{xr: xr}, nil
}

func (d *xzDecoder) decode(dst []byte) (int, signal, error) {
	n, err := d.xr.Read(dst)
	switch err {
	case nil:
		return n, sigContinue, nil
	case io.EOF:
		return n, sigStreamEnd, nil
	default:
		return n, sigError, err
	}
}

func (d *xzDecoder) end() error { return nil }
