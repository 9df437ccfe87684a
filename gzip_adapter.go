package mzml

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// gzipMagic is the 2-byte gzip magic number.
var gzipMagic = []byte{0x1f, 0x8b}

// IsGzipped reports whether header (at least the first two bytes of a
// source) carries the gzip magic number.
func IsGzipped(header []byte) bool {
	return bytes.HasPrefix(header, gzipMagic)
}

// IsGzipPath reports whether path has a case-insensitive ".gz" suffix, and
// returns the suffix-stripped path.
func IsGzipPath(path string) (bool, string) {
	if len(path) < 3 {
		return false, path
	}
	tail := path[len(path)-3:]
	if !strings.EqualFold(tail, ".gz") {
		return false, path
	}
	return true, path[:len(path)-3]
}

// SeekableGzipAdapter presents a seekable view over a decompressed gzip
// stream read from a seek-capable compressed source. Compressed framing is
// not random access: backward seeks and the initial seek to an arbitrary
// offset are implemented by rewinding the inner source to zero and
// replaying (decompressing and discarding) bytes up to the target offset.
// This trades throughput for compatibility with a consumer, like
// MzMLReader, that only needs forward reads, occasional rewinds, and rare
// absolute seeks.
//
// Grounded on the original crate's RestartableGzDecoder
// (src/io/compression.rs), reimplemented over klauspost/compress/gzip, the
// same compression dependency the teacher package uses for its zstd chunk
// codec.
type SeekableGzipAdapter struct {
	inner  io.ReadSeeker
	codec  *gzip.Reader
	offset uint64
}

// NewSeekableGzipAdapter wraps inner, which must be positioned at the start
// of a gzip stream.
func NewSeekableGzipAdapter(inner io.ReadSeeker) (*SeekableGzipAdapter, error) {
	codec, err := gzip.NewReader(inner)
	if err != nil {
		return nil, NewIOError(fmt.Errorf("opening gzip stream: %w", err))
	}
	codec.Multistream(true)
	return &SeekableGzipAdapter{inner: inner, codec: codec}, nil
}

// Read implements io.Reader, delegating to the codec and advancing the
// decompressed offset by the number of bytes actually delivered.
func (g *SeekableGzipAdapter) Read(p []byte) (int, error) {
	n, err := g.codec.Read(p)
	g.offset += uint64(n)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, NewIOError(err)
	}
	return n, err
}

// reset rewinds the inner source to absolute zero and replaces the codec
// with a fresh instance over it, per the original's reset().
func (g *SeekableGzipAdapter) reset() error {
	if _, err := g.inner.Seek(0, io.SeekStart); err != nil {
		return NewIOError(fmt.Errorf("rewinding inner source: %w", err))
	}
	codec, err := gzip.NewReader(g.inner)
	if err != nil {
		return NewIOError(fmt.Errorf("reopening gzip stream: %w", err))
	}
	codec.Multistream(true)
	g.codec = codec
	g.offset = 0
	return nil
}

// discard reads exactly n bytes from the codec into a throwaway buffer.
func (g *SeekableGzipAdapter) discard(n uint64) error {
	if n == 0 {
		return nil
	}
	discarded, err := io.CopyN(io.Discard, g.codec, int64(n))
	g.offset += uint64(discarded)
	if err != nil {
		return NewIOError(fmt.Errorf("seeking forward by replay: %w", err))
	}
	return nil
}

// Seek implements io.Seeker. SeekEnd always fails: compressed length is not
// generally known without fully decompressing, and the original treats a
// request to seek relative to the end of a compressed stream as
// unsupported outright (spec.md §4.1).
func (g *SeekableGzipAdapter) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		if offset < 0 {
			return 0, NewIOError(errors.New("negative absolute offset"))
		}
		if err := g.reset(); err != nil {
			return 0, err
		}
		if err := g.discard(uint64(offset)); err != nil {
			return 0, err
		}
		return int64(g.offset), nil
	case io.SeekCurrent:
		switch {
		case offset == 0:
			return int64(g.offset), nil
		case offset > 0:
			if err := g.discard(uint64(offset)); err != nil {
				return 0, err
			}
			return int64(g.offset), nil
		default:
			d := uint64(-offset)
			if d > g.offset {
				return 0, NewIOError(errors.New("cannot seek before start"))
			}
			return g.Seek(int64(g.offset-d), io.SeekStart)
		}
	case io.SeekEnd:
		return 0, NewIOError(errors.New("cannot seek relative to end of a compressed stream"))
	default:
		return 0, NewIOError(fmt.Errorf("unsupported whence: %d", whence))
	}
}

// Close releases the gzip codec. The inner source is left open; the
// adapter does not own it (spec.md §3 ownership note: it owns only its
// inner source reference and the current codec instance).
func (g *SeekableGzipAdapter) Close() error {
	return g.codec.Close()
}
