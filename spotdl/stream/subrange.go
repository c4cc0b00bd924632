// Package stream provides the readable, seekable byte stream adapters the
// track pipeline composes between the remote audio store and the local
// output file: a sub-range window and a transparent decryption wrapper.
package stream

import (
	"errors"
	"fmt"
	"io"
)

// OggHeaderEnd is the size of the container preamble preceding the payload
// on vorbis streams. The decryption layer does not strip it, so vorbis
// downloads are windowed past it.
const OggHeaderEnd = 0xa7

// ErrSeekBeforeWindow is returned when a from-end seek would resolve before
// the window start.
var ErrSeekBeforeWindow = errors.New("stream: seek resolves before window start")

// SubRange exposes the window [offset, offset+length) of an underlying
// stream as an independent stream with positions renumbered from zero. It
// owns the underlying stream exclusively for the duration of the operation
// and never changes offset or length after construction.
//
// Reads delegate to the underlying stream untouched; the sub-range behavior
// rests entirely on seek translation.
type SubRange struct {
	src    io.ReadSeeker
	offset int64
	length int64
}

// NewSubRange wraps src and immediately positions it at offset. A failed
// underlying seek is propagated.
func NewSubRange(src io.ReadSeeker, offset, length int64) (*SubRange, error) {
	if _, err := src.Seek(offset, io.SeekStart); err != nil {
		return nil, err
	}
	return &SubRange{src: src, offset: offset, length: length}, nil
}

// Length returns the logical size of the window.
func (s *SubRange) Length() int64 {
	return s.length
}

func (s *SubRange) Read(p []byte) (int, error) {
	return s.src.Read(p)
}

// Seek translates window-relative positions to the underlying stream.
// From-start seeks are shifted by the window offset; from-end seeks are
// validated against the window start and otherwise passed through to the
// underlying stream's own end; from-current seeks pass through unmodified.
// The returned position is always relative to the window start.
func (s *SubRange) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		offset += s.offset
	case io.SeekEnd:
		if s.length+offset < s.offset {
			return 0, fmt.Errorf("%w: %d from end", ErrSeekBeforeWindow, offset)
		}
	}

	pos, err := s.src.Seek(offset, whence)
	if err != nil {
		return 0, err
	}
	return pos - s.offset, nil
}
