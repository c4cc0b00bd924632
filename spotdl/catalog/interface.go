package catalog

import (
	"context"
	"io"
)

// Client resolves album and track metadata. Implementations are assumed
// idempotent; resolution failures are fatal for the enclosing operation.
type Client interface {
	// GetAlbum retrieves an album descriptor by its identifier.
	//
	// Returns ErrNotFound if the album does not exist.
	GetAlbum(ctx context.Context, albumID string) (*Album, error)

	// GetTrack retrieves a track descriptor by its identifier.
	//
	// Returns ErrNotFound if the track does not exist.
	GetTrack(ctx context.Context, trackID string) (*Track, error)
}

// AudioFile is an open remote audio object: a readable, seekable byte
// stream with a known logical length. The stream performs its own chunked
// fetch and retry internally.
type AudioFile interface {
	io.ReadSeeker
	io.Closer

	// Length returns the logical size of the object in bytes.
	Length() int64
}

// AudioStore opens remote audio objects by file handle. byteRateHint is the
// assumed average byte rate of the encoding, used only for buffering
// decisions.
type AudioStore interface {
	Open(ctx context.Context, fileID FileID, byteRateHint int) (AudioFile, error)
}

// KeyProvider retrieves the decryption key of one encoded file. A failed
// key request is not fatal to a download: the caller falls back to writing
// the bytes as fetched.
type KeyProvider interface {
	RequestKey(ctx context.Context, trackID string, fileID FileID) ([]byte, error)
}
