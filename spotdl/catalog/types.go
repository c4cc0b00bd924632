package catalog

import "fmt"

// FileID is the opaque handle of one encoded rendition of a track in the
// remote audio store.
type FileID string

// CoverSize is the discrete size classification of a cover image.
type CoverSize int

const (
	CoverSizeDefault CoverSize = iota
	CoverSizeSmall
	CoverSizeLarge
	CoverSizeXLarge
)

// String returns the catalog wire name of the size class.
func (s CoverSize) String() string {
	switch s {
	case CoverSizeDefault:
		return "DEFAULT"
	case CoverSizeSmall:
		return "SMALL"
	case CoverSizeLarge:
		return "LARGE"
	case CoverSizeXLarge:
		return "XLARGE"
	default:
		return "unknown"
	}
}

// ParseCoverSize converts a catalog wire name to a CoverSize.
func ParseCoverSize(s string) (CoverSize, error) {
	switch s {
	case "DEFAULT":
		return CoverSizeDefault, nil
	case "SMALL":
		return CoverSizeSmall, nil
	case "LARGE":
		return CoverSizeLarge, nil
	case "XLARGE":
		return CoverSizeXLarge, nil
	default:
		return CoverSizeDefault, fmt.Errorf("unknown cover size: %s", s)
	}
}

// Cover describes one available artwork image for an album.
type Cover struct {
	// ID addresses the image on the image CDN.
	ID string

	// Size is the discrete size classification.
	Size CoverSize
}

// Artist is one credited artist of a track, in display order.
type Artist struct {
	ID   string
	Name string
}

// AlbumRef is the owning album reference carried by a track.
type AlbumRef struct {
	ID   string
	Name string
}

// Track is the full descriptor of one track, fetched fresh from the catalog
// and immutable for the duration of a download.
type Track struct {
	// ID is the external track identifier (base62).
	ID string

	// Name is the display title.
	Name string

	// Number is the track number within the album.
	Number int

	// Artists lists the credited artists; display order matters.
	Artists []Artist

	// Album references the owning album.
	Album AlbumRef

	// Covers lists the available artwork images.
	Covers []Cover

	// Files maps each available encoding to its remote file handle.
	Files map[Format]FileID
}

// URI returns the external identifier string embedded in tags.
func (t *Track) URI() string {
	return "spotify:track:" + t.ID
}

// Album is the descriptor of one album with its track listing in catalog
// order.
type Album struct {
	ID     string
	Name   string
	Tracks []string
	Covers []Cover
}
