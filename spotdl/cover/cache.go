// Package cover fetches album artwork from the image CDN and caches it by
// cover identifier, so tracks sharing artwork cost one fetch per run.
package cover

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/Kon-Geo/librespot-downloader/spotdl"
	"github.com/Kon-Geo/librespot-downloader/spotdl/catalog"
)

const acceptImages = "image/avif,image/webp,image/apng,image/svg+xml,image/*,*/*;q=0.8"

type entry struct {
	data []byte
	mime string
}

// Cache is a process-lifetime cover cache owned by the downloader instance.
// Entries are written once per identifier and never evicted; the universe
// of distinct covers touched by one run is small. It is not safe for
// concurrent use — the album pipeline is strictly sequential.
type Cache struct {
	client  *retryablehttp.Client
	baseURL string
	logger  spotdl.Logger
	entries map[string]entry
}

// New creates a cache fetching images from baseURL.
func New(client *retryablehttp.Client, baseURL string, logger spotdl.Logger) *Cache {
	return &Cache{
		client:  client,
		baseURL: baseURL,
		logger:  logger,
		entries: make(map[string]entry),
	}
}

// Get returns the bytes and MIME type of the track's best cover: the
// descriptor with the highest size classification, ties broken in favor of
// the last one encountered. Returns catalog.ErrNoCover when the track
// carries no cover descriptors. Network I/O happens only on a cache miss.
func (c *Cache) Get(ctx context.Context, track *catalog.Track) ([]byte, string, error) {
	best, err := bestCover(track.Covers)
	if err != nil {
		return nil, "", err
	}

	if cached, ok := c.entries[best.ID]; ok {
		return cached.data, cached.mime, nil
	}

	data, mime, err := c.fetch(ctx, best.ID)
	if err != nil {
		return nil, "", err
	}
	c.entries[best.ID] = entry{data: data, mime: mime}

	if c.logger != nil {
		c.logger.Debug("cover fetched", "cover_id", best.ID, "size", best.Size.String(), "bytes", len(data), "mime", mime)
	}
	return data, mime, nil
}

func bestCover(covers []catalog.Cover) (catalog.Cover, error) {
	if len(covers) == 0 {
		return catalog.Cover{}, catalog.ErrNoCover
	}
	best := covers[0]
	for _, cover := range covers[1:] {
		if cover.Size >= best.Size {
			best = cover
		}
	}
	return best, nil
}

func (c *Cache) fetch(ctx context.Context, coverID string) ([]byte, string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+coverID, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Accept", acceptImages)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("cover %s: unexpected status %d", coverID, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}

	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		mime = "image/jpeg"
	}
	return data, mime, nil
}
