// Package spclient talks to the catalog service over HTTP: album and track
// metadata, storage resolution for audio files, and audio-key retrieval.
// Session establishment is out of scope; the client authenticates with a
// configured bearer token.
package spclient

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/Kon-Geo/librespot-downloader/spotdl"
	"github.com/Kon-Geo/librespot-downloader/spotdl/catalog"
)

// Options configures the catalog client.
type Options struct {
	BaseURL           string
	AccessToken       string
	RequestsPerSecond float64
	RequestBurst      int
}

// Client provides resilient catalog API calls. It implements
// catalog.Client, catalog.KeyProvider, and remote.URLResolver.
type Client struct {
	baseURL string
	token   string
	retry   *retryablehttp.Client
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	logger  spotdl.Logger
}

// New creates a catalog client with retry and circuit breaker.
func New(opts Options, logger spotdl.Logger) *Client {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.Logger = nil

	settings := gobreaker.Settings{
		Name:        "catalog-api",
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	}

	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 8
	}
	burst := opts.RequestBurst
	if burst <= 0 {
		burst = 4
	}

	return &Client{
		baseURL: opts.BaseURL,
		token:   opts.AccessToken,
		retry:   client,
		breaker: gobreaker.NewCircuitBreaker(settings),
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		logger:  logger,
	}
}

// HTTPClient exposes the underlying retrying client so collaborators that
// hit adjacent services (image CDN, audio CDN) share its transport.
func (c *Client) HTTPClient() *retryablehttp.Client {
	return c.retry
}

type albumDTO struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Covers []coverDTO `json:"covers"`
	Tracks []string   `json:"tracks"`
}

type trackDTO struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Number  int        `json:"number"`
	Album   refDTO     `json:"album"`
	Artists []refDTO   `json:"artists"`
	Covers  []coverDTO `json:"covers"`
	Files   []fileDTO  `json:"files"`
}

type refDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type coverDTO struct {
	ID   string `json:"id"`
	Size string `json:"size"`
}

type fileDTO struct {
	Format string `json:"format"`
	ID     string `json:"id"`
}

type storageDTO struct {
	CDNURL []string `json:"cdnurl"`
}

type keyDTO struct {
	Key string `json:"key"`
}

// GetAlbum retrieves an album descriptor.
func (c *Client) GetAlbum(ctx context.Context, albumID string) (*catalog.Album, error) {
	var dto albumDTO
	if err := c.getJSON(ctx, "/metadata/album/"+albumID, "album", albumID, &dto); err != nil {
		return nil, err
	}

	album := &catalog.Album{
		ID:     dto.ID,
		Name:   dto.Name,
		Tracks: dto.Tracks,
		Covers: mapCovers(dto.Covers),
	}
	if c.logger != nil {
		c.logger.Debug("album resolved", "album_id", albumID, "tracks", len(album.Tracks))
	}
	return album, nil
}

// GetTrack retrieves a track descriptor.
func (c *Client) GetTrack(ctx context.Context, trackID string) (*catalog.Track, error) {
	var dto trackDTO
	if err := c.getJSON(ctx, "/metadata/track/"+trackID, "track", trackID, &dto); err != nil {
		return nil, err
	}

	track := &catalog.Track{
		ID:     dto.ID,
		Name:   dto.Name,
		Number: dto.Number,
		Album:  catalog.AlbumRef{ID: dto.Album.ID, Name: dto.Album.Name},
		Covers: mapCovers(dto.Covers),
		Files:  make(map[catalog.Format]catalog.FileID, len(dto.Files)),
	}
	for _, artist := range dto.Artists {
		track.Artists = append(track.Artists, catalog.Artist{ID: artist.ID, Name: artist.Name})
	}
	for _, file := range dto.Files {
		format, err := catalog.ParseFormat(file.Format)
		if err != nil {
			if c.logger != nil {
				c.logger.Debug("skipping unknown format", "track_id", trackID, "format", file.Format)
			}
			continue
		}
		track.Files[format] = catalog.FileID(file.ID)
	}
	return track, nil
}

// ResolveAudioURL translates a file handle into a fetchable CDN URL.
func (c *Client) ResolveAudioURL(ctx context.Context, fileID catalog.FileID) (string, error) {
	var dto storageDTO
	path := "/storage-resolve/files/audio/interactive/" + string(fileID)
	if err := c.getJSON(ctx, path, "file", string(fileID), &dto); err != nil {
		return "", err
	}
	if len(dto.CDNURL) == 0 {
		return "", &catalog.Error{Resource: "file", ID: string(fileID), Err: errors.New("no cdn url")}
	}
	return dto.CDNURL[0], nil
}

// RequestKey retrieves the decryption key of one encoded file.
func (c *Client) RequestKey(ctx context.Context, trackID string, fileID catalog.FileID) ([]byte, error) {
	var dto keyDTO
	path := "/audio-key/" + trackID + "/" + string(fileID)
	if err := c.getJSON(ctx, path, "key", trackID, &dto); err != nil {
		return nil, err
	}

	key, err := hex.DecodeString(dto.Key)
	if err != nil {
		return nil, &catalog.Error{Resource: "key", ID: trackID, Err: err}
	}
	return key, nil
}

func mapCovers(dtos []coverDTO) []catalog.Cover {
	covers := make([]catalog.Cover, 0, len(dtos))
	for _, dto := range dtos {
		size, err := catalog.ParseCoverSize(dto.Size)
		if err != nil {
			size = catalog.CoverSizeDefault
		}
		covers = append(covers, catalog.Cover{ID: dto.ID, Size: size})
	}
	return covers
}

func (c *Client) getJSON(ctx context.Context, path, resource, id string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := c.breaker.Execute(func() (any, error) {
		req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.retry.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusOK:
		case http.StatusNotFound:
			return nil, catalog.NewNotFoundError(resource, id)
		case http.StatusUnauthorized, http.StatusForbidden:
			return nil, catalog.NewAuthRequiredError(resource)
		default:
			return nil, fmt.Errorf("catalog api: %s: status %d", path, resp.StatusCode)
		}

		return io.ReadAll(resp.Body)
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body.([]byte), out); err != nil {
		return &catalog.Error{Resource: resource, ID: id, Err: err}
	}
	return nil
}
