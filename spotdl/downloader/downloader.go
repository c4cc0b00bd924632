// Package downloader materializes catalog tracks as tagged local audio
// files. Albums are processed strictly sequentially; per-track failures are
// absorbed so one bad track never costs the rest of the album.
package downloader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Kon-Geo/librespot-downloader/spotdl"
	"github.com/Kon-Geo/librespot-downloader/spotdl/catalog"
	"github.com/Kon-Geo/librespot-downloader/spotdl/db"
	"github.com/Kon-Geo/librespot-downloader/spotdl/stream"
	"github.com/Kon-Geo/librespot-downloader/spotdl/tag"
	"github.com/Kon-Geo/librespot-downloader/spotdl/util"
)

// TrackStatus is the terminal state of one track attempt.
type TrackStatus int

const (
	// StatusDownloaded means the file was written and fully tagged.
	StatusDownloaded TrackStatus = iota

	// StatusSkipped means no file was produced; the album continues.
	StatusSkipped

	// StatusDegraded means the file was written but a non-essential stage
	// failed: missing key, missing cover, or a tagging error.
	StatusDegraded
)

func (s TrackStatus) String() string {
	switch s {
	case StatusDownloaded:
		return "downloaded"
	case StatusSkipped:
		return "skipped"
	case StatusDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// TrackResult reports the outcome of one track attempt.
type TrackResult struct {
	TrackID string
	Status  TrackStatus
	Format  catalog.Format
	Path    string
	Size    int64

	// Err carries the cause for skipped tracks.
	Err error
}

// AlbumResult aggregates the per-track outcomes of one album.
type AlbumResult struct {
	AlbumID   string
	AlbumName string
	Tracks    []TrackResult
}

// Counts returns the number of downloaded, skipped, and degraded tracks.
func (r *AlbumResult) Counts() (downloaded, skipped, degraded int) {
	for _, track := range r.Tracks {
		switch track.Status {
		case StatusDownloaded:
			downloaded++
		case StatusSkipped:
			skipped++
		case StatusDegraded:
			degraded++
		}
	}
	return
}

// CoverSource yields the best cover bytes and MIME type for a track.
type CoverSource interface {
	Get(ctx context.Context, track *catalog.Track) ([]byte, string, error)
}

// TagEmbedder writes a tag bundle and cover into a finished file.
type TagEmbedder interface {
	Embed(audioPath string, data *tag.Data, cover []byte, coverMime string) error
}

// History records completed downloads. Recording failures are logged, never
// fatal.
type History interface {
	Create(ctx context.Context, record *db.TrackRecord) error
}

// Options wires a Downloader's collaborators. History may be nil to disable
// history recording.
type Options struct {
	Client  catalog.Client
	Store   catalog.AudioStore
	Keys    catalog.KeyProvider
	Covers  CoverSource
	Tags    TagEmbedder
	History History
	Logger  spotdl.Logger

	// BaseDir is the root output directory; each album gets a subdirectory
	// named after it.
	BaseDir string

	// Progress, when set, is called after every chunk written to disk.
	Progress util.ProgressFunc
}

// Downloader runs the track materialization pipeline.
type Downloader struct {
	client   catalog.Client
	store    catalog.AudioStore
	keys     catalog.KeyProvider
	covers   CoverSource
	tags     TagEmbedder
	history  History
	logger   spotdl.Logger
	baseDir  string
	progress util.ProgressFunc
}

// New creates a Downloader.
func New(opts Options) *Downloader {
	return &Downloader{
		client:   opts.Client,
		store:    opts.Store,
		keys:     opts.Keys,
		covers:   opts.Covers,
		tags:     opts.Tags,
		history:  opts.History,
		logger:   opts.Logger,
		baseDir:  opts.BaseDir,
		progress: opts.Progress,
	}
}

// DownloadAlbum fetches the album descriptor and materializes its tracks in
// catalog order. A failed album fetch or a fatal track error aborts the run;
// skipped and degraded tracks do not.
func (d *Downloader) DownloadAlbum(ctx context.Context, albumID string) (*AlbumResult, error) {
	album, err := d.client.GetAlbum(ctx, albumID)
	if err != nil {
		return nil, fmt.Errorf("fetch album %s: %w", albumID, err)
	}

	dir := filepath.Join(d.baseDir, album.Name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create album directory: %w", err)
	}

	d.info("album started", "album_id", album.ID, "name", album.Name, "tracks", len(album.Tracks))

	result := &AlbumResult{AlbumID: album.ID, AlbumName: album.Name}
	for _, trackID := range album.Tracks {
		track, err := d.DownloadTrack(ctx, trackID, dir)
		if err != nil {
			return result, err
		}
		result.Tracks = append(result.Tracks, *track)
	}

	downloaded, skipped, degraded := result.Counts()
	d.info("album finished", "album_id", album.ID,
		"downloaded", downloaded, "skipped", skipped, "degraded", degraded)
	return result, nil
}

// DownloadTrack materializes one track into dir. Metadata resolution and
// local I/O failures are fatal; failures past resolution resolve to a
// skipped or degraded result.
func (d *Downloader) DownloadTrack(ctx context.Context, trackID, dir string) (*TrackResult, error) {
	track, err := d.client.GetTrack(ctx, trackID)
	if err != nil {
		return nil, fmt.Errorf("resolve track %s: %w", trackID, err)
	}

	format, fileID, err := catalog.SelectFormat(track.Files)
	if err != nil {
		d.warn("no supported format", "track_id", trackID, "name", track.Name)
		return &TrackResult{TrackID: trackID, Status: StatusSkipped, Err: err}, nil
	}

	path := filepath.Join(dir, outputFilename(track, format))
	d.info("track started", "track_id", trackID, "name", track.Name,
		"format", format.String(), "path", path)

	audio, err := d.store.Open(ctx, fileID, format.DataRate())
	if err != nil {
		d.error("remote open failed", "track_id", trackID, "file_id", string(fileID), "error", err)
		return &TrackResult{TrackID: trackID, Status: StatusSkipped, Format: format, Err: err}, nil
	}
	defer audio.Close()

	degraded := false
	key, err := d.keys.RequestKey(ctx, track.ID, fileID)
	if err != nil {
		d.warn("key fetch failed, delivering raw bytes", "track_id", trackID, "error", err)
		key = nil
		degraded = true
	}

	decrypted, err := stream.NewDecryptReader(key, audio)
	if err != nil {
		d.error("decryption setup failed", "track_id", trackID, "error", err)
		return &TrackResult{TrackID: trackID, Status: StatusSkipped, Format: format, Err: err}, nil
	}

	var offset int64
	if format.IsOggVorbis() {
		offset = stream.OggHeaderEnd
	}
	window, err := stream.NewSubRange(decrypted, offset, audio.Length())
	if err != nil {
		d.error("stream windowing failed", "track_id", trackID, "error", err)
		return &TrackResult{TrackID: trackID, Status: StatusSkipped, Format: format, Err: err}, nil
	}

	written, err := d.writeFile(path, window)
	if err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}

	if embedErr := d.embedTags(ctx, path, track); embedErr != nil {
		degraded = true
	}

	d.recordHistory(ctx, track, format, path, written)

	status := StatusDownloaded
	if degraded {
		status = StatusDegraded
	}
	d.info("track finished", "track_id", trackID, "status", status.String(), "bytes", written)
	return &TrackResult{
		TrackID: trackID,
		Status:  status,
		Format:  format,
		Path:    path,
		Size:    written,
	}, nil
}

// outputFilename builds the conventional name: artists joined with " & ",
// the display title, and the bare track identifier before the extension.
// The spotify:track: URI form appears only in tags.
func outputFilename(track *catalog.Track, format catalog.Format) string {
	return fmt.Sprintf("%s - %s (%s).%s",
		artistLine(track), track.Name, track.ID, format.Extension())
}

func (d *Downloader) writeFile(path string, window *stream.SubRange) (int64, error) {
	out, err := os.Create(path)
	if err != nil {
		return 0, err
	}

	written, err := util.CopyWithProgress(out, window, window.Length(), d.progress)
	if err != nil {
		out.Close()
		return written, err
	}
	return written, out.Close()
}

// embedTags fetches the cover and writes the tag bundle. A cover failure
// is fatal for the tag step: the file stays on disk untagged and the track
// degrades. The written tag always carries exactly one picture.
func (d *Downloader) embedTags(ctx context.Context, path string, track *catalog.Track) error {
	var coverData []byte
	var coverMime string
	if d.covers != nil {
		var err error
		coverData, coverMime, err = d.covers.Get(ctx, track)
		if err != nil {
			d.warn("cover fetch failed, leaving file untagged", "track_id", track.ID, "error", err)
			return err
		}
	}

	if d.tags == nil {
		return nil
	}

	data := &tag.Data{
		Title:       track.Name,
		Album:       track.Album.Name,
		Artist:      artistLine(track),
		TrackNumber: track.Number,
		ExternalID:  track.URI(),
	}
	if err := d.tags.Embed(path, data, coverData, coverMime); err != nil {
		d.warn("tag embedding failed", "track_id", track.ID, "error", err)
		return err
	}
	return nil
}

func (d *Downloader) recordHistory(ctx context.Context, track *catalog.Track, format catalog.Format, path string, size int64) {
	if d.history == nil {
		return
	}

	md5sum, err := util.CalculateMD5(path)
	if err != nil {
		d.warn("history md5 failed", "track_id", track.ID, "error", err)
	}

	record := &db.TrackRecord{
		AlbumID:     track.Album.ID,
		AlbumName:   track.Album.Name,
		TrackID:     track.ID,
		TrackName:   track.Name,
		TrackNumber: track.Number,
		Artists:     artistLine(track),
		Format:      format.String(),
		Path:        path,
		Size:        size,
		MD5:         md5sum,
	}
	if err := d.history.Create(ctx, record); err != nil {
		d.warn("history record failed", "track_id", track.ID, "error", err)
	}
}

func artistLine(track *catalog.Track) string {
	names := make([]string, 0, len(track.Artists))
	for _, artist := range track.Artists {
		names = append(names, artist.Name)
	}
	return strings.Join(names, " & ")
}

func (d *Downloader) info(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Info(msg, args...)
	}
}

func (d *Downloader) warn(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Warn(msg, args...)
	}
}

func (d *Downloader) error(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Error(msg, args...)
	}
}
