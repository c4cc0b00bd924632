// Package tag embeds track metadata and cover art into downloaded audio
// files. The container flavor is fixed by file extension: ogg and flac get
// vorbis comments, everything else gets ID3v2.
package tag

import (
	"bytes"
	"encoding/base64"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bogem/id3v2"
	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	flac "github.com/go-flac/go-flac"
	"github.com/nfnt/resize"
	"go.senan.xyz/taglib"

	"github.com/Kon-Geo/librespot-downloader/spotdl"
)

// Data is the tag bundle written to one file: built fresh per track,
// written once, then discarded.
type Data struct {
	Title       string
	Album       string
	Artist      string
	TrackNumber int
	ExternalID  string
}

// Service writes tags and cover art into audio files.
type Service struct {
	logger spotdl.Logger

	// maxCoverEdge, when positive, downsizes covers whose longest edge
	// exceeds it before embedding. Zero embeds the fetched bytes untouched.
	maxCoverEdge int
}

// NewService creates a tag service.
func NewService(logger spotdl.Logger, maxCoverEdge int) *Service {
	return &Service{logger: logger, maxCoverEdge: maxCoverEdge}
}

// Embed writes the tag bundle and one front-cover picture into the file at
// audioPath. The tag container is chosen by extension.
func (s *Service) Embed(audioPath string, data *Data, cover []byte, coverMime string) error {
	if data == nil {
		return nil
	}

	cover, coverMime = s.fitCover(cover, coverMime)

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(audioPath), "."))
	switch ext {
	case "flac":
		return s.embedFlacTags(audioPath, data, cover, coverMime)
	case "ogg":
		return s.embedVorbisTags(audioPath, data, cover, coverMime)
	default:
		return s.embedID3Tags(audioPath, data, cover, coverMime)
	}
}

func (s *Service) embedID3Tags(audioPath string, data *Data, cover []byte, coverMime string) error {
	meta, err := id3v2.Open(audioPath, id3v2.Options{Parse: true})
	if err != nil {
		return err
	}
	defer meta.Close()

	meta.SetDefaultEncoding(id3v2.EncodingUTF8)
	meta.SetTitle(data.Title)
	meta.SetAlbum(data.Album)
	meta.SetArtist(data.Artist)
	if data.TrackNumber > 0 {
		meta.AddTextFrame("TRCK", id3v2.EncodingUTF8, strconv.Itoa(data.TrackNumber))
	}
	if data.ExternalID != "" {
		meta.AddTextFrame("TSRC", id3v2.EncodingUTF8, data.ExternalID)
	}

	if len(cover) > 0 {
		meta.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingISO,
			MimeType:    coverMime,
			PictureType: id3v2.PTFrontCover,
			Description: "Front cover",
			Picture:     cover,
		})
	}

	return meta.Save()
}

func (s *Service) embedFlacTags(audioPath string, data *Data, cover []byte, coverMime string) error {
	file, err := os.Open(audioPath)
	if err != nil {
		return err
	}
	defer file.Close()

	parsed, err := flac.ParseMetadata(file)
	if err != nil {
		return err
	}

	if len(cover) > 0 {
		picture, err := flacpicture.NewFromImageData(flacpicture.PictureTypeFrontCover, "", cover, coverMime)
		if err != nil {
			if s.logger != nil {
				s.logger.Warn("failed to create flac picture", "error", err)
			}
		} else {
			cmt := picture.Marshal()
			parsed.Meta = append(parsed.Meta, &cmt)
		}
	}

	vorbis := flacvorbis.New()
	s.writeVorbisFields(func(field, value string) { _ = vorbis.Add(field, value) }, data)
	setFlacVorbisComment(parsed, vorbis)

	return saveFlacWithMeta(audioPath, parsed)
}

func (s *Service) embedVorbisTags(audioPath string, data *Data, cover []byte, coverMime string) error {
	tags := make(map[string][]string)
	s.writeVorbisFields(func(field, value string) { tags[field] = append(tags[field], value) }, data)

	if len(cover) > 0 {
		picture, err := flacpicture.NewFromImageData(flacpicture.PictureTypeFrontCover, "", cover, coverMime)
		if err != nil {
			if s.logger != nil {
				s.logger.Warn("failed to create vorbis picture block", "error", err)
			}
		} else {
			block := picture.Marshal()
			tags["METADATA_BLOCK_PICTURE"] = []string{base64.StdEncoding.EncodeToString(block.Data)}
		}
	}

	return taglib.WriteTags(audioPath, tags, taglib.Clear)
}

func (s *Service) writeVorbisFields(add func(field, value string), data *Data) {
	if data.Title != "" {
		add(flacvorbis.FIELD_TITLE, data.Title)
	}
	if data.Album != "" {
		add(flacvorbis.FIELD_ALBUM, data.Album)
	}
	if data.Artist != "" {
		add(flacvorbis.FIELD_ARTIST, data.Artist)
	}
	if data.TrackNumber > 0 {
		add("TRACKNUMBER", strconv.Itoa(data.TrackNumber))
	}
	if data.ExternalID != "" {
		add("ISRC", data.ExternalID)
	}
}

func setFlacVorbisComment(parsed *flac.File, vorbis *flacvorbis.MetaDataBlockVorbisComment) {
	meta := vorbis.Marshal()
	idx := -1
	for i, m := range parsed.Meta {
		if m.Type == flac.VorbisComment {
			idx = i
			break
		}
	}
	if idx >= 0 {
		parsed.Meta[idx] = &meta
	} else {
		parsed.Meta = append(parsed.Meta, &meta)
	}
}

func saveFlacWithMeta(audioPath string, file *flac.File) error {
	original, err := os.Open(audioPath)
	if err != nil {
		return err
	}
	defer original.Close()

	stat, err := original.Stat()
	if err != nil {
		return err
	}

	tmpPath := audioPath + "-tagged"
	out, err := os.OpenFile(tmpPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, stat.Mode())
	if err != nil {
		return err
	}

	if _, err := out.Write([]byte("fLaC")); err != nil {
		return err
	}
	for i, meta := range file.Meta {
		last := i == len(file.Meta)-1
		if _, err := out.Write(meta.Marshal(last)); err != nil {
			return err
		}
	}

	if _, err := original.Seek(4, io.SeekStart); err != nil {
		return err
	}
	if _, err := io.Copy(out, original); err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, audioPath); err != nil {
		return err
	}

	return nil
}

// fitCover downsizes the cover when it exceeds the configured edge. Covers
// within bounds pass through byte-identical.
func (s *Service) fitCover(cover []byte, mime string) ([]byte, string) {
	if s.maxCoverEdge <= 0 || len(cover) == 0 {
		return cover, mime
	}

	img, _, err := image.Decode(bytes.NewReader(cover))
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("cover decode failed, embedding as-is", "error", err)
		}
		return cover, mime
	}

	bounds := img.Bounds()
	if bounds.Dx() <= s.maxCoverEdge && bounds.Dy() <= s.maxCoverEdge {
		return cover, mime
	}

	edge := uint(s.maxCoverEdge)
	scaled := resize.Thumbnail(edge, edge, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: 90}); err != nil {
		if s.logger != nil {
			s.logger.Warn("cover re-encode failed, embedding as-is", "error", err)
		}
		return cover, mime
	}
	return buf.Bytes(), "image/jpeg"
}
