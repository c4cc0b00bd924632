package tag

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2"
	"github.com/go-flac/flacvorbis"
	flac "github.com/go-flac/go-flac"
)

func writeDummyMP3(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "track.mp3")
	// Tagless frame-sync bytes; the tag gets prepended on save.
	data := append([]byte{0xff, 0xfb, 0x90, 0x00}, bytes.Repeat([]byte{0x55}, 512)...)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write dummy mp3: %v", err)
	}
	return path
}

func writeDummyFLAC(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "track.flac")
	var buf bytes.Buffer
	buf.WriteString("fLaC")
	// Single STREAMINFO block marked as last.
	buf.Write([]byte{0x80, 0x00, 0x00, 0x22})
	buf.Write(make([]byte, 34))
	buf.Write(bytes.Repeat([]byte{0xaa}, 256))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write dummy flac: %v", err)
	}
	return path
}

func testTagData() *Data {
	return &Data{
		Title:       "Song",
		Album:       "Record",
		Artist:      "A & B",
		TrackNumber: 7,
		ExternalID:  "spotify:track:abc123",
	}
}

func TestEmbedID3Tags(t *testing.T) {
	path := writeDummyMP3(t)
	cover := append([]byte{0xff, 0xd8, 0xff, 0xe0}, bytes.Repeat([]byte{0x11}, 64)...)

	service := NewService(nil, 0)
	if err := service.Embed(path, testTagData(), cover, "image/jpeg"); err != nil {
		t.Fatalf("embed: %v", err)
	}

	meta, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer meta.Close()

	if meta.Title() != "Song" || meta.Album() != "Record" || meta.Artist() != "A & B" {
		t.Fatalf("unexpected text tags: %q %q %q", meta.Title(), meta.Album(), meta.Artist())
	}
	if got := meta.GetTextFrame("TRCK").Text; got != "7" {
		t.Fatalf("track number frame: %q", got)
	}
	if got := meta.GetTextFrame("TSRC").Text; got != "spotify:track:abc123" {
		t.Fatalf("external id frame: %q", got)
	}

	pics := meta.GetFrames(meta.CommonID("Attached picture"))
	if len(pics) != 1 {
		t.Fatalf("expected exactly one picture frame, got %d", len(pics))
	}
	pic, ok := pics[0].(id3v2.PictureFrame)
	if !ok {
		t.Fatal("unexpected picture frame type")
	}
	if !bytes.Equal(pic.Picture, cover) {
		t.Fatal("embedded picture bytes differ from cover")
	}
}

func TestEmbedFlacTags(t *testing.T) {
	path := writeDummyFLAC(t)
	cover := append([]byte{0xff, 0xd8, 0xff, 0xe0}, bytes.Repeat([]byte{0x22}, 64)...)

	service := NewService(nil, 0)
	if err := service.Embed(path, testTagData(), cover, "image/jpeg"); err != nil {
		t.Fatalf("embed: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer file.Close()

	parsed, err := flac.ParseMetadata(file)
	if err != nil {
		t.Fatalf("parse metadata: %v", err)
	}

	var comment *flacvorbis.MetaDataBlockVorbisComment
	var pictures int
	for _, block := range parsed.Meta {
		switch block.Type {
		case flac.VorbisComment:
			comment, err = flacvorbis.ParseFromMetaDataBlock(*block)
			if err != nil {
				t.Fatalf("parse vorbis comment: %v", err)
			}
		case flac.Picture:
			pictures++
		}
	}

	if comment == nil {
		t.Fatal("missing vorbis comment block")
	}
	titles, err := comment.Get(flacvorbis.FIELD_TITLE)
	if err != nil || len(titles) != 1 || titles[0] != "Song" {
		t.Fatalf("title field: %v %v", titles, err)
	}
	isrcs, err := comment.Get("ISRC")
	if err != nil || len(isrcs) != 1 || isrcs[0] != "spotify:track:abc123" {
		t.Fatalf("isrc field: %v %v", isrcs, err)
	}
	if pictures != 1 {
		t.Fatalf("expected one picture block, got %d", pictures)
	}
}

func TestFitCoverPassThroughWhenDisabled(t *testing.T) {
	service := NewService(nil, 0)
	cover := []byte{0x01, 0x02, 0x03}
	got, mime := service.fitCover(cover, "image/jpeg")
	if !bytes.Equal(got, cover) || mime != "image/jpeg" {
		t.Fatal("disabled fitCover must not touch the bytes")
	}
}
