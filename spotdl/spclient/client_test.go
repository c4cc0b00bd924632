package spclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Kon-Geo/librespot-downloader/spotdl/catalog"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/metadata/album/alb1", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("missing bearer token, got %q", got)
		}
		_ = json.NewEncoder(w).Encode(albumDTO{
			ID:     "alb1",
			Name:   "Record",
			Tracks: []string{"trk1", "trk2"},
			Covers: []coverDTO{{ID: "cov1", Size: "LARGE"}},
		})
	})

	mux.HandleFunc("/metadata/track/trk1", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(trackDTO{
			ID:      "trk1",
			Name:    "Song",
			Number:  3,
			Album:   refDTO{ID: "alb1", Name: "Record"},
			Artists: []refDTO{{ID: "a1", Name: "A"}, {ID: "a2", Name: "B"}},
			Covers:  []coverDTO{{ID: "cov1", Size: "DEFAULT"}},
			Files: []fileDTO{
				{Format: "OGG_VORBIS_320", ID: "f320"},
				{Format: "SOMETHING_NEW", ID: "fxxx"},
			},
		})
	})

	mux.HandleFunc("/storage-resolve/files/audio/interactive/f320", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(storageDTO{CDNURL: []string{"https://cdn.example/f320"}})
	})

	mux.HandleFunc("/audio-key/trk1/f320", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(keyDTO{Key: "000102030405060708090a0b0c0d0e0f"})
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	return httptest.NewServer(mux)
}

func newTestClient(baseURL string) *Client {
	client := New(Options{BaseURL: baseURL, AccessToken: "tok"}, nil)
	client.retry.RetryMax = 0
	return client
}

func TestGetAlbum(t *testing.T) {
	server := testServer(t)
	defer server.Close()

	client := newTestClient(server.URL)
	album, err := client.GetAlbum(context.Background(), "alb1")
	if err != nil {
		t.Fatalf("get album: %v", err)
	}
	if album.Name != "Record" || len(album.Tracks) != 2 {
		t.Fatalf("unexpected album: %+v", album)
	}
	if len(album.Covers) != 1 || album.Covers[0].Size != catalog.CoverSizeLarge {
		t.Fatalf("unexpected covers: %+v", album.Covers)
	}
}

func TestGetTrackSkipsUnknownFormats(t *testing.T) {
	server := testServer(t)
	defer server.Close()

	client := newTestClient(server.URL)
	track, err := client.GetTrack(context.Background(), "trk1")
	if err != nil {
		t.Fatalf("get track: %v", err)
	}
	if track.Name != "Song" || track.Number != 3 {
		t.Fatalf("unexpected track: %+v", track)
	}
	if len(track.Artists) != 2 || track.Artists[0].Name != "A" {
		t.Fatalf("unexpected artists: %+v", track.Artists)
	}
	if len(track.Files) != 1 {
		t.Fatalf("expected one mapped file, got %d", len(track.Files))
	}
	if id, ok := track.Files[catalog.FormatOggVorbis320]; !ok || id != "f320" {
		t.Fatalf("unexpected files: %+v", track.Files)
	}
}

func TestResolveAudioURL(t *testing.T) {
	server := testServer(t)
	defer server.Close()

	client := newTestClient(server.URL)
	url, err := client.ResolveAudioURL(context.Background(), "f320")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if url != "https://cdn.example/f320" {
		t.Fatalf("unexpected url: %q", url)
	}
}

func TestRequestKey(t *testing.T) {
	server := testServer(t)
	defer server.Close()

	client := newTestClient(server.URL)
	key, err := client.RequestKey(context.Background(), "trk1", "f320")
	if err != nil {
		t.Fatalf("request key: %v", err)
	}
	if len(key) != 16 || key[0] != 0x00 || key[15] != 0x0f {
		t.Fatalf("unexpected key: %x", key)
	}
}

func TestNotFoundMapsToSentinel(t *testing.T) {
	server := testServer(t)
	defer server.Close()

	client := newTestClient(server.URL)
	if _, err := client.GetAlbum(context.Background(), "missing"); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAuthFailureMapsToSentinel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	if _, err := client.GetTrack(context.Background(), "trk1"); !errors.Is(err, catalog.ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired, got %v", err)
	}
}
