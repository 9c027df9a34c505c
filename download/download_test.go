package download

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// noSleep keeps retry tests fast.
func noSleep(time.Duration) {}

func testOptions() Options {
	return Options{
		MinFileSize: 64,
		MaxRetries:  2,
		PreferGrab:  false,
		Sleep:       noSleep,
	}
}

func videoBody(size int) []byte {
	return bytes.Repeat([]byte("v"), size)
}

func TestVideoFileSuccess(t *testing.T) {
	body := videoBody(1024)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer server.Close()

	finalPath := filepath.Join(t.TempDir(), "clip.mp4")
	var lastCurrent int64
	err := VideoFile(context.Background(), server.URL+"/clip.mp4", finalPath, testOptions(),
		func(current, total int64) { lastCurrent = current })
	if err != nil {
		t.Fatalf("VideoFile returned an error: %v", err)
	}

	data, err := os.ReadFile(finalPath)
	if err != nil {
		t.Fatalf("Final file missing: %v", err)
	}
	if !bytes.Equal(data, body) {
		t.Errorf("Final file has %d bytes, expected %d", len(data), len(body))
	}
	if lastCurrent != int64(len(body)) {
		t.Errorf("Expected final progress of %d bytes, got %d", len(body), lastCurrent)
	}

	tempPath := filepath.Join(filepath.Dir(finalPath), ".clip.mp4.part")
	if _, err := os.Stat(tempPath); !os.IsNotExist(err) {
		t.Error("Temp file left behind after successful download")
	}
}

func TestVideoFileWithGrabEngine(t *testing.T) {
	body := videoBody(1024)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, "clip.mp4", time.Now(), bytes.NewReader(body))
	}))
	defer server.Close()

	opts := testOptions()
	opts.PreferGrab = true

	finalPath := filepath.Join(t.TempDir(), "clip.mp4")
	if err := VideoFile(context.Background(), server.URL+"/clip.mp4", finalPath, opts, nil); err != nil {
		t.Fatalf("VideoFile returned an error: %v", err)
	}

	info, err := os.Stat(finalPath)
	if err != nil {
		t.Fatalf("Final file missing: %v", err)
	}
	if info.Size() != int64(len(body)) {
		t.Errorf("Final file has %d bytes, expected %d", info.Size(), len(body))
	}
}

func TestVideoFileTooSmall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(videoBody(10))
	}))
	defer server.Close()

	finalPath := filepath.Join(t.TempDir(), "clip.mp4")
	err := VideoFile(context.Background(), server.URL+"/clip.mp4", finalPath, testOptions(), nil)
	if err == nil {
		t.Fatal("Expected an error for an undersized file")
	}
	if !strings.Contains(err.Error(), "too small") {
		t.Errorf("Expected a too-small error, got: %v", err)
	}

	if _, statErr := os.Stat(finalPath); !os.IsNotExist(statErr) {
		t.Error("Undersized file must not be published to the final path")
	}
	tempPath := filepath.Join(filepath.Dir(finalPath), ".clip.mp4.part")
	if _, statErr := os.Stat(tempPath); !os.IsNotExist(statErr) {
		t.Error("Temp file left behind after failed download")
	}
}

func TestVideoFileForbiddenFallsBackToAltURL(t *testing.T) {
	body := videoBody(512)
	var altHits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/clip/0.mp4":
			w.WriteHeader(http.StatusForbidden)
		case "/clip.mp4":
			altHits.Add(1)
			w.Write(body)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	finalPath := filepath.Join(t.TempDir(), "clip.mp4")
	if err := VideoFile(context.Background(), server.URL+"/clip/0.mp4", finalPath, testOptions(), nil); err != nil {
		t.Fatalf("VideoFile returned an error: %v", err)
	}
	if altHits.Load() == 0 {
		t.Error("Expected the alternate URL to be fetched after a 403")
	}
	if _, err := os.Stat(finalPath); err != nil {
		t.Errorf("Final file missing: %v", err)
	}
}

func TestVideoFileRetriesAfterServerError(t *testing.T) {
	body := videoBody(512)
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write(body)
	}))
	defer server.Close()

	finalPath := filepath.Join(t.TempDir(), "clip.mp4")
	if err := VideoFile(context.Background(), server.URL+"/clip.mp4", finalPath, testOptions(), nil); err != nil {
		t.Fatalf("VideoFile returned an error: %v", err)
	}
	if requests.Load() < 2 {
		t.Errorf("Expected a retry after the server error, saw %d requests", requests.Load())
	}
}

func TestVideoFileCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(videoBody(1024))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	finalPath := filepath.Join(t.TempDir(), "clip.mp4")
	err := VideoFile(ctx, server.URL+"/clip.mp4", finalPath, testOptions(), nil)
	if !errors.Is(err, ErrCancelled) {
		t.Errorf("Expected ErrCancelled, got: %v", err)
	}
}

func TestBrowserHeaders(t *testing.T) {
	headers := browserHeaders()
	ua := headers["User-Agent"]
	found := false
	for _, candidate := range userAgents {
		if ua == candidate {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("User-Agent %q is not one of the rotation set", ua)
	}
	if headers["Referer"] != "https://discord.com/" {
		t.Errorf("Unexpected Referer: %q", headers["Referer"])
	}
	if headers["Range"] != "bytes=0-" {
		t.Errorf("Unexpected Range: %q", headers["Range"])
	}
}
