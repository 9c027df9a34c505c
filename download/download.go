// Package download fetches a single video file to disk. Files are written to
// a hidden .part file first, verified for a plausible size, then atomically
// renamed into place, so a final path either holds a verified file or nothing.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cavaliergopher/grab/v3"
)

// ErrCancelled is returned when the surrounding context is cancelled.
var ErrCancelled = errors.New("operation cancelled")

// errForbidden marks a 403 response so the retry loop can try the
// alternate URL form.
var errForbidden = errors.New("server returned 403 Forbidden")

// ProgressCallback is a function type for reporting download progress.
// It receives bytes downloaded and total file size (0 when unknown).
type ProgressCallback func(downloadedBytes, totalBytes int64)

// Options control how a video is fetched.
type Options struct {
	// MinFileSize is the smallest size a finished file may have; anything
	// smaller is treated as a failed download and discarded.
	MinFileSize int64
	// MaxRetries is the attempt count per engine.
	MaxRetries int
	// PreferGrab tries the grab engine before the plain HTTP engine.
	PreferGrab bool
	// Sleep is called between retry attempts. Tests replace it.
	Sleep func(time.Duration)
}

type engineFunc func(ctx context.Context, url, tempPath string, progressCb ProgressCallback) error

// VideoFile downloads url into finalPath. Two engines are tried in the
// configured order, each with its own retry budget; the second engine only
// runs when the first one has exhausted its attempts.
func VideoFile(ctx context.Context, url, finalPath string, opts Options, progressCb ProgressCallback) error {
	if opts.MinFileSize <= 0 {
		opts.MinFileSize = 8192
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 1
	}
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}

	engines := []engineFunc{grabEngine, httpEngine}
	if !opts.PreferGrab {
		engines = []engineFunc{httpEngine, grabEngine}
	}

	var lastErr error
	for _, engine := range engines {
		err := downloadWithRetry(ctx, engine, url, finalPath, opts, progressCb)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrCancelled) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

// downloadWithRetry runs one engine against url until it produces a verified
// file or the retry budget is spent. A 403 on the first attempt of a
// .../0.mp4 URL retries the plain .mp4 form, a CDN quirk where both layouts
// exist but only one is served.
func downloadWithRetry(ctx context.Context, engine engineFunc, url, finalPath string, opts Options, progressCb ProgressCallback) error {
	dir := filepath.Dir(finalPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create download dir: %w", err)
	}
	tempPath := filepath.Join(dir, "."+filepath.Base(finalPath)+".part")

	var lastErr error
	for attempt := 1; attempt <= opts.MaxRetries; attempt++ {
		err := engine(ctx, url, tempPath, progressCb)

		if errors.Is(err, errForbidden) && attempt == 1 && strings.HasSuffix(url, "/0.mp4") {
			alt := strings.TrimSuffix(url, "/0.mp4") + ".mp4"
			err = engine(ctx, alt, tempPath, progressCb)
		}

		if err == nil {
			if size, ok := verifyTempFile(tempPath, opts.MinFileSize); ok {
				if err := os.Rename(tempPath, finalPath); err != nil {
					os.Remove(tempPath)
					return fmt.Errorf("could not move %s into place: %w", tempPath, err)
				}
				return nil
			} else {
				err = fmt.Errorf("downloaded file too small (%d bytes, need > %d)", size, opts.MinFileSize)
			}
		}

		os.Remove(tempPath)

		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return ErrCancelled
		}
		lastErr = err
		if attempt < opts.MaxRetries {
			opts.Sleep(retryDelay())
		}
	}
	return lastErr
}

// verifyTempFile checks that the temp file exists and exceeds minSize bytes.
func verifyTempFile(tempPath string, minSize int64) (int64, bool) {
	info, err := os.Stat(tempPath)
	if err != nil {
		return 0, false
	}
	return info.Size(), info.Size() > minSize
}

// retryDelay spreads retries over 3-8 seconds so repeated hits do not look
// mechanical to the CDN.
func retryDelay() time.Duration {
	return 3*time.Second + time.Duration(rand.Int63n(int64(5*time.Second)))
}

// httpEngine downloads with a plain HTTP client and full browser headers.
func httpEngine(ctx context.Context, url, tempPath string, progressCb ProgressCallback) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range browserHeaders() {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return ErrCancelled
		}
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return errForbidden
	}
	// 206 is expected because the request carries a Range header.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	out, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer out.Close()

	pr := &progressReader{
		Reader: resp.Body,
		cb:     progressCb,
		total:  resp.ContentLength,
	}
	if progressCb != nil {
		progressCb(0, pr.total)
	}

	if _, err := io.Copy(out, pr); err != nil {
		if errors.Is(err, context.Canceled) {
			return ErrCancelled
		}
		return fmt.Errorf("failed during download/save: %w", err)
	}

	if progressCb != nil {
		progressCb(pr.current, pr.total)
	}
	return nil
}

// grabEngine downloads with cavaliergopher/grab, polling its transfer state
// for progress. grab manages ranges itself, so the manual Range header is
// stripped.
func grabEngine(ctx context.Context, url, tempPath string, progressCb ProgressCallback) error {
	req, err := grab.NewRequest(tempPath, url)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req = req.WithContext(ctx)
	req.NoResume = true
	for k, v := range browserHeaders() {
		if k == "Range" {
			continue
		}
		req.HTTPRequest.Header.Set(k, v)
	}

	resp := grab.NewClient().Do(req)

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if progressCb != nil {
				progressCb(resp.BytesComplete(), resp.Size())
			}
		case <-resp.Done:
			if err := resp.Err(); err != nil {
				if resp.HTTPResponse != nil && resp.HTTPResponse.StatusCode == http.StatusForbidden {
					return errForbidden
				}
				if errors.Is(err, context.Canceled) {
					return ErrCancelled
				}
				return fmt.Errorf("grab download failed: %w", err)
			}
			if progressCb != nil {
				progressCb(resp.BytesComplete(), resp.Size())
			}
			return nil
		}
	}
}

// progressReader wraps an io.Reader to report progress via a callback,
// throttled so the callback does not fire on every read.
type progressReader struct {
	io.Reader
	cb         ProgressCallback
	current    int64
	total      int64
	lastReport time.Time
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.Reader.Read(p)
	if n > 0 {
		pr.current += int64(n)
		if pr.cb != nil && time.Since(pr.lastReport) >= 100*time.Millisecond {
			pr.cb(pr.current, pr.total)
			pr.lastReport = time.Now()
		}
	}
	return n, err
}
