// Package fetch drains the pending video queue, one download at a time.
package fetch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"videos-midjourney/config"
	"videos-midjourney/download"
	"videos-midjourney/model"
	"videos-midjourney/store"
	"videos-midjourney/util"
)

// Downloader fetches one video file. Tests replace it.
type Downloader func(ctx context.Context, url, finalPath string, progressCb download.ProgressCallback) error

// Fetcher processes pending videos strictly sequentially, marking and
// persisting each one the moment its file is verified on disk. There is no
// global reconciliation pass against the download directory.
type Fetcher struct {
	store       *store.Store
	downloadDir string
	pace        time.Duration
	logger      *zap.Logger
	downloader  Downloader
	events      chan model.Progress

	mu      sync.Mutex
	running bool
	queued  bool
}

// New builds a Fetcher using the download engines configured in cfg.
func New(st *store.Store, cfg config.Config, logger *zap.Logger) *Fetcher {
	opts := download.Options{
		MinFileSize: cfg.MinFileSize,
		MaxRetries:  cfg.MaxRetries,
		PreferGrab:  cfg.PreferGrab,
	}
	return &Fetcher{
		store:       st,
		downloadDir: cfg.DownloadDir,
		pace:        cfg.Pace(),
		logger:      logger,
		downloader: func(ctx context.Context, url, finalPath string, progressCb download.ProgressCallback) error {
			return download.VideoFile(ctx, url, finalPath, opts, progressCb)
		},
		events: make(chan model.Progress, 64),
	}
}

// Events exposes per-download progress for the terminal monitor. Events are
// dropped when nobody is draining the channel.
func (f *Fetcher) Events() <-chan model.Progress {
	return f.events
}

// Trigger starts a pass over the pending queue in the background. A pass
// already in flight absorbs the trigger and re-scans the queue once it
// finishes, so videos added mid-pass are never lost.
func (f *Fetcher) Trigger(ctx context.Context) {
	f.mu.Lock()
	if f.running {
		f.queued = true
		f.mu.Unlock()
		return
	}
	f.running = true
	f.mu.Unlock()

	go f.run(ctx)
}

func (f *Fetcher) run(ctx context.Context) {
	for {
		f.pass(ctx)

		f.mu.Lock()
		if !f.queued || ctx.Err() != nil {
			f.running = false
			f.mu.Unlock()
			return
		}
		f.queued = false
		f.mu.Unlock()
	}
}

// pass downloads every currently-pending video in order.
func (f *Fetcher) pass(ctx context.Context) {
	all := f.store.All()
	pending := f.store.Pending()

	f.logger.Info("download status summary",
		zap.Int("total", len(all)),
		zap.Int("completed", len(all)-len(pending)),
		zap.Int("pending", len(pending)),
	)

	if len(pending) == 0 {
		f.logger.Info("all videos already marked as downloaded, nothing to do")
		return
	}

	for i, video := range pending {
		if ctx.Err() != nil {
			return
		}

		filename := video.VideoName + ".mp4"
		finalPath := filepath.Join(f.downloadDir, filename)

		f.logger.Info("downloading",
			zap.String("file", filename),
			zap.String("url", video.VideoURL),
			zap.Int("index", i+1),
			zap.Int("of", len(pending)),
		)
		f.emit(model.Progress{VideoName: video.VideoName, Status: model.StatusDownloading})

		err := f.downloader(ctx, video.VideoURL, finalPath, f.progressFunc(video.VideoName))
		if err != nil {
			f.logger.Warn("download failed", zap.String("file", filename), zap.Error(err))
			f.emit(model.Progress{VideoName: video.VideoName, Status: model.StatusFailed, Err: err})
		} else {
			f.markDownloaded(video.VideoName)
		}

		if remaining := len(pending) - (i + 1); remaining > 0 && f.pace > 0 {
			f.logger.Info("pacing before next download",
				zap.Duration("wait", f.pace),
				zap.Int("remaining", remaining),
			)
			select {
			case <-ctx.Done():
				return
			case <-time.After(f.pace):
			}
		}
	}
}

// markDownloaded records a verified download in the database immediately.
func (f *Fetcher) markDownloaded(name string) {
	f.emit(model.Progress{VideoName: name, Status: model.StatusVerifying})

	found, err := f.store.MarkDownloaded(name)
	if err != nil {
		f.logger.Error("could not persist videos database", zap.String("name", name), zap.Error(err))
	}
	if !found {
		f.logger.Warn("video missing from database, cannot mark as downloaded", zap.String("name", name))
	}

	f.emit(model.Progress{VideoName: name, Status: model.StatusCompleted})
	f.logger.Info("completed", zap.String("name", name))
}

// progressFunc adapts raw byte counts into Progress events with a speed
// estimate for the monitor.
func (f *Fetcher) progressFunc(name string) download.ProgressCallback {
	var lastBytes int64
	lastTime := time.Now()

	return func(current, total int64) {
		var speed float64
		now := time.Now()
		if elapsed := now.Sub(lastTime).Seconds(); elapsed > 0 && current > lastBytes {
			speed = float64(current-lastBytes) / elapsed
			f.logger.Debug("progress",
				zap.String("name", name),
				zap.String("done", util.FormatSize(current)),
				zap.String("speed", util.FormatSpeed(speed)),
			)
		}
		lastBytes = current
		lastTime = now

		f.emit(model.Progress{
			VideoName:    name,
			Status:       model.StatusDownloading,
			CurrentBytes: current,
			TotalBytes:   total,
			Speed:        speed,
		})
	}
}

func (f *Fetcher) emit(p model.Progress) {
	select {
	case f.events <- p:
	default:
	}
}
