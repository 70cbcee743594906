package scraper

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/inventohub/patent-etl/internal/infrastructure/monitoring/logging"
	apperrors "github.com/inventohub/patent-etl/pkg/errors"
)

const (
	defaultDownloadTimeout = 30 * time.Minute
	downloadPollInterval   = time.Second
)

// DownloadWaiter blocks until a browser download has fully landed in the
// download directory.  It combines fsnotify events with a poll ticker since
// the browser writes the temporary .crdownload file in place and renames it
// on completion.
type DownloadWaiter struct {
	dir     string
	timeout time.Duration
	log     logging.Logger
}

func NewDownloadWaiter(dir string, timeout time.Duration, log logging.Logger) *DownloadWaiter {
	if timeout <= 0 {
		timeout = defaultDownloadTimeout
	}
	return &DownloadWaiter{dir: dir, timeout: timeout, log: log.Named("download-waiter")}
}

// Wait returns once filename exists in the directory with no in-progress
// sibling and a size stable across two consecutive checks.
func (w *DownloadWaiter) Wait(ctx context.Context, filename string) error {
	deadline := time.Now().Add(w.timeout)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "create watcher")
	}
	defer watcher.Close()
	if err := watcher.Add(w.dir); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "watch download dir")
	}

	ticker := time.NewTicker(downloadPollInterval)
	defer ticker.Stop()

	w.log.Info("waiting for download",
		logging.String("file", filename),
		logging.Duration("timeout", w.timeout))

	var lastSize int64 = -1
	for {
		if done, size := w.check(filename, lastSize); done {
			w.log.Info("download complete",
				logging.String("file", filename),
				logging.Int64("bytes", size))
			return nil
		} else {
			lastSize = size
		}

		if time.Now().After(deadline) {
			return apperrors.New(apperrors.ErrCodeDownloadTimeout,
				"download of "+filename+" did not finish within "+w.timeout.String())
		}

		select {
		case <-ctx.Done():
			return apperrors.Wrap(ctx.Err(), apperrors.ErrCodeDownloadTimeout, "wait for "+filename)
		case <-watcher.Events:
		case err := <-watcher.Errors:
			w.log.Warn("watcher error", logging.Err(err))
		case <-ticker.C:
		}
	}
}

// check reports whether the download finished.  size is the current file
// size, or -1 when the file is absent, so the caller can detect stability.
func (w *DownloadWaiter) check(filename string, lastSize int64) (bool, int64) {
	target := filepath.Join(w.dir, filename)

	for _, partial := range []string{target + ".crdownload", target + ".tmp"} {
		if _, err := os.Stat(partial); err == nil {
			return false, -1
		}
	}

	info, err := os.Stat(target)
	if err != nil {
		return false, -1
	}
	if info.Size() > 0 && info.Size() == lastSize {
		return true, info.Size()
	}
	return false, info.Size()
}
