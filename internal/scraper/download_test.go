package scraper

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inventohub/patent-etl/internal/infrastructure/monitoring/logging"
	apperrors "github.com/inventohub/patent-etl/pkg/errors"
)

func TestDownloadWaiterCompletesAfterRename(t *testing.T) {
	dir := t.TempDir()
	name := "EPRTBJV2025000011001001.zip"
	partial := filepath.Join(dir, name+".crdownload")
	require.NoError(t, os.WriteFile(partial, []byte("part"), 0o644))

	go func() {
		time.Sleep(200 * time.Millisecond)
		_ = os.WriteFile(filepath.Join(dir, name), []byte("full archive"), 0o644)
		_ = os.Remove(partial)
	}()

	w := NewDownloadWaiter(dir, 30*time.Second, logging.NewNopLogger())
	require.NoError(t, w.Wait(context.Background(), name))
}

func TestDownloadWaiterTimesOut(t *testing.T) {
	w := NewDownloadWaiter(t.TempDir(), 500*time.Millisecond, logging.NewNopLogger())
	err := w.Wait(context.Background(), "never.zip")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeDownloadTimeout))
}

func TestDownloadWaiterHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	w := NewDownloadWaiter(t.TempDir(), time.Hour, logging.NewNopLogger())
	err := w.Wait(ctx, "never.zip")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeDownloadTimeout))
}
