package jobs

import (
	"context"
	"os"
	"path/filepath"

	"github.com/inventohub/patent-etl/internal/archive"
	"github.com/inventohub/patent-etl/internal/config"
	"github.com/inventohub/patent-etl/internal/infrastructure/monitoring/logging"
	"github.com/inventohub/patent-etl/internal/infrastructure/monitoring/prometheus"
	"github.com/inventohub/patent-etl/internal/infrastructure/storage/minio"
	"github.com/inventohub/patent-etl/internal/scraper"
)

// EPOFetchJob lands the weekly front-file archive in the object store:
// raw archive under {year}/, member XMLs under {year}/epo-xmls/{year}_{week}/.
type EPOFetchJob struct {
	store    *minio.Store
	driver   *scraper.EPODriver
	unpacker *archive.Unpacker
	cfg      *config.Config
	log      logging.Logger
	metrics  *prometheus.JobMetrics
}

// NewEPOFetchJob wires the fetch job.  driver may be nil for backfill runs,
// which only touch the object store.
func NewEPOFetchJob(store *minio.Store, driver *scraper.EPODriver, cfg *config.Config, log logging.Logger, metrics *prometheus.JobMetrics) *EPOFetchJob {
	return &EPOFetchJob{
		store:    store,
		driver:   driver,
		unpacker: archive.NewUnpacker(log),
		cfg:      cfg,
		log:      log.Named("epo-fetch"),
		metrics:  metrics,
	}
}

// FetchLatest discovers the newest archive on the product page, downloads
// it, uploads the raw file, and fans the member XMLs out under the week's
// prefix.  Already-present XML keys are left untouched.
func (j *EPOFetchJob) FetchLatest(ctx context.Context) error {
	runID := newRunID()
	bucket := j.cfg.Store.EPOBucket

	latest, err := j.driver.DiscoverLatest()
	if err != nil {
		return err
	}
	year, week, err := archive.ParseEPOArchiveName(latest.Name)
	if err != nil {
		return err
	}

	rawKey := archive.EPORawArchiveKey(year, latest.Name)
	rawExists, err := j.store.Exists(ctx, bucket, rawKey)
	if err != nil {
		return err
	}
	if rawExists {
		j.log.Info("raw archive already uploaded, refreshing member XMLs only",
			logging.String("run_id", runID),
			logging.String("key", rawKey))
	}

	localPath, err := j.driver.Download(latest.Name)
	if err != nil {
		return err
	}
	defer os.Remove(localPath)
	if j.metrics != nil {
		j.metrics.ArchivesDownloaded.Inc()
	}

	if !rawExists {
		if err := j.store.UploadFile(ctx, localPath, bucket, rawKey); err != nil {
			return err
		}
		if j.metrics != nil {
			j.metrics.ObjectsUploaded.Inc()
		}
	}

	uploaded, skipped, err := j.uploadMembers(ctx, localPath, year, week)
	if err != nil {
		return err
	}

	j.log.Info("fetch complete",
		logging.String("run_id", runID),
		logging.String("archive", latest.Name),
		logging.Int("xmls_uploaded", uploaded),
		logging.Int("xmls_skipped", skipped))
	pushMetrics(j.metrics, j.cfg.Metrics, "epo_fetch", runID, j.log)
	return nil
}

// Backfill walks weeks 1..52 of a year against archives already sitting in
// the store, unpacking any week whose XML prefix is still empty.
func (j *EPOFetchJob) Backfill(ctx context.Context, year string) error {
	runID := newRunID()
	bucket := j.cfg.Store.EPOBucket

	tmpDir, err := os.MkdirTemp("", "epo-backfill-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmpDir)

	var done, skipped, missing int
	for week := 1; week <= 52; week++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		name, rawKey, found, err := j.findRawArchive(ctx, bucket, year, week)
		if err != nil {
			return err
		}
		if !found {
			missing++
			continue
		}

		_, weekStr, err := archive.ParseEPOArchiveName(name)
		if err != nil {
			return err
		}
		existing, err := j.store.ListKeys(ctx, bucket, archive.EPOXMLPrefix(year, weekStr))
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			j.log.Info("week already unpacked",
				logging.String("year", year),
				logging.String("week", weekStr),
				logging.Int("xmls", len(existing)))
			skipped++
			continue
		}

		localPath := filepath.Join(tmpDir, name)
		if err := j.store.DownloadFile(ctx, bucket, rawKey, localPath); err != nil {
			return err
		}
		uploaded, _, err := j.uploadMembers(ctx, localPath, year, weekStr)
		os.Remove(localPath)
		if err != nil {
			return err
		}
		j.log.Info("week unpacked",
			logging.String("year", year),
			logging.String("week", weekStr),
			logging.Int("xmls_uploaded", uploaded))
		done++
	}

	j.log.Info("backfill complete",
		logging.String("run_id", runID),
		logging.String("year", year),
		logging.Int("weeks_unpacked", done),
		logging.Int("weeks_skipped", skipped),
		logging.Int("weeks_missing", missing))
	pushMetrics(j.metrics, j.cfg.Metrics, "epo_fetch_backfill", runID, j.log)
	return nil
}

// findRawArchive probes both archive extensions for one week.
func (j *EPOFetchJob) findRawArchive(ctx context.Context, bucket, year string, week int) (name, key string, found bool, err error) {
	for _, ext := range []string{".zip", ".tar"} {
		name = archive.EPOArchiveName(year, week, ext)
		key = archive.EPORawArchiveKey(year, name)
		found, err = j.store.Exists(ctx, bucket, key)
		if err != nil || found {
			return name, key, found, err
		}
	}
	return "", "", false, nil
}

// uploadMembers walks the archive and uploads every publication XML that is
// not already in the store.
func (j *EPOFetchJob) uploadMembers(ctx context.Context, localPath, year, week string) (uploaded, skipped int, err error) {
	bucket := j.cfg.Store.EPOBucket
	err = j.unpacker.WalkArchiveFile(localPath, func(m archive.Member) error {
		key := archive.EPOXMLKey(year, week, m.Name)
		exists, err := j.store.Exists(ctx, bucket, key)
		if err != nil {
			return err
		}
		if exists {
			skipped++
			return nil
		}
		if err := j.store.PutObject(ctx, bucket, key, m.Data); err != nil {
			return err
		}
		uploaded++
		if j.metrics != nil {
			j.metrics.ObjectsUploaded.Inc()
		}
		return nil
	})
	return uploaded, skipped, err
}
