package jobs

import (
	"context"
	"os"
	"path"
	"path/filepath"

	"github.com/inventohub/patent-etl/internal/archive"
	"github.com/inventohub/patent-etl/internal/columnar"
	"github.com/inventohub/patent-etl/internal/config"
	"github.com/inventohub/patent-etl/internal/domain/patent"
	"github.com/inventohub/patent-etl/internal/extractor"
	"github.com/inventohub/patent-etl/internal/extractor/uspto"
	"github.com/inventohub/patent-etl/internal/infrastructure/monitoring/logging"
	"github.com/inventohub/patent-etl/internal/infrastructure/monitoring/prometheus"
	"github.com/inventohub/patent-etl/internal/infrastructure/storage/minio"
	"github.com/inventohub/patent-etl/internal/pipeline"
	"github.com/inventohub/patent-etl/internal/scraper"
)

// USPTOIngestJob lands weekly grant zips and their derived parquet files:
// raw zip under {year}/zipped/, parquet under {year}/xmls/{date}.parquet.
type USPTOIngestJob struct {
	store    *minio.Store
	driver   *scraper.USPTODriver
	unpacker *archive.Unpacker
	cfg      *config.Config
	log      logging.Logger
	metrics  *prometheus.JobMetrics
}

// NewUSPTOIngestJob wires the ingest job.  driver may be nil for key mode,
// which never opens a browser.
func NewUSPTOIngestJob(store *minio.Store, driver *scraper.USPTODriver, cfg *config.Config, log logging.Logger, metrics *prometheus.JobMetrics) *USPTOIngestJob {
	return &USPTOIngestJob{
		store:    store,
		driver:   driver,
		unpacker: archive.NewUnpacker(log),
		cfg:      cfg,
		log:      log.Named("uspto-ingest"),
		metrics:  metrics,
	}
}

// IngestRange discovers grant archives in [fromDate, toDate] (MM-DD-YYYY)
// and ingests every one not yet fully landed.  A failed archive is logged
// and skipped; the rest of the range still runs.
func (j *USPTOIngestJob) IngestRange(ctx context.Context, fromDate, toDate string) error {
	runID := newRunID()

	names, err := j.driver.ListGrantArchives(fromDate, toDate)
	if err != nil {
		return err
	}

	var ingested, skipped, failed int
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		did, err := j.ingestOne(ctx, name)
		switch {
		case err != nil:
			failed++
			j.log.Error("archive ingest failed",
				logging.String("archive", name),
				logging.Err(err))
		case did:
			ingested++
		default:
			skipped++
		}
	}

	j.log.Info("ingest complete",
		logging.String("run_id", runID),
		logging.String("from", fromDate),
		logging.String("to", toDate),
		logging.Int("ingested", ingested),
		logging.Int("skipped", skipped),
		logging.Int("failed", failed))
	pushMetrics(j.metrics, j.cfg.Metrics, "uspto_ingest", runID, j.log)
	return nil
}

// IngestKey rebuilds the parquet for a raw zip already in the store, with
// no browser involved.
func (j *USPTOIngestJob) IngestKey(ctx context.Context, key string) error {
	runID := newRunID()
	bucket := j.cfg.Store.USPTOBucket

	name := path.Base(key)
	year, datePart, err := archive.ParseUSPTOArchiveName(name)
	if err != nil {
		return err
	}

	localPath := filepath.Join(j.cfg.Browser.DownloadDir, name)
	if err := j.store.DownloadFile(ctx, bucket, key, localPath); err != nil {
		return err
	}
	defer os.Remove(localPath)

	if err := j.buildParquet(ctx, localPath, year, datePart); err != nil {
		return err
	}
	j.log.Info("key ingest complete",
		logging.String("run_id", runID),
		logging.String("key", key))
	pushMetrics(j.metrics, j.cfg.Metrics, "uspto_ingest", runID, j.log)
	return nil
}

// ingestOne lands one archive end to end.  It reports whether any work
// happened: false means both artifacts already existed.
func (j *USPTOIngestJob) ingestOne(ctx context.Context, name string) (bool, error) {
	bucket := j.cfg.Store.USPTOBucket

	year, datePart, err := archive.ParseUSPTOArchiveName(name)
	if err != nil {
		j.log.Warn("unrecognized archive name skipped", logging.String("name", name))
		return false, nil
	}
	rawKey := archive.USPTORawZipKey(year, name)
	parquetKey := archive.USPTOParquetKey(year, datePart)

	rawExists, err := j.store.Exists(ctx, bucket, rawKey)
	if err != nil {
		return false, err
	}
	parquetExists, err := j.store.Exists(ctx, bucket, parquetKey)
	if err != nil {
		return false, err
	}
	if rawExists && parquetExists {
		j.log.Info("archive fully landed, skipping", logging.String("name", name))
		return false, nil
	}

	var localPath string
	if rawExists {
		localPath = filepath.Join(j.cfg.Browser.DownloadDir, name)
		if err := j.store.DownloadFile(ctx, bucket, rawKey, localPath); err != nil {
			return false, err
		}
	} else {
		localPath, err = j.driver.DownloadArchive(name)
		if err != nil {
			return false, err
		}
		if j.metrics != nil {
			j.metrics.ArchivesDownloaded.Inc()
		}
		if err := j.store.UploadFile(ctx, localPath, bucket, rawKey); err != nil {
			return false, err
		}
		if j.metrics != nil {
			j.metrics.ObjectsUploaded.Inc()
		}
	}
	defer os.Remove(localPath)

	return true, j.buildParquet(ctx, localPath, year, datePart)
}

// buildParquet splits, extracts, and dedupes the zip's member XML blobs and
// uploads the grant parquet.
func (j *USPTOIngestJob) buildParquet(ctx context.Context, localPath, year, datePart string) error {
	bucket := j.cfg.Store.USPTOBucket

	members, err := j.unpacker.ListZipMembers(localPath)
	if err != nil {
		return err
	}
	byName := make(map[string][]byte, len(members))
	memberNames := make([]string, 0, len(members))
	for _, m := range members {
		byName[m.Name] = m.Data
		memberNames = append(memberNames, m.Name)
	}

	ext := uspto.New(j.log)
	var rows []patent.GrantRecord

	p := pipeline.New[patent.GrantRecord](j.cfg.Pipeline.Workers, j.cfg.Pipeline.ProgressInterval, j.log, j.metrics)
	stats := p.Run(ctx, memberNames,
		func(ctx context.Context, name string) ([]patent.GrantRecord, []extractor.Discard, error) {
			records, discards := ext.ExtractFile(byName[name])
			return records, discards, nil
		},
		func(records []patent.GrantRecord) error {
			rows = append(rows, records...)
			return nil
		})

	// Mirrors sometimes repeat grants across member files.
	rows = patent.DedupeByPubRef(rows)

	if len(rows) == 0 {
		j.log.Warn("no grants extracted, skipping parquet upload",
			logging.String("archive", localPath))
		return nil
	}

	data, err := columnar.Marshal(rows)
	if err != nil {
		return err
	}
	destKey := archive.USPTOParquetKey(year, datePart)
	if err := j.store.PutObject(ctx, bucket, destKey, data); err != nil {
		return err
	}
	if j.metrics != nil {
		j.metrics.RowsWritten.Add(float64(len(rows)))
		j.metrics.ObjectsUploaded.Inc()
	}

	j.log.Info("grant parquet uploaded",
		logging.String("key", destKey),
		logging.Int("members", stats.Processed),
		logging.Int("rows", len(rows)),
		logging.Int("discarded", stats.Discarded))
	return nil
}
