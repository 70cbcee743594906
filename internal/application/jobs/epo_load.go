package jobs

import (
	"context"

	"github.com/inventohub/patent-etl/internal/archive"
	"github.com/inventohub/patent-etl/internal/config"
	"github.com/inventohub/patent-etl/internal/domain/patent"
	"github.com/inventohub/patent-etl/internal/extractor"
	"github.com/inventohub/patent-etl/internal/extractor/epo"
	"github.com/inventohub/patent-etl/internal/infrastructure/database/postgres/repositories"
	"github.com/inventohub/patent-etl/internal/infrastructure/monitoring/logging"
	"github.com/inventohub/patent-etl/internal/infrastructure/monitoring/prometheus"
	"github.com/inventohub/patent-etl/internal/infrastructure/storage/minio"
	"github.com/inventohub/patent-etl/internal/pipeline"
)

// EPOLoadJob extracts every publication XML of a year into the relational
// sink.  Inserts are idempotent, so re-running a year only fills gaps.
type EPOLoadJob struct {
	store   *minio.Store
	repo    *repositories.RecordRepository
	cfg     *config.Config
	log     logging.Logger
	metrics *prometheus.JobMetrics
}

func NewEPOLoadJob(store *minio.Store, repo *repositories.RecordRepository, cfg *config.Config, log logging.Logger, metrics *prometheus.JobMetrics) *EPOLoadJob {
	return &EPOLoadJob{
		store:   store,
		repo:    repo,
		cfg:     cfg,
		log:     log.Named("epo-load"),
		metrics: metrics,
	}
}

// Run lists the year's XML keys and streams them through the pipeline into
// batched inserts.
func (j *EPOLoadJob) Run(ctx context.Context, year string) error {
	runID := newRunID()
	bucket := j.cfg.Store.EPOBucket

	keys, err := j.store.ListKeys(ctx, bucket, year+"/epo-xmls/")
	if err != nil {
		return err
	}
	xmlKeys := keys[:0]
	for _, k := range keys {
		if archive.IsPatentXML(k) {
			xmlKeys = append(xmlKeys, k)
		}
	}
	j.log.Info("starting load",
		logging.String("run_id", runID),
		logging.String("year", year),
		logging.Int("xml_keys", len(xmlKeys)))

	ext := epo.New(j.log)
	batcher := pipeline.NewBatcher(j.cfg.Pipeline.BatchSize, j.repo.InsertBatch, j.log, j.metrics)

	p := pipeline.New[patent.Record](j.cfg.Pipeline.Workers, j.cfg.Pipeline.ProgressInterval, j.log, j.metrics)
	stats := p.Run(ctx, xmlKeys,
		func(ctx context.Context, key string) ([]patent.Record, []extractor.Discard, error) {
			data, err := j.store.GetObjectBytes(ctx, bucket, key)
			if err != nil {
				return nil, nil, err
			}
			rec, dis := ext.Extract(data)
			if dis != nil {
				return nil, []extractor.Discard{*dis}, nil
			}
			return []patent.Record{*rec}, nil, nil
		},
		func(records []patent.Record) error {
			batcher.Add(ctx, records...)
			return nil
		})
	batcher.Close(ctx)

	batchesOK, batchesFailed := batcher.Batches()
	j.log.Info("load complete",
		logging.String("run_id", runID),
		logging.String("year", year),
		logging.Int("processed", stats.Processed),
		logging.Int("extracted", stats.Extracted),
		logging.Int("discarded", stats.Discarded),
		logging.Int("failed", stats.Failed),
		logging.Int("rows_flushed", batcher.FlushedRows()),
		logging.Int("batches_ok", batchesOK),
		logging.Int("batches_failed", batchesFailed))
	pushMetrics(j.metrics, j.cfg.Metrics, "epo_load", runID, j.log)
	return nil
}
