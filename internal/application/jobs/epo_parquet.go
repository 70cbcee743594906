package jobs

import (
	"context"

	"github.com/inventohub/patent-etl/internal/archive"
	"github.com/inventohub/patent-etl/internal/columnar"
	"github.com/inventohub/patent-etl/internal/config"
	"github.com/inventohub/patent-etl/internal/domain/patent"
	"github.com/inventohub/patent-etl/internal/embedding"
	"github.com/inventohub/patent-etl/internal/extractor"
	"github.com/inventohub/patent-etl/internal/extractor/epo"
	"github.com/inventohub/patent-etl/internal/infrastructure/monitoring/logging"
	"github.com/inventohub/patent-etl/internal/infrastructure/monitoring/prometheus"
	"github.com/inventohub/patent-etl/internal/infrastructure/storage/minio"
	"github.com/inventohub/patent-etl/internal/pipeline"
)

// EPOParquetJob turns one week's publication XMLs into a single Parquet
// file with an embedding column.  When embedding is disabled the column is
// still present, filled with zero vectors, so downstream readers see one
// schema either way.
type EPOParquetJob struct {
	store     *minio.Store
	projector *embedding.Projector
	cfg       *config.Config
	log       logging.Logger
	metrics   *prometheus.JobMetrics
}

// NewEPOParquetJob wires the job.  projector may be nil when embedding is
// disabled.
func NewEPOParquetJob(store *minio.Store, projector *embedding.Projector, cfg *config.Config, log logging.Logger, metrics *prometheus.JobMetrics) *EPOParquetJob {
	return &EPOParquetJob{
		store:     store,
		projector: projector,
		cfg:       cfg,
		log:       log.Named("epo-parquet"),
		metrics:   metrics,
	}
}

// Run extracts and embeds every XML under the week's prefix and uploads the
// resulting Parquet file next to them.
func (j *EPOParquetJob) Run(ctx context.Context, year, week string) error {
	runID := newRunID()
	bucket := j.cfg.Store.EPOBucket
	prefix := archive.EPOXMLPrefix(year, week)

	keys, err := j.store.ListKeys(ctx, bucket, prefix)
	if err != nil {
		return err
	}
	xmlKeys := keys[:0]
	for _, k := range keys {
		if archive.IsPatentXML(k) {
			xmlKeys = append(xmlKeys, k)
		}
	}
	j.log.Info("starting parquet build",
		logging.String("run_id", runID),
		logging.String("prefix", prefix),
		logging.Int("xml_keys", len(xmlKeys)))

	dim := j.cfg.Embedding.Dim
	ext := epo.New(j.log)
	rows := make([]patent.EmbeddedRecord, 0, len(xmlKeys))

	p := pipeline.New[patent.EmbeddedRecord](j.cfg.Pipeline.Workers, j.cfg.Pipeline.ProgressInterval, j.log, j.metrics)
	stats := p.Run(ctx, xmlKeys,
		func(ctx context.Context, key string) ([]patent.EmbeddedRecord, []extractor.Discard, error) {
			data, err := j.store.GetObjectBytes(ctx, bucket, key)
			if err != nil {
				return nil, nil, err
			}
			rec, dis := ext.Extract(data)
			if dis != nil {
				return nil, []extractor.Discard{*dis}, nil
			}

			// Embedding runs on the worker so encoder calls overlap with
			// fetches; only the append below is single-threaded.
			vec := make([]float32, dim)
			if j.projector != nil {
				vec = j.projector.Project(ctx, rec.EmbeddingText())
			}
			return []patent.EmbeddedRecord{{Record: *rec, Embedding: vec}}, nil, nil
		},
		func(records []patent.EmbeddedRecord) error {
			rows = append(rows, records...)
			return nil
		})

	if len(rows) == 0 {
		j.log.Warn("no records extracted, skipping parquet upload",
			logging.String("run_id", runID),
			logging.String("prefix", prefix))
		pushMetrics(j.metrics, j.cfg.Metrics, "epo_parquet", runID, j.log)
		return nil
	}

	data, err := columnar.Marshal(rows)
	if err != nil {
		return err
	}
	destKey := archive.EPOParquetKey(year, week)
	if err := j.store.PutObject(ctx, bucket, destKey, data); err != nil {
		return err
	}
	if j.metrics != nil {
		j.metrics.RowsWritten.Add(float64(len(rows)))
		j.metrics.ObjectsUploaded.Inc()
	}

	j.log.Info("parquet build complete",
		logging.String("run_id", runID),
		logging.String("key", destKey),
		logging.Int("processed", stats.Processed),
		logging.Int("rows", len(rows)),
		logging.Int("discarded", stats.Discarded),
		logging.Int("failed", stats.Failed))
	pushMetrics(j.metrics, j.cfg.Metrics, "epo_parquet", runID, j.log)
	return nil
}
