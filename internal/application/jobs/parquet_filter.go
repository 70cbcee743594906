package jobs

import (
	"context"
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/inventohub/patent-etl/internal/columnar"
	"github.com/inventohub/patent-etl/internal/config"
	"github.com/inventohub/patent-etl/internal/infrastructure/monitoring/logging"
	"github.com/inventohub/patent-etl/internal/infrastructure/monitoring/prometheus"
	"github.com/inventohub/patent-etl/internal/infrastructure/storage/minio"
	apperrors "github.com/inventohub/patent-etl/pkg/errors"
)

// publicationDateColumn is the filter column of the parquet-filter job.
const publicationDateColumn = "date_publication"

// ParquetFilterJob rewrites one stored Parquet object, keeping only rows
// whose publication date falls in an inclusive range.  The source is read
// through a random-access handle and the destination streamed through a
// pipe, so neither side is ever held in memory whole.  When nothing matches
// no destination object is created.
type ParquetFilterJob struct {
	store   *minio.Store
	cfg     *config.Config
	log     logging.Logger
	metrics *prometheus.JobMetrics
}

func NewParquetFilterJob(store *minio.Store, cfg *config.Config, log logging.Logger, metrics *prometheus.JobMetrics) *ParquetFilterJob {
	return &ParquetFilterJob{
		store:   store,
		cfg:     cfg,
		log:     log.Named("parquet-filter"),
		metrics: metrics,
	}
}

// Run filters bucket/srcKey into bucket/destKey.  from and to are YYYYMMDD
// strings compared inclusively.  On an abort mid-rewrite the output already
// streamed is still finalized and left at destKey as a valid truncated file.
func (j *ParquetFilterJob) Run(ctx context.Context, bucket, srcKey, destKey, from, to string) error {
	runID := newRunID()

	src, size, err := j.store.OpenObject(ctx, bucket, srcKey)
	if err != nil {
		return err
	}
	defer src.Close()

	file, err := parquet.OpenFile(src, size)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "open "+srcKey)
	}
	pred, err := columnar.DateRangePredicate(file.Schema(), publicationDateColumn, from, to)
	if err != nil {
		return err
	}

	// The rewriter opens the pipe lazily on the first match and closes it
	// after the footer, which lets the upload goroutine run to completion
	// even when the rewrite itself aborts partway.
	var (
		pipeWriter *io.PipeWriter
		uploadDone chan error
	)
	factory := func() (io.WriteCloser, error) {
		pr, pw := io.Pipe()
		pipeWriter = pw
		uploadDone = make(chan error, 1)
		go func() {
			uploadDone <- j.store.PutObjectStream(ctx, bucket, destKey, pr)
		}()
		return pw, nil
	}

	rewriter := columnar.NewRewriter(j.log, j.metrics)
	stats, rewriteErr := rewriter.Rewrite(ctx, src, size, factory, pred)

	var uploadErr error
	if pipeWriter != nil {
		uploadErr = <-uploadDone
	}

	if rewriteErr != nil {
		if stats.OutputCreated && uploadErr == nil {
			j.log.Warn("rewrite aborted, partial output finalized",
				logging.String("run_id", runID),
				logging.String("dest", destKey),
				logging.Int("rows_written", stats.RowsWritten))
		}
		return rewriteErr
	}
	if uploadErr != nil {
		return uploadErr
	}

	if !stats.OutputCreated {
		j.log.Info("no rows in range, no output written",
			logging.String("run_id", runID),
			logging.String("src", srcKey),
			logging.String("from", from),
			logging.String("to", to))
		pushMetrics(j.metrics, j.cfg.Metrics, "parquet_filter", runID, j.log)
		return nil
	}

	if j.metrics != nil {
		j.metrics.ObjectsUploaded.Inc()
	}
	j.log.Info("filter complete",
		logging.String("run_id", runID),
		logging.String("src", srcKey),
		logging.String("dest", destKey),
		logging.Int("row_groups", stats.RowGroups),
		logging.Int("matched_groups", stats.MatchedGroups),
		logging.Int("rows_written", stats.RowsWritten))
	pushMetrics(j.metrics, j.cfg.Metrics, "parquet_filter", runID, j.log)
	return nil
}
