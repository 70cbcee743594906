package columnar

import (
	"context"
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/inventohub/patent-etl/internal/infrastructure/monitoring/logging"
	"github.com/inventohub/patent-etl/internal/infrastructure/monitoring/prometheus"
	apperrors "github.com/inventohub/patent-etl/pkg/errors"
)

// rowBatch is the number of rows pulled from a row group per read call.
const rowBatch = 1024

// RowPredicate decides whether one row belongs in the rewritten output.
type RowPredicate func(parquet.Row) bool

// OutputFactory opens the destination on demand.  The rewriter calls it at
// most once, on the first row group with a matching row; when nothing ever
// matches, no output artifact exists at all.
type OutputFactory func() (io.WriteCloser, error)

// RewriteStats summarizes one rewrite run.
type RewriteStats struct {
	RowGroups     int
	MatchedGroups int
	RowsWritten   int
	OutputCreated bool
}

// DateRangePredicate matches rows whose named string column falls within
// [from, to] inclusive, comparing lexically (dates are stored as YYYYMMDD
// strings, so lexical order is date order).  A file without the column
// cannot be filtered and is a schema mismatch.
func DateRangePredicate(schema *parquet.Schema, column, from, to string) (RowPredicate, error) {
	leaf, ok := schema.Lookup(column)
	if !ok {
		return nil, apperrors.New(apperrors.ErrCodeSchemaMismatch, "column "+column+" not present in source schema")
	}
	idx := leaf.ColumnIndex
	return func(row parquet.Row) bool {
		for _, v := range row {
			if v.Column() == idx {
				s := v.String()
				return s >= from && s <= to
			}
		}
		return false
	}, nil
}

// Rewriter stream-filters a Parquet file row group by row group.
type Rewriter struct {
	log     logging.Logger
	metrics *prometheus.JobMetrics
}

func NewRewriter(log logging.Logger, metrics *prometheus.JobMetrics) *Rewriter {
	return &Rewriter{log: log.Named("rewriter"), metrics: metrics}
}

// Rewrite reads the source file and appends every row matching pred to the
// lazily-opened output.  The writer is opened with the schema of the first
// matching row group; a later row group with a different schema aborts the
// run.  On any abort the already-opened writer is still closed, leaving a
// valid truncated file rather than a corrupt one.
func (rw *Rewriter) Rewrite(ctx context.Context, src io.ReaderAt, size int64, out OutputFactory, pred RowPredicate) (stats RewriteStats, err error) {
	file, err := parquet.OpenFile(src, size)
	if err != nil {
		return stats, apperrors.Wrap(err, apperrors.ErrCodeInternal, "open source parquet file")
	}

	var (
		writer       *parquet.Writer
		writerSchema *parquet.Schema
		sink         io.WriteCloser
	)
	defer func() {
		if writer == nil {
			return
		}
		// Close even on abort so the output is a valid truncated file, and
		// close the sink after the footer so streaming destinations see EOF.
		if closeErr := writer.Close(); closeErr != nil && err == nil {
			err = apperrors.Wrap(closeErr, apperrors.ErrCodeInternal, "finalize output file")
		}
		if closeErr := sink.Close(); closeErr != nil && err == nil {
			err = apperrors.Wrap(closeErr, apperrors.ErrCodeStorageError, "close output")
		}
	}()

	groups := file.RowGroups()
	stats.RowGroups = len(groups)

	for i, rg := range groups {
		if err := ctx.Err(); err != nil {
			return stats, apperrors.Wrap(err, apperrors.ErrCodeInternal, "rewrite interrupted")
		}

		matched, err := rw.filterGroup(rg, pred)
		if err != nil {
			return stats, err
		}
		if len(matched) == 0 {
			rw.log.Debug("row group had no matching rows", logging.Int("group", i))
			continue
		}

		if writer == nil {
			w, err := out()
			if err != nil {
				return stats, apperrors.Wrap(err, apperrors.ErrCodeStorageError, "open output")
			}
			sink = w
			writerSchema = rg.Schema()
			writer = parquet.NewWriter(w, writerSchema)
			stats.OutputCreated = true
		} else if writerSchema.String() != rg.Schema().String() {
			return stats, apperrors.New(apperrors.ErrCodeSchemaMismatch, "row group schema differs from output schema")
		}

		if _, err := writer.WriteRows(matched); err != nil {
			return stats, apperrors.Wrap(err, apperrors.ErrCodeInternal, "append matching rows")
		}

		stats.MatchedGroups++
		stats.RowsWritten += len(matched)
		if rw.metrics != nil {
			rw.metrics.RowsWritten.Add(float64(len(matched)))
		}
		rw.log.Info("row group rewritten",
			logging.Int("group", i),
			logging.Int("rows", len(matched)))
	}

	return stats, nil
}

// filterGroup streams one row group through pred in fixed-size row batches.
func (rw *Rewriter) filterGroup(rg parquet.RowGroup, pred RowPredicate) ([]parquet.Row, error) {
	rows := rg.Rows()
	defer rows.Close()

	var matched []parquet.Row
	buf := make([]parquet.Row, rowBatch)
	for {
		n, err := rows.ReadRows(buf)
		for _, row := range buf[:n] {
			if pred(row) {
				matched = append(matched, row.Clone())
			}
		}
		if err == io.EOF {
			return matched, nil
		}
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "read row group")
		}
	}
}
