package pipeline

import (
	"context"

	"github.com/inventohub/patent-etl/internal/infrastructure/monitoring/logging"
	"github.com/inventohub/patent-etl/internal/infrastructure/monitoring/prometheus"
)

// FlushFunc writes one batch to the sink.  An error means the whole batch
// was rolled back; the batcher logs it and moves on.
type FlushFunc[R any] func(ctx context.Context, batch []R) error

// Batcher accumulates records into fixed-size batches and flushes full ones
// as they fill.  It is meant to be driven from the pipeline collector, so it
// needs no locking.  Close flushes the final partial batch.
type Batcher[R any] struct {
	size    int
	buf     []R
	flush   FlushFunc[R]
	log     logging.Logger
	metrics *prometheus.JobMetrics

	flushedRows   int
	batchesOK     int
	batchesFailed int
}

func NewBatcher[R any](size int, flush FlushFunc[R], log logging.Logger, metrics *prometheus.JobMetrics) *Batcher[R] {
	if size < 1 {
		size = 1
	}
	return &Batcher[R]{
		size:    size,
		buf:     make([]R, 0, size),
		flush:   flush,
		log:     log.Named("batcher"),
		metrics: metrics,
	}
}

// Add buffers records, flushing every time a full batch accumulates.  A
// failed flush drops that batch only; later batches still go through.
func (b *Batcher[R]) Add(ctx context.Context, records ...R) {
	for _, r := range records {
		b.buf = append(b.buf, r)
		if len(b.buf) >= b.size {
			b.flushNow(ctx)
		}
	}
}

// Close flushes whatever remains, regardless of size.
func (b *Batcher[R]) Close(ctx context.Context) {
	if len(b.buf) > 0 {
		b.flushNow(ctx)
	}
}

// FlushedRows returns the number of records written by successful flushes.
func (b *Batcher[R]) FlushedRows() int { return b.flushedRows }

// Batches returns the successful and failed flush counts.
func (b *Batcher[R]) Batches() (ok, failed int) { return b.batchesOK, b.batchesFailed }

func (b *Batcher[R]) flushNow(ctx context.Context) {
	batch := b.buf
	b.buf = make([]R, 0, b.size)

	if err := b.flush(ctx, batch); err != nil {
		b.batchesFailed++
		if b.metrics != nil {
			b.metrics.BatchesFailed.Inc()
		}
		b.log.Error("batch flush failed",
			logging.Int("rows", len(batch)),
			logging.Err(err))
		return
	}
	b.batchesOK++
	b.flushedRows += len(batch)
	if b.metrics != nil {
		b.metrics.BatchesOK.Inc()
		b.metrics.RowsInserted.Add(float64(len(batch)))
	}
}
