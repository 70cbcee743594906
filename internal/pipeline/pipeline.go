// Package pipeline drives per-key fetch+extract work across a bounded
// worker pool and funnels every result through a single collector, so sink
// state is never touched from more than one goroutine.
package pipeline

import (
	"context"
	"sync"

	"github.com/inventohub/patent-etl/internal/extractor"
	"github.com/inventohub/patent-etl/internal/infrastructure/monitoring/logging"
	"github.com/inventohub/patent-etl/internal/infrastructure/monitoring/prometheus"
)

// FetchExtractFunc is one unit of work: fetch the bytes behind key and
// extract records from them.  Discards are the per-document drop outcomes;
// err reports a key-level failure (fetch error, unreadable object).  Either
// way the unit is complete; errors never cancel sibling keys.
type FetchExtractFunc[R any] func(ctx context.Context, key string) ([]R, []extractor.Discard, error)

// CollectFunc receives each completed unit's records on the collector
// goroutine.  Implementations own all batching and sink state.
type CollectFunc[R any] func(records []R) error

// Stats is the run summary the jobs log at the end.
type Stats struct {
	Processed int // keys completed, successfully or not
	Extracted int // records produced
	Discarded int // documents dropped with a reason
	Failed    int // keys that failed outright
}

type result[R any] struct {
	key      string
	records  []R
	discards []extractor.Discard
	err      error
}

// Pipeline fans keys out to a fixed number of workers.  The zero value is
// not usable; construct with New.
type Pipeline[R any] struct {
	workers       int
	progressEvery int
	log           logging.Logger
	metrics       *prometheus.JobMetrics
}

// New returns a pipeline with the given concurrency limit.  progressEvery
// controls the cadence of progress log lines; metrics may be nil.
func New[R any](workers, progressEvery int, log logging.Logger, metrics *prometheus.JobMetrics) *Pipeline[R] {
	if workers < 1 {
		workers = 1
	}
	if progressEvery < 1 {
		progressEvery = 100
	}
	return &Pipeline[R]{
		workers:       workers,
		progressEvery: progressEvery,
		log:           log.Named("pipeline"),
		metrics:       metrics,
	}
}

// Run processes every key and passes each unit's records to collect on the
// calling goroutine.  Completion order is arrival order, not submission
// order.  Run returns only when all keys have been consumed; the context
// stops feeding new keys but in-flight units finish.
func (p *Pipeline[R]) Run(ctx context.Context, keys []string, fn FetchExtractFunc[R], collect CollectFunc[R]) Stats {
	tasks := make(chan string)
	results := make(chan result[R])

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for key := range tasks {
				records, discards, err := fn(ctx, key)
				results <- result[R]{key: key, records: records, discards: discards, err: err}
			}
		}()
	}

	go func() {
		defer close(tasks)
		for _, key := range keys {
			select {
			case tasks <- key:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var stats Stats
	for res := range results {
		stats.Processed++
		if p.metrics != nil {
			p.metrics.DocumentsProcessed.Inc()
		}

		if res.err != nil {
			stats.Failed++
			p.log.Warn("unit failed",
				logging.String("key", res.key),
				logging.Err(res.err))
		}
		for _, d := range res.discards {
			stats.Discarded++
			if p.metrics != nil {
				p.metrics.DiscardsTotal.WithLabelValues(string(d.Reason)).Inc()
			}
			p.log.Warn("document discarded",
				logging.String("key", res.key),
				logging.String("reason", string(d.Reason)),
				logging.String("detail", d.Detail))
		}
		if len(res.records) > 0 {
			stats.Extracted += len(res.records)
			if p.metrics != nil {
				p.metrics.RecordsExtracted.Add(float64(len(res.records)))
			}
			if err := collect(res.records); err != nil {
				p.log.Error("collect failed",
					logging.String("key", res.key),
					logging.Err(err))
			}
		}

		if stats.Processed%p.progressEvery == 0 {
			p.log.Info("progress",
				logging.Int("processed", stats.Processed),
				logging.Int("total", len(keys)),
				logging.Int("extracted", stats.Extracted),
				logging.Int("discarded", stats.Discarded))
		}
	}
	return stats
}
