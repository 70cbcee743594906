// Package prometheus holds the run-level metrics for the batch jobs.  The
// jobs are terminal processes with no scrape endpoint, so every run builds
// its own registry and, when a Pushgateway is configured, pushes the final
// counter values once at job end.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// JobMetrics holds all counters a single job run can touch.  Unused counters
// simply stay at zero; pushing them is harmless.
type JobMetrics struct {
	registry *prometheus.Registry

	// Pipeline
	DocumentsProcessed prometheus.Counter
	RecordsExtracted   prometheus.Counter
	DiscardsTotal      *prometheus.CounterVec // label: reason

	// Sink
	RowsInserted  prometheus.Counter
	BatchesOK     prometheus.Counter
	BatchesFailed prometheus.Counter

	// Columnar
	RowsWritten prometheus.Counter

	// Store / scraper
	ObjectsUploaded    prometheus.Counter
	ArchivesDownloaded prometheus.Counter
}

// NewJobMetrics registers the full counter set on a fresh registry.
func NewJobMetrics() *JobMetrics {
	reg := prometheus.NewRegistry()
	m := &JobMetrics{registry: reg}

	m.DocumentsProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "patent_etl_documents_processed_total",
		Help: "Source documents fetched and handed to an extractor.",
	})
	m.RecordsExtracted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "patent_etl_records_extracted_total",
		Help: "Patent records successfully extracted.",
	})
	m.DiscardsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "patent_etl_discards_total",
		Help: "Documents or records discarded, by reason.",
	}, []string{"reason"})
	m.RowsInserted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "patent_etl_rows_inserted_total",
		Help: "Rows inserted into the relational sink.",
	})
	m.BatchesOK = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "patent_etl_sink_batches_ok_total",
		Help: "Sink batches committed.",
	})
	m.BatchesFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "patent_etl_sink_batches_failed_total",
		Help: "Sink batches rolled back after an error.",
	})
	m.RowsWritten = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "patent_etl_columnar_rows_written_total",
		Help: "Rows written to columnar output files.",
	})
	m.ObjectsUploaded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "patent_etl_objects_uploaded_total",
		Help: "Objects uploaded to the object store.",
	})
	m.ArchivesDownloaded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "patent_etl_archives_downloaded_total",
		Help: "Archives downloaded via the browser driver.",
	})

	reg.MustRegister(
		m.DocumentsProcessed,
		m.RecordsExtracted,
		m.DiscardsTotal,
		m.RowsInserted,
		m.BatchesOK,
		m.BatchesFailed,
		m.RowsWritten,
		m.ObjectsUploaded,
		m.ArchivesDownloaded,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *JobMetrics) Registry() *prometheus.Registry { return m.registry }

// Push delivers the final counter values to a Pushgateway, grouped by job
// name and run ID.  A push failure is returned to the caller, who logs it
// and moves on; metrics delivery never fails a job.
func (m *JobMetrics) Push(gatewayURL, job, runID string) error {
	if gatewayURL == "" {
		return nil
	}
	return push.New(gatewayURL, job).
		Grouping("run_id", runID).
		Gatherer(m.registry).
		Push()
}
