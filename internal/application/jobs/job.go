// Package jobs holds the batch-job entry points behind the CLI subcommands.
// Each job is a terminal run: wire dependencies, process, log a summary,
// push metrics when a gateway is configured, exit.
package jobs

import (
	"github.com/google/uuid"

	"github.com/inventohub/patent-etl/internal/config"
	"github.com/inventohub/patent-etl/internal/infrastructure/monitoring/logging"
	"github.com/inventohub/patent-etl/internal/infrastructure/monitoring/prometheus"
)

func newRunID() string { return uuid.NewString() }

// pushMetrics delivers the run's counters at job end.  Delivery failures are
// logged and swallowed; metrics never fail a job.
func pushMetrics(m *prometheus.JobMetrics, cfg config.MetricsConfig, jobName, runID string, log logging.Logger) {
	if m == nil || cfg.PushGatewayURL == "" {
		return
	}
	label := cfg.JobLabel
	if label == "" {
		label = jobName
	}
	if err := m.Push(cfg.PushGatewayURL, label, runID); err != nil {
		log.Warn("metrics push failed",
			logging.String("gateway", cfg.PushGatewayURL),
			logging.Err(err))
	}
}
