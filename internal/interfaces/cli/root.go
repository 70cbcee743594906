// Package cli defines the patent-etl command tree.  Every subcommand wires
// its own dependencies at run time, so a load run never opens a browser and
// a fetch run never touches the database.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/inventohub/patent-etl/internal/config"
	"github.com/inventohub/patent-etl/internal/infrastructure/monitoring/logging"
	"github.com/inventohub/patent-etl/internal/infrastructure/monitoring/prometheus"
	"github.com/inventohub/patent-etl/internal/infrastructure/storage/minio"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// RootOptions holds the global flags shared by every subcommand.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
}

// appContext carries the dependencies every job needs.
type appContext struct {
	cfg     *config.Config
	log     logging.Logger
	metrics *prometheus.JobMetrics
	store   *minio.Store
}

// bootstrap loads config, builds the logger, and connects the object store.
func bootstrap(opts *RootOptions) (*appContext, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.ConfigPath != "" {
		cfg, err = config.Load(opts.ConfigPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return nil, err
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}

	log, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	store, err := minio.NewStore(cfg.Store, log)
	if err != nil {
		return nil, err
	}

	return &appContext{
		cfg:     cfg,
		log:     log,
		metrics: prometheus.NewJobMetrics(),
		store:   store,
	}, nil
}

// NewRootCommand builds the full command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	root := &cobra.Command{
		Use:           "patent-etl",
		Short:         "Batch jobs for patent publication archives",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to config file (default: environment only)")
	root.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "override log level (debug|info|warn|error)")

	root.AddCommand(
		newEPOCommand(opts),
		newUSPTOCommand(opts),
		newParquetCommand(opts),
	)
	return root
}

// Execute runs the command tree and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
