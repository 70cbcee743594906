package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/inventohub/patent-etl/internal/application/jobs"
	"github.com/inventohub/patent-etl/internal/scraper"
)

func newUSPTOCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uspto",
		Short: "USPTO grant archive jobs",
	}
	cmd.AddCommand(newUSPTOIngestCommand(opts))
	return cmd
}

func newUSPTOIngestCommand(opts *RootOptions) *cobra.Command {
	var fromDate, toDate, key string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Discover, download, and parquet grant archives",
		Long: "Discovers ipgYYMMDD.zip archives on the bulk-data table within the date range " +
			"and lands each one as raw zip plus derived parquet. With --key, rebuilds the " +
			"parquet for a zip already in the store without opening a browser.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap(opts)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if key != "" {
				job := jobs.NewUSPTOIngestJob(app.store, nil, app.cfg, app.log, app.metrics)
				return job.IngestKey(ctx, key)
			}

			// The grant dataset issues on Tuesdays; an empty range means the
			// most recent issue only.
			if fromDate == "" && toDate == "" {
				tuesday := scraper.LatestGrantTuesday(time.Now())
				fromDate, toDate = tuesday, tuesday
			}

			session, err := scraper.NewSession(ctx, app.cfg.Browser, app.log)
			if err != nil {
				return err
			}
			defer session.Close()

			driver := scraper.NewUSPTODriver(session, app.cfg.Browser, app.log)
			job := jobs.NewUSPTOIngestJob(app.store, driver, app.cfg, app.log, app.metrics)
			return job.IngestRange(ctx, fromDate, toDate)
		},
	}
	cmd.Flags().StringVar(&fromDate, "from", "", "range start, MM-DD-YYYY (default: latest grant Tuesday)")
	cmd.Flags().StringVar(&toDate, "to", "", "range end, MM-DD-YYYY (default: latest grant Tuesday)")
	cmd.Flags().StringVar(&key, "key", "", "process an already-uploaded zip by object key, no browser")
	return cmd
}
