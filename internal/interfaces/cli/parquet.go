package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/inventohub/patent-etl/internal/application/jobs"
)

func newParquetCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parquet",
		Short: "Columnar maintenance jobs",
	}
	cmd.AddCommand(newParquetFilterCommand(opts))
	return cmd
}

func newParquetFilterCommand(opts *RootOptions) *cobra.Command {
	var bucket, srcKey, destKey, fromDate, toDate string

	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Rewrite a stored parquet keeping rows in a publication-date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap(opts)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if bucket == "" {
				bucket = app.cfg.Store.EPOBucket
			}
			job := jobs.NewParquetFilterJob(app.store, app.cfg, app.log, app.metrics)
			return job.Run(ctx, bucket, srcKey, destKey, fromDate, toDate)
		},
	}
	cmd.Flags().StringVar(&bucket, "bucket", "", "object-store bucket (default: the EPO bucket)")
	cmd.Flags().StringVar(&srcKey, "src", "", "source parquet object key")
	cmd.Flags().StringVar(&destKey, "dest", "", "destination parquet object key")
	cmd.Flags().StringVar(&fromDate, "from", "", "range start, YYYYMMDD inclusive")
	cmd.Flags().StringVar(&toDate, "to", "", "range end, YYYYMMDD inclusive")
	_ = cmd.MarkFlagRequired("src")
	_ = cmd.MarkFlagRequired("dest")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
