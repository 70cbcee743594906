package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/inventohub/patent-etl/internal/application/jobs"
	"github.com/inventohub/patent-etl/internal/embedding"
	"github.com/inventohub/patent-etl/internal/infrastructure/database/postgres"
	"github.com/inventohub/patent-etl/internal/infrastructure/database/postgres/repositories"
	"github.com/inventohub/patent-etl/internal/scraper"
)

func newEPOCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "epo",
		Short: "EPO front-file archive jobs",
	}
	cmd.AddCommand(
		newEPOFetchCommand(opts),
		newEPOLoadCommand(opts),
		newEPOParquetCommand(opts),
	)
	return cmd
}

func newEPOFetchCommand(opts *RootOptions) *cobra.Command {
	var backfillYear string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the latest weekly archive and unpack its XMLs into the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap(opts)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if backfillYear != "" {
				job := jobs.NewEPOFetchJob(app.store, nil, app.cfg, app.log, app.metrics)
				return job.Backfill(ctx, backfillYear)
			}

			session, err := scraper.NewSession(ctx, app.cfg.Browser, app.log)
			if err != nil {
				return err
			}
			defer session.Close()

			driver := scraper.NewEPODriver(session, app.cfg.Browser, app.log)
			job := jobs.NewEPOFetchJob(app.store, driver, app.cfg, app.log, app.metrics)
			return job.FetchLatest(ctx)
		},
	}
	cmd.Flags().StringVar(&backfillYear, "backfill-year", "", "unpack already-uploaded archives of this year instead of fetching")
	return cmd
}

func newEPOLoadCommand(opts *RootOptions) *cobra.Command {
	var year string

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Extract a year's XMLs into the relational sink",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap(opts)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			pool, err := postgres.NewPool(ctx, app.cfg.Database, app.log)
			if err != nil {
				return err
			}
			defer pool.Close()

			repo, err := repositories.NewRecordRepository(pool, app.cfg.Database.Table, app.log)
			if err != nil {
				return err
			}
			job := jobs.NewEPOLoadJob(app.store, repo, app.cfg, app.log, app.metrics)
			return job.Run(ctx, year)
		},
	}
	cmd.Flags().StringVar(&year, "year", "", "publication year to load")
	_ = cmd.MarkFlagRequired("year")
	return cmd
}

func newEPOParquetCommand(opts *RootOptions) *cobra.Command {
	var year, week string

	cmd := &cobra.Command{
		Use:   "parquet",
		Short: "Build one week's embedding parquet from its XMLs",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap(opts)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var projector *embedding.Projector
			if app.cfg.Embedding.Enabled {
				encoder := embedding.NewHTTPEncoder(app.cfg.Embedding, app.log)
				projector = embedding.NewProjector(encoder,
					app.cfg.Embedding.Dim,
					app.cfg.Embedding.ChunkTokens,
					app.cfg.Embedding.OverlapTokens,
					app.log)
			}

			job := jobs.NewEPOParquetJob(app.store, projector, app.cfg, app.log, app.metrics)
			return job.Run(ctx, year, week)
		},
	}
	cmd.Flags().StringVar(&year, "year", "", "publication year")
	cmd.Flags().StringVar(&week, "week", "", "two-digit week number")
	_ = cmd.MarkFlagRequired("year")
	_ = cmd.MarkFlagRequired("week")
	return cmd
}
