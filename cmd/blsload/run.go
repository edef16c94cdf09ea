package main

import (
	"context"
	"errors"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"go.nownabe.dev/blsloader"
	"go.nownabe.dev/blsloader/contrib/handlers"
)

func newRunCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch every cu file and upsert it (same as no subcommand)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd.Context(), opts)
		},
	}

	addLoadFlags(cmd, opts)

	return cmd
}

func openDB(ctx context.Context, opts *options) (*blsloader.SQLite, error) {
	cfg, err := blsloader.LoadSQLiteConfig()
	if err != nil {
		return nil, err
	}
	if opts.dbPath != "" {
		cfg.Path = opts.dbPath
	}

	log.Ctx(ctx).Debug().Str("path", cfg.Path).Msg("opening database")

	return blsloader.OpenSQLite(ctx, cfg)
}

func runLoad(ctx context.Context, opts *options) error {
	logger, err := opts.logger()
	if err != nil {
		return err
	}
	ctx = logger.WithContext(ctx)
	l := log.Ctx(ctx)

	db, err := openDB(ctx, opts)
	if err != nil {
		l.Error().Err(err).Msg("failed to open database")
		return err
	}
	defer db.Close()

	loaderOpts := []blsloader.Option{
		blsloader.WithLogger(logger),
		blsloader.WithConcurrency(opts.concurrency),
		blsloader.WithUserAgent(opts.userAgent),
	}
	if token, channel := os.Getenv("SLACK_TOKEN"), os.Getenv("SLACK_CHANNEL"); token != "" && channel != "" {
		loaderOpts = append(loaderOpts, blsloader.WithRunNotifier(
			&blsloader.SlackNotifier{Token: token, Channel: channel, Username: "blsload"}))
	}

	loader, err := blsloader.New(loaderOpts...)
	if err != nil {
		l.Error().Err(err).Msg("invalid options")
		return err
	}

	hs := handlers.CU(opts.baseURL, nil, opts.dataFiles...)
	for _, h := range hs {
		h.Strict = opts.strict
	}

	if project, dataset := os.Getenv("BIGQUERY_PROJECT_ID"), os.Getenv("BIGQUERY_DATASET_ID"); project != "" && dataset != "" {
		m, err := blsloader.NewBigQueryMirror(ctx, project, dataset)
		if err != nil {
			l.Error().Err(err).Msg("failed to set up bigquery mirror")
			return err
		}
		defer m.Close()

		handlers.WithMirror(hs, m)
	}

	handlers.MustAddHandlers(ctx, loader, hs...)

	_, err = loader.Run(ctx, db)

	// Failed files are retried by the next scheduled run; only a database
	// that cannot be opened or migrated fails the process.
	var runErr *blsloader.RunError
	if errors.As(err, &runErr) && !opts.failOnPartial {
		l.Warn().Err(runErr).Int("failed", len(runErr.Failed)).Msg("some files were not loaded")
		return nil
	}

	return err
}
