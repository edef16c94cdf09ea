package main

import (
	"github.com/spf13/cobra"
)

func newSchemaCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Create the tables, indexes and view without loading anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := opts.logger()
			if err != nil {
				return err
			}
			ctx := logger.WithContext(cmd.Context())

			db, err := openDB(ctx, opts)
			if err != nil {
				logger.Error().Err(err).Msg("failed to open database")
				return err
			}
			defer db.Close()

			if err := db.EnsureSchema(ctx); err != nil {
				logger.Error().Err(err).Msg("failed to ensure schema")
				return err
			}

			logger.Info().Msg("schema is up to date")

			return nil
		},
	}
}
