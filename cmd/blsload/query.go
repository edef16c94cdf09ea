package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"go.nownabe.dev/blsloader"
)

func newQueryCmd(opts *options) *cobra.Command {
	var f blsloader.ViewFilter

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Print observations with area, item and period names",
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

			obs, err := db.Query(ctx, f)
			if err != nil {
				logger.Error().Err(err).Msg("failed to query")
				return err
			}

			return printObservations(cmd.OutOrStdout(), obs)
		},
	}

	cmd.Flags().StringVar(&f.AreaCode, "area", "", "Area code, e.g. 0000")
	cmd.Flags().StringVar(&f.ItemCode, "item", "", "Item code including the base code, e.g. SA0")
	cmd.Flags().StringVar(&f.SeriesID, "series", "", "Series id, e.g. CUUR0000SA0")
	cmd.Flags().IntVar(&f.FromYear, "from-year", 0, "First year to print")
	cmd.Flags().IntVar(&f.Limit, "limit", 100, "Maximum number of rows (0 for all)")

	return cmd
}

func printObservations(w io.Writer, obs []blsloader.Observation) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "SERIES\tAREA\tITEM\tYEAR\tPERIOD\tVALUE")
	for _, o := range obs {
		value := "-"
		if o.Value.Valid {
			value = strconv.FormatFloat(o.Value.Float64, 'f', -1, 64)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			o.SeriesID, o.AreaName.String, o.ItemName.String, o.Year, o.PeriodName.String, value)
	}

	return tw.Flush()
}
