package main

import (
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"go.nownabe.dev/blsloader"
	"go.nownabe.dev/blsloader/contrib/handlers"
)

type options struct {
	dbPath   string
	logLevel string
	pretty   bool

	baseURL       string
	dataFiles     []string
	userAgent     string
	concurrency   int
	strict        bool
	failOnPartial bool
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:          "blsload",
		Short:        "Load BLS CPI-U time series into SQLite",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd.Context(), &opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "SQLite database file (default $DATABASE_URL or "+blsloader.DefaultSQLitePath+")")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", envOr("BLS_LOG_LEVEL", "info"), "Log level: debug, info, warn or error")
	cmd.PersistentFlags().BoolVar(&opts.pretty, "pretty", false, "Print human friendly logs")

	addLoadFlags(cmd, &opts)

	cmd.AddCommand(newRunCmd(&opts), newSchemaCmd(&opts), newQueryCmd(&opts))

	return cmd
}

func addLoadFlags(cmd *cobra.Command, opts *options) {
	cmd.Flags().StringVar(&opts.baseURL, "base-url", envOr("BLS_BASE_URL", handlers.BaseURL), "Directory of the cu files (http(s)://, gs:// or a local path)")
	cmd.Flags().StringSliceVar(&opts.dataFiles, "data-file", []string{handlers.DefaultDataFile}, "cu.data.* files to load, in order")
	cmd.Flags().StringVar(&opts.userAgent, "user-agent", envOr("BLS_USER_AGENT", blsloader.DefaultUserAgent), "User-Agent sent to download.bls.gov")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", envInt("BLS_CONCURRENCY", 1), "Files fetched and parsed ahead of the one being written")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Abort a file on its first bad line instead of skipping the line")
	cmd.Flags().BoolVar(&opts.failOnPartial, "fail-on-partial", false, "Exit 1 when some files failed to load")
}

func (o *options) logger() (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(o.logLevel)
	if err != nil {
		return zerolog.Logger{}, err
	}

	var l zerolog.Logger
	if o.pretty {
		l = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		l = zerolog.New(os.Stderr)
	}

	return l.With().Timestamp().Logger().Level(lvl), nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil && v > 0 {
		return v
	}
	return def
}
