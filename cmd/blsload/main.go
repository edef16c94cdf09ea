// Command blsload keeps a SQLite copy of the BLS Consumer Price Index files.
//
// Run it from a scheduler with no arguments; configuration comes from the
// environment and an optional .env file.
package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		l := zerolog.New(os.Stderr).With().Timestamp().Logger()
		l.Warn().Err(err).Msg(".env file not loaded")
	}

	// Flag defaults read the environment, so the command is built after .env is loaded.
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
