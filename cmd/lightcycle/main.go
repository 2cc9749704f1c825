package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/lightcycle/internal/app"
	"github.com/dokzlo13/lightcycle/internal/config"
	"github.com/dokzlo13/lightcycle/internal/resolve"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Resolve(os.Args[1:], os.LookupEnv)
	if err != nil {
		return exitCode(os.Stdout, err)
	}

	// Setup logging
	setupLogging(cfg.Log.Level, cfg.Log.JSON)

	log.Info().
		Str("bridge", cfg.Hue.Bridge).
		Bool("debug", cfg.Debug).
		Int("interval_min", cfg.Interval).
		Int("duration_min", cfg.Duration).
		Msg("Starting lightcycle")

	// Create application
	application, err := app.New(cfg, nil, os.Stdout)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create application")
		return 1
	}
	defer application.Close()

	// Create context that cancels on shutdown signal
	ctx := app.SignalContext()

	return exitCode(os.Stdout, application.Run(ctx))
}

// exitCode reports err to the user and maps it to the process exit status.
// Configuration and device-selection problems are printed to w as plain
// messages, anything else goes to the logger.
func exitCode(w io.Writer, err error) int {
	var verr *config.ValidationError
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return 0
	case errors.As(err, &verr):
		fmt.Fprintln(w, verr.Msg)
	case errors.Is(err, resolve.ErrNoDevices):
		fmt.Fprintf(w, "Error: %v.\n", err)
	default:
		log.Error().Err(err).Msg("lightcycle failed")
	}
	return 1
}

func setupLogging(level string, useJSON bool) {
	// ISO 8601 format with timezone
	zerolog.TimeFieldFormat = time.RFC3339

	if useJSON {
		// JSON output for production
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	}

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
