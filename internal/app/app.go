package app

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/lightcycle/internal/config"
	"github.com/dokzlo13/lightcycle/internal/hue"
	"github.com/dokzlo13/lightcycle/internal/listing"
	"github.com/dokzlo13/lightcycle/internal/resolve"
)

// App is the main application container that manages all services and their lifecycle.
type App struct {
	cfg      *config.Config
	services *Services
	out      io.Writer
}

// New creates a new App instance with all services initialized but not started.
// The bridge is injected so tests can run without hardware; out receives the
// debug listing.
func New(cfg *config.Config, bridge hue.Bridge, out io.Writer) (*App, error) {
	services, err := NewServices(cfg, bridge)
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:      cfg,
		services: services,
		out:      out,
	}, nil
}

// Run connects to the bridge and then either prints the debug listing or runs
// the duty cycle until ctx is cancelled. A nil return means a clean exit.
func (a *App) Run(ctx context.Context) error {
	for _, w := range a.cfg.Warnings() {
		log.Warn().Msg(w)
	}

	if err := a.services.Hue.Start(ctx); err != nil {
		return err
	}
	snap := a.services.Hue.Snapshot

	if a.cfg.Debug {
		return listing.Write(a.out, snap)
	}

	res := resolve.Resolve(a.cfg.Targets, snap)
	for _, w := range res.Warnings {
		log.Warn().Msg(w)
	}
	for _, n := range res.Notes {
		log.Info().Msg(n)
	}
	if err := res.Err(); err != nil {
		return err
	}
	log.Info().Strs("lights", res.Devices.IDs()).Msg("Resolved devices")

	cycle := a.services.StartCycle(res.Devices)
	a.services.Health.Start(ctx, cycle.Controller)

	log.Info().Msg("lightcycle started")
	return cycle.Run(ctx)
}

// Close releases all resources.
func (a *App) Close() error {
	log.Info().Msg("Shutting down...")
	if a.services != nil {
		return a.services.Stop()
	}
	return nil
}

// SignalContext creates a context that is cancelled when SIGINT or SIGTERM is received.
func SignalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Warn().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	return ctx
}
