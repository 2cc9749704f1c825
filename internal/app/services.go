package app

import (
	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/lightcycle/internal/config"
	"github.com/dokzlo13/lightcycle/internal/db"
	"github.com/dokzlo13/lightcycle/internal/dutycycle"
	"github.com/dokzlo13/lightcycle/internal/hue"
	"github.com/dokzlo13/lightcycle/internal/ledger"
	"github.com/dokzlo13/lightcycle/internal/resolve"
)

// Services is a container for all application services.
// It manages service initialization order and dependencies.
type Services struct {
	cfg *config.Config

	// Optional persistence, nil when the ledger is disabled
	DB     *db.DB
	Ledger *ledger.Ledger

	Hue    *HueService
	Cycle  *CycleService
	Health *HealthService

	cycleOptions []dutycycle.Option
}

// NewServices creates all services with proper dependency injection.
func NewServices(cfg *config.Config, bridge hue.Bridge) (*Services, error) {
	s := &Services{cfg: cfg}

	if cfg.Ledger.Path != "" && !cfg.Debug {
		database, err := db.Open(cfg.Ledger.Path)
		if err != nil {
			return nil, err
		}
		s.DB = database
		s.Ledger = ledger.New(database.DB)

		if deleted, err := s.Ledger.DeleteOlderThan(cfg.Ledger.Retention.Duration()); err != nil {
			log.Warn().Err(err).Msg("Failed to prune ledger")
		} else if deleted > 0 {
			log.Info().Int64("deleted", deleted).Msg("Pruned old ledger entries")
		}

		log.Info().
			Str("path", cfg.Ledger.Path).
			Str("run_id", s.Ledger.RunID()).
			Msg("Ledger enabled")
	}

	s.Hue = NewHueService(cfg, bridge)
	s.Health = NewHealthService(cfg)

	return s, nil
}

// StartCycle builds the duty-cycle service for the resolved devices.
func (s *Services) StartCycle(devices *resolve.Set) *CycleService {
	s.Cycle = NewCycleService(s.cfg, s.Hue.Bridge, devices, s.Ledger, s.cycleOptions...)
	return s.Cycle
}

// Stop gracefully stops all services.
func (s *Services) Stop() error {
	s.Close()
	return nil
}

// Close releases all resources.
func (s *Services) Close() {
	if s.Health != nil {
		s.Health.Close()
	}
	if s.DB != nil {
		s.DB.Close()
	}
}
