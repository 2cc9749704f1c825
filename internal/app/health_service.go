package app

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/lightcycle/internal/config"
	"github.com/dokzlo13/lightcycle/internal/dutycycle"
)

const healthShutdownTimeout = 5 * time.Second

// StatusSource reports the duty-cycle status.
type StatusSource interface {
	Status() dutycycle.Status
}

// HealthService provides HTTP health check endpoints.
type HealthService struct {
	cfg    *config.Config
	server *http.Server
}

// NewHealthService creates a new HealthService.
func NewHealthService(cfg *config.Config) *HealthService {
	return &HealthService{
		cfg: cfg,
	}
}

// Handler returns the router serving /health, /ready and /status.
func (s *HealthService) Handler(src StatusSource) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	// Ready once the duty cycle loop is running
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		if !src.Status().Running {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "starting"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, src.Status())
	})

	return r
}

// Start begins the health check server if enabled.
func (s *HealthService) Start(ctx context.Context, src StatusSource) {
	if s.cfg.Health.Addr == "" {
		return
	}

	s.server = &http.Server{
		Addr:              s.cfg.Health.Addr,
		Handler:           s.Handler(src),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Info().Str("addr", s.cfg.Health.Addr).Msg("Starting health check server")

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("Health check server error")
		}
	}()

	go func() {
		<-ctx.Done()
		s.Close()
	}()
}

// Close shuts the server down if it was started.
func (s *HealthService) Close() {
	if s.server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), healthShutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Health check server shutdown error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("Failed to write health response")
	}
}
