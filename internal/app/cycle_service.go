package app

import (
	"context"

	"github.com/dokzlo13/lightcycle/internal/config"
	"github.com/dokzlo13/lightcycle/internal/dutycycle"
	"github.com/dokzlo13/lightcycle/internal/hue"
	"github.com/dokzlo13/lightcycle/internal/ledger"
	"github.com/dokzlo13/lightcycle/internal/resolve"
)

// CycleService owns the duty-cycle controller for the resolved device set.
type CycleService struct {
	Controller *dutycycle.Controller
}

// NewCycleService creates the controller. A nil ledger disables recording.
func NewCycleService(cfg *config.Config, sw hue.Switch, devices *resolve.Set, l *ledger.Ledger, opts ...dutycycle.Option) *CycleService {
	if l != nil {
		opts = append(opts, dutycycle.WithRecorder(&ledgerRecorder{ledger: l}))
	}

	controller := dutycycle.New(sw, devices.IDs(), dutycycle.Config{
		On:           cfg.OnPeriod(),
		Off:          cfg.OffPeriod(),
		RateLimitRPS: cfg.RateLimitRPS,
	}, opts...)

	return &CycleService{Controller: controller}
}

// Run blocks until ctx is cancelled.
func (s *CycleService) Run(ctx context.Context) error {
	return s.Controller.Run(ctx)
}

// ledgerRecorder writes controller events to the ledger.
type ledgerRecorder struct {
	ledger *ledger.Ledger
}

func (r *ledgerRecorder) Record(ev dutycycle.Event) error {
	if ev.LightID != "" {
		payload := map[string]any{"phase": string(ev.Phase)}
		if ev.Err != nil {
			payload["error"] = ev.Err.Error()
		}
		return r.ledger.Append(ledger.EventDeviceFailed, ev.Cycle, ev.LightID, payload)
	}

	eventType := ledger.EventCycleOn
	if ev.Phase == dutycycle.PhaseOff {
		eventType = ledger.EventCycleOff
	}
	return r.ledger.Append(eventType, ev.Cycle, "", map[string]any{
		"attempted": ev.Attempted,
		"failed":    ev.Failed,
	})
}
