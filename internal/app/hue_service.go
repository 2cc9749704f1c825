package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/lightcycle/internal/config"
	"github.com/dokzlo13/lightcycle/internal/hue"
)

// HueService wraps the bridge client and the registry snapshot taken at startup.
type HueService struct {
	cfg *config.Config

	Bridge   hue.Bridge
	Snapshot *hue.Snapshot
}

// NewHueService creates a new HueService. A nil bridge means the real huego-backed client.
func NewHueService(cfg *config.Config, bridge hue.Bridge) *HueService {
	if bridge == nil {
		bridge = hue.NewClient(cfg.Hue.Bridge, cfg.Hue.Username)
	}
	return &HueService{
		cfg:    cfg,
		Bridge: bridge,
	}
}

// Start connects to the Hue bridge and takes the one-time registry snapshot.
func (s *HueService) Start(ctx context.Context) error {
	if err := s.Bridge.Connect(ctx); err != nil {
		return err
	}

	snap, err := hue.FetchSnapshot(ctx, s.Bridge)
	if err != nil {
		return err
	}
	s.Snapshot = snap

	log.Info().
		Str("bridge", s.cfg.Hue.Bridge).
		Int("lights", len(snap.Lights())).
		Int("groups", len(snap.Groups())).
		Msg("Registry loaded")
	return nil
}
