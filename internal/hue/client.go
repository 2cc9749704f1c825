package hue

import (
	"context"
	"fmt"
	"strconv"

	"github.com/amimof/huego"
	"github.com/rs/zerolog/log"
)

// Registry lists the devices known to a bridge.
type Registry interface {
	ListLights(ctx context.Context) ([]Light, error)
	ListGroups(ctx context.Context) ([]Group, error)
}

// Switch changes the power state of a single light.
type Switch interface {
	SetOn(ctx context.Context, lightID string, on bool) error
}

// Bridge is the full collaborator surface the application needs.
type Bridge interface {
	Registry
	Switch
	Connect(ctx context.Context) error
}

// Client talks to a pre-paired Hue bridge through the v1 API via huego.
type Client struct {
	address string
	bridge  *huego.Bridge
}

// NewClient creates a new Hue client. No network traffic happens until Connect.
func NewClient(address, username string) *Client {
	return &Client{
		address: address,
		bridge:  huego.New(address, username),
	}
}

// Connect verifies that the bridge is reachable.
func (c *Client) Connect(ctx context.Context) error {
	cfg, err := c.bridge.GetConfigContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to Hue bridge at %s: %w", c.address, err)
	}

	log.Info().
		Str("address", c.address).
		Str("name", cfg.Name).
		Str("api_version", cfg.APIVersion).
		Msg("Connected to Hue bridge")
	return nil
}

// ListLights returns every light known to the bridge.
func (c *Client) ListLights(ctx context.Context) ([]Light, error) {
	raw, err := c.bridge.GetLightsContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list lights: %w", err)
	}

	lights := make([]Light, 0, len(raw))
	for _, l := range raw {
		lights = append(lights, lightFromHuego(l))
	}
	return lights, nil
}

// ListGroups returns every group known to the bridge.
func (c *Client) ListGroups(ctx context.Context) ([]Group, error) {
	raw, err := c.bridge.GetGroupsContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	groups := make([]Group, 0, len(raw))
	for _, g := range raw {
		groups = append(groups, Group{
			ID:     strconv.Itoa(g.ID),
			Name:   g.Name,
			Type:   g.Type,
			Lights: append([]string(nil), g.Lights...),
		})
	}
	return groups, nil
}

// SetOn switches a single light on or off.
func (c *Client) SetOn(ctx context.Context, lightID string, on bool) error {
	id, err := strconv.Atoi(lightID)
	if err != nil {
		return fmt.Errorf("invalid light ID %q: %w", lightID, err)
	}

	if _, err := c.bridge.SetLightStateContext(ctx, id, huego.State{On: on}); err != nil {
		return fmt.Errorf("failed to set light %s on=%t: %w", lightID, on, err)
	}
	return nil
}

// Address returns the bridge address
func (c *Client) Address() string {
	return c.address
}

// lightFromHuego converts a huego light. The v1 API reports bri in 1..254,
// so a zero value means the light has no dimming capability.
func lightFromHuego(l huego.Light) Light {
	light := Light{
		ID:   strconv.Itoa(l.ID),
		Name: l.Name,
	}
	if l.State != nil {
		light.On = l.State.On
		if l.State.Bri > 0 {
			bri := int(l.State.Bri)
			light.Brightness = &bri
		}
	}
	return light
}
