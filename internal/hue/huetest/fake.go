// Package huetest provides an in-memory Hue bridge for tests.
package huetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/dokzlo13/lightcycle/internal/hue"
)

// Command is a single SetOn call recorded by the fake bridge.
type Command struct {
	LightID string
	On      bool
}

// Bridge is an in-memory hue.Bridge.
type Bridge struct {
	mu       sync.Mutex
	lights   []hue.Light
	groups   []hue.Group
	failing  map[string]error
	commands []Command

	ConnectErr error
	ListErr    error
}

var _ hue.Bridge = (*Bridge)(nil)

// New returns a fake bridge holding the given registry.
func New(lights []hue.Light, groups []hue.Group) *Bridge {
	return &Bridge{
		lights:  append([]hue.Light(nil), lights...),
		groups:  append([]hue.Group(nil), groups...),
		failing: make(map[string]error),
	}
}

// Fail makes every SetOn for lightID return err.
func (b *Bridge) Fail(lightID string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failing[lightID] = err
}

// Commands returns the SetOn calls seen so far, in order.
func (b *Bridge) Commands() []Command {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Command(nil), b.commands...)
}

// Connect implements hue.Bridge.
func (b *Bridge) Connect(ctx context.Context) error {
	return b.ConnectErr
}

// ListLights implements hue.Registry.
func (b *Bridge) ListLights(ctx context.Context) ([]hue.Light, error) {
	if b.ListErr != nil {
		return nil, b.ListErr
	}
	return append([]hue.Light(nil), b.lights...), nil
}

// ListGroups implements hue.Registry.
func (b *Bridge) ListGroups(ctx context.Context) ([]hue.Group, error) {
	if b.ListErr != nil {
		return nil, b.ListErr
	}
	return append([]hue.Group(nil), b.groups...), nil
}

// SetOn implements hue.Switch. Failed calls are recorded too.
func (b *Bridge) SetOn(ctx context.Context, lightID string, on bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.commands = append(b.commands, Command{LightID: lightID, On: on})
	if err := b.failing[lightID]; err != nil {
		return fmt.Errorf("light %s: %w", lightID, err)
	}
	for i := range b.lights {
		if b.lights[i].ID == lightID {
			b.lights[i].On = on
		}
	}
	return nil
}

// Light builds a light with an optional brightness (negative means absent).
func Light(id, name string, on bool, bri int) hue.Light {
	l := hue.Light{ID: id, Name: name, On: on}
	if bri >= 0 {
		l.Brightness = &bri
	}
	return l
}

// Room builds a room group.
func Room(id, name string, lights ...string) hue.Group {
	return hue.Group{ID: id, Name: name, Type: "Room", Lights: lights}
}
