// Package resolve maps user-supplied identifiers onto concrete lights.
package resolve

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dokzlo13/lightcycle/internal/config"
	"github.com/dokzlo13/lightcycle/internal/hue"
)

// ErrNoDevices is returned when no identifier matched any light.
var ErrNoDevices = errors.New("no valid devices found from the provided DEVICE_IDS, DEVICE_NAMES, ROOM_IDS, or ROOM_NAMES")

// Set is a deduplicated collection of lights keyed by light ID.
// Iteration follows first insertion.
type Set struct {
	order  []string
	lights map[string]hue.Light
}

// NewSet returns an empty set.
func NewSet() *Set {
	return &Set{lights: make(map[string]hue.Light)}
}

// Add inserts a light; adding the same ID again is a no-op.
func (s *Set) Add(l hue.Light) {
	if _, ok := s.lights[l.ID]; ok {
		return
	}
	s.order = append(s.order, l.ID)
	s.lights[l.ID] = l
}

// Len returns the number of lights in the set.
func (s *Set) Len() int {
	return len(s.order)
}

// Has reports whether the light ID is in the set.
func (s *Set) Has(id string) bool {
	_, ok := s.lights[id]
	return ok
}

// IDs returns light IDs in insertion order.
func (s *Set) IDs() []string {
	return append([]string(nil), s.order...)
}

// Lights returns the lights in insertion order.
func (s *Set) Lights() []hue.Light {
	out := make([]hue.Light, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.lights[id])
	}
	return out
}

// Result is the outcome of a resolution pass.
type Result struct {
	Devices  *Set
	Warnings []string // unmatched identifiers
	Notes    []string // informational lines for matched rooms
}

// Err returns ErrNoDevices when nothing was resolved.
func (r Result) Err() error {
	if r.Devices == nil || r.Devices.Len() == 0 {
		return ErrNoDevices
	}
	return nil
}

// Resolve matches targets against the snapshot in a fixed order: device IDs,
// device names, room IDs, room names. Room members missing from the snapshot
// are skipped silently.
func Resolve(targets config.Targets, snap *hue.Snapshot) Result {
	res := Result{Devices: NewSet()}

	for _, id := range targets.DeviceIDs {
		if l, ok := snap.LightByID(id); ok {
			res.Devices.Add(l)
		} else {
			res.warn("no device found with ID %s", id)
		}
	}

	for _, name := range targets.DeviceNames {
		if l, ok := snap.LightByName(name); ok {
			res.Devices.Add(l)
		} else {
			res.warn("no device found with name '%s'", name)
		}
	}

	for _, id := range targets.RoomIDs {
		g, ok := snap.GroupByID(id)
		if !ok {
			res.warn("no room found with ID '%s'", id)
			continue
		}
		res.addMembers(snap, g)
		res.note("added lights from room ID: %s (%s)", g.ID, g.Name)
	}

	for _, name := range targets.RoomNames {
		g, ok := findGroupByName(snap, name)
		if !ok {
			res.warn("no room found with name '%s'", name)
			continue
		}
		res.addMembers(snap, g)
		res.note("added lights from room: %s (ID: %s)", g.Name, g.ID)
	}

	return res
}

// findGroupByName returns the first group, in ID order, whose name matches.
func findGroupByName(snap *hue.Snapshot, name string) (hue.Group, bool) {
	for _, g := range snap.Groups() {
		if strings.EqualFold(g.Name, name) {
			return g, true
		}
	}
	return hue.Group{}, false
}

func (r *Result) addMembers(snap *hue.Snapshot, g hue.Group) {
	for _, id := range g.Lights {
		if l, ok := snap.LightByID(id); ok {
			r.Devices.Add(l)
		}
	}
}

func (r *Result) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *Result) note(format string, args ...any) {
	r.Notes = append(r.Notes, fmt.Sprintf(format, args...))
}
