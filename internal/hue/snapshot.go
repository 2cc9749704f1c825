package hue

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// Snapshot is an immutable view of the bridge registry taken once at startup.
// Lookups never hit the network and the snapshot is never refreshed.
type Snapshot struct {
	lights []Light
	groups []Group

	lightsByID   map[string]Light
	lightsByName map[string]Light // lowercased name
	groupsByID   map[string]Group
	roomOf       map[string]Group // light ID -> last group listing it
}

// FetchSnapshot lists lights and groups once and indexes them.
func FetchSnapshot(ctx context.Context, reg Registry) (*Snapshot, error) {
	lights, err := reg.ListLights(ctx)
	if err != nil {
		return nil, err
	}
	groups, err := reg.ListGroups(ctx)
	if err != nil {
		return nil, err
	}

	snap := NewSnapshot(lights, groups)
	log.Debug().
		Int("lights", len(snap.lights)).
		Int("groups", len(snap.groups)).
		Msg("Registry snapshot taken")
	return snap, nil
}

// NewSnapshot builds a snapshot from already-fetched lights and groups.
// Both are ordered by ID, numerically where the IDs are numbers.
// When two lights share a name (case-insensitively), the later one in ID order wins
// the name lookup; when a light belongs to several groups, the later group is its room.
func NewSnapshot(lights []Light, groups []Group) *Snapshot {
	s := &Snapshot{
		lights:       append([]Light(nil), lights...),
		groups:       make([]Group, 0, len(groups)),
		lightsByID:   make(map[string]Light, len(lights)),
		lightsByName: make(map[string]Light, len(lights)),
		groupsByID:   make(map[string]Group, len(groups)),
		roomOf:       make(map[string]Group),
	}

	for _, g := range groups {
		g.Lights = append([]string(nil), g.Lights...)
		s.groups = append(s.groups, g)
	}

	sort.SliceStable(s.lights, func(i, j int) bool { return lessID(s.lights[i].ID, s.lights[j].ID) })
	sort.SliceStable(s.groups, func(i, j int) bool { return lessID(s.groups[i].ID, s.groups[j].ID) })

	for _, l := range s.lights {
		s.lightsByID[l.ID] = l
		s.lightsByName[strings.ToLower(l.Name)] = l
	}
	for _, g := range s.groups {
		s.groupsByID[g.ID] = g
		for _, id := range g.Lights {
			s.roomOf[id] = g
		}
	}

	return s
}

// Lights returns all lights in ID order.
func (s *Snapshot) Lights() []Light {
	return append([]Light(nil), s.lights...)
}

// Groups returns all groups in ID order.
func (s *Snapshot) Groups() []Group {
	return append([]Group(nil), s.groups...)
}

// LightByID looks up a light by its exact ID.
func (s *Snapshot) LightByID(id string) (Light, bool) {
	l, ok := s.lightsByID[id]
	return l, ok
}

// LightByName looks up a light by name, ignoring case.
func (s *Snapshot) LightByName(name string) (Light, bool) {
	l, ok := s.lightsByName[strings.ToLower(name)]
	return l, ok
}

// GroupByID looks up a group by its exact ID.
func (s *Snapshot) GroupByID(id string) (Group, bool) {
	g, ok := s.groupsByID[id]
	return g, ok
}

// RoomOf returns the group a light belongs to, if any.
func (s *Snapshot) RoomOf(lightID string) (Group, bool) {
	g, ok := s.roomOf[lightID]
	return g, ok
}

// lessID orders numeric IDs numerically and everything else lexically,
// with numeric IDs first.
func lessID(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		return na < nb
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}
