package resolve

import (
	"errors"
	"reflect"
	"testing"

	"github.com/dokzlo13/lightcycle/internal/config"
	"github.com/dokzlo13/lightcycle/internal/hue"
	"github.com/dokzlo13/lightcycle/internal/hue/huetest"
)

func testSnapshot() *hue.Snapshot {
	return hue.NewSnapshot(
		[]hue.Light{
			huetest.Light("1", "Counter", false, 200),
			huetest.Light("2", "Pendant", false, -1),
			huetest.Light("3", "Desk Lamp", true, 50),
			huetest.Light("4", "Porch", false, -1),
		},
		[]hue.Group{
			huetest.Room("g1", "Kitchen", "1", "2"),
			huetest.Room("g2", "Office", "3", "77"),
			huetest.Room("g3", "kitchen", "4"),
		},
	)
}

func TestResolve_KitchenByName(t *testing.T) {
	res := Resolve(config.Targets{RoomNames: []string{"Kitchen"}}, testSnapshot())

	if err := res.Err(); err != nil {
		t.Fatalf("Err() = %v", err)
	}
	if got := res.Devices.IDs(); !reflect.DeepEqual(got, []string{"1", "2"}) {
		t.Errorf("IDs = %v, want [1 2]", got)
	}
	if len(res.Notes) != 1 || res.Notes[0] != "added lights from room: Kitchen (ID: g1)" {
		t.Errorf("Notes = %v", res.Notes)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", res.Warnings)
	}
}

func TestResolve_RoomNameStopsAtFirstMatch(t *testing.T) {
	// "g1" and "g3" both match case-insensitively; only the first is used.
	res := Resolve(config.Targets{RoomNames: []string{"KITCHEN"}}, testSnapshot())

	if res.Devices.Has("4") {
		t.Error("light 4 belongs to the second matching group and should not be added")
	}
	if len(res.Notes) != 1 {
		t.Errorf("Notes = %v, want one line", res.Notes)
	}
}

func TestResolve_IdempotentUnion(t *testing.T) {
	res := Resolve(config.Targets{
		DeviceIDs:   []string{"1"},
		DeviceNames: []string{"counter"},
		RoomIDs:     []string{"g1"},
		RoomNames:   []string{"Kitchen"},
	}, testSnapshot())

	if res.Devices.Len() != 2 {
		t.Errorf("Len = %d, want 2 (%v)", res.Devices.Len(), res.Devices.IDs())
	}
	if got := res.Devices.IDs(); !reflect.DeepEqual(got, []string{"1", "2"}) {
		t.Errorf("IDs = %v, want [1 2]", got)
	}
}

func TestResolve_SameLightViaIDAndRoom(t *testing.T) {
	snap := hue.NewSnapshot(
		[]hue.Light{huetest.Light("5", "Solo", false, -1)},
		[]hue.Group{huetest.Room("9", "Nook", "5")},
	)

	res := Resolve(config.Targets{DeviceIDs: []string{"5"}, RoomIDs: []string{"9"}}, snap)

	if res.Devices.Len() != 1 || !res.Devices.Has("5") {
		t.Errorf("expected exactly light 5, got %v", res.Devices.IDs())
	}
}

func TestResolve_MissingRoomMemberSkipped(t *testing.T) {
	res := Resolve(config.Targets{RoomIDs: []string{"g2"}}, testSnapshot())

	if got := res.Devices.IDs(); !reflect.DeepEqual(got, []string{"3"}) {
		t.Errorf("IDs = %v, want [3]", got)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("missing member must not warn, got %v", res.Warnings)
	}
	if len(res.Notes) != 1 || res.Notes[0] != "added lights from room ID: g2 (Office)" {
		t.Errorf("Notes = %v", res.Notes)
	}
}

func TestResolve_WarningsInOrder(t *testing.T) {
	res := Resolve(config.Targets{
		DeviceIDs:   []string{"99"},
		DeviceNames: []string{"Nope"},
		RoomIDs:     []string{"g9"},
		RoomNames:   []string{"Attic"},
	}, testSnapshot())

	want := []string{
		"no device found with ID 99",
		"no device found with name 'Nope'",
		"no room found with ID 'g9'",
		"no room found with name 'Attic'",
	}
	if !reflect.DeepEqual(res.Warnings, want) {
		t.Errorf("Warnings = %#v\nwant %#v", res.Warnings, want)
	}
	if !errors.Is(res.Err(), ErrNoDevices) {
		t.Errorf("Err() = %v, want ErrNoDevices", res.Err())
	}
}

func TestResolve_UnknownDeviceOnly(t *testing.T) {
	res := Resolve(config.Targets{DeviceIDs: []string{"99"}}, testSnapshot())

	if len(res.Warnings) != 1 {
		t.Errorf("Warnings = %v, want one", res.Warnings)
	}
	if res.Devices.Len() != 0 {
		t.Errorf("Len = %d, want 0", res.Devices.Len())
	}
	if !errors.Is(res.Err(), ErrNoDevices) {
		t.Errorf("Err() = %v, want ErrNoDevices", res.Err())
	}
}

func TestResolve_PartialMatchIsNotFatal(t *testing.T) {
	res := Resolve(config.Targets{DeviceIDs: []string{"99", "3"}}, testSnapshot())

	if res.Err() != nil {
		t.Errorf("Err() = %v, want nil", res.Err())
	}
	if len(res.Warnings) != 1 {
		t.Errorf("Warnings = %v, want one", res.Warnings)
	}
}

func TestSet_AddKeepsFirst(t *testing.T) {
	s := NewSet()
	s.Add(hue.Light{ID: "1", Name: "first"})
	s.Add(hue.Light{ID: "1", Name: "second"})

	lights := s.Lights()
	if len(lights) != 1 || lights[0].Name != "first" {
		t.Errorf("Lights = %+v", lights)
	}
}
