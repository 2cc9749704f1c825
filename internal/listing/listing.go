// Package listing prints the registry snapshot for --debug runs.
package listing

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dokzlo13/lightcycle/internal/hue"
)

const (
	unassignedRoom = "Unassigned"
	notAvailable   = "N/A"
)

// Write prints one line per light with its room, power state and brightness.
func Write(w io.Writer, snap *hue.Snapshot) error {
	if _, err := fmt.Fprintln(w, "Available lights:"); err != nil {
		return err
	}
	for _, l := range snap.Lights() {
		if _, err := fmt.Fprintln(w, Line(snap, l)); err != nil {
			return err
		}
	}
	return nil
}

// Line formats a single light.
func Line(snap *hue.Snapshot, l hue.Light) string {
	roomName, roomID := unassignedRoom, notAvailable
	if g, ok := snap.RoomOf(l.ID); ok {
		roomName, roomID = g.Name, g.ID
	}

	brightness := notAvailable
	if l.Brightness != nil {
		brightness = strconv.Itoa(*l.Brightness)
	}

	return fmt.Sprintf("ID: %s, Name: %s, Room: %s (ID: %s), On: %s, Brightness: %s",
		l.ID, l.Name, roomName, roomID, onLabel(l.On), brightness)
}

// onLabel renders the power state as True or False.
func onLabel(on bool) string {
	if on {
		return "True"
	}
	return "False"
}
