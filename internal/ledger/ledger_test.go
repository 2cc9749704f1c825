package ledger

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/dokzlo13/lightcycle/internal/db"
)

func openLedger(t *testing.T) *Ledger {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "ledger.sqlite"))
	if err != nil {
		t.Fatalf("db.Open error: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return New(database.DB)
}

func TestLedger_AppendAndRead(t *testing.T) {
	l := openLedger(t)

	if l.RunID() == "" {
		t.Fatal("RunID should be set")
	}

	if err := l.Append(EventCycleOn, 1, "", map[string]any{"devices": 2}); err != nil {
		t.Fatalf("Append error: %v", err)
	}
	if err := l.Append(EventDeviceFailed, 1, "7", map[string]any{"error": "unreachable"}); err != nil {
		t.Fatalf("Append error: %v", err)
	}
	if err := l.Append(EventCycleOff, 1, "", nil); err != nil {
		t.Fatalf("Append error: %v", err)
	}

	entries, err := l.GetByRun(l.RunID(), 10)
	if err != nil {
		t.Fatalf("GetByRun error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("len(entries) = %d, want 3", len(entries))
	}

	wantTypes := []EventType{EventCycleOn, EventDeviceFailed, EventCycleOff}
	for i, e := range entries {
		if e.EventType != wantTypes[i] {
			t.Errorf("entries[%d].EventType = %s, want %s", i, e.EventType, wantTypes[i])
		}
		if e.RunID != l.RunID() || e.Cycle != 1 {
			t.Errorf("entries[%d] run/cycle = %s/%d", i, e.RunID, e.Cycle)
		}
	}

	if entries[0].Payload["devices"] != float64(2) {
		t.Errorf("payload devices = %v, want 2", entries[0].Payload["devices"])
	}
	if entries[1].LightID != "7" {
		t.Errorf("LightID = %q, want 7", entries[1].LightID)
	}
	if entries[2].Payload != nil {
		t.Errorf("nil payload should read back as nil, got %v", entries[2].Payload)
	}

	failed, err := l.GetByType(EventDeviceFailed, 10)
	if err != nil {
		t.Fatalf("GetByType error: %v", err)
	}
	if len(failed) != 1 || failed[0].Payload["error"] != "unreachable" {
		t.Errorf("GetByType(device_failed) = %+v", failed)
	}
}

func TestLedger_RunsAreSeparate(t *testing.T) {
	database, err := db.Open(filepath.Join(t.TempDir(), "ledger.sqlite"))
	if err != nil {
		t.Fatalf("db.Open error: %v", err)
	}
	defer database.Close()

	first := New(database.DB)
	second := New(database.DB)
	if first.RunID() == second.RunID() {
		t.Fatal("each ledger should get its own run ID")
	}

	first.Append(EventCycleOn, 1, "", nil)
	second.Append(EventCycleOn, 1, "", nil)
	second.Append(EventCycleOff, 1, "", nil)

	entries, err := second.GetByRun(second.RunID(), 10)
	if err != nil {
		t.Fatalf("GetByRun error: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("len(entries) = %d, want 2", len(entries))
	}
}

func TestLedger_DeleteOlderThan(t *testing.T) {
	l := openLedger(t)

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return base.Add(-48 * time.Hour) }
	l.Append(EventCycleOn, 1, "", nil)
	l.now = func() time.Time { return base }
	l.Append(EventCycleOn, 2, "", nil)

	deleted, err := l.DeleteOlderThan(24 * time.Hour)
	if err != nil {
		t.Fatalf("DeleteOlderThan error: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	entries, _ := l.GetByType(EventCycleOn, 10)
	if len(entries) != 1 || entries[0].Cycle != 2 {
		t.Errorf("remaining entries = %+v", entries)
	}
}
