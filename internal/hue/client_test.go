package hue

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/amimof/huego"
)

func TestLightFromHuego(t *testing.T) {
	tests := []struct {
		name    string
		in      huego.Light
		wantOn  bool
		wantBri *int
	}{
		{
			name:   "dimmable",
			in:     huego.Light{ID: 3, Name: "Desk", State: &huego.State{On: true, Bri: 127}},
			wantOn: true,
			wantBri: func() *int {
				v := 127
				return &v
			}(),
		},
		{
			name:   "on_off_plug",
			in:     huego.Light{ID: 4, Name: "Plug", State: &huego.State{On: false}},
			wantOn: false,
		},
		{
			name: "no_state",
			in:   huego.Light{ID: 5, Name: "Ghost"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lightFromHuego(tt.in)
			if got.On != tt.wantOn {
				t.Errorf("On = %v, want %v", got.On, tt.wantOn)
			}
			switch {
			case tt.wantBri == nil && got.Brightness != nil:
				t.Errorf("Brightness = %d, want absent", *got.Brightness)
			case tt.wantBri != nil && (got.Brightness == nil || *got.Brightness != *tt.wantBri):
				t.Errorf("Brightness = %v, want %d", got.Brightness, *tt.wantBri)
			}
			if got.Name != tt.in.Name {
				t.Errorf("Name = %q, want %q", got.Name, tt.in.Name)
			}
		})
	}

	if got := lightFromHuego(huego.Light{ID: 12}); got.ID != "12" {
		t.Errorf("ID = %q, want \"12\"", got.ID)
	}
}

func TestClient_SetOnRejectsBadInput(t *testing.T) {
	c := NewClient("127.0.0.1", "user")

	if err := c.SetOn(context.Background(), "not-a-number", true); err == nil {
		t.Error("SetOn with non-numeric ID should fail")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.SetOn(ctx, "1", true); err == nil {
		t.Error("SetOn with cancelled context should fail")
	}
	if _, err := c.ListLights(ctx); err == nil {
		t.Error("ListLights with cancelled context should fail")
	}
}

func TestClient_SetOnSendsLightState(t *testing.T) {
	var gotMethod, gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotMethod, gotPath, gotBody = r.Method, r.URL.Path, string(body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"success":{"/lights/7/state/on":true}}]`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "user")
	if err := c.SetOn(context.Background(), "7", true); err != nil {
		t.Fatalf("SetOn error: %v", err)
	}

	if gotMethod != http.MethodPut {
		t.Errorf("method = %s, want PUT", gotMethod)
	}
	if gotPath != "/api/user/lights/7/state" {
		t.Errorf("path = %s, want /api/user/lights/7/state", gotPath)
	}
	if !strings.Contains(gotBody, `"on":true`) {
		t.Errorf("body = %s, want it to contain \"on\":true", gotBody)
	}
}

func TestClient_SetOnHonoursDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(srv.URL, "user")
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := c.SetOn(ctx, "1", true)
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("SetOn against a stalled bridge should fail")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want context.DeadlineExceeded", err)
	}
	if elapsed > time.Second {
		t.Errorf("SetOn returned after %v, want shortly after the 100ms deadline", elapsed)
	}
}

func TestClient_ListLightsHonoursCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "user")
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	start := time.Now()
	if _, err := c.ListLights(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("ListLights returned after %v, want prompt return on cancel", elapsed)
	}
}
