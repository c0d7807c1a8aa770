package player

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/desertthunder/playctl/internal/models"
	"github.com/desertthunder/playctl/internal/services"
	"github.com/desertthunder/playctl/internal/shared"
	tu "github.com/desertthunder/playctl/internal/testing"
)

const playingState = `{
	"device": {"id": "dev-1", "name": "Desk", "type": "Computer", "is_active": true, "volume_percent": 40},
	"progress_ms": 1000,
	"is_playing": true,
	"item": {
		"id": "abc123",
		"name": "Song",
		"uri": "spotify:track:abc123",
		"duration_ms": 2000,
		"artists": [{"name": "One"}],
		"album": {"name": "Record", "images": []}
	}
}`

func newRemote(t *testing.T) (*services.SpotifyService, *tu.FakeSpotify) {
	t.Helper()
	fake := tu.NewFakeSpotify(t)
	fake.SetDevices(
		models.RemoteDevice{ID: "dev-0", Name: "Phone", Type: "Smartphone"},
		models.RemoteDevice{ID: "dev-1", Name: "Desk", Type: "Computer"},
	)
	client := services.NewHTTPClient(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "token"}), nil, services.TransportOptions{})
	return services.NewSpotifyService(client, fake.BaseURL(), nil), fake
}

func staticToken(context.Context) (string, error) {
	return "token", nil
}

// next returns the first event of type want, skipping others.
func next(t *testing.T, events <-chan Event, want EventType) Event {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Type == want {
				return ev
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s event", want)
			return Event{}
		}
	}
}

func TestSelectDevice(t *testing.T) {
	devices := []models.RemoteDevice{
		{ID: "a", Name: "Phone"},
		{ID: "b", Name: "Kitchen Speaker", Active: true},
		{ID: "c", Name: "Desk"},
	}

	tests := []struct {
		name   string
		query  string
		want   string
		wantOK bool
	}{
		{name: "matches the name ignoring case", query: "kitchen speaker", want: "b", wantOK: true},
		{name: "matches the id", query: "c", want: "c", wantOK: true},
		{name: "prefers the active device", query: "", want: "b", wantOK: true},
		{name: "unknown name selects nothing", query: "Car", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := selectDevice(devices, tt.query)
			if ok != tt.wantOK || got.ID != tt.want {
				t.Errorf("expected (%q, %v), got (%q, %v)", tt.want, tt.wantOK, got.ID, ok)
			}
		})
	}

	t.Run("falls back to the first device", func(t *testing.T) {
		got, ok := selectDevice(devices[:1], "")
		if !ok || got.ID != "a" {
			t.Errorf("expected a, got %q", got.ID)
		}
	})

	t.Run("empty list", func(t *testing.T) {
		if _, ok := selectDevice(nil, ""); ok {
			t.Error("expected no device")
		}
	})
}

func TestConnectPlayer(t *testing.T) {
	ctx := context.Background()

	t.Run("connects to the named device", func(t *testing.T) {
		remote, _ := newRemote(t)
		p := NewConnectPlayer(ConnectOptions{Remote: remote, Token: staticToken, DeviceName: "desk", PollInterval: time.Hour})
		defer p.Disconnect()

		if err := p.Connect(ctx); err != nil {
			t.Fatalf("connect failed: %v", err)
		}
		if ev := next(t, p.Events(), EventReady); ev.DeviceID != "dev-1" {
			t.Errorf("expected ready for dev-1, got %q", ev.DeviceID)
		}
		if p.DeviceID() != "dev-1" {
			t.Errorf("expected dev-1, got %q", p.DeviceID())
		}

		t.Run("second connect is a no-op", func(t *testing.T) {
			if err := p.Connect(ctx); err != nil {
				t.Errorf("expected no error, got %v", err)
			}
			select {
			case ev := <-p.Events():
				t.Errorf("unexpected event %s", ev.Type)
			default:
			}
		})
	})

	t.Run("unknown device is an initialization error", func(t *testing.T) {
		remote, _ := newRemote(t)
		p := NewConnectPlayer(ConnectOptions{Remote: remote, Token: staticToken, DeviceName: "Car"})

		err := p.Connect(ctx)
		if !errors.Is(err, shared.ErrDeviceNotFound) {
			t.Errorf("expected ErrDeviceNotFound, got %v", err)
		}
		ev := next(t, p.Events(), EventInitializationError)
		if ev.Message != `device "Car" not found` {
			t.Errorf("unexpected message %q", ev.Message)
		}
	})

	t.Run("token failure is an authentication error", func(t *testing.T) {
		remote, fake := newRemote(t)
		token := func(context.Context) (string, error) {
			return "", fmt.Errorf("%w: %w", shared.ErrAuth, shared.ErrRefreshFailed)
		}
		p := NewConnectPlayer(ConnectOptions{Remote: remote, Token: token})

		if err := p.Connect(ctx); !errors.Is(err, shared.ErrAuth) {
			t.Errorf("expected ErrAuth, got %v", err)
		}
		next(t, p.Events(), EventAuthenticationError)
		if n := len(fake.Requests("", "")); n != 0 {
			t.Errorf("expected no requests, got %d", n)
		}
	})

	t.Run("maps listing failures to events", func(t *testing.T) {
		tests := []struct {
			status  int
			want    EventType
			message string
		}{
			{status: http.StatusUnauthorized, want: EventAuthenticationError},
			{status: http.StatusForbidden, want: EventAccountError, message: "premium account required"},
			{status: http.StatusInternalServerError, want: EventInitializationError},
		}

		for _, tt := range tests {
			remote, fake := newRemote(t)
			fake.QueueStatus(http.MethodGet, "/v1/me/player/devices", tt.status)
			p := NewConnectPlayer(ConnectOptions{Remote: remote, Token: staticToken})

			if err := p.Connect(ctx); err == nil {
				t.Errorf("status %d: expected error", tt.status)
			}
			ev := next(t, p.Events(), tt.want)
			if tt.message != "" && ev.Message != tt.message {
				t.Errorf("status %d: expected message %q, got %q", tt.status, tt.message, ev.Message)
			}
		}
	})

	t.Run("controls target the device", func(t *testing.T) {
		remote, fake := newRemote(t)
		p := NewConnectPlayer(ConnectOptions{Remote: remote, Token: staticToken, DeviceName: "Desk", PollInterval: time.Hour})
		defer p.Disconnect()
		if err := p.Connect(ctx); err != nil {
			t.Fatalf("connect failed: %v", err)
		}

		if err := p.Pause(ctx); err != nil {
			t.Fatalf("pause failed: %v", err)
		}
		if err := p.SetVolume(ctx, 0.5); err != nil {
			t.Fatalf("volume failed: %v", err)
		}

		pause := fake.Requests(http.MethodPut, "/v1/me/player/pause")
		if len(pause) != 1 || pause[0].Query.Get("device_id") != "dev-1" {
			t.Errorf("unexpected pause requests %+v", pause)
		}
		volume := fake.Requests(http.MethodPut, "/v1/me/player/volume")
		if len(volume) != 1 || volume[0].Query.Get("volume_percent") != "50" {
			t.Errorf("unexpected volume requests %+v", volume)
		}
	})

	t.Run("polling reports state and presence", func(t *testing.T) {
		remote, fake := newRemote(t)
		fake.SetPlayerState(playingState)
		p := NewConnectPlayer(ConnectOptions{Remote: remote, Token: staticToken, DeviceName: "Desk", PollInterval: 10 * time.Millisecond})
		defer p.Disconnect()

		if err := p.Connect(ctx); err != nil {
			t.Fatalf("connect failed: %v", err)
		}
		next(t, p.Events(), EventReady)

		ev := next(t, p.Events(), EventStateChanged)
		if !ev.State.IsPlaying || ev.State.CurrentTrack == nil || ev.State.CurrentTrack.URI != "spotify:track:abc123" {
			t.Errorf("unexpected state %+v", ev.State)
		}

		fake.SetPlayerState("")
		fake.SetDevices(models.RemoteDevice{ID: "dev-0", Name: "Phone"})
		if ev := next(t, p.Events(), EventNotReady); ev.DeviceID != "dev-1" {
			t.Errorf("expected not_ready for dev-1, got %q", ev.DeviceID)
		}

		fake.SetDevices(models.RemoteDevice{ID: "dev-1", Name: "Desk"})
		if ev := next(t, p.Events(), EventReady); ev.DeviceID != "dev-1" {
			t.Errorf("expected ready for dev-1, got %q", ev.DeviceID)
		}
	})

	t.Run("disconnect stops polling", func(t *testing.T) {
		remote, fake := newRemote(t)
		p := NewConnectPlayer(ConnectOptions{Remote: remote, Token: staticToken, PollInterval: 5 * time.Millisecond})
		if err := p.Connect(ctx); err != nil {
			t.Fatalf("connect failed: %v", err)
		}
		time.Sleep(30 * time.Millisecond)

		p.Disconnect()
		time.Sleep(20 * time.Millisecond)
		before := fake.Count(http.MethodGet, "/v1/me/player")
		time.Sleep(30 * time.Millisecond)

		if after := fake.Count(http.MethodGet, "/v1/me/player"); after != before {
			t.Errorf("expected polling to stop, went from %d to %d", before, after)
		}
	})
}
