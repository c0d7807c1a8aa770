package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"golang.org/x/oauth2"

	"github.com/desertthunder/playctl/internal/models"
	"github.com/desertthunder/playctl/internal/shared"
	tu "github.com/desertthunder/playctl/internal/testing"
)

func newTestService(t *testing.T) (*SpotifyService, *tu.FakeSpotify) {
	t.Helper()
	fake := tu.NewFakeSpotify(t)
	client := NewHTTPClient(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token"}), nil, TransportOptions{})
	return NewSpotifyService(client, fake.BaseURL(), nil), fake
}

func TestSpotifyService(t *testing.T) {
	ctx := context.Background()

	t.Run("Me", func(t *testing.T) {
		srv, fake := newTestService(t)

		user, err := srv.Me(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if user.ID != "user-1" || !user.IsPremium() {
			t.Errorf("unexpected user %+v", user)
		}

		reqs := fake.Requests(http.MethodGet, "/v1/me")
		if len(reqs) != 1 || reqs[0].Auth != "Bearer test-token" {
			t.Errorf("expected one authorized request, got %+v", reqs)
		}
	})

	t.Run("Devices", func(t *testing.T) {
		srv, fake := newTestService(t)
		fake.SetDevices(
			models.RemoteDevice{ID: "d1", Name: "Kitchen", Type: "Speaker", Volume: 40},
			models.RemoteDevice{ID: "d2", Name: "Laptop", Type: "Computer", Active: true},
		)

		devices, err := srv.Devices(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(devices) != 2 {
			t.Fatalf("expected 2 devices, got %d", len(devices))
		}
		if devices[0].Name != "Kitchen" || devices[0].Volume != 40 {
			t.Errorf("unexpected first device %+v", devices[0])
		}
		if !devices[1].Active {
			t.Error("expected second device to be active")
		}
	})

	t.Run("Transfer sends device ids without starting playback", func(t *testing.T) {
		srv, fake := newTestService(t)

		if err := srv.Transfer(ctx, "d1", false); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		reqs := fake.Requests(http.MethodPut, "/v1/me/player")
		if len(reqs) != 1 {
			t.Fatalf("expected one transfer, got %d", len(reqs))
		}

		var body struct {
			DeviceIDs []string `json:"device_ids"`
			Play      bool     `json:"play"`
		}
		reqs[0].Decode(t, &body)
		if len(body.DeviceIDs) != 1 || body.DeviceIDs[0] != "d1" || body.Play {
			t.Errorf("unexpected transfer body %+v", body)
		}
	})

	t.Run("PlayURIs targets the device", func(t *testing.T) {
		srv, fake := newTestService(t)

		if err := srv.PlayURIs(ctx, "d1", "spotify:track:abc123"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		reqs := fake.Requests(http.MethodPut, "/v1/me/player/play")
		if len(reqs) != 1 {
			t.Fatalf("expected one play request, got %d", len(reqs))
		}
		if reqs[0].Query.Get("device_id") != "d1" {
			t.Errorf("expected device_id d1, got %q", reqs[0].Query.Get("device_id"))
		}

		var body struct {
			URIs []string `json:"uris"`
		}
		reqs[0].Decode(t, &body)
		if len(body.URIs) != 1 || body.URIs[0] != "spotify:track:abc123" {
			t.Errorf("unexpected uris %v", body.URIs)
		}
	})

	t.Run("PlayContext sends context and offset", func(t *testing.T) {
		srv, fake := newTestService(t)

		if err := srv.PlayContext(ctx, "d1", "spotify:playlist:pl1", 3); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var body struct {
			ContextURI string `json:"context_uri"`
			Offset     struct {
				Position int `json:"position"`
			} `json:"offset"`
		}
		fake.Requests(http.MethodPut, "/v1/me/player/play")[0].Decode(t, &body)
		if body.ContextURI != "spotify:playlist:pl1" || body.Offset.Position != 3 {
			t.Errorf("unexpected body %+v", body)
		}
	})

	t.Run("controls", func(t *testing.T) {
		srv, fake := newTestService(t)

		steps := []struct {
			name   string
			call   func() error
			method string
			path   string
		}{
			{"Pause", func() error { return srv.Pause(ctx, "d1") }, http.MethodPut, "/v1/me/player/pause"},
			{"Resume", func() error { return srv.Resume(ctx, "d1") }, http.MethodPut, "/v1/me/player/play"},
			{"Seek", func() error { return srv.Seek(ctx, "d1", 30000) }, http.MethodPut, "/v1/me/player/seek"},
			{"Volume", func() error { return srv.Volume(ctx, "d1", 55) }, http.MethodPut, "/v1/me/player/volume"},
			{"Next", func() error { return srv.Next(ctx, "d1") }, http.MethodPost, "/v1/me/player/next"},
			{"Previous", func() error { return srv.Previous(ctx, "d1") }, http.MethodPost, "/v1/me/player/previous"},
		}

		for _, step := range steps {
			t.Run(step.name, func(t *testing.T) {
				if err := step.call(); err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if n := fake.Count(step.method, step.path); n != 1 {
					t.Errorf("expected one %s %s, got %d", step.method, step.path, n)
				}
			})
		}

		if q := fake.Requests(http.MethodPut, "/v1/me/player/seek")[0].Query; q.Get("position_ms") != "30000" {
			t.Errorf("expected position_ms 30000, got %q", q.Get("position_ms"))
		}
		if q := fake.Requests(http.MethodPut, "/v1/me/player/volume")[0].Query; q.Get("volume_percent") != "55" {
			t.Errorf("expected volume_percent 55, got %q", q.Get("volume_percent"))
		}
	})

	t.Run("PlayerState", func(t *testing.T) {
		t.Run("no active device", func(t *testing.T) {
			srv, _ := newTestService(t)

			state, err := srv.PlayerState(ctx)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if state.HasDevice || state.State.CurrentTrack != nil {
				t.Errorf("expected empty state, got %+v", state)
			}
		})

		t.Run("maps track and device", func(t *testing.T) {
			srv, fake := newTestService(t)
			fake.SetPlayerState(`{
				"device": {"id": "d1", "name": "Kitchen", "type": "Speaker", "is_active": true, "volume_percent": 50},
				"context": {"type": "playlist", "uri": "spotify:playlist:pl1"},
				"progress_ms": 1200,
				"is_playing": true,
				"item": {
					"id": "abc123",
					"name": "Song",
					"uri": "spotify:track:abc123",
					"duration_ms": 180000,
					"artists": [{"name": "One"}, {"name": "Two"}],
					"album": {"name": "Record", "images": [{"url": "https://i.scdn.co/image/1"}]}
				}
			}`)

			state, err := srv.PlayerState(ctx)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !state.HasDevice || state.Device.ID != "d1" {
				t.Errorf("unexpected device %+v", state.Device)
			}

			got := state.State
			if !got.IsPlaying || got.PositionMS != 1200 || got.DurationMS != 180000 {
				t.Errorf("unexpected progress %+v", got)
			}
			if got.Volume != 0.5 || !got.HasVolume {
				t.Errorf("expected reported volume 0.5, got %v (reported %v)", got.Volume, got.HasVolume)
			}
			if got.CurrentPlaylist != "pl1" {
				t.Errorf("expected playlist pl1, got %q", got.CurrentPlaylist)
			}
			if got.CurrentTrack == nil || got.CurrentTrack.URI != "spotify:track:abc123" || len(got.CurrentTrack.Artists) != 2 {
				t.Errorf("unexpected track %+v", got.CurrentTrack)
			}
			if got.CurrentTrack.ImageURL != "https://i.scdn.co/image/1" {
				t.Errorf("unexpected image %q", got.CurrentTrack.ImageURL)
			}
		})
	})

	t.Run("errors carry the status", func(t *testing.T) {
		srv, fake := newTestService(t)
		fake.QueueStatus(http.MethodPut, "/v1/me/player/play", http.StatusForbidden, http.StatusNotFound)

		err := srv.PlayURIs(ctx, "d1", "spotify:track:1")
		if StatusCode(err) != http.StatusForbidden {
			t.Errorf("expected 403, got %d (%v)", StatusCode(err), err)
		}
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}

		err = srv.PlayURIs(ctx, "d1", "spotify:track:1")
		if StatusCode(err) != http.StatusNotFound {
			t.Errorf("expected 404, got %d (%v)", StatusCode(err), err)
		}

		if err := srv.PlayURIs(ctx, "d1", "spotify:track:1"); err != nil {
			t.Errorf("expected queue to drain, got %v", err)
		}
	})

	t.Run("StatusCode of a plain error", func(t *testing.T) {
		if StatusCode(errors.New("boom")) != 0 {
			t.Error("expected 0 for an error without status")
		}
		if StatusCode(nil) != 0 {
			t.Error("expected 0 for nil")
		}
	})
}
