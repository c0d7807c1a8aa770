package app

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/desertthunder/playctl/internal/models"
	"github.com/desertthunder/playctl/internal/shared"
	tu "github.com/desertthunder/playctl/internal/testing"
)

func testConfig(t *testing.T, fake *tu.FakeSpotify) *shared.Config {
	t.Helper()

	tokens := tu.NewTokenServer(t, http.StatusOK, `{"access_token":"fresh","token_type":"Bearer","expires_in":3600}`)

	cfg := shared.DefaultConfig()
	cfg.Database.Path = ":memory:"
	cfg.Credentials.Spotify.ClientID = "id"
	cfg.Credentials.Spotify.ClientSecret = "secret"
	cfg.API.BaseURL = fake.BaseURL()
	cfg.API.TokenURL = tokens.URL
	cfg.API.RequestsPerSecond = 0
	cfg.Player.DeviceName = "Desk"
	cfg.Player.PollInterval = shared.Duration{Duration: time.Hour}
	cfg.Player.ReadyTimeout = shared.Duration{Duration: 2 * time.Second}
	return cfg
}

func newTestApp(t *testing.T) (*App, *tu.FakeSpotify) {
	t.Helper()

	fake := tu.NewFakeSpotify(t)
	fake.SetDevices(models.RemoteDevice{ID: "dev-1", Name: "Desk", Type: "Computer"})

	a, err := New(Options{Config: testConfig(t, fake)})
	if err != nil {
		t.Fatalf("failed to build app: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a, fake
}

func TestNew(t *testing.T) {
	t.Run("persists the session", func(t *testing.T) {
		a, _ := newTestApp(t)

		a.Store.Set(models.Token{AccessToken: "token", RefreshToken: "refresh"})

		token, err := a.Sessions.LoadToken()
		if err != nil {
			t.Fatalf("failed to load token: %v", err)
		}
		if token.AccessToken != "token" || token.RefreshToken != "refresh" {
			t.Errorf("unexpected stored token %+v", token)
		}

		a.Store.Clear()
		if token, _ := a.Sessions.LoadToken(); !token.IsZero() {
			t.Errorf("expected the session to be cleared, got %+v", token)
		}
	})

	t.Run("restores the session and playback state", func(t *testing.T) {
		fake := tu.NewFakeSpotify(t)
		cfg := testConfig(t, fake)
		cfg.Database.Path = filepath.Join(t.TempDir(), "playctl.db")

		a, err := New(Options{Config: cfg})
		if err != nil {
			t.Fatalf("failed to build app: %v", err)
		}
		a.Store.Set(models.Token{AccessToken: "token", RefreshToken: "refresh"})
		state := models.PlaybackState{
			CurrentTrack: &models.TrackInfo{ID: "abc", URI: "spotify:track:abc", Name: "Song"},
			IsPlaying:    true,
			Volume:       0.5,
		}
		if err := a.States.SaveState(state); err != nil {
			t.Fatalf("failed to save state: %v", err)
		}
		a.Close()

		b, err := New(Options{Config: cfg})
		if err != nil {
			t.Fatalf("failed to reopen app: %v", err)
		}
		defer b.Close()

		if !b.Store.IsAuthenticated() || b.Store.Current().RefreshToken != "refresh" {
			t.Errorf("expected the session to be restored, got %+v", b.Store.Current())
		}
		got := b.Controller.State()
		if got.CurrentTrack == nil || got.CurrentTrack.URI != "spotify:track:abc" {
			t.Fatalf("expected the track to be restored, got %+v", got)
		}
		if got.IsPlaying {
			t.Error("expected restored state to be paused")
		}
	})
}

func TestStart(t *testing.T) {
	ctx := context.Background()

	t.Run("requires a session", func(t *testing.T) {
		a, fake := newTestApp(t)

		if err := a.Start(ctx); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
		if n := len(fake.Requests("", "")); n != 0 {
			t.Errorf("expected no requests, got %d", n)
		}
	})

	t.Run("connects the device and plays on it", func(t *testing.T) {
		a, fake := newTestApp(t)
		a.Store.Set(models.Token{AccessToken: "token", RefreshToken: "refresh"})

		if err := a.Start(ctx); err != nil {
			t.Fatalf("start failed: %v", err)
		}
		if d := a.Controller.Registrar().Device(); !d.Ready || d.ID != "dev-1" {
			t.Fatalf("expected dev-1 ready, got %+v", d)
		}

		if err := a.Controller.PlayTrack(ctx, models.TrackLink("https://open.spotify.com/track/abc123")); err != nil {
			t.Fatalf("play failed: %v", err)
		}

		plays := fake.Requests(http.MethodPut, "/v1/me/player/play")
		if len(plays) != 1 || plays[0].Query.Get("device_id") != "dev-1" {
			t.Fatalf("unexpected play requests %+v", plays)
		}
		if plays[0].Auth != "Bearer token" {
			t.Errorf("expected bearer token, got %q", plays[0].Auth)
		}

		state, ok, err := a.States.LoadState()
		if err != nil || !ok {
			t.Fatalf("expected persisted state, got ok=%v err=%v", ok, err)
		}
		if !state.IsPlaying || state.CurrentTrack == nil || state.CurrentTrack.URI != "spotify:track:abc123" {
			t.Errorf("unexpected persisted state %+v", state)
		}
	})

	t.Run("401 forces a refresh and retries", func(t *testing.T) {
		a, fake := newTestApp(t)
		a.Store.Set(models.Token{AccessToken: "stale", RefreshToken: "refresh"})
		fake.QueueStatus(http.MethodGet, "/v1/me/player/devices", http.StatusUnauthorized)

		if err := a.Start(ctx); err != nil {
			t.Fatalf("start failed: %v", err)
		}

		reqs := fake.Requests(http.MethodGet, "/v1/me/player/devices")
		if len(reqs) != 2 {
			t.Fatalf("expected the listing to be retried once, got %d", len(reqs))
		}
		if reqs[0].Auth != "Bearer stale" || reqs[1].Auth != "Bearer fresh" {
			t.Errorf("expected stale then fresh token, got %q then %q", reqs[0].Auth, reqs[1].Auth)
		}
		if got := a.Store.Current(); got.AccessToken != "fresh" || got.RefreshToken != "refresh" {
			t.Errorf("unexpected token after refresh %+v", got)
		}
	})

	t.Run("logout disconnects the player", func(t *testing.T) {
		a, _ := newTestApp(t)
		a.Store.Set(models.Token{AccessToken: "token", RefreshToken: "refresh"})
		if err := a.Start(ctx); err != nil {
			t.Fatalf("start failed: %v", err)
		}

		a.Store.Clear()

		deadline := time.Now().Add(2 * time.Second)
		for a.Controller.Registrar().Device().Ready && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
		if a.Controller.Registrar().Device().Ready {
			t.Error("expected the device to be reset after logout")
		}
	})
}

func TestLogin(t *testing.T) {
	a, fake := newTestApp(t)
	fake.SetUser(models.User{ID: "u1", DisplayName: "Listener", Product: "premium"})

	if err := a.Login(context.Background()); !errors.Is(err, shared.ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated without a session, got %v", err)
	}

	a.Store.Set(models.Token{AccessToken: "token"})
	if err := a.Login(context.Background()); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	session, err := a.Sessions.Current()
	if err != nil || session == nil {
		t.Fatalf("expected a session, got %v", err)
	}
	if session.UserID() != "u1" || session.DisplayName() != "Listener" {
		t.Errorf("unexpected session user %q %q", session.UserID(), session.DisplayName())
	}
}
