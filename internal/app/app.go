// Package app wires configuration, persistence, authentication and playback into one value the
// CLI drives.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/playctl/internal/auth"
	"github.com/desertthunder/playctl/internal/player"
	"github.com/desertthunder/playctl/internal/playback"
	"github.com/desertthunder/playctl/internal/repositories"
	"github.com/desertthunder/playctl/internal/services"
	"github.com/desertthunder/playctl/internal/shared"
)

// Options configures [New].
type Options struct {
	Config    *shared.Config
	Logger    *log.Logger
	Transport http.RoundTripper // base transport for Web API and token calls; nil means the default
	Factory   player.Factory    // overrides the Connect player, mainly for tests
}

// App holds the long-lived components.
type App struct {
	Config     *shared.Config
	DB         *sql.DB
	Sessions   *repositories.SessionRepository
	States     *repositories.PlaybackStateRepository
	Store      *auth.Store
	Spotify    *services.SpotifyService
	Controller *playback.Controller
	Manager    *player.Manager

	logger *log.Logger
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New opens the database, restores the session and the last playback state, and connects the
// components. Nothing talks to the network until [App.Start] or a command does.
func New(opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = shared.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = shared.DiscardLogger()
	}

	db, err := shared.OpenDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	sessions := repositories.NewSessionRepository(db)
	states := repositories.NewPlaybackStateRepository(db)

	var tokenClient *http.Client
	if opts.Transport != nil {
		tokenClient = &http.Client{Transport: opts.Transport}
	}

	store := auth.NewStore(auth.Options{
		ClientID:     cfg.Credentials.Spotify.ClientID,
		ClientSecret: cfg.Credentials.Spotify.ClientSecret,
		RedirectURI:  cfg.Credentials.Spotify.RedirectURI,
		AuthURL:      cfg.API.AuthURL,
		TokenURL:     cfg.API.TokenURL,
		HTTPClient:   tokenClient,
		Persister:    sessions,
		Logger:       logger,
	})
	if err := store.Load(); err != nil {
		db.Close()
		return nil, err
	}

	client := services.NewHTTPClient(store.TokenSource(context.Background()), store, services.TransportOptions{
		RequestsPerSecond: cfg.API.RequestsPerSecond,
		Base:              opts.Transport,
		Logger:            logger,
	})
	spotify := services.NewSpotifyService(client, cfg.API.BaseURL, logger)

	ctrl := playback.NewController(playback.Options{
		API:    spotify,
		Auth:   store,
		Saver:  states,
		Logger: logger,
	})
	if state, ok, err := states.LoadState(); err != nil {
		logger.Warn("failed to restore playback state", "error", err)
	} else if ok {
		state.IsPlaying = false
		ctrl.Restore(state)
	}

	factory := opts.Factory
	if factory == nil {
		factory = player.ConnectFactory(spotify, cfg.Player.DeviceName, cfg.Player.PollInterval.Duration, logger)
	}
	manager := player.NewManager(player.ManagerOptions{
		Factory:    factory,
		Controller: ctrl,
		Auth:       store,
		Logger:     logger,
	})
	store.OnAuthChange(manager.Notify)

	return &App{
		Config:     cfg,
		DB:         db,
		Sessions:   sessions,
		States:     states,
		Store:      store,
		Spotify:    spotify,
		Controller: ctrl,
		Manager:    manager,
		logger:     shared.WithLogger(logger, "component", "app"),
	}, nil
}

// Start runs the connection manager in the background and, when a session exists, connects the
// player and waits up to the configured ready timeout for it.
func (a *App) Start(ctx context.Context) error {
	if !a.Store.IsAuthenticated() {
		return fmt.Errorf("%w: run 'playctl login' first", shared.ErrNotAuthenticated)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a.cancel = cancel

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.Manager.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("connection manager stopped", "error", err)
		}
	}()

	a.Manager.Notify(true)

	timeout := a.Config.Player.ReadyTimeout.Duration
	if timeout <= 0 {
		return a.Manager.WaitReady(ctx)
	}
	waitCtx, done := context.WithTimeout(ctx, timeout)
	defer done()
	return a.Manager.WaitReady(waitCtx)
}

// Login records the profile of a freshly authenticated user on the session.
func (a *App) Login(ctx context.Context) error {
	user, err := a.Spotify.Me(ctx)
	if err != nil {
		return err
	}
	if err := a.Sessions.SetUser(user); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	a.logger.Info("session ready", "user", user.ID, "product", user.Product)
	return nil
}

// Close stops the manager and closes the database.
func (a *App) Close() error {
	if a.cancel != nil {
		a.cancel()
		a.wg.Wait()
	}
	a.Manager.Close()
	return a.DB.Close()
}
