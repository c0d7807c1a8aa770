package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/desertthunder/playctl/internal/models"
	"github.com/desertthunder/playctl/internal/shared"
)

const (
	// RefreshThreshold is the token age past which [Store.RefreshIfNeeded] talks to the token endpoint.
	RefreshThreshold = 50 * time.Minute
	// ValidFor is how long an access token is honored after issue.
	ValidFor = time.Hour
)

// Scopes requested at login.
var Scopes = []string{
	spotifyauth.ScopeUserReadPrivate,
	spotifyauth.ScopeUserReadEmail,
	spotifyauth.ScopePlaylistReadPrivate,
	spotifyauth.ScopePlaylistModifyPublic,
	spotifyauth.ScopePlaylistModifyPrivate,
	spotifyauth.ScopeUserTopRead,
	spotifyauth.ScopePlaylistReadCollaborative,
	spotifyauth.ScopeUserReadPlaybackState,
	spotifyauth.ScopeUserModifyPlaybackState,
	spotifyauth.ScopeUserReadCurrentlyPlaying,
	spotifyauth.ScopeStreaming,
	spotifyauth.ScopeUserLibraryRead,
	spotifyauth.ScopeUserLibraryModify,
}

// Persister stores the token between runs.
type Persister interface {
	SaveToken(token models.Token) error
	LoadToken() (models.Token, error)
	ClearToken() error
}

// Options configures a [Store].
type Options struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthURL      string // defaults to the Spotify accounts authorize endpoint
	TokenURL     string // defaults to the Spotify accounts token endpoint

	HTTPClient *http.Client     // used for token endpoint calls; nil means http.DefaultClient
	Persister  Persister        // optional
	Logger     *log.Logger      // optional
	Now        func() time.Time // optional clock
}

// Store owns the session's [models.Token].
//
// It is safe for concurrent use. Refreshes are serialized so concurrent callers that find the
// token stale trigger a single call to the token endpoint.
type Store struct {
	mu        sync.Mutex
	token     models.Token
	listeners []func(authenticated bool)

	refreshMu sync.Mutex

	config    *oauth2.Config
	client    *http.Client
	persister Persister
	logger    *log.Logger
	now       func() time.Time
}

// NewStore creates an unauthenticated [Store].
func NewStore(opts Options) *Store {
	authURL, tokenURL := opts.AuthURL, opts.TokenURL
	if authURL == "" {
		authURL = spotifyauth.AuthURL
	}
	if tokenURL == "" {
		tokenURL = spotifyauth.TokenURL
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Store{
		config: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			RedirectURL:  opts.RedirectURI,
			Scopes:       Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   authURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		client:    opts.HTTPClient,
		persister: opts.Persister,
		logger:    shared.WithLogger(opts.Logger, "component", "auth"),
		now:       now,
	}
}

// Current returns the present token, possibly stale.
func (s *Store) Current() models.Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// IsAuthenticated reports whether an access token is held.
func (s *Store) IsAuthenticated() bool {
	return !s.Current().IsZero()
}

// IsValid reports whether the held access token is younger than [ValidFor].
func (s *Store) IsValid() bool {
	token := s.Current()
	if token.IsZero() || token.IssuedAt.IsZero() {
		return false
	}
	return token.Age(s.now()) < ValidFor
}

// OnAuthChange registers fn to be called whenever the store moves between authenticated and
// unauthenticated. Callbacks run on the goroutine that caused the transition, without locks held.
func (s *Store) OnAuthChange(fn func(authenticated bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// AuthURL returns the authorization URL the user visits to log in.
func (s *Store) AuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.SetAuthURLParam("show_dialog", "false"))
}

// Set replaces the held token, stamping IssuedAt with the current time when it is zero.
func (s *Store) Set(token models.Token) {
	if !token.IsZero() && token.IssuedAt.IsZero() {
		token.IssuedAt = s.now()
	}
	s.replace(token)
}

// Clear drops the held token. The session is over; callers must log in again.
func (s *Store) Clear() {
	s.replace(models.Token{})
}

// Load restores a persisted token, if any.
func (s *Store) Load() error {
	if s.persister == nil {
		return nil
	}

	token, err := s.persister.LoadToken()
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if token.IsZero() {
		return nil
	}

	s.swap(token)
	s.logger.Debug("restored session", "issued_at", token.IssuedAt)
	return nil
}

// Exchange trades an authorization code for a token. On failure the store is cleared.
func (s *Store) Exchange(ctx context.Context, code string) error {
	if code == "" {
		s.Clear()
		return fmt.Errorf("%w: authorization code missing", shared.ErrAuth)
	}
	if err := s.credentials(); err != nil {
		s.Clear()
		return err
	}

	tok, err := s.config.Exchange(s.context(ctx), code)
	if err != nil {
		s.Clear()
		s.logger.Error("authorization code exchange failed", "error", err)
		return fmt.Errorf("%w: %v", shared.ErrAuth, describe(err))
	}

	if tok.AccessToken == "" {
		s.Clear()
		return fmt.Errorf("%w: token response carried no access token", shared.ErrAuth)
	}

	s.replace(models.Token{AccessToken: tok.AccessToken, RefreshToken: tok.RefreshToken, IssuedAt: s.now()})
	s.logger.Info("logged in")
	return nil
}

// RefreshIfNeeded refreshes the access token when force is set or the token is older than
// [RefreshThreshold].
//
// It returns true when a usable token is held afterwards. A fresh token is returned without any
// network call. Missing credentials or a failing token endpoint clear the store and return false
// with an error wrapping [shared.ErrAuth].
func (s *Store) RefreshIfNeeded(ctx context.Context, force bool) (bool, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	token := s.Current()
	if token.IsZero() {
		return false, fmt.Errorf("%w: %w", shared.ErrAuth, shared.ErrNotAuthenticated)
	}

	if !force && token.Age(s.now()) <= RefreshThreshold {
		return true, nil
	}

	if token.RefreshToken == "" {
		s.Clear()
		return false, fmt.Errorf("%w: %w", shared.ErrAuth, shared.ErrNoRefreshToken)
	}
	if err := s.credentials(); err != nil {
		s.Clear()
		return false, err
	}

	tok, err := s.config.TokenSource(s.context(ctx), &oauth2.Token{RefreshToken: token.RefreshToken}).Token()
	if err != nil {
		s.Clear()
		s.logger.Error("token refresh failed", "error", err)
		return false, fmt.Errorf("%w: %w: %v", shared.ErrAuth, shared.ErrRefreshFailed, describe(err))
	}

	refreshed := models.Token{AccessToken: tok.AccessToken, RefreshToken: token.RefreshToken, IssuedAt: s.now()}
	if tok.RefreshToken != "" {
		refreshed.RefreshToken = tok.RefreshToken
	}
	s.replace(refreshed)

	s.logger.Debug("token refreshed", "forced", force)
	return true, nil
}

// AccessToken returns a usable access token, refreshing first when needed.
func (s *Store) AccessToken(ctx context.Context) (string, error) {
	if ok, err := s.RefreshIfNeeded(ctx, false); !ok {
		return "", err
	}
	return s.Current().AccessToken, nil
}

// TokenSource adapts the store to [oauth2.TokenSource]. Every call goes through
// [Store.RefreshIfNeeded] first.
func (s *Store) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &tokenSource{ctx: ctx, store: s}
}

type tokenSource struct {
	ctx   context.Context
	store *Store
}

func (ts *tokenSource) Token() (*oauth2.Token, error) {
	access, err := ts.store.AccessToken(ts.ctx)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{AccessToken: access, TokenType: "Bearer"}, nil
}

func (s *Store) credentials() error {
	if s.config.ClientID == "" || s.config.ClientSecret == "" {
		return fmt.Errorf("%w: %w", shared.ErrAuth, shared.ErrMissingCredentials)
	}
	return nil
}

func (s *Store) context(ctx context.Context) context.Context {
	if s.client == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, s.client)
}

// replace swaps the token and persists it.
func (s *Store) replace(token models.Token) {
	s.swap(token)
	s.persist(token)
}

// swap sets the token and notifies listeners when authentication flipped.
func (s *Store) swap(token models.Token) {
	s.mu.Lock()
	was := !s.token.IsZero()
	s.token = token
	listeners := append([]func(bool){}, s.listeners...)
	s.mu.Unlock()

	now := !token.IsZero()
	if was != now {
		for _, fn := range listeners {
			fn(now)
		}
	}
}

func (s *Store) persist(token models.Token) {
	if s.persister == nil {
		return
	}

	var err error
	if token.IsZero() {
		err = s.persister.ClearToken()
	} else {
		err = s.persister.SaveToken(token)
	}
	if err != nil {
		s.logger.Warn("failed to persist session", "error", err)
	}
}

// describe extracts the endpoint's status from oauth2 errors.
func describe(err error) string {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		if re.ErrorCode != "" {
			return fmt.Sprintf("status %d: %s", re.Response.StatusCode, re.ErrorCode)
		}
		return fmt.Sprintf("status %d", re.Response.StatusCode)
	}
	return err.Error()
}
