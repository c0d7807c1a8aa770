package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/playctl/internal/models"
	"github.com/desertthunder/playctl/internal/shared"
)

const (
	// MaxRetries bounds the retries of one play call chain.
	MaxRetries = 3
	// RetryDelay is the fixed pause between attempts.
	RetryDelay = time.Second
)

// API is the part of the Web API the controller needs.
type API interface {
	DeviceAPI
	PlayURIs(ctx context.Context, deviceID string, uris ...string) error
	PlayContext(ctx context.Context, deviceID, contextURI string, position int) error
}

// Authenticator reports whether a session exists. Implemented by the auth store.
type Authenticator interface {
	IsAuthenticated() bool
}

// Handle is the connected player's control surface.
type Handle interface {
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Seek(ctx context.Context, positionMS int) error
	SetVolume(ctx context.Context, volume float64) error
	NextTrack(ctx context.Context) error
	PreviousTrack(ctx context.Context) error
}

// StateSaver persists [models.PlaybackState] after each change.
type StateSaver interface {
	SaveState(state models.PlaybackState) error
}

// Options configures a [Controller].
type Options struct {
	API        API
	Auth       Authenticator
	Registrar  *Registrar // created from API when nil
	Saver      StateSaver // optional
	RetryDelay time.Duration
	Logger     *log.Logger
}

// Controller issues playback commands.
//
// Play requests made before the device is ready are parked in a single pending slot (newer
// requests replace older ones) and replayed once by [Controller.SetDeviceReady]. Otherwise each
// request runs as a bounded loop: register the device, send the play command, and on a
// registration failure or a 404 wait [RetryDelay] and try again, at most [MaxRetries] times.
//
// Operations are serialized: no two commands of one controller are in flight at once.
type Controller struct {
	opMu sync.Mutex

	mu      sync.Mutex
	state   models.PlaybackState
	pending *models.PlaybackRequest
	retries int
	handle  Handle

	api       API
	auth      Authenticator
	registrar *Registrar
	saver     StateSaver
	delay     time.Duration
	logger    *log.Logger
}

// NewController creates a [Controller] with full volume and nothing playing.
func NewController(opts Options) *Controller {
	logger := shared.WithLogger(opts.Logger, "component", "playback")

	registrar := opts.Registrar
	if registrar == nil {
		registrar = NewRegistrar(opts.API, opts.Logger)
	}

	delay := opts.RetryDelay
	if delay <= 0 {
		delay = RetryDelay
	}

	return &Controller{
		state:     models.PlaybackState{Volume: 1},
		api:       opts.API,
		auth:      opts.Auth,
		registrar: registrar,
		saver:     opts.Saver,
		delay:     delay,
		logger:    logger,
	}
}

// Registrar returns the controller's device registrar.
func (c *Controller) Registrar() *Registrar {
	return c.registrar
}

// State returns a copy of the current playback state.
func (c *Controller) State() models.PlaybackState {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := c.state
	if state.CurrentTrack != nil {
		track := *state.CurrentTrack
		state.CurrentTrack = &track
	}
	return state
}

// Restore replaces the state wholesale, e.g. with the last persisted one.
func (c *Controller) Restore(state models.PlaybackState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = state
}

// Pending returns the queued request, if any.
func (c *Controller) Pending() *models.PlaybackRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return nil
	}
	req := *c.pending
	return &req
}

// RetryCount returns the retries spent by the current or most recent play call chain. It is
// zero after a success.
func (c *Controller) RetryCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.retries
}

// SetHandle attaches the connected player, or detaches it when h is nil.
func (c *Controller) SetHandle(h Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handle = h
}

// PlayTrack plays a single track.
//
// The reference is resolved first; an unresolvable one fails with [KindResolution] and no network
// call. Without a session it fails with [KindAuth]. Before the device is ready the request is
// queued and [shared.ErrQueued] returned.
func (c *Controller) PlayTrack(ctx context.Context, in models.TrackInput) error {
	if _, _, err := Resolve(in); err != nil {
		return c.fail(err)
	}
	return c.play(ctx, models.PlaybackRequest{Kind: models.KindTrack, Track: in})
}

// PlayPlaylist plays a playlist from the zero-based startIndex. playlist may be an ID, URI or URL.
func (c *Controller) PlayPlaylist(ctx context.Context, playlist string, startIndex int) error {
	id, err := ResolvePlaylist(playlist)
	if err != nil {
		return c.fail(err)
	}
	if startIndex < 0 {
		return c.fail(fmt.Errorf("%w: start index %d", shared.ErrInvalidArgument, startIndex))
	}
	return c.play(ctx, models.PlaybackRequest{Kind: models.KindPlaylist, PlaylistID: id, StartIndex: startIndex})
}

// SetDeviceReady records the device the player reported ready and replays the queued request, if
// any, exactly once. The replay's result is returned.
func (c *Controller) SetDeviceReady(ctx context.Context, deviceID string) error {
	return c.Replay(ctx, c.MarkDeviceReady(deviceID))
}

// MarkDeviceReady records the device the player reported ready and takes the queued request.
// Commands issued after it returns see the device as ready. The request, if not nil, must be passed
// to [Controller.Replay].
func (c *Controller) MarkDeviceReady(deviceID string) *models.PlaybackRequest {
	c.registrar.SetReady(deviceID)

	c.mu.Lock()
	defer c.mu.Unlock()

	pending := c.pending
	c.pending = nil
	if c.state.Error == shared.ErrQueued.Error() {
		c.state.Error = ""
	}
	return pending
}

// Replay runs a request taken by [Controller.MarkDeviceReady]. A nil request is a no-op.
func (c *Controller) Replay(ctx context.Context, req *models.PlaybackRequest) error {
	if req == nil {
		return nil
	}

	c.logger.Info("replaying queued request", "kind", req.Kind, "device", c.registrar.Device().ID)
	return c.run(ctx, *req)
}

// MarkNotReady records that the player went away.
func (c *Controller) MarkNotReady() {
	c.registrar.MarkNotReady()
}

// Reset drops all local state: device readiness, the queued request, the player handle and the
// playback state.
func (c *Controller) Reset() {
	c.registrar.Reset()

	c.mu.Lock()
	c.state = models.PlaybackState{Volume: 1}
	c.pending = nil
	c.retries = 0
	c.handle = nil
	c.mu.Unlock()
}

func (c *Controller) play(ctx context.Context, req models.PlaybackRequest) error {
	if c.auth != nil && !c.auth.IsAuthenticated() {
		return c.fail(&Error{Kind: KindAuth, Err: shared.ErrNotAuthenticated})
	}

	if !c.registrar.Device().Ready {
		c.mu.Lock()
		if c.pending != nil {
			c.logger.Debug("replacing queued request", "previous", c.pending.Kind, "next", req.Kind)
		}
		c.pending = &req
		c.state.Error = shared.ErrQueued.Error()
		c.mu.Unlock()

		c.logger.Info("player not ready, queued request", "kind", req.Kind)
		return shared.ErrQueued
	}

	return c.run(ctx, req)
}

// run is one logical call chain: an explicit bounded loop over attempts.
func (c *Controller) run(ctx context.Context, req models.PlaybackRequest) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	for attempt := 0; ; attempt++ {
		req.RetryCount = attempt
		c.setRetries(attempt)

		err := c.attempt(ctx, req)
		if err == nil {
			c.setRetries(0)
			c.succeeded(req)
			return nil
		}

		if !err.Retryable() {
			return c.fail(err)
		}

		if attempt == MaxRetries {
			c.logger.Error("device registration failed after retries", "retries", attempt, "error", err)
			c.registrar.MarkNotReady()
			return c.fail(&Error{Kind: KindRegistration, Status: err.Status, Err: err.Err})
		}

		if err.Kind == KindNotFound {
			c.registrar.Invalidate()
		}

		c.logger.Warn("retrying playback", "attempt", attempt+1, "of", MaxRetries, "kind", err.Kind)
		if serr := sleep(ctx, c.delay); serr != nil {
			return c.fail(&Error{Kind: KindPlayback, Err: serr})
		}
	}
}

func (c *Controller) attempt(ctx context.Context, req models.PlaybackRequest) *Error {
	deviceID := c.registrar.Device().ID

	ok, err := c.registrar.EnsureRegistered(ctx, deviceID)
	if !ok {
		var pe *Error
		if errors.As(err, &pe) {
			return pe
		}
		return &Error{Kind: KindRegistration, Err: err}
	}

	switch req.Kind {
	case models.KindTrack:
		uri, _, rerr := Resolve(req.Track)
		if rerr != nil {
			return classify(rerr)
		}
		err = c.api.PlayURIs(ctx, deviceID, uri)
	case models.KindPlaylist:
		err = c.api.PlayContext(ctx, deviceID, playlistURIPrefix+req.PlaylistID, req.StartIndex)
	default:
		return &Error{Kind: KindPlayback, Err: fmt.Errorf("%w: request kind %v", shared.ErrInvalidArgument, req.Kind)}
	}

	return classify(err)
}

func (c *Controller) succeeded(req models.PlaybackRequest) {
	c.update(func(s *models.PlaybackState) {
		s.IsPlaying = true
		s.Error = ""
		s.PositionMS = 0

		switch req.Kind {
		case models.KindTrack:
			_, info, _ := Resolve(req.Track)
			s.CurrentTrack = info
			s.CurrentPlaylist = ""
			s.PlaylistIndex = 0
			s.DurationMS = 0
			if obj, ok := trackObject(req.Track); ok {
				s.DurationMS = obj.DurationMS
			}
		case models.KindPlaylist:
			s.CurrentPlaylist = req.PlaylistID
			s.PlaylistIndex = req.StartIndex
		}
	})
	c.logger.Info("playback started", "kind", req.Kind)
}

// fail records err as the user-visible error and returns it.
func (c *Controller) fail(err error) error {
	c.update(func(s *models.PlaybackState) { s.Error = err.Error() })
	c.logger.Error("playback failed", "error", err)
	return err
}

func (c *Controller) setRetries(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retries = n
}

func (c *Controller) update(fn func(*models.PlaybackState)) {
	c.mu.Lock()
	fn(&c.state)
	state := c.state
	c.mu.Unlock()

	if c.saver != nil {
		if err := c.saver.SaveState(state); err != nil {
			c.logger.Warn("failed to save playback state", "error", err)
		}
	}
}

func trackObject(in models.TrackInput) (models.TrackObject, bool) {
	switch v := in.(type) {
	case models.TrackObject:
		return v, true
	case *models.TrackObject:
		if v != nil {
			return *v, true
		}
	case models.SavedTrack:
		return v.Track, true
	case *models.SavedTrack:
		if v != nil {
			return v.Track, true
		}
	}
	return models.TrackObject{}, false
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
