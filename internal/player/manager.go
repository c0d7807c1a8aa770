package player

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/playctl/internal/playback"
	"github.com/desertthunder/playctl/internal/shared"
)

// State is the connection state of a [Manager].
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Reauthenticating
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Reauthenticating:
		return "reauthenticating"
	default:
		return "unknown"
	}
}

// Auth supplies tokens and forced refreshes. Implemented by the auth store.
type Auth interface {
	AccessToken(ctx context.Context) (string, error)
	RefreshIfNeeded(ctx context.Context, force bool) (bool, error)
}

// ManagerOptions configures a [Manager].
type ManagerOptions struct {
	Factory    Factory
	Controller *playback.Controller
	Auth       Auth
	Logger     *log.Logger
}

// Manager owns the lifecycle of the player and feeds its events to the playback controller.
//
// An authentication error triggers one automatic recovery (forced token refresh, then a full
// reconnect). Another authentication error before the player is ready again is only recorded;
// recovering from it is left to [Manager.Reconnect].
type Manager struct {
	opMu sync.Mutex

	mu         sync.Mutex
	state      State
	player     Player
	recovering bool
	ready      chan struct{} // closed while the device is ready
	changed    chan struct{} // closed when the player is replaced
	wantAuth   *bool

	signal  chan struct{}
	factory Factory
	ctrl    *playback.Controller
	auth    Auth
	logger  *log.Logger
}

// NewManager creates a disconnected [Manager].
func NewManager(opts ManagerOptions) *Manager {
	return &Manager{
		ready:   make(chan struct{}),
		changed: make(chan struct{}),
		signal:  make(chan struct{}, 1),
		factory: opts.Factory,
		ctrl:    opts.Controller,
		auth:    opts.Auth,
		logger:  shared.WithLogger(opts.Logger, "component", "manager"),
	}
}

// State returns the connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Player returns the current player, nil when disconnected.
func (m *Manager) Player() Player {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.player
}

// Notify records an authentication transition for [Manager.Run] to apply. Only the latest
// transition is kept. It never blocks, so it is safe to register as an auth-change listener.
func (m *Manager) Notify(authenticated bool) {
	m.mu.Lock()
	m.wantAuth = &authenticated
	m.mu.Unlock()

	select {
	case m.signal <- struct{}{}:
	default:
	}
}

// HandleAuthChange connects a new player when authenticated and disconnects and resets all
// readiness state otherwise.
func (m *Manager) HandleAuthChange(ctx context.Context, authenticated bool) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if !authenticated {
		m.disconnect()
		m.mu.Lock()
		m.recovering = false
		m.mu.Unlock()
		m.ctrl.Reset()
		m.logger.Info("logged out, player disconnected")
		return nil
	}

	if m.Player() != nil {
		return nil
	}
	return m.connect(ctx)
}

// Reconnect tears the player down and connects a fresh one, clearing the recovery guard.
func (m *Manager) Reconnect(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	m.recovering = false
	m.mu.Unlock()

	m.disconnect()
	return m.connect(ctx)
}

// Dispatch handles one player event.
func (m *Manager) Dispatch(ctx context.Context, ev Event) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	p := m.Player()
	if p == nil {
		m.logger.Debug("ignoring event without a player", "event", ev.Type)
		return nil
	}
	m.logger.Debug("player event", "event", ev.Type, "device", ev.DeviceID)

	switch ev.Type {
	case EventReady:
		// the controller must see the device before waiters are released
		m.ctrl.SetHandle(p)
		pending := m.ctrl.MarkDeviceReady(ev.DeviceID)

		m.mu.Lock()
		m.state = Connected
		m.recovering = false
		select {
		case <-m.ready:
		default:
			close(m.ready)
		}
		m.mu.Unlock()

		m.logger.Info("player ready", "device", ev.DeviceID)
		return m.ctrl.Replay(ctx, pending)

	case EventNotReady:
		m.notReady()
		m.ctrl.MarkNotReady()
		m.logger.Warn("player not ready", "device", ev.DeviceID)
		return nil

	case EventInitializationError, EventAccountError:
		m.ctrl.SetError(ev.Message)
		m.logger.Error("player error", "event", ev.Type, "message", ev.Message)
		return fmt.Errorf("%s: %s", ev.Type, ev.Message)

	case EventAuthenticationError:
		return m.recover(ctx, ev)

	case EventStateChanged:
		m.ctrl.UpdateFromPlayerState(ev.State)
		return nil

	default:
		return fmt.Errorf("%w: player event %d", shared.ErrInvalidArgument, ev.Type)
	}
}

// Run pumps events from the current player and applies authentication transitions recorded by
// [Manager.Notify] until ctx is done. Event handling errors are logged.
func (m *Manager) Run(ctx context.Context) error {
	for {
		m.mu.Lock()
		p := m.player
		changed := m.changed
		m.mu.Unlock()

		var events <-chan Event
		if p != nil {
			events = p.Events()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.signal:
			if want, ok := m.takeAuth(); ok {
				if err := m.HandleAuthChange(ctx, want); err != nil {
					m.logger.Error("failed to apply auth change", "authenticated", want, "error", err)
				}
			}
		case <-changed:
		case ev := <-events:
			if err := m.Dispatch(ctx, ev); err != nil {
				m.logger.Warn("player event failed", "event", ev.Type, "error", err)
			}
		}
	}
}

// WaitReady blocks until the player reports ready or ctx is done.
func (m *Manager) WaitReady(ctx context.Context) error {
	m.mu.Lock()
	ready := m.ready
	m.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: waiting for player: %w", shared.ErrTimeout, ctx.Err())
	}
}

// Close disconnects the player.
func (m *Manager) Close() {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	m.disconnect()
}

// recover runs the one automatic recovery from an authentication error.
func (m *Manager) recover(ctx context.Context, ev Event) error {
	m.mu.Lock()
	if m.recovering {
		m.mu.Unlock()
		m.ctrl.SetError(ev.Message)
		m.logger.Error("authentication failed again, giving up", "message", ev.Message)
		return fmt.Errorf("%w: %s", shared.ErrAuth, ev.Message)
	}
	m.recovering = true
	m.state = Reauthenticating
	m.mu.Unlock()

	m.logger.Warn("player authentication failed, refreshing token", "message", ev.Message)

	if _, err := m.auth.RefreshIfNeeded(ctx, true); err != nil {
		m.ctrl.SetError(err.Error())
		m.disconnect()
		return err
	}

	m.disconnect()
	return m.connect(ctx)
}

// connect must be called with opMu held.
func (m *Manager) connect(ctx context.Context) error {
	m.setState(Connecting)

	p, err := m.factory(m.token)
	if err != nil {
		m.setState(Disconnected)
		m.ctrl.SetError(err.Error())
		return fmt.Errorf("failed to create player: %w", err)
	}

	m.mu.Lock()
	m.player = p
	close(m.changed)
	m.changed = make(chan struct{})
	m.mu.Unlock()

	m.logger.Info("connecting player")
	if err := p.Connect(ctx); err != nil {
		m.disconnect()
		m.ctrl.SetError(err.Error())
		return fmt.Errorf("failed to connect player: %w", err)
	}
	return nil
}

// disconnect must be called with opMu held.
func (m *Manager) disconnect() {
	m.mu.Lock()
	p := m.player
	m.player = nil
	m.state = Disconnected
	if p != nil {
		close(m.changed)
		m.changed = make(chan struct{})
	}
	m.mu.Unlock()

	m.notReady()
	m.ctrl.SetHandle(nil)
	m.ctrl.MarkNotReady()

	if p != nil {
		p.Disconnect()
	}
}

func (m *Manager) notReady() {
	m.mu.Lock()
	defer m.mu.Unlock()

	select {
	case <-m.ready:
		m.ready = make(chan struct{})
	default:
	}
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
}

func (m *Manager) takeAuth() (bool, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.wantAuth == nil {
		return false, false
	}
	want := *m.wantAuth
	m.wantAuth = nil
	return want, true
}

func (m *Manager) token(ctx context.Context) (string, error) {
	if m.auth == nil {
		return "", shared.ErrNotAuthenticated
	}
	return m.auth.AccessToken(ctx)
}
