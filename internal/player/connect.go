package player

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/playctl/internal/models"
	"github.com/desertthunder/playctl/internal/services"
	"github.com/desertthunder/playctl/internal/shared"
)

// DefaultPollInterval is used when no poll interval is configured.
const DefaultPollInterval = 5 * time.Second

// Remote is the part of the Web API a [ConnectPlayer] drives.
type Remote interface {
	Devices(ctx context.Context) ([]models.RemoteDevice, error)
	PlayerState(ctx context.Context) (services.RemoteState, error)
	Resume(ctx context.Context, deviceID string) error
	Pause(ctx context.Context, deviceID string) error
	Seek(ctx context.Context, deviceID string, positionMS int) error
	Volume(ctx context.Context, deviceID string, percent int) error
	Next(ctx context.Context, deviceID string) error
	Previous(ctx context.Context, deviceID string) error
}

// ConnectOptions configures a [ConnectPlayer].
type ConnectOptions struct {
	Remote       Remote
	Token        TokenFunc
	DeviceName   string // name or ID; empty selects the active device, then the first one
	PollInterval time.Duration
	Logger       *log.Logger
}

// ConnectPlayer is a [Player] backed by an existing Spotify Connect device (a desktop app, a
// speaker, a phone). Readiness tracks the device's presence in the account's device list and
// state changes are discovered by polling.
type ConnectPlayer struct {
	mu       sync.Mutex
	deviceID string
	present  bool
	last     models.PlaybackState
	cancel   context.CancelFunc

	events   chan Event
	remote   Remote
	token    TokenFunc
	name     string
	interval time.Duration
	logger   *log.Logger
}

// NewConnectPlayer creates a disconnected [ConnectPlayer].
func NewConnectPlayer(opts ConnectOptions) *ConnectPlayer {
	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	return &ConnectPlayer{
		events:   make(chan Event, 16),
		remote:   opts.Remote,
		token:    opts.Token,
		name:     opts.DeviceName,
		interval: interval,
		logger:   shared.WithLogger(opts.Logger, "component", "player"),
	}
}

// ConnectFactory returns a [Factory] producing [ConnectPlayer]s that share remote.
func ConnectFactory(remote Remote, deviceName string, interval time.Duration, logger *log.Logger) Factory {
	return func(token TokenFunc) (Player, error) {
		if remote == nil {
			return nil, fmt.Errorf("%w: no web api client", shared.ErrInvalidConfig)
		}
		return NewConnectPlayer(ConnectOptions{
			Remote:       remote,
			Token:        token,
			DeviceName:   deviceName,
			PollInterval: interval,
			Logger:       logger,
		}), nil
	}
}

func (p *ConnectPlayer) Events() <-chan Event {
	return p.events
}

// DeviceID returns the selected device, empty before a successful Connect.
func (p *ConnectPlayer) DeviceID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.deviceID
}

// Connect obtains a token, selects the device and starts polling. On success a ready event is
// emitted; failures are emitted as the matching error event and returned.
func (p *ConnectPlayer) Connect(ctx context.Context) error {
	p.mu.Lock()
	if p.cancel != nil {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	if p.token != nil {
		if _, err := p.token(ctx); err != nil {
			return p.failure(err)
		}
	}

	devices, err := p.remote.Devices(ctx)
	if err != nil {
		return p.failure(err)
	}

	device, ok := selectDevice(devices, p.name)
	if !ok {
		msg := "no devices available"
		if p.name != "" {
			msg = fmt.Sprintf("device %q not found", p.name)
		}
		p.emit(Event{Type: EventInitializationError, Message: msg})
		return fmt.Errorf("%w: %s", shared.ErrDeviceNotFound, msg)
	}

	pollCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	p.mu.Lock()
	p.deviceID = device.ID
	p.present = true
	p.cancel = cancel
	p.mu.Unlock()

	p.logger.Info("connected", "device", device.Name, "id", device.ID, "type", device.Type)
	p.emit(Event{Type: EventReady, DeviceID: device.ID})

	go p.poll(pollCtx)
	return nil
}

// Disconnect stops polling. It does not wait for an in-flight poll to finish.
func (p *ConnectPlayer) Disconnect() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel == nil {
		return
	}
	p.cancel()
	p.cancel = nil
	p.present = false
	p.logger.Debug("disconnected", "device", p.deviceID)
}

func (p *ConnectPlayer) Pause(ctx context.Context) error {
	return p.remote.Pause(ctx, p.DeviceID())
}

func (p *ConnectPlayer) Resume(ctx context.Context) error {
	return p.remote.Resume(ctx, p.DeviceID())
}

func (p *ConnectPlayer) Seek(ctx context.Context, positionMS int) error {
	return p.remote.Seek(ctx, p.DeviceID(), positionMS)
}

// SetVolume converts volume (0 to 1) to a percentage.
func (p *ConnectPlayer) SetVolume(ctx context.Context, volume float64) error {
	return p.remote.Volume(ctx, p.DeviceID(), int(math.Round(volume*100)))
}

func (p *ConnectPlayer) NextTrack(ctx context.Context) error {
	return p.remote.Next(ctx, p.DeviceID())
}

func (p *ConnectPlayer) PreviousTrack(ctx context.Context) error {
	return p.remote.Previous(ctx, p.DeviceID())
}

func (p *ConnectPlayer) poll(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// tick refreshes presence and state once.
func (p *ConnectPlayer) tick(ctx context.Context) {
	if p.token != nil {
		if _, err := p.token(ctx); err != nil {
			if ctx.Err() == nil {
				p.failure(err)
			}
			return
		}
	}

	id := p.DeviceID()

	rs, err := p.remote.PlayerState(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		if kind := eventFor(err); kind != EventInitializationError {
			p.failure(err)
			return
		}
		p.logger.Warn("failed to poll player state", "error", err)
		return
	}

	active := rs.HasDevice && rs.Device.ID == id
	present := active
	if !active {
		devices, err := p.remote.Devices(ctx)
		if err != nil {
			if ctx.Err() == nil {
				p.logger.Warn("failed to poll devices", "error", err)
			}
			return
		}
		for _, d := range devices {
			if d.ID == id {
				present = true
				break
			}
		}
	}

	if ctx.Err() != nil {
		return
	}

	p.setPresent(id, present)
	if active {
		p.setState(rs.State)
	}
}

func (p *ConnectPlayer) setPresent(id string, present bool) {
	p.mu.Lock()
	changed := p.present != present
	p.present = present
	p.mu.Unlock()

	if !changed {
		return
	}
	if present {
		p.logger.Info("device is back", "device", id)
		p.emit(Event{Type: EventReady, DeviceID: id})
		return
	}
	p.logger.Warn("device went away", "device", id)
	p.emit(Event{Type: EventNotReady, DeviceID: id})
}

func (p *ConnectPlayer) setState(state models.PlaybackState) {
	p.mu.Lock()
	changed := !sameState(p.last, state)
	p.last = state
	p.mu.Unlock()

	if changed {
		p.emit(Event{Type: EventStateChanged, State: state})
	}
}

// failure emits the event matching err and returns it.
func (p *ConnectPlayer) failure(err error) error {
	ev := Event{Type: eventFor(err), Message: err.Error()}
	if ev.Type == EventAccountError {
		ev.Message = shared.ErrPremiumRequired.Error()
	}
	p.logger.Error("player error", "event", ev.Type, "error", err)
	p.emit(ev)
	return err
}

func (p *ConnectPlayer) emit(ev Event) {
	send(p.events, ev, p.logger)
}

func eventFor(err error) EventType {
	if errors.Is(err, shared.ErrAuth) {
		return EventAuthenticationError
	}
	switch services.StatusCode(err) {
	case http.StatusUnauthorized:
		return EventAuthenticationError
	case http.StatusForbidden:
		return EventAccountError
	default:
		return EventInitializationError
	}
}

// selectDevice picks the device matching name (by name or ID), else the active device, else the
// first one. A name that matches nothing selects nothing.
func selectDevice(devices []models.RemoteDevice, name string) (models.RemoteDevice, bool) {
	if name != "" {
		for _, d := range devices {
			if d.ID == name || strings.EqualFold(d.Name, name) {
				return d, true
			}
		}
		return models.RemoteDevice{}, false
	}

	for _, d := range devices {
		if d.Active {
			return d, true
		}
	}
	if len(devices) > 0 {
		return devices[0], true
	}
	return models.RemoteDevice{}, false
}

func sameState(a, b models.PlaybackState) bool {
	if (a.CurrentTrack == nil) != (b.CurrentTrack == nil) {
		return false
	}
	if a.CurrentTrack != nil && a.CurrentTrack.URI != b.CurrentTrack.URI {
		return false
	}
	return a.IsPlaying == b.IsPlaying &&
		a.PositionMS == b.PositionMS &&
		a.Volume == b.Volume &&
		a.CurrentPlaylist == b.CurrentPlaylist
}
