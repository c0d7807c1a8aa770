package playback

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/playctl/internal/models"
	"github.com/desertthunder/playctl/internal/shared"
)

// DeviceAPI is the part of the Web API the registrar needs.
type DeviceAPI interface {
	Devices(ctx context.Context) ([]models.RemoteDevice, error)
	Transfer(ctx context.Context, deviceID string, play bool) error
}

// Registrar makes sure the local device is known to the service and is the active device before
// any playback command is sent.
type Registrar struct {
	mu     sync.Mutex
	device models.Device

	api    DeviceAPI
	logger *log.Logger
}

// NewRegistrar creates a [Registrar] with no device.
func NewRegistrar(api DeviceAPI, logger *log.Logger) *Registrar {
	return &Registrar{api: api, logger: shared.WithLogger(logger, "component", "registrar")}
}

// Device returns a copy of the tracked device.
func (r *Registrar) Device() models.Device {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.device
}

// SetReady records that the player reported readiness as deviceID.
func (r *Registrar) SetReady(deviceID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.device.ID != deviceID {
		r.device.Registered = false
	}
	r.device.ID = deviceID
	r.device.Ready = deviceID != ""
}

// MarkNotReady clears readiness. The device must signal ready again before playback resumes.
func (r *Registrar) MarkNotReady() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.device.Ready = false
	r.device.Registered = false
}

// Invalidate forgets that the device was registered, forcing the next call to re-assert it.
func (r *Registrar) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.device.Registered = false
}

// Reset forgets the device entirely.
func (r *Registrar) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.device = models.Device{}
}

func (r *Registrar) ready(deviceID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return deviceID != "" && r.device.ID == deviceID && r.device.Ready
}

// EnsureRegistered asserts deviceID as the active device.
//
// It returns false without touching the network when deviceID is empty or not ready. Otherwise it
// lists the account's devices and transfers playback to deviceID without starting it. The transfer
// is sent even when the device is already listed so that it becomes the active one. Listing or
// transfer failures return false with an [Error] of kind [KindRegistration] (or [KindAuth]); the
// caller decides whether to retry.
func (r *Registrar) EnsureRegistered(ctx context.Context, deviceID string) (bool, error) {
	if !r.ready(deviceID) {
		r.logger.Debug("device not ready for registration", "device", deviceID)
		return false, nil
	}

	devices, err := r.api.Devices(ctx)
	if err != nil {
		return false, registrationError(err)
	}

	listed := false
	for _, d := range devices {
		if d.ID == deviceID {
			listed = true
			break
		}
	}
	if listed {
		r.logger.Debug("device listed, re-asserting active status", "device", deviceID)
	} else {
		r.logger.Info("device missing from device list, registering", "device", deviceID)
	}

	if err := r.api.Transfer(ctx, deviceID, false); err != nil {
		return false, registrationError(err)
	}

	r.mu.Lock()
	if r.device.ID == deviceID {
		r.device.Registered = true
	}
	r.mu.Unlock()

	return true, nil
}

func registrationError(err error) *Error {
	pe := classify(err)
	if pe.Kind == KindAuth {
		return pe
	}
	return &Error{Kind: KindRegistration, Status: pe.Status, Err: err}
}
