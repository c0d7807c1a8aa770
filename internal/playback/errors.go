package playback

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/playctl/internal/services"
	"github.com/desertthunder/playctl/internal/shared"
)

// Kind classifies a playback failure.
type Kind int

const (
	KindAuth         Kind = iota // token exchange or refresh failed; terminal
	KindRegistration             // device could not be listed or activated; retried
	KindNotFound                 // 404 on play, the device vanished; retried after re-registration
	KindForbidden                // 403 on play; terminal
	KindPlayback                 // any other failure; terminal
	KindResolution               // no playable URI could be derived; terminal, no network call
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindRegistration:
		return "registration"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindPlayback:
		return "playback"
	case KindResolution:
		return "resolution"
	default:
		return "unknown"
	}
}

// Error is a classified playback failure. Its message is the user-visible text stored in
// [models.PlaybackState].Error, and it matches the corresponding shared sentinel with [errors.Is].
type Error struct {
	Kind   Kind
	Status int   // HTTP status, when the failure came from a response
	Err    error // underlying cause, may be nil
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindPlayback:
		if e.Status != 0 {
			return fmt.Sprintf("%v: status %d", shared.ErrPlayback, e.Status)
		}
		if e.Err != nil {
			return fmt.Sprintf("%v: %v", shared.ErrPlayback, e.Err)
		}
	case KindAuth:
		if e.Err != nil {
			return e.Err.Error()
		}
	}
	return e.sentinel().Error()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.sentinel()}
	}
	return []error{e.sentinel(), e.Err}
}

// Retryable reports whether the controller retries this failure.
func (e *Error) Retryable() bool {
	return e.Kind == KindRegistration || e.Kind == KindNotFound
}

func (e *Error) sentinel() error {
	switch e.Kind {
	case KindAuth:
		return shared.ErrAuth
	case KindRegistration:
		return shared.ErrRegistration
	case KindNotFound:
		return shared.ErrDeviceNotFound
	case KindForbidden:
		return shared.ErrPremiumRequired
	case KindResolution:
		return shared.ErrUnresolvable
	default:
		return shared.ErrPlayback
	}
}

// classify maps an error from the Web API onto a [Kind].
func classify(err error) *Error {
	if err == nil {
		return nil
	}

	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}
	if errors.Is(err, shared.ErrAuth) {
		return &Error{Kind: KindAuth, Err: err}
	}

	switch status := services.StatusCode(err); status {
	case http.StatusUnauthorized:
		return &Error{Kind: KindAuth, Status: status, Err: err}
	case http.StatusNotFound:
		return &Error{Kind: KindNotFound, Status: status, Err: err}
	case http.StatusForbidden:
		return &Error{Kind: KindForbidden, Status: status, Err: err}
	default:
		return &Error{Kind: KindPlayback, Status: status, Err: err}
	}
}
