package shared

import "fmt"

var (
	// Configuration errors
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuth             = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrRefreshFailed    = fmt.Errorf("token refresh failed")
	ErrNoRefreshToken   = fmt.Errorf("no refresh token available")
	ErrStateMismatch    = fmt.Errorf("state parameter mismatch")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// Device and playback errors
	ErrRegistration    = fmt.Errorf("device registration failed")
	ErrDeviceNotFound  = fmt.Errorf("device not found")
	ErrPremiumRequired = fmt.Errorf("premium account required")
	ErrPlayback        = fmt.Errorf("playback error")
	ErrUnresolvable    = fmt.Errorf("cannot resolve playable reference")
	ErrPlayerNotReady  = fmt.Errorf("player not ready")
	ErrQueued          = fmt.Errorf("player not ready, request queued")

	// API and service errors
	ErrAPIRequest = fmt.Errorf("API request failed")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
