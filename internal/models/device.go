package models

// Device is the local playback endpoint as seen by the registrar.
//
// Ready flips to true only when the external player signals readiness. Registered records that
// the last registration assertion against the remote service succeeded.
type Device struct {
	ID         string `json:"id"`
	Ready      bool   `json:"ready"`
	Registered bool   `json:"registered"`
}

// RemoteDevice is one entry of the remote service's device list.
type RemoteDevice struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Active     bool   `json:"is_active"`
	Restricted bool   `json:"is_restricted"`
	Volume     int    `json:"volume_percent"`
}
