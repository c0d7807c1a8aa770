package models

import "time"

// Token is the credential pair used to authorize Web API calls.
//
// AccessToken is empty iff the session is unauthenticated.
type Token struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	IssuedAt     time.Time `json:"issued_at"`
}

// IsZero reports whether the token carries no access token.
func (t Token) IsZero() bool {
	return t.AccessToken == ""
}

// Age returns how long ago the token was issued relative to now.
func (t Token) Age(now time.Time) time.Duration {
	if t.IssuedAt.IsZero() {
		return now.Sub(time.Time{})
	}
	return now.Sub(t.IssuedAt)
}
