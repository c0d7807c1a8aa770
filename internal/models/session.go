package models

import (
	"fmt"
	"time"
)

// Session is a persisted login: the account it belongs to and its current [Token].
type Session struct {
	id          string
	userID      string
	displayName string
	token       Token
	createdAt   time.Time
	updatedAt   time.Time
	deletedAt   *time.Time
}

// NewSession creates a session for token with creation timestamps set to now.
func NewSession(token Token) *Session {
	now := time.Now()
	return &Session{token: token, createdAt: now, updatedAt: now}
}

func (s *Session) ID() string            { return s.id }
func (s *Session) UserID() string        { return s.userID }
func (s *Session) DisplayName() string   { return s.displayName }
func (s *Session) Token() Token          { return s.token }
func (s *Session) CreatedAt() time.Time  { return s.createdAt }
func (s *Session) UpdatedAt() time.Time  { return s.updatedAt }
func (s *Session) DeletedAt() *time.Time { return s.deletedAt }

func (s *Session) SetID(id string)                { s.id = id }
func (s *Session) SetToken(token Token)           { s.token = token }
func (s *Session) SetCreatedAt(t time.Time)       { s.createdAt = t }
func (s *Session) SetUpdatedAt(t time.Time)       { s.updatedAt = t }
func (s *Session) SetDeletedAt(t *time.Time)      { s.deletedAt = t }
func (s *Session) SetUser(id, displayName string) { s.userID, s.displayName = id, displayName }

// Validate checks that the session has an identifier and an access token.
func (s *Session) Validate() error {
	if s.id == "" {
		return fmt.Errorf("session id is required")
	}
	if s.token.AccessToken == "" {
		return fmt.Errorf("session access token is required")
	}
	return nil
}
