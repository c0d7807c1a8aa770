package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/playctl/internal/models"
	"github.com/desertthunder/playctl/internal/shared"
)

const sessionColumns = `id, user_id, display_name, access_token, refresh_token, issued_at, created_at, updated_at, deleted_at`

// SessionRepository implements [models.Repository] for [models.Session] persistence.
//
// It also satisfies the auth store's token persister: the most recently updated live session
// holds the current token.
type SessionRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.Session] = (*SessionRepository)(nil)

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new session into the database with a generated ID
func (r *SessionRepository) Create(session *models.Session) error {
	session.SetID(shared.GenerateID())

	if err := session.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	token := session.Token()
	query := `
		INSERT INTO sessions (id, user_id, display_name, access_token, refresh_token, issued_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query, session.ID(), session.UserID(), session.DisplayName(),
		token.AccessToken, token.RefreshToken, token.IssuedAt, session.CreatedAt(), session.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	return nil
}

// Get retrieves a session by ID, excluding soft-deleted sessions
func (r *SessionRepository) Get(id string) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = ? AND deleted_at IS NULL`

	session, err := scanSession(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	return session, nil
}

// Update modifies an existing session in the database
func (r *SessionRepository) Update(session *models.Session) error {
	if err := session.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	session.SetUpdatedAt(now)
	token := session.Token()

	query := `
		UPDATE sessions
		SET user_id = ?, display_name = ?, access_token = ?, refresh_token = ?, issued_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, session.UserID(), session.DisplayName(),
		token.AccessToken, token.RefreshToken, token.IssuedAt, now, session.ID())
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	return rowsAffected(result, "session", session.ID())
}

// Delete soft-deletes a session by ID
func (r *SessionRepository) Delete(id string) error {
	query := `UPDATE sessions SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return rowsAffected(result, "session", id)
}

// List retrieves all live sessions matching the given criteria, newest first.
//
// Supported criteria: "user_id" (string).
func (r *SessionRepository) List(criteria map[string]any) ([]*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE deleted_at IS NULL`
	args := []any{}

	if userID, ok := criteria["user_id"].(string); ok && userID != "" {
		query += " AND user_id = ?"
		args = append(args, userID)
	}

	query += " ORDER BY updated_at DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return sessions, nil
}

// Current returns the most recently updated live session, or nil when there is none.
func (r *SessionRepository) Current() (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE deleted_at IS NULL ORDER BY updated_at DESC LIMIT 1`

	session, err := scanSession(r.db.QueryRow(query))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query current session: %w", err)
	}
	return session, nil
}

// SaveToken stores token on the current session, creating one when none exists.
func (r *SessionRepository) SaveToken(token models.Token) error {
	session, err := r.Current()
	if err != nil {
		return err
	}

	if session == nil {
		return r.Create(models.NewSession(token))
	}

	session.SetToken(token)
	return r.Update(session)
}

// LoadToken returns the current session's token, or a zero token when nobody is logged in.
func (r *SessionRepository) LoadToken() (models.Token, error) {
	session, err := r.Current()
	if err != nil || session == nil {
		return models.Token{}, err
	}
	return session.Token(), nil
}

// ClearToken soft-deletes every live session.
func (r *SessionRepository) ClearToken() error {
	if _, err := r.db.Exec(`UPDATE sessions SET deleted_at = ? WHERE deleted_at IS NULL`, time.Now()); err != nil {
		return fmt.Errorf("failed to clear sessions: %w", err)
	}
	return nil
}

// SetUser records the account the current session belongs to.
func (r *SessionRepository) SetUser(user models.User) error {
	session, err := r.Current()
	if err != nil {
		return err
	}
	if session == nil {
		return fmt.Errorf("%w: no stored session", shared.ErrNotAuthenticated)
	}

	session.SetUser(user.ID, user.DisplayName)
	return r.Update(session)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.Session, error) {
	var (
		id           string
		userID       string
		displayName  string
		accessToken  string
		refreshToken string
		issuedAt     time.Time
		createdAt    time.Time
		updatedAt    time.Time
		deletedAt    sql.NullTime
	)

	err := row.Scan(&id, &userID, &displayName, &accessToken, &refreshToken, &issuedAt, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	session := models.NewSession(models.Token{AccessToken: accessToken, RefreshToken: refreshToken, IssuedAt: issuedAt})
	session.SetID(id)
	session.SetUser(userID, displayName)
	session.SetCreatedAt(createdAt)
	session.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		session.SetDeletedAt(&deletedAt.Time)
	}

	return session, nil
}
