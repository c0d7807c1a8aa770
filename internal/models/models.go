package models

import (
	"time"
)

// Model is a persisted entity with a generated ID and row timestamps.
type Model interface {
	ID() string
	CreatedAt() time.Time
	UpdatedAt() time.Time
	Validate() error // run before every insert and update
}

// Repository is the CRUD surface shared by the SQLite repositories. Get and List skip
// soft-deleted rows.
type Repository[T Model] interface {
	Create(model T) error
	Get(id string) (T, error)
	Update(model T) error
	Delete(id string) error
	List(criteria map[string]any) ([]T, error) // criteria keys are column names
}
