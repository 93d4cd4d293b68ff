package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Session is a stored workflow record
type Session struct {
	ID        uuid.UUID `json:"id"`
	Record    Record    `json:"record"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists sessions. Get returns a NOT_FOUND error for unknown ids and
// always hands out a copy the caller may mutate freely.
type Store interface {
	Create(ctx context.Context) (*Session, error)
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
	Save(ctx context.Context, session *Session) error
	Delete(ctx context.Context, id uuid.UUID) error

	// Expire deletes sessions not updated since before and returns how many
	// were removed
	Expire(ctx context.Context, before time.Time) (int, error)
}
