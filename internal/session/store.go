package session

import (
	"context"
	"errors"

	"imagedrop/api/internal/models"
)

var ErrNotFound = errors.New("session not found")

// Store holds active sessions keyed by their opaque ID. Implementations must
// treat expired sessions as absent on Get; background cleanup is a hygiene
// concern, not a correctness one.
type Store interface {
	Create(ctx context.Context, sess models.Session) error
	Get(ctx context.Context, id string) (models.Session, error)
	Delete(ctx context.Context, id string) error
}
