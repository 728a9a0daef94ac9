// Package drafts keeps unsaved wizard state on local storage. Edits are
// written a fixed delay after the last change and recovered only while fresh.
package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("draft not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrClosed       = errors.New("autosaver closed")
)

const maxKeyLength = 128

// Draft is one locally saved payload.
type Draft struct {
	OwnerID string          `json:"-"`
	Key     string          `json:"key"`
	Payload json.RawMessage `json:"payload"`
	SavedAt time.Time       `json:"saved_at"`
}

// Store persists drafts keyed by owner and key.
type Store interface {
	Put(ctx context.Context, d Draft) error
	Get(ctx context.Context, ownerID, key string) (Draft, error)
	Delete(ctx context.Context, ownerID, key string) error
}
