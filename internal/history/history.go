package history

import (
	"context"
	"errors"
	"fmt"
)

// Role identifies the author of a turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Turn is one message in a conversation.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// System, User and Assistant build turns of the matching role.
func System(content string) Turn    { return Turn{Role: RoleSystem, Content: content} }
func User(content string) Turn      { return Turn{Role: RoleUser, Content: content} }
func Assistant(content string) Turn { return Turn{Role: RoleAssistant, Content: content} }

var (
	ErrEmptySessionID = errors.New("session id required")
	ErrInvalidRole    = errors.New("invalid turn role")
)

// Store keeps the ordered turn history of each session. Sessions are created
// lazily on first reference and live until Clear is called or the backing
// store evicts them.
type Store interface {
	// GetOrCreate returns a copy of the session's turns in chronological
	// order. An unseen session yields an empty history.
	GetOrCreate(ctx context.Context, sessionID string) ([]Turn, error)

	// Append adds turns to the end of the session's history, in order.
	Append(ctx context.Context, sessionID string, turns ...Turn) error

	// Clear drops the session's history.
	Clear(ctx context.Context, sessionID string) error

	// Close releases any connection held by the store.
	Close() error
}

func validate(sessionID string, turns []Turn) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}
	for _, t := range turns {
		if !t.Role.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidRole, t.Role)
		}
	}
	return nil
}
