package state

import (
	"context"
	"errors"
	"time"
)

// State identifies a finite-state-machine step used in conversations.
type State string

const (
	// StateIdle indicates there is no active conversation with the user.
	StateIdle State = "idle"
)

// ErrNoSender is returned when an update carries no sender to key the session by.
var ErrNoSender = errors.New("state: update has no sender")

// Session stores conversation state and temporary data for a user.
type Session struct {
	State     State             `json:"state"`
	Data      map[string]string `json:"data,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func newSession() *Session {
	return &Session{State: StateIdle, Data: make(map[string]string)}
}

func (s *Session) clone() *Session {
	out := &Session{State: s.State, UpdatedAt: s.UpdatedAt, Data: make(map[string]string, len(s.Data))}
	for k, v := range s.Data {
		out.Data[k] = v
	}
	return out
}

// Store persists sessions keyed by Telegram user id.
type Store interface {
	// Load returns the stored session; found is false when none exists.
	Load(ctx context.Context, userID int64) (sess *Session, found bool, err error)
	Save(ctx context.Context, userID int64, sess *Session) error
	Delete(ctx context.Context, userID int64) error
}
