package state

import (
	"context"
	"fmt"
	"sync"

	"github.com/m3rciful/kinobot/core/logger"
	tghelpers "github.com/m3rciful/kinobot/core/telegram/helpers"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// Machine routes text updates to the handler bound to the user's current state.
type Machine struct {
	store Store

	mu       sync.RWMutex
	handlers map[State]tele.HandlerFunc
}

// NewMachine builds a Machine on top of store. A nil store selects NewMemoryStore.
func NewMachine(store Store) *Machine {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Machine{
		store:    store,
		handlers: make(map[State]tele.HandlerFunc),
	}
}

// Handle associates a state with its handler.
func (m *Machine) Handle(st State, h tele.HandlerFunc) {
	if h == nil || st == StateIdle {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[st] = h
}

func (m *Machine) handler(st State) (tele.HandlerFunc, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.handlers[st]
	return h, ok
}

func (m *Machine) load(ctx context.Context, userID int64) (*Session, error) {
	sess, found, err := m.store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !found || sess == nil {
		return newSession(), nil
	}
	if sess.Data == nil {
		sess.Data = make(map[string]string)
	}
	return sess, nil
}

// Session returns the user's session, or a fresh idle one.
func (m *Machine) Session(ctx context.Context, userID int64) (*Session, error) {
	return m.load(ctx, userID)
}

// State returns the current FSM state of a user, or StateIdle if none exists
// or the store is unavailable.
func (m *Machine) State(ctx context.Context, userID int64) State {
	sess, err := m.load(ctx, userID)
	if err != nil {
		logger.Warn(ctx, "tg.fsm", "fsm.load",
			slog.String("status", "fail"),
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		return StateIdle
	}
	return sess.State
}

// Transition moves the user to st and merges data into the session.
func (m *Machine) Transition(ctx context.Context, userID int64, st State, data map[string]string) error {
	sess, err := m.load(ctx, userID)
	if err != nil {
		return fmt.Errorf("fsm transition: %w", err)
	}
	from := sess.State
	sess.State = st
	for k, v := range data {
		sess.Data[k] = v
	}
	if err := m.store.Save(ctx, userID, sess); err != nil {
		return fmt.Errorf("fsm transition: %w", err)
	}
	logger.Debug(ctx, "tg.fsm", "fsm.transition",
		slog.Int64("user_id", userID),
		slog.String("from", string(from)),
		slog.String("state", string(st)),
	)
	return nil
}

// SetState sets the FSM state for the given user keeping session data.
func (m *Machine) SetState(ctx context.Context, userID int64, st State) error {
	return m.Transition(ctx, userID, st, nil)
}

// Value reads a temporary value stored in the user's session.
func (m *Machine) Value(ctx context.Context, userID int64, key string) (string, bool) {
	sess, err := m.load(ctx, userID)
	if err != nil {
		return "", false
	}
	v, ok := sess.Data[key]
	return v, ok
}

// Clear removes the entire session for a user.
func (m *Machine) Clear(ctx context.Context, userID int64) error {
	if err := m.store.Delete(ctx, userID); err != nil {
		return fmt.Errorf("fsm clear: %w", err)
	}
	return nil
}

// InProgress reports whether the user currently has an active FSM state.
func (m *Machine) InProgress(userID int64) bool {
	return m.State(context.Background(), userID) != StateIdle
}

// ManagerHandler executes the handler registered for the user's current state, if any.
// A state without a handler is treated as stale and reset.
func (m *Machine) ManagerHandler(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return ErrNoSender
	}
	ctx := tghelpers.BuildContext(c)
	current := m.State(ctx, sender.ID)
	logger.Debug(ctx, "tg", "fsm.manager",
		slog.String("status", "ok"),
		slog.Int64("user_id", sender.ID),
		slog.String("state", string(current)),
	)

	if handler, ok := m.handler(current); ok {
		return handler(c)
	}
	if current != StateIdle {
		logger.Warn(ctx, "tg", "fsm.orphan",
			slog.String("status", "skip"),
			slog.Int64("user_id", sender.ID),
			slog.String("state", string(current)),
		)
		return m.Clear(ctx, sender.ID)
	}
	return nil
}
