package state

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tele "gopkg.in/telebot.v4"
)

const (
	stateName State = "reg.name"
	stateAge  State = "reg.age"
)

// userContext is the slice of tele.Context the machine touches.
type userContext struct {
	tele.Context
	user  *tele.User
	store map[string]any
}

func newUserContext(id int64) *userContext {
	return &userContext{user: &tele.User{ID: id}, store: map[string]any{}}
}

func (c *userContext) Sender() *tele.User {
	return c.user
}
func (c *userContext) Chat() *tele.Chat {
	if c.user == nil {
		return nil
	}
	return &tele.Chat{ID: c.user.ID}
}
func (c *userContext) Update() tele.Update { return tele.Update{ID: 1} }
func (c *userContext) Get(k string) any    { return c.store[k] }
func (c *userContext) Set(k string, v any) { c.store[k] = v }

func TestMachineTransitionMergesData(t *testing.T) {
	ctx := context.Background()
	m := NewMachine(nil)

	assert.Equal(t, StateIdle, m.State(ctx, 1))
	assert.False(t, m.InProgress(1))

	require.NoError(t, m.Transition(ctx, 1, stateName, map[string]string{"name": "Анна"}))
	require.NoError(t, m.Transition(ctx, 1, stateAge, map[string]string{"age": "30"}))
	require.NoError(t, m.SetState(ctx, 1, stateAge))

	sess, err := m.Session(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, stateAge, sess.State)
	assert.Equal(t, map[string]string{"name": "Анна", "age": "30"}, sess.Data)
	assert.True(t, m.InProgress(1))

	v, ok := m.Value(ctx, 1, "name")
	assert.True(t, ok)
	assert.Equal(t, "Анна", v)
	_, ok = m.Value(ctx, 1, "sex")
	assert.False(t, ok)

	require.NoError(t, m.Clear(ctx, 1))
	assert.Equal(t, StateIdle, m.State(ctx, 1))
	_, ok = m.Value(ctx, 1, "name")
	assert.False(t, ok)
}

func TestMachineUsersAreIsolated(t *testing.T) {
	ctx := context.Background()
	m := NewMachine(NewMemoryStore())
	require.NoError(t, m.SetState(ctx, 1, stateName))
	assert.Equal(t, StateIdle, m.State(ctx, 2))
}

func TestManagerHandler(t *testing.T) {
	ctx := context.Background()
	m := NewMachine(nil)
	var served []int64
	m.Handle(stateName, func(c tele.Context) error {
		served = append(served, c.Sender().ID)
		return nil
	})
	m.Handle(StateIdle, func(tele.Context) error {
		t.Fatal("idle must not get a handler")
		return nil
	})

	tests := []struct {
		name      string
		userID    int64
		state     State
		wantServe bool
		wantState State
	}{
		{name: "bound state", userID: 1, state: stateName, wantServe: true, wantState: stateName},
		{name: "orphan state is reset", userID: 2, state: stateAge, wantState: StateIdle},
		{name: "idle passes through", userID: 3, state: StateIdle, wantState: StateIdle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			served = nil
			if tt.state != StateIdle {
				require.NoError(t, m.SetState(ctx, tt.userID, tt.state))
			}
			require.NoError(t, m.ManagerHandler(newUserContext(tt.userID)))
			assert.Equal(t, tt.wantServe, len(served) == 1)
			assert.Equal(t, tt.wantState, m.State(ctx, tt.userID))
		})
	}

	c := newUserContext(0)
	c.user = nil
	assert.ErrorIs(t, m.ManagerHandler(c), ErrNoSender)
}

type failingStore struct{ err error }

func (f failingStore) Load(context.Context, int64) (*Session, bool, error) { return nil, false, f.err }
func (f failingStore) Save(context.Context, int64, *Session) error         { return f.err }
func (f failingStore) Delete(context.Context, int64) error                 { return f.err }

func TestMachineStoreErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("store down")
	m := NewMachine(failingStore{err: boom})

	assert.Equal(t, StateIdle, m.State(ctx, 1))
	assert.ErrorIs(t, m.SetState(ctx, 1, stateName), boom)
	assert.ErrorIs(t, m.Clear(ctx, 1), boom)
	_, ok := m.Value(ctx, 1, "name")
	assert.False(t, ok)
}

func TestMemoryStoreCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	orig := &Session{State: stateName, Data: map[string]string{"name": "Анна"}}
	require.NoError(t, s.Save(ctx, 1, orig))

	orig.Data["name"] = "changed after save"
	got, found, err := s.Load(ctx, 1)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Анна", got.Data["name"])

	got.Data["name"] = "changed after load"
	again, _, _ := s.Load(ctx, 1)
	assert.Equal(t, "Анна", again.Data["name"])

	require.NoError(t, s.Save(ctx, 2, nil))
	_, found, _ = s.Load(ctx, 2)
	assert.False(t, found)
}

func TestMemoryStoreSweep(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Save(ctx, 1, newSession()))
	now = now.Add(90 * time.Minute)
	require.NoError(t, s.Save(ctx, 2, newSession()))
	now = now.Add(time.Hour)

	assert.Zero(t, s.Sweep(0))
	assert.Equal(t, 1, s.Sweep(2*time.Hour))
	_, found, _ := s.Load(ctx, 1)
	assert.False(t, found)
	_, found, _ = s.Load(ctx, 2)
	assert.True(t, found)
	assert.Zero(t, s.Sweep(2*time.Hour))
}

// fakeRedis implements the three commands RedisStore issues.
type fakeRedis struct {
	redis.UniversalClient
	values map[string]string
	ttls   map[string]time.Duration
	err    error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	f.values[key] = string(value.([]byte))
	f.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	for _, k := range keys {
		delete(f.values, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	s := NewRedisStore(rdb, "kinobot:fsm:", time.Hour)

	_, found, err := s.Load(ctx, 42)
	require.NoError(t, err, "redis.Nil means no session")
	assert.False(t, found)

	require.NoError(t, s.Save(ctx, 42, &Session{State: stateAge, Data: map[string]string{"name": "Анна"}}))
	require.Contains(t, rdb.values, "kinobot:fsm:42")
	assert.Equal(t, time.Hour, rdb.ttls["kinobot:fsm:42"])

	var raw Session
	require.NoError(t, json.Unmarshal([]byte(rdb.values["kinobot:fsm:42"]), &raw))
	assert.False(t, raw.UpdatedAt.IsZero())

	got, found, err := s.Load(ctx, 42)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, stateAge, got.State)
	assert.Equal(t, "Анна", got.Data["name"])

	require.NoError(t, s.Delete(ctx, 42))
	_, found, err = s.Load(ctx, 42)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisStoreErrors(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	s := NewRedisStore(rdb, "", 0)

	rdb.values["fsm:1"] = "{not json"
	_, _, err := s.Load(ctx, 1)
	assert.ErrorContains(t, err, "decode session")

	rdb.values["fsm:2"] = `{"state":"reg.name"}`
	got, found, err := s.Load(ctx, 2)
	require.NoError(t, err)
	assert.True(t, found)
	assert.NotNil(t, got.Data)

	rdb.err = errors.New("connection refused")
	_, _, err = s.Load(ctx, 1)
	assert.ErrorIs(t, err, rdb.err)
	assert.ErrorIs(t, s.Save(ctx, 1, newSession()), rdb.err)
	assert.ErrorIs(t, s.Delete(ctx, 1), rdb.err)

	m := NewMachine(s)
	assert.Equal(t, StateIdle, m.State(ctx, 1))
}
