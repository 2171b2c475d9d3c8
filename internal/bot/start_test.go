package bot

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/kinobot/core/telegram/state"
	"github.com/m3rciful/kinobot/internal/config"
	"github.com/m3rciful/kinobot/internal/models"
	"github.com/m3rciful/kinobot/internal/repository"
	"github.com/m3rciful/kinobot/internal/service"

	tele "gopkg.in/telebot.v4"
)

// chatContext is a private chat update carrying one text message.
type chatContext struct {
	tele.Context
	msg   *tele.Message
	store map[string]any
	sent  *[]string
}

func (c *chatContext) Update() tele.Update      { return tele.Update{ID: c.msg.ID, Message: c.msg} }
func (c *chatContext) Message() *tele.Message   { return c.msg }
func (c *chatContext) Sender() *tele.User       { return c.msg.Sender }
func (c *chatContext) Chat() *tele.Chat         { return c.msg.Chat }
func (c *chatContext) Text() string             { return c.msg.Text }
func (c *chatContext) Callback() *tele.Callback { return nil }
func (c *chatContext) Get(k string) any         { return c.store[k] }
func (c *chatContext) Set(k string, v any)      { c.store[k] = v }
func (c *chatContext) Send(what any, _ ...any) error {
	if s, ok := what.(string); ok {
		*c.sent = append(*c.sent, s)
	}
	return nil
}

type userRows struct {
	mu   sync.Mutex
	rows map[int64]*models.User
}

func (u *userRows) Create(_ context.Context, user *models.User) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	user.ID = int64(len(u.rows) + 1)
	user.IsActive = true
	u.rows[user.TelegramID] = user
	return nil
}

func (u *userRows) GetByTelegramID(_ context.Context, id int64) (*models.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if user, ok := u.rows[id]; ok {
		return user, nil
	}
	return nil, repository.ErrNotFound
}

func (u *userRows) Update(context.Context, *models.User) error   { return nil }
func (u *userRows) SetActive(context.Context, int64, bool) error { return nil }

func (u *userRows) count() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.rows)
}

func newRegistrationApp(t *testing.T) (*App, *userRows) {
	t.Helper()
	rows := &userRows{rows: map[int64]*models.User{}}
	a, err := New(Deps{
		Config:     &config.Config{},
		Users:      service.NewUserService(rows),
		Movies:     service.NewMovieService(nil, service.MovieStores{}, 0),
		Stats:      service.NewStatsService(nil, nil),
		Recipients: noRecipients{},
	})
	require.NoError(t, err)
	_, err = a.Registry()
	require.NoError(t, err)
	return a, rows
}

func TestRegistrationConversation(t *testing.T) {
	const userID = 501
	a, rows := newRegistrationApp(t)
	ctx := context.Background()
	var sent []string
	update := 0
	say := func(text string) tele.Context {
		update++
		return &chatContext{
			msg: &tele.Message{
				ID:     update,
				Text:   text,
				Sender: &tele.User{ID: userID, Username: "anna"},
				Chat:   &tele.Chat{ID: userID, Type: tele.ChatPrivate},
			},
			store: map[string]any{},
			sent:  &sent,
		}
	}

	require.NoError(t, a.handleStart(say("/start")))
	require.Equal(t, StateRegName, a.fsm.State(ctx, userID))

	steps := []struct {
		input     string
		wantState state.State
		wantReply string
	}{
		{input: "  ", wantState: StateRegName, wantReply: msgBadName},
		{input: "Анна", wantState: StateRegAge, wantReply: msgAskAge},
		{input: "abc", wantState: StateRegAge, wantReply: msgAgeNotNumber},
		{input: "200", wantState: StateRegAge, wantReply: msgBadAge},
		{input: "-1", wantState: StateRegAge, wantReply: msgBadAge},
		{input: "30", wantState: StateRegSex, wantReply: msgAskSex},
		{input: "кот", wantState: StateRegSex, wantReply: msgBadSex},
	}
	for _, step := range steps {
		sent = nil
		require.NoError(t, a.fsm.ManagerHandler(say(step.input)), step.input)
		assert.Equal(t, step.wantState, a.fsm.State(ctx, userID), step.input)
		assert.Equal(t, []string{step.wantReply}, sent, step.input)
		assert.Zero(t, rows.count(), "no user row before the last step (input %q)", step.input)
	}

	sent = nil
	require.NoError(t, a.fsm.ManagerHandler(say("Женский")))
	assert.Equal(t, state.StateIdle, a.fsm.State(ctx, userID))
	require.Equal(t, 1, rows.count())

	u := rows.rows[userID]
	assert.Equal(t, "Анна", u.FirstName)
	require.NotNil(t, u.Age)
	assert.Equal(t, 30, *u.Age)
	require.NotNil(t, u.Sex)
	assert.Equal(t, models.SexFemale, *u.Sex)
	assert.Equal(t, []string{welcomeText("Анна")}, sent)

	sent = nil
	require.NoError(t, a.handleStart(say("/start")))
	assert.Equal(t, []string{msgAlreadyRegistered}, sent)
	assert.Equal(t, state.StateIdle, a.fsm.State(ctx, userID))
}

func TestRegistrationCanBeCanceled(t *testing.T) {
	a, rows := newRegistrationApp(t)
	ctx := context.Background()
	var sent []string
	c := func(text string) tele.Context {
		return &chatContext{
			msg: &tele.Message{
				Text:   text,
				Sender: &tele.User{ID: 7},
				Chat:   &tele.Chat{ID: 7, Type: tele.ChatPrivate},
			},
			store: map[string]any{},
			sent:  &sent,
		}
	}

	require.NoError(t, a.handleStart(c("/start")))
	require.NoError(t, a.fsm.ManagerHandler(c("Анна")))
	require.NoError(t, a.fsm.ManagerHandler(c(btnCancel)))

	assert.Equal(t, state.StateIdle, a.fsm.State(ctx, 7))
	assert.Zero(t, rows.count())
	assert.Equal(t, msgCanceled, sent[len(sent)-1])
}
