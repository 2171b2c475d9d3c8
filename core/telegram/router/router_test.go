package router

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tg "github.com/m3rciful/kinobot/core/telegram"
	"github.com/m3rciful/kinobot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

type stubContext struct {
	tele.Context
	update    tele.Update
	store     map[string]any
	responded int
}

func newMessage(text string, userID int64) *stubContext {
	return &stubContext{store: map[string]any{}, update: tele.Update{ID: 1, Message: &tele.Message{
		Text: text, Sender: &tele.User{ID: userID}, Chat: &tele.Chat{ID: userID, Type: tele.ChatPrivate},
	}}}
}

func newCallback(data string, userID int64) *stubContext {
	return &stubContext{store: map[string]any{}, update: tele.Update{ID: 2, Callback: &tele.Callback{
		Data: data, Sender: &tele.User{ID: userID},
	}}}
}

func (s *stubContext) Update() tele.Update                     { return s.update }
func (s *stubContext) Callback() *tele.Callback                { return s.update.Callback }
func (s *stubContext) Get(k string) any                        { return s.store[k] }
func (s *stubContext) Set(k string, v any)                     { s.store[k] = v }
func (s *stubContext) Respond(...*tele.CallbackResponse) error { s.responded++; return nil }
func (s *stubContext) Sender() *tele.User {
	if s.update.Callback != nil {
		return s.update.Callback.Sender
	}
	return s.update.Message.Sender
}
func (s *stubContext) Chat() *tele.Chat {
	if s.update.Message != nil {
		return s.update.Message.Chat
	}
	return nil
}
func (s *stubContext) Text() string {
	if s.update.Message != nil {
		return s.update.Message.Text
	}
	return ""
}

type fakeFSM struct {
	active  map[int64]bool
	handled int
}

func (f *fakeFSM) InProgress(id int64) bool          { return f.active[id] }
func (f *fakeFSM) ManagerHandler(tele.Context) error { f.handled++; return nil }

func textHandler(t *testing.T, routes []tg.Route) tele.HandlerFunc {
	t.Helper()
	for _, r := range routes {
		if r.Endpoint == tele.OnText {
			return r.Handler
		}
	}
	t.Fatal("no text route")
	return nil
}

func TestTextRoutesPrecedence(t *testing.T) {
	reg := tg.NewRegistry()
	var ran []string
	require.NoError(t, reg.RegisterCommand("/profile", commands.Command{
		Description: "profile", Aliases: []string{"Профиль"},
		Handler: func(tele.Context) error { ran = append(ran, "profile"); return nil },
	}))
	require.NoError(t, reg.RegisterCommand("/admin", commands.Command{
		Description: "admin", AdminOnly: true, Aliases: []string{"Админка"},
		Handler: func(tele.Context) error { ran = append(ran, "admin"); return nil },
	}))
	reg.SetTextFallback(func(tele.Context) error { ran = append(ran, "fallback"); return nil })

	fsm := &fakeFSM{active: map[int64]bool{9: true}}
	h := textHandler(t, TextRoutes(fsm, reg, TextOptions{}))

	require.NoError(t, h(newMessage("Профиль", 1)))
	require.NoError(t, h(newMessage("что-то", 1)))
	require.NoError(t, h(newMessage("Админка", 1)))
	require.NoError(t, h(newMessage("Профиль", 9)))

	assert.Equal(t, []string{"profile", "fallback"}, ran)
	assert.Equal(t, 1, fsm.handled)
}

func TestCallbackRoute(t *testing.T) {
	reg := tg.NewRegistry()
	var got string
	require.NoError(t, reg.RegisterCallback("film", func(c tele.Context) error {
		got = c.Callback().Data
		return nil
	}))
	notFound := 0
	reg.SetCallbackNotFound(func(tele.Context) error { notFound++; return nil })
	route := CallbackRoute(reg, CallbackOptions{})

	c := newCallback("\ffilm|kp:301", 1)
	require.NoError(t, route.Handler(c))
	assert.NotEmpty(t, got)
	assert.Equal(t, 1, c.responded)

	require.NoError(t, route.Handler(newCallback("\fmissing", 1)))
	assert.Equal(t, 1, notFound)
}

type codedErr struct{}

func (codedErr) Error() string { return "coded" }
func (codedErr) Code() string  { return "not found" }

type plainErr struct{}

func (*plainErr) Error() string { return "plain" }

func TestHandlerNameAndErrorCode(t *testing.T) {
	assert.Equal(t, "update_profile", handlerName("/update_profile"))
	assert.Equal(t, "мой_профиль", handlerName("  Мой Профиль "))
	assert.Equal(t, "unknown", handlerName(""))

	assert.Equal(t, "NOT_FOUND", errorCode(fmt.Errorf("wrap: %w", codedErr{})))
	assert.Equal(t, "PLAINERR", errorCode(fmt.Errorf("wrap: %w", &plainErr{})))
	assert.Equal(t, "ERRORSTRING", errorCode(errors.New("x")))
}
