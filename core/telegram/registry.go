package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/m3rciful/kinobot/core/logger"
	"github.com/m3rciful/kinobot/core/telegram/commands"
	tghelpers "github.com/m3rciful/kinobot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Registry maps slash commands, their text aliases and callback keys to
// handlers. Commands are registered during wiring; callbacks may be added
// at any time.
type Registry struct {
	commands map[string]commands.Command
	aliases  map[string]string

	mu        sync.RWMutex
	callbacks map[string]tele.HandlerFunc

	callbackNotFound tele.HandlerFunc
	textFallback     tele.HandlerFunc
}

func NewRegistry() *Registry {
	return &Registry{
		commands:  make(map[string]commands.Command),
		aliases:   make(map[string]string),
		callbacks: make(map[string]tele.HandlerFunc),
		callbackNotFound: func(c tele.Context) error {
			return tghelpers.Answer(c, "Unsupported action", false)
		},
	}
}

func wireWarn(event string, attrs ...slog.Attr) {
	logger.LogEvent(context.Background(), logger.TWire, slog.LevelWarn, event, attrs...)
}

// RegisterCommand adds a /command. Invalid or duplicate names are logged
// and rejected. Aliases are matched against plain message text, which lets
// reply keyboard buttons trigger the command.
func (r *Registry) RegisterCommand(name string, cmd commands.Command) error {
	switch {
	case !strings.HasPrefix(name, "/") || len(name) < 2:
		wireWarn("register.command.skip", slog.String("name", name), slog.String("reason", "no_slash_prefix"))
		return fmt.Errorf("command %q must start with /", name)
	case cmd.Handler == nil || cmd.Description == "":
		wireWarn("register.command.skip", slog.String("name", name), slog.String("reason", "invalid"))
		return fmt.Errorf("command %q needs a handler and a description", name)
	}
	if _, dup := r.commands[name]; dup {
		wireWarn("register.command.duplicate", slog.String("name", name))
		return fmt.Errorf("command %q already registered", name)
	}
	r.commands[name] = cmd
	for _, alias := range cmd.Aliases {
		key := aliasKey(alias)
		if owner, taken := r.aliases[key]; taken {
			wireWarn("register.alias.duplicate", slog.String("alias", alias), slog.String("owner", owner))
			continue
		}
		r.aliases[key] = name
	}
	return nil
}

func aliasKey(s string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "/"))
}

// LookupCommand resolves a command name (with or without the slash) or one
// of its aliases to the canonical command.
func (r *Registry) LookupCommand(name string) (string, commands.Command, bool) {
	key := "/" + strings.TrimPrefix(name, "/")
	if cmd, ok := r.commands[key]; ok {
		return key, cmd, true
	}
	if canonical, ok := r.aliases[aliasKey(name)]; ok {
		return canonical, r.commands[canonical], true
	}
	return "", commands.Command{}, false
}

// Commands returns the registered commands keyed by name.
func (r *Registry) Commands() map[string]commands.Command {
	return r.commands
}

// ListCommands returns the commands sorted by name. visibleOnly drops
// hidden and admin-only entries, which is what the Telegram menu shows.
func (r *Registry) ListCommands(visibleOnly bool) []tele.Command {
	list := make([]tele.Command, 0, len(r.commands))
	for name, cmd := range r.commands {
		if visibleOnly && !cmd.Listed() {
			continue
		}
		list = append(list, tele.Command{Text: name, Description: cmd.Description})
	}
	slices.SortFunc(list, func(a, b tele.Command) int { return strings.Compare(a.Text, b.Text) })
	return list
}

// RegisterCallback binds the unique key of an inline button.
func (r *Registry) RegisterCallback(key string, h tele.HandlerFunc) error {
	if key == "" || h == nil {
		wireWarn("register.callback.skip", slog.String("cb_key", key), slog.Bool("handler_nil", h == nil))
		return fmt.Errorf("callback %q: empty key or nil handler", key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.callbacks[key]; dup {
		wireWarn("register.callback.duplicate", slog.String("cb_key", key))
		return fmt.Errorf("callback already registered: %s", key)
	}
	r.callbacks[key] = h
	return nil
}

func (r *Registry) GetCallback(key string) (tele.HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.callbacks[key]
	return h, ok
}

// ListCallbacks returns the registered keys in order.
func (r *Registry) ListCallbacks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.callbacks))
	for k := range r.callbacks {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (r *Registry) SetCallbackNotFound(h tele.HandlerFunc) {
	if h != nil {
		r.callbackNotFound = h
	}
}

func (r *Registry) CallbackNotFound() tele.HandlerFunc { return r.callbackNotFound }

func (r *Registry) SetTextFallback(h tele.HandlerFunc) { r.textFallback = h }

func (r *Registry) TextFallback() tele.HandlerFunc { return r.textFallback }

// publishCommands uploads the visible commands to the Telegram menu.
func publishCommands(bot *tele.Bot, reg *Registry) {
	list := reg.ListCommands(true)
	if err := bot.SetCommands(list); err != nil {
		logger.LogEvent(context.Background(), logger.TWire, slog.LevelError, "register.commands.set_failed",
			slog.String("err", err.Error()))
		return
	}
	logger.LogEvent(context.Background(), logger.TWire, slog.LevelDebug, "register.commands.set",
		slog.Int("count", len(list)))
}
