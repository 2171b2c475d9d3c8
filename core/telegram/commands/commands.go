// Package commands describes the slash commands kept in the registry.
package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command is a slash command and the way it is exposed to users.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// AdminOnly commands are rejected for users outside telegram.admin_ids.
	AdminOnly bool
	// Hidden commands work but are left out of the Telegram menu.
	Hidden bool
	// Aliases are plain texts, usually reply keyboard labels, that run the command.
	Aliases []string
}

// Listed reports whether the command belongs in the public menu.
func (c Command) Listed() bool {
	return !c.Hidden && !c.AdminOnly
}
