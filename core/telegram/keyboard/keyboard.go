// Package keyboard builds reply and inline markups.
package keyboard

import tele "gopkg.in/telebot.v4"

// Button is an inline button routed to the callback registered under Unique.
type Button struct {
	Text   string
	Unique string
	Data   string
}

// ForceReply asks the client to open a reply to the bot message.
func ForceReply() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{ForceReply: true}
}

// Remove hides a previously sent reply keyboard.
func Remove() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{RemoveKeyboard: true}
}

// Reply builds a resized reply keyboard, one slice of labels per row.
func Reply(rows ...[]string) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{ResizeKeyboard: true}
	out := make([]tele.Row, 0, len(rows))
	for _, labels := range rows {
		row := make(tele.Row, 0, len(labels))
		for _, l := range labels {
			row = append(row, m.Text(l))
		}
		out = append(out, row)
	}
	m.Reply(out...)
	return m
}

// Inline builds an inline keyboard from explicit rows.
func Inline(rows ...[]Button) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	m.InlineKeyboard = make([][]tele.InlineButton, 0, len(rows))
	for _, row := range rows {
		line := make([]tele.InlineButton, 0, len(row))
		for _, b := range row {
			line = append(line, *m.Data(b.Text, b.Unique, b.Data).Inline())
		}
		m.InlineKeyboard = append(m.InlineKeyboard, line)
	}
	return m
}

// Column places every button on a row of its own.
func Column(buttons ...Button) *tele.ReplyMarkup {
	return Grid(1, buttons...)
}

// Grid fills rows of up to perRow buttons.
func Grid(perRow int, buttons ...Button) *tele.ReplyMarkup {
	perRow = max(perRow, 1)
	rows := make([][]Button, 0, (len(buttons)+perRow-1)/perRow)
	for len(buttons) > 0 {
		n := min(perRow, len(buttons))
		rows = append(rows, buttons[:n])
		buttons = buttons[n:]
	}
	return Inline(rows...)
}
