// Package ui holds presentation pieces shared by bots: fallback replies
// and inline query results.
package ui

import tele "gopkg.in/telebot.v4"

// Fallbacks answers updates that no command, callback or FSM state claimed.
type Fallbacks interface {
	UnknownText() tele.HandlerFunc
	UnknownDocument() tele.HandlerFunc
	UnknownCallback() tele.HandlerFunc
}

// Article is an inline query result that posts a MarkdownV2 message.
type Article struct {
	ID          string
	Title       string
	Description string
	ThumbURL    string
	// Text must already be escaped for MarkdownV2.
	Text string
}

// Result converts a into a telebot result with link previews disabled.
func (a Article) Result() *tele.ArticleResult {
	r := &tele.ArticleResult{
		Title:       a.Title,
		Description: a.Description,
		ThumbURL:    a.ThumbURL,
		Text:        a.Text,
	}
	r.SetResultID(a.ID)
	r.ParseMode = tele.ModeMarkdownV2
	r.SetContent(&tele.InputTextMessageContent{
		Text:           a.Text,
		ParseMode:      tele.ModeMarkdownV2,
		PreviewOptions: &tele.PreviewOptions{Disabled: true},
	})
	return r
}
