package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

func TestArticleResult(t *testing.T) {
	r := Article{ID: "kp:301", Title: "Матрица", Description: "1999", Text: `*Матрица*`}.Result()

	assert.Equal(t, "kp:301", r.ResultID())
	assert.Equal(t, "Матрица", r.Title)
	assert.Equal(t, tele.ModeMarkdownV2, r.ParseMode)
	content, ok := r.Content.(*tele.InputTextMessageContent)
	require.True(t, ok)
	assert.Equal(t, `*Матрица*`, content.Text)
	require.NotNil(t, content.PreviewOptions)
	assert.True(t, content.PreviewOptions.Disabled)
}
