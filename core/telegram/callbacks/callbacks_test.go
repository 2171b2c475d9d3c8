package callbacks

import (
	"testing"

	"github.com/stretchr/testify/assert"

	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackData(t *testing.T) {
	tests := []struct {
		name    string
		cb      *tele.Callback
		key     string
		payload string
	}{
		{"nil", nil, "", ""},
		{"raw", &tele.Callback{Data: "\ffilm|kinopoisk:301"}, "film", "kinopoisk:301"},
		{"no payload", &tele.Callback{Data: "\fadmin_stats"}, "admin_stats", ""},
		{"split by telebot", &tele.Callback{Unique: "fav_del", Data: "12"}, "fav_del", "12"},
		{"payload with pipe", &tele.Callback{Data: "\fgenre|a|b"}, "genre", "a|b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, payload := ParseCallbackData(tt.cb)
			assert.Equal(t, tt.key, key)
			assert.Equal(t, tt.payload, payload)
		})
	}
}

func TestPayload(t *testing.T) {
	assert.Equal(t, "tmdb:27205", Payload("tmdb", "27205"))
	assert.Equal(t, "x", Payload("x"))
}
