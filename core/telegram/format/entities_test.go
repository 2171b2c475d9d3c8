package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v4"
)

func TestEntitiesHTML(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		entities []tele.MessageEntity
		want     string
	}{
		{name: "plain text is escaped", text: "Tom & Jerry <3", want: "Tom &amp; Jerry &lt;3"},
		{
			name:     "bold and link",
			text:     "Новинка: Матрица",
			entities: []tele.MessageEntity{{Type: "bold", Offset: 0, Length: 7}, {Type: "text_link", Offset: 9, Length: 7, URL: "https://x.io/?a=1&b=2"}},
			want:     `<b>Новинка</b>: <a href="https://x.io/?a=1&amp;b=2">Матрица</a>`,
		},
		{
			name:     "nested",
			text:     "abc def",
			entities: []tele.MessageEntity{{Type: "italic", Offset: 4, Length: 3}, {Type: "bold", Offset: 0, Length: 7}},
			want:     "<b>abc <i>def</i></b>",
		},
		{
			name:     "offsets count utf16 units",
			text:     "🎬 film",
			entities: []tele.MessageEntity{{Type: "code", Offset: 3, Length: 4}},
			want:     "🎬 <code>film</code>",
		},
		{
			name:     "unrenderable kinds stay text",
			text:     "@kinobot #кино",
			entities: []tele.MessageEntity{{Type: "mention", Offset: 0, Length: 8}, {Type: "hashtag", Offset: 9, Length: 5}},
			want:     "@kinobot #кино",
		},
		{
			name:     "pre with language",
			text:     "x := 1",
			entities: []tele.MessageEntity{{Type: "pre", Offset: 0, Length: 6, Language: "go"}},
			want:     `<pre><code class="language-go">x := 1</code></pre>`,
		},
		{
			name:     "out of range is clamped",
			text:     "hi",
			entities: []tele.MessageEntity{{Type: "underline", Offset: 1, Length: 10}},
			want:     "h<u>i</u>",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EntitiesHTML(tt.text, tt.entities))
		})
	}
}
