package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeMarkdownV2(t *testing.T) {
	out, err := EscapeMarkdown("a_b*c (1.0)!", MarkdownV2)
	require.NoError(t, err)
	assert.Equal(t, `a\_b\*c \(1\.0\)\!`, out)
}

func TestEscapeMarkdownV1(t *testing.T) {
	out, err := EscapeMarkdown("[x]_y", MarkdownV1)
	require.NoError(t, err)
	assert.Equal(t, `\[x]\_y`, out)
}

func TestEscapeMarkdownUnsupported(t *testing.T) {
	_, err := EscapeMarkdown("x", 3)
	assert.Error(t, err)
}

func TestEscapeHTML(t *testing.T) {
	assert.Equal(t, "&lt;b&gt;Tom &amp; Jerry&lt;/b&gt;", EscapeHTML("<b>Tom & Jerry</b>"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Матрица", Truncate("  Матрица ", 10))
	assert.Equal(t, "Мат…", Truncate("Матрица", 4))
	assert.Equal(t, "", Truncate("abc", 0))
}

func TestDeref(t *testing.T) {
	s := "x"
	n := 7
	assert.Equal(t, "x", Deref(&s, "-"))
	assert.Equal(t, "-", Deref(nil, "-"))
	assert.Equal(t, 7, Deref(&n, 0))
	assert.Equal(t, 0, Deref(nil, 0))
}
