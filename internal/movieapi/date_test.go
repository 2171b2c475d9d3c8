package movieapi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseReleaseDate(t *testing.T) {
	want := time.Date(1999, time.March, 31, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"1999-03-31", "1999-03-31T00:00:00.000Z", "31.03.1999", " 1999-3-31 "} {
		got, ok := ParseReleaseDate(in)
		assert.True(t, ok, in)
		assert.True(t, want.Equal(got), in)
	}

	got, ok := ParseReleaseDate("1999")
	assert.True(t, ok)
	assert.Equal(t, 1999, got.Year())

	_, ok = ParseReleaseDate("soon")
	assert.False(t, ok)
	_, ok = ParseReleaseDate("")
	assert.False(t, ok)
}
