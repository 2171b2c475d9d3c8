package movieapi

import (
	"strings"
	"time"
)

// releaseLayouts covers what TMDb and Kinopoisk return for premieres:
// ISO dates, ISO timestamps and the occasional Russian dd.mm.yyyy.
var releaseLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006-1-2",
	"02.01.2006",
	"2.1.2006",
	"2006-01",
	"2006",
}

// ParseReleaseDate parses a provider release date as a UTC date.
func ParseReleaseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range releaseLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.UTC().Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}
