// Package movieapi talks to external movie metadata providers (Kinopoisk
// unofficial API, TMDb) and normalizes their payloads into Film values.
package movieapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrNotFound is returned when a provider has no matching film.
var ErrNotFound = errors.New("movieapi: not found")

// ErrUnknownGenre is returned for genres missing from the provider's catalog.
var ErrUnknownGenre = errors.New("movieapi: unknown genre")

// Film is a provider-independent movie card.
type Film struct {
	Source      string
	ID          string
	Title       string
	Year        int
	Rating      float64
	Overview    string
	PosterURL   string
	ReleaseDate string
	Genres      []string
	URL         string
}

// Provider is a movie metadata source.
type Provider interface {
	Name() string
	// Search returns up to limit films matching query.
	Search(ctx context.Context, query string, limit int) ([]Film, error)
	// Details returns a film by provider id.
	Details(ctx context.Context, id string) (*Film, error)
	// Random returns a random highly rated film, optionally restricted to genre.
	Random(ctx context.Context, genre string) (*Film, error)
	// Genres lists genre names accepted by Random.
	Genres() []string
}

// MainGenres is the genre menu offered to users. Both providers map these names.
var MainGenres = []string{
	"комедия",
	"драма",
	"боевик",
	"фантастика",
	"ужасы",
	"триллер",
	"мелодрама",
	"детектив",
	"мультфильм",
	"фэнтези",
}

// StatusError reports a non-2xx provider response.
type StatusError struct {
	Provider string
	Status   int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.Status, e.Body)
}

// Code satisfies the router's error code lookup.
func (e *StatusError) Code() string {
	return fmt.Sprintf("%s_http_%d", e.Provider, e.Status)
}

func checkStatus(provider string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &StatusError{Provider: provider, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}

func normalizeGenre(genre string) string {
	return strings.ToLower(strings.TrimSpace(genre))
}
