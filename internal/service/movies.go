package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/m3rciful/kinobot/core/logger"
	"github.com/m3rciful/kinobot/internal/models"
	"github.com/m3rciful/kinobot/internal/movieapi"
	"github.com/m3rciful/kinobot/internal/repository"
)

const (
	MinQueryLength      = 2
	MaxQueryLength      = 255
	DefaultSearchLimit  = 5
	FavoritesLimit      = 20
	HistoryLimit        = 10
	RecommendationLimit = 10
)

type MovieStore interface {
	Upsert(ctx context.Context, m *models.Movie) error
	GetByExternalID(ctx context.Context, source, externalID string) (*models.Movie, error)
	TopGenreForUser(ctx context.Context, userID int64) (string, error)
}

type FavoriteStore interface {
	Add(ctx context.Context, userID, movieID int64) (bool, error)
	Remove(ctx context.Context, userID, movieID int64) (bool, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]models.FavoriteMovie, error)
}

type HistoryStore interface {
	Add(ctx context.Context, userID int64, query string) error
	ListByUser(ctx context.Context, userID int64, limit int) ([]models.SearchHistory, error)
}

type RecommendationStore interface {
	Add(ctx context.Context, userID, movieID int64) error
	ListByUser(ctx context.Context, userID int64, limit int) ([]models.RecommendedMovie, error)
}

// resolver is implemented by providers that can route Details by source.
type resolver interface {
	Resolve(ctx context.Context, source, id string) (*movieapi.Film, error)
}

// MovieStores bundles the repositories MovieService uses.
type MovieStores struct {
	Users           UserStore
	Movies          MovieStore
	Favorites       FavoriteStore
	History         HistoryStore
	Recommendations RecommendationStore
}

// MovieService searches films and keeps per-user favorites, history and
// recommendations.
type MovieService struct {
	provider movieapi.Provider
	stores   MovieStores
	limit    int
}

func NewMovieService(provider movieapi.Provider, stores MovieStores, searchLimit int) *MovieService {
	if searchLimit <= 0 {
		searchLimit = DefaultSearchLimit
	}
	return &MovieService{provider: provider, stores: stores, limit: searchLimit}
}

// Genres lists genres accepted by Random.
func (s *MovieService) Genres() []string { return s.provider.Genres() }

// Search validates query, records it for registered users and returns at
// most the configured number of films.
func (s *MovieService) Search(ctx context.Context, telegramID int64, query string) ([]movieapi.Film, error) {
	query, err := normalizeQuery(query)
	if err != nil {
		return nil, err
	}

	if u, err := s.stores.Users.GetByTelegramID(ctx, telegramID); err == nil {
		if err := s.stores.History.Add(ctx, u.ID, query); err != nil {
			logger.Warn(ctx, "service.movies", "history.add_failed", slog.String("err", err.Error()))
		}
	} else if !errors.Is(err, repository.ErrNotFound) {
		logger.Warn(ctx, "service.movies", "history.user_lookup_failed", slog.String("err", err.Error()))
	}

	return s.lookup(ctx, query)
}

// Lookup searches without touching the history (inline queries).
func (s *MovieService) Lookup(ctx context.Context, query string) ([]movieapi.Film, error) {
	query, err := normalizeQuery(query)
	if err != nil {
		return nil, err
	}
	return s.lookup(ctx, query)
}

func (s *MovieService) lookup(ctx context.Context, query string) ([]movieapi.Film, error) {
	films, err := s.provider.Search(ctx, query, s.limit)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	logger.Debug(ctx, "service.movies", "search",
		slog.String("provider", s.provider.Name()),
		slog.String("query", query),
		slog.Int("total", len(films)),
	)
	return films, nil
}

func normalizeQuery(query string) (string, error) {
	query = strings.TrimSpace(query)
	n := utf8.RuneCountInString(query)
	if n < MinQueryLength {
		return "", ErrQueryTooShort
	}
	if n > MaxQueryLength {
		query = string([]rune(query)[:MaxQueryLength])
	}
	return query, nil
}

// Details returns a film by provider source and id.
func (s *MovieService) Details(ctx context.Context, source, id string) (*movieapi.Film, error) {
	if r, ok := s.provider.(resolver); ok {
		return r.Resolve(ctx, source, id)
	}
	return s.provider.Details(ctx, id)
}

// Random returns a random top rated film; empty genre means any.
func (s *MovieService) Random(ctx context.Context, genre string) (*movieapi.Film, error) {
	f, err := s.provider.Random(ctx, genre)
	if err != nil {
		return nil, fmt.Errorf("random film: %w", err)
	}
	return f, nil
}

func (s *MovieService) user(ctx context.Context, telegramID int64) (*models.User, error) {
	u, err := s.stores.Users.GetByTelegramID(ctx, telegramID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotRegistered
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// FilmToMovie converts a provider film into a persistable movie.
func FilmToMovie(f movieapi.Film) *models.Movie {
	m := &models.Movie{
		Source:     f.Source,
		ExternalID: f.ID,
		Title:      f.Title,
		Overview:   f.Overview,
		Year:       f.Year,
		Rating:     f.Rating,
		PosterURL:  f.PosterURL,
	}
	if d, ok := movieapi.ParseReleaseDate(f.ReleaseDate); ok {
		m.ReleaseDate = &d
	}
	for _, g := range f.Genres {
		if g = strings.TrimSpace(g); g != "" {
			m.Genres = append(m.Genres, models.Genre{Name: g})
		}
	}
	return m
}

// AddFavorite stores the film and links it to the user. added is false when
// the film was already a favorite.
func (s *MovieService) AddFavorite(ctx context.Context, telegramID int64, source, id string) (film *movieapi.Film, added bool, err error) {
	u, err := s.user(ctx, telegramID)
	if err != nil {
		return nil, false, err
	}
	film, err = s.Details(ctx, source, id)
	if err != nil {
		return nil, false, fmt.Errorf("add favorite: %w", err)
	}
	m := FilmToMovie(*film)
	if err := s.stores.Movies.Upsert(ctx, m); err != nil {
		return nil, false, fmt.Errorf("add favorite: %w", err)
	}
	added, err = s.stores.Favorites.Add(ctx, u.ID, m.ID)
	if err != nil {
		return nil, false, fmt.Errorf("add favorite: %w", err)
	}
	logger.SVCMovies.Info("favorite added",
		slog.Int64("user_id", telegramID),
		slog.String("film_id", film.ID),
		slog.Bool("added", added),
	)
	return film, added, nil
}

// RemoveFavorite unlinks a stored movie from the user.
func (s *MovieService) RemoveFavorite(ctx context.Context, telegramID, movieID int64) (bool, error) {
	u, err := s.user(ctx, telegramID)
	if err != nil {
		return false, err
	}
	removed, err := s.stores.Favorites.Remove(ctx, u.ID, movieID)
	if err != nil {
		return false, fmt.Errorf("remove favorite: %w", err)
	}
	return removed, nil
}

// Favorites lists the newest favorites first.
func (s *MovieService) Favorites(ctx context.Context, telegramID int64) ([]models.FavoriteMovie, error) {
	u, err := s.user(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	return s.stores.Favorites.ListByUser(ctx, u.ID, FavoritesLimit)
}

// History lists the latest search queries.
func (s *MovieService) History(ctx context.Context, telegramID int64) ([]models.SearchHistory, error) {
	u, err := s.user(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	return s.stores.History.ListByUser(ctx, u.ID, HistoryLimit)
}

// Recommend picks a random film from the user's favorite genre, or any
// random film when the user has no favorites, and records it.
func (s *MovieService) Recommend(ctx context.Context, telegramID int64) (*movieapi.Film, string, error) {
	u, err := s.user(ctx, telegramID)
	if err != nil {
		return nil, "", err
	}
	genre, err := s.stores.Movies.TopGenreForUser(ctx, u.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, "", fmt.Errorf("recommend: %w", err)
	}

	film, err := s.provider.Random(ctx, genre)
	if errors.Is(err, movieapi.ErrUnknownGenre) {
		// stored genres come from providers and may fall outside the menu
		genre = ""
		film, err = s.provider.Random(ctx, "")
	}
	if err != nil {
		return nil, "", fmt.Errorf("recommend: %w", err)
	}

	m := FilmToMovie(*film)
	if err := s.stores.Movies.Upsert(ctx, m); err != nil {
		return nil, "", fmt.Errorf("recommend: %w", err)
	}
	if err := s.stores.Recommendations.Add(ctx, u.ID, m.ID); err != nil {
		return nil, "", fmt.Errorf("recommend: %w", err)
	}
	return film, genre, nil
}

// Recommendations lists previously recommended movies.
func (s *MovieService) Recommendations(ctx context.Context, telegramID int64) ([]models.RecommendedMovie, error) {
	u, err := s.user(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	return s.stores.Recommendations.ListByUser(ctx, u.ID, RecommendationLimit)
}
