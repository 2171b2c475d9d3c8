package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/kinobot/internal/models"
)

const movieColumns = `m.id, m.source, m.external_id, m.title, m.overview, m.release_date, m.year, m.rating, m.poster_url`

// MovieRepository stores movies cached from providers together with their genres.
type MovieRepository struct {
	db *sqlx.DB
}

func NewMovieRepository(db *sqlx.DB) *MovieRepository {
	return &MovieRepository{db: db}
}

// Upsert inserts or refreshes m by (source, external_id) and links its genres.
// m.ID and the genre ids are filled in.
func (r *MovieRepository) Upsert(ctx context.Context, m *models.Movie) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("upsert movie: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const q = `
		INSERT INTO movies (source, external_id, title, overview, release_date, year, rating, poster_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (source, external_id) DO UPDATE SET
			title = EXCLUDED.title,
			overview = EXCLUDED.overview,
			release_date = EXCLUDED.release_date,
			year = EXCLUDED.year,
			rating = EXCLUDED.rating,
			poster_url = EXCLUDED.poster_url
		RETURNING id`
	if err = tx.QueryRowxContext(ctx, q,
		m.Source, m.ExternalID, m.Title, m.Overview, m.ReleaseDate, m.Year, m.Rating, m.PosterURL,
	).Scan(&m.ID); err != nil {
		return fmt.Errorf("upsert movie: %w", err)
	}

	for i := range m.Genres {
		g := &m.Genres[i]
		if err = tx.QueryRowxContext(ctx, `
			INSERT INTO genres (name) VALUES ($1)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`, g.Name).Scan(&g.ID); err != nil {
			return fmt.Errorf("upsert genre %q: %w", g.Name, err)
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO movie_genres (movie_id, genre_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, m.ID, g.ID); err != nil {
			return fmt.Errorf("link genre %q: %w", g.Name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("upsert movie: commit: %w", err)
	}
	return nil
}

// GetByExternalID returns a cached movie with its genres.
func (r *MovieRepository) GetByExternalID(ctx context.Context, source, externalID string) (*models.Movie, error) {
	var m models.Movie
	err := r.db.GetContext(ctx, &m,
		`SELECT `+movieColumns+` FROM movies m WHERE m.source = $1 AND m.external_id = $2`, source, externalID)
	if err != nil {
		return nil, wrapNotFound("get movie", err)
	}
	if err := r.db.SelectContext(ctx, &m.Genres, `
		SELECT g.id, g.name FROM genres g
		JOIN movie_genres mg ON mg.genre_id = g.id
		WHERE mg.movie_id = $1 ORDER BY g.name`, m.ID); err != nil {
		return nil, fmt.Errorf("get movie genres: %w", err)
	}
	return &m, nil
}

// TopGenreForUser returns the genre most common among the user's favorites.
func (r *MovieRepository) TopGenreForUser(ctx context.Context, userID int64) (string, error) {
	var name string
	err := r.db.GetContext(ctx, &name, `
		SELECT g.name FROM favorites f
		JOIN movie_genres mg ON mg.movie_id = f.movie_id
		JOIN genres g ON g.id = mg.genre_id
		WHERE f.user_id = $1
		GROUP BY g.name
		ORDER BY COUNT(*) DESC, g.name
		LIMIT 1`, userID)
	if err != nil {
		return "", wrapNotFound("top genre", err)
	}
	return name, nil
}
