package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/kinobot/internal/models"
)

// FavoriteRepository manages user/movie favorite pairs.
type FavoriteRepository struct {
	db *sqlx.DB
}

func NewFavoriteRepository(db *sqlx.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// Add stores the pair and reports whether it was new.
func (r *FavoriteRepository) Add(ctx context.Context, userID, movieID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO favorites (user_id, movie_id) VALUES ($1, $2)
		ON CONFLICT ON CONSTRAINT unique_user_movie DO NOTHING`, userID, movieID)
	if err != nil {
		return false, fmt.Errorf("add favorite: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Remove deletes the pair and reports whether it existed.
func (r *FavoriteRepository) Remove(ctx context.Context, userID, movieID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM favorites WHERE user_id = $1 AND movie_id = $2`, userID, movieID)
	if err != nil {
		return false, fmt.Errorf("remove favorite: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ListByUser returns the user's favorite movies, newest first.
func (r *FavoriteRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]models.FavoriteMovie, error) {
	var out []models.FavoriteMovie
	err := r.db.SelectContext(ctx, &out, `
		SELECT `+movieColumns+`, f.added_at FROM favorites f
		JOIN movies m ON m.id = f.movie_id
		WHERE f.user_id = $1
		ORDER BY f.added_at DESC, f.id DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	return out, nil
}
