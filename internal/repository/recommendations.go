package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/kinobot/internal/models"
)

// RecommendationRepository stores movies suggested to users.
type RecommendationRepository struct {
	db *sqlx.DB
}

func NewRecommendationRepository(db *sqlx.DB) *RecommendationRepository {
	return &RecommendationRepository{db: db}
}

// Add records a recommendation.
func (r *RecommendationRepository) Add(ctx context.Context, userID, movieID int64) error {
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO recommendations (user_id, movie_id) VALUES ($1, $2)`, userID, movieID); err != nil {
		return fmt.Errorf("add recommendation: %w", err)
	}
	return nil
}

// ListByUser returns past recommendations, newest first.
func (r *RecommendationRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]models.RecommendedMovie, error) {
	var out []models.RecommendedMovie
	err := r.db.SelectContext(ctx, &out, `
		SELECT `+movieColumns+`, rc.created_at FROM recommendations rc
		JOIN movies m ON m.id = rc.movie_id
		WHERE rc.user_id = $1
		ORDER BY rc.created_at DESC, rc.id DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}
	return out, nil
}
