package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/kinobot/internal/models"
)

// SearchHistoryRepository records search queries.
type SearchHistoryRepository struct {
	db *sqlx.DB
}

func NewSearchHistoryRepository(db *sqlx.DB) *SearchHistoryRepository {
	return &SearchHistoryRepository{db: db}
}

// Add stores a query for the user.
func (r *SearchHistoryRepository) Add(ctx context.Context, userID int64, query string) error {
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO search_history (user_id, query) VALUES ($1, $2)`, userID, query); err != nil {
		return fmt.Errorf("add search history: %w", err)
	}
	return nil
}

// ListByUser returns the latest queries of the user.
func (r *SearchHistoryRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]models.SearchHistory, error) {
	var out []models.SearchHistory
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, user_id, query, searched_at FROM search_history
		WHERE user_id = $1
		ORDER BY searched_at DESC, id DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list search history: %w", err)
	}
	return out, nil
}
