package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/kinobot/internal/models"
)

// StatsRepository computes admin panel counters.
type StatsRepository struct {
	db *sqlx.DB
}

func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// Collect returns totals plus counters for rows created at or after since.
func (r *StatsRepository) Collect(ctx context.Context, since time.Time) (*models.Stats, error) {
	var s models.Stats
	err := r.db.GetContext(ctx, &s, `
		SELECT
			(SELECT COUNT(*) FROM users)                                AS total_users,
			(SELECT COUNT(*) FROM users WHERE is_active)                AS active_users,
			(SELECT COUNT(*) FROM users WHERE created_at >= $1)         AS new_today,
			(SELECT COUNT(*) FROM search_history WHERE searched_at >= $1) AS searches_today,
			(SELECT COUNT(*) FROM favorites)                            AS favorites_total`, since)
	if err != nil {
		return nil, fmt.Errorf("collect stats: %w", err)
	}
	return &s, nil
}
