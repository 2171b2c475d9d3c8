// Package repository implements PostgreSQL persistence on top of sqlx.
package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("repository: not found")

// Repositories groups all repositories sharing one connection pool.
type Repositories struct {
	Users           *UserRepository
	Movies          *MovieRepository
	Favorites       *FavoriteRepository
	Recommendations *RecommendationRepository
	History         *SearchHistoryRepository
	Stats           *StatsRepository
}

// New wires every repository to db.
func New(db *sqlx.DB) *Repositories {
	return &Repositories{
		Users:           NewUserRepository(db),
		Movies:          NewMovieRepository(db),
		Favorites:       NewFavoriteRepository(db),
		Recommendations: NewRecommendationRepository(db),
		History:         NewSearchHistoryRepository(db),
		Stats:           NewStatsRepository(db),
	}
}

func wrapNotFound(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
