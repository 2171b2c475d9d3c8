package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/kinobot/core/bootstrap"
)

// GenreSeeder inserts the menu genres so they exist before any movie is cached.
func GenreSeeder(names []string) bootstrap.Seeder {
	return bootstrap.SeederFunc(func(ctx context.Context, db *sqlx.DB) error {
		for _, name := range names {
			if _, err := db.ExecContext(ctx, `INSERT INTO genres (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name); err != nil {
				return fmt.Errorf("seed genre %q: %w", name, err)
			}
		}
		return nil
	})
}
