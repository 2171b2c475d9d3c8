package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/kinobot/core/logger"
)

const previewFiles = 6

// Migrate applies every pending up migration found at the root of src.
// It runs on a dedicated connection taken from db and leaves db open.
func Migrate(ctx context.Context, db *sqlx.DB, src fs.FS) error {
	files, err := fs.Glob(src, "*.up.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	preview, truncated := logger.SummarizeStrings(files, previewFiles)
	logger.Debug(ctx, "db.migrate", "resolve",
		slog.Int("count", len(files)),
		slog.String("files_preview", preview),
		slog.Bool("files_truncated", truncated),
	)

	source, err := iofs.New(src, ".")
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		_ = source.Close()
		return fmt.Errorf("migration connection: %w", err)
	}
	driver, err := postgres.WithConnection(ctx, conn, &postgres.Config{})
	if err != nil {
		_ = source.Close()
		_ = conn.Close()
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		_ = source.Close()
		_ = driver.Close()
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}
	defer m.Close()

	from, _, _ := m.Version()
	start := time.Now()
	err = m.Up()
	took := time.Since(start)
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error(ctx, "db.migrate", "apply",
			slog.String("status", "fail"),
			slog.Uint64("from_ver", uint64(from)),
			slog.Duration("duration", took),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("migration execution failed: %w", err)
	}
	to, _, _ := m.Version()

	applied := appliedBetween(files, uint64(from), uint64(to))
	if len(applied) > 0 {
		preview, truncated = logger.SummarizeStrings(applied, previewFiles)
		logger.Debug(ctx, "db.migrate", "apply",
			slog.String("files_preview", preview),
			slog.Bool("files_truncated", truncated),
		)
	}
	logger.Info(ctx, "db.migrate", "summary",
		slog.String("status", "ok"),
		slog.Uint64("from_ver", uint64(from)),
		slog.Uint64("to_ver", uint64(to)),
		slog.Int("files", len(applied)),
		slog.Duration("duration", took),
	)
	return nil
}

// migrationVersion reads the numeric prefix of "000001_init.up.sql".
func migrationVersion(name string) uint64 {
	prefix, _, _ := strings.Cut(name, "_")
	v, _ := strconv.ParseUint(prefix, 10, 64)
	return v
}

// appliedBetween returns the files with a version in (from, to].
func appliedBetween(files []string, from, to uint64) []string {
	var out []string
	for _, f := range files {
		if v := migrationVersion(f); v > from && v <= to {
			out = append(out, f)
		}
	}
	return out
}
