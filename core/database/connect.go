package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/m3rciful/kinobot/core/logger"
	"github.com/m3rciful/kinobot/core/netutil"
)

const (
	defaultReadyTimeout = 30 * time.Second
	pingTimeout         = 5 * time.Second
	retryEvery          = 2 * time.Second
)

// Connect opens the pool and waits up to cfg.ReadyTimeout (30s by
// default) for Postgres to accept connections, which covers a database
// container that starts together with the bot.
func Connect(cfg Config) (*sqlx.DB, error) {
	timeout := cfg.ReadyTimeout
	if timeout <= 0 {
		timeout = defaultReadyTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	db, err := sqlx.Open("postgres", cfg.URLString())
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
		db.SetMaxIdleConns(cfg.MaxConnections)
	}

	start := time.Now()
	for attempt := 1; ; attempt++ {
		pctx, pcancel := context.WithTimeout(ctx, pingTimeout)
		err = db.PingContext(pctx)
		pcancel()
		if err == nil {
			break
		}
		logger.Warn(ctx, "db", "db.ping",
			slog.String("status", "retry"),
			slog.String("db", cfg.Redacted()),
			slog.Int("attempt", attempt),
			slog.String("err", err.Error()),
		)
		if werr := netutil.Sleep(ctx, retryEvery); werr != nil {
			_ = db.Close()
			logger.Error(ctx, "db", "db.connect",
				slog.String("status", "fail"),
				slog.String("db", cfg.Redacted()),
				slog.Duration("duration", time.Since(start)),
				slog.String("err", err.Error()),
			)
			return nil, fmt.Errorf("database not ready after %s: %w", timeout, err)
		}
	}

	logger.Info(ctx, "db", "db.connect",
		slog.String("status", "ok"),
		slog.String("db", cfg.Redacted()),
		slog.Int("pool_open", cfg.MaxConnections),
		slog.Duration("duration", time.Since(start)),
	)
	return db, nil
}
