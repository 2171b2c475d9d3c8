// Package bootstrap brings up the infrastructure every bot process needs
// before Telegram starts: logging, the database pool, the schema and the
// reference data.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/kinobot/core/config"
	coredatabase "github.com/m3rciful/kinobot/core/database"
	"github.com/m3rciful/kinobot/core/logger"
)

const setupTimeout = 2 * time.Minute

// Options configure Run. The function fields replace the default steps
// and exist for tests.
type Options struct {
	Config   *coreconfig.Config
	Database coredatabase.Config
	// Migrations is used unless Database.MigrationsDir points elsewhere.
	Migrations fs.FS

	LoggerInit func(*coreconfig.Config) error
	Connect    func(coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(context.Context, *sqlx.DB, fs.FS) error

	// Seeders run in order once migrations succeed.
	Seeders []Seeder
}

// Result holds what Run set up.
type Result struct {
	DB *sqlx.DB
}

// Run initializes logging, connects, migrates and seeds. On failure the
// pool is closed before returning.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, errors.New("bootstrap: nil config provided")
	}
	withDefaults(&opts)

	if err := opts.LoggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}
	db, err := opts.Connect(opts.Database)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()
	if err := setup(ctx, db, opts); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Result{DB: db}, nil
}

func withDefaults(o *Options) {
	if o.LoggerInit == nil {
		o.LoggerInit = logger.InitLogger
	}
	if o.Connect == nil {
		o.Connect = coredatabase.Connect
	}
	if o.Migrate == nil {
		o.Migrate = coredatabase.Migrate
	}
	if dir := o.Database.MigrationsDir; dir != "" {
		o.Migrations = os.DirFS(dir)
	}
}

func setup(ctx context.Context, db *sqlx.DB, opts Options) error {
	if opts.Migrations == nil {
		logger.Warn(ctx, "db.migrate", "skip", slog.String("status", "skip"), slog.String("reason", "no_source"))
	} else if err := opts.Migrate(ctx, db, opts.Migrations); err != nil {
		return fmt.Errorf("bootstrap: migrations failed: %w", err)
	}
	for i, s := range opts.Seeders {
		if err := s.Seed(ctx, db); err != nil {
			return fmt.Errorf("bootstrap: seeder %d failed: %w", i, err)
		}
	}
	return nil
}
