package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/m3rciful/kinobot/core/bootstrap"
	corecmd "github.com/m3rciful/kinobot/core/cmd"
	"github.com/m3rciful/kinobot/core/httpclient"
	"github.com/m3rciful/kinobot/core/logger"
	"github.com/m3rciful/kinobot/core/telegram/state"
	"github.com/m3rciful/kinobot/internal/bot"
	"github.com/m3rciful/kinobot/internal/config"
	"github.com/m3rciful/kinobot/internal/movieapi"
	"github.com/m3rciful/kinobot/internal/repository"
	"github.com/m3rciful/kinobot/internal/service"
	"github.com/m3rciful/kinobot/migrations"
)

const redisPingTimeout = 5 * time.Second

func main() {
	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			cfg, err := config.Load(path)
			if err != nil {
				return nil, err
			}
			return cfg, nil
		},
		Bootstrap: func(c corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			cfg, ok := c.(*config.Config)
			if !ok {
				return nil, fmt.Errorf("unexpected config type %T", c)
			}
			p, err := build(cfg)
			if err != nil {
				return nil, err
			}
			return p, nil
		},
	})
	if err != nil {
		log.Fatal(err)
	}
}

// process is the running bot plus the connections it owns.
type process struct {
	*bot.App
	closers []io.Closer
}

// Close releases connections in reverse order of acquisition.
func (p *process) Close() error {
	var errs []error
	for i := len(p.closers) - 1; i >= 0; i-- {
		errs = append(errs, p.closers[i].Close())
	}
	return errors.Join(errs...)
}

func build(cfg *config.Config) (_ *process, err error) {
	res, err := bootstrap.Run(bootstrap.Options{
		Config:     cfg.CoreConfig(),
		Database:   cfg.Database,
		Migrations: migrations.FS,
		Seeders:    []bootstrap.Seeder{repository.GenreSeeder(movieapi.MainGenres)},
	})
	if err != nil {
		return nil, err
	}
	p := &process{closers: []io.Closer{res.DB}}
	defer func() {
		if err != nil {
			_ = p.Close()
		}
	}()
	repos := repository.New(res.DB)

	provider, err := newProvider(cfg.Movies)
	if err != nil {
		return nil, err
	}
	sessions, rdb, err := newSessionStore(cfg.Redis)
	if err != nil {
		return nil, err
	}
	if rdb != nil {
		p.closers = append(p.closers, rdb)
	}

	users := service.NewUserService(repos.Users)
	movies := service.NewMovieService(provider, service.MovieStores{
		Users:           repos.Users,
		Movies:          repos.Movies,
		Favorites:       repos.Favorites,
		History:         repos.History,
		Recommendations: repos.Recommendations,
	}, cfg.Movies.SearchLimit)
	stats := service.NewStatsService(repos.Stats, cfg.Reports.Location())

	p.App, err = bot.New(bot.Deps{
		Config:     cfg,
		Users:      users,
		Movies:     movies,
		Stats:      stats,
		Recipients: repos.Users,
		Sessions:   sessions,
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// newProvider builds the configured provider, chained with the fallback one.
func newProvider(mc config.MoviesConfig) (movieapi.Provider, error) {
	hc := httpclient.New(httpclient.Options{
		Timeout: time.Duration(mc.TimeoutSeconds) * time.Second,
	})
	build := func(name string) (movieapi.Provider, error) {
		switch name {
		case "":
			return nil, nil
		case config.ProviderKinopoisk:
			return movieapi.NewKinopoisk(hc, mc.KinopoiskBaseURL, mc.KinopoiskToken), nil
		case config.ProviderTMDB:
			return movieapi.NewTMDB(hc, mc.TMDBBaseURL, mc.TMDBAPIKey, mc.Language), nil
		}
		return nil, fmt.Errorf("unknown movies provider %q", name)
	}
	primary, err := build(mc.Provider)
	if err != nil {
		return nil, err
	}
	if primary == nil {
		return nil, fmt.Errorf("movies provider is not configured")
	}
	secondary, err := build(mc.Fallback)
	if err != nil {
		return nil, err
	}
	logger.Info(logger.Background(), "app", "movies.provider",
		slog.String("primary", mc.Provider),
		slog.String("fallback", mc.Fallback),
	)
	return movieapi.NewChain(primary, secondary), nil
}

// newSessionStore returns a Redis store when configured, otherwise nil so
// the bot keeps sessions in memory.
func newSessionStore(rc config.RedisConfig) (state.Store, *redis.Client, error) {
	addr := strings.TrimSpace(rc.Addr)
	if addr == "" {
		return nil, nil, nil
	}
	opts := &redis.Options{Addr: addr, Password: rc.Password, DB: rc.DB}
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, nil, fmt.Errorf("redis url: %w", err)
		}
		if rc.Password != "" {
			parsed.Password = rc.Password
		}
		opts = parsed
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}
	logger.Info(ctx, "app", "sessions.redis", slog.String("addr", opts.Addr))
	return state.NewRedisStore(client, rc.Prefix, rc.TTL()), client, nil
}
