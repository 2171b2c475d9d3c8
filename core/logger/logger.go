// Package logger is the structured slog setup shared by the bot runtime.
// Every line carries component and event keys plus the update metadata
// found in the context.
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/m3rciful/kinobot/core/buildinfo"
	coreconfig "github.com/m3rciful/kinobot/core/config"
)

var (
	initOnce sync.Once
	stopOnce sync.Once

	sinks   []*sink
	files   []io.Closer
	level   slog.LevelVar
	debug   sampler
	tracing bool

	// L is the process-wide logger.
	L *slog.Logger

	// Component loggers kept for call sites that log without a context.
	DB        *slog.Logger
	TG        *slog.Logger
	MIG       *slog.Logger
	TWire     *slog.Logger
	SVCUsers  *slog.Logger
	SVCMovies *slog.Logger
	SCHED     *slog.Logger
)

func init() {
	L = slog.Default()
	bindComponents()
	debug.set(1, 50)
}

// settings is the parsed logging section of the config.
type settings struct {
	level      slog.Level
	format     logFormat
	order      []string
	sampleNum  int
	sampleDen  int
	dir        string
	botFile    string
	errorsFile string
	profile    string
}

func settingsFrom(cfg *coreconfig.Config) settings {
	s := settings{level: slog.LevelInfo, order: keyOrder, sampleNum: 1, sampleDen: 50, profile: "prod"}
	if cfg == nil {
		return s
	}
	lc := cfg.Logging
	switch strings.ToLower(strings.TrimSpace(lc.Level)) {
	case "debug":
		s.level = slog.LevelDebug
	case "warn", "warning":
		s.level = slog.LevelWarn
	case "error":
		s.level = slog.LevelError
	}
	s.format = parseFormat(lc.Format, lc.Profile)
	s.order = parseKeyOrder(lc.KeysOrder)
	if spec := strings.TrimSpace(lc.DebugSample); spec != "" {
		s.sampleNum, s.sampleDen = parseRatio(spec)
		if s.sampleNum < 0 || s.sampleDen < 0 {
			s.sampleNum, s.sampleDen = 1, 50
		}
	}
	s.dir = strings.TrimSpace(lc.Dir)
	s.botFile = strings.TrimSpace(lc.BotFile)
	s.errorsFile = strings.TrimSpace(lc.ErrorsFile)
	if p := strings.TrimSpace(lc.Profile); p != "" {
		s.profile = strings.ToLower(p)
	}
	return s
}

// InitLogger installs the global logger. Only the first call has effect.
func InitLogger(cfg *coreconfig.Config) error {
	var err error
	initOnce.Do(func() { err = install(settingsFrom(cfg)) })
	return err
}

func install(s settings) error {
	level.Set(s.level)
	debug.set(s.sampleNum, s.sampleDen)
	tracing = envFlag("TRACE") || envFlag("LOG_TRACE")

	outs := []io.Writer{os.Stdout}
	var errFile io.Writer
	if s.dir != "" && (s.botFile != "" || s.errorsFile != "") {
		if err := os.MkdirAll(s.dir, 0o755); err != nil {
			return fmt.Errorf("logger: create %s: %w", s.dir, err)
		}
		if s.botFile != "" {
			f, err := openLog(s.dir, s.botFile)
			if err != nil {
				return err
			}
			outs = append(outs, f)
		}
		if s.errorsFile != "" {
			f, err := openLog(s.dir, s.errorsFile)
			if err != nil {
				return err
			}
			errFile = f
		}
	}

	main := newSink(outs...)
	sinks = append(sinks, main)
	var h slog.Handler = newHandler(main, &level, s.format, s.order)
	if errFile != nil {
		errs := newSink(errFile)
		sinks = append(sinks, errs)
		h = teeHandler{h, newHandler(errs, slog.LevelWarn, formatJSON, s.order)}
	}

	L = slog.New(h)
	slog.SetDefault(L)
	bindComponents()

	L.LogAttrs(context.Background(), slog.LevelInfo, "startup",
		slog.String("component", "app"),
		slog.String("event", "startup"),
		slog.String("go_version", runtime.Version()),
		slog.String("version", buildinfo.Version),
		slog.String("build_commit", buildinfo.Commit),
		slog.String("build_time", buildinfo.Date),
		slog.String("cfg_profile", s.profile),
	)
	return nil
}

func openLog(dir, name string) (*os.File, error) {
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logger: open %s: %w", path, err)
	}
	files = append(files, f)
	return f, nil
}

func bindComponents() {
	DB = Component("db")
	TG = Component("tg")
	MIG = Component("db.migrate")
	TWire = Component("tg.wire")
	SVCUsers = Component("service.users")
	SVCMovies = Component("service.movies")
	SCHED = Component("scheduler")
}

// Shutdown flushes queued lines and closes log files.
func Shutdown() error {
	var errs []error
	stopOnce.Do(func() {
		for _, s := range sinks {
			errs = append(errs, s.Close())
		}
		for _, f := range files {
			errs = append(errs, f.Close())
		}
	})
	return errors.Join(errs...)
}

// teeHandler sends each record to both handlers that accept its level.
type teeHandler struct {
	primary, secondary slog.Handler
}

func (t teeHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return t.primary.Enabled(ctx, l) || t.secondary.Enabled(ctx, l)
}

func (t teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var err error
	if t.primary.Enabled(ctx, r.Level) {
		err = t.primary.Handle(ctx, r.Clone())
	}
	if t.secondary.Enabled(ctx, r.Level) {
		err = errors.Join(err, t.secondary.Handle(ctx, r))
	}
	return err
}

func (t teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return teeHandler{t.primary.WithAttrs(attrs), t.secondary.WithAttrs(attrs)}
}

func (t teeHandler) WithGroup(name string) slog.Handler {
	return teeHandler{t.primary.WithGroup(name), t.secondary.WithGroup(name)}
}

// Background returns a fresh root context.
func Background() context.Context { return context.Background() }

// Component returns L scoped to name.
func Component(name string) *slog.Logger {
	name = strings.TrimSpace(name)
	if L == nil || name == "" {
		return L
	}
	return L.With("component", name)
}

// LogEvent writes one record with an event key. A nil log falls back to
// the logger stored in ctx.
func LogEvent(ctx context.Context, log *slog.Logger, lvl slog.Level, event string, attrs ...slog.Attr) {
	if log == nil {
		log = FromContext(ctx)
	}
	if log == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if event != "" {
		attrs = append([]slog.Attr{slog.String("event", event)}, attrs...)
	}
	log.LogAttrs(ctx, lvl, "", attrs...)
}

func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelDebug, event, attrs...)
}

func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelInfo, event, attrs...)
}

func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelWarn, event, attrs...)
}

func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelError, event, attrs...)
}

// ShouldSampleDebug reports whether a high volume debug record should be
// written. TRACE=1 in the environment disables sampling.
func ShouldSampleDebug() bool {
	return tracing || debug.allow()
}

func envFlag(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
