package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/kinobot/core/logger"
	"github.com/m3rciful/kinobot/core/netutil"
)

const (
	DefaultBroadcastDelay = 30 * time.Millisecond
	DefaultProgressEvery  = 50
	DefaultMaxRetries     = 3
)

// ErrRecipientBlocked marks recipients that can never receive messages:
// the bot was blocked, the account was deactivated or the chat is gone.
var ErrRecipientBlocked = errors.New("recipient unreachable")

// RetryAfterError asks the caller to wait before sending again.
type RetryAfterError struct {
	After time.Duration
}

func (e *RetryAfterError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.After)
}

// Sender delivers one text message to one chat.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// RecipientStore lists broadcast recipients and deactivates unreachable ones.
type RecipientStore interface {
	ActiveTelegramIDs(ctx context.Context) ([]int64, error)
	SetActive(ctx context.Context, telegramID int64, active bool) error
}

// BroadcastOptions tunes the delivery loop. Zero values select defaults.
type BroadcastOptions struct {
	Delay         time.Duration
	ProgressEvery int
	MaxRetries    int
}

// Progress is reported while a broadcast runs.
type Progress struct {
	ID      string
	Done    int
	Total   int
	Success int
	Failed  int
}

// Report summarizes a finished broadcast. Success+Failed always equals Total.
type Report struct {
	ID       string
	Total    int
	Success  int
	Failed   int
	Blocked  int
	Canceled bool
	Duration time.Duration
}

// BroadcastService delivers one message to every active user, one at a time.
type BroadcastService struct {
	recipients RecipientStore
	sender     Sender
	opts       BroadcastOptions

	running atomic.Bool
	sleep   func(ctx context.Context, d time.Duration) error
	newID   func() string
	now     func() time.Time
}

func NewBroadcastService(recipients RecipientStore, sender Sender, opts BroadcastOptions) *BroadcastService {
	if opts.Delay < 0 {
		opts.Delay = 0
	} else if opts.Delay == 0 {
		opts.Delay = DefaultBroadcastDelay
	}
	if opts.ProgressEvery <= 0 {
		opts.ProgressEvery = DefaultProgressEvery
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	} else if opts.MaxRetries == 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	return &BroadcastService{
		recipients: recipients,
		sender:     sender,
		opts:       opts,
		sleep:      netutil.Sleep,
		newID:      uuid.NewString,
		now:        time.Now,
	}
}

// Running reports whether a broadcast is in progress.
func (s *BroadcastService) Running() bool { return s.running.Load() }

// Recipients returns active users except exclude.
func (s *BroadcastService) Recipients(ctx context.Context, exclude int64) ([]int64, error) {
	ids, err := s.recipients.ActiveTelegramIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("broadcast recipients: %w", err)
	}
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id != exclude {
			out = append(out, id)
		}
	}
	return out, nil
}

// Run sends text to every active user except adminID. It blocks until all
// recipients were attempted or ctx is canceled; progress may be nil.
func (s *BroadcastService) Run(ctx context.Context, adminID int64, text string, progress func(Progress)) (*Report, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrBroadcastRunning
	}
	defer s.running.Store(false)

	ids, err := s.Recipients(ctx, adminID)
	if err != nil {
		return nil, err
	}

	rep := &Report{ID: s.newID(), Total: len(ids)}
	ctx = logger.WithTrace(ctx, rep.ID, "")
	started := s.now()
	logger.Info(ctx, "service.broadcast", "start",
		slog.String("broadcast_id", rep.ID),
		slog.Int64("user_id", adminID),
		slog.Int("total", rep.Total),
	)

	attempted := 0
	for i, chatID := range ids {
		if i > 0 && s.opts.Delay > 0 {
			if err := s.sleep(ctx, s.opts.Delay); err != nil {
				break
			}
		}
		if ctx.Err() != nil {
			break
		}
		attempted++

		err := s.deliver(ctx, chatID, text)
		switch {
		case err == nil:
			rep.Success++
		case errors.Is(err, ErrRecipientBlocked):
			rep.Failed++
			rep.Blocked++
			if err := s.recipients.SetActive(ctx, chatID, false); err != nil {
				logger.Warn(ctx, "service.broadcast", "deactivate_failed",
					slog.Int64("chat_id", chatID),
					slog.String("err", err.Error()),
				)
			}
		default:
			rep.Failed++
			logger.Warn(ctx, "service.broadcast", "send_failed",
				slog.String("broadcast_id", rep.ID),
				slog.Int64("chat_id", chatID),
				slog.String("err", err.Error()),
			)
		}

		if progress != nil && (attempted%s.opts.ProgressEvery == 0 || attempted == rep.Total) {
			progress(Progress{ID: rep.ID, Done: attempted, Total: rep.Total, Success: rep.Success, Failed: rep.Failed})
		}
	}

	if skipped := rep.Total - attempted; skipped > 0 {
		rep.Canceled = true
		rep.Failed += skipped
	}
	rep.Duration = s.now().Sub(started)

	logger.Info(ctx, "service.broadcast", "done",
		slog.String("broadcast_id", rep.ID),
		slog.Int("total", rep.Total),
		slog.Int("success", rep.Success),
		slog.Int("failed", rep.Failed),
		slog.Bool("canceled", rep.Canceled),
		slog.Duration("duration", rep.Duration),
	)
	return rep, nil
}

// deliver retries a send while the transport reports RetryAfterError, up to
// MaxRetries extra attempts.
func (s *BroadcastService) deliver(ctx context.Context, chatID int64, text string) error {
	for attempt := 0; ; attempt++ {
		err := s.sender.Send(ctx, chatID, text)
		var ra *RetryAfterError
		if !errors.As(err, &ra) {
			return err
		}
		if attempt >= s.opts.MaxRetries {
			return fmt.Errorf("chat %d: retries exhausted: %w", chatID, err)
		}
		logger.Debug(ctx, "service.broadcast", "retry_after",
			slog.Int64("chat_id", chatID),
			slog.Int64("retry_after_ms", ra.After.Milliseconds()),
		)
		if err := s.sleep(ctx, ra.After); err != nil {
			return err
		}
	}
}
