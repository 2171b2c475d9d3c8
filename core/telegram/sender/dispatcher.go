// Package sender runs outbound Telegram calls on a small worker pool so
// handlers return without waiting for the Bot API.
package sender

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/kinobot/core/logger"
	"github.com/m3rciful/kinobot/core/netutil"
)

const component = "tg.sender"

var (
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	ErrQueueFull   = errors.New("telegram sender: queue full")
)

// Options configures NewDispatcher. Zero fields take defaults.
type Options struct {
	QueueSize    int
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds one job including its retries.
	MaxDuration time.Duration
}

func (o Options) withDefaults() Options {
	if o.QueueSize <= 0 {
		o.QueueSize = 256
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	o.MaxRetries = max(o.MaxRetries, 0)
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 2 * time.Second
	}
	if o.MaxDuration <= 0 {
		o.MaxDuration = 12 * time.Second
	}
	return o
}

type job struct {
	ctx      context.Context
	action   string
	endpoint string
	run      func() error
}

func (j job) attrs(extra ...slog.Attr) []slog.Attr {
	out := []slog.Attr{slog.String("op", j.action)}
	if j.endpoint != "" {
		out = append(out, slog.String("endpoint", j.endpoint))
	}
	return append(out, extra...)
}

// Dispatcher is a bounded queue drained by a fixed set of workers.
type Dispatcher struct {
	opts Options

	mu     sync.RWMutex
	closed bool
	queue  chan job

	wg     sync.WaitGroup
	failed atomic.Uint64
}

func NewDispatcher(opts Options) *Dispatcher {
	opts = opts.withDefaults()
	d := &Dispatcher{opts: opts, queue: make(chan job, opts.QueueSize)}
	for range opts.Workers {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for j := range d.queue {
				d.process(j)
			}
		}()
	}
	return d
}

// Enqueue hands run to a worker. It never blocks: a full queue returns
// ErrQueueFull. run may be called more than once.
func (d *Dispatcher) Enqueue(ctx context.Context, action, endpoint string, run func() error) error {
	if run == nil {
		return errors.New("telegram sender: nil run function")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	select {
	case d.queue <- job{ctx: ctx, action: action, endpoint: endpoint, run: run}:
		return nil
	default:
		return ErrQueueFull
	}
}

// ErrorCount is the number of jobs that failed after all retries.
func (d *Dispatcher) ErrorCount() uint64 {
	return d.failed.Load()
}

// Close rejects new jobs, finishes queued ones and waits for the workers.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) process(j job) {
	ctx, cancel := context.WithTimeout(j.ctx, d.opts.MaxDuration)
	defer cancel()
	start := time.Now()
	attempts := d.opts.MaxRetries + 1

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = j.run(); err == nil {
			if attempt > 1 || logger.ShouldSampleDebug() {
				logger.Debug(j.ctx, component, "send.ok", j.attrs(
					slog.Int("attempts", attempt),
					slog.Duration("duration", time.Since(start)),
				)...)
			}
			return
		}
		if attempt == attempts || !retryable(err) {
			break
		}
		delay, flooded := RetryAfter(err)
		if !flooded {
			delay = netutil.Backoff(d.opts.RetryBackoff, attempt)
		}
		logger.Debug(j.ctx, component, "send.retry", j.attrs(
			slog.Int("attempt", attempt),
			slog.Duration("backoff", delay),
			slog.String("err_code", errorKind(err)),
		)...)
		if waitErr := netutil.Sleep(ctx, delay); waitErr != nil {
			err = errors.Join(err, waitErr)
			break
		}
	}

	d.failed.Add(1)
	logger.Error(j.ctx, component, "send.fail", j.attrs(
		slog.String("err", redact(err)),
		slog.String("err_code", errorKind(err)),
		slog.Duration("duration", time.Since(start)),
	)...)
}
