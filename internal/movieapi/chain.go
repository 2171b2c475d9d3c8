package movieapi

import (
	"context"
	"errors"
	"log/slog"

	"github.com/m3rciful/kinobot/core/logger"
)

// Chain queries Primary and falls back to Secondary when Primary fails with
// anything other than ErrNotFound or ErrUnknownGenre.
type Chain struct {
	Primary   Provider
	Secondary Provider
}

// NewChain returns primary alone when secondary is nil.
func NewChain(primary, secondary Provider) Provider {
	if secondary == nil {
		return primary
	}
	return &Chain{Primary: primary, Secondary: secondary}
}

func (c *Chain) Name() string { return c.Primary.Name() + "+" + c.Secondary.Name() }

func (c *Chain) Genres() []string { return c.Primary.Genres() }

func (c *Chain) fallback(ctx context.Context, op string, err error) bool {
	if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnknownGenre) || ctx.Err() != nil {
		return false
	}
	logger.Warn(ctx, "movieapi.chain", "fallback",
		slog.String("op", op),
		slog.String("provider", c.Primary.Name()),
		slog.String("fallback", c.Secondary.Name()),
		slog.String("err", err.Error()),
	)
	return true
}

func (c *Chain) Search(ctx context.Context, query string, limit int) ([]Film, error) {
	films, err := c.Primary.Search(ctx, query, limit)
	if c.fallback(ctx, "search", err) {
		return c.Secondary.Search(ctx, query, limit)
	}
	return films, err
}

// Details does not fall back: ids are provider specific. The film's Source
// selects the provider in Resolve.
func (c *Chain) Details(ctx context.Context, id string) (*Film, error) {
	return c.Primary.Details(ctx, id)
}

// Resolve routes Details to the provider named source.
func (c *Chain) Resolve(ctx context.Context, source, id string) (*Film, error) {
	if source == c.Secondary.Name() {
		return c.Secondary.Details(ctx, id)
	}
	return c.Primary.Details(ctx, id)
}

func (c *Chain) Random(ctx context.Context, genre string) (*Film, error) {
	f, err := c.Primary.Random(ctx, genre)
	if c.fallback(ctx, "random", err) {
		return c.Secondary.Random(ctx, genre)
	}
	return f, err
}
