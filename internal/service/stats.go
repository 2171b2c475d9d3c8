package service

import (
	"context"
	"fmt"
	"time"

	"github.com/m3rciful/kinobot/internal/models"
)

type StatsStore interface {
	Collect(ctx context.Context, since time.Time) (*models.Stats, error)
}

// StatsService computes admin counters relative to the start of the local day.
type StatsService struct {
	store StatsStore
	loc   *time.Location
	now   func() time.Time
}

func NewStatsService(store StatsStore, loc *time.Location) *StatsService {
	if loc == nil {
		loc = time.Local
	}
	return &StatsService{store: store, loc: loc, now: time.Now}
}

// StartOfDay returns local midnight of t in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func (s *StatsService) Collect(ctx context.Context) (*models.Stats, error) {
	st, err := s.store.Collect(ctx, StartOfDay(s.now(), s.loc))
	if err != nil {
		return nil, fmt.Errorf("collect stats: %w", err)
	}
	return st, nil
}
