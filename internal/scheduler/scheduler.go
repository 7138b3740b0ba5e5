// Package scheduler ends spaces whose duration has run out.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/cwrk-planet/space-service/internal/domain"
)

const DefaultInterval = time.Second

type Expirer interface {
	EndExpired(ctx context.Context) ([]domain.Space, error)
}

type Scheduler struct {
	svc      Expirer
	interval time.Duration
}

func New(svc Expirer, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{svc: svc, interval: interval}
}

// Run ticks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("scheduler started", slog.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

func (s *Scheduler) Tick(ctx context.Context) {
	ended, err := s.svc.EndExpired(ctx)
	if err != nil {
		if ctx.Err() == nil {
			slog.Error("scheduler.Tick:", slog.Any("err", err))
		}
		return
	}
	for _, sp := range ended {
		slog.Info("space expired", slog.String("space_id", sp.ID), slog.String("title", sp.Title))
	}
}
