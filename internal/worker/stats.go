package worker

import (
	"context"
	"time"

	"github.com/KOFI-GYIMAH/github-wrapped/internal/models"
	"github.com/KOFI-GYIMAH/github-wrapped/internal/service"
	"github.com/KOFI-GYIMAH/github-wrapped/pkg/logger"
)

const DefaultInterval = 5 * time.Minute

type AveragesRefresher interface {
	RefreshAverages(ctx context.Context) (models.AverageStats, error)
	Outcomes() service.OutcomeCounts
}

// * StatsWorker recomputes the cross-user averages snapshot on a fixed interval
type StatsWorker struct {
	service  AveragesRefresher
	interval time.Duration
}

func NewStatsWorker(service AveragesRefresher, interval time.Duration) *StatsWorker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &StatsWorker{
		service:  service,
		interval: interval,
	}
}

// * Run blocks until ctx is cancelled
func (w *StatsWorker) Run(ctx context.Context) {
	w.refresh(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.refresh(ctx)

		case <-ctx.Done():
			logger.Info("stopping stats worker")
			return
		}
	}
}

func (w *StatsWorker) refresh(ctx context.Context) {
	stats, err := w.service.RefreshAverages(ctx)
	if err != nil {
		logger.Error("averages refresh failed: %v", err)
		return
	}

	o := w.service.Outcomes()
	logger.Info(
		"averages refreshed over %d users (hits=%d refreshed=%d stale=%d failures=%d)",
		stats.UserCount, o.CacheHits, o.Refreshed, o.StaleServed, o.Failures,
	)
}
