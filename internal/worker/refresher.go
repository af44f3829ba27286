// Package worker schedules the recurring season refresh. It owns the
// cron lifecycle and the refresh metrics; the aggregation itself lives
// in the rankings service.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Prorickey/ftcmetrics-v2-sub000/internal/logic"
)

// Prometheus metrics
var (
	refreshRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ftc_rankings_refresh_runs_total",
		Help: "Total number of rankings refresh runs started",
	})

	refreshFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ftc_rankings_refresh_failures_total",
		Help: "Total number of rankings refresh runs that failed",
	})

	refreshSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ftc_rankings_refresh_skipped_total",
		Help: "Total number of refresh ticks skipped because a run was still in flight",
	})

	refreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ftc_rankings_refresh_duration_seconds",
		Help:    "Duration of successful rankings refresh runs",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
	})
)

// Config configures the refresher.
type Config struct {
	Rankings logic.RankingsService
	Schedule string
	Timeout  time.Duration
	Logger   *zap.SugaredLogger
}

// Refresher runs the season-wide rankings refresh on a cron schedule.
type Refresher struct {
	rankings logic.RankingsService
	schedule string
	timeout  time.Duration
	log      *zap.SugaredLogger
	cron     *cron.Cron
}

// New creates a refresher. The schedule uses standard five-field cron
// syntax; every six hours when unset.
func New(cfg Config) *Refresher {
	if cfg.Schedule == "" {
		cfg.Schedule = "0 */6 * * *"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Minute
	}
	return &Refresher{
		rankings: cfg.Rankings,
		schedule: cfg.Schedule,
		timeout:  cfg.Timeout,
		log:      cfg.Logger,
		cron:     cron.New(),
	}
}

// Start registers the cron entry and begins scheduling.
func (r *Refresher) Start() error {
	if _, err := r.cron.AddFunc(r.schedule, r.tick); err != nil {
		return fmt.Errorf("register refresh schedule %q: %w", r.schedule, err)
	}
	r.cron.Start()
	r.log.Infow("rankings refresher started", "schedule", r.schedule, "timeout", r.timeout)
	return nil
}

// Stop halts scheduling and waits for an in-flight run to finish.
func (r *Refresher) Stop() {
	<-r.cron.Stop().Done()
	r.log.Info("rankings refresher stopped")
}

func (r *Refresher) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	// RunOnce logs and counts every outcome.
	_ = r.RunOnce(ctx)
}

// RunOnce executes a single refresh pass synchronously. A pass already
// in flight is reported as skipped, not failed.
func (r *Refresher) RunOnce(ctx context.Context) error {
	start := time.Now()
	refreshRuns.Inc()

	snap, err := r.rankings.Refresh(ctx)
	if err != nil {
		if errors.Is(err, logic.ErrRefreshRunning) {
			refreshSkipped.Inc()
			r.log.Warnw("rankings refresh already in flight, skipping", "schedule", r.schedule)
			return err
		}
		refreshFailures.Inc()
		r.log.Errorw("rankings refresh failed", "error", err, "duration", time.Since(start))
		return err
	}

	refreshDuration.Observe(time.Since(start).Seconds())
	r.log.Infow("rankings refresh run finished",
		"teams", len(snap.Teams),
		"events_used", snap.EventsUsed,
		"duration", time.Since(start))
	return nil
}
