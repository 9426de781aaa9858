package storage

import (
	"context"
	"time"

	"go-cms/internal/config"

	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// sweeper is implemented by trackers that cannot expire sessions on their own
type sweeper interface {
	Sweep(olderThan time.Duration) []string
}

// Reaper removes abandoned upload sessions and their temp directories.
// It only runs when SESSION_SWEEP_SCHEDULE is set.
type Reaper struct {
	tracker   SessionTracker
	relocator Relocator
	ttl       time.Duration
	schedule  string
	scheduler *cron.Cron
	logger    *zap.Logger
}

func NewReaper(cfg *config.Config, tracker SessionTracker, relocator Relocator, logger *zap.Logger) *Reaper {
	return &Reaper{
		tracker:   tracker,
		relocator: relocator,
		ttl:       cfg.SessionTTL,
		schedule:  cfg.SessionSweepSchedule,
		logger:    logger,
	}
}

// RunOnce sweeps sessions idle for longer than olderThan
func (r *Reaper) RunOnce(olderThan time.Duration) (sessions int, dirs int) {
	if sw, ok := r.tracker.(sweeper); ok {
		sessions = len(sw.Sweep(olderThan))
	}

	dirs, err := r.relocator.SweepTemp(olderThan)
	if err != nil {
		r.logger.Error("Failed to sweep temp storage", zap.Error(err))
	}

	if sessions > 0 || dirs > 0 {
		SweptSessionsTotal.Add(float64(sessions))
		r.logger.Info("Swept abandoned upload sessions",
			zap.Int("sessions", sessions), zap.Int("directories", dirs))
	}
	return sessions, dirs
}

func (r *Reaper) Start() error {
	if r.schedule == "" {
		r.logger.Info("Upload session reaper disabled")
		return nil
	}

	r.scheduler = cron.New()
	if _, err := r.scheduler.AddFunc(r.schedule, func() { r.RunOnce(r.ttl) }); err != nil {
		return err
	}
	r.scheduler.Start()
	r.logger.Info("Upload session reaper started", zap.String("schedule", r.schedule))
	return nil
}

func (r *Reaper) Stop() {
	if r.scheduler != nil {
		ctx := r.scheduler.Stop()
		<-ctx.Done()
	}
}

func RegisterReaper(lc fx.Lifecycle, r *Reaper) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return r.Start()
		},
		OnStop: func(ctx context.Context) error {
			r.Stop()
			return nil
		},
	})
}
