package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskFinanceWarmup recomputes the daily financial snapshots so the
	// first dashboard read of the day lands on a warm cache.
	TaskFinanceWarmup = "finance:warmup"
	// FinanceWarmupCronSpec runs the warmup nightly at 02:10 UTC.
	FinanceWarmupCronSpec = "10 2 * * *"
)

// SnapshotWarmer is implemented by the finance service.
type SnapshotWarmer interface {
	WarmDaily(ctx context.Context) error
}

// NewFinanceWarmupTask constructs the warmup task; it carries no payload.
func NewFinanceWarmupTask() *asynq.Task {
	return asynq.NewTask(TaskFinanceWarmup, nil)
}

// FinanceWarmupJob recomputes daily snapshots on schedule.
type FinanceWarmupJob struct {
	Warmer SnapshotWarmer
	Logger *slog.Logger
}

// NewFinanceWarmupJob initialises the warmup handler.
func NewFinanceWarmupJob(warmer SnapshotWarmer, logger *slog.Logger) *FinanceWarmupJob {
	return &FinanceWarmupJob{Warmer: warmer, Logger: logger}
}

// Handle executes the warmup.
func (j *FinanceWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Warmer == nil {
		return errors.New("finance warmup: handler not configured")
	}
	start := time.Now()
	j.Logger.Info("starting finance warmup")
	if err := j.Warmer.WarmDaily(ctx); err != nil {
		j.Logger.Error("finance warmup failed", slog.Any("error", err))
		return err
	}
	j.Logger.Info("completed finance warmup", slog.Duration("duration", time.Since(start)))
	return nil
}
