package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"underwriting-engine/internal/infrastructure/monitoring"

	"github.com/robfig/cron/v3"
)

const (
	DefaultCreditSnapshotSchedule = "0 2 * * *"
	DefaultCreditSnapshotTimeout  = 30 * time.Minute

	runStatusSuccess = "success"
	runStatusPartial = "partial"
	runStatusFailed  = "failed"
)

type SnapshotRefresher interface {
	RefreshSnapshots(ctx context.Context) (int, error)
}

// CreditSnapshotJob recomputes every customer's credit score and stores it
// so that score lookups are served from the snapshot cache.
type CreditSnapshotJob struct {
	refresher SnapshotRefresher
	timeout   time.Duration
	logger    *slog.Logger
}

func NewCreditSnapshotJob(refresher SnapshotRefresher, timeout time.Duration, logger *slog.Logger) *CreditSnapshotJob {
	if refresher == nil || logger == nil {
		panic("CreditSnapshotJob dependencies cannot be nil")
	}
	if timeout <= 0 {
		timeout = DefaultCreditSnapshotTimeout
	}
	return &CreditSnapshotJob{
		refresher: refresher,
		timeout:   timeout,
		logger:    logger.With("job", "CreditSnapshot"),
	}
}

func (j *CreditSnapshotJob) Run(ctx context.Context) error {
	startTime := time.Now()
	j.logger.InfoContext(ctx, "Starting credit score snapshot job.")

	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	refreshed, err := j.refresher.RefreshSnapshots(ctx)
	summaryLog := j.logger.With(
		slog.Duration("duration", time.Since(startTime)),
		slog.Int("snapshots_refreshed", refreshed),
	)

	switch {
	case err == nil:
		monitoring.RecordSnapshotRun(runStatusSuccess)
		summaryLog.InfoContext(ctx, "Credit score snapshot job finished successfully.")
		return nil
	case refreshed > 0:
		monitoring.RecordSnapshotRun(runStatusPartial)
		summaryLog.WarnContext(ctx, "Credit score snapshot job finished with errors.", slog.Any("error", err))
	default:
		monitoring.RecordSnapshotRun(runStatusFailed)
		summaryLog.ErrorContext(ctx, "Credit score snapshot job failed.", slog.Any("error", err))
	}
	return fmt.Errorf("credit snapshot job: %w", err)
}

// Schedule registers the job on the cron scheduler. An empty schedule uses
// DefaultCreditSnapshotSchedule.
func (j *CreditSnapshotJob) Schedule(c *cron.Cron, schedule string) (cron.EntryID, error) {
	if schedule == "" {
		schedule = DefaultCreditSnapshotSchedule
		j.logger.Warn("Credit snapshot schedule not configured, using default", "schedule", schedule)
	}

	id, err := c.AddJob(schedule, cron.FuncJob(func() {
		j.logger.Info("Cron triggered: running credit score snapshot job.")
		if runErr := j.Run(context.Background()); runErr != nil {
			j.logger.Error("Credit score snapshot job finished with error", slog.Any("error", runErr))
		}
	}))
	if err != nil {
		return 0, fmt.Errorf("failed to schedule credit snapshot job %q: %w", schedule, err)
	}

	j.logger.Info("Scheduled credit score snapshot job", "schedule", schedule, "job_id", id)
	return id, nil
}
