package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// CleanupJobName labels the repaired-ticket sweep in logs and metrics.
const CleanupJobName = "repaired-ticket-cleanup"

type ticketCleaner interface {
	Cleanup(ctx context.Context, now time.Time) (int, error)
	Retention() time.Duration
}

type cleanupJob struct {
	cleaner ticketCleaner
	logger  *zap.Logger
	now     func() time.Time
}

// NewCleanupJob removes repaired tickets older than the service retention.
func NewCleanupJob(cleaner ticketCleaner, logger *zap.Logger) (Job, error) {
	if cleaner == nil {
		return nil, errors.New("ticket cleaner required")
	}
	if logger == nil {
		return nil, errors.New("logger required")
	}
	return &cleanupJob{cleaner: cleaner, logger: logger, now: time.Now}, nil
}

func (j *cleanupJob) Name() string { return CleanupJobName }

func (j *cleanupJob) Run(ctx context.Context) error {
	now := j.now()
	removed, err := j.cleaner.Cleanup(ctx, now)
	if err != nil {
		return fmt.Errorf("repaired ticket cleanup: %w", err)
	}
	j.logger.Info("repaired ticket cleanup complete",
		zap.Int("removed", removed),
		zap.Duration("retention", j.cleaner.Retention()),
		zap.Time("cutoff", now.Add(-j.cleaner.Retention())))
	return nil
}
