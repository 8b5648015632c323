package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// RetentionSchedule runs the purge once a day at 03:00 local time.
const RetentionSchedule = "0 3 * * *"

// PurgeExpired deletes audits created more than retention before now.
func PurgeExpired(ctx context.Context, repo AuditRepository, retention time.Duration, now time.Time) (int64, error) {
	return repo.PurgeOlderThan(ctx, now.Add(-retention))
}

// StartRetention schedules PurgeExpired on RetentionSchedule. The caller stops
// the returned cron. A non-positive retention disables the job and returns nil.
func StartRetention(repo AuditRepository, retention time.Duration, logger *slog.Logger) (*cron.Cron, error) {
	if retention <= 0 {
		return nil, nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := cron.New()
	_, err := c.AddFunc(RetentionSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		n, err := PurgeExpired(ctx, repo, retention, time.Now())
		if err != nil {
			logger.Error("retention.purge.failed", "error", err)
			return
		}
		logger.Info("retention.purge.ok", "deleted", n, "retention", retention.String())
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
