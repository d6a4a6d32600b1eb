package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/nvoss/brewid/internal/store"
	"github.com/nvoss/brewid/pkg/logger"
	"github.com/nvoss/brewid/pkg/metrics"
)

const (
	defaultRetentionDays = 2
	// Runs daily at 03:00 UTC, a quiet window for the account table.
	defaultPurgeSpec = "0 3 * * *"
)

// Cleaner schedules the background purge of stale unverified accounts.
type Cleaner struct {
	users     store.UserStore
	cron      *cron.Cron
	now       func() time.Time
	log       *zap.Logger
	retention int
	schedule  string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for retention comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithRetentionDays adjusts how long unverified accounts are kept before purging.
func WithRetentionDays(days int) Option {
	return func(cleaner *Cleaner) {
		if days > 0 {
			cleaner.retention = days
		}
	}
}

// WithSchedule overrides the cron specification for the purge job.
func WithSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.schedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults.
func NewCleaner(users store.UserStore, opts ...Option) (*Cleaner, error) {
	if users == nil {
		return nil, errors.New("cleaner: user store is required")
	}

	cleaner := &Cleaner{
		users:     users,
		now:       time.Now,
		retention: defaultRetentionDays,
		schedule:  defaultPurgeSpec,
		log:       logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger), cron.WithLocation(time.UTC))
	}

	return cleaner, nil
}

// Start registers the purge job with the cron scheduler and launches it.
func (c *Cleaner) Start() error {
	if _, err := c.cron.AddFunc(c.schedule, func() {
		if err := c.RunOnce(context.Background()); err != nil {
			c.log.Warn("account purge failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes the purge immediately. Used by the scheduler, at graceful
// shutdown and in tests.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	report, err := PurgeUnverified(ctx, c.users, c.now(), c.retention)
	if err != nil {
		errs = multierr.Append(errs, err)
	} else if report.Deleted > 0 {
		c.log.Info("purged stale unverified accounts",
			zap.Int64("deleted", report.Deleted),
			zap.Strings("emails", report.Emails),
			zap.Time("cutoff", report.Cutoff))
	}

	return errs
}

// PurgeReport summarises a purge run.
type PurgeReport struct {
	Cutoff  time.Time
	UserIDs []uint
	Emails  []string
	Deleted int64
}

// PurgeUnverified deletes unverified accounts created before now minus the
// retention window. Candidates are re-checked in UTC before the single bulk
// delete; nothing is written when no account qualifies.
func PurgeUnverified(ctx context.Context, users store.UserStore, now time.Time, retentionDays int) (PurgeReport, error) {
	if users == nil {
		return PurgeReport{}, errors.New("purge unverified: user store is required")
	}
	if retentionDays <= 0 {
		retentionDays = defaultRetentionDays
	}
	if ctx == nil {
		ctx = context.Background()
	}

	cutoff := now.UTC().Add(-time.Duration(retentionDays) * 24 * time.Hour)
	report := PurgeReport{Cutoff: cutoff}

	candidates, err := users.FindUnverifiedBefore(ctx, cutoff)
	if err != nil {
		return report, fmt.Errorf("purge unverified: find candidates: %w", err)
	}

	for _, user := range candidates {
		if user.IsVerified || !user.CreatedAt.UTC().Before(cutoff) {
			continue
		}
		report.UserIDs = append(report.UserIDs, user.ID)
		report.Emails = append(report.Emails, user.Email)
	}

	if len(report.UserIDs) == 0 {
		return report, nil
	}

	deleted, err := users.DeleteByIDs(ctx, report.UserIDs)
	if err != nil {
		return report, fmt.Errorf("purge unverified: delete: %w", err)
	}

	report.Deleted = deleted
	metrics.PurgedAccounts.Add(float64(deleted))
	return report, nil
}
