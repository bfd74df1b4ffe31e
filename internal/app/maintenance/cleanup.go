package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	iauth "github.com/eventplaza/eventplaza/internal/auth"
	"github.com/eventplaza/eventplaza/internal/models"
	"github.com/eventplaza/eventplaza/pkg/logger"
)

const (
	defaultSessionSpec = "@hourly"
	defaultTaskSpec    = "@daily"
)

// Cleaner coordinates background maintenance tasks such as purging expired
// sessions and sweeping tasks whose event no longer exists.
type Cleaner struct {
	db       *gorm.DB
	sessions *iauth.SessionService
	cron     *cron.Cron
	log      *zap.Logger
	enabled  bool

	sessionSchedule string
	taskSchedule    string
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

// WithSessionSchedule overrides the cron specification for session cleanup.
func WithSessionSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.sessionSchedule = spec
		}
	}
}

// WithTaskSchedule overrides the cron specification for the orphaned task sweep.
func WithTaskSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.taskSchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults. Any nil dependency
// results in the corresponding cleanup job being skipped.
func NewCleaner(db *gorm.DB, sessions *iauth.SessionService, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		db:              db,
		sessions:        sessions,
		sessionSchedule: defaultSessionSpec,
		taskSchedule:    defaultTaskSpec,
		log:             logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	cleaner.enabled = cleaner.sessions != nil || cleaner.db != nil

	return cleaner
}

// Start registers cleanup jobs with the cron scheduler and launches it if at
// least one cleanup is enabled.
func (c *Cleaner) Start() error {
	if !c.enabled {
		return nil
	}

	if c.sessions != nil {
		if _, err := c.cron.AddFunc(c.sessionSchedule, func() {
			ctx := context.Background()
			if _, err := c.sessions.CleanupExpired(ctx); err != nil {
				c.log.Warn("session cleanup failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	if c.db != nil {
		if _, err := c.cron.AddFunc(c.taskSchedule, func() {
			ctx := context.Background()
			if _, err := CleanupOrphanedTasks(ctx, c.db); err != nil {
				c.log.Warn("orphaned task cleanup failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
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

// RunOnce executes all configured cleanup routines sequentially. Primarily
// used in tests and during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	if c.sessions != nil {
		if _, err := c.sessions.CleanupExpired(ctx); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	if c.db != nil {
		if _, err := CleanupOrphanedTasks(ctx, c.db); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}

// CleanupOrphanedTasks removes tasks whose parent event has been deleted.
// SQLite does not enforce the cascade unless foreign keys are switched on,
// so the sweep keeps the table consistent across drivers.
func CleanupOrphanedTasks(ctx context.Context, db *gorm.DB) (int64, error) {
	if db == nil {
		return 0, errors.New("cleanup tasks: db is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	result := db.WithContext(ctx).
		Where("event_id NOT IN (?)", db.Model(&models.Event{}).Select("id")).
		Delete(&models.Task{})
	if result.Error != nil {
		return 0, fmt.Errorf("cleanup tasks: %w", result.Error)
	}

	return result.RowsAffected, nil
}

// NextRuns reports the scheduled entries, useful for logging at start-up.
func (c *Cleaner) NextRuns() []time.Time {
	entries := c.cron.Entries()
	runs := make([]time.Time, 0, len(entries))
	for _, entry := range entries {
		runs = append(runs, entry.Next)
	}
	return runs
}
