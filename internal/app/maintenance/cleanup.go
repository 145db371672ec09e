package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	iauth "github.com/bcastudynepal/portal/internal/auth"
	"github.com/bcastudynepal/portal/pkg/logger"
)

const defaultSchedule = "@hourly"

// Sweeper drops expired entries from an in-memory store and reports how many
// were removed. cache.MemoryStore satisfies it.
type Sweeper interface {
	Sweep() int
}

// Cleaner coordinates background maintenance: revoking expired sessions,
// discarding abandoned registrations and reset tokens, and sweeping expired
// cache entries.
type Cleaner struct {
	sessions      *iauth.SessionService
	registrations *iauth.RegistrationService
	resets        *iauth.PasswordResetService
	cache         Sweeper
	cron          *cron.Cron
	log           *zap.Logger
	enabled       bool
	schedule      string
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

// WithSchedule overrides the cron specification shared by all cleanup jobs.
func WithSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.schedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults. Any nil dependency
// results in the corresponding cleanup job being skipped.
func NewCleaner(sessions *iauth.SessionService, registrations *iauth.RegistrationService, resets *iauth.PasswordResetService, cache Sweeper, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		sessions:      sessions,
		registrations: registrations,
		resets:        resets,
		cache:         cache,
		schedule:      defaultSchedule,
		log:           logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	cleaner.enabled = cleaner.sessions != nil || cleaner.registrations != nil ||
		cleaner.resets != nil || cleaner.cache != nil

	return cleaner
}

// Start registers the cleanup job with the cron scheduler and launches it if
// at least one cleanup is enabled.
func (c *Cleaner) Start() error {
	if !c.enabled {
		return nil
	}

	if _, err := c.cron.AddFunc(c.schedule, func() {
		if err := c.RunOnce(context.Background()); err != nil {
			c.log.Warn("maintenance run failed", zap.Error(err))
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

// RunOnce executes all configured cleanup routines sequentially. Also used
// during graceful shutdown so the final state on disk is tidy.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error
	start := time.Now()

	if c.sessions != nil {
		removed, err := c.sessions.CleanupExpired(ctx)
		if err != nil {
			errs = multierr.Append(errs, err)
		} else if removed > 0 {
			c.log.Info("expired sessions revoked", zap.Int64("count", removed))
		}
	}

	if c.registrations != nil {
		removed, err := c.registrations.SweepExpired(ctx)
		if err != nil {
			errs = multierr.Append(errs, err)
		} else if removed > 0 {
			c.log.Info("abandoned registrations discarded", zap.Int("count", removed))
		}
	}

	if c.resets != nil {
		removed, err := c.resets.SweepExpired(ctx)
		if err != nil {
			errs = multierr.Append(errs, err)
		} else if removed > 0 {
			c.log.Info("stale reset tokens discarded", zap.Int("count", removed))
		}
	}

	if c.cache != nil {
		if removed := c.cache.Sweep(); removed > 0 {
			c.log.Debug("cache entries swept", zap.Int("count", removed))
		}
	}

	if errs == nil {
		c.log.Debug("maintenance run complete", zap.Duration("elapsed", time.Since(start)))
	}

	return errs
}
