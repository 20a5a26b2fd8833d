package maintenance

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/lovpen/lovpen-server/internal/cache"
	"github.com/lovpen/lovpen-server/internal/services"
	"github.com/lovpen/lovpen-server/pkg/logger"
	"github.com/lovpen/lovpen-server/pkg/metrics"
)

const (
	defaultStatsSpec = "0 */5 * * * *"
	defaultPurgeSpec = "0 0 * * * *"

	JobWaitlistStats = "waitlist_stats"
	JobCachePurge    = "cache_purge"
)

// JobStatus summarises the run history of one maintenance job.
type JobStatus struct {
	Job                 string    `json:"job"`
	Runs                int       `json:"runs"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	LastRunAt           time.Time `json:"last_run_at"`
	LastError           string    `json:"last_error,omitempty"`
}

// StatsSource reports the current waitlist summary.
type StatsSource interface {
	Stats(ctx context.Context) (services.WaitlistStats, error)
}

// Cleaner runs periodic upkeep: refreshing waitlist gauges and sweeping
// expired cache rows.
type Cleaner struct {
	stats  StatsSource
	purger cache.Purger
	cron   *cron.Cron
	log    *zap.Logger
	now    func() time.Time

	mu   sync.Mutex
	jobs map[string]*JobStatus

	statsSchedule string
	purgeSchedule string
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

// WithStatsSchedule overrides the cron specification for the gauge refresh.
func WithStatsSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.statsSchedule = spec
		}
	}
}

// WithPurgeSchedule overrides the cron specification for the cache sweep.
func WithPurgeSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.purgeSchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner. A nil dependency skips its job.
func NewCleaner(stats StatsSource, purger cache.Purger, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		stats:         stats,
		purger:        purger,
		statsSchedule: defaultStatsSpec,
		purgeSchedule: defaultPurgeSpec,
		log:           logger.WithModule("maintenance"),
		now:           time.Now,
		jobs:          make(map[string]*JobStatus),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithSeconds(), cron.WithLogger(cron.DiscardLogger))
	}

	return cleaner
}

// Start registers the jobs and launches the scheduler. Gauges are refreshed
// once immediately so /metrics is populated before the first tick.
func (c *Cleaner) Start(ctx context.Context) error {
	if c.stats == nil && c.purger == nil {
		return nil
	}

	if c.stats != nil {
		if _, err := c.cron.AddFunc(c.statsSchedule, func() {
			if err := c.RefreshGauges(context.Background()); err != nil {
				c.log.Warn("waitlist gauge refresh failed", zap.Error(err))
			}
		}); err != nil {
			return fmt.Errorf("maintenance: schedule stats: %w", err)
		}
		if err := c.RefreshGauges(ctx); err != nil {
			c.log.Warn("initial waitlist gauge refresh failed", zap.Error(err))
		}
	}

	if c.purger != nil {
		if _, err := c.cron.AddFunc(c.purgeSchedule, func() {
			if _, err := c.PurgeCache(context.Background()); err != nil {
				c.log.Warn("cache purge failed", zap.Error(err))
			}
		}); err != nil {
			return fmt.Errorf("maintenance: schedule purge: %w", err)
		}
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler. The returned context is done once running jobs finish.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes every configured job sequentially and aggregates their errors.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error
	if c.stats != nil {
		errs = multierr.Append(errs, c.RefreshGauges(ctx))
	}
	if c.purger != nil {
		_, err := c.PurgeCache(ctx)
		errs = multierr.Append(errs, err)
	}
	return errs
}

// RefreshGauges publishes per-status and per-tier waitlist counts.
func (c *Cleaner) RefreshGauges(ctx context.Context) error {
	if c.stats == nil {
		return errors.New("maintenance: stats source not configured")
	}

	stats, err := c.stats.Stats(ctx)
	if err != nil {
		err = fmt.Errorf("maintenance: load stats: %w", err)
		c.record(JobWaitlistStats, err)
		return err
	}
	c.record(JobWaitlistStats, nil)

	for status, count := range stats.ByStatus {
		metrics.WaitlistEntries.WithLabelValues(string(status)).Set(float64(count))
	}
	for tier, count := range stats.PendingByTier {
		metrics.WaitlistPendingByTier.WithLabelValues(string(tier)).Set(float64(count))
	}
	return nil
}

// PurgeCache removes expired cache rows.
func (c *Cleaner) PurgeCache(ctx context.Context) (int64, error) {
	if c.purger == nil {
		return 0, errors.New("maintenance: purger not configured")
	}

	removed, err := c.purger.PurgeExpired(ctx)
	c.record(JobCachePurge, err)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		c.log.Debug("purged expired cache entries", zap.Int64("count", removed))
	}
	return removed, nil
}

// Jobs returns the run history of every job that has run at least once,
// ordered by job name.
func (c *Cleaner) Jobs() []JobStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]JobStatus, 0, len(c.jobs))
	for _, job := range c.jobs {
		out = append(out, *job)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Job < out[j].Job })
	return out
}

func (c *Cleaner) record(job string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	status, ok := c.jobs[job]
	if !ok {
		status = &JobStatus{Job: job}
		c.jobs[job] = status
	}
	status.Runs++
	status.LastRunAt = c.now().UTC()
	if err != nil {
		status.ConsecutiveFailures++
		status.LastError = err.Error()
		return
	}
	status.ConsecutiveFailures = 0
	status.LastError = ""
}
