package cron

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/covergrid/tenantcore/pkg/tenant"
)

// Job is a unit of work executed once per active tenant per firing. It runs
// inside a tenant scope, so tenant context queries work without explicit
// plumbing.
type Job func(ctx context.Context, t *tenant.Tenant) error

// TenantLister supplies the tenants to iterate on each firing. Normally the
// cached tenant directory service.
type TenantLister interface {
	ListActive(ctx context.Context) ([]*tenant.Tenant, error)
}

// Runner drives registered jobs: on each firing it fetches the active
// tenants and runs the job once per tenant inside that tenant's scope. One
// tenant's failure (error, panic or cancellation) is logged and isolated; it
// never prevents the remaining tenants from being processed.
//
// Firings are best-effort on the wall clock: a missed firing (process down,
// previous firing overran) is not backfilled, the job simply fires at its
// next scheduled time.
type Runner struct {
	tenants TenantLister

	mu   sync.RWMutex
	jobs map[string]*registeredJob

	checkInterval time.Duration
	concurrency   int
	jobTimeout    time.Duration
	failureRatio  float64
	logger        *slog.Logger
}

type registeredJob struct {
	name     string
	schedule Schedule
	run      Job
	nextRun  time.Time
}

// NewRunner creates a cross-tenant job runner.
func NewRunner(tenants TenantLister, opts ...RunnerOption) (*Runner, error) {
	if tenants == nil {
		return nil, ErrNilTenantLister
	}

	r := &Runner{
		tenants:       tenants,
		jobs:          make(map[string]*registeredJob),
		checkInterval: 30 * time.Second,
		concurrency:   1,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// AddJob registers a periodic job under a unique name.
func (r *Runner) AddJob(name string, schedule Schedule, job Job) error {
	if name == "" || schedule == nil || job == nil {
		return ErrInvalidJob
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[name]; exists {
		return fmt.Errorf("%w: %s", ErrJobAlreadyRegistered, name)
	}
	r.jobs[name] = &registeredJob{name: name, schedule: schedule, run: job}

	r.logger.Info("registered cross-tenant job",
		slog.String("job", name),
		slog.String("schedule", schedule.String()))
	return nil
}

// Jobs returns the names of all registered jobs.
func (r *Runner) Jobs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.jobs))
	for name := range r.jobs {
		names = append(names, name)
	}
	return names
}

// Start runs the firing loop until ctx is cancelled. Each job's first firing
// is scheduled from the moment Start is called.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	if len(r.jobs) == 0 {
		r.mu.Unlock()
		return ErrNoJobsRegistered
	}
	now := time.Now()
	for _, job := range r.jobs {
		job.nextRun = job.schedule.Next(now)
	}
	r.mu.Unlock()

	ticker := time.NewTicker(r.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("cross-tenant runner shutting down")
			return ctx.Err()
		case <-ticker.C:
			r.fireDue(ctx, time.Now())
		}
	}
}

// fireDue fires every job whose deadline has passed. The next firing is
// computed from now, not from the missed deadline, so downtime is never
// backfilled.
func (r *Runner) fireDue(ctx context.Context, now time.Time) {
	r.mu.Lock()
	var due []*registeredJob
	for _, job := range r.jobs {
		if !job.nextRun.After(now) {
			due = append(due, job)
			job.nextRun = job.schedule.Next(now)
		}
	}
	r.mu.Unlock()

	for _, job := range due {
		r.fire(ctx, job)
	}
}

// TriggerNow fires a registered job immediately, outside its schedule.
// Used by admin endpoints and tests.
func (r *Runner) TriggerNow(ctx context.Context, name string) error {
	r.mu.RLock()
	job, ok := r.jobs[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotRegistered, name)
	}
	r.fire(ctx, job)
	return nil
}

// fire runs one job once per active tenant.
func (r *Runner) fire(ctx context.Context, job *registeredJob) {
	firingID := uuid.New()
	log := r.logger.With(
		slog.String("job", job.name),
		slog.String("firing_id", firingID.String()))

	tenants, err := r.tenants.ListActive(ctx)
	if err != nil {
		log.ErrorContext(ctx, "failed to list active tenants, skipping firing",
			slog.String("error", err.Error()))
		return
	}
	if len(tenants) == 0 {
		log.DebugContext(ctx, "no active tenants")
		return
	}

	started := time.Now()

	var (
		failMu sync.Mutex
		failed []int64
	)

	g := &errgroup.Group{}
	g.SetLimit(r.concurrency)
	for _, t := range tenants {
		g.Go(func() error {
			if err := r.runForTenant(ctx, job, t); err != nil {
				log.ErrorContext(ctx, "tenant job iteration failed",
					slog.Int64("tenant_id", t.ID),
					slog.String("error", err.Error()))
				failMu.Lock()
				failed = append(failed, t.ID)
				failMu.Unlock()
			}
			// Failures are isolated per tenant; never cancel the group.
			return nil
		})
	}
	_ = g.Wait()

	attrs := []any{
		slog.Int("tenants", len(tenants)),
		slog.Int("failed", len(failed)),
		slog.Duration("elapsed", time.Since(started)),
	}
	switch {
	case len(failed) == 0:
		log.InfoContext(ctx, "cross-tenant job completed", attrs...)
	case r.failureRatio > 0 && float64(len(failed))/float64(len(tenants)) >= r.failureRatio:
		log.ErrorContext(ctx, "cross-tenant job failure threshold exceeded",
			append(attrs, slog.Any("failed_tenant_ids", failed))...)
	default:
		log.WarnContext(ctx, "cross-tenant job completed with partial failures",
			append(attrs, slog.Any("failed_tenant_ids", failed))...)
	}
}

// runForTenant executes one tenant's iteration inside that tenant's scope,
// converting panics into errors so a single tenant cannot take down the
// firing.
func (r *Runner) runForTenant(ctx context.Context, job *registeredJob, t *tenant.Tenant) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrJobPanicked, rec)
		}
	}()

	if r.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.jobTimeout)
		defer cancel()
	}

	return tenant.RunWithTenant(ctx, t, func(ctx context.Context) error {
		return job.run(ctx, t)
	})
}
