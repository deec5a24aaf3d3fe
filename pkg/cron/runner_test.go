package cron_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covergrid/tenantcore/pkg/cron"
	"github.com/covergrid/tenantcore/pkg/tenant"
)

func cronTenant(id int64, identifier string, active bool) *tenant.Tenant {
	return &tenant.Tenant{
		ID:             id,
		Identifier:     identifier,
		Active:         active,
		EnabledModules: map[string]bool{"Reporting": id == 1},
	}
}

// visitRecorder tracks which tenants a job visited, in a goroutine-safe way.
type visitRecorder struct {
	mu      sync.Mutex
	visited []int64
}

func (r *visitRecorder) record(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.visited = append(r.visited, id)
}

func (r *visitRecorder) ids() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.visited...)
}

type failingLister struct{ err error }

func (l failingLister) ListActive(context.Context) ([]*tenant.Tenant, error) {
	return nil, l.err
}

func TestNewRunner(t *testing.T) {
	t.Parallel()

	t.Run("rejects nil tenant lister", func(t *testing.T) {
		t.Parallel()

		_, err := cron.NewRunner(nil)
		require.ErrorIs(t, err, cron.ErrNilTenantLister)
	})
}

func TestAddJob(t *testing.T) {
	t.Parallel()

	newRunner := func(t *testing.T) *cron.Runner {
		t.Helper()
		r, err := cron.NewRunner(tenant.NewMemoryDirectory())
		require.NoError(t, err)
		return r
	}

	noop := func(context.Context, *tenant.Tenant) error { return nil }

	t.Run("registers and lists jobs", func(t *testing.T) {
		t.Parallel()

		r := newRunner(t)
		require.NoError(t, r.AddJob("nightly-billing", cron.DailyAt(3, 0), noop))
		require.NoError(t, r.AddJob("hourly-sync", cron.Hourly(), noop))

		assert.ElementsMatch(t, []string{"nightly-billing", "hourly-sync"}, r.Jobs())
	})

	t.Run("rejects duplicate names", func(t *testing.T) {
		t.Parallel()

		r := newRunner(t)
		require.NoError(t, r.AddJob("nightly-billing", cron.DailyAt(3, 0), noop))
		require.ErrorIs(t,
			r.AddJob("nightly-billing", cron.Hourly(), noop),
			cron.ErrJobAlreadyRegistered)
	})

	t.Run("rejects incomplete registrations", func(t *testing.T) {
		t.Parallel()

		r := newRunner(t)
		require.ErrorIs(t, r.AddJob("", cron.Hourly(), noop), cron.ErrInvalidJob)
		require.ErrorIs(t, r.AddJob("x", nil, noop), cron.ErrInvalidJob)
		require.ErrorIs(t, r.AddJob("x", cron.Hourly(), nil), cron.ErrInvalidJob)
	})
}

func TestTriggerNow(t *testing.T) {
	t.Parallel()

	t.Run("visits every active tenant exactly once", func(t *testing.T) {
		t.Parallel()

		dir := tenant.NewMemoryDirectory(
			cronTenant(1, "acme", true),
			cronTenant(2, "globex", true),
			cronTenant(3, "initech", false),
		)
		r, err := cron.NewRunner(dir)
		require.NoError(t, err)

		rec := &visitRecorder{}
		require.NoError(t, r.AddJob("sweep", cron.Hourly(), func(_ context.Context, t *tenant.Tenant) error {
			rec.record(t.ID)
			return nil
		}))

		require.NoError(t, r.TriggerNow(context.Background(), "sweep"))

		// The inactive tenant is never visited.
		assert.ElementsMatch(t, []int64{1, 2}, rec.ids())
	})

	t.Run("job runs inside the tenant scope", func(t *testing.T) {
		t.Parallel()

		dir := tenant.NewMemoryDirectory(cronTenant(1, "acme", true))
		r, err := cron.NewRunner(dir)
		require.NoError(t, err)

		require.NoError(t, r.AddJob("report", cron.Hourly(), func(ctx context.Context, want *tenant.Tenant) error {
			got, ok := tenant.FromContext(ctx)
			if !ok || got.ID != want.ID {
				return errors.New("scope not installed")
			}
			if !tenant.ModuleEnabled(ctx, "Reporting") {
				return errors.New("module flags not ambient")
			}
			return nil
		}))

		require.NoError(t, r.TriggerNow(context.Background(), "report"))
	})

	t.Run("one tenant's failure never blocks the rest", func(t *testing.T) {
		t.Parallel()

		dir := tenant.NewMemoryDirectory(
			cronTenant(1, "acme", true),
			cronTenant(2, "globex", true),
			cronTenant(3, "initech", false),
		)
		r, err := cron.NewRunner(dir)
		require.NoError(t, err)

		rec := &visitRecorder{}
		require.NoError(t, r.AddJob("report", cron.Hourly(), func(_ context.Context, t *tenant.Tenant) error {
			rec.record(t.ID)
			if !t.ModuleEnabled("Reporting") {
				return errors.New("reporting disabled")
			}
			return nil
		}))

		require.NoError(t, r.TriggerNow(context.Background(), "report"))

		// The failing tenant was attempted and the other one completed; the
		// inactive tenant never appears.
		assert.ElementsMatch(t, []int64{1, 2}, rec.ids())
	})

	t.Run("a panicking tenant is isolated", func(t *testing.T) {
		t.Parallel()

		dir := tenant.NewMemoryDirectory(
			cronTenant(1, "acme", true),
			cronTenant(2, "globex", true),
		)
		r, err := cron.NewRunner(dir)
		require.NoError(t, err)

		rec := &visitRecorder{}
		require.NoError(t, r.AddJob("sweep", cron.Hourly(), func(_ context.Context, t *tenant.Tenant) error {
			rec.record(t.ID)
			if t.ID == 1 {
				panic("corrupt tenant data")
			}
			return nil
		}))

		require.NotPanics(t, func() {
			require.NoError(t, r.TriggerNow(context.Background(), "sweep"))
		})
		assert.ElementsMatch(t, []int64{1, 2}, rec.ids())
	})

	t.Run("job timeout bounds each iteration", func(t *testing.T) {
		t.Parallel()

		dir := tenant.NewMemoryDirectory(
			cronTenant(1, "acme", true),
			cronTenant(2, "globex", true),
		)
		r, err := cron.NewRunner(dir, cron.WithJobTimeout(20*time.Millisecond))
		require.NoError(t, err)

		rec := &visitRecorder{}
		require.NoError(t, r.AddJob("slow", cron.Hourly(), func(ctx context.Context, t *tenant.Tenant) error {
			rec.record(t.ID)
			if t.ID == 1 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(time.Second):
					return errors.New("deadline not applied")
				}
			}
			return nil
		}))

		require.NoError(t, r.TriggerNow(context.Background(), "slow"))
		assert.ElementsMatch(t, []int64{1, 2}, rec.ids())
	})

	t.Run("concurrent firing still visits every tenant", func(t *testing.T) {
		t.Parallel()

		tenants := make([]*tenant.Tenant, 0, 8)
		want := make([]int64, 0, 8)
		for i := int64(1); i <= 8; i++ {
			tenants = append(tenants, cronTenant(i, "t"+string(rune('a'+i)), true))
			want = append(want, i)
		}
		dir := tenant.NewMemoryDirectory(tenants...)

		r, err := cron.NewRunner(dir, cron.WithConcurrency(4))
		require.NoError(t, err)

		rec := &visitRecorder{}
		require.NoError(t, r.AddJob("fanout", cron.Hourly(), func(_ context.Context, t *tenant.Tenant) error {
			rec.record(t.ID)
			return nil
		}))

		require.NoError(t, r.TriggerNow(context.Background(), "fanout"))
		assert.ElementsMatch(t, want, rec.ids())
	})

	t.Run("unknown job", func(t *testing.T) {
		t.Parallel()

		r, err := cron.NewRunner(tenant.NewMemoryDirectory())
		require.NoError(t, err)
		require.NoError(t, r.AddJob("known", cron.Hourly(), func(context.Context, *tenant.Tenant) error {
			return nil
		}))

		require.ErrorIs(t, r.TriggerNow(context.Background(), "ghost"), cron.ErrJobNotRegistered)
	})

	t.Run("lister failure skips the firing", func(t *testing.T) {
		t.Parallel()

		r, err := cron.NewRunner(failingLister{err: errors.New("directory down")})
		require.NoError(t, err)

		ran := false
		require.NoError(t, r.AddJob("sweep", cron.Hourly(), func(context.Context, *tenant.Tenant) error {
			ran = true
			return nil
		}))

		// The firing is skipped and logged; TriggerNow itself does not fail.
		require.NoError(t, r.TriggerNow(context.Background(), "sweep"))
		assert.False(t, ran)
	})
}

func TestStart(t *testing.T) {
	t.Parallel()

	t.Run("refuses to start with no jobs", func(t *testing.T) {
		t.Parallel()

		r, err := cron.NewRunner(tenant.NewMemoryDirectory())
		require.NoError(t, err)

		require.ErrorIs(t, r.Start(context.Background()), cron.ErrNoJobsRegistered)
	})

	t.Run("stops on context cancellation", func(t *testing.T) {
		t.Parallel()

		r, err := cron.NewRunner(tenant.NewMemoryDirectory())
		require.NoError(t, err)
		require.NoError(t, r.AddJob("sweep", cron.Hourly(), func(context.Context, *tenant.Tenant) error {
			return nil
		}))

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		require.ErrorIs(t, r.Start(ctx), context.DeadlineExceeded)
	})

	t.Run("fires due jobs from the ticker loop", func(t *testing.T) {
		t.Parallel()

		dir := tenant.NewMemoryDirectory(cronTenant(1, "acme", true))
		r, err := cron.NewRunner(dir, cron.WithCheckInterval(10*time.Millisecond))
		require.NoError(t, err)

		fired := make(chan int64, 16)
		require.NoError(t, r.AddJob("tick", cron.Every(5*time.Millisecond), func(_ context.Context, t *tenant.Tenant) error {
			fired <- t.ID
			return nil
		}))

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- r.Start(ctx) }()

		select {
		case id := <-fired:
			assert.Equal(t, int64(1), id)
		case <-time.After(2 * time.Second):
			t.Fatal("job never fired")
		}

		cancel()
		require.ErrorIs(t, <-done, context.Canceled)
	})
}
