// Package cron runs periodic maintenance jobs once per active tenant.
//
// Each registered job has its own Schedule (fixed interval, hourly, daily at
// a clock time, weekly on a weekday, monthly on a day). On each firing the
// Runner fetches the active tenants from the directory and executes the job
// once per tenant inside that tenant's scope, so the job body can use
// tenant context queries directly:
//
//	runner, _ := cron.NewRunner(directory)
//	_ = runner.AddJob("expire-policies", cron.DailyAt(3, 0),
//		func(ctx context.Context, t *tenant.Tenant) error {
//			conn, _ := tenant.ConnectionString(ctx)
//			return expirePolicies(ctx, conn)
//		})
//	_ = runner.Start(ctx)
//
// A failing, panicking or cancelled iteration is logged with its tenant id
// and skipped; the remaining tenants still run. A firing with failures
// completes "with partial failures" rather than failing as a whole. Missed
// firings are not backfilled.
package cron
