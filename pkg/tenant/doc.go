// Package tenant is the tenant context core of the platform: it resolves
// which tenant a unit of work belongs to, carries that identity across call
// chains, caches tenant metadata with correct invalidation, and gates
// operations on per-tenant module flags.
//
// # Resolution
//
// A Resolver derives a tenant identifier from an inbound request with a fixed
// precedence: explicit header, then subdomain, then query parameter, then the
// configured default. NewDefaultResolver builds that chain; it never resolves
// to an empty identifier.
//
// # Context propagation
//
// A Scope binds one tenant snapshot plus a request-scoped property bag to one
// unit of work. Scopes travel inside context.Context, so two concurrent units
// of work can never observe each other's tenant, nested scopes strictly nest,
// and the previous scope is restored on every exit path without any cleanup
// code:
//
//	err := tenant.RunWithTenant(ctx, t, func(ctx context.Context) error {
//		if tenant.ModuleEnabled(ctx, "Accounting") {
//			// ...
//		}
//		return work(ctx)
//	})
//
// Queries outside any scope answer safe defaults and log a warning; they
// never fail hard.
//
// # Directory and cache
//
// Directory is the authoritative store (Postgres, MongoDB, or in-memory
// implementations ship with the package). Service fronts a Directory with a
// Cache: reads are cache-aside with an absolute TTL and a sliding window, and
// every module-flag or setting write invalidates both the identifier-keyed
// and id-keyed entries before returning.
//
// # Boundary
//
// Middleware installs a scope per request and maps rejections to fixed
// statuses: unknown tenant 404, inactive tenant 403. RequireModule gates
// routes on module flags via Authorize.
package tenant
