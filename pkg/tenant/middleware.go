package tenant

import (
	"log/slog"
	"net/http"
	"strings"
)

// Middleware resolves the tenant for each request and installs a fresh scope
// on the request context. Unknown identifiers and inactive tenants are
// rejected before the handler runs; the wrapped handler only ever executes
// inside a valid tenant scope (or on a skipped path).
func Middleware(resolve Resolver, dir Directory, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	cfg := &middlewareConfig{
		errorHandler: DefaultErrorHandler,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range cfg.skipPaths {
				if strings.HasPrefix(r.URL.Path, skip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			identifier, err := resolve(r)
			if err != nil {
				cfg.errorHandler(w, r, err)
				return
			}
			if identifier == "" {
				// A chain ending in a static default never gets here; a
				// chain without one falls through tenantless.
				next.ServeHTTP(w, r)
				return
			}

			t, err := dir.GetByIdentifier(r.Context(), identifier)
			if err != nil {
				cfg.logger.WarnContext(r.Context(), "tenant resolution rejected",
					slog.String("identifier", identifier),
					slog.String("error", err.Error()))
				cfg.errorHandler(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithScope(r.Context(), t)))
		})
	}
}

// RequireTenant guards routes that must run inside a tenant scope.
func RequireTenant(errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = DefaultErrorHandler
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := FromContext(r.Context()); !ok {
				errorHandler(w, r, ErrNoTenantContext)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireModule guards routes behind a per-tenant module flag. Denials map to
// 403 through the error handler.
func RequireModule(module string, errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = DefaultErrorHandler
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if decision := Authorize(r.Context(), module); !decision.Allowed {
				errorHandler(w, r, decision.Err())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
