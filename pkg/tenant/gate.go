package tenant

import "context"

// Decision is the outcome of a module gate check. Denials carry a reason the
// boundary can surface to the caller.
type Decision struct {
	Allowed bool
	Reason  string
}

const (
	denyModuleNotEnabled = "module not enabled"
	denyNoTenantContext  = "no tenant context"
)

// Allow is the positive decision.
var Allow = Decision{Allowed: true}

// Deny builds a negative decision with the given reason.
func Deny(reason string) Decision {
	return Decision{Reason: reason}
}

// Err maps a denial to the error taxonomy. Returns nil for Allow.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	if d.Reason == denyNoTenantContext {
		return ErrNoTenantContext
	}
	return ErrModuleNotEnabled
}

// Authorize admits or rejects an operation based on the current tenant's
// module flags. Pure function of the ambient scope: no state of its own.
func Authorize(ctx context.Context, module string) Decision {
	if _, ok := FromContext(ctx); !ok {
		return Deny(denyNoTenantContext)
	}
	if !ModuleEnabled(ctx, module) {
		return Deny(denyModuleNotEnabled)
	}
	return Allow
}
