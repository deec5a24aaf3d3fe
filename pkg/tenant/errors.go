package tenant

import "errors"

var (
	// ErrTenantNotFound is returned when an identifier resolves to no record.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrTenantInactive is returned when the record exists but is deactivated.
	ErrTenantInactive = errors.New("tenant is inactive")

	// ErrInvalidIdentifier is returned when a resolution input is malformed.
	ErrInvalidIdentifier = errors.New("invalid tenant identifier")

	// ErrModuleNotEnabled is returned when a module gate denies an operation.
	ErrModuleNotEnabled = errors.New("module not enabled")

	// ErrNoTenantContext is returned when an operation that requires a tenant
	// scope runs outside of one. Context queries treat this as a caller bug:
	// they log a warning and answer safe defaults instead of failing.
	ErrNoTenantContext = errors.New("no tenant context")
)
