package tenant

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

const (
	// DefaultTenantHeader is the conventional header carrying an explicit
	// tenant identifier.
	DefaultTenantHeader = "X-Tenant-ID"

	// DefaultTenantQueryParam is the conventional query parameter fallback.
	DefaultTenantQueryParam = "tenant"

	// MaxIdentifierLength keeps identifiers DNS-compatible and bounds
	// resolution input size.
	MaxIdentifierLength = 63
)

// identifierPattern ensures DNS-safe identifiers: alphanumeric start, allows
// hyphens, no dots.
var identifierPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]*$`)

// Resolver extracts a tenant identifier from an HTTP request.
// Returns empty string if the source carries no identifier, error if the
// source carries a malformed one.
type Resolver func(r *http.Request) (string, error)

func isValidIdentifier(id string) bool {
	if id == "" || len(id) > MaxIdentifierLength {
		return false
	}
	return identifierPattern.MatchString(id)
}

// NewHeaderResolver extracts the identifier from an HTTP header.
// Defaults to DefaultTenantHeader if headerName is empty.
func NewHeaderResolver(headerName string) Resolver {
	if headerName == "" {
		headerName = DefaultTenantHeader
	}

	return func(req *http.Request) (string, error) {
		value := strings.TrimSpace(req.Header.Get(headerName))
		if value == "" {
			return "", nil
		}
		if !isValidIdentifier(value) {
			return "", fmt.Errorf("%w: header value %q", ErrInvalidIdentifier, value)
		}
		return NormalizeIdentifier(value), nil
	}
}

// NewSubdomainResolver extracts the identifier from the first host label.
// The literal "www" label is skipped and hosts with fewer than three labels
// carry no tenant (a bare domain.tld is the base product, not a tenant).
func NewSubdomainResolver() Resolver {
	return func(req *http.Request) (string, error) {
		host := req.Host

		// Remove port if present
		if idx := strings.LastIndex(host, ":"); idx != -1 {
			host = host[:idx]
		}

		parts := strings.Split(host, ".")
		if len(parts) < 3 || parts[0] == "" {
			return "", nil
		}

		subdomain := parts[0]
		if strings.EqualFold(subdomain, "www") {
			return "", nil
		}

		if !isValidIdentifier(subdomain) {
			return "", fmt.Errorf("%w: subdomain %q", ErrInvalidIdentifier, subdomain)
		}
		return NormalizeIdentifier(subdomain), nil
	}
}

// NewQueryResolver extracts the identifier from a query parameter.
// Defaults to DefaultTenantQueryParam if param is empty.
func NewQueryResolver(param string) Resolver {
	if param == "" {
		param = DefaultTenantQueryParam
	}

	return func(req *http.Request) (string, error) {
		value := strings.TrimSpace(req.URL.Query().Get(param))
		if value == "" {
			return "", nil
		}
		if !isValidIdentifier(value) {
			return "", fmt.Errorf("%w: query value %q", ErrInvalidIdentifier, value)
		}
		return NormalizeIdentifier(value), nil
	}
}

// NewStaticResolver always resolves to the configured identifier. Used as the
// terminal element of a chain so resolution never comes back empty.
func NewStaticResolver(identifier string) Resolver {
	id := NormalizeIdentifier(identifier)
	return func(*http.Request) (string, error) {
		return id, nil
	}
}

// NewChainResolver tries each resolver in order, first non-empty result wins.
// Resolver errors are aggregated and surfaced only when no resolver produced
// an identifier.
func NewChainResolver(resolvers ...Resolver) Resolver {
	return func(r *http.Request) (string, error) {
		var errs []error

		for _, resolve := range resolvers {
			id, err := resolve(r)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if id != "" {
				return id, nil
			}
		}

		if len(errs) > 0 {
			return "", fmt.Errorf("tenant resolution: %w", errors.Join(errs...))
		}
		return "", nil
	}
}

// NewDefaultResolver builds the standard precedence chain:
// header, then subdomain, then query parameter, then the configured default.
// With a non-empty defaultIdentifier it always produces some identifier, even
// one that later fails to map to a tenant.
func NewDefaultResolver(defaultIdentifier string) Resolver {
	return NewChainResolver(
		NewHeaderResolver(DefaultTenantHeader),
		NewSubdomainResolver(),
		NewQueryResolver(DefaultTenantQueryParam),
		NewStaticResolver(defaultIdentifier),
	)
}
