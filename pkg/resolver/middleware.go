package resolver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/licitahub/tenancy/pkg/empresa"
	"github.com/licitahub/tenancy/pkg/router"
	"github.com/licitahub/tenancy/pkg/tenant"
)

// ErrorHandler handles errors that occur during tenant resolution or
// activation within the middleware.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// middlewareConfig holds middleware configuration.
type middlewareConfig struct {
	readers      []SignalReader
	errorHandler ErrorHandler
	skipPaths    []string
}

// MiddlewareOption configures the middleware.
type MiddlewareOption func(*middlewareConfig)

// WithSignalReaders sets how signals are extracted from the request.
func WithSignalReaders(readers ...SignalReader) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.readers = readers
	}
}

// WithErrorHandler sets a custom error handler.
func WithErrorHandler(handler ErrorHandler) MiddlewareOption {
	return func(c *middlewareConfig) {
		if handler != nil {
			c.errorHandler = handler
		}
	}
}

// WithSkipPaths sets path prefixes that bypass tenant resolution, e.g.
// health and metrics endpoints.
func WithSkipPaths(paths []string) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.skipPaths = paths
	}
}

// Middleware resolves the request's tenant, routes the request context to
// its store, and guarantees deactivation when the request completes.
// Requests carrying no signal at all pass through unbound; use
// RequireBinding to fence routes that must not run without a tenant.
func Middleware(res *Resolver, rtr *router.Router, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	cfg := &middlewareConfig{
		readers:      []SignalReader{TenantHeaderReader(""), EmpresaHeaderReader("")},
		errorHandler: defaultErrorHandler,
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

			sig, err := ReadSignals(r, cfg.readers...)
			if err != nil {
				cfg.errorHandler(w, r, err)
				return
			}
			if sig.Empty() {
				next.ServeHTTP(w, r)
				return
			}

			t, err := res.Resolve(r.Context(), sig)
			if err != nil {
				cfg.errorHandler(w, r, err)
				return
			}

			ctx, handle, err := rtr.Activate(r.Context(), t)
			if err != nil {
				cfg.errorHandler(w, r, err)
				return
			}
			defer rtr.Deactivate(handle)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireBinding fences routes that must not execute without an active
// tenant binding.
func RequireBinding(errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = defaultErrorHandler
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := tenant.BindingFromContext(r.Context()); !ok {
				errorHandler(w, r, tenant.ErrNoBindingInContext)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// defaultErrorHandler maps resolution failures to deliberately uniform
// responses. Whether a tenant does not exist, is suspended, or the scan
// simply found nothing, the caller sees the same generic answer: error
// bodies must not let anyone enumerate tenants.
func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidIdentifier):
		http.Error(w, "Bad request", http.StatusBadRequest)
	case errors.Is(err, ErrUnresolved),
		errors.Is(err, tenant.ErrTenantNotFound),
		errors.Is(err, tenant.ErrTenantSuspended),
		errors.Is(err, tenant.ErrNoBindingInContext),
		errors.Is(err, empresa.ErrEmpresaNotIndexed):
		http.Error(w, "Not found, please check your credentials", http.StatusNotFound)
	case errors.Is(err, router.ErrConnectionUnavailable):
		http.Error(w, "Temporarily unavailable, retry", http.StatusServiceUnavailable)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
