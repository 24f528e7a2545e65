package tenant

import "errors"

var (
	// ErrTenantNotFound is returned when a tenant cannot be found in the registry.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrTenantSuspended is returned when trying to route to a suspended tenant.
	ErrTenantSuspended = errors.New("tenant is suspended")

	// ErrNoBindingInContext is returned when tenant-scoped work is attempted
	// without an active binding.
	ErrNoBindingInContext = errors.New("no tenant binding in context")

	// ErrContextAlreadyActive is returned on an attempt to activate a tenant
	// while a different tenant is already bound to the same unit of work.
	// This is a programming error, never ignored: silently overwriting the
	// binding is exactly the cross-tenant leakage this package exists to prevent.
	ErrContextAlreadyActive = errors.New("tenant context already active")

	// ErrInvalidPageToken is returned by registry implementations when a
	// page token cannot be decoded.
	ErrInvalidPageToken = errors.New("invalid page token")
)
