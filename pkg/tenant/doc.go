// Package tenant defines the tenant registry and the per-unit-of-work
// tenant binding that every other tenancy package builds on.
//
// # Architecture
//
// The package is built around three core concepts:
//
//  1. Registry - the authoritative catalog of tenants and their connection
//     descriptors, always read from the central (non-partitioned) store
//  2. Binding - the resolved, currently-active tenant for one logical unit
//     of work, carried in a context.Context
//  3. Caching - an LRU/TTL decorator over any Registry to keep the per-request
//     lookup off the central database
//
// The binding is deliberately an explicit context value rather than ambient
// process state: a unit of work can only see a tenant that was activated on
// its own context chain, which makes cross-tenant leakage a compile-time
// visible hazard instead of a concurrency discipline.
//
// # Usage
//
//	registry, _ := tenant.NewPGRegistry(centralPool)
//	cached := tenant.NewCachedRegistry(registry, 1000, 5*time.Minute)
//	defer cached.Close()
//
//	t, err := cached.FindByID(ctx, 7)
//	if err != nil {
//		// errors.Is(err, tenant.ErrTenantNotFound)
//	}
//
// Activation and deactivation of bindings is the router's job; see the
// router package. Business code only ever reads the binding:
//
//	db, ok := tenant.DBFromContext(ctx)
//	if !ok {
//		return tenant.ErrNoBindingInContext
//	}
//
// # Error Handling
//
//   - ErrTenantNotFound: no registry entry for the given ID
//   - ErrTenantSuspended: entry exists but is soft-disabled
//   - ErrNoBindingInContext: tenant-scoped work attempted without activation
//   - ErrContextAlreadyActive: nested activation without save/restore
package tenant
