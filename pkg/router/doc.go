// Package router switches units of work onto tenant-scoped database
// connections and guarantees the switch is undone.
//
// The router is deliberately the only place that turns a tenant's
// connection descriptor into a live pool. Everything else either reads the
// binding from its context or asks the router to run scoped work:
//
//	r := router.New(cfg)
//	defer r.Close()
//
//	// One-shot activation for the span of a request:
//	ctx, h, err := r.Activate(ctx, t)
//	if err != nil { ... }
//	defer r.Deactivate(h)
//
//	// Scoped execution with guaranteed teardown, e.g. a cross-tenant scan step:
//	err = r.RunIn(ctx, t, func(ctx context.Context) error {
//		db, _ := tenant.DBFromContext(ctx)
//		return probe(ctx, db)
//	})
//
// Activation follows a strict state machine per unit of work:
// unbound -> bound(tenant) -> unbound. Re-activating the already-bound
// tenant is a no-op reuse; activating a different tenant without tearing
// the binding down first is rejected with tenant.ErrContextAlreadyActive.
// RunIn is the sanctioned way to visit another tenant mid-flight: it binds
// on a derived context, so the outer binding is restored on every exit
// path, panics and cancellation included.
//
// A store that cannot be dialed surfaces as ErrConnectionUnavailable, a
// retryable infrastructure failure that callers must not confuse with
// tenant.ErrTenantNotFound.
package router
