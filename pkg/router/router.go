package router

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/licitahub/tenancy/pkg/tenant"
)

// Dialer opens a verified pool for one connection descriptor. The default
// dialer uses pgxpool with retry; tests substitute their own to observe
// activation behavior without a live database.
type Dialer func(ctx context.Context, desc tenant.ConnDescriptor, cfg Config) (*pgxpool.Pool, error)

// Router owns the tenant-scoped connection pools. Pools are cached per
// tenant after the first activation and shared by subsequent units of work;
// the binding published into each unit's context is what scopes access, not
// pool ownership.
type Router struct {
	cfg  Config
	log  *slog.Logger
	dial Dialer

	mu     sync.Mutex
	pools  map[int64]*poolEntry
	closed bool
}

// poolEntry tracks one tenant's cached pool and the claims held against it.
// A retired entry (evicted or closed while claims were live) closes its pool
// when the last claim is released.
type poolEntry struct {
	pool    *pgxpool.Pool
	refs    int
	retired bool
}

// Option configures the router.
type Option func(*Router)

// WithLogger sets the logger used for activation anomalies.
func WithLogger(log *slog.Logger) Option {
	return func(r *Router) {
		if log != nil {
			r.log = log
		}
	}
}

// WithDialer overrides how tenant pools are opened.
func WithDialer(d Dialer) Option {
	return func(r *Router) {
		if d != nil {
			r.dial = d
		}
	}
}

// New creates a connection router.
func New(cfg Config, opts ...Option) *Router {
	r := &Router{
		cfg:   cfg,
		log:   slog.Default(),
		dial:  dial,
		pools: make(map[int64]*poolEntry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handle is a live claim on a tenant's store, produced by Activate and
// released by Deactivate.
type Handle struct {
	tenant  *tenant.Tenant
	pool    *pgxpool.Pool
	release func()
	once    sync.Once
}

// TenantID returns the tenant this handle is routed to.
func (h *Handle) TenantID() int64 { return h.tenant.ID }

// Pool returns the pool routed to the tenant's isolated store.
func (h *Handle) Pool() *pgxpool.Pool { return h.pool }

// Activate routes the unit of work in ctx to the given tenant's store and
// returns the derived context carrying the binding.
//
// Calling Activate again for the tenant already bound in ctx is a no-op
// reuse: no new connection is dialed and the binding is unchanged. Calling
// it for a different tenant while a binding is active fails with
// ErrContextAlreadyActive; overwriting an active binding in place is the
// exact bug class this package exists to prevent, so it must go through the
// scoped save/restore path (RunIn) instead.
//
// On a dial failure the context is returned unchanged and no binding is
// observable: either the unit of work ends up pointing at the requested
// tenant, or its state is untouched.
func (r *Router) Activate(ctx context.Context, t *tenant.Tenant) (context.Context, *Handle, error) {
	if t == nil {
		return ctx, nil, ErrNilTenant
	}
	if !t.Active() {
		return ctx, nil, tenant.ErrTenantSuspended
	}

	if b, ok := tenant.BindingFromContext(ctx); ok {
		if b.Tenant != nil && b.Tenant.ID == t.ID {
			return ctx, &Handle{tenant: b.Tenant, pool: b.DB}, nil
		}
		return ctx, nil, tenant.ErrContextAlreadyActive
	}

	pool, release, err := r.acquire(ctx, t)
	if err != nil {
		return ctx, nil, err
	}

	h := &Handle{tenant: t, pool: pool, release: release}
	return tenant.WithBinding(ctx, &tenant.Binding{Tenant: t, DB: pool}), h, nil
}

// Deactivate releases the handle's claim on the tenant's store. The pool
// itself stays cached for reuse by later units of work; an Evict or Close
// that races with live claims defers the pool teardown until the last claim
// is released here. Safe to call more than once.
func (r *Router) Deactivate(h *Handle) {
	if h == nil {
		return
	}
	h.once.Do(func() {
		if h.release != nil {
			h.release()
		}
	})
}

// RunIn executes fn with ctx routed to the given tenant and guarantees the
// routing is undone on every exit path: normal return, error return, panic,
// and cancellation of ctx. The binding is published on a derived context,
// so the caller's own context (and any outer binding) is untouched when
// RunIn returns; nesting RunIn calls shadows the outer tenant for the
// duration of fn and restores it structurally.
//
// If the tenant's store is unreachable, the error propagates without fn
// ever being invoked and without any state mutation.
func (r *Router) RunIn(ctx context.Context, t *tenant.Tenant, fn func(ctx context.Context) error) error {
	if t == nil {
		return ErrNilTenant
	}
	if !t.Active() {
		return tenant.ErrTenantSuspended
	}

	pool, release, err := r.acquire(ctx, t)
	if err != nil {
		return err
	}

	h := &Handle{tenant: t, pool: pool, release: release}
	defer r.Deactivate(h)

	scoped := tenant.WithBinding(ctx, &tenant.Binding{Tenant: t, DB: pool})
	return fn(scoped)
}

// RunInT is RunIn for units of work that produce a value.
func RunInT[T any](ctx context.Context, r *Router, t *tenant.Tenant, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := r.RunIn(ctx, t, func(ctx context.Context) error {
		var innerErr error
		out, innerErr = fn(ctx)
		return innerErr
	})
	return out, err
}

// acquire returns the tenant's cached pool plus a release func undoing this
// particular claim, dialing the pool on first use. The dial happens outside
// the router lock so a slow tenant store cannot stall activations for other
// tenants; the occasional duplicate dial under contention is resolved by
// closing the loser.
func (r *Router) acquire(ctx context.Context, t *tenant.Tenant) (*pgxpool.Pool, func(), error) {
	e, err := r.entry(ctx, t)
	if err != nil {
		return nil, nil, err
	}

	release := func() {
		r.mu.Lock()
		e.refs--
		drop := e.retired && e.refs == 0
		r.mu.Unlock()

		if drop && e.pool != nil {
			e.pool.Close()
		}
	}
	return e.pool, release, nil
}

func (r *Router) entry(ctx context.Context, t *tenant.Tenant) (*poolEntry, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrRouterClosed
	}
	if e, ok := r.pools[t.ID]; ok {
		e.refs++
		r.mu.Unlock()
		return e, nil
	}
	r.mu.Unlock()

	p, err := r.dial(ctx, t.Conn, r.cfg)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		if p != nil {
			p.Close()
		}
		return nil, ErrRouterClosed
	}
	if existing, ok := r.pools[t.ID]; ok {
		existing.refs++
		r.mu.Unlock()
		if p != nil {
			p.Close()
		}
		return existing, nil
	}
	e := &poolEntry{pool: p, refs: 1}
	r.pools[t.ID] = e
	r.mu.Unlock()
	return e, nil
}

// Evict forgets the cached pool for a tenant, e.g. after its connection
// descriptor changed. The pool closes immediately when no claims are live,
// otherwise when the last claim is deactivated; units of work holding the
// old binding keep their pool until they finish.
func (r *Router) Evict(id int64) {
	r.mu.Lock()
	e, ok := r.pools[id]
	delete(r.pools, id)
	var toClose *pgxpool.Pool
	if ok {
		if e.refs == 0 {
			toClose = e.pool
		} else {
			e.retired = true
		}
	}
	r.mu.Unlock()

	if toClose != nil {
		toClose.Close()
	}
}

// Close tears down every cached tenant pool, deferring pools with live
// claims to their last Deactivate. The router rejects activations
// afterwards.
func (r *Router) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	var toClose []*pgxpool.Pool
	for _, e := range r.pools {
		if e.refs == 0 {
			if e.pool != nil {
				toClose = append(toClose, e.pool)
			}
		} else {
			e.retired = true
		}
	}
	r.pools = nil
	r.mu.Unlock()

	for _, p := range toClose {
		p.Close()
	}
}
