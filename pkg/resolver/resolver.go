package resolver

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/semaphore"

	"github.com/licitahub/tenancy/pkg/empresa"
	"github.com/licitahub/tenancy/pkg/router"
	"github.com/licitahub/tenancy/pkg/tenant"
)

// Signals are the identifying inputs one unit of work may carry, from most
// to least trusted. Zero values mean "signal absent".
type Signals struct {
	// TenantID is an explicit, transport-trusted tenant identifier
	// (admin-issued or from a trusted header).
	TenantID int64

	// ClaimTenantID came embedded in a previously issued credential. It
	// snapshots an earlier resolution and can be stale, so it ranks below
	// an explicit identifier.
	ClaimTenantID int64

	// EmpresaID identifies the business unit being worked on; resolved
	// through the empresa index.
	EmpresaID int64

	// Email is an identity string used only by the exhaustive scan, e.g.
	// at login when nothing else is known.
	Email string
}

// Empty reports whether no signal is present.
func (s Signals) Empty() bool {
	return s.TenantID == 0 && s.ClaimTenantID == 0 && s.EmpresaID == 0 && s.Email == ""
}

// Resolver decides which tenant a unit of work belongs to. Resolution
// follows a fixed priority: already-active binding, explicit tenant ID,
// credential claim, empresa index, exhaustive scan. Each step runs only if
// the previous one yielded nothing.
type Resolver struct {
	registry tenant.Registry
	index    empresa.Index
	router   *router.Router
	prober   Prober
	log      *slog.Logger

	scanGate     *semaphore.Weighted
	scanPageSize int
}

// Option configures the resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for scan progress and index anomalies.
func WithLogger(log *slog.Logger) Option {
	return func(r *Resolver) {
		if log != nil {
			r.log = log
		}
	}
}

// WithScanConcurrency caps how many exhaustive scans may run at once across
// the process. The default of 1 keeps the O(tenant count) fallback serial
// so it cannot dogpile every tenant store at the same time.
func WithScanConcurrency(n int64) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.scanGate = semaphore.NewWeighted(n)
		}
	}
}

// WithScanPageSize sets how many tenants the scan pulls from the registry
// per page.
func WithScanPageSize(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.scanPageSize = n
		}
	}
}

// New creates a resolver over the given collaborators.
func New(registry tenant.Registry, index empresa.Index, rtr *router.Router, prober Prober, opts ...Option) (*Resolver, error) {
	if registry == nil {
		return nil, errors.New("resolver: registry is required")
	}
	if index == nil {
		return nil, errors.New("resolver: empresa index is required")
	}
	if rtr == nil {
		return nil, errors.New("resolver: router is required")
	}
	if prober == nil {
		prober = PGProber{}
	}

	r := &Resolver{
		registry:     registry,
		index:        index,
		router:       rtr,
		prober:       prober,
		log:          slog.Default(),
		scanGate:     semaphore.NewWeighted(1),
		scanPageSize: tenant.DefaultPageSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Resolve determines the tenant for the signals at hand. The winning tenant
// is returned for the caller's own activation; Resolve itself leaves the
// caller's binding untouched.
//
// Errors: ErrUnresolved when nothing matched; tenant.ErrTenantNotFound when
// an explicit identifier named a nonexistent tenant;
// tenant.ErrTenantSuspended for a soft-disabled one;
// router.ErrConnectionUnavailable when a step that depends on one specific
// tenant could not reach its store (retryable).
func (r *Resolver) Resolve(ctx context.Context, sig Signals) (*tenant.Tenant, error) {
	// Step 1: prefer the already-active binding to avoid a redundant
	// switch, but only after confirming the lookup target actually resides
	// in the bound tenant's store.
	if b, ok := tenant.BindingFromContext(ctx); ok && b.Tenant != nil {
		switch {
		case sig.EmpresaID != 0:
			exists, err := r.prober.EmpresaExists(ctx, b.DB, sig.EmpresaID)
			if err != nil {
				r.log.WarnContext(ctx, "residency check on active binding failed",
					"tenant_id", b.Tenant.ID, "empresa_id", sig.EmpresaID, "error", err)
			} else if exists {
				return b.Tenant, nil
			}
		case sig.Email != "":
			_, found, err := r.prober.FindUserIDByEmail(ctx, b.DB, sig.Email)
			if err != nil {
				r.log.WarnContext(ctx, "residency check on active binding failed",
					"tenant_id", b.Tenant.ID, "error", err)
			} else if found {
				return b.Tenant, nil
			}
		default:
			return b.Tenant, nil
		}
	}

	// Step 2: explicit tenant identifier. Failures here surface as-is: the
	// caller named a specific tenant, so "not found" and "unreachable" are
	// both answers, not reasons to guess further.
	if sig.TenantID != 0 {
		return r.findRoutable(ctx, sig.TenantID)
	}

	// Step 3: credential claim. Stale claims (tenant gone or suspended
	// since issuance) fall through to weaker signals; infrastructure
	// failures still surface as retryable.
	if sig.ClaimTenantID != 0 {
		t, err := r.registry.FindByID(ctx, sig.ClaimTenantID)
		switch {
		case err == nil && t.Active():
			return t, nil
		case err == nil, errors.Is(err, tenant.ErrTenantNotFound):
			r.log.InfoContext(ctx, "stale tenant claim, falling through",
				"claim_tenant_id", sig.ClaimTenantID)
		default:
			return nil, err
		}
	}

	// Step 4: indexed empresa lookup with read-repair on staleness.
	if sig.EmpresaID != 0 {
		t, err := r.resolveByEmpresa(ctx, sig.EmpresaID)
		switch {
		case err == nil:
			return t, nil
		case errors.Is(err, empresa.ErrEmpresaNotIndexed):
			// Index miss is not proof of nonexistence; the scan decides.
		case errors.Is(err, empresa.ErrIndexInconsistent):
			r.log.WarnContext(ctx, "empresa index entry is stale, falling back to scan",
				"empresa_id", sig.EmpresaID)
		default:
			return nil, err
		}

		t, err = r.ScanForEmpresa(ctx, sig.EmpresaID)
		if err == nil {
			if uerr := r.index.Upsert(ctx, sig.EmpresaID, t.ID); uerr != nil {
				r.log.ErrorContext(ctx, "empresa index repair failed",
					"empresa_id", sig.EmpresaID, "tenant_id", t.ID, "error", uerr)
			}
			return t, nil
		}
		if !errors.Is(err, ErrUnresolved) {
			return nil, err
		}
	}

	// Step 5: exhaustive scan by email, the last resort.
	if sig.Email != "" {
		t, _, err := r.LocateUserByEmail(ctx, sig.Email)
		return t, err
	}

	return nil, ErrUnresolved
}

// findRoutable loads a tenant that resolution may hand to the router.
func (r *Resolver) findRoutable(ctx context.Context, id int64) (*tenant.Tenant, error) {
	t, err := r.registry.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.Active() {
		return nil, tenant.ErrTenantSuspended
	}
	return t, nil
}

// resolveByEmpresa performs the O(1) index lookup and defensively verifies
// that the named tenant's store actually contains the empresa before
// trusting the entry.
func (r *Resolver) resolveByEmpresa(ctx context.Context, empresaID int64) (*tenant.Tenant, error) {
	tenantID, err := r.index.LookupTenantID(ctx, empresaID)
	if err != nil {
		return nil, err
	}

	t, err := r.registry.FindByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, tenant.ErrTenantNotFound) {
			// The index names a tenant the registry no longer has.
			return nil, empresa.ErrIndexInconsistent
		}
		return nil, err
	}
	if !t.Active() {
		return nil, tenant.ErrTenantSuspended
	}

	exists, err := router.RunInT(ctx, r.router, t, func(ctx context.Context) (bool, error) {
		db, _ := tenant.DBFromContext(ctx)
		return r.prober.EmpresaExists(ctx, db, empresaID)
	})
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, empresa.ErrIndexInconsistent
	}
	return t, nil
}
