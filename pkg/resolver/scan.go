package resolver

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/licitahub/tenancy/pkg/router"
	"github.com/licitahub/tenancy/pkg/tenant"
)

// LocateUserByEmail finds the tenant whose store contains a user with the
// given email, returning the user ID alongside. There is deliberately no
// global email index: the same address may exist in several tenants, so
// this walks every active tenant in registry order and the first match
// wins. Callers needing disambiguation must supply a stronger signal.
//
// This is the O(tenant count) fallback path, gated by the scan concurrency
// limit. The scan itself leaves the caller's binding untouched; each tenant
// visit is scoped and torn down before the next.
func (r *Resolver) LocateUserByEmail(ctx context.Context, email string) (*tenant.Tenant, uuid.UUID, error) {
	if email == "" {
		return nil, uuid.UUID{}, ErrInvalidIdentifier
	}

	var userID uuid.UUID
	t, err := r.scan(ctx, "email", func(ctx context.Context, db *pgxpool.Pool) (bool, error) {
		id, found, err := r.prober.FindUserIDByEmail(ctx, db, email)
		if found {
			userID = id
		}
		return found, err
	})
	if err != nil {
		return nil, uuid.UUID{}, err
	}
	return t, userID, nil
}

// ScanForEmpresa finds the tenant whose store contains the given empresa,
// bypassing the index. Used when the index misses or turns out stale.
func (r *Resolver) ScanForEmpresa(ctx context.Context, empresaID int64) (*tenant.Tenant, error) {
	if empresaID == 0 {
		return nil, ErrInvalidIdentifier
	}
	return r.scan(ctx, "empresa", func(ctx context.Context, db *pgxpool.Pool) (bool, error) {
		return r.prober.EmpresaExists(ctx, db, empresaID)
	})
}

// scan walks every active tenant, visiting each store under a scoped
// binding, until the probe reports a match. An unreachable store is treated
// as "not here" and logged; it must not abort the scan, because the target
// may well live in the next tenant over.
func (r *Resolver) scan(ctx context.Context, target string, probe func(ctx context.Context, db *pgxpool.Pool) (bool, error)) (*tenant.Tenant, error) {
	if err := r.scanGate.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer r.scanGate.Release(1)

	scanID := uuid.NewString()
	started := time.Now()
	visited := 0

	pageToken := ""
	for {
		page, err := r.registry.ListActive(ctx, r.scanPageSize, pageToken)
		if err != nil {
			return nil, err
		}

		for _, t := range page.Tenants {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			visited++

			found, err := router.RunInT(ctx, r.router, t, func(ctx context.Context) (bool, error) {
				db, _ := tenant.DBFromContext(ctx)
				return probe(ctx, db)
			})
			if err != nil {
				if errors.Is(err, router.ErrConnectionUnavailable) {
					r.log.WarnContext(ctx, "tenant store unreachable during scan, skipping",
						"scan_id", scanID, "target", target, "tenant_id", t.ID, "error", err)
					continue
				}
				return nil, err
			}
			if found {
				r.log.InfoContext(ctx, "cross-tenant scan matched",
					"scan_id", scanID, "target", target, "tenant_id", t.ID,
					"tenants_visited", visited, "elapsed", time.Since(started))
				return t, nil
			}
		}

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	r.log.InfoContext(ctx, "cross-tenant scan exhausted without a match",
		"scan_id", scanID, "target", target,
		"tenants_visited", visited, "elapsed", time.Since(started))
	return nil, ErrUnresolved
}
