package empresa

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgx executors the store needs. Both
// *pgxpool.Pool and pgx.Tx satisfy it, which is what lets Upsert and
// Remove run inside the same transaction as the provisioning operation
// that changes the underlying association.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGIndex is the Postgres-backed Index, stored in the central store next to
// the tenant registry.
type PGIndex struct {
	db Querier
}

// NewPGIndex creates an index over the central store pool.
func NewPGIndex(db Querier) (*PGIndex, error) {
	if db == nil {
		return nil, errors.New("empresa: querier is required")
	}
	return &PGIndex{db: db}, nil
}

// WithTx returns an index bound to the given transaction so index writes
// commit or roll back together with the provisioning operation.
func (i *PGIndex) WithTx(tx pgx.Tx) *PGIndex {
	return &PGIndex{db: tx}
}

// LookupTenantID implements Index.
func (i *PGIndex) LookupTenantID(ctx context.Context, empresaID int64) (int64, error) {
	var tenantID int64
	err := i.db.QueryRow(ctx,
		`SELECT tenant_id FROM empresa_tenants WHERE empresa_id = $1`, empresaID).
		Scan(&tenantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrEmpresaNotIndexed
		}
		return 0, err
	}
	return tenantID, nil
}

// Upsert implements Index. The empresa_id primary key enforces the 1:1
// invariant; a re-attach to a different tenant overwrites the old entry.
func (i *PGIndex) Upsert(ctx context.Context, empresaID, tenantID int64) error {
	_, err := i.db.Exec(ctx,
		`INSERT INTO empresa_tenants (empresa_id, tenant_id)
		 VALUES ($1, $2)
		 ON CONFLICT (empresa_id) DO UPDATE SET tenant_id = EXCLUDED.tenant_id`,
		empresaID, tenantID)
	return err
}

// Remove implements Index.
func (i *PGIndex) Remove(ctx context.Context, empresaID int64) error {
	_, err := i.db.Exec(ctx,
		`DELETE FROM empresa_tenants WHERE empresa_id = $1`, empresaID)
	return err
}
