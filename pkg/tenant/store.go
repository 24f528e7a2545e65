package tenant

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRegistry is the Postgres-backed Registry. The pool it is constructed
// with must be the central pool: routing the registry through the router
// would be a chicken-and-egg failure.
type PGRegistry struct {
	pool *pgxpool.Pool
}

// NewPGRegistry creates a registry over the central store pool.
func NewPGRegistry(pool *pgxpool.Pool) (*PGRegistry, error) {
	if pool == nil {
		return nil, errors.New("tenant: central pool is required")
	}
	return &PGRegistry{pool: pool}, nil
}

const tenantColumns = `id, name, registration_number, status, conn_dsn, conn_max_conns, created_at`

func scanTenant(row pgx.Row) (*Tenant, error) {
	var t Tenant
	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.RegistrationNumber,
		&t.Status,
		&t.Conn.DSN,
		&t.Conn.MaxConns,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	return &t, nil
}

// FindByID implements Registry.
func (r *PGRegistry) FindByID(ctx context.Context, id int64) (*Tenant, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id)
	return scanTenant(row)
}

// ListActive implements Registry. Pagination is keyset-based on the stable
// tenant ID so pages stay consistent while tenants are being provisioned.
func (r *PGRegistry) ListActive(ctx context.Context, pageSize int, pageToken string) (Page, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	afterID, err := decodePageToken(pageToken)
	if err != nil {
		return Page{}, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+tenantColumns+` FROM tenants
		 WHERE status = $1 AND id > $2
		 ORDER BY id
		 LIMIT $3`,
		StatusActive, afterID, pageSize+1)
	if err != nil {
		return Page{}, err
	}
	defer rows.Close()

	var tenants []*Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return Page{}, err
		}
		tenants = append(tenants, t)
	}
	if err := rows.Err(); err != nil {
		return Page{}, err
	}

	page := Page{}
	if len(tenants) > pageSize {
		page.Tenants = tenants[:pageSize]
		page.NextPageToken = encodePageToken(tenants[pageSize-1].ID)
	} else {
		page.Tenants = tenants
	}
	return page, nil
}
