package resolver

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Prober answers existence questions against one tenant's isolated store.
// It is what the exhaustive scan and the residency checks call once the
// router has activated a store. The email probe returns the user ID so the
// login path can avoid a second round-trip after locating the tenant.
type Prober interface {
	FindUserIDByEmail(ctx context.Context, db *pgxpool.Pool, email string) (uuid.UUID, bool, error)
	EmpresaExists(ctx context.Context, db *pgxpool.Pool, empresaID int64) (bool, error)
}

// PGProber probes the conventional per-tenant schema (users, empresas).
type PGProber struct{}

// FindUserIDByEmail implements Prober. Email is unique within one tenant's
// store only, so a single row answers the question.
func (PGProber) FindUserIDByEmail(ctx context.Context, db *pgxpool.Pool, email string) (uuid.UUID, bool, error) {
	var id uuid.UUID
	err := db.QueryRow(ctx,
		`SELECT id FROM users WHERE email = $1 LIMIT 1`, email).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.UUID{}, false, nil
		}
		return uuid.UUID{}, false, err
	}
	return id, true, nil
}

// EmpresaExists implements Prober.
func (PGProber) EmpresaExists(ctx context.Context, db *pgxpool.Pool, empresaID int64) (bool, error) {
	var exists bool
	err := db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM empresas WHERE id = $1)`, empresaID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}
