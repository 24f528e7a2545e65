package empresa

import "context"

// Index maps an empresa (business unit) to the tenant whose isolated store
// it physically lives in. The mapping is 1:1 per empresa and is a
// performance cache over an authoritative but expensive relationship: on a
// miss, callers must fall back to the cross-tenant scan, never treat
// "absent" as "tenant does not exist".
type Index interface {
	// LookupTenantID returns the owning tenant for an empresa.
	// Returns ErrEmpresaNotIndexed on a miss.
	LookupTenantID(ctx context.Context, empresaID int64) (int64, error)

	// Upsert records the owning tenant for an empresa, replacing any
	// previous entry. Must run in the same transaction/unit of work as the
	// operation that attaches the empresa to the tenant.
	Upsert(ctx context.Context, empresaID, tenantID int64) error

	// Remove drops the entry for a deprovisioned empresa. Removing an
	// absent entry is not an error.
	Remove(ctx context.Context, empresaID int64) error
}
