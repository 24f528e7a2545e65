package tenant

import (
	"context"
	"time"
)

// Status represents the lifecycle state of a tenant.
type Status string

const (
	// StatusActive marks a tenant whose store may be routed to.
	StatusActive Status = "active"
	// StatusSuspended marks a soft-disabled tenant. Suspended tenants stay
	// in the registry (IDs are never reused) but must not be activated.
	StatusSuspended Status = "suspended"
)

// ConnDescriptor describes how to reach a tenant's isolated data store.
// It is owned by the registry and treated as opaque by everything except
// the connection router.
type ConnDescriptor struct {
	DSN      string `json:"dsn"`
	MaxConns int32  `json:"max_conns,omitempty"`
}

// Tenant is one isolated customer data partition as recorded in the
// central registry.
type Tenant struct {
	ID                 int64          `json:"id"`
	Name               string         `json:"name"`
	RegistrationNumber string         `json:"registration_number"`
	Status             Status         `json:"status"`
	Conn               ConnDescriptor `json:"-"`
	CreatedAt          time.Time      `json:"created_at"`
}

// Active reports whether the tenant may be routed to.
func (t *Tenant) Active() bool {
	return t != nil && t.Status == StatusActive
}

// Page is one page of tenants from Registry.ListActive. NextPageToken is
// empty on the last page.
type Page struct {
	Tenants       []*Tenant
	NextPageToken string
}

// Registry is the authoritative catalog of tenants. Implementations must
// always read from the central, non-partitioned store: the registry is the
// one piece of state that is never itself subject to tenant routing.
type Registry interface {
	// FindByID retrieves a tenant by its stable ID.
	// Returns ErrTenantNotFound if no such tenant exists.
	FindByID(ctx context.Context, id int64) (*Tenant, error)

	// ListActive returns active tenants in stable ID order, one page at a
	// time. Pass an empty pageToken for the first page; a pageSize <= 0
	// selects the implementation default.
	ListActive(ctx context.Context, pageSize int, pageToken string) (Page, error)
}
