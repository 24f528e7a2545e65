package tenant

import (
	"context"
	"encoding/base64"
	"errors"
	"sort"
	"strconv"
	"sync"
)

// DefaultPageSize is used by registry implementations when the caller does
// not specify a page size.
const DefaultPageSize = 50

// encodePageToken builds an opaque cursor from the last tenant ID of a page.
func encodePageToken(lastID int64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatInt(lastID, 10)))
}

// decodePageToken reverses encodePageToken. An empty token means "first page".
func decodePageToken(token string) (int64, error) {
	if token == "" {
		return 0, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, errors.Join(ErrInvalidPageToken, err)
	}
	id, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil || id < 0 {
		return 0, ErrInvalidPageToken
	}
	return id, nil
}

// StaticRegistry is an in-memory Registry, safe for concurrent use.
// It backs tests and single-node deployments where the tenant catalog is
// provisioned out of band.
type StaticRegistry struct {
	mu      sync.RWMutex
	tenants map[int64]*Tenant
}

// NewStaticRegistry creates a registry pre-populated with the given tenants.
func NewStaticRegistry(tenants ...*Tenant) *StaticRegistry {
	r := &StaticRegistry{tenants: make(map[int64]*Tenant, len(tenants))}
	for _, t := range tenants {
		if t != nil {
			r.tenants[t.ID] = t
		}
	}
	return r
}

// Upsert adds or replaces a tenant entry.
func (r *StaticRegistry) Upsert(t *Tenant) {
	if t == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tenants[t.ID] = t
}

// FindByID implements Registry.
func (r *StaticRegistry) FindByID(_ context.Context, id int64) (*Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tenants[id]
	if !ok {
		return nil, ErrTenantNotFound
	}
	return t, nil
}

// ListActive implements Registry. Tenants are returned in ascending ID
// order so that scan iteration order is deterministic.
func (r *StaticRegistry) ListActive(_ context.Context, pageSize int, pageToken string) (Page, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	afterID, err := decodePageToken(pageToken)
	if err != nil {
		return Page{}, err
	}

	r.mu.RLock()
	active := make([]*Tenant, 0, len(r.tenants))
	for _, t := range r.tenants {
		if t.Active() && t.ID > afterID {
			active = append(active, t)
		}
	}
	r.mu.RUnlock()

	sort.Slice(active, func(i, j int) bool { return active[i].ID < active[j].ID })

	page := Page{}
	if len(active) > pageSize {
		page.Tenants = active[:pageSize]
		page.NextPageToken = encodePageToken(active[pageSize-1].ID)
	} else {
		page.Tenants = active
	}
	return page, nil
}
