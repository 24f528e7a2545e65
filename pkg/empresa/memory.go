package empresa

import (
	"context"
	"sync"
)

// MemoryIndex is an in-memory Index, safe for concurrent use. It backs
// tests and single-node deployments.
type MemoryIndex struct {
	mu sync.RWMutex
	m  map[int64]int64
}

// NewMemoryIndex creates an empty in-memory index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{m: make(map[int64]int64)}
}

// LookupTenantID implements Index.
func (i *MemoryIndex) LookupTenantID(_ context.Context, empresaID int64) (int64, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	tenantID, ok := i.m[empresaID]
	if !ok {
		return 0, ErrEmpresaNotIndexed
	}
	return tenantID, nil
}

// Upsert implements Index.
func (i *MemoryIndex) Upsert(_ context.Context, empresaID, tenantID int64) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.m[empresaID] = tenantID
	return nil
}

// Remove implements Index.
func (i *MemoryIndex) Remove(_ context.Context, empresaID int64) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.m, empresaID)
	return nil
}
