package tenant

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// contextKey is a private type to prevent collisions with other context keys.
type contextKey struct{}

// Binding is the currently-active tenant for one logical unit of work:
// the resolved tenant plus the live connection to its isolated store.
// Bindings are published into a context.Context and therefore follow its
// immutability rules: deriving a child context never mutates the parent,
// which is what makes save/restore nesting structural rather than manual.
type Binding struct {
	Tenant *Tenant
	DB     *pgxpool.Pool
}

// WithBinding publishes an active binding into the context.
func WithBinding(ctx context.Context, b *Binding) context.Context {
	return context.WithValue(ctx, contextKey{}, b)
}

// BindingFromContext retrieves the active binding from the context.
// Returns nil, false if no tenant is bound.
func BindingFromContext(ctx context.Context) (*Binding, bool) {
	b, ok := ctx.Value(contextKey{}).(*Binding)
	return b, ok && b != nil
}

// IDFromContext retrieves just the bound tenant ID.
// Returns 0 and false if no tenant is bound.
func IDFromContext(ctx context.Context) (int64, bool) {
	b, ok := BindingFromContext(ctx)
	if !ok || b.Tenant == nil {
		return 0, false
	}
	return b.Tenant.ID, true
}

// DBFromContext retrieves the pool routed to the bound tenant's store.
// Returns nil, false if no tenant is bound.
func DBFromContext(ctx context.Context) (*pgxpool.Pool, bool) {
	b, ok := BindingFromContext(ctx)
	if !ok || b.DB == nil {
		return nil, false
	}
	return b.DB, true
}

// MustBindingFromContext retrieves the binding and panics if none is active.
// Use this only in code paths that are unreachable without prior resolution.
func MustBindingFromContext(ctx context.Context) *Binding {
	b, ok := BindingFromContext(ctx)
	if !ok {
		panic("tenant: no tenant binding in context")
	}
	return b
}

// LoggerExtractor returns a context extractor for the logger that annotates
// every record emitted inside a bound unit of work with the tenant ID.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id, ok := IDFromContext(ctx); ok {
			return slog.Int64("tenant_id", id), true
		}
		return slog.Attr{}, false
	}
}
