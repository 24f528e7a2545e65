package tenant_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/licitahub/tenancy/pkg/tenant"
)

func TestBindingContext(t *testing.T) {
	t.Parallel()

	t.Run("round trips a binding", func(t *testing.T) {
		t.Parallel()

		b := &tenant.Binding{Tenant: &tenant.Tenant{ID: 42, Status: tenant.StatusActive}}
		ctx := tenant.WithBinding(context.Background(), b)

		got, ok := tenant.BindingFromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, b, got)

		id, ok := tenant.IDFromContext(ctx)
		require.True(t, ok)
		assert.EqualValues(t, 42, id)
	})

	t.Run("absent binding", func(t *testing.T) {
		t.Parallel()

		_, ok := tenant.BindingFromContext(context.Background())
		assert.False(t, ok)

		_, ok = tenant.IDFromContext(context.Background())
		assert.False(t, ok)

		_, ok = tenant.DBFromContext(context.Background())
		assert.False(t, ok)
	})

	t.Run("child context shadows without mutating parent", func(t *testing.T) {
		t.Parallel()

		outer := tenant.WithBinding(context.Background(),
			&tenant.Binding{Tenant: &tenant.Tenant{ID: 1}})
		inner := tenant.WithBinding(outer,
			&tenant.Binding{Tenant: &tenant.Tenant{ID: 2}})

		id, _ := tenant.IDFromContext(inner)
		assert.EqualValues(t, 2, id)

		id, _ = tenant.IDFromContext(outer)
		assert.EqualValues(t, 1, id)
	})

	t.Run("MustBindingFromContext panics without binding", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() {
			tenant.MustBindingFromContext(context.Background())
		})
	})

	t.Run("logger extractor reports bound tenant", func(t *testing.T) {
		t.Parallel()

		extract := tenant.LoggerExtractor()

		_, ok := extract(context.Background())
		assert.False(t, ok)

		ctx := tenant.WithBinding(context.Background(),
			&tenant.Binding{Tenant: &tenant.Tenant{ID: 8}})
		attr, ok := extract(ctx)
		require.True(t, ok)
		assert.Equal(t, "tenant_id", attr.Key)
		assert.EqualValues(t, 8, attr.Value.Int64())
	})
}
