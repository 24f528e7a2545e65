package router_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/licitahub/tenancy/pkg/router"
	"github.com/licitahub/tenancy/pkg/tenant"
)

func activeTenant(id int64) *tenant.Tenant {
	return &tenant.Tenant{
		ID:     id,
		Name:   "tenant",
		Status: tenant.StatusActive,
		Conn:   tenant.ConnDescriptor{DSN: "postgres://fake"},
	}
}

// countingDialer records dial attempts and never opens a real pool.
func countingDialer(count *atomic.Int64) router.Dialer {
	return func(ctx context.Context, desc tenant.ConnDescriptor, cfg router.Config) (*pgxpool.Pool, error) {
		count.Add(1)
		return nil, nil
	}
}

func failingDialer(err error) router.Dialer {
	return func(ctx context.Context, desc tenant.ConnDescriptor, cfg router.Config) (*pgxpool.Pool, error) {
		return nil, err
	}
}

func TestRouterActivate(t *testing.T) {
	t.Parallel()

	t.Run("activates and publishes binding", func(t *testing.T) {
		t.Parallel()

		var dials atomic.Int64
		r := router.New(router.Config{}, router.WithDialer(countingDialer(&dials)))
		defer r.Close()

		t7 := activeTenant(7)
		ctx, h, err := r.Activate(context.Background(), t7)
		require.NoError(t, err)
		defer r.Deactivate(h)

		assert.EqualValues(t, 7, h.TenantID())
		id, ok := tenant.IDFromContext(ctx)
		require.True(t, ok)
		assert.EqualValues(t, 7, id)
		assert.EqualValues(t, 1, dials.Load())
	})

	t.Run("same tenant reactivation is a no-op", func(t *testing.T) {
		t.Parallel()

		var dials atomic.Int64
		r := router.New(router.Config{}, router.WithDialer(countingDialer(&dials)))
		defer r.Close()

		t7 := activeTenant(7)
		ctx, h1, err := r.Activate(context.Background(), t7)
		require.NoError(t, err)
		defer r.Deactivate(h1)

		ctx2, h2, err := r.Activate(ctx, t7)
		require.NoError(t, err)
		defer r.Deactivate(h2)

		assert.Equal(t, ctx, ctx2)
		assert.EqualValues(t, 1, dials.Load(), "reactivating the bound tenant must not dial again")
	})

	t.Run("different tenant without deactivate is rejected", func(t *testing.T) {
		t.Parallel()

		var dials atomic.Int64
		r := router.New(router.Config{}, router.WithDialer(countingDialer(&dials)))
		defer r.Close()

		ctx, h, err := r.Activate(context.Background(), activeTenant(1))
		require.NoError(t, err)
		defer r.Deactivate(h)

		_, _, err = r.Activate(ctx, activeTenant(2))
		assert.ErrorIs(t, err, tenant.ErrContextAlreadyActive)
	})

	t.Run("suspended tenant is refused", func(t *testing.T) {
		t.Parallel()

		r := router.New(router.Config{}, router.WithDialer(countingDialer(new(atomic.Int64))))
		defer r.Close()

		suspended := activeTenant(3)
		suspended.Status = tenant.StatusSuspended

		_, _, err := r.Activate(context.Background(), suspended)
		assert.ErrorIs(t, err, tenant.ErrTenantSuspended)
	})

	t.Run("unreachable store leaves context unchanged", func(t *testing.T) {
		t.Parallel()

		r := router.New(router.Config{}, router.WithDialer(failingDialer(router.ErrConnectionUnavailable)))
		defer r.Close()

		base := context.Background()
		ctx, h, err := r.Activate(base, activeTenant(5))
		assert.ErrorIs(t, err, router.ErrConnectionUnavailable)
		assert.Nil(t, h)
		assert.Equal(t, base, ctx)

		_, bound := tenant.BindingFromContext(ctx)
		assert.False(t, bound, "partial activation must not be observable")
	})

	t.Run("closed router rejects activation", func(t *testing.T) {
		t.Parallel()

		r := router.New(router.Config{}, router.WithDialer(countingDialer(new(atomic.Int64))))
		r.Close()

		_, _, err := r.Activate(context.Background(), activeTenant(1))
		assert.ErrorIs(t, err, router.ErrRouterClosed)
	})

	t.Run("nil tenant is rejected", func(t *testing.T) {
		t.Parallel()

		r := router.New(router.Config{}, router.WithDialer(countingDialer(new(atomic.Int64))))
		defer r.Close()

		_, _, err := r.Activate(context.Background(), nil)
		assert.ErrorIs(t, err, router.ErrNilTenant)
	})
}

func TestRouterRunIn(t *testing.T) {
	t.Parallel()

	t.Run("binds for the duration of fn and restores after", func(t *testing.T) {
		t.Parallel()

		r := router.New(router.Config{}, router.WithDialer(countingDialer(new(atomic.Int64))))
		defer r.Close()

		base := context.Background()
		err := r.RunIn(base, activeTenant(5), func(ctx context.Context) error {
			id, ok := tenant.IDFromContext(ctx)
			require.True(t, ok)
			assert.EqualValues(t, 5, id)
			return nil
		})
		require.NoError(t, err)

		_, bound := tenant.BindingFromContext(base)
		assert.False(t, bound, "caller context must stay unbound")
	})

	t.Run("error from fn propagates and context stays clean", func(t *testing.T) {
		t.Parallel()

		r := router.New(router.Config{}, router.WithDialer(countingDialer(new(atomic.Int64))))
		defer r.Close()

		wantErr := errors.New("boom")
		err := r.RunIn(context.Background(), activeTenant(5), func(ctx context.Context) error {
			return wantErr
		})
		assert.ErrorIs(t, err, wantErr)

		// A later unit of work is unaffected by the earlier failure.
		err = r.RunIn(context.Background(), activeTenant(6), func(ctx context.Context) error {
			id, ok := tenant.IDFromContext(ctx)
			require.True(t, ok)
			assert.EqualValues(t, 6, id)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("panic in fn does not leak the binding", func(t *testing.T) {
		t.Parallel()

		r := router.New(router.Config{}, router.WithDialer(countingDialer(new(atomic.Int64))))
		defer r.Close()

		base := context.Background()
		assert.Panics(t, func() {
			_ = r.RunIn(base, activeTenant(5), func(ctx context.Context) error {
				panic("fn exploded")
			})
		})

		err := r.RunIn(base, activeTenant(6), func(ctx context.Context) error {
			id, _ := tenant.IDFromContext(ctx)
			assert.EqualValues(t, 6, id)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("nested RunIn shadows and restores the outer tenant", func(t *testing.T) {
		t.Parallel()

		r := router.New(router.Config{}, router.WithDialer(countingDialer(new(atomic.Int64))))
		defer r.Close()

		err := r.RunIn(context.Background(), activeTenant(1), func(outer context.Context) error {
			innerErr := r.RunIn(outer, activeTenant(2), func(inner context.Context) error {
				id, _ := tenant.IDFromContext(inner)
				assert.EqualValues(t, 2, id)
				return nil
			})
			require.NoError(t, innerErr)

			// Outer binding is intact after the inner scope exits.
			id, _ := tenant.IDFromContext(outer)
			assert.EqualValues(t, 1, id)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("unreachable store propagates without invoking fn", func(t *testing.T) {
		t.Parallel()

		r := router.New(router.Config{}, router.WithDialer(failingDialer(router.ErrConnectionUnavailable)))
		defer r.Close()

		invoked := false
		err := r.RunIn(context.Background(), activeTenant(5), func(ctx context.Context) error {
			invoked = true
			return nil
		})
		assert.ErrorIs(t, err, router.ErrConnectionUnavailable)
		assert.False(t, invoked)
	})

	t.Run("cancelled context still runs cleanup", func(t *testing.T) {
		t.Parallel()

		r := router.New(router.Config{}, router.WithDialer(countingDialer(new(atomic.Int64))))
		defer r.Close()

		ctx, cancel := context.WithCancel(context.Background())
		err := r.RunIn(ctx, activeTenant(5), func(scoped context.Context) error {
			cancel()
			return scoped.Err()
		})
		assert.ErrorIs(t, err, context.Canceled)

		// Router still serves subsequent work on a fresh context.
		err = r.RunIn(context.Background(), activeTenant(5), func(context.Context) error { return nil })
		require.NoError(t, err)
	})

	t.Run("RunInT returns the value", func(t *testing.T) {
		t.Parallel()

		r := router.New(router.Config{}, router.WithDialer(countingDialer(new(atomic.Int64))))
		defer r.Close()

		got, err := router.RunInT(context.Background(), r, activeTenant(9), func(ctx context.Context) (string, error) {
			return "ok", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", got)
	})
}

func TestRouterEvict(t *testing.T) {
	t.Parallel()

	t.Run("evicted tenant is redialed on next activation", func(t *testing.T) {
		t.Parallel()

		var dials atomic.Int64
		r := router.New(router.Config{}, router.WithDialer(countingDialer(&dials)))
		defer r.Close()

		t7 := activeTenant(7)
		require.NoError(t, r.RunIn(context.Background(), t7, func(context.Context) error { return nil }))
		require.NoError(t, r.RunIn(context.Background(), t7, func(context.Context) error { return nil }))
		assert.EqualValues(t, 1, dials.Load(), "pool is cached across units of work")

		r.Evict(7)
		require.NoError(t, r.RunIn(context.Background(), t7, func(context.Context) error { return nil }))
		assert.EqualValues(t, 2, dials.Load(), "eviction must force a fresh dial")
	})

	t.Run("evict during a live claim leaves the holder routed", func(t *testing.T) {
		t.Parallel()

		var dials atomic.Int64
		r := router.New(router.Config{}, router.WithDialer(countingDialer(&dials)))
		defer r.Close()

		t7 := activeTenant(7)
		ctx, h, err := r.Activate(context.Background(), t7)
		require.NoError(t, err)

		r.Evict(7)

		// The evicted pool is retired, not ripped away: the holder keeps its
		// binding until it deactivates.
		id, ok := tenant.IDFromContext(ctx)
		require.True(t, ok)
		assert.EqualValues(t, 7, id)

		r.Deactivate(h)
		r.Deactivate(h) // releasing twice is safe

		_, h2, err := r.Activate(context.Background(), t7)
		require.NoError(t, err)
		defer r.Deactivate(h2)
		assert.EqualValues(t, 2, dials.Load(), "work after the eviction gets a fresh pool")
	})

	t.Run("evicting an unknown tenant is a no-op", func(t *testing.T) {
		t.Parallel()

		r := router.New(router.Config{}, router.WithDialer(countingDialer(new(atomic.Int64))))
		defer r.Close()

		r.Evict(404)
	})
}

func TestRouterConcurrentExclusivity(t *testing.T) {
	t.Parallel()

	r := router.New(router.Config{}, router.WithDialer(countingDialer(new(atomic.Int64))))
	defer r.Close()

	const goroutines = 50
	const iterations = 100

	var wg sync.WaitGroup
	wg.Add(goroutines)

	for i := range goroutines {
		go func(id int64) {
			defer wg.Done()

			want := activeTenant(id + 1)
			for range iterations {
				err := r.RunIn(context.Background(), want, func(ctx context.Context) error {
					got, ok := tenant.IDFromContext(ctx)
					assert.True(t, ok)
					assert.Equal(t, want.ID, got, "a unit of work must never observe another unit's tenant")
					return nil
				})
				assert.NoError(t, err)
			}
		}(int64(i))
	}

	wg.Wait()
}
