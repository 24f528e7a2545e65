package resolver_test

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/licitahub/tenancy/pkg/resolver"
	"github.com/licitahub/tenancy/pkg/tenant"
)

func TestMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("routes the request to the resolved tenant", func(t *testing.T) {
		t.Parallel()

		w := newWorld(t, 7)
		mw := resolver.Middleware(w.resolver, w.router)

		var gotID int64
		handler := mw(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			id, ok := tenant.IDFromContext(r.Context())
			require.True(t, ok)
			gotID = id
			rw.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest("GET", "http://api.example.com/contracts", nil)
		req.Header.Set("X-Tenant-ID", "7")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.EqualValues(t, 7, gotID)
	})

	t.Run("requests without signals pass through unbound", func(t *testing.T) {
		t.Parallel()

		w := newWorld(t, 7)
		mw := resolver.Middleware(w.resolver, w.router)

		handler := mw(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			_, ok := tenant.BindingFromContext(r.Context())
			assert.False(t, ok)
			rw.WriteHeader(http.StatusOK)
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "http://api.example.com/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("skip paths bypass resolution entirely", func(t *testing.T) {
		t.Parallel()

		w := newWorld(t, 7)
		mw := resolver.Middleware(w.resolver, w.router,
			resolver.WithSkipPaths([]string{"/health"}))

		handler := mw(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			rw.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest("GET", "http://api.example.com/health", nil)
		req.Header.Set("X-Tenant-ID", "not-a-number") // would otherwise 400
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("error responses do not enumerate tenants", func(t *testing.T) {
		t.Parallel()

		w := newWorld(t, 7)
		w.registry.Upsert(&tenant.Tenant{ID: 8, Status: tenant.StatusSuspended})
		mw := resolver.Middleware(w.resolver, w.router)

		handler := mw(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not run")
		}))

		// Nonexistent vs. suspended must be indistinguishable to the caller.
		var bodies []string
		var codes []int
		for _, id := range []int64{999, 8} {
			req := httptest.NewRequest("GET", "http://api.example.com/", nil)
			req.Header.Set("X-Tenant-ID", strconv.FormatInt(id, 10))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			bodies = append(bodies, rec.Body.String())
			codes = append(codes, rec.Code)
		}

		assert.Equal(t, http.StatusNotFound, codes[0])
		assert.Equal(t, codes[0], codes[1])
		assert.Equal(t, bodies[0], bodies[1])
	})

	t.Run("malformed identifier is a bad request", func(t *testing.T) {
		t.Parallel()

		w := newWorld(t, 7)
		mw := resolver.Middleware(w.resolver, w.router)
		handler := mw(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {}))

		req := httptest.NewRequest("GET", "http://api.example.com/", nil)
		req.Header.Set("X-Tenant-ID", "garbage")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unreachable store is a retryable failure", func(t *testing.T) {
		t.Parallel()

		w := newWorld(t, 7)
		w.downDSNs["postgres://tenant-7"] = true
		mw := resolver.Middleware(w.resolver, w.router)
		handler := mw(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not run")
		}))

		req := httptest.NewRequest("GET", "http://api.example.com/", nil)
		req.Header.Set("X-Tenant-ID", "7")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("custom error handler is honored", func(t *testing.T) {
		t.Parallel()

		w := newWorld(t, 7)
		mw := resolver.Middleware(w.resolver, w.router,
			resolver.WithErrorHandler(func(rw http.ResponseWriter, r *http.Request, err error) {
				rw.WriteHeader(http.StatusTeapot)
			}))
		handler := mw(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {}))

		req := httptest.NewRequest("GET", "http://api.example.com/", nil)
		req.Header.Set("X-Tenant-ID", "999")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusTeapot, rec.Code)
	})
}

func TestRequireBinding(t *testing.T) {
	t.Parallel()

	t.Run("rejects unbound requests", func(t *testing.T) {
		t.Parallel()

		handler := resolver.RequireBinding(nil)(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not run")
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "http://api.example.com/", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("passes bound requests through", func(t *testing.T) {
		t.Parallel()

		handler := resolver.RequireBinding(nil)(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			rw.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest("GET", "http://api.example.com/", nil)
		ctx := tenant.WithBinding(req.Context(), &tenant.Binding{Tenant: &tenant.Tenant{ID: 1}})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req.WithContext(ctx))

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
