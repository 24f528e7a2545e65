package resolver_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/licitahub/tenancy/pkg/authtoken"
	"github.com/licitahub/tenancy/pkg/resolver"
)

func TestTenantHeaderReader(t *testing.T) {
	t.Parallel()

	t.Run("reads numeric tenant id", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest("GET", "http://api.example.com/", nil)
		req.Header.Set("X-Tenant-ID", "7")

		sig, err := resolver.ReadSignals(req, resolver.TenantHeaderReader(""))
		require.NoError(t, err)
		assert.EqualValues(t, 7, sig.TenantID)
	})

	t.Run("absent header is no signal", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest("GET", "http://api.example.com/", nil)
		sig, err := resolver.ReadSignals(req, resolver.TenantHeaderReader(""))
		require.NoError(t, err)
		assert.True(t, sig.Empty())
	})

	t.Run("malformed value is an error", func(t *testing.T) {
		t.Parallel()

		for _, bad := range []string{"abc", "-3", "0", "7; DROP TABLE"} {
			req := httptest.NewRequest("GET", "http://api.example.com/", nil)
			req.Header.Set("X-Tenant-ID", bad)

			_, err := resolver.ReadSignals(req, resolver.TenantHeaderReader(""))
			assert.ErrorIs(t, err, resolver.ErrInvalidIdentifier, "value %q", bad)
		}
	})

	t.Run("custom header name", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest("GET", "http://api.example.com/", nil)
		req.Header.Set("X-Partition", "12")

		sig, err := resolver.ReadSignals(req, resolver.TenantHeaderReader("X-Partition"))
		require.NoError(t, err)
		assert.EqualValues(t, 12, sig.TenantID)
	})
}

func TestEmpresaHeaderReader(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("GET", "http://api.example.com/", nil)
	req.Header.Set("X-Empresa-ID", "42")

	sig, err := resolver.ReadSignals(req, resolver.EmpresaHeaderReader(""))
	require.NoError(t, err)
	assert.EqualValues(t, 42, sig.EmpresaID)
}

func TestBearerClaimsReader(t *testing.T) {
	t.Parallel()

	svc, err := authtoken.New([]byte("test-signing-key-at-least-32-bytes!!"))
	require.NoError(t, err)

	t.Run("extracts tenant and empresa claims", func(t *testing.T) {
		t.Parallel()

		token, err := svc.Issue(authtoken.Claims{
			Subject:   "user-1",
			TenantID:  9,
			EmpresaID: 42,
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		})
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "http://api.example.com/", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		sig, err := resolver.ReadSignals(req, resolver.BearerClaimsReader(svc))
		require.NoError(t, err)
		assert.EqualValues(t, 9, sig.ClaimTenantID)
		assert.EqualValues(t, 42, sig.EmpresaID)
	})

	t.Run("explicit empresa header outranks the claim", func(t *testing.T) {
		t.Parallel()

		token, err := svc.Issue(authtoken.Claims{TenantID: 9, EmpresaID: 42})
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "http://api.example.com/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("X-Empresa-ID", "77")

		sig, err := resolver.ReadSignals(req,
			resolver.EmpresaHeaderReader(""),
			resolver.BearerClaimsReader(svc),
		)
		require.NoError(t, err)
		assert.EqualValues(t, 77, sig.EmpresaID)
		assert.EqualValues(t, 9, sig.ClaimTenantID)
	})

	t.Run("forged token contributes no signal", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest("GET", "http://api.example.com/", nil)
		req.Header.Set("Authorization", "Bearer not.a.token")

		sig, err := resolver.ReadSignals(req, resolver.BearerClaimsReader(svc))
		require.NoError(t, err)
		assert.True(t, sig.Empty())
	})

	t.Run("expired token contributes no signal", func(t *testing.T) {
		t.Parallel()

		token, err := svc.Issue(authtoken.Claims{
			TenantID:  9,
			ExpiresAt: time.Now().Add(-time.Hour).Unix(),
		})
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "http://api.example.com/", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		sig, err := resolver.ReadSignals(req, resolver.BearerClaimsReader(svc))
		require.NoError(t, err)
		assert.True(t, sig.Empty())
	})

	t.Run("missing authorization header", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest("GET", "http://api.example.com/", nil)
		sig, err := resolver.ReadSignals(req, resolver.BearerClaimsReader(svc))
		require.NoError(t, err)
		assert.True(t, sig.Empty())
	})
}
