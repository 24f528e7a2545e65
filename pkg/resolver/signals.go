package resolver

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/licitahub/tenancy/pkg/authtoken"
)

// Default header names for transport-level signals.
const (
	DefaultTenantHeader  = "X-Tenant-ID"
	DefaultEmpresaHeader = "X-Empresa-ID"
)

// SignalReader extracts one kind of identifying signal from an HTTP request
// into Signals. Readers leave fields they know nothing about alone so they
// compose.
type SignalReader func(r *http.Request, sig *Signals) error

// TenantHeaderReader reads an explicit tenant ID from a trusted header.
// Defaults to "X-Tenant-ID" if headerName is empty. Because this is the
// highest-priority signal, a malformed value is an error, not an absent
// signal.
func TenantHeaderReader(headerName string) SignalReader {
	if headerName == "" {
		headerName = DefaultTenantHeader
	}
	return func(r *http.Request, sig *Signals) error {
		value := strings.TrimSpace(r.Header.Get(headerName))
		if value == "" {
			return nil
		}
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("%w: header %s", ErrInvalidIdentifier, headerName)
		}
		sig.TenantID = id
		return nil
	}
}

// EmpresaHeaderReader reads the active business-unit ID from a header.
// Defaults to "X-Empresa-ID" if headerName is empty.
func EmpresaHeaderReader(headerName string) SignalReader {
	if headerName == "" {
		headerName = DefaultEmpresaHeader
	}
	return func(r *http.Request, sig *Signals) error {
		value := strings.TrimSpace(r.Header.Get(headerName))
		if value == "" {
			return nil
		}
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("%w: header %s", ErrInvalidIdentifier, headerName)
		}
		sig.EmpresaID = id
		return nil
	}
}

// BearerClaimsReader extracts the tenant and empresa claims from a bearer
// token. An unverifiable or expired token contributes no signal: token
// validity is the authentication layer's concern, and the claim is only a
// fallback hint for routing.
func BearerClaimsReader(svc *authtoken.Service) SignalReader {
	return func(r *http.Request, sig *Signals) error {
		auth := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if svc == nil || len(auth) <= len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
			return nil
		}

		claims, err := svc.Parse(strings.TrimSpace(auth[len(prefix):]))
		if err != nil {
			return nil
		}
		sig.ClaimTenantID = claims.TenantID
		if sig.EmpresaID == 0 {
			sig.EmpresaID = claims.EmpresaID
		}
		return nil
	}
}

// ReadSignals applies every reader to the request, in order.
func ReadSignals(r *http.Request, readers ...SignalReader) (Signals, error) {
	var sig Signals
	for _, read := range readers {
		if read == nil {
			continue
		}
		if err := read(r, &sig); err != nil {
			return Signals{}, err
		}
	}
	return sig, nil
}
