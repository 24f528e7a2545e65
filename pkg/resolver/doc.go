// Package resolver attributes each unit of work to exactly one tenant,
// given whatever identifying signals it arrived with.
//
// # Resolution priority
//
// Resolve consults signals in a fixed order, each step attempted only when
// the previous yielded nothing:
//
//  1. The already-active binding, after cheaply confirming the lookup
//     target actually resides in the bound tenant's store
//  2. An explicit tenant identifier from a trusted transport signal
//  3. A tenant claim embedded in a previously issued credential (may be stale)
//  4. The empresa index, O(1), with read-repair when the entry turns out stale
//  5. The exhaustive cross-tenant scan, O(number of tenants), last resort
//
// The scan is an explicit, concurrency-gated API (LocateUserByEmail,
// ScanForEmpresa) rather than a hidden consequence of missing signals, so
// its cost stays visible to callers and operators. It exists because email
// is only unique within a single tenant's store; locating "the tenant for
// this email" has no global index to consult. The first tenant containing a
// match, in registry iteration order, is treated as authoritative.
//
// # HTTP integration
//
// SignalReaders extract signals from a request (tenant header, empresa
// header, bearer-token claims), and Middleware wires extraction, resolution
// and routed activation together:
//
//	mw := resolver.Middleware(res, rtr,
//		resolver.WithSignalReaders(
//			resolver.TenantHeaderReader(""),
//			resolver.BearerClaimsReader(tokens),
//			resolver.EmpresaHeaderReader(""),
//		),
//		resolver.WithSkipPaths([]string{"/health"}),
//	)
//
// The default error handler is enumeration-safe: resolution failures all
// collapse into one generic not-found response, infrastructure failures
// into one retryable response.
package resolver
