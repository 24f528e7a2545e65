// Package empresa maintains the 1:1 mapping from a business unit
// ("empresa") to the tenant whose isolated store it lives in.
//
// The mapping exists so request routing is O(1) instead of a scan across
// every tenant's store. It is a cache over reality, not the source of
// truth: code that attaches or detaches an empresa must update the index in
// the same transaction (see PGIndex.WithTx), and readers must treat a miss
// as "fall back to the scan", never as "does not exist". Staleness that
// slips through anyway is healed by the resolver's read-repair path.
//
// Three implementations compose:
//
//	pgIndex, _ := empresa.NewPGIndex(centralPool)
//	cached, _ := empresa.NewCachedIndex(pgIndex, redisClient, 0, log)
//
// MemoryIndex serves tests and single-node setups.
package empresa
