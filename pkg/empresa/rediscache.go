package empresa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultCacheTTL bounds how long a cached entry can mask an index update
// made by another node. Writes invalidate locally, so the TTL only matters
// for cross-node staleness.
const DefaultCacheTTL = 5 * time.Minute

// CachedIndex is a read-through Redis cache over another Index. Lookups are
// the hot path of resolution step 4; the underlying store only sees misses.
// Cache failures degrade to the underlying index rather than failing the
// lookup.
type CachedIndex struct {
	next Index
	rdb  *redis.Client
	ttl  time.Duration
	log  *slog.Logger
}

// NewCachedIndex wraps an index with a Redis read-through cache.
// A non-positive TTL selects DefaultCacheTTL.
func NewCachedIndex(next Index, rdb *redis.Client, ttl time.Duration, log *slog.Logger) (*CachedIndex, error) {
	if next == nil {
		return nil, errors.New("empresa: underlying index is required")
	}
	if rdb == nil {
		return nil, errors.New("empresa: redis client is required")
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if log == nil {
		log = slog.Default()
	}
	return &CachedIndex{next: next, rdb: rdb, ttl: ttl, log: log}, nil
}

func cacheKey(empresaID int64) string {
	return fmt.Sprintf("tenancy:empresa:%d", empresaID)
}

// LookupTenantID implements Index.
func (c *CachedIndex) LookupTenantID(ctx context.Context, empresaID int64) (int64, error) {
	val, err := c.rdb.Get(ctx, cacheKey(empresaID)).Result()
	switch {
	case err == nil:
		if tenantID, parseErr := strconv.ParseInt(val, 10, 64); parseErr == nil {
			return tenantID, nil
		}
		// Unparseable entry, drop it and fall through.
		c.invalidate(ctx, empresaID)
	case !errors.Is(err, redis.Nil):
		c.log.WarnContext(ctx, "empresa cache read failed, falling through", "empresa_id", empresaID, "error", err)
	}

	tenantID, err := c.next.LookupTenantID(ctx, empresaID)
	if err != nil {
		return 0, err
	}

	if err := c.rdb.Set(ctx, cacheKey(empresaID), strconv.FormatInt(tenantID, 10), c.ttl).Err(); err != nil {
		c.log.WarnContext(ctx, "empresa cache write failed", "empresa_id", empresaID, "error", err)
	}
	return tenantID, nil
}

// Upsert implements Index, invalidating the cache after the write.
func (c *CachedIndex) Upsert(ctx context.Context, empresaID, tenantID int64) error {
	if err := c.next.Upsert(ctx, empresaID, tenantID); err != nil {
		return err
	}
	c.invalidate(ctx, empresaID)
	return nil
}

// Remove implements Index, invalidating the cache after the write.
func (c *CachedIndex) Remove(ctx context.Context, empresaID int64) error {
	if err := c.next.Remove(ctx, empresaID); err != nil {
		return err
	}
	c.invalidate(ctx, empresaID)
	return nil
}

func (c *CachedIndex) invalidate(ctx context.Context, empresaID int64) {
	if err := c.rdb.Del(ctx, cacheKey(empresaID)).Err(); err != nil {
		c.log.WarnContext(ctx, "empresa cache invalidation failed", "empresa_id", empresaID, "error", err)
	}
}
