package router

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/licitahub/tenancy/pkg/tenant"
)

// ConnectCentral opens the pool for the central store. The registry and the
// empresa index live there; tenant-scoped pools are the router's business.
// Retries with linear backoff so that a fleet restart does not hammer the
// database with simultaneous reconnects.
func ConnectCentral(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	return dial(ctx, tenant.ConnDescriptor{DSN: cfg.CentralDSN}, cfg)
}

// dial opens and verifies a pool for one connection descriptor.
func dial(ctx context.Context, desc tenant.ConnDescriptor, cfg Config) (*pgxpool.Pool, error) {
	connConfig, err := pgxpool.ParseConfig(desc.DSN)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseConnConfig, err)
	}

	maxConns := cfg.MaxOpenConns
	if desc.MaxConns > 0 {
		maxConns = desc.MaxConns
	}
	connConfig.MaxConns = maxConns
	connConfig.MinConns = cfg.MaxIdleConns
	connConfig.HealthCheckPeriod = cfg.HealthCheckPeriod
	connConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	connConfig.MaxConnLifetime = cfg.MaxConnLifetime

	attempts := cfg.RetryAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for i := range attempts {
		pool, err := pgxpool.NewWithConfig(ctx, connConfig)
		if err == nil {
			// Ping to catch authentication and permission failures that only
			// surface on the first real round-trip.
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrConnectionUnavailable, ctx.Err())
		case <-time.After(time.Duration(i+1) * cfg.RetryInterval):
		}
	}

	return nil, errors.Join(ErrConnectionUnavailable, lastErr)
}
