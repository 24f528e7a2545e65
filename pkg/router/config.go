package router

import "time"

type Config struct {
	CentralDSN string `env:"TENANCY_CENTRAL_DSN,required"` // CentralDSN is the connection string of the central (non-partitioned) store holding the tenant registry and empresa index.

	MaxOpenConns      int32         `env:"TENANCY_MAX_OPEN_CONNS" envDefault:"10"`      // MaxOpenConns is the per-tenant pool ceiling, unless the tenant's descriptor overrides it.
	MaxIdleConns      int32         `env:"TENANCY_MAX_IDLE_CONNS" envDefault:"2"`       // MaxIdleConns is the minimum number of warm connections kept per tenant pool.
	HealthCheckPeriod time.Duration `env:"TENANCY_HEALTHCHECK_PERIOD" envDefault:"1m"`  // HealthCheckPeriod is the period between pool health checks.
	MaxConnIdleTime   time.Duration `env:"TENANCY_MAX_CONN_IDLE_TIME" envDefault:"10m"` // MaxConnIdleTime is the maximum amount of time a connection may be idle to be reused.
	MaxConnLifetime   time.Duration `env:"TENANCY_MAX_CONN_LIFETIME" envDefault:"30m"`  // MaxConnLifetime is the maximum amount of time a connection may be reused.

	RetryAttempts int           `env:"TENANCY_RETRY_ATTEMPTS" envDefault:"3"`  // RetryAttempts is the number of dial attempts before a store is declared unavailable.
	RetryInterval time.Duration `env:"TENANCY_RETRY_INTERVAL" envDefault:"2s"` // RetryInterval is the base interval between dial attempts. It should be in the format "2s" for 2 seconds.

	MigrationsPath  string `env:"TENANCY_MIGRATIONS_PATH" envDefault:"migrations"`       // MigrationsPath is the path to the central store migrations directory.
	MigrationsTable string `env:"TENANCY_MIGRATIONS_TABLE" envDefault:"tenancy_schema_migrations"` // MigrationsTable is the name of the table used to store the migration version.
}
