package persistence

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// mustTestPool returns a pool with freshly bootstrapped, uniquely named schemas.
// TEST_DATABASE_URL points the tests at an existing server; otherwise a postgres container is started.
func mustTestPool(t *testing.T) (*pgxpool.Pool, Schemas) {
	t.Helper()
	return mustTestPoolWithMaxConns(t, 0)
}

// mustTestPoolWithMaxConns is mustTestPool with a capped pool size; 0 keeps the pgx default.
func mustTestPoolWithMaxConns(t *testing.T, maxConns int32) (*pgxpool.Pool, Schemas) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	connString := strings.TrimSpace(os.Getenv("TEST_DATABASE_URL"))
	if connString == "" {
		pgContainer, err := postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("palmyra"),
			postgres.WithUsername("postgres"),
			postgres.WithPassword("postgres"),
			testcontainers.WithWaitStrategy(wait.ForListeningPort("5432/tcp").WithStartupTimeout(2*time.Minute)),
		)
		require.NoError(t, err)
		t.Cleanup(func() {
			_ = pgContainer.Terminate(context.Background())
		})

		connString, err = pgContainer.ConnectionString(ctx, "sslmode=disable")
		require.NoError(t, err)
	}

	pool, err := NewPool(ctx, PoolConfig{ConnString: connString, ApplicationName: "persistence-tests", MaxConns: maxConns})
	require.NoError(t, err)
	t.Cleanup(func() { ClosePool(pool) })

	suffix := strings.ReplaceAll(uuid.NewString()[:8], "-", "")
	schemas := Schemas{Admin: "org_admin_" + suffix, Tenant: "tenant_data_" + suffix}
	require.NoError(t, BootstrapSchemas(ctx, pool, schemas))

	return pool, schemas
}
