package provisioning

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/zenGate-Global/palmyra-org-admin/platform/go/persistence"
)

func newPostgresProvisioner(t *testing.T) *PostgresCollectionProvisioner {
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
		t.Cleanup(func() { _ = pgContainer.Terminate(context.Background()) })

		connString, err = pgContainer.ConnectionString(ctx, "sslmode=disable")
		require.NoError(t, err)
	}

	pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: connString, ApplicationName: "provisioning-tests"})
	require.NoError(t, err)
	t.Cleanup(func() { persistence.ClosePool(pool) })

	suffix := strings.ReplaceAll(uuid.NewString()[:8], "-", "")
	schemas := persistence.Schemas{Admin: "org_admin_" + suffix, Tenant: "tenant_data_" + suffix}
	require.NoError(t, persistence.BootstrapSchemas(ctx, pool, schemas))

	store, err := persistence.NewCollectionStore(pool, schemas.Tenant)
	require.NoError(t, err)
	return NewPostgresCollectionProvisioner(store)
}

func TestPostgresProvisionerRenameMigration(t *testing.T) {
	ctx := context.Background()
	p := newPostgresProvisioner(t)

	require.NoError(t, p.Ensure(ctx, "org_acme_inc"))
	_, err := p.Insert(ctx, "org_acme_inc",
		persistence.Document{ID: "a", Fields: map[string]any{"k": "v"}},
		persistence.Document{ID: "b", Fields: map[string]any{"k": "w"}},
	)
	require.NoError(t, err)

	exists, err := p.Exists(ctx, "org_acme_corp")
	require.NoError(t, err)
	require.False(t, exists)

	require.NoError(t, p.Ensure(ctx, "org_acme_corp"))
	result, err := p.Copy(ctx, "org_acme_inc", "org_acme_corp")
	require.NoError(t, err)
	require.EqualValues(t, 2, result.Copied)
	require.Equal(t, 1, result.Batches)

	src, err := p.List(ctx, "org_acme_inc")
	require.NoError(t, err)
	dst, err := p.List(ctx, "org_acme_corp")
	require.NoError(t, err)
	require.Len(t, dst, 2)
	for i := range src {
		require.Equal(t, src[i].ID, dst[i].ID)
		require.Equal(t, src[i].Fields, dst[i].Fields)
	}

	require.NoError(t, p.Drop(ctx, "org_acme_inc"))
	require.ErrorIs(t, p.Drop(ctx, "org_acme_inc"), persistence.ErrNotFound)
}
