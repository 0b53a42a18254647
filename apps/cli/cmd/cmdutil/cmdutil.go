package cmdutil

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	orgsprov "github.com/zenGate-Global/palmyra-org-admin/domains/organizations/be/provisioning"
	orgsrepo "github.com/zenGate-Global/palmyra-org-admin/domains/organizations/be/repo"
	orgsservice "github.com/zenGate-Global/palmyra-org-admin/domains/organizations/be/service"
	platformauth "github.com/zenGate-Global/palmyra-org-admin/platform/go/auth"
	platformlogging "github.com/zenGate-Global/palmyra-org-admin/platform/go/logging"
	"github.com/zenGate-Global/palmyra-org-admin/platform/go/persistence"
	"github.com/zenGate-Global/palmyra-org-admin/platform/go/requesttrace"
)

// Options are the connection settings shared by every command. Environment variables seed
// the defaults and flags override them.
type Options struct {
	DatabaseURL  string `env:"DATABASE_URL"`
	AdminSchema  string `env:"ADMIN_SCHEMA" envDefault:"org_admin"`
	TenantSchema string `env:"TENANT_SCHEMA" envDefault:"tenant_data"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"warn"`
	BcryptCost   int    `env:"BCRYPT_COST" envDefault:"10"`
}

// DefaultOptions reads the environment; parse failures fall back to zero values and surface on use.
func DefaultOptions() *Options {
	opts := &Options{}
	_ = env.Parse(opts)
	return opts
}

// BindPersistentFlags registers the shared flags on the root command.
func BindPersistentFlags(cmd *cobra.Command, opts *Options) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.DatabaseURL, "database-url", opts.DatabaseURL, "PostgreSQL connection string (env DATABASE_URL)")
	flags.StringVar(&opts.AdminSchema, "admin-schema", opts.AdminSchema, "Schema holding organizations and admin users")
	flags.StringVar(&opts.TenantSchema, "tenant-schema", opts.TenantSchema, "Schema holding organization collections")
	flags.StringVar(&opts.LogLevel, "log-level", opts.LogLevel, "Log level (debug, info, warn, error)")
	flags.IntVar(&opts.BcryptCost, "bcrypt-cost", opts.BcryptCost, "bcrypt cost used for new passwords")
}

// Schemas returns the validated schema pair.
func (o *Options) Schemas() (persistence.Schemas, error) {
	return persistence.Schemas{Admin: o.AdminSchema, Tenant: o.TenantSchema}.Validate()
}

// Env is the shared wiring of one CLI invocation.
type Env struct {
	Pool        *pgxpool.Pool
	Schemas     persistence.Schemas
	Logger      *zap.Logger
	Repo        *orgsrepo.PostgresRepository
	Collections *orgsprov.PostgresCollectionProvisioner
	Orgs        *orgsservice.Service
	Hasher      *platformauth.PasswordHasher
}

// Open connects to Postgres and builds the same services the API uses. The returned context
// carries a system audit record and the console logger.
func Open(ctx context.Context, opts *Options, stderr io.Writer) (context.Context, *Env, error) {
	if opts.DatabaseURL == "" {
		return ctx, nil, errors.New("database url is required (--database-url or DATABASE_URL)")
	}
	schemas, err := opts.Schemas()
	if err != nil {
		return ctx, nil, err
	}

	logger, err := platformlogging.NewLogger(platformlogging.Config{
		Component: "orgadmin-cli",
		Level:     opts.LogLevel,
		Format:    "console",
		Output:    stderr,
	})
	if err != nil {
		return ctx, nil, fmt.Errorf("init logger: %w", err)
	}

	pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: opts.DatabaseURL, ApplicationName: "orgadmin-cli"})
	if err != nil {
		return ctx, nil, fmt.Errorf("init pool: %w", err)
	}

	directory, err := persistence.NewDirectoryStore(ctx, pool, schemas.Admin)
	if err != nil {
		persistence.ClosePool(pool)
		return ctx, nil, fmt.Errorf("init directory store: %w", err)
	}
	collections, err := persistence.NewCollectionStore(pool, schemas.Tenant)
	if err != nil {
		persistence.ClosePool(pool)
		return ctx, nil, fmt.Errorf("init collection store: %w", err)
	}

	e := &Env{
		Pool:        pool,
		Schemas:     schemas,
		Logger:      logger,
		Repo:        orgsrepo.NewPostgresRepository(directory),
		Collections: orgsprov.NewPostgresCollectionProvisioner(collections),
		Hasher:      platformauth.NewPasswordHasher(opts.BcryptCost),
	}
	e.Orgs = orgsservice.New(e.Repo, e.Collections, e.Hasher)

	ctx = platformlogging.WithLogger(ctx, logger)
	ctx = requesttrace.IntoContext(ctx, requesttrace.System(uuid.NewString()))
	return ctx, e, nil
}

// Close releases the pool and flushes the logger.
func (e *Env) Close() {
	persistence.ClosePool(e.Pool)
	_ = e.Logger.Sync()
}
