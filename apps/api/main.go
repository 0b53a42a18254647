package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"

	authservice "github.com/zenGate-Global/palmyra-org-admin/domains/auth/be/service"
	orgsprov "github.com/zenGate-Global/palmyra-org-admin/domains/organizations/be/provisioning"
	orgsrepo "github.com/zenGate-Global/palmyra-org-admin/domains/organizations/be/repo"
	orgsservice "github.com/zenGate-Global/palmyra-org-admin/domains/organizations/be/service"
	platformauth "github.com/zenGate-Global/palmyra-org-admin/platform/go/auth"
	platformlogging "github.com/zenGate-Global/palmyra-org-admin/platform/go/logging"
	"github.com/zenGate-Global/palmyra-org-admin/platform/go/persistence"
)

// defaultJWTSecret is only acceptable for local development; a warning is logged when it is in use.
const defaultJWTSecret = "supersecretkey_change_in_production"

type config struct {
	Port             string        `env:"PORT" envDefault:"3000"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RequestTimeout   time.Duration `env:"REQUEST_TIMEOUT" envDefault:"60s"`
	LogLevel         string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat        string        `env:"LOG_FORMAT" envDefault:"json"`
	StorageBackend   string        `env:"STORAGE_BACKEND" envDefault:"postgres"` // postgres | memory
	DatabaseURL      string        `env:"DATABASE_URL"`                          // required when STORAGE_BACKEND=postgres
	AdminSchema      string        `env:"ADMIN_SCHEMA" envDefault:"org_admin"`
	TenantSchema     string        `env:"TENANT_SCHEMA" envDefault:"tenant_data"`
	BootstrapSchemas bool          `env:"BOOTSTRAP_SCHEMAS" envDefault:"true"`
	JWTSecret        string        `env:"JWT_SECRET" envDefault:"supersecretkey_change_in_production"`
	JWTIssuer        string        `env:"JWT_ISSUER"`
	JWTExpiry        time.Duration `env:"JWT_EXPIRY" envDefault:"168h"`
	BcryptCost       int           `env:"BCRYPT_COST" envDefault:"10"`
	CORSOrigins      []string      `env:"CORS_ORIGINS" envSeparator:","`
	StaticDir        string        `env:"STATIC_DIR" envDefault:"public"`
	BodyLimitBytes   int64         `env:"BODY_LIMIT_BYTES" envDefault:"52428800"`
}

func main() {
	ctx := context.Background()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := platformlogging.NewLogger(platformlogging.Config{
		Component: "org-admin-api",
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
	})
	if err != nil {
		log.Fatalf("init zap logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if cfg.JWTSecret == defaultJWTSecret {
		logger.Warn("JWT_SECRET is not set; using the insecure development default")
	}

	backend, cleanup, err := buildBackend(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("init storage backend", zap.String("backend", cfg.StorageBackend), zap.Error(err))
	}
	defer cleanup()

	tokenCfg := platformauth.TokenConfig{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer, TTL: cfg.JWTExpiry}
	issuer, err := platformauth.NewTokenIssuer(tokenCfg)
	if err != nil {
		logger.Fatal("init token issuer", zap.Error(err))
	}
	verifier, err := platformauth.NewTokenVerifier(tokenCfg)
	if err != nil {
		logger.Fatal("init token verifier", zap.Error(err))
	}

	hasher := platformauth.NewPasswordHasher(cfg.BcryptCost)
	orgService := orgsservice.New(backend.repo, backend.provisioner, hasher)
	authService := authservice.New(backend.repo, hasher, issuer)

	router, err := newRouter(routerDeps{
		cfg:         cfg,
		logger:      logger,
		orgs:        orgService,
		auth:        authService,
		requireAuth: buildAuthMiddleware(verifier, authService),
		ready:       backend.ready,
	})
	if err != nil {
		logger.Fatal("build router", zap.Error(err))
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 10*time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		logger.Info("starting api server", zap.String("port", cfg.Port), zap.String("backend", cfg.StorageBackend))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server listen failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

type backend struct {
	repo        orgsservice.Repository
	provisioner orgsservice.CollectionProvisioner
	ready       func(context.Context) error
}

// buildBackend wires the organization directory and the tenant collection provisioner for the configured storage.
func buildBackend(ctx context.Context, cfg config, logger *zap.Logger) (backend, func(), error) {
	switch cfg.StorageBackend {
	case "memory":
		logger.Warn("using in-memory storage; data is lost on restart")
		return backend{
			repo:        orgsrepo.NewMemoryRepository(),
			provisioner: orgsprov.NewMemoryCollectionProvisioner(),
			ready:       func(context.Context) error { return nil },
		}, func() {}, nil
	case "postgres":
	default:
		return backend{}, nil, errors.New("invalid STORAGE_BACKEND (use postgres or memory)")
	}

	if cfg.DatabaseURL == "" {
		return backend{}, nil, errors.New("DATABASE_URL is required when STORAGE_BACKEND=postgres")
	}

	pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: cfg.DatabaseURL, ApplicationName: "org-admin-api"})
	if err != nil {
		return backend{}, nil, err
	}
	cleanup := func() { persistence.ClosePool(pool) }

	schemas, err := persistence.Schemas{Admin: cfg.AdminSchema, Tenant: cfg.TenantSchema}.Validate()
	if err != nil {
		cleanup()
		return backend{}, nil, err
	}
	if cfg.BootstrapSchemas {
		if err := persistence.BootstrapSchemas(ctx, pool, schemas); err != nil {
			cleanup()
			return backend{}, nil, err
		}
		logger.Info("schemas bootstrapped", zap.String("admin_schema", schemas.Admin), zap.String("tenant_schema", schemas.Tenant))
	}

	directory, err := persistence.NewDirectoryStore(ctx, pool, schemas.Admin)
	if err != nil {
		cleanup()
		return backend{}, nil, err
	}
	collections, err := persistence.NewCollectionStore(pool, schemas.Tenant)
	if err != nil {
		cleanup()
		return backend{}, nil, err
	}

	return backend{
		repo:        orgsrepo.NewPostgresRepository(directory),
		provisioner: orgsprov.NewPostgresCollectionProvisioner(collections),
		ready:       pool.Ping,
	}, cleanup, nil
}
