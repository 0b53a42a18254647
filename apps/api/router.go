package main

import (
	"context"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/zenGate-Global/palmyra-org-admin/contracts"
	authhandler "github.com/zenGate-Global/palmyra-org-admin/domains/auth/be/handler"
	authservice "github.com/zenGate-Global/palmyra-org-admin/domains/auth/be/service"
	orgshandler "github.com/zenGate-Global/palmyra-org-admin/domains/organizations/be/handler"
	orgsservice "github.com/zenGate-Global/palmyra-org-admin/domains/organizations/be/service"
	"github.com/zenGate-Global/palmyra-org-admin/platform/go/httpjson"
	platformlogging "github.com/zenGate-Global/palmyra-org-admin/platform/go/logging"
	platformmiddleware "github.com/zenGate-Global/palmyra-org-admin/platform/go/middleware"
)

type routerDeps struct {
	cfg         config
	logger      *zap.Logger
	orgs        *orgsservice.Service
	auth        *authservice.Service
	requireAuth func(http.Handler) http.Handler
	ready       func(context.Context) error
}

func newRouter(deps routerDeps) (http.Handler, error) {
	spec, err := contracts.LoadOrganizations()
	if err != nil {
		return nil, err
	}

	rootRouter := chi.NewRouter()

	rootRouter.Use(
		chimw.RequestID,
		chimw.RealIP,
		platformmiddleware.Recoverer(deps.logger),
		chimw.Timeout(deps.cfg.RequestTimeout),
		platformmiddleware.CORS(deps.cfg.CORSOrigins),
	)

	rootRouter.Use(platformlogging.RequestLogger(deps.logger))

	rootRouter.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	rootRouter.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := deps.ready(r.Context()); err != nil {
			platformlogging.FromRequest(r, deps.logger).Warn("readiness check failed", zap.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	rootRouter.Get("/test", func(w http.ResponseWriter, r *http.Request) {
		httpjson.WriteMessage(w, http.StatusOK, "Server is working! 🎯")
	})

	// ---- Swagger UI + OpenAPI JSON (public) ----
	registerDocsRoutes(rootRouter, spec, deps.logger)

	rootRouter.Group(func(r chi.Router) {
		r.Use(bodyLimit(deps.cfg.BodyLimitBytes))
		r.Use(platformmiddleware.ContractValidator(spec))
		r.Use(platformmiddleware.RequestTrace)

		authhandler.New(deps.auth, deps.logger).Register(r)
		orgshandler.New(deps.orgs, deps.logger).Register(r, func(next http.Handler) http.Handler {
			return deps.requireAuth(platformmiddleware.RequestTrace(next))
		})
	})

	if deps.cfg.StaticDir != "" {
		if info, err := os.Stat(deps.cfg.StaticDir); err == nil && info.IsDir() {
			rootRouter.Handle("/*", http.FileServer(http.Dir(deps.cfg.StaticDir)))
		} else {
			deps.logger.Info("static directory not found; static files disabled", zap.String("dir", deps.cfg.StaticDir))
		}
	}

	return rootRouter, nil
}

// bodyLimit caps request bodies; oversized JSON bodies surface as 400 from httpjson.Decode.
func bodyLimit(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limit > 0 && r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
