package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/tenantgate/pkg/authgate"
	"github.com/dmitrymomot/tenantgate/pkg/config"
	"github.com/dmitrymomot/tenantgate/pkg/httpserver"
	"github.com/dmitrymomot/tenantgate/pkg/logger"
	"github.com/dmitrymomot/tenantgate/pkg/pg"
	"github.com/dmitrymomot/tenantgate/pkg/requestid"
	"github.com/dmitrymomot/tenantgate/pkg/session"
	"github.com/dmitrymomot/tenantgate/pkg/tenantpool"
	"github.com/dmitrymomot/tenantgate/pkg/token"
)

func main() {
	ctx := context.Background()

	var (
		pgCfg    pg.Config
		tokenCfg token.Config
		httpCfg  httpserver.Config
	)
	config.MustLoad(&pgCfg)
	config.MustLoad(&tokenCfg)
	config.MustLoad(&httpCfg)

	log := logger.New(
		logger.WithEnvironment(os.Getenv("APP_ENV"), "tenantgate"),
		logger.WithContextExtractors(
			requestid.LoggerExtractor(),
			authgate.LoggerExtractor(),
		),
	)
	logger.SetAsDefault(log)

	// The catalog pool is a boot requirement: without it no tenant can ever
	// be resolved, so failure stops the process here rather than surfacing
	// per request.
	catalog, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		log.ErrorContext(ctx, "failed to open catalog pool", logger.Error(err))
		os.Exit(1)
	}
	defer catalog.Close()

	if err := pg.Migrate(ctx, catalog, pgCfg, log); err != nil {
		log.ErrorContext(ctx, "failed to apply catalog migrations", logger.Error(err))
		os.Exit(1)
	}

	codec, err := token.NewFromConfig(tokenCfg)
	if err != nil {
		log.ErrorContext(ctx, "failed to initialize token codec", logger.Error(err))
		os.Exit(1)
	}

	manager, err := tenantpool.New(catalog, tenantpool.PgxOpener(pg.DefaultConfig("")),
		tenantpool.WithLogger(log),
	)
	if err != nil {
		log.ErrorContext(ctx, "failed to initialize tenant pool manager", logger.Error(err))
		os.Exit(1)
	}
	defer manager.Close()

	if err := warmTenantPools(ctx, catalog, manager, log); err != nil {
		log.ErrorContext(ctx, "failed to warm tenant pools", logger.Error(err))
		os.Exit(1)
	}

	validator := session.NewValidator(session.WithLogger(log))

	healthcheck := pg.Healthcheck(catalog)

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(authgate.Middleware(codec, manager, validator,
		authgate.WithBypassPrefixes("/health"),
		authgate.WithLogger(log),
	))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if err := healthcheck(req.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"message": "unhealthy", "data": ""})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok", "data": ""})
	})

	r.Get("/api/me", meHandler(validator))

	srv := httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log))
	if err := srv.Run(ctx, r); err != nil {
		log.ErrorContext(ctx, "http server failed", logger.Error(err))
		os.Exit(1)
	}
}

// warmTenantPools opens a pool for every provisioned tenant so the gate's
// non-creating lookup succeeds from the first request on. A tenant whose
// database is unreachable is logged and skipped; it stays invisible to the
// gate until re-provisioned.
func warmTenantPools(ctx context.Context, catalog *pgxpool.Pool, manager *tenantpool.Manager, log *slog.Logger) error {
	rows, err := catalog.Query(ctx, `SELECT id FROM tenants ORDER BY id`)
	if err != nil {
		return fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scan tenant id: %w", err)
		}
		if _, err := manager.GetOrCreate(ctx, id); err != nil {
			log.WarnContext(ctx, "skipping unreachable tenant",
				logger.TenantID(id), logger.Error(err))
		}
	}
	return rows.Err()
}

func meHandler(validator *session.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := authgate.ClaimsFromContext(r.Context())
		pool := authgate.MustPoolFromContext(r.Context())

		info, err := validator.Find(r.Context(), claims, pool)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Internal server error!", "data": ""})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"message": "", "data": info})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
