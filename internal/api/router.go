package api

import (
	"context"
	"net/http"
	"time"

	"github.com/Harshitk-cp/tenantgate/internal/api/handlers"
	mw "github.com/Harshitk-cp/tenantgate/internal/api/middleware"
	"github.com/Harshitk-cp/tenantgate/internal/api/respond"
	"github.com/Harshitk-cp/tenantgate/internal/buildconfig"
	"github.com/Harshitk-cp/tenantgate/internal/domain"
	"github.com/Harshitk-cp/tenantgate/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// IdentityReadScope lets an API key call GET /identity.
const IdentityReadScope = "identity:read"

// Pinger reports whether a backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the HTTP surface is built from.
type Deps struct {
	Tenants     *service.TenantService
	Credentials *service.CredentialService
	APIKeys     *service.APIKeyService
	Gateway     *service.Gateway
	RateLimiter *mw.RateLimiter
	DB          Pinger
	AdminToken  string
}

// App holds the router and the dependencies that outlive a request.
type App struct {
	Router      *chi.Mux
	RateLimiter *mw.RateLimiter
	startTime   time.Time
}

func NewApp(deps Deps, logger *zap.Logger) *App {
	tenantHandler := handlers.NewTenantHandler(deps.Tenants, logger)
	authHandler := handlers.NewAuthHandler(deps.Credentials, deps.Tenants, logger)
	apiKeyHandler := handlers.NewAPIKeyHandler(deps.APIKeys, logger)

	// Authenticated routes also count against a per-caller budget.
	perCaller := func(auth func(mw.IdentityHandlerFunc) http.HandlerFunc) func(mw.IdentityHandlerFunc) http.HandlerFunc {
		if deps.RateLimiter == nil {
			return auth
		}
		return func(next mw.IdentityHandlerFunc) http.HandlerFunc {
			return auth(deps.RateLimiter.ForIdentity(logger, next))
		}
	}
	bearer := perCaller(mw.Authenticate(deps.Gateway, logger, domain.AuthMethodJWT))
	anyCredential := perCaller(mw.Authenticate(deps.Gateway, logger))

	r := chi.NewRouter()
	app := &App{
		Router:      r,
		RateLimiter: deps.RateLimiter,
		startTime:   time.Now(),
	}

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Metrics)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	if deps.RateLimiter != nil {
		r.Use(deps.RateLimiter.Middleware(logger))
	}

	r.Get("/health", app.healthHandler(deps.DB, logger))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/tenants", func(r chi.Router) {
		r.With(mw.AdminToken(deps.AdminToken, logger)).Post("/", tenantHandler.Create)
		r.Get("/current", mw.WithTenant(logger, tenantHandler.Current))
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", mw.WithOptionalTenant(authHandler.Register))
		r.Post("/login", mw.WithOptionalTenant(authHandler.Login))
		r.Post("/refresh", mw.WithOptionalTenant(authHandler.Refresh))
		r.Get("/me", bearer(authHandler.Me))
	})

	// API keys are managed by signed-in users only.
	r.Route("/api-keys", func(r chi.Router) {
		r.Post("/", bearer(apiKeyHandler.Create))
		r.Get("/", bearer(apiKeyHandler.List))
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", bearer(apiKeyHandler.Get))
			r.Patch("/", bearer(apiKeyHandler.Update))
			r.Delete("/", bearer(apiKeyHandler.Delete))
			r.Post("/rotate", bearer(apiKeyHandler.Rotate))
			r.Post("/revoke", bearer(apiKeyHandler.Revoke))
		})
	})

	r.Get("/identity", anyCredential(mw.RequireScope(IdentityReadScope, logger, handlers.Identity)))

	return app
}

type healthResponse struct {
	Status    string           `json:"status"`
	Error     string           `json:"error,omitempty"`
	Uptime    string           `json:"uptime"`
	BuildInfo buildconfig.Info `json:"build"`
}

func (app *App) healthHandler(db Pinger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{
			Status:    "ok",
			Uptime:    time.Since(app.startTime).Round(time.Second).String(),
			BuildInfo: buildconfig.Current(),
		}
		if db != nil {
			if err := db.Ping(r.Context()); err != nil {
				logger.Warn("health check failed", zap.Error(err))
				resp.Status = "error"
				resp.Error = "database unavailable"
				respond.JSON(w, http.StatusServiceUnavailable, resp)
				return
			}
		}
		respond.JSON(w, http.StatusOK, resp)
	}
}
