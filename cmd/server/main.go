package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Harshitk-cp/tenantgate/internal/api"
	mw "github.com/Harshitk-cp/tenantgate/internal/api/middleware"
	"github.com/Harshitk-cp/tenantgate/internal/auth"
	"github.com/Harshitk-cp/tenantgate/internal/buildconfig"
	"github.com/Harshitk-cp/tenantgate/internal/config"
	"github.com/Harshitk-cp/tenantgate/internal/domain"
	"github.com/Harshitk-cp/tenantgate/internal/events"
	"github.com/Harshitk-cp/tenantgate/internal/service"
	"github.com/Harshitk-cp/tenantgate/internal/store"
	"github.com/Harshitk-cp/tenantgate/internal/store/memory"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	bcryptCost          = 10
	rateLimitCleanup    = time.Minute
	shutdownGracePeriod = 10 * time.Second
)

type stores struct {
	tenants domain.TenantStore
	users   domain.UserStore
	keys    domain.APIKeyStore
	db      api.Pinger
}

func main() {
	if err := config.Load(); err != nil {
		panic(err)
	}

	logger, err := newLogger(config.LogLevel())
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := config.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx := context.Background()

	st, closeStores := openStores(ctx, logger)
	defer closeStores()

	if url := config.RedisURL(); url != "" {
		client, err := store.NewRedisClient(ctx, url)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer client.Close()
		st.tenants = store.NewCachedTenantStore(st.tenants, client, config.TenantCacheTTL(), logger)
		logger.Info("tenant cache enabled", zap.Duration("ttl", config.TenantCacheTTL()))
	}

	var publisher domain.EventPublisher = events.NopPublisher{}
	if url := config.AMQPURL(); url != "" {
		p, err := events.DialAMQP(url, config.AMQPExchange(), logger)
		if err != nil {
			logger.Fatal("failed to connect to rabbitmq", zap.Error(err))
		}
		defer p.Close()
		publisher = p
		logger.Info("publishing identity events", zap.String("exchange", config.AMQPExchange()))
	}

	tokens, err := auth.NewTokenManager(auth.TokenConfig{
		AccessSecret:  config.JWTSecret(),
		RefreshSecret: config.JWTRefreshSecret(),
		AccessTTL:     config.JWTExpiration(),
		RefreshTTL:    config.JWTRefreshExpiration(),
		Issuer:        config.JWTIssuer(),
	})
	if err != nil {
		logger.Fatal("failed to create token manager", zap.Error(err))
	}
	secrets, err := auth.NewSecretHasher(config.APIKeyPepper())
	if err != nil {
		logger.Fatal("failed to create secret hasher", zap.Error(err))
	}

	tenantSvc := service.NewTenantService(st.tenants, publisher, logger)
	credentialSvc := service.NewCredentialService(st.tenants, st.users, auth.NewBcryptHasher(bcryptCost), tokens, publisher, logger)
	apiKeySvc := service.NewAPIKeyService(st.keys, secrets, publisher, logger, config.APIKeyMaxActive())
	gateway := service.NewGateway(tokens, apiKeySvc, logger)

	limiter := mw.NewRateLimiter(config.RateLimitRPS(), config.RateLimitBurst())

	if config.AdminToken() == "" {
		logger.Warn("ADMIN_TOKEN is not set; tenant creation is open")
	}

	app := api.NewApp(api.Deps{
		Tenants:     tenantSvc,
		Credentials: credentialSvc,
		APIKeys:     apiKeySvc,
		Gateway:     gateway,
		RateLimiter: limiter,
		DB:          st.db,
		AdminToken:  config.AdminToken(),
	}, logger)

	bgCtx, stopBackground := context.WithCancel(ctx)
	defer stopBackground()
	go app.RateLimiter.RunCleanup(bgCtx, rateLimitCleanup)

	addr := config.ServerAddr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting",
			zap.String("addr", addr),
			zap.String("version", buildconfig.Version()),
			zap.String("commit", buildconfig.Commit()),
			zap.String("store", config.StoreDriver()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down server")
	stopBackground()

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownGracePeriod)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

func openStores(ctx context.Context, logger *zap.Logger) (stores, func()) {
	if config.StoreDriver() == "memory" {
		logger.Warn("using in-memory stores; data is lost on restart")
		return stores{
			tenants: memory.NewTenantStore(),
			users:   memory.NewUserStore(),
			keys:    memory.NewAPIKeyStore(),
		}, func() {}
	}

	pool, err := pgxpool.New(ctx, config.DatabaseURL())
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("failed to ping database", zap.Error(err))
	}
	logger.Info("connected to database")

	if err := store.Migrate(ctx, pool, logger); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	return stores{
		tenants: store.NewTenantStore(pool),
		users:   store.NewUserStore(pool),
		keys:    store.NewAPIKeyStore(pool),
		db:      pool,
	}, pool.Close
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if level == "debug" {
		cfg = zap.NewDevelopmentConfig()
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
