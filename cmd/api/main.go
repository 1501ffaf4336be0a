// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/vidtube/go-backend/internal/auth"
	"github.com/vidtube/go-backend/internal/config"
	"github.com/vidtube/go-backend/internal/core"
	"github.com/vidtube/go-backend/internal/health"
	"github.com/vidtube/go-backend/internal/media"
	"github.com/vidtube/go-backend/internal/middleware"
	"github.com/vidtube/go-backend/internal/server"
	"github.com/vidtube/go-backend/internal/subscription"
	"github.com/vidtube/go-backend/internal/upload"
	"github.com/vidtube/go-backend/internal/user"
	"github.com/vidtube/go-backend/internal/video"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

// stores is the persistence layer for the configured driver.
type stores struct {
	users         user.Repository
	subscriptions subscription.Repository
	videos        video.Repository
	checker       health.Checker
	close         func(ctx context.Context) error
}

func openStores(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*stores, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := core.NewDatabase(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close() //nolint:errcheck // cleanup on migration failure
			return nil, err
		}
		logger.Info("postgres connected",
			"max_open_conns", cfg.MaxOpenConns,
			"max_idle_conns", cfg.MaxIdleConns,
		)
		return &stores{
			users:         user.NewPostgresRepository(db.DB),
			subscriptions: subscription.NewPostgresRepository(db.DB),
			videos:        video.NewPostgresRepository(db.DB),
			checker:       db,
			close:         func(context.Context) error { return db.Close() },
		}, nil

	case config.DriverMongo:
		mdb, err := core.NewMongo(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := mdb.EnsureIndexes(ctx); err != nil {
			_ = mdb.Close(context.Background()) //nolint:errcheck // cleanup on index failure
			return nil, err
		}
		logger.Info("mongo connected",
			"database", cfg.Name,
			"max_pool_size", cfg.MaxOpenConns,
		)
		return &stores{
			users:         user.NewRepository(mdb.DB),
			subscriptions: subscription.NewRepository(mdb.DB),
			videos:        video.NewRepository(mdb.DB),
			checker:       mdb,
			close:         mdb.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown database driver %q: %w", cfg.Driver, core.ErrInvalidInput)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log, cfg.IsDevelopment())
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	telemetry, err := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
	if err != nil {
		return err
	}
	if cfg.Otel.Enabled {
		logger.Info("OpenTelemetry tracer initialized",
			"endpoint", cfg.Otel.Endpoint,
		)
	}

	db, err := openStores(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}

	checks := []health.Check{{Name: "database", Checker: db.checker}}

	var (
		cache       *core.Redis
		redisClient *goredis.Client
		revoker     auth.TokenRevoker
		revocations middleware.RevocationChecker
	)
	if cfg.Redis.URL != "" {
		cache, err = core.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		logger.Info("redis connected",
			"pool_size", cfg.Redis.PoolSize,
		)

		denylist := auth.NewDenylist(cache.Client)
		redisClient = cache.Client
		revoker = denylist
		revocations = denylist
		checks = append(checks, health.Check{Name: "redis", Checker: cache})
	} else {
		logger.Warn("redis not configured, using in-process rate limits without a token denylist")
	}

	uploader, err := media.NewUploader(ctx, cfg.Media)
	if err != nil {
		return err
	}
	mediaSvc := media.NewService(uploader, cfg.Media.Timeout, logger)
	logger.Info("media host configured", "provider", cfg.Media.Provider)

	uploads, err := upload.NewParser(cfg.Upload)
	if err != nil {
		return err
	}

	hasher, err := core.NewPasswordHasher(cfg.Security)
	if err != nil {
		return err
	}

	userSvc := user.NewService(db.users, mediaSvc)

	tokens, err := auth.NewTokenService(cfg.JWT, userSvc)
	if err != nil {
		return err
	}
	logger.Info("token service initialized",
		"algorithm", "HS256",
		"access_ttl", cfg.JWT.AccessTokenExpire.String(),
		"refresh_ttl", cfg.JWT.RefreshTokenExpire.String(),
	)

	authSvc := auth.NewService(userSvc, tokens, hasher, mediaSvc, revoker)
	subscriptionSvc := subscription.NewService(db.subscriptions, userSvc)
	videoSvc := video.NewService(db.videos, mediaSvc, userSvc, logger)

	healthHandler := health.NewHandler(checks...)

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Tracing(telemetry.Tracer))
	router.Use(middleware.Logger(logger))
	router.Use(
		middleware.NewRateLimiter(redisClient, middleware.RateLimitConfig{
			Limit: middleware.PerWindow(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
				cfg.RateLimit.Window,
			),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	credentialLimiter := middleware.NewRateLimiter(redisClient, middleware.RateLimitConfig{
		Limit: middleware.PerWindow(
			cfg.RateLimit.AuthRequests,
			cfg.RateLimit.AuthBurst,
			cfg.RateLimit.Window,
		),
		KeyFunc:  middleware.KeyByIPAndEndpoint,
		FailOpen: true,
	}).Handler

	srv.MountAPI(server.Handlers{
		Auth:              auth.NewHandler(authSvc, auth.NewCookieManager(cfg.Cookie), uploads),
		Users:             user.NewHandler(userSvc, uploads),
		Subscriptions:     subscription.NewHandler(subscriptionSvc),
		Videos:            video.NewHandler(videoSvc, uploads),
		Authenticator:     middleware.Authenticator(tokens, revocations, userSvc),
		CredentialLimiter: credentialLimiter,
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		logger.Error("telemetry shutdown error", "error", err)
	}

	if cache != nil {
		if err := cache.Close(); err != nil {
			logger.Error("redis close error", "error", err)
		}
	}

	if err := db.close(shutdownCtx); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig, development bool) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level, AddSource: development}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
