// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/admin"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/auth"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/booking"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/bookmark"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/config"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/core"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/events"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/health"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/loginlimit"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/metrics"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/middleware"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/migrations"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/notify"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/progress"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/server"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/session"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/user"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("could not load .env file", "error", err)
	}

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
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

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer closeWith(logger, "database", db.Close)
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if cfg.Database.AutoMigrate {
		if err := migrations.Up(ctx, db.DB.DB); err != nil {
			return err
		}
		version, _ := migrations.Version(ctx, db.DB.DB) //nolint:errcheck // informational
		logger.Info("migrations applied", "version", version)
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer closeWith(logger, "redis", redis.Close)
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	if cfg.Otel.Enabled {
		telemetry, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			defer closeWith(logger, "telemetry", func() error {
				return telemetry.Shutdown(context.Background())
			})
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	var publisher events.Publisher = events.Noop{}
	if cfg.Events.NatsURL != "" {
		nc, natsErr := events.NewNATS(cfg.Events.NatsURL, cfg.Events.SubjectPrefix, logger)
		if natsErr != nil {
			logger.Warn("nats unavailable, events disabled", "error", natsErr)
		} else {
			publisher = nc
			logger.Info("nats connected", "url", cfg.Events.NatsURL)
		}
	}
	defer closeWith(logger, "nats", publisher.Close)

	sessions, err := session.NewManager(cfg.Session)
	if err != nil {
		return err
	}

	limiter, err := newLoginLimiter(ctx, cfg.LoginLimit, redis)
	if err != nil {
		return err
	}
	logger.Info("login limiter ready",
		"backend", cfg.LoginLimit.Backend,
		"max_attempts", cfg.LoginLimit.MaxAttempts,
		"window", cfg.LoginLimit.Window,
	)

	mailer, err := notify.NewMailer(cfg.Mail, logger)
	if err != nil {
		return err
	}

	userRepo := user.NewRepository(db.DB)
	userSvc := user.NewService(userRepo)
	userHandler := user.NewHandler(userSvc)

	bookingRepo := booking.NewRepository(db.DB)

	dispatcher := notify.NewDispatcher(
		mailer,
		notify.RecorderFunc(bookingRepo.MarkEmailsSent),
		notify.OptionsFromConfig(cfg.Mail, cfg.App.FrontendURL),
		logger,
	)
	dispatcher.Start()
	logger.Info("mail dispatcher started",
		"provider", cfg.Mail.Provider,
		"workers", cfg.Mail.Workers,
	)

	bookingSvc := booking.NewService(bookingRepo, dispatcher, publisher, logger)
	bookingHandler := booking.NewHandler(bookingSvc)

	authSvc := auth.NewService(
		userRepo,
		auth.PolicyFromConfig(cfg.Auth),
		dispatcher,
		cfg.Auth.VerificationTTL,
		logger,
	)
	authHandler := auth.NewHandler(authSvc, sessions, userSvc, limiter, logger)

	progressHandler := progress.NewHandler(progress.NewRepository(db.DB))
	bookmarkHandler := bookmark.NewHandler(bookmark.NewRepository(db.DB))

	healthHandler := health.NewHandler(cfg.App.Version,
		health.Dependency{Name: "database", Checker: db},
		health.Dependency{Name: "redis", Checker: redis},
	)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		Users:      userSvc,
		Bookings:   bookingSvc,
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	trustedProxies, err := middleware.ParseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		return err
	}
	if len(trustedProxies) > 0 {
		logger.Info("forwarding headers trusted", "proxies", cfg.Server.TrustedProxies)
	}

	router := srv.Router()

	router.Use(middleware.RealIP(trustedProxies))
	router.Use(middleware.RequestID)
	router.Use(middleware.Tracing)
	router.Use(middleware.Recoverer(logger))
	router.Use(middleware.Logger(logger))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerWindow(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
				cfg.RateLimit.Window,
			),
			FailOpen:   true,
			BypassFunc: middleware.BypassPaths("/health", "/livez", cfg.Metrics.Path),
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))
	router.NotFound(notFound)

	healthHandler.RegisterRoutes(router)

	if cfg.Metrics.Enabled {
		router.Handle(cfg.Metrics.Path, metrics.Handler())
	}

	mountAPI(router, apiHandlers{
		Sessions:  sessions,
		Actives:   userSvc,
		Admins:    userSvc,
		Auth:      authHandler,
		Users:     userHandler,
		Progress:  progressHandler,
		Bookmarks: bookmarkHandler,
		Bookings:  bookingHandler,
		Admin:     adminHandler,
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

	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		logger.Error("mail dispatcher shutdown error", "error", err)
	}

	// Deferred closes run next: NATS, telemetry, redis, database.
	logger.Info("application stopped")
	return nil
}

// newLoginLimiter picks the limiter backend. The memory backend gets a
// janitor bound to ctx.
func newLoginLimiter(
	ctx context.Context,
	cfg config.LoginLimitConfig,
	redis *core.Redis,
) (loginlimit.Limiter, error) {
	policy := loginlimit.Policy{
		MaxAttempts: cfg.MaxAttempts,
		Window:      cfg.Window,
	}

	switch cfg.Backend {
	case "redis":
		return loginlimit.NewRedis(redis.Client, policy), nil
	case "memory", "":
		m := loginlimit.NewMemory(policy)
		m.StartJanitor(ctx, cfg.CleanupInterval)
		return m, nil
	default:
		return nil, errors.New("unknown login limiter backend: " + cfg.Backend)
	}
}

func closeWith(logger *slog.Logger, name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logger.Error(name+" close error", "error", err)
	}
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
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

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
