package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kevin07696/recurringhub/internal/adapters/gateway"
	"github.com/kevin07696/recurringhub/internal/adapters/memory"
	"github.com/kevin07696/recurringhub/internal/adapters/notify"
	"github.com/kevin07696/recurringhub/internal/adapters/postgres"
	"github.com/kevin07696/recurringhub/internal/adapters/secrets"
	grpcserver "github.com/kevin07696/recurringhub/internal/api/grpc/server"
	"github.com/kevin07696/recurringhub/internal/api/rest"
	"github.com/kevin07696/recurringhub/internal/config"
	"github.com/kevin07696/recurringhub/internal/domain"
	"github.com/kevin07696/recurringhub/internal/domain/ports"
	analyticsHandler "github.com/kevin07696/recurringhub/internal/handlers/analytics"
	bulkHandler "github.com/kevin07696/recurringhub/internal/handlers/bulk"
	cronHandler "github.com/kevin07696/recurringhub/internal/handlers/cron"
	customerHandler "github.com/kevin07696/recurringhub/internal/handlers/customer"
	paymentHandler "github.com/kevin07696/recurringhub/internal/handlers/payment"
	reminderHandler "github.com/kevin07696/recurringhub/internal/handlers/reminder"
	analyticsService "github.com/kevin07696/recurringhub/internal/services/analytics"
	bulkService "github.com/kevin07696/recurringhub/internal/services/bulk"
	customerService "github.com/kevin07696/recurringhub/internal/services/customer"
	paymentService "github.com/kevin07696/recurringhub/internal/services/payment"
	reminderService "github.com/kevin07696/recurringhub/internal/services/reminder"
	"github.com/kevin07696/recurringhub/pkg/middleware"
	"github.com/kevin07696/recurringhub/pkg/observability"
	"github.com/kevin07696/recurringhub/pkg/resilience"
	"github.com/kevin07696/recurringhub/pkg/security"
	"github.com/kevin07696/recurringhub/pkg/shutdown"
	"github.com/kevin07696/recurringhub/pkg/timeutil"
)

const healthSyncInterval = 10 * time.Second

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		// The logger is not configured yet
		zap.NewExample().Fatal("Invalid configuration", zap.Error(err))
	}

	logger := initLogger(cfg.Logger)
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting recurringhub",
		zap.String("environment", cfg.Logger.Environment),
		zap.String("storage", cfg.Storage.Driver),
		zap.String("secret_provider", cfg.Secrets.Provider),
	)

	ctx := context.Background()
	if err := resolveSecrets(ctx, cfg, logger); err != nil {
		logger.Fatal("Failed to resolve secrets", zap.Error(err))
	}
	if cfg.Security.APIKey == "" {
		logger.Warn("API_KEY is empty; the operator API is unauthenticated")
	}

	timeouts := resilience.DefaultTimeoutConfig()
	sm := shutdown.NewManager(logger, cfg.Server.ShutdownTimeout)

	// Components stop in reverse order: the store goes last
	store, err := initStore(ctx, cfg, sm, logger)
	if err != nil {
		logger.Fatal("Failed to initialize store", zap.Error(err))
	}

	notifier, err := initNotifier(ctx, cfg.Notifier, timeouts, sm, logger)
	if err != nil {
		logger.Fatal("Failed to initialize notifier", zap.Error(err))
	}

	gw := gateway.NewSimulated(gateway.Config{
		LinkBaseURL: cfg.Gateway.LinkBaseURL,
		LinkTTL:     cfg.Gateway.LinkTTL,
		FailureRate: cfg.Gateway.FailureRate,
	}, logger.Named("gateway"))

	deps := initDependencies(store, notifier, gw, cfg, timeouts, logger)

	healthChecker := observability.NewHealthChecker().Register("store", store)
	metricsServer := observability.StartMetricsServer(cfg.Server.MetricsPort, healthChecker, logger)
	sm.RegisterNoErr("metrics-server", func() {
		if err := observability.ShutdownMetricsServer(metricsServer); err != nil {
			logger.Error("Metrics server shutdown error", zap.Error(err))
		}
	})
	logger.Info("Metrics server listening", zap.String("port", cfg.Server.MetricsPort))

	grpcSrv := grpcserver.NewServer(grpcserver.Config{
		Port:             strconv.Itoa(cfg.Server.GRPCPort),
		EnableReflection: cfg.Server.EnableReflection,
	}, logger.Named("grpc"))
	grpcSrv.SyncHealth(ctx, healthChecker)
	if err := grpcSrv.Start(); err != nil {
		logger.Fatal("Failed to start gRPC server", zap.Error(err))
	}
	sm.RegisterHTTPServer("grpc-server", grpcSrv)

	healthWorker := shutdown.NewPeriodicWorker("grpc-health", healthSyncInterval, logger)
	healthWorker.Start(func(ctx context.Context) {
		grpcSrv.SyncHealth(ctx, healthChecker)
	})
	sm.Register("grpc-health", healthWorker.Shutdown)

	if cfg.Bulk.OverdueInterval > 0 {
		overdueWorker := shutdown.NewPeriodicWorker(cronHandler.JobOverdueReminders, cfg.Bulk.OverdueInterval, logger)
		overdueWorker.Start(func(ctx context.Context) {
			runCtx, cancel := timeouts.CronContext(ctx)
			defer cancel()
			_, _ = deps.cron.Run(runCtx, timeutil.Now(), reminderService.Request{Template: cfg.Bulk.OverdueTemplate})
		})
		sm.Register("overdue-scheduler", overdueWorker.Shutdown)
	}

	// Bulk batches finish before the store closes
	sm.Register("bulk-inflight", deps.inflight.Shutdown)

	var limiter *middleware.RateLimiter
	if cfg.Security.RateLimitEnable {
		limiter = middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.Security.RateLimitRPS,
			Burst:             cfg.Security.RateLimitBurst,
			TrustProxy:        cfg.Security.TrustProxy,
		}, logger)
		sm.RegisterNoErr("rate-limiter", limiter.Shutdown)
	}

	router := rest.NewRouter(deps.handlers, rest.Config{
		APIKey:         cfg.Security.APIKey,
		AllowedOrigins: cfg.Security.AllowedOrigins,
		RateLimiter:    limiter,
		Timeouts:       timeouts,
	}, logger)

	httpServer := rest.NewServer(cfg.Server.Port, router, timeouts)
	go func() {
		logger.Info("HTTP server listening", zap.String("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to serve HTTP", zap.Error(err))
		}
	}()
	sm.RegisterHTTPServer("http-server", httpServer)

	sm.WaitForShutdown(ctx)
	logger.Info("Servers stopped")
}

// initLogger builds a production JSON logger or a development console logger
func initLogger(cfg config.LoggerConfig) *zap.Logger {
	level := zapcore.InfoLevel
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	if !cfg.Development() {
		zapCfg := zap.NewProductionConfig()
		zapCfg.Level = zap.NewAtomicLevelAt(level)
		logger, err := zapCfg.Build()
		if err != nil {
			panic(err)
		}
		return logger
	}

	logger, err := zap.NewDevelopment(zap.IncreaseLevel(level))
	if err != nil {
		panic(err)
	}
	return logger
}

func resolveSecrets(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	provider, err := cfg.Secrets.NewSecretProvider(ctx, logger)
	if err != nil {
		return err
	}
	return cfg.ResolveSecrets(ctx, secrets.NewResolver(provider, logger))
}

func initStore(ctx context.Context, cfg *config.Config, sm *shutdown.Manager, logger *zap.Logger) (ports.Store, error) {
	if cfg.Storage.Driver != config.StoragePostgres {
		logger.Warn("Using in-memory store; data is lost on restart")
		return memory.NewStore(), nil
	}

	pool, err := postgres.NewPool(ctx, postgres.PoolConfig{
		DSN:             cfg.Database.ConnectionString(),
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
	})
	if err != nil {
		return nil, err
	}
	sm.RegisterNoErr("database", pool.Close)

	logger.Info("Database connection established",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.Database),
		zap.Int32("max_conns", cfg.Database.MaxConns),
	)
	return postgres.NewStore(postgres.NewDBExecutor(pool)), nil
}

// initNotifier builds the delivery chain. Each remote provider is wrapped in
// a retry and a circuit breaker; the log notifier catches unrouted channels.
func initNotifier(ctx context.Context, cfg config.NotifierConfig, timeouts *resilience.TimeoutConfig, sm *shutdown.Manager, logger *zap.Logger) (ports.Notifier, error) {
	router := notify.NewRouter(notify.NewLogNotifier(logger.Named("notify")))

	guard := func(n ports.Notifier) ports.Notifier {
		retried := notify.NewRetryNotifier(n, cfg.MaxAttempts, resilience.DefaultExponentialBackoff(), timeouts, logger)
		return notify.NewBreakerNotifier(retried, notify.BreakerConfig{
			MaxRequests:      1,
			Interval:         time.Minute,
			Timeout:          cfg.BreakerTimeout,
			FailureThreshold: cfg.BreakerThreshold,
		}, logger)
	}

	if len(cfg.KafkaBrokers) > 0 {
		kafka := notify.NewKafkaNotifier(notify.KafkaConfig{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaTopic,
			BatchTimeout: 10 * time.Millisecond,
			WriteTimeout: timeouts.ExternalAPI,
		}, logger)
		sm.RegisterCloser("kafka-writer", kafka)

		guarded := guard(kafka)
		router.Route(domain.ChannelSMS, guarded).Route(domain.ChannelWhatsApp, guarded)
		logger.Info("Kafka reminder delivery enabled", zap.Strings("brokers", cfg.KafkaBrokers))
	}

	if cfg.SESFromEmail != "" {
		ses, err := notify.NewSESNotifier(ctx, notify.SESConfig{
			Region:    cfg.SESRegion,
			FromEmail: cfg.SESFromEmail,
			Endpoint:  cfg.SESEndpoint,
		}, logger)
		if err != nil {
			return nil, err
		}
		router.Route(domain.ChannelEmail, guard(ses))
		logger.Info("SES email delivery enabled", zap.String("region", cfg.SESRegion))
	}

	return router, nil
}

// Dependencies holds all initialized handlers
type Dependencies struct {
	handlers rest.Handlers
	cron     *cronHandler.ReminderHandler
	inflight *shutdown.InFlightTracker
}

func initDependencies(
	store ports.Store,
	notifier ports.Notifier,
	gw ports.PaymentGateway,
	cfg *config.Config,
	timeouts *resilience.TimeoutConfig,
	logger *zap.Logger,
) *Dependencies {
	svcLogger := security.NewZapLogger(logger)

	customers := customerService.NewService(store, svcLogger.Named("customers"))
	payments := paymentService.NewService(store, gw, svcLogger.Named("payments"), timeouts)
	reminders := reminderService.NewService(store, notifier, svcLogger.Named("reminders"), timeouts)
	analytics := analyticsService.NewService(store, svcLogger.Named("analytics"), timeouts)
	bulk := bulkService.NewService(
		bulkService.NewRunner(cfg.Bulk.ItemDelay, svcLogger.Named("bulk")),
		customers, payments, reminders, svcLogger.Named("bulk"),
	)

	inflight := shutdown.NewInFlightTracker("bulk", logger)
	cron := cronHandler.NewReminderHandler(bulk, logger, cfg.Security.CronSecret)

	return &Dependencies{
		handlers: rest.Handlers{
			Customers: customerHandler.NewHandler(customers, payments, logger),
			Payments:  paymentHandler.NewHandler(payments, logger),
			Reminders: reminderHandler.NewHandler(reminders, customers, logger),
			Analytics: analyticsHandler.NewHandler(analytics, logger),
			Bulk:      bulkHandler.NewHandler(bulk, inflight, logger),
			Cron:      cron,
		},
		cron:     cron,
		inflight: inflight,
	}
}
