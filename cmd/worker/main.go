package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/syncbridge/backend/internal/application/orchestrator"
	"github.com/syncbridge/backend/internal/infrastructure/cache"
	"github.com/syncbridge/backend/internal/infrastructure/config"
	"github.com/syncbridge/backend/internal/infrastructure/logger"
	"github.com/syncbridge/backend/internal/infrastructure/persistence"
	"github.com/syncbridge/backend/internal/infrastructure/scheduler"
	"github.com/syncbridge/backend/internal/infrastructure/sourceapi"
	"github.com/syncbridge/backend/internal/infrastructure/telemetry"
	"github.com/syncbridge/backend/internal/infrastructure/vault"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting SyncBridge worker",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry tracing
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Initialize OpenTelemetry metrics
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	// Initialize OpenTelemetry logs and bridge zap into OTLP
	logsProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := logsProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down logger provider", zap.Error(err))
		}
	}()

	if logsProvider.IsEnabled() {
		log = logsProvider.BridgeLogger(log, cfg.Telemetry.ServiceName, logger.ParseLevel(cfg.Log.Level))
	}

	// Initialize continuous profiling
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:             cfg.Telemetry.ProfilingEnabled,
		ServerAddress:       cfg.Telemetry.PyroscopeAddress,
		ApplicationName:     cfg.App.Name,
		ProfileCPU:          true,
		ProfileAllocObjects: true,
		ProfileAllocSpace:   true,
		ProfileInuseObjects: true,
		ProfileInuseSpace:   true,
		ProfileGoroutines:   true,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize profiler", zap.Error(err))
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
	}()

	// Link spans to profiles when both tracing and profiling are active
	if tracerProvider.IsEnabled() && profiler.IsEnabled() {
		if err := tracerProvider.EnableSpanProfiles(); err != nil {
			log.Error("Failed to enable span profiles", zap.Error(err))
		}
	}

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Register database tracing and metrics instrumentation
	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
	}, log)
	if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
		log.Error("Failed to register database tracing", zap.Error(err))
	}
	dbMetricsCfg := telemetry.DefaultDBMetricsConfig()
	dbMetricsCfg.Enabled = cfg.Telemetry.Enabled
	dbMetricsCfg.SlowQueryThreshold = cfg.Telemetry.DBSlowQueryThresh
	dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, meterProvider, dbMetricsCfg, log)
	if err != nil {
		log.Error("Failed to register database metrics", zap.Error(err))
	}
	if dbMetrics != nil {
		dbMetrics.StartPoolStatsCollection(ctx)
		defer dbMetrics.Stop()
	}

	// Run schema migrations
	if err := persistence.AutoMigrate(db.DB); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Initialize repositories
	tenantRepo := persistence.NewGormTenantRepository(db.DB)
	tenantConfigRepo := persistence.NewGormTenantConfigRepository(db.DB)
	jobRepo := persistence.NewGormSyncJobRepository(db.DB)
	stateRepo := persistence.NewGormSyncStateRepository(db.DB)
	scheduleRepo := persistence.NewGormSyncScheduleRepository(db.DB)
	mappingStore := persistence.NewGormEntityMappingStore(db.DB)
	replicaRepo := persistence.NewGormCatalogCacheRepository(db.DB)
	logWriter := persistence.NewBufferedSyncLogWriter(db.DB)

	// Catalog replica cache shared by the orchestrators
	catalogCache := cache.NewCatalogCache(replicaRepo,
		cache.WithSnapshotTTL(cfg.Cache.SnapshotTTL),
		cache.WithCatalogCacheLogger(log),
	)
	defer func() {
		if err := catalogCache.Close(); err != nil {
			log.Error("Error closing catalog cache", zap.Error(err))
		}
	}()

	// Initialize orchestrators
	configOrchestrator := orchestrator.NewConfigOrchestrator(replicaRepo, stateRepo, catalogCache, log)
	productOrchestrator := orchestrator.NewProductOrchestrator(configOrchestrator, mappingStore, stateRepo, logWriter, catalogCache, log)
	stockOrchestrator := orchestrator.NewStockOrchestrator(stateRepo, logWriter, log)

	// Credential vault
	credVault, err := vault.New(cfg.Vault.Passphrase, cfg.Vault.Salt)
	if err != nil {
		log.Fatal("Failed to initialize credential vault", zap.Error(err))
	}

	// Redis-backed run locks keep concurrent workers off the same tenant+type
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Error closing redis client", zap.Error(err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("Failed to connect to redis", zap.Error(err))
	}
	log.Info("Redis connected successfully")
	runLock := scheduler.NewRedisRunLock(redisClient)

	// Dispatcher executes claimed jobs end to end
	sourceConfig := sourceapi.DefaultConfig()
	if cfg.SourceAPI.MaxAttempts > 0 {
		sourceConfig.MaxAttempts = cfg.SourceAPI.MaxAttempts
	}
	if cfg.SourceAPI.RetryBaseDelay > 0 {
		sourceConfig.RetryBaseDelay = cfg.SourceAPI.RetryBaseDelay
	}
	if cfg.SourceAPI.RateLimitWait > 0 {
		sourceConfig.RateLimitWait = cfg.SourceAPI.RateLimitWait
	}
	if cfg.SourceAPI.PageDelay > 0 {
		sourceConfig.PageDelay = cfg.SourceAPI.PageDelay
	}
	if cfg.SourceAPI.PageSize > 0 {
		sourceConfig.PageSize = cfg.SourceAPI.PageSize
	}
	if cfg.SourceAPI.Timeout > 0 {
		sourceConfig.Timeout = cfg.SourceAPI.Timeout
	}

	dispatcher := scheduler.NewDispatcher(
		jobRepo,
		tenantRepo,
		tenantConfigRepo,
		credVault,
		runLock,
		configOrchestrator,
		productOrchestrator,
		stockOrchestrator,
		scheduler.DefaultSourceFactory(sourceConfig, log),
		scheduler.DefaultDestFactory(log),
		log,
	)

	// Sync run metrics with periodic queue depth collection
	if meterProvider.IsEnabled() {
		syncMetrics, err := telemetry.NewSyncMetrics(telemetry.SyncMetricsConfig{
			Meter:         meterProvider.Meter("syncbridge.worker"),
			Logger:        log,
			QueueProvider: telemetry.NewGormQueueStatsProvider(db.DB),
		})
		if err != nil {
			log.Error("Failed to initialize sync metrics", zap.Error(err))
		} else {
			dispatcher.SetSyncMetrics(syncMetrics)
			syncMetrics.StartPeriodicCollection(ctx, telemetry.NewGormTenantProvider(db.DB), 0)
			defer syncMetrics.Stop()
		}
	}

	// Worker pool and cron trigger
	pool := scheduler.NewPool(dispatcher, jobRepo, log,
		scheduler.WithPoolSize(cfg.Scheduler.PoolSize),
		scheduler.WithPollInterval(cfg.Scheduler.PollInterval),
		scheduler.WithStuckCutoff(cfg.Scheduler.StuckCutoff),
	)
	if err := pool.Start(ctx); err != nil {
		log.Fatal("Failed to start worker pool", zap.Error(err))
	}
	log.Info("Worker pool started",
		zap.Int("pool_size", cfg.Scheduler.PoolSize),
		zap.Duration("poll_interval", cfg.Scheduler.PollInterval),
	)

	if cfg.Scheduler.Enabled {
		trigger := scheduler.NewCronTrigger(scheduleRepo, jobRepo, tenantConfigRepo, log,
			scheduler.WithTickInterval(cfg.Scheduler.TickInterval),
		)
		go trigger.Run(ctx)
		log.Info("Cron trigger started", zap.Duration("tick_interval", cfg.Scheduler.TickInterval))
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down worker...")

	cancel()
	pool.Wait()

	flushCtx, flushCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer flushCancel()
	if err := logWriter.Flush(flushCtx); err != nil {
		log.Error("Error flushing sync log buffer", zap.Error(err))
	}

	log.Info("Worker exited gracefully")
}
