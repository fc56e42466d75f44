package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"bincollect/internal/aggregate"
	"bincollect/internal/generator"
	"bincollect/internal/handlers"
	"bincollect/internal/middleware"
	"bincollect/internal/repository"
	"bincollect/internal/service"
	"bincollect/migrations"
	"bincollect/pkg/audit"
	"bincollect/pkg/cache"
	"bincollect/pkg/config"
	"bincollect/pkg/database"
	"bincollect/pkg/logger"
	"bincollect/pkg/metrics"
	"bincollect/pkg/ratelimit"
	"bincollect/pkg/safepath"
	"bincollect/pkg/telemetry"
)

func main() {
	cfg, err := config.NewLoader().Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger.InitWithConfig(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})

	ctx := context.Background()

	// Инициализация телеметрии
	if cfg.Tracing.Enabled {
		tp, err := telemetry.Init(ctx, telemetry.Config{
			Enabled:     cfg.Tracing.Enabled,
			Endpoint:    cfg.Tracing.Endpoint,
			ServiceName: cfg.App.Name,
			Version:     cfg.App.Version,
			Environment: cfg.App.Environment,
			SampleRate:  cfg.Tracing.SampleRate,
		})
		if err != nil {
			logger.Log.Warn("Failed to init telemetry", "error", err)
		} else {
			defer func() {
				if err := tp.Shutdown(context.Background()); err != nil {
					logger.Log.Warn("Failed to shutdown telemetry", "error", err)
				}
			}()
			logger.Log.Info("Telemetry initialized", "endpoint", cfg.Tracing.Endpoint)
		}
	}

	metrics.InitMetrics(cfg.Metrics.Namespace, cfg.Metrics.Subsystem)
	metrics.Get().ServiceInfo.WithLabelValues(cfg.App.Version, cfg.App.Environment).Set(1)

	// Подключение к PostgreSQL
	db, err := database.NewPostgresDB(ctx, &cfg.Database)
	if err != nil {
		logger.Log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Миграции
	if err := database.RunMigrations(
		ctx,
		db.Pool(),
		&cfg.Database,
		migrations.PostgresMigrations,
		"postgres",
	); err != nil {
		logger.Log.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Корень хранилища должен существовать до создания resolver
	if err := os.MkdirAll(cfg.Reports.StorageRoot, 0755); err != nil {
		logger.Log.Error("Failed to create storage root", "path", cfg.Reports.StorageRoot, "error", err)
		os.Exit(1)
	}
	resolver, err := safepath.NewResolver(cfg.Reports.StorageRoot)
	if err != nil {
		logger.Log.Error("Failed to init path resolver", "error", err)
		os.Exit(1)
	}

	// Кэш дашборда
	var dashboardCache cache.Cache
	if cfg.Cache.Enabled {
		dashboardCache, err = cache.New(cache.FromConfig(&cfg.Cache))
		if err != nil {
			logger.Log.Warn("Failed to init cache, continuing without it", "error", err)
		} else {
			defer dashboardCache.Close()
		}
	}

	// Журнал аудита
	auditor, err := audit.New(&audit.Config{
		Enabled:     cfg.Audit.Enabled,
		Backend:     cfg.Audit.Backend,
		FilePath:    cfg.Audit.FilePath,
		BufferSize:  cfg.Audit.BufferSize,
		FlushPeriod: cfg.Audit.FlushPeriod,
	})
	if err != nil {
		logger.Log.Error("Failed to init audit logger", "error", err)
		os.Exit(1)
	}
	defer auditor.Close()

	// Ограничение частоты запросов.
	// Redis-бэкенд переиспользует подключение кэша: отдельной секции
	// redis для лимитера в конфиге нет.
	var limiter ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		limiter, err = ratelimit.New(&ratelimit.Config{
			Requests:      cfg.RateLimit.Requests,
			Window:        cfg.RateLimit.Window,
			Backend:       cfg.RateLimit.Backend,
			RedisAddr:     cfg.Cache.Address(),
			RedisPassword: cfg.Cache.Password,
			RedisDB:       cfg.Cache.DB,
		})
		if err != nil {
			logger.Log.Warn("Failed to init rate limiter, continuing without it", "error", err)
		} else {
			defer limiter.Close()
		}
	}

	// Генератор содержимого отчётов
	var producer generator.Producer
	switch cfg.Reports.Producer {
	case "document":
		producer = generator.NewDocumentProducer()
	default:
		producer = generator.NewTextProducer()
	}

	// Репозитории и сервисы
	reportRepo := repository.NewPostgresReportRepository(db)
	collectionRepo := repository.NewPostgresCollectionRepository(db)

	reportSvc := service.NewReportService(db, reportRepo, producer, auditor, cfg.Reports.StorageRoot)
	dashboardSvc := service.NewDashboardService(
		aggregate.NewAggregator(db, cfg.Dashboard.SchemaVariant),
		reportRepo,
		dashboardCache,
		cfg.Dashboard.CacheTTL,
		cfg.Reports.RecentLimit,
	)
	exportSvc := service.NewExportService(collectionRepo)

	// Авторизация: cookie-сессия админки и bearer-токены для API клиентов
	authorizer := middleware.ChainAuthorizer{
		middleware.NewSessionAuthorizer(
			cfg.Session.Secret,
			cfg.Session.CookieName,
			int(cfg.Session.MaxAge.Seconds()),
			cfg.Session.Secure,
		),
		middleware.NewJWTAuthorizer(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
	}

	router := handlers.NewRouter(&handlers.RouterDeps{
		Reports:    handlers.NewReportHandler(reportSvc),
		Downloads:  handlers.NewDownloadHandler(reportSvc, resolver, auditor),
		Dashboard:  handlers.NewDashboardHandler(dashboardSvc),
		Exports:    handlers.NewExportHandler(exportSvc, auditor),
		Health:     handlers.NewHealthHandler(db, cfg.App.Version),
		Authorizer: authorizer,
		Limiter:    limiter,
		MetricsOn:  cfg.Metrics.Enabled,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		logger.Log.Info("Starting admin service",
			"port", cfg.HTTP.Port,
			"environment", cfg.App.Environment,
			"version", cfg.App.Version,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Log.Info("Shutting down admin service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Graceful shutdown failed", "error", err)
	}
}
