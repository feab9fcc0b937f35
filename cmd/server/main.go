package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appsync "github.com/circuithospitality/stockroom-sync/internal/application/sync"
	"github.com/circuithospitality/stockroom-sync/internal/domain/shared"
	"github.com/circuithospitality/stockroom-sync/internal/infrastructure/cache"
	"github.com/circuithospitality/stockroom-sync/internal/infrastructure/config"
	"github.com/circuithospitality/stockroom-sync/internal/infrastructure/event"
	"github.com/circuithospitality/stockroom-sync/internal/infrastructure/logger"
	"github.com/circuithospitality/stockroom-sync/internal/infrastructure/persistence"
	"github.com/circuithospitality/stockroom-sync/internal/infrastructure/stockroom"
	"github.com/circuithospitality/stockroom-sync/internal/interfaces/http/handler"
	"github.com/circuithospitality/stockroom-sync/internal/interfaces/http/middleware"
	"github.com/circuithospitality/stockroom-sync/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()
	log.Info("Database connected",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.DBName),
	)

	// Repositories and stores
	mappingRepo := persistence.NewGormMappingRepository(db.DB)
	catalogStore := persistence.NewGormCatalogStore(db.DB)
	orderStore := persistence.NewGormOrderStore(db.DB)

	// Remote catalog client
	client := stockroom.NewClient(stockroom.Config{
		BaseURL: cfg.Stockroom.BaseURL,
		APIKey:  cfg.Stockroom.APIKey,
		Timeout: cfg.Stockroom.RequestTimeout,
	}, log)

	// Webhook delivery dedup store; falls back to in-memory when
	// Redis is unreachable.
	idemStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(true),
	).CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idemStore.Close(); err != nil {
			log.Error("Failed to close idempotency store", zap.Error(err))
		}
	}()

	// Application services
	eventSync := appsync.NewEventSyncService(client, catalogStore, catalogStore, catalogStore, mappingRepo, log, cfg.Stockroom.PageSize)
	webhooks := appsync.NewWebhookService(eventSync, idemStore, shared.IdempotencyConfig{
		TTL:     cfg.Stockroom.DedupTTL,
		Enabled: cfg.Stockroom.DedupEnabled,
	}, log)
	orderSync := appsync.NewOrderSyncService(client, orderStore, mappingRepo, log)

	// Preload the mapping caches so the first webhook does not pay the
	// lookup cost. The server still comes up if the database is slow.
	if err := eventSync.WarmCaches(context.Background()); err != nil {
		log.Warn("Failed to warm mapping caches", zap.Error(err))
	}

	// Order lifecycle events feed the remote booking flow.
	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(appsync.NewOrderEventHandler(orderSync, log))

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.RequestID())
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.GET("/health", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	router.NewRouter(engine).
		Register(handler.NewWebhookHandler(webhooks, log)).
		Register(handler.NewSyncHandler(eventSync, log)).
		Register(handler.NewSystemHandler()).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited")
}
