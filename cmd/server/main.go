package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/suitableit/smmdoc-sub003/internal/application/catalogimport"
	"github.com/suitableit/smmdoc-sub003/internal/application/ordersync"
	"github.com/suitableit/smmdoc-sub003/internal/infrastructure/config"
	"github.com/suitableit/smmdoc-sub003/internal/infrastructure/logger"
	"github.com/suitableit/smmdoc-sub003/internal/infrastructure/persistence"
	"github.com/suitableit/smmdoc-sub003/internal/infrastructure/providerapi"
	"github.com/suitableit/smmdoc-sub003/internal/infrastructure/transport"
	"github.com/suitableit/smmdoc-sub003/internal/interfaces/http/handler"
	"github.com/suitableit/smmdoc-sub003/internal/interfaces/http/middleware"
	"github.com/suitableit/smmdoc-sub003/internal/interfaces/http/router"
	"github.com/suitableit/smmdoc-sub003/internal/realtime"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting sync engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	log.Info("Database connected")

	providerRepo := persistence.NewGormProviderRepository(db.DB)
	serviceRepo := persistence.NewGormServiceRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	typeRepo := persistence.NewGormServiceTypeRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)

	transportClient := transport.NewClient(
		transport.WithTimeout(cfg.Provider.RequestTimeout),
		transport.WithLogger(log),
	)
	apiClient := providerapi.NewClient(transportClient,
		providerapi.WithRetryConfig(transport.RetryConfig{
			MaxAttempts: cfg.Provider.RetryAttempts,
			BaseDelay:   cfg.Provider.RetryDelay,
		}),
		providerapi.WithProbeTimeout(cfg.Provider.ProbeTimeout),
		providerapi.WithClientLogger(log),
	)

	pipeline := catalogimport.NewPipeline(apiClient, providerRepo, serviceRepo, categoryRepo, typeRepo,
		catalogimport.WithPipelineLogger(log),
	)

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	hub := realtime.NewHub(
		realtime.WithHeartbeat(cfg.Stream.Heartbeat),
		realtime.WithClientBuffer(cfg.Stream.ClientBuffer),
		realtime.WithMaxClients(cfg.Stream.MaxClients),
		realtime.WithHubLogger(log),
	)
	hub.Start(rootCtx)
	defer hub.Stop()

	// With Redis enabled, events travel through pub/sub so every instance
	// fans them out; otherwise they go straight to the local hub.
	var events realtime.Publisher = hub
	if cfg.Redis.Enabled {
		bridge, err := realtime.NewBridge(
			fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			cfg.Redis.Password,
			cfg.Redis.DB,
			hub,
			realtime.WithBridgeChannel(cfg.Redis.Channel),
			realtime.WithBridgeLogger(log),
		)
		if err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		if err := bridge.Start(rootCtx); err != nil {
			log.Fatal("Failed to start redis event bridge", zap.Error(err))
		}
		defer func() {
			if err := bridge.Stop(); err != nil {
				log.Error("Error stopping redis event bridge", zap.Error(err))
			}
		}()
		events = bridge
		log.Info("Redis event bridge connected", zap.String("channel", cfg.Redis.Channel))
	}

	scheduler := ordersync.NewScheduler(
		ordersync.Config{
			InitialDelay: cfg.Sync.InitialDelay,
			Interval:     cfg.Sync.Interval,
			BatchSize:    cfg.Sync.BatchSize,
		},
		orderRepo, providerRepo, apiClient, events, log,
	)
	if cfg.Sync.Enabled {
		scheduler.Start(rootCtx)
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer stopCancel()
			if err := scheduler.Stop(stopCtx); err != nil {
				log.Error("Error stopping scheduler", zap.Error(err))
			}
		}()
	} else {
		log.Info("Order sync disabled")
	}

	controller := ordersync.NewController(orderRepo, providerRepo, apiClient, events, log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	handler.NewHealthHandler(db).Register(engine)

	r := router.NewRouter(engine)
	r.Register(handler.NewImportHandler(pipeline, log))
	r.Register(handler.NewProviderHandler(providerRepo, apiClient, log))
	r.Register(handler.NewOrderSyncHandler(scheduler, controller, log))
	r.Register(handler.NewStreamHandler(hub, log))
	r.Setup()

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
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
	log.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}
	log.Info("Server stopped")
}
