package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	v1 "github.com/formulab-api/api/v1"
	"github.com/formulab-api/config"
	"github.com/formulab-api/database"
	"github.com/formulab-api/lib/cache"
	"github.com/formulab-api/lib/events"
	"github.com/formulab-api/lib/logger"
	"github.com/formulab-api/middleware"
	"github.com/formulab-api/recipe"
	"github.com/formulab-api/repositories"
	"github.com/formulab-api/runengine"
	"github.com/formulab-api/services"
	"github.com/formulab-api/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// sessionTTL bounds how long an abandoned run session lives in redis
const sessionTTL = 24 * time.Hour

func main() {
	config.LoadEnv()

	cfg, err := config.Load(config.GetEnv("CONFIG_FILE", "config.yaml"))
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Initialize(cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if cfg.Database.SeedDemo {
		if _, err := database.SeedDemoData(db, log); err != nil {
			log.Fatal("Failed to seed demo data", zap.Error(err))
		}
	}

	// Run sessions live in redis when configured so several instances can
	// serve the same operators
	var (
		rdb          *redis.Client
		sessionStore runengine.SessionStore
	)
	if cfg.Redis.Addr != "" {
		rdb, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close()
		sessionStore = runengine.NewRedisStore(rdb, sessionTTL, log)
		log.Info("run sessions stored in redis", zap.String("addr", cfg.Redis.Addr))
	} else {
		sessionStore = runengine.NewMemoryStore(log)
		log.Info("run sessions stored in memory")
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.MQ.URL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.MQ.URL)
		if err != nil {
			log.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		publisher = amqpPublisher
		log.Info("publishing events", zap.String("exchange", events.ExchangeName))
	}
	defer publisher.Close()

	projectRepo := repositories.NewProjectRepository(db)
	runRecordRepo := repositories.NewRunRecordRepository(db)
	drafts := recipe.NewDraftStore()

	engine := runengine.New(sessionStore, log.Named("runengine"),
		runengine.WithDefaultTolerance(cfg.Settings.DefaultTolerance),
		runengine.WithMassFormatter(utils.MassFormatter(cfg.Settings.Units)),
		runengine.WithListener(services.NewRunRecorder(runRecordRepo, publisher, log)),
	)
	supervisor := runengine.NewSupervisor(engine, log, runengine.WithTickInterval(cfg.Settings.TimerTick))
	supervisor.Start(ctx)
	defer supervisor.Stop()

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.Server.CORSOrigins) == 0 || cfg.Server.CORSOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.Server.CORSOrigins
	}
	router.Use(cors.New(corsConfig))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1.RegisterRoutes(router.Group("/api/v1"), v1.Dependencies{
		Projects:    services.NewProjectService(projectRepo, drafts, log),
		Formulation: services.NewFormulationService(projectRepo, drafts, publisher, log),
		Runs:        services.NewRunService(engine, projectRepo, runRecordRepo),
		DB:          db,
		Redis:       rdb,
		Publisher:   publisher,
		JWTSecret:   cfg.Auth.JWTSecret,
		Units:       cfg.Settings.Units,
		Log:         log,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Info("Formulab API starting", zap.String("port", cfg.Server.Port), zap.String("units", string(cfg.Settings.Units)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	log.Info("shutdown complete")
}
