package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gabrielmatsan/brev-ly/internal/config"
	"github.com/gabrielmatsan/brev-ly/internal/handler"
	"github.com/gabrielmatsan/brev-ly/internal/logger"
	"github.com/gabrielmatsan/brev-ly/internal/middleware"
	"github.com/gabrielmatsan/brev-ly/internal/migrations"
	"github.com/gabrielmatsan/brev-ly/internal/repository/postgres"
	"github.com/gabrielmatsan/brev-ly/internal/service"
	"github.com/gabrielmatsan/brev-ly/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	loggerConfig := logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		OutputPath: cfg.Log.OutputPath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	}

	if err := logger.Initialize(loggerConfig); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	log := logger.Get()
	log.Info("Starting brev.ly service",
		"port", cfg.Server.Port,
		"log_level", cfg.Log.Level,
	)

	if err := migrations.Up(cfg.Database.URL); err != nil {
		log.Error("Failed to migrate database", "error", err)
		os.Exit(1)
	}

	dbPool, err := setupDatabase(cfg)
	if err != nil {
		log.Error("Failed to setup database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	s3Storage, err := storage.NewS3Storage(context.Background(), cfg.Storage)
	if err != nil {
		log.Error("Failed to setup object storage", "error", err)
		os.Exit(1)
	}

	linkRepo := postgres.NewLinkRepository(dbPool)
	linkService := service.NewLinkService(linkRepo, s3Storage)

	linkHandler := handler.NewLinkHandler(linkService)
	healthHandler := handler.NewHealthHandler(dbPool, s3Storage)

	router := setupRouter(linkHandler, healthHandler)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("Server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	gracefulShutdown(srv, cfg.Server.ShutdownTimeout, dbPool, log)
}

func setupDatabase(cfg *config.Config) (*pgxpool.Pool, error) {
	dbConfig := cfg.Database
	poolConfig, err := pgxpool.ParseConfig(dbConfig.URL)
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = int32(dbConfig.MaxConns)
	poolConfig.MinConns = int32(dbConfig.MinConns)
	poolConfig.MaxConnLifetime = dbConfig.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = dbConfig.MaxConnIdleTime

	dbPool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, err
	}

	return dbPool, nil
}

func setupRouter(
	linkHandler *handler.LinkHandler,
	healthHandler *handler.HealthHandler,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.Logger())

	// health check
	router.GET("/healthz", healthHandler.Healthz)
	router.GET("/readyz", healthHandler.Readyz)

	link := router.Group("/link")
	{
		link.POST("/shorten", linkHandler.Shorten)
		link.GET("", linkHandler.List)
		link.POST("/export", linkHandler.Export)

		link.PATCH("/shortUrl/:url", linkHandler.Resolve)
		link.DELETE("/shortUrl/:urlId", linkHandler.Delete)
	}

	return router
}

func gracefulShutdown(srv *http.Server, timeout time.Duration, dbPool *pgxpool.Pool, log *slog.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Info("Shutdown signal received", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", "error", err)
	}

	dbPool.Close()
	log.Info("Database connection closed")

	log.Info("Graceful shutdown completed")
}
