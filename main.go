package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"civicsync/config"
	"civicsync/controllers"
	"civicsync/middlewares"
	"civicsync/repository"
	"civicsync/routes"
	"civicsync/services"
	"civicsync/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, envLoaded, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	logger, err := config.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	if !envLoaded {
		logger.Info("No .env file found")
	}
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	client, db, err := config.ConnectDB(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
		}
	}()

	repo := repository.New(db)
	indexCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = repo.EnsureIndexes(indexCtx)
	cancel()
	if err != nil {
		logger.Fatal("Failed to create indexes", zap.Error(err))
	}

	redisClient, err := config.ConnectRedis(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	blobs, err := config.NewBlobStore(context.Background(), cfg)
	if err != nil {
		logger.Fatal("Failed to open blob store", zap.Error(err))
	}
	if closer, ok := blobs.(io.Closer); ok {
		defer closer.Close()
	}

	auth := services.NewAuthService(repo, repository.NewTokenDenylist(redisClient, cfg.RevokedPrefix), services.AuthConfig{
		Secret:              cfg.JWTSecret,
		TokenTTL:            cfg.TokenTTL,
		BootstrapAdminEmail: cfg.BootstrapAdminEmail,
	}, logger.Named("auth"))
	issues := services.NewIssueService(repo, blobs, logger.Named("issues"))
	dashboards := services.NewDashboardService(issues, repo, logger.Named("dashboards"))

	deps := routes.Dependencies{
		Auth:       auth,
		Issues:     issues,
		Dashboards: dashboards,
		Quota:      middlewares.NewIssueQuota(redisClient, cfg.IssueLimitQueue, cfg.IssueDailyLimit),
		Options: controllers.Options{
			Production:     cfg.Production(),
			Domain:         cfg.Domain,
			RequestTimeout: cfg.RequestTimeout,
			MaxUploadBytes: cfg.MaxUploadBytes,
		},
		AllowedOrigins: cfg.AllowedOrigins,
		Log:            logger,
	}
	if local, ok := blobs.(*storage.LocalStore); ok {
		deps.UploadsDir = local.Root()
	}
	router, err := routes.NewRouter(deps)
	if err != nil {
		logger.Fatal("Failed to build router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
