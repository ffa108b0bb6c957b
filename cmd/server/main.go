package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/ElHadji11/farmconnect-backend/internal/adapter/identity"
	natsadapter "github.com/ElHadji11/farmconnect-backend/internal/adapter/messaging/nats"
	"github.com/ElHadji11/farmconnect-backend/internal/adapter/repository/cache"
	"github.com/ElHadji11/farmconnect-backend/internal/adapter/repository/mongodb"
	"github.com/ElHadji11/farmconnect-backend/internal/adapter/rest"
	"github.com/ElHadji11/farmconnect-backend/internal/adapter/rest/middleware"
	"github.com/ElHadji11/farmconnect-backend/internal/adapter/storage/s3"
	"github.com/ElHadji11/farmconnect-backend/internal/config"
	"github.com/ElHadji11/farmconnect-backend/internal/platform/logger"
	"github.com/ElHadji11/farmconnect-backend/internal/platform/metrics"
	"github.com/ElHadji11/farmconnect-backend/internal/platform/tracer"
	"github.com/ElHadji11/farmconnect-backend/internal/usecase"
)

func main() {
	// .env is optional; environment variables may come from elsewhere.
	_ = godotenv.Load()

	appLogger := logger.NewLogger()
	defer appLogger.Sync()

	cfg, err := config.LoadConfig(appLogger)
	if err != nil {
		appLogger.Fatal("Failed to load configuration", zap.Error(err))
	}

	tp := tracer.InitTracer(cfg.ServiceName, cfg.OTLPEndpoint, appLogger)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			appLogger.Error("Failed to shut down tracer provider", zap.Error(err))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		appLogger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer disconnectCancel()
		if err := mongoClient.Disconnect(disconnectCtx); err != nil {
			appLogger.Error("Failed to disconnect MongoDB client", zap.Error(err))
		}
	}()
	if err := mongoClient.Ping(ctx, readpref.Primary()); err != nil {
		appLogger.Fatal("Failed to ping MongoDB", zap.Error(err))
	}
	appLogger.Info("Connected to MongoDB", zap.String("database", cfg.MongoDatabase))
	db := mongoClient.Database(cfg.MongoDatabase)

	postCache, err := cache.NewPostCache(cfg.RedisAddress)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	appLogger.Info("Connected to Redis", zap.String("address", cfg.RedisAddress))

	mediaStorage, err := s3.NewMediaStorage(cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOBucket, cfg.MinIOUseSSL, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize media storage", zap.Error(err))
	}

	publisher, err := natsadapter.NewPublisher(cfg.NATSURL, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to NATS", zap.Error(err))
	}
	defer publisher.Close()

	identityProvider := identity.NewProvider(cfg.IdentityAPIURL, cfg.IdentityAPIKey, cfg.IdentitySigningKey, appLogger)

	postRepo, err := mongodb.NewPostRepository(db, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize post repository", zap.Error(err))
	}
	userRepo, err := mongodb.NewUserRepository(db, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize user repository", zap.Error(err))
	}

	postUC := usecase.NewPostUsecase(postRepo, userRepo, mediaStorage, postCache, publisher, appLogger)
	reviewUC := usecase.NewReviewUsecase(postRepo, userRepo, postCache, publisher, appLogger)
	favoriteUC := usecase.NewFavoriteUsecase(postRepo, userRepo, publisher, appLogger)
	userUC := usecase.NewUserUsecase(userRepo, postRepo, identityProvider, publisher, appLogger)

	mm := metrics.NewMetricsManager(cfg.ServiceName)
	go func() {
		if err := metrics.StartMetricsServer(cfg.PrometheusMetricsPort, appLogger, mm.Registry); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("Metrics server failed", zap.Error(err))
		}
	}()

	auth := middleware.NewAuthenticator(identityProvider, appLogger)
	postHandler := rest.NewPostHandler(postUC, reviewUC, favoriteUC, mm, appLogger)
	userHandler := rest.NewUserHandler(userUC, appLogger)
	router := rest.NewRouter(postHandler, userHandler, auth, appLogger, mm)

	server := rest.NewServer(cfg.HTTPPort, router, appLogger)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		appLogger.Error("HTTP server error", zap.Error(err))
	case sig := <-quit:
		appLogger.Info("Shutdown signal received", zap.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Graceful shutdown failed", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}
