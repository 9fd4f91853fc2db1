package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	authdb "github.com/chepyr/go-kanban/auth-service/db"
	"github.com/chepyr/go-kanban/internal/config"
	"github.com/chepyr/go-kanban/internal/logger"
	"github.com/chepyr/go-kanban/internal/rowstore"
	"github.com/chepyr/go-kanban/internal/snapshot"
	"github.com/chepyr/go-kanban/shared"
	"github.com/chepyr/go-kanban/tasks-service/db"
	"github.com/chepyr/go-kanban/tasks-service/handlers"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.ValidateService(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logg, err := logger.New(cfg.Log.Level, cfg.Log.JSON)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logg.Sync()

	dbConn := initDB(cfg, logg)
	defer dbConn.Close()

	handler := initHandler(cfg, dbConn, logg)
	defer handler.RateLimiter.Stop()
	defer handler.WSHub.Close()

	server := initServer(cfg, handler)
	startServer(server, logg)
}

func initDB(cfg *config.Config, logg *zap.Logger) *sql.DB {
	driver := cfg.Database.Driver
	dbConn, err := rowstore.Connect(driver, cfg.Database.DataSource(), rowstore.ConnectionConfigFor(driver))
	if err != nil {
		logg.Fatal("Failed to connect to database", zap.String("driver", driver), zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.Migrate(ctx, dbConn, driver); err != nil {
		logg.Fatal("Failed to apply schema", zap.Error(err))
	}
	if err := authdb.MigrateRevocations(ctx, dbConn, driver); err != nil {
		logg.Fatal("Failed to apply revocation schema", zap.Error(err))
	}
	return dbConn
}

func initHandler(cfg *config.Config, dbConn *sql.DB, logg *zap.Logger) *handlers.Handler {
	store := rowstore.New(dbConn, cfg.Database.Driver)
	handler := &handlers.Handler{
		BoardRepo:      db.NewBoardRepository(store),
		ListRepo:       db.NewListRepository(store),
		CardRepo:       db.NewCardRepository(store),
		RateLimiter:    shared.NewRateLimiter(5, time.Second),
		WSHub:          handlers.NewWSHub(logg),
		Metrics:        handlers.NewMetrics(),
		Revocations:    authdb.NewRevocationRepository(store),
		JWTSecret:      []byte(cfg.Auth.JWTSecret),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         logg,
	}

	if cfg.S3.Endpoint != "" {
		exporter, err := initExporter(cfg.S3)
		if err != nil {
			logg.Fatal("Failed to set up snapshot storage", zap.Error(err))
		}
		handler.Exporter = exporter
		logg.Info("Snapshot export enabled",
			zap.String("endpoint", cfg.S3.Endpoint), zap.String("bucket", cfg.S3.Bucket))
	}
	return handler
}

func initExporter(cfg config.S3Config) (*snapshot.Exporter, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := snapshot.NewS3Client(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := snapshot.EnsureBucket(ctx, client, cfg.Bucket); err != nil {
		return nil, err
	}
	return snapshot.NewExporter(client, cfg.Bucket), nil
}

func initServer(cfg *config.Config, handler *handlers.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.Server.TasksPort,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func startServer(server *http.Server, logg *zap.Logger) {
	logg.Info("Starting tasks server", zap.String("addr", server.Addr))

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logg.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logg.Error("Server shutdown failed", zap.Error(err))
		return
	}
	logg.Info("Server stopped")
}
