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

	"github.com/chepyr/go-kanban/auth-service/db"
	"github.com/chepyr/go-kanban/auth-service/handlers"
	"github.com/chepyr/go-kanban/internal/config"
	"github.com/chepyr/go-kanban/internal/logger"
	"github.com/chepyr/go-kanban/internal/rowstore"
	"github.com/chepyr/go-kanban/shared"
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
	defer func() {
		if err := dbConn.Close(); err != nil {
			logg.Error("Error closing database connection", zap.Error(err))
		}
	}()

	handler := initHandler(cfg, dbConn, logg)
	defer handler.RateLimiter.Stop()

	server := &http.Server{
		Addr:              ":" + cfg.Server.AuthPort,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
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
	return dbConn
}

func initHandler(cfg *config.Config, dbConn *sql.DB, logg *zap.Logger) *handlers.Handler {
	store := rowstore.New(dbConn, cfg.Database.Driver)
	return &handlers.Handler{
		UserRepo: db.NewUserRepository(store),
		// allow max 5 login attempts per 15 minutes from the same IP
		RateLimiter:    shared.NewRateLimiter(5, 15*time.Minute),
		Revoked:        handlers.NewRevocations(),
		RevocationRepo: db.NewRevocationRepository(store),
		JWTSecret:      []byte(cfg.Auth.JWTSecret),
		TokenTTL:       cfg.Auth.TokenTTL,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         logg,
	}
}

func startServer(server *http.Server, logg *zap.Logger) {
	logg.Info("Starting auth server", zap.String("addr", server.Addr))

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
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
