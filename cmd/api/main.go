package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"commentlist/api/internal/app"
	"commentlist/api/internal/cache"
	"commentlist/api/internal/config"
	"commentlist/api/internal/logging"
	"commentlist/api/internal/search"
	"commentlist/api/internal/store"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger setup failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	applied, err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir)
	if err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}
	if len(applied) > 0 {
		logger.Info("migrations applied", zap.Strings("versions", applied))
	}

	catalog := store.NewPostgresStore(db)

	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey, logger)
		defer meiliClient.Close()
	}
	locator := search.NewService(meiliClient, catalog, logger)

	var service *app.Service
	if strings.TrimSpace(cfg.RedisURL) != "" {
		logger.Info("using redis for metadata caching", zap.Duration("ttl", cfg.MetadataCacheTTL))
		metadataCache, err := cache.NewRedisStore(cfg.RedisURL, cfg.MetadataCacheTTL)
		if err != nil {
			logger.Fatal("redis connection failed", zap.Error(err))
		}
		defer metadataCache.Close()
		service = app.New(cfg, catalog, metadataCache, locator, logger)
	} else {
		logger.Info("metadata caching disabled")
		service = app.New(cfg, catalog, nil, locator, logger)
	}

	if err := service.WarmIndex(ctx); err != nil {
		logger.Warn("search index warm-up failed", zap.Error(err))
	}

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin, logger)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("comment-list API listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}
