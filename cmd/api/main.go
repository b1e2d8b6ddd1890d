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

	"ideaboard/api/internal/app"
	"ideaboard/api/internal/config"
	"ideaboard/api/internal/export"
	"ideaboard/api/internal/notify"
	"ideaboard/api/internal/points"
	"ideaboard/api/internal/search"
	"ideaboard/api/internal/store"
	"ideaboard/api/internal/tasks"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	dataStore := store.NewPostgresStore(db)

	pgfts := search.NewPgFTS(db)
	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
	}
	searchService := search.NewService(meiliClient, pgfts)
	if meiliClient != nil {
		defer meiliClient.Close()
		searchService.ReindexAllFromPG(ctx)
	}

	var boardNotifier *notify.RedisNotifier
	if strings.TrimSpace(cfg.RedisURL) != "" {
		boardNotifier, err = notify.NewRedisNotifier(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer boardNotifier.Close()
		log.Printf("Board notifications publishing to Redis")
	} else {
		log.Printf("REDIS_URL not set, board notifications disabled")
	}

	pointsClient := points.NewClient(points.Config{BaseURL: cfg.PointsServiceURL, Token: cfg.PointsServiceToken})
	taskClient := tasks.NewClient(tasks.Config{BaseURL: cfg.TaskServiceURL, Token: cfg.TaskServiceToken})

	service := app.New(cfg, dataStore, boardNotifier, pointsClient, taskClient, searchService)
	exportService := export.NewService(dataStore)

	httpServer := app.NewHTTPServer(service, exportService, searchService, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Idea board API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
