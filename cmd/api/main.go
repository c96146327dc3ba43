// Package main is the entry point for the submission/status/download
// HTTP server.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AnjaneyaKaushik/docsmart-backend/internal/api"
	"github.com/AnjaneyaKaushik/docsmart-backend/internal/artifact"
	"github.com/AnjaneyaKaushik/docsmart-backend/internal/config"
	"github.com/AnjaneyaKaushik/docsmart-backend/internal/queue"
	"github.com/AnjaneyaKaushik/docsmart-backend/internal/store"
	"github.com/AnjaneyaKaushik/docsmart-backend/internal/tools"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	repo, err := setupRepository(cfg)
	if err != nil {
		log.Fatalf("Failed to set up job repository: %v", err)
	}

	artifacts, err := setupArtifacts(cfg)
	if err != nil {
		log.Fatalf("Failed to set up artifact store: %v", err)
	}

	var wake api.WakeNotifier
	publisher, err := queue.NewPublisher(cfg.QueueRedisURL)
	if err != nil {
		log.Printf("wake publisher disabled, submissions will rely on the worker poll interval: %v", err)
	} else {
		wake = publisher
		defer publisher.Close()
	}

	registry := tools.NewRegistry(tools.HandlerConfig{
		GhostscriptPath: cfg.GhostscriptPath,
		LibreOfficePath: cfg.LibreOfficePath,
		PdftotextPath:   cfg.PdftotextPath,
	})

	server := &api.Server{
		Repo:                  repo,
		Artifacts:             artifacts,
		Registry:              registry,
		MaxFileSize:           cfg.MaxFileSize,
		AverageJobTimeSeconds: cfg.AverageJobTimeSeconds,
		Wake:                  wake,
	}

	localRoot := ""
	if cfg.ArtifactBackend == "local" {
		localRoot = cfg.ArtifactLocalRoot
	}
	router := api.NewRouter(server, cfg.GinMode, cfg.CORSAllowedOrigins, localRoot)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Starting API server on %s (mode: %s)", httpServer.Addr, cfg.GinMode)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down API server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("API server shutdown error: %v", err)
	}
}

func setupRepository(cfg *config.Config) (store.Repository, error) {
	opt, err := redis.ParseURL(cfg.QueueRedisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Printf("redis unreachable at %s, falling back to the in-memory job repository: %v", cfg.QueueRedisURL, err)
		return store.NewMemory(cfg.AccessThreshold), nil
	}
	return store.NewRedis(client, cfg.AccessThreshold), nil
}

func setupArtifacts(cfg *config.Config) (artifact.Store, error) {
	switch cfg.ArtifactBackend {
	case "s3":
		return artifact.NewS3Store(context.Background(), cfg.AWSRegion, cfg.AWSEndpointURL, "")
	default:
		return artifact.NewLocalStore(cfg.ArtifactLocalRoot, cfg.ArtifactBaseURL), nil
	}
}
