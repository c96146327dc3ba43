// Package main is the entry point for the worker fleet: N poll loops
// plus one retention sweeper per process.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/AnjaneyaKaushik/docsmart-backend/internal/artifact"
	"github.com/AnjaneyaKaushik/docsmart-backend/internal/config"
	"github.com/AnjaneyaKaushik/docsmart-backend/internal/queue"
	"github.com/AnjaneyaKaushik/docsmart-backend/internal/store"
	"github.com/AnjaneyaKaushik/docsmart-backend/internal/sweep"
	"github.com/AnjaneyaKaushik/docsmart-backend/internal/tools"
	"github.com/AnjaneyaKaushik/docsmart-backend/internal/worker"
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

	registry := tools.NewRegistry(tools.HandlerConfig{
		GhostscriptPath: cfg.GhostscriptPath,
		LibreOfficePath: cfg.LibreOfficePath,
		PdftotextPath:   cfg.PdftotextPath,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer, err := queue.NewConsumer(cfg.QueueRedisURL)
	var wake worker.Wake
	if err != nil {
		log.Printf("wake consumer disabled, workers will rely on the poll interval: %v", err)
		consumer = nil
	} else {
		wake = consumer
	}

	var wg sync.WaitGroup

	if consumer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Start(ctx); err != nil {
				log.Printf("wake consumer stopped: %v", err)
			}
		}()
	}

	logger := log.New(os.Stdout, "worker: ", log.LstdFlags)
	timeouts := worker.HandlerTimeouts{Default: cfg.HandlerTimeoutDefault, Office: cfg.HandlerTimeoutOffice}

	for i := 0; i < cfg.WorkerConcurrency; i++ {
		w := worker.New(repo, artifacts, registry, cfg.PollInterval, timeouts, wake, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Run(ctx)
		}()
	}

	sweeper := sweep.New(repo, artifacts, cfg.RetentionWindow, cfg.CleanupInterval, log.New(os.Stdout, "sweeper: ", log.LstdFlags))
	wg.Add(1)
	go func() {
		defer wg.Done()
		sweeper.Start(ctx)
	}()

	log.Printf("Started %d workers and the retention sweeper", cfg.WorkerConcurrency)
	<-ctx.Done()
	log.Println("Shutting down worker fleet")
	wg.Wait()
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
