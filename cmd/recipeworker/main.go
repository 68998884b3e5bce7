package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/vixomaix/reel-to-recipe-api/config"
	"github.com/vixomaix/reel-to-recipe-api/internal/adapter/ai"
	sqlitearchive "github.com/vixomaix/reel-to-recipe-api/internal/adapter/archive/sqlite"
	"github.com/vixomaix/reel-to-recipe-api/internal/adapter/queue/redisstream"
	"github.com/vixomaix/reel-to-recipe-api/internal/adapter/storage/redisjob"
	"github.com/vixomaix/reel-to-recipe-api/internal/adapter/webhook"
	"github.com/vixomaix/reel-to-recipe-api/internal/infrastructure/logger"
	"github.com/vixomaix/reel-to-recipe-api/internal/port"
	"github.com/vixomaix/reel-to-recipe-api/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Info.Printf("no .env file found, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error.Printf("failed to load config: %v", err)
		os.Exit(1)
	}

	logger.Info.Printf("starting recipeworker (provider=%s, workers=%d, group=%s)", cfg.AIProvider, cfg.Workers, cfg.ConsumerGroup)

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer func() { _ = client.Close() }()

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Error.Printf("redis unreachable at %s: %v", cfg.RedisAddr, err)
		os.Exit(1)
	}

	var provider port.Provider
	switch cfg.AIProvider {
	case "anthropic":
		provider = ai.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.AITimeout)
	default:
		provider = ai.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.AITimeout)
	}

	store := redisjob.NewStore(client)
	queue := redisstream.NewQueue(client)
	extractor := service.NewExtractor(provider, cfg.AITimeout)
	notifier := webhook.NewNotifier(cfg.WebhookSecret, cfg.WebhookTimeout)

	var archive port.Archive
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		logger.Warn.Printf("cannot create data directory %s, archiving disabled: %v", cfg.DataDir, err)
	} else {
		sqlArchive, err := sqlitearchive.NewArchive(cfg.DataDir)
		if err != nil {
			logger.Warn.Printf("archive unavailable: %v", err)
		} else {
			defer func() { _ = sqlArchive.Close() }()
			archive = sqlArchive
		}
	}

	pool := service.NewWorkerPool(queue, store, redisjob.Recipes{Store: store}, extractor, archive, notifier, service.WorkerPoolOptions{
		Group:               cfg.ConsumerGroup,
		Workers:             cfg.Workers,
		DeadLetterThreshold: cfg.DeadLetterThreshold,
		ReclaimMinIdle:      cfg.ReclaimMinIdle,
		ReclaimInterval:     cfg.ReclaimInterval,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := pool.Start(ctx); err != nil {
		logger.Error.Printf("failed to start worker pool: %v", err)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info.Printf("shutdown signal received, draining in-flight work")

	// In-flight messages that miss this window stay pending and are
	// reclaimed by another consumer.
	time.Sleep(2 * time.Second)
	logger.Info.Printf("shutdown complete")
}
