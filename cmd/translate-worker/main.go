// Package main 异步翻译与抓取执行器入口（translate-worker）
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"novel-trans-api/internal/application/batch"
	"novel-trans-api/internal/application/crawl"
	"novel-trans-api/internal/application/extract"
	"novel-trans-api/internal/application/quota"
	"novel-trans-api/internal/application/translate"
	"novel-trans-api/internal/config"
	"novel-trans-api/internal/infrastructure/fetch"
	"novel-trans-api/internal/infrastructure/llm"
	"novel-trans-api/internal/infrastructure/messaging"
	"novel-trans-api/internal/infrastructure/persistence/postgres"
	"novel-trans-api/internal/infrastructure/persistence/redis"
	einoobs "novel-trans-api/internal/observability/eino"
	"novel-trans-api/pkg/logger"
	"novel-trans-api/pkg/tracer"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	ctx := context.Background()

	shutdown, err := tracer.Init(ctx, tracer.Config{
		ServiceName: "translate-worker",
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		logger.Fatal(ctx, "failed to init tracer", err)
	}
	defer func() { _ = shutdown(ctx) }()

	einoobs.Init()

	pgClient, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		logger.Fatal(ctx, "failed to init postgres", err)
	}
	defer func() { _ = pgClient.Close() }()

	redisClient, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		logger.Fatal(ctx, "failed to init redis", err)
	}
	defer func() { _ = redisClient.Close() }()

	projectRepo := postgres.NewProjectRepository(pgClient)
	chapterRepo := postgres.NewChapterRepository(pgClient)

	// 配额账本与 API 进程共用同一份 Redis 持久化
	usageStore := redis.NewUsageStore(redisClient)
	ledger := quota.NewLedger(cfg.LLM.Models, usageStore)
	if err := ledger.Restore(ctx); err != nil {
		logger.Warn(ctx, "failed to restore quota ledger, starting fresh", "error", err)
	}
	selector := quota.NewSelector(cfg.LLM.Models, ledger)

	factory := llm.NewEinoFactory(cfg)
	completer := llm.NewCompleter(factory)
	translator := translate.NewTranslator(completer, selector, ledger, &cfg.Translator)
	analyzer := translate.NewAnalyzer(completer, selector, ledger, &cfg.Translator)
	batchSvc := batch.NewService(translator, analyzer, projectRepo, chapterRepo)

	fetcher := fetch.NewClient(&cfg.Crawler)
	extractor := extract.NewExtractor(fetcher, &cfg.Crawler)
	producer := messaging.NewProducer(redisClient.Redis(), int64(cfg.Messaging.RedisStream.MaxLen))
	crawlSvc := crawl.NewService(extractor, projectRepo, chapterRepo, producer, cfg.Crawler.MaxPages)

	backoff := messaging.BackoffConfig{
		Initial:    cfg.Messaging.RedisStream.RetryBackoff.Initial,
		Max:        cfg.Messaging.RedisStream.RetryBackoff.Max,
		Multiplier: cfg.Messaging.RedisStream.RetryBackoff.Multiplier,
	}

	translateConsumer := messaging.NewConsumer(redisClient.Redis(), messaging.ConsumerConfig{
		Stream:       messaging.StreamTranslate,
		Group:        messaging.ConsumerGroupTranslator,
		ConsumerName: hostnameConsumerName(),
		BlockTimeout: cfg.Messaging.RedisStream.BlockTimeout,
		RetryLimit:   cfg.Messaging.RedisStream.RetryLimit,
		Backoff:      backoff,
	})

	translateConsumer.RegisterHandler("chapter_translate", func(ctx context.Context, msg *messaging.Message) error {
		var payload messaging.TranslateJobMessage
		if err := msg.UnmarshalPayload(&payload); err != nil {
			return err
		}
		return batchSvc.TranslateChapter(ctx, payload.ProjectID, payload.ChapterID, payload.Force)
	})

	crawlConsumer := messaging.NewConsumer(redisClient.Redis(), messaging.ConsumerConfig{
		Stream:       messaging.StreamCrawl,
		Group:        messaging.ConsumerGroupCrawler,
		ConsumerName: hostnameConsumerName(),
		BlockTimeout: cfg.Messaging.RedisStream.BlockTimeout,
		RetryLimit:   cfg.Messaging.RedisStream.RetryLimit,
		Backoff:      backoff,
	})

	crawlConsumer.RegisterHandler("crawl", func(ctx context.Context, msg *messaging.Message) error {
		var payload messaging.CrawlJobMessage
		if err := msg.UnmarshalPayload(&payload); err != nil {
			return err
		}
		added, err := crawlSvc.Run(ctx, &payload)
		if err != nil {
			return err
		}
		logger.Info(ctx, "crawl job finished", "job_id", payload.JobID, "added", added)
		return nil
	})

	if err := translateConsumer.Start(ctx); err != nil {
		logger.Fatal(ctx, "failed to start translate consumer", err)
	}
	if err := crawlConsumer.Start(ctx); err != nil {
		logger.Fatal(ctx, "failed to start crawl consumer", err)
	}

	log := logger.FromContext(ctx)
	log.Info("translate-worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("translate-worker shutting down")
	translateConsumer.Stop()
	crawlConsumer.Stop()
}

func hostnameConsumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
