// Package main API 服务入口
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

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
	"novel-trans-api/internal/interfaces/http/handler"
	"novel-trans-api/internal/interfaces/http/middleware"
	"novel-trans-api/internal/interfaces/http/router"
	einoobs "novel-trans-api/internal/observability/eino"
	"novel-trans-api/pkg/logger"
	"novel-trans-api/pkg/tracer"
)

// Version 版本信息，构建时注入
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件（如果存在）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(
		cfg.Observability.Logging.Level,
		cfg.Observability.Logging.Format,
	)

	ctx := context.Background()
	log := logger.FromContext(ctx)
	log.Info("starting api-server",
		"version", Version,
		"build_time", BuildTime,
		"env", cfg.App.Env,
	)

	shutdown, err := tracer.Init(ctx, tracer.Config{
		ServiceName: cfg.App.Name,
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		logger.Fatal(ctx, "failed to init tracer", err)
	}
	defer func() {
		if err := shutdown(ctx); err != nil {
			log.Error("failed to shutdown tracer", "error", err)
		}
	}()

	// 初始化 Eino 全局 callbacks（追踪）
	einoobs.Init()

	// 基础设施
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

	txMgr := postgres.NewTxManager(pgClient)
	projectRepo := postgres.NewProjectRepository(pgClient)
	chapterRepo := postgres.NewChapterRepository(pgClient)
	cache := redis.NewCache(redisClient)

	// 配额账本：重启后从 Redis 恢复当日用量
	usageStore := redis.NewUsageStore(redisClient)
	ledger := quota.NewLedger(cfg.LLM.Models, usageStore)
	if err := ledger.Restore(ctx); err != nil {
		logger.Warn(ctx, "failed to restore quota ledger, starting fresh", "error", err)
	}
	selector := quota.NewSelector(cfg.LLM.Models, ledger)

	// 翻译链路
	factory := llm.NewEinoFactory(cfg)
	completer := llm.NewCompleter(factory)
	translator := translate.NewTranslator(completer, selector, ledger, &cfg.Translator)
	analyzer := translate.NewAnalyzer(completer, selector, ledger, &cfg.Translator)

	// 抓取链路
	fetcher := fetch.NewClient(&cfg.Crawler)
	extractor := extract.NewExtractor(fetcher, &cfg.Crawler)
	producer := messaging.NewProducer(redisClient.Redis(), int64(cfg.Messaging.RedisStream.MaxLen))
	crawlSvc := crawl.NewService(extractor, projectRepo, chapterRepo, producer, cfg.Crawler.MaxPages)

	// 批量翻译
	batchSvc := batch.NewService(translator, analyzer, projectRepo, chapterRepo)
	scheduler := batch.NewScheduler(batchSvc)

	handlers := router.Handlers{
		Health:    handler.NewHealthHandler(pgClient, redisClient),
		Project:   handler.NewProjectHandler(projectRepo, cache),
		Chapter:   handler.NewChapterHandler(projectRepo, chapterRepo, txMgr),
		Crawl:     handler.NewCrawlHandler(crawlSvc, producer),
		Translate: handler.NewTranslateHandler(batchSvc, scheduler, analyzer, producer, projectRepo, chapterRepo),
		Export:    handler.NewExportHandler(projectRepo, chapterRepo),
		Quota:     handler.NewQuotaHandler(ledger),
	}

	rateLimit := middleware.RateLimit(middleware.RateLimitConfig{
		Enabled:           cfg.Security.RateLimit.Enabled,
		RequestsPerSecond: cfg.Security.RateLimit.RequestsPerSecond,
		Burst:             cfg.Security.RateLimit.Burst,
	}, redis.NewRateLimiter(redisClient))

	r := router.New(cfg, handlers, rateLimit)

	addr := fmt.Sprintf("%s:%d", cfg.Server.HTTP.Host, cfg.Server.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.HTTP.ReadTimeout,
		WriteTimeout: cfg.Server.HTTP.WriteTimeout,
		IdleTimeout:  cfg.Server.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("http server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// 先停掉批量队列并中断在途翻译，避免关机期间还在调模型
	scheduler.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	log.Info("server exited")
}
