package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Domenick1991/farequote/config"
	"github.com/Domenick1991/farequote/internal/bootstrap"
	"github.com/Domenick1991/farequote/internal/cache"
	"github.com/Domenick1991/farequote/internal/logging"
	"github.com/Domenick1991/farequote/internal/metrics"
	"github.com/Domenick1991/farequote/internal/repository"
	"github.com/Domenick1991/farequote/internal/service/quotes"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfg.Log.Env)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Database.AutoMigrate {
		if err := repository.Migrate(cfg.Database.MigrateURL()); err != nil {
			logger.Fatalw("run migrations", "error", err)
		}
	}

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logger.Fatalw("connect postgres", "error", err)
	}
	defer pool.Close()

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metricsReg := metrics.NewRegistry(promReg)

	opts := []quotes.QuoteServiceOption{
		quotes.WithPageSize(cfg.Search.PageSize),
		quotes.WithLogger(logger),
		quotes.WithMetrics(metricsReg),
	}
	if ttl := cfg.Search.FacetsTTL(); ttl > 0 {
		if cfg.Redis.Addr == "" {
			memCache := cache.NewMemoryCache(ttl)
			defer memCache.Close()
			opts = append(opts, quotes.WithFacetCache(memCache))
		} else {
			redisCache := cache.NewRedisCache(cfg.Redis, ttl)
			defer redisCache.Close()
			opts = append(opts, quotes.WithFacetCache(cache.NewBreakerCache(redisCache, logger, metricsReg.FacetCacheBreakerState)))
		}
	}

	quoteService := quotes.NewQuoteService(
		repository.NewFareRepository(pool),
		repository.NewFacetRepository(pool),
		opts...,
	)

	deps := bootstrap.Deps{
		Quotes:   quoteService,
		DB:       pool,
		Logger:   logger,
		Metrics:  metricsReg,
		Gatherer: promReg,
	}
	if err := bootstrap.Run(ctx, cfg, deps); err != nil {
		logger.Fatalw("server error", "error", err)
	}
}
