package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Domenick1991/farequote/config"
	"github.com/Domenick1991/farequote/internal/cache"
	"github.com/Domenick1991/farequote/internal/kafka"
	"github.com/Domenick1991/farequote/internal/logging"
	"github.com/Domenick1991/farequote/internal/repository"
	"github.com/Domenick1991/farequote/internal/service/quotes"
)

// The worker keeps the facet cache in step with the store: it drops the
// cached facets on every fare event and rebuilds them on a ticker.
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

	ttl := cfg.Search.FacetsTTL()
	if ttl <= 0 || cfg.Redis.Addr == "" {
		logger.Infow("shared facet cache disabled, worker has nothing to do")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logger.Fatalw("connect postgres", "error", err)
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, ttl)
	defer redisCache.Close()

	quoteService := quotes.NewQuoteService(
		repository.NewFareRepository(pool),
		repository.NewFacetRepository(pool),
		quotes.WithFacetCache(cache.NewBreakerCache(redisCache, logger, nil)),
		quotes.WithLogger(logger),
	)

	var consumerOpts []kafka.ConsumerOption
	if cfg.Kafka.DeadLetter {
		deadLetter := kafka.NewDeadLetterProducer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, logger)
		defer deadLetter.Close()
		consumerOpts = append(consumerOpts, kafka.WithDeadLetter(deadLetter))
	}

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.FaresTopic, logger, consumerOpts...)
	defer consumer.Close()

	go func() {
		err := consumer.Consume(ctx, fareChangedHandler(quoteService, logger))
		if err != nil {
			logger.Errorw("consumer stopped", "error", err)
			stop()
		}
	}()

	refreshTicker := time.NewTicker(time.Duration(cfg.Worker.FacetRefreshMinutes) * time.Minute)
	defer refreshTicker.Stop()

	for {
		select {
		case <-refreshTicker.C:
			facets, err := quoteService.RefreshFacets(ctx)
			if err != nil {
				logger.Errorw("refresh facets", "error", err)
				continue
			}
			logger.Infow("facets refreshed", "airlines", len(facets.Airlines), "dates", len(facets.DepDates))
		case <-ctx.Done():
			logger.Infow("shutting down worker")
			return
		}
	}
}
