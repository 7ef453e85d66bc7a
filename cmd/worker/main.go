package main

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	cartapp "github.com/dwikikusuma/cartd/internal/cart/app"
	cartdynamo "github.com/dwikikusuma/cartd/internal/cart/infra/dynamo"
	"github.com/dwikikusuma/cartd/internal/cart/infra/redisstore"
	cleanupapp "github.com/dwikikusuma/cartd/internal/cleanup/app"
	queuesqs "github.com/dwikikusuma/cartd/internal/cleanup/infra/sqs"
	"github.com/dwikikusuma/cartd/internal/observability"
	"github.com/dwikikusuma/cartd/internal/observer"
	"github.com/dwikikusuma/cartd/pkg/config"
	"github.com/dwikikusuma/cartd/pkg/logger"
	"github.com/dwikikusuma/cartd/pkg/shutdown"
)

// The worker binary runs the asynchronous half of the system: the
// cleanup consumer against SQS and, when the redis store is in use,
// the change observer on the store's pub/sub feed.
func main() {
	cfg := config.Load()
	log := logger.New(logger.Options{Service: "worker", Env: cfg.AppEnv, Level: cfg.LogLevel, AddSource: true})

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	store := mustStore(ctx, cfg, log)
	cartSvc := cartapp.NewService(store)

	queue, err := queuesqs.New(ctx, queuesqs.Config{QueueURL: cfg.QueueURL, Region: cfg.AWSRegion, Endpoint: cfg.AWSEndpoint})
	if err != nil {
		log.Error("sqs queue init failed", slog.Any("err", err))
		os.Exit(1)
	}

	metrics := observability.New(prometheus.NewRegistry())

	var wg sync.WaitGroup

	worker := cleanupapp.NewWorker(queue, cartSvc, log, metrics, cfg.CleanupBatchSize)
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("cleanup worker starting", slog.String("queueUrl", cfg.QueueURL))
		_ = worker.Run(ctx)
	}()

	if cfg.StoreDriver == "redis" {
		rdb := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr, DialTimeout: 5 * time.Second})
		feed := redisstore.SubscribeChanges(ctx, rdb, cfg.RedisChannel)
		obs := observer.New(log, metrics)
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Info("change observer starting", slog.String("channel", cfg.RedisChannel))
			obs.Run(ctx, feed, cfg.ObserverFlushEvery, 10*time.Second)
		}()
	}

	<-ctx.Done()
	log.Info("shutdown requested")
	wg.Wait()
	log.Info("bye")
}

func mustStore(ctx context.Context, cfg config.Config, log *slog.Logger) cartapp.Store {
	switch cfg.StoreDriver {
	case "dynamo":
		store, err := cartdynamo.New(ctx, cartdynamo.Config{Table: cfg.CartTable, Region: cfg.AWSRegion, Endpoint: cfg.AWSEndpoint})
		if err != nil {
			log.Error("dynamo store init failed", slog.Any("err", err))
			os.Exit(1)
		}
		return store
	case "redis":
		store, err := redisstore.New(ctx, redisstore.Config{Addr: cfg.RedisAddr, Channel: cfg.RedisChannel})
		if err != nil {
			log.Error("redis store init failed", slog.Any("err", err))
			os.Exit(1)
		}
		return store
	default:
		log.Error("worker requires a shared store driver", slog.String("driver", cfg.StoreDriver))
		os.Exit(1)
		return nil
	}
}
