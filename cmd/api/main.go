package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	cartapp "github.com/dwikikusuma/cartd/internal/cart/app"
	cartdynamo "github.com/dwikikusuma/cartd/internal/cart/infra/dynamo"
	"github.com/dwikikusuma/cartd/internal/cart/infra/memory"
	"github.com/dwikikusuma/cartd/internal/cart/infra/redisstore"
	catalogapp "github.com/dwikikusuma/cartd/internal/catalog/app"
	checkoutapp "github.com/dwikikusuma/cartd/internal/checkout/app"
	cleanupapp "github.com/dwikikusuma/cartd/internal/cleanup/app"
	queuemem "github.com/dwikikusuma/cartd/internal/cleanup/infra/memory"
	queuesqs "github.com/dwikikusuma/cartd/internal/cleanup/infra/sqs"
	"github.com/dwikikusuma/cartd/internal/handlers"
	"github.com/dwikikusuma/cartd/internal/identity"
	migrateapp "github.com/dwikikusuma/cartd/internal/migrate/app"
	migrateadapter "github.com/dwikikusuma/cartd/internal/migrate/infra/adapter"
	"github.com/dwikikusuma/cartd/internal/observability"
	"github.com/dwikikusuma/cartd/internal/observer"
	"github.com/dwikikusuma/cartd/internal/server"
	"github.com/dwikikusuma/cartd/pkg/config"
	"github.com/dwikikusuma/cartd/pkg/logger"
	"github.com/dwikikusuma/cartd/pkg/shutdown"
)

func main() {
	cfg := config.Load()
	log := logger.New(logger.Options{Service: "api", Env: cfg.AppEnv, Level: cfg.LogLevel, AddSource: true})

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	if cfg.AppEnv != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	reg := prometheus.NewRegistry()
	metrics := observability.New(reg)

	store, memStore := mustStore(ctx, cfg, log)
	cartSvc := cartapp.NewService(store)

	queue := mustQueue(ctx, cfg, log)
	migrateSvc := migrateapp.NewService(cartSvc, migrateadapter.NewQueueEnqueuer(queue), log, cfg.MigrateMaxConcurrent)
	catalogSvc := catalogapp.NewService(catalogapp.DefaultProducts())
	checkoutSvc := checkoutapp.NewService()

	var resolver identity.Resolver = identity.None{}
	if cfg.AuthSecret != "" {
		resolver = identity.NewTokenResolver(cfg.AuthSecret)
	}

	router := server.NewRouter(server.RouterConfig{
		Cart:     handlers.NewCartHandler(cartSvc, log, metrics),
		Migrate:  handlers.NewMigrateHandler(migrateSvc, resolver, log, metrics),
		Catalog:  handlers.NewCatalogHandler(catalogSvc, metrics),
		Checkout: handlers.NewCheckoutHandler(checkoutSvc, metrics),
		Gatherer: reg,
	})

	var wg sync.WaitGroup

	// Dev mode runs the async pipeline in-process; deployed setups run
	// cmd/worker against SQS instead.
	if cfg.QueueDriver == "memory" {
		worker := cleanupapp.NewWorker(queue, cartSvc, log, metrics, cfg.CleanupBatchSize)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = worker.Run(ctx)
		}()
	}
	if memStore != nil {
		obs := observer.New(log, metrics)
		feed := memStore.Watch(256)
		wg.Add(1)
		go func() {
			defer wg.Done()
			obs.Run(ctx, feed, cfg.ObserverFlushEvery, 10*time.Second)
		}()
	}

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("http server starting", slog.String("addr", addr), slog.String("store", cfg.StoreDriver), slog.String("queue", cfg.QueueDriver))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", slog.Any("err", err))
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown requested")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	if err := srv.Shutdown(stopCtx); err != nil {
		log.Error("http shutdown error", slog.Any("err", err))
	}

	wg.Wait()
	log.Info("bye")
}

func mustStore(ctx context.Context, cfg config.Config, log *slog.Logger) (cartapp.Store, *memory.Store) {
	switch cfg.StoreDriver {
	case "memory":
		mem := memory.New()
		return mem, mem
	case "dynamo":
		store, err := cartdynamo.New(ctx, cartdynamo.Config{Table: cfg.CartTable, Region: cfg.AWSRegion, Endpoint: cfg.AWSEndpoint})
		if err != nil {
			log.Error("dynamo store init failed", slog.Any("err", err))
			os.Exit(1)
		}
		return store, nil
	case "redis":
		store, err := redisstore.New(ctx, redisstore.Config{Addr: cfg.RedisAddr, Channel: cfg.RedisChannel})
		if err != nil {
			log.Error("redis store init failed", slog.Any("err", err))
			os.Exit(1)
		}
		return store, nil
	default:
		log.Error("unknown store driver", slog.String("driver", cfg.StoreDriver))
		os.Exit(1)
		return nil, nil
	}
}

func mustQueue(ctx context.Context, cfg config.Config, log *slog.Logger) cleanupapp.Queue {
	switch cfg.QueueDriver {
	case "memory":
		return queuemem.NewQueue()
	case "sqs":
		queue, err := queuesqs.New(ctx, queuesqs.Config{QueueURL: cfg.QueueURL, Region: cfg.AWSRegion, Endpoint: cfg.AWSEndpoint})
		if err != nil {
			log.Error("sqs queue init failed", slog.Any("err", err))
			os.Exit(1)
		}
		return queue
	default:
		log.Error("unknown queue driver", slog.String("driver", cfg.QueueDriver))
		os.Exit(1)
		return nil
	}
}
