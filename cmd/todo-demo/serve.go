package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"todo-demo/internal/cache"
	"todo-demo/internal/config"
	"todo-demo/internal/controller"
	"todo-demo/internal/database"
	"todo-demo/internal/models"
	"todo-demo/internal/queue"
	"todo-demo/internal/repository"
	"todo-demo/internal/routes"
	"todo-demo/internal/store"
	"todo-demo/internal/worker"
	"todo-demo/pkg/logger"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the lists/items HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()
			if port != "" {
				cfg.HTTPPort = port
			}
			logger.Configure(cfg.LogLevel, cfg.LogFormat, nil)
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "HTTP port (overrides HTTP_PORT)")
	return cmd
}

// backend is the store selected by STORE_BACKEND plus what the API needs around it.
type backend struct {
	ds     store.DataStore
	stats  controller.StatsProvider
	checks []controller.Check
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory, "":
		mem := store.New(store.Options{Latency: cfg.Latency(), StrictListRef: cfg.StrictListRef})
		logger.Info(ctx, "Using in-memory store", "latency_ms", cfg.StoreLatency, "strict_list_ref", cfg.StrictListRef)
		return &backend{ds: mem, stats: mem}, nil
	case config.BackendPostgres:
		db := database.DB(ctx)
		if db == nil {
			return nil, errors.New("database not available")
		}
		if err := database.MigrateOrCreateSchema(ctx, db); err != nil {
			return nil, err
		}
		logger.Info(ctx, "Using postgres store", "latency_ms", cfg.StoreLatency)
		return &backend{
			ds:     store.WithLatency(repository.New(db), cfg.Latency()),
			checks: []controller.Check{{Name: "database", Run: db.PingContext}},
		}, nil
	}
	return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
}

func serve(ctx context.Context, cfg *config.Config) error {
	be, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}

	rdb := cache.Client(ctx)
	c := cache.New(rdb, cfg.CacheTTLDuration())
	if rdb != nil {
		be.checks = append(be.checks, controller.Check{Name: "redis", Run: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}

	// topic creation may fail when it already exists; the app still runs
	if err := queue.EnsureTopic(ctx, cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaPartitions); err != nil {
		logger.Debug(ctx, "Kafka ensure topic failed", "error", err, "topic", cfg.KafkaTopic)
	}
	pub := queue.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer func() {
		if err := pub.Close(); err != nil {
			logger.Error(ctx, "Kafka producer close failed", "error", err)
		}
	}()
	consumer := worker.New(cfg.KafkaBrokers, cfg.KafkaTopic, c)

	ds := store.WithObservers(be.ds,
		func(ctx context.Context, ev models.ChangeEvent) { c.Invalidate(ctx, ev) },
		pub.Observer(),
	)

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      routes.Router(controller.New(ds, c, be.stats, be.checks...), cfg.JWTSecret),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info(ctx, "HTTP server listening", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	// Consumes change events from every replica and invalidates the shared cache
	g.Go(func() error {
		consumer.Run(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info(ctx, "Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error(ctx, "Server shutdown error", "error", err)
		}
		return nil
	})

	err = g.Wait()
	logger.Info(ctx, "Server stopped")
	return err
}
