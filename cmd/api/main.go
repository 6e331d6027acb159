package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"example.com/pacer/internal/api"
	"example.com/pacer/internal/config"
	"example.com/pacer/internal/domain"
	"example.com/pacer/internal/logging"
	"example.com/pacer/internal/outbox"
	"example.com/pacer/internal/persistence/memory"
	"example.com/pacer/internal/persistence/postgres"
	httptransport "example.com/pacer/internal/transport/http"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	var repo domain.RunRepository
	switch cfg.StoreBackend {
	case config.StorePostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			logger.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer pool.Close()

		repo = postgres.NewRepository(pool, cfg.RunEventsTopic)

		publisher := outbox.NewKafkaPublisher(cfg.KafkaBrokers)
		defer publisher.Close()

		relay := outbox.NewRelay(pool, publisher,
			outbox.WithLogger(logger.Named("outbox")),
			outbox.WithPollInterval(cfg.OutboxPollInterval),
			outbox.WithBatchSize(cfg.OutboxBatchSize),
		)
		g.Go(func() error { return relay.Run(gctx) })
	case config.StoreMemory:
		logger.Warn("using in-memory run store; runs are lost on restart")
		repo = memory.NewRepository()
	default:
		logger.Fatal("unknown store backend", zap.String("backend", cfg.StoreBackend))
	}

	service := domain.NewService(repo)
	handler := api.NewHandler(service, logger.Named("api"))
	router := httptransport.NewRouter(logger.Named("http"), cfg.CORSOrigins, handler)

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTPAddress,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}, router)

	g.Go(func() error {
		logger.Info("runs api listening", zap.String("address", cfg.HTTPAddress), zap.String("store", cfg.StoreBackend))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown failed", zap.Error(err))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", zap.Error(err))
	}
}
