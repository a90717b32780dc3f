// Package main is the entry point for the Fletcher controller.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"fletcher/internal/auth"
	"fletcher/internal/config"
	"fletcher/internal/controller"
	"fletcher/internal/controller/handlers"
	"fletcher/internal/dispatcher"
	"fletcher/internal/logger"
	"fletcher/internal/model"
	"fletcher/internal/observability"
	"fletcher/internal/planengine"
	"fletcher/internal/stateengine"
	"fletcher/internal/store"
	"fletcher/internal/store/postgres"
)

func main() {
	os.Exit(run())
}

func run() int {
	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}

	log, err := logger.New(logger.Options{Level: cfg.LogLevel})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		return 1
	}

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.DatabaseURL, cfg.MaxConnections)
	if err != nil {
		log.Error().Err(err).Msg("failed to connect to database")
		return 2
	}
	defer db.Close()

	if *migrateFlag {
		log.Info().Msg("running database migrations")
		if err := postgres.Migrate(db.DB()); err != nil {
			log.Error().Err(err).Msg("migration failed")
			return 2
		}
	}

	shutdownTracer, err := observability.InitTracer(ctx, "fletcher-controller", cfg.OTELEndpoint)
	if err != nil {
		log.Error().Err(err).Msg("failed to init tracing")
		return 2
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Error().Err(err).Msg("failed to shut down tracer")
		}
	}()

	metricsHandler, shutdownMetrics, err := observability.InitMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to init metrics")
		return 2
	}
	defer func() {
		if err := shutdownMetrics(context.Background()); err != nil {
			log.Error().Err(err).Msg("failed to shut down metrics")
		}
	}()

	meter := otel.Meter("fletcher-controller")
	_, err = meter.Int64ObservableGauge("fletcher.data_product.queued_depth",
		metric.WithDescription("Current number of data products in the queued state"),
		metric.WithInt64Callback(func(ctx context.Context, obs metric.Int64Observer) error {
			count, err := db.SearchDataProducts(ctx, nil, store.SearchFilter{State: model.StateQueued})
			if err != nil {
				log.Error().Err(err).Msg("failed to count queued depth")
				return nil
			}
			obs.Observe(int64(len(count)))
			return nil
		}),
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to register queued depth metric")
	}

	authSvc := auth.New(cfg)

	adapters := map[model.Compute]dispatcher.Adapter{
		model.ComputeCAMS:   dispatcher.NewHTTPAdapter("cams", cfg.CAMSBaseURL),
		model.ComputeDBXaaS: dispatcher.NewHTTPAdapter("dbxaas", cfg.DBXaaSBaseURL),
	}
	dispatch := dispatcher.New(adapters)

	stateEngine := stateengine.New(db, dispatch)
	planEngine := planengine.New(db, stateEngine)

	h := handlers.New(db, db, planEngine, stateEngine, authSvc)

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	srv := controller.New(addr, h, authSvc, metricsHandler)

	serverCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		log.Info().Str("addr", addr).Msg("fletcher controller starting")
		if err := srv.Run(serverCtx); err != nil {
			log.Error().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down controller")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return 2
	}
	log.Info().Msg("server exited properly")
	return 0
}
