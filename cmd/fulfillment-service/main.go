package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/skotsonis/paperflow/pkg/idempotency"
	"github.com/skotsonis/paperflow/pkg/keylock"
	"github.com/skotsonis/paperflow/pkg/logging"
	"github.com/skotsonis/paperflow/pkg/outbox"
	"github.com/skotsonis/paperflow/pkg/shutdown"
	"github.com/skotsonis/paperflow/pkg/tracing"

	catalogapp "github.com/skotsonis/paperflow/internal/catalog/application"
	catalogdomain "github.com/skotsonis/paperflow/internal/catalog/domain"
	"github.com/skotsonis/paperflow/internal/catalog/infrastructure/classifier"
	"github.com/skotsonis/paperflow/internal/catalog/infrastructure/lookup"
	"github.com/skotsonis/paperflow/internal/config"
	fulfillmentapp "github.com/skotsonis/paperflow/internal/fulfillment/application"
	fulfillmenthttp "github.com/skotsonis/paperflow/internal/fulfillment/infrastructure/http"
	inventoryapp "github.com/skotsonis/paperflow/internal/inventory/application"
	inventorypg "github.com/skotsonis/paperflow/internal/inventory/infrastructure/postgres"
	ledgerapp "github.com/skotsonis/paperflow/internal/ledger/application"
	ledgerpg "github.com/skotsonis/paperflow/internal/ledger/infrastructure/postgres"
	quoteapp "github.com/skotsonis/paperflow/internal/quote/application"
)

func main() {
	log := logging.New()

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Error("config load failed", "err", err)
		os.Exit(1)
	}

	tp, err := tracing.Init(ctx, "fulfillment-service", cfg.OTLPEndpoint, log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	// Postgres
	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		log.Error("pg connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := ledgerpg.Migrate(ctx, pool); err != nil {
		log.Error("migrate failed", "err", err)
		os.Exit(1)
	}

	catalog := catalogdomain.Seed()
	initialCash, err := decimal.NewFromString(cfg.InitialCash)
	if err != nil {
		log.Error("bad initial_cash", "value", cfg.InitialCash, "err", err)
		os.Exit(1)
	}
	if err := ledgerpg.Seed(ctx, pool, catalog, initialCash, cfg.InitialLots); err != nil {
		log.Error("seed failed", "err", err)
		os.Exit(1)
	}

	// Redis idempotency
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	idem := idempotency.NewStore(rdb, 24*time.Hour)

	// Kafka outbox relay
	writer := outbox.NewWriter(cfg.KafkaBrokers)
	defer writer.Close()
	outboxStore := ledgerpg.NewOutboxStore(log, pool)
	dispatch := outbox.NewDispatcher(log, writer, cfg.OutboxTopic)
	relay := outbox.NewRelay(log, outboxStore, dispatch, "fulfillment-relay-"+uuid.NewString())

	// Services
	var resolver catalogapp.Resolver = lookup.NewResolver()
	if cfg.ResolverURL != "" {
		resolver = classifier.NewClient(log, cfg.ResolverURL)
	}

	stockRepo := inventorypg.NewRepository(log, pool)
	ledgerRepo := ledgerpg.NewRepository(log, pool)

	inventory := inventoryapp.NewService(log, stockRepo, cfg.MaxRestockLots)
	quotes := quoteapp.NewDefaultEngine(log, ledgerRepo)
	ledger := ledgerapp.NewService(log, ledgerRepo)

	orchestrator := fulfillmentapp.NewOrchestrator(
		log, catalog, resolver, inventory, quotes, ledger, keylock.New(),
		fulfillmentapp.WithResolveAttempts(cfg.ResolveAttempts),
	)

	handler := fulfillmenthttp.NewHandler(log, orchestrator, inventory, ledger, idem)

	r := chi.NewRouter()
	r.Mount("/", handler.Routes())
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := relay.Run(ctx); err != nil {
			log.Error("relay stopped with error", "err", err)
		}
	}()

	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	log.Info("fulfillment-service shutdown complete")
}
