package main

import (
	"context"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/skotsonis/paperflow/internal/config"
	inventorykafka "github.com/skotsonis/paperflow/internal/inventory/infrastructure/kafka"
	"github.com/skotsonis/paperflow/pkg/idempotency"
	"github.com/skotsonis/paperflow/pkg/logging"
	"github.com/skotsonis/paperflow/pkg/shutdown"
	"github.com/skotsonis/paperflow/pkg/tracing"
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

	tp, err := tracing.Init(ctx, "stock-alerts", cfg.OTLPEndpoint, log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	idem := idempotency.NewStore(rdb, 24*time.Hour)

	consumer := inventorykafka.NewAlertConsumer(log, cfg.KafkaBrokers, cfg.OutboxTopic, "stock-alerts", idem)

	go func() {
		if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error("consumer stopped with error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("stock-alerts shutdown complete")
}
