package kafka

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/skotsonis/paperflow/pkg/idempotency"
	"github.com/skotsonis/paperflow/pkg/outbox"
	"github.com/skotsonis/paperflow/pkg/tracing"
)

// AlertConsumer watches the fulfillment event stream and surfaces
// StockBelowThreshold events as replenishment warnings. It only logs; the
// restock decision itself stays with the fulfillment pipeline.
type AlertConsumer struct {
	log    *slog.Logger
	reader *kafka.Reader
	idem   *idempotency.Store
	tracer trace.Tracer
}

func NewAlertConsumer(log *slog.Logger, brokers []string, topic, group string, idem *idempotency.Store) *AlertConsumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: group,
	})
	return &AlertConsumer{
		log:    log,
		reader: r,
		idem:   idem,
		tracer: otel.Tracer("stock-alerts"),
	}
}

func (c *AlertConsumer) Run(ctx context.Context) error {
	defer c.reader.Close()
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			return err
		}
		key := c.idem.MessageKey(msg.Topic, msg.Partition, msg.Offset)
		seen, err := c.idem.Seen(ctx, key)
		if err != nil {
			c.log.Error("idempotency check failed", "err", err)
			continue
		}
		if seen {
			_ = c.reader.CommitMessages(ctx, msg)
			continue
		}

		if headerValue(msg.Headers, "event_type") != outbox.TypeStockBelowThreshold {
			_ = c.reader.CommitMessages(ctx, msg)
			continue
		}

		msgCtx := tracing.ExtractKafkaHeaders(ctx, msg.Headers)
		_, span := c.tracer.Start(msgCtx, "ConsumeStockBelowThreshold")

		var ev struct {
			ItemID    string `json:"item_id"`
			OnHand    int    `json:"on_hand"`
			Threshold int    `json:"threshold"`
		}
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			c.log.Error("unmarshal failed", "err", err)
			span.End()
			_ = c.reader.CommitMessages(ctx, msg)
			continue
		}

		c.log.Warn("stock below threshold",
			"item_id", ev.ItemID,
			"on_hand", ev.OnHand,
			"threshold", ev.Threshold)
		span.End()
		_ = c.reader.CommitMessages(ctx, msg)
	}
}

func headerValue(h []kafka.Header, key string) string {
	for _, hh := range h {
		if hh.Key == key {
			return string(hh.Value)
		}
	}
	return ""
}
