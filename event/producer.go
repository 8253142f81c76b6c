// Package event publishes cart analytics events to Kafka. Publication is
// best-effort: a broker outage must never break a cart operation, so callers
// log publish errors and move on.
package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/utafrali/storefront-go/api"
)

// Kafka topics for cart analytics events.
const (
	TopicCartUpdated = "storefront.cart.updated"
	TopicCartCleared = "storefront.cart.cleared"
)

// ProducerConfig holds Kafka producer configuration.
type ProducerConfig struct {
	Brokers      []string
	BatchSize    int
	BatchTimeout time.Duration
	Async        bool
}

// DefaultProducerConfig returns sensible defaults for the event producer.
func DefaultProducerConfig(brokers []string) ProducerConfig {
	return ProducerConfig{
		Brokers:      brokers,
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		Async:        false,
	}
}

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	Items     []CartLineData `json:"items"`
	ItemCount int            `json:"item_count"`
	Total     int64          `json:"total"`
}

// CartLineData is one line within cart event payloads.
type CartLineData struct {
	ProductID int64 `json:"product_id"`
	Price     int64 `json:"price"`
	Quantity  int   `json:"quantity"`
}

// CartClearedData is the payload for a cart.cleared event.
type CartClearedData struct {
	CartToken string `json:"cart_token"`
}

// Producer publishes cart events to Kafka.
type Producer struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// NewProducer creates a Kafka-backed event producer.
func NewProducer(cfg ProducerConfig, logger *slog.Logger) *Producer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		Async:        cfg.Async,
		RequiredAcks: kafka.RequireOne,
	}

	return &Producer{writer: w, logger: logger}
}

// CartUpdated publishes a cart.updated event with the new server-confirmed
// cart contents.
func (p *Producer) CartUpdated(ctx context.Context, cartToken string, items []api.CartItem, total int64) error {
	lines := make([]CartLineData, len(items))
	for i, item := range items {
		lines[i] = CartLineData{
			ProductID: item.ProductID,
			Price:     item.Product.SellPrice,
			Quantity:  item.Quantity,
		}
	}

	data := CartUpdatedData{
		Items:     lines,
		ItemCount: countItems(items),
		Total:     total,
	}

	return p.publish(ctx, TopicCartUpdated, cartToken, data)
}

// CartCleared publishes a cart.cleared event.
func (p *Producer) CartCleared(ctx context.Context, cartToken string) error {
	return p.publish(ctx, TopicCartCleared, cartToken, CartClearedData{CartToken: cartToken})
}

// publish wraps the payload in the standard envelope and writes it.
func (p *Producer) publish(ctx context.Context, topic, cartToken string, data any) error {
	env, err := NewEnvelope(topic, cartToken, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	raw, err := env.Marshal()
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(cartToken),
		Value: raw,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(topic)},
			{Key: "source", Value: []byte(env.Source)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish event to %s: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "event published",
		slog.String("topic", topic),
		slog.String("aggregate_id", cartToken),
	)
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}

func countItems(items []api.CartItem) int {
	var n int
	for _, item := range items {
		n += item.Quantity
	}
	return n
}
