package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const TypePriceObservationRecorded = "PRICE_OBSERVATION_RECORDED"

// RedisClient covers the Redis operations the publisher needs (for testing)
type RedisClient interface {
	XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd
	Close() error
}

// PriceObservationRecorded is the payload emitted after an observation is
// persisted. Downstream consumers (alerting, dashboard refresh) read it from
// the stream.
type PriceObservationRecorded struct {
	ObservationID      int64     `json:"observation_id"`
	ArticleCode        string    `json:"article_code"`
	Region             string    `json:"region"`
	PriceOriginal      float64   `json:"price_original"`
	Currency           string    `json:"currency"`
	PriceInUSD         float64   `json:"price_in_usd"`
	DiscountPercentage float64   `json:"discount_percentage"`
	ObservedAt         time.Time `json:"observed_at"`
}

// Publisher writes observation events to a Redis stream. Publishing is best
// effort: the observation is already durable in Postgres before the event is
// emitted, so a failed publish is logged and dropped rather than retried.
type Publisher struct {
	redis  RedisClient
	stream string
	logger *slog.Logger
}

func NewPublisher(client RedisClient, stream string, logger *slog.Logger) *Publisher {
	if stream == "" {
		stream = "stream:price_observations"
	}
	return &Publisher{
		redis:  client,
		stream: stream,
		logger: logger.With("component", "event_publisher"),
	}
}

// PublishObservation emits a PRICE_OBSERVATION_RECORDED event.
func (p *Publisher) PublishObservation(ctx context.Context, event PriceObservationRecorded) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	values := map[string]interface{}{
		"event_id":     uuid.New().String(),
		"event_type":   TypePriceObservationRecorded,
		"article_code": event.ArticleCode,
		"region":       event.Region,
		"payload":      string(payload),
		"published_at": time.Now().UTC().Format(time.RFC3339),
	}

	if err := p.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: values,
	}).Err(); err != nil {
		return fmt.Errorf("failed to publish to stream %s: %w", p.stream, err)
	}

	p.logger.Debug("published observation event",
		"article_code", event.ArticleCode,
		"region", event.Region)

	return nil
}

func (p *Publisher) Close() error {
	return p.redis.Close()
}
