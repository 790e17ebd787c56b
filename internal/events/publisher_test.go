package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRedisClient is a mock for the Redis client
type MockRedisClient struct {
	mock.Mock
}

func (m *MockRedisClient) XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd {
	mockArgs := m.Called(ctx, args)
	cmd := redis.NewStringCmd(ctx)
	if mockArgs.Get(0) != nil {
		cmd.SetErr(mockArgs.Error(0))
	} else {
		cmd.SetVal("1234567890-0")
	}
	return cmd
}

func (m *MockRedisClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

func TestPublishObservation(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	event := PriceObservationRecorded{
		ObservationID:      42,
		ArticleCode:        "0714790001",
		Region:             "tr",
		PriceOriginal:      299.99,
		Currency:           "TRY",
		PriceInUSD:         8.4,
		DiscountPercentage: 0,
		ObservedAt:         time.Now().UTC(),
	}

	t.Run("publishes to the configured stream", func(t *testing.T) {
		mockRedis := new(MockRedisClient)
		mockRedis.On("XAdd", ctx, mock.MatchedBy(func(args *redis.XAddArgs) bool {
			if args.Stream != "stream:price_observations" {
				return false
			}
			values := args.Values.(map[string]interface{})
			if values["event_type"] != TypePriceObservationRecorded {
				return false
			}
			if values["article_code"] != "0714790001" || values["region"] != "tr" {
				return false
			}

			var payload PriceObservationRecorded
			if err := json.Unmarshal([]byte(values["payload"].(string)), &payload); err != nil {
				return false
			}
			return payload.ObservationID == 42 && payload.PriceInUSD == 8.4
		})).Return(nil)

		p := NewPublisher(mockRedis, "", logger)

		err := p.PublishObservation(ctx, event)
		require.NoError(t, err)
		mockRedis.AssertExpectations(t)
	})

	t.Run("each event gets a fresh event id", func(t *testing.T) {
		mockRedis := new(MockRedisClient)
		var seen []string
		mockRedis.On("XAdd", ctx, mock.Anything).Run(func(args mock.Arguments) {
			values := args.Get(1).(*redis.XAddArgs).Values.(map[string]interface{})
			seen = append(seen, values["event_id"].(string))
		}).Return(nil)

		p := NewPublisher(mockRedis, "stream:test", logger)

		require.NoError(t, p.PublishObservation(ctx, event))
		require.NoError(t, p.PublishObservation(ctx, event))

		require.Len(t, seen, 2)
		assert.NotEqual(t, seen[0], seen[1])
	})

	t.Run("redis failure surfaces as an error", func(t *testing.T) {
		mockRedis := new(MockRedisClient)
		mockRedis.On("XAdd", ctx, mock.Anything).Return(errors.New("connection refused"))

		p := NewPublisher(mockRedis, "stream:test", logger)

		err := p.PublishObservation(ctx, event)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "stream:test")
	})
}
