package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jalshrestha/Outfit/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRedisClient is a mock for Redis client
type MockRedisClient struct {
	mock.Mock
}

func (m *MockRedisClient) XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd {
	mockArgs := m.Called(ctx, args)
	cmd := redis.NewStringCmd(ctx)
	if mockArgs.Get(0) != nil {
		cmd.SetErr(mockArgs.Error(0))
	} else {
		cmd.SetVal("1234567890-0") // Mock stream ID
	}
	return cmd
}

func (m *MockRedisClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

func testRun() models.RefreshRun {
	started := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	return models.RefreshRun{
		ID:             uuid.New(),
		Source:         models.SourceAll,
		Trigger:        models.TriggerScheduler,
		ItemsRefreshed: 30,
		PerSource:      map[string]int{"pinterest": 10, "hollister": 10, "hm": 10},
		StartedAt:      started,
		FinishedAt:     started.Add(40 * time.Second),
	}
}

func TestRedisPublisher_PublishRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("successfully publish refresh event", func(t *testing.T) {
		mockRedis := new(MockRedisClient)
		publisher := NewRedisPublisher(mockRedis, "")
		run := testRun()

		var captured *redis.XAddArgs
		mockRedis.On("XAdd", ctx, mock.MatchedBy(func(args *redis.XAddArgs) bool {
			return args.Stream == DefaultStream &&
				args.Approx &&
				args.Values.(map[string]interface{})["run_id"] == run.ID.String()
		})).Run(func(args mock.Arguments) {
			captured = args.Get(1).(*redis.XAddArgs)
		}).Return(nil)

		require.NoError(t, publisher.PublishRefresh(ctx, run))
		mockRedis.AssertExpectations(t)

		values := captured.Values.(map[string]interface{})
		assert.Equal(t, string(EventTypeTrendingRefreshed), values["event_type"])
		assert.Equal(t, "all", values["source"])
		assert.Equal(t, 30, values["items"])

		var envelope struct {
			ID      string            `json:"id"`
			Type    string            `json:"type"`
			Payload models.RefreshRun `json:"payload"`
		}
		require.NoError(t, json.Unmarshal([]byte(values["data"].(string)), &envelope))
		assert.Equal(t, values["event_id"], envelope.ID)
		assert.Equal(t, string(EventTypeTrendingRefreshed), envelope.Type)
		assert.Equal(t, run.ID, envelope.Payload.ID)
		assert.Equal(t, 10, envelope.Payload.PerSource["hm"])
	})

	t.Run("handle Redis publish failure", func(t *testing.T) {
		mockRedis := new(MockRedisClient)
		publisher := NewRedisPublisher(mockRedis, "stream:custom")

		mockRedis.On("XAdd", ctx, mock.MatchedBy(func(args *redis.XAddArgs) bool {
			return args.Stream == "stream:custom"
		})).Return(errors.New("redis connection failed"))

		err := publisher.PublishRefresh(ctx, testRun())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to publish to redis")
		mockRedis.AssertExpectations(t)
	})
}

func TestRedisPublisher_Close(t *testing.T) {
	mockRedis := new(MockRedisClient)
	mockRedis.On("Close").Return(nil)

	publisher := NewRedisPublisher(mockRedis, "")
	assert.NoError(t, publisher.Close())
	mockRedis.AssertExpectations(t)
}
