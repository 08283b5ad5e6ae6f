package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jalshrestha/Outfit/internal/models"
	"github.com/redis/go-redis/v9"
)

// EventType represents the type of event
type EventType string

const (
	// EventTypeTrendingRefreshed is published after every refresh run
	EventTypeTrendingRefreshed EventType = "TRENDING_REFRESHED"

	DefaultStream = "stream:trending_refresh"
	defaultMaxLen = 1000
)

// RedisClient interface for Redis operations (for testing)
type RedisClient interface {
	XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd
	Close() error
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Stream   string
}

// Connect opens a client and checks that the server answers.
func Connect(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	return client, nil
}

// RedisPublisher appends refresh runs to a redis stream.
type RedisPublisher struct {
	client RedisClient
	stream string
	maxLen int64
	logger *slog.Logger
}

func NewRedisPublisher(client RedisClient, stream string) *RedisPublisher {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisPublisher{
		client: client,
		stream: stream,
		maxLen: defaultMaxLen,
		logger: slog.Default().With("component", "event_publisher"),
	}
}

func (p *RedisPublisher) PublishRefresh(ctx context.Context, run models.RefreshRun) error {
	eventID := uuid.New()
	now := time.Now().UTC()

	envelope := map[string]interface{}{
		"id":        eventID.String(),
		"type":      string(EventTypeTrendingRefreshed),
		"timestamp": now.Format(time.RFC3339),
		"payload":   run,
		"metadata": map[string]interface{}{
			"source":  "outfit-trends",
			"run_id":  run.ID.String(),
			"trigger": run.Trigger,
		},
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"data":       string(data),
			"type":       string(EventTypeTrendingRefreshed),
			"timestamp":  fmt.Sprintf("%d", now.UnixNano()),
			"event_id":   eventID.String(),
			"run_id":     run.ID.String(),
			"source":     string(run.Source),
			"items":      run.ItemsRefreshed,
			"event_type": string(EventTypeTrendingRefreshed),
		},
	}

	streamID, err := p.client.XAdd(ctx, args).Result()
	if err != nil {
		return fmt.Errorf("failed to publish to redis: %w", err)
	}

	p.logger.Info("refresh event published",
		"event_id", eventID,
		"run_id", run.ID,
		"stream", p.stream,
		"stream_id", streamID)

	return nil
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
