package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/skaldic/muse/internal/agent"
	"go.uber.org/zap"
)

// DefaultStream is the Redis stream records land on unless configured
// otherwise.
const DefaultStream = "muse:analyses"

// RedisStream appends records to a Redis stream for downstream
// consumers.
type RedisStream struct {
	rdb    *redis.Client
	stream string
	logger *zap.Logger
}

// NewRedisStream connects to Redis and targets the given stream.
func NewRedisStream(ctx context.Context, redisURL, stream string, logger *zap.Logger) (*RedisStream, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	if stream == "" {
		stream = DefaultStream
	}
	logger.Info("redis sink connected", zap.String("stream", stream))
	return &RedisStream{rdb: rdb, stream: stream, logger: logger}, nil
}

// Accept appends the record as a stream entry.
func (s *RedisStream) Accept(ctx context.Context, rec *agent.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	_, err = s.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]interface{}{
			"record": string(data),
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", s.stream, err)
	}
	return nil
}

// Close shuts down the client.
func (s *RedisStream) Close() error {
	return s.rdb.Close()
}
