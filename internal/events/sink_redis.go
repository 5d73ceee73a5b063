package events

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisSink RPUSHes each event's JSON encoding onto a fixed list key —
// the "queue-list" pattern spec.md §4.9 names. Grounded on the client
// construction/pipeline idiom in
// internal/adapters/driven/queue/redis/queue.go, simplified to a single
// RPUSH since there is no consumer-group/ack protocol here.
type RedisSink struct {
	client *redis.Client
	list   string
}

func NewRedisSink(url, list string) (*RedisSink, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	return &RedisSink{client: redis.NewClient(opt), list: list}, nil
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) Emit(ctx context.Context, payload map[string]any) error {
	b, err := marshal(payload)
	if err != nil {
		return err
	}
	return s.client.RPush(ctx, s.list, b).Err()
}
