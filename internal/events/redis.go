package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Channel is the Redis pub/sub channel routing layers listen on.
const Channel = "domains:changes"

// RedisPublisher publishes events as JSON to a Redis channel.
type RedisPublisher struct {
	client       *redis.Client
	relayBackoff time.Duration
}

func NewRedisPublisher(addr, password string, db int) *RedisPublisher {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisPublisher{client: rdb, relayBackoff: 250 * time.Millisecond}
}

func (r *RedisPublisher) Publish(ctx context.Context, event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	if err := r.client.Publish(ctx, Channel, payload).Err(); err != nil {
		return fmt.Errorf("publishing to %s: %w", Channel, err)
	}
	return nil
}

// Subscribe returns a subscription to the change channel.
func (r *RedisPublisher) Subscribe(ctx context.Context) *redis.PubSub {
	return r.client.Subscribe(ctx, Channel)
}

func (r *RedisPublisher) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisPublisher) Close() error {
	return r.client.Close()
}
