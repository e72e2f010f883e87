package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const maxRelayBackoff = 30 * time.Second

// Relay forwards events received on the Redis channel into broker until ctx
// is done, so watchers on every instance see every instance's changes.
// Until the first subscription succeeds it keeps retrying with backoff;
// after that the subscription reconnects on its own.
func (r *RedisPublisher) Relay(ctx context.Context, broker *Broker, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	pubsub := r.subscribeWithRetry(ctx, logger)
	if pubsub == nil {
		return
	}
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				logger.Warn("dropping malformed domain event", "error", err)
				continue
			}
			broker.Publish(ctx, &event)
		}
	}
}

// subscribeWithRetry returns a confirmed subscription, or nil once ctx is done.
func (r *RedisPublisher) subscribeWithRetry(ctx context.Context, logger *slog.Logger) *redis.PubSub {
	backoff := r.relayBackoff
	for attempt := 1; ; attempt++ {
		pubsub := r.Subscribe(ctx)
		_, err := pubsub.Receive(ctx)
		if err == nil {
			if attempt > 1 {
				logger.Info("redis relay subscribed", "attempts", attempt)
			}
			return pubsub
		}
		pubsub.Close()
		if ctx.Err() != nil {
			return nil
		}

		logger.Warn("redis relay subscribe failed, retrying",
			"error", err,
			"attempt", attempt,
			"backoff", backoff,
		)
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
		backoff = min(backoff*2, maxRelayBackoff)
	}
}
