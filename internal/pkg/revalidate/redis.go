package revalidate

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Redis publishes signals on a pub/sub channel so every API instance and any
// external cache can react.
type Redis struct {
	client  *redis.Client
	channel string
}

// NewRedis connects to redisURL and checks the connection
func NewRedis(ctx context.Context, redisURL, channel string) (*Redis, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &Redis{client: client, channel: channel}, nil
}

// NewRedisWithClient wraps an existing client
func NewRedisWithClient(client *redis.Client, channel string) *Redis {
	return &Redis{client: client, channel: channel}
}

func (r *Redis) PathStale(ctx context.Context, path string) error {
	if err := r.client.Publish(ctx, r.channel, path).Err(); err != nil {
		return fmt.Errorf("publish revalidation: %w", err)
	}
	return nil
}

// Relay forwards every path published on the channel to sink until ctx is
// done. It is how signals raised on one instance reach the websocket clients
// of all instances.
func (r *Redis) Relay(ctx context.Context, sink Notifier, logger zerolog.Logger) {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := sink.PathStale(ctx, msg.Payload); err != nil {
				logger.Warn().Err(err).Str("path", msg.Payload).Msg("Failed to relay revalidation")
			}
		}
	}
}

// Close releases the client
func (r *Redis) Close() error {
	return r.client.Close()
}
