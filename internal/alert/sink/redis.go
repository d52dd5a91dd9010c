package sink

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/go-sod/sensord/internal/alert/model"
)

// redisSink publishes alerts on a pub/sub channel.
type redisSink struct {
	name    string
	channel string
	client  *redis.Client
}

// NewRedis accepts a redis:// URL.
func NewRedis(name, rawURL, channel string) (*redisSink, error) {
	if channel == "" {
		return nil, fmt.Errorf("redis sink %s: channel is required", name)
	}
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("redis sink %s: %w", name, err)
	}
	return &redisSink{name: name, channel: channel, client: redis.NewClient(opts)}, nil
}

func (s *redisSink) Name() string { return s.name }

func (s *redisSink) Send(ctx context.Context, a model.Alert) error {
	payload, err := a.Payload()
	if err != nil {
		return fmt.Errorf("unable encode json data: %w", err)
	}
	if err := s.client.Publish(ctx, s.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish to %s: %w", s.channel, err)
	}
	return nil
}

func (s *redisSink) Close() error {
	return s.client.Close()
}
