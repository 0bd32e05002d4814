package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Ensure RedisBroker implements Broker
var _ Broker = (*RedisBroker)(nil)

// DefaultChannelPrefix namespaces pub/sub channels on a shared server.
const DefaultChannelPrefix = "familysync:"

// RedisBroker fans notifications out across server instances over Redis
// pub/sub.
type RedisBroker struct {
	client *redis.Client
	prefix string
}

// RedisOption configures a RedisBroker.
type RedisOption func(*RedisBroker)

// WithChannelPrefix overrides DefaultChannelPrefix.
func WithChannelPrefix(prefix string) RedisOption {
	return func(b *RedisBroker) { b.prefix = prefix }
}

// NewRedisBroker wraps an existing client. The broker owns the client and
// closes it on Close.
func NewRedisBroker(client *redis.Client, opts ...RedisOption) *RedisBroker {
	b := &RedisBroker{client: client, prefix: DefaultChannelPrefix}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// DialRedis parses a redis:// URL, pings the server and returns a broker.
func DialRedis(ctx context.Context, url string, opts ...RedisOption) (*RedisBroker, error) {
	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(redisOpts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewRedisBroker(client, opts...), nil
}

// Publish sends an empty message on the topic channel.
func (b *RedisBroker) Publish(ctx context.Context, topic string) error {
	if err := b.client.Publish(ctx, b.prefix+topic, "").Err(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Subscribe opens a dedicated pub/sub connection and waits for the server to
// confirm the subscription before returning.
func (b *RedisBroker) Subscribe(ctx context.Context, topic string) (Subscription, error) {
	pubsub := b.client.Subscribe(ctx, b.prefix+topic)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}

	sub := &redisSubscription{
		pubsub: pubsub,
		ch:     make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go sub.forward()
	return sub, nil
}

// Health pings the server.
func (b *RedisBroker) Health(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (b *RedisBroker) Close() error {
	return b.client.Close()
}

type redisSubscription struct {
	pubsub *redis.PubSub
	ch     chan struct{}
	done   chan struct{}
	once   sync.Once
}

func (s *redisSubscription) forward() {
	defer close(s.done)
	// Channel is closed by go-redis once pubsub.Close returns.
	forwardSignals(s.pubsub.ChannelWithSubscriptions(), s.ch)
}

// forwardSignals turns pub/sub traffic into change signals. go-redis
// reconnects a dropped pub/sub connection on its own and resubscribes, and
// anything published in between is lost. The resubscribe confirmation is
// therefore forwarded as a signal too, so the subscriber reloads.
func forwardSignals(in <-chan any, out chan struct{}) {
	for msg := range in {
		switch m := msg.(type) {
		case *redis.Message:
			signal(out)
		case *redis.Subscription:
			if m.Kind == "subscribe" {
				slog.Debug("Redis subscription restored", "channel", m.Channel)
				signal(out)
			}
		}
	}
}

func (s *redisSubscription) C() <-chan struct{} { return s.ch }

func (s *redisSubscription) Close() error {
	var err error
	s.once.Do(func() {
		err = s.pubsub.Close()
		<-s.done
	})
	return err
}
