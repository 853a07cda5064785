package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// RedisConfig configures a RedisBroker.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// RedisBroker carries events over a Redis pub/sub channel so that several
// processes share one change stream.
type RedisBroker struct {
	client  *redis.Client
	channel string
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(ctx context.Context, cfg RedisConfig) (*RedisBroker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close() //nolint:errcheck
		return nil, eris.Wrapf(err, "notify: ping redis %s", cfg.Addr)
	}
	return NewRedisWithClient(client, cfg.Channel), nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client, channel string) *RedisBroker {
	return &RedisBroker{client: client, channel: channel}
}

// Publish encodes e as JSON and publishes it on the broker channel.
func (b *RedisBroker) Publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return eris.Wrap(err, "notify: marshal event")
	}
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		return eris.Wrapf(err, "notify: publish to %s", b.channel)
	}
	return nil
}

// Subscribe listens on the broker channel until ctx is done. Messages that
// do not decode as events are logged and skipped.
func (b *RedisBroker) Subscribe(ctx context.Context) (<-chan Event, error) {
	ps := b.client.Subscribe(ctx, b.channel)
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close() //nolint:errcheck
		return nil, eris.Wrapf(err, "notify: subscribe to %s", b.channel)
	}

	out := make(chan Event, defaultBuffer)
	go func() {
		defer close(out)
		defer ps.Close() //nolint:errcheck
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var e Event
				if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
					zap.L().Warn("notify: discarding malformed event",
						zap.String("channel", msg.Channel),
						zap.Error(err),
					)
					continue
				}
				select {
				case out <- e:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Close releases the Redis client.
func (b *RedisBroker) Close() error {
	return eris.Wrap(b.client.Close(), "notify: close redis")
}
