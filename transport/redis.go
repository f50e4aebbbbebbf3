package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"mdsync/config"
)

const defaultTimeout = 5 * time.Second

// Redis relays events over Redis pub/sub channels. Redis echoes messages
// to the publisher, receivers filter them by origin.
type Redis struct {
	log     *zap.Logger
	rdb     *redis.Client
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
	subs    []*redis.PubSub
}

// NewRedis connects to server and checks it is reachable.
func NewRedis(ctx context.Context, cfg *config.RedisConfig, timeout time.Duration, log *zap.Logger) (*Redis, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Username:    cfg.Username,
		Password:    string(cfg.Password),
		DB:          cfg.DB,
		DialTimeout: timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, multierr.Append(fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err), rdb.Close())
	}

	r := &Redis{
		log:     log.Named("redis"),
		rdb:     rdb,
		timeout: timeout,
	}
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.log.Debug("Connected", zap.String("addr", cfg.Addr))
	return r, nil
}

// Send publishes payload to channel named after event.
func (r *Redis) Send(event string, payload []byte) error {
	ctx, cancel := context.WithTimeout(r.ctx, r.timeout)
	defer cancel()
	if err := r.rdb.Publish(ctx, event, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to %q: %w", event, err)
	}
	return nil
}

// Subscribe delivers messages of the channel to handler. Returns after
// server confirmed subscription.
func (r *Redis) Subscribe(event string, handler func([]byte)) (func(), error) {
	ps := r.rdb.Subscribe(r.ctx, event)

	ctx, cancel := context.WithTimeout(r.ctx, r.timeout)
	defer cancel()
	if _, err := ps.Receive(ctx); err != nil {
		return nil, multierr.Append(fmt.Errorf("failed to subscribe to %q: %w", event, err), ps.Close())
	}
	r.subs = append(r.subs, ps)

	go func() {
		for msg := range ps.Channel() {
			handler([]byte(msg.Payload))
		}
	}()
	return func() {
		if err := ps.Close(); err != nil {
			r.log.Debug("Unsubscribe failed", zap.String("channel", event), zap.Error(err))
		}
	}, nil
}

// Close closes subscriptions and client.
func (r *Redis) Close() error {
	r.cancel()
	for _, ps := range r.subs {
		// already unsubscribed ones report error which is of no interest
		_ = ps.Close()
	}
	return r.rdb.Close()
}
