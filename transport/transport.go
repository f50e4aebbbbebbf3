// Package transport relays content change events between peers.
package transport

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"mdsync/common"
	"mdsync/config"
)

// Bus publishes payloads to named events and delivers payloads published by
// others. Handlers are called on transport goroutines.
type Bus interface {
	Send(event string, payload []byte) error
	Subscribe(event string, handler func(payload []byte)) (unsubscribe func(), err error)
	Close() error
}

// New connects transport selected by configuration. Returns nil bus when
// transport is disabled.
func New(ctx context.Context, cfg *config.TransportConfig, log *zap.Logger) (Bus, error) {
	if log == nil {
		log = zap.NewNop()
	}
	switch cfg.Kind {
	case common.TransportKindNone:
		return nil, nil
	case common.TransportKindMemory:
		return NewMemory(log), nil
	case common.TransportKindNats:
		bus, err := NewNATS(&cfg.NATS, cfg.Timeout, log)
		if err != nil {
			return nil, err
		}
		return bus, nil
	case common.TransportKindRedis:
		bus, err := NewRedis(ctx, &cfg.Redis, cfg.Timeout, log)
		if err != nil {
			return nil, err
		}
		return bus, nil
	default:
		return nil, fmt.Errorf("unsupported transport kind %s", cfg.Kind)
	}
}
