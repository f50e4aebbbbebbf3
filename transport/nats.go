package transport

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"mdsync/config"
	"mdsync/misc"
)

// NATS relays events over core NATS subjects. Own messages are not echoed
// back.
type NATS struct {
	log *zap.Logger
	nc  *nats.Conn
}

// NewNATS connects to server.
func NewNATS(cfg *config.NATSConfig, timeout time.Duration, log *zap.Logger) (*NATS, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("nats")

	opts := []nats.Option{
		nats.Name(misc.GetAppName()),
		nats.NoEcho(),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("Disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("Reconnected", zap.String("url", nc.ConnectedUrlRedacted()))
		}),
	}
	if timeout > 0 {
		opts = append(opts, nats.Timeout(timeout))
	}
	if cfg.User != "" {
		opts = append(opts, nats.UserInfo(cfg.User, string(cfg.Password)))
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(string(cfg.Token)))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	log.Debug("Connected", zap.String("url", cfg.URL))
	return &NATS{log: log, nc: nc}, nil
}

// Send publishes payload to subject named after event.
func (n *NATS) Send(event string, payload []byte) error {
	if err := n.nc.Publish(event, payload); err != nil {
		return fmt.Errorf("failed to publish to %q: %w", event, err)
	}
	return nil
}

// Subscribe delivers messages of the subject to handler.
func (n *NATS) Subscribe(event string, handler func([]byte)) (func(), error) {
	sub, err := n.nc.Subscribe(event, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %q: %w", event, err)
	}
	return func() {
		if err := sub.Unsubscribe(); err != nil {
			n.log.Debug("Unsubscribe failed", zap.String("subject", event), zap.Error(err))
		}
	}, nil
}

// Close drains subscriptions and closes connection.
func (n *NATS) Close() error {
	if err := n.nc.Drain(); err != nil {
		n.nc.Close()
		return fmt.Errorf("failed to drain NATS connection: %w", err)
	}
	return nil
}
