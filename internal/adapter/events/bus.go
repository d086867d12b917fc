// internal/adapter/events/bus.go

package events

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"fashionpulse/pkg/logger"
)

// Bus is a subject-based publish/subscribe transport
type Bus interface {
	Publish(subject string, data []byte) error

	// Subscribe registers handler for subject, which may use the * and >
	// wildcards. The returned func removes the subscription.
	Subscribe(subject string, handler func(data []byte)) (func(), error)
}

// NATSConfig contains configuration for the NATS connection
type NATSConfig struct {
	URL            string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectTimeout time.Duration
}

// NATSBus is a Bus backed by a NATS connection
type NATSBus struct {
	conn *nats.Conn
}

// Connect opens a NATS connection
func Connect(cfg NATSConfig) (*NATSBus, error) {
	log := logger.Get().With("component", "nats")

	options := []nats.Option{
		nats.Name("fashionpulse"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warnw("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Infow("NATS reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Info("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS: %w", err)
	}

	return &NATSBus{conn: nc}, nil
}

// Publish sends data on subject
func (b *NATSBus) Publish(subject string, data []byte) error {
	if err := b.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("error publishing to %s: %w", subject, err)
	}
	return nil
}

// Subscribe registers handler for subject
func (b *NATSBus) Subscribe(subject string, handler func(data []byte)) (func(), error) {
	sub, err := b.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("error subscribing to %s: %w", subject, err)
	}

	return func() { _ = sub.Unsubscribe() }, nil
}

// Close drains and closes the connection
func (b *NATSBus) Close() {
	if err := b.conn.Drain(); err != nil {
		b.conn.Close()
	}
}

// LocalBus is an in-process Bus used when no NATS server is configured
type LocalBus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]localSub
}

type localSub struct {
	subject string
	handler func(data []byte)
}

// NewLocalBus creates an in-process bus
func NewLocalBus() *LocalBus {
	return &LocalBus{subs: make(map[int]localSub)}
}

// Publish delivers data synchronously to every matching subscriber
func (b *LocalBus) Publish(subject string, data []byte) error {
	b.mu.RLock()
	var handlers []func([]byte)
	for _, s := range b.subs {
		if MatchSubject(s.subject, subject) {
			handlers = append(handlers, s.handler)
		}
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(data)
	}
	return nil
}

// Subscribe registers handler for subject
func (b *LocalBus) Subscribe(subject string, handler func(data []byte)) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subs[id] = localSub{subject: subject, handler: handler}

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}, nil
}

// MatchSubject reports whether subject matches pattern using NATS token rules
func MatchSubject(pattern, subject string) bool {
	pt := strings.Split(pattern, ".")
	st := strings.Split(subject, ".")

	for i, p := range pt {
		if p == ">" {
			return len(st) > i
		}
		if i >= len(st) {
			return false
		}
		if p != "*" && p != st[i] {
			return false
		}
	}

	return len(pt) == len(st)
}
