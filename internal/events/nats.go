package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// ErrBrokerUnavailable is returned by NATSPublisher.Publish when the
// connection is not established, so the message could not reach the broker.
var ErrBrokerUnavailable = errors.New("nats broker unavailable")

// defaultFlushTimeout bounds the round trip to the broker when the caller's
// context carries no deadline.
const defaultFlushTimeout = 2 * time.Second

// NATSPublisher publishes JSON events on NATS subjects. Publish returns only
// after the broker has acknowledged the connection's pending writes, so a
// nil error means the event left the process.
type NATSPublisher struct {
	conn         *nats.Conn
	flushTimeout time.Duration
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("qube-publisher"))
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return &NATSPublisher{conn: nc, flushTimeout: defaultFlushTimeout}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, topic string, event any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	if st := p.conn.Status(); st != nats.CONNECTED {
		return fmt.Errorf("publishing to %s: %w (%s)", topic, ErrBrokerUnavailable, st)
	}
	if err := p.conn.Publish(topic, data); err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.flushTimeout)
		defer cancel()
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flushing %s: %w", topic, err)
	}
	return nil
}

func (p *NATSPublisher) Close() error {
	p.conn.Close()
	return nil
}

// NATSSubscriber streams events from NATS subjects. The connection
// reconnects forever; watchers outlive broker restarts.
type NATSSubscriber struct {
	conn *nats.Conn
}

// NewNATSSubscriber connects with unlimited reconnects. Extra options such
// as disconnect or reconnect handlers are applied after the defaults.
func NewNATSSubscriber(url string, opts ...nats.Option) (*NATSSubscriber, error) {
	all := append([]nats.Option{
		nats.Name("qube-subscriber"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	}, opts...)
	nc, err := nats.Connect(url, all...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return &NATSSubscriber{conn: nc}, nil
}

// subscription forwards payloads of one NATS subscription to a buffered
// channel. Payloads that arrive while the buffer is full are dropped.
type subscription struct {
	sub    *nats.Subscription
	out    chan []byte
	mu     sync.Mutex
	closed bool
	once   sync.Once
}

func (s *subscription) deliver(msg *nats.Msg) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.out <- msg.Data:
	default:
	}
}

func (s *subscription) cancel() {
	s.once.Do(func() {
		if s.sub != nil {
			_ = s.sub.Unsubscribe()
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		s.closed = true
		// Undelivered payloads are discarded so a canceled reader sees
		// the channel closed immediately.
		for len(s.out) > 0 {
			<-s.out
		}
		close(s.out)
	})
}

// Subscribe delivers payloads for topic, which may use NATS wildcards such
// as "qube.>". The returned cancel function unsubscribes and closes the
// channel; it is safe to call more than once.
func (s *NATSSubscriber) Subscribe(topic string) (<-chan []byte, func(), error) {
	sn := &subscription{out: make(chan []byte, 64)}

	sub, err := s.conn.Subscribe(topic, sn.deliver)
	if err != nil {
		sn.cancel()
		return nil, nil, fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	sn.sub = sub

	// The subscription must be registered server-side before events
	// published from other connections are routed to it.
	if err := s.conn.Flush(); err != nil {
		sn.cancel()
		return nil, nil, fmt.Errorf("flushing subscription to %s: %w", topic, err)
	}
	return sn.out, sn.cancel, nil
}

func (s *NATSSubscriber) Close() error {
	s.conn.Close()
	return nil
}
