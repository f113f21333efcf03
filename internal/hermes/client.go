package hermes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Client publishes JSON events and delivers raw inbound messages.
type Client interface {
	Publish(subject string, data interface{}) error
	Subscribe(subject string, handler func(subject string, data []byte)) error
	Close()
}

// EventTypeHeader carries the Go type name of a published event.
const EventTypeHeader = "Prioritizer-Event"

// DefaultQueueGroup makes replicas share catalog notifications, so each
// process change is recomputed once per deployment.
const DefaultQueueGroup = "prioritizer"

type Option func(*NATSClient)

// WithQueueGroup sets the queue group for subscriptions. An empty group
// delivers every message to every replica.
func WithQueueGroup(group string) Option {
	return func(c *NATSClient) { c.queueGroup = group }
}

func WithName(name string) Option {
	return func(c *NATSClient) { c.name = name }
}

type NATSClient struct {
	conn       *nats.Conn
	js         jetstream.JetStream
	subs       []*nats.Subscription
	name       string
	queueGroup string
	logger     *slog.Logger
}

func NewNATSClient(ctx context.Context, url string, logger *slog.Logger, opts ...Option) (*NATSClient, error) {
	c := &NATSClient{name: "prioritizer", queueGroup: DefaultQueueGroup, logger: logger}
	for _, opt := range opts {
		opt(c)
	}

	nc, err := nats.Connect(url,
		nats.Name(c.name),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("hermes disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("hermes reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	c.conn = nc
	c.js = js

	if err := c.ensureStream(ctx); err != nil {
		logger.Warn("failed to ensure stream", "error", err)
	}
	return c, nil
}

func (c *NATSClient) ensureStream(ctx context.Context) error {
	maxAge, _ := time.ParseDuration(StreamMaxAge)
	_, err := c.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:       StreamName,
		Subjects:   []string{StreamSubjects},
		MaxAge:     maxAge,
		Duplicates: 2 * time.Minute,
	})
	return err
}

// newMsg encodes data as a JSON message. Each message gets a unique
// Nats-Msg-Id so the stream drops redelivered publishes.
func newMsg(subject string, data interface{}) (*nats.Msg, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", subject, err)
	}
	msg := nats.NewMsg(subject)
	msg.Data = payload
	msg.Header.Set(nats.MsgIdHdr, uuid.NewString())
	msg.Header.Set(EventTypeHeader, fmt.Sprintf("%T", data))
	return msg, nil
}

// Publish JSON-encodes data and sends it on subject.
func (c *NATSClient) Publish(subject string, data interface{}) error {
	msg, err := newMsg(subject, data)
	if err != nil {
		return err
	}
	return c.conn.PublishMsg(msg)
}

func (c *NATSClient) Subscribe(subject string, handler func(string, []byte)) error {
	cb := func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	}
	var (
		sub *nats.Subscription
		err error
	)
	if c.queueGroup != "" {
		sub, err = c.conn.QueueSubscribe(subject, c.queueGroup, cb)
	} else {
		sub, err = c.conn.Subscribe(subject, cb)
	}
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	c.subs = append(c.subs, sub)
	c.logger.Info("subscribed", "subject", subject, "queue_group", c.queueGroup)
	return nil
}

func (c *NATSClient) Close() {
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	_ = c.conn.Drain()
}
