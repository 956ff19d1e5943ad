package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/nats-io/nats.go"
)

const (
	topicSubjectPrefix       = "yepcord.topic."
	broadcasterSubjectPrefix = "yepcord.br."
)

// NATSClient implements Bus on top of a NATS server. Topics map to subjects
// and requests use NATS request-reply.
type NATSClient struct {
	conn *nats.Conn
	opts clientOptions

	mu       sync.Mutex
	subs     map[string]*nats.Subscription
	handlers map[string]*nats.Subscription
}

var _ Bus = (*NATSClient)(nil)

// DialNATS connects to the NATS server at url.
func DialNATS(url string, opts ...ClientOption) (*NATSClient, error) {
	o := buildOptions(opts)
	c := &NATSClient{
		opts:     o,
		subs:     make(map[string]*nats.Subscription),
		handlers: make(map[string]*nats.Subscription),
	}

	conn, err := nats.Connect(url,
		nats.Name("yepcord"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(o.initialBackoff),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				o.log.Warn("PubSub NATS: disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			o.log.Info("PubSub NATS: reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats %s: %w", url, err)
	}
	c.conn = conn

	return c, nil
}

func (c *NATSClient) Subscribe(_ context.Context, topic string, handler Handler) error {
	topic = strings.ToLower(topic)

	sub, err := c.conn.Subscribe(topicSubjectPrefix+topic, func(msg *nats.Msg) {
		handler(context.Background(), topic, json.RawMessage(msg.Data))
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	c.mu.Lock()
	if old, ok := c.subs[topic]; ok {
		_ = old.Unsubscribe()
	}
	c.subs[topic] = sub
	c.mu.Unlock()
	return nil
}

func (c *NATSClient) Unsubscribe(_ context.Context, topic string) error {
	topic = strings.ToLower(topic)

	c.mu.Lock()
	sub, ok := c.subs[topic]
	delete(c.subs, topic)
	c.mu.Unlock()

	if !ok {
		return nil
	}
	return sub.Unsubscribe()
}

func (c *NATSClient) Publish(_ context.Context, topic string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode broadcast: %w", err)
	}
	if !c.conn.IsConnected() {
		return ErrNotConnected
	}
	return c.conn.Publish(topicSubjectPrefix+strings.ToLower(topic), raw)
}

func (c *NATSClient) SetRequestHandler(_ context.Context, brName string, handler RequestHandler) error {
	sub, err := c.conn.Subscribe(broadcasterSubjectPrefix+brName, func(msg *nats.Msg) {
		ctx, cancel := context.WithTimeout(context.Background(), c.opts.requestTimeout)
		defer cancel()

		resp := Frame{Type: FrameResponse}
		result, err := handler(ctx, msg.Data)
		if err != nil {
			resp.Error = err.Error()
		} else if resp.Response, err = json.Marshal(result); err != nil {
			resp.Error = err.Error()
		}

		b, err := json.Marshal(resp)
		if err != nil {
			return
		}
		if err := msg.Respond(b); err != nil {
			c.opts.log.Warn("PubSub NATS: failed to respond", "br_name", brName, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to register broadcaster %s: %w", brName, err)
	}

	c.mu.Lock()
	if old, ok := c.handlers[brName]; ok {
		_ = old.Unsubscribe()
	}
	c.handlers[brName] = sub
	c.mu.Unlock()
	return nil
}

func (c *NATSClient) Request(ctx context.Context, brName string, data any) (json.RawMessage, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.requestTimeout)
	defer cancel()

	msg, err := c.conn.RequestWithContext(ctx, broadcasterSubjectPrefix+brName, raw)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, nats.ErrTimeout) {
			return nil, ErrRequestTimeout
		}
		return nil, fmt.Errorf("failed to send request to %s: %w", brName, err)
	}

	var resp Frame
	if err := json.Unmarshal(msg.Data, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if resp.Error != "" {
		return nil, errors.New(resp.Error)
	}
	return resp.Response, nil
}

func (c *NATSClient) Close() error {
	if err := c.conn.Drain(); err != nil {
		c.conn.Close()
		return fmt.Errorf("failed to drain nats connection: %w", err)
	}
	return nil
}
