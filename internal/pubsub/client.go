package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/yepcord/server-sub002/internal/logger"
)

const dispatchBuffer = 4096

type clientOptions struct {
	log            *logger.Logger
	initialBackoff time.Duration
	maxBackoff     time.Duration
	multiplier     float64
	requestTimeout time.Duration
	readTimeout    time.Duration
}

// ClientOption configures a bus client.
type ClientOption func(*clientOptions)

// WithLogger sets the client logger.
func WithLogger(l *logger.Logger) ClientOption {
	return func(o *clientOptions) { o.log = l }
}

// WithBackoff sets the reconnect delay bounds.
func WithBackoff(initial, max time.Duration) ClientOption {
	return func(o *clientOptions) {
		o.initialBackoff = initial
		o.maxBackoff = max
	}
}

// WithRequestTimeout overrides RequestTimeout.
func WithRequestTimeout(d time.Duration) ClientOption {
	return func(o *clientOptions) { o.requestTimeout = d }
}

// WithReadTimeout sets how long the connection may stay silent, hub pings
// included, before it is treated as lost.
func WithReadTimeout(d time.Duration) ClientOption {
	return func(o *clientOptions) { o.readTimeout = d }
}

func buildOptions(opts []ClientOption) clientOptions {
	o := clientOptions{
		initialBackoff: 100 * time.Millisecond,
		maxBackoff:     10 * time.Second,
		multiplier:     2,
		requestTimeout: RequestTimeout,
		readTimeout:    pongWait,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.New(0)
	}
	return o
}

// Client is a bus peer talking to a Hub over one WebSocket connection. It
// reconnects with exponential backoff and restores its subscriptions and
// broadcaster registrations after every reconnect.
type Client struct {
	url    string
	opts   clientOptions
	dialer *websocket.Dialer

	connMu  sync.Mutex
	conn    *websocket.Conn
	writeMu sync.Mutex

	mu       sync.RWMutex
	handlers map[string]Handler
	serving  map[string]RequestHandler
	pending  map[string]chan Frame

	dispatch chan Frame
	closed   chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
}

var _ Bus = (*Client)(nil)

// Dial connects to the hub at url and starts the read and reconnect loop.
func Dial(ctx context.Context, url string, opts ...ClientOption) (*Client, error) {
	c := &Client{
		url:      url,
		opts:     buildOptions(opts),
		dialer:   &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		handlers: make(map[string]Handler),
		serving:  make(map[string]RequestHandler),
		pending:  make(map[string]chan Frame),
		dispatch: make(chan Frame, dispatchBuffer),
		closed:   make(chan struct{}),
	}

	conn, _, err := c.dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to bus %s: %w", url, err)
	}
	c.conn = conn

	c.wg.Add(2)
	go c.connectLoop(conn)
	go c.dispatchLoop()

	return c, nil
}

// Subscribe registers handler for topic. A second call for the same topic
// replaces the handler.
func (c *Client) Subscribe(_ context.Context, topic string, handler Handler) error {
	topic = strings.ToLower(topic)

	c.mu.Lock()
	c.handlers[topic] = handler
	c.mu.Unlock()

	return c.send(Frame{Type: FrameSubscribe, Topic: topic})
}

func (c *Client) Unsubscribe(_ context.Context, topic string) error {
	topic = strings.ToLower(topic)

	c.mu.Lock()
	delete(c.handlers, topic)
	c.mu.Unlock()

	return c.send(Frame{Type: FrameUnsubscribe, Topic: topic})
}

// Publish broadcasts data on topic. Nothing is buffered while disconnected.
func (c *Client) Publish(_ context.Context, topic string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode broadcast: %w", err)
	}
	return c.send(Frame{Type: FrameBroadcast, Topic: strings.ToLower(topic), Data: raw})
}

// SetRequestHandler registers this client as the broadcaster brName.
func (c *Client) SetRequestHandler(_ context.Context, brName string, handler RequestHandler) error {
	c.mu.Lock()
	c.serving[brName] = handler
	c.mu.Unlock()

	return c.send(Frame{Type: FrameRegister, BrName: brName})
}

// Request sends data to the broadcaster brName and waits for its response.
func (c *Client) Request(ctx context.Context, brName string, data any) (json.RawMessage, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	id := uuid.NewString()
	ch := make(chan Frame, 1)

	c.mu.Lock()
	c.pending[id] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	if err := c.send(Frame{Type: FrameRequest, RequestID: id, BrName: brName, Data: raw}); err != nil {
		return nil, err
	}

	timer := time.NewTimer(c.opts.requestTimeout)
	defer timer.Stop()

	select {
	case f := <-ch:
		if f.Error != "" {
			return nil, errors.New(f.Error)
		}
		return f.Response, nil
	case <-timer.C:
		return nil, ErrRequestTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.closed:
		return nil, ErrClosed
	}
}

// Close stops reconnecting and closes the connection.
func (c *Client) Close() error {
	c.once.Do(func() {
		close(c.closed)
		c.connMu.Lock()
		if c.conn != nil {
			_ = c.conn.Close()
		}
		c.connMu.Unlock()
	})
	c.wg.Wait()
	return nil
}

func (c *Client) send(f Frame) error {
	b, err := f.Encode()
	if err != nil {
		return err
	}

	c.connMu.Lock()
	conn := c.conn
	c.connMu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		return fmt.Errorf("failed to write bus frame: %w", err)
	}
	return nil
}

func (c *Client) connectLoop(conn *websocket.Conn) {
	defer c.wg.Done()
	defer close(c.dispatch)

	for {
		c.readLoop(conn)

		c.connMu.Lock()
		c.conn = nil
		c.connMu.Unlock()
		_ = conn.Close()

		select {
		case <-c.closed:
			return
		default:
		}
		c.opts.log.Warn("PubSub client: connection lost, reconnecting", "url", c.url)

		conn = c.reconnect()
		if conn == nil {
			return
		}
	}
}

// reconnect dials until it succeeds or the client is closed.
func (c *Client) reconnect() *websocket.Conn {
	delay := c.opts.initialBackoff
	for attempt := 1; ; attempt++ {
		select {
		case <-c.closed:
			return nil
		case <-time.After(delay):
		}

		conn, _, err := c.dialer.Dial(c.url, nil)
		if err != nil {
			c.opts.log.Debug("PubSub client: reconnect failed", "attempt", attempt, "error", err)
			delay = c.nextBackoff(delay)
			continue
		}

		c.connMu.Lock()
		select {
		case <-c.closed:
			c.connMu.Unlock()
			_ = conn.Close()
			return nil
		default:
		}
		c.conn = conn
		c.connMu.Unlock()

		if err := c.restore(); err != nil {
			c.opts.log.Warn("PubSub client: failed to restore subscriptions", "attempt", attempt, "error", err)
			c.connMu.Lock()
			c.conn = nil
			c.connMu.Unlock()
			_ = conn.Close()
			delay = c.nextBackoff(delay)
			continue
		}
		c.opts.log.Info("PubSub client: reconnected", "url", c.url, "attempts", attempt)
		return conn
	}
}

func (c *Client) nextBackoff(delay time.Duration) time.Duration {
	delay = time.Duration(float64(delay) * c.opts.multiplier)
	if delay > c.opts.maxBackoff {
		delay = c.opts.maxBackoff
	}
	return delay
}

func (c *Client) restore() error {
	c.mu.RLock()
	frames := make([]Frame, 0, len(c.handlers)+len(c.serving))
	for topic := range c.handlers {
		frames = append(frames, Frame{Type: FrameSubscribe, Topic: topic})
	}
	for name := range c.serving {
		frames = append(frames, Frame{Type: FrameRegister, BrName: name})
	}
	c.mu.RUnlock()

	for _, f := range frames {
		if err := c.send(f); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) readLoop(conn *websocket.Conn) {
	conn.SetReadLimit(maxFrameSize)
	_ = conn.SetReadDeadline(time.Now().Add(c.opts.readTimeout))
	conn.SetPingHandler(func(data string) error {
		_ = conn.SetReadDeadline(time.Now().Add(c.opts.readTimeout))
		err := conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			c.opts.log.Debug("PubSub client: read failed", "error", err)
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(c.opts.readTimeout))

		frames, err := DecodeFrames(raw)
		if err != nil {
			c.opts.log.Warn("PubSub client: dropping malformed frame", "error", err)
		}
		for _, f := range frames {
			c.handleFrame(f)
		}
	}
}

func (c *Client) handleFrame(f Frame) {
	switch f.Type {
	case FrameBroadcast:
		select {
		case c.dispatch <- f:
		default:
			c.opts.log.Warn("PubSub client: dispatch queue full, dropping broadcast", "topic", f.Topic)
		}

	case FrameResponse:
		c.mu.RLock()
		ch, ok := c.pending[f.RequestID]
		c.mu.RUnlock()
		if ok {
			select {
			case ch <- f:
			default:
			}
		}

	case FrameRequest:
		c.mu.RLock()
		handler, ok := c.serving[f.BrName]
		c.mu.RUnlock()
		if !ok {
			_ = c.send(Frame{Type: FrameResponse, RequestID: f.RequestID, Error: "unknown broadcaster " + f.BrName})
			return
		}
		go c.serve(handler, f)
	}
}

func (c *Client) serve(handler RequestHandler, f Frame) {
	ctx, cancel := context.WithTimeout(context.Background(), c.opts.requestTimeout)
	defer cancel()

	resp := Frame{Type: FrameResponse, RequestID: f.RequestID}
	result, err := handler(ctx, f.Data)
	if err != nil {
		resp.Error = err.Error()
	} else if resp.Response, err = json.Marshal(result); err != nil {
		resp.Error = err.Error()
	}

	if err := c.send(resp); err != nil {
		c.opts.log.Warn("PubSub client: failed to send response", "request_id", f.RequestID, "error", err)
	}
}

// dispatchLoop runs handlers one at a time so a publisher's broadcasts reach
// each handler in order.
func (c *Client) dispatchLoop() {
	defer c.wg.Done()
	for f := range c.dispatch {
		c.mu.RLock()
		handler, ok := c.handlers[f.Topic]
		c.mu.RUnlock()
		if !ok {
			continue
		}
		handler(context.Background(), f.Topic, f.Data)
	}
}
