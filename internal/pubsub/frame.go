// Package pubsub is the inter-service event bus. Gateway processes subscribe
// to topics, REST processes broadcast onto them, and either side may issue
// requests to a named broadcaster.
package pubsub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Frame types.
const (
	FrameSubscribe   = "subscribe"
	FrameUnsubscribe = "unsubscribe"
	FrameBroadcast   = "broadcast"
	FrameRequest     = "request"
	FrameResponse    = "response"
	FrameRegister    = "register"
)

// Topics produced by the REST surface.
const (
	TopicUserEvents    = "user_events"
	TopicChannelEvents = "channel_events"
	TopicMessageEvents = "message_events"
	TopicGuildEvents   = "guild_events"
)

// Topics lists every topic a gateway subscribes to.
var Topics = []string{TopicUserEvents, TopicChannelEvents, TopicMessageEvents, TopicGuildEvents}

// RequestTimeout bounds how long Request waits for a response.
const RequestTimeout = 5 * time.Second

var (
	ErrNotConnected   = errors.New("bus is not connected")
	ErrClosed         = errors.New("bus is closed")
	ErrRequestTimeout = errors.New("bus request timed out")
	ErrMalformedFrame = errors.New("malformed bus frame")
)

// Frame is one newline-delimited JSON message on the bus connection.
type Frame struct {
	Type      string          `json:"type"`
	Topic     string          `json:"topic,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
	BrName    string          `json:"br_name,omitempty"`
	Response  json.RawMessage `json:"response,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// Validate checks that the fields required by the frame type are present
// and lowercases the topic.
func (f *Frame) Validate() error {
	f.Topic = strings.ToLower(f.Topic)

	switch f.Type {
	case FrameSubscribe, FrameUnsubscribe:
		if f.Topic == "" {
			return fmt.Errorf("%w: %s without topic", ErrMalformedFrame, f.Type)
		}
	case FrameBroadcast:
		if f.Topic == "" || len(f.Data) == 0 {
			return fmt.Errorf("%w: broadcast without topic or data", ErrMalformedFrame)
		}
	case FrameRequest:
		if f.RequestID == "" || f.BrName == "" {
			return fmt.Errorf("%w: request without request_id or br_name", ErrMalformedFrame)
		}
	case FrameResponse:
		if f.RequestID == "" {
			return fmt.Errorf("%w: response without request_id", ErrMalformedFrame)
		}
	case FrameRegister:
		if f.BrName == "" {
			return fmt.Errorf("%w: register without br_name", ErrMalformedFrame)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrMalformedFrame, f.Type)
	}
	return nil
}

// Encode renders the frame followed by a newline.
func (f Frame) Encode() ([]byte, error) {
	b, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// DecodeFrames parses every newline-delimited frame in one transport message.
func DecodeFrames(raw []byte) ([]Frame, error) {
	var frames []Frame
	for _, line := range bytes.Split(raw, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var f Frame
		if err := json.Unmarshal(line, &f); err != nil {
			return frames, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
		}
		if err := f.Validate(); err != nil {
			return frames, err
		}
		frames = append(frames, f)
	}
	return frames, nil
}

// Event is the payload of every broadcast: the gateway dispatch name and its data.
type Event struct {
	E    string          `json:"e"`
	Data json.RawMessage `json:"data"`
}

// NewEvent marshals data into an Event named name.
func NewEvent(name string, data any) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("failed to encode %s event: %w", name, err)
	}
	return Event{E: name, Data: raw}, nil
}

// Handler receives broadcasts for a subscribed topic.
type Handler func(ctx context.Context, topic string, data json.RawMessage)

// RequestHandler answers requests addressed to a registered broadcaster.
type RequestHandler func(ctx context.Context, data json.RawMessage) (any, error)

// Bus is implemented by the WebSocket client and the NATS client.
type Bus interface {
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Unsubscribe(ctx context.Context, topic string) error
	Publish(ctx context.Context, topic string, data any) error
	Request(ctx context.Context, brName string, data any) (json.RawMessage, error)
	SetRequestHandler(ctx context.Context, brName string, handler RequestHandler) error
	Close() error
}

// Connect opens a bus client for addr. nats:// addresses use NATS, anything
// else is treated as a bus hub WebSocket URL.
func Connect(ctx context.Context, addr string, opts ...ClientOption) (Bus, error) {
	if strings.HasPrefix(addr, "nats://") {
		nc, err := DialNATS(addr, opts...)
		if err != nil {
			return nil, err
		}
		return nc, nil
	}

	c, err := Dial(ctx, addr, opts...)
	if err != nil {
		return nil, err
	}
	return c, nil
}
