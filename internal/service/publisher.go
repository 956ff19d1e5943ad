package service

import (
	"context"
	"encoding/json"

	"github.com/yepcord/server-sub002/internal/event"
	"github.com/yepcord/server-sub002/internal/logger"
	"github.com/yepcord/server-sub002/internal/pubsub"
)

// Publisher broadcasts the event of a committed mutation. A failed publish
// never rolls the mutation back: it is logged and connected clients catch
// up on their next READY.
type Publisher struct {
	bus    pubsub.Bus
	logger *logger.Logger
}

func NewPublisher(bus pubsub.Bus, logger *logger.Logger) *Publisher {
	return &Publisher{bus: bus, logger: logger}
}

// Publish renders payload into d and broadcasts it as name on topic.
func (p *Publisher) Publish(ctx context.Context, topic, name string, d event.Data, payload any) {
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			p.logger.Error("Publisher: failed to encode payload",
				"e", name,
				"error", err)
			return
		}
		d.Payload = raw
	}
	p.send(ctx, topic, name, d)
}

// Relationship broadcasts a relationship change on the user topic.
func (p *Publisher) Relationship(ctx context.Context, name string, d event.RelationshipData) {
	p.send(ctx, pubsub.TopicUserEvents, name, d)
}

func (p *Publisher) send(ctx context.Context, topic, name string, data any) {
	ev, err := pubsub.NewEvent(name, data)
	if err != nil {
		p.logger.Error("Publisher: failed to build event",
			"e", name,
			"error", err)
		return
	}
	if err := p.bus.Publish(ctx, topic, ev); err != nil {
		p.logger.Error("Publisher: failed to publish event",
			"topic", topic,
			"e", name,
			"error", err)
	}
}
