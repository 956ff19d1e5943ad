package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/yepcord/server-sub002/internal/event"
	"github.com/yepcord/server-sub002/internal/logger"
	"github.com/yepcord/server-sub002/internal/model"
)

// forwarded maps bus events whose payload is rendered by the publisher to
// the dispatch clients receive.
var forwarded = map[string]string{
	event.BusUserUpdate:              event.UserUpdate,
	event.BusUserNoteUpdate:          event.UserNoteUpdate,
	event.BusUserSettingsProtoUpdate: event.UserSettingsProtoUpdate,
	event.BusUserDelete:              event.UserDelete,
	event.BusMessageCreate:           event.MessageCreate,
	event.BusMessageUpdate:           event.MessageUpdate,
	event.BusMessageDelete:           event.MessageDelete,
	event.BusMessageDeleteBulk:       event.MessageDeleteBulk,
	event.BusMessageAck:              event.MessageAck,
	event.BusTyping:                  event.TypingStart,
	event.BusReactionAdd:             event.MessageReactionAdd,
	event.BusReactionRemove:          event.MessageReactionRemove,
	event.BusChannelPinsUpdate:       event.ChannelPinsUpdate,
	event.BusDMChannelDelete:         event.ChannelDelete,
	event.BusChannelRecipientAdd:     event.ChannelRecipientAdd,
	event.BusChannelRecipientRemove:  event.ChannelRecipientRemove,
	event.BusChannelCreate:           event.ChannelCreate,
	event.BusChannelUpdate:           event.ChannelUpdate,
	event.BusChannelDelete:           event.ChannelDelete,
	event.BusGuildUpdate:             event.GuildUpdate,
	event.BusGuildDelete:             event.GuildDelete,
	event.BusGuildEmojisUpdate:       event.GuildEmojisUpdate,
	event.BusGuildStickersUpdate:     event.GuildStickersUpdate,
	event.BusGuildRoleCreate:         event.GuildRoleCreate,
	event.BusGuildRoleUpdate:         event.GuildRoleUpdate,
	event.BusGuildRoleDelete:         event.GuildRoleDelete,
	event.BusGuildMemberUpdate:       event.GuildMemberUpdate,
	event.BusGuildMemberRemove:       event.GuildMemberRemove,
	event.BusGuildBanAdd:             event.GuildBanAdd,
	event.BusGuildBanRemove:          event.GuildBanRemove,
	event.BusGuildAuditLogEntry:      event.GuildAuditLogEntryCreate,
	event.BusInviteDelete:            event.InviteDelete,
	event.BusInteractionCreate:       event.InteractionCreate,
	event.BusInteractionSuccess:      event.InteractionSuccess,
	event.BusInteractionFailure:      event.InteractionFailure,
}

type fanoutHandler func(ctx context.Context, data json.RawMessage) error

// Fanout resolves bus events to the sessions of this process that should
// receive them. Every gateway process sees every event and delivers only
// to its own sessions.
type Fanout struct {
	registry   *Registry
	serializer *event.Serializer
	stores     model.Stores
	metrics    *metrics
	log        *logger.Logger
	handlers   map[string]fanoutHandler
}

// NewFanout creates an addressor delivering to the sessions in registry.
func NewFanout(registry *Registry, serializer *event.Serializer, stores model.Stores, m *metrics, log *logger.Logger) *Fanout {
	f := &Fanout{
		registry:   registry,
		serializer: serializer,
		stores:     stores,
		metrics:    m,
		log:        log,
	}

	f.handlers = map[string]fanoutHandler{
		event.BusRelationshipReq:   f.relationship(event.RelationshipAdd, event.RelationshipAdd),
		event.BusRelationshipAcc:   f.relationship(event.RelationshipAdd, event.RelationshipAdd),
		event.BusRelationshipDel:   f.relationship(event.RelationshipRemove, event.RelationshipRemove),
		event.BusRelationshipBlock: f.relationship(event.RelationshipAdd, event.RelationshipRemove),
		event.BusPresenceUpdate:    f.presence,
		event.BusDMChannelCreate:   f.privateChannel(event.ChannelCreate),
		event.BusDMChannelUpdate:   f.privateChannel(event.ChannelUpdate),
		event.BusGuildCreate:       f.guildCreate,
	}
	for busName, dispatch := range forwarded {
		f.handlers[busName] = f.forward(dispatch)
	}
	return f
}

// Handle is the bus subscription callback.
func (f *Fanout) Handle(ctx context.Context, topic string, raw json.RawMessage) {
	var ev struct {
		E    string          `json:"e"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &ev); err != nil {
		f.log.Warn("Fanout: dropping malformed event", "topic", topic, "error", err)
		f.metrics.drop("malformed")
		return
	}

	handler, ok := f.handlers[ev.E]
	if !ok {
		f.log.Warn("Fanout: dropping unknown event", "topic", topic, "e", ev.E)
		f.metrics.drop("unknown")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	if err := handler(ctx, ev.Data); err != nil {
		f.log.Error("Fanout: failed to deliver event",
			"topic", topic,
			"e", ev.E,
			"error", err)
		f.metrics.drop("handler_error")
	}
}

func (f *Fanout) forward(dispatch string) fanoutHandler {
	return func(ctx context.Context, raw json.RawMessage) error {
		var d event.Data
		if err := json.Unmarshal(raw, &d); err != nil {
			return fmt.Errorf("failed to decode event data: %w", err)
		}
		recipients, err := f.recipients(ctx, d)
		if err != nil {
			return err
		}
		payload := d.Payload
		if len(payload) == 0 {
			payload = json.RawMessage("{}")
		}
		f.deliver(recipients, d.SessionID, dispatch, payload)
		return nil
	}
}

// recipients resolves the local users addressed by d.
func (f *Fanout) recipients(ctx context.Context, d event.Data) ([]int64, error) {
	switch {
	case len(d.UserIDs) > 0:
		return f.registry.Local(d.UserIDs), nil
	case d.UserID != 0:
		return f.registry.Local([]int64{d.UserID}), nil
	case d.ChannelID != 0:
		ids, err := f.stores.Channels.RelatedUsers(ctx, d.ChannelID)
		if err != nil {
			return nil, fmt.Errorf("failed to load channel audience: %w", err)
		}
		return f.registry.Local(ids), nil
	case d.GuildID != 0:
		ids, err := f.stores.Guilds.MemberUserIDs(ctx, d.GuildID)
		if err != nil {
			return nil, fmt.Errorf("failed to load guild members: %w", err)
		}
		local := f.registry.Local(ids)
		if d.Permission == 0 {
			return local, nil
		}
		return f.withPermission(ctx, d.GuildID, local, d.Permission)
	}
	return nil, nil
}

func (f *Fanout) withPermission(ctx context.Context, guildID int64, userIDs []int64, perm model.Permission) ([]int64, error) {
	out := make([]int64, 0, len(userIDs))
	for _, id := range userIDs {
		member, err := f.stores.Guilds.GetMember(ctx, guildID, id)
		if errors.Is(err, model.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load member: %w", err)
		}
		perms, err := f.stores.Guilds.MemberPermissions(ctx, member, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to compute permissions: %w", err)
		}
		if perms.Has(perm) {
			out = append(out, id)
		}
	}
	return out, nil
}

// deliver sends the same payload to every session of userIDs, or only to
// sessionID when it is set.
func (f *Fanout) deliver(userIDs []int64, sessionID, dispatch string, payload any) {
	for _, id := range userIDs {
		for _, s := range f.registry.UserSessions(id) {
			if sessionID != "" && s.ID != sessionID {
				continue
			}
			f.send(s, dispatch, payload)
		}
	}
}

func (f *Fanout) send(s *Session, dispatch string, payload any) {
	if _, err := s.Send(event.Dispatch(dispatch, payload)); err != nil {
		f.log.Error("Fanout: failed to encode dispatch",
			"event", dispatch,
			"session_id", s.ID,
			"error", err)
		return
	}
	f.metrics.dispatched(dispatch)
}

// relationship delivers a relationship change to each side with its own
// type. toCurrent and toTarget are the dispatch names for each side.
func (f *Fanout) relationship(toCurrent, toTarget string) fanoutHandler {
	return func(ctx context.Context, raw json.RawMessage) error {
		var d event.RelationshipData
		if err := json.Unmarshal(raw, &d); err != nil {
			return fmt.Errorf("failed to decode relationship data: %w", err)
		}

		sides := []struct {
			self, other int64
			typ         int
			dispatch    string
		}{
			{d.CurrentUser, d.TargetUser, d.CurrentType, toCurrent},
			{d.TargetUser, d.CurrentUser, d.TargetType, toTarget},
		}
		for _, side := range sides {
			if side.typ == 0 || !f.registry.HasUser(side.self) {
				continue
			}

			var payload any
			if side.dispatch == event.RelationshipAdd {
				rel, err := f.serializer.Relationship(ctx, side.other, side.typ)
				if err != nil {
					return err
				}
				payload = rel
			} else {
				payload = event.RelationshipRemove{ID: side.other, Type: side.typ}
			}
			f.deliver([]int64{side.self}, "", side.dispatch, payload)

			if d.ChannelCreated && d.ChannelID != 0 {
				if err := f.sendPrivateChannel(ctx, side.self, d.ChannelID, event.ChannelCreate); err != nil {
					return err
				}
			}
		}
		return nil
	}
}

// presence delivers a presence change to everyone sharing a guild, a DM or
// a friendship with its subject.
func (f *Fanout) presence(ctx context.Context, raw json.RawMessage) error {
	var p model.Presence
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("failed to decode presence: %w", err)
	}

	related, err := f.stores.Users.RelatedUsers(ctx, p.UserID)
	if err != nil {
		return fmt.Errorf("failed to load related users: %w", err)
	}
	recipients := make([]int64, 0, len(related))
	for _, id := range f.registry.Local(related) {
		if id != p.UserID {
			recipients = append(recipients, id)
		}
	}
	if len(recipients) == 0 {
		return nil
	}
	f.deliver(recipients, "", event.PresenceUpdate, event.NewPresenceUpdate(p))
	return nil
}

// privateChannel renders a DM or group DM for each recipient so that the
// recipient list excludes the viewer.
func (f *Fanout) privateChannel(dispatch string) fanoutHandler {
	return func(ctx context.Context, raw json.RawMessage) error {
		var d event.Data
		if err := json.Unmarshal(raw, &d); err != nil {
			return fmt.Errorf("failed to decode event data: %w", err)
		}
		recipients, err := f.recipients(ctx, d)
		if err != nil {
			return err
		}
		for _, id := range recipients {
			if err := f.sendPrivateChannel(ctx, id, d.ChannelID, dispatch); err != nil {
				return err
			}
		}
		return nil
	}
}

func (f *Fanout) sendPrivateChannel(ctx context.Context, viewerID, channelID int64, dispatch string) error {
	c, err := f.stores.Channels.GetByID(ctx, channelID)
	if err != nil {
		return fmt.Errorf("failed to load channel %d: %w", channelID, err)
	}
	rendered, err := f.serializer.Channel(ctx, c, viewerID)
	if err != nil {
		return err
	}
	f.deliver([]int64{viewerID}, "", dispatch, rendered)
	return nil
}

// guildCreate renders the guild for each recipient since the payload
// carries the viewer's own member.
func (f *Fanout) guildCreate(ctx context.Context, raw json.RawMessage) error {
	var d event.Data
	if err := json.Unmarshal(raw, &d); err != nil {
		return fmt.Errorf("failed to decode event data: %w", err)
	}
	recipients, err := f.recipients(ctx, d)
	if err != nil || len(recipients) == 0 {
		return err
	}

	g, err := f.stores.Guilds.GetByID(ctx, d.GuildID)
	if err != nil {
		return fmt.Errorf("failed to load guild %d: %w", d.GuildID, err)
	}
	for _, id := range recipients {
		rendered, err := f.serializer.Guild(ctx, g, id)
		if err != nil {
			return err
		}
		f.deliver([]int64{id}, "", event.GuildCreate, rendered)
	}
	return nil
}
