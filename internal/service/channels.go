package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yepcord/server-sub002/internal/event"
	"github.com/yepcord/server-sub002/internal/model"
	"github.com/yepcord/server-sub002/internal/pubsub"
)

// CreateChannelRequest is the body of POST /guilds/{id}/channels.
type CreateChannelRequest struct {
	Name                 string                      `json:"name"`
	Type                 model.ChannelType           `json:"type"`
	Topic                *string                     `json:"topic"`
	ParentID             *model.Snowflake            `json:"parent_id"`
	Position             int                         `json:"position"`
	NSFW                 bool                        `json:"nsfw"`
	PermissionOverwrites []model.PermissionOverwrite `json:"permission_overwrites"`
}

// Channels manages DMs, group DMs and guild channels.
type Channels struct {
	Deps
}

func NewChannels(deps Deps) *Channels {
	return &Channels{Deps: deps}
}

// openDM returns the DM between userA and userB, creating it when missing.
func openDM(ctx context.Context, d Deps, userA, userB int64) (model.Channel, bool, error) {
	dm, err := d.Stores.Channels.GetDM(ctx, userA, userB)
	if err == nil {
		return dm, false, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return model.Channel{}, false, fmt.Errorf("failed to get dm channel: %w", err)
	}

	dm, err = d.Stores.Channels.Create(ctx, model.Channel{
		ID:         d.IDs.Next(),
		Type:       model.ChannelDM,
		Recipients: []int64{userA, userB},
	})
	if err != nil {
		return model.Channel{}, false, fmt.Errorf("failed to create dm channel: %w", err)
	}
	return dm, true, nil
}

// Get renders channelID for userID.
func (s *Channels) Get(ctx context.Context, userID, channelID int64) (event.Channel, error) {
	c, _, err := s.channelAccess(ctx, userID, channelID, 0)
	if err != nil {
		return event.Channel{}, err
	}
	return s.Serializer.Channel(ctx, c, userID)
}

// PrivateChannels lists the DMs and group DMs of userID.
func (s *Channels) PrivateChannels(ctx context.Context, userID int64) ([]event.Channel, error) {
	channels, err := s.Stores.Channels.PrivateChannels(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get private channels: %w", err)
	}
	out := make([]event.Channel, 0, len(channels))
	for _, c := range channels {
		rendered, err := s.Serializer.Channel(ctx, c, userID)
		if err != nil {
			return nil, err
		}
		out = append(out, rendered)
	}
	return out, nil
}

// OpenDM opens a DM with one recipient or creates a group DM with several.
// Group DM recipients must be friends of userID.
func (s *Channels) OpenDM(ctx context.Context, userID int64, recipients []int64) (event.Channel, error) {
	recipients = dedupeIDs(recipients, userID)
	switch {
	case len(recipients) == 0:
		return event.Channel{}, model.ErrInvalidRecipients
	case len(recipients) == 1:
		return s.openDirect(ctx, userID, recipients[0])
	case len(recipients)+1 > model.GroupDMMaxRecipients:
		return event.Channel{}, model.InvalidForm("recipients", model.CodeBaseTypeMaxLength, "Must be 9 or fewer in length.")
	}

	for _, id := range recipients {
		rel, err := s.Stores.Relationships.Get(ctx, userID, id)
		if errors.Is(err, model.ErrNotFound) || (err == nil && rel.Type != model.RelationshipFriend) {
			return event.Channel{}, model.ErrInvalidRecipients
		}
		if err != nil {
			return event.Channel{}, fmt.Errorf("failed to get relationship: %w", err)
		}
	}

	owner := userID
	c, err := s.Stores.Channels.Create(ctx, model.Channel{
		ID:         s.IDs.Next(),
		Type:       model.ChannelGroupDM,
		OwnerID:    &owner,
		Recipients: append([]int64{userID}, recipients...),
	})
	if err != nil {
		return event.Channel{}, fmt.Errorf("failed to create group dm: %w", err)
	}

	s.Logger.Info("Channels: group dm created",
		"channel_id", c.ID,
		"owner_id", userID,
		"recipients", len(c.Recipients))
	s.Publisher.Publish(ctx, pubsub.TopicChannelEvents, event.BusDMChannelCreate,
		event.Data{ChannelID: c.ID}, nil)
	return s.Serializer.Channel(ctx, c, userID)
}

func (s *Channels) openDirect(ctx context.Context, userID, targetID int64) (event.Channel, error) {
	if _, err := s.user(ctx, targetID); err != nil {
		return event.Channel{}, err
	}
	dm, created, err := openDM(ctx, s.Deps, userID, targetID)
	if err != nil {
		return event.Channel{}, err
	}
	if created {
		s.Publisher.Publish(ctx, pubsub.TopicChannelEvents, event.BusDMChannelCreate,
			event.Data{UserIDs: []int64{userID}, ChannelID: dm.ID}, nil)
	}
	return s.Serializer.Channel(ctx, dm, userID)
}

// Update applies patch to a group DM or guild channel.
func (s *Channels) Update(ctx context.Context, userID, channelID int64, patch model.ChannelPatch) (event.Channel, error) {
	before, _, err := s.channelAccess(ctx, userID, channelID, model.PermManageChannels)
	if err != nil {
		return event.Channel{}, err
	}
	if before.Type == model.ChannelDM {
		return event.Channel{}, model.ErrCannotExecuteOnDM
	}
	if err := validateChannelPatch(before, patch); err != nil {
		return event.Channel{}, err
	}

	after := patch.Apply(before)
	changes := model.DiffChannel(before, after).Changes()
	if len(changes) == 0 {
		return s.Serializer.Channel(ctx, after, userID)
	}
	if err := s.Stores.Channels.Update(ctx, after); err != nil {
		return event.Channel{}, fmt.Errorf("failed to update channel: %w", err)
	}

	s.Logger.Info("Channels: channel updated",
		"channel_id", channelID,
		"user_id", userID)

	if after.IsPrivate() {
		s.Publisher.Publish(ctx, pubsub.TopicChannelEvents, event.BusDMChannelUpdate,
			event.Data{ChannelID: after.ID}, nil)
		return s.Serializer.Channel(ctx, after, userID)
	}

	rendered, err := s.Serializer.Channel(ctx, after, userID)
	if err != nil {
		return event.Channel{}, err
	}
	s.Publisher.Publish(ctx, pubsub.TopicChannelEvents, event.BusChannelUpdate,
		event.Data{GuildID: *after.GuildID}, rendered)
	s.audit(ctx, model.AuditLogEntry{
		GuildID:    *after.GuildID,
		UserID:     userID,
		TargetID:   &after.ID,
		ActionType: model.AuditChannelUpdate,
		Changes:    model.AuditChanges(changes),
	})
	return rendered, nil
}

func validateChannelPatch(c model.Channel, p model.ChannelPatch) error {
	var fe model.FormErrors
	if p.Name.Set {
		switch {
		case p.Name.Value == nil && c.Type != model.ChannelGroupDM:
			fe.Add("name", model.CodeBaseTypeRequired, "This field is required")
		case p.Name.Value != nil:
			if n := utf8.RuneCountInString(*p.Name.Value); n < 1 || n > 100 {
				fe.Add("name", model.CodeBaseTypeBadLength, "Must be between 1 and 100 in length.")
			}
		}
	}
	if p.Topic.Set && p.Topic.Value != nil && utf8.RuneCountInString(*p.Topic.Value) > 1024 {
		fe.Add("topic", model.CodeBaseTypeMaxLength, "Must be 1024 or fewer in length.")
	}
	if c.IsPrivate() && (p.PermissionOverwrites.Set || p.ParentID.Set || p.Position.Set) {
		fe.Add("type", model.CodeBaseTypeChoices, "Not supported for private channels.")
	}
	return fe.Err()
}

// Delete closes a DM, leaves a group DM or deletes a guild channel.
func (s *Channels) Delete(ctx context.Context, userID, channelID int64) (event.Channel, error) {
	c, _, err := s.channelAccess(ctx, userID, channelID, 0)
	if err != nil {
		return event.Channel{}, err
	}

	switch c.Type {
	case model.ChannelDM:
		rendered, err := s.Serializer.Channel(ctx, c, userID)
		if err != nil {
			return event.Channel{}, err
		}
		s.Publisher.Publish(ctx, pubsub.TopicChannelEvents, event.BusDMChannelDelete,
			event.Data{UserIDs: []int64{userID}}, rendered)
		return rendered, nil
	case model.ChannelGroupDM:
		return s.leaveGroup(ctx, userID, c)
	}

	if _, _, err := s.channelAccess(ctx, userID, channelID, model.PermManageChannels); err != nil {
		return event.Channel{}, err
	}
	rendered, err := s.Serializer.Channel(ctx, c, userID)
	if err != nil {
		return event.Channel{}, err
	}
	if err := s.Stores.Channels.Delete(ctx, c.ID); err != nil {
		return event.Channel{}, fmt.Errorf("failed to delete channel: %w", err)
	}

	s.Logger.Info("Channels: channel deleted",
		"channel_id", channelID,
		"user_id", userID)
	s.Publisher.Publish(ctx, pubsub.TopicChannelEvents, event.BusChannelDelete,
		event.Data{GuildID: *c.GuildID}, rendered)
	s.audit(ctx, model.AuditLogEntry{
		GuildID:    *c.GuildID,
		UserID:     userID,
		TargetID:   &c.ID,
		ActionType: model.AuditChannelDelete,
	})
	return rendered, nil
}

func (s *Channels) leaveGroup(ctx context.Context, userID int64, c model.Channel) (event.Channel, error) {
	rendered, err := s.Serializer.Channel(ctx, c, userID)
	if err != nil {
		return event.Channel{}, err
	}
	if err := s.removeRecipient(ctx, c, userID); err != nil {
		return event.Channel{}, err
	}
	s.Publisher.Publish(ctx, pubsub.TopicChannelEvents, event.BusDMChannelDelete,
		event.Data{UserIDs: []int64{userID}}, rendered)
	return rendered, nil
}

// removeRecipient drops userID from a group DM, hands ownership to the
// next recipient and deletes the channel once nobody is left.
func (s *Channels) removeRecipient(ctx context.Context, c model.Channel, userID int64) error {
	if err := s.Stores.Channels.RemoveRecipient(ctx, c.ID, userID); err != nil {
		return fmt.Errorf("failed to remove recipient: %w", err)
	}

	remaining := make([]int64, 0, len(c.Recipients))
	for _, id := range c.Recipients {
		if id != userID {
			remaining = append(remaining, id)
		}
	}
	if len(remaining) == 0 {
		if err := s.Stores.Channels.Delete(ctx, c.ID); err != nil {
			return fmt.Errorf("failed to delete empty group dm: %w", err)
		}
		return nil
	}

	if c.OwnerID != nil && *c.OwnerID == userID {
		owner := remaining[0]
		c.OwnerID = &owner
		c.Recipients = remaining
		if err := s.Stores.Channels.Update(ctx, c); err != nil {
			return fmt.Errorf("failed to transfer group dm ownership: %w", err)
		}
	}

	user, err := s.Serializer.User(ctx, userID)
	if err != nil {
		return err
	}
	s.Publisher.Publish(ctx, pubsub.TopicChannelEvents, event.BusChannelRecipientRemove,
		event.Data{UserIDs: remaining}, event.RecipientPayload{ChannelID: c.ID, User: user})
	return nil
}

// AddRecipient adds a friend of userID to a group DM.
func (s *Channels) AddRecipient(ctx context.Context, userID, channelID, targetID int64) error {
	c, _, err := s.channelAccess(ctx, userID, channelID, 0)
	if err != nil {
		return err
	}
	if c.Type != model.ChannelGroupDM {
		return model.ErrCannotExecuteOnDM
	}
	if c.HasRecipient(targetID) {
		return nil
	}
	if len(c.Recipients) >= model.GroupDMMaxRecipients {
		return model.InvalidForm("recipients", model.CodeBaseTypeMaxLength, "Must be 10 or fewer in length.")
	}
	rel, err := s.Stores.Relationships.Get(ctx, userID, targetID)
	if errors.Is(err, model.ErrNotFound) || (err == nil && rel.Type != model.RelationshipFriend) {
		return model.ErrInvalidRecipients
	}
	if err != nil {
		return fmt.Errorf("failed to get relationship: %w", err)
	}

	if err := s.Stores.Channels.AddRecipient(ctx, c.ID, targetID); err != nil {
		return fmt.Errorf("failed to add recipient: %w", err)
	}

	user, err := s.Serializer.User(ctx, targetID)
	if err != nil {
		return err
	}
	s.Logger.Info("Channels: recipient added",
		"channel_id", c.ID,
		"user_id", targetID)
	s.Publisher.Publish(ctx, pubsub.TopicChannelEvents, event.BusChannelRecipientAdd,
		event.Data{UserIDs: c.Recipients}, event.RecipientPayload{ChannelID: c.ID, User: user})
	s.Publisher.Publish(ctx, pubsub.TopicChannelEvents, event.BusDMChannelCreate,
		event.Data{UserIDs: []int64{targetID}, ChannelID: c.ID}, nil)
	return nil
}

// RemoveRecipient removes targetID from a group DM. Only the owner may
// remove others.
func (s *Channels) RemoveRecipient(ctx context.Context, userID, channelID, targetID int64) error {
	c, _, err := s.channelAccess(ctx, userID, channelID, 0)
	if err != nil {
		return err
	}
	if c.Type != model.ChannelGroupDM {
		return model.ErrCannotExecuteOnDM
	}
	if targetID == userID {
		_, err := s.leaveGroup(ctx, userID, c)
		return err
	}
	if c.OwnerID == nil || *c.OwnerID != userID {
		return model.ErrMissingPermissions
	}
	if !c.HasRecipient(targetID) {
		return model.ErrUnknownUser
	}

	rendered, err := s.Serializer.Channel(ctx, c, targetID)
	if err != nil {
		return err
	}
	if err := s.removeRecipient(ctx, c, targetID); err != nil {
		return err
	}
	s.Publisher.Publish(ctx, pubsub.TopicChannelEvents, event.BusDMChannelDelete,
		event.Data{UserIDs: []int64{targetID}}, rendered)
	return nil
}

// CreateGuildChannel creates a channel in guildID.
func (s *Channels) CreateGuildChannel(ctx context.Context, userID, guildID int64, req CreateChannelRequest) (event.Channel, error) {
	if _, _, err := s.guildAccess(ctx, userID, guildID, model.PermManageChannels); err != nil {
		return event.Channel{}, err
	}

	var fe model.FormErrors
	name := strings.TrimSpace(req.Name)
	if n := utf8.RuneCountInString(name); n < 1 || n > 100 {
		fe.Add("name", model.CodeBaseTypeBadLength, "Must be between 1 and 100 in length.")
	}
	switch req.Type {
	case model.ChannelGuildText, model.ChannelGuildVoice, model.ChannelGuildCategory, model.ChannelGuildNews:
	default:
		fe.Add("type", model.CodeBaseTypeChoices, "Value must be one of {0, 2, 4, 5}.")
	}
	if err := fe.Err(); err != nil {
		return event.Channel{}, err
	}
	if req.Type == model.ChannelGuildText || req.Type == model.ChannelGuildNews {
		name = strings.ToLower(strings.ReplaceAll(name, " ", "-"))
	}

	c := model.Channel{
		ID:                   s.IDs.Next(),
		Type:                 req.Type,
		GuildID:              &guildID,
		Position:             req.Position,
		ParentID:             req.ParentID.Int64(),
		Name:                 &name,
		Topic:                req.Topic,
		NSFW:                 req.NSFW,
		PermissionOverwrites: req.PermissionOverwrites,
	}
	if req.Type == model.ChannelGuildVoice {
		c.Bitrate = 64000
	}
	c, err := s.Stores.Channels.Create(ctx, c)
	if err != nil {
		return event.Channel{}, fmt.Errorf("failed to create channel: %w", err)
	}

	rendered, err := s.Serializer.Channel(ctx, c, userID)
	if err != nil {
		return event.Channel{}, err
	}
	s.Logger.Info("Channels: guild channel created",
		"guild_id", guildID,
		"channel_id", c.ID)
	s.Publisher.Publish(ctx, pubsub.TopicChannelEvents, event.BusChannelCreate,
		event.Data{GuildID: guildID}, rendered)
	s.audit(ctx, model.AuditLogEntry{
		GuildID:    guildID,
		UserID:     userID,
		TargetID:   &c.ID,
		ActionType: model.AuditChannelCreate,
		Changes:    model.AuditChanges(map[string]any{"name": name, "type": req.Type}),
	})
	return rendered, nil
}

// GuildChannels lists the channels of guildID visible to userID.
func (s *Channels) GuildChannels(ctx context.Context, userID, guildID int64) ([]event.Channel, error) {
	_, member, err := s.guildAccess(ctx, userID, guildID, 0)
	if err != nil {
		return nil, err
	}
	channels, err := s.Stores.Channels.GuildChannels(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get guild channels: %w", err)
	}

	out := make([]event.Channel, 0, len(channels))
	for i := range channels {
		perms, err := s.Stores.Guilds.MemberPermissions(ctx, member, &channels[i])
		if err != nil {
			return nil, fmt.Errorf("failed to compute permissions: %w", err)
		}
		if !perms.Has(model.PermViewChannel) {
			continue
		}
		rendered, err := s.Serializer.Channel(ctx, channels[i], userID)
		if err != nil {
			return nil, err
		}
		out = append(out, rendered)
	}
	return out, nil
}

// dedupeIDs drops duplicates and self from ids, keeping order.
func dedupeIDs(ids []int64, self int64) []int64 {
	seen := map[int64]struct{}{self: {}}
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
