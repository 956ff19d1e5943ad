package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yepcord/server-sub002/internal/event"
	"github.com/yepcord/server-sub002/internal/model"
	"github.com/yepcord/server-sub002/internal/pubsub"
)

const (
	defaultInviteMaxAge = 86400
	maxInviteUses       = 100
)

// CreateInviteRequest is the body of POST /channels/{id}/invites.
type CreateInviteRequest struct {
	MaxAge  *int `json:"max_age"`
	MaxUses int  `json:"max_uses"`
}

// Invites implements invite creation, lookup, use and deletion.
type Invites struct {
	Deps
	now func() time.Time
}

func NewInvites(deps Deps) *Invites {
	return &Invites{Deps: deps, now: time.Now}
}

// Create makes an invite to a guild channel or a group DM.
func (s *Invites) Create(ctx context.Context, userID, channelID int64, req CreateInviteRequest) (event.Invite, error) {
	c, _, err := s.channelAccess(ctx, userID, channelID, model.PermCreateInstantInvite)
	if err != nil {
		return event.Invite{}, err
	}
	if c.Type == model.ChannelDM {
		return event.Invite{}, model.ErrCannotExecuteOnDM
	}

	maxAge := defaultInviteMaxAge
	if req.MaxAge != nil {
		maxAge = *req.MaxAge
	}
	var fe model.FormErrors
	if !validInviteAge(maxAge) {
		fe.Add("max_age", model.CodeBaseTypeChoices, "Value must be one of (0, 1800, 3600, 21600, 43200, 86400, 604800).")
	}
	if req.MaxUses < 0 || req.MaxUses > maxInviteUses {
		fe.Add("max_uses", model.CodeNumberTypeMax, "int value should be less than or equal to 100.")
	}
	if err := fe.Err(); err != nil {
		return event.Invite{}, err
	}

	inv := model.Invite{
		ID:        s.IDs.Next(),
		ChannelID: c.ID,
		GuildID:   c.GuildID,
		InviterID: userID,
		MaxAge:    maxAge,
		MaxUses:   req.MaxUses,
	}
	if err := s.Stores.Invites.Create(ctx, inv); err != nil {
		return event.Invite{}, fmt.Errorf("failed to create invite: %w", err)
	}

	rendered, err := s.render(ctx, inv, c)
	if err != nil {
		return event.Invite{}, err
	}
	if c.GuildID != nil {
		code := inv.Code()
		s.audit(ctx, model.AuditLogEntry{
			GuildID:    *c.GuildID,
			UserID:     userID,
			TargetID:   &inv.ID,
			ActionType: model.AuditInviteCreate,
			Changes: model.AuditChanges(map[string]any{
				"code":       code,
				"channel_id": model.Snowflake(c.ID),
				"max_age":    maxAge,
				"max_uses":   req.MaxUses,
			}),
		})
	}
	return rendered, nil
}

func validInviteAge(v int) bool {
	switch v {
	case 0, 1800, 3600, 21600, 43200, 86400, 604800:
		return true
	}
	return false
}

// Get resolves an invite code. Expired or used-up invites are removed on
// sight.
func (s *Invites) Get(ctx context.Context, code string) (event.Invite, error) {
	inv, c, err := s.resolve(ctx, code)
	if err != nil {
		return event.Invite{}, err
	}
	return s.render(ctx, inv, c)
}

// ChannelInvites lists the invites of channelID.
func (s *Invites) ChannelInvites(ctx context.Context, userID, channelID int64) ([]event.Invite, error) {
	c, _, err := s.channelAccess(ctx, userID, channelID, model.PermManageChannels)
	if err != nil {
		return nil, err
	}
	invites, err := s.Stores.Invites.ChannelInvites(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invites: %w", err)
	}
	out := make([]event.Invite, 0, len(invites))
	for _, inv := range invites {
		rendered, err := s.render(ctx, inv, c)
		if err != nil {
			return nil, err
		}
		out = append(out, rendered)
	}
	return out, nil
}

// Use joins userID to the invite's guild or group DM.
func (s *Invites) Use(ctx context.Context, userID int64, code string) (event.Invite, error) {
	inv, c, err := s.resolve(ctx, code)
	if err != nil {
		return event.Invite{}, err
	}

	var joined bool
	if inv.GuildID != nil {
		joined, err = s.joinGuild(ctx, userID, *inv.GuildID)
	} else {
		joined, err = s.joinGroup(ctx, userID, c)
	}
	if err != nil {
		return event.Invite{}, err
	}

	if joined {
		if err := s.Stores.Invites.IncrementUses(ctx, inv.ID); err != nil {
			return event.Invite{}, fmt.Errorf("failed to count invite use: %w", err)
		}
		inv.Uses++
		if inv.MaxUses > 0 && inv.Uses >= inv.MaxUses {
			s.remove(ctx, inv)
		}
	}
	return s.render(ctx, inv, c)
}

func (s *Invites) joinGuild(ctx context.Context, userID, guildID int64) (bool, error) {
	_, err := s.Stores.Guilds.GetMember(ctx, guildID, userID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return false, fmt.Errorf("failed to get member: %w", err)
	}

	_, err = s.Stores.Guilds.GetBan(ctx, guildID, userID)
	if err == nil {
		return false, model.ErrUserBanned
	}
	if !errors.Is(err, model.ErrNotFound) {
		return false, fmt.Errorf("failed to get ban: %w", err)
	}

	member := model.GuildMember{ID: s.IDs.Next(), UserID: userID, GuildID: guildID}
	if err := s.Stores.Guilds.AddMember(ctx, member); err != nil {
		return false, fmt.Errorf("failed to add member: %w", err)
	}

	s.Logger.Info("Invites: member joined",
		"guild_id", guildID,
		"user_id", userID)
	s.Publisher.Publish(ctx, pubsub.TopicGuildEvents, event.BusGuildCreate,
		event.Data{UserIDs: []int64{userID}, GuildID: guildID}, nil)

	rendered, err := s.Serializer.Member(ctx, member)
	if err != nil {
		return true, err
	}
	s.Publisher.Publish(ctx, pubsub.TopicGuildEvents, event.BusGuildMemberUpdate,
		event.Data{GuildID: guildID}, rendered.WithGuild(guildID))
	return true, nil
}

func (s *Invites) joinGroup(ctx context.Context, userID int64, c model.Channel) (bool, error) {
	if c.HasRecipient(userID) {
		return false, nil
	}
	if len(c.Recipients) >= model.GroupDMMaxRecipients {
		return false, model.InvalidForm("recipients", model.CodeBaseTypeMaxLength, "Must be 10 or fewer in length.")
	}
	if err := s.Stores.Channels.AddRecipient(ctx, c.ID, userID); err != nil {
		return false, fmt.Errorf("failed to add recipient: %w", err)
	}

	user, err := s.Serializer.User(ctx, userID)
	if err != nil {
		return true, err
	}
	s.Publisher.Publish(ctx, pubsub.TopicChannelEvents, event.BusChannelRecipientAdd,
		event.Data{UserIDs: c.Recipients}, event.RecipientPayload{ChannelID: c.ID, User: user})
	s.Publisher.Publish(ctx, pubsub.TopicChannelEvents, event.BusDMChannelCreate,
		event.Data{UserIDs: []int64{userID}, ChannelID: c.ID}, nil)
	return true, nil
}

// Delete revokes an invite. The inviter may always revoke it; others need
// MANAGE_CHANNELS on the channel.
func (s *Invites) Delete(ctx context.Context, userID int64, code string) (event.Invite, error) {
	inv, c, err := s.resolve(ctx, code)
	if err != nil {
		return event.Invite{}, err
	}
	if inv.InviterID != userID {
		if _, _, err := s.channelAccess(ctx, userID, c.ID, model.PermManageChannels); err != nil {
			return event.Invite{}, err
		}
		if c.IsPrivate() && (c.OwnerID == nil || *c.OwnerID != userID) {
			return event.Invite{}, model.ErrMissingPermissions
		}
	}

	rendered, err := s.render(ctx, inv, c)
	if err != nil {
		return event.Invite{}, err
	}
	s.remove(ctx, inv)
	if inv.GuildID != nil {
		s.audit(ctx, model.AuditLogEntry{
			GuildID:    *inv.GuildID,
			UserID:     userID,
			TargetID:   &inv.ID,
			ActionType: model.AuditInviteDelete,
		})
	}
	return rendered, nil
}

// resolve loads an invite by code or vanity code together with its channel.
func (s *Invites) resolve(ctx context.Context, code string) (model.Invite, model.Channel, error) {
	inv, err := s.lookup(ctx, code)
	if err != nil {
		return model.Invite{}, model.Channel{}, err
	}
	if !inv.Usable(s.now()) {
		s.remove(ctx, inv)
		return model.Invite{}, model.Channel{}, model.ErrUnknownInvite
	}

	c, err := s.Stores.Channels.GetByID(ctx, inv.ChannelID)
	if errors.Is(err, model.ErrNotFound) {
		return model.Invite{}, model.Channel{}, model.ErrUnknownInvite
	}
	if err != nil {
		return model.Invite{}, model.Channel{}, fmt.Errorf("failed to get channel: %w", err)
	}
	return inv, c, nil
}

func (s *Invites) lookup(ctx context.Context, code string) (model.Invite, error) {
	if id, err := model.InviteIDFromCode(code); err == nil {
		inv, err := s.Stores.Invites.GetByID(ctx, id)
		if err == nil {
			return inv, nil
		}
		if !errors.Is(err, model.ErrNotFound) {
			return model.Invite{}, fmt.Errorf("failed to get invite: %w", err)
		}
	}

	inv, err := s.Stores.Invites.GetByVanity(ctx, code)
	if errors.Is(err, model.ErrNotFound) {
		return model.Invite{}, model.ErrUnknownInvite
	}
	if err != nil {
		return model.Invite{}, fmt.Errorf("failed to get invite: %w", err)
	}
	return inv, nil
}

// remove deletes inv and announces it. Failures are logged only.
func (s *Invites) remove(ctx context.Context, inv model.Invite) {
	if err := s.Stores.Invites.Delete(ctx, inv.ID); err != nil {
		s.Logger.Error("Invites: failed to delete invite",
			"invite_id", inv.ID,
			"error", err)
		return
	}

	d := event.Data{ChannelID: inv.ChannelID}
	if inv.GuildID != nil {
		d = event.Data{GuildID: *inv.GuildID, Permission: model.PermManageChannels}
	}
	s.Publisher.Publish(ctx, pubsub.TopicGuildEvents, event.BusInviteDelete, d,
		event.InviteDeletePayload{Code: inv.Code(), ChannelID: inv.ChannelID, GuildID: inv.GuildID})
}

func (s *Invites) render(ctx context.Context, inv model.Invite, c model.Channel) (event.Invite, error) {
	var guild *model.Guild
	if inv.GuildID != nil {
		g, err := s.Stores.Guilds.GetByID(ctx, *inv.GuildID)
		if errors.Is(err, model.ErrNotFound) {
			return event.Invite{}, model.ErrUnknownInvite
		}
		if err != nil {
			return event.Invite{}, fmt.Errorf("failed to get guild: %w", err)
		}
		guild = &g
	}

	var inviter *event.User
	if u, err := s.Serializer.User(ctx, inv.InviterID); err == nil {
		inviter = &u
	}
	return event.NewInvite(inv, c, guild, inviter), nil
}
