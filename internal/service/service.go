// Package service implements the REST operations. Every mutation is
// committed to the store first and then announced with exactly one bus
// event per audience.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/yepcord/server-sub002/internal/event"
	"github.com/yepcord/server-sub002/internal/logger"
	"github.com/yepcord/server-sub002/internal/model"
	"github.com/yepcord/server-sub002/internal/pubsub"
	"github.com/yepcord/server-sub002/internal/snowflake"
)

// Deps are the collaborators shared by the REST services.
type Deps struct {
	Stores     model.Stores
	Serializer *event.Serializer
	Publisher  *Publisher
	IDs        *snowflake.Generator
	Logger     *logger.Logger
}

// channelAccess loads channelID and checks that userID can see it and, for
// guild channels, holds need in it. The caller's membership is returned for
// guild channels.
func (d Deps) channelAccess(ctx context.Context, userID, channelID int64, need model.Permission) (model.Channel, *model.GuildMember, error) {
	c, err := d.Stores.Channels.GetByID(ctx, channelID)
	if errors.Is(err, model.ErrNotFound) {
		return model.Channel{}, nil, model.ErrUnknownChannel
	}
	if err != nil {
		return model.Channel{}, nil, fmt.Errorf("failed to get channel: %w", err)
	}

	if c.IsPrivate() {
		if !c.HasRecipient(userID) {
			return model.Channel{}, nil, model.ErrUnknownChannel
		}
		return c, nil, nil
	}
	if c.GuildID == nil {
		return model.Channel{}, nil, model.ErrUnknownChannel
	}

	member, err := d.Stores.Guilds.GetMember(ctx, *c.GuildID, userID)
	if errors.Is(err, model.ErrNotFound) {
		return model.Channel{}, nil, model.ErrMissingAccess
	}
	if err != nil {
		return model.Channel{}, nil, fmt.Errorf("failed to get member: %w", err)
	}

	perms, err := d.Stores.Guilds.MemberPermissions(ctx, member, &c)
	if err != nil {
		return model.Channel{}, nil, fmt.Errorf("failed to compute permissions: %w", err)
	}
	if !perms.Has(model.PermViewChannel) {
		return model.Channel{}, nil, model.ErrMissingAccess
	}
	if !perms.Has(need) {
		return model.Channel{}, nil, model.ErrMissingPermissions
	}
	return c, &member, nil
}

// guildAccess loads guildID and checks that userID is a member holding need.
func (d Deps) guildAccess(ctx context.Context, userID, guildID int64, need model.Permission) (model.Guild, model.GuildMember, error) {
	g, err := d.Stores.Guilds.GetByID(ctx, guildID)
	if errors.Is(err, model.ErrNotFound) {
		return model.Guild{}, model.GuildMember{}, model.ErrUnknownGuild
	}
	if err != nil {
		return model.Guild{}, model.GuildMember{}, fmt.Errorf("failed to get guild: %w", err)
	}

	member, err := d.Stores.Guilds.GetMember(ctx, guildID, userID)
	if errors.Is(err, model.ErrNotFound) {
		return model.Guild{}, model.GuildMember{}, model.ErrUnknownGuild
	}
	if err != nil {
		return model.Guild{}, model.GuildMember{}, fmt.Errorf("failed to get member: %w", err)
	}

	if need != 0 {
		perms, err := d.Stores.Guilds.MemberPermissions(ctx, member, nil)
		if err != nil {
			return model.Guild{}, model.GuildMember{}, fmt.Errorf("failed to compute permissions: %w", err)
		}
		if !perms.Has(need) {
			return model.Guild{}, model.GuildMember{}, model.ErrMissingPermissions
		}
	}
	return g, member, nil
}

// user loads a user row, mapping a miss to the Unknown User API error.
func (d Deps) user(ctx context.Context, userID int64) (model.User, error) {
	u, err := d.Stores.Users.GetByID(ctx, userID)
	if errors.Is(err, model.ErrNotFound) || (err == nil && u.Deleted) {
		return model.User{}, model.ErrUnknownUser
	}
	if err != nil {
		return model.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// audit records an administrative action and announces it to members who
// can read the audit log. Failures are logged only.
func (d Deps) audit(ctx context.Context, entry model.AuditLogEntry) {
	entry.ID = d.IDs.Next()
	if err := d.Stores.Guilds.AddAuditLogEntry(ctx, entry); err != nil {
		d.Logger.Error("Audit log: failed to add entry",
			"guild_id", entry.GuildID,
			"action_type", entry.ActionType,
			"error", err)
		return
	}
	d.Publisher.Publish(ctx, pubsub.TopicGuildEvents, event.BusGuildAuditLogEntry,
		event.Data{GuildID: entry.GuildID, Permission: model.PermViewAuditLog},
		event.NewAuditLogEntry(entry))
}
