package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/yepcord/server-sub002/internal/event"
	"github.com/yepcord/server-sub002/internal/model"
	"github.com/yepcord/server-sub002/internal/pubsub"
)

const (
	defaultMemberLimit = 100
	maxMemberLimit     = 1000
	defaultRoleName    = "new role"
)

// CreateGuildRequest is the body of POST /guilds.
type CreateGuildRequest struct {
	Name   string  `json:"name"`
	Icon   *string `json:"icon"`
	Region string  `json:"region"`
}

// CreateEmojiRequest is the body of POST /guilds/{id}/emojis. Image is a
// data URI.
type CreateEmojiRequest struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

// Guilds implements guild, member, role, ban and emoji endpoints.
type Guilds struct {
	Deps
	storage model.Storage
}

func NewGuilds(deps Deps, storage model.Storage) *Guilds {
	return &Guilds{Deps: deps, storage: storage}
}

// Create makes a guild owned by userID with an @everyone role, a text and
// a voice category each holding one default channel.
func (s *Guilds) Create(ctx context.Context, userID int64, req CreateGuildRequest) (event.Guild, error) {
	name := strings.TrimSpace(req.Name)
	if n := utf8.RuneCountInString(name); n < 2 || n > 100 {
		return event.Guild{}, model.InvalidForm("name", model.CodeBaseTypeBadLength, "Must be between 2 and 100 in length.")
	}
	region := req.Region
	if region == "" {
		region = "deprecated"
	}

	guildID := s.IDs.Next()
	textCategory, voiceCategory := s.IDs.Next(), s.IDs.Next()
	general, voice := s.IDs.Next(), s.IDs.Next()
	str := func(v string) *string { return &v }

	channels := []model.Channel{
		{ID: textCategory, Type: model.ChannelGuildCategory, GuildID: &guildID, Name: str("Text Channels")},
		{ID: voiceCategory, Type: model.ChannelGuildCategory, GuildID: &guildID, Name: str("Voice Channels"), Position: 1},
		{ID: general, Type: model.ChannelGuildText, GuildID: &guildID, Name: str("general"), ParentID: &textCategory},
		{ID: voice, Type: model.ChannelGuildVoice, GuildID: &guildID, Name: str("General"), ParentID: &voiceCategory, Bitrate: 64000},
	}
	g := model.Guild{
		ID:              guildID,
		OwnerID:         userID,
		Name:            name,
		Icon:            req.Icon,
		Region:          region,
		SystemChannelID: &general,
		AFKTimeout:      300,
		PreferredLocale: "en-US",
		Features:        []string{},
	}
	roles := []model.Role{{
		ID:          guildID,
		GuildID:     guildID,
		Name:        "@everyone",
		Permissions: model.DefaultEveryonePermissions,
	}}
	owner := model.GuildMember{ID: s.IDs.Next(), UserID: userID, GuildID: guildID}

	if err := s.Stores.Guilds.Create(ctx, g, roles, channels, owner); err != nil {
		return event.Guild{}, fmt.Errorf("failed to create guild: %w", err)
	}

	s.Logger.Info("Guilds: guild created",
		"guild_id", guildID,
		"owner_id", userID)
	s.Publisher.Publish(ctx, pubsub.TopicGuildEvents, event.BusGuildCreate,
		event.Data{UserIDs: []int64{userID}, GuildID: guildID}, nil)
	return s.Serializer.Guild(ctx, g, userID)
}

// Get renders guildID for a member.
func (s *Guilds) Get(ctx context.Context, userID, guildID int64) (event.Guild, error) {
	g, _, err := s.guildAccess(ctx, userID, guildID, 0)
	if err != nil {
		return event.Guild{}, err
	}
	return s.Serializer.Guild(ctx, g, userID)
}

// Update applies patch to the guild settings. Ownership transfer is
// reserved to the owner.
func (s *Guilds) Update(ctx context.Context, userID, guildID int64, patch model.GuildPatch) (event.Guild, error) {
	before, _, err := s.guildAccess(ctx, userID, guildID, model.PermManageGuild)
	if err != nil {
		return event.Guild{}, err
	}

	var fe model.FormErrors
	if patch.Name.Set {
		if n := utf8.RuneCountInString(strings.TrimSpace(patch.Name.Value)); n < 2 || n > 100 {
			fe.Add("name", model.CodeBaseTypeBadLength, "Must be between 2 and 100 in length.")
		}
	}
	if patch.AFKTimeout.Set && !validAFKTimeout(patch.AFKTimeout.Value) {
		fe.Add("afk_timeout", model.CodeBaseTypeChoices, "Value must be one of {60, 300, 900, 1800, 3600}.")
	}
	if err := fe.Err(); err != nil {
		return event.Guild{}, err
	}
	if patch.OwnerID.Set && int64(patch.OwnerID.Value) != before.OwnerID {
		if before.OwnerID != userID {
			return event.Guild{}, model.ErrMissingPermissions
		}
		if _, err := s.member(ctx, guildID, int64(patch.OwnerID.Value)); err != nil {
			return event.Guild{}, err
		}
	}
	for _, ref := range []model.Opt[*model.Snowflake]{patch.SystemChannelID, patch.AFKChannelID} {
		if !ref.Set || ref.Value == nil {
			continue
		}
		c, err := s.Stores.Channels.GetByID(ctx, int64(*ref.Value))
		if errors.Is(err, model.ErrNotFound) || (err == nil && (c.GuildID == nil || *c.GuildID != guildID)) {
			return event.Guild{}, model.ErrUnknownChannel
		}
		if err != nil {
			return event.Guild{}, fmt.Errorf("failed to get channel: %w", err)
		}
	}

	after := patch.Apply(before)
	changes := model.DiffGuild(before, after).Changes()
	if len(changes) > 0 {
		if err := s.Stores.Guilds.Update(ctx, after); err != nil {
			return event.Guild{}, fmt.Errorf("failed to update guild: %w", err)
		}
	}

	rendered, err := s.Serializer.Guild(ctx, after, userID)
	if err != nil {
		return event.Guild{}, err
	}
	if len(changes) == 0 {
		return rendered, nil
	}

	s.Logger.Info("Guilds: guild updated",
		"guild_id", guildID,
		"user_id", userID,
		"changes", len(changes))
	s.Publisher.Publish(ctx, pubsub.TopicGuildEvents, event.BusGuildUpdate,
		event.Data{GuildID: guildID}, rendered)
	s.audit(ctx, model.AuditLogEntry{
		GuildID:    guildID,
		UserID:     userID,
		TargetID:   &guildID,
		ActionType: model.AuditGuildUpdate,
		Changes:    model.AuditChanges(changes),
	})
	return rendered, nil
}

func validAFKTimeout(v int) bool {
	switch v {
	case 60, 300, 900, 1800, 3600:
		return true
	}
	return false
}

// Delete removes a guild. Only the owner may do it.
func (s *Guilds) Delete(ctx context.Context, userID, guildID int64) error {
	g, _, err := s.guildAccess(ctx, userID, guildID, 0)
	if err != nil {
		return err
	}
	if g.OwnerID != userID {
		return model.ErrMissingPermissions
	}

	affected, err := s.Stores.Guilds.Delete(ctx, guildID)
	if err != nil {
		return fmt.Errorf("failed to delete guild: %w", err)
	}

	s.Logger.Info("Guilds: guild deleted",
		"guild_id", guildID,
		"members", len(affected))
	s.Publisher.Publish(ctx, pubsub.TopicGuildEvents, event.BusGuildDelete,
		event.Data{UserIDs: affected}, event.GuildDelete{ID: guildID})
	return nil
}

// Leave removes userID from guildID. The owner must delete the guild or
// transfer it first.
func (s *Guilds) Leave(ctx context.Context, userID, guildID int64) error {
	g, _, err := s.guildAccess(ctx, userID, guildID, 0)
	if err != nil {
		return err
	}
	if g.OwnerID == userID {
		return model.ErrInvalidGuild
	}
	return s.removeMember(ctx, guildID, userID)
}

// Kick removes targetID from guildID.
func (s *Guilds) Kick(ctx context.Context, userID, guildID, targetID int64) error {
	g, actor, err := s.guildAccess(ctx, userID, guildID, model.PermKickMembers)
	if err != nil {
		return err
	}
	target, err := s.member(ctx, guildID, targetID)
	if err != nil {
		return err
	}
	if err := s.checkHierarchy(ctx, g, actor, target); err != nil {
		return err
	}

	if err := s.removeMember(ctx, guildID, targetID); err != nil {
		return err
	}
	s.audit(ctx, model.AuditLogEntry{
		GuildID:    guildID,
		UserID:     userID,
		TargetID:   &targetID,
		ActionType: model.AuditMemberKick,
	})
	return nil
}

// removeMember drops the membership, the read states it implied, and tells
// both the leaver and the remaining members.
func (s *Guilds) removeMember(ctx context.Context, guildID, userID int64) error {
	if err := s.Stores.Guilds.RemoveMember(ctx, guildID, userID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	if err := s.Stores.ReadStates.DeleteForGuild(ctx, userID, guildID); err != nil {
		return fmt.Errorf("failed to delete read states: %w", err)
	}

	user, err := s.Serializer.User(ctx, userID)
	if err != nil {
		return err
	}
	s.Publisher.Publish(ctx, pubsub.TopicGuildEvents, event.BusGuildDelete,
		event.Data{UserIDs: []int64{userID}}, event.GuildDelete{ID: guildID})
	s.Publisher.Publish(ctx, pubsub.TopicGuildEvents, event.BusGuildMemberRemove,
		event.Data{GuildID: guildID}, event.MemberRemove{GuildID: guildID, User: user})
	return nil
}

// Ban bans targetID, removing the membership when there is one.
func (s *Guilds) Ban(ctx context.Context, userID, guildID, targetID int64, reason string) error {
	g, actor, err := s.guildAccess(ctx, userID, guildID, model.PermBanMembers)
	if err != nil {
		return err
	}
	if _, err := s.user(ctx, targetID); err != nil {
		return err
	}

	target, err := s.Stores.Guilds.GetMember(ctx, guildID, targetID)
	isMember := err == nil
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("failed to get member: %w", err)
	}
	if isMember {
		if err := s.checkHierarchy(ctx, g, actor, target); err != nil {
			return err
		}
	} else if targetID == g.OwnerID {
		return model.ErrMissingPermissions
	}

	if err := s.Stores.Guilds.CreateBan(ctx, model.Ban{GuildID: guildID, UserID: targetID, Reason: reason}); err != nil {
		return fmt.Errorf("failed to create ban: %w", err)
	}
	if isMember {
		if err := s.removeMember(ctx, guildID, targetID); err != nil {
			return err
		}
	}

	user, err := s.Serializer.User(ctx, targetID)
	if err != nil {
		return err
	}
	s.Logger.Info("Guilds: member banned",
		"guild_id", guildID,
		"user_id", targetID,
		"by", userID)
	s.Publisher.Publish(ctx, pubsub.TopicGuildEvents, event.BusGuildBanAdd,
		event.Data{GuildID: guildID, Permission: model.PermBanMembers},
		event.Ban{GuildID: &guildID, User: user})
	entry := model.AuditLogEntry{
		GuildID:    guildID,
		UserID:     userID,
		TargetID:   &targetID,
		ActionType: model.AuditMemberBanAdd,
	}
	if reason != "" {
		entry.Reason = &reason
	}
	s.audit(ctx, entry)
	return nil
}

// Unban lifts the ban of targetID.
func (s *Guilds) Unban(ctx context.Context, userID, guildID, targetID int64) error {
	if _, _, err := s.guildAccess(ctx, userID, guildID, model.PermBanMembers); err != nil {
		return err
	}
	if _, err := s.Stores.Guilds.GetBan(ctx, guildID, targetID); errors.Is(err, model.ErrNotFound) {
		return model.ErrUnknownBan
	} else if err != nil {
		return fmt.Errorf("failed to get ban: %w", err)
	}
	if err := s.Stores.Guilds.DeleteBan(ctx, guildID, targetID); err != nil {
		return fmt.Errorf("failed to delete ban: %w", err)
	}

	user, err := s.Serializer.User(ctx, targetID)
	if err != nil {
		return err
	}
	s.Publisher.Publish(ctx, pubsub.TopicGuildEvents, event.BusGuildBanRemove,
		event.Data{GuildID: guildID, Permission: model.PermBanMembers},
		event.Ban{GuildID: &guildID, User: user})
	s.audit(ctx, model.AuditLogEntry{
		GuildID:    guildID,
		UserID:     userID,
		TargetID:   &targetID,
		ActionType: model.AuditMemberBanRem,
	})
	return nil
}

// Members lists up to limit members of guildID.
func (s *Guilds) Members(ctx context.Context, userID, guildID int64, limit int) ([]event.Member, error) {
	if _, _, err := s.guildAccess(ctx, userID, guildID, 0); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultMemberLimit
	}
	if limit > maxMemberLimit {
		limit = maxMemberLimit
	}
	members, err := s.Stores.Guilds.Members(ctx, guildID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return s.Serializer.Members(ctx, members)
}

// Member renders one member of guildID.
func (s *Guilds) Member(ctx context.Context, userID, guildID, targetID int64) (event.Member, error) {
	if _, _, err := s.guildAccess(ctx, userID, guildID, 0); err != nil {
		return event.Member{}, err
	}
	m, err := s.member(ctx, guildID, targetID)
	if err != nil {
		return event.Member{}, err
	}
	return s.Serializer.Member(ctx, m)
}

// UpdateMember changes the nick, roles or voice state of targetID. Each
// field needs its own permission; editing one's own nick needs only
// CHANGE_NICKNAME.
func (s *Guilds) UpdateMember(ctx context.Context, userID, guildID, targetID int64, patch model.MemberPatch) (event.Member, error) {
	g, actor, err := s.guildAccess(ctx, userID, guildID, 0)
	if err != nil {
		return event.Member{}, err
	}
	target, err := s.member(ctx, guildID, targetID)
	if err != nil {
		return event.Member{}, err
	}
	perms, err := s.Stores.Guilds.MemberPermissions(ctx, actor, nil)
	if err != nil {
		return event.Member{}, fmt.Errorf("failed to compute permissions: %w", err)
	}

	need := model.Permission(0)
	if patch.Nick.Set {
		if targetID == userID {
			need |= model.PermChangeNickname
		} else {
			need |= model.PermManageNicknames
		}
		if patch.Nick.Value != nil && utf8.RuneCountInString(*patch.Nick.Value) > 32 {
			return event.Member{}, model.InvalidForm("nick", model.CodeBaseTypeMaxLength, "Must be 32 or fewer in length.")
		}
	}
	if patch.Roles.Set {
		need |= model.PermManageRoles
	}
	if patch.Mute.Set {
		need |= model.PermMuteMembers
	}
	if patch.Deaf.Set {
		need |= model.PermDeafenMembers
	}
	if !perms.Has(need) {
		return event.Member{}, model.ErrMissingPermissions
	}
	if targetID != userID {
		if err := s.checkHierarchy(ctx, g, actor, target); err != nil {
			return event.Member{}, err
		}
	}
	if patch.Roles.Set {
		if err := s.checkAssignableRoles(ctx, g, actor, patch.Roles.Value); err != nil {
			return event.Member{}, err
		}
	}

	changes := patch.Changes()
	after := patch.Apply(target)
	if len(changes) > 0 {
		if err := s.Stores.Guilds.UpdateMember(ctx, after); err != nil {
			return event.Member{}, fmt.Errorf("failed to update member: %w", err)
		}
	}
	rendered, err := s.Serializer.Member(ctx, after)
	if err != nil {
		return event.Member{}, err
	}
	if len(changes) == 0 {
		return rendered, nil
	}

	s.Publisher.Publish(ctx, pubsub.TopicGuildEvents, event.BusGuildMemberUpdate,
		event.Data{GuildID: guildID}, rendered.WithGuild(guildID))
	s.audit(ctx, model.AuditLogEntry{
		GuildID:    guildID,
		UserID:     userID,
		TargetID:   &targetID,
		ActionType: model.AuditMemberUpdate,
		Changes:    model.AuditChanges(changes),
	})
	return rendered, nil
}

func (s *Guilds) checkAssignableRoles(ctx context.Context, g model.Guild, actor model.GuildMember, ids []model.Snowflake) error {
	roles, err := s.roleIndex(ctx, g.ID)
	if err != nil {
		return err
	}
	top := topPosition(g, actor, roles)
	for _, id := range ids {
		r, ok := roles[int64(id)]
		if !ok || r.IsEveryone() {
			return model.ErrUnknownRole
		}
		if r.Position >= top {
			return model.ErrMissingPermissions
		}
	}
	return nil
}

// checkHierarchy requires actor to outrank target. The owner outranks
// everyone and can never be targeted.
func (s *Guilds) checkHierarchy(ctx context.Context, g model.Guild, actor, target model.GuildMember) error {
	if target.UserID == g.OwnerID {
		return model.ErrMissingPermissions
	}
	if actor.UserID == g.OwnerID {
		return nil
	}
	roles, err := s.roleIndex(ctx, g.ID)
	if err != nil {
		return err
	}
	if topPosition(g, actor, roles) <= topPosition(g, target, roles) {
		return model.ErrMissingPermissions
	}
	return nil
}

func (s *Guilds) roleIndex(ctx context.Context, guildID int64) (map[int64]model.Role, error) {
	roles, err := s.Stores.Guilds.Roles(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to load roles: %w", err)
	}
	out := make(map[int64]model.Role, len(roles))
	for _, r := range roles {
		out[r.ID] = r
	}
	return out, nil
}

func topPosition(g model.Guild, m model.GuildMember, roles map[int64]model.Role) int {
	if m.UserID == g.OwnerID {
		return math.MaxInt
	}
	top := 0
	for _, id := range m.Roles {
		if r, ok := roles[id]; ok && r.Position > top {
			top = r.Position
		}
	}
	return top
}

func (s *Guilds) member(ctx context.Context, guildID, userID int64) (model.GuildMember, error) {
	m, err := s.Stores.Guilds.GetMember(ctx, guildID, userID)
	if errors.Is(err, model.ErrNotFound) {
		return model.GuildMember{}, model.ErrUnknownMember
	}
	if err != nil {
		return model.GuildMember{}, fmt.Errorf("failed to get member: %w", err)
	}
	return m, nil
}

// Roles lists the roles of guildID.
func (s *Guilds) Roles(ctx context.Context, userID, guildID int64) ([]event.Role, error) {
	if _, _, err := s.guildAccess(ctx, userID, guildID, 0); err != nil {
		return nil, err
	}
	roles, err := s.Stores.Guilds.Roles(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to load roles: %w", err)
	}
	out := make([]event.Role, 0, len(roles))
	for _, r := range roles {
		out = append(out, event.NewRole(r))
	}
	return out, nil
}

// CreateRole adds a role just above @everyone.
func (s *Guilds) CreateRole(ctx context.Context, userID, guildID int64, patch model.RolePatch) (event.Role, error) {
	if _, _, err := s.guildAccess(ctx, userID, guildID, model.PermManageRoles); err != nil {
		return event.Role{}, err
	}
	if err := validateRolePatch(patch); err != nil {
		return event.Role{}, err
	}

	r := patch.Apply(model.Role{
		ID:       s.IDs.Next(),
		GuildID:  guildID,
		Name:     defaultRoleName,
		Position: 1,
	})
	if err := s.Stores.Guilds.CreateRole(ctx, r); err != nil {
		return event.Role{}, fmt.Errorf("failed to create role: %w", err)
	}

	rendered := event.NewRole(r)
	s.Publisher.Publish(ctx, pubsub.TopicGuildEvents, event.BusGuildRoleCreate,
		event.Data{GuildID: guildID}, event.RoleEvent{GuildID: guildID, Role: rendered})
	s.audit(ctx, model.AuditLogEntry{
		GuildID:    guildID,
		UserID:     userID,
		TargetID:   &r.ID,
		ActionType: model.AuditRoleCreate,
		Changes:    model.AuditChanges(model.DiffRole(model.Role{}, r).Changes()),
	})
	return rendered, nil
}

// UpdateRole applies patch to roleID.
func (s *Guilds) UpdateRole(ctx context.Context, userID, guildID, roleID int64, patch model.RolePatch) (event.Role, error) {
	if _, _, err := s.guildAccess(ctx, userID, guildID, model.PermManageRoles); err != nil {
		return event.Role{}, err
	}
	before, err := s.role(ctx, guildID, roleID)
	if err != nil {
		return event.Role{}, err
	}
	if err := validateRolePatch(patch); err != nil {
		return event.Role{}, err
	}
	if before.IsEveryone() && (patch.Name.Set || patch.Position.Set) {
		return event.Role{}, model.ErrMissingPermissions
	}

	after := patch.Apply(before)
	changes := model.DiffRole(before, after).Changes()
	rendered := event.NewRole(after)
	if len(changes) == 0 {
		return rendered, nil
	}
	if err := s.Stores.Guilds.UpdateRole(ctx, after); err != nil {
		return event.Role{}, fmt.Errorf("failed to update role: %w", err)
	}

	s.Publisher.Publish(ctx, pubsub.TopicGuildEvents, event.BusGuildRoleUpdate,
		event.Data{GuildID: guildID}, event.RoleEvent{GuildID: guildID, Role: rendered})
	s.audit(ctx, model.AuditLogEntry{
		GuildID:    guildID,
		UserID:     userID,
		TargetID:   &roleID,
		ActionType: model.AuditRoleUpdate,
		Changes:    model.AuditChanges(changes),
	})
	return rendered, nil
}

// DeleteRole removes roleID. @everyone cannot be deleted.
func (s *Guilds) DeleteRole(ctx context.Context, userID, guildID, roleID int64) error {
	if _, _, err := s.guildAccess(ctx, userID, guildID, model.PermManageRoles); err != nil {
		return err
	}
	r, err := s.role(ctx, guildID, roleID)
	if err != nil {
		return err
	}
	if r.IsEveryone() {
		return model.ErrMissingPermissions
	}
	if err := s.Stores.Guilds.DeleteRole(ctx, guildID, roleID); err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}

	s.Publisher.Publish(ctx, pubsub.TopicGuildEvents, event.BusGuildRoleDelete,
		event.Data{GuildID: guildID}, event.RoleDelete{GuildID: guildID, RoleID: roleID})
	s.audit(ctx, model.AuditLogEntry{
		GuildID:    guildID,
		UserID:     userID,
		TargetID:   &roleID,
		ActionType: model.AuditRoleDelete,
	})
	return nil
}

func (s *Guilds) role(ctx context.Context, guildID, roleID int64) (model.Role, error) {
	r, err := s.Stores.Guilds.GetRole(ctx, guildID, roleID)
	if errors.Is(err, model.ErrNotFound) {
		return model.Role{}, model.ErrUnknownRole
	}
	if err != nil {
		return model.Role{}, fmt.Errorf("failed to get role: %w", err)
	}
	return r, nil
}

func validateRolePatch(p model.RolePatch) error {
	var fe model.FormErrors
	if p.Name.Set && utf8.RuneCountInString(p.Name.Value) > 100 {
		fe.Add("name", model.CodeBaseTypeMaxLength, "Must be 100 or fewer in length.")
	}
	if p.Color.Set && (p.Color.Value < 0 || p.Color.Value > maxEmbedColor) {
		fe.Add("color", model.CodeNumberTypeMax, "int value should be less than or equal to 16777215.")
	}
	if p.Permissions.Set && p.Permissions.Value&^model.PermAll != 0 {
		fe.Add("permissions", model.CodeNumberTypeMax, "Unknown permission bits.")
	}
	return fe.Err()
}

// Emojis lists the custom emojis of guildID.
func (s *Guilds) Emojis(ctx context.Context, userID, guildID int64) ([]event.Emoji, error) {
	if _, _, err := s.guildAccess(ctx, userID, guildID, 0); err != nil {
		return nil, err
	}
	return s.renderEmojis(ctx, guildID)
}

func (s *Guilds) renderEmojis(ctx context.Context, guildID int64) ([]event.Emoji, error) {
	emojis, err := s.Stores.Guilds.Emojis(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to load emojis: %w", err)
	}
	ids := make([]int64, 0, len(emojis))
	for _, e := range emojis {
		ids = append(ids, e.UserID)
	}
	users, err := s.Serializer.Users(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]event.Emoji, 0, len(emojis))
	for _, e := range emojis {
		var creator *event.User
		if u, ok := users[e.UserID]; ok {
			creator = &u
		}
		out = append(out, event.NewEmoji(e, creator))
	}
	return out, nil
}

// CreateEmoji stores the image of a new custom emoji and announces the new
// emoji list.
func (s *Guilds) CreateEmoji(ctx context.Context, userID, guildID int64, req CreateEmojiRequest) (event.Emoji, error) {
	if _, _, err := s.guildAccess(ctx, userID, guildID, model.PermManageEmojis); err != nil {
		return event.Emoji{}, err
	}

	var fe model.FormErrors
	name := strings.Trim(req.Name, ":")
	if n := utf8.RuneCountInString(name); n < 2 || n > 32 {
		fe.Add("name", model.CodeBaseTypeBadLength, "Must be between 2 and 32 in length.")
	}
	image, mime, err := decodeDataURI(req.Image)
	if err != nil {
		fe.Add("image", model.CodeBaseTypeRequired, "Invalid image data")
	}
	if err := fe.Err(); err != nil {
		return event.Emoji{}, err
	}
	if s.storage == nil {
		return event.Emoji{}, fmt.Errorf("failed to store emoji: no storage configured")
	}

	e := model.Emoji{
		ID:            s.IDs.Next(),
		GuildID:       guildID,
		UserID:        userID,
		Name:          name,
		RequireColons: true,
		Animated:      mime == "image/gif",
		Available:     true,
	}
	if err := s.storage.Upload(ctx, emojiKey(e.ID), bytes.NewReader(image)); err != nil {
		return event.Emoji{}, fmt.Errorf("failed to store emoji: %w", err)
	}
	if err := s.Stores.Guilds.CreateEmoji(ctx, e); err != nil {
		return event.Emoji{}, fmt.Errorf("failed to create emoji: %w", err)
	}

	creator, err := s.Serializer.User(ctx, userID)
	if err != nil {
		return event.Emoji{}, err
	}
	if err := s.announceEmojis(ctx, guildID); err != nil {
		return event.Emoji{}, err
	}
	s.audit(ctx, model.AuditLogEntry{
		GuildID:    guildID,
		UserID:     userID,
		TargetID:   &e.ID,
		ActionType: model.AuditEmojiCreate,
		Changes:    model.AuditChanges(map[string]any{"name": name}),
	})
	return event.NewEmoji(e, &creator), nil
}

// DeleteEmoji removes a custom emoji and its image.
func (s *Guilds) DeleteEmoji(ctx context.Context, userID, guildID, emojiID int64) error {
	if _, _, err := s.guildAccess(ctx, userID, guildID, model.PermManageEmojis); err != nil {
		return err
	}
	if err := s.Stores.Guilds.DeleteEmoji(ctx, guildID, emojiID); errors.Is(err, model.ErrNotFound) {
		return model.ErrUnknownEmoji
	} else if err != nil {
		return fmt.Errorf("failed to delete emoji: %w", err)
	}
	if s.storage != nil {
		if err := s.storage.Delete(ctx, emojiKey(emojiID)); err != nil {
			s.Logger.Warn("Guilds: failed to delete emoji image",
				"emoji_id", emojiID,
				"error", err)
		}
	}

	if err := s.announceEmojis(ctx, guildID); err != nil {
		return err
	}
	s.audit(ctx, model.AuditLogEntry{
		GuildID:    guildID,
		UserID:     userID,
		TargetID:   &emojiID,
		ActionType: model.AuditEmojiDelete,
	})
	return nil
}

func (s *Guilds) announceEmojis(ctx context.Context, guildID int64) error {
	emojis, err := s.renderEmojis(ctx, guildID)
	if err != nil {
		return err
	}
	s.Publisher.Publish(ctx, pubsub.TopicGuildEvents, event.BusGuildEmojisUpdate,
		event.Data{GuildID: guildID}, event.EmojisUpdate{GuildID: guildID, Emojis: emojis})
	return nil
}

func emojiKey(id int64) string {
	return "emojis/" + strconv.FormatInt(id, 10)
}

// decodeDataURI splits "data:<mime>;base64,<payload>".
func decodeDataURI(uri string) ([]byte, string, error) {
	header, payload, ok := strings.Cut(uri, ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return nil, "", errors.New("not a base64 data uri")
	}
	mime := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
	switch mime {
	case "image/png", "image/jpeg", "image/gif", "image/webp":
	default:
		return nil, "", fmt.Errorf("unsupported image type %q", mime)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	if len(data) == 0 {
		return nil, "", errors.New("empty image")
	}
	return data, mime, nil
}
