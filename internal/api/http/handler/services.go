package handler

import (
	"context"

	"github.com/yepcord/server-sub002/internal/event"
	"github.com/yepcord/server-sub002/internal/model"
	"github.com/yepcord/server-sub002/internal/service"
)

// AuthService registers users and manages their sessions.
type AuthService interface {
	Register(ctx context.Context, req service.RegisterRequest) (string, error)
	Login(ctx context.Context, req service.LoginRequest) (service.LoginResult, error)
	VerifyMFA(ctx context.Context, ticket, code string) (service.LoginResult, error)
	Logout(ctx context.Context, session model.Session) error
	ChangePassword(ctx context.Context, userID int64, current, next string) (string, error)
}

// UserService serves profiles, settings and notes.
type UserService interface {
	Me(ctx context.Context, userID int64) (event.PrivateUser, error)
	Get(ctx context.Context, targetID int64) (event.User, error)
	Profile(ctx context.Context, userID, targetID int64) (event.Profile, error)
	UpdateProfile(ctx context.Context, userID int64, req service.UpdateProfileRequest) (event.PrivateUser, error)
	Settings(ctx context.Context, userID int64) (event.UserSettings, error)
	UpdateSettings(ctx context.Context, userID int64, patch model.SettingsPatch) (event.UserSettings, error)
	UpdateSettingsProto(ctx context.Context, userID int64, encoded string) (string, error)
	Note(ctx context.Context, userID, targetID int64) (event.NotePayload, error)
	SetNote(ctx context.Context, userID, targetID int64, note string) error
	Delete(ctx context.Context, userID int64, password string) error
}

// RelationshipService manages friends and blocks.
type RelationshipService interface {
	List(ctx context.Context, userID int64) ([]event.Relationship, error)
	RequestByTag(ctx context.Context, userID int64, username, discriminator string) error
	Request(ctx context.Context, userID, targetID int64) error
	Remove(ctx context.Context, userID, targetID int64) error
	Block(ctx context.Context, userID, targetID int64) error
}

// ChannelService manages private and guild channels.
type ChannelService interface {
	Get(ctx context.Context, userID, channelID int64) (event.Channel, error)
	PrivateChannels(ctx context.Context, userID int64) ([]event.Channel, error)
	OpenDM(ctx context.Context, userID int64, recipients []int64) (event.Channel, error)
	Update(ctx context.Context, userID, channelID int64, patch model.ChannelPatch) (event.Channel, error)
	Delete(ctx context.Context, userID, channelID int64) (event.Channel, error)
	AddRecipient(ctx context.Context, userID, channelID, targetID int64) error
	RemoveRecipient(ctx context.Context, userID, channelID, targetID int64) error
	CreateGuildChannel(ctx context.Context, userID, guildID int64, req service.CreateChannelRequest) (event.Channel, error)
	GuildChannels(ctx context.Context, userID, guildID int64) ([]event.Channel, error)
}

// MessageService manages channel messages.
type MessageService interface {
	Send(ctx context.Context, userID, channelID int64, req service.SendMessageRequest) (event.Message, error)
	Get(ctx context.Context, userID, channelID, messageID int64) (event.Message, error)
	List(ctx context.Context, userID, channelID int64, limit int, before, after int64) ([]event.Message, error)
	Edit(ctx context.Context, userID, channelID, messageID int64, req service.EditMessageRequest) (event.Message, error)
	Delete(ctx context.Context, userID, channelID, messageID int64) error
	BulkDelete(ctx context.Context, userID, channelID int64, ids []int64) error
	Ack(ctx context.Context, userID, channelID, messageID int64) error
	Typing(ctx context.Context, userID, channelID int64) error
	Pin(ctx context.Context, userID, channelID, messageID int64) error
	Unpin(ctx context.Context, userID, channelID, messageID int64) error
	Pins(ctx context.Context, userID, channelID int64) ([]event.Message, error)
	AddReaction(ctx context.Context, userID, channelID, messageID int64, emoji string) error
	RemoveReaction(ctx context.Context, userID, channelID, messageID int64, emoji string) error
	Search(ctx context.Context, userID, guildID int64, query string, authorID, channelID *int64, offset int) (service.SearchResult, error)
}

// GuildService manages guilds, members, roles, bans and emojis.
type GuildService interface {
	Create(ctx context.Context, userID int64, req service.CreateGuildRequest) (event.Guild, error)
	Get(ctx context.Context, userID, guildID int64) (event.Guild, error)
	Update(ctx context.Context, userID, guildID int64, patch model.GuildPatch) (event.Guild, error)
	Delete(ctx context.Context, userID, guildID int64) error
	Leave(ctx context.Context, userID, guildID int64) error
	Kick(ctx context.Context, userID, guildID, targetID int64) error
	Ban(ctx context.Context, userID, guildID, targetID int64, reason string) error
	Unban(ctx context.Context, userID, guildID, targetID int64) error
	Members(ctx context.Context, userID, guildID int64, limit int) ([]event.Member, error)
	Member(ctx context.Context, userID, guildID, targetID int64) (event.Member, error)
	UpdateMember(ctx context.Context, userID, guildID, targetID int64, patch model.MemberPatch) (event.Member, error)
	Roles(ctx context.Context, userID, guildID int64) ([]event.Role, error)
	CreateRole(ctx context.Context, userID, guildID int64, patch model.RolePatch) (event.Role, error)
	UpdateRole(ctx context.Context, userID, guildID, roleID int64, patch model.RolePatch) (event.Role, error)
	DeleteRole(ctx context.Context, userID, guildID, roleID int64) error
	Emojis(ctx context.Context, userID, guildID int64) ([]event.Emoji, error)
	CreateEmoji(ctx context.Context, userID, guildID int64, req service.CreateEmojiRequest) (event.Emoji, error)
	DeleteEmoji(ctx context.Context, userID, guildID, emojiID int64) error
}

// InviteService manages invites.
type InviteService interface {
	Create(ctx context.Context, userID, channelID int64, req service.CreateInviteRequest) (event.Invite, error)
	Get(ctx context.Context, code string) (event.Invite, error)
	ChannelInvites(ctx context.Context, userID, channelID int64) ([]event.Invite, error)
	Use(ctx context.Context, userID int64, code string) (event.Invite, error)
	Delete(ctx context.Context, userID int64, code string) (event.Invite, error)
}

// InteractionService dispatches slash commands and their responses.
type InteractionService interface {
	Create(ctx context.Context, userID int64, req service.CreateInteractionRequest) error
	Callback(ctx context.Context, interactionID int64, token string, cb service.InteractionCallback) (event.Message, error)
}
