package model

import (
	"context"
	"encoding/json"
	"time"

	"github.com/yepcord/server-sub002/internal/snowflake"
)

// GuildStore defines persistence operations for guilds, roles, members and
// guild-owned entities.
type GuildStore interface {
	Create(ctx context.Context, guild Guild, roles []Role, channels []Channel, owner GuildMember) error
	GetByID(ctx context.Context, id int64) (Guild, error)
	Update(ctx context.Context, guild Guild) error
	Delete(ctx context.Context, id int64) ([]int64, error)
	UserGuilds(ctx context.Context, userID int64) ([]Guild, error)

	GetMember(ctx context.Context, guildID, userID int64) (GuildMember, error)
	Members(ctx context.Context, guildID int64, limit int) ([]GuildMember, error)
	MemberUserIDs(ctx context.Context, guildID int64) ([]int64, error)
	MemberCount(ctx context.Context, guildID int64) (int, error)
	AddMember(ctx context.Context, member GuildMember) error
	UpdateMember(ctx context.Context, member GuildMember) error
	RemoveMember(ctx context.Context, guildID, userID int64) error
	MemberPermissions(ctx context.Context, member GuildMember, channel *Channel) (Permission, error)

	Roles(ctx context.Context, guildID int64) ([]Role, error)
	GetRole(ctx context.Context, guildID, roleID int64) (Role, error)
	CreateRole(ctx context.Context, role Role) error
	UpdateRole(ctx context.Context, role Role) error
	DeleteRole(ctx context.Context, guildID, roleID int64) error

	Emojis(ctx context.Context, guildID int64) ([]Emoji, error)
	CreateEmoji(ctx context.Context, emoji Emoji) error
	DeleteEmoji(ctx context.Context, guildID, emojiID int64) error

	GetBan(ctx context.Context, guildID, userID int64) (Ban, error)
	CreateBan(ctx context.Context, ban Ban) error
	DeleteBan(ctx context.Context, guildID, userID int64) error

	AddAuditLogEntry(ctx context.Context, entry AuditLogEntry) error
}

// Guild is a server. SystemChannelID and AFKChannelID are plain ids.
type Guild struct {
	ID                          int64
	OwnerID                     int64
	Name                        string
	Icon                        *string
	Description                 *string
	Banner                      *string
	Splash                      *string
	Region                      string
	AFKChannelID                *int64
	AFKTimeout                  int
	SystemChannelID             *int64
	VerificationLevel           int
	DefaultMessageNotifications int
	ExplicitContentFilter       int
	MFALevel                    int
	NSFWLevel                   int
	Features                    []string
	PreferredLocale             string
	VanityURLCode               *string
	PremiumTier                 int
}

// Role is a guild role. The @everyone role has ID equal to the guild id and
// position 0.
type Role struct {
	ID           int64
	GuildID      int64
	Name         string
	Permissions  Permission
	Position     int
	Color        int
	Hoist        bool
	Managed      bool
	Mentionable  bool
	Icon         *string
	UnicodeEmoji *string
	Flags        int
}

// IsEveryone reports whether r is the @everyone role.
func (r Role) IsEveryone() bool {
	return r.ID == r.GuildID
}

// GuildMember links a user to a guild.
type GuildMember struct {
	ID                         int64
	UserID                     int64
	GuildID                    int64
	Roles                      []int64
	Nick                       *string
	Avatar                     *string
	CommunicationDisabledUntil *time.Time
	Deaf                       bool
	Mute                       bool
	Pending                    bool
}

// JoinedAt is derived from the member id.
func (m GuildMember) JoinedAt() time.Time {
	return snowflake.Time(m.ID)
}

// HasRole reports whether the member holds roleID.
func (m GuildMember) HasRole(roleID int64) bool {
	for _, id := range m.Roles {
		if id == roleID {
			return true
		}
	}
	return false
}

// Emoji is a custom guild emoji.
type Emoji struct {
	ID            int64
	GuildID       int64
	UserID        int64
	Name          string
	RequireColons bool
	Managed       bool
	Animated      bool
	Available     bool
}

// Ban prevents a user from rejoining a guild.
type Ban struct {
	GuildID int64
	UserID  int64
	Reason  string
}

// Audit log action types.
const (
	AuditGuildUpdate   = 1
	AuditChannelCreate = 10
	AuditChannelUpdate = 11
	AuditChannelDelete = 12
	AuditMemberKick    = 20
	AuditMemberBanAdd  = 22
	AuditMemberBanRem  = 23
	AuditMemberUpdate  = 24
	AuditRoleCreate    = 30
	AuditRoleUpdate    = 31
	AuditRoleDelete    = 32
	AuditInviteCreate  = 40
	AuditInviteDelete  = 42
	AuditEmojiCreate   = 60
	AuditEmojiDelete   = 62
)

// AuditLogEntry records an administrative action inside a guild.
type AuditLogEntry struct {
	ID         int64
	GuildID    int64
	UserID     int64
	TargetID   *int64
	ActionType int
	Changes    []AuditChange
	Reason     *string
}

// AuditChange is one changed key of an audit log entry.
type AuditChange struct {
	Key      string          `json:"key"`
	NewValue json.RawMessage `json:"new_value,omitempty"`
	OldValue json.RawMessage `json:"old_value,omitempty"`
}
