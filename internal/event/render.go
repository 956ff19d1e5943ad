package event

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/yepcord/server-sub002/internal/cdn"
	"github.com/yepcord/server-sub002/internal/model"
	"github.com/yepcord/server-sub002/internal/snowflake"
)

const timestampLayout = "2006-01-02T15:04:05.000000+00:00"

// Timestamp renders t the way clients expect.
func Timestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// IDTimestamp renders the creation time of a snowflake.
func IDTimestamp(id int64) string {
	return Timestamp(snowflake.Time(id))
}

func idStrings(ids []int64) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, strconv.FormatInt(id, 10))
	}
	return out
}

// User is the public form of a user.
type User struct {
	ID               int64   `json:"id,string"`
	Username         string  `json:"username"`
	Discriminator    string  `json:"discriminator"`
	Avatar           *string `json:"avatar"`
	AvatarDecoration *string `json:"avatar_decoration"`
	PublicFlags      int64   `json:"public_flags"`
	Bot              bool    `json:"bot,omitempty"`
}

// NewUser renders profile data.
func NewUser(d model.UserData) User {
	return User{
		ID:            d.UserID,
		Username:      d.Username,
		Discriminator: fmt.Sprintf("%04d", d.Discriminator),
		Avatar:        d.Avatar,
		PublicFlags:   d.PublicFlags,
	}
}

// DeletedUser is shown in place of users that no longer exist.
func DeletedUser(id int64) User {
	return User{ID: id, Username: "Deleted User", Discriminator: "0000"}
}

// PrivateUser is the form of a user sent to that user.
type PrivateUser struct {
	User
	Email       string  `json:"email"`
	Verified    bool    `json:"verified"`
	MFAEnabled  bool    `json:"mfa_enabled"`
	Flags       int64   `json:"flags"`
	Premium     bool    `json:"premium"`
	PremiumType int     `json:"premium_type"`
	Bio         string  `json:"bio"`
	Banner      *string `json:"banner"`
	BannerColor *int    `json:"banner_color"`
	AccentColor *int    `json:"accent_color"`
	Phone       *string `json:"phone"`
	Locale      string  `json:"locale"`
	NSFWAllowed bool    `json:"nsfw_allowed"`
}

// NewPrivateUser renders a user for themselves.
func NewPrivateUser(u model.User, d model.UserData, s model.UserSettings) PrivateUser {
	pub := NewUser(d)
	pub.Bot = u.IsBot
	premiumType := 0
	if d.Premium {
		premiumType = 2
	}
	return PrivateUser{
		User:        pub,
		Email:       u.Email,
		Verified:    u.Verified,
		MFAEnabled:  s.MFAEnabled(),
		Flags:       d.Flags,
		Premium:     d.Premium,
		PremiumType: premiumType,
		Bio:         d.Bio,
		Banner:      d.Banner,
		BannerColor: d.BannerColor,
		AccentColor: d.AccentColor,
		Phone:       d.Phone,
		Locale:      s.Locale,
		NSFWAllowed: true,
	}
}

// Profile is the response of the user profile endpoint.
type Profile struct {
	User              ProfileUser `json:"user"`
	ConnectedAccounts []any       `json:"connected_accounts"`
	PremiumSince      *string     `json:"premium_since"`
	MutualGuilds      []Mutual    `json:"mutual_guilds,omitempty"`
}

// ProfileUser is the user object of a profile.
type ProfileUser struct {
	User
	Bio         string  `json:"bio"`
	Banner      *string `json:"banner"`
	BannerColor *int    `json:"banner_color"`
	AccentColor *int    `json:"accent_color"`
}

// Mutual is a guild shared with the profile owner.
type Mutual struct {
	ID   int64   `json:"id,string"`
	Nick *string `json:"nick"`
}

// NewProfile renders the profile of d.
func NewProfile(d model.UserData, mutual []Mutual) Profile {
	return Profile{
		User: ProfileUser{
			User:        NewUser(d),
			Bio:         d.Bio,
			Banner:      d.Banner,
			BannerColor: d.BannerColor,
			AccentColor: d.AccentColor,
		},
		ConnectedAccounts: []any{},
		MutualGuilds:      mutual,
	}
}

// UserSettings is the JSON form of user settings.
type UserSettings struct {
	Status                 string              `json:"status"`
	Locale                 string              `json:"locale"`
	Theme                  string              `json:"theme"`
	DeveloperMode          bool                `json:"developer_mode"`
	MessageDisplayCompact  bool                `json:"message_display_compact"`
	RenderEmbeds           bool                `json:"render_embeds"`
	InlineEmbedMedia       bool                `json:"inline_embed_media"`
	AnalyticsConsent       bool                `json:"analytics_consent"`
	PersonalizationConsent bool                `json:"personalization_consent"`
	CustomStatus           *model.CustomStatus `json:"custom_status"`
	GuildFolders           []any               `json:"guild_folders"`
	FriendSourceFlags      map[string]bool     `json:"friend_source_flags"`
}

// NewUserSettings renders s.
func NewUserSettings(s model.UserSettings) UserSettings {
	return UserSettings{
		Status:                 s.Status,
		Locale:                 s.Locale,
		Theme:                  s.Theme,
		DeveloperMode:          s.DeveloperMode,
		MessageDisplayCompact:  s.MessageDisplayCompact,
		RenderEmbeds:           s.RenderEmbeds,
		InlineEmbedMedia:       s.InlineEmbedMedia,
		AnalyticsConsent:       s.AnalyticsConsent,
		PersonalizationConsent: s.PersonalizationConsent,
		CustomStatus:           s.CustomStatus,
		GuildFolders:           []any{},
		FriendSourceFlags:      map[string]bool{"all": true},
	}
}

// Relationship is a relationship as seen by one side.
type Relationship struct {
	ID       int64   `json:"id,string"`
	Type     int     `json:"type"`
	User     User    `json:"user"`
	Nickname *string `json:"nickname"`
}

// RelationshipRemove is the payload of RELATIONSHIP_REMOVE.
type RelationshipRemove struct {
	ID   int64 `json:"id,string"`
	Type int   `json:"type"`
}

// Channel is any channel type. Fields that do not apply are omitted.
type Channel struct {
	ID                   int64                       `json:"id,string"`
	Type                 model.ChannelType           `json:"type"`
	GuildID              *int64                      `json:"guild_id,string,omitempty"`
	Position             *int                        `json:"position,omitempty"`
	ParentID             *int64                      `json:"parent_id,string,omitempty"`
	Name                 *string                     `json:"name,omitempty"`
	Topic                *string                     `json:"topic,omitempty"`
	NSFW                 *bool                       `json:"nsfw,omitempty"`
	RateLimitPerUser     *int                        `json:"rate_limit_per_user,omitempty"`
	Bitrate              *int                        `json:"bitrate,omitempty"`
	UserLimit            *int                        `json:"user_limit,omitempty"`
	PermissionOverwrites []model.PermissionOverwrite `json:"permission_overwrites,omitempty"`
	LastMessageID        *int64                      `json:"last_message_id,string"`
	OwnerID              *int64                      `json:"owner_id,string,omitempty"`
	Icon                 *string                     `json:"icon,omitempty"`
	Recipients           []User                      `json:"recipients,omitempty"`
}

// NewChannel renders c. recipients is only used for private channels and
// should not contain the viewer.
func NewChannel(c model.Channel, recipients []User) Channel {
	out := Channel{
		ID:            c.ID,
		Type:          c.Type,
		LastMessageID: c.LastMessageID,
	}

	if c.IsPrivate() {
		if recipients == nil {
			recipients = []User{}
		}
		out.Recipients = recipients
		if c.Type == model.ChannelGroupDM {
			out.OwnerID = c.OwnerID
			out.Icon = c.Icon
			name := ""
			if c.Name != nil {
				name = *c.Name
			}
			out.Name = &name
		}
		return out
	}

	overwrites := c.PermissionOverwrites
	if overwrites == nil {
		overwrites = []model.PermissionOverwrite{}
	}
	out.GuildID = c.GuildID
	out.Position = &c.Position
	out.ParentID = c.ParentID
	out.Name = c.Name
	out.PermissionOverwrites = overwrites
	out.NSFW = &c.NSFW

	switch c.Type {
	case model.ChannelGuildVoice:
		out.Bitrate = &c.Bitrate
		out.UserLimit = &c.UserLimit
	case model.ChannelGuildText, model.ChannelGuildNews:
		out.Topic = c.Topic
		out.RateLimitPerUser = &c.RateLimitPerUser
	}
	return out
}

// Role is the JSON form of a role.
type Role struct {
	ID           int64            `json:"id,string"`
	Name         string           `json:"name"`
	Permissions  model.Permission `json:"permissions"`
	Position     int              `json:"position"`
	Color        int              `json:"color"`
	Hoist        bool             `json:"hoist"`
	Managed      bool             `json:"managed"`
	Mentionable  bool             `json:"mentionable"`
	Icon         *string          `json:"icon"`
	UnicodeEmoji *string          `json:"unicode_emoji"`
	Flags        int              `json:"flags"`
}

// NewRole renders r.
func NewRole(r model.Role) Role {
	return Role{
		ID:           r.ID,
		Name:         r.Name,
		Permissions:  r.Permissions,
		Position:     r.Position,
		Color:        r.Color,
		Hoist:        r.Hoist,
		Managed:      r.Managed,
		Mentionable:  r.Mentionable,
		Icon:         r.Icon,
		UnicodeEmoji: r.UnicodeEmoji,
		Flags:        r.Flags,
	}
}

// Emoji is the JSON form of a custom emoji.
type Emoji struct {
	ID            int64    `json:"id,string"`
	Name          string   `json:"name"`
	Roles         []string `json:"roles"`
	RequireColons bool     `json:"require_colons"`
	Managed       bool     `json:"managed"`
	Animated      bool     `json:"animated"`
	Available     bool     `json:"available"`
	User          *User    `json:"user,omitempty"`
}

// NewEmoji renders e. creator may be nil.
func NewEmoji(e model.Emoji, creator *User) Emoji {
	return Emoji{
		ID:            e.ID,
		Name:          e.Name,
		Roles:         []string{},
		RequireColons: e.RequireColons,
		Managed:       e.Managed,
		Animated:      e.Animated,
		Available:     e.Available,
		User:          creator,
	}
}

// EmojisUpdate is the payload of GUILD_EMOJIS_UPDATE.
type EmojisUpdate struct {
	GuildID int64   `json:"guild_id,string"`
	Emojis  []Emoji `json:"emojis"`
}

// Member is the JSON form of a guild member.
type Member struct {
	User                       User     `json:"user"`
	Nick                       *string  `json:"nick"`
	Avatar                     *string  `json:"avatar"`
	Roles                      []string `json:"roles"`
	JoinedAt                   string   `json:"joined_at"`
	PremiumSince               *string  `json:"premium_since"`
	Deaf                       bool     `json:"deaf"`
	Mute                       bool     `json:"mute"`
	Pending                    bool     `json:"pending"`
	CommunicationDisabledUntil *string  `json:"communication_disabled_until"`
	Flags                      int      `json:"flags"`
	GuildID                    *int64   `json:"guild_id,string,omitempty"`
}

// NewMember renders m with its user.
func NewMember(m model.GuildMember, user User) Member {
	out := Member{
		User:     user,
		Nick:     m.Nick,
		Avatar:   m.Avatar,
		Roles:    idStrings(m.Roles),
		JoinedAt: Timestamp(m.JoinedAt()),
		Deaf:     m.Deaf,
		Mute:     m.Mute,
		Pending:  m.Pending,
	}
	if m.CommunicationDisabledUntil != nil {
		ts := Timestamp(*m.CommunicationDisabledUntil)
		out.CommunicationDisabledUntil = &ts
	}
	return out
}

// WithGuild returns a copy of m carrying guild_id, as required by member
// update dispatches.
func (m Member) WithGuild(guildID int64) Member {
	m.GuildID = &guildID
	return m
}

// MemberRemove is the payload of GUILD_MEMBER_REMOVE.
type MemberRemove struct {
	GuildID int64 `json:"guild_id,string"`
	User    User  `json:"user"`
}

// Guild is the full JSON form of a guild as sent in READY and GUILD_CREATE.
type Guild struct {
	ID                          int64     `json:"id,string"`
	Name                        string    `json:"name"`
	Icon                        *string   `json:"icon"`
	Description                 *string   `json:"description"`
	Splash                      *string   `json:"splash"`
	DiscoverySplash             *string   `json:"discovery_splash"`
	Banner                      *string   `json:"banner"`
	Features                    []string  `json:"features"`
	OwnerID                     int64     `json:"owner_id,string"`
	Region                      string    `json:"region"`
	AFKChannelID                *int64    `json:"afk_channel_id,string"`
	AFKTimeout                  int       `json:"afk_timeout"`
	SystemChannelID             *int64    `json:"system_channel_id,string"`
	SystemChannelFlags          int       `json:"system_channel_flags"`
	VerificationLevel           int       `json:"verification_level"`
	DefaultMessageNotifications int       `json:"default_message_notifications"`
	ExplicitContentFilter       int       `json:"explicit_content_filter"`
	MFALevel                    int       `json:"mfa_level"`
	NSFWLevel                   int       `json:"nsfw_level"`
	NSFW                        bool      `json:"nsfw"`
	PreferredLocale             string    `json:"preferred_locale"`
	VanityURLCode               *string   `json:"vanity_url_code"`
	PremiumTier                 int       `json:"premium_tier"`
	PremiumSubscriptionCount    int       `json:"premium_subscription_count"`
	PremiumProgressBarEnabled   bool      `json:"premium_progress_bar_enabled"`
	MaxMembers                  int       `json:"max_members"`
	Roles                       []Role    `json:"roles"`
	Emojis                      []Emoji   `json:"emojis"`
	Stickers                    []any     `json:"stickers"`
	Channels                    []Channel `json:"channels,omitempty"`
	Threads                     []any     `json:"threads,omitempty"`
	Members                     []Member  `json:"members,omitempty"`
	MemberCount                 int       `json:"member_count,omitempty"`
	JoinedAt                    string    `json:"joined_at,omitempty"`
	Large                       bool      `json:"large"`
	Lazy                        bool      `json:"lazy"`
	GuildScheduledEvents        []any     `json:"guild_scheduled_events,omitempty"`
	StageInstances              []any     `json:"stage_instances,omitempty"`
}

// LargeThreshold is the member count above which a guild is large.
const LargeThreshold = 250

// NewGuild renders the settings of g with its roles and emojis. Viewer
// specific fields are filled by the Serializer.
func NewGuild(g model.Guild, roles []model.Role, emojis []model.Emoji) Guild {
	features := g.Features
	if features == nil {
		features = []string{}
	}
	out := Guild{
		ID:                          g.ID,
		Name:                        g.Name,
		Icon:                        g.Icon,
		Description:                 g.Description,
		Splash:                      g.Splash,
		Banner:                      g.Banner,
		Features:                    features,
		OwnerID:                     g.OwnerID,
		Region:                      g.Region,
		AFKChannelID:                g.AFKChannelID,
		AFKTimeout:                  g.AFKTimeout,
		SystemChannelID:             g.SystemChannelID,
		VerificationLevel:           g.VerificationLevel,
		DefaultMessageNotifications: g.DefaultMessageNotifications,
		ExplicitContentFilter:       g.ExplicitContentFilter,
		MFALevel:                    g.MFALevel,
		NSFWLevel:                   g.NSFWLevel,
		PreferredLocale:             g.PreferredLocale,
		VanityURLCode:               g.VanityURLCode,
		PremiumTier:                 g.PremiumTier,
		MaxMembers:                  100,
		Roles:                       make([]Role, 0, len(roles)),
		Emojis:                      make([]Emoji, 0, len(emojis)),
		Stickers:                    []any{},
	}
	for _, r := range roles {
		out.Roles = append(out.Roles, NewRole(r))
	}
	for _, e := range emojis {
		out.Emojis = append(out.Emojis, NewEmoji(e, nil))
	}
	return out
}

// GuildDelete is the payload of GUILD_DELETE.
type GuildDelete struct {
	ID          int64 `json:"id,string"`
	Unavailable bool  `json:"unavailable,omitempty"`
}

// RoleEvent is the payload of GUILD_ROLE_CREATE and GUILD_ROLE_UPDATE.
type RoleEvent struct {
	GuildID int64 `json:"guild_id,string"`
	Role    Role  `json:"role"`
}

// RoleDelete is the payload of GUILD_ROLE_DELETE.
type RoleDelete struct {
	GuildID int64 `json:"guild_id,string"`
	RoleID  int64 `json:"role_id,string"`
}

// Ban is the JSON form of a ban, also the payload of ban dispatches.
type Ban struct {
	GuildID *int64  `json:"guild_id,string,omitempty"`
	User    User    `json:"user"`
	Reason  *string `json:"reason,omitempty"`
}

// AuditLogEntry is the JSON form of an audit log entry.
type AuditLogEntry struct {
	ID         int64               `json:"id,string"`
	GuildID    int64               `json:"guild_id,string"`
	UserID     int64               `json:"user_id,string"`
	TargetID   *int64              `json:"target_id,string"`
	ActionType int                 `json:"action_type"`
	Changes    []model.AuditChange `json:"changes"`
	Reason     *string             `json:"reason,omitempty"`
}

// NewAuditLogEntry renders e.
func NewAuditLogEntry(e model.AuditLogEntry) AuditLogEntry {
	changes := e.Changes
	if changes == nil {
		changes = []model.AuditChange{}
	}
	return AuditLogEntry{
		ID:         e.ID,
		GuildID:    e.GuildID,
		UserID:     e.UserID,
		TargetID:   e.TargetID,
		ActionType: e.ActionType,
		Changes:    changes,
		Reason:     e.Reason,
	}
}

// Attachment is the JSON form of a message attachment.
type Attachment struct {
	ID          int64  `json:"id,string"`
	Filename    string `json:"filename"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type,omitempty"`
	URL         string `json:"url"`
	ProxyURL    string `json:"proxy_url"`
	Width       *int   `json:"width,omitempty"`
	Height      *int   `json:"height,omitempty"`
}

// NewAttachment renders a with links on urls.
func NewAttachment(a model.Attachment, urls cdn.URLs) Attachment {
	link := urls.Attachment(a.ChannelID, a.ID, a.Filename)
	return Attachment{
		ID:          a.ID,
		Filename:    a.Filename,
		Size:        a.Size,
		ContentType: a.ContentType,
		URL:         link,
		ProxyURL:    link,
		Width:       a.Width,
		Height:      a.Height,
	}
}

// Message is the JSON form of a message.
type Message struct {
	ID               int64                     `json:"id,string"`
	ChannelID        int64                     `json:"channel_id,string"`
	GuildID          *int64                    `json:"guild_id,string,omitempty"`
	Author           User                      `json:"author"`
	Member           *Member                   `json:"member,omitempty"`
	Content          string                    `json:"content"`
	Timestamp        string                    `json:"timestamp"`
	EditedTimestamp  *string                   `json:"edited_timestamp"`
	TTS              bool                      `json:"tts"`
	MentionEveryone  bool                      `json:"mention_everyone"`
	Mentions         []User                    `json:"mentions"`
	MentionRoles     []string                  `json:"mention_roles"`
	Attachments      []Attachment              `json:"attachments"`
	Embeds           []*discordgo.MessageEmbed `json:"embeds"`
	Reactions        []ReactionCount           `json:"reactions,omitempty"`
	Pinned           bool                      `json:"pinned"`
	Type             int                       `json:"type"`
	Flags            int                       `json:"flags"`
	Nonce            string                    `json:"nonce,omitempty"`
	WebhookID        *int64                    `json:"webhook_id,string,omitempty"`
	ApplicationID    *int64                    `json:"application_id,string,omitempty"`
	MessageReference *model.MessageReference   `json:"message_reference,omitempty"`
	Components       json.RawMessage           `json:"components"`
	StickerItems     []any                     `json:"sticker_items"`
	Interaction      *MessageInteraction       `json:"interaction,omitempty"`
}

// MessageInteraction describes the command a bot message answers.
type MessageInteraction struct {
	ID   int64  `json:"id,string"`
	Type int    `json:"type"`
	Name string `json:"name"`
	User User   `json:"user"`
}

// ReactionCount aggregates the reactions of one emoji.
type ReactionCount struct {
	Count int           `json:"count"`
	Me    bool          `json:"me"`
	Emoji ReactionEmoji `json:"emoji"`
}

// ReactionEmoji identifies a reaction emoji; ID is nil for unicode emojis.
type ReactionEmoji struct {
	ID   *int64 `json:"id,string"`
	Name string `json:"name"`
}

// NewMessage renders m. users must hold the author and every mentioned
// user; missing ones render as deleted users.
func NewMessage(m model.Message, users map[int64]User, urls cdn.URLs) Message {
	lookup := func(id int64) User {
		if u, ok := users[id]; ok {
			return u
		}
		return DeletedUser(id)
	}

	out := Message{
		ID:               m.ID,
		ChannelID:        m.ChannelID,
		GuildID:          m.GuildID,
		Content:          m.Content,
		Timestamp:        IDTimestamp(m.ID),
		TTS:              m.TTS,
		MentionEveryone:  m.MentionEveryone,
		Mentions:         make([]User, 0, len(m.Mentions)),
		MentionRoles:     idStrings(m.MentionRoles),
		Attachments:      make([]Attachment, 0, len(m.Attachments)),
		Embeds:           m.Embeds,
		Pinned:           m.Pinned,
		Type:             m.Type,
		Flags:            m.Flags,
		Nonce:            m.Nonce,
		WebhookID:        m.WebhookID,
		ApplicationID:    m.ApplicationID,
		MessageReference: m.Reference,
		Components:       m.Components,
		StickerItems:     []any{},
	}
	if out.Embeds == nil {
		out.Embeds = []*discordgo.MessageEmbed{}
	}
	if len(out.Components) == 0 {
		out.Components = json.RawMessage("[]")
	}
	if m.AuthorID != nil {
		out.Author = lookup(*m.AuthorID)
	} else {
		out.Author = DeletedUser(0)
	}
	if m.EditedTimestamp != nil {
		ts := IDTimestamp(*m.EditedTimestamp)
		out.EditedTimestamp = &ts
	}
	for _, id := range m.Mentions {
		out.Mentions = append(out.Mentions, lookup(id))
	}
	for _, a := range m.Attachments {
		out.Attachments = append(out.Attachments, NewAttachment(a, urls))
	}
	return out
}

// MessageUserIDs returns the users NewMessage needs for m.
func MessageUserIDs(m model.Message) []int64 {
	ids := make([]int64, 0, len(m.Mentions)+1)
	if m.AuthorID != nil {
		ids = append(ids, *m.AuthorID)
	}
	return append(ids, m.Mentions...)
}

// AggregateReactions folds individual reactions into per-emoji counts in
// order of first appearance.
func AggregateReactions(reactions []model.Reaction, viewerID int64) []ReactionCount {
	type key struct {
		id   int64
		name string
	}
	index := make(map[key]int)
	var out []ReactionCount
	for _, r := range reactions {
		k := key{name: r.EmojiName}
		if r.EmojiID != nil {
			k.id = *r.EmojiID
		}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, ReactionCount{Emoji: ReactionEmoji{ID: r.EmojiID, Name: r.EmojiName}})
		}
		out[i].Count++
		if r.UserID == viewerID {
			out[i].Me = true
		}
	}
	return out
}

// MessageDeletePayload is the payload of MESSAGE_DELETE.
type MessageDeletePayload struct {
	ID        int64  `json:"id,string"`
	ChannelID int64  `json:"channel_id,string"`
	GuildID   *int64 `json:"guild_id,string,omitempty"`
}

// MessageDeleteBulkPayload is the payload of MESSAGE_DELETE_BULK.
type MessageDeleteBulkPayload struct {
	IDs       []string `json:"ids"`
	ChannelID int64    `json:"channel_id,string"`
	GuildID   *int64   `json:"guild_id,string,omitempty"`
}

// NewMessageDeleteBulk renders a bulk delete of ids.
func NewMessageDeleteBulk(channelID int64, guildID *int64, ids []int64) MessageDeleteBulkPayload {
	return MessageDeleteBulkPayload{IDs: idStrings(ids), ChannelID: channelID, GuildID: guildID}
}

// MessageAckPayload is the payload of MESSAGE_ACK.
type MessageAckPayload struct {
	MessageID    int64 `json:"message_id,string"`
	ChannelID    int64 `json:"channel_id,string"`
	MentionCount int   `json:"mention_count"`
	Version      int   `json:"version"`
}

// TypingPayload is the payload of TYPING_START.
type TypingPayload struct {
	UserID    int64   `json:"user_id,string"`
	ChannelID int64   `json:"channel_id,string"`
	GuildID   *int64  `json:"guild_id,string,omitempty"`
	Timestamp int64   `json:"timestamp"`
	Member    *Member `json:"member,omitempty"`
}

// ReactionPayload is the payload of MESSAGE_REACTION_ADD and MESSAGE_REACTION_REMOVE.
type ReactionPayload struct {
	UserID    int64         `json:"user_id,string"`
	ChannelID int64         `json:"channel_id,string"`
	MessageID int64         `json:"message_id,string"`
	GuildID   *int64        `json:"guild_id,string,omitempty"`
	Emoji     ReactionEmoji `json:"emoji"`
}

// PinsUpdatePayload is the payload of CHANNEL_PINS_UPDATE.
type PinsUpdatePayload struct {
	ChannelID        int64   `json:"channel_id,string"`
	GuildID          *int64  `json:"guild_id,string,omitempty"`
	LastPinTimestamp *string `json:"last_pin_timestamp"`
}

// RecipientPayload is the payload of the channel recipient dispatches.
type RecipientPayload struct {
	ChannelID int64 `json:"channel_id,string"`
	User      User  `json:"user"`
}

// NotePayload is the payload of USER_NOTE_UPDATE.
type NotePayload struct {
	ID   int64  `json:"id,string"`
	Note string `json:"note"`
}

// SettingsProtoPayload is the payload of USER_SETTINGS_PROTO_UPDATE.
type SettingsProtoPayload struct {
	Settings struct {
		Type  int    `json:"type"`
		Proto string `json:"proto"`
	} `json:"settings"`
	Partial bool `json:"partial"`
}

// NewSettingsProtoPayload wraps an encoded settings proto.
func NewSettingsProtoPayload(proto string) SettingsProtoPayload {
	var p SettingsProtoPayload
	p.Settings.Type = 1
	p.Settings.Proto = proto
	return p
}

// Invite is the JSON form of an invite.
type Invite struct {
	Code      string   `json:"code"`
	Type      int      `json:"type"`
	Inviter   *User    `json:"inviter,omitempty"`
	ExpiresAt *string  `json:"expires_at"`
	Guild     *Partial `json:"guild,omitempty"`
	Channel   Partial  `json:"channel"`
	MaxAge    int      `json:"max_age"`
	MaxUses   int      `json:"max_uses"`
	Uses      int      `json:"uses"`
	CreatedAt string   `json:"created_at"`
	Temporary bool     `json:"temporary"`
	GuildID   *int64   `json:"guild_id,string,omitempty"`
}

// Partial is a minimal guild or channel reference.
type Partial struct {
	ID   int64   `json:"id,string"`
	Name *string `json:"name"`
	Type *int    `json:"type,omitempty"`
	Icon *string `json:"icon,omitempty"`
}

// NewInvite renders inv. guild and inviter may be nil.
func NewInvite(inv model.Invite, channel model.Channel, guild *model.Guild, inviter *User) Invite {
	ctype := int(channel.Type)
	out := Invite{
		Code:      inv.Code(),
		Inviter:   inviter,
		Channel:   Partial{ID: channel.ID, Name: channel.Name, Type: &ctype},
		MaxAge:    inv.MaxAge,
		MaxUses:   inv.MaxUses,
		Uses:      inv.Uses,
		CreatedAt: IDTimestamp(inv.ID),
		GuildID:   inv.GuildID,
	}
	if channel.IsPrivate() {
		out.Type = 1
	}
	if exp := inv.ExpiresAt(); !exp.IsZero() {
		ts := Timestamp(exp)
		out.ExpiresAt = &ts
	}
	if guild != nil {
		out.Guild = &Partial{ID: guild.ID, Name: &guild.Name, Icon: guild.Icon}
	}
	return out
}

// InviteDeletePayload is the payload of INVITE_DELETE.
type InviteDeletePayload struct {
	Code      string `json:"code"`
	ChannelID int64  `json:"channel_id,string"`
	GuildID   *int64 `json:"guild_id,string,omitempty"`
}
