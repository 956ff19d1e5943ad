package model

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
)

// Opt is one field of a patch record. Set distinguishes "absent" from "set to
// the zero value", so a JSON null on a pointer field clears it.
type Opt[T any] struct {
	Value T
	Set   bool
}

// Some returns a set field.
func Some[T any](v T) Opt[T] {
	return Opt[T]{Value: v, Set: true}
}

// IsZero lets encoding/json omit unset fields with omitzero.
func (o Opt[T]) IsZero() bool {
	return !o.Set
}

func (o Opt[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Value)
}

func (o *Opt[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	return json.Unmarshal(b, &o.Value)
}

// Snowflake is an id that accepts both JSON strings and numbers and encodes
// as a string.
type Snowflake int64

func (s Snowflake) MarshalJSON() ([]byte, error) {
	return []byte(`"` + strconv.FormatInt(int64(s), 10) + `"`), nil
}

func (s *Snowflake) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	v, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return err
	}
	*s = Snowflake(v)
	return nil
}

// Int64 converts a nullable id.
func (s *Snowflake) Int64() *int64 {
	if s == nil {
		return nil
	}
	v := int64(*s)
	return &v
}

func apply[T any](dst *T, o Opt[T]) {
	if o.Set {
		*dst = o.Value
	}
}

func applyID(dst **int64, o Opt[*Snowflake]) {
	if o.Set {
		*dst = o.Value.Int64()
	}
}

func diff[T comparable](before, after T) Opt[T] {
	if before == after {
		return Opt[T]{}
	}
	return Some(after)
}

func diffPtr[T comparable](before, after *T) Opt[*T] {
	switch {
	case before == nil && after == nil:
		return Opt[*T]{}
	case before != nil && after != nil && *before == *after:
		return Opt[*T]{}
	}
	return Some(after)
}

func diffID(before, after *int64) Opt[*Snowflake] {
	if d := diffPtr(before, after); !d.Set {
		return Opt[*Snowflake]{}
	}
	if after == nil {
		return Some[*Snowflake](nil)
	}
	s := Snowflake(*after)
	return Some(&s)
}

func collect[T any](changes map[string]any, key string, o Opt[T]) {
	if o.Set {
		changes[key] = o.Value
	}
}

// UserPatch changes the public profile of a user.
type UserPatch struct {
	Username      Opt[string]  `json:"username,omitzero"`
	Discriminator Opt[int]     `json:"discriminator,omitzero"`
	Avatar        Opt[*string] `json:"avatar,omitzero"`
	Banner        Opt[*string] `json:"banner,omitzero"`
	BannerColor   Opt[*int]    `json:"banner_color,omitzero"`
	AccentColor   Opt[*int]    `json:"accent_color,omitzero"`
	Bio           Opt[string]  `json:"bio,omitzero"`
}

// Apply returns d with the patch applied.
func (p UserPatch) Apply(d UserData) UserData {
	apply(&d.Username, p.Username)
	apply(&d.Discriminator, p.Discriminator)
	apply(&d.Avatar, p.Avatar)
	apply(&d.Banner, p.Banner)
	apply(&d.BannerColor, p.BannerColor)
	apply(&d.AccentColor, p.AccentColor)
	apply(&d.Bio, p.Bio)
	return d
}

// DiffUserData returns the patch turning before into after.
func DiffUserData(before, after UserData) UserPatch {
	return UserPatch{
		Username:      diff(before.Username, after.Username),
		Discriminator: diff(before.Discriminator, after.Discriminator),
		Avatar:        diffPtr(before.Avatar, after.Avatar),
		Banner:        diffPtr(before.Banner, after.Banner),
		BannerColor:   diffPtr(before.BannerColor, after.BannerColor),
		AccentColor:   diffPtr(before.AccentColor, after.AccentColor),
		Bio:           diff(before.Bio, after.Bio),
	}
}

// Empty reports whether no field is set.
func (p UserPatch) Empty() bool {
	return len(p.Changes()) == 0
}

// Changes maps wire keys to new values.
func (p UserPatch) Changes() map[string]any {
	c := make(map[string]any)
	collect(c, "username", p.Username)
	collect(c, "discriminator", p.Discriminator)
	collect(c, "avatar", p.Avatar)
	collect(c, "banner", p.Banner)
	collect(c, "banner_color", p.BannerColor)
	collect(c, "accent_color", p.AccentColor)
	collect(c, "bio", p.Bio)
	return c
}

// SettingsPatch changes user settings.
type SettingsPatch struct {
	Status                 Opt[string]        `json:"status,omitzero"`
	Locale                 Opt[string]        `json:"locale,omitzero"`
	Theme                  Opt[string]        `json:"theme,omitzero"`
	DeveloperMode          Opt[bool]          `json:"developer_mode,omitzero"`
	MessageDisplayCompact  Opt[bool]          `json:"message_display_compact,omitzero"`
	RenderEmbeds           Opt[bool]          `json:"render_embeds,omitzero"`
	InlineEmbedMedia       Opt[bool]          `json:"inline_embed_media,omitzero"`
	AnalyticsConsent       Opt[bool]          `json:"analytics_consent,omitzero"`
	PersonalizationConsent Opt[bool]          `json:"personalization_consent,omitzero"`
	CustomStatus           Opt[*CustomStatus] `json:"custom_status,omitzero"`
}

// Apply returns s with the patch applied.
func (p SettingsPatch) Apply(s UserSettings) UserSettings {
	apply(&s.Status, p.Status)
	apply(&s.Locale, p.Locale)
	apply(&s.Theme, p.Theme)
	apply(&s.DeveloperMode, p.DeveloperMode)
	apply(&s.MessageDisplayCompact, p.MessageDisplayCompact)
	apply(&s.RenderEmbeds, p.RenderEmbeds)
	apply(&s.InlineEmbedMedia, p.InlineEmbedMedia)
	apply(&s.AnalyticsConsent, p.AnalyticsConsent)
	apply(&s.PersonalizationConsent, p.PersonalizationConsent)
	apply(&s.CustomStatus, p.CustomStatus)
	return s
}

// GuildPatch changes guild settings.
type GuildPatch struct {
	Name                        Opt[string]     `json:"name,omitzero"`
	Icon                        Opt[*string]    `json:"icon,omitzero"`
	Description                 Opt[*string]    `json:"description,omitzero"`
	Banner                      Opt[*string]    `json:"banner,omitzero"`
	Splash                      Opt[*string]    `json:"splash,omitzero"`
	Region                      Opt[string]     `json:"region,omitzero"`
	AFKChannelID                Opt[*Snowflake] `json:"afk_channel_id,omitzero"`
	AFKTimeout                  Opt[int]        `json:"afk_timeout,omitzero"`
	SystemChannelID             Opt[*Snowflake] `json:"system_channel_id,omitzero"`
	VerificationLevel           Opt[int]        `json:"verification_level,omitzero"`
	DefaultMessageNotifications Opt[int]        `json:"default_message_notifications,omitzero"`
	ExplicitContentFilter       Opt[int]        `json:"explicit_content_filter,omitzero"`
	PreferredLocale             Opt[string]     `json:"preferred_locale,omitzero"`
	OwnerID                     Opt[Snowflake]  `json:"owner_id,omitzero"`
}

// Apply returns g with the patch applied.
func (p GuildPatch) Apply(g Guild) Guild {
	apply(&g.Name, p.Name)
	apply(&g.Icon, p.Icon)
	apply(&g.Description, p.Description)
	apply(&g.Banner, p.Banner)
	apply(&g.Splash, p.Splash)
	apply(&g.Region, p.Region)
	applyID(&g.AFKChannelID, p.AFKChannelID)
	apply(&g.AFKTimeout, p.AFKTimeout)
	applyID(&g.SystemChannelID, p.SystemChannelID)
	apply(&g.VerificationLevel, p.VerificationLevel)
	apply(&g.DefaultMessageNotifications, p.DefaultMessageNotifications)
	apply(&g.ExplicitContentFilter, p.ExplicitContentFilter)
	apply(&g.PreferredLocale, p.PreferredLocale)
	if p.OwnerID.Set {
		g.OwnerID = int64(p.OwnerID.Value)
	}
	return g
}

// DiffGuild returns the patch turning before into after.
func DiffGuild(before, after Guild) GuildPatch {
	p := GuildPatch{
		Name:                        diff(before.Name, after.Name),
		Icon:                        diffPtr(before.Icon, after.Icon),
		Description:                 diffPtr(before.Description, after.Description),
		Banner:                      diffPtr(before.Banner, after.Banner),
		Splash:                      diffPtr(before.Splash, after.Splash),
		Region:                      diff(before.Region, after.Region),
		AFKChannelID:                diffID(before.AFKChannelID, after.AFKChannelID),
		AFKTimeout:                  diff(before.AFKTimeout, after.AFKTimeout),
		SystemChannelID:             diffID(before.SystemChannelID, after.SystemChannelID),
		VerificationLevel:           diff(before.VerificationLevel, after.VerificationLevel),
		DefaultMessageNotifications: diff(before.DefaultMessageNotifications, after.DefaultMessageNotifications),
		ExplicitContentFilter:       diff(before.ExplicitContentFilter, after.ExplicitContentFilter),
		PreferredLocale:             diff(before.PreferredLocale, after.PreferredLocale),
	}
	if before.OwnerID != after.OwnerID {
		p.OwnerID = Some(Snowflake(after.OwnerID))
	}
	return p
}

// Changes maps wire keys to new values.
func (p GuildPatch) Changes() map[string]any {
	c := make(map[string]any)
	collect(c, "name", p.Name)
	collect(c, "icon", p.Icon)
	collect(c, "description", p.Description)
	collect(c, "banner", p.Banner)
	collect(c, "splash", p.Splash)
	collect(c, "region", p.Region)
	collect(c, "afk_channel_id", p.AFKChannelID)
	collect(c, "afk_timeout", p.AFKTimeout)
	collect(c, "system_channel_id", p.SystemChannelID)
	collect(c, "verification_level", p.VerificationLevel)
	collect(c, "default_message_notifications", p.DefaultMessageNotifications)
	collect(c, "explicit_content_filter", p.ExplicitContentFilter)
	collect(c, "preferred_locale", p.PreferredLocale)
	collect(c, "owner_id", p.OwnerID)
	return c
}

// ChannelPatch changes channel settings.
type ChannelPatch struct {
	Name                 Opt[*string]               `json:"name,omitzero"`
	Topic                Opt[*string]               `json:"topic,omitzero"`
	Position             Opt[int]                   `json:"position,omitzero"`
	NSFW                 Opt[bool]                  `json:"nsfw,omitzero"`
	RateLimitPerUser     Opt[int]                   `json:"rate_limit_per_user,omitzero"`
	Bitrate              Opt[int]                   `json:"bitrate,omitzero"`
	UserLimit            Opt[int]                   `json:"user_limit,omitzero"`
	ParentID             Opt[*Snowflake]            `json:"parent_id,omitzero"`
	Icon                 Opt[*string]               `json:"icon,omitzero"`
	OwnerID              Opt[*Snowflake]            `json:"owner_id,omitzero"`
	PermissionOverwrites Opt[[]PermissionOverwrite] `json:"permission_overwrites,omitzero"`
}

// Apply returns c with the patch applied.
func (p ChannelPatch) Apply(c Channel) Channel {
	apply(&c.Name, p.Name)
	apply(&c.Topic, p.Topic)
	apply(&c.Position, p.Position)
	apply(&c.NSFW, p.NSFW)
	apply(&c.RateLimitPerUser, p.RateLimitPerUser)
	apply(&c.Bitrate, p.Bitrate)
	apply(&c.UserLimit, p.UserLimit)
	applyID(&c.ParentID, p.ParentID)
	apply(&c.Icon, p.Icon)
	applyID(&c.OwnerID, p.OwnerID)
	apply(&c.PermissionOverwrites, p.PermissionOverwrites)
	return c
}

// DiffChannel returns the patch turning before into after. Overwrites are
// compared by value.
func DiffChannel(before, after Channel) ChannelPatch {
	p := ChannelPatch{
		Name:             diffPtr(before.Name, after.Name),
		Topic:            diffPtr(before.Topic, after.Topic),
		Position:         diff(before.Position, after.Position),
		NSFW:             diff(before.NSFW, after.NSFW),
		RateLimitPerUser: diff(before.RateLimitPerUser, after.RateLimitPerUser),
		Bitrate:          diff(before.Bitrate, after.Bitrate),
		UserLimit:        diff(before.UserLimit, after.UserLimit),
		ParentID:         diffID(before.ParentID, after.ParentID),
		Icon:             diffPtr(before.Icon, after.Icon),
		OwnerID:          diffID(before.OwnerID, after.OwnerID),
	}
	if !equalOverwrites(before.PermissionOverwrites, after.PermissionOverwrites) {
		p.PermissionOverwrites = Some(after.PermissionOverwrites)
	}
	return p
}

func equalOverwrites(a, b []PermissionOverwrite) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Changes maps wire keys to new values.
func (p ChannelPatch) Changes() map[string]any {
	c := make(map[string]any)
	collect(c, "name", p.Name)
	collect(c, "topic", p.Topic)
	collect(c, "position", p.Position)
	collect(c, "nsfw", p.NSFW)
	collect(c, "rate_limit_per_user", p.RateLimitPerUser)
	collect(c, "bitrate", p.Bitrate)
	collect(c, "user_limit", p.UserLimit)
	collect(c, "parent_id", p.ParentID)
	collect(c, "icon", p.Icon)
	collect(c, "owner_id", p.OwnerID)
	collect(c, "permission_overwrites", p.PermissionOverwrites)
	return c
}

// RolePatch changes a role.
type RolePatch struct {
	Name         Opt[string]     `json:"name,omitzero"`
	Permissions  Opt[Permission] `json:"permissions,omitzero"`
	Position     Opt[int]        `json:"position,omitzero"`
	Color        Opt[int]        `json:"color,omitzero"`
	Hoist        Opt[bool]       `json:"hoist,omitzero"`
	Mentionable  Opt[bool]       `json:"mentionable,omitzero"`
	Icon         Opt[*string]    `json:"icon,omitzero"`
	UnicodeEmoji Opt[*string]    `json:"unicode_emoji,omitzero"`
}

// Apply returns r with the patch applied.
func (p RolePatch) Apply(r Role) Role {
	apply(&r.Name, p.Name)
	apply(&r.Permissions, p.Permissions)
	apply(&r.Position, p.Position)
	apply(&r.Color, p.Color)
	apply(&r.Hoist, p.Hoist)
	apply(&r.Mentionable, p.Mentionable)
	apply(&r.Icon, p.Icon)
	apply(&r.UnicodeEmoji, p.UnicodeEmoji)
	return r
}

// DiffRole returns the patch turning before into after.
func DiffRole(before, after Role) RolePatch {
	return RolePatch{
		Name:         diff(before.Name, after.Name),
		Permissions:  diff(before.Permissions, after.Permissions),
		Position:     diff(before.Position, after.Position),
		Color:        diff(before.Color, after.Color),
		Hoist:        diff(before.Hoist, after.Hoist),
		Mentionable:  diff(before.Mentionable, after.Mentionable),
		Icon:         diffPtr(before.Icon, after.Icon),
		UnicodeEmoji: diffPtr(before.UnicodeEmoji, after.UnicodeEmoji),
	}
}

// Changes maps wire keys to new values.
func (p RolePatch) Changes() map[string]any {
	c := make(map[string]any)
	collect(c, "name", p.Name)
	collect(c, "permissions", p.Permissions)
	collect(c, "position", p.Position)
	collect(c, "color", p.Color)
	collect(c, "hoist", p.Hoist)
	collect(c, "mentionable", p.Mentionable)
	collect(c, "icon", p.Icon)
	collect(c, "unicode_emoji", p.UnicodeEmoji)
	return c
}

// MemberPatch changes a guild member.
type MemberPatch struct {
	Nick   Opt[*string]     `json:"nick,omitzero"`
	Roles  Opt[[]Snowflake] `json:"roles,omitzero"`
	Avatar Opt[*string]     `json:"avatar,omitzero"`
	Mute   Opt[bool]        `json:"mute,omitzero"`
	Deaf   Opt[bool]        `json:"deaf,omitzero"`
}

// Apply returns m with the patch applied.
func (p MemberPatch) Apply(m GuildMember) GuildMember {
	apply(&m.Nick, p.Nick)
	apply(&m.Avatar, p.Avatar)
	apply(&m.Mute, p.Mute)
	apply(&m.Deaf, p.Deaf)
	if p.Roles.Set {
		m.Roles = make([]int64, 0, len(p.Roles.Value))
		for _, id := range p.Roles.Value {
			m.Roles = append(m.Roles, int64(id))
		}
	}
	return m
}

// Changes maps wire keys to new values.
func (p MemberPatch) Changes() map[string]any {
	c := make(map[string]any)
	collect(c, "nick", p.Nick)
	collect(c, "roles", p.Roles)
	collect(c, "avatar", p.Avatar)
	collect(c, "mute", p.Mute)
	collect(c, "deaf", p.Deaf)
	return c
}

// AuditChanges renders a change map as audit log entries with sorted keys.
func AuditChanges(changes map[string]any) []AuditChange {
	out := make([]AuditChange, 0, len(changes))
	for _, key := range sortedKeys(changes) {
		raw, err := json.Marshal(changes[key])
		if err != nil {
			continue
		}
		out = append(out, AuditChange{Key: key, NewValue: raw})
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
