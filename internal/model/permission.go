package model

// Permission is a bitset of guild permissions.
type Permission int64

const (
	PermCreateInstantInvite Permission = 1 << 0
	PermKickMembers         Permission = 1 << 1
	PermBanMembers          Permission = 1 << 2
	PermAdministrator       Permission = 1 << 3
	PermManageChannels      Permission = 1 << 4
	PermManageGuild         Permission = 1 << 5
	PermAddReactions        Permission = 1 << 6
	PermViewAuditLog        Permission = 1 << 7
	PermPrioritySpeaker     Permission = 1 << 8
	PermStream              Permission = 1 << 9
	PermViewChannel         Permission = 1 << 10
	PermSendMessages        Permission = 1 << 11
	PermSendTTSMessages     Permission = 1 << 12
	PermManageMessages      Permission = 1 << 13
	PermEmbedLinks          Permission = 1 << 14
	PermAttachFiles         Permission = 1 << 15
	PermReadMessageHistory  Permission = 1 << 16
	PermMentionEveryone     Permission = 1 << 17
	PermUseExternalEmojis   Permission = 1 << 18
	PermViewGuildInsights   Permission = 1 << 19
	PermConnect             Permission = 1 << 20
	PermSpeak               Permission = 1 << 21
	PermMuteMembers         Permission = 1 << 22
	PermDeafenMembers       Permission = 1 << 23
	PermMoveMembers         Permission = 1 << 24
	PermUseVAD              Permission = 1 << 25
	PermChangeNickname      Permission = 1 << 26
	PermManageNicknames     Permission = 1 << 27
	PermManageRoles         Permission = 1 << 28
	PermManageWebhooks      Permission = 1 << 29
	PermManageEmojis        Permission = 1 << 30
	PermUseApplicationCmds  Permission = 1 << 31
	PermRequestToSpeak      Permission = 1 << 32
	PermManageEvents        Permission = 1 << 33
	PermManageThreads       Permission = 1 << 34
	PermCreatePublicThreads Permission = 1 << 35
	PermCreatePrivThreads   Permission = 1 << 36
	PermUseExternalStickers Permission = 1 << 37
	PermSendInThreads       Permission = 1 << 38
	PermUseEmbeddedActs     Permission = 1 << 39
	PermModerateMembers     Permission = 1 << 40

	PermAll Permission = 1<<41 - 1
)

// DefaultEveryonePermissions are granted to @everyone in a new guild.
const DefaultEveryonePermissions = PermCreateInstantInvite | PermAddReactions | PermStream |
	PermViewChannel | PermSendMessages | PermEmbedLinks | PermAttachFiles | PermReadMessageHistory |
	PermMentionEveryone | PermUseExternalEmojis | PermConnect | PermSpeak | PermUseVAD |
	PermChangeNickname | PermUseApplicationCmds | PermRequestToSpeak | PermCreatePublicThreads |
	PermCreatePrivThreads | PermUseExternalStickers | PermSendInThreads | PermUseEmbeddedActs

// MarshalJSON encodes the bitset as a decimal string.
func (p Permission) MarshalJSON() ([]byte, error) {
	return Snowflake(p).MarshalJSON()
}

// UnmarshalJSON accepts a decimal string or a number.
func (p *Permission) UnmarshalJSON(b []byte) error {
	var s Snowflake
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	*p = Permission(s)
	return nil
}

// Has reports whether every bit of other is set in p.
func (p Permission) Has(other Permission) bool {
	return p&other == other
}

// Overwrite types.
const (
	OverwriteRole   = 0
	OverwriteMember = 1
)

// PermissionOverwrite adjusts permissions of a role or member on one channel.
type PermissionOverwrite struct {
	ID    int64      `json:"id,string"`
	Type  int        `json:"type"`
	Allow Permission `json:"allow"`
	Deny  Permission `json:"deny"`
}

// ComputePermissions returns the effective permissions of member in guild.
// roles must contain every role of the guild including @everyone. When
// channel is nil the guild-level permissions are returned.
//
// Channel overwrites are applied as: @everyone deny, @everyone allow, role
// denies, role allows, member deny, member allow.
func ComputePermissions(guild Guild, member GuildMember, roles []Role, channel *Channel) Permission {
	if member.UserID == guild.OwnerID {
		return PermAll
	}

	memberRoles := make(map[int64]struct{}, len(member.Roles))
	for _, id := range member.Roles {
		memberRoles[id] = struct{}{}
	}

	var perms Permission
	for _, r := range roles {
		if r.ID == guild.ID {
			perms |= r.Permissions
			continue
		}
		if _, ok := memberRoles[r.ID]; ok {
			perms |= r.Permissions
		}
	}

	if perms.Has(PermAdministrator) {
		return PermAll
	}
	if channel == nil {
		return perms
	}

	var (
		roleAllow, roleDeny Permission
		userOverwrite       *PermissionOverwrite
	)
	for i := range channel.PermissionOverwrites {
		ow := channel.PermissionOverwrites[i]
		switch {
		case ow.Type == OverwriteRole && ow.ID == guild.ID:
			perms &^= ow.Deny
			perms |= ow.Allow
		case ow.Type == OverwriteRole:
			if _, ok := memberRoles[ow.ID]; ok {
				roleAllow |= ow.Allow
				roleDeny |= ow.Deny
			}
		case ow.Type == OverwriteMember && ow.ID == member.UserID:
			userOverwrite = &channel.PermissionOverwrites[i]
		}
	}

	perms &^= roleDeny
	perms |= roleAllow

	if userOverwrite != nil {
		perms &^= userOverwrite.Deny
		perms |= userOverwrite.Allow
	}

	return perms
}
