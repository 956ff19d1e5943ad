package event

// Dispatch event names as seen by clients.
const (
	Ready                     = "READY"
	ReadySupplemental         = "READY_SUPPLEMENTAL"
	Resumed                   = "RESUMED"
	RelationshipAdd           = "RELATIONSHIP_ADD"
	RelationshipRemove        = "RELATIONSHIP_REMOVE"
	PresenceUpdate            = "PRESENCE_UPDATE"
	UserUpdate                = "USER_UPDATE"
	UserNoteUpdate            = "USER_NOTE_UPDATE"
	UserSettingsProtoUpdate   = "USER_SETTINGS_PROTO_UPDATE"
	UserDelete                = "USER_DELETE"
	MessageCreate             = "MESSAGE_CREATE"
	MessageUpdate             = "MESSAGE_UPDATE"
	MessageDelete             = "MESSAGE_DELETE"
	MessageDeleteBulk         = "MESSAGE_DELETE_BULK"
	MessageAck                = "MESSAGE_ACK"
	MessageReactionAdd        = "MESSAGE_REACTION_ADD"
	MessageReactionRemove     = "MESSAGE_REACTION_REMOVE"
	TypingStart               = "TYPING_START"
	ChannelCreate             = "CHANNEL_CREATE"
	ChannelUpdate             = "CHANNEL_UPDATE"
	ChannelDelete             = "CHANNEL_DELETE"
	ChannelPinsUpdate         = "CHANNEL_PINS_UPDATE"
	ChannelRecipientAdd       = "CHANNEL_RECIPIENT_ADD"
	ChannelRecipientRemove    = "CHANNEL_RECIPIENT_REMOVE"
	GuildCreate               = "GUILD_CREATE"
	GuildUpdate               = "GUILD_UPDATE"
	GuildDelete               = "GUILD_DELETE"
	GuildEmojisUpdate         = "GUILD_EMOJIS_UPDATE"
	GuildStickersUpdate       = "GUILD_STICKERS_UPDATE"
	GuildRoleCreate           = "GUILD_ROLE_CREATE"
	GuildRoleUpdate           = "GUILD_ROLE_UPDATE"
	GuildRoleDelete           = "GUILD_ROLE_DELETE"
	GuildMemberUpdate         = "GUILD_MEMBER_UPDATE"
	GuildMemberRemove         = "GUILD_MEMBER_REMOVE"
	GuildMembersChunk         = "GUILD_MEMBERS_CHUNK"
	GuildMemberListUpdate     = "GUILD_MEMBER_LIST_UPDATE"
	GuildBanAdd               = "GUILD_BAN_ADD"
	GuildBanRemove            = "GUILD_BAN_REMOVE"
	GuildAuditLogEntryCreate  = "GUILD_AUDIT_LOG_ENTRY_CREATE"
	GuildScheduledEventCreate = "GUILD_SCHEDULED_EVENT_CREATE"
	GuildScheduledEventUpdate = "GUILD_SCHEDULED_EVENT_UPDATE"
	GuildScheduledEventDelete = "GUILD_SCHEDULED_EVENT_DELETE"
	InviteDelete              = "INVITE_DELETE"
	WebhooksUpdate            = "WEBHOOKS_UPDATE"
	InteractionCreate         = "INTERACTION_CREATE"
	InteractionSuccess        = "INTERACTION_SUCCESS"
	InteractionFailure        = "INTERACTION_FAILURE"
)

// Bus event names, the "e" field of a bus payload.
const (
	BusRelationshipReq         = "relationship_req"
	BusRelationshipAcc         = "relationship_acc"
	BusRelationshipDel         = "relationship_del"
	BusRelationshipBlock       = "relationship_block"
	BusUserUpdate              = "user_update"
	BusUserNoteUpdate          = "user_note_update"
	BusUserSettingsProtoUpdate = "user_settings_proto_update"
	BusUserDelete              = "user_delete"
	BusPresenceUpdate          = "presence_update"
	BusMessageCreate           = "message_create"
	BusMessageUpdate           = "message_update"
	BusMessageDelete           = "message_delete"
	BusMessageDeleteBulk       = "message_delete_bulk"
	BusMessageAck              = "message_ack"
	BusTyping                  = "typing"
	BusReactionAdd             = "reaction_add"
	BusReactionRemove          = "reaction_remove"
	BusChannelPinsUpdate       = "channel_pins_update"
	BusDMChannelCreate         = "dmchannel_create"
	BusDMChannelUpdate         = "dmchannel_update"
	BusDMChannelDelete         = "dmchannel_delete"
	BusChannelRecipientAdd     = "channel_recipient_add"
	BusChannelRecipientRemove  = "channel_recipient_remove"
	BusChannelCreate           = "channel_create"
	BusChannelUpdate           = "channel_update"
	BusChannelDelete           = "channel_delete"
	BusGuildCreate             = "guild_create"
	BusGuildUpdate             = "guild_update"
	BusGuildDelete             = "guild_delete"
	BusGuildEmojisUpdate       = "guild_emojis_update"
	BusGuildStickersUpdate     = "guild_stickers_update"
	BusGuildRoleCreate         = "guild_role_create"
	BusGuildRoleUpdate         = "guild_role_update"
	BusGuildRoleDelete         = "guild_role_delete"
	BusGuildMemberUpdate       = "guild_member_update"
	BusGuildMemberRemove       = "guild_member_remove"
	BusGuildBanAdd             = "guild_ban_add"
	BusGuildBanRemove          = "guild_ban_remove"
	BusGuildAuditLogEntry      = "guild_audit_log_entry_create"
	BusInviteDelete            = "invite_delete"
	BusInteractionCreate       = "interaction_create"
	BusInteractionSuccess      = "interaction_success"
	BusInteractionFailure      = "interaction_failure"
)
