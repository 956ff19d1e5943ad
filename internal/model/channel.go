package model

import "context"

// ChannelStore defines persistence operations for channels.
type ChannelStore interface {
	Create(ctx context.Context, channel Channel) (Channel, error)
	GetByID(ctx context.Context, id int64) (Channel, error)
	Update(ctx context.Context, channel Channel) error
	Delete(ctx context.Context, id int64) error
	GetDM(ctx context.Context, userA, userB int64) (Channel, error)
	PrivateChannels(ctx context.Context, userID int64) ([]Channel, error)
	GuildChannels(ctx context.Context, guildID int64) ([]Channel, error)
	Recipients(ctx context.Context, channelID int64) ([]int64, error)
	AddRecipient(ctx context.Context, channelID, userID int64) error
	RemoveRecipient(ctx context.Context, channelID, userID int64) error
	SetLastMessage(ctx context.Context, channelID, messageID int64) error
	RelatedUsers(ctx context.Context, channelID int64) ([]int64, error)
}

// ChannelType enumerates channel kinds.
type ChannelType int

const (
	ChannelGuildText          ChannelType = 0
	ChannelDM                 ChannelType = 1
	ChannelGuildVoice         ChannelType = 2
	ChannelGroupDM            ChannelType = 3
	ChannelGuildCategory      ChannelType = 4
	ChannelGuildNews          ChannelType = 5
	ChannelGuildPublicThread  ChannelType = 11
	ChannelGuildPrivateThread ChannelType = 12
)

// Group DM recipient bounds.
const (
	GroupDMMinRecipients = 3
	GroupDMMaxRecipients = 10
)

// Channel is a DM, group DM or guild channel. Guild and parent references are
// plain ids resolved on demand.
type Channel struct {
	ID                   int64
	Type                 ChannelType
	GuildID              *int64
	Position             int
	ParentID             *int64
	Name                 *string
	Topic                *string
	NSFW                 bool
	RateLimitPerUser     int
	Bitrate              int
	UserLimit            int
	OwnerID              *int64
	Icon                 *string
	LastMessageID        *int64
	PermissionOverwrites []PermissionOverwrite
	Recipients           []int64
}

// IsPrivate reports whether the channel lives outside any guild.
func (c Channel) IsPrivate() bool {
	return c.Type == ChannelDM || c.Type == ChannelGroupDM
}

// HasRecipient reports whether userID is a recipient of a private channel.
func (c Channel) HasRecipient(userID int64) bool {
	for _, id := range c.Recipients {
		if id == userID {
			return true
		}
	}
	return false
}

// Other returns the DM recipient that is not userID.
func (c Channel) Other(userID int64) int64 {
	for _, id := range c.Recipients {
		if id != userID {
			return id
		}
	}
	return 0
}
