package model

import (
	"context"
	"encoding/json"

	"github.com/bwmarrin/discordgo"
)

// MessageStore defines persistence operations for messages and their children.
type MessageStore interface {
	Create(ctx context.Context, message Message) (Message, error)
	GetByID(ctx context.Context, channelID, id int64) (Message, error)
	Update(ctx context.Context, message Message) (Message, error)
	Delete(ctx context.Context, channelID, id int64) error
	DeleteMany(ctx context.Context, channelID int64, ids []int64) ([]int64, error)
	ChannelMessages(ctx context.Context, channelID int64, limit int, before, after int64) ([]Message, error)
	ChannelMessagesCount(ctx context.Context, channelID int64, before, after int64) (int, error)
	Pins(ctx context.Context, channelID int64) ([]Message, error)
	SetPinned(ctx context.Context, channelID, id int64, pinned bool) error
	AddReaction(ctx context.Context, reaction Reaction) (bool, error)
	RemoveReaction(ctx context.Context, reaction Reaction) (bool, error)
	Reactions(ctx context.Context, messageID int64) ([]Reaction, error)
	CreateAttachment(ctx context.Context, attachment Attachment) error
	Search(ctx context.Context, query MessageSearch) ([]Message, int, error)
}

// Message types.
const (
	MessageTypeDefault          = 0
	MessageTypeRecipientAdd     = 1
	MessageTypeRecipientRemove  = 2
	MessageTypeChannelPinned    = 6
	MessageTypeReply            = 19
	MessageTypeChatInputCommand = 20
)

// Message flags.
const (
	MessageFlagEphemeral = 1 << 6
	MessageFlagLoading   = 1 << 7
)

// Bulk delete and history limits.
const (
	MaxMessageLimit     = 100
	MaxMessageLength    = 2000
	MinBulkDeleteLength = 2
)

// Message is a chat message. AuthorID is nil once the author has been deleted.
type Message struct {
	ID              int64
	ChannelID       int64
	GuildID         *int64
	AuthorID        *int64
	WebhookID       *int64
	ApplicationID   *int64
	InteractionID   *int64
	Content         string
	EditedTimestamp *int64
	Embeds          []*discordgo.MessageEmbed
	Attachments     []Attachment
	Flags           int
	Type            int
	Reference       *MessageReference
	Components      json.RawMessage
	StickerIDs      []int64
	MentionEveryone bool
	Mentions        []int64
	MentionRoles    []int64
	Pinned          bool
	TTS             bool
	Nonce           string
}

// Ephemeral reports whether the message is delivered only to its requester.
func (m Message) Ephemeral() bool {
	return m.Flags&MessageFlagEphemeral != 0
}

// MessageReference points at the message being replied to.
type MessageReference struct {
	MessageID int64  `json:"message_id,string"`
	ChannelID int64  `json:"channel_id,string"`
	GuildID   *int64 `json:"guild_id,string,omitempty"`
}

// Attachment is a file uploaded with a message.
type Attachment struct {
	ID          int64
	ChannelID   int64
	MessageID   int64
	Filename    string
	Size        int64
	ContentType string
	Width       *int
	Height      *int
}

// Reaction is one user's emoji on a message.
type Reaction struct {
	MessageID int64
	ChannelID int64
	UserID    int64
	EmojiID   *int64
	EmojiName string
}

// MessageSearch is a content predicate over one guild or channel.
type MessageSearch struct {
	GuildID   *int64
	ChannelID *int64
	AuthorID  *int64
	Content   string
	Limit     int
	Offset    int
}
