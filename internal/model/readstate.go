package model

import "context"

// ReadStateStore persists per-channel read markers.
type ReadStateStore interface {
	GetAll(ctx context.Context, userID int64) ([]ReadState, error)
	Ack(ctx context.Context, state ReadState) error
	AddMention(ctx context.Context, channelID int64, userIDs []int64) error
	Delete(ctx context.Context, userID, channelID int64) error
	DeleteForGuild(ctx context.Context, userID, guildID int64) error
}

// ReadState is the last message a user has read in a channel.
type ReadState struct {
	UserID       int64
	ChannelID    int64
	LastReadID   int64
	MentionCount int
}
