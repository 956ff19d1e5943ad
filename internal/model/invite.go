package model

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"strings"
	"time"

	"github.com/yepcord/server-sub002/internal/snowflake"
)

// InviteStore persists channel invites.
type InviteStore interface {
	Create(ctx context.Context, invite Invite) error
	GetByID(ctx context.Context, id int64) (Invite, error)
	GetByVanity(ctx context.Context, code string) (Invite, error)
	IncrementUses(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	ChannelInvites(ctx context.Context, channelID int64) ([]Invite, error)
}

// Invite grants access to a channel's guild or group DM.
type Invite struct {
	ID         int64
	ChannelID  int64
	GuildID    *int64
	InviterID  int64
	MaxAge     int
	MaxUses    int
	Uses       int
	VanityCode *string
}

// Code is the vanity code if set, otherwise the base64url encoded id.
func (i Invite) Code() string {
	if i.VanityCode != nil && *i.VanityCode != "" {
		return *i.VanityCode
	}
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(i.ID))
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ExpiresAt is the zero time for invites that never expire.
func (i Invite) ExpiresAt() time.Time {
	if i.MaxAge <= 0 {
		return time.Time{}
	}
	return snowflake.Time(i.ID).Add(time.Duration(i.MaxAge) * time.Second)
}

// Usable reports whether the invite has neither expired nor run out of uses.
func (i Invite) Usable(now time.Time) bool {
	if exp := i.ExpiresAt(); !exp.IsZero() && now.After(exp) {
		return false
	}
	return i.MaxUses <= 0 || i.Uses < i.MaxUses
}

var errNotInviteID = errors.New("not an invite id")

// InviteIDFromCode decodes a non-vanity invite code.
func InviteIDFromCode(code string) (int64, error) {
	b, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(code, "="))
	if err != nil || len(b) != 8 {
		return 0, errNotInviteID
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}
