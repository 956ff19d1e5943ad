package model

import (
	"context"
	"fmt"
	"time"
)

// UserStore defines persistence operations for users and their profile rows.
type UserStore interface {
	Create(ctx context.Context, user User, data UserData, settings UserSettings) (User, error)
	GetByID(ctx context.Context, id int64) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByUsername(ctx context.Context, username string, discriminator int) (User, error)
	RandomFreeDiscriminator(ctx context.Context, username string) (int, bool, error)
	GetData(ctx context.Context, userID int64) (UserData, error)
	GetDataMany(ctx context.Context, userIDs []int64) ([]UserData, error)
	UpdateData(ctx context.Context, data UserData) error
	GetSettings(ctx context.Context, userID int64) (UserSettings, error)
	UpdateSettings(ctx context.Context, settings UserSettings) error
	UpdatePassword(ctx context.Context, userID int64, passwordHash, key string) error
	Delete(ctx context.Context, userID int64) error
	GetNote(ctx context.Context, userID, targetID int64) (string, error)
	SetNote(ctx context.Context, userID, targetID int64, note string) error
	RelatedUsers(ctx context.Context, userID int64) ([]int64, error)
}

// User is an account row. Key is the hex encoded per-user session key used
// to sign session tokens.
type User struct {
	ID       int64
	Email    string
	Password string
	Key      string
	Verified bool
	Deleted  bool
	IsBot    bool
}

// UserData holds the public profile of a user.
type UserData struct {
	UserID        int64
	Birth         time.Time
	Username      string
	Discriminator int
	Flags         int64
	PublicFlags   int64
	Avatar        *string
	Banner        *string
	BannerColor   *int
	AccentColor   *int
	Bio           string
	Phone         *string
	Premium       bool
}

// Tag renders "username#0001".
func (d UserData) Tag() string {
	return fmt.Sprintf("%s#%04d", d.Username, d.Discriminator)
}

// UserSettings holds client preferences.
type UserSettings struct {
	UserID                 int64
	Status                 string
	Locale                 string
	Theme                  string
	MFASecret              *string
	DeveloperMode          bool
	MessageDisplayCompact  bool
	RenderEmbeds           bool
	InlineEmbedMedia       bool
	AnalyticsConsent       bool
	PersonalizationConsent bool
	CustomStatus           *CustomStatus
}

// MFAEnabled reports whether login requires a second factor.
func (s UserSettings) MFAEnabled() bool {
	return s.MFASecret != nil && *s.MFASecret != ""
}

// CustomStatus is the free-form status line shown under a username.
type CustomStatus struct {
	Text      string     `json:"text,omitempty"`
	EmojiID   *int64     `json:"emoji_id,string,omitempty"`
	EmojiName *string    `json:"emoji_name,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// DefaultUserSettings returns settings for a freshly registered account.
func DefaultUserSettings(userID int64) UserSettings {
	return UserSettings{
		UserID:           userID,
		Status:           StatusOnline,
		Locale:           "en-US",
		Theme:            "dark",
		RenderEmbeds:     true,
		InlineEmbedMedia: true,
	}
}
