package model

import (
	"time"

	"github.com/bwmarrin/discordgo"
)

// Presence statuses as they appear on the wire.
const (
	StatusOnline    = string(discordgo.StatusOnline)
	StatusIdle      = string(discordgo.StatusIdle)
	StatusDND       = string(discordgo.StatusDoNotDisturb)
	StatusInvisible = string(discordgo.StatusInvisible)
	StatusOffline   = string(discordgo.StatusOffline)
)

// ValidStatus reports whether s is a status a client may set.
func ValidStatus(s string) bool {
	switch s {
	case StatusOnline, StatusIdle, StatusDND, StatusInvisible, StatusOffline:
		return true
	}
	return false
}

// Presence is the ephemeral status of a user across all their connections.
type Presence struct {
	UserID       int64      `json:"user_id,string"`
	Status       string     `json:"status"`
	Activities   []Activity `json:"activities"`
	LastModified int64      `json:"last_modified"`
	ExpiresAt    time.Time  `json:"-"`
}

// PublicStatus is the status shown to other users; invisible users appear offline.
func (p Presence) PublicStatus() string {
	if p.Status == StatusInvisible || p.Status == "" {
		return StatusOffline
	}
	return p.Status
}

// Activity is a rich presence entry.
type Activity struct {
	Name       string          `json:"name"`
	Type       int             `json:"type"`
	State      string          `json:"state,omitempty"`
	Details    string          `json:"details,omitempty"`
	URL        string          `json:"url,omitempty"`
	Emoji      *ActivityEmoji  `json:"emoji,omitempty"`
	Timestamps *ActivityTiming `json:"timestamps,omitempty"`
	CreatedAt  int64           `json:"created_at,omitempty"`
}

// ActivityEmoji is the emoji attached to a custom status activity.
type ActivityEmoji struct {
	Name     string `json:"name"`
	ID       *int64 `json:"id,string,omitempty"`
	Animated bool   `json:"animated,omitempty"`
}

// ActivityTiming holds start and end unix milliseconds.
type ActivityTiming struct {
	Start int64 `json:"start,omitempty"`
	End   int64 `json:"end,omitempty"`
}

// ActivityTypeCustom is the activity type used for custom statuses.
const ActivityTypeCustom = 4

// CustomStatusActivity renders a stored custom status as an activity, or nil.
func CustomStatusActivity(cs *CustomStatus) *Activity {
	if cs == nil || (cs.Text == "" && cs.EmojiName == nil) {
		return nil
	}
	if cs.ExpiresAt != nil && cs.ExpiresAt.Before(time.Now()) {
		return nil
	}
	a := &Activity{Name: "Custom Status", Type: ActivityTypeCustom, State: cs.Text}
	if cs.EmojiName != nil {
		a.Emoji = &ActivityEmoji{Name: *cs.EmojiName, ID: cs.EmojiID}
	}
	return a
}
