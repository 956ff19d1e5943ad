package event

import (
	"encoding/json"

	"github.com/yepcord/server-sub002/internal/model"
)

// Data is the bus payload of every event that is not a relationship or
// presence change. The REST side renders Payload once; the gateway only
// decides who receives it.
//
// Addressing, most specific first: UserIDs when set, otherwise the channel
// audience when ChannelID is set, otherwise the guild members. Permission
// narrows guild addressing to members holding it. SessionID restricts
// delivery to one session of UserIDs[0].
type Data struct {
	UserID     int64            `json:"user_id,omitempty"`
	UserIDs    []int64          `json:"user_ids,omitempty"`
	SessionID  string           `json:"session_id,omitempty"`
	ChannelID  int64            `json:"channel_id,omitempty"`
	GuildID    int64            `json:"guild_id,omitempty"`
	Permission model.Permission `json:"permission,omitempty"`
	Payload    json.RawMessage  `json:"payload,omitempty"`
}

// RelationshipData is the bus payload of relationship events. Each side
// gets a differently typed dispatch; a zero type means that side is not told.
type RelationshipData struct {
	CurrentUser    int64 `json:"current_user"`
	TargetUser     int64 `json:"target_user"`
	CurrentType    int   `json:"current_type,omitempty"`
	TargetType     int   `json:"target_type,omitempty"`
	ChannelID      int64 `json:"channel_id,omitempty"`
	ChannelCreated bool  `json:"channel_created,omitempty"`
}
