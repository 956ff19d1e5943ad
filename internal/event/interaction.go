package event

import "encoding/json"

// InteractionState is what the invoking session sees of an interaction:
// the payload of INTERACTION_CREATE to the invoker and of
// INTERACTION_SUCCESS and INTERACTION_FAILURE.
type InteractionState struct {
	ID    int64   `json:"id,string"`
	Nonce *string `json:"nonce"`
}

// Interaction is the INTERACTION_CREATE payload delivered to the bot.
type Interaction struct {
	ID            int64           `json:"id,string"`
	ApplicationID int64           `json:"application_id,string"`
	Type          int             `json:"type"`
	Token         string          `json:"token"`
	Version       int             `json:"version"`
	ChannelID     int64           `json:"channel_id,string"`
	GuildID       *int64          `json:"guild_id,string,omitempty"`
	Member        *Member         `json:"member,omitempty"`
	User          *User           `json:"user,omitempty"`
	Locale        string          `json:"locale,omitempty"`
	Data          json.RawMessage `json:"data"`
}

// InteractionData is the command invocation inside an Interaction.
type InteractionData struct {
	ID       int64               `json:"id,string"`
	Name     string              `json:"name"`
	Type     int                 `json:"type"`
	GuildID  *int64              `json:"guild_id,string,omitempty"`
	Options  []InteractionOption `json:"options,omitempty"`
	Resolved *Resolved           `json:"resolved,omitempty"`
}

// InteractionOption is one validated option value.
type InteractionOption struct {
	Type    int                 `json:"type"`
	Name    string              `json:"name"`
	Value   any                 `json:"value,omitempty"`
	Options []InteractionOption `json:"options,omitempty"`
}

// Resolved holds the entities referenced by options, keyed by id.
type Resolved struct {
	Users    map[string]User    `json:"users,omitempty"`
	Members  map[string]Member  `json:"members,omitempty"`
	Channels map[string]Channel `json:"channels,omitempty"`
	Roles    map[string]Role    `json:"roles,omitempty"`
}

// Empty reports whether nothing was resolved.
func (r *Resolved) Empty() bool {
	return len(r.Users) == 0 && len(r.Members) == 0 && len(r.Channels) == 0 && len(r.Roles) == 0
}
