// Package event defines the gateway envelope, the names of dispatched and
// bus events, the data carried on the bus and the JSON shapes clients see.
package event

import (
	"encoding/json"
)

// Op is a gateway opcode.
type Op int

const (
	OpDispatch       Op = 0
	OpHeartbeat      Op = 1
	OpIdentify       Op = 2
	OpStatus         Op = 3
	OpResume         Op = 6
	OpReconnect      Op = 7
	OpRequestMembers Op = 8
	OpInvalidSession Op = 9
	OpHello          Op = 10
	OpHeartbeatAck   Op = 11
	OpLazyRequest    Op = 14
)

// Envelope is one gateway frame. S is only set on dispatches and is
// assigned by the connection writer.
type Envelope struct {
	Op Op              `json:"op"`
	T  *string         `json:"t"`
	D  json.RawMessage `json:"d"`
	S  *int64          `json:"s"`
}

// Inbound is a frame received from a client.
type Inbound struct {
	Op Op              `json:"op"`
	D  json.RawMessage `json:"d"`
}

// Message is an outbound frame before it has been sequenced.
type Message struct {
	Op Op
	T  string
	D  any
}

// Dispatch builds a DISPATCH message.
func Dispatch(t string, d any) Message {
	return Message{Op: OpDispatch, T: t, D: d}
}

// Control builds a non-dispatch message.
func Control(op Op, d any) Message {
	return Message{Op: op, D: d}
}

// Encode renders the message with sequence s. s is ignored for non-dispatch ops.
func (m Message) Encode(s int64) ([]byte, error) {
	var (
		d   json.RawMessage
		err error
	)
	switch v := m.D.(type) {
	case json.RawMessage:
		d = v
	case nil:
		d = json.RawMessage("null")
	default:
		if d, err = json.Marshal(v); err != nil {
			return nil, err
		}
	}

	env := Envelope{Op: m.Op, D: d}
	if m.Op == OpDispatch {
		t := m.T
		env.T = &t
		env.S = &s
	}
	return json.Marshal(env)
}

// Hello is the first frame sent on a new connection.
type Hello struct {
	HeartbeatInterval int64 `json:"heartbeat_interval"`
}

// Identify is the payload of OpIdentify.
type Identify struct {
	Token        string          `json:"token"`
	Capabilities int             `json:"capabilities"`
	Properties   json.RawMessage `json:"properties"`
	Presence     *StatusUpdate   `json:"presence"`
	Compress     bool            `json:"compress"`
}

// Resume is the payload of OpResume.
type Resume struct {
	Token     string `json:"token"`
	SessionID string `json:"session_id"`
	Seq       int64  `json:"seq"`
}

// StatusUpdate is the payload of OpStatus.
type StatusUpdate struct {
	Status     string          `json:"status"`
	Activities []ActivityInput `json:"activities"`
	AFK        bool            `json:"afk"`
	Since      *int64          `json:"since"`
}

// ActivityInput is an activity as sent by a client.
type ActivityInput struct {
	Name  string         `json:"name"`
	Type  int            `json:"type"`
	State string         `json:"state"`
	Emoji *ActivityEmoji `json:"emoji"`
}

// ActivityEmoji is the emoji of a custom status activity as sent by a client.
type ActivityEmoji struct {
	Name string  `json:"name"`
	ID   *string `json:"id"`
}

// LazyRequest is the payload of OpLazyRequest.
type LazyRequest struct {
	GuildID    string          `json:"guild_id"`
	Members    bool            `json:"members"`
	Typing     bool            `json:"typing"`
	Activities bool            `json:"activities"`
	Threads    bool            `json:"threads"`
	Channels   json.RawMessage `json:"channels"`
}

// RequestMembers is the payload of OpRequestMembers.
type RequestMembers struct {
	GuildID   json.RawMessage `json:"guild_id"`
	Query     string          `json:"query"`
	Limit     int             `json:"limit"`
	Presences bool            `json:"presences"`
	UserIDs   []string        `json:"user_ids"`
	Nonce     string          `json:"nonce"`
}

// GuildIDs accepts both a single id and a list of ids.
func (r RequestMembers) GuildIDs() []string {
	var many []string
	if err := json.Unmarshal(r.GuildID, &many); err == nil {
		return many
	}
	var one string
	if err := json.Unmarshal(r.GuildID, &one); err == nil && one != "" {
		return []string{one}
	}
	return nil
}
