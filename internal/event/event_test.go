package event

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage_Encode(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		seq  int64
		want string
	}{
		{
			name: "dispatch carries name and sequence",
			msg:  Dispatch(Ready, map[string]int{"v": 9}),
			seq:  1,
			want: `{"op":0,"t":"READY","d":{"v":9},"s":1}`,
		},
		{
			name: "control frame has null name and sequence",
			msg:  Control(OpHello, Hello{HeartbeatInterval: 45000}),
			seq:  7,
			want: `{"op":10,"t":null,"d":{"heartbeat_interval":45000},"s":null}`,
		},
		{
			name: "nil data",
			msg:  Control(OpHeartbeatAck, nil),
			want: `{"op":11,"t":null,"d":null,"s":null}`,
		},
		{
			name: "raw data passes through",
			msg:  Dispatch(MessageCreate, json.RawMessage(`{"id":"1"}`)),
			seq:  3,
			want: `{"op":0,"t":"MESSAGE_CREATE","d":{"id":"1"},"s":3}`,
		},
		{
			name: "invalid session",
			msg:  Control(OpInvalidSession, false),
			want: `{"op":9,"t":null,"d":false,"s":null}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := tt.msg.Encode(tt.seq)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(raw))
		})
	}
}

func TestRequestMembers_GuildIDs(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "single string", raw: `{"guild_id":"5"}`, want: []string{"5"}},
		{name: "list", raw: `{"guild_id":["5","6"]}`, want: []string{"5", "6"}},
		{name: "empty", raw: `{"guild_id":""}`, want: nil},
		{name: "missing", raw: `{}`, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req RequestMembers
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &req))
			assert.Equal(t, tt.want, req.GuildIDs())
		})
	}
}
