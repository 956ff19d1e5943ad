package pubsub

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrame_Validate(t *testing.T) {
	tests := []struct {
		name    string
		frame   Frame
		wantErr bool
	}{
		{name: "subscribe", frame: Frame{Type: FrameSubscribe, Topic: "user_events"}},
		{name: "subscribe without topic", frame: Frame{Type: FrameSubscribe}, wantErr: true},
		{name: "broadcast", frame: Frame{Type: FrameBroadcast, Topic: "x", Data: json.RawMessage(`{}`)}},
		{name: "broadcast without data", frame: Frame{Type: FrameBroadcast, Topic: "x"}, wantErr: true},
		{name: "request", frame: Frame{Type: FrameRequest, RequestID: "1", BrName: "api"}},
		{name: "request without name", frame: Frame{Type: FrameRequest, RequestID: "1"}, wantErr: true},
		{name: "response", frame: Frame{Type: FrameResponse, RequestID: "1"}},
		{name: "register", frame: Frame{Type: FrameRegister, BrName: "api"}},
		{name: "unknown", frame: Frame{Type: "publish"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.frame.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedFrame)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestFrame_ValidateLowercasesTopic(t *testing.T) {
	f := Frame{Type: FrameSubscribe, Topic: "User_Events"}
	require.NoError(t, f.Validate())
	assert.Equal(t, "user_events", f.Topic)
}

func TestDecodeFrames(t *testing.T) {
	first, err := Frame{Type: FrameSubscribe, Topic: "a"}.Encode()
	require.NoError(t, err)
	second, err := Frame{Type: FrameUnsubscribe, Topic: "b"}.Encode()
	require.NoError(t, err)
	assert.Equal(t, byte('\n'), first[len(first)-1])

	frames, err := DecodeFrames(append(first, second...))
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, FrameSubscribe, frames[0].Type)
	assert.Equal(t, "b", frames[1].Topic)

	_, err = DecodeFrames([]byte("{not json}\n"))
	assert.ErrorIs(t, err, ErrMalformedFrame)
}

func TestNewEvent(t *testing.T) {
	ev, err := NewEvent("message_create", map[string]string{"id": "1"})
	require.NoError(t, err)

	raw, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.JSONEq(t, `{"e":"message_create","data":{"id":"1"}}`, string(raw))
}
