package gateway

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yepcord/server-sub002/internal/cdn"
	"github.com/yepcord/server-sub002/internal/event"
	"github.com/yepcord/server-sub002/internal/mocks"
	"github.com/yepcord/server-sub002/internal/model"
	"github.com/yepcord/server-sub002/internal/pubsub"
	"github.com/yepcord/server-sub002/internal/testutil"
)

type fanoutFixture struct {
	fanout   *Fanout
	registry *Registry
	users    *mocks.UserStore
	channels *mocks.ChannelStore
	guilds   *mocks.GuildStore
	conns    map[string]*Conn
	sessions map[string]*Session
}

// newFanoutFixture connects alice (two sessions), bob and dave.
func newFanoutFixture(t *testing.T) *fanoutFixture {
	f := &fanoutFixture{
		registry: NewRegistry(),
		users:    mocks.NewUserStore(t),
		channels: mocks.NewChannelStore(t),
		guilds:   mocks.NewGuildStore(t),
		conns:    make(map[string]*Conn),
		sessions: make(map[string]*Session),
	}
	stores := model.Stores{Users: f.users, Channels: f.channels, Guilds: f.guilds}
	serializer := event.NewSerializer(stores, nil, cdn.New("cdn.example.com"), "")
	f.fanout = NewFanout(f.registry, serializer, stores, nil, testutil.MakeNoopLogger())

	for name, uid := range map[string]int64{"alice1": 1, "alice2": 1, "bob": 2, "dave": 4} {
		s := newSession(uid)
		c := testConn()
		s.attach(c, 0, false)
		f.registry.Add(s)
		f.conns[name] = c
		f.sessions[name] = s
	}
	return f
}

func (f *fanoutFixture) received(t *testing.T) map[string][]event.Envelope {
	out := make(map[string][]event.Envelope)
	for name, c := range f.conns {
		if frames := drainFrames(t, c); len(frames) > 0 {
			out[name] = frames
		}
	}
	return out
}

func busEvent(t *testing.T, name string, data any) json.RawMessage {
	t.Helper()
	ev, err := pubsub.NewEvent(name, data)
	require.NoError(t, err)
	raw, err := json.Marshal(ev)
	require.NoError(t, err)
	return raw
}

func TestFanout_ChannelAudience(t *testing.T) {
	f := newFanoutFixture(t)
	f.channels.On("RelatedUsers", mock.Anything, int64(10)).Return([]int64{1, 2, 3}, nil).Once()

	f.fanout.Handle(context.Background(), pubsub.TopicMessageEvents, busEvent(t, event.BusMessageCreate, event.Data{
		ChannelID: 10,
		Payload:   json.RawMessage(`{"id":"99","content":"hi"}`),
	}))

	got := f.received(t)
	require.ElementsMatch(t, []string{"alice1", "alice2", "bob"}, keys(got))
	for name, frames := range got {
		require.Len(t, frames, 1, name)
		assert.Equal(t, []string{event.MessageCreate}, names(frames))
		assert.JSONEq(t, `{"id":"99","content":"hi"}`, string(frames[0].D))
		assert.Equal(t, int64(1), *frames[0].S)
	}
}

func TestFanout_SessionOnly(t *testing.T) {
	f := newFanoutFixture(t)

	f.fanout.Handle(context.Background(), pubsub.TopicUserEvents, busEvent(t, event.BusInteractionCreate, event.Data{
		UserIDs:   []int64{1},
		SessionID: f.sessions["alice2"].ID,
		Payload:   json.RawMessage(`{"id":"5"}`),
	}))

	got := f.received(t)
	assert.Equal(t, []string{"alice2"}, keys(got))
}

func TestFanout_GuildPermission(t *testing.T) {
	f := newFanoutFixture(t)
	f.guilds.On("MemberUserIDs", mock.Anything, int64(5)).Return([]int64{1, 2, 7}, nil).Once()

	alice := model.GuildMember{UserID: 1, GuildID: 5}
	bob := model.GuildMember{UserID: 2, GuildID: 5}
	f.guilds.On("GetMember", mock.Anything, int64(5), int64(1)).Return(alice, nil).Once()
	f.guilds.On("GetMember", mock.Anything, int64(5), int64(2)).Return(bob, nil).Once()
	f.guilds.On("MemberPermissions", mock.Anything, alice, (*model.Channel)(nil)).Return(model.PermBanMembers|model.PermViewChannel, nil).Once()
	f.guilds.On("MemberPermissions", mock.Anything, bob, (*model.Channel)(nil)).Return(model.PermViewChannel, nil).Once()

	f.fanout.Handle(context.Background(), pubsub.TopicGuildEvents, busEvent(t, event.BusGuildBanAdd, event.Data{
		GuildID:    5,
		Permission: model.PermBanMembers,
		Payload:    json.RawMessage(`{"guild_id":"5"}`),
	}))

	got := f.received(t)
	assert.ElementsMatch(t, []string{"alice1", "alice2"}, keys(got))
}

func TestFanout_Relationships(t *testing.T) {
	tests := []struct {
		name string
		e    string
		data event.RelationshipData
		want map[string]string
	}{
		{
			name: "request tells both sides",
			e:    event.BusRelationshipReq,
			data: event.RelationshipData{CurrentUser: 1, TargetUser: 2, CurrentType: model.RelTypeOutgoing, TargetType: model.RelTypeIncoming},
			want: map[string]string{
				"alice1": `{"type":"RELATIONSHIP_ADD","id":"2","kind":4}`,
				"alice2": `{"type":"RELATIONSHIP_ADD","id":"2","kind":4}`,
				"bob":    `{"type":"RELATIONSHIP_ADD","id":"1","kind":3}`,
			},
		},
		{
			name: "delete removes with each side's type",
			e:    event.BusRelationshipDel,
			data: event.RelationshipData{CurrentUser: 2, TargetUser: 1, CurrentType: model.RelTypeIncoming, TargetType: model.RelTypeOutgoing},
			want: map[string]string{
				"alice1": `{"type":"RELATIONSHIP_REMOVE","id":"2","kind":4}`,
				"alice2": `{"type":"RELATIONSHIP_REMOVE","id":"2","kind":4}`,
				"bob":    `{"type":"RELATIONSHIP_REMOVE","id":"1","kind":3}`,
			},
		},
		{
			name: "block without prior relationship only tells the blocker",
			e:    event.BusRelationshipBlock,
			data: event.RelationshipData{CurrentUser: 2, TargetUser: 1, CurrentType: model.RelTypeBlocked},
			want: map[string]string{
				"bob": `{"type":"RELATIONSHIP_ADD","id":"1","kind":2}`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFanoutFixture(t)
			f.users.On("GetData", mock.Anything, int64(1)).Return(model.UserData{UserID: 1, Username: "alice", Discriminator: 1}, nil).Maybe()
			f.users.On("GetData", mock.Anything, int64(2)).Return(model.UserData{UserID: 2, Username: "bob", Discriminator: 1}, nil).Maybe()

			f.fanout.Handle(context.Background(), pubsub.TopicUserEvents, busEvent(t, tt.e, tt.data))

			got := f.received(t)
			require.ElementsMatch(t, keysOf(tt.want), keys(got))
			for name, frames := range got {
				require.Len(t, frames, 1)
				var rel struct {
					ID   string `json:"id"`
					Type int    `json:"type"`
				}
				require.NoError(t, json.Unmarshal(frames[0].D, &rel))
				summary, err := json.Marshal(map[string]any{"type": *frames[0].T, "id": rel.ID, "kind": rel.Type})
				require.NoError(t, err)
				assert.JSONEq(t, tt.want[name], string(summary), name)
			}
		})
	}
}

func TestFanout_AcceptCreatesChannel(t *testing.T) {
	f := newFanoutFixture(t)
	f.users.On("GetData", mock.Anything, int64(1)).Return(model.UserData{UserID: 1, Username: "alice", Discriminator: 1}, nil).Maybe()
	f.users.On("GetData", mock.Anything, int64(2)).Return(model.UserData{UserID: 2, Username: "bob", Discriminator: 1}, nil).Maybe()
	f.channels.On("GetByID", mock.Anything, int64(20)).
		Return(model.Channel{ID: 20, Type: model.ChannelDM, Recipients: []int64{1, 2}}, nil)
	f.users.On("GetDataMany", mock.Anything, []int64{2}).Return([]model.UserData{{UserID: 2, Username: "bob"}}, nil)
	f.users.On("GetDataMany", mock.Anything, []int64{1}).Return([]model.UserData{{UserID: 1, Username: "alice"}}, nil)

	f.fanout.Handle(context.Background(), pubsub.TopicUserEvents, busEvent(t, event.BusRelationshipAcc, event.RelationshipData{
		CurrentUser:    2,
		TargetUser:     1,
		CurrentType:    model.RelTypeFriend,
		TargetType:     model.RelTypeFriend,
		ChannelID:      20,
		ChannelCreated: true,
	}))

	got := f.received(t)
	for _, name := range []string{"alice1", "alice2", "bob"} {
		require.Equal(t, []string{event.RelationshipAdd, event.ChannelCreate}, names(got[name]), name)

		var ch event.Channel
		require.NoError(t, json.Unmarshal(got[name][1].D, &ch))
		require.Len(t, ch.Recipients, 1)
		assert.NotEqual(t, f.sessions[name].UserID, ch.Recipients[0].ID, "recipients exclude the viewer")
	}
}

func TestFanout_Presence(t *testing.T) {
	f := newFanoutFixture(t)
	f.users.On("RelatedUsers", mock.Anything, int64(1)).Return([]int64{1, 2, 4, 9}, nil).Once()

	f.fanout.Handle(context.Background(), pubsub.TopicUserEvents, busEvent(t, event.BusPresenceUpdate, model.Presence{
		UserID: 1,
		Status: model.StatusInvisible,
	}))

	got := f.received(t)
	require.ElementsMatch(t, []string{"bob", "dave"}, keys(got))

	var p event.Presence
	require.NoError(t, json.Unmarshal(got["bob"][0].D, &p))
	assert.Equal(t, model.StatusOffline, p.Status)
	require.NotNil(t, p.User)
	assert.Equal(t, int64(1), p.User.ID)
}

func TestFanout_GuildCreateRenderedPerViewer(t *testing.T) {
	f := newFanoutFixture(t)
	g := model.Guild{ID: 5, OwnerID: 1, Name: "guild"}
	f.guilds.On("GetByID", mock.Anything, int64(5)).Return(g, nil).Once()
	f.guilds.On("Roles", mock.Anything, int64(5)).Return([]model.Role{}, nil)
	f.guilds.On("Emojis", mock.Anything, int64(5)).Return([]model.Emoji{}, nil)
	f.channels.On("GuildChannels", mock.Anything, int64(5)).Return([]model.Channel{}, nil)
	f.guilds.On("MemberCount", mock.Anything, int64(5)).Return(2, nil)
	f.guilds.On("GetMember", mock.Anything, int64(5), int64(2)).Return(model.GuildMember{ID: 50, UserID: 2, GuildID: 5}, nil).Once()
	f.users.On("GetData", mock.Anything, int64(2)).Return(model.UserData{UserID: 2, Username: "bob"}, nil).Once()

	f.fanout.Handle(context.Background(), pubsub.TopicGuildEvents, busEvent(t, event.BusGuildCreate, event.Data{
		GuildID: 5,
		UserIDs: []int64{2},
	}))

	got := f.received(t)
	require.Equal(t, []string{"bob"}, keys(got))
	var rendered event.Guild
	require.NoError(t, json.Unmarshal(got["bob"][0].D, &rendered))
	require.Len(t, rendered.Members, 1)
	assert.Equal(t, "bob", rendered.Members[0].User.Username)
}

func TestFanout_DropsUnknownAndMalformed(t *testing.T) {
	f := newFanoutFixture(t)

	f.fanout.Handle(context.Background(), pubsub.TopicUserEvents, busEvent(t, "not_an_event", event.Data{UserIDs: []int64{1}}))
	f.fanout.Handle(context.Background(), pubsub.TopicUserEvents, json.RawMessage(`{"e":`))
	f.fanout.Handle(context.Background(), pubsub.TopicUserEvents, json.RawMessage(`{"e":"user_update","data":"nope"}`))

	assert.Empty(t, f.received(t))
}

func TestForwardedEventsHaveHandlers(t *testing.T) {
	f := newFanoutFixture(t)
	for busName := range forwarded {
		_, ok := f.fanout.handlers[busName]
		assert.True(t, ok, busName)
	}
	for _, busName := range []string{
		event.BusRelationshipReq, event.BusRelationshipAcc, event.BusRelationshipDel, event.BusRelationshipBlock,
		event.BusPresenceUpdate, event.BusDMChannelCreate, event.BusDMChannelUpdate, event.BusGuildCreate,
	} {
		_, ok := f.fanout.handlers[busName]
		assert.True(t, ok, busName)
	}
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func keysOf(m map[string]string) []string {
	return keys(m)
}
