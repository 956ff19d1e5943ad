package service

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yepcord/server-sub002/internal/cdn"
	"github.com/yepcord/server-sub002/internal/event"
	"github.com/yepcord/server-sub002/internal/mocks"
	"github.com/yepcord/server-sub002/internal/model"
	"github.com/yepcord/server-sub002/internal/pubsub"
	"github.com/yepcord/server-sub002/internal/snowflake"
	"github.com/yepcord/server-sub002/internal/testutil"
)

type published struct {
	Topic string
	Name  string
	Data  event.Data
	Raw   json.RawMessage
}

type fixture struct {
	users         *mocks.UserStore
	sessions      *mocks.SessionStore
	channels      *mocks.ChannelStore
	messages      *mocks.MessageStore
	guilds        *mocks.GuildStore
	relationships *mocks.RelationshipStore
	readStates    *mocks.ReadStateStore
	invites       *mocks.InviteStore
	interactions  *mocks.InteractionStore
	applications  *mocks.ApplicationStore
	storage       *mocks.Storage
	bus           *mocks.Bus

	deps Deps

	mu     sync.Mutex
	events []published
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		users:         mocks.NewUserStore(t),
		sessions:      mocks.NewSessionStore(t),
		channels:      mocks.NewChannelStore(t),
		messages:      mocks.NewMessageStore(t),
		guilds:        mocks.NewGuildStore(t),
		relationships: mocks.NewRelationshipStore(t),
		readStates:    mocks.NewReadStateStore(t),
		invites:       mocks.NewInviteStore(t),
		interactions:  mocks.NewInteractionStore(t),
		applications:  mocks.NewApplicationStore(t),
		storage:       mocks.NewStorage(t),
		bus:           mocks.NewBus(t),
	}
	stores := model.Stores{
		Users:         f.users,
		Sessions:      f.sessions,
		Channels:      f.channels,
		Messages:      f.messages,
		Guilds:        f.guilds,
		Relationships: f.relationships,
		ReadStates:    f.readStates,
		Invites:       f.invites,
		Interactions:  f.interactions,
		Applications:  f.applications,
	}
	log := testutil.MakeNoopLogger()
	f.deps = Deps{
		Stores:     stores,
		Serializer: event.NewSerializer(stores, nil, cdn.New("cdn.example.com"), ""),
		Publisher:  NewPublisher(f.bus, log),
		IDs:        snowflake.NewGenerator(1, 1),
		Logger:     log,
	}

	f.bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).
		Return(nil).
		Run(func(args mock.Arguments) {
			ev := args.Get(2).(pubsub.Event)
			p := published{Topic: args.String(1), Name: ev.E, Raw: ev.Data}
			_ = json.Unmarshal(ev.Data, &p.Data)
			f.mu.Lock()
			f.events = append(f.events, p)
			f.mu.Unlock()
		}).
		Maybe()
	return f
}

// allowRendering lets the serializer load users, roles and the like. It
// must be called after the test's own expectations on the same methods.
func (f *fixture) allowRendering() {
	f.users.On("GetData", mock.Anything, mock.Anything).Return(model.UserData{}, model.ErrNotFound).Maybe()
	f.users.On("GetDataMany", mock.Anything, mock.Anything).Return(nil, nil).Maybe()
	f.guilds.On("AddAuditLogEntry", mock.Anything, mock.Anything).Return(nil).Maybe()
}

func (f *fixture) all() []published {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]published(nil), f.events...)
}

func (f *fixture) names() []string {
	var out []string
	for _, p := range f.all() {
		out = append(out, p.Name)
	}
	return out
}

// event returns the only published event called name.
func (f *fixture) event(t *testing.T, name string) published {
	t.Helper()

	var found []published
	for _, p := range f.all() {
		if p.Name == name {
			found = append(found, p)
		}
	}
	require.Len(t, found, 1, "events named %s", name)
	return found[0]
}

// member makes userID a member of guildID with roles, holding perms in
// every channel.
func (f *fixture) member(guildID, userID int64, perms model.Permission, roles ...int64) model.GuildMember {
	m := model.GuildMember{ID: userID*1000 + guildID, UserID: userID, GuildID: guildID, Roles: roles}
	f.guilds.On("GetMember", mock.Anything, guildID, userID).Return(m, nil).Maybe()
	f.guilds.On("MemberPermissions", mock.Anything, m, mock.Anything).Return(perms, nil).Maybe()
	return m
}

func (f *fixture) guild(g model.Guild) {
	f.guilds.On("GetByID", mock.Anything, g.ID).Return(g, nil).Maybe()
}

func (f *fixture) channel(c model.Channel) {
	f.channels.On("GetByID", mock.Anything, c.ID).Return(c, nil).Maybe()
}

func (f *fixture) user(id int64) {
	f.users.On("GetByID", mock.Anything, id).Return(model.User{ID: id}, nil).Maybe()
}

// requireFormError asserts that err is an Invalid Form Body error with a
// failure recorded at path.
func requireFormError(t *testing.T, err error, path string) {
	t.Helper()

	var apiErr *model.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 50035, apiErr.Code)

	node := apiErr.Errors
	for _, part := range strings.Split(path, ".") {
		next, ok := node[part].(map[string]any)
		require.True(t, ok, "no form error at %s", path)
		node = next
	}
	require.Contains(t, node, "_errors", "no form error at %s", path)
}

func ptr[T any](v T) *T {
	return &v
}
