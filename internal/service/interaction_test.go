package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yepcord/server-sub002/internal/event"
	"github.com/yepcord/server-sub002/internal/model"
)

const (
	testApp     = int64(900)
	testCommand = int64(50)
)

var echoCommand = model.ApplicationCommand{
	ID:            testCommand,
	ApplicationID: testApp,
	Name:          "echo",
	Type:          1,
	Options: []model.CommandOption{
		{Type: model.OptionString, Name: "text", Required: true},
		{Type: model.OptionInteger, Name: "times", Choices: []model.CommandChoice{
			{Name: "once", Value: float64(1)},
			{Name: "twice", Value: float64(2)},
		}},
		{Type: model.OptionUser, Name: "target"},
		{Type: model.OptionChannel, Name: "where"},
		{Type: model.OptionRole, Name: "role"},
	},
}

func opt(typ int, name, value string) InteractionOption {
	return InteractionOption{Type: typ, Name: name, Value: json.RawMessage(value)}
}

// slashCommand registers the echo command of testApp, installed in
// testGuild, and returns an invocation of it by user 1 in testChannel.
func (f *fixture) slashCommand(perms model.Permission, options ...InteractionOption) CreateInteractionRequest {
	f.guildText(1, perms)
	f.applications.On("GetByID", mock.Anything, testApp).Return(model.Application{ID: testApp, Name: "bot"}, nil).Maybe()
	f.applications.On("IsInstalled", mock.Anything, testApp, testGuild).Return(true, nil).Maybe()
	f.applications.On("GetCommand", mock.Anything, testApp, testCommand).Return(echoCommand, nil).Maybe()

	return CreateInteractionRequest{
		Type:          model.InteractionTypeApplicationCommand,
		ApplicationID: model.Snowflake(testApp),
		ChannelID:     model.Snowflake(testChannel),
		SessionID:     "sess",
		Nonce:         ptr("n1"),
		Data: InteractionCommandData{
			ID:      model.Snowflake(testCommand),
			Name:    "echo",
			Type:    1,
			Options: options,
		},
	}
}

const invokePerms = model.PermViewChannel | model.PermUseApplicationCmds

// botInteraction decodes the INTERACTION_CREATE addressed to the bot.
func botInteraction(t *testing.T, f *fixture) (event.Interaction, event.InteractionData) {
	t.Helper()

	for _, p := range f.all() {
		if p.Name != event.BusInteractionCreate || len(p.Data.UserIDs) != 1 || p.Data.UserIDs[0] != testApp {
			continue
		}
		var it event.Interaction
		require.NoError(t, json.Unmarshal(p.Data.Payload, &it))
		var data event.InteractionData
		require.NoError(t, json.Unmarshal(it.Data, &data))
		return it, data
	}
	require.FailNow(t, "no interaction delivered to the bot")
	return event.Interaction{}, event.InteractionData{}
}

func TestInteractions_Create(t *testing.T) {
	f := newFixture(t)
	req := f.slashCommand(invokePerms, opt(model.OptionString, "text", `"hi"`), opt(model.OptionInteger, "times", `"2"`))
	var stored model.Interaction
	f.interactions.On("Create", mock.Anything, mock.MatchedBy(func(it model.Interaction) bool {
		stored = it
		return it.Status == model.InteractionPending && it.Token != "" && it.SessionID == "sess"
	})).Return(nil)
	f.allowRendering()

	s := NewInteractions(f.deps, time.Hour)
	defer s.Close()
	require.NoError(t, s.Create(context.Background(), 1, req))

	var invoker []published
	for _, p := range f.all() {
		if p.Name == event.BusInteractionCreate && p.Data.SessionID == "sess" {
			invoker = append(invoker, p)
		}
	}
	require.Len(t, invoker, 1)
	assert.Equal(t, []int64{1}, invoker[0].Data.UserIDs)
	var state event.InteractionState
	require.NoError(t, json.Unmarshal(invoker[0].Data.Payload, &state))
	assert.Equal(t, stored.ID, state.ID)
	assert.Equal(t, ptr("n1"), state.Nonce)

	it, data := botInteraction(t, f)
	assert.Equal(t, stored.Token, it.Token)
	require.NotNil(t, it.Member)
	assert.Nil(t, it.User)
	assert.Equal(t, "echo", data.Name)
	require.Len(t, data.Options, 2)
	assert.Equal(t, "hi", data.Options[0].Value)
	assert.Equal(t, float64(2), data.Options[1].Value)
	assert.Nil(t, data.Resolved)
}

func TestInteractions_CreateRejects(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(f *fixture)
		mutate    func(r *CreateInteractionRequest)
		wantErr   error
		wantField string
	}{
		{
			name:      "not a command",
			mutate:    func(r *CreateInteractionRequest) { r.Type = model.InteractionTypeMessageComponent },
			wantField: "type",
		},
		{
			name: "unknown application",
			setup: func(f *fixture) {
				f.applications.On("GetByID", mock.Anything, testApp).Return(model.Application{}, model.ErrNotFound)
			},
			wantErr: model.ErrUnknownApplication,
		},
		{
			name: "not installed",
			setup: func(f *fixture) {
				f.applications.On("IsInstalled", mock.Anything, testApp, testGuild).Return(false, nil)
			},
			wantErr: model.ErrUnknownApplication,
		},
		{
			name: "missing permission",
			setup: func(f *fixture) {
				f.member(testGuild, 1, model.PermViewChannel)
			},
			wantErr: model.ErrMissingPermissions,
		},
		{
			name: "unknown command",
			setup: func(f *fixture) {
				f.applications.On("GetCommand", mock.Anything, testApp, testCommand).Return(model.ApplicationCommand{}, model.ErrNotFound)
			},
			wantErr: model.ErrUnknownCommand,
		},
		{
			name: "command of another guild",
			setup: func(f *fixture) {
				cmd := echoCommand
				cmd.GuildID = ptr(int64(101))
				f.applications.On("GetCommand", mock.Anything, testApp, testCommand).Return(cmd, nil)
			},
			wantErr: model.ErrUnknownCommand,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.setup != nil {
				tt.setup(f)
			}
			req := f.slashCommand(invokePerms, opt(model.OptionString, "text", `"hi"`))
			if tt.mutate != nil {
				tt.mutate(&req)
			}

			s := NewInteractions(f.deps, time.Hour)
			defer s.Close()
			err := s.Create(context.Background(), 1, req)
			if tt.wantField != "" {
				requireFormError(t, err, tt.wantField)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Empty(t, f.all())
		})
	}
}

func TestInteractions_OptionValidation(t *testing.T) {
	tests := []struct {
		name     string
		options  []InteractionOption
		wantPath string
	}{
		{
			name:     "missing required",
			wantPath: "data.options.text",
		},
		{
			name:     "type mismatch",
			options:  []InteractionOption{opt(model.OptionInteger, "text", `1`)},
			wantPath: "data.options.text",
		},
		{
			name:     "unknown option",
			options:  []InteractionOption{opt(model.OptionString, "text", `"hi"`), opt(model.OptionString, "bogus", `"x"`)},
			wantPath: "data.options.bogus",
		},
		{
			name:     "duplicate option",
			options:  []InteractionOption{opt(model.OptionString, "text", `"a"`), opt(model.OptionString, "text", `"b"`)},
			wantPath: "data.options.text",
		},
		{
			name:     "fractional integer",
			options:  []InteractionOption{opt(model.OptionString, "text", `"hi"`), opt(model.OptionInteger, "times", `1.5`)},
			wantPath: "data.options.times",
		},
		{
			name:     "not a choice",
			options:  []InteractionOption{opt(model.OptionString, "text", `"hi"`), opt(model.OptionInteger, "times", `7`)},
			wantPath: "data.options.times",
		},
		{
			name:     "bad snowflake",
			options:  []InteractionOption{opt(model.OptionString, "text", `"hi"`), opt(model.OptionUser, "target", `"abc"`)},
			wantPath: "data.options.target",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := f.slashCommand(invokePerms, tt.options...)

			s := NewInteractions(f.deps, time.Hour)
			defer s.Close()
			requireFormError(t, s.Create(context.Background(), 1, req), tt.wantPath)
		})
	}
}

func TestInteractions_ResolvesReferences(t *testing.T) {
	f := newFixture(t)
	guildID := testGuild
	req := f.slashCommand(invokePerms,
		opt(model.OptionString, "text", `"hi"`),
		opt(model.OptionUser, "target", `"2"`),
		opt(model.OptionChannel, "where", `"6"`),
		opt(model.OptionRole, "role", `"200"`),
	)
	f.user(2)
	f.member(testGuild, 2, 0)
	f.channel(model.Channel{ID: 6, Type: model.ChannelGuildText, GuildID: &guildID, Name: ptr("other")})
	f.guilds.On("GetRole", mock.Anything, testGuild, int64(200)).Return(model.Role{ID: 200, GuildID: testGuild, Name: "mods"}, nil)
	f.interactions.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.allowRendering()

	s := NewInteractions(f.deps, time.Hour)
	defer s.Close()
	require.NoError(t, s.Create(context.Background(), 1, req))

	_, data := botInteraction(t, f)
	require.Len(t, data.Options, 4)
	assert.Equal(t, "2", data.Options[1].Value)
	assert.Equal(t, "6", data.Options[2].Value)
	assert.Equal(t, "200", data.Options[3].Value)

	require.NotNil(t, data.Resolved)
	assert.Contains(t, data.Resolved.Users, "2")
	assert.Contains(t, data.Resolved.Members, "2")
	assert.Contains(t, data.Resolved.Channels, "6")
	assert.Equal(t, "mods", data.Resolved.Roles["200"].Name)
}

func TestInteractions_ResolveRejects(t *testing.T) {
	t.Run("user outside the guild", func(t *testing.T) {
		f := newFixture(t)
		req := f.slashCommand(invokePerms, opt(model.OptionString, "text", `"hi"`), opt(model.OptionUser, "target", `3`))
		f.user(3)
		f.guilds.On("GetMember", mock.Anything, testGuild, int64(3)).Return(model.GuildMember{}, model.ErrNotFound)

		s := NewInteractions(f.deps, time.Hour)
		defer s.Close()
		requireFormError(t, s.Create(context.Background(), 1, req), "data.options.target")
	})

	t.Run("channel of another guild", func(t *testing.T) {
		f := newFixture(t)
		other := int64(101)
		req := f.slashCommand(invokePerms, opt(model.OptionString, "text", `"hi"`), opt(model.OptionChannel, "where", `7`))
		f.channel(model.Channel{ID: 7, Type: model.ChannelGuildText, GuildID: &other})

		s := NewInteractions(f.deps, time.Hour)
		defer s.Close()
		requireFormError(t, s.Create(context.Background(), 1, req), "data.options.where")
	})

	t.Run("role in a DM", func(t *testing.T) {
		f := newFixture(t)
		f.channel(model.Channel{ID: 8, Type: model.ChannelDM, Recipients: []int64{1, testApp}})
		f.applications.On("GetByID", mock.Anything, testApp).Return(model.Application{ID: testApp}, nil)
		f.applications.On("GetCommand", mock.Anything, testApp, testCommand).Return(echoCommand, nil)
		req := CreateInteractionRequest{
			Type:          model.InteractionTypeApplicationCommand,
			ApplicationID: model.Snowflake(testApp),
			ChannelID:     8,
			Data: InteractionCommandData{
				ID:      model.Snowflake(testCommand),
				Options: []InteractionOption{opt(model.OptionString, "text", `"hi"`), opt(model.OptionRole, "role", `200`)},
			},
		}

		s := NewInteractions(f.deps, time.Hour)
		defer s.Close()
		requireFormError(t, s.Create(context.Background(), 1, req), "data.options.role")
	})
}

func TestCoercion(t *testing.T) {
	t.Run("integer", func(t *testing.T) {
		for raw, want := range map[string]int64{`42`: 42, `"42"`: 42, `1.0`: 1, `-3`: -3} {
			got, ok := coerceInteger(json.RawMessage(raw))
			assert.True(t, ok, raw)
			assert.Equal(t, want, got, raw)
		}
		for _, raw := range []string{`1.5`, `true`, `"x"`, `1e300`} {
			_, ok := coerceInteger(json.RawMessage(raw))
			assert.False(t, ok, raw)
		}
	})

	t.Run("number", func(t *testing.T) {
		got, ok := coerceNumber(json.RawMessage(`" 2.5 "`))
		assert.True(t, ok)
		assert.Equal(t, 2.5, got)
		_, ok = coerceNumber(json.RawMessage(`"NaN"`))
		assert.False(t, ok)
	})

	t.Run("bool", func(t *testing.T) {
		got, ok := coerceBool(json.RawMessage(`"TRUE"`))
		assert.True(t, ok)
		assert.True(t, got)
		_, ok = coerceBool(json.RawMessage(`1`))
		assert.False(t, ok)
	})

	t.Run("string", func(t *testing.T) {
		got, ok := coerceString(json.RawMessage(`12`))
		assert.True(t, ok)
		assert.Equal(t, "12", got)
		_, ok = coerceString(json.RawMessage(`{}`))
		assert.False(t, ok)
	})

	t.Run("id", func(t *testing.T) {
		got, ok := coerceID(json.RawMessage(`"123"`))
		assert.True(t, ok)
		assert.Equal(t, int64(123), got)
		for _, raw := range []string{`0`, `"-1"`, `"abc"`} {
			_, ok := coerceID(json.RawMessage(raw))
			assert.False(t, ok, raw)
		}
	})

	t.Run("choices", func(t *testing.T) {
		choices := []model.CommandChoice{{Value: float64(1)}, {Value: "red"}}
		assert.True(t, matchesChoice(int64(1), choices))
		assert.True(t, matchesChoice(1.0, choices))
		assert.True(t, matchesChoice("red", choices))
		assert.False(t, matchesChoice(int64(2), choices))
	})
}

// pendingInteraction registers a pending interaction of user 1 in
// testChannel answering the echo command.
func (f *fixture) pendingInteraction() model.Interaction {
	guildID := testGuild
	it := model.Interaction{
		ID:            42,
		ApplicationID: testApp,
		UserID:        1,
		GuildID:       &guildID,
		ChannelID:     testChannel,
		CommandID:     testCommand,
		Type:          model.InteractionTypeApplicationCommand,
		Token:         "tok",
		Data:          json.RawMessage(`{"id":"50","name":"echo","type":1}`),
		Status:        model.InteractionPending,
		SessionID:     "sess",
	}
	f.interactions.On("GetByID", mock.Anything, it.ID).Return(it, nil).Maybe()
	return it
}

func TestInteractions_CallbackRejects(t *testing.T) {
	tests := []struct {
		name      string
		id        int64
		token     string
		cb        InteractionCallback
		setup     func(f *fixture)
		wantErr   error
		wantField string
	}{
		{
			name:  "unknown interaction",
			id:    43,
			token: "tok",
			setup: func(f *fixture) {
				f.interactions.On("GetByID", mock.Anything, int64(43)).Return(model.Interaction{}, model.ErrNotFound)
			},
			wantErr: model.ErrUnknownInteraction,
		},
		{
			name:    "wrong token",
			id:      42,
			token:   "nope",
			cb:      InteractionCallback{Type: 4, Data: &InteractionCallbackData{Content: "pong"}},
			wantErr: model.ErrUnknownInteraction,
		},
		{
			name:      "unsupported type",
			id:        42,
			token:     "tok",
			cb:        InteractionCallback{Type: 1},
			wantField: "type",
		},
		{
			name:      "empty response",
			id:        42,
			token:     "tok",
			cb:        InteractionCallback{Type: 4},
			wantField: "data.content",
		},
		{
			name:  "already answered",
			id:    42,
			token: "tok",
			cb:    InteractionCallback{Type: 4, Data: &InteractionCallbackData{Content: "pong"}},
			setup: func(f *fixture) {
				f.interactions.On("SetStatus", mock.Anything, int64(42), model.InteractionPending, model.InteractionResponded).Return(false, nil)
			},
			wantErr: model.ErrAlreadyResponded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.setup != nil {
				tt.setup(f)
			}
			f.pendingInteraction()

			_, err := NewInteractions(f.deps, time.Hour).Callback(context.Background(), tt.id, tt.token, tt.cb)
			if tt.wantField != "" {
				requireFormError(t, err, tt.wantField)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Empty(t, f.all())
		})
	}
}

func TestInteractions_CallbackMessage(t *testing.T) {
	tests := []struct {
		name      string
		cb        InteractionCallback
		status    model.InteractionStatus
		wantFlags int
	}{
		{
			name:   "reply",
			cb:     InteractionCallback{Type: 4, Data: &InteractionCallbackData{Content: "pong", Flags: 4}},
			status: model.InteractionResponded,
		},
		{
			name:      "deferred",
			cb:        InteractionCallback{Type: 5},
			status:    model.InteractionDeferred,
			wantFlags: model.MessageFlagLoading,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			it := f.pendingInteraction()
			f.guildText(1, invokePerms)
			f.interactions.On("SetStatus", mock.Anything, it.ID, model.InteractionPending, tt.status).Return(true, nil)
			app := testApp
			var created model.Message
			f.messages.On("Create", mock.Anything, mock.MatchedBy(func(m model.Message) bool {
				created = m
				return m.Type == model.MessageTypeChatInputCommand &&
					m.AuthorID != nil && *m.AuthorID == testApp &&
					m.InteractionID != nil && *m.InteractionID == it.ID &&
					m.Flags == tt.wantFlags
			})).Return(model.Message{ID: 77, ChannelID: testChannel, AuthorID: &app, Type: model.MessageTypeChatInputCommand, Flags: tt.wantFlags}, nil)
			f.channels.On("SetLastMessage", mock.Anything, testChannel, int64(77)).Return(nil)
			f.allowRendering()

			msg, err := NewInteractions(f.deps, time.Hour).Callback(context.Background(), it.ID, "tok", tt.cb)
			require.NoError(t, err)
			assert.Equal(t, int64(77), msg.ID)
			require.NotNil(t, msg.Interaction)
			assert.Equal(t, "echo", msg.Interaction.Name)
			if tt.status == model.InteractionResponded {
				assert.Equal(t, "pong", created.Content)
			}

			assert.Equal(t, []string{event.BusMessageCreate, event.BusInteractionSuccess}, f.names())
			assert.Equal(t, testChannel, f.event(t, event.BusMessageCreate).Data.ChannelID)
			success := f.event(t, event.BusInteractionSuccess)
			assert.Equal(t, []int64{1}, success.Data.UserIDs)
			assert.Equal(t, "sess", success.Data.SessionID)
		})
	}
}

func TestInteractions_CallbackEphemeral(t *testing.T) {
	f := newFixture(t)
	it := f.pendingInteraction()
	f.interactions.On("SetStatus", mock.Anything, it.ID, model.InteractionPending, model.InteractionResponded).Return(true, nil)
	f.allowRendering()

	msg, err := NewInteractions(f.deps, time.Hour).Callback(context.Background(), it.ID, "tok", InteractionCallback{
		Type: 4,
		Data: &InteractionCallbackData{Content: "only you", Flags: model.MessageFlagEphemeral},
	})
	require.NoError(t, err)
	assert.Equal(t, model.MessageFlagEphemeral, msg.Flags)
	assert.Equal(t, "only you", msg.Content)

	var targets [][]int64
	for _, p := range f.all() {
		if p.Name == event.BusMessageCreate {
			assert.Zero(t, p.Data.ChannelID)
			targets = append(targets, p.Data.UserIDs)
		}
	}
	assert.Equal(t, [][]int64{{1}, {testApp}}, targets)
	f.event(t, event.BusInteractionSuccess)
}

func TestInteractions_Watchdog(t *testing.T) {
	t.Run("fails unanswered interaction", func(t *testing.T) {
		f := newFixture(t)
		req := f.slashCommand(invokePerms, opt(model.OptionString, "text", `"hi"`))
		f.interactions.On("Create", mock.Anything, mock.Anything).Return(nil)
		f.interactions.On("GetByID", mock.Anything, mock.Anything).Return(model.Interaction{Status: model.InteractionPending}, nil).Once()
		f.interactions.On("Delete", mock.Anything, mock.Anything).Return(nil).Once()
		f.allowRendering()

		s := NewInteractions(f.deps, 10*time.Millisecond)
		require.NoError(t, s.Create(context.Background(), 1, req))

		require.Eventually(t, func() bool {
			for _, name := range f.names() {
				if name == event.BusInteractionFailure {
					return true
				}
			}
			return false
		}, time.Second, 5*time.Millisecond)
		s.Close()

		failure := f.event(t, event.BusInteractionFailure)
		assert.Equal(t, []int64{1}, failure.Data.UserIDs)
		assert.Equal(t, "sess", failure.Data.SessionID)
	})

	t.Run("answered elsewhere", func(t *testing.T) {
		f := newFixture(t)
		req := f.slashCommand(invokePerms, opt(model.OptionString, "text", `"hi"`))
		f.interactions.On("Create", mock.Anything, mock.Anything).Return(nil)
		checked := make(chan struct{})
		f.interactions.On("GetByID", mock.Anything, mock.Anything).
			Return(model.Interaction{Status: model.InteractionResponded}, nil).
			Run(func(mock.Arguments) { close(checked) }).
			Once()
		f.allowRendering()

		s := NewInteractions(f.deps, 10*time.Millisecond)
		require.NoError(t, s.Create(context.Background(), 1, req))

		select {
		case <-checked:
		case <-time.After(time.Second):
			t.Fatal("watchdog never fired")
		}
		s.Close()
		assert.NotContains(t, f.names(), event.BusInteractionFailure)
	})

	t.Run("close stops pending watchdogs", func(t *testing.T) {
		f := newFixture(t)
		req := f.slashCommand(invokePerms, opt(model.OptionString, "text", `"hi"`))
		f.interactions.On("Create", mock.Anything, mock.Anything).Return(nil)
		f.allowRendering()

		s := NewInteractions(f.deps, time.Hour)
		require.NoError(t, s.Create(context.Background(), 1, req))

		done := make(chan struct{})
		go func() {
			s.Close()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("close blocked")
		}
		assert.NotContains(t, f.names(), event.BusInteractionFailure)
	})
}
