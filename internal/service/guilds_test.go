package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yepcord/server-sub002/internal/event"
	"github.com/yepcord/server-sub002/internal/model"
	"github.com/yepcord/server-sub002/internal/pubsub"
)

var testRoles = []model.Role{
	{ID: testGuild, GuildID: testGuild, Name: "@everyone"},
	{ID: 200, GuildID: testGuild, Name: "helper", Position: 2},
	{ID: 300, GuildID: testGuild, Name: "mod", Position: 3},
}

func TestGuilds_Create(t *testing.T) {
	t.Run("default layout", func(t *testing.T) {
		f := newFixture(t)
		f.guilds.On("Create", mock.Anything,
			mock.MatchedBy(func(g model.Guild) bool {
				return g.OwnerID == 1 && g.Name == "My Guild" && g.SystemChannelID != nil && g.Region == "deprecated"
			}),
			mock.MatchedBy(func(roles []model.Role) bool {
				return len(roles) == 1 && roles[0].IsEveryone() && roles[0].Permissions == model.DefaultEveryonePermissions
			}),
			mock.MatchedBy(func(channels []model.Channel) bool {
				var text, voice, categories int
				for _, c := range channels {
					switch c.Type {
					case model.ChannelGuildText:
						text++
					case model.ChannelGuildVoice:
						voice++
					case model.ChannelGuildCategory:
						categories++
					}
				}
				return text == 1 && voice == 1 && categories == 2
			}),
			mock.MatchedBy(func(m model.GuildMember) bool { return m.UserID == 1 }),
		).Return(nil)
		f.guilds.On("Roles", mock.Anything, mock.Anything).Return(nil, nil)
		f.guilds.On("Emojis", mock.Anything, mock.Anything).Return(nil, nil)
		f.channels.On("GuildChannels", mock.Anything, mock.Anything).Return(nil, nil)
		f.guilds.On("MemberCount", mock.Anything, mock.Anything).Return(1, nil)
		f.guilds.On("GetMember", mock.Anything, mock.Anything, int64(1)).Return(model.GuildMember{ID: 9, UserID: 1}, nil)
		f.allowRendering()

		g, err := NewGuilds(f.deps, nil).Create(context.Background(), 1, CreateGuildRequest{Name: "  My Guild "})
		require.NoError(t, err)
		assert.Equal(t, "My Guild", g.Name)

		ev := f.event(t, event.BusGuildCreate)
		assert.Equal(t, pubsub.TopicGuildEvents, ev.Topic)
		assert.Equal(t, []int64{1}, ev.Data.UserIDs)
		assert.Equal(t, g.ID, ev.Data.GuildID)
	})

	t.Run("name too short", func(t *testing.T) {
		f := newFixture(t)
		_, err := NewGuilds(f.deps, nil).Create(context.Background(), 1, CreateGuildRequest{Name: "a"})
		requireFormError(t, err, "name")
	})
}

func TestGuilds_DeleteOwnerOnly(t *testing.T) {
	t.Run("owner", func(t *testing.T) {
		f := newFixture(t)
		f.guild(model.Guild{ID: testGuild, OwnerID: 1})
		f.member(testGuild, 1, 0)
		f.guilds.On("Delete", mock.Anything, testGuild).Return([]int64{1, 2, 3}, nil)

		require.NoError(t, NewGuilds(f.deps, nil).Delete(context.Background(), 1, testGuild))
		assert.Equal(t, []int64{1, 2, 3}, f.event(t, event.BusGuildDelete).Data.UserIDs)
	})

	t.Run("member", func(t *testing.T) {
		f := newFixture(t)
		f.guild(model.Guild{ID: testGuild, OwnerID: 1})
		f.member(testGuild, 2, model.PermAll)

		assert.ErrorIs(t, NewGuilds(f.deps, nil).Delete(context.Background(), 2, testGuild), model.ErrMissingPermissions)
	})

	t.Run("owner cannot leave", func(t *testing.T) {
		f := newFixture(t)
		f.guild(model.Guild{ID: testGuild, OwnerID: 1})
		f.member(testGuild, 1, 0)

		assert.ErrorIs(t, NewGuilds(f.deps, nil).Leave(context.Background(), 1, testGuild), model.ErrInvalidGuild)
	})
}

func TestGuilds_KickHierarchy(t *testing.T) {
	tests := []struct {
		name        string
		actor       int64
		actorRoles  []int64
		target      int64
		targetRoles []int64
		wantErr     error
	}{
		{name: "owner kicks anyone", actor: 1, target: 3, targetRoles: []int64{300}},
		{name: "higher role kicks lower", actor: 2, actorRoles: []int64{300}, target: 3, targetRoles: []int64{200}},
		{name: "equal roles", actor: 2, actorRoles: []int64{200}, target: 3, targetRoles: []int64{200}, wantErr: model.ErrMissingPermissions},
		{name: "lower role", actor: 2, actorRoles: []int64{200}, target: 3, targetRoles: []int64{300}, wantErr: model.ErrMissingPermissions},
		{name: "nobody kicks the owner", actor: 2, actorRoles: []int64{300}, target: 1, wantErr: model.ErrMissingPermissions},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.guild(model.Guild{ID: testGuild, OwnerID: 1})
			f.member(testGuild, tt.actor, model.PermKickMembers, tt.actorRoles...)
			f.member(testGuild, tt.target, 0, tt.targetRoles...)
			f.guilds.On("Roles", mock.Anything, testGuild).Return(testRoles, nil).Maybe()
			if tt.wantErr == nil {
				f.guilds.On("RemoveMember", mock.Anything, testGuild, tt.target).Return(nil)
				f.readStates.On("DeleteForGuild", mock.Anything, tt.target, testGuild).Return(nil)
			}
			f.allowRendering()

			err := NewGuilds(f.deps, nil).Kick(context.Background(), tt.actor, testGuild, tt.target)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, f.all())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []int64{tt.target}, f.event(t, event.BusGuildDelete).Data.UserIDs)
			assert.Equal(t, testGuild, f.event(t, event.BusGuildMemberRemove).Data.GuildID)
			f.event(t, event.BusGuildAuditLogEntry)
		})
	}
}

func TestGuilds_Ban(t *testing.T) {
	t.Run("member is removed and ban is announced to moderators", func(t *testing.T) {
		f := newFixture(t)
		f.guild(model.Guild{ID: testGuild, OwnerID: 1})
		f.member(testGuild, 1, 0)
		f.member(testGuild, 3, 0)
		f.user(3)
		f.guilds.On("CreateBan", mock.Anything, model.Ban{GuildID: testGuild, UserID: 3, Reason: "spam"}).Return(nil)
		f.guilds.On("RemoveMember", mock.Anything, testGuild, int64(3)).Return(nil)
		f.readStates.On("DeleteForGuild", mock.Anything, int64(3), testGuild).Return(nil)
		f.allowRendering()

		require.NoError(t, NewGuilds(f.deps, nil).Ban(context.Background(), 1, testGuild, 3, "spam"))

		ev := f.event(t, event.BusGuildBanAdd)
		assert.Equal(t, model.PermBanMembers, ev.Data.Permission)
		assert.Equal(t, testGuild, ev.Data.GuildID)
		f.event(t, event.BusGuildMemberRemove)
	})

	t.Run("non member can be banned", func(t *testing.T) {
		f := newFixture(t)
		f.guild(model.Guild{ID: testGuild, OwnerID: 1})
		f.member(testGuild, 1, 0)
		f.user(4)
		f.guilds.On("GetMember", mock.Anything, testGuild, int64(4)).Return(model.GuildMember{}, model.ErrNotFound)
		f.guilds.On("CreateBan", mock.Anything, mock.Anything).Return(nil)
		f.allowRendering()

		require.NoError(t, NewGuilds(f.deps, nil).Ban(context.Background(), 1, testGuild, 4, ""))
		assert.NotContains(t, f.names(), event.BusGuildMemberRemove)
		f.event(t, event.BusGuildBanAdd)
	})

	t.Run("unban without ban", func(t *testing.T) {
		f := newFixture(t)
		f.guild(model.Guild{ID: testGuild, OwnerID: 1})
		f.member(testGuild, 1, 0)
		f.guilds.On("GetBan", mock.Anything, testGuild, int64(4)).Return(model.Ban{}, model.ErrNotFound)

		assert.ErrorIs(t, NewGuilds(f.deps, nil).Unban(context.Background(), 1, testGuild, 4), model.ErrUnknownBan)
	})
}

func TestGuilds_UpdateMember(t *testing.T) {
	tests := []struct {
		name    string
		actor   int64
		perms   model.Permission
		roles   []int64
		target  int64
		patch   model.MemberPatch
		wantErr error
	}{
		{
			name:   "own nick with change nickname",
			actor:  2,
			perms:  model.PermChangeNickname,
			target: 2,
			patch:  model.MemberPatch{Nick: model.Some(ptr("nick"))},
		},
		{
			name:    "other nick needs manage nicknames",
			actor:   2,
			perms:   model.PermChangeNickname,
			roles:   []int64{300},
			target:  3,
			patch:   model.MemberPatch{Nick: model.Some(ptr("nick"))},
			wantErr: model.ErrMissingPermissions,
		},
		{
			name:   "assign lower role",
			actor:  2,
			perms:  model.PermManageRoles,
			roles:  []int64{300},
			target: 3,
			patch:  model.MemberPatch{Roles: model.Some([]model.Snowflake{200})},
		},
		{
			name:    "assign own top role",
			actor:   2,
			perms:   model.PermManageRoles,
			roles:   []int64{300},
			target:  3,
			patch:   model.MemberPatch{Roles: model.Some([]model.Snowflake{300})},
			wantErr: model.ErrMissingPermissions,
		},
		{
			name:    "assign unknown role",
			actor:   1,
			perms:   model.PermAll,
			target:  3,
			patch:   model.MemberPatch{Roles: model.Some([]model.Snowflake{999})},
			wantErr: model.ErrUnknownRole,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.guild(model.Guild{ID: testGuild, OwnerID: 1})
			f.member(testGuild, tt.actor, tt.perms, tt.roles...)
			if tt.target != tt.actor {
				f.member(testGuild, tt.target, 0)
			}
			f.guilds.On("Roles", mock.Anything, testGuild).Return(testRoles, nil).Maybe()
			if tt.wantErr == nil {
				f.guilds.On("UpdateMember", mock.Anything, mock.Anything).Return(nil)
			}
			f.allowRendering()

			_, err := NewGuilds(f.deps, nil).UpdateMember(context.Background(), tt.actor, testGuild, tt.target, tt.patch)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testGuild, f.event(t, event.BusGuildMemberUpdate).Data.GuildID)
		})
	}
}

func TestGuilds_Roles(t *testing.T) {
	t.Run("create", func(t *testing.T) {
		f := newFixture(t)
		f.guild(model.Guild{ID: testGuild, OwnerID: 1})
		f.member(testGuild, 1, model.PermManageRoles)
		f.guilds.On("CreateRole", mock.Anything, mock.MatchedBy(func(r model.Role) bool {
			return r.Name == "new role" && r.Position == 1 && r.Color == 0xff0000
		})).Return(nil)
		f.allowRendering()

		r, err := NewGuilds(f.deps, nil).CreateRole(context.Background(), 1, testGuild, model.RolePatch{Color: model.Some(0xff0000)})
		require.NoError(t, err)
		assert.Equal(t, "new role", r.Name)

		var payload event.RoleEvent
		require.NoError(t, json.Unmarshal(f.event(t, event.BusGuildRoleCreate).Data.Payload, &payload))
		assert.Equal(t, testGuild, payload.GuildID)
	})

	t.Run("everyone cannot be renamed", func(t *testing.T) {
		f := newFixture(t)
		f.guild(model.Guild{ID: testGuild, OwnerID: 1})
		f.member(testGuild, 1, model.PermManageRoles)
		f.guilds.On("GetRole", mock.Anything, testGuild, testGuild).Return(testRoles[0], nil)

		_, err := NewGuilds(f.deps, nil).UpdateRole(context.Background(), 1, testGuild, testGuild, model.RolePatch{Name: model.Some("all")})
		assert.ErrorIs(t, err, model.ErrMissingPermissions)
	})

	t.Run("everyone cannot be deleted", func(t *testing.T) {
		f := newFixture(t)
		f.guild(model.Guild{ID: testGuild, OwnerID: 1})
		f.member(testGuild, 1, model.PermManageRoles)
		f.guilds.On("GetRole", mock.Anything, testGuild, testGuild).Return(testRoles[0], nil)

		assert.ErrorIs(t, NewGuilds(f.deps, nil).DeleteRole(context.Background(), 1, testGuild, testGuild), model.ErrMissingPermissions)
	})

	t.Run("invalid color", func(t *testing.T) {
		f := newFixture(t)
		f.guild(model.Guild{ID: testGuild, OwnerID: 1})
		f.member(testGuild, 1, model.PermManageRoles)

		_, err := NewGuilds(f.deps, nil).CreateRole(context.Background(), 1, testGuild, model.RolePatch{Color: model.Some(0x1000000)})
		requireFormError(t, err, "color")
	})
}

func TestGuilds_CreateEmoji(t *testing.T) {
	gif := "data:image/gif;base64," + base64.StdEncoding.EncodeToString([]byte("GIF89a"))

	t.Run("stored and announced", func(t *testing.T) {
		f := newFixture(t)
		f.guild(model.Guild{ID: testGuild, OwnerID: 1})
		f.member(testGuild, 1, model.PermManageEmojis)
		f.storage.On("Upload", mock.Anything, mock.MatchedBy(func(key string) bool {
			return len(key) > len("emojis/") && key[:len("emojis/")] == "emojis/"
		}), mock.Anything).Return(nil)
		f.guilds.On("CreateEmoji", mock.Anything, mock.MatchedBy(func(e model.Emoji) bool {
			return e.Name == "party" && e.Animated && e.UserID == 1
		})).Return(nil)
		f.guilds.On("Emojis", mock.Anything, testGuild).Return([]model.Emoji{{ID: 1, GuildID: testGuild, UserID: 1, Name: "party"}}, nil)
		f.allowRendering()

		e, err := NewGuilds(f.deps, f.storage).CreateEmoji(context.Background(), 1, testGuild, CreateEmojiRequest{Name: ":party:", Image: gif})
		require.NoError(t, err)
		assert.Equal(t, "party", e.Name)
		assert.Equal(t, testGuild, f.event(t, event.BusGuildEmojisUpdate).Data.GuildID)
	})

	t.Run("invalid input", func(t *testing.T) {
		f := newFixture(t)
		f.guild(model.Guild{ID: testGuild, OwnerID: 1})
		f.member(testGuild, 1, model.PermManageEmojis)

		_, err := NewGuilds(f.deps, f.storage).CreateEmoji(context.Background(), 1, testGuild, CreateEmojiRequest{Name: "x", Image: "data:text/plain;base64,eA=="})
		requireFormError(t, err, "name")
		requireFormError(t, err, "image")
	})
}

func TestDecodeDataURI(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		wantMime string
		wantErr  bool
	}{
		{name: "png", uri: "data:image/png;base64,iVBORw==", wantMime: "image/png"},
		{name: "not a data uri", uri: "https://example.com/a.png", wantErr: true},
		{name: "unsupported type", uri: "data:image/svg+xml;base64,PHN2Zz4=", wantErr: true},
		{name: "bad base64", uri: "data:image/png;base64,***", wantErr: true},
		{name: "empty", uri: "data:image/png;base64,", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, mime, err := decodeDataURI(tt.uri)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, data)
			assert.Equal(t, tt.wantMime, mime)
		})
	}
}
