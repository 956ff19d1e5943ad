package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yepcord/server-sub002/internal/event"
	"github.com/yepcord/server-sub002/internal/model"
	"github.com/yepcord/server-sub002/internal/pubsub"
)

const (
	testGuild   = int64(100)
	testChannel = int64(5)
)

// guildText registers #general of testGuild and makes userID a member
// holding perms there.
func (f *fixture) guildText(userID int64, perms model.Permission) model.Channel {
	guildID := testGuild
	c := model.Channel{ID: testChannel, Type: model.ChannelGuildText, GuildID: &guildID, Name: ptr("general")}
	f.channel(c)
	f.member(testGuild, userID, perms)
	return c
}

func TestMessages_SendResolvesMentions(t *testing.T) {
	f := newFixture(t)
	c := f.guildText(1, model.PermViewChannel|model.PermSendMessages|model.PermMentionEveryone)
	f.users.On("GetDataMany", mock.Anything, []int64{2, 3}).
		Return([]model.UserData{{UserID: 2, Username: "bob"}}, nil).Once()
	f.guilds.On("Roles", mock.Anything, testGuild).
		Return([]model.Role{{ID: testGuild, GuildID: testGuild, Name: "@everyone"}, {ID: 200, GuildID: testGuild}}, nil)

	var sent model.Message
	f.messages.On("Create", mock.Anything, mock.MatchedBy(func(m model.Message) bool {
		sent = m
		return true
	})).Return(model.Message{ID: 500, ChannelID: testChannel, GuildID: c.GuildID, AuthorID: ptr(int64(1)), Content: "stored", Mentions: []int64{2}}, nil)
	f.channels.On("SetLastMessage", mock.Anything, testChannel, int64(500)).Return(nil)
	f.readStates.On("AddMention", mock.Anything, testChannel, []int64{2}).Return(nil)
	f.allowRendering()

	out, err := NewMessages(f.deps, nil).Send(context.Background(), 1, testChannel, SendMessageRequest{
		Content: "hi <@2> <@!3> <@!2> <@&200> <@&999> @everyone",
		Nonce:   "n1",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(500), out.ID)

	assert.Equal(t, []int64{2}, sent.Mentions)
	assert.Equal(t, []int64{200}, sent.MentionRoles)
	assert.True(t, sent.MentionEveryone)
	assert.Equal(t, model.MessageTypeDefault, sent.Type)
	assert.Equal(t, "n1", sent.Nonce)

	ev := f.event(t, event.BusMessageCreate)
	assert.Equal(t, pubsub.TopicMessageEvents, ev.Topic)
	assert.Equal(t, testChannel, ev.Data.ChannelID)
	var payload event.Message
	require.NoError(t, json.Unmarshal(ev.Data.Payload, &payload))
	assert.Equal(t, "stored", payload.Content)
}

func TestMessages_SendEveryoneNeedsPermission(t *testing.T) {
	f := newFixture(t)
	f.guildText(1, model.PermViewChannel|model.PermSendMessages)

	var sent model.Message
	f.messages.On("Create", mock.Anything, mock.MatchedBy(func(m model.Message) bool {
		sent = m
		return true
	})).Return(model.Message{ID: 501, ChannelID: testChannel, AuthorID: ptr(int64(1))}, nil)
	f.channels.On("SetLastMessage", mock.Anything, testChannel, int64(501)).Return(nil)
	f.allowRendering()

	_, err := NewMessages(f.deps, nil).Send(context.Background(), 1, testChannel, SendMessageRequest{Content: "@here"})
	require.NoError(t, err)
	assert.False(t, sent.MentionEveryone)
}

func TestMessages_SendValidation(t *testing.T) {
	tests := []struct {
		name     string
		perms    model.Permission
		channel  model.ChannelType
		req      SendMessageRequest
		wantErr  error
		wantPath string
	}{
		{
			name:    "empty",
			perms:   model.PermViewChannel | model.PermSendMessages,
			req:     SendMessageRequest{Content: "   "},
			wantErr: model.ErrEmptyMessage,
		},
		{
			name:     "too long",
			perms:    model.PermViewChannel | model.PermSendMessages,
			req:      SendMessageRequest{Content: strings.Repeat("a", model.MaxMessageLength+1)},
			wantPath: "content",
		},
		{
			name:     "bad embed",
			perms:    model.PermViewChannel | model.PermSendMessages,
			req:      SendMessageRequest{Embeds: []*discordgo.MessageEmbed{{Title: "x", URL: "ftp://example.com"}}},
			wantPath: "embeds.0.url",
		},
		{
			name:    "missing send permission",
			perms:   model.PermViewChannel,
			req:     SendMessageRequest{Content: "hi"},
			wantErr: model.ErrMissingPermissions,
		},
		{
			name:    "files need attach permission",
			perms:   model.PermViewChannel | model.PermSendMessages,
			req:     SendMessageRequest{Files: []Upload{{Filename: "a.txt", Body: strings.NewReader("a")}}},
			wantErr: model.ErrMissingPermissions,
		},
		{
			name:    "voice channel",
			perms:   model.PermViewChannel | model.PermSendMessages,
			channel: model.ChannelGuildVoice,
			req:     SendMessageRequest{Content: "hi"},
			wantErr: model.ErrNonTextChannel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			guildID := testGuild
			f.channel(model.Channel{ID: testChannel, Type: tt.channel, GuildID: &guildID})
			f.member(testGuild, 1, tt.perms)

			_, err := NewMessages(f.deps, nil).Send(context.Background(), 1, testChannel, tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				requireFormError(t, err, tt.wantPath)
			}
			assert.Empty(t, f.all())
		})
	}
}

func TestMessages_SendBlockedDM(t *testing.T) {
	tests := []struct {
		name string
		row  model.Relationship
	}{
		{name: "sender blocked recipient", row: model.Relationship{User1: 1, User2: 2, Type: model.RelationshipBlock}},
		{name: "recipient blocked sender", row: model.Relationship{User1: 2, User2: 1, Type: model.RelationshipBlock}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.channel(model.Channel{ID: 8, Type: model.ChannelDM, Recipients: []int64{1, 2}})
			f.relationships.On("Get", mock.Anything, mock.Anything, mock.Anything).Return(tt.row, nil)

			_, err := NewMessages(f.deps, nil).Send(context.Background(), 1, 8, SendMessageRequest{Content: "hi"})
			assert.ErrorIs(t, err, model.ErrCannotDMSelf)
		})
	}
}

func TestMessages_SendUploadsFiles(t *testing.T) {
	f := newFixture(t)
	f.guildText(1, model.PermViewChannel|model.PermSendMessages|model.PermAttachFiles)

	var key string
	f.storage.On("Upload", mock.Anything, mock.MatchedBy(func(k string) bool {
		key = k
		return strings.HasPrefix(k, "attachments/5/") && strings.HasSuffix(k, "/cat.png")
	}), mock.Anything).Return(nil)
	f.messages.On("Create", mock.Anything, mock.Anything).
		Return(model.Message{ID: 502, ChannelID: testChannel, AuthorID: ptr(int64(1))}, nil)
	f.messages.On("CreateAttachment", mock.Anything, mock.MatchedBy(func(a model.Attachment) bool {
		return a.Filename == "cat.png" && a.Size == 3 && a.ContentType == "image/png"
	})).Return(nil)
	f.channels.On("SetLastMessage", mock.Anything, testChannel, int64(502)).Return(nil)
	f.allowRendering()

	out, err := NewMessages(f.deps, f.storage).Send(context.Background(), 1, testChannel, SendMessageRequest{
		Files: []Upload{{Filename: "cat.png", ContentType: "image/png", Size: 3, Body: strings.NewReader("png")}},
	})
	require.NoError(t, err)
	require.Len(t, out.Attachments, 1)
	assert.NotEmpty(t, key)
}

func TestMessages_SendReplyToUnknown(t *testing.T) {
	f := newFixture(t)
	f.guildText(1, model.PermViewChannel|model.PermSendMessages)
	f.messages.On("GetByID", mock.Anything, testChannel, int64(404)).Return(model.Message{}, model.ErrNotFound)

	_, err := NewMessages(f.deps, nil).Send(context.Background(), 1, testChannel, SendMessageRequest{
		Content:          "re",
		MessageReference: &model.MessageReference{MessageID: 404},
	})
	requireFormError(t, err, "message_reference")
}

func TestMessages_Edit(t *testing.T) {
	t.Run("author edits", func(t *testing.T) {
		f := newFixture(t)
		f.guildText(1, model.PermViewChannel)
		m := model.Message{ID: 9, ChannelID: testChannel, AuthorID: ptr(int64(1)), Content: "old"}
		f.messages.On("GetByID", mock.Anything, testChannel, int64(9)).Return(m, nil)
		f.messages.On("Update", mock.Anything, mock.MatchedBy(func(m model.Message) bool {
			return m.Content == "new"
		})).Return(model.Message{ID: 9, ChannelID: testChannel, AuthorID: ptr(int64(1)), Content: "new"}, nil)
		f.messages.On("Reactions", mock.Anything, int64(9)).Return(nil, nil)
		f.allowRendering()

		out, err := NewMessages(f.deps, nil).Edit(context.Background(), 1, testChannel, 9, EditMessageRequest{Content: model.Some("new")})
		require.NoError(t, err)
		assert.Equal(t, "new", out.Content)
		assert.Equal(t, testChannel, f.event(t, event.BusMessageUpdate).Data.ChannelID)
	})

	t.Run("others cannot edit", func(t *testing.T) {
		f := newFixture(t)
		f.guildText(2, model.PermViewChannel|model.PermManageMessages)
		f.messages.On("GetByID", mock.Anything, testChannel, int64(9)).
			Return(model.Message{ID: 9, ChannelID: testChannel, AuthorID: ptr(int64(1))}, nil)

		_, err := NewMessages(f.deps, nil).Edit(context.Background(), 2, testChannel, 9, EditMessageRequest{Content: model.Some("x")})
		assert.ErrorIs(t, err, model.ErrCannotEditOthers)
	})

	t.Run("cannot empty a message", func(t *testing.T) {
		f := newFixture(t)
		f.guildText(1, model.PermViewChannel)
		f.messages.On("GetByID", mock.Anything, testChannel, int64(9)).
			Return(model.Message{ID: 9, ChannelID: testChannel, AuthorID: ptr(int64(1)), Content: "old"}, nil)

		_, err := NewMessages(f.deps, nil).Edit(context.Background(), 1, testChannel, 9, EditMessageRequest{Content: model.Some("")})
		assert.ErrorIs(t, err, model.ErrEmptyMessage)
	})
}

func TestMessages_Delete(t *testing.T) {
	tests := []struct {
		name    string
		perms   model.Permission
		author  int64
		wantErr error
	}{
		{name: "author", perms: model.PermViewChannel, author: 1},
		{name: "moderator", perms: model.PermViewChannel | model.PermManageMessages, author: 2},
		{name: "other member", perms: model.PermViewChannel, author: 2, wantErr: model.ErrMissingPermissions},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.guildText(1, tt.perms)
			f.messages.On("GetByID", mock.Anything, testChannel, int64(9)).
				Return(model.Message{ID: 9, ChannelID: testChannel, AuthorID: &tt.author}, nil)
			if tt.wantErr == nil {
				f.messages.On("Delete", mock.Anything, testChannel, int64(9)).Return(nil)
			}

			err := NewMessages(f.deps, nil).Delete(context.Background(), 1, testChannel, 9)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, f.all())
				return
			}
			require.NoError(t, err)
			var payload event.MessageDeletePayload
			require.NoError(t, json.Unmarshal(f.event(t, event.BusMessageDelete).Data.Payload, &payload))
			assert.Equal(t, event.MessageDeletePayload{ID: 9, ChannelID: testChannel, GuildID: ptr(testGuild)}, payload)
		})
	}
}

func TestMessages_DeleteOthersInDM(t *testing.T) {
	f := newFixture(t)
	f.channel(model.Channel{ID: 8, Type: model.ChannelDM, Recipients: []int64{1, 2}})
	f.messages.On("GetByID", mock.Anything, int64(8), int64(9)).
		Return(model.Message{ID: 9, ChannelID: 8, AuthorID: ptr(int64(2))}, nil)

	assert.ErrorIs(t, NewMessages(f.deps, nil).Delete(context.Background(), 1, 8, 9), model.ErrCannotEditOthers)
}

func TestMessages_BulkDelete(t *testing.T) {
	t.Run("bounds", func(t *testing.T) {
		f := newFixture(t)
		f.guildText(1, model.PermViewChannel|model.PermManageMessages)

		err := NewMessages(f.deps, nil).BulkDelete(context.Background(), 1, testChannel, []int64{1, 1})
		requireFormError(t, err, "messages")
	})

	t.Run("publishes deleted ids", func(t *testing.T) {
		f := newFixture(t)
		f.guildText(1, model.PermViewChannel|model.PermManageMessages)
		f.messages.On("DeleteMany", mock.Anything, testChannel, []int64{10, 11, 12}).Return([]int64{10, 12}, nil)

		require.NoError(t, NewMessages(f.deps, nil).BulkDelete(context.Background(), 1, testChannel, []int64{10, 11, 12, 10}))
		var payload event.MessageDeleteBulkPayload
		require.NoError(t, json.Unmarshal(f.event(t, event.BusMessageDeleteBulk).Data.Payload, &payload))
		assert.Equal(t, []string{"10", "12"}, payload.IDs)
	})
}

func TestMessages_Ack(t *testing.T) {
	f := newFixture(t)
	f.guildText(1, model.PermViewChannel)
	f.readStates.On("Ack", mock.Anything, model.ReadState{UserID: 1, ChannelID: testChannel, LastReadID: 9}).Return(nil)

	s := NewMessages(f.deps, nil)
	s.now = func() time.Time { return time.Unix(1700000000, 0) }
	require.NoError(t, s.Ack(context.Background(), 1, testChannel, 9))

	ev := f.event(t, event.BusMessageAck)
	assert.Equal(t, int64(1), ev.Data.UserID)
	var payload event.MessageAckPayload
	require.NoError(t, json.Unmarshal(ev.Data.Payload, &payload))
	assert.Equal(t, 1700000000, payload.Version)
	assert.Equal(t, int64(9), payload.MessageID)
}

func TestMessages_Reactions(t *testing.T) {
	tests := []struct {
		name     string
		add      bool
		changed  bool
		wantName string
	}{
		{name: "add", add: true, changed: true, wantName: event.BusReactionAdd},
		{name: "add twice", add: true, changed: false},
		{name: "remove", add: false, changed: true, wantName: event.BusReactionRemove},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.guildText(1, model.PermViewChannel|model.PermReadMessageHistory|model.PermAddReactions)
			f.messages.On("GetByID", mock.Anything, testChannel, int64(9)).Return(model.Message{ID: 9, ChannelID: testChannel}, nil)
			method := "RemoveReaction"
			if tt.add {
				method = "AddReaction"
			}
			f.messages.On(method, mock.Anything, mock.MatchedBy(func(r model.Reaction) bool {
				return r.EmojiName == "blob" && r.EmojiID != nil && *r.EmojiID == 42 && r.UserID == 1
			})).Return(tt.changed, nil)

			s := NewMessages(f.deps, nil)
			var err error
			if tt.add {
				err = s.AddReaction(context.Background(), 1, testChannel, 9, "blob:42")
			} else {
				err = s.RemoveReaction(context.Background(), 1, testChannel, 9, "blob:42")
			}
			require.NoError(t, err)

			if tt.wantName == "" {
				assert.Empty(t, f.all())
				return
			}
			var payload event.ReactionPayload
			require.NoError(t, json.Unmarshal(f.event(t, tt.wantName).Data.Payload, &payload))
			assert.Equal(t, "blob", payload.Emoji.Name)
			assert.Equal(t, int64(42), *payload.Emoji.ID)
		})
	}
}

func TestParseEmoji(t *testing.T) {
	tests := []struct {
		raw     string
		name    string
		id      *int64
		wantErr bool
	}{
		{raw: "👍", name: "👍"},
		{raw: "blob:42", name: "blob", id: ptr(int64(42))},
		{raw: "blob:abc", wantErr: true},
		{raw: ":42", wantErr: true},
		{raw: " ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			name, id, err := parseEmoji(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, model.ErrUnknownEmoji)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.id, id)
		})
	}
}

func TestMessages_ListClampsLimit(t *testing.T) {
	f := newFixture(t)
	f.guildText(1, model.PermViewChannel|model.PermReadMessageHistory)
	f.messages.On("ChannelMessages", mock.Anything, testChannel, model.MaxMessageLimit, int64(0), int64(0)).
		Return([]model.Message{{ID: 3, ChannelID: testChannel}}, nil)
	f.messages.On("Reactions", mock.Anything, int64(3)).
		Return([]model.Reaction{{MessageID: 3, UserID: 1, EmojiName: "x"}, {MessageID: 3, UserID: 2, EmojiName: "x"}}, nil)
	f.allowRendering()

	out, err := NewMessages(f.deps, nil).List(context.Background(), 1, testChannel, 5000, 0, 0)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Len(t, out[0].Reactions, 1)
	assert.Equal(t, 2, out[0].Reactions[0].Count)
	assert.True(t, out[0].Reactions[0].Me)
}

func TestMessages_PinPostsSystemMessage(t *testing.T) {
	f := newFixture(t)
	f.guildText(1, model.PermViewChannel|model.PermManageMessages)
	f.messages.On("GetByID", mock.Anything, testChannel, int64(9)).Return(model.Message{ID: 9, ChannelID: testChannel}, nil)
	f.messages.On("SetPinned", mock.Anything, testChannel, int64(9), true).Return(nil)
	f.messages.On("Create", mock.Anything, mock.MatchedBy(func(m model.Message) bool {
		return m.Type == model.MessageTypeChannelPinned && m.Reference != nil && m.Reference.MessageID == 9
	})).Return(model.Message{ID: 10, ChannelID: testChannel, AuthorID: ptr(int64(1)), Type: model.MessageTypeChannelPinned}, nil)
	f.channels.On("SetLastMessage", mock.Anything, testChannel, int64(10)).Return(nil)
	f.allowRendering()

	require.NoError(t, NewMessages(f.deps, nil).Pin(context.Background(), 1, testChannel, 9))
	assert.Equal(t, []string{event.BusChannelPinsUpdate, event.BusMessageCreate}, f.names())
}
