package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"github.com/yepcord/server-sub002/internal/event"
	"github.com/yepcord/server-sub002/internal/model"
	"github.com/yepcord/server-sub002/internal/pubsub"
)

const (
	defaultMessageLimit = 50
	maxAttachments      = 10
	searchPageSize      = 25
)

var (
	userMention = regexp.MustCompile(`<@!?(\d{1,20})>`)
	roleMention = regexp.MustCompile(`<@&(\d{1,20})>`)
)

// Upload is one file attached to a new message.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// SendMessageRequest is the body of POST /channels/{id}/messages.
type SendMessageRequest struct {
	Content          string                    `json:"content"`
	Nonce            string                    `json:"nonce"`
	TTS              bool                      `json:"tts"`
	Embeds           []*discordgo.MessageEmbed `json:"embeds"`
	MessageReference *model.MessageReference   `json:"message_reference"`
	Files            []Upload                  `json:"-"`
}

// EditMessageRequest is the body of PATCH /channels/{id}/messages/{id}.
type EditMessageRequest struct {
	Content model.Opt[string]                    `json:"content,omitzero"`
	Embeds  model.Opt[[]*discordgo.MessageEmbed] `json:"embeds,omitzero"`
}

// SearchResult is the response of the message search endpoint.
type SearchResult struct {
	Messages     [][]event.Message `json:"messages"`
	TotalResults int               `json:"total_results"`
}

// Messages implements the channel message endpoints.
type Messages struct {
	Deps
	storage model.Storage
	now     func() time.Time
}

func NewMessages(deps Deps, storage model.Storage) *Messages {
	return &Messages{Deps: deps, storage: storage, now: time.Now}
}

// Send validates, stores and announces a new message.
func (s *Messages) Send(ctx context.Context, userID, channelID int64, req SendMessageRequest) (event.Message, error) {
	need := model.PermSendMessages
	if len(req.Files) > 0 {
		need |= model.PermAttachFiles
	}
	c, member, err := s.channelAccess(ctx, userID, channelID, need)
	if err != nil {
		return event.Message{}, err
	}
	if c.Type == model.ChannelGuildVoice || c.Type == model.ChannelGuildCategory {
		return event.Message{}, model.ErrNonTextChannel
	}
	if err := s.checkDMAllowed(ctx, c, userID); err != nil {
		return event.Message{}, err
	}

	var fe model.FormErrors
	if strings.TrimSpace(req.Content) == "" && len(req.Embeds) == 0 && len(req.Files) == 0 {
		return event.Message{}, model.ErrEmptyMessage
	}
	if utf8.RuneCountInString(req.Content) > model.MaxMessageLength {
		fe.Add("content", model.CodeBaseTypeMaxLength, "Must be 2000 or fewer in length.")
	}
	if len(req.Files) > maxAttachments {
		fe.Add("files", model.CodeBaseTypeMaxLength, "Must be 10 or fewer in length.")
	}
	validateEmbeds(&fe, req.Embeds)
	if err := fe.Err(); err != nil {
		return event.Message{}, err
	}

	msg := model.Message{
		ID:        s.IDs.Next(),
		ChannelID: c.ID,
		GuildID:   c.GuildID,
		AuthorID:  &userID,
		Content:   req.Content,
		Embeds:    req.Embeds,
		Type:      model.MessageTypeDefault,
		Nonce:     req.Nonce,
		TTS:       req.TTS,
	}
	if req.MessageReference != nil {
		ref, err := s.reference(ctx, c, *req.MessageReference)
		if err != nil {
			return event.Message{}, err
		}
		msg.Reference = ref
		msg.Type = model.MessageTypeReply
	}
	if err := s.resolveMentions(ctx, c, member, &msg); err != nil {
		return event.Message{}, err
	}

	attachments, err := s.upload(ctx, msg, req.Files)
	if err != nil {
		return event.Message{}, err
	}

	stored, err := s.Stores.Messages.Create(ctx, msg)
	if err != nil {
		return event.Message{}, fmt.Errorf("failed to create message: %w", err)
	}
	for _, a := range attachments {
		if err := s.Stores.Messages.CreateAttachment(ctx, a); err != nil {
			return event.Message{}, fmt.Errorf("failed to create attachment: %w", err)
		}
	}
	stored.Attachments = attachments

	return s.announceCreate(ctx, c, stored)
}

// announceCreate updates channel bookkeeping for a stored message and
// publishes message_create to the channel audience.
func (s *Messages) announceCreate(ctx context.Context, c model.Channel, m model.Message) (event.Message, error) {
	if err := s.Stores.Channels.SetLastMessage(ctx, c.ID, m.ID); err != nil {
		return event.Message{}, fmt.Errorf("failed to set last message: %w", err)
	}
	if mentioned := without(m.Mentions, authorOf(m)); len(mentioned) > 0 {
		if err := s.Stores.ReadStates.AddMention(ctx, c.ID, mentioned); err != nil {
			return event.Message{}, fmt.Errorf("failed to add mentions: %w", err)
		}
	}

	rendered, err := s.Serializer.Message(ctx, m)
	if err != nil {
		return event.Message{}, err
	}
	s.Publisher.Publish(ctx, pubsub.TopicMessageEvents, event.BusMessageCreate,
		event.Data{ChannelID: c.ID}, rendered)
	return rendered, nil
}

// checkDMAllowed rejects DMs across a block in either direction.
func (s *Messages) checkDMAllowed(ctx context.Context, c model.Channel, userID int64) error {
	if c.Type != model.ChannelDM {
		return nil
	}
	other := c.Other(userID)
	if other == 0 {
		return nil
	}
	isBlocked, err := blocked(ctx, s.Stores.Relationships, userID, other)
	if err != nil {
		return err
	}
	if !isBlocked {
		isBlocked, err = blocked(ctx, s.Stores.Relationships, other, userID)
		if err != nil {
			return err
		}
	}
	if isBlocked {
		return model.ErrCannotDMSelf
	}
	return nil
}

func (s *Messages) reference(ctx context.Context, c model.Channel, ref model.MessageReference) (*model.MessageReference, error) {
	if ref.ChannelID != 0 && ref.ChannelID != c.ID {
		return nil, model.InvalidForm("message_reference", model.CodeRepliesUnknownMessage, "Unknown message")
	}
	target, err := s.Stores.Messages.GetByID(ctx, c.ID, ref.MessageID)
	if errors.Is(err, model.ErrNotFound) {
		return nil, model.InvalidForm("message_reference", model.CodeRepliesUnknownMessage, "Unknown message")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get referenced message: %w", err)
	}
	return &model.MessageReference{MessageID: target.ID, ChannelID: c.ID, GuildID: c.GuildID}, nil
}

// resolveMentions fills the mention fields of m from its content. Only
// existing users and roles of the guild are kept.
func (s *Messages) resolveMentions(ctx context.Context, c model.Channel, member *model.GuildMember, m *model.Message) error {
	ids := parseMentions(userMention, m.Content)
	if len(ids) > 0 {
		users, err := s.Stores.Users.GetDataMany(ctx, ids)
		if err != nil {
			return fmt.Errorf("failed to load mentioned users: %w", err)
		}
		for _, u := range users {
			m.Mentions = append(m.Mentions, u.UserID)
		}
	}
	if c.GuildID == nil || member == nil {
		return nil
	}

	if roleIDs := parseMentions(roleMention, m.Content); len(roleIDs) > 0 {
		roles, err := s.Stores.Guilds.Roles(ctx, *c.GuildID)
		if err != nil {
			return fmt.Errorf("failed to load roles: %w", err)
		}
		known := make(map[int64]struct{}, len(roles))
		for _, r := range roles {
			known[r.ID] = struct{}{}
		}
		for _, id := range roleIDs {
			if _, ok := known[id]; ok {
				m.MentionRoles = append(m.MentionRoles, id)
			}
		}
	}

	if strings.Contains(m.Content, "@everyone") || strings.Contains(m.Content, "@here") {
		perms, err := s.Stores.Guilds.MemberPermissions(ctx, *member, &c)
		if err != nil {
			return fmt.Errorf("failed to compute permissions: %w", err)
		}
		m.MentionEveryone = perms.Has(model.PermMentionEveryone)
	}
	return nil
}

func parseMentions(re *regexp.Regexp, content string) []int64 {
	var ids []int64
	seen := make(map[int64]struct{})
	for _, match := range re.FindAllStringSubmatch(content, -1) {
		id, err := strconv.ParseInt(match[1], 10, 64)
		if err != nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

func (s *Messages) upload(ctx context.Context, m model.Message, files []Upload) ([]model.Attachment, error) {
	if len(files) == 0 {
		return nil, nil
	}
	if s.storage == nil {
		return nil, fmt.Errorf("failed to upload attachment: no storage configured")
	}
	out := make([]model.Attachment, 0, len(files))
	for _, f := range files {
		a := model.Attachment{
			ID:          s.IDs.Next(),
			ChannelID:   m.ChannelID,
			MessageID:   m.ID,
			Filename:    f.Filename,
			Size:        f.Size,
			ContentType: f.ContentType,
		}
		if err := s.storage.Upload(ctx, model.AttachmentKey(a), f.Body); err != nil {
			return nil, fmt.Errorf("failed to upload attachment: %w", err)
		}
		out = append(out, a)
	}
	return out, nil
}

// Get renders one message of channelID.
func (s *Messages) Get(ctx context.Context, userID, channelID, messageID int64) (event.Message, error) {
	if _, _, err := s.channelAccess(ctx, userID, channelID, model.PermReadMessageHistory); err != nil {
		return event.Message{}, err
	}
	m, err := s.message(ctx, channelID, messageID)
	if err != nil {
		return event.Message{}, err
	}
	return s.withReactions(ctx, m, userID)
}

// List returns up to limit messages of channelID, newest first.
func (s *Messages) List(ctx context.Context, userID, channelID int64, limit int, before, after int64) ([]event.Message, error) {
	if _, _, err := s.channelAccess(ctx, userID, channelID, model.PermReadMessageHistory); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultMessageLimit
	}
	if limit > model.MaxMessageLimit {
		limit = model.MaxMessageLimit
	}

	msgs, err := s.Stores.Messages.ChannelMessages(ctx, channelID, limit, before, after)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	rendered, err := s.Serializer.Messages(ctx, msgs)
	if err != nil {
		return nil, err
	}
	for i := range msgs {
		reactions, err := s.Stores.Messages.Reactions(ctx, msgs[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load reactions: %w", err)
		}
		rendered[i].Reactions = event.AggregateReactions(reactions, userID)
	}
	return rendered, nil
}

func (s *Messages) withReactions(ctx context.Context, m model.Message, viewerID int64) (event.Message, error) {
	rendered, err := s.Serializer.Message(ctx, m)
	if err != nil {
		return event.Message{}, err
	}
	reactions, err := s.Stores.Messages.Reactions(ctx, m.ID)
	if err != nil {
		return event.Message{}, fmt.Errorf("failed to load reactions: %w", err)
	}
	rendered.Reactions = event.AggregateReactions(reactions, viewerID)
	return rendered, nil
}

func (s *Messages) message(ctx context.Context, channelID, messageID int64) (model.Message, error) {
	m, err := s.Stores.Messages.GetByID(ctx, channelID, messageID)
	if errors.Is(err, model.ErrNotFound) {
		return model.Message{}, model.ErrUnknownMessage
	}
	if err != nil {
		return model.Message{}, fmt.Errorf("failed to get message: %w", err)
	}
	return m, nil
}

// Edit changes the content or embeds of a message authored by userID.
func (s *Messages) Edit(ctx context.Context, userID, channelID, messageID int64, req EditMessageRequest) (event.Message, error) {
	if _, _, err := s.channelAccess(ctx, userID, channelID, 0); err != nil {
		return event.Message{}, err
	}
	m, err := s.message(ctx, channelID, messageID)
	if err != nil {
		return event.Message{}, err
	}
	if authorOf(m) != userID {
		return event.Message{}, model.ErrCannotEditOthers
	}

	var fe model.FormErrors
	if req.Content.Set && utf8.RuneCountInString(req.Content.Value) > model.MaxMessageLength {
		fe.Add("content", model.CodeBaseTypeMaxLength, "Must be 2000 or fewer in length.")
	}
	if req.Embeds.Set {
		validateEmbeds(&fe, req.Embeds.Value)
	}
	if err := fe.Err(); err != nil {
		return event.Message{}, err
	}

	if req.Content.Set {
		m.Content = req.Content.Value
	}
	if req.Embeds.Set {
		m.Embeds = req.Embeds.Value
	}
	if strings.TrimSpace(m.Content) == "" && len(m.Embeds) == 0 && len(m.Attachments) == 0 {
		return event.Message{}, model.ErrEmptyMessage
	}

	updated, err := s.Stores.Messages.Update(ctx, m)
	if err != nil {
		return event.Message{}, fmt.Errorf("failed to update message: %w", err)
	}
	rendered, err := s.withReactions(ctx, updated, userID)
	if err != nil {
		return event.Message{}, err
	}
	s.Publisher.Publish(ctx, pubsub.TopicMessageEvents, event.BusMessageUpdate,
		event.Data{ChannelID: channelID}, rendered)
	return rendered, nil
}

// Delete removes a message. Authors may always delete their own messages;
// others need MANAGE_MESSAGES in a guild channel.
func (s *Messages) Delete(ctx context.Context, userID, channelID, messageID int64) error {
	c, member, err := s.channelAccess(ctx, userID, channelID, 0)
	if err != nil {
		return err
	}
	m, err := s.message(ctx, channelID, messageID)
	if err != nil {
		return err
	}
	if authorOf(m) != userID {
		if member == nil {
			return model.ErrCannotEditOthers
		}
		perms, err := s.Stores.Guilds.MemberPermissions(ctx, *member, &c)
		if err != nil {
			return fmt.Errorf("failed to compute permissions: %w", err)
		}
		if !perms.Has(model.PermManageMessages) {
			return model.ErrMissingPermissions
		}
	}

	if err := s.Stores.Messages.Delete(ctx, channelID, messageID); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	s.Logger.Debug("Messages: message deleted",
		"channel_id", channelID,
		"message_id", messageID,
		"user_id", userID)
	s.Publisher.Publish(ctx, pubsub.TopicMessageEvents, event.BusMessageDelete,
		event.Data{ChannelID: channelID},
		event.MessageDeletePayload{ID: messageID, ChannelID: channelID, GuildID: c.GuildID})
	return nil
}

// BulkDelete removes between 2 and 100 messages of a guild channel.
func (s *Messages) BulkDelete(ctx context.Context, userID, channelID int64, ids []int64) error {
	c, _, err := s.channelAccess(ctx, userID, channelID, model.PermManageMessages)
	if err != nil {
		return err
	}
	if c.IsPrivate() {
		return model.ErrCannotExecuteOnDM
	}
	ids = dedupeIDs(ids, 0)
	if len(ids) < model.MinBulkDeleteLength || len(ids) > model.MaxMessageLimit {
		return model.InvalidForm("messages", model.CodeBaseTypeBadLength, "Must be between 2 and 100 in length.")
	}

	deleted, err := s.Stores.Messages.DeleteMany(ctx, channelID, ids)
	if err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	if len(deleted) == 0 {
		return nil
	}
	s.Publisher.Publish(ctx, pubsub.TopicMessageEvents, event.BusMessageDeleteBulk,
		event.Data{ChannelID: channelID},
		event.NewMessageDeleteBulk(channelID, c.GuildID, deleted))
	return nil
}

// Ack marks messageID as read by userID and tells the user's other sessions.
func (s *Messages) Ack(ctx context.Context, userID, channelID, messageID int64) error {
	if _, _, err := s.channelAccess(ctx, userID, channelID, 0); err != nil {
		return err
	}
	if err := s.Stores.ReadStates.Ack(ctx, model.ReadState{
		UserID:     userID,
		ChannelID:  channelID,
		LastReadID: messageID,
	}); err != nil {
		return fmt.Errorf("failed to ack message: %w", err)
	}
	s.Publisher.Publish(ctx, pubsub.TopicMessageEvents, event.BusMessageAck,
		event.Data{UserID: userID},
		event.MessageAckPayload{MessageID: messageID, ChannelID: channelID, Version: int(s.now().Unix())})
	return nil
}

// Typing announces that userID is typing in channelID.
func (s *Messages) Typing(ctx context.Context, userID, channelID int64) error {
	c, member, err := s.channelAccess(ctx, userID, channelID, model.PermSendMessages)
	if err != nil {
		return err
	}
	payload := event.TypingPayload{
		UserID:    userID,
		ChannelID: channelID,
		GuildID:   c.GuildID,
		Timestamp: s.now().Unix(),
	}
	if member != nil {
		m, err := s.Serializer.Member(ctx, *member)
		if err != nil {
			return err
		}
		payload.Member = &m
	}
	s.Publisher.Publish(ctx, pubsub.TopicMessageEvents, event.BusTyping,
		event.Data{ChannelID: channelID}, payload)
	return nil
}

// Pin pins a message and posts the channel-pinned system message.
func (s *Messages) Pin(ctx context.Context, userID, channelID, messageID int64) error {
	c, m, err := s.pinTarget(ctx, userID, channelID, messageID)
	if err != nil {
		return err
	}
	if m.Pinned {
		return nil
	}
	if err := s.Stores.Messages.SetPinned(ctx, channelID, messageID, true); err != nil {
		return fmt.Errorf("failed to pin message: %w", err)
	}

	ts := event.IDTimestamp(messageID)
	s.Publisher.Publish(ctx, pubsub.TopicMessageEvents, event.BusChannelPinsUpdate,
		event.Data{ChannelID: channelID},
		event.PinsUpdatePayload{ChannelID: channelID, GuildID: c.GuildID, LastPinTimestamp: &ts})

	system, err := s.Stores.Messages.Create(ctx, model.Message{
		ID:        s.IDs.Next(),
		ChannelID: channelID,
		GuildID:   c.GuildID,
		AuthorID:  &userID,
		Type:      model.MessageTypeChannelPinned,
		Reference: &model.MessageReference{MessageID: messageID, ChannelID: channelID, GuildID: c.GuildID},
	})
	if err != nil {
		return fmt.Errorf("failed to create pin message: %w", err)
	}
	_, err = s.announceCreate(ctx, c, system)
	return err
}

// Unpin unpins a message.
func (s *Messages) Unpin(ctx context.Context, userID, channelID, messageID int64) error {
	c, m, err := s.pinTarget(ctx, userID, channelID, messageID)
	if err != nil {
		return err
	}
	if !m.Pinned {
		return nil
	}
	if err := s.Stores.Messages.SetPinned(ctx, channelID, messageID, false); err != nil {
		return fmt.Errorf("failed to unpin message: %w", err)
	}

	var last *string
	pins, err := s.Stores.Messages.Pins(ctx, channelID)
	if err != nil {
		return fmt.Errorf("failed to get pins: %w", err)
	}
	if len(pins) > 0 {
		ts := event.IDTimestamp(pins[0].ID)
		last = &ts
	}
	s.Publisher.Publish(ctx, pubsub.TopicMessageEvents, event.BusChannelPinsUpdate,
		event.Data{ChannelID: channelID},
		event.PinsUpdatePayload{ChannelID: channelID, GuildID: c.GuildID, LastPinTimestamp: last})
	return nil
}

func (s *Messages) pinTarget(ctx context.Context, userID, channelID, messageID int64) (model.Channel, model.Message, error) {
	c, _, err := s.channelAccess(ctx, userID, channelID, 0)
	if err != nil {
		return model.Channel{}, model.Message{}, err
	}
	if !c.IsPrivate() {
		if _, _, err := s.channelAccess(ctx, userID, channelID, model.PermManageMessages); err != nil {
			return model.Channel{}, model.Message{}, err
		}
	}
	m, err := s.message(ctx, channelID, messageID)
	if err != nil {
		return model.Channel{}, model.Message{}, err
	}
	return c, m, nil
}

// Pins lists the pinned messages of channelID.
func (s *Messages) Pins(ctx context.Context, userID, channelID int64) ([]event.Message, error) {
	if _, _, err := s.channelAccess(ctx, userID, channelID, model.PermReadMessageHistory); err != nil {
		return nil, err
	}
	pins, err := s.Stores.Messages.Pins(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pins: %w", err)
	}
	return s.Serializer.Messages(ctx, pins)
}

// parseEmoji accepts a unicode emoji or "name:id" for a custom one.
func parseEmoji(raw string) (string, *int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil, model.ErrUnknownEmoji
	}
	name, rawID, custom := strings.Cut(raw, ":")
	if !custom {
		return raw, nil, nil
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || name == "" {
		return "", nil, model.ErrUnknownEmoji
	}
	return name, &id, nil
}

// AddReaction adds userID's emoji to a message.
func (s *Messages) AddReaction(ctx context.Context, userID, channelID, messageID int64, emoji string) error {
	return s.react(ctx, userID, channelID, messageID, emoji, true)
}

// RemoveReaction removes userID's emoji from a message.
func (s *Messages) RemoveReaction(ctx context.Context, userID, channelID, messageID int64, emoji string) error {
	return s.react(ctx, userID, channelID, messageID, emoji, false)
}

func (s *Messages) react(ctx context.Context, userID, channelID, messageID int64, emoji string, add bool) error {
	need := model.PermReadMessageHistory
	if add {
		need |= model.PermAddReactions
	}
	c, _, err := s.channelAccess(ctx, userID, channelID, need)
	if err != nil {
		return err
	}
	if _, err := s.message(ctx, channelID, messageID); err != nil {
		return err
	}
	name, emojiID, err := parseEmoji(emoji)
	if err != nil {
		return err
	}

	r := model.Reaction{
		MessageID: messageID,
		ChannelID: channelID,
		UserID:    userID,
		EmojiID:   emojiID,
		EmojiName: name,
	}
	var changed bool
	busEvent := event.BusReactionRemove
	if add {
		busEvent = event.BusReactionAdd
		changed, err = s.Stores.Messages.AddReaction(ctx, r)
	} else {
		changed, err = s.Stores.Messages.RemoveReaction(ctx, r)
	}
	if err != nil {
		return fmt.Errorf("failed to update reaction: %w", err)
	}
	if !changed {
		return nil
	}

	s.Publisher.Publish(ctx, pubsub.TopicMessageEvents, busEvent,
		event.Data{ChannelID: channelID},
		event.ReactionPayload{
			UserID:    userID,
			ChannelID: channelID,
			MessageID: messageID,
			GuildID:   c.GuildID,
			Emoji:     event.ReactionEmoji{ID: emojiID, Name: name},
		})
	return nil
}

// Search finds messages of guildID whose content contains query.
func (s *Messages) Search(ctx context.Context, userID, guildID int64, query string, authorID, channelID *int64, offset int) (SearchResult, error) {
	if _, _, err := s.guildAccess(ctx, userID, guildID, model.PermReadMessageHistory); err != nil {
		return SearchResult{}, err
	}
	if channelID != nil {
		if _, _, err := s.channelAccess(ctx, userID, *channelID, model.PermReadMessageHistory); err != nil {
			return SearchResult{}, err
		}
	}
	if offset < 0 {
		offset = 0
	}

	found, total, err := s.Stores.Messages.Search(ctx, model.MessageSearch{
		GuildID:   &guildID,
		ChannelID: channelID,
		AuthorID:  authorID,
		Content:   query,
		Limit:     searchPageSize,
		Offset:    offset,
	})
	if err != nil {
		return SearchResult{}, fmt.Errorf("failed to search messages: %w", err)
	}
	rendered, err := s.Serializer.Messages(ctx, found)
	if err != nil {
		return SearchResult{}, err
	}

	out := SearchResult{Messages: make([][]event.Message, 0, len(rendered)), TotalResults: total}
	for _, m := range rendered {
		out.Messages = append(out.Messages, []event.Message{m})
	}
	return out, nil
}

func authorOf(m model.Message) int64 {
	if m.AuthorID == nil {
		return 0
	}
	return *m.AuthorID
}

func without(ids []int64, drop int64) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id != drop {
			out = append(out, id)
		}
	}
	return out
}
