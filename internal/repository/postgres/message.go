package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/jackc/pgx/v5"

	"github.com/yepcord/server-sub002/internal/model"
	"github.com/yepcord/server-sub002/internal/snowflake"
)

var _ model.MessageStore = (*MessageRepository)(nil)

type MessageRepository struct {
	db  *Connection
	ids *snowflake.Generator
}

// NewMessageRepository uses ids to mint edit timestamps.
func NewMessageRepository(db *Connection, ids *snowflake.Generator) *MessageRepository {
	return &MessageRepository{db: db, ids: ids}
}

const messageColumns = `id, channel_id, guild_id, author_id, webhook_id, application_id, interaction_id, content,
	edited_timestamp, embeds, flags, type, reference, components, sticker_ids, mention_everyone, mentions,
	mention_roles, pinned, tts`

// messageJSON holds the JSONB columns of a message row.
type messageJSON struct {
	embeds, reference, components, stickers, mentions, mentionRoles []byte
}

func scanMessage(row pgx.Row) (model.Message, error) {
	var (
		m model.Message
		j messageJSON
	)
	err := row.Scan(
		&m.ID, &m.ChannelID, &m.GuildID, &m.AuthorID, &m.WebhookID, &m.ApplicationID, &m.InteractionID, &m.Content,
		&m.EditedTimestamp, &j.embeds, &m.Flags, &m.Type, &j.reference, &j.components, &j.stickers,
		&m.MentionEveryone, &j.mentions, &j.mentionRoles, &m.Pinned, &m.TTS,
	)
	if err != nil {
		return model.Message{}, err
	}

	if err := json.Unmarshal(j.embeds, &m.Embeds); err != nil {
		return model.Message{}, fmt.Errorf("failed to decode embeds: %w", err)
	}
	if len(j.reference) > 0 {
		m.Reference = &model.MessageReference{}
		if err := json.Unmarshal(j.reference, m.Reference); err != nil {
			return model.Message{}, fmt.Errorf("failed to decode reference: %w", err)
		}
	}
	m.Components = json.RawMessage(j.components)
	for _, pair := range []struct {
		raw []byte
		dst *[]int64
	}{
		{j.stickers, &m.StickerIDs},
		{j.mentions, &m.Mentions},
		{j.mentionRoles, &m.MentionRoles},
	} {
		if err := json.Unmarshal(pair.raw, pair.dst); err != nil {
			return model.Message{}, fmt.Errorf("failed to decode message ids: %w", err)
		}
	}
	return m, nil
}

func encodeMessage(m model.Message) (messageJSON, error) {
	var (
		j   messageJSON
		err error
	)
	embeds := m.Embeds
	if embeds == nil {
		embeds = []*discordgo.MessageEmbed{}
	}
	if j.embeds, err = json.Marshal(embeds); err != nil {
		return j, err
	}
	if m.Reference != nil {
		if j.reference, err = json.Marshal(m.Reference); err != nil {
			return j, err
		}
	}
	j.components = []byte(m.Components)
	if len(j.components) == 0 {
		j.components = []byte("[]")
	}
	if j.stickers, err = json.Marshal(idsOrEmpty(m.StickerIDs)); err != nil {
		return j, err
	}
	if j.mentions, err = json.Marshal(idsOrEmpty(m.Mentions)); err != nil {
		return j, err
	}
	j.mentionRoles, err = json.Marshal(idsOrEmpty(m.MentionRoles))
	return j, err
}

// collectMessages scans rows and attaches their attachments.
func (r *MessageRepository) collectMessages(ctx context.Context, rows pgx.Rows, err error) ([]model.Message, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	if err := r.attachAttachments(ctx, messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *MessageRepository) attachAttachments(ctx context.Context, messages []model.Message) error {
	if len(messages) == 0 {
		return nil
	}

	ids := make([]int64, len(messages))
	index := make(map[int64]int, len(messages))
	for i, m := range messages {
		ids[i] = m.ID
		index[m.ID] = i
	}

	const query = `SELECT id, channel_id, message_id, filename, size, content_type, width, height
		FROM attachments WHERE message_id = ANY($1) ORDER BY id`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to get attachments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a model.Attachment
		if err := rows.Scan(&a.ID, &a.ChannelID, &a.MessageID, &a.Filename, &a.Size, &a.ContentType, &a.Width, &a.Height); err != nil {
			return fmt.Errorf("failed to scan attachment: %w", err)
		}
		i := index[a.MessageID]
		messages[i].Attachments = append(messages[i].Attachments, a)
	}
	return rows.Err()
}

func (r *MessageRepository) Create(ctx context.Context, m model.Message) (model.Message, error) {
	j, err := encodeMessage(m)
	if err != nil {
		return model.Message{}, fmt.Errorf("failed to encode message: %w", err)
	}

	query := `INSERT INTO messages (` + messageColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`

	if _, err := r.db.Exec(ctx, query,
		m.ID, m.ChannelID, m.GuildID, m.AuthorID, m.WebhookID, m.ApplicationID, m.InteractionID, m.Content,
		m.EditedTimestamp, j.embeds, m.Flags, m.Type, j.reference, j.components, j.stickers,
		m.MentionEveryone, j.mentions, j.mentionRoles, m.Pinned, m.TTS,
	); err != nil {
		return model.Message{}, fmt.Errorf("failed to create message: %w", err)
	}
	return m, nil
}

func (r *MessageRepository) GetByID(ctx context.Context, channelID, id int64) (model.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE channel_id = $1 AND id = $2`

	m, err := scanMessage(r.db.QueryRow(ctx, query, channelID, id))
	if err != nil {
		return model.Message{}, notFound(err, "message")
	}

	one := []model.Message{m}
	if err := r.attachAttachments(ctx, one); err != nil {
		return model.Message{}, err
	}
	return one[0], nil
}

// Update rewrites the mutable fields and stamps a fresh edit timestamp.
func (r *MessageRepository) Update(ctx context.Context, m model.Message) (model.Message, error) {
	edited := r.ids.Next()
	m.EditedTimestamp = &edited

	j, err := encodeMessage(m)
	if err != nil {
		return model.Message{}, fmt.Errorf("failed to encode message: %w", err)
	}

	const query = `UPDATE messages SET content = $3, edited_timestamp = $4, embeds = $5, flags = $6,
		components = $7, mention_everyone = $8, mentions = $9, mention_roles = $10
		WHERE channel_id = $1 AND id = $2`

	cmd, err := r.db.Exec(ctx, query,
		m.ChannelID, m.ID, m.Content, edited, j.embeds, m.Flags, j.components, m.MentionEveryone,
		j.mentions, j.mentionRoles,
	)
	if err != nil {
		return model.Message{}, fmt.Errorf("failed to update message: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.Message{}, model.ErrNotFound
	}
	return m, nil
}

func (r *MessageRepository) Delete(ctx context.Context, channelID, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM messages WHERE channel_id = $1 AND id = $2`, channelID, id)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// DeleteMany returns the ids that actually existed in the channel.
func (r *MessageRepository) DeleteMany(ctx context.Context, channelID int64, ids []int64) ([]int64, error) {
	const query = `DELETE FROM messages WHERE channel_id = $1 AND id = ANY($2) RETURNING id`

	deleted, err := collectIDs(r.db.Query(ctx, query, channelID, ids))
	if err != nil {
		return nil, fmt.Errorf("failed to delete messages: %w", err)
	}
	return deleted, nil
}

// ChannelMessages returns up to limit messages newest first, optionally
// bounded by before and after ids. Ephemeral messages are never listed.
func (r *MessageRepository) ChannelMessages(ctx context.Context, channelID int64, limit int, before, after int64) ([]model.Message, error) {
	if limit <= 0 || limit > model.MaxMessageLimit {
		limit = model.MaxMessageLimit
	}

	query := `SELECT ` + messageColumns + ` FROM messages
		WHERE channel_id = $1 AND flags & $2 = 0
		  AND ($3::bigint = 0 OR id < $3) AND ($4::bigint = 0 OR id > $4)
		ORDER BY id DESC LIMIT $5`

	rows, err := r.db.Query(ctx, query, channelID, model.MessageFlagEphemeral, before, after, limit)
	messages, err := r.collectMessages(ctx, rows, err)
	if err != nil {
		return nil, fmt.Errorf("failed to get channel messages: %w", err)
	}
	return messages, nil
}

func (r *MessageRepository) ChannelMessagesCount(ctx context.Context, channelID int64, before, after int64) (int, error) {
	const query = `SELECT COUNT(*) FROM messages
		WHERE channel_id = $1 AND flags & $2 = 0
		  AND ($3::bigint = 0 OR id < $3) AND ($4::bigint = 0 OR id > $4)`

	var count int
	if err := r.db.QueryRow(ctx, query, channelID, model.MessageFlagEphemeral, before, after).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count channel messages: %w", err)
	}
	return count, nil
}

func (r *MessageRepository) Pins(ctx context.Context, channelID int64) ([]model.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE channel_id = $1 AND pinned ORDER BY id DESC`

	rows, err := r.db.Query(ctx, query, channelID)
	messages, err := r.collectMessages(ctx, rows, err)
	if err != nil {
		return nil, fmt.Errorf("failed to get pins: %w", err)
	}
	return messages, nil
}

func (r *MessageRepository) SetPinned(ctx context.Context, channelID, id int64, pinned bool) error {
	cmd, err := r.db.Exec(ctx, `UPDATE messages SET pinned = $3 WHERE channel_id = $1 AND id = $2`, channelID, id, pinned)
	if err != nil {
		return fmt.Errorf("failed to pin message: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// AddReaction reports false when the user already reacted with that emoji.
func (r *MessageRepository) AddReaction(ctx context.Context, reaction model.Reaction) (bool, error) {
	const query = `INSERT INTO reactions (message_id, channel_id, user_id, emoji_id, emoji_name)
		VALUES ($1, $2, $3, $4, $5) ON CONFLICT DO NOTHING`

	cmd, err := r.db.Exec(ctx, query,
		reaction.MessageID, reaction.ChannelID, reaction.UserID, reaction.EmojiID, reaction.EmojiName,
	)
	if err != nil {
		return false, fmt.Errorf("failed to add reaction: %w", err)
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *MessageRepository) RemoveReaction(ctx context.Context, reaction model.Reaction) (bool, error) {
	const query = `DELETE FROM reactions
		WHERE message_id = $1 AND user_id = $2 AND COALESCE(emoji_id, 0) = COALESCE($3::bigint, 0) AND emoji_name = $4`

	cmd, err := r.db.Exec(ctx, query, reaction.MessageID, reaction.UserID, reaction.EmojiID, reaction.EmojiName)
	if err != nil {
		return false, fmt.Errorf("failed to remove reaction: %w", err)
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *MessageRepository) Reactions(ctx context.Context, messageID int64) ([]model.Reaction, error) {
	const query = `SELECT message_id, channel_id, user_id, emoji_id, emoji_name FROM reactions WHERE message_id = $1`

	rows, err := r.db.Query(ctx, query, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reactions: %w", err)
	}
	defer rows.Close()

	var reactions []model.Reaction
	for rows.Next() {
		var re model.Reaction
		if err := rows.Scan(&re.MessageID, &re.ChannelID, &re.UserID, &re.EmojiID, &re.EmojiName); err != nil {
			return nil, fmt.Errorf("failed to scan reaction: %w", err)
		}
		reactions = append(reactions, re)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reactions, nil
}

func (r *MessageRepository) CreateAttachment(ctx context.Context, a model.Attachment) error {
	const query = `INSERT INTO attachments (id, channel_id, message_id, filename, size, content_type, width, height)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	if _, err := r.db.Exec(ctx, query, a.ID, a.ChannelID, a.MessageID, a.Filename, a.Size, a.ContentType, a.Width, a.Height); err != nil {
		return fmt.Errorf("failed to create attachment: %w", err)
	}
	return nil
}

// Search matches content with a case-insensitive substring predicate and
// returns one page plus the total number of hits.
func (r *MessageRepository) Search(ctx context.Context, s model.MessageSearch) ([]model.Message, int, error) {
	limit := s.Limit
	if limit <= 0 || limit > 25 {
		limit = 25
	}

	const where = ` FROM messages
		WHERE flags & 64 = 0
		  AND ($1::bigint IS NULL OR guild_id = $1)
		  AND ($2::bigint IS NULL OR channel_id = $2)
		  AND ($3::bigint IS NULL OR author_id = $3)
		  AND content ILIKE '%' || $4 || '%'`

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*)`+where, s.GuildID, s.ChannelID, s.AuthorID, escapeLike(s.Content)).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count search results: %w", err)
	}

	query := `SELECT ` + messageColumns + where + ` ORDER BY id DESC LIMIT $5 OFFSET $6`
	rows, err := r.db.Query(ctx, query, s.GuildID, s.ChannelID, s.AuthorID, escapeLike(s.Content), limit, s.Offset)
	messages, err := r.collectMessages(ctx, rows, err)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search messages: %w", err)
	}
	return messages, total, nil
}

func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, c := range s {
		if c == '%' || c == '_' || c == '\\' {
			out = append(out, '\\')
		}
		out = append(out, c)
	}
	return string(out)
}
