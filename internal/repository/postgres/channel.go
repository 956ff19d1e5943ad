package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/yepcord/server-sub002/internal/model"
)

var _ model.ChannelStore = (*ChannelRepository)(nil)

type ChannelRepository struct {
	db *Connection
}

func NewChannelRepository(db *Connection) *ChannelRepository {
	return &ChannelRepository{db: db}
}

const channelColumns = `c.id, c.type, c.guild_id, c.position, c.parent_id, c.name, c.topic, c.nsfw,
		c.rate_limit_per_user, c.bitrate, c.user_limit, c.owner_id, c.icon, c.last_message_id,
		c.permission_overwrites,
		COALESCE((SELECT array_agg(cr.user_id ORDER BY cr.user_id) FROM channel_recipients cr WHERE cr.channel_id = c.id), '{}')`

func scanChannel(row pgx.Row) (model.Channel, error) {
	var (
		c          model.Channel
		chType     int
		overwrites []byte
	)
	err := row.Scan(
		&c.ID, &chType, &c.GuildID, &c.Position, &c.ParentID, &c.Name, &c.Topic, &c.NSFW,
		&c.RateLimitPerUser, &c.Bitrate, &c.UserLimit, &c.OwnerID, &c.Icon, &c.LastMessageID,
		&overwrites, &c.Recipients,
	)
	if err != nil {
		return model.Channel{}, err
	}
	c.Type = model.ChannelType(chType)

	if len(overwrites) > 0 {
		if err := json.Unmarshal(overwrites, &c.PermissionOverwrites); err != nil {
			return model.Channel{}, fmt.Errorf("failed to decode permission overwrites: %w", err)
		}
	}
	return c, nil
}

func collectChannels(rows pgx.Rows, err error) ([]model.Channel, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []model.Channel
	for rows.Next() {
		c, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, c)
	}
	return channels, rows.Err()
}

func insertChannel(ctx context.Context, q querier, c model.Channel) error {
	overwrites, err := json.Marshal(overwritesOrEmpty(c.PermissionOverwrites))
	if err != nil {
		return fmt.Errorf("failed to encode permission overwrites: %w", err)
	}

	const query = `INSERT INTO channels (id, type, guild_id, position, parent_id, name, topic, nsfw,
		rate_limit_per_user, bitrate, user_limit, owner_id, icon, last_message_id, permission_overwrites)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	if _, err := q.Exec(ctx, query,
		c.ID, int(c.Type), c.GuildID, c.Position, c.ParentID, c.Name, c.Topic, c.NSFW,
		c.RateLimitPerUser, c.Bitrate, c.UserLimit, c.OwnerID, c.Icon, c.LastMessageID, overwrites,
	); err != nil {
		return err
	}

	for _, uid := range c.Recipients {
		if _, err := q.Exec(ctx,
			`INSERT INTO channel_recipients (channel_id, user_id) VALUES ($1, $2)`, c.ID, uid,
		); err != nil {
			return err
		}
	}
	return nil
}

func overwritesOrEmpty(o []model.PermissionOverwrite) []model.PermissionOverwrite {
	if o == nil {
		return []model.PermissionOverwrite{}
	}
	return o
}

func (r *ChannelRepository) Create(ctx context.Context, channel model.Channel) (model.Channel, error) {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		return insertChannel(ctx, tx, channel)
	})
	if err != nil {
		return model.Channel{}, fmt.Errorf("failed to create channel: %w", err)
	}
	return channel, nil
}

func (r *ChannelRepository) GetByID(ctx context.Context, id int64) (model.Channel, error) {
	query := `SELECT ` + channelColumns + ` FROM channels c WHERE c.id = $1`

	c, err := scanChannel(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return model.Channel{}, notFound(err, "channel")
	}
	return c, nil
}

func (r *ChannelRepository) Update(ctx context.Context, c model.Channel) error {
	overwrites, err := json.Marshal(overwritesOrEmpty(c.PermissionOverwrites))
	if err != nil {
		return fmt.Errorf("failed to encode permission overwrites: %w", err)
	}

	const query = `UPDATE channels SET position = $2, parent_id = $3, name = $4, topic = $5, nsfw = $6,
		rate_limit_per_user = $7, bitrate = $8, user_limit = $9, owner_id = $10, icon = $11,
		permission_overwrites = $12
		WHERE id = $1`

	cmd, err := r.db.Exec(ctx, query,
		c.ID, c.Position, c.ParentID, c.Name, c.Topic, c.NSFW,
		c.RateLimitPerUser, c.Bitrate, c.UserLimit, c.OwnerID, c.Icon, overwrites,
	)
	if err != nil {
		return fmt.Errorf("failed to update channel: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *ChannelRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM channels WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete channel: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *ChannelRepository) GetDM(ctx context.Context, userA, userB int64) (model.Channel, error) {
	query := `SELECT ` + channelColumns + ` FROM channels c
		WHERE c.type = $1
		  AND EXISTS (SELECT 1 FROM channel_recipients WHERE channel_id = c.id AND user_id = $2)
		  AND EXISTS (SELECT 1 FROM channel_recipients WHERE channel_id = c.id AND user_id = $3)
		LIMIT 1`

	c, err := scanChannel(r.db.QueryRow(ctx, query, int(model.ChannelDM), userA, userB))
	if err != nil {
		return model.Channel{}, notFound(err, "dm channel")
	}
	return c, nil
}

func (r *ChannelRepository) PrivateChannels(ctx context.Context, userID int64) ([]model.Channel, error) {
	query := `SELECT ` + channelColumns + ` FROM channels c
		JOIN channel_recipients me ON me.channel_id = c.id AND me.user_id = $1
		ORDER BY COALESCE(c.last_message_id, c.id) DESC`

	channels, err := collectChannels(r.db.Query(ctx, query, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get private channels: %w", err)
	}
	return channels, nil
}

func (r *ChannelRepository) GuildChannels(ctx context.Context, guildID int64) ([]model.Channel, error) {
	channels, err := guildChannels(ctx, r.db, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get guild channels: %w", err)
	}
	return channels, nil
}

func guildChannels(ctx context.Context, q querier, guildID int64) ([]model.Channel, error) {
	query := `SELECT ` + channelColumns + ` FROM channels c WHERE c.guild_id = $1 ORDER BY c.position, c.id`
	return collectChannels(q.Query(ctx, query, guildID))
}

func (r *ChannelRepository) Recipients(ctx context.Context, channelID int64) ([]int64, error) {
	const query = `SELECT user_id FROM channel_recipients WHERE channel_id = $1 ORDER BY user_id`

	ids, err := collectIDs(r.db.Query(ctx, query, channelID))
	if err != nil {
		return nil, fmt.Errorf("failed to get recipients: %w", err)
	}
	return ids, nil
}

func (r *ChannelRepository) AddRecipient(ctx context.Context, channelID, userID int64) error {
	const query = `INSERT INTO channel_recipients (channel_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`

	if _, err := r.db.Exec(ctx, query, channelID, userID); err != nil {
		return fmt.Errorf("failed to add recipient: %w", err)
	}
	return nil
}

func (r *ChannelRepository) RemoveRecipient(ctx context.Context, channelID, userID int64) error {
	const query = `DELETE FROM channel_recipients WHERE channel_id = $1 AND user_id = $2`

	cmd, err := r.db.Exec(ctx, query, channelID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove recipient: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *ChannelRepository) SetLastMessage(ctx context.Context, channelID, messageID int64) error {
	const query = `UPDATE channels SET last_message_id = $2 WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, channelID, messageID); err != nil {
		return fmt.Errorf("failed to set last message: %w", err)
	}
	return nil
}

// RelatedUsers returns the recipients of a private channel, or every guild
// member that can view a guild channel.
func (r *ChannelRepository) RelatedUsers(ctx context.Context, channelID int64) ([]int64, error) {
	channel, err := r.GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if channel.IsPrivate() || channel.GuildID == nil {
		return channel.Recipients, nil
	}

	ids, err := usersWithPermission(ctx, r.db, *channel.GuildID, &channel, model.PermViewChannel)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get channel audience: %w", err)
	}
	return ids, nil
}
