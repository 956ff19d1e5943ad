package postgres

import (
	"context"
	"fmt"

	"github.com/yepcord/server-sub002/internal/model"
)

var _ model.ReadStateStore = (*ReadStateRepository)(nil)

type ReadStateRepository struct {
	db *Connection
}

func NewReadStateRepository(db *Connection) *ReadStateRepository {
	return &ReadStateRepository{db: db}
}

func (r *ReadStateRepository) GetAll(ctx context.Context, userID int64) ([]model.ReadState, error) {
	const query = `SELECT user_id, channel_id, last_read_id, mention_count FROM read_states WHERE user_id = $1`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get read states: %w", err)
	}
	defer rows.Close()

	var states []model.ReadState
	for rows.Next() {
		var s model.ReadState
		if err := rows.Scan(&s.UserID, &s.ChannelID, &s.LastReadID, &s.MentionCount); err != nil {
			return nil, fmt.Errorf("failed to scan read state: %w", err)
		}
		states = append(states, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return states, nil
}

func (r *ReadStateRepository) Ack(ctx context.Context, s model.ReadState) error {
	const query = `INSERT INTO read_states (user_id, channel_id, last_read_id, mention_count) VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, channel_id) DO UPDATE
		SET last_read_id = GREATEST(read_states.last_read_id, EXCLUDED.last_read_id), mention_count = EXCLUDED.mention_count`

	if _, err := r.db.Exec(ctx, query, s.UserID, s.ChannelID, s.LastReadID, s.MentionCount); err != nil {
		return fmt.Errorf("failed to ack channel: %w", err)
	}
	return nil
}

func (r *ReadStateRepository) AddMention(ctx context.Context, channelID int64, userIDs []int64) error {
	if len(userIDs) == 0 {
		return nil
	}

	const query = `INSERT INTO read_states (user_id, channel_id, last_read_id, mention_count)
		SELECT u, $1, 0, 1 FROM unnest($2::bigint[]) AS u
		ON CONFLICT (user_id, channel_id) DO UPDATE SET mention_count = read_states.mention_count + 1`

	if _, err := r.db.Exec(ctx, query, channelID, userIDs); err != nil {
		return fmt.Errorf("failed to add mentions: %w", err)
	}
	return nil
}

func (r *ReadStateRepository) Delete(ctx context.Context, userID, channelID int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM read_states WHERE user_id = $1 AND channel_id = $2`, userID, channelID); err != nil {
		return fmt.Errorf("failed to delete read state: %w", err)
	}
	return nil
}

func (r *ReadStateRepository) DeleteForGuild(ctx context.Context, userID, guildID int64) error {
	const query = `DELETE FROM read_states rs USING channels c
		WHERE rs.channel_id = c.id AND rs.user_id = $1 AND c.guild_id = $2`

	if _, err := r.db.Exec(ctx, query, userID, guildID); err != nil {
		return fmt.Errorf("failed to delete guild read states: %w", err)
	}
	return nil
}
