package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/yepcord/server-sub002/internal/model"
)

var _ model.InviteStore = (*InviteRepository)(nil)

type InviteRepository struct {
	db *Connection
}

func NewInviteRepository(db *Connection) *InviteRepository {
	return &InviteRepository{db: db}
}

const inviteColumns = `id, channel_id, guild_id, COALESCE(inviter_id, 0), max_age, max_uses, uses, vanity_code`

func scanInvite(row pgx.Row) (model.Invite, error) {
	var i model.Invite
	err := row.Scan(&i.ID, &i.ChannelID, &i.GuildID, &i.InviterID, &i.MaxAge, &i.MaxUses, &i.Uses, &i.VanityCode)
	return i, err
}

func (r *InviteRepository) Create(ctx context.Context, i model.Invite) error {
	const query = `INSERT INTO invites (id, channel_id, guild_id, inviter_id, max_age, max_uses, uses, vanity_code)
		VALUES ($1, $2, $3, NULLIF($4::bigint, 0), $5, $6, $7, $8)`

	if _, err := r.db.Exec(ctx, query, i.ID, i.ChannelID, i.GuildID, i.InviterID, i.MaxAge, i.MaxUses, i.Uses, i.VanityCode); err != nil {
		if isUniqueViolation(err) {
			return model.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create invite: %w", err)
	}
	return nil
}

func (r *InviteRepository) GetByID(ctx context.Context, id int64) (model.Invite, error) {
	i, err := scanInvite(r.db.QueryRow(ctx, `SELECT `+inviteColumns+` FROM invites WHERE id = $1`, id))
	if err != nil {
		return model.Invite{}, notFound(err, "invite")
	}
	return i, nil
}

func (r *InviteRepository) GetByVanity(ctx context.Context, code string) (model.Invite, error) {
	i, err := scanInvite(r.db.QueryRow(ctx, `SELECT `+inviteColumns+` FROM invites WHERE vanity_code = $1`, code))
	if err != nil {
		return model.Invite{}, notFound(err, "invite by vanity code")
	}
	return i, nil
}

func (r *InviteRepository) IncrementUses(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `UPDATE invites SET uses = uses + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to use invite: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *InviteRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM invites WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete invite: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *InviteRepository) ChannelInvites(ctx context.Context, channelID int64) ([]model.Invite, error) {
	rows, err := r.db.Query(ctx, `SELECT `+inviteColumns+` FROM invites WHERE channel_id = $1 ORDER BY id`, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to get channel invites: %w", err)
	}
	defer rows.Close()

	var invites []model.Invite
	for rows.Next() {
		i, err := scanInvite(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invite: %w", err)
		}
		invites = append(invites, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return invites, nil
}
