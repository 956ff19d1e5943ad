package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/yepcord/server-sub002/internal/model"
)

var _ model.GuildStore = (*GuildRepository)(nil)

type GuildRepository struct {
	db *Connection
}

func NewGuildRepository(db *Connection) *GuildRepository {
	return &GuildRepository{db: db}
}

const (
	guildColumns = `g.id, g.owner_id, g.name, g.icon, g.description, g.banner, g.splash, g.region,
		g.afk_channel_id, g.afk_timeout, g.system_channel_id, g.verification_level,
		g.default_message_notifications, g.explicit_content_filter, g.mfa_level, g.nsfw_level,
		g.features, g.preferred_locale, g.vanity_url_code, g.premium_tier`
	roleColumns = `id, guild_id, name, permissions, position, color, hoist, managed, mentionable,
		icon, unicode_emoji, flags`
	memberColumns = `id, user_id, guild_id, roles, nick, avatar, communication_disabled_until, deaf, mute, pending`
)

func scanGuild(row pgx.Row) (model.Guild, error) {
	var (
		g        model.Guild
		features []byte
	)
	err := row.Scan(
		&g.ID, &g.OwnerID, &g.Name, &g.Icon, &g.Description, &g.Banner, &g.Splash, &g.Region,
		&g.AFKChannelID, &g.AFKTimeout, &g.SystemChannelID, &g.VerificationLevel,
		&g.DefaultMessageNotifications, &g.ExplicitContentFilter, &g.MFALevel, &g.NSFWLevel,
		&features, &g.PreferredLocale, &g.VanityURLCode, &g.PremiumTier,
	)
	if err != nil {
		return model.Guild{}, err
	}
	if err := json.Unmarshal(features, &g.Features); err != nil {
		return model.Guild{}, fmt.Errorf("failed to decode guild features: %w", err)
	}
	return g, nil
}

func scanRole(row pgx.Row) (model.Role, error) {
	var (
		role  model.Role
		perms int64
	)
	err := row.Scan(
		&role.ID, &role.GuildID, &role.Name, &perms, &role.Position, &role.Color, &role.Hoist, &role.Managed,
		&role.Mentionable, &role.Icon, &role.UnicodeEmoji, &role.Flags,
	)
	role.Permissions = model.Permission(perms)
	return role, err
}

func scanMember(row pgx.Row) (model.GuildMember, error) {
	var (
		m     model.GuildMember
		roles []byte
	)
	err := row.Scan(
		&m.ID, &m.UserID, &m.GuildID, &roles, &m.Nick, &m.Avatar, &m.CommunicationDisabledUntil,
		&m.Deaf, &m.Mute, &m.Pending,
	)
	if err != nil {
		return model.GuildMember{}, err
	}
	if err := json.Unmarshal(roles, &m.Roles); err != nil {
		return model.GuildMember{}, fmt.Errorf("failed to decode member roles: %w", err)
	}
	return m, nil
}

func loadGuild(ctx context.Context, q querier, id int64) (model.Guild, error) {
	query := `SELECT ` + guildColumns + ` FROM guilds g WHERE g.id = $1`
	return scanGuild(q.QueryRow(ctx, query, id))
}

func loadRoles(ctx context.Context, q querier, guildID int64) ([]model.Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles WHERE guild_id = $1 ORDER BY position, id`

	rows, err := q.Query(ctx, query, guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []model.Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func loadMembers(ctx context.Context, q querier, guildID int64, limit int) ([]model.GuildMember, error) {
	query := `SELECT ` + memberColumns + ` FROM guild_members WHERE guild_id = $1 ORDER BY id`
	args := []any{guildID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []model.GuildMember
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// usersWithPermission returns the members of guildID holding perm, on
// channel when it is not nil.
func usersWithPermission(ctx context.Context, q querier, guildID int64, channel *model.Channel, perm model.Permission) ([]int64, error) {
	guild, err := loadGuild(ctx, q, guildID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	roles, err := loadRoles(ctx, q, guildID)
	if err != nil {
		return nil, err
	}
	members, err := loadMembers(ctx, q, guildID, 0)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(members))
	for _, m := range members {
		if model.ComputePermissions(guild, m, roles, channel).Has(perm) {
			ids = append(ids, m.UserID)
		}
	}
	return ids, nil
}

func insertRole(ctx context.Context, q querier, role model.Role) error {
	query := `INSERT INTO roles (` + roleColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := q.Exec(ctx, query,
		role.ID, role.GuildID, role.Name, int64(role.Permissions), role.Position, role.Color, role.Hoist,
		role.Managed, role.Mentionable, role.Icon, role.UnicodeEmoji, role.Flags,
	)
	return err
}

func insertMember(ctx context.Context, q querier, m model.GuildMember) error {
	roles, err := json.Marshal(idsOrEmpty(m.Roles))
	if err != nil {
		return err
	}

	query := `INSERT INTO guild_members (` + memberColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err = q.Exec(ctx, query,
		m.ID, m.UserID, m.GuildID, roles, m.Nick, m.Avatar, m.CommunicationDisabledUntil, m.Deaf, m.Mute, m.Pending,
	)
	return err
}

func idsOrEmpty(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}

// Create stores a guild together with its default roles, channels and owner
// membership.
func (r *GuildRepository) Create(ctx context.Context, guild model.Guild, roles []model.Role, channels []model.Channel, owner model.GuildMember) error {
	features, err := json.Marshal(stringsOrEmpty(guild.Features))
	if err != nil {
		return fmt.Errorf("failed to encode guild features: %w", err)
	}

	err = pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		query := `INSERT INTO guilds (id, owner_id, name, icon, description, banner, splash, region,
			afk_channel_id, afk_timeout, system_channel_id, verification_level, default_message_notifications,
			explicit_content_filter, mfa_level, nsfw_level, features, preferred_locale, vanity_url_code, premium_tier)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`

		if _, err := tx.Exec(ctx, query,
			guild.ID, guild.OwnerID, guild.Name, guild.Icon, guild.Description, guild.Banner, guild.Splash,
			guild.Region, guild.AFKChannelID, guild.AFKTimeout, guild.SystemChannelID, guild.VerificationLevel,
			guild.DefaultMessageNotifications, guild.ExplicitContentFilter, guild.MFALevel, guild.NSFWLevel,
			features, guild.PreferredLocale, guild.VanityURLCode, guild.PremiumTier,
		); err != nil {
			return err
		}

		for _, role := range roles {
			if err := insertRole(ctx, tx, role); err != nil {
				return err
			}
		}
		for _, c := range channels {
			if err := insertChannel(ctx, tx, c); err != nil {
				return err
			}
		}
		return insertMember(ctx, tx, owner)
	})
	if err != nil {
		return fmt.Errorf("failed to create guild: %w", err)
	}
	return nil
}

func stringsOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func (r *GuildRepository) GetByID(ctx context.Context, id int64) (model.Guild, error) {
	g, err := loadGuild(ctx, r.db, id)
	if err != nil {
		return model.Guild{}, notFound(err, "guild")
	}
	return g, nil
}

func (r *GuildRepository) Update(ctx context.Context, g model.Guild) error {
	features, err := json.Marshal(stringsOrEmpty(g.Features))
	if err != nil {
		return fmt.Errorf("failed to encode guild features: %w", err)
	}

	const query = `UPDATE guilds SET owner_id = $2, name = $3, icon = $4, description = $5, banner = $6,
		splash = $7, region = $8, afk_channel_id = $9, afk_timeout = $10, system_channel_id = $11,
		verification_level = $12, default_message_notifications = $13, explicit_content_filter = $14,
		mfa_level = $15, nsfw_level = $16, features = $17, preferred_locale = $18, vanity_url_code = $19,
		premium_tier = $20
		WHERE id = $1`

	cmd, err := r.db.Exec(ctx, query,
		g.ID, g.OwnerID, g.Name, g.Icon, g.Description, g.Banner, g.Splash, g.Region, g.AFKChannelID,
		g.AFKTimeout, g.SystemChannelID, g.VerificationLevel, g.DefaultMessageNotifications,
		g.ExplicitContentFilter, g.MFALevel, g.NSFWLevel, features, g.PreferredLocale, g.VanityURLCode,
		g.PremiumTier,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrAlreadyExists
		}
		return fmt.Errorf("failed to update guild: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// Delete removes the guild with everything it owns and returns the user ids
// that were members at the time.
func (r *GuildRepository) Delete(ctx context.Context, id int64) ([]int64, error) {
	var affected []int64
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		ids, err := collectIDs(tx.Query(ctx, `SELECT user_id FROM guild_members WHERE guild_id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}

		cmd, err := tx.Exec(ctx, `DELETE FROM guilds WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return model.ErrNotFound
		}
		affected = ids
		return nil
	})
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to delete guild: %w", err)
	}
	return affected, nil
}

func (r *GuildRepository) UserGuilds(ctx context.Context, userID int64) ([]model.Guild, error) {
	query := `SELECT ` + guildColumns + ` FROM guilds g
		JOIN guild_members m ON m.guild_id = g.id
		WHERE m.user_id = $1 ORDER BY m.id`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user guilds: %w", err)
	}
	defer rows.Close()

	var guilds []model.Guild
	for rows.Next() {
		g, err := scanGuild(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan guild: %w", err)
		}
		guilds = append(guilds, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return guilds, nil
}

func (r *GuildRepository) GetMember(ctx context.Context, guildID, userID int64) (model.GuildMember, error) {
	query := `SELECT ` + memberColumns + ` FROM guild_members WHERE guild_id = $1 AND user_id = $2`

	m, err := scanMember(r.db.QueryRow(ctx, query, guildID, userID))
	if err != nil {
		return model.GuildMember{}, notFound(err, "guild member")
	}
	return m, nil
}

func (r *GuildRepository) Members(ctx context.Context, guildID int64, limit int) ([]model.GuildMember, error) {
	members, err := loadMembers(ctx, r.db, guildID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get guild members: %w", err)
	}
	return members, nil
}

func (r *GuildRepository) MemberUserIDs(ctx context.Context, guildID int64) ([]int64, error) {
	const query = `SELECT user_id FROM guild_members WHERE guild_id = $1 ORDER BY user_id`

	ids, err := collectIDs(r.db.Query(ctx, query, guildID))
	if err != nil {
		return nil, fmt.Errorf("failed to get guild member ids: %w", err)
	}
	return ids, nil
}

func (r *GuildRepository) MemberCount(ctx context.Context, guildID int64) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM guild_members WHERE guild_id = $1`, guildID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count guild members: %w", err)
	}
	return count, nil
}

func (r *GuildRepository) AddMember(ctx context.Context, member model.GuildMember) error {
	if err := insertMember(ctx, r.db, member); err != nil {
		if isUniqueViolation(err) {
			return model.ErrAlreadyExists
		}
		return fmt.Errorf("failed to add guild member: %w", err)
	}
	return nil
}

func (r *GuildRepository) UpdateMember(ctx context.Context, m model.GuildMember) error {
	roles, err := json.Marshal(idsOrEmpty(m.Roles))
	if err != nil {
		return fmt.Errorf("failed to encode member roles: %w", err)
	}

	const query = `UPDATE guild_members SET roles = $3, nick = $4, avatar = $5, communication_disabled_until = $6,
		deaf = $7, mute = $8, pending = $9
		WHERE guild_id = $1 AND user_id = $2`

	cmd, err := r.db.Exec(ctx, query,
		m.GuildID, m.UserID, roles, m.Nick, m.Avatar, m.CommunicationDisabledUntil, m.Deaf, m.Mute, m.Pending,
	)
	if err != nil {
		return fmt.Errorf("failed to update guild member: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *GuildRepository) RemoveMember(ctx context.Context, guildID, userID int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM guild_members WHERE guild_id = $1 AND user_id = $2`, guildID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove guild member: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *GuildRepository) MemberPermissions(ctx context.Context, member model.GuildMember, channel *model.Channel) (model.Permission, error) {
	guild, err := loadGuild(ctx, r.db, member.GuildID)
	if err != nil {
		return 0, notFound(err, "guild")
	}
	roles, err := loadRoles(ctx, r.db, member.GuildID)
	if err != nil {
		return 0, fmt.Errorf("failed to get guild roles: %w", err)
	}
	return model.ComputePermissions(guild, member, roles, channel), nil
}

func (r *GuildRepository) Roles(ctx context.Context, guildID int64) ([]model.Role, error) {
	roles, err := loadRoles(ctx, r.db, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get guild roles: %w", err)
	}
	return roles, nil
}

func (r *GuildRepository) GetRole(ctx context.Context, guildID, roleID int64) (model.Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles WHERE guild_id = $1 AND id = $2`

	role, err := scanRole(r.db.QueryRow(ctx, query, guildID, roleID))
	if err != nil {
		return model.Role{}, notFound(err, "role")
	}
	return role, nil
}

func (r *GuildRepository) CreateRole(ctx context.Context, role model.Role) error {
	if err := insertRole(ctx, r.db, role); err != nil {
		return fmt.Errorf("failed to create role: %w", err)
	}
	return nil
}

func (r *GuildRepository) UpdateRole(ctx context.Context, role model.Role) error {
	const query = `UPDATE roles SET name = $3, permissions = $4, position = $5, color = $6, hoist = $7,
		mentionable = $8, icon = $9, unicode_emoji = $10, flags = $11
		WHERE guild_id = $1 AND id = $2`

	cmd, err := r.db.Exec(ctx, query,
		role.GuildID, role.ID, role.Name, int64(role.Permissions), role.Position, role.Color, role.Hoist,
		role.Mentionable, role.Icon, role.UnicodeEmoji, role.Flags,
	)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// DeleteRole removes the role and strips it from every member holding it.
func (r *GuildRepository) DeleteRole(ctx context.Context, guildID, roleID int64) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, `DELETE FROM roles WHERE guild_id = $1 AND id = $2`, guildID, roleID)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return model.ErrNotFound
		}

		_, err = tx.Exec(ctx, `UPDATE guild_members SET roles = (
				SELECT COALESCE(jsonb_agg(e), '[]'::jsonb) FROM jsonb_array_elements(roles) e
				WHERE e <> to_jsonb($2::bigint)
			) WHERE guild_id = $1 AND roles @> jsonb_build_array($2::bigint)`, guildID, roleID)
		return err
	})
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete role: %w", err)
	}
	return nil
}

func (r *GuildRepository) Emojis(ctx context.Context, guildID int64) ([]model.Emoji, error) {
	const query = `SELECT id, guild_id, COALESCE(user_id, 0), name, require_colons, managed, animated, available
		FROM emojis WHERE guild_id = $1 ORDER BY id`

	rows, err := r.db.Query(ctx, query, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get emojis: %w", err)
	}
	defer rows.Close()

	var emojis []model.Emoji
	for rows.Next() {
		var e model.Emoji
		if err := rows.Scan(&e.ID, &e.GuildID, &e.UserID, &e.Name, &e.RequireColons, &e.Managed, &e.Animated, &e.Available); err != nil {
			return nil, fmt.Errorf("failed to scan emoji: %w", err)
		}
		emojis = append(emojis, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return emojis, nil
}

func (r *GuildRepository) CreateEmoji(ctx context.Context, e model.Emoji) error {
	const query = `INSERT INTO emojis (id, guild_id, user_id, name, require_colons, managed, animated, available)
		VALUES ($1, $2, NULLIF($3::bigint, 0), $4, $5, $6, $7, $8)`

	if _, err := r.db.Exec(ctx, query, e.ID, e.GuildID, e.UserID, e.Name, e.RequireColons, e.Managed, e.Animated, e.Available); err != nil {
		return fmt.Errorf("failed to create emoji: %w", err)
	}
	return nil
}

func (r *GuildRepository) DeleteEmoji(ctx context.Context, guildID, emojiID int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM emojis WHERE guild_id = $1 AND id = $2`, guildID, emojiID)
	if err != nil {
		return fmt.Errorf("failed to delete emoji: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *GuildRepository) GetBan(ctx context.Context, guildID, userID int64) (model.Ban, error) {
	const query = `SELECT guild_id, user_id, reason FROM bans WHERE guild_id = $1 AND user_id = $2`

	var b model.Ban
	if err := r.db.QueryRow(ctx, query, guildID, userID).Scan(&b.GuildID, &b.UserID, &b.Reason); err != nil {
		return model.Ban{}, notFound(err, "ban")
	}
	return b, nil
}

func (r *GuildRepository) CreateBan(ctx context.Context, ban model.Ban) error {
	const query = `INSERT INTO bans (guild_id, user_id, reason) VALUES ($1, $2, $3)
		ON CONFLICT (guild_id, user_id) DO UPDATE SET reason = EXCLUDED.reason`

	if _, err := r.db.Exec(ctx, query, ban.GuildID, ban.UserID, ban.Reason); err != nil {
		return fmt.Errorf("failed to create ban: %w", err)
	}
	return nil
}

func (r *GuildRepository) DeleteBan(ctx context.Context, guildID, userID int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM bans WHERE guild_id = $1 AND user_id = $2`, guildID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete ban: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *GuildRepository) AddAuditLogEntry(ctx context.Context, entry model.AuditLogEntry) error {
	changes := entry.Changes
	if changes == nil {
		changes = []model.AuditChange{}
	}
	raw, err := json.Marshal(changes)
	if err != nil {
		return fmt.Errorf("failed to encode audit changes: %w", err)
	}

	const query = `INSERT INTO audit_log_entries (id, guild_id, user_id, target_id, action_type, changes, reason)
		VALUES ($1, $2, NULLIF($3::bigint, 0), $4, $5, $6, $7)`

	if _, err := r.db.Exec(ctx, query,
		entry.ID, entry.GuildID, entry.UserID, entry.TargetID, entry.ActionType, raw, entry.Reason,
	); err != nil {
		return fmt.Errorf("failed to add audit log entry: %w", err)
	}
	return nil
}
