package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/jackc/pgx/v5"

	"github.com/yepcord/server-sub002/internal/model"
)

const discriminatorAttempts = 5

var _ model.UserStore = (*UserRepository)(nil)

type UserRepository struct {
	db *Connection
}

func NewUserRepository(db *Connection) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

const (
	userColumns = `id, email, password, key, verified, deleted, is_bot`
	dataColumns = `user_id, birth, username, discriminator, flags, public_flags, avatar, banner,
			  banner_color, accent_color, bio, phone, premium`
	settingsColumns = `user_id, status, locale, theme, mfa_secret, developer_mode, message_display_compact,
			  render_embeds, inline_embed_media, analytics_consent, personalization_consent, custom_status`
)

func scanUser(row pgx.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.Key, &u.Verified, &u.Deleted, &u.IsBot)
	return u, err
}

func scanUserData(row pgx.Row) (model.UserData, error) {
	var d model.UserData
	err := row.Scan(
		&d.UserID, &d.Birth, &d.Username, &d.Discriminator, &d.Flags, &d.PublicFlags, &d.Avatar, &d.Banner,
		&d.BannerColor, &d.AccentColor, &d.Bio, &d.Phone, &d.Premium,
	)
	return d, err
}

func (r *UserRepository) Create(ctx context.Context, user model.User, data model.UserData, settings model.UserSettings) (model.User, error) {
	customStatus, err := json.Marshal(settings.CustomStatus)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to encode custom status: %w", err)
	}

	err = pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			user.ID, user.Email, user.Password, user.Key, user.Verified, user.Deleted, user.IsBot,
		); err != nil {
			if isUniqueViolation(err) {
				return model.ErrEmailTaken
			}
			return err
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO user_data (`+dataColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			user.ID, data.Birth, data.Username, data.Discriminator, data.Flags, data.PublicFlags, data.Avatar,
			data.Banner, data.BannerColor, data.AccentColor, data.Bio, data.Phone, data.Premium,
		); err != nil {
			return err
		}

		_, err := tx.Exec(ctx,
			`INSERT INTO user_settings (`+settingsColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			user.ID, settings.Status, settings.Locale, settings.Theme, settings.MFASecret, settings.DeveloperMode,
			settings.MessageDisplayCompact, settings.RenderEmbeds, settings.InlineEmbedMedia,
			settings.AnalyticsConsent, settings.PersonalizationConsent, nullJSON(customStatus),
		)
		return err
	})
	if err != nil {
		if errors.Is(err, model.ErrEmailTaken) {
			return model.User{}, err
		}
		if isUniqueViolation(err) {
			return model.User{}, model.ErrAlreadyExists
		}
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return model.User{}, notFound(err, "user by id")
	}
	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND NOT deleted`

	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		return model.User{}, notFound(err, "user by email")
	}
	return user, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string, discriminator int) (model.User, error) {
	query := `SELECT u.id, u.email, u.password, u.key, u.verified, u.deleted, u.is_bot
			  FROM users u JOIN user_data d ON d.user_id = u.id
			  WHERE d.username = $1 AND d.discriminator = $2 AND NOT u.deleted`

	user, err := scanUser(r.db.QueryRow(ctx, query, username, discriminator))
	if err != nil {
		return model.User{}, notFound(err, "user by username")
	}
	return user, nil
}

// RandomFreeDiscriminator tries a handful of random discriminators and
// reports false when every attempt was taken.
func (r *UserRepository) RandomFreeDiscriminator(ctx context.Context, username string) (int, bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM user_data WHERE username = $1 AND discriminator = $2)`

	for i := 0; i < discriminatorAttempts; i++ {
		candidate := rand.IntN(9999) + 1

		var taken bool
		if err := r.db.QueryRow(ctx, query, username, candidate).Scan(&taken); err != nil {
			return 0, false, fmt.Errorf("failed to check discriminator: %w", err)
		}
		if !taken {
			return candidate, true, nil
		}
	}
	return 0, false, nil
}

func (r *UserRepository) GetData(ctx context.Context, userID int64) (model.UserData, error) {
	query := `SELECT ` + dataColumns + ` FROM user_data WHERE user_id = $1`

	data, err := scanUserData(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		return model.UserData{}, notFound(err, "user data")
	}
	return data, nil
}

func (r *UserRepository) GetDataMany(ctx context.Context, userIDs []int64) ([]model.UserData, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	query := `SELECT ` + dataColumns + ` FROM user_data WHERE user_id = ANY($1) ORDER BY user_id`

	rows, err := r.db.Query(ctx, query, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get user data: %w", err)
	}
	defer rows.Close()

	var result []model.UserData
	for rows.Next() {
		data, err := scanUserData(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user data: %w", err)
		}
		result = append(result, data)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *UserRepository) UpdateData(ctx context.Context, data model.UserData) error {
	query := `UPDATE user_data SET birth = $2, username = $3, discriminator = $4, flags = $5, public_flags = $6,
			  avatar = $7, banner = $8, banner_color = $9, accent_color = $10, bio = $11, phone = $12, premium = $13
			  WHERE user_id = $1`

	cmd, err := r.db.Exec(ctx, query,
		data.UserID, data.Birth, data.Username, data.Discriminator, data.Flags, data.PublicFlags, data.Avatar,
		data.Banner, data.BannerColor, data.AccentColor, data.Bio, data.Phone, data.Premium,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrAlreadyExists
		}
		return fmt.Errorf("failed to update user data: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *UserRepository) GetSettings(ctx context.Context, userID int64) (model.UserSettings, error) {
	query := `SELECT ` + settingsColumns + ` FROM user_settings WHERE user_id = $1`

	var (
		s            model.UserSettings
		customStatus []byte
	)
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&s.UserID, &s.Status, &s.Locale, &s.Theme, &s.MFASecret, &s.DeveloperMode, &s.MessageDisplayCompact,
		&s.RenderEmbeds, &s.InlineEmbedMedia, &s.AnalyticsConsent, &s.PersonalizationConsent, &customStatus,
	)
	if err != nil {
		return model.UserSettings{}, notFound(err, "user settings")
	}

	if len(customStatus) > 0 && string(customStatus) != "null" {
		s.CustomStatus = &model.CustomStatus{}
		if err := json.Unmarshal(customStatus, s.CustomStatus); err != nil {
			return model.UserSettings{}, fmt.Errorf("failed to decode custom status: %w", err)
		}
	}

	return s, nil
}

func (r *UserRepository) UpdateSettings(ctx context.Context, s model.UserSettings) error {
	customStatus, err := json.Marshal(s.CustomStatus)
	if err != nil {
		return fmt.Errorf("failed to encode custom status: %w", err)
	}

	query := `UPDATE user_settings SET status = $2, locale = $3, theme = $4, mfa_secret = $5, developer_mode = $6,
			  message_display_compact = $7, render_embeds = $8, inline_embed_media = $9, analytics_consent = $10,
			  personalization_consent = $11, custom_status = $12
			  WHERE user_id = $1`

	cmd, err := r.db.Exec(ctx, query,
		s.UserID, s.Status, s.Locale, s.Theme, s.MFASecret, s.DeveloperMode, s.MessageDisplayCompact,
		s.RenderEmbeds, s.InlineEmbedMedia, s.AnalyticsConsent, s.PersonalizationConsent, nullJSON(customStatus),
	)
	if err != nil {
		return fmt.Errorf("failed to update user settings: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID int64, passwordHash, key string) error {
	const query = `UPDATE users SET password = $2, key = $3 WHERE id = $1`

	cmd, err := r.db.Exec(ctx, query, userID, passwordHash, key)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// Delete keeps the user row so authored messages keep a valid author, and
// scrubs everything identifying.
func (r *UserRepository) Delete(ctx context.Context, userID int64) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx,
			`UPDATE users SET deleted = TRUE, email = 'deleted-' || id || '@deleted', password = '', key = ''
			 WHERE id = $1 AND NOT deleted`, userID)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return model.ErrNotFound
		}

		if _, err := tx.Exec(ctx,
			`UPDATE user_data SET username = 'Deleted User', discriminator = 0, avatar = NULL, banner = NULL,
			 bio = '', phone = NULL WHERE user_id = $1`, userID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `DELETE FROM relationships WHERE user1 = $1 OR user2 = $1`, userID)
		return err
	})
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetNote(ctx context.Context, userID, targetID int64) (string, error) {
	const query = `SELECT note FROM user_notes WHERE user_id = $1 AND target_id = $2`

	var note string
	if err := r.db.QueryRow(ctx, query, userID, targetID).Scan(&note); err != nil {
		return "", notFound(err, "note")
	}
	return note, nil
}

func (r *UserRepository) SetNote(ctx context.Context, userID, targetID int64, note string) error {
	if note == "" {
		const query = `DELETE FROM user_notes WHERE user_id = $1 AND target_id = $2`
		if _, err := r.db.Exec(ctx, query, userID, targetID); err != nil {
			return fmt.Errorf("failed to delete note: %w", err)
		}
		return nil
	}

	const query = `INSERT INTO user_notes (user_id, target_id, note) VALUES ($1, $2, $3)
			  ON CONFLICT (user_id, target_id) DO UPDATE SET note = EXCLUDED.note`
	if _, err := r.db.Exec(ctx, query, userID, targetID, note); err != nil {
		return fmt.Errorf("failed to set note: %w", err)
	}
	return nil
}

// RelatedUsers returns everyone who shares a guild or a private channel with
// userID, plus their friends.
func (r *UserRepository) RelatedUsers(ctx context.Context, userID int64) ([]int64, error) {
	const query = `
		SELECT m2.user_id FROM guild_members m1
		JOIN guild_members m2 ON m2.guild_id = m1.guild_id
		WHERE m1.user_id = $1 AND m2.user_id <> $1
		UNION
		SELECT r2.user_id FROM channel_recipients r1
		JOIN channel_recipients r2 ON r2.channel_id = r1.channel_id
		WHERE r1.user_id = $1 AND r2.user_id <> $1
		UNION
		SELECT CASE WHEN user1 = $1 THEN user2 ELSE user1 END FROM relationships
		WHERE (user1 = $1 OR user2 = $1) AND type = 1`

	ids, err := collectIDs(r.db.Query(ctx, query, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get related users: %w", err)
	}
	return ids, nil
}

func nullJSON(raw []byte) []byte {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return raw
}
