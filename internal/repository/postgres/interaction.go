package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/yepcord/server-sub002/internal/model"
)

var (
	_ model.InteractionStore = (*InteractionRepository)(nil)
	_ model.ApplicationStore = (*ApplicationRepository)(nil)
)

type InteractionRepository struct {
	db *Connection
}

func NewInteractionRepository(db *Connection) *InteractionRepository {
	return &InteractionRepository{db: db}
}

func (r *InteractionRepository) Create(ctx context.Context, i model.Interaction) error {
	data := []byte(i.Data)
	if len(data) == 0 {
		data = []byte("{}")
	}

	const query = `INSERT INTO interactions (id, application_id, user_id, guild_id, channel_id, command_id, type,
		token, data, status, nonce, session_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	if _, err := r.db.Exec(ctx, query,
		i.ID, i.ApplicationID, i.UserID, i.GuildID, i.ChannelID, i.CommandID, i.Type, i.Token, data,
		int(i.Status), i.Nonce, i.SessionID,
	); err != nil {
		return fmt.Errorf("failed to create interaction: %w", err)
	}
	return nil
}

func (r *InteractionRepository) GetByID(ctx context.Context, id int64) (model.Interaction, error) {
	const query = `SELECT id, application_id, user_id, guild_id, channel_id, command_id, type, token, data,
		status, nonce, session_id
		FROM interactions WHERE id = $1`

	var (
		i      model.Interaction
		data   []byte
		status int
	)
	err := r.db.QueryRow(ctx, query, id).Scan(
		&i.ID, &i.ApplicationID, &i.UserID, &i.GuildID, &i.ChannelID, &i.CommandID, &i.Type, &i.Token, &data,
		&status, &i.Nonce, &i.SessionID,
	)
	if err != nil {
		return model.Interaction{}, notFound(err, "interaction")
	}
	i.Data = json.RawMessage(data)
	i.Status = model.InteractionStatus(status)
	return i, nil
}

// SetStatus moves the interaction from one status to another and reports
// whether it was still in the expected status.
func (r *InteractionRepository) SetStatus(ctx context.Context, id int64, from, to model.InteractionStatus) (bool, error) {
	const query = `UPDATE interactions SET status = $3 WHERE id = $1 AND status = $2`

	cmd, err := r.db.Exec(ctx, query, id, int(from), int(to))
	if err != nil {
		return false, fmt.Errorf("failed to set interaction status: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *InteractionRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM interactions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete interaction: %w", err)
	}
	return nil
}

type ApplicationRepository struct {
	db *Connection
}

func NewApplicationRepository(db *Connection) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

func (r *ApplicationRepository) GetByID(ctx context.Context, id int64) (model.Application, error) {
	const query = `SELECT id, owner_id, name, description, icon, bot_public FROM applications WHERE id = $1`

	var a model.Application
	if err := r.db.QueryRow(ctx, query, id).Scan(&a.ID, &a.OwnerID, &a.Name, &a.Description, &a.Icon, &a.BotPublic); err != nil {
		return model.Application{}, notFound(err, "application")
	}
	return a, nil
}

func (r *ApplicationRepository) GetCommand(ctx context.Context, applicationID, commandID int64) (model.ApplicationCommand, error) {
	const query = `SELECT id, application_id, guild_id, name, description, type, options
		FROM application_commands WHERE application_id = $1 AND id = $2`

	var (
		c       model.ApplicationCommand
		options []byte
	)
	err := r.db.QueryRow(ctx, query, applicationID, commandID).Scan(
		&c.ID, &c.ApplicationID, &c.GuildID, &c.Name, &c.Description, &c.Type, &options,
	)
	if err != nil {
		return model.ApplicationCommand{}, notFound(err, "application command")
	}
	if err := json.Unmarshal(options, &c.Options); err != nil {
		return model.ApplicationCommand{}, fmt.Errorf("failed to decode command options: %w", err)
	}
	return c, nil
}

func (r *ApplicationRepository) IsInstalled(ctx context.Context, applicationID, guildID int64) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM guild_applications WHERE application_id = $1 AND guild_id = $2)`

	var ok bool
	if err := r.db.QueryRow(ctx, query, applicationID, guildID).Scan(&ok); err != nil {
		return false, fmt.Errorf("failed to check application install: %w", err)
	}
	return ok, nil
}
