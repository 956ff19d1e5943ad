package postgres

import (
	"context"
	"fmt"

	"github.com/yepcord/server-sub002/internal/model"
)

var _ model.SessionStore = (*SessionRepository)(nil)

type SessionRepository struct {
	db *Connection
}

func NewSessionRepository(db *Connection) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, session model.Session) error {
	const query = `INSERT INTO sessions (id, user_id, signature) VALUES ($1, $2, $3)`

	if _, err := r.db.Exec(ctx, query, session.ID, session.UserID, session.Signature); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, userID, sessionID int64) (model.Session, error) {
	const query = `SELECT id, user_id, signature FROM sessions WHERE id = $1 AND user_id = $2`

	var s model.Session
	if err := r.db.QueryRow(ctx, query, sessionID, userID).Scan(&s.ID, &s.UserID, &s.Signature); err != nil {
		return model.Session{}, notFound(err, "session")
	}
	return s, nil
}

func (r *SessionRepository) Delete(ctx context.Context, userID, sessionID int64) error {
	const query = `DELETE FROM sessions WHERE id = $1 AND user_id = $2`

	cmd, err := r.db.Exec(ctx, query, sessionID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *SessionRepository) DeleteAllForUser(ctx context.Context, userID int64) error {
	const query = `DELETE FROM sessions WHERE user_id = $1`

	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}
	return nil
}
