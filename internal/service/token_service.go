package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/yepcord/server-sub002/internal/logger"
	"github.com/yepcord/server-sub002/internal/model"
	"github.com/yepcord/server-sub002/internal/snowflake"
	"github.com/yepcord/server-sub002/internal/token"
)

// TokenService issues, verifies and revokes session tokens. It is the
// authenticator of both the REST surface and the gateway.
type TokenService struct {
	users    model.UserStore
	sessions model.SessionStore
	ids      *snowflake.Generator
	logger   *logger.Logger
}

func NewTokenService(users model.UserStore, sessions model.SessionStore, ids *snowflake.Generator, logger *logger.Logger) *TokenService {
	return &TokenService{users: users, sessions: sessions, ids: ids, logger: logger}
}

// NewSession mints a session for user without persisting it.
func (s *TokenService) NewSession(user model.User) (model.Session, error) {
	sessionID := s.ids.Next()
	sig, err := token.Sign(user.Key, user.ID, sessionID)
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to sign session: %w", err)
	}
	return model.Session{ID: sessionID, UserID: user.ID, Signature: sig}, nil
}

// Activate persists session and returns its token.
func (s *TokenService) Activate(ctx context.Context, session model.Session) (string, error) {
	if err := s.sessions.Create(ctx, session); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	return token.Format(session.UserID, session.ID, session.Signature), nil
}

// Issue creates and persists a new session for user.
func (s *TokenService) Issue(ctx context.Context, user model.User) (string, error) {
	session, err := s.NewSession(user)
	if err != nil {
		return "", err
	}
	return s.Activate(ctx, session)
}

// Authenticate resolves a presented token to its live session. Any failure
// to find the user or the session is reported as model.ErrInvalidSignature
// so that callers cannot probe which part was wrong.
func (s *TokenService) Authenticate(ctx context.Context, presented string) (model.Session, error) {
	parsed, err := token.Parse(presented)
	if err != nil {
		return model.Session{}, err
	}

	user, err := s.users.GetByID(ctx, parsed.UserID)
	if errors.Is(err, model.ErrNotFound) {
		return model.Session{}, model.ErrInvalidSignature
	}
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to get user: %w", err)
	}
	if user.Deleted {
		return model.Session{}, model.ErrInvalidSignature
	}

	session, err := s.sessions.Get(ctx, parsed.UserID, parsed.SessionID)
	if errors.Is(err, model.ErrNotFound) {
		return model.Session{}, model.ErrInvalidSignature
	}
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to get session: %w", err)
	}

	if err := token.Verify(parsed, user.Key, session.Signature); err != nil {
		return model.Session{}, err
	}
	return session, nil
}

// Revoke deletes one session.
func (s *TokenService) Revoke(ctx context.Context, session model.Session) error {
	return s.sessions.Delete(ctx, session.UserID, session.ID)
}

// RevokeAllForUser deletes every session of userID.
func (s *TokenService) RevokeAllForUser(ctx context.Context, userID int64) error {
	return s.sessions.DeleteAllForUser(ctx, userID)
}
