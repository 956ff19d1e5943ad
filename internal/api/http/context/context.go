package context

import (
	"context"

	"github.com/yepcord/server-sub002/internal/model"
)

type sessionKey struct{}

// Manager stores the authenticated session in request contexts.
type Manager struct{}

// NewManager creates a new context manager.
func NewManager() *Manager {
	return &Manager{}
}

// SetSessionToContext returns a child of ctx carrying session.
func (m *Manager) SetSessionToContext(ctx context.Context, session model.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

// GetSessionFromContext returns the session set by the authentication
// middleware.
func (m *Manager) GetSessionFromContext(ctx context.Context) (model.Session, bool) {
	session, ok := ctx.Value(sessionKey{}).(model.Session)
	return session, ok
}
