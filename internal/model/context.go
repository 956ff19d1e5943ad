package model

import "context"

// ContextManager carries the authenticated session through request contexts.
type ContextManager interface {
	SetSessionToContext(ctx context.Context, session Session) context.Context
	GetSessionFromContext(ctx context.Context) (Session, bool)
}
