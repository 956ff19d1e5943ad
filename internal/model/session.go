package model

import "context"

// SessionStore persists login sessions.
type SessionStore interface {
	Create(ctx context.Context, session Session) error
	Get(ctx context.Context, userID, sessionID int64) (Session, error)
	Delete(ctx context.Context, userID, sessionID int64) error
	DeleteAllForUser(ctx context.Context, userID int64) error
}

// Session is one authenticated login. Signature is the HMAC part of the token.
type Session struct {
	ID        int64
	UserID    int64
	Signature string
}
