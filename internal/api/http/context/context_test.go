package context

import (
	stdctx "context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yepcord/server-sub002/internal/model"
)

func TestManager_SetAndGetSession(t *testing.T) {
	m := NewManager()
	session := model.Session{ID: 3, UserID: 7, Signature: "sig"}
	ctx := m.SetSessionToContext(stdctx.Background(), session)

	got, ok := m.GetSessionFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, session, got)
}

func TestManager_GetSession_NotFound(t *testing.T) {
	m := NewManager()
	_, ok := m.GetSessionFromContext(stdctx.Background())
	assert.False(t, ok)
}

func TestManager_SetSession_Overrides(t *testing.T) {
	m := NewManager()
	ctx := m.SetSessionToContext(stdctx.Background(), model.Session{ID: 1, UserID: 1})
	ctx = m.SetSessionToContext(ctx, model.Session{ID: 2, UserID: 2})

	got, ok := m.GetSessionFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, int64(2), got.UserID)
}
