package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/yepcord/server-sub002/internal/api/http/response"
	"github.com/yepcord/server-sub002/internal/logger"
	"github.com/yepcord/server-sub002/internal/model"
)

// TokenService resolves sessions from presented tokens.
type TokenService interface {
	Authenticate(ctx context.Context, token string) (model.Session, error)
}

// Authenticate validates the Authorization header and injects the session
// into the request context.
type Authenticate struct {
	tokenService   TokenService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(tokenService TokenService, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{tokenService: tokenService, contextManager: contextManager, logger: logger}
}

// Handle rejects requests without a valid token with 401.
func (m *Authenticate) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bareToken(r.Header.Get("Authorization"))
		if token == "" {
			response.Error(w, m.logger, model.ErrUnauthorized)
			return
		}

		session, err := m.tokenService.Authenticate(r.Context(), token)
		if err != nil {
			m.logger.Debug("API: token rejected", "error", err, "path", r.URL.Path)
			response.Error(w, m.logger, model.ErrUnauthorized)
			return
		}

		ctx := m.contextManager.SetSessionToContext(r.Context(), session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bareToken strips the "Bot " and "Bearer " prefixes clients may send.
func bareToken(header string) string {
	header = strings.TrimSpace(header)
	for _, prefix := range []string{"Bot ", "Bearer "} {
		header = strings.TrimPrefix(header, prefix)
	}
	return header
}
