package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/yepcord/server-sub002/internal/api/http/response"
	"github.com/yepcord/server-sub002/internal/logger"
	"github.com/yepcord/server-sub002/internal/model"
)

// Recovery turns handler panics into 500 responses.
type Recovery struct {
	logger *logger.Logger
}

// NewRecovery creates a new Recovery middleware.
func NewRecovery(logger *logger.Logger) *Recovery {
	return &Recovery{logger: logger}
}

// Handle wraps next.
func (m *Recovery) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				m.logger.Error("API: handler panicked",
					"panic", p,
					"path", r.URL.Path,
					"stack", string(debug.Stack()))
				response.JSON(w, http.StatusInternalServerError, model.ErrInternal)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
