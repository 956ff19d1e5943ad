package handler

import (
	"net/http"

	"github.com/yepcord/server-sub002/internal/logger"
	"github.com/yepcord/server-sub002/internal/model"
	"github.com/yepcord/server-sub002/internal/service"
)

// Auth serves registration, login and logout.
type Auth struct {
	base
	auth AuthService
}

// NewAuth creates a new Auth handler.
func NewAuth(auth AuthService, contextManager model.ContextManager, logger *logger.Logger) *Auth {
	return &Auth{base: base{contextManager: contextManager, logger: logger}, auth: auth}
}

type tokenResponse struct {
	Token string `json:"token"`
}

type mfaRequest struct {
	Ticket string `json:"ticket"`
	Code   string `json:"code"`
}

// Register handles POST /auth/register.
func (h *Auth) Register(w http.ResponseWriter, r *http.Request) {
	h.serveAnon(w, func() (any, error) {
		var req service.RegisterRequest
		if err := decodeJSON(r, &req); err != nil {
			return nil, err
		}
		token, err := h.auth.Register(r.Context(), req)
		if err != nil {
			return nil, err
		}
		return tokenResponse{Token: token}, nil
	})
}

// Login handles POST /auth/login.
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	h.serveAnon(w, func() (any, error) {
		var req service.LoginRequest
		if err := decodeJSON(r, &req); err != nil {
			return nil, err
		}
		return h.auth.Login(r.Context(), req)
	})
}

// VerifyMFA handles POST /auth/mfa/totp.
func (h *Auth) VerifyMFA(w http.ResponseWriter, r *http.Request) {
	h.serveAnon(w, func() (any, error) {
		var req mfaRequest
		if err := decodeJSON(r, &req); err != nil {
			return nil, err
		}
		return h.auth.VerifyMFA(r.Context(), req.Ticket, req.Code)
	})
}

// Logout handles POST /auth/logout.
func (h *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		return nil, h.auth.Logout(r.Context(), session)
	})
}
