package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/yepcord/server-sub002/internal/logger"
	"github.com/yepcord/server-sub002/internal/model"
	"github.com/yepcord/server-sub002/internal/service"
)

// Invites serves invite endpoints.
type Invites struct {
	base
	invites InviteService
}

// NewInvites creates a new Invites handler.
func NewInvites(invites InviteService, contextManager model.ContextManager, logger *logger.Logger) *Invites {
	return &Invites{base: base{contextManager: contextManager, logger: logger}, invites: invites}
}

// Create handles POST /channels/{channel_id}/invites.
func (h *Invites) Create(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		channelID, err := pathID(r, "channel_id")
		if err != nil {
			return nil, err
		}
		var req service.CreateInviteRequest
		if err := decodeJSON(r, &req); err != nil {
			return nil, err
		}
		return h.invites.Create(r.Context(), session.UserID, channelID, req)
	})
}

// ChannelInvites handles GET /channels/{channel_id}/invites.
func (h *Invites) ChannelInvites(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		channelID, err := pathID(r, "channel_id")
		if err != nil {
			return nil, err
		}
		return h.invites.ChannelInvites(r.Context(), session.UserID, channelID)
	})
}

// Get handles GET /invites/{code}. It does not require a token.
func (h *Invites) Get(w http.ResponseWriter, r *http.Request) {
	h.serveAnon(w, func() (any, error) {
		return h.invites.Get(r.Context(), mux.Vars(r)["code"])
	})
}

// Use handles POST /invites/{code}.
func (h *Invites) Use(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		return h.invites.Use(r.Context(), session.UserID, mux.Vars(r)["code"])
	})
}

// Delete handles DELETE /invites/{code}.
func (h *Invites) Delete(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		return h.invites.Delete(r.Context(), session.UserID, mux.Vars(r)["code"])
	})
}
