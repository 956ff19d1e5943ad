package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/yepcord/server-sub002/internal/logger"
	"github.com/yepcord/server-sub002/internal/model"
	"github.com/yepcord/server-sub002/internal/service"
)

// Interactions serves slash command invocation and bot callbacks.
type Interactions struct {
	base
	interactions InteractionService
}

// NewInteractions creates a new Interactions handler.
func NewInteractions(interactions InteractionService, contextManager model.ContextManager, logger *logger.Logger) *Interactions {
	return &Interactions{base: base{contextManager: contextManager, logger: logger}, interactions: interactions}
}

// Create handles POST /interactions. Clients send the payload as JSON or as
// payload_json of a multipart form.
func (h *Interactions) Create(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		var req service.CreateInteractionRequest
		if err := decodePayload(r, &req); err != nil {
			return nil, err
		}
		return nil, h.interactions.Create(r.Context(), session.UserID, req)
	})
}

// Callback handles POST /interactions/{interaction_id}/{token}/callback.
// The interaction token authenticates the bot.
func (h *Interactions) Callback(w http.ResponseWriter, r *http.Request) {
	h.serveAnon(w, func() (any, error) {
		interactionID, err := pathID(r, "interaction_id")
		if err != nil {
			return nil, err
		}
		var cb service.InteractionCallback
		if err := decodeJSON(r, &cb); err != nil {
			return nil, err
		}
		_, err = h.interactions.Callback(r.Context(), interactionID, mux.Vars(r)["token"], cb)
		return nil, err
	})
}
