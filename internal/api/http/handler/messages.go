package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/yepcord/server-sub002/internal/logger"
	"github.com/yepcord/server-sub002/internal/model"
	"github.com/yepcord/server-sub002/internal/service"
)

// Messages serves message, pin, reaction and search endpoints.
type Messages struct {
	base
	messages MessageService
}

// NewMessages creates a new Messages handler.
func NewMessages(messages MessageService, contextManager model.ContextManager, logger *logger.Logger) *Messages {
	return &Messages{base: base{contextManager: contextManager, logger: logger}, messages: messages}
}

type bulkDeleteRequest struct {
	Messages []model.Snowflake `json:"messages"`
}

// messageIDs parses the channel_id and message_id route variables.
func messageIDs(r *http.Request) (channelID, messageID int64, err error) {
	if channelID, err = pathID(r, "channel_id"); err != nil {
		return 0, 0, err
	}
	if messageID, err = pathID(r, "message_id"); err != nil {
		return 0, 0, err
	}
	return channelID, messageID, nil
}

// List handles GET /channels/{channel_id}/messages.
func (h *Messages) List(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		channelID, err := pathID(r, "channel_id")
		if err != nil {
			return nil, err
		}
		limit, err := queryInt(r, "limit")
		if err != nil {
			return nil, err
		}
		before, err := queryID(r, "before")
		if err != nil {
			return nil, err
		}
		after, err := queryID(r, "after")
		if err != nil {
			return nil, err
		}
		return h.messages.List(r.Context(), session.UserID, channelID, limit, deref(before), deref(after))
	})
}

// Send handles POST /channels/{channel_id}/messages with a JSON body or a
// multipart form carrying payload_json and files[n].
func (h *Messages) Send(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		channelID, err := pathID(r, "channel_id")
		if err != nil {
			return nil, err
		}
		var req service.SendMessageRequest
		if err := decodePayload(r, &req); err != nil {
			return nil, err
		}
		files, cleanup, err := uploads(r)
		if err != nil {
			return nil, err
		}
		defer cleanup()
		req.Files = files
		return h.messages.Send(r.Context(), session.UserID, channelID, req)
	})
}

// Get handles GET /channels/{channel_id}/messages/{message_id}.
func (h *Messages) Get(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		channelID, messageID, err := messageIDs(r)
		if err != nil {
			return nil, err
		}
		return h.messages.Get(r.Context(), session.UserID, channelID, messageID)
	})
}

// Edit handles PATCH /channels/{channel_id}/messages/{message_id}.
func (h *Messages) Edit(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		channelID, messageID, err := messageIDs(r)
		if err != nil {
			return nil, err
		}
		var req service.EditMessageRequest
		if err := decodeJSON(r, &req); err != nil {
			return nil, err
		}
		return h.messages.Edit(r.Context(), session.UserID, channelID, messageID, req)
	})
}

// Delete handles DELETE /channels/{channel_id}/messages/{message_id}.
func (h *Messages) Delete(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		channelID, messageID, err := messageIDs(r)
		if err != nil {
			return nil, err
		}
		return nil, h.messages.Delete(r.Context(), session.UserID, channelID, messageID)
	})
}

// BulkDelete handles POST /channels/{channel_id}/messages/bulk-delete.
func (h *Messages) BulkDelete(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		channelID, err := pathID(r, "channel_id")
		if err != nil {
			return nil, err
		}
		var req bulkDeleteRequest
		if err := decodeJSON(r, &req); err != nil {
			return nil, err
		}
		return nil, h.messages.BulkDelete(r.Context(), session.UserID, channelID, snowflakes(req.Messages))
	})
}

// Ack handles POST /channels/{channel_id}/messages/{message_id}/ack.
func (h *Messages) Ack(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		channelID, messageID, err := messageIDs(r)
		if err != nil {
			return nil, err
		}
		return nil, h.messages.Ack(r.Context(), session.UserID, channelID, messageID)
	})
}

// Typing handles POST /channels/{channel_id}/typing.
func (h *Messages) Typing(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		channelID, err := pathID(r, "channel_id")
		if err != nil {
			return nil, err
		}
		return nil, h.messages.Typing(r.Context(), session.UserID, channelID)
	})
}

// Pins handles GET /channels/{channel_id}/pins.
func (h *Messages) Pins(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		channelID, err := pathID(r, "channel_id")
		if err != nil {
			return nil, err
		}
		return h.messages.Pins(r.Context(), session.UserID, channelID)
	})
}

// Pin handles PUT /channels/{channel_id}/pins/{message_id}.
func (h *Messages) Pin(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		channelID, messageID, err := messageIDs(r)
		if err != nil {
			return nil, err
		}
		return nil, h.messages.Pin(r.Context(), session.UserID, channelID, messageID)
	})
}

// Unpin handles DELETE /channels/{channel_id}/pins/{message_id}.
func (h *Messages) Unpin(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		channelID, messageID, err := messageIDs(r)
		if err != nil {
			return nil, err
		}
		return nil, h.messages.Unpin(r.Context(), session.UserID, channelID, messageID)
	})
}

// AddReaction handles PUT .../messages/{message_id}/reactions/{emoji}/@me.
func (h *Messages) AddReaction(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		channelID, messageID, err := messageIDs(r)
		if err != nil {
			return nil, err
		}
		return nil, h.messages.AddReaction(r.Context(), session.UserID, channelID, messageID, mux.Vars(r)["emoji"])
	})
}

// RemoveReaction handles DELETE .../messages/{message_id}/reactions/{emoji}/@me.
func (h *Messages) RemoveReaction(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		channelID, messageID, err := messageIDs(r)
		if err != nil {
			return nil, err
		}
		return nil, h.messages.RemoveReaction(r.Context(), session.UserID, channelID, messageID, mux.Vars(r)["emoji"])
	})
}

// Search handles GET /guilds/{guild_id}/messages/search.
func (h *Messages) Search(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		guildID, err := pathID(r, "guild_id")
		if err != nil {
			return nil, err
		}
		authorID, err := queryID(r, "author_id")
		if err != nil {
			return nil, err
		}
		channelID, err := queryID(r, "channel_id")
		if err != nil {
			return nil, err
		}
		offset, err := queryInt(r, "offset")
		if err != nil {
			return nil, err
		}
		content := r.URL.Query().Get("content")
		return h.messages.Search(r.Context(), session.UserID, guildID, content, authorID, channelID, offset)
	})
}

func deref(id *int64) int64 {
	if id == nil {
		return 0
	}
	return *id
}
