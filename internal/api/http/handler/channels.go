package handler

import (
	"net/http"

	"github.com/yepcord/server-sub002/internal/logger"
	"github.com/yepcord/server-sub002/internal/model"
	"github.com/yepcord/server-sub002/internal/service"
)

// Channels serves channel and recipient endpoints.
type Channels struct {
	base
	channels ChannelService
}

// NewChannels creates a new Channels handler.
func NewChannels(channels ChannelService, contextManager model.ContextManager, logger *logger.Logger) *Channels {
	return &Channels{base: base{contextManager: contextManager, logger: logger}, channels: channels}
}

// Get handles GET /channels/{channel_id}.
func (h *Channels) Get(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		channelID, err := pathID(r, "channel_id")
		if err != nil {
			return nil, err
		}
		return h.channels.Get(r.Context(), session.UserID, channelID)
	})
}

// Update handles PATCH /channels/{channel_id}.
func (h *Channels) Update(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		channelID, err := pathID(r, "channel_id")
		if err != nil {
			return nil, err
		}
		var patch model.ChannelPatch
		if err := decodeJSON(r, &patch); err != nil {
			return nil, err
		}
		return h.channels.Update(r.Context(), session.UserID, channelID, patch)
	})
}

// Delete handles DELETE /channels/{channel_id}: deletes a guild channel or
// leaves a group DM.
func (h *Channels) Delete(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		channelID, err := pathID(r, "channel_id")
		if err != nil {
			return nil, err
		}
		return h.channels.Delete(r.Context(), session.UserID, channelID)
	})
}

// AddRecipient handles PUT /channels/{channel_id}/recipients/{user_id}.
func (h *Channels) AddRecipient(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		channelID, err := pathID(r, "channel_id")
		if err != nil {
			return nil, err
		}
		targetID, err := pathID(r, "user_id")
		if err != nil {
			return nil, err
		}
		return nil, h.channels.AddRecipient(r.Context(), session.UserID, channelID, targetID)
	})
}

// RemoveRecipient handles DELETE /channels/{channel_id}/recipients/{user_id}.
func (h *Channels) RemoveRecipient(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		channelID, err := pathID(r, "channel_id")
		if err != nil {
			return nil, err
		}
		targetID, err := pathID(r, "user_id")
		if err != nil {
			return nil, err
		}
		return nil, h.channels.RemoveRecipient(r.Context(), session.UserID, channelID, targetID)
	})
}

// GuildChannels handles GET /guilds/{guild_id}/channels.
func (h *Channels) GuildChannels(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		guildID, err := pathID(r, "guild_id")
		if err != nil {
			return nil, err
		}
		return h.channels.GuildChannels(r.Context(), session.UserID, guildID)
	})
}

// CreateGuildChannel handles POST /guilds/{guild_id}/channels.
func (h *Channels) CreateGuildChannel(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		guildID, err := pathID(r, "guild_id")
		if err != nil {
			return nil, err
		}
		var req service.CreateChannelRequest
		if err := decodeJSON(r, &req); err != nil {
			return nil, err
		}
		return h.channels.CreateGuildChannel(r.Context(), session.UserID, guildID, req)
	})
}
