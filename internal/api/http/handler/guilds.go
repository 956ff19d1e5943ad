package handler

import (
	"net/http"

	"github.com/yepcord/server-sub002/internal/logger"
	"github.com/yepcord/server-sub002/internal/model"
	"github.com/yepcord/server-sub002/internal/service"
)

// Guilds serves guild, member, ban, role and emoji endpoints.
type Guilds struct {
	base
	guilds GuildService
}

// NewGuilds creates a new Guilds handler.
func NewGuilds(guilds GuildService, contextManager model.ContextManager, logger *logger.Logger) *Guilds {
	return &Guilds{base: base{contextManager: contextManager, logger: logger}, guilds: guilds}
}

type banRequest struct {
	Reason string `json:"reason"`
}

// guildTarget parses guild_id and a second id route variable, which may be
// "@me" for user ids.
func guildTarget(r *http.Request, name string, session model.Session) (guildID, targetID int64, err error) {
	if guildID, err = pathID(r, "guild_id"); err != nil {
		return 0, 0, err
	}
	if targetID, err = userID(r, name, session); err != nil {
		return 0, 0, err
	}
	return guildID, targetID, nil
}

// Create handles POST /guilds.
func (h *Guilds) Create(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		var req service.CreateGuildRequest
		if err := decodeJSON(r, &req); err != nil {
			return nil, err
		}
		return h.guilds.Create(r.Context(), session.UserID, req)
	})
}

// Get handles GET /guilds/{guild_id}.
func (h *Guilds) Get(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		guildID, err := pathID(r, "guild_id")
		if err != nil {
			return nil, err
		}
		return h.guilds.Get(r.Context(), session.UserID, guildID)
	})
}

// Update handles PATCH /guilds/{guild_id}.
func (h *Guilds) Update(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		guildID, err := pathID(r, "guild_id")
		if err != nil {
			return nil, err
		}
		var patch model.GuildPatch
		if err := decodeJSON(r, &patch); err != nil {
			return nil, err
		}
		return h.guilds.Update(r.Context(), session.UserID, guildID, patch)
	})
}

// Delete handles POST /guilds/{guild_id}/delete.
func (h *Guilds) Delete(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		guildID, err := pathID(r, "guild_id")
		if err != nil {
			return nil, err
		}
		return nil, h.guilds.Delete(r.Context(), session.UserID, guildID)
	})
}

// Members handles GET /guilds/{guild_id}/members.
func (h *Guilds) Members(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		guildID, err := pathID(r, "guild_id")
		if err != nil {
			return nil, err
		}
		limit, err := queryInt(r, "limit")
		if err != nil {
			return nil, err
		}
		return h.guilds.Members(r.Context(), session.UserID, guildID, limit)
	})
}

// Member handles GET /guilds/{guild_id}/members/{user_id}.
func (h *Guilds) Member(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		guildID, targetID, err := guildTarget(r, "user_id", session)
		if err != nil {
			return nil, err
		}
		return h.guilds.Member(r.Context(), session.UserID, guildID, targetID)
	})
}

// UpdateMember handles PATCH /guilds/{guild_id}/members/{user_id}.
func (h *Guilds) UpdateMember(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		guildID, targetID, err := guildTarget(r, "user_id", session)
		if err != nil {
			return nil, err
		}
		var patch model.MemberPatch
		if err := decodeJSON(r, &patch); err != nil {
			return nil, err
		}
		return h.guilds.UpdateMember(r.Context(), session.UserID, guildID, targetID, patch)
	})
}

// Kick handles DELETE /guilds/{guild_id}/members/{user_id}.
func (h *Guilds) Kick(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		guildID, targetID, err := guildTarget(r, "user_id", session)
		if err != nil {
			return nil, err
		}
		return nil, h.guilds.Kick(r.Context(), session.UserID, guildID, targetID)
	})
}

// Ban handles PUT /guilds/{guild_id}/bans/{user_id}. The reason comes from
// the body or the X-Audit-Log-Reason header.
func (h *Guilds) Ban(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		guildID, targetID, err := guildTarget(r, "user_id", session)
		if err != nil {
			return nil, err
		}
		var req banRequest
		if err := decodeJSON(r, &req); err != nil {
			return nil, err
		}
		if req.Reason == "" {
			req.Reason = r.Header.Get("X-Audit-Log-Reason")
		}
		return nil, h.guilds.Ban(r.Context(), session.UserID, guildID, targetID, req.Reason)
	})
}

// Unban handles DELETE /guilds/{guild_id}/bans/{user_id}.
func (h *Guilds) Unban(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		guildID, targetID, err := guildTarget(r, "user_id", session)
		if err != nil {
			return nil, err
		}
		return nil, h.guilds.Unban(r.Context(), session.UserID, guildID, targetID)
	})
}

// Roles handles GET /guilds/{guild_id}/roles.
func (h *Guilds) Roles(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		guildID, err := pathID(r, "guild_id")
		if err != nil {
			return nil, err
		}
		return h.guilds.Roles(r.Context(), session.UserID, guildID)
	})
}

// CreateRole handles POST /guilds/{guild_id}/roles.
func (h *Guilds) CreateRole(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		guildID, err := pathID(r, "guild_id")
		if err != nil {
			return nil, err
		}
		var patch model.RolePatch
		if err := decodeJSON(r, &patch); err != nil {
			return nil, err
		}
		return h.guilds.CreateRole(r.Context(), session.UserID, guildID, patch)
	})
}

// UpdateRole handles PATCH /guilds/{guild_id}/roles/{role_id}.
func (h *Guilds) UpdateRole(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		guildID, roleID, err := guildTarget(r, "role_id", session)
		if err != nil {
			return nil, err
		}
		var patch model.RolePatch
		if err := decodeJSON(r, &patch); err != nil {
			return nil, err
		}
		return h.guilds.UpdateRole(r.Context(), session.UserID, guildID, roleID, patch)
	})
}

// DeleteRole handles DELETE /guilds/{guild_id}/roles/{role_id}.
func (h *Guilds) DeleteRole(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		guildID, roleID, err := guildTarget(r, "role_id", session)
		if err != nil {
			return nil, err
		}
		return nil, h.guilds.DeleteRole(r.Context(), session.UserID, guildID, roleID)
	})
}

// Emojis handles GET /guilds/{guild_id}/emojis.
func (h *Guilds) Emojis(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		guildID, err := pathID(r, "guild_id")
		if err != nil {
			return nil, err
		}
		return h.guilds.Emojis(r.Context(), session.UserID, guildID)
	})
}

// CreateEmoji handles POST /guilds/{guild_id}/emojis.
func (h *Guilds) CreateEmoji(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		guildID, err := pathID(r, "guild_id")
		if err != nil {
			return nil, err
		}
		var req service.CreateEmojiRequest
		if err := decodeJSON(r, &req); err != nil {
			return nil, err
		}
		return h.guilds.CreateEmoji(r.Context(), session.UserID, guildID, req)
	})
}

// DeleteEmoji handles DELETE /guilds/{guild_id}/emojis/{emoji_id}.
func (h *Guilds) DeleteEmoji(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		guildID, emojiID, err := guildTarget(r, "emoji_id", session)
		if err != nil {
			return nil, err
		}
		return nil, h.guilds.DeleteEmoji(r.Context(), session.UserID, guildID, emojiID)
	})
}
