package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/yepcord/server-sub002/internal/event"
	"github.com/yepcord/server-sub002/internal/logger"
	"github.com/yepcord/server-sub002/internal/model"
	"github.com/yepcord/server-sub002/internal/service"
)

// Users serves /users endpoints: profiles, settings, notes, private
// channels and relationships.
type Users struct {
	base
	users         UserService
	auth          AuthService
	channels      ChannelService
	relationships RelationshipService
	guilds        GuildService
}

// NewUsers creates a new Users handler.
func NewUsers(
	users UserService,
	auth AuthService,
	channels ChannelService,
	relationships RelationshipService,
	guilds GuildService,
	contextManager model.ContextManager,
	logger *logger.Logger,
) *Users {
	return &Users{
		base:          base{contextManager: contextManager, logger: logger},
		users:         users,
		auth:          auth,
		channels:      channels,
		relationships: relationships,
		guilds:        guilds,
	}
}

type updateMeRequest struct {
	service.UpdateProfileRequest
	NewPassword string `json:"new_password"`
}

type meResponse struct {
	event.PrivateUser
	Token string `json:"token,omitempty"`
}

type settingsProtoRequest struct {
	Settings string `json:"settings"`
}

type noteRequest struct {
	Note string `json:"note"`
}

type passwordRequest struct {
	Password string `json:"password"`
}

type openDMRequest struct {
	Recipients  []model.Snowflake `json:"recipients"`
	RecipientID *model.Snowflake  `json:"recipient_id"`
}

type friendRequest struct {
	Username      string          `json:"username"`
	Discriminator json.RawMessage `json:"discriminator"`
}

type relationshipRequest struct {
	Type int `json:"type"`
}

// Me handles GET /users/@me.
func (h *Users) Me(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		return h.users.Me(r.Context(), session.UserID)
	})
}

// UpdateMe handles PATCH /users/@me. A new_password rotates the session
// token, which is returned alongside the user.
func (h *Users) UpdateMe(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		var req updateMeRequest
		if err := decodeJSON(r, &req); err != nil {
			return nil, err
		}

		var token string
		if req.NewPassword != "" {
			var err error
			token, err = h.auth.ChangePassword(r.Context(), session.UserID, req.Password, req.NewPassword)
			if err != nil {
				return nil, err
			}
			req.Password = req.NewPassword
		}

		var (
			me  event.PrivateUser
			err error
		)
		if req.UserPatch.Empty() {
			me, err = h.users.Me(r.Context(), session.UserID)
		} else {
			me, err = h.users.UpdateProfile(r.Context(), session.UserID, req.UpdateProfileRequest)
		}
		if err != nil {
			return nil, err
		}
		return meResponse{PrivateUser: me, Token: token}, nil
	})
}

// Get handles GET /users/{user_id}.
func (h *Users) Get(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		targetID, err := userID(r, "user_id", session)
		if err != nil {
			return nil, err
		}
		return h.users.Get(r.Context(), targetID)
	})
}

// Profile handles GET /users/{user_id}/profile.
func (h *Users) Profile(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		targetID, err := userID(r, "user_id", session)
		if err != nil {
			return nil, err
		}
		return h.users.Profile(r.Context(), session.UserID, targetID)
	})
}

// Settings handles GET /users/@me/settings.
func (h *Users) Settings(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		return h.users.Settings(r.Context(), session.UserID)
	})
}

// UpdateSettings handles PATCH /users/@me/settings.
func (h *Users) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		var patch model.SettingsPatch
		if err := decodeJSON(r, &patch); err != nil {
			return nil, err
		}
		return h.users.UpdateSettings(r.Context(), session.UserID, patch)
	})
}

// UpdateSettingsProto handles PATCH /users/@me/settings-proto/1.
func (h *Users) UpdateSettingsProto(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		var req settingsProtoRequest
		if err := decodeJSON(r, &req); err != nil {
			return nil, err
		}
		encoded, err := h.users.UpdateSettingsProto(r.Context(), session.UserID, req.Settings)
		if err != nil {
			return nil, err
		}
		return settingsProtoRequest{Settings: encoded}, nil
	})
}

// Note handles GET /users/@me/notes/{user_id}.
func (h *Users) Note(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		targetID, err := pathID(r, "user_id")
		if err != nil {
			return nil, err
		}
		return h.users.Note(r.Context(), session.UserID, targetID)
	})
}

// SetNote handles PUT /users/@me/notes/{user_id}.
func (h *Users) SetNote(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		targetID, err := pathID(r, "user_id")
		if err != nil {
			return nil, err
		}
		var req noteRequest
		if err := decodeJSON(r, &req); err != nil {
			return nil, err
		}
		return nil, h.users.SetNote(r.Context(), session.UserID, targetID, req.Note)
	})
}

// Delete handles POST /users/@me/delete.
func (h *Users) Delete(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		var req passwordRequest
		if err := decodeJSON(r, &req); err != nil {
			return nil, err
		}
		return nil, h.users.Delete(r.Context(), session.UserID, req.Password)
	})
}

// Channels handles GET /users/@me/channels.
func (h *Users) Channels(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		return h.channels.PrivateChannels(r.Context(), session.UserID)
	})
}

// OpenDM handles POST /users/@me/channels.
func (h *Users) OpenDM(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		var req openDMRequest
		if err := decodeJSON(r, &req); err != nil {
			return nil, err
		}
		recipients := snowflakes(req.Recipients)
		if req.RecipientID != nil {
			recipients = append(recipients, int64(*req.RecipientID))
		}
		return h.channels.OpenDM(r.Context(), session.UserID, recipients)
	})
}

// LeaveGuild handles DELETE /users/@me/guilds/{guild_id}.
func (h *Users) LeaveGuild(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		guildID, err := pathID(r, "guild_id")
		if err != nil {
			return nil, err
		}
		return nil, h.guilds.Leave(r.Context(), session.UserID, guildID)
	})
}

// Relationships handles GET /users/@me/relationships.
func (h *Users) Relationships(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		return h.relationships.List(r.Context(), session.UserID)
	})
}

// RequestByTag handles POST /users/@me/relationships. The discriminator
// may arrive as a string or a number.
func (h *Users) RequestByTag(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		var req friendRequest
		if err := decodeJSON(r, &req); err != nil {
			return nil, err
		}
		discriminator := strings.Trim(string(req.Discriminator), `"`)
		return nil, h.relationships.RequestByTag(r.Context(), session.UserID, req.Username, discriminator)
	})
}

// PutRelationship handles PUT /users/@me/relationships/{user_id}: type 2
// blocks, anything else sends or accepts a friend request.
func (h *Users) PutRelationship(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		targetID, err := pathID(r, "user_id")
		if err != nil {
			return nil, err
		}
		var req relationshipRequest
		if err := decodeJSON(r, &req); err != nil {
			return nil, err
		}
		if req.Type == model.RelTypeBlocked {
			return nil, h.relationships.Block(r.Context(), session.UserID, targetID)
		}
		return nil, h.relationships.Request(r.Context(), session.UserID, targetID)
	})
}

// DeleteRelationship handles DELETE /users/@me/relationships/{user_id}.
func (h *Users) DeleteRelationship(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(session model.Session) (any, error) {
		targetID, err := pathID(r, "user_id")
		if err != nil {
			return nil, err
		}
		return nil, h.relationships.Remove(r.Context(), session.UserID, targetID)
	})
}
