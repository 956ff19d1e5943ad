// Package router wires the REST handlers into a gorilla/mux router.
package router

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/yepcord/server-sub002/internal/api/http/handler"
	"github.com/yepcord/server-sub002/internal/api/http/middleware"
	"github.com/yepcord/server-sub002/internal/api/http/response"
	"github.com/yepcord/server-sub002/internal/logger"
	"github.com/yepcord/server-sub002/internal/model"
)

// Handlers groups the REST handlers served by the router.
type Handlers struct {
	Auth         *handler.Auth
	Users        *handler.Users
	Channels     *handler.Channels
	Messages     *handler.Messages
	Guilds       *handler.Guilds
	Invites      *handler.Invites
	Interactions *handler.Interactions
	Gateway      *handler.Gateway
}

// Router builds the REST API route table.
type Router struct {
	handlers     Handlers
	tokenService middleware.TokenService
	contextMgr   model.ContextManager
	logger       *logger.Logger
}

// New creates a new Router.
func New(handlers Handlers, tokenService middleware.TokenService, contextManager model.ContextManager, logger *logger.Logger) *Router {
	return &Router{
		handlers:     handlers,
		tokenService: tokenService,
		contextMgr:   contextManager,
		logger:       logger,
	}
}

// Register returns the router serving every endpoint under /api/v{n}.
func (rt *Router) Register() *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.NewRecovery(rt.logger).Handle, middleware.NewLogging(rt.logger).Handle)
	r.NotFoundHandler = jsonError(rt.logger, model.ErrNotFoundRoute)
	r.MethodNotAllowedHandler = jsonError(rt.logger, model.ErrMethodNotAllowed)

	api := r.PathPrefix("/api/v{version:[0-9]+}").Subrouter()
	authenticate := middleware.NewAuthenticate(rt.tokenService, rt.contextMgr, rt.logger)
	public := func(path string, h http.HandlerFunc, methods ...string) {
		api.HandleFunc(path, h).Methods(methods...)
	}
	private := func(path string, h http.HandlerFunc, methods ...string) {
		api.Handle(path, authenticate.Handle(h)).Methods(methods...)
	}

	h := rt.handlers

	public("/gateway", h.Gateway.Get, http.MethodGet)

	public("/auth/register", h.Auth.Register, http.MethodPost)
	public("/auth/login", h.Auth.Login, http.MethodPost)
	public("/auth/mfa/totp", h.Auth.VerifyMFA, http.MethodPost)
	private("/auth/logout", h.Auth.Logout, http.MethodPost)

	private("/users/@me", h.Users.Me, http.MethodGet)
	private("/users/@me", h.Users.UpdateMe, http.MethodPatch)
	private("/users/@me/settings", h.Users.Settings, http.MethodGet)
	private("/users/@me/settings", h.Users.UpdateSettings, http.MethodPatch)
	private("/users/@me/settings-proto/1", h.Users.UpdateSettingsProto, http.MethodPatch)
	private("/users/@me/notes/{user_id:[0-9]+}", h.Users.Note, http.MethodGet)
	private("/users/@me/notes/{user_id:[0-9]+}", h.Users.SetNote, http.MethodPut)
	private("/users/@me/delete", h.Users.Delete, http.MethodPost)
	private("/users/@me/channels", h.Users.Channels, http.MethodGet)
	private("/users/@me/channels", h.Users.OpenDM, http.MethodPost)
	private("/users/@me/guilds/{guild_id:[0-9]+}", h.Users.LeaveGuild, http.MethodDelete)
	private("/users/@me/relationships", h.Users.Relationships, http.MethodGet)
	private("/users/@me/relationships", h.Users.RequestByTag, http.MethodPost)
	private("/users/@me/relationships/{user_id:[0-9]+}", h.Users.PutRelationship, http.MethodPut)
	private("/users/@me/relationships/{user_id:[0-9]+}", h.Users.DeleteRelationship, http.MethodDelete)
	private("/users/{user_id:[0-9]+}", h.Users.Get, http.MethodGet)
	private("/users/{user_id:[0-9]+|@me}/profile", h.Users.Profile, http.MethodGet)

	private("/channels/{channel_id:[0-9]+}", h.Channels.Get, http.MethodGet)
	private("/channels/{channel_id:[0-9]+}", h.Channels.Update, http.MethodPatch)
	private("/channels/{channel_id:[0-9]+}", h.Channels.Delete, http.MethodDelete)
	private("/channels/{channel_id:[0-9]+}/recipients/{user_id:[0-9]+}", h.Channels.AddRecipient, http.MethodPut)
	private("/channels/{channel_id:[0-9]+}/recipients/{user_id:[0-9]+}", h.Channels.RemoveRecipient, http.MethodDelete)
	private("/channels/{channel_id:[0-9]+}/invites", h.Invites.ChannelInvites, http.MethodGet)
	private("/channels/{channel_id:[0-9]+}/invites", h.Invites.Create, http.MethodPost)
	private("/channels/{channel_id:[0-9]+}/typing", h.Messages.Typing, http.MethodPost)
	private("/channels/{channel_id:[0-9]+}/pins", h.Messages.Pins, http.MethodGet)
	private("/channels/{channel_id:[0-9]+}/pins/{message_id:[0-9]+}", h.Messages.Pin, http.MethodPut)
	private("/channels/{channel_id:[0-9]+}/pins/{message_id:[0-9]+}", h.Messages.Unpin, http.MethodDelete)
	private("/channels/{channel_id:[0-9]+}/messages", h.Messages.List, http.MethodGet)
	private("/channels/{channel_id:[0-9]+}/messages", h.Messages.Send, http.MethodPost)
	private("/channels/{channel_id:[0-9]+}/messages/bulk-delete", h.Messages.BulkDelete, http.MethodPost)
	private("/channels/{channel_id:[0-9]+}/messages/{message_id:[0-9]+}", h.Messages.Get, http.MethodGet)
	private("/channels/{channel_id:[0-9]+}/messages/{message_id:[0-9]+}", h.Messages.Edit, http.MethodPatch)
	private("/channels/{channel_id:[0-9]+}/messages/{message_id:[0-9]+}", h.Messages.Delete, http.MethodDelete)
	private("/channels/{channel_id:[0-9]+}/messages/{message_id:[0-9]+}/ack", h.Messages.Ack, http.MethodPost)
	private("/channels/{channel_id:[0-9]+}/messages/{message_id:[0-9]+}/reactions/{emoji}/@me", h.Messages.AddReaction, http.MethodPut)
	private("/channels/{channel_id:[0-9]+}/messages/{message_id:[0-9]+}/reactions/{emoji}/@me", h.Messages.RemoveReaction, http.MethodDelete)

	private("/guilds", h.Guilds.Create, http.MethodPost)
	private("/guilds/{guild_id:[0-9]+}", h.Guilds.Get, http.MethodGet)
	private("/guilds/{guild_id:[0-9]+}", h.Guilds.Update, http.MethodPatch)
	private("/guilds/{guild_id:[0-9]+}/delete", h.Guilds.Delete, http.MethodPost)
	private("/guilds/{guild_id:[0-9]+}/channels", h.Channels.GuildChannels, http.MethodGet)
	private("/guilds/{guild_id:[0-9]+}/channels", h.Channels.CreateGuildChannel, http.MethodPost)
	private("/guilds/{guild_id:[0-9]+}/messages/search", h.Messages.Search, http.MethodGet)
	private("/guilds/{guild_id:[0-9]+}/members", h.Guilds.Members, http.MethodGet)
	private("/guilds/{guild_id:[0-9]+}/members/{user_id:[0-9]+|@me}", h.Guilds.Member, http.MethodGet)
	private("/guilds/{guild_id:[0-9]+}/members/{user_id:[0-9]+|@me}", h.Guilds.UpdateMember, http.MethodPatch)
	private("/guilds/{guild_id:[0-9]+}/members/{user_id:[0-9]+}", h.Guilds.Kick, http.MethodDelete)
	private("/guilds/{guild_id:[0-9]+}/bans/{user_id:[0-9]+}", h.Guilds.Ban, http.MethodPut)
	private("/guilds/{guild_id:[0-9]+}/bans/{user_id:[0-9]+}", h.Guilds.Unban, http.MethodDelete)
	private("/guilds/{guild_id:[0-9]+}/roles", h.Guilds.Roles, http.MethodGet)
	private("/guilds/{guild_id:[0-9]+}/roles", h.Guilds.CreateRole, http.MethodPost)
	private("/guilds/{guild_id:[0-9]+}/roles/{role_id:[0-9]+}", h.Guilds.UpdateRole, http.MethodPatch)
	private("/guilds/{guild_id:[0-9]+}/roles/{role_id:[0-9]+}", h.Guilds.DeleteRole, http.MethodDelete)
	private("/guilds/{guild_id:[0-9]+}/emojis", h.Guilds.Emojis, http.MethodGet)
	private("/guilds/{guild_id:[0-9]+}/emojis", h.Guilds.CreateEmoji, http.MethodPost)
	private("/guilds/{guild_id:[0-9]+}/emojis/{emoji_id:[0-9]+}", h.Guilds.DeleteEmoji, http.MethodDelete)

	public("/invites/{code}", h.Invites.Get, http.MethodGet)
	private("/invites/{code}", h.Invites.Use, http.MethodPost)
	private("/invites/{code}", h.Invites.Delete, http.MethodDelete)

	private("/interactions", h.Interactions.Create, http.MethodPost)
	public("/interactions/{interaction_id:[0-9]+}/{token}/callback", h.Interactions.Callback, http.MethodPost)

	return r
}

func jsonError(log *logger.Logger, err error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, log, err)
	})
}
