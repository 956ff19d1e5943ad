package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/yepcord/server-sub002/internal/event"
	"github.com/yepcord/server-sub002/internal/model"
	"github.com/yepcord/server-sub002/internal/pubsub"
)

func (s *Server) handleFrame(ctx context.Context, c *Conn, in event.Inbound) {
	s.metrics.frameIn(strconv.Itoa(int(in.Op)))

	switch in.Op {
	case event.OpHeartbeat:
		s.handleHeartbeat(ctx, c)
	case event.OpIdentify:
		s.handleIdentify(ctx, c, in.D)
	case event.OpResume:
		s.handleResume(ctx, c, in.D)
	case event.OpStatus:
		s.handleStatus(ctx, c, in.D)
	case event.OpLazyRequest:
		s.handleLazyRequest(ctx, c, in.D)
	case event.OpRequestMembers:
		s.handleRequestMembers(ctx, c, in.D)
	default:
		s.log.Debug("Gateway: ignoring unknown op", "op", in.Op, "remote", c.remote)
	}
}

func (s *Server) handleHeartbeat(ctx context.Context, c *Conn) {
	s.sendControl(c, event.OpHeartbeatAck, nil)

	session := c.getSession()
	if session == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	err := s.presences.Set(ctx, session.UserID, nil)
	if errors.Is(err, model.ErrNotFound) {
		// Expired or deleted by another process; announce the user again.
		s.setOnline(ctx, session.UserID, nil)
		return
	}
	if err != nil {
		s.log.Error("Gateway: failed to refresh presence",
			"user_id", session.UserID,
			"error", err)
	}
}

func (s *Server) handleIdentify(ctx context.Context, c *Conn, raw json.RawMessage) {
	if c.getSession() != nil {
		c.closeWith(CloseAlreadyAuthenticated, "Already authenticated.")
		return
	}

	var req event.Identify
	if err := json.Unmarshal(raw, &req); err != nil {
		c.closeWith(CloseAuthenticationFailed, "Authentication failed.")
		return
	}

	authCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	auth, err := s.auth.Authenticate(authCtx, req.Token)
	if err != nil {
		s.log.Info("Gateway: identify rejected", "remote", c.remote, "error", err)
		c.closeWith(CloseAuthenticationFailed, "Authentication failed.")
		return
	}

	// The session becomes reachable by fanout only once READY holds its
	// first sequence number.
	session := newSession(auth.UserID)
	ready, ok := s.buildReady(ctx, c, session)
	if !ok {
		return
	}
	if err := session.open(c, event.Dispatch(event.Ready, ready)); err != nil {
		s.log.Error("Gateway: failed to encode READY",
			"user_id", session.UserID,
			"error", err)
		c.closeWith(CloseUnknownError, "Unknown error.")
		return
	}
	s.metrics.dispatched(event.Ready)
	s.registry.Add(session)
	s.metrics.sessionAdded()

	s.log.Info("Gateway: client identified",
		"user_id", session.UserID,
		"session_id", session.ID)

	presenceCtx, cancelPresence := context.WithTimeout(ctx, requestTimeout)
	defer cancelPresence()
	s.connect(presenceCtx, session.UserID)
	s.setOnline(presenceCtx, session.UserID, req.Presence)
	s.sendSupplemental(ctx, session)
}

func (s *Server) handleResume(ctx context.Context, c *Conn, raw json.RawMessage) {
	var req event.Resume
	if err := json.Unmarshal(raw, &req); err != nil {
		s.invalidSession(c)
		return
	}

	session, ok := s.registry.Get(req.SessionID)
	if !ok {
		s.invalidSession(c)
		return
	}

	authCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	auth, err := s.auth.Authenticate(authCtx, req.Token)
	if err != nil || auth.UserID != session.UserID {
		s.log.Info("Gateway: resume rejected",
			"session_id", req.SessionID,
			"remote", c.remote)
		c.closeWith(CloseAuthenticationFailed, "Authentication failed.")
		return
	}

	current := c.getSession()
	if current != nil && current != session {
		c.closeWith(CloseAlreadyAuthenticated, "Already authenticated.")
		return
	}

	replayed := session.attach(c, req.Seq, true)
	if current == nil {
		s.connect(authCtx, session.UserID)
	}
	s.log.Info("Gateway: client resumed",
		"user_id", session.UserID,
		"session_id", session.ID,
		"replayed", replayed)

	if _, ok, _ := s.presences.Get(authCtx, session.UserID); !ok {
		s.setOnline(authCtx, session.UserID, nil)
	}

	if !replayed {
		s.sendReady(ctx, c, session)
		return
	}
	s.dispatch(session, event.Resumed, struct{}{})
}

// invalidSession tells the client to start over with IDENTIFY.
func (s *Server) invalidSession(c *Conn) {
	s.sendControl(c, event.OpInvalidSession, false)
	s.sendControl(c, event.OpReconnect, nil)
	c.closeWith(CloseInvalidSession, "Invalid session.")
}

func (s *Server) sendReady(ctx context.Context, c *Conn, session *Session) {
	ready, ok := s.buildReady(ctx, c, session)
	if !ok {
		return
	}
	s.dispatch(session, event.Ready, ready)
	s.sendSupplemental(ctx, session)
}

// buildReady closes c when READY cannot be rendered.
func (s *Server) buildReady(ctx context.Context, c *Conn, session *Session) (event.ReadyPayload, bool) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	ready, err := s.serializer.Ready(ctx, session.UserID, session.ID)
	if err != nil {
		s.log.Error("Gateway: failed to build READY",
			"user_id", session.UserID,
			"error", err)
		c.closeWith(CloseUnknownError, "Unknown error.")
		return event.ReadyPayload{}, false
	}
	return ready, true
}

func (s *Server) sendSupplemental(ctx context.Context, session *Session) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	sup, err := s.serializer.ReadySupplemental(ctx, session.UserID)
	if err != nil {
		s.log.Error("Gateway: failed to build READY_SUPPLEMENTAL",
			"user_id", session.UserID,
			"error", err)
		return
	}
	s.dispatch(session, event.ReadySupplemental, sup)
}

func (s *Server) handleStatus(ctx context.Context, c *Conn, raw json.RawMessage) {
	session := c.getSession()
	if session == nil {
		return
	}

	var req event.StatusUpdate
	if err := json.Unmarshal(raw, &req); err != nil || !model.ValidStatus(req.Status) {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	s.setPresence(ctx, session.UserID, model.Presence{
		Status:     req.Status,
		Activities: activities(req.Activities),
	})
}

// setOnline stores and announces the presence of a user that just came
// online. upd, when set, overrides the saved status.
func (s *Server) setOnline(ctx context.Context, userID int64, upd *event.StatusUpdate) {
	p := model.Presence{Status: model.StatusOnline, Activities: []model.Activity{}}

	settings, err := s.stores.Users.GetSettings(ctx, userID)
	if err != nil {
		s.log.Warn("Gateway: failed to load settings for presence",
			"user_id", userID,
			"error", err)
	} else {
		if settings.Status != "" {
			p.Status = settings.Status
		}
		if a := model.CustomStatusActivity(settings.CustomStatus); a != nil {
			p.Activities = append(p.Activities, *a)
		}
	}

	if upd != nil && model.ValidStatus(upd.Status) && upd.Status != model.StatusOffline {
		p.Status = upd.Status
		if len(upd.Activities) > 0 {
			p.Activities = activities(upd.Activities)
		}
	}
	s.setPresence(ctx, userID, p)
}

func (s *Server) setPresence(ctx context.Context, userID int64, p model.Presence) {
	p.UserID = userID
	p.LastModified = time.Now().UnixMilli()
	if p.Activities == nil {
		p.Activities = []model.Activity{}
	}

	if err := s.presences.Set(ctx, userID, &p); err != nil {
		s.log.Error("Gateway: failed to store presence",
			"user_id", userID,
			"error", err)
		return
	}

	ev, err := pubsub.NewEvent(event.BusPresenceUpdate, p)
	if err != nil {
		s.log.Error("Gateway: failed to build presence event", "error", err)
		return
	}
	if err := s.bus.Publish(ctx, pubsub.TopicUserEvents, ev); err != nil {
		s.log.Error("Gateway: failed to publish presence",
			"user_id", userID,
			"error", err)
	}
}

func activities(in []event.ActivityInput) []model.Activity {
	out := make([]model.Activity, 0, len(in))
	now := time.Now().UnixMilli()
	for _, a := range in {
		act := model.Activity{Name: a.Name, Type: a.Type, State: a.State, CreatedAt: now}
		if a.Emoji != nil {
			act.Emoji = &model.ActivityEmoji{Name: a.Emoji.Name}
			if a.Emoji.ID != nil {
				if id, err := strconv.ParseInt(*a.Emoji.ID, 10, 64); err == nil {
					act.Emoji.ID = &id
				}
			}
		}
		out = append(out, act)
	}
	return out
}

func (s *Server) handleLazyRequest(ctx context.Context, c *Conn, raw json.RawMessage) {
	session := c.getSession()
	if session == nil {
		return
	}

	var req event.LazyRequest
	if err := json.Unmarshal(raw, &req); err != nil || !req.Members {
		return
	}
	guildID, err := strconv.ParseInt(req.GuildID, 10, 64)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	if !s.isMember(ctx, guildID, session.UserID) {
		return
	}

	list, err := s.serializer.MemberListUpdate(ctx, guildID)
	if err != nil {
		s.log.Error("Gateway: failed to build member list",
			"guild_id", guildID,
			"error", err)
		return
	}
	s.dispatch(session, event.GuildMemberListUpdate, list)
}

func (s *Server) handleRequestMembers(ctx context.Context, c *Conn, raw json.RawMessage) {
	session := c.getSession()
	if session == nil {
		return
	}

	var req event.RequestMembers
	if err := json.Unmarshal(raw, &req); err != nil {
		return
	}
	userIDs := make([]int64, 0, len(req.UserIDs))
	for _, id := range req.UserIDs {
		if v, err := strconv.ParseInt(id, 10, 64); err == nil {
			userIDs = append(userIDs, v)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	for _, gid := range req.GuildIDs() {
		guildID, err := strconv.ParseInt(gid, 10, 64)
		if err != nil || !s.isMember(ctx, guildID, session.UserID) {
			continue
		}
		chunk, err := s.serializer.MembersChunk(ctx, guildID, req.Query, userIDs, req.Limit, req.Presences, req.Nonce)
		if err != nil {
			s.log.Error("Gateway: failed to build members chunk",
				"guild_id", guildID,
				"error", err)
			continue
		}
		s.dispatch(session, event.GuildMembersChunk, chunk)
	}
}

func (s *Server) isMember(ctx context.Context, guildID, userID int64) bool {
	_, err := s.stores.Guilds.GetMember(ctx, guildID, userID)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		s.log.Error("Gateway: failed to load member",
			"guild_id", guildID,
			"user_id", userID,
			"error", err)
	}
	return err == nil
}
