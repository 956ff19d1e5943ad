// Package gateway serves client WebSocket sessions: the handshake, heartbeats,
// presence, resume, and delivery of bus events to the right sockets.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yepcord/server-sub002/internal/event"
	"github.com/yepcord/server-sub002/internal/logger"
	"github.com/yepcord/server-sub002/internal/model"
	"github.com/yepcord/server-sub002/internal/presence"
	"github.com/yepcord/server-sub002/internal/pubsub"
)

// requestTimeout bounds store and bus calls made on behalf of one frame.
const requestTimeout = 5 * time.Second

// Authenticator validates session tokens.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (model.Session, error)
}

// Options holds the tunables of a Server.
type Options struct {
	Addr              string
	HeartbeatInterval time.Duration
	// Registerer receives gateway metrics; nil disables them.
	Registerer prometheus.Registerer
}

// Server is the gateway WebSocket server.
type Server struct {
	addr       string
	httpServer *http.Server
	upgrader   websocket.Upgrader

	auth       Authenticator
	presences  presence.Store
	bus        pubsub.Bus
	serializer *event.Serializer
	stores     model.Stores

	registry *Registry
	fanout   *Fanout
	metrics  *metrics

	heartbeat   time.Duration
	presenceTTL time.Duration
	offline     presence.ExpireFunc
	log         *logger.Logger
}

// NewServer creates a gateway server. Bus events are not received until
// Subscribe is called.
func NewServer(
	opts Options,
	auth Authenticator,
	presences presence.Store,
	bus pubsub.Bus,
	serializer *event.Serializer,
	stores model.Stores,
	log *logger.Logger,
) *Server {
	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = 45 * time.Second
	}

	s := &Server{
		addr: opts.Addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		auth:        auth,
		presences:   presences,
		bus:         bus,
		serializer:  serializer,
		stores:      stores,
		registry:    NewRegistry(),
		metrics:     newMetrics(opts.Registerer),
		heartbeat:   opts.HeartbeatInterval,
		presenceTTL: opts.HeartbeatInterval * 5 / 4,
		offline:     presence.PublishOffline(bus, log),
		log:         log,
	}
	s.fanout = NewFanout(s.registry, serializer, stores, s.metrics, log)
	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Subscribe starts receiving every gateway topic from the bus.
func (s *Server) Subscribe(ctx context.Context) error {
	for _, topic := range pubsub.Topics {
		if err := s.bus.Subscribe(ctx, topic, s.fanout.Handle); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
		}
	}
	return nil
}

// Registry exposes the sessions of this process.
func (s *Server) Registry() *Registry {
	return s.registry
}

// Start listens and serves until Stop is called.
func (s *Server) Start(securityLayer model.SecurityLayer) error {
	listener, err := securityLayer.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.log.Info("Gateway: listening", "addr", s.addr)
	if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops accepting sockets and drops every session.
func (s *Server) Stop(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	for _, session := range s.registry.All() {
		session.stop()
		if s.registry.Remove(session) {
			s.metrics.sessionRemoved()
		}
	}
	return err
}

// Address returns the configured listen address.
func (s *Server) Address() string {
	return s.addr
}

// ServeHTTP upgrades the request and serves the socket until it closes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("Gateway: upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	c := newConn(ws, r.URL.Query().Get("compress") == CompressZlibStream)
	s.metrics.connOpened()
	s.log.Debug("Gateway: socket opened", "remote", c.remote, "compress", c.zlib != nil)

	go c.writeLoop(s.metrics.written)
	s.sendControl(c, event.OpHello, event.Hello{HeartbeatInterval: s.heartbeat.Milliseconds()})

	ctx, cancel := context.WithCancel(context.Background())
	s.readLoop(ctx, c)
	cancel()
	s.disconnect(c)
}

func (s *Server) readLoop(ctx context.Context, c *Conn) {
	c.ws.SetReadLimit(maxInboundSize)
	deadline := s.heartbeat * 2
	_ = c.ws.SetReadDeadline(time.Now().Add(deadline))

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("Gateway: socket read failed", "remote", c.remote, "error", err)
			}
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(deadline))

		var in event.Inbound
		if err := json.Unmarshal(raw, &in); err != nil {
			s.log.Debug("Gateway: ignoring malformed frame", "remote", c.remote, "error", err)
			continue
		}
		s.handleFrame(ctx, c, in)

		select {
		case <-c.Done():
			return
		default:
		}
	}
}

func (s *Server) disconnect(c *Conn) {
	c.close()
	s.metrics.connClosed()

	session := c.getSession()
	if session == nil {
		s.log.Debug("Gateway: socket closed", "remote", c.remote)
		return
	}
	remaining, counted := s.release(session.UserID)
	if !session.detach(c, s.presenceTTL, s.expireSession) {
		return
	}
	s.log.Debug("Gateway: session detached",
		"user_id", session.UserID,
		"session_id", session.ID,
		"remaining", remaining)

	// Sockets on other processes keep the user online.
	if counted && remaining > 0 {
		return
	}
	if !s.registry.Online(session.UserID) {
		s.goOffline(session.UserID)
	}
}

// connect counts a socket that just got a session.
func (s *Server) connect(ctx context.Context, userID int64) {
	if _, err := s.presences.Connect(ctx, userID); err != nil {
		s.log.Error("Gateway: failed to count connection",
			"user_id", userID,
			"error", err)
	}
}

// release uncounts a closed socket. counted is false when the store could
// not be reached and only local sessions can tell whether the user is online.
func (s *Server) release(userID int64) (remaining int64, counted bool) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	n, err := s.presences.Disconnect(ctx, userID)
	if err != nil {
		s.log.Error("Gateway: failed to uncount connection",
			"user_id", userID,
			"error", err)
		return 0, false
	}
	return n, true
}

func (s *Server) expireSession(session *Session) {
	if s.registry.Remove(session) {
		s.metrics.sessionRemoved()
		s.log.Debug("Gateway: session expired",
			"user_id", session.UserID,
			"session_id", session.ID)
	}
}

func (s *Server) goOffline(userID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if err := s.presences.Delete(ctx, userID); err != nil {
		s.log.Error("Gateway: failed to delete presence",
			"user_id", userID,
			"error", err)
	}
	s.offline(ctx, userID)
}

func (s *Server) sendControl(c *Conn, op event.Op, d any) {
	b, err := event.Control(op, d).Encode(0)
	if err != nil {
		s.log.Error("Gateway: failed to encode frame", "op", op, "error", err)
		return
	}
	c.enqueue(b)
}

func (s *Server) dispatch(session *Session, name string, d any) {
	if _, err := session.Send(event.Dispatch(name, d)); err != nil {
		s.log.Error("Gateway: failed to encode dispatch",
			"event", name,
			"session_id", session.ID,
			"error", err)
		return
	}
	s.metrics.dispatched(name)
}
