package pubsub

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yepcord/server-sub002/internal/logger"
)

const (
	peerSendBuffer = 1024
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxFrameSize   = 1 << 20
)

// Hub routes frames between connected subscribers and broadcasters. It keeps
// no history; a frame for a peer whose queue is full is dropped.
type Hub struct {
	log        *logger.Logger
	upgrader   websocket.Upgrader
	metrics    *hubMetrics
	requestTTL time.Duration

	mu           sync.RWMutex
	peers        map[*peer]struct{}
	topics       map[string]map[*peer]struct{}
	broadcasters map[string]*peer
	pending      map[string]*pendingRequest
}

// pendingRequest is a request routed to a broadcaster and not yet answered.
// It is answered with an error once the broadcaster leaves or ttl passes.
type pendingRequest struct {
	requester *peer
	target    *peer
	timer     *time.Timer
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithRequestTTL sets how long the hub keeps an unanswered request routed.
func WithRequestTTL(d time.Duration) HubOption {
	return func(h *Hub) { h.requestTTL = d }
}

type peer struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (p *peer) close() {
	p.once.Do(func() { close(p.done) })
}

// enqueue reports false if the frame was dropped.
func (p *peer) enqueue(b []byte) bool {
	select {
	case <-p.done:
		return false
	default:
	}
	select {
	case p.send <- b:
		return true
	default:
		return false
	}
}

type hubMetrics struct {
	peers   prometheus.Gauge
	frames  *prometheus.CounterVec
	dropped *prometheus.CounterVec
}

func newHubMetrics(reg prometheus.Registerer) *hubMetrics {
	if reg == nil {
		return nil
	}

	m := &hubMetrics{
		peers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "yepcord",
			Subsystem: "pubsub",
			Name:      "peers_active",
			Help:      "Number of connected bus peers",
		}),
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "yepcord",
			Subsystem: "pubsub",
			Name:      "frames_received_total",
			Help:      "Frames received by the hub",
		}, []string{"type"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "yepcord",
			Subsystem: "pubsub",
			Name:      "frames_dropped_total",
			Help:      "Frames dropped by the hub",
		}, []string{"reason"}),
	}
	reg.MustRegister(m.peers, m.frames, m.dropped)
	return m
}

// NewHub creates a hub. reg may be nil to disable metrics.
func NewHub(log *logger.Logger, reg prometheus.Registerer, opts ...HubOption) *Hub {
	h := &Hub{
		log:        log,
		requestTTL: RequestTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		metrics:      newHubMetrics(reg),
		peers:        make(map[*peer]struct{}),
		topics:       make(map[string]map[*peer]struct{}),
		broadcasters: make(map[string]*peer),
		pending:      make(map[string]*pendingRequest),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP upgrades the request and serves the peer until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("PubSub hub: upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	p := &peer{
		conn: conn,
		send: make(chan []byte, peerSendBuffer),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	h.peers[p] = struct{}{}
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.peers.Inc()
	}
	h.log.Debug("PubSub hub: peer connected", "remote", r.RemoteAddr)

	go h.writeLoop(p)
	h.readLoop(p)
	h.removePeer(p)
}

// Close disconnects every peer.
func (h *Hub) Close() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for p := range h.peers {
		p.close()
	}
}

// PeerCount returns the number of connected peers.
func (h *Hub) PeerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

func (h *Hub) readLoop(p *peer) {
	p.conn.SetReadLimit(maxFrameSize)
	_ = p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("PubSub hub: peer read failed", "error", err)
			}
			return
		}
		_ = p.conn.SetReadDeadline(time.Now().Add(pongWait))

		frames, err := DecodeFrames(raw)
		if err != nil {
			h.log.Warn("PubSub hub: dropping malformed frame", "error", err)
			h.drop("malformed")
		}
		for _, f := range frames {
			h.route(p, f)
		}
	}
}

func (h *Hub) writeLoop(p *peer) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = p.conn.Close()
	}()

	for {
		select {
		case b := <-p.send:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				p.close()
				return
			}
		case <-ticker.C:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				p.close()
				return
			}
		case <-p.done:
			return
		}
	}
}

func (h *Hub) route(from *peer, f Frame) {
	if h.metrics != nil {
		h.metrics.frames.WithLabelValues(f.Type).Inc()
	}

	switch f.Type {
	case FrameSubscribe:
		h.mu.Lock()
		subs, ok := h.topics[f.Topic]
		if !ok {
			subs = make(map[*peer]struct{})
			h.topics[f.Topic] = subs
		}
		subs[from] = struct{}{}
		h.mu.Unlock()

	case FrameUnsubscribe:
		h.mu.Lock()
		delete(h.topics[f.Topic], from)
		h.mu.Unlock()

	case FrameRegister:
		h.mu.Lock()
		h.broadcasters[f.BrName] = from
		h.mu.Unlock()
		h.log.Info("PubSub hub: broadcaster registered", "br_name", f.BrName)

	case FrameBroadcast:
		b, err := Frame{Type: FrameBroadcast, Topic: f.Topic, Data: f.Data}.Encode()
		if err != nil {
			return
		}
		h.mu.RLock()
		for p := range h.topics[f.Topic] {
			if !p.enqueue(b) {
				h.drop("queue_full")
			}
		}
		h.mu.RUnlock()

	case FrameRequest:
		h.mu.Lock()
		target, ok := h.broadcasters[f.BrName]
		if ok {
			if prev, dup := h.pending[f.RequestID]; dup {
				prev.timer.Stop()
			}
			id := f.RequestID
			h.pending[id] = &pendingRequest{
				requester: from,
				target:    target,
				timer:     time.AfterFunc(h.requestTTL, func() { h.expire(id) }),
			}
		}
		h.mu.Unlock()

		if !ok {
			h.reply(from, Frame{Type: FrameResponse, RequestID: f.RequestID, Error: "unknown broadcaster " + f.BrName})
			return
		}
		h.reply(target, f)

	case FrameResponse:
		h.mu.Lock()
		req, ok := h.pending[f.RequestID]
		delete(h.pending, f.RequestID)
		h.mu.Unlock()

		if !ok {
			h.drop("orphan_response")
			return
		}
		req.timer.Stop()
		h.reply(req.requester, f)
	}
}

// expire answers a request its broadcaster never responded to.
func (h *Hub) expire(id string) {
	h.mu.Lock()
	req, ok := h.pending[id]
	delete(h.pending, id)
	h.mu.Unlock()

	if !ok {
		return
	}
	h.drop("request_expired")
	h.reply(req.requester, Frame{Type: FrameResponse, RequestID: id, Error: "request timed out"})
}

func (h *Hub) reply(to *peer, f Frame) {
	b, err := f.Encode()
	if err != nil {
		return
	}
	if !to.enqueue(b) {
		h.drop("queue_full")
	}
}

func (h *Hub) drop(reason string) {
	if h.metrics != nil {
		h.metrics.dropped.WithLabelValues(reason).Inc()
	}
}

func (h *Hub) removePeer(p *peer) {
	p.close()

	h.mu.Lock()
	delete(h.peers, p)
	for _, subs := range h.topics {
		delete(subs, p)
	}
	for name, b := range h.broadcasters {
		if b == p {
			delete(h.broadcasters, name)
		}
	}
	var orphaned []Frame
	var requesters []*peer
	for id, req := range h.pending {
		switch p {
		case req.requester:
		case req.target:
			orphaned = append(orphaned, Frame{Type: FrameResponse, RequestID: id, Error: "broadcaster disconnected"})
			requesters = append(requesters, req.requester)
		default:
			continue
		}
		req.timer.Stop()
		delete(h.pending, id)
	}
	h.mu.Unlock()

	for i, f := range orphaned {
		h.reply(requesters[i], f)
	}

	if h.metrics != nil {
		h.metrics.peers.Dec()
	}
	h.log.Debug("PubSub hub: peer disconnected")
}

func (h *Hub) subscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

func (h *Hub) pendingCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.pending)
}

func (h *Hub) hasBroadcaster(name string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.broadcasters[name]
	return ok
}
