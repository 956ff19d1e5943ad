package handler

import (
	"net/http"
	"strings"

	"github.com/yepcord/server-sub002/internal/api/http/response"
)

// Gateway tells clients where to open their WebSocket.
type Gateway struct {
	url string
}

// NewGateway creates a Gateway handler for host. Hosts without a scheme use
// wss.
func NewGateway(host string) *Gateway {
	if !strings.Contains(host, "://") {
		host = "wss://" + host
	}
	return &Gateway{url: strings.TrimRight(host, "/")}
}

// Get handles GET /gateway.
func (h *Gateway) Get(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"url": h.url})
}
