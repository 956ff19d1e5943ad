package app

import (
	"context"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yepcord/server-sub002/internal/config"
	"github.com/yepcord/server-sub002/internal/mocks"
	"github.com/yepcord/server-sub002/internal/model"
	"github.com/yepcord/server-sub002/internal/presence"
	"github.com/yepcord/server-sub002/internal/server"
	"github.com/yepcord/server-sub002/internal/testutil"
)

type fakeServer struct {
	addr    string
	stopped chan struct{}
	order   *[]string
	starts  atomic.Int32
}

func newFakeServer(addr string, order *[]string) *fakeServer {
	return &fakeServer{addr: addr, stopped: make(chan struct{}), order: order}
}

func (s *fakeServer) Start(model.SecurityLayer) error {
	s.starts.Add(1)
	<-s.stopped
	return nil
}

func (s *fakeServer) Stop(context.Context) error {
	*s.order = append(*s.order, s.addr)
	close(s.stopped)
	return nil
}

func (s *fakeServer) Address() string { return s.addr }

func TestRun_StopsInReverseOrder(t *testing.T) {
	var order []string
	first := newFakeServer(":1", &order)
	second := newFakeServer(":2", &order)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		Run(ctx, testutil.MakeNoopLogger(), server.NewPlainListener(), first, second)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return first.starts.Load() == 1 && second.starts.Load() == 1
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
	assert.Equal(t, []string{":2", ":1"}, order)
}

func TestMetricsServer(t *testing.T) {
	reg := NewRegistry()
	srv := MetricsServer(reg, ":0")
	sec := mocks.NewSecurityLayer(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	sec.On("Listen", "tcp", ":0").Return(ln, nil)

	go func() { _ = srv.Start(sec) }()
	t.Cleanup(func() { _ = srv.Stop(context.Background()) })

	resp, err := http.Get("http://" + ln.Addr().String() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestOpenPresence_Memory(t *testing.T) {
	cfg := &config.Config{GatewayKeepAliveDelay: 45}

	store, pinger, err := OpenPresence(context.Background(), cfg, nil, testutil.MakeNoopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	assert.IsType(t, &presence.MemoryStore{}, store)
	assert.Nil(t, pinger)
}

func TestSecurityLayer(t *testing.T) {
	cfg := &config.Config{}
	assert.IsType(t, &server.PlainListener{}, SecurityLayer(cfg))

	cfg.GRPC.EnableHTTPS = true
	assert.IsType(t, &server.TLSListener{}, SecurityLayer(cfg))
}
