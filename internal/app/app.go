// Package app holds the process wiring shared by the api, gateway and
// pubsub binaries.
package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yepcord/server-sub002/internal/api/grpc/router"
	grpcserver "github.com/yepcord/server-sub002/internal/api/grpc/server"
	httpserver "github.com/yepcord/server-sub002/internal/api/http/server"
	"github.com/yepcord/server-sub002/internal/config"
	"github.com/yepcord/server-sub002/internal/logger"
	"github.com/yepcord/server-sub002/internal/model"
	"github.com/yepcord/server-sub002/internal/presence"
	"github.com/yepcord/server-sub002/internal/pubsub"
	"github.com/yepcord/server-sub002/internal/server"
)

const (
	shutdownTimeout = 10 * time.Second
	healthInterval  = 15 * time.Second
)

var (
	BuildVersion = "N/A"
	BuildDate    = "N/A"
	BuildCommit  = "N/A"
)

// LogVersion writes the build information set by ldflags.
func LogVersion(log *logger.Logger) {
	log.Info("build", "version", BuildVersion, "date", BuildDate, "commit", BuildCommit)
}

// NewRegistry returns a registry carrying the Go runtime and process
// collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// MetricsServer exposes reg on /metrics.
func MetricsServer(reg *prometheus.Registry, addr string) *httpserver.HTTPServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return httpserver.NewHTTPServer(mux, addr)
}

// Ops is the gRPC health server of one process.
type Ops struct {
	*grpcserver.GRPCServer
	router *router.Router
}

func NewOps(cfg *config.Config, checks map[string]router.Pinger, log *logger.Logger) *Ops {
	r := router.New(checks, log.Component("ops"))
	return &Ops{
		GRPCServer: grpcserver.NewGRPCServer(r.Register(), ":"+cfg.GRPC.Port),
		router:     r,
	}
}

// Watch keeps the reported health current until ctx is done.
func (o *Ops) Watch(ctx context.Context) {
	o.router.Watch(ctx, healthInterval)
}

func (o *Ops) Stop(ctx context.Context) error {
	o.router.Shutdown()
	return o.GRPCServer.Stop(ctx)
}

// SecurityLayer returns the listener factory for cfg.
func SecurityLayer(cfg *config.Config) model.SecurityLayer {
	return server.NewSecurityLayer(cfg.GRPC.EnableHTTPS, cfg.GRPC.CertFileName, cfg.GRPC.PrivateKeyFileName)
}

// ConnectBus opens the bus client for cfg.PSAddress.
func ConnectBus(ctx context.Context, cfg *config.Config, log *logger.Logger) (pubsub.Bus, error) {
	bus, err := pubsub.Connect(ctx, cfg.PSAddress, pubsub.WithLogger(log.Component("bus")))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to bus at %s: %w", cfg.PSAddress, err)
	}
	return bus, nil
}

// OpenPresence uses redis when REDIS_URL is set and process memory
// otherwise. The redis store is also returned as a health check.
func OpenPresence(ctx context.Context, cfg *config.Config, onExpire presence.ExpireFunc, log *logger.Logger) (presence.Store, router.Pinger, error) {
	log = log.Component("presence")
	if cfg.RedisURL == "" {
		return presence.NewMemoryStore(cfg.PresenceTTL(), onExpire, log), nil, nil
	}
	store, err := presence.NewRedisStore(ctx, cfg.RedisURL, cfg.PresenceTTL(), onExpire, log)
	if err != nil {
		return nil, nil, err
	}
	return store, store, nil
}

// Run starts every server, blocks until ctx is done and then stops them
// in reverse order.
func Run(ctx context.Context, log *logger.Logger, sl model.SecurityLayer, servers ...model.Server) {
	var wg sync.WaitGroup
	for _, s := range servers {
		wg.Add(1)
		go func(s model.Server) {
			defer wg.Done()
			log.Info("starting server", "address", s.Address())
			if err := s.Start(sl); err != nil {
				log.Error("failed to start server", "error", err, "address", s.Address())
			}
		}(s)
	}

	<-ctx.Done()
	log.Info("received interruption signal, shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	for i := len(servers) - 1; i >= 0; i-- {
		if err := servers[i].Stop(shutdownCtx); err != nil {
			log.Error("error during server shutdown", "error", err, "address", servers[i].Address())
		}
	}

	wg.Wait()
	log.Info("shutdown complete")
}
