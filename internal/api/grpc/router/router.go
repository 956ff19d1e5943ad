package router

import (
	"context"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/yepcord/server-sub002/internal/api/grpc/middleware"
	"github.com/yepcord/server-sub002/internal/logger"
)

const probeTimeout = 3 * time.Second

// Pinger is a dependency whose reachability decides the node's health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Router serves the grpc.health.v1 service for one node. Every dependency
// is reported under its own service name; the empty name aggregates them.
type Router struct {
	health *health.Server
	checks map[string]Pinger
	logger *logger.Logger
}

func New(checks map[string]Pinger, logger *logger.Logger) *Router {
	return &Router{
		health: health.NewServer(),
		checks: checks,
		logger: logger,
	}
}

// Register builds the ops server with logging and panic recovery.
func (r *Router) Register() *grpc.Server {
	logging := middleware.NewLogging(r.logger)

	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			recovery.UnaryServerInterceptor(middleware.Recovery(r.logger)),
			logging.HandleGRPC,
		),
		grpc.ChainStreamInterceptor(
			recovery.StreamServerInterceptor(middleware.Recovery(r.logger)),
		),
	)
	healthpb.RegisterHealthServer(s, r.health)
	reflection.Register(s)

	return s
}

// Check probes every dependency once and publishes the result.
func (r *Router) Check(ctx context.Context) bool {
	healthy := true
	for name, p := range r.checks {
		pctx, cancel := context.WithTimeout(ctx, probeTimeout)
		err := p.Ping(pctx)
		cancel()

		st := healthpb.HealthCheckResponse_SERVING
		if err != nil {
			healthy = false
			st = healthpb.HealthCheckResponse_NOT_SERVING
			r.logger.Warn("health check failed", "dependency", name, "error", err)
		}
		r.health.SetServingStatus(name, st)
	}

	overall := healthpb.HealthCheckResponse_SERVING
	if !healthy {
		overall = healthpb.HealthCheckResponse_NOT_SERVING
	}
	r.health.SetServingStatus("", overall)
	return healthy
}

// Watch re-runs Check every interval until ctx is done.
func (r *Router) Watch(ctx context.Context, interval time.Duration) {
	r.Check(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Check(ctx)
		}
	}
}

// Shutdown reports NOT_SERVING everywhere and ignores later updates.
func (r *Router) Shutdown() {
	r.health.Shutdown()
}
