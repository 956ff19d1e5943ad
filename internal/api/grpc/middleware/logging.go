package middleware

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/yepcord/server-sub002/internal/logger"
)

// Logging is a unary interceptor that logs gRPC requests and results.
type Logging struct {
	logger *logger.Logger
}

func NewLogging(logger *logger.Logger) *Logging {
	return &Logging{logger: logger}
}

// HandleGRPC logs method, duration and status code. Health probes are
// logged at debug level since orchestrators poll them constantly.
func (l *Logging) HandleGRPC(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	code := codes.OK
	if err != nil {
		code = codes.Internal
		if st, ok := status.FromError(err); ok {
			code = st.Code()
		}
	}

	attrs := []any{
		"method", info.FullMethod,
		"duration_ms", time.Since(start).Milliseconds(),
		"status", code.String(),
	}
	switch {
	case err != nil:
		l.logger.Error("gRPC request failed", append(attrs, "error", err.Error())...)
	case isProbe(info.FullMethod):
		l.logger.Debug("gRPC request completed", attrs...)
	default:
		l.logger.Info("gRPC request completed", attrs...)
	}
	return resp, err
}

func isProbe(method string) bool {
	return method == "/grpc.health.v1.Health/Check"
}
