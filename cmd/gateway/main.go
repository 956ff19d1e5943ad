package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	grpcrouter "github.com/yepcord/server-sub002/internal/api/grpc/router"
	"github.com/yepcord/server-sub002/internal/app"
	"github.com/yepcord/server-sub002/internal/cdn"
	"github.com/yepcord/server-sub002/internal/config"
	"github.com/yepcord/server-sub002/internal/event"
	"github.com/yepcord/server-sub002/internal/gateway"
	"github.com/yepcord/server-sub002/internal/logger"
	"github.com/yepcord/server-sub002/internal/presence"
	"github.com/yepcord/server-sub002/internal/repository/postgres"
	"github.com/yepcord/server-sub002/internal/service"
	"github.com/yepcord/server-sub002/internal/snowflake"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)
	app.LogVersion(logger)

	db, err := postgres.NewConection(ctx, cfg.DBConnectString)
	if err != nil {
		logger.Fatal("failed to initialize database", "error", err)
	}
	defer db.Close()

	ids := snowflake.NewGenerator(cfg.WorkerID, cfg.ProcessID)
	stores := postgres.NewStores(db, ids)

	bus, err := app.ConnectBus(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to connect to bus", "error", err)
	}
	defer bus.Close()

	presences, presencePing, err := app.OpenPresence(ctx, cfg, presence.PublishOffline(bus, logger), logger)
	if err != nil {
		logger.Fatal("failed to open presence store", "error", err)
	}
	defer presences.Close()

	reg := app.NewRegistry()
	serializer := event.NewSerializer(stores, presences, cdn.New(cfg.CDNHost), "wss://"+cfg.GatewayHost)
	tokens := service.NewTokenService(stores.Users, stores.Sessions, ids, logger)

	gw := gateway.NewServer(gateway.Options{
		Addr:              cfg.Listen.Gateway,
		HeartbeatInterval: cfg.HeartbeatInterval(),
		Registerer:        reg,
	}, tokens, presences, bus, serializer, stores, logger.Component("gateway"))
	if err := gw.Subscribe(ctx); err != nil {
		logger.Fatal("failed to subscribe to bus topics", "error", err)
	}

	checks := map[string]grpcrouter.Pinger{"postgres": db}
	if presencePing != nil {
		checks["presence"] = presencePing
	}
	ops := app.NewOps(cfg, checks, logger)
	go ops.Watch(ctx)

	app.Run(ctx, logger, app.SecurityLayer(cfg),
		ops,
		app.MetricsServer(reg, cfg.Listen.Metrics),
		gw,
	)
}
