package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	httpserver "github.com/yepcord/server-sub002/internal/api/http/server"
	"github.com/yepcord/server-sub002/internal/app"
	"github.com/yepcord/server-sub002/internal/config"
	"github.com/yepcord/server-sub002/internal/logger"
	"github.com/yepcord/server-sub002/internal/pubsub"
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

	reg := app.NewRegistry()
	hub := pubsub.NewHub(logger.Component("hub"), reg)
	defer hub.Close()

	app.Run(ctx, logger, app.SecurityLayer(cfg),
		app.NewOps(cfg, nil, logger),
		app.MetricsServer(reg, cfg.Listen.Metrics),
		httpserver.NewHTTPServer(hub, cfg.Listen.PubSub),
	)
}
