package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	httpctx "github.com/yepcord/server-sub002/internal/api/http/context"
	"github.com/yepcord/server-sub002/internal/api/http/handler"
	"github.com/yepcord/server-sub002/internal/api/http/router"
	httpserver "github.com/yepcord/server-sub002/internal/api/http/server"
	grpcrouter "github.com/yepcord/server-sub002/internal/api/grpc/router"
	"github.com/yepcord/server-sub002/internal/app"
	"github.com/yepcord/server-sub002/internal/cdn"
	"github.com/yepcord/server-sub002/internal/config"
	"github.com/yepcord/server-sub002/internal/event"
	"github.com/yepcord/server-sub002/internal/logger"
	"github.com/yepcord/server-sub002/internal/repository/postgres"
	"github.com/yepcord/server-sub002/internal/service"
	"github.com/yepcord/server-sub002/internal/snowflake"
	"github.com/yepcord/server-sub002/internal/storage"
	"github.com/yepcord/server-sub002/internal/token"
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

	masterKey, err := cfg.MasterKey()
	if err != nil {
		logger.Fatal("invalid master key", "error", err)
	}

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

	presences, presencePing, err := app.OpenPresence(ctx, cfg, nil, logger)
	if err != nil {
		logger.Fatal("failed to open presence store", "error", err)
	}
	defer presences.Close()

	files, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal("failed to initialize file storage", "error", err)
	}

	deps := service.Deps{
		Stores:     stores,
		Serializer: event.NewSerializer(stores, presences, cdn.New(cfg.CDNHost), "wss://"+cfg.GatewayHost),
		Publisher:  service.NewPublisher(bus, logger.Component("publisher")),
		IDs:        ids,
		Logger:     logger,
	}

	tokenService := service.NewTokenService(stores.Users, stores.Sessions, ids, logger)
	authService := service.NewAuth(stores.Users, tokenService, token.NewTickets(masterKey), masterKey, ids, logger)
	usersService := service.NewUsers(deps, authService, tokenService)
	relationshipsService := service.NewRelationships(deps)
	channelsService := service.NewChannels(deps)
	messagesService := service.NewMessages(deps, files)
	guildsService := service.NewGuilds(deps, files)
	invitesService := service.NewInvites(deps)
	interactionsService := service.NewInteractions(deps, 0)
	defer interactionsService.Close()

	ctxMgr := httpctx.NewManager()
	apiLogger := logger.Component("api")
	r := router.New(router.Handlers{
		Auth:         handler.NewAuth(authService, ctxMgr, apiLogger),
		Users:        handler.NewUsers(usersService, authService, channelsService, relationshipsService, guildsService, ctxMgr, apiLogger),
		Channels:     handler.NewChannels(channelsService, ctxMgr, apiLogger),
		Messages:     handler.NewMessages(messagesService, ctxMgr, apiLogger),
		Guilds:       handler.NewGuilds(guildsService, ctxMgr, apiLogger),
		Invites:      handler.NewInvites(invitesService, ctxMgr, apiLogger),
		Interactions: handler.NewInteractions(interactionsService, ctxMgr, apiLogger),
		Gateway:      handler.NewGateway(cfg.GatewayHost),
	}, tokenService, ctxMgr, apiLogger)

	checks := map[string]grpcrouter.Pinger{"postgres": db}
	if presencePing != nil {
		checks["presence"] = presencePing
	}
	ops := app.NewOps(cfg, checks, logger)
	go ops.Watch(ctx)

	app.Run(ctx, logger, app.SecurityLayer(cfg),
		ops,
		app.MetricsServer(app.NewRegistry(), cfg.Listen.Metrics),
		httpserver.NewHTTPServer(r.Register(), cfg.Listen.API),
	)
}
