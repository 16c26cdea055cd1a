package main

import (
	"context"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatmatchgo/internal/config"
	"chatmatchgo/internal/database/db_client"
	"chatmatchgo/internal/http/http_server"
	"chatmatchgo/internal/match"
	"chatmatchgo/internal/presence"
	"chatmatchgo/internal/redis/redis_client"
	"chatmatchgo/internal/redis/watcher/presencewatcher"
	"chatmatchgo/internal/services/userstore"
	"chatmatchgo/internal/socialgraph"
	"chatmatchgo/internal/syncfriends"
	"chatmatchgo/internal/ws"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	Log, _ = zap.NewDevelopment()
)

func main() {
	defer Log.Sync()
	zap.ReplaceGlobals(Log)

	var err error
	var cfg *config.Config
	var redisClient *redis.Client
	var userService userstore.IUserService

	// 1. Load configuration
	cfg, err = config.LoadConfig()
	if err != nil {
		Log.Fatal("Failed to load configuration", zap.Error(err))
	}
	Log.Debug("Configuration loaded successfully", zap.Any("config", cfg))

	// 2. Context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	// 3. Redis
	redisClient, err = redis_client.NewRedisClient(cfg.RedisHost, int(cfg.RedisPort))
	if err != nil {
		Log.Fatal("Failed to create Redis client", zap.Error(err))
	}
	defer redisClient.Close()
	Log.Debug("Redis client created successfully")

	// 4. Postgres db client
	pgDb, err := db_client.Open(cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDb)
	if err != nil {
		Log.Fatal("pg-open", zap.Error(err))
	}
	defer pgDb.Close()

	// 5. Durable user store service
	userService = userstore.NewUserService(redisClient, pgDb)

	// 6. In-memory stores: session registry, social graph, matchmaker
	registry := presence.NewRegistry()
	graph := socialgraph.NewStore()
	matcher := match.New(graph, rand.NewSource(time.Now().UnixNano()))

	// 7. WebSockets hub + server
	hub := ws.NewHub()
	wsSrv := ws.NewWsServer(hub, registry, graph, matcher, redisClient, userService)

	// 8. Background: friend-update persistence + stale-session reaper
	syncfriends.Run(ctx, redisClient, pgDb)
	go presencewatcher.Run(ctx, redisClient, wsSrv)

	// 9. HTTP + WS server
	httpServer := http_server.NewHttpServer(ctx, cfg.HttpServerPort, wsSrv, userService, graph, registry)
	if err := httpServer.Start(); err != nil {
		Log.Fatal("Failed to start HTTP server", zap.Error(err))
	}
}
