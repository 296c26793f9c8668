package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"livechat-backend/internal/agenttoken"
	"livechat-backend/internal/api"
	"livechat-backend/internal/api/router"
	"livechat-backend/internal/chat"
	"livechat-backend/internal/env"
	"livechat-backend/internal/mirror"
	"livechat-backend/internal/queue"
	"livechat-backend/internal/websocket"
	"livechat-backend/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	var log *zap.Logger
	var err error
	if env.Get(env.AppEnv) == "development" {
		log, err = logger.NewDevelopment()
	} else {
		log, err = logger.New(env.GetOrDefault(env.LogLevel, "info"))
	}
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	queueManager := queue.NewManager(64, 10)

	scheduler := chat.NewScheduler()
	store := chat.NewStore(scheduler, chat.StoreConfig{
		WelcomeText: env.Get(env.WelcomeMessage),
	})
	presence := chat.NewPresence()
	visitors := chat.NewVisitors()
	chatRouter := chat.NewRouter(presence, visitors)

	tokens := agenttoken.NewParser(env.Get(env.AgentTokenSecret))
	eventMirror := mirror.New(env.Get(env.ChatRedisURL), env.Get(env.ChatRedisPass), queueManager, log)

	gateway := websocket.NewGateway(store, presence, visitors, chatRouter, tokens, eventMirror, log)

	server := api.NewAPIServer(
		api.Config{
			ListenAddr:  env.GetOrDefault(env.ListenAddr, ":83"),
			CORSOrigins: []string{env.GetOrDefault(env.WebUrl, "*")},
		},
		queueManager,
		gateway,
		log,
		router.UtilsRoutes("/api/ws/v1"),
		router.ChatRoutes("/api/ws/v1"),
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := server.Run(); err != nil {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
	<-done

	scheduler.Stop()
	queueManager.Shutdown()
	if err := eventMirror.Close(); err != nil {
		log.Error("close mirror", zap.Error(err))
	}
}
