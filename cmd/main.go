package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/xenn00/chat-service/config"
	"github.com/xenn00/chat-service/internal/routers"
	chat_service "github.com/xenn00/chat-service/internal/use-case/chat-case"
	"github.com/xenn00/chat-service/internal/websocket"
	"github.com/xenn00/chat-service/state"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// initialize the application
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if level, err := zerolog.ParseLevel(config.Conf.App.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	appState, err := state.InitAppState(ctx, stop)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize application state")
	}
	defer appState.Close()

	wsHub := websocket.NewHub()
	log.Info().Msg("Websocket hub initialized")

	var broadcaster chat_service.Broadcaster = wsHub
	if config.Conf.BROADCAST.Mode == config.BroadcastRedis {
		relay := websocket.NewRedisRelay(wsHub, appState.Redis)
		go func() {
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("redis relay stopped")
			}
		}()
		broadcaster = relay
		log.Info().Msg("Broadcasting through redis relay")
	}

	chatService := chat_service.NewChatService(appState, broadcaster, config.Conf.CHAT.MaxPageSize)

	wsHandler := websocket.NewWebSocketHandler(
		wsHub,
		appState.Verifier,
		chatService,
		config.Conf.CORS.AllowedOrigins,
		config.Conf.WS.MaxConnections,
	)
	log.Info().Msg("Websocket handler initialized")

	r := routers.NewRouter(routers.RouterDeps{
		Verifier:       appState.Verifier,
		Service:        chatService,
		Hub:            wsHub,
		WSHandler:      wsHandler,
		AllowedOrigins: config.Conf.CORS.AllowedOrigins,
	})

	addr := config.Conf.App.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// serve the application
	go func() {
		log.Info().Msgf("Starting server on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("ListenAndServe failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutdown initiated...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	} else {
		log.Info().Msg("Server exited gracefully.")
	}
	wsHub.Close()
}
