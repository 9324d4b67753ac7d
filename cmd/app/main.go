package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/OpenClique85/openclique-sub010/internal/api"
	"github.com/OpenClique85/openclique-sub010/internal/config"
	"github.com/OpenClique85/openclique-sub010/internal/dispatch"
	"github.com/OpenClique85/openclique-sub010/internal/middleware"
	"github.com/OpenClique85/openclique-sub010/internal/notify"
	"github.com/OpenClique85/openclique-sub010/internal/opsstream"
	"github.com/OpenClique85/openclique-sub010/internal/repository"
	"github.com/OpenClique85/openclique-sub010/internal/service"
	"github.com/OpenClique85/openclique-sub010/pkg/auth"
	"github.com/OpenClique85/openclique-sub010/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load(config.DefaultPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	err = logger.Initialize(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zapLogger := logger.Logger()

	repo, err := repository.New(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	opsSinks := dispatch.OpsFanout{repo}
	var stream *opsstream.Stream
	if cfg.Redis.Enabled {
		stream, err = opsstream.New(cfg.Redis.Config)
		if err != nil {
			zapLogger.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer stream.Close()
		opsSinks = append(opsSinks, stream)
	}

	hub := notify.NewHub()
	notificationSinks := dispatch.NotificationFanout{repo}
	if cfg.Notifications.WebSocket {
		notificationSinks = append(notificationSinks, hub)
	}

	dispatcher := dispatch.New(repo, opsSinks, notificationSinks, cfg.Dispatch, zapLogger.Named("dispatch"))
	if cfg.Notifications.TelegramChatID != 0 {
		relay, err := notify.NewTelegramRelay(notify.TelegramConfig{
			BotToken: cfg.TelegramAuth.TelegramBotToken,
			ChatID:   cfg.Notifications.TelegramChatID,
		})
		if err != nil {
			zapLogger.Fatal("Failed to initialize telegram relay", zap.Error(err))
		}
		dispatcher.WithMirror(relay)
	}

	questService := service.NewQuestLifecycleService(repo, dispatcher)

	telegramAuth := auth.NewTelegramAuth(cfg.TelegramAuth.TelegramBotToken, cfg.TelegramAuth.DebugMode)
	authorization := middleware.NewAuthorization(repo)

	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{
		http.MethodHead,
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
	}
	corsConfig.AllowHeaders = []string{"*"}
	corsConfig.MaxAge = 12 * time.Hour

	router.Use(cors.New(corsConfig))

	api.NewMetricsRoutes(router)

	a := router.Group("/api/v1")
	adminOnly := []gin.HandlerFunc{telegramAuth.TelegramAuthMiddleware(), authorization.AdminOnly()}
	api.NewQuestRoutes(a, questService, adminOnly...)
	if cfg.Notifications.WebSocket {
		api.NewNotificationRoutes(a, hub, telegramAuth.TelegramAuthMiddleware(), authorization.Profile())
	}
	if stream != nil {
		api.NewOpsEventRoutes(a, stream, adminOnly...)
	}

	srv := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		zapLogger.Info("Starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server shutdown failed", zap.Error(err))
	}
	dispatcher.Wait()
}
