package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"chat-store/internal/config"
	"chat-store/internal/db"
	"chat-store/internal/handlers"
	"chat-store/internal/logger"
	"chat-store/internal/middleware"
	"chat-store/internal/observability"
	"chat-store/internal/rabbitmq"
	"chat-store/internal/repositories"
	"chat-store/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(cfg.Logging.Mode)
	if err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.Tracing, cfg.Server.Environment, log)
	if err != nil {
		log.Fatal("failed to init tracing", "error", err)
	}

	database, err := db.Open(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("failed to open database", "driver", cfg.Database.Driver, "error", err)
	}
	defer database.Close()

	publisher := rabbitmq.NewPublisher(cfg.Audit.AMQPURL, cfg.Audit.Exchange, log)
	defer publisher.Close()
	log.Info("audit publisher ready",
		"mode", rabbitmq.PublisherMode(publisher),
		"noop_reason", rabbitmq.PublisherNoopReason(publisher),
	)
	audit := telemetry.NewAuditEmitter(publisher, cfg.Audit.RoutingKey, cfg.Tracing.ServiceName, cfg.Server.Environment, log)

	clock := repositories.SystemClock{}
	userRepo := repositories.NewUserRepo(database, log, clock)
	groupRepo := repositories.NewContactGroupRepo(database, log)
	agentRepo := repositories.NewAgentRepo(database, log)
	chatRepo := repositories.NewChatRepo(database, log, clock)
	messageRepo := repositories.NewMessageRepo(database, log, clock)
	readStateRepo := repositories.NewReadStateRepo(database, log, clock)
	contactRepo := repositories.NewContactRepo(database, log, clock)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	router.Use(observability.HTTPMetricsMiddleware())
	router.Use(middleware.AccessLog(log))
	if len(cfg.Server.CORSAllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.Server.CORSAllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", middleware.UserIDHeader, observability.RequestIDHeader},
			ExposeHeaders:    []string{observability.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		if err := database.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	handlers.RegisterDebugRoutes(router, audit, cfg.Server.DebugRoutes)

	handlers.RegisterRoutes(router, handlers.Handlers{
		Chats:    handlers.NewChatHandler(chatRepo, audit),
		Messages: handlers.NewMessageHandler(messageRepo, readStateRepo),
		Contacts: handlers.NewContactHandler(contactRepo, groupRepo, audit),
		Users:    handlers.NewUserHandler(userRepo, agentRepo),
	}, middleware.CurrentUser(userRepo))

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("chat store listening", "port", cfg.Server.Port, "driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown failed", "error", err)
	}
}
