package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/bigseized/rksp-final/chat-service/internal/avatar"
	"github.com/bigseized/rksp-final/chat-service/internal/client"
	"github.com/bigseized/rksp-final/chat-service/internal/config"
	"github.com/bigseized/rksp-final/chat-service/internal/domain"
	"github.com/bigseized/rksp-final/chat-service/internal/handler"
	"github.com/bigseized/rksp-final/chat-service/internal/hub"
	"github.com/bigseized/rksp-final/chat-service/internal/metrics"
	"github.com/bigseized/rksp-final/chat-service/internal/registry"
	"github.com/bigseized/rksp-final/chat-service/internal/repository"
	"github.com/bigseized/rksp-final/chat-service/internal/service"
	"github.com/bigseized/rksp-final/pkg/authn"
	"github.com/bigseized/rksp-final/pkg/database"
	"github.com/bigseized/rksp-final/pkg/log"
	"github.com/bigseized/rksp-final/pkg/middleware"
	"github.com/bigseized/rksp-final/pkg/pubsub"
	"github.com/bigseized/rksp-final/pkg/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log.Init(cfg.Log)
	defer log.Close()
	l := log.L()

	if cfg.Server.InstanceID == "" {
		cfg.Server.InstanceID = uuid.New().String()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	db, err := database.New(&cfg.Database)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.AutoMigrate(db, domain.Models()...); err != nil {
		l.Fatal().Err(err).Msg("failed to auto-migrate")
	}
	l.Info().Str("driver", cfg.Database.Driver).Msg("database ready")

	// Token validation
	authClient, err := client.NewAuthClient(cfg.Auth.GRPCAddress, cfg.Auth.Timeout)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to create auth client")
	}
	defer authClient.Close()

	var validator authn.Validator = authClient
	if cfg.Auth.Cache.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		validator = client.NewCachedValidator(authClient, rdb, cfg.Auth.Cache.TTL, cfg.Auth.Cache.Prefix)
		l.Info().Dur("ttl", cfg.Auth.Cache.TTL).Msg("token validation cache enabled")
	}

	// Domain events
	events, err := pubsub.NewPubSub(cfg.PubSub)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to initialize pubsub")
	}
	defer events.Close()

	// Avatar storage
	blobs, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to initialize storage")
	}

	// Session registry lives for the process and is emptied on shutdown.
	sessions := registry.NewSessionRegistry()
	defer sessions.Close()

	wsHub := hub.NewHub()

	var collectors *metrics.Metrics
	if cfg.Metrics.Enabled {
		collectors = metrics.New()
	}

	chatRepo := repository.NewGormChatRepository(db)
	userRepo := repository.NewGormUserRepository(db)
	router := service.NewMessageRouter(chatRepo, wsHub, events, cfg.Server.InstanceID).WithMetrics(collectors)
	chatSvc := service.NewChatService(chatRepo, userRepo, router, events, cfg.Server.InstanceID)
	userSvc := service.NewUserService(userRepo, blobs, avatar.NewProcessor(cfg.Avatar.Size, cfg.Avatar.JPEGQuality, cfg.Avatar.MaxBytes))

	authMiddleware := middleware.NewAuthMiddleware(validator)
	authMiddleware.OnAuthenticated(func(c *gin.Context, res authn.Result) {
		if err := userSvc.Sync(c.Request.Context(), res); err != nil {
			lc := log.Ctx(c.Request.Context())
			lc.Warn().Err(err).Msg("failed to sync user projection")
		}
	})

	// HTTP
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), log.GinMiddleware(l, "/health", cfg.Metrics.Path))
	handler.NewHandler(chatSvc, userSvc, authMiddleware, cfg.Avatar.MaxBytes).RegisterRoutes(r)
	handler.NewWSHandler(wsHub, chatSvc, userSvc, validator, sessions, cfg.WebSocket).WithMetrics(collectors).RegisterRoutes(r)
	if collectors != nil {
		r.GET(cfg.Metrics.Path, gin.WrapH(collectors.Handler()))
	}

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		wsHub.Run(gctx)
		return nil
	})

	if cfg.PubSub.Driver != "" && cfg.PubSub.Driver != "none" {
		relayed, err := events.SubscribePattern(gctx, pubsub.PatternAllChats)
		if err != nil {
			l.Fatal().Err(err).Msg("failed to subscribe to chat events")
		}
		g.Go(func() error {
			router.Relay(gctx, relayed)
			return nil
		})
	}

	g.Go(func() error {
		l.Info().Str("addr", server.Addr).Str("instance", cfg.Server.InstanceID).Msg("chat service listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		l.Info().Msg("shutting down chat service")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		l.Error().Err(err).Msg("chat service stopped with error")
		return
	}
	l.Info().Msg("chat service stopped")
}
