package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/bigseized/rksp-final/auth-service/internal/config"
	"github.com/bigseized/rksp-final/auth-service/internal/domain"
	authgrpc "github.com/bigseized/rksp-final/auth-service/internal/grpc"
	"github.com/bigseized/rksp-final/auth-service/internal/handler"
	"github.com/bigseized/rksp-final/auth-service/internal/repository"
	"github.com/bigseized/rksp-final/auth-service/internal/service"
	"github.com/bigseized/rksp-final/pkg/database"
	"github.com/bigseized/rksp-final/pkg/jwt"
	pkglog "github.com/bigseized/rksp-final/pkg/log"
	"github.com/bigseized/rksp-final/pkg/middleware"
	pb "github.com/bigseized/rksp-final/proto/auth"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	pkglog.Init(cfg.Log)
	defer pkglog.Close()
	logger := pkglog.L()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize JWT manager
	jwtManager, err := jwt.NewManager(
		cfg.JWT.Secret,
		cfg.JWT.AccessDuration,
		cfg.JWT.RefreshDuration,
		cfg.JWT.Issuer,
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create JWT manager")
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.AutoMigrate(db, &domain.AccountModel{}); err != nil {
		logger.Fatal().Err(err).Msg("failed to auto-migrate")
	}

	accounts := service.NewAccountService(
		repository.NewGormAccountRepository(db),
		jwtManager,
		service.Options{BcryptCost: cfg.Password.BcryptCost, MinPasswordLength: cfg.Password.MinLength},
	)

	// gRPC server with logging interceptor
	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(pkglog.UnaryServerInterceptor(logger)),
	)
	pb.RegisterAuthServiceServer(grpcServer, authgrpc.NewTokenServer(jwtManager))

	grpcAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.GRPCPort)
	listener, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		logger.Fatal().Str("addr", grpcAddr).Err(err).Msg("failed to listen")
	}

	// REST
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), pkglog.GinMiddleware(logger, "/health"))
	handler.NewHandler(accounts, middleware.NewAuthMiddleware(accounts)).RegisterRoutes(r)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", grpcAddr).Msg("auth gRPC server starting")
		return grpcServer.Serve(listener)
	})

	g.Go(func() error {
		logger.Info().Str("addr", httpServer.Addr).Msg("auth HTTP server starting")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(cfg.JWT.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				jwtManager.CleanupExpiredRevocations()
			}
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down auth service")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		grpcServer.GracefulStop()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("auth service stopped with error")
		os.Exit(1)
	}
	logger.Info().Msg("auth service stopped")
}
