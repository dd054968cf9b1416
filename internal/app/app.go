package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"challenge-hub/internal/auth"
	"challenge-hub/internal/cache"
	"challenge-hub/internal/config"
	"challenge-hub/internal/database"
	"challenge-hub/internal/handler"
	"challenge-hub/internal/mailer"
	"challenge-hub/internal/metrics"
	"challenge-hub/internal/middleware"
	"challenge-hub/internal/repository"
	"challenge-hub/internal/router"
	"challenge-hub/internal/service"
)

type App struct {
	server       *http.Server
	db           *database.DB
	cleanupFuncs []func()
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(context.Background(), cfg.DatabaseURL, database.Options{
		MaxConns:          cfg.DBMaxConns,
		MinConns:          cfg.DBMinConns,
		ConnLifetime:      cfg.DBConnLifetime,
		ConnIdleTime:      cfg.DBConnIdleTime,
		HealthCheckPeriod: cfg.DBHealthPeriod,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}
	slog.Info("database ready")

	challengeCache, err := cache.New(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	slog.Info("cache ready", "addr", cfg.RedisAddr)

	var mail mailer.Mailer
	if cfg.SMTPUsername != "" {
		mail = mailer.NewSMTPMailer(cfg.SMTPAddr, cfg.SMTPFrom, cfg.SMTPUsername, cfg.SMTPPassword)
	} else {
		slog.Warn("SMTP credentials absent, one-time codes will be logged instead of mailed")
		mail = mailer.LogMailer{}
	}

	pool := db.Pool
	userRepo := repository.NewUserRepository(pool)
	challengeRepo := repository.NewChallengeRepository(pool)

	hasher := auth.NewHasher(cfg.BcryptCost)
	tokens := auth.NewTokenIssuer(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	otpService := service.NewOTPService(userRepo, hasher, cfg.OTPTTL)
	authService := service.NewAuthService(userRepo, hasher, otpService, tokens, mail)
	userService := service.NewUserService(userRepo)
	challengeService := service.NewChallengeService(challengeRepo, challengeCache)

	m := metrics.New()
	authMiddleware := middleware.NewAuthMiddleware(authService, m)

	appRouter := router.New(cfg, authMiddleware, router.Handlers{
		Auth:      handler.NewAuthHandler(authService, cfg.CookieSecure),
		User:      handler.NewUserHandler(userService),
		Challenge: handler.NewChallengeHandler(challengeService),
	}, m, map[string]router.HealthChecker{
		"database": func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return db.Health(ctx)
		},
		"cache": func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return challengeCache.Health(ctx)
		},
	})

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{
		server: server,
		db:     db,
		cleanupFuncs: []func(){
			func() {
				if closeErr := challengeCache.Close(); closeErr != nil {
					slog.Warn("cache close failed", "error", closeErr)
				}
			},
			func() {
				db.Close()
			},
		},
	}, nil
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	err := a.server.Shutdown(ctx)
	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}
	return err
}
