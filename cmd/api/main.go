package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	_ "github.com/redmonkez12/go-auth-api/docs" // Swagger docs (generated)
	"github.com/redmonkez12/go-auth-api/internal/auth"
	"github.com/redmonkez12/go-auth-api/internal/config"
	"github.com/redmonkez12/go-auth-api/internal/database"
	"github.com/redmonkez12/go-auth-api/internal/database/migrations"
	"github.com/redmonkez12/go-auth-api/internal/email"
	httpServer "github.com/redmonkez12/go-auth-api/internal/http"
	"github.com/redmonkez12/go-auth-api/internal/logging"
	"github.com/redmonkez12/go-auth-api/internal/user"
)

// @title           Go Auth API
// @version         1.0
// @description     User registration, cookie sessions, profile management and e-mailed password reset.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.

const startupTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"token_format", cfg.Auth.TokenFormat,
		"reset_token_store", cfg.Auth.ResetTokenStore,
	)

	startupCtx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	db, err := database.Open(startupCtx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		group, err := migrations.Up(startupCtx, db)
		if err != nil {
			return err
		}
		if group.IsZero() {
			logger.Info("database schema up to date")
		} else {
			logger.Info("applied migrations", "group", group.String())
		}
	}

	checks := []httpServer.HealthCheck{httpServer.PostgresCheck(db)}

	var redisClient *redis.Client
	if cfg.UsesRedis() {
		redisClient, err = database.OpenRedis(startupCtx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to initialize Redis: %w", err)
		}
		defer redisClient.Close()
		checks = append(checks, httpServer.RedisCheck(redisClient))
	}

	userRepo := user.NewRepository(db)

	resetStore, err := auth.NewResetTokenStore(cfg.Auth.ResetTokenStore, db, redisClient)
	if err != nil {
		return err
	}

	tokenService, err := auth.NewTokenService(cfg.Auth)
	if err != nil {
		return err
	}

	emailService := email.NewService(cfg.Email, cfg.Auth.ResetTokenTTL)

	authService := auth.NewService(
		userRepo,
		resetStore,
		tokenService,
		auth.NewArgon2idHasher(auth.DefaultArgon2Params),
		emailService,
		logger,
		cfg.Auth.SessionDuration,
		cfg.Auth.ResetTokenTTL,
	)

	authHandler := auth.NewHandler(authService)
	authMiddleware := auth.NewMiddleware(tokenService)

	router := httpServer.NewRouter(cfg, authHandler, authMiddleware, logger, checks...)

	server := httpServer.NewServer(
		cfg.Server.Address(),
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("received signal", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}
