package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/go-auth-api/cmd/authctl/ui"
	"github.com/redmonkez12/go-auth-api/internal/auth"
	"github.com/redmonkez12/go-auth-api/internal/config"
	"github.com/redmonkez12/go-auth-api/internal/database"
	"github.com/redmonkez12/go-auth-api/internal/email"
	"github.com/redmonkez12/go-auth-api/internal/logging"
	"github.com/redmonkez12/go-auth-api/internal/user"
)

// env holds the connections a command opened; Close releases them
type env struct {
	cfg    *config.Config
	logger *logging.Logger
	db     *bun.DB
	redis  *redis.Client
}

func openEnv(ctx context.Context, withRedis bool) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	e := &env{
		cfg:    cfg,
		logger: logging.NewLogger(false),
	}

	e.db, err = database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	if withRedis && cfg.UsesRedis() {
		e.redis, err = database.OpenRedis(ctx, cfg.Redis)
		if err != nil {
			e.db.Close()
			return nil, err
		}
	}

	return e, nil
}

func (e *env) Close() {
	if e.redis != nil {
		e.redis.Close()
	}
	e.db.Close()
}

// authService wires the same service the API server runs
func (e *env) authService() (*auth.Service, error) {
	tokens, err := auth.NewTokenService(e.cfg.Auth)
	if err != nil {
		return nil, err
	}

	resets, err := auth.NewResetTokenStore(e.cfg.Auth.ResetTokenStore, e.db, e.redis)
	if err != nil {
		return nil, err
	}

	return auth.NewService(
		user.NewRepository(e.db),
		resets,
		tokens,
		auth.NewArgon2idHasher(auth.DefaultArgon2Params),
		email.NewService(e.cfg.Email, e.cfg.Auth.ResetTokenTTL),
		e.logger,
		e.cfg.Auth.SessionDuration,
		e.cfg.Auth.ResetTokenTTL,
	), nil
}

func printError(err error) {
	ui.PrintError(err.Error())
}
