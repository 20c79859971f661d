package auth

import (
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/go-auth-api/internal/config"
)

// NewTokenService builds the session token implementation selected by
// cfg.TokenFormat
func NewTokenService(cfg config.AuthConfig) (TokenService, error) {
	switch cfg.TokenFormat {
	case config.TokenFormatPaseto:
		svc, err := NewPasetoService(cfg.PasetoKey)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PASETO service: %w", err)
		}
		return svc, nil
	case config.TokenFormatJWT:
		svc, err := NewJWTService(cfg.JWTSecret)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
		}
		return svc, nil
	default:
		return nil, fmt.Errorf("unknown token format %q", cfg.TokenFormat)
	}
}

// NewResetTokenStore builds the reset token store for the configured backend.
// rdb may be nil unless backend is redis.
func NewResetTokenStore(backend string, db *bun.DB, rdb *redis.Client) (ResetTokenStore, error) {
	switch backend {
	case config.ResetStorePostgres:
		return NewPostgresResetTokenStore(db), nil
	case config.ResetStoreRedis:
		if rdb == nil {
			return nil, errors.New("redis reset token store requires a redis client")
		}
		return NewRedisResetTokenStore(rdb), nil
	default:
		return nil, fmt.Errorf("unknown reset token store %q", backend)
	}
}
