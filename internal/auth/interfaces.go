package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/go-auth-api/internal/user"
)

// TokenService defines the interface for session token creation and validation.
// Implementations include PasetoService (PASETO v4.local) and JWTService (HS256).
type TokenService interface {
	CreateToken(userID uuid.UUID, duration time.Duration) (string, error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}

// UserStore is the credential store the service reads and writes accounts through
type UserStore interface {
	Create(ctx context.Context, name, email, passwordHash string) (*user.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	Save(ctx context.Context, u *user.User) (*user.User, error)
}

// ResetTokenStore persists hashed password reset tokens, at most one per user
type ResetTokenStore interface {
	// Replace removes any token held by t.UserID and stores t in its place.
	Replace(ctx context.Context, t *ResetToken) error

	// Consume atomically deletes and returns the token with the given hash whose
	// expiry is after now, or returns ErrResetTokenNotFound. A token can be
	// consumed once.
	Consume(ctx context.Context, tokenHash string, now time.Time) (*ResetToken, error)

	// DeleteByUser removes the user's token if there is one.
	DeleteByUser(ctx context.Context, userID uuid.UUID) error

	// DeleteExpired purges tokens that expired at or before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// EmailService delivers password reset links
type EmailService interface {
	SendPasswordResetEmail(ctx context.Context, toEmail, name, resetToken string) error
}
