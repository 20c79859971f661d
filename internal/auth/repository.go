package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/go-auth-api/internal/database"
)

// PostgresResetTokenStore keeps reset tokens in the password_reset_tokens table
type PostgresResetTokenStore struct {
	db *bun.DB
}

func NewPostgresResetTokenStore(db *bun.DB) *PostgresResetTokenStore {
	return &PostgresResetTokenStore{db: db}
}

// Replace stores t as the user's only token. A concurrent Replace for the
// same user cannot fail on the unique user_id index: the later write wins.
func (r *PostgresResetTokenStore) Replace(ctx context.Context, t *ResetToken) error {
	dbToken := &database.PasswordResetToken{
		ID:        uuid.New(),
		UserID:    t.UserID,
		TokenHash: t.TokenHash,
		CreatedAt: t.CreatedAt,
		ExpiresAt: t.ExpiresAt,
	}

	_, err := r.db.NewInsert().
		Model(dbToken).
		On("CONFLICT (user_id) DO UPDATE").
		Set("token_hash = EXCLUDED.token_hash").
		Set("created_at = EXCLUDED.created_at").
		Set("expires_at = EXCLUDED.expires_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to store password reset token: %w", err)
	}

	return nil
}

// Consume deletes the unexpired token with the given hash and returns it.
// Only one of several concurrent callers gets the row.
func (r *PostgresResetTokenStore) Consume(ctx context.Context, tokenHash string, now time.Time) (*ResetToken, error) {
	dbToken := new(database.PasswordResetToken)
	result, err := r.db.NewDelete().
		Model(dbToken).
		Where("token_hash = ?", tokenHash).
		Where("expires_at > ?", now).
		Returning("*").
		Exec(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrResetTokenNotFound
		}
		return nil, fmt.Errorf("failed to consume password reset token: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return nil, ErrResetTokenNotFound
	}

	return mapDBResetTokenToModel(dbToken), nil
}

// DeleteByUser removes the user's token
func (r *PostgresResetTokenStore) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.NewDelete().
		Model((*database.PasswordResetToken)(nil)).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete password reset token: %w", err)
	}

	return nil
}

// DeleteExpired removes tokens past their expiry.
// Should be run periodically (authctl reset-tokens prune).
func (r *PostgresResetTokenStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.NewDelete().
		Model((*database.PasswordResetToken)(nil)).
		Where("expires_at <= ?", now).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired reset tokens: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check rows affected: %w", err)
	}

	return n, nil
}

// mapDBResetTokenToModel converts database model to domain model
func mapDBResetTokenToModel(dbt *database.PasswordResetToken) *ResetToken {
	return &ResetToken{
		UserID:    dbt.UserID,
		TokenHash: dbt.TokenHash,
		CreatedAt: dbt.CreatedAt,
		ExpiresAt: dbt.ExpiresAt,
	}
}
