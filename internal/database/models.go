package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the persisted form of an account
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           uuid.UUID `bun:"id,pk,type:uuid"`
	Name         string    `bun:"name,notnull"`
	Email        string    `bun:"email,notnull,unique:users_email_key"`
	PasswordHash string    `bun:"password_hash,notnull"`
	Photo        string    `bun:"photo,notnull,default:''"`
	Phone        string    `bun:"phone,notnull,default:''"`
	Bio          string    `bun:"bio,notnull,default:''"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt    time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// PasswordResetToken stores the SHA-256 hash of a reset secret. One row per user.
type PasswordResetToken struct {
	bun.BaseModel `bun:"table:password_reset_tokens,alias:prt"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	UserID    uuid.UUID `bun:"user_id,notnull,type:uuid,unique:password_reset_tokens_user_id_key"`
	TokenHash string    `bun:"token_hash,notnull,unique:password_reset_tokens_token_hash_key"`
	CreatedAt time.Time `bun:"created_at,notnull"`
	ExpiresAt time.Time `bun:"expires_at,notnull"`
}

// UsersEmailKey is the unique constraint on users.email
const UsersEmailKey = "users_email_key"
