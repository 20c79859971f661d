package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ResetTokenBytes is the entropy of a reset secret before the user id suffix
const ResetTokenBytes = 32

// ResetToken is a stored password reset request. The raw secret is never kept.
type ResetToken struct {
	UserID    uuid.UUID
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsExpired reports whether the token is no longer usable at now
func (t *ResetToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// GenerateResetToken returns a URL-safe secret (64 hex chars followed by the
// user id) for the e-mail and the SHA-256 hash to store
func GenerateResetToken(userID uuid.UUID) (token, hash string, err error) {
	b := make([]byte, ResetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("failed to generate reset token: %w", err)
	}

	token = hex.EncodeToString(b) + userID.String()
	return token, hashToken(token), nil
}

// hashToken is the deterministic lookup hash for reset secrets
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
