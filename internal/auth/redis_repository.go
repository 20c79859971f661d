package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const resetTokenKeyPrefix = "password_reset:"

// RedisResetTokenStore keeps reset tokens in Redis. Keys expire with the token,
// so no pruning is needed.
//
// Every operation that touches both the token key and the user pointer runs as
// one Lua script, so concurrent requests for the same user cannot leave two
// live tokens behind.
type RedisResetTokenStore struct {
	client *redis.Client
}

func NewRedisResetTokenStore(client *redis.Client) *RedisResetTokenStore {
	return &RedisResetTokenStore{client: client}
}

// resetTokenKey holds the token fields, addressed by hash
func resetTokenKey(tokenHash string) string {
	return resetTokenKeyPrefix + tokenHash
}

// userResetKey points from a user to the hash of their current token
func userResetKey(userID uuid.UUID) string {
	return fmt.Sprintf("%suser:%s", resetTokenKeyPrefix, userID.String())
}

// KEYS[1] user pointer, KEYS[2] new token key
// ARGV: prefix, user id, created_at ms, expires_at ms, ttl ms, new hash
var replaceResetTokenScript = redis.NewScript(`
local previous = redis.call('GET', KEYS[1])
if previous then
	redis.call('DEL', ARGV[1] .. previous)
end
redis.call('HSET', KEYS[2], 'user_id', ARGV[2], 'created_at', ARGV[3], 'expires_at', ARGV[4])
redis.call('PEXPIRE', KEYS[2], ARGV[5])
redis.call('SET', KEYS[1], ARGV[6], 'PX', ARGV[5])
return 1
`)

// KEYS[1] token key
// ARGV: now ms, user pointer prefix, token hash
var consumeResetTokenScript = redis.NewScript(`
local data = redis.call('HMGET', KEYS[1], 'user_id', 'created_at', 'expires_at')
if not data[1] or not data[3] then
	return false
end
if tonumber(data[3]) <= tonumber(ARGV[1]) then
	return false
end
redis.call('DEL', KEYS[1])
local userKey = ARGV[2] .. data[1]
if redis.call('GET', userKey) == ARGV[3] then
	redis.call('DEL', userKey)
end
return data
`)

// KEYS[1] user pointer
// ARGV: prefix
var deleteUserResetTokenScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if current then
	redis.call('DEL', KEYS[1], ARGV[1] .. current)
end
return 1
`)

// Replace drops the user's previous token and writes t atomically
func (r *RedisResetTokenStore) Replace(ctx context.Context, t *ResetToken) error {
	ttl := t.ExpiresAt.Sub(t.CreatedAt)
	if ttl <= 0 {
		return fmt.Errorf("token expiration time is not after creation time")
	}

	keys := []string{userResetKey(t.UserID), resetTokenKey(t.TokenHash)}
	err := replaceResetTokenScript.Run(ctx, r.client, keys,
		resetTokenKeyPrefix,
		t.UserID.String(),
		t.CreatedAt.UnixMilli(),
		t.ExpiresAt.UnixMilli(),
		ttl.Milliseconds(),
		t.TokenHash,
	).Err()
	if err != nil {
		return fmt.Errorf("failed to store password reset token: %w", err)
	}

	return nil
}

// Consume deletes and returns the token stored under tokenHash if it has not
// expired at now
func (r *RedisResetTokenStore) Consume(ctx context.Context, tokenHash string, now time.Time) (*ResetToken, error) {
	fields, err := consumeResetTokenScript.Run(ctx, r.client,
		[]string{resetTokenKey(tokenHash)},
		now.UnixMilli(),
		resetTokenKeyPrefix+"user:",
		tokenHash,
	).StringSlice()
	if errors.Is(err, redis.Nil) {
		return nil, ErrResetTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to consume password reset token: %w", err)
	}
	if len(fields) != 3 {
		return nil, fmt.Errorf("unexpected reset token reply with %d fields", len(fields))
	}

	userID, err := uuid.Parse(fields[0])
	if err != nil {
		return nil, fmt.Errorf("failed to parse user ID: %w", err)
	}

	createdAtMs, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	expiresAtMs, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse expires_at: %w", err)
	}

	return &ResetToken{
		UserID:    userID,
		TokenHash: tokenHash,
		CreatedAt: time.UnixMilli(createdAtMs),
		ExpiresAt: time.UnixMilli(expiresAtMs),
	}, nil
}

// DeleteByUser removes the user's token and the pointer to it
func (r *RedisResetTokenStore) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	err := deleteUserResetTokenScript.Run(ctx, r.client,
		[]string{userResetKey(userID)},
		resetTokenKeyPrefix,
	).Err()
	if err != nil {
		return fmt.Errorf("failed to delete password reset token: %w", err)
	}

	return nil
}

// DeleteExpired is a no-op: Redis evicts expired keys on its own
func (r *RedisResetTokenStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}
