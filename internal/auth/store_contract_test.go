package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/go-auth-api/internal/auth"
)

// resetStoreContract exercises the behaviour every ResetTokenStore shares.
// newUser creates the account a token belongs to.
func resetStoreContract(t *testing.T, store auth.ResetTokenStore, newUser func(t *testing.T) uuid.UUID) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	newToken := func(t *testing.T, userID uuid.UUID) *auth.ResetToken {
		t.Helper()
		_, hash, err := auth.GenerateResetToken(userID)
		require.NoError(t, err)
		return &auth.ResetToken{
			UserID:    userID,
			TokenHash: hash,
			CreatedAt: now,
			ExpiresAt: now.Add(30 * time.Minute),
		}
	}

	t.Run("replace and consume", func(t *testing.T) {
		userID := newUser(t)
		tok := newToken(t, userID)
		require.NoError(t, store.Replace(ctx, tok))

		_, err := store.Consume(ctx, tok.TokenHash, now.Add(30*time.Minute))
		assert.ErrorIs(t, err, auth.ErrResetTokenNotFound, "expired at exactly expires_at")

		found, err := store.Consume(ctx, tok.TokenHash, now.Add(time.Minute))
		require.NoError(t, err)
		assert.Equal(t, userID, found.UserID)
		assert.True(t, tok.ExpiresAt.Equal(found.ExpiresAt))

		_, err = store.Consume(ctx, tok.TokenHash, now.Add(time.Minute))
		assert.ErrorIs(t, err, auth.ErrResetTokenNotFound, "second use")

		_, err = store.Consume(ctx, "unknown-hash", now)
		assert.ErrorIs(t, err, auth.ErrResetTokenNotFound)
	})

	t.Run("replace supersedes", func(t *testing.T) {
		userID := newUser(t)
		first := newToken(t, userID)
		second := newToken(t, userID)

		require.NoError(t, store.Replace(ctx, first))
		require.NoError(t, store.Replace(ctx, second))

		_, err := store.Consume(ctx, first.TokenHash, now)
		assert.ErrorIs(t, err, auth.ErrResetTokenNotFound)
		_, err = store.Consume(ctx, second.TokenHash, now)
		assert.NoError(t, err)
	})

	t.Run("delete by user", func(t *testing.T) {
		userID := newUser(t)
		tok := newToken(t, userID)
		require.NoError(t, store.Replace(ctx, tok))

		require.NoError(t, store.DeleteByUser(ctx, userID))
		_, err := store.Consume(ctx, tok.TokenHash, now)
		assert.ErrorIs(t, err, auth.ErrResetTokenNotFound)

		assert.NoError(t, store.DeleteByUser(ctx, userID), "deleting twice is fine")
	})

	t.Run("concurrent replace keeps one token", func(t *testing.T) {
		for range 20 {
			userID := newUser(t)
			tokens := []*auth.ResetToken{newToken(t, userID), newToken(t, userID)}

			var wg sync.WaitGroup
			for _, tok := range tokens {
				wg.Add(1)
				go func() {
					defer wg.Done()
					assert.NoError(t, store.Replace(ctx, tok))
				}()
			}
			wg.Wait()

			live := 0
			for _, tok := range tokens {
				if _, err := store.Consume(ctx, tok.TokenHash, now); err == nil {
					live++
				}
			}
			require.Equal(t, 1, live)
		}
	})

	t.Run("concurrent consume succeeds once", func(t *testing.T) {
		tok := newToken(t, newUser(t))
		require.NoError(t, store.Replace(ctx, tok))

		const attempts = 8
		results := make(chan error, attempts)
		var wg sync.WaitGroup
		for range attempts {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := store.Consume(ctx, tok.TokenHash, now)
				results <- err
			}()
		}
		wg.Wait()
		close(results)

		succeeded := 0
		for err := range results {
			if err == nil {
				succeeded++
				continue
			}
			assert.ErrorIs(t, err, auth.ErrResetTokenNotFound)
		}
		assert.Equal(t, 1, succeeded)
	})
}
