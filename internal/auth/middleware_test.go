package auth

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/go-auth-api/internal/httputil"
)

func TestRequireAuth(t *testing.T) {
	env := newTestEnv(t)
	mw := NewMiddleware(env.tokens)

	var gotID uuid.UUID
	protected := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = GetUserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	userID := uuid.New()
	valid, err := env.tokens.CreateToken(userID, time.Hour)
	require.NoError(t, err)
	expired, err := env.tokens.CreateToken(userID, -time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name       string
		opts       []requestOption
		wantStatus int
		wantCode   string
	}{
		{"no credentials", nil, http.StatusUnauthorized, httputil.CodeMissingAuth},
		{"cookie", []requestOption{withCookie(valid)}, http.StatusNoContent, ""},
		{"bearer", []requestOption{withBearer(valid)}, http.StatusNoContent, ""},
		{"malformed header", []requestOption{func(r *http.Request) { r.Header.Set("Authorization", "Token abc") }}, http.StatusUnauthorized, httputil.CodeInvalidAuthHeader},
		{"expired", []requestOption{withCookie(expired)}, http.StatusUnauthorized, httputil.CodeTokenExpired},
		{"garbage", []requestOption{withBearer("garbage")}, http.StatusUnauthorized, httputil.CodeInvalidToken},
		{"header wins over cookie", []requestOption{withCookie("garbage"), withBearer(valid)}, http.StatusNoContent, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotID = uuid.Nil

			rec := doRequest(t, protected, http.MethodGet, "/", nil, tt.opts...)
			assert.Equal(t, tt.wantStatus, rec.Code)

			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
				assert.Equal(t, uuid.Nil, gotID)
				return
			}
			assert.Equal(t, userID, gotID)
		})
	}
}
