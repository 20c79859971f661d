package auth

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/go-auth-api/internal/httputil"
)

// newTestRouter mounts the handlers the same way the API router does
func newTestRouter(env *testEnv) http.Handler {
	h := NewHandler(env.svc)
	mw := NewMiddleware(env.tokens)

	r := chi.NewRouter()
	r.Route("/api/users", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Get("/logout", h.Logout)
		r.Get("/loggedin", h.LoggedIn)
		r.Post("/forgotpassword", h.ForgotPassword)
		r.Put("/resetpassword/{resetToken}", h.ResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAuth)
			r.Get("/getuser", h.GetUser)
			r.Patch("/updateuser", h.UpdateUser)
			r.Patch("/changepassword", h.ChangePassword)
		})
	})
	return r
}

type requestOption func(*http.Request)

func withCookie(token string) requestOption {
	return func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	}
}

func withBearer(token string) requestOption {
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	}
}

func withHeader(key, value string) requestOption {
	return func(r *http.Request) {
		r.Header.Set(key, value)
	}
}

func doRequest(t *testing.T, h http.Handler, method, path string, body any, opts ...requestOption) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, opt := range opts {
		opt(req)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) httputil.ErrorResponse {
	t.Helper()
	var resp httputil.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName {
			return c
		}
	}
	t.Fatalf("no %q cookie set", SessionCookieName)
	return nil
}

func registerUser(t *testing.T, h http.Handler, name, email, password string) ProfileResponse {
	t.Helper()
	rec := doRequest(t, h, http.MethodPost, "/api/users/register", RegisterRequest{Name: name, Email: email, Password: password})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var profile ProfileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	return profile
}

func TestHandler_Register(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(env)

	rec := doRequest(t, router, http.MethodPost, "/api/users/register", RegisterRequest{Name: "A", Email: "a@x.com", Password: "secret1"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["_id"])
	assert.Equal(t, "A", body["name"])
	assert.Equal(t, "a@x.com", body["email"])
	assert.NotEmpty(t, body["token"])
	assert.NotContains(t, body, "password")
	assert.NotContains(t, body, "password_hash")

	cookie := sessionCookie(t, rec)
	assert.Equal(t, body["token"], cookie.Value)
	assert.Equal(t, "/", cookie.Path)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteNoneMode, cookie.SameSite)
	assert.Equal(t, env.clock.Add(env.svc.sessionDuration).Unix(), cookie.Expires.Unix())
}

func TestHandler_Register_Errors(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(env)
	registerUser(t, router, "A", "a@x.com", "secret1")

	tests := []struct {
		name    string
		body    any
		message string
		code    string
	}{
		{"duplicate", RegisterRequest{Name: "B", Email: "a@x.com", Password: "secret1"}, "Email allready Exist", httputil.CodeEmailAlreadyExists},
		{"missing fields", RegisterRequest{Email: "b@x.com"}, "Please fill in all required fields", httputil.CodeMissingFields},
		{"short password", RegisterRequest{Name: "B", Email: "b@x.com", Password: "123"}, "Password must be at least 6 characters", httputil.CodePasswordTooShort},
		{"bad email", RegisterRequest{Name: "B", Email: "nope", Password: "secret1"}, "Please enter a valid email", httputil.CodeInvalidEmailFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodPost, "/api/users/register", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			resp := decodeError(t, rec)
			assert.Equal(t, tt.message, resp.Error)
			assert.Equal(t, tt.code, resp.Code)
		})
	}
}

func TestHandler_InvalidBody(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(env)

	req := httptest.NewRequest(http.MethodPost, "/api/users/login", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, httputil.CodeInvalidRequestBody, decodeError(t, rec).Code)
}

func TestHandler_Login(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(env)
	registered := registerUser(t, router, "A", "a@x.com", "secret1")

	rec := doRequest(t, router, http.MethodPost, "/api/users/login", LoginRequest{Email: "a@x.com", Password: "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)

	var profile ProfileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	assert.Equal(t, registered.ID, profile.ID)
	assert.NotEmpty(t, profile.Token)
	assert.Equal(t, profile.Token, sessionCookie(t, rec).Value)
}

func TestHandler_Login_InvalidCredentials(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(env)
	registerUser(t, router, "A", "a@x.com", "secret1")

	for _, body := range []LoginRequest{
		{Email: "a@x.com", Password: "wrong-password"},
		{Email: "nobody@x.com", Password: "secret1"},
	} {
		rec := doRequest(t, router, http.MethodPost, "/api/users/login", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		resp := decodeError(t, rec)
		assert.Equal(t, "Invalid email or password", resp.Error)
		assert.Equal(t, httputil.CodeInvalidCredentials, resp.Code)
		assert.Empty(t, rec.Result().Cookies())
	}
}

func TestHandler_Logout(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(env)

	rec := doRequest(t, router, http.MethodGet, "/api/users/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	cookie := sessionCookie(t, rec)
	assert.Empty(t, cookie.Value)
	assert.Less(t, cookie.MaxAge, 0)
	assert.Equal(t, int64(0), cookie.Expires.Unix())
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteNoneMode, cookie.SameSite)

	var resp httputil.MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Successfully Logged Out", resp.Message)
}

func TestHandler_LoggedIn(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(env)
	profile := registerUser(t, router, "A", "a@x.com", "secret1")

	tests := []struct {
		name string
		opts []requestOption
		want string
	}{
		{"no cookie", nil, "false"},
		{"valid cookie", []requestOption{withCookie(profile.Token)}, "true"},
		{"valid bearer", []requestOption{withBearer(profile.Token)}, "true"},
		{"garbage cookie", []requestOption{withCookie("garbage")}, "false"},
		{"valid cookie with basic auth header", []requestOption{withCookie(profile.Token), withHeader("Authorization", "Basic dXNlcjpwYXNz")}, "true"},
		{"valid cookie with stale bearer", []requestOption{withCookie(profile.Token), withBearer("stale-or-garbage")}, "true"},
		{"garbage cookie with valid bearer", []requestOption{withCookie("garbage"), withBearer(profile.Token)}, "true"},
		{"basic auth header only", []requestOption{withHeader("Authorization", "Basic dXNlcjpwYXNz")}, "false"},
		{"tampered cookie", []requestOption{withCookie(tamper(profile.Token))}, "false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodGet, "/api/users/loggedin", nil, tt.opts...)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, strings.TrimSpace(rec.Body.String()))
		})
	}
}

func TestHandler_GetUser(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(env)
	profile := registerUser(t, router, "A", "a@x.com", "secret1")

	rec := doRequest(t, router, http.MethodGet, "/api/users/getuser", nil, withCookie(profile.Token))
	require.Equal(t, http.StatusOK, rec.Code)

	var got ProfileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, profile.ID, got.ID)
	assert.Equal(t, "a@x.com", got.Email)
	assert.Empty(t, got.Token)

	rec = doRequest(t, router, http.MethodGet, "/api/users/getuser", nil, withBearer(profile.Token))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_GetUser_Deleted(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(env)
	profile := registerUser(t, router, "A", "a@x.com", "secret1")
	env.users.delete(profile.ID)

	rec := doRequest(t, router, http.MethodGet, "/api/users/getuser", nil, withCookie(profile.Token))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, httputil.CodeUserNotFound, decodeError(t, rec).Code)
}

func TestHandler_UpdateUser(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(env)
	profile := registerUser(t, router, "A", "a@x.com", "secret1")

	rec := doRequest(t, router, http.MethodPatch, "/api/users/updateuser",
		map[string]string{"name": "Alice", "bio": "hello", "email": "evil@x.com"},
		withCookie(profile.Token))
	require.Equal(t, http.StatusOK, rec.Code)

	var got ProfileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Alice", got.Name)
	assert.Equal(t, "hello", got.Bio)
	assert.Equal(t, "a@x.com", got.Email)

	env.users.delete(profile.ID)
	rec = doRequest(t, router, http.MethodPatch, "/api/users/updateuser", UpdateUserRequest{Name: "x"}, withCookie(profile.Token))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_ChangePassword(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(env)
	profile := registerUser(t, router, "A", "a@x.com", "secret1")

	rec := doRequest(t, router, http.MethodPatch, "/api/users/changepassword",
		ChangePasswordRequest{OldPassword: "wrong-old", Password: "secret2"}, withCookie(profile.Token))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Old password is incorrect", decodeError(t, rec).Error)

	rec = doRequest(t, router, http.MethodPatch, "/api/users/changepassword",
		ChangePasswordRequest{OldPassword: "secret1", Password: "secret2"}, withCookie(profile.Token))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/api/users/login", LoginRequest{Email: "a@x.com", Password: "secret2"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_ForgotAndResetPassword(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(env)
	registerUser(t, router, "A", "a@x.com", "secret1")

	rec := doRequest(t, router, http.MethodPost, "/api/users/forgotpassword", ForgotPasswordRequest{Email: "a@x.com"})
	require.Equal(t, http.StatusOK, rec.Code)

	var forgot ForgotPasswordResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &forgot))
	assert.True(t, forgot.Success)
	assert.NotEmpty(t, forgot.Message)

	raw := env.emailer.last(t).token

	rec = doRequest(t, router, http.MethodPut, "/api/users/resetpassword/"+raw, ResetPasswordRequest{Password: "newpass1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doRequest(t, router, http.MethodPost, "/api/users/login", LoginRequest{Email: "a@x.com", Password: "newpass1"})
	assert.Equal(t, http.StatusOK, rec.Code)

	// Single use
	rec = doRequest(t, router, http.MethodPut, "/api/users/resetpassword/"+raw, ResetPasswordRequest{Password: "newpass2"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Invalid or expired token", decodeError(t, rec).Error)
}

func TestHandler_ForgotPassword_Errors(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(env)
	registerUser(t, router, "A", "a@x.com", "secret1")

	rec := doRequest(t, router, http.MethodPost, "/api/users/forgotpassword", ForgotPasswordRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/api/users/forgotpassword", ForgotPasswordRequest{Email: "nobody@x.com"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", decodeError(t, rec).Error)

	env.emailer.err = errors.New("smtp down")
	rec = doRequest(t, router, http.MethodPost, "/api/users/forgotpassword", ForgotPasswordRequest{Email: "a@x.com"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	resp := decodeError(t, rec)
	assert.Equal(t, "Email not sent, please try again", resp.Error)
	assert.Equal(t, httputil.CodeEmailNotSent, resp.Code)
}

func TestHandler_ResetPassword_ShortPassword(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(env)

	rec := doRequest(t, router, http.MethodPut, "/api/users/resetpassword/whatever", ResetPasswordRequest{Password: "123"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, httputil.CodePasswordTooShort, decodeError(t, rec).Code)
}
