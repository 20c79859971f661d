package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/redmonkez12/go-auth-api/internal/httputil"
	"github.com/redmonkez12/go-auth-api/internal/logging"
	"github.com/redmonkez12/go-auth-api/internal/user"
)

// Handler contains HTTP handlers for the /api/users endpoints
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUserRequest holds the editable profile fields
type UpdateUserRequest struct {
	Name  string `json:"name"`
	Photo string `json:"photo"`
	Phone string `json:"phone"`
	Bio   string `json:"bio"`
}

// ChangePasswordRequest represents the change password request body
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	Password    string `json:"password"`
}

// ForgotPasswordRequest represents the password reset request
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest carries the new password; the token is in the path
type ResetPasswordRequest struct {
	Password string `json:"password"`
}

// ProfileResponse represents a user in API responses
type ProfileResponse struct {
	ID    uuid.UUID `json:"_id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Photo string    `json:"photo"`
	Phone string    `json:"phone"`
	Bio   string    `json:"bio"`
	Token string    `json:"token,omitempty"`
}

// ForgotPasswordResponse acknowledges a sent reset e-mail
type ForgotPasswordResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func newProfileResponse(u *user.User, token string) ProfileResponse {
	return ProfileResponse{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Photo: u.Photo,
		Phone: u.Phone,
		Bio:   u.Bio,
		Token: token,
	}
}

// Register handles user registration
// @Summary      Register a new user
// @Description  Create an account and start a session. The session token is returned in the body and set as the "token" cookie.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Name, email and password"
// @Success      201 {object} ProfileResponse
// @Failure      400 {object} httputil.ErrorResponse "Validation error or email already registered"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /api/users/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req RegisterRequest
	if !decodeBody(w, r, logger, &req) {
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	session, err := h.service.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondServiceError(w, logger, "registration", err, http.StatusBadRequest)
		return
	}

	logger.Info("user registered successfully", "user_id", session.User.ID)

	SetSessionCookie(w, session.Token, session.ExpiresAt)
	respondJSON(w, newProfileResponse(session.User, session.Token), http.StatusCreated)
}

// Login handles user login
// @Summary      User login
// @Description  Authenticate with email and password and start a session
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} ProfileResponse
// @Failure      400 {object} httputil.ErrorResponse "Missing fields or invalid email or password"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /api/users/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req LoginRequest
	if !decodeBody(w, r, logger, &req) {
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	session, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(w, logger, "login", err, http.StatusBadRequest)
		return
	}

	logger.Info("user logged in successfully", "user_id", session.User.ID)

	SetSessionCookie(w, session.Token, session.ExpiresAt)
	respondJSON(w, newProfileResponse(session.User, session.Token), http.StatusOK)
}

// Logout handles user logout
// @Summary      User logout
// @Description  Clear the session cookie. Tokens are stateless, so nothing is revoked server-side.
// @Tags         users
// @Produce      json
// @Success      200 {object} httputil.MessageResponse
// @Router       /api/users/logout [get]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ClearSessionCookie(w)
	httputil.RespondMessage(w, "Successfully Logged Out", http.StatusOK)
}

// GetUser returns the authenticated user's profile
// @Summary      Get current user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} ProfileResponse
// @Failure      400 {object} httputil.ErrorResponse "User not found"
// @Failure      401 {object} httputil.ErrorResponse "Not authenticated"
// @Router       /api/users/getuser [get]
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	u, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		respondServiceError(w, logger, "get user", err, http.StatusBadRequest)
		return
	}

	respondJSON(w, newProfileResponse(u, ""), http.StatusOK)
}

// LoggedIn reports whether the request carries a valid session token
// @Summary      Session status
// @Description  Returns a bare boolean. Checks the session cookie, then a Bearer header. Never fails.
// @Tags         users
// @Produce      json
// @Success      200 {boolean} boolean
// @Router       /api/users/loggedin [get]
func (h *Handler) LoggedIn(w http.ResponseWriter, r *http.Request) {
	// The cookie decides when it verifies; an unrelated Authorization header
	// (proxy Basic auth, stale bearer) must not hide it.
	if token, err := GetSessionTokenFromCookie(r); err == nil && h.service.IsLoggedIn(token) {
		respondJSON(w, true, http.StatusOK)
		return
	}

	token, ok := bearerToken(r)
	respondJSON(w, ok && h.service.IsLoggedIn(token), http.StatusOK)
}

// UpdateUser edits the authenticated user's profile
// @Summary      Update profile
// @Description  Non-empty fields replace stored values. Email cannot be changed.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body UpdateUserRequest true "Profile fields"
// @Success      200 {object} ProfileResponse
// @Failure      401 {object} httputil.ErrorResponse "Not authenticated"
// @Failure      404 {object} httputil.ErrorResponse "User not found"
// @Router       /api/users/updateuser [patch]
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if !decodeBody(w, r, logger, &req) {
		return
	}

	u, err := h.service.UpdateUser(r.Context(), userID, ProfileUpdate{
		Name:  req.Name,
		Photo: req.Photo,
		Phone: req.Phone,
		Bio:   req.Bio,
	})
	if err != nil {
		respondServiceError(w, logger, "update user", err, http.StatusNotFound)
		return
	}

	logger.Info("user profile updated", "user_id", u.ID)
	respondJSON(w, newProfileResponse(u, ""), http.StatusOK)
}

// ChangePassword replaces the authenticated user's password
// @Summary      Change password
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body ChangePasswordRequest true "Old and new password"
// @Success      200 {object} httputil.MessageResponse
// @Failure      400 {object} httputil.ErrorResponse "Validation error, user not found or old password incorrect"
// @Failure      401 {object} httputil.ErrorResponse "Not authenticated"
// @Router       /api/users/changepassword [patch]
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if !decodeBody(w, r, logger, &req) {
		return
	}

	if err := h.service.ChangePassword(r.Context(), userID, req.OldPassword, req.Password); err != nil {
		respondServiceError(w, logger, "change password", err, http.StatusBadRequest)
		return
	}

	logger.Info("password changed", "user_id", userID)
	httputil.RespondMessage(w, "Password change successful", http.StatusOK)
}

// ForgotPassword e-mails a password reset link
// @Summary      Request password reset
// @Description  Replaces any earlier reset token of the account and e-mails a link valid for the reset token TTL
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body ForgotPasswordRequest true "Email address"
// @Success      200 {object} ForgotPasswordResponse
// @Failure      400 {object} httputil.ErrorResponse "Missing email"
// @Failure      404 {object} httputil.ErrorResponse "User not found"
// @Failure      500 {object} httputil.ErrorResponse "Email not sent"
// @Router       /api/users/forgotpassword [post]
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req ForgotPasswordRequest
	if !decodeBody(w, r, logger, &req) {
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		respondServiceError(w, logger, "forgot password", err, http.StatusNotFound)
		return
	}

	logger.Info("password reset email sent")
	respondJSON(w, ForgotPasswordResponse{Success: true, Message: "Reset Email Sent"}, http.StatusOK)
}

// ResetPassword sets a new password using the e-mailed token
// @Summary      Reset password
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        resetToken path string true "Reset token from the e-mail link"
// @Param        request body ResetPasswordRequest true "New password"
// @Success      200 {object} httputil.MessageResponse
// @Failure      400 {object} httputil.ErrorResponse "Missing or short password"
// @Failure      404 {object} httputil.ErrorResponse "Invalid or expired token"
// @Router       /api/users/resetpassword/{resetToken} [put]
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req ResetPasswordRequest
	if !decodeBody(w, r, logger, &req) {
		return
	}

	resetToken := chi.URLParam(r, "resetToken")

	if err := h.service.ResetPassword(r.Context(), resetToken, req.Password); err != nil {
		respondServiceError(w, logger, "password reset", err, http.StatusNotFound)
		return
	}

	logger.Info("password reset successfully")
	httputil.RespondMessage(w, "Password Reset Successful, Please Login", http.StatusOK)
}

func respondJSON(w http.ResponseWriter, data any, statusCode int) {
	httputil.RespondJSON(w, data, statusCode)
}

func respondError(w http.ResponseWriter, message string, code string, statusCode int) {
	httputil.RespondErrorWithCode(w, message, code, statusCode)
}

// decodeBody parses the JSON body into dst, answering 400 on failure
func decodeBody(w http.ResponseWriter, r *http.Request, logger *logging.Logger, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.Warn("invalid request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return false
	}
	return true
}

// requireUserID reads the id RequireAuth put in the context
func requireUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "Not authorized, please login", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return uuid.Nil, false
	}
	return userID, true
}

// respondServiceError maps service errors to HTTP responses. notFoundStatus
// is the status used for ErrUserNotFound, which differs per route.
func respondServiceError(w http.ResponseWriter, logger *logging.Logger, op string, err error, notFoundStatus int) {
	switch {
	case errors.Is(err, ErrMissingFields):
		logger.Warn(op+" failed: validation error", "error", err.Error())
		respondError(w, "Please fill in all required fields", httputil.CodeMissingFields, http.StatusBadRequest)
	case errors.Is(err, ErrPasswordTooShort):
		logger.Warn(op+" failed: validation error", "error", err.Error())
		respondError(w, "Password must be at least 6 characters", httputil.CodePasswordTooShort, http.StatusBadRequest)
	case errors.Is(err, ErrInvalidEmailFormat):
		logger.Warn(op+" failed: validation error", "error", err.Error())
		respondError(w, "Please enter a valid email", httputil.CodeInvalidEmailFormat, http.StatusBadRequest)
	case errors.Is(err, ErrEmailTaken):
		logger.Warn(op + " failed: email already exists")
		respondError(w, "Email allready Exist", httputil.CodeEmailAlreadyExists, http.StatusBadRequest)
	case errors.Is(err, ErrInvalidCredentials):
		logger.Warn(op + " failed: invalid credentials")
		respondError(w, "Invalid email or password", httputil.CodeInvalidCredentials, http.StatusBadRequest)
	case errors.Is(err, ErrUserNotFound):
		logger.Warn(op + " failed: user not found")
		respondError(w, "User not found", httputil.CodeUserNotFound, notFoundStatus)
	case errors.Is(err, ErrIncorrectPassword):
		logger.Warn(op + " failed: old password is incorrect")
		respondError(w, "Old password is incorrect", httputil.CodeIncorrectPassword, http.StatusBadRequest)
	case errors.Is(err, ErrInvalidResetToken):
		logger.Warn(op + " failed: invalid or expired token")
		respondError(w, "Invalid or expired token", httputil.CodeInvalidResetToken, http.StatusNotFound)
	case errors.Is(err, ErrEmailNotSent):
		logger.Error(op+" failed: email not sent", "error", err.Error())
		respondError(w, "Email not sent, please try again", httputil.CodeEmailNotSent, http.StatusInternalServerError)
	default:
		logger.Error(op+" failed: internal error", "error", err.Error())
		respondError(w, "internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
	}
}
