package auth

import "errors"

// Validation
var (
	ErrMissingFields      = errors.New("required fields are missing")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
	ErrInvalidEmailFormat = errors.New("invalid email format")
)

// Account and credential state
var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrIncorrectPassword  = errors.New("old password is incorrect")
)

// Tokens
var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token has expired")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
	ErrResetTokenNotFound = errors.New("reset token not found")
)

// ErrEmailNotSent wraps a failed reset e-mail delivery
var ErrEmailNotSent = errors.New("reset email not sent")
