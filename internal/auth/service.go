package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/go-auth-api/internal/logging"
	"github.com/redmonkez12/go-auth-api/internal/user"
)

// MinPasswordLength applies to every newly supplied password
const MinPasswordLength = 6

// Session is the result of a successful register or login
type Session struct {
	User      *user.User
	Token     string
	ExpiresAt time.Time
}

// ProfileUpdate carries the optional profile fields; empty values keep the
// stored ones
type ProfileUpdate struct {
	Name  string
	Photo string
	Phone string
	Bio   string
}

// Service handles authentication business logic
type Service struct {
	users           UserStore
	resets          ResetTokenStore
	tokens          TokenService
	hasher          PasswordHasher
	emailer         EmailService
	logger          *logging.Logger
	sessionDuration time.Duration
	resetTokenTTL   time.Duration
	now             func() time.Time
}

func NewService(
	users UserStore,
	resets ResetTokenStore,
	tokens TokenService,
	hasher PasswordHasher,
	emailer EmailService,
	logger *logging.Logger,
	sessionDuration time.Duration,
	resetTokenTTL time.Duration,
) *Service {
	return &Service{
		users:           users,
		resets:          resets,
		tokens:          tokens,
		hasher:          hasher,
		emailer:         emailer,
		logger:          logger,
		sessionDuration: sessionDuration,
		resetTokenTTL:   resetTokenTTL,
		now:             time.Now,
	}
}

// Register creates a new account and signs it in
func (s *Service) Register(ctx context.Context, name, email, password string) (*Session, error) {
	newUser, err := s.CreateUser(ctx, name, email, password)
	if err != nil {
		return nil, err
	}

	return s.newSession(newUser)
}

// CreateUser validates the input and stores a new account
func (s *Service) CreateUser(ctx context.Context, name, email, password string) (*user.User, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.TrimSpace(email) == "" || password == "" {
		return nil, ErrMissingFields
	}
	if len(password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, user.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser, err := s.users.Create(ctx, name, email, passwordHash)
	if err != nil {
		// Lost a race with a concurrent registration
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return newUser, nil
}

// Login verifies credentials and issues a session token. Unknown email and
// wrong password produce the same error.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, ErrMissingFields
	}

	email, err := normalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	existingUser, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	ok, err := s.hasher.Verify(password, existingUser.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	if s.hasher.NeedsUpgrade(existingUser.PasswordHash) {
		s.upgradeHash(ctx, existingUser, password)
	}

	return s.newSession(existingUser)
}

// upgradeHash rehashes with the current parameters. Login still succeeds if
// this fails.
func (s *Service) upgradeHash(ctx context.Context, u *user.User, password string) {
	newHash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Warn("failed to rehash password", "user_id", u.ID, "error", err)
		return
	}

	u.PasswordHash = newHash
	if _, err := s.users.Save(ctx, u); err != nil {
		s.logger.Warn("failed to store upgraded password hash", "user_id", u.ID, "error", err)
		return
	}

	s.logger.Info("password hash upgraded", "user_id", u.ID)
}

// GetUser returns the profile of an authenticated user
func (s *Service) GetUser(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// UpdateUser overwrites the profile fields that are non-empty in upd.
// Email cannot be changed.
func (s *Service) UpdateUser(ctx context.Context, userID uuid.UUID, upd ProfileUpdate) (*user.User, error) {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if upd.Name != "" {
		u.Name = upd.Name
	}
	if upd.Photo != "" {
		u.Photo = upd.Photo
	}
	if upd.Phone != "" {
		u.Phone = upd.Phone
	}
	if upd.Bio != "" {
		u.Bio = upd.Bio
	}

	saved, err := s.users.Save(ctx, u)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return saved, nil
}

// ChangePassword replaces the password after checking the old one
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return ErrMissingFields
	}
	if len(newPassword) < MinPasswordLength {
		return ErrPasswordTooShort
	}

	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := s.hasher.Verify(oldPassword, u.PasswordHash)
	if err != nil {
		return fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return ErrIncorrectPassword
	}

	if err := s.setPassword(ctx, u, newPassword); err != nil {
		return err
	}

	// A reset link mailed before the change must not undo it
	if err := s.resets.DeleteByUser(ctx, u.ID); err != nil {
		s.logger.Warn("failed to revoke reset token after password change", "user_id", u.ID, "error", err)
	}

	return nil
}

// ForgotPassword issues a reset token for the account and mails the link.
// Any previous token for the user stops working.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return ErrMissingFields
	}

	email, err := normalizeEmail(email)
	if err != nil {
		return ErrUserNotFound
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	raw, hash, err := GenerateResetToken(u.ID)
	if err != nil {
		return err
	}

	now := s.now()
	token := &ResetToken{
		UserID:    u.ID,
		TokenHash: hash,
		CreatedAt: now,
		ExpiresAt: now.Add(s.resetTokenTTL),
	}
	if err := s.resets.Replace(ctx, token); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	if err := s.emailer.SendPasswordResetEmail(ctx, u.Email, u.Name, raw); err != nil {
		return fmt.Errorf("%w: %w", ErrEmailNotSent, err)
	}

	return nil
}

// ResetPassword sets a new password using an e-mailed reset secret. The token
// is consumed by the lookup.
func (s *Service) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	if newPassword == "" {
		return ErrMissingFields
	}
	if len(newPassword) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if rawToken == "" {
		return ErrInvalidResetToken
	}

	// Consumed before the password is written, so a secret works at most once
	// even when the same link is submitted twice concurrently.
	token, err := s.resets.Consume(ctx, hashToken(rawToken), s.now())
	if err != nil {
		if errors.Is(err, ErrResetTokenNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("failed to consume reset token: %w", err)
	}

	u, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		// Account vanished after the token was issued
		if errors.Is(err, user.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	return s.setPassword(ctx, u, newPassword)
}

// IsLoggedIn reports whether token is a valid, unexpired session token
func (s *Service) IsLoggedIn(token string) bool {
	if token == "" {
		return false
	}
	_, err := s.tokens.VerifyToken(token)
	return err == nil
}

// PruneResetTokens deletes reset tokens that are already expired
func (s *Service) PruneResetTokens(ctx context.Context) (int64, error) {
	return s.resets.DeleteExpired(ctx, s.now())
}

func (s *Service) setPassword(ctx context.Context, u *user.User, password string) error {
	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	u.PasswordHash = passwordHash
	if _, err := s.users.Save(ctx, u); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

func (s *Service) newSession(u *user.User) (*Session, error) {
	token, err := s.tokens.CreateToken(u.ID, s.sessionDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to create session token: %w", err)
	}

	return &Session{
		User:      u,
		Token:     token,
		ExpiresAt: s.now().Add(s.sessionDuration),
	}, nil
}

// normalizeEmail trims and lower-cases email and checks it parses as a bare address
func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if len(email) > 254 {
		return "", ErrInvalidEmailFormat
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmailFormat
	}
	return email, nil
}
