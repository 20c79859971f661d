package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/go-auth-api/internal/logging"
	"github.com/redmonkez12/go-auth-api/internal/user"
)

const testPasetoKey = "0123456789abcdef0123456789abcdef"

// cheap parameters keep the suite fast
var testArgon2Params = Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

type fakeUserStore struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*user.User
	byEmail map[string]uuid.UUID
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byID:    make(map[uuid.UUID]*user.User),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (f *fakeUserStore) Create(ctx context.Context, name, email, passwordHash string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.byEmail[email]; ok {
		return nil, user.ErrDuplicateEmail
	}

	now := time.Now()
	u := &user.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.byID[u.ID] = u
	f.byEmail[email] = u.ID

	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.byID[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	f.mu.Lock()
	id, ok := f.byEmail[email]
	f.mu.Unlock()

	if !ok {
		return nil, user.ErrNotFound
	}
	return f.GetByID(ctx, id)
}

func (f *fakeUserStore) Save(ctx context.Context, u *user.User) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored, ok := f.byID[u.ID]
	if !ok {
		return nil, user.ErrNotFound
	}

	stored.Name = u.Name
	stored.PasswordHash = u.PasswordHash
	stored.Photo = u.Photo
	stored.Phone = u.Phone
	stored.Bio = u.Bio
	stored.UpdatedAt = time.Now()

	cp := *stored
	return &cp, nil
}

func (f *fakeUserStore) delete(id uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if u, ok := f.byID[id]; ok {
		delete(f.byEmail, u.Email)
		delete(f.byID, id)
	}
}

type fakeResetStore struct {
	mu     sync.Mutex
	byUser map[uuid.UUID]ResetToken
}

func newFakeResetStore() *fakeResetStore {
	return &fakeResetStore{byUser: make(map[uuid.UUID]ResetToken)}
}

func (f *fakeResetStore) Replace(ctx context.Context, t *ResetToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byUser[t.UserID] = *t
	return nil
}

func (f *fakeResetStore) Consume(ctx context.Context, tokenHash string, now time.Time) (*ResetToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for id, t := range f.byUser {
		if t.TokenHash == tokenHash && !t.IsExpired(now) {
			delete(f.byUser, id)
			return &t, nil
		}
	}
	return nil, ErrResetTokenNotFound
}

func (f *fakeResetStore) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byUser, userID)
	return nil
}

func (f *fakeResetStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var n int64
	for id, t := range f.byUser {
		if t.IsExpired(now) {
			delete(f.byUser, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeResetStore) get(userID uuid.UUID) (ResetToken, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byUser[userID]
	return t, ok
}

type sentResetEmail struct {
	to, name, token string
}

type fakeEmailer struct {
	mu   sync.Mutex
	sent []sentResetEmail
	err  error
}

func (f *fakeEmailer) SendPasswordResetEmail(ctx context.Context, toEmail, name, resetToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentResetEmail{to: toEmail, name: name, token: resetToken})
	return nil
}

func (f *fakeEmailer) last(t *testing.T) sentResetEmail {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent, "no reset email sent")
	return f.sent[len(f.sent)-1]
}

// testEnv bundles a Service with its fakes and a controllable clock
type testEnv struct {
	svc     *Service
	users   *fakeUserStore
	resets  *fakeResetStore
	emailer *fakeEmailer
	tokens  *PasetoService
	clock   time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tokens, err := NewPasetoService([]byte(testPasetoKey))
	require.NoError(t, err)

	env := &testEnv{
		users:   newFakeUserStore(),
		resets:  newFakeResetStore(),
		emailer: &fakeEmailer{},
		tokens:  tokens,
		clock:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	env.svc = NewService(
		env.users,
		env.resets,
		tokens,
		NewArgon2idHasher(testArgon2Params),
		env.emailer,
		logging.NewLogger(false),
		24*time.Hour,
		30*time.Minute,
	)
	env.svc.now = func() time.Time { return env.clock }

	return env
}

func (e *testEnv) advance(d time.Duration) {
	e.clock = e.clock.Add(d)
}

func (e *testEnv) mustRegister(t *testing.T, name, email, password string) *Session {
	t.Helper()
	session, err := e.svc.Register(context.Background(), name, email, password)
	require.NoError(t, err)
	return session
}
