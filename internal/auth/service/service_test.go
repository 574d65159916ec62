package service

import (
	"context"
	"testing"
	"time"

	"estate_crm_backend/internal/auth/password"
	"estate_crm_backend/internal/auth/repository"
	"estate_crm_backend/internal/auth/token"
	"estate_crm_backend/platform/apperr"
	"estate_crm_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeCfg struct{}

func (fakeCfg) GetJWTAccessSecret() string        { return "test-access-secret" }
func (fakeCfg) GetJWTRefreshSecret() string       { return "test-refresh-secret" }
func (fakeCfg) GetAccessTokenTTL() time.Duration  { return 15 * time.Minute }
func (fakeCfg) GetRefreshTokenTTL() time.Duration { return 24 * time.Hour }

type noopMailer struct{}

func (noopMailer) SendPasswordResetEmail(ctx context.Context, to, resetURL string) error { return nil }

type refreshRecord struct {
	userID    uuid.UUID
	expiresAt time.Time
	revoked   bool
}

type fakeRepo struct {
	users    map[string]repository.User
	refresh  map[string]*refreshRecord
	revoked  int
	resetTok map[string]struct {
		userID    uuid.UUID
		expiresAt time.Time
	}
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:   make(map[string]repository.User),
		refresh: make(map[string]*refreshRecord),
		resetTok: make(map[string]struct {
			userID    uuid.UUID
			expiresAt time.Time
		}),
	}
}

func (f *fakeRepo) CreateUser(ctx context.Context, email, passwordHash, fullName string) (repository.User, error) {
	if _, ok := f.users[email]; ok {
		return repository.User{}, apperr.Conflict("email already registered")
	}
	user := repository.User{ID: uuid.New(), Email: email, PasswordHash: passwordHash, FullName: fullName}
	f.users[email] = user
	return user, nil
}

func (f *fakeRepo) GetUserByEmail(ctx context.Context, email string) (repository.User, error) {
	user, ok := f.users[email]
	if !ok {
		return repository.User{}, apperr.NotFound("user not found")
	}
	return user, nil
}

func (f *fakeRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (repository.User, error) {
	for _, u := range f.users {
		if u.ID == userID {
			return u, nil
		}
	}
	return repository.User{}, apperr.NotFound("user not found")
}

func (f *fakeRepo) GetClaims(ctx context.Context, userID uuid.UUID) (repository.Claims, error) {
	return repository.Claims{}, nil
}

func (f *fakeRepo) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	for email, u := range f.users {
		if u.ID == userID {
			u.PasswordHash = passwordHash
			f.users[email] = u
		}
	}
	return nil
}

func (f *fakeRepo) CreateUserToken(ctx context.Context, userID uuid.UUID, tokenHash, tokenType string, expiresAt time.Time) error {
	f.resetTok[tokenHash] = struct {
		userID    uuid.UUID
		expiresAt time.Time
	}{userID, expiresAt}
	return nil
}

func (f *fakeRepo) GetUserToken(ctx context.Context, tokenHash, tokenType string) (uuid.UUID, time.Time, error) {
	rec, ok := f.resetTok[tokenHash]
	if !ok {
		return uuid.UUID{}, time.Time{}, apperr.NotFound("token not found")
	}
	return rec.userID, rec.expiresAt, nil
}

func (f *fakeRepo) UseUserToken(ctx context.Context, tokenHash, tokenType string) error {
	delete(f.resetTok, tokenHash)
	return nil
}

func (f *fakeRepo) CreateRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	f.refresh[tokenHash] = &refreshRecord{userID: userID, expiresAt: expiresAt}
	return nil
}

func (f *fakeRepo) GetRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, time.Time, error) {
	rec, ok := f.refresh[tokenHash]
	if !ok || rec.revoked {
		return uuid.UUID{}, time.Time{}, apperr.NotFound("refresh token not found")
	}
	return rec.userID, rec.expiresAt, nil
}

func (f *fakeRepo) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	if rec, ok := f.refresh[tokenHash]; ok && !rec.revoked {
		rec.revoked = true
		f.revoked++
	}
	return nil
}

func (f *fakeRepo) RevokeAllRefreshTokens(ctx context.Context, userID uuid.UUID) error {
	for _, rec := range f.refresh {
		if rec.userID == userID && !rec.revoked {
			rec.revoked = true
			f.revoked++
		}
	}
	return nil
}

func newTestService(repo repository.AuthRepository) *Service {
	return New(repo, fakeCfg{}, noopMailer{}, "http://localhost:4200", logger.New("test"))
}

func signUp(t *testing.T, svc *Service) TokenPair {
	t.Helper()
	pair, err := svc.SignUp(context.Background(), "agent@example.com", "s3cret-pass", "Test Agent")
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	return pair
}

func TestSignInWrongPassword(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	signUp(t, svc)

	if _, err := svc.SignIn(context.Background(), "agent@example.com", "wrong"); err == nil {
		t.Fatal("expected sign-in to fail")
	}
	if _, err := svc.SignIn(context.Background(), "nobody@example.com", "s3cret-pass"); err == nil {
		t.Fatal("expected sign-in to fail for unknown email")
	}
}

func TestSignInNormalizesEmailCase(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	signUp(t, svc)

	if _, err := svc.SignIn(context.Background(), "Agent@Example.COM", "s3cret-pass"); err != nil {
		t.Fatalf("case-insensitive sign-in: %v", err)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	pair := signUp(t, svc)

	rotated, err := svc.Refresh(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if rotated.RefreshToken == pair.RefreshToken {
		t.Fatal("refresh token was not rotated")
	}

	// The old token is revoked and cannot be replayed.
	if _, err := svc.Refresh(context.Background(), pair.RefreshToken); err == nil {
		t.Fatal("expected replayed refresh token to be rejected")
	}
}

func TestRefreshExpiredTokenIsRevoked(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	pair := signUp(t, svc)

	hash := token.HashSHA256(pair.RefreshToken)
	repo.refresh[hash].expiresAt = time.Now().Add(-time.Minute)

	if _, err := svc.Refresh(context.Background(), pair.RefreshToken); err == nil {
		t.Fatal("expected expired refresh token to be rejected")
	}
	if !repo.refresh[hash].revoked {
		t.Fatal("expired token must be revoked on presentation")
	}
}

func TestChangePasswordRevokesSessions(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	pair := signUp(t, svc)

	user := repo.users["agent@example.com"]
	if err := svc.ChangePassword(context.Background(), user.ID, "s3cret-pass", "new-s3cret-pass"); err != nil {
		t.Fatalf("change password: %v", err)
	}

	if _, err := svc.Refresh(context.Background(), pair.RefreshToken); err == nil {
		t.Fatal("expected old sessions to be revoked")
	}
	if err := password.Compare(repo.users["agent@example.com"].PasswordHash, "new-s3cret-pass"); err != nil {
		t.Fatal("new password not stored")
	}
}

func TestForgotPasswordUnknownEmailSucceeds(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	if err := svc.ForgotPassword(context.Background(), "ghost@example.com"); err != nil {
		t.Fatalf("forgot password must not reveal unknown accounts: %v", err)
	}
}
