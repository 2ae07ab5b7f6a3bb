package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"restock/api/internal/config"
	"restock/api/internal/models"
	"restock/api/internal/repository"
	"restock/api/internal/security"
)

type fakeUserStore struct {
	nextID  int64
	byEmail map[string]models.User
	byID    map[int64]models.User
	findErr error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		nextID:  1,
		byEmail: make(map[string]models.User),
		byID:    make(map[int64]models.User),
	}
}

func (f *fakeUserStore) Create(_ context.Context, user *models.User) error {
	if _, ok := f.byEmail[user.Email]; ok {
		return repository.ErrEmailTaken
	}
	user.ID = f.nextID
	f.nextID++
	f.byEmail[user.Email] = *user
	f.byID[user.ID] = *user
	return nil
}

func (f *fakeUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	if f.findErr != nil {
		return models.User{}, f.findErr
	}
	user, ok := f.byEmail[email]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id int64) (models.User, error) {
	user, ok := f.byID[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserStore) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	user, ok := f.byID[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	f.byID[id] = user
	f.byEmail[user.Email] = user
	return nil
}

type fakeTokenStore struct {
	rows       map[string]models.RefreshToken
	registry   map[string]bool
	insertErr  error
	revokedErr error
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{
		rows:     make(map[string]models.RefreshToken),
		registry: make(map[string]bool),
	}
}

func (f *fakeTokenStore) Insert(_ context.Context, token models.RefreshToken) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.rows[token.JTI] = token
	return nil
}

func (f *fakeTokenStore) FindByJTI(_ context.Context, jti string, userID int64) (models.RefreshToken, error) {
	row, ok := f.rows[jti]
	if !ok || row.UserID != userID {
		return models.RefreshToken{}, repository.ErrTokenNotFound
	}
	return row, nil
}

func (f *fakeTokenStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	if f.revokedErr != nil {
		return false, f.revokedErr
	}
	return f.registry[jti], nil
}

func (f *fakeTokenStore) Revoke(_ context.Context, jti string) error {
	f.registry[jti] = true
	if row, ok := f.rows[jti]; ok {
		row.Revoked = true
		f.rows[jti] = row
	}
	return nil
}

type fakeLimiter struct {
	allow     bool
	allowErr  error
	failures  int
	successes int
}

func (f *fakeLimiter) Allow(_ context.Context, _, _ string) (bool, error) {
	return f.allow, f.allowErr
}

func (f *fakeLimiter) Failure(_ context.Context, _, _ string) error {
	f.failures++
	return nil
}

func (f *fakeLimiter) Success(_ context.Context, _, _ string) error {
	f.successes++
	return nil
}

func testSecurityConfig() config.SecurityConfig {
	return config.SecurityConfig{
		JWTSecret:       "unit-test-secret",
		JWTAlgorithm:    "HS256",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	}
}

func newTestService(t *testing.T, users UserStore, tokens TokenStore, limiter LoginLimiter) *AuthService {
	t.Helper()
	svc, err := NewAuthService(users, tokens, limiter, testSecurityConfig(), zerolog.Nop())
	require.NoError(t, err)
	return svc
}

func seedUser(t *testing.T, users *fakeUserStore, email, password string, role models.UserRole) models.User {
	t.Helper()
	hash, err := security.HashPassword(password)
	require.NoError(t, err)
	user := models.User{Email: email, PasswordHash: hash, Role: role}
	require.NoError(t, users.Create(context.Background(), &user))
	return user
}

func TestNewAuthService_UnknownAlgorithm(t *testing.T) {
	cfg := testSecurityConfig()
	cfg.JWTAlgorithm = "ES256"
	_, err := NewAuthService(newFakeUserStore(), newFakeTokenStore(), nil, cfg, zerolog.Nop())
	require.Error(t, err)
}

func TestAuthenticate_UnknownEmailAndWrongPasswordLookAlike(t *testing.T) {
	users := newFakeUserStore()
	seedUser(t, users, "buyer@example.com", "right-password", models.UserRoleBuyer)
	svc := newTestService(t, users, newFakeTokenStore(), nil)
	ctx := context.Background()

	_, errUnknown := svc.Authenticate(ctx, "nobody@example.com", "right-password")
	_, errWrongPass := svc.Authenticate(ctx, "buyer@example.com", "wrong-password")

	require.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	require.ErrorIs(t, errWrongPass, ErrInvalidCredentials)
	require.Equal(t, errUnknown.Error(), errWrongPass.Error())
}

func TestAuthenticate_StoreFailureIsNotInvalidCredentials(t *testing.T) {
	users := newFakeUserStore()
	users.findErr = errors.New("connection refused")
	svc := newTestService(t, users, newFakeTokenStore(), nil)

	_, err := svc.Authenticate(context.Background(), "buyer@example.com", "pass")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticate_EmailNormalized(t *testing.T) {
	users := newFakeUserStore()
	seedUser(t, users, "buyer@example.com", "pass-123", models.UserRoleBuyer)
	svc := newTestService(t, users, newFakeTokenStore(), nil)

	user, err := svc.Authenticate(context.Background(), "  Buyer@Example.COM ", "pass-123")
	require.NoError(t, err)
	require.Equal(t, "buyer@example.com", user.Email)
}

func TestIssueTokenPair_VerifyBothKinds(t *testing.T) {
	users := newFakeUserStore()
	tokens := newFakeTokenStore()
	user := seedUser(t, users, "manager@example.com", "pass-123", models.UserRoleManager)
	svc := newTestService(t, users, tokens, nil)
	ctx := context.Background()

	pair, err := svc.IssueTokenPair(ctx, user)
	require.NoError(t, err)
	require.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	require.Len(t, tokens.rows, 1)

	access, err := svc.Verify(ctx, pair.AccessToken, security.TokenTypeAccess)
	require.NoError(t, err)
	require.Equal(t, string(models.UserRoleManager), access.Role)
	require.Equal(t, "1", access.Subject)

	refresh, err := svc.Verify(ctx, pair.RefreshToken, security.TokenTypeRefresh)
	require.NoError(t, err)
	require.Equal(t, "1", refresh.Subject)
	require.Contains(t, tokens.rows, refresh.ID)
}

func TestIssueTokenPair_InsertFailure(t *testing.T) {
	users := newFakeUserStore()
	tokens := newFakeTokenStore()
	tokens.insertErr = errors.New("disk full")
	user := seedUser(t, users, "buyer@example.com", "pass-123", models.UserRoleBuyer)
	svc := newTestService(t, users, tokens, nil)

	_, err := svc.IssueTokenPair(context.Background(), user)
	require.Error(t, err)
}

func TestVerify_WrongTokenType(t *testing.T) {
	users := newFakeUserStore()
	user := seedUser(t, users, "buyer@example.com", "pass-123", models.UserRoleBuyer)
	svc := newTestService(t, users, newFakeTokenStore(), nil)
	ctx := context.Background()

	pair, err := svc.IssueTokenPair(ctx, user)
	require.NoError(t, err)

	_, err = svc.Verify(ctx, pair.AccessToken, security.TokenTypeRefresh)
	require.ErrorIs(t, err, ErrWrongTokenType)

	_, err = svc.Verify(ctx, pair.RefreshToken, security.TokenTypeAccess)
	require.ErrorIs(t, err, ErrWrongTokenType)
}

func TestVerify_Garbage(t *testing.T) {
	svc := newTestService(t, newFakeUserStore(), newFakeTokenStore(), nil)

	_, err := svc.Verify(context.Background(), "not-a-jwt", security.TokenTypeAccess)
	require.ErrorIs(t, err, security.ErrTokenMalformed)
}

func TestVerify_RevokedInRegistry(t *testing.T) {
	users := newFakeUserStore()
	tokens := newFakeTokenStore()
	user := seedUser(t, users, "buyer@example.com", "pass-123", models.UserRoleBuyer)
	svc := newTestService(t, users, tokens, nil)
	ctx := context.Background()

	pair, err := svc.IssueTokenPair(ctx, user)
	require.NoError(t, err)

	claims, err := svc.Verify(ctx, pair.RefreshToken, security.TokenTypeRefresh)
	require.NoError(t, err)

	// Registry entry alone is enough, even with the row flag untouched.
	tokens.registry[claims.ID] = true

	_, err = svc.Verify(ctx, pair.RefreshToken, security.TokenTypeRefresh)
	require.ErrorIs(t, err, ErrTokenRevoked)
}

func TestVerify_RowFlagRevoked(t *testing.T) {
	users := newFakeUserStore()
	tokens := newFakeTokenStore()
	user := seedUser(t, users, "buyer@example.com", "pass-123", models.UserRoleBuyer)
	svc := newTestService(t, users, tokens, nil)
	ctx := context.Background()

	pair, err := svc.IssueTokenPair(ctx, user)
	require.NoError(t, err)

	claims, err := svc.Verify(ctx, pair.RefreshToken, security.TokenTypeRefresh)
	require.NoError(t, err)

	row := tokens.rows[claims.ID]
	row.Revoked = true
	tokens.rows[claims.ID] = row

	_, err = svc.Verify(ctx, pair.RefreshToken, security.TokenTypeRefresh)
	require.ErrorIs(t, err, ErrTokenRevoked)
}

func TestVerify_MissingRow(t *testing.T) {
	users := newFakeUserStore()
	tokens := newFakeTokenStore()
	user := seedUser(t, users, "buyer@example.com", "pass-123", models.UserRoleBuyer)
	svc := newTestService(t, users, tokens, nil)
	ctx := context.Background()

	pair, err := svc.IssueTokenPair(ctx, user)
	require.NoError(t, err)

	tokens.rows = make(map[string]models.RefreshToken)

	_, err = svc.Verify(ctx, pair.RefreshToken, security.TokenTypeRefresh)
	require.ErrorIs(t, err, repository.ErrTokenNotFound)
}

func TestVerify_PersistedExpiryWins(t *testing.T) {
	users := newFakeUserStore()
	tokens := newFakeTokenStore()
	user := seedUser(t, users, "buyer@example.com", "pass-123", models.UserRoleBuyer)
	svc := newTestService(t, users, tokens, nil)
	ctx := context.Background()

	pair, err := svc.IssueTokenPair(ctx, user)
	require.NoError(t, err)

	claims, err := svc.Verify(ctx, pair.RefreshToken, security.TokenTypeRefresh)
	require.NoError(t, err)

	// Signed expiry still in the future, persisted one already passed.
	row := tokens.rows[claims.ID]
	row.ExpiresAt = time.Now().Add(-time.Minute)
	tokens.rows[claims.ID] = row

	_, err = svc.Verify(ctx, pair.RefreshToken, security.TokenTypeRefresh)
	require.ErrorIs(t, err, security.ErrTokenExpired)
}

func TestVerify_RegistryUnavailableFailsClosed(t *testing.T) {
	users := newFakeUserStore()
	tokens := newFakeTokenStore()
	user := seedUser(t, users, "buyer@example.com", "pass-123", models.UserRoleBuyer)
	svc := newTestService(t, users, tokens, nil)
	ctx := context.Background()

	pair, err := svc.IssueTokenPair(ctx, user)
	require.NoError(t, err)

	tokens.revokedErr = errors.New("registry unavailable")

	claims, err := svc.Verify(ctx, pair.RefreshToken, security.TokenTypeRefresh)
	require.Error(t, err)
	require.Nil(t, claims)
	require.NotErrorIs(t, err, ErrTokenRevoked)
	require.NotErrorIs(t, err, repository.ErrTokenNotFound)
}

func TestRefresh_NoRotation(t *testing.T) {
	users := newFakeUserStore()
	tokens := newFakeTokenStore()
	seedUser(t, users, "buyer@example.com", "pass-123", models.UserRoleBuyer)
	svc := newTestService(t, users, tokens, nil)
	ctx := context.Background()

	user, first, err := svc.Login(ctx, "buyer@example.com", "pass-123", "")
	require.NoError(t, err)
	require.Equal(t, models.UserRoleBuyer, user.Role)

	_, second, err := svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// The consumed token stays valid alongside the new one.
	_, err = svc.Verify(ctx, first.RefreshToken, security.TokenTypeRefresh)
	require.NoError(t, err)
	_, err = svc.Verify(ctx, second.RefreshToken, security.TokenTypeRefresh)
	require.NoError(t, err)
	require.Len(t, tokens.rows, 2)
}

func TestLogout_RevokesOnlyRefresh(t *testing.T) {
	users := newFakeUserStore()
	tokens := newFakeTokenStore()
	seedUser(t, users, "buyer@example.com", "pass-123", models.UserRoleBuyer)
	svc := newTestService(t, users, tokens, nil)
	ctx := context.Background()

	_, pair, err := svc.Login(ctx, "buyer@example.com", "pass-123", "")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, pair.RefreshToken))

	_, _, err = svc.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrTokenRevoked)

	// Access tokens are stateless and survive the logout until expiry.
	_, err = svc.Verify(ctx, pair.AccessToken, security.TokenTypeAccess)
	require.NoError(t, err)

	// A second logout with the same token is rejected as revoked.
	require.ErrorIs(t, svc.Logout(ctx, pair.RefreshToken), ErrTokenRevoked)
}

func TestLogin_LimiterBlocks(t *testing.T) {
	users := newFakeUserStore()
	seedUser(t, users, "buyer@example.com", "pass-123", models.UserRoleBuyer)
	limiter := &fakeLimiter{allow: false}
	svc := newTestService(t, users, newFakeTokenStore(), limiter)

	_, _, err := svc.Login(context.Background(), "buyer@example.com", "pass-123", "10.0.0.1")
	require.ErrorIs(t, err, ErrTooManyAttempts)
}

func TestLogin_LimiterCounters(t *testing.T) {
	users := newFakeUserStore()
	seedUser(t, users, "buyer@example.com", "pass-123", models.UserRoleBuyer)
	limiter := &fakeLimiter{allow: true}
	svc := newTestService(t, users, newFakeTokenStore(), limiter)
	ctx := context.Background()

	_, _, err := svc.Login(ctx, "buyer@example.com", "wrong", "10.0.0.1")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.Equal(t, 1, limiter.failures)
	require.Equal(t, 0, limiter.successes)

	_, _, err = svc.Login(ctx, "buyer@example.com", "pass-123", "10.0.0.1")
	require.NoError(t, err)
	require.Equal(t, 1, limiter.failures)
	require.Equal(t, 1, limiter.successes)
}

func TestRegister_Validation(t *testing.T) {
	svc := newTestService(t, newFakeUserStore(), newFakeTokenStore(), nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, "", "pass", models.UserRoleBuyer)
	require.Error(t, err)
	_, err = svc.Register(ctx, "buyer@example.com", "", models.UserRoleBuyer)
	require.Error(t, err)
	_, err = svc.Register(ctx, "buyer@example.com", "pass", models.UserRole("admin"))
	require.Error(t, err)

	user, err := svc.Register(ctx, "Buyer@Example.com", "pass", models.UserRoleBuyer)
	require.NoError(t, err)
	require.Equal(t, "buyer@example.com", user.Email)
	require.NotEqual(t, "pass", user.PasswordHash)
}

func TestChangePassword(t *testing.T) {
	users := newFakeUserStore()
	user := seedUser(t, users, "buyer@example.com", "old-pass", models.UserRoleBuyer)
	svc := newTestService(t, users, newFakeTokenStore(), nil)
	ctx := context.Background()

	require.ErrorIs(t, svc.ChangePassword(ctx, user.ID, "wrong", "new-pass"), ErrInvalidCredentials)
	require.NoError(t, svc.ChangePassword(ctx, user.ID, "old-pass", "new-pass"))

	_, err := svc.Authenticate(ctx, "buyer@example.com", "old-pass")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "buyer@example.com", "new-pass")
	require.NoError(t, err)
}
