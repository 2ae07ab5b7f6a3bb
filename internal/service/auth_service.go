package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"restock/api/internal/config"
	"restock/api/internal/models"
	"restock/api/internal/repository"
	"restock/api/internal/security"
)

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password, so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrWrongTokenType  = errors.New("wrong token type")
	ErrTokenRevoked    = errors.New("token revoked")
	ErrTooManyAttempts = errors.New("too many login attempts")
)

// UserStore is what the auth service needs from the user persistence
// collaborator. It never mutates users except through ChangePassword.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id int64) (models.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

// TokenStore persists refresh tokens and the revocation registry.
type TokenStore interface {
	Insert(ctx context.Context, token models.RefreshToken) error
	FindByJTI(ctx context.Context, jti string, userID int64) (models.RefreshToken, error)
	IsRevoked(ctx context.Context, jti string) (bool, error)
	Revoke(ctx context.Context, jti string) error
}

// LoginLimiter throttles repeated failed logins. Implementations may be nil
// in tests; the service treats a nil limiter as "always allow".
type LoginLimiter interface {
	Allow(ctx context.Context, email, ip string) (bool, error)
	Failure(ctx context.Context, email, ip string) error
	Success(ctx context.Context, email, ip string) error
}

type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

type AuthService struct {
	users      UserStore
	tokens     TokenStore
	limiter    LoginLimiter
	secret     string
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
	log        zerolog.Logger
}

func NewAuthService(
	users UserStore,
	tokens TokenStore,
	limiter LoginLimiter,
	cfg config.SecurityConfig,
	log zerolog.Logger,
) (*AuthService, error) {
	method, err := security.SigningMethod(cfg.JWTAlgorithm)
	if err != nil {
		return nil, err
	}

	return &AuthService{
		users:      users,
		tokens:     tokens,
		limiter:    limiter,
		secret:     cfg.JWTSecret,
		method:     method,
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		log:        log,
	}, nil
}

// Register creates a user with a hashed password.
func (s *AuthService) Register(ctx context.Context, email, password string, role models.UserRole) (models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return models.User{}, fmt.Errorf("email and password required")
	}
	if !role.Valid() {
		return models.User{}, fmt.Errorf("unknown role %q", role)
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{Email: email, PasswordHash: hash, Role: role}
	if err := s.users.Create(ctx, &user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// Authenticate looks the user up by email and verifies the password.
// Unknown email and wrong password are indistinguishable to the caller;
// store failures other than "not found" surface as infrastructure errors.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, fmt.Errorf("find user: %w", err)
	}

	if !security.VerifyPassword(password, user.PasswordHash) {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// IssueTokenPair persists a fresh refresh-token row and signs both tokens.
// The row insert is the only durable write; signing is pure and local.
func (s *AuthService) IssueTokenPair(ctx context.Context, user models.User) (TokenPair, error) {
	now := time.Now()
	jti := uuid.NewString()
	accessExp := now.Add(s.accessTTL)
	refreshExp := now.Add(s.refreshTTL)
	subject := strconv.FormatInt(user.ID, 10)

	if err := s.tokens.Insert(ctx, models.RefreshToken{
		JTI:       jti,
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: refreshExp,
	}); err != nil {
		return TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}

	accessToken, err := security.SignToken(security.Claims{
		TokenType: security.TokenTypeAccess,
		Role:      string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExp),
		},
	}, s.secret, s.method)
	if err != nil {
		return TokenPair{}, err
	}

	refreshToken, err := security.SignToken(security.Claims{
		TokenType: security.TokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(refreshExp),
			ID:        jti,
		},
	}, s.secret, s.method)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Verify decodes a token and checks it is of the expected kind. For access
// tokens the signature and signed expiry are the whole story. For refresh
// tokens the persisted record is the source of truth: the revocation
// registry is consulted first, then the row flag and the row expiry, so a
// revoke that commits before this read always wins.
func (s *AuthService) Verify(ctx context.Context, token string, expected security.TokenType) (*security.Claims, error) {
	claims, err := security.ParseToken(token, s.secret, s.method)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != expected {
		return nil, ErrWrongTokenType
	}
	if expected != security.TokenTypeRefresh {
		return claims, nil
	}

	jti := claims.ID
	if jti == "" {
		return nil, security.ErrTokenMalformed
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, security.ErrTokenMalformed
	}

	revoked, err := s.tokens.IsRevoked(ctx, jti)
	if err != nil {
		return nil, fmt.Errorf("revocation check: %w", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	row, err := s.tokens.FindByJTI(ctx, jti, userID)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return nil, repository.ErrTokenNotFound
		}
		return nil, fmt.Errorf("refresh token lookup: %w", err)
	}
	if row.Revoked {
		return nil, ErrTokenRevoked
	}
	if time.Now().After(row.ExpiresAt) {
		// Re-check against the persisted expiry even though the codec
		// already validated the signed one.
		return nil, security.ErrTokenExpired
	}

	return claims, nil
}

// Revoke adds the jti to the revocation registry and flips the matching
// row flag; the repository commits both together or not at all.
func (s *AuthService) Revoke(ctx context.Context, jti string) error {
	if err := s.tokens.Revoke(ctx, jti); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	s.log.Info().Str("jti", jti).Msg("refresh token revoked")
	return nil
}

// Login wraps Authenticate and IssueTokenPair with the failed-attempt
// limiter. clientIP may be empty when the transport cannot supply one.
func (s *AuthService) Login(ctx context.Context, email, password, clientIP string) (models.User, TokenPair, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, email, clientIP)
		if err != nil {
			return models.User{}, TokenPair{}, fmt.Errorf("login limiter: %w", err)
		}
		if !allowed {
			return models.User{}, TokenPair{}, ErrTooManyAttempts
		}
	}

	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) && s.limiter != nil {
			if ferr := s.limiter.Failure(ctx, email, clientIP); ferr != nil {
				s.log.Warn().Err(ferr).Msg("record login failure")
			}
		}
		return models.User{}, TokenPair{}, err
	}

	if s.limiter != nil {
		if err := s.limiter.Success(ctx, email, clientIP); err != nil {
			s.log.Warn().Err(err).Msg("reset login counters")
		}
	}

	pair, err := s.IssueTokenPair(ctx, user)
	if err != nil {
		return models.User{}, TokenPair{}, err
	}
	return user, pair, nil
}

// Refresh exchanges a valid refresh token for a new pair. The consumed
// token stays valid until it expires or is revoked; there is no rotation.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (models.User, TokenPair, error) {
	claims, err := s.Verify(ctx, refreshToken, security.TokenTypeRefresh)
	if err != nil {
		return models.User{}, TokenPair{}, err
	}

	userID, _ := strconv.ParseInt(claims.Subject, 10, 64)
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, TokenPair{}, repository.ErrTokenNotFound
		}
		return models.User{}, TokenPair{}, fmt.Errorf("load user: %w", err)
	}

	pair, err := s.IssueTokenPair(ctx, user)
	if err != nil {
		return models.User{}, TokenPair{}, err
	}
	return user, pair, nil
}

// Logout verifies the presented refresh token and revokes its jti. The
// holder's unexpired access tokens are unaffected; they are stateless.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.Verify(ctx, refreshToken, security.TokenTypeRefresh)
	if err != nil {
		return err
	}
	return s.Revoke(ctx, claims.ID)
}

// ChangePassword verifies the current password before storing a new hash.
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if !security.VerifyPassword(current, user.PasswordHash) {
		return ErrInvalidCredentials
	}

	hash, err := security.HashPassword(next)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userID, hash)
}
