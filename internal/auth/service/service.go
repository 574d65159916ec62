package service

import (
	"context"
	"strings"
	"time"

	"estate_crm_backend/internal/auth/password"
	"estate_crm_backend/internal/auth/repository"
	"estate_crm_backend/internal/auth/token"
	"estate_crm_backend/platform/apperr"
	"estate_crm_backend/platform/config"
	"estate_crm_backend/platform/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	accessTokenType  = "access"
	refreshTokenType = "refresh"

	resetTokenTTL = 30 * time.Minute
)

// Mailer sends auth-related email. Implemented by the notification module;
// a noop implementation is used when email is disabled.
type Mailer interface {
	SendPasswordResetEmail(ctx context.Context, to, resetURL string) error
}

type Service struct {
	repo repository.AuthRepository
	cfg  config.AuthServiceConfig
	mail Mailer
	base string
	log  *logger.Logger
}

func New(repo repository.AuthRepository, cfg config.AuthServiceConfig, mail Mailer, appBaseURL string, log *logger.Logger) *Service {
	return &Service{repo: repo, cfg: cfg, mail: mail, base: appBaseURL, log: log}
}

// TokenPair is an access token plus its rotating refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// SignUp registers a user and signs them in. The user joins or creates an
// organization afterwards; tokens issued before that carry no tenant claim.
func (s *Service) SignUp(ctx context.Context, email, plainPassword, fullName string) (TokenPair, error) {
	hash, err := password.Hash(plainPassword)
	if err != nil {
		return TokenPair{}, err
	}

	user, err := s.repo.CreateUser(ctx, strings.ToLower(email), hash, fullName)
	if err != nil {
		return TokenPair{}, err
	}

	s.log.AuthEvent("sign_up", user.Email, true, "")
	return s.issueTokens(ctx, user.ID)
}

// SignIn verifies credentials and issues a token pair. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *Service) SignIn(ctx context.Context, email, plainPassword string) (TokenPair, error) {
	user, err := s.repo.GetUserByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return TokenPair{}, apperr.Unauthorized("invalid credentials")
	}

	if err := password.Compare(user.PasswordHash, plainPassword); err != nil {
		return TokenPair{}, apperr.Unauthorized("invalid credentials")
	}

	s.log.AuthEvent("sign_in", user.Email, true, "")
	return s.issueTokens(ctx, user.ID)
}

// Refresh rotates the refresh token: the presented token is revoked whether
// or not a new pair is issued, so a replayed token is dead either way.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	hash := token.HashSHA256(refreshToken)
	userID, expiresAt, err := s.repo.GetRefreshToken(ctx, hash)
	if err != nil {
		return TokenPair{}, apperr.Unauthorized("invalid refresh token")
	}

	_ = s.repo.RevokeRefreshToken(ctx, hash)

	if time.Now().After(expiresAt) {
		return TokenPair{}, apperr.Unauthorized("refresh token expired")
	}

	return s.issueTokens(ctx, userID)
}

// SignOut revokes the presented refresh token.
func (s *Service) SignOut(ctx context.Context, refreshToken string) error {
	hash := token.HashSHA256(refreshToken)
	return s.repo.RevokeRefreshToken(ctx, hash)
}

// ChangePassword verifies the current password, stores the new hash and
// revokes every outstanding session.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := password.Compare(user.PasswordHash, current); err != nil {
		return apperr.Validation("current password is incorrect")
	}

	hash, err := password.Hash(next)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}
	return s.repo.RevokeAllRefreshTokens(ctx, userID)
}

// ForgotPassword emails a reset link. Succeeds silently for unknown
// addresses so the endpoint cannot be used to probe for accounts.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.repo.GetUserByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return nil
	}

	resetToken, err := token.GenerateRandomToken(32)
	if err != nil {
		return err
	}

	resetHash := token.HashSHA256(resetToken)
	expiresAt := time.Now().Add(resetTokenTTL)
	if err := s.repo.CreateUserToken(ctx, user.ID, resetHash, repository.TokenTypePasswordReset, expiresAt); err != nil {
		return err
	}

	resetURL := strings.TrimRight(s.base, "/") + "/reset-password?token=" + resetToken
	return s.mail.SendPasswordResetEmail(ctx, user.Email, resetURL)
}

// ResetPassword consumes a reset token and revokes all sessions.
func (s *Service) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	hash := token.HashSHA256(rawToken)
	userID, expiresAt, err := s.repo.GetUserToken(ctx, hash, repository.TokenTypePasswordReset)
	if err != nil {
		return apperr.Unauthorized("invalid or expired token")
	}
	if time.Now().After(expiresAt) {
		return apperr.Unauthorized("invalid or expired token")
	}

	passwordHash, err := password.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, userID, passwordHash); err != nil {
		return err
	}

	_ = s.repo.UseUserToken(ctx, hash, repository.TokenTypePasswordReset)
	_ = s.repo.RevokeAllRefreshTokens(ctx, userID)

	s.log.AuthEvent("password_reset", userID.String(), true, "")
	return nil
}

func (s *Service) issueTokens(ctx context.Context, userID uuid.UUID) (TokenPair, error) {
	claims, err := s.repo.GetClaims(ctx, userID)
	if err != nil {
		return TokenPair{}, err
	}

	accessToken, err := s.signJWT(userID, claims)
	if err != nil {
		return TokenPair{}, err
	}

	refreshToken, err := token.GenerateRandomToken(48)
	if err != nil {
		return TokenPair{}, err
	}

	hash := token.HashSHA256(refreshToken)
	expiresAt := time.Now().Add(s.cfg.GetRefreshTokenTTL())
	if err := s.repo.CreateRefreshToken(ctx, userID, hash, expiresAt); err != nil {
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *Service) signJWT(userID uuid.UUID, userClaims repository.Claims) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  userID.String(),
		"type": accessTokenType,
		"exp":  now.Add(s.cfg.GetAccessTokenTTL()).Unix(),
		"iat":  now.Unix(),
	}
	if userClaims.OrganizationID != nil {
		claims["tenant_id"] = userClaims.OrganizationID.String()
	}
	if userClaims.RoleName != nil {
		claims["roles"] = []string{*userClaims.RoleName}
	} else {
		claims["roles"] = []string{}
	}

	tokenObj := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tokenObj.SignedString([]byte(s.cfg.GetJWTAccessSecret()))
}
