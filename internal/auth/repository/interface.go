package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AuthRepository defines credential and token persistence. Services depend
// on this abstraction so tests can fake it.
type AuthRepository interface {
	CreateUser(ctx context.Context, email, passwordHash, fullName string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (User, error)
	GetClaims(ctx context.Context, userID uuid.UUID) (Claims, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error

	CreateUserToken(ctx context.Context, userID uuid.UUID, tokenHash, tokenType string, expiresAt time.Time) error
	GetUserToken(ctx context.Context, tokenHash, tokenType string) (uuid.UUID, time.Time, error)
	UseUserToken(ctx context.Context, tokenHash, tokenType string) error

	CreateRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, time.Time, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllRefreshTokens(ctx context.Context, userID uuid.UUID) error
}

var _ AuthRepository = (*Repository)(nil)
