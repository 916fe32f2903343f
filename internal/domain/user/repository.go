package user

import (
	"context"
	"time"
)

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error

	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	CountUsers(ctx context.Context) (int64, error)
	CreateUser(ctx context.Context, user *User) error
	RecordLoginFailure(ctx context.Context, id int64, attempts int, lockedUntil *time.Time) error
	RecordLoginSuccess(ctx context.Context, id int64, at time.Time) error
	UpdatePassword(ctx context.Context, id int64, hash string) error

	CreateRefreshToken(ctx context.Context, token *RefreshToken) error
	GetRefreshToken(ctx context.Context, hash string) (*RefreshToken, error)
	// RevokeRefreshToken returns false when the token was already revoked.
	RevokeRefreshToken(ctx context.Context, id int64, at time.Time) (bool, error)
	RevokeUserTokens(ctx context.Context, userID int64, at time.Time) error

	AppendLog(ctx context.Context, entry *SystemLog) error
}
