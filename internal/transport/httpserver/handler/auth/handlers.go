package auth

import (
	"context"

	userdomain "cepas/internal/domain/user"
	"cepas/pkg/logger"
)

type Service interface {
	Login(ctx context.Context, username, password, ip string) (*userdomain.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*userdomain.TokenPair, error)
	Logout(ctx context.Context, refreshToken, ip string) error
	Register(ctx context.Context, actor userdomain.Identity, input userdomain.RegisterInput, ip string) (*userdomain.User, error)
	ChangePassword(ctx context.Context, actor userdomain.Identity, current, next, ip string) error
}

type Handlers struct {
	Users Service
	log   logger.Logger
}

func New(users Service, log logger.Logger) *Handlers {
	return &Handlers{Users: users, log: log}
}
