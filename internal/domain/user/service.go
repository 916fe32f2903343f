package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"cepas/pkg/logger"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// bcrypt rejects passwords longer than this many bytes.
const maxPasswordBytes = 72

type Config struct {
	JWTSecret         string
	AccessTTL         time.Duration
	RefreshTTL        time.Duration
	MaxFailedAttempts int
	LockDuration      time.Duration
}

type Service struct {
	repo     Repository
	cfg      Config
	log      logger.Logger
	now      func() time.Time
	newToken func() string
	hashCost int
}

func NewService(repo Repository, cfg Config, log logger.Logger) *Service {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	if cfg.MaxFailedAttempts <= 0 {
		cfg.MaxFailedAttempts = 5
	}
	if cfg.LockDuration <= 0 {
		cfg.LockDuration = 15 * time.Minute
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:     repo,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
		newToken: uuid.NewString,
		hashCost: bcrypt.DefaultCost,
	}
}

func (s *Service) Login(ctx context.Context, username, password, ip string) (*TokenPair, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}

	user, err := s.repo.GetByUsername(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		s.audit(ctx, nil, ActionLoginFailed, username, ip)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	now := s.now()
	if err := s.usable(user, now); err != nil {
		s.audit(ctx, &user.ID, ActionLoginFailed, err.Error(), ip)
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		attempts := user.FailedAttempts + 1
		var lockedUntil *time.Time
		if attempts >= s.cfg.MaxFailedAttempts {
			until := now.Add(s.cfg.LockDuration)
			lockedUntil = &until
			attempts = 0
		}
		if err := s.repo.RecordLoginFailure(ctx, user.ID, attempts, lockedUntil); err != nil {
			return nil, fmt.Errorf("record login failure: %w", err)
		}
		s.audit(ctx, &user.ID, ActionLoginFailed, "wrong password", ip)
		return nil, ErrInvalidCredentials
	}

	if err := s.repo.RecordLoginSuccess(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("record login: %w", err)
	}
	pair, err := s.issue(ctx, s.repo, user, now)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, &user.ID, ActionLogin, "", ip)
	return pair, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is returned.
func (s *Service) Refresh(ctx context.Context, raw string) (*TokenPair, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: refresh token is required", ErrInvalidInput)
	}

	now := s.now()
	var pair *TokenPair
	err := s.repo.Transaction(ctx, func(repo Repository) error {
		stored, err := s.liveToken(ctx, repo, raw, now)
		if err != nil {
			return err
		}
		user, err := repo.GetByID(ctx, stored.UserID)
		if errors.Is(err, ErrUserNotFound) {
			return ErrInvalidToken
		}
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		if err := s.usable(user, now); err != nil {
			return err
		}

		revoked, err := repo.RevokeRefreshToken(ctx, stored.ID, now)
		if err != nil {
			return fmt.Errorf("revoke refresh token: %w", err)
		}
		if !revoked {
			return ErrInvalidToken
		}
		pair, err = s.issue(ctx, repo, user, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// Logout revokes the refresh token. Unknown or already revoked tokens are
// accepted silently.
func (s *Service) Logout(ctx context.Context, raw, ip string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("%w: refresh token is required", ErrInvalidInput)
	}

	stored, err := s.repo.GetRefreshToken(ctx, hashRefreshToken(raw))
	if errors.Is(err, ErrTokenNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load refresh token: %w", err)
	}
	if stored.RevokedAt != nil {
		return nil
	}
	if _, err := s.repo.RevokeRefreshToken(ctx, stored.ID, s.now()); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	s.audit(ctx, &stored.UserID, ActionLogout, "", ip)
	return nil
}

func (s *Service) Register(ctx context.Context, actor Identity, input RegisterInput, ip string) (*User, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	switch {
	case input.Username == "":
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	case input.Name == "":
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	case !input.Role.Valid():
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, input.Role)
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &User{
		Username:     input.Username,
		PasswordHash: string(hash),
		Name:         input.Name,
		Role:         input.Role,
		Active:       true,
	}
	if input.Email != "" {
		user.Email = &input.Email
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	s.audit(ctx, &actor.UserID, ActionRegister, user.Username, ip)
	return user, nil
}

// ChangePassword replaces the caller's password and revokes every refresh
// token issued to them.
func (s *Service) ChangePassword(ctx context.Context, actor Identity, current, next, ip string) error {
	if err := validatePassword(next); err != nil {
		return err
	}
	user, err := s.repo.GetByID(ctx, actor.UserID)
	if errors.Is(err, ErrUserNotFound) {
		return ErrInvalidToken
	}
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)) != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.hashCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	now := s.now()
	err = s.repo.Transaction(ctx, func(repo Repository) error {
		if err := repo.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
			return fmt.Errorf("update password: %w", err)
		}
		if err := repo.RevokeUserTokens(ctx, user.ID, now); err != nil {
			return fmt.Errorf("revoke refresh tokens: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.audit(ctx, &user.ID, ActionPasswordChange, "", ip)
	return nil
}

// Authenticate validates a bearer access token and reloads the user so that
// deactivation and locks take effect before the token expires.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (Identity, error) {
	id, err := s.parseAccessToken(accessToken)
	if err != nil {
		return Identity{}, err
	}
	user, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrUserNotFound) {
		return Identity{}, ErrInvalidToken
	}
	if err != nil {
		return Identity{}, fmt.Errorf("load user: %w", err)
	}
	if err := s.usable(user, s.now()); err != nil {
		return Identity{}, err
	}
	return user.Identity(), nil
}

// EnsureBootstrapAdmin creates the first admin account when the user table is
// empty. It reports whether an account was created.
func (s *Service) EnsureBootstrapAdmin(ctx context.Context, username, password string) (bool, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return false, nil
	}
	count, err := s.repo.CountUsers(ctx)
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return false, nil
	}
	_, err = s.Register(ctx, Identity{}, RegisterInput{
		Username: username,
		Password: password,
		Name:     "Administrador",
		Role:     RoleAdmin,
	}, "")
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) usable(user *User, now time.Time) error {
	if !user.Active {
		return ErrAccountInactive
	}
	if user.Locked(now) {
		return ErrAccountLocked
	}
	return nil
}

func (s *Service) liveToken(ctx context.Context, repo Repository, raw string, now time.Time) (*RefreshToken, error) {
	stored, err := repo.GetRefreshToken(ctx, hashRefreshToken(raw))
	if errors.Is(err, ErrTokenNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("load refresh token: %w", err)
	}
	if stored.RevokedAt != nil || !stored.ExpiresAt.After(now) {
		return nil, ErrInvalidToken
	}
	return stored, nil
}

func (s *Service) issue(ctx context.Context, repo Repository, user *User, now time.Time) (*TokenPair, error) {
	access, err := s.signAccessToken(user, now)
	if err != nil {
		return nil, err
	}
	raw := s.newToken()
	token := &RefreshToken{
		UserID:    user.ID,
		TokenHash: hashRefreshToken(raw),
		ExpiresAt: now.Add(s.cfg.RefreshTTL),
	}
	if err := repo.CreateRefreshToken(ctx, token); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: raw,
		ExpiresIn:    int64(s.cfg.AccessTTL / time.Second),
		User:         user.Identity(),
	}, nil
}

// audit appends a system log entry. A failed append never fails the caller's
// operation.
func (s *Service) audit(ctx context.Context, userID *int64, action, detail, ip string) {
	entry := &SystemLog{Action: action, Detail: detail, IP: ip}
	if userID != nil && *userID > 0 {
		id := *userID
		entry.UserID = &id
	}
	if err := s.repo.AppendLog(ctx, entry); err != nil {
		s.log.InternalError("user: append system log failed", err, "action", action)
	}
}

func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return fmt.Errorf("%w: password must have at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	if len(password) > maxPasswordBytes {
		return fmt.Errorf("%w: password must have at most %d bytes", ErrInvalidInput, maxPasswordBytes)
	}
	return nil
}
