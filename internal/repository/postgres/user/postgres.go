package user

import (
	"context"
	"errors"
	"time"

	domain "cepas/internal/domain/user"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const uniqueViolation = "23505"

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(domain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findUser(ctx, "username = ?", username)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.findUser(ctx, "id = ?", id)
}

func (r *PostgresRepository) findUser(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).Where(query, arg).Take(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *PostgresRepository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.User{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostgresRepository) CreateUser(ctx context.Context, user *domain.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrUsernameTaken
	}
	return err
}

func (r *PostgresRepository) RecordLoginFailure(ctx context.Context, id int64, attempts int, lockedUntil *time.Time) error {
	return r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"tentativas_falhas": attempts,
			"bloqueado_ate":     lockedUntil,
		}).Error
}

func (r *PostgresRepository) RecordLoginSuccess(ctx context.Context, id int64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"tentativas_falhas": 0,
			"bloqueado_ate":     nil,
			"ultimo_login":      at,
		}).Error
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Update("senha_hash", hash).Error
}

func (r *PostgresRepository) CreateRefreshToken(ctx context.Context, token *domain.RefreshToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *PostgresRepository) GetRefreshToken(ctx context.Context, hash string) (*domain.RefreshToken, error) {
	var token domain.RefreshToken
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("token_hash = ?", hash).
		Take(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *PostgresRepository) RevokeRefreshToken(ctx context.Context, id int64, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.RefreshToken{}).
		Where("id = ? AND revogado_em IS NULL", id).
		Update("revogado_em", at)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *PostgresRepository) RevokeUserTokens(ctx context.Context, userID int64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&domain.RefreshToken{}).
		Where("usuario_id = ? AND revogado_em IS NULL", userID).
		Update("revogado_em", at).Error
}

func (r *PostgresRepository) AppendLog(ctx context.Context, entry *domain.SystemLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}
