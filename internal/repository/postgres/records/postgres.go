package records

import (
	"context"

	recordsdomain "cepas/internal/domain/records"
	"cepas/internal/repository/postgres/sqlstore"
	"gorm.io/gorm"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) FetchAll(ctx context.Context, entity recordsdomain.Entity) ([]recordsdomain.Row, error) {
	var rows []map[string]any
	if err := r.db.WithContext(ctx).
		Table(entity.Table).
		Order(entity.PrimaryKey).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]recordsdomain.Row, 0, len(rows))
	for _, row := range rows {
		result = append(result, recordsdomain.Row(row))
	}
	return result, nil
}

func (r *PostgresRepository) FetchByID(ctx context.Context, entity recordsdomain.Entity, id int64) (recordsdomain.Row, error) {
	var rows []map[string]any
	if err := r.db.WithContext(ctx).
		Table(entity.Table).
		Where(entity.PrimaryKey+" = ?", id).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, recordsdomain.ErrNotFound
	}
	return recordsdomain.Row(rows[0]), nil
}

func (r *PostgresRepository) Insert(ctx context.Context, entity recordsdomain.Entity, values map[string]any) (int64, error) {
	return sqlstore.Insert(ctx, r.db, entity.Table, entity.PrimaryKey, values)
}

func (r *PostgresRepository) UpdateByID(ctx context.Context, entity recordsdomain.Entity, id int64, values map[string]any) (int64, error) {
	return sqlstore.UpdateByID(ctx, r.db, entity.Table, entity.PrimaryKey, id, values)
}

func (r *PostgresRepository) DeleteByID(ctx context.Context, entity recordsdomain.Entity, id int64) (int64, error) {
	return sqlstore.DeleteWhere(ctx, r.db, entity.Table, entity.PrimaryKey, []int64{id})
}
