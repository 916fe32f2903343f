package records

import "context"

// Row is one record keyed by column name.
type Row map[string]any

type Repository interface {
	FetchAll(ctx context.Context, entity Entity) ([]Row, error)
	FetchByID(ctx context.Context, entity Entity, id int64) (Row, error)
	Insert(ctx context.Context, entity Entity, values map[string]any) (int64, error)
	UpdateByID(ctx context.Context, entity Entity, id int64, values map[string]any) (int64, error)
	DeleteByID(ctx context.Context, entity Entity, id int64) (int64, error)
}
