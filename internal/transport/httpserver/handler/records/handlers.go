package records

import (
	"context"

	recordsdomain "cepas/internal/domain/records"
	"cepas/pkg/logger"
)

type Service interface {
	List(ctx context.Context, name string) ([]recordsdomain.Row, error)
	Get(ctx context.Context, name string, id int64) (recordsdomain.Row, error)
	Insert(ctx context.Context, name string, body map[string]any) (int64, error)
	Update(ctx context.Context, name string, id int64, body map[string]any) (int64, error)
	Delete(ctx context.Context, name string, id int64) (int64, error)
}

type Handlers struct {
	Records Service
	log     logger.Logger
}

func New(records Service, log logger.Logger) *Handlers {
	return &Handlers{Records: records, log: log}
}
