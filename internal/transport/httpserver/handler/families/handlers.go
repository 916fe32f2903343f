package families

import (
	"context"

	familydomain "cepas/internal/domain/family"
	"cepas/pkg/logger"
)

type Service interface {
	Create(ctx context.Context, actor string, payload familydomain.Payload) (*familydomain.CreateResult, error)
	Read(ctx context.Context, familyID int64) (*familydomain.Aggregate, error)
	Update(ctx context.Context, actor string, familyID int64, payload familydomain.Payload) (*familydomain.Report, error)
	Delete(ctx context.Context, familyID int64) (*familydomain.Report, error)
	List(ctx context.Context) ([]familydomain.ListItem, error)
}

type Handlers struct {
	Families Service
	log      logger.Logger
}

func New(families Service, log logger.Logger) *Handlers {
	return &Handlers{Families: families, log: log}
}
