package interviews

import (
	"context"
	"time"

	interviewdomain "cepas/internal/domain/interview"
	"cepas/pkg/logger"
)

type Service interface {
	Summary(ctx context.Context) (interviewdomain.SummaryResult, error)
	Calendar(ctx context.Context) ([]interviewdomain.CalendarEvent, error)
	CompleteNextVisit(ctx context.Context, interviewID int64) (time.Time, error)
	History(ctx context.Context, familyID int64) ([]interviewdomain.Record, error)
	Register(ctx context.Context, actor string, familyID int64, input interviewdomain.RegisterInput) (*interviewdomain.RegisterResult, error)
}

// FamilyCache is told when an interview write changes a family aggregate.
type FamilyCache interface {
	Invalidate(familyID int64)
	InvalidateAll()
}

type Handlers struct {
	Interviews Service
	cache      FamilyCache
	log        logger.Logger
}

func New(interviews Service, cache FamilyCache, log logger.Logger) *Handlers {
	return &Handlers{Interviews: interviews, cache: cache, log: log}
}
