package interview

import (
	"context"
	"time"
)

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error

	ListFamilies(ctx context.Context) ([]FamilyRef, error)
	ListMembers(ctx context.Context) ([]MemberRef, error)
	// ListInterviews returns every interview, or only those of familyID when set,
	// newest first (date, then id).
	ListInterviews(ctx context.Context, familyID *int64) ([]Record, error)
	FamilyExists(ctx context.Context, familyID int64) (bool, error)

	CreateInterview(ctx context.Context, interview *Interview) error
	LinkMonitor(ctx context.Context, interviewID, monitorID int64) error

	// LockNextVisit takes a row lock on the interview and returns its next visit.
	LockNextVisit(ctx context.Context, interviewID int64) (*time.Time, error)
	ClearNextVisit(ctx context.Context, interviewID int64, updatedAt time.Time) error
}
