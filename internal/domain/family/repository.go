package family

import (
	"context"

	"cepas/internal/domain/interview"
)

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error

	// Insert writes one row and returns its generated id.
	Insert(ctx context.Context, table Table, values map[string]any) (int64, error)
	UpdateByID(ctx context.Context, table Table, id int64, values map[string]any) (int64, error)
	DeleteByID(ctx context.Context, table Table, id int64) (int64, error)
	// DeleteOwned removes every row whose owner column is in ownerIDs.
	DeleteOwned(ctx context.Context, table Owned, ownerIDs []int64) (int64, error)
	// FindOwnedID returns the lowest id among the rows owned by ownerID.
	FindOwnedID(ctx context.Context, table Owned, ownerID int64) (int64, bool, error)
	// FindOwned loads the row FindOwnedID would pick into dst.
	FindOwned(ctx context.Context, dst Owned, ownerID int64) (bool, error)

	GetFamily(ctx context.Context, familyID int64) (*Family, error)
	ListMembers(ctx context.Context, familyID int64) ([]Member, error)
	// LatestChildProgram returns the record with the latest start date, or nil.
	LatestChildProgram(ctx context.Context, memberID int64) (*ChildProgram, error)
	// OpenChildProgramID returns the record whose end date is null.
	OpenChildProgramID(ctx context.Context, memberID int64) (int64, bool, error)
	// LatestInterview returns the newest interview (date, then id) or nil.
	LatestInterview(ctx context.Context, familyID int64) (*LatestInterview, error)
	ListInterviewIDs(ctx context.Context, familyID int64) ([]int64, error)
	// ReplaceMonitorLink drops every monitor link of the interview and adds one.
	ReplaceMonitorLink(ctx context.Context, interviewID, monitorID int64) error

	ListOverview(ctx context.Context) ([]OverviewRow, error)
	ListMemberRelations(ctx context.Context) ([]interview.MemberRef, error)
}
