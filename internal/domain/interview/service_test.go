package interview

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeInterviewRepo struct {
	families   []FamilyRef
	members    []MemberRef
	interviews []Record
	links      map[int64][]int64
	linkErr    map[int64]error
	nextID     int64
	locked     []int64
}

func newFakeInterviewRepo() *fakeInterviewRepo {
	return &fakeInterviewRepo{
		links:   make(map[int64][]int64),
		linkErr: make(map[int64]error),
		nextID:  100,
	}
}

func (r *fakeInterviewRepo) Transaction(ctx context.Context, fn func(Repository) error) error {
	return fn(r)
}

func (r *fakeInterviewRepo) ListFamilies(ctx context.Context) ([]FamilyRef, error) {
	return r.families, nil
}

func (r *fakeInterviewRepo) ListMembers(ctx context.Context) ([]MemberRef, error) {
	return r.members, nil
}

func (r *fakeInterviewRepo) ListInterviews(ctx context.Context, familyID *int64) ([]Record, error) {
	result := make([]Record, 0)
	for _, record := range r.interviews {
		if familyID != nil && record.FamilyID != *familyID {
			continue
		}
		result = append(result, record)
	}
	return result, nil
}

func (r *fakeInterviewRepo) FamilyExists(ctx context.Context, familyID int64) (bool, error) {
	for _, family := range r.families {
		if family.ID == familyID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeInterviewRepo) CreateInterview(ctx context.Context, interview *Interview) error {
	r.nextID++
	interview.ID = r.nextID
	r.interviews = append(r.interviews, Record{Interview: *interview})
	return nil
}

func (r *fakeInterviewRepo) LinkMonitor(ctx context.Context, interviewID, monitorID int64) error {
	if err, ok := r.linkErr[monitorID]; ok {
		return err
	}
	r.links[interviewID] = append(r.links[interviewID], monitorID)
	return nil
}

func (r *fakeInterviewRepo) LockNextVisit(ctx context.Context, interviewID int64) (*time.Time, error) {
	r.locked = append(r.locked, interviewID)
	for _, record := range r.interviews {
		if record.ID == interviewID {
			return record.NextVisit, nil
		}
	}
	return nil, ErrInterviewNotFound
}

func (r *fakeInterviewRepo) ClearNextVisit(ctx context.Context, interviewID int64, updatedAt time.Time) error {
	for i := range r.interviews {
		if r.interviews[i].ID == interviewID {
			r.interviews[i].NextVisit = nil
			r.interviews[i].UpdatedAt = updatedAt
			return nil
		}
	}
	return ErrInterviewNotFound
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func dayPtr(t time.Time) *time.Time {
	return &t
}

func newTestService(repo Repository, today time.Time) *Service {
	svc := NewService(repo)
	svc.now = func() time.Time { return today.Add(15 * time.Hour) }
	return svc
}

func TestSummaryScenarioLatestInterviewUpToDate(t *testing.T) {
	repo := newFakeInterviewRepo()
	repo.families = []FamilyRef{{ID: 1, Name: "Silva"}}
	repo.interviews = []Record{
		{Interview: Interview{ID: 1, FamilyID: 1, Date: day(2023, 1, 1)}, FamilyName: "Silva"},
		{Interview: Interview{ID: 2, FamilyID: 1, Date: day(2024, 6, 1), IntervieweeName: "Ana"}, FamilyName: "Silva"},
	}

	svc := newTestService(repo, day(2024, 6, 2))
	result, err := svc.Summary(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(result.Families) != 1 {
		t.Fatalf("expected 1 family, got %d", len(result.Families))
	}
	summary := result.Families[0]
	if summary.DaysSinceLast == nil || *summary.DaysSinceLast != 1 {
		t.Fatalf("expected daysSinceLast 1, got %v", summary.DaysSinceLast)
	}
	if summary.Status != StatusUpToDate {
		t.Fatalf("expected UP_TO_DATE, got %s", summary.Status)
	}
	if summary.TotalInterviews != 2 {
		t.Fatalf("expected 2 interviews, got %d", summary.TotalInterviews)
	}
	if summary.LastInterview == nil || summary.LastInterview.ID != 2 || summary.LastInterview.Date != "2024-06-01" {
		t.Fatalf("expected latest interview 2 on 2024-06-01, got %+v", summary.LastInterview)
	}
}

func TestSummaryStalenessThresholds(t *testing.T) {
	today := day(2024, 6, 2)
	repo := newFakeInterviewRepo()
	repo.families = []FamilyRef{
		{ID: 1, Name: "Exactly365"},
		{ID: 2, Name: "Exactly364"},
		{ID: 3, Name: "Exactly90"},
		{ID: 4, Name: "Never"},
	}
	repo.interviews = []Record{
		{Interview: Interview{ID: 1, FamilyID: 1, Date: today.AddDate(0, 0, -365)}},
		{Interview: Interview{ID: 2, FamilyID: 2, Date: today.AddDate(0, 0, -364)}},
		{Interview: Interview{ID: 3, FamilyID: 3, Date: today.AddDate(0, 0, -90)}},
	}

	svc := newTestService(repo, today)
	result, err := svc.Summary(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	status := make(map[int64]Status)
	for _, summary := range result.Families {
		status[summary.FamilyID] = summary.Status
	}
	if status[1] != StatusCritical {
		t.Fatalf("expected CRITICAL at 365 days, got %s", status[1])
	}
	if status[2] != StatusAlert {
		t.Fatalf("expected ALERT at 364 days, got %s", status[2])
	}
	if status[3] != StatusAttention {
		t.Fatalf("expected ATTENTION at 90 days, got %s", status[3])
	}
	if status[4] != StatusPending {
		t.Fatalf("expected PENDING without interviews, got %s", status[4])
	}

	order := []int64{4, 1, 2, 3}
	for i, familyID := range order {
		if result.Families[i].FamilyID != familyID {
			t.Fatalf("expected family %d at position %d, got %d", familyID, i, result.Families[i].FamilyID)
		}
	}

	metrics := result.Metrics
	if metrics.TotalFamilies != 4 || metrics.FamiliesWithInterviews != 3 || metrics.FamiliesWithoutInterviews != 1 {
		t.Fatalf("unexpected family metrics %+v", metrics)
	}
	if metrics.Critical != 1 || metrics.AlertOrAttention != 2 {
		t.Fatalf("unexpected status metrics %+v", metrics)
	}
}

func TestSummaryMetricsWindows(t *testing.T) {
	today := day(2024, 2, 10)
	repo := newFakeInterviewRepo()
	repo.families = []FamilyRef{{ID: 1, Name: "A"}}
	repo.interviews = []Record{
		{Interview: Interview{ID: 1, FamilyID: 1, Date: day(2024, 2, 1)}},
		{Interview: Interview{ID: 2, FamilyID: 1, Date: day(2024, 1, 11)}},
		{Interview: Interview{ID: 3, FamilyID: 1, Date: day(2023, 12, 20)}},
		{Interview: Interview{ID: 4, FamilyID: 1, Date: day(2024, 3, 1)}},
	}

	svc := newTestService(repo, today)
	result, err := svc.Summary(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Metrics.TotalInterviews != 4 {
		t.Fatalf("expected 4 interviews, got %d", result.Metrics.TotalInterviews)
	}
	if result.Metrics.InterviewsLast30Days != 2 {
		t.Fatalf("expected 2 interviews in the last 30 days, got %d", result.Metrics.InterviewsLast30Days)
	}
	if result.Metrics.InterviewsThisYear != 2 {
		t.Fatalf("expected 2 interviews so far this year, got %d", result.Metrics.InterviewsThisYear)
	}
}

func TestSummaryAlphabeticalTieBreakIgnoresAccents(t *testing.T) {
	repo := newFakeInterviewRepo()
	repo.families = []FamilyRef{{ID: 1, Name: "Oliveira"}, {ID: 2, Name: "Álvares"}, {ID: 3, Name: "barbosa"}}

	svc := newTestService(repo, day(2024, 6, 2))
	result, err := svc.Summary(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	got := []string{result.Families[0].FamilyName, result.Families[1].FamilyName, result.Families[2].FamilyName}
	want := []string{"Álvares", "barbosa", "Oliveira"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}

func TestPickResponsiblePriority(t *testing.T) {
	older := dayPtr(day(1980, 1, 1))
	younger := dayPtr(day(1990, 1, 1))

	tests := []struct {
		name    string
		members []MemberRef
		want    int64
	}{
		{
			name: "responsible beats head",
			members: []MemberRef{
				{ID: 1, Relation: "Chefe da família"},
				{ID: 2, Relation: "Responsável"},
			},
			want: 2,
		},
		{
			name: "head beats parent",
			members: []MemberRef{
				{ID: 1, Relation: "Mãe"},
				{ID: 2, Relation: "head"},
			},
			want: 2,
		},
		{
			name: "parent beats others",
			members: []MemberRef{
				{ID: 1, Relation: "filho"},
				{ID: 2, Relation: "mae"},
			},
			want: 2,
		},
		{
			name: "tie broken by most recent birth date",
			members: []MemberRef{
				{ID: 1, Relation: "pai", BirthDate: younger},
				{ID: 2, Relation: "mãe", BirthDate: older},
			},
			want: 1,
		},
		{
			name: "tie without birth dates broken by highest id",
			members: []MemberRef{
				{ID: 3, Relation: "filha"},
				{ID: 7, Relation: "neto"},
			},
			want: 7,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := PickResponsible(tc.members)
			if got == nil || got.ID != tc.want {
				t.Fatalf("expected member %d, got %+v", tc.want, got)
			}
		})
	}

	if PickResponsible(nil) != nil {
		t.Fatalf("expected nil for no members")
	}
}

func TestCalendarEvents(t *testing.T) {
	today := day(2024, 6, 20)
	repo := newFakeInterviewRepo()
	repo.interviews = []Record{
		{
			Interview: Interview{
				ID:        5,
				FamilyID:  1,
				Date:      today.AddDate(0, 0, -10),
				NextVisit: dayPtr(today.AddDate(0, 0, 3)),
			},
			FamilyName: "Silva",
			Monitors: []MonitorRef{
				{ID: 1, Name: "Joana", Email: "joana@cepas.org"},
				{ID: 2, Name: "Paulo", Email: "paulo@cepas.org"},
			},
		},
		{
			Interview: Interview{
				ID:        6,
				FamilyID:  2,
				Date:      today.AddDate(0, 0, -200),
				NextVisit: dayPtr(today.AddDate(0, 0, -1)),
			},
			FamilyName: "Souza",
		},
		{
			Interview: Interview{
				ID:        7,
				FamilyID:  3,
				Date:      today.AddDate(0, 0, -31),
				NextVisit: dayPtr(today.AddDate(0, 0, 8)),
			},
			FamilyName: "Lima",
		},
	}

	svc := newTestService(repo, today)
	events, err := svc.Calendar(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(events) != 6 {
		t.Fatalf("expected 6 events, got %d", len(events))
	}

	byID := make(map[string]CalendarEvent)
	for _, event := range events {
		byID[event.ID] = event
	}

	held := byID["held-5"]
	if held.Kind != EventHeld || held.Tag != TagRecent || held.DayOffset != -10 {
		t.Fatalf("unexpected held event %+v", held)
	}
	if held.MonitorNames != "Joana, Paulo" || held.MonitorEmails != "joana@cepas.org, paulo@cepas.org" {
		t.Fatalf("unexpected monitors %q / %q", held.MonitorNames, held.MonitorEmails)
	}
	if scheduled := byID["scheduled-5"]; scheduled.Tag != TagSoon || scheduled.DayOffset != 3 {
		t.Fatalf("unexpected scheduled event %+v", scheduled)
	}
	if event := byID["held-6"]; event.Tag != TagHistoric {
		t.Fatalf("expected historic, got %+v", event)
	}
	if event := byID["scheduled-6"]; event.Tag != TagOverdue {
		t.Fatalf("expected overdue, got %+v", event)
	}
	if event := byID["held-7"]; event.Tag != TagHistoric {
		t.Fatalf("expected historic at 31 days, got %+v", event)
	}
	if event := byID["scheduled-7"]; event.Tag != TagPlanned {
		t.Fatalf("expected planned, got %+v", event)
	}

	for i := 1; i < len(events); i++ {
		if events[i-1].Date > events[i].Date {
			t.Fatalf("expected events sorted by date, got %s before %s", events[i-1].Date, events[i].Date)
		}
	}
}

func TestCalendarRecentWindowConfigurable(t *testing.T) {
	today := day(2024, 6, 20)
	repo := newFakeInterviewRepo()
	repo.interviews = []Record{{Interview: Interview{ID: 1, FamilyID: 1, Date: today.AddDate(0, 0, -10)}}}

	svc := NewServiceWithConfig(repo, Config{RecentDays: 7})
	svc.now = func() time.Time { return today }
	events, err := svc.Calendar(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(events) != 1 || events[0].Tag != TagHistoric {
		t.Fatalf("expected one historic event, got %+v", events)
	}
}

func TestCompleteNextVisitTwice(t *testing.T) {
	today := day(2024, 6, 20)
	repo := newFakeInterviewRepo()
	repo.interviews = []Record{{Interview: Interview{ID: 9, FamilyID: 1, Date: today, NextVisit: dayPtr(today.AddDate(0, 0, 5))}}}

	svc := newTestService(repo, today)
	completedAt, err := svc.CompleteNextVisit(context.Background(), 9)
	if err != nil {
		t.Fatalf("expected first completion to succeed, got %v", err)
	}
	if repo.interviews[0].NextVisit != nil {
		t.Fatalf("expected next visit cleared")
	}
	if !repo.interviews[0].UpdatedAt.Equal(completedAt) {
		t.Fatalf("expected updated-at stamped")
	}

	_, err = svc.CompleteNextVisit(context.Background(), 9)
	if !errors.Is(err, ErrNoScheduledVisit) {
		t.Fatalf("expected ErrNoScheduledVisit, got %v", err)
	}
	if len(repo.locked) != 2 {
		t.Fatalf("expected the row to be locked on each attempt, got %d locks", len(repo.locked))
	}
}

func TestCompleteNextVisitUnknownInterview(t *testing.T) {
	svc := newTestService(newFakeInterviewRepo(), day(2024, 6, 20))
	_, err := svc.CompleteNextVisit(context.Background(), 42)
	if !errors.Is(err, ErrInterviewNotFound) {
		t.Fatalf("expected ErrInterviewNotFound, got %v", err)
	}
	_, err = svc.CompleteNextVisit(context.Background(), 0)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRegisterLinksMonitorsBestEffort(t *testing.T) {
	repo := newFakeInterviewRepo()
	repo.families = []FamilyRef{{ID: 1, Name: "Silva"}}
	repo.linkErr[3] = errors.New("monitor does not exist")

	svc := newTestService(repo, day(2024, 6, 20))
	result, err := svc.Register(context.Background(), "joana", 1, RegisterInput{
		Date:            "2024-06-19",
		IntervieweeName: " Ana ",
		NextVisit:       "2024-07-01T10:00:00Z",
		MonitorIDs:      []int64{2, 3, 2},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Interview.ID == 0 || result.Interview.IntervieweeName != "Ana" || result.Interview.AuditUser != "joana" {
		t.Fatalf("unexpected interview %+v", result.Interview)
	}
	if result.Interview.NextVisit == nil || !result.Interview.NextVisit.Equal(day(2024, 7, 1)) {
		t.Fatalf("expected next visit normalized to midnight, got %v", result.Interview.NextVisit)
	}
	if len(result.Linked) != 1 || result.Linked[0] != 2 {
		t.Fatalf("expected monitor 2 linked once, got %v", result.Linked)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("expected one warning, got %v", result.Warnings)
	}
}

func TestRegisterValidation(t *testing.T) {
	repo := newFakeInterviewRepo()
	repo.families = []FamilyRef{{ID: 1, Name: "Silva"}}
	svc := newTestService(repo, day(2024, 6, 20))

	if _, err := svc.Register(context.Background(), "x", 1, RegisterInput{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing date, got %v", err)
	}
	if _, err := svc.Register(context.Background(), "x", 1, RegisterInput{Date: "ontem"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad date, got %v", err)
	}
	if _, err := svc.Register(context.Background(), "x", 2, RegisterInput{Date: "2024-06-01"}); !errors.Is(err, ErrFamilyNotFound) {
		t.Fatalf("expected ErrFamilyNotFound, got %v", err)
	}
}

func TestHistoryUnknownFamily(t *testing.T) {
	svc := newTestService(newFakeInterviewRepo(), day(2024, 6, 20))
	if _, err := svc.History(context.Background(), 1); !errors.Is(err, ErrFamilyNotFound) {
		t.Fatalf("expected ErrFamilyNotFound, got %v", err)
	}
}
