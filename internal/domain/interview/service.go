package interview

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"cepas/internal/domain/dates"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const (
	defaultRecentDays = 30
	soonDays          = 7
	metricsWindowDays = 30

	criticalDays  = 365
	alertDays     = 180
	attentionDays = 90

	monitorSeparator = ", "
)

type Config struct {
	// RecentDays is how old a held interview may be and still be tagged recent.
	RecentDays int
}

type Service struct {
	repo Repository
	cfg  Config
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return NewServiceWithConfig(repo, Config{RecentDays: defaultRecentDays})
}

func NewServiceWithConfig(repo Repository, cfg Config) *Service {
	if cfg.RecentDays <= 0 {
		cfg.RecentDays = defaultRecentDays
	}
	return &Service{repo: repo, cfg: cfg, now: time.Now}
}

// Classify maps days since the latest interview to a staleness status.
// A nil value means the family was never interviewed.
func Classify(daysSinceLast *int) Status {
	switch {
	case daysSinceLast == nil:
		return StatusPending
	case *daysSinceLast >= criticalDays:
		return StatusCritical
	case *daysSinceLast >= alertDays:
		return StatusAlert
	case *daysSinceLast >= attentionDays:
		return StatusAttention
	default:
		return StatusUpToDate
	}
}

func (s *Service) Summary(ctx context.Context) (SummaryResult, error) {
	families, err := s.repo.ListFamilies(ctx)
	if err != nil {
		return SummaryResult{}, fmt.Errorf("list families: %w", err)
	}
	members, err := s.repo.ListMembers(ctx)
	if err != nil {
		return SummaryResult{}, fmt.Errorf("list members: %w", err)
	}
	records, err := s.repo.ListInterviews(ctx, nil)
	if err != nil {
		return SummaryResult{}, fmt.Errorf("list interviews: %w", err)
	}

	today := dates.Midnight(s.now())
	membersByFamily := make(map[int64][]MemberRef, len(families))
	for _, member := range members {
		membersByFamily[member.FamilyID] = append(membersByFamily[member.FamilyID], member)
	}
	interviewsByFamily := make(map[int64][]Record, len(families))
	for _, record := range records {
		interviewsByFamily[record.FamilyID] = append(interviewsByFamily[record.FamilyID], record)
	}

	metrics := Metrics{TotalFamilies: len(families), TotalInterviews: len(records)}
	for _, record := range records {
		ago := dates.DaysBetween(record.Date, today)
		if ago >= 0 && ago <= metricsWindowDays {
			metrics.InterviewsLast30Days++
		}
		if record.Date.Year() == today.Year() && ago >= 0 {
			metrics.InterviewsThisYear++
		}
	}

	summaries := make([]FamilySummary, 0, len(families))
	for _, family := range families {
		summary := FamilySummary{
			FamilyID:   family.ID,
			FamilyName: family.Name,
		}
		if responsible := PickResponsible(membersByFamily[family.ID]); responsible != nil {
			summary.Responsible = &ResponsibleMember{ID: responsible.ID, Name: responsible.Name, Relation: responsible.Relation}
		}

		history := interviewsByFamily[family.ID]
		summary.TotalInterviews = len(history)
		if latest := latestRecord(history); latest != nil {
			since := dates.DaysBetween(latest.Date, today)
			summary.DaysSinceLast = &since
			if latest.NextVisit != nil {
				until := dates.DaysBetween(today, *latest.NextVisit)
				summary.DaysUntilNextVisit = &until
			}
			summary.LastInterview = &LastInterview{
				ID:              latest.ID,
				Date:            dates.Format(&latest.Date),
				IntervieweeName: latest.IntervieweeName,
				ContactPhone:    latest.ContactPhone,
				Notes:           latest.Notes,
				NextVisit:       dates.Format(latest.NextVisit),
				Monitors:        nonNilMonitors(latest.Monitors),
			}
			metrics.FamiliesWithInterviews++
		}
		summary.Status = Classify(summary.DaysSinceLast)

		switch summary.Status {
		case StatusCritical:
			metrics.Critical++
		case StatusAlert, StatusAttention:
			metrics.AlertOrAttention++
		}
		summaries = append(summaries, summary)
	}
	metrics.FamiliesWithoutInterviews = metrics.TotalFamilies - metrics.FamiliesWithInterviews

	sortSummaries(summaries)
	return SummaryResult{Families: summaries, Metrics: metrics}, nil
}

// sortSummaries puts never-interviewed families first, then the stalest,
// then alphabetical order.
func sortSummaries(summaries []FamilySummary) {
	collator := collate.New(language.BrazilianPortuguese, collate.IgnoreCase, collate.IgnoreDiacritics)
	sort.SliceStable(summaries, func(i, j int) bool {
		a, b := summaries[i], summaries[j]
		if (a.DaysSinceLast == nil) != (b.DaysSinceLast == nil) {
			return a.DaysSinceLast == nil
		}
		if a.DaysSinceLast != nil && *a.DaysSinceLast != *b.DaysSinceLast {
			return *a.DaysSinceLast > *b.DaysSinceLast
		}
		return collator.CompareString(a.FamilyName, b.FamilyName) < 0
	})
}

func latestRecord(records []Record) *Record {
	var latest *Record
	for i := range records {
		record := &records[i]
		if latest == nil ||
			record.Date.After(latest.Date) ||
			(record.Date.Equal(latest.Date) && record.ID > latest.ID) {
			latest = record
		}
	}
	return latest
}

func (s *Service) Calendar(ctx context.Context) ([]CalendarEvent, error) {
	records, err := s.repo.ListInterviews(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list interviews: %w", err)
	}

	today := dates.Midnight(s.now())
	events := make([]CalendarEvent, 0, len(records)*2)
	for _, record := range records {
		names, emails := joinMonitors(record.Monitors)
		base := CalendarEvent{
			InterviewID:     record.ID,
			FamilyID:        record.FamilyID,
			FamilyName:      record.FamilyName,
			IntervieweeName: record.IntervieweeName,
			ContactPhone:    record.ContactPhone,
			MonitorNames:    names,
			MonitorEmails:   emails,
		}

		held := base
		held.ID = fmt.Sprintf("held-%d", record.ID)
		held.Kind = EventHeld
		held.Date = dates.Format(&record.Date)
		held.DayOffset = dates.DaysBetween(today, record.Date)
		held.Tag = TagHistoric
		if -held.DayOffset <= s.cfg.RecentDays {
			held.Tag = TagRecent
		}
		events = append(events, held)

		if record.NextVisit == nil {
			continue
		}
		scheduled := base
		scheduled.ID = fmt.Sprintf("scheduled-%d", record.ID)
		scheduled.Kind = EventScheduled
		scheduled.Date = dates.Format(record.NextVisit)
		scheduled.DayOffset = dates.DaysBetween(today, *record.NextVisit)
		switch {
		case scheduled.DayOffset < 0:
			scheduled.Tag = TagOverdue
		case scheduled.DayOffset <= soonDays:
			scheduled.Tag = TagSoon
		default:
			scheduled.Tag = TagPlanned
		}
		events = append(events, scheduled)
	}

	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Date != events[j].Date {
			return events[i].Date < events[j].Date
		}
		return events[i].ID < events[j].ID
	})
	return events, nil
}

func joinMonitors(monitors []MonitorRef) (string, string) {
	names := make([]string, 0, len(monitors))
	emails := make([]string, 0, len(monitors))
	for _, monitor := range monitors {
		if monitor.Name != "" {
			names = append(names, monitor.Name)
		}
		if monitor.Email != "" {
			emails = append(emails, monitor.Email)
		}
	}
	return strings.Join(names, monitorSeparator), strings.Join(emails, monitorSeparator)
}

// CompleteNextVisit clears a scheduled next visit under a row lock.
func (s *Service) CompleteNextVisit(ctx context.Context, interviewID int64) (time.Time, error) {
	if interviewID <= 0 {
		return time.Time{}, fmt.Errorf("%w: invalid interview id", ErrInvalidInput)
	}

	completedAt := s.now().UTC()
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		nextVisit, err := tx.LockNextVisit(ctx, interviewID)
		if err != nil {
			return err
		}
		if nextVisit == nil {
			return ErrNoScheduledVisit
		}
		return tx.ClearNextVisit(ctx, interviewID, completedAt)
	})
	if err != nil {
		return time.Time{}, err
	}
	return completedAt, nil
}

func (s *Service) History(ctx context.Context, familyID int64) ([]Record, error) {
	exists, err := s.repo.FamilyExists(ctx, familyID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrFamilyNotFound
	}
	return s.repo.ListInterviews(ctx, &familyID)
}

// Register stores one interview for a family and links its monitors. Linking is
// best-effort: failures come back as warnings.
func (s *Service) Register(ctx context.Context, actor string, familyID int64, input RegisterInput) (*RegisterResult, error) {
	date, err := dates.Parse(input.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: date: %v", ErrInvalidInput, err)
	}
	if date == nil {
		return nil, fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	nextVisit, err := dates.Parse(input.NextVisit)
	if err != nil {
		return nil, fmt.Errorf("%w: nextVisit: %v", ErrInvalidInput, err)
	}

	exists, err := s.repo.FamilyExists(ctx, familyID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrFamilyNotFound
	}

	record := Interview{
		FamilyID:        familyID,
		Date:            *date,
		IntervieweeName: strings.TrimSpace(input.IntervieweeName),
		ContactPhone:    strings.TrimSpace(input.ContactPhone),
		Notes:           strings.TrimSpace(input.Notes),
		NextVisit:       nextVisit,
		AuditUser:       actor,
	}
	if err := s.repo.CreateInterview(ctx, &record); err != nil {
		return nil, fmt.Errorf("create interview: %w", err)
	}

	result := &RegisterResult{Interview: record, Linked: []int64{}, Warnings: []string{}}
	seen := make(map[int64]struct{}, len(input.MonitorIDs))
	for _, monitorID := range input.MonitorIDs {
		if _, dup := seen[monitorID]; dup || monitorID <= 0 {
			continue
		}
		seen[monitorID] = struct{}{}
		if err := s.repo.LinkMonitor(ctx, record.ID, monitorID); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("monitor %d not linked: %v", monitorID, err))
			continue
		}
		result.Linked = append(result.Linked, monitorID)
	}
	return result, nil
}

func nonNilMonitors(monitors []MonitorRef) []MonitorRef {
	if monitors == nil {
		return []MonitorRef{}
	}
	return monitors
}
