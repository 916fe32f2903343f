package family

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cepas/internal/domain/dates"
	"cepas/internal/domain/interview"
)

const (
	SectionFamily     = "Familia"
	SectionAddress    = "Endereco"
	SectionAnimal     = "Animal"
	SectionStructure  = "EstruturaHabitacao"
	SectionSanitation = "RecursoSaneamento"
	SectionMember     = "Membro"
	SectionHealth     = "SaudeMembro"
	SectionChild      = "CriancaCepas"
	SectionInterview  = "Entrevista"
	SectionMonitor    = "EntrevistaMonitor"

	errorPrefix = "Error: "
)

type Config struct {
	// StrictTransactions runs create, update and delete in one transaction.
	StrictTransactions bool
	CacheTTL           time.Duration
}

type Service struct {
	repo  Repository
	cache Cache
	cfg   Config
	now   func() time.Time
}

func NewService(repo Repository) *Service {
	return NewServiceWithCache(repo, nil, Config{})
}

func NewServiceWithCache(repo Repository, cache Cache, cfg Config) *Service {
	if cache == nil || cfg.CacheTTL <= 0 {
		cache = noopCache{}
	}
	return &Service{repo: repo, cache: cache, cfg: cfg, now: time.Now}
}

type monitorLink struct {
	interviewID int64
	monitorID   int64
}

// Create inserts the family and every provided dependent, then returns the
// re-read aggregate. Outside strict mode each insert commits on its own, so a
// failure leaves the earlier rows in place.
func (s *Service) Create(ctx context.Context, actor string, payload Payload) (*CreateResult, error) {
	p, err := payload.plan(true)
	if err != nil {
		return nil, err
	}

	var familyID int64
	var link *monitorLink
	run := func(repo Repository) error {
		var err error
		familyID, link, err = s.create(ctx, repo, actor, p)
		return err
	}
	if s.cfg.StrictTransactions {
		err = s.repo.Transaction(ctx, run)
	} else {
		err = run(s.repo)
	}
	if err != nil {
		return nil, err
	}

	result := &CreateResult{Warnings: []string{}}
	if link != nil {
		values := map[string]any{"entrevista_id": link.interviewID, "monitor_id": link.monitorID}
		if _, err := s.repo.Insert(ctx, interview.InterviewMonitor{}, values); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("monitor %d not linked: %v", link.monitorID, err))
		}
	}

	aggregate, err := s.Read(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("read created family %d: %w", familyID, err)
	}
	result.Aggregate = aggregate
	return result, nil
}

func (s *Service) create(ctx context.Context, repo Repository, actor string, p *plan) (int64, *monitorLink, error) {
	familyID, err := repo.Insert(ctx, Family{}, p.family.with(map[string]any{"usuario": actor}))
	if err != nil {
		return 0, nil, fmt.Errorf("insert %s: %w", SectionFamily, err)
	}
	owner := map[string]any{"familia_id": familyID}

	if p.address.meaningful() {
		if _, err := repo.Insert(ctx, Address{}, p.address.with(owner)); err != nil {
			return familyID, nil, fmt.Errorf("insert %s: %w", SectionAddress, err)
		}
	}

	animal := p.animal.with(owner)
	if !animal.has("tem_animal") {
		animal["tem_animal"] = int16(0)
	}
	if _, err := repo.Insert(ctx, Animal{}, animal); err != nil {
		return familyID, nil, fmt.Errorf("insert %s: %w", SectionAnimal, err)
	}

	if p.structure.meaningful() {
		if _, err := repo.Insert(ctx, HousingStructure{}, p.structure.with(owner)); err != nil {
			return familyID, nil, fmt.Errorf("insert %s: %w", SectionStructure, err)
		}
	}

	if p.sanitation.meaningful() {
		if _, err := repo.Insert(ctx, SanitationResource{}, p.sanitation.with(owner)); err != nil {
			return familyID, nil, fmt.Errorf("insert %s: %w", SectionSanitation, err)
		}
	}

	for i, member := range p.members {
		memberID, err := repo.Insert(ctx, Member{}, member.values.with(map[string]any{"familia_id": familyID, "usuario": actor}))
		if err != nil {
			return familyID, nil, fmt.Errorf("insert %s[%d]: %w", SectionMember, i, err)
		}
		memberOwner := map[string]any{"membro_id": memberID}
		if healthWorthStoring(member.health) {
			if _, err := repo.Insert(ctx, MemberHealth{}, member.health.with(memberOwner)); err != nil {
				return familyID, nil, fmt.Errorf("insert %s[%d]: %w", SectionHealth, i, err)
			}
		}
		if childWorthStoring(member.child) {
			if _, err := repo.Insert(ctx, ChildProgram{}, member.child.with(memberOwner)); err != nil {
				return familyID, nil, fmt.Errorf("insert %s[%d]: %w", SectionChild, i, err)
			}
		}
	}

	var link *monitorLink
	if p.interview.has("data_entrevista") {
		interviewID, err := repo.Insert(ctx, interview.Interview{}, p.interview.with(map[string]any{"familia_id": familyID, "usuario": actor}))
		if err != nil {
			return familyID, nil, fmt.Errorf("insert %s: %w", SectionInterview, err)
		}
		if p.monitorID != nil && *p.monitorID > 0 {
			link = &monitorLink{interviewID: interviewID, monitorID: *p.monitorID}
		}
	}

	return familyID, link, nil
}

// Read assembles the aggregate of one family.
func (s *Service) Read(ctx context.Context, familyID int64) (*Aggregate, error) {
	if cached, ok := s.cache.Get(familyID); ok {
		return cached, nil
	}
	gen := s.cache.Generation()

	family, err := s.repo.GetFamily(ctx, familyID)
	if err != nil {
		return nil, err
	}

	aggregate := &Aggregate{Family: *family, Members: []MemberView{}}
	for _, dst := range []Owned{&aggregate.Address, &aggregate.Animal, &aggregate.Structure, &aggregate.Sanitation} {
		if _, err := s.repo.FindOwned(ctx, dst, familyID); err != nil {
			return nil, fmt.Errorf("load %s: %w", dst.TableName(), err)
		}
	}

	members, err := s.repo.ListMembers(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	for _, member := range members {
		view, err := s.memberView(ctx, member)
		if err != nil {
			return nil, err
		}
		aggregate.Members = append(aggregate.Members, view)
	}

	latest, err := s.repo.LatestInterview(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("latest interview: %w", err)
	}
	if latest != nil {
		aggregate.Interview = InterviewView{
			ID:              latest.ID,
			Date:            dates.Format(&latest.Date),
			IntervieweeName: latest.IntervieweeName,
			ContactPhone:    latest.ContactPhone,
			Notes:           latest.Notes,
			NextVisit:       dates.Format(latest.NextVisit),
			MonitorID:       latest.MonitorID,
			MonitorName:     latest.MonitorName,
		}
	}

	s.cache.Set(familyID, gen, aggregate, s.cfg.CacheTTL)
	return aggregate, nil
}

func (s *Service) memberView(ctx context.Context, member Member) (MemberView, error) {
	view := MemberView{
		ID:            member.ID,
		Name:          member.Name,
		BirthDate:     dates.Format(member.BirthDate),
		Relation:      member.Relation,
		Occupation:    member.Occupation,
		Sex:           member.Sex,
		Race:          member.Race,
		MaritalStatus: member.MaritalStatus,
		Literate:      member.Literate,
		Religion:      member.Religion,
	}

	health := &MemberHealth{}
	found, err := s.repo.FindOwned(ctx, health, member.ID)
	if err != nil {
		return MemberView{}, fmt.Errorf("load health of member %d: %w", member.ID, err)
	}
	if found {
		view.Health = health
	}

	child, err := s.repo.LatestChildProgram(ctx, member.ID)
	if err != nil {
		return MemberView{}, fmt.Errorf("load child program of member %d: %w", member.ID, err)
	}
	if child != nil {
		view.ChildProgram = &ChildProgramView{
			ID:        child.ID,
			StartDate: dates.Format(child.StartDate),
			EndDate:   dates.Format(child.EndDate),
			Shift:     child.Shift,
			Activity:  child.Activity,
			Notes:     child.Notes,
			Active:    child.EndDate == nil,
		}
	}
	return view, nil
}

// recorder writes section outcomes into a report. In strict mode the first
// failure is returned so the surrounding transaction rolls back.
type recorder struct {
	report *Report
	strict bool
}

func (r recorder) record(key, verb string, affected int64, err error) error {
	if err != nil {
		r.report.Sections[key] = errorPrefix + err.Error()
		if r.strict {
			return fmt.Errorf("%s: %w", key, err)
		}
		return nil
	}
	r.report.Sections[key] = fmt.Sprintf("%d rows %s", affected, verb)
	r.report.Total += affected
	return nil
}

// Update applies every provided section independently. Outside strict mode a
// failing section is recorded in the report and the others still run.
func (s *Service) Update(ctx context.Context, actor string, familyID int64, payload Payload) (*Report, error) {
	p, err := payload.plan(false)
	if err != nil {
		return nil, err
	}
	if p.empty() {
		return nil, fmt.Errorf("%w: no section to update", ErrInvalidInput)
	}
	if _, err := s.repo.GetFamily(ctx, familyID); err != nil {
		return nil, err
	}
	defer s.cache.Delete(familyID)

	report := newReport()
	var link *monitorLink
	run := func(repo Repository) error {
		var err error
		link, err = s.update(ctx, repo, recorder{report: report, strict: s.cfg.StrictTransactions}, actor, familyID, p)
		return err
	}
	if s.cfg.StrictTransactions {
		err = s.repo.Transaction(ctx, run)
	} else {
		err = run(s.repo)
	}
	if err != nil {
		return nil, err
	}

	if link != nil {
		if err := s.repo.ReplaceMonitorLink(ctx, link.interviewID, link.monitorID); err != nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("monitor %d not linked: %v", link.monitorID, err))
		} else {
			report.Sections[SectionMonitor] = "1 rows inserted"
			report.Total++
		}
	}
	return report, nil
}

func (s *Service) update(ctx context.Context, repo Repository, rec recorder, actor string, familyID int64, p *plan) (*monitorLink, error) {
	now := s.now().UTC()

	if len(p.family) > 0 {
		affected, err := repo.UpdateByID(ctx, Family{}, familyID, p.family.with(map[string]any{"usuario": actor, "updated_at": now}))
		if err := rec.record(SectionFamily, "updated", affected, err); err != nil {
			return nil, err
		}
	}

	sections := []struct {
		key    string
		table  Owned
		values columns
	}{
		{SectionAddress, Address{}, p.address},
		{SectionAnimal, Animal{}, p.animal},
		{SectionStructure, HousingStructure{}, p.structure},
		{SectionSanitation, SanitationResource{}, p.sanitation},
	}
	for _, section := range sections {
		if len(section.values) == 0 {
			continue
		}
		verb, affected, err := upsert(ctx, repo, section.table, familyID, section.values, func() (int64, bool, error) {
			return repo.FindOwnedID(ctx, section.table, familyID)
		})
		if err := rec.record(section.key, verb, affected, err); err != nil {
			return nil, err
		}
	}

	if len(p.members) > 0 {
		if err := s.updateMembers(ctx, repo, rec, actor, familyID, p.members, now); err != nil {
			return nil, err
		}
	}

	if p.interview == nil {
		return nil, nil
	}
	return s.updateInterview(ctx, repo, rec, actor, familyID, p, now)
}

func (s *Service) updateMembers(ctx context.Context, repo Repository, rec recorder, actor string, familyID int64, members []memberPlan, now time.Time) error {
	existing, err := repo.ListMembers(ctx, familyID)
	if err != nil {
		return rec.record(SectionMember, "", 0, err)
	}
	owned := make(map[int64]struct{}, len(existing))
	for _, member := range existing {
		owned[member.ID] = struct{}{}
	}

	for i, member := range members {
		key := fmt.Sprintf("%s[%d]", SectionMember, i)

		var memberID int64
		if _, ok := owned[derefID(member.id)]; ok {
			memberID = *member.id
			if len(member.values) > 0 {
				affected, err := repo.UpdateByID(ctx, Member{}, memberID, member.values.with(map[string]any{"usuario": actor, "updated_at": now}))
				if err := rec.record(key, "updated", affected, err); err != nil {
					return err
				}
				if err != nil {
					continue
				}
			}
		} else {
			if !member.values.meaningful() {
				continue
			}
			id, err := repo.Insert(ctx, Member{}, member.values.with(map[string]any{"familia_id": familyID, "usuario": actor}))
			if err := rec.record(key, "inserted", 1, err); err != nil {
				return err
			}
			if err != nil {
				continue
			}
			memberID = id
		}

		if len(member.health) > 0 {
			verb, affected, err := upsert(ctx, repo, MemberHealth{}, memberID, member.health, func() (int64, bool, error) {
				return repo.FindOwnedID(ctx, MemberHealth{}, memberID)
			})
			if err := rec.record(fmt.Sprintf("%s[%d]", SectionHealth, i), verb, affected, err); err != nil {
				return err
			}
		}
		if len(member.child) > 0 {
			verb, affected, err := upsert(ctx, repo, ChildProgram{}, memberID, member.child, func() (int64, bool, error) {
				return repo.OpenChildProgramID(ctx, memberID)
			})
			if err := rec.record(fmt.Sprintf("%s[%d]", SectionChild, i), verb, affected, err); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Service) updateInterview(ctx context.Context, repo Repository, rec recorder, actor string, familyID int64, p *plan, now time.Time) (*monitorLink, error) {
	latest, err := repo.LatestInterview(ctx, familyID)
	if err != nil {
		return nil, rec.record(SectionInterview, "", 0, err)
	}

	var interviewID int64
	if latest != nil {
		interviewID = latest.ID
	}
	if p.interview.meaningful() {
		if latest != nil {
			affected, err := repo.UpdateByID(ctx, interview.Interview{}, latest.ID, p.interview.with(map[string]any{"usuario": actor, "updated_at": now}))
			if err := rec.record(SectionInterview, "updated", affected, err); err != nil {
				return nil, err
			}
		} else {
			id, err := repo.Insert(ctx, interview.Interview{}, p.interview.with(map[string]any{"familia_id": familyID, "usuario": actor}))
			if err := rec.record(SectionInterview, "inserted", 1, err); err != nil {
				return nil, err
			}
			if err == nil {
				interviewID = id
			}
		}
	}

	if p.monitorID == nil || *p.monitorID <= 0 {
		return nil, nil
	}
	if interviewID == 0 {
		rec.report.Warnings = append(rec.report.Warnings, fmt.Sprintf("monitor %d not linked: family has no interview", *p.monitorID))
		return nil, nil
	}
	return &monitorLink{interviewID: interviewID, monitorID: *p.monitorID}, nil
}

// upsert updates the row find returns, or inserts one owned by ownerID.
func upsert(ctx context.Context, repo Repository, table Owned, ownerID int64, values columns, find func() (int64, bool, error)) (string, int64, error) {
	id, found, err := find()
	if err != nil {
		return "", 0, err
	}
	if found {
		affected, err := repo.UpdateByID(ctx, table, id, values)
		return "updated", affected, err
	}
	if _, err := repo.Insert(ctx, table, values.with(map[string]any{table.OwnerColumn(): ownerID})); err != nil {
		return "inserted", 0, err
	}
	return "inserted", 1, nil
}

func derefID(id *int64) int64 {
	if id == nil {
		return 0
	}
	return *id
}

// Delete removes the family and every dependent row, children before parents.
// Outside strict mode a failing table is recorded and the sequence continues.
func (s *Service) Delete(ctx context.Context, familyID int64) (*Report, error) {
	if _, err := s.repo.GetFamily(ctx, familyID); err != nil {
		return nil, err
	}
	defer s.cache.Delete(familyID)

	report := newReport()
	run := func(repo Repository) error {
		return deleteAggregate(ctx, repo, recorder{report: report, strict: s.cfg.StrictTransactions}, familyID)
	}
	var err error
	if s.cfg.StrictTransactions {
		err = s.repo.Transaction(ctx, run)
	} else {
		err = run(s.repo)
	}
	if err != nil {
		return nil, err
	}
	return report, nil
}

func deleteAggregate(ctx context.Context, repo Repository, rec recorder, familyID int64) error {
	family := []int64{familyID}

	members, err := repo.ListMembers(ctx, familyID)
	if err != nil {
		for _, key := range []string{SectionChild, SectionHealth} {
			if err := rec.record(key, "", 0, err); err != nil {
				return err
			}
		}
	} else {
		memberIDs := make([]int64, 0, len(members))
		for _, member := range members {
			memberIDs = append(memberIDs, member.ID)
		}
		affected, err := repo.DeleteOwned(ctx, ChildProgram{}, memberIDs)
		if err := rec.record(SectionChild, "deleted", affected, err); err != nil {
			return err
		}
		affected, err = repo.DeleteOwned(ctx, MemberHealth{}, memberIDs)
		if err := rec.record(SectionHealth, "deleted", affected, err); err != nil {
			return err
		}
	}

	affected, err := repo.DeleteOwned(ctx, Member{}, family)
	if err := rec.record(SectionMember, "deleted", affected, err); err != nil {
		return err
	}

	interviewIDs, err := repo.ListInterviewIDs(ctx, familyID)
	if err == nil {
		affected, err = repo.DeleteOwned(ctx, interview.InterviewMonitor{}, interviewIDs)
	}
	if err := rec.record(SectionMonitor, "deleted", affected, err); err != nil {
		return err
	}

	steps := []struct {
		key   string
		table Owned
	}{
		{SectionInterview, interview.Interview{}},
		{SectionAnimal, Animal{}},
		{SectionStructure, HousingStructure{}},
		{SectionSanitation, SanitationResource{}},
		{SectionAddress, Address{}},
	}
	for _, step := range steps {
		affected, err := repo.DeleteOwned(ctx, step.table, family)
		if err := rec.record(step.key, "deleted", affected, err); err != nil {
			return err
		}
	}

	affected, err = repo.DeleteByID(ctx, Family{}, familyID)
	return rec.record(SectionFamily, "deleted", affected, err)
}

// List returns one display row per family for the list view.
func (s *Service) List(ctx context.Context) ([]ListItem, error) {
	rows, err := s.repo.ListOverview(ctx)
	if err != nil {
		return nil, fmt.Errorf("list families: %w", err)
	}
	relations, err := s.repo.ListMemberRelations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	byFamily := make(map[int64][]interview.MemberRef, len(rows))
	for _, member := range relations {
		byFamily[member.FamilyID] = append(byFamily[member.FamilyID], member)
	}

	today := dates.Midnight(s.now())
	items := make([]ListItem, 0, len(rows))
	for _, row := range rows {
		item := ListItem{
			ID:             row.ID,
			Name:           row.Name,
			Area:           row.AreaName,
			Address:        formatAddress(row),
			MemberCount:    row.MemberCount,
			ActiveChildren: row.ActiveChildren,
			LastInterview:  dates.Format(row.LastInterview),
		}
		if responsible := interview.PickResponsible(byFamily[row.ID]); responsible != nil {
			item.Responsible = responsible.Name
		}
		if row.LastInterview != nil {
			days := dates.DaysBetween(*row.LastInterview, today)
			item.DaysSinceLast = &days
		}
		item.Status = string(interview.Classify(item.DaysSinceLast))
		items = append(items, item)
	}
	return items, nil
}

func formatAddress(row OverviewRow) string {
	parts := make([]string, 0, 3)
	if block := strings.TrimSpace(row.Block); block != "" {
		parts = append(parts, "Quadra "+block)
	}
	if street := strings.TrimSpace(row.Street); street != "" {
		parts = append(parts, street)
	}
	if number := strings.TrimSpace(row.HouseNumber); number != "" {
		parts = append(parts, number)
	}
	line := strings.Join(parts, ", ")
	if complement := strings.TrimSpace(row.Complement); complement != "" {
		if line == "" {
			return complement
		}
		line += " - " + complement
	}
	return line
}

// Invalidate drops the cached aggregate of one family.
func (s *Service) Invalidate(familyID int64) {
	s.cache.Delete(familyID)
}

// InvalidateAll drops every cached aggregate.
func (s *Service) InvalidateAll() {
	s.cache.Clear()
}
