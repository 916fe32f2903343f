package interview

import (
	"context"
	"fmt"
	"time"

	interviewdomain "cepas/internal/domain/interview"
	"cepas/internal/repository/postgres/sqlstore"
	"gorm.io/gorm"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(interviewdomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) ListFamilies(ctx context.Context) ([]interviewdomain.FamilyRef, error) {
	var rows []interviewdomain.FamilyRef
	if err := r.db.WithContext(ctx).
		Raw("SELECT f.id AS id, f.nome AS name FROM familia f ORDER BY f.id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *PostgresRepository) ListMembers(ctx context.Context) ([]interviewdomain.MemberRef, error) {
	return ListMemberRefs(ctx, r.db)
}

// ListMemberRefs loads every member with the fields used to rank the
// responsible member of a family.
func ListMemberRefs(ctx context.Context, db *gorm.DB) ([]interviewdomain.MemberRef, error) {
	query := "SELECT m.id AS id, m.familia_id AS family_id, m.nome AS name, " +
		"COALESCE(m.parentesco, '') AS relation, m.data_nascimento AS birth_date " +
		"FROM membro m ORDER BY m.familia_id, m.id"

	var rows []interviewdomain.MemberRef
	if err := db.WithContext(ctx).Raw(query).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

type interviewRow struct {
	ID              int64      `gorm:"column:id"`
	FamilyID        int64      `gorm:"column:familia_id"`
	Date            time.Time  `gorm:"column:data_entrevista"`
	IntervieweeName string     `gorm:"column:entrevistado"`
	ContactPhone    string     `gorm:"column:telefone_contato"`
	Notes           string     `gorm:"column:observacoes"`
	NextVisit       *time.Time `gorm:"column:proxima_visita"`
	AuditUser       string     `gorm:"column:usuario"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at"`
	FamilyName      string     `gorm:"column:family_name"`
}

type monitorRow struct {
	InterviewID int64  `gorm:"column:interview_id"`
	ID          int64  `gorm:"column:id"`
	Name        string `gorm:"column:name"`
	Email       string `gorm:"column:email"`
}

func (r *PostgresRepository) ListInterviews(ctx context.Context, familyID *int64) ([]interviewdomain.Record, error) {
	query := "SELECT e.id, e.familia_id, e.data_entrevista, COALESCE(e.entrevistado, '') AS entrevistado, " +
		"COALESCE(e.telefone_contato, '') AS telefone_contato, COALESCE(e.observacoes, '') AS observacoes, " +
		"e.proxima_visita, COALESCE(e.usuario, '') AS usuario, e.created_at, e.updated_at, f.nome AS family_name " +
		"FROM entrevista e JOIN familia f ON f.id = e.familia_id"
	args := []interface{}{}
	if familyID != nil {
		query += " WHERE e.familia_id = ?"
		args = append(args, *familyID)
	}
	query += " ORDER BY e.data_entrevista DESC, e.id DESC"

	var rows []interviewRow
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []interviewdomain.Record{}, nil
	}

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	var monitors []monitorRow
	if err := r.db.WithContext(ctx).
		Raw("SELECT em.entrevista_id AS interview_id, m.id AS id, m.nome AS name, COALESCE(m.email, '') AS email "+
			"FROM entrevista_monitor em JOIN monitor m ON m.id = em.monitor_id "+
			"WHERE em.entrevista_id IN ? ORDER BY em.id", ids).
		Scan(&monitors).Error; err != nil {
		return nil, err
	}
	byInterview := make(map[int64][]interviewdomain.MonitorRef, len(monitors))
	for _, monitor := range monitors {
		byInterview[monitor.InterviewID] = append(byInterview[monitor.InterviewID], interviewdomain.MonitorRef{
			ID:    monitor.ID,
			Name:  monitor.Name,
			Email: monitor.Email,
		})
	}

	records := make([]interviewdomain.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, interviewdomain.Record{
			Interview: interviewdomain.Interview{
				ID:              row.ID,
				FamilyID:        row.FamilyID,
				Date:            row.Date,
				IntervieweeName: row.IntervieweeName,
				ContactPhone:    row.ContactPhone,
				Notes:           row.Notes,
				NextVisit:       row.NextVisit,
				AuditUser:       row.AuditUser,
				CreatedAt:       row.CreatedAt,
				UpdatedAt:       row.UpdatedAt,
			},
			FamilyName: row.FamilyName,
			Monitors:   byInterview[row.ID],
		})
	}
	return records, nil
}

func (r *PostgresRepository) FamilyExists(ctx context.Context, familyID int64) (bool, error) {
	var row struct {
		Count int64 `gorm:"column:count"`
	}
	if err := r.db.WithContext(ctx).
		Raw("SELECT COUNT(*) AS count FROM familia WHERE id = ?", familyID).
		Scan(&row).Error; err != nil {
		return false, err
	}
	return row.Count > 0, nil
}

func (r *PostgresRepository) CreateInterview(ctx context.Context, interview *interviewdomain.Interview) error {
	values := map[string]any{
		"familia_id":       interview.FamilyID,
		"data_entrevista":  interview.Date,
		"entrevistado":     interview.IntervieweeName,
		"telefone_contato": interview.ContactPhone,
		"observacoes":      interview.Notes,
		"proxima_visita":   interview.NextVisit,
		"usuario":          interview.AuditUser,
	}
	id, err := sqlstore.Insert(ctx, r.db, interview.TableName(), "id", values)
	if err != nil {
		return err
	}
	interview.ID = id
	return nil
}

func (r *PostgresRepository) LinkMonitor(ctx context.Context, interviewID, monitorID int64) error {
	_, err := sqlstore.Insert(ctx, r.db, interviewdomain.InterviewMonitor{}.TableName(), "id", map[string]any{
		"entrevista_id": interviewID,
		"monitor_id":    monitorID,
	})
	return err
}

func (r *PostgresRepository) LockNextVisit(ctx context.Context, interviewID int64) (*time.Time, error) {
	var row struct {
		ID        int64      `gorm:"column:id"`
		NextVisit *time.Time `gorm:"column:proxima_visita"`
	}
	result := r.db.WithContext(ctx).
		Raw("SELECT id, proxima_visita FROM entrevista WHERE id = ? FOR UPDATE", interviewID).
		Scan(&row)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, interviewdomain.ErrInterviewNotFound
	}
	return row.NextVisit, nil
}

func (r *PostgresRepository) ClearNextVisit(ctx context.Context, interviewID int64, updatedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Exec("UPDATE entrevista SET proxima_visita = NULL, updated_at = ? WHERE id = ?", updatedAt, interviewID)
	if result.Error != nil {
		return fmt.Errorf("clear next visit: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return interviewdomain.ErrInterviewNotFound
	}
	return nil
}
