package family

import (
	"context"
	"errors"
	"fmt"

	familydomain "cepas/internal/domain/family"
	interviewdomain "cepas/internal/domain/interview"
	interviewrepo "cepas/internal/repository/postgres/interview"
	"cepas/internal/repository/postgres/sqlstore"
	"gorm.io/gorm"
)

const primaryKey = "id"

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(familydomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) Insert(ctx context.Context, table familydomain.Table, values map[string]any) (int64, error) {
	return sqlstore.Insert(ctx, r.db, table.TableName(), primaryKey, values)
}

func (r *PostgresRepository) UpdateByID(ctx context.Context, table familydomain.Table, id int64, values map[string]any) (int64, error) {
	return sqlstore.UpdateByID(ctx, r.db, table.TableName(), primaryKey, id, values)
}

func (r *PostgresRepository) DeleteByID(ctx context.Context, table familydomain.Table, id int64) (int64, error) {
	return sqlstore.DeleteWhere(ctx, r.db, table.TableName(), primaryKey, []int64{id})
}

func (r *PostgresRepository) DeleteOwned(ctx context.Context, table familydomain.Owned, ownerIDs []int64) (int64, error) {
	return sqlstore.DeleteWhere(ctx, r.db, table.TableName(), table.OwnerColumn(), ownerIDs)
}

func (r *PostgresRepository) FindOwnedID(ctx context.Context, table familydomain.Owned, ownerID int64) (int64, bool, error) {
	var ids []int64
	if err := r.db.WithContext(ctx).
		Table(table.TableName()).
		Where(table.OwnerColumn()+" = ?", ownerID).
		Order(primaryKey).
		Limit(1).
		Pluck(primaryKey, &ids).Error; err != nil {
		return 0, false, err
	}
	if len(ids) == 0 {
		return 0, false, nil
	}
	return ids[0], true, nil
}

func (r *PostgresRepository) FindOwned(ctx context.Context, dst familydomain.Owned, ownerID int64) (bool, error) {
	err := r.db.WithContext(ctx).
		Where(dst.OwnerColumn()+" = ?", ownerID).
		Order(primaryKey).
		Take(dst).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *PostgresRepository) GetFamily(ctx context.Context, familyID int64) (*familydomain.Family, error) {
	var family familydomain.Family
	if err := r.db.WithContext(ctx).Where("id = ?", familyID).Take(&family).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, familydomain.ErrFamilyNotFound
		}
		return nil, err
	}
	return &family, nil
}

func (r *PostgresRepository) ListMembers(ctx context.Context, familyID int64) ([]familydomain.Member, error) {
	var members []familydomain.Member
	if err := r.db.WithContext(ctx).
		Where("familia_id = ?", familyID).
		Order("id asc").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (r *PostgresRepository) LatestChildProgram(ctx context.Context, memberID int64) (*familydomain.ChildProgram, error) {
	var program familydomain.ChildProgram
	err := r.db.WithContext(ctx).
		Where("membro_id = ?", memberID).
		Order("data_inicio DESC NULLS LAST, id DESC").
		Take(&program).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &program, nil
}

func (r *PostgresRepository) OpenChildProgramID(ctx context.Context, memberID int64) (int64, bool, error) {
	var ids []int64
	if err := r.db.WithContext(ctx).
		Table(familydomain.ChildProgram{}.TableName()).
		Where("membro_id = ? AND data_fim IS NULL", memberID).
		Order("id DESC").
		Limit(1).
		Pluck(primaryKey, &ids).Error; err != nil {
		return 0, false, err
	}
	if len(ids) == 0 {
		return 0, false, nil
	}
	return ids[0], true, nil
}

func (r *PostgresRepository) LatestInterview(ctx context.Context, familyID int64) (*familydomain.LatestInterview, error) {
	query := "SELECT e.id, e.data_entrevista AS date, COALESCE(e.entrevistado, '') AS interviewee_name, " +
		"COALESCE(e.telefone_contato, '') AS contact_phone, COALESCE(e.observacoes, '') AS notes, " +
		"e.proxima_visita AS next_visit, m.id AS monitor_id, COALESCE(m.nome, '') AS monitor_name " +
		"FROM entrevista e " +
		"LEFT JOIN LATERAL (SELECT em.monitor_id FROM entrevista_monitor em WHERE em.entrevista_id = e.id ORDER BY em.id LIMIT 1) link ON TRUE " +
		"LEFT JOIN monitor m ON m.id = link.monitor_id " +
		"WHERE e.familia_id = ? " +
		"ORDER BY e.data_entrevista DESC, e.id DESC " +
		"LIMIT 1"

	var latest familydomain.LatestInterview
	result := r.db.WithContext(ctx).Raw(query, familyID).Scan(&latest)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &latest, nil
}

func (r *PostgresRepository) ListInterviewIDs(ctx context.Context, familyID int64) ([]int64, error) {
	var ids []int64
	if err := r.db.WithContext(ctx).
		Table(interviewdomain.Interview{}.TableName()).
		Where("familia_id = ?", familyID).
		Order("id").
		Pluck(primaryKey, &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *PostgresRepository) ReplaceMonitorLink(ctx context.Context, interviewID, monitorID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		link := interviewdomain.InterviewMonitor{}
		if _, err := sqlstore.DeleteWhere(ctx, tx, link.TableName(), link.OwnerColumn(), []int64{interviewID}); err != nil {
			return fmt.Errorf("drop monitor links: %w", err)
		}
		_, err := sqlstore.Insert(ctx, tx, link.TableName(), primaryKey, map[string]any{
			"entrevista_id": interviewID,
			"monitor_id":    monitorID,
		})
		return err
	})
}

func (r *PostgresRepository) ListOverview(ctx context.Context) ([]familydomain.OverviewRow, error) {
	query := "SELECT f.id, f.nome AS name, COALESCE(a.nome, '') AS area_name, " +
		"COALESCE(en.quadra, '') AS block, COALESCE(en.rua, '') AS street, " +
		"COALESCE(en.numero_casa, '') AS house_number, COALESCE(en.complemento, '') AS complement, " +
		"(SELECT COUNT(*) FROM membro m WHERE m.familia_id = f.id) AS member_count, " +
		"(SELECT COUNT(*) FROM crianca_cepas c JOIN membro m ON m.id = c.membro_id " +
		"WHERE m.familia_id = f.id AND c.data_fim IS NULL) AS active_children, " +
		"(SELECT MAX(e.data_entrevista) FROM entrevista e WHERE e.familia_id = f.id) AS last_interview " +
		"FROM familia f " +
		"LEFT JOIN LATERAL (SELECT * FROM endereco WHERE familia_id = f.id ORDER BY id LIMIT 1) en ON TRUE " +
		"LEFT JOIN area a ON a.id = en.area_id " +
		"ORDER BY f.nome, f.id"

	var rows []familydomain.OverviewRow
	if err := r.db.WithContext(ctx).Raw(query).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *PostgresRepository) ListMemberRelations(ctx context.Context) ([]interviewdomain.MemberRef, error) {
	return interviewrepo.ListMemberRefs(ctx, r.db)
}
