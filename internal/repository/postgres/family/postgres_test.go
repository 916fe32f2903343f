package family

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	familydomain "cepas/internal/domain/family"
	recordsdomain "cepas/internal/domain/records"
)

func newMockRepo(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	return NewPostgres(db), mock
}

func TestDeleteOwnedExpandsOwnerIDs(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM saude_membro WHERE membro_id IN ($1,$2)")).
		WithArgs(int64(4), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	affected, err := repo.DeleteOwned(context.Background(), familydomain.MemberHealth{}, []int64{4, 5})
	assert.NoError(t, err)
	assert.Equal(t, int64(2), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteOwnedWithoutOwnersSkipsQuery(t *testing.T) {
	repo, mock := newMockRepo(t)

	affected, err := repo.DeleteOwned(context.Background(), familydomain.ChildProgram{}, nil)
	assert.NoError(t, err)
	assert.Zero(t, affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceMonitorLinkRunsInTransaction(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM entrevista_monitor WHERE entrevista_id IN ($1)")).
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO entrevista_monitor (entrevista_id, monitor_id) VALUES ($1, $2) RETURNING id")).
		WithArgs(int64(9), int64(2)).
		WillReturnError(&pgconn.PgError{Code: "23503", Message: "insert or update on table \"entrevista_monitor\" violates foreign key constraint"})
	mock.ExpectRollback()

	err := repo.ReplaceMonitorLink(context.Background(), 9, 2)
	assert.ErrorIs(t, err, recordsdomain.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateByIDSortsColumns(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE endereco SET numero_casa = $1, rua = $2 WHERE id = $3")).
		WithArgs("12", "Rua A", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.UpdateByID(context.Background(), familydomain.Address{}, 3, map[string]any{"rua": "Rua A", "numero_casa": "12"})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLatestInterviewWithoutRows(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`FROM entrevista e LEFT JOIN LATERAL .* WHERE e.familia_id = \$1 ORDER BY e.data_entrevista DESC, e.id DESC LIMIT 1`).
		WithArgs(int64(6)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "date"}))

	latest, err := repo.LatestInterview(context.Background(), 6)
	assert.NoError(t, err)
	assert.Nil(t, latest)
	assert.NoError(t, mock.ExpectationsWereMet())
}
