// Package sqlstore builds the column-map statements shared by the record and
// family repositories. Table and column names come from static registries
// that are validated at startup; values are always bound parameters.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	recordsdomain "cepas/internal/domain/records"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	codeForeignKey    = "23503"
	codeCheck         = "23514"
	codeNotNull       = "23502"
	codeInvalidText   = "22P02"
	codeDatetimeField = "22007"
	codeDatetimeRange = "22008"
)

// Classify tags constraint violations with the records sentinels, keeping the
// driver error (and its message) in the chain.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeForeignKey:
		return fmt.Errorf("%w: %w", recordsdomain.ErrConflict, err)
	case codeCheck, codeNotNull, codeInvalidText, codeDatetimeField, codeDatetimeRange:
		return fmt.Errorf("%w: %w", recordsdomain.ErrConstraint, err)
	}
	return err
}

func sortedColumns(values map[string]any) []string {
	columns := make([]string, 0, len(values))
	for column := range values {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	return columns
}

// Insert writes one row and returns the generated primary key.
func Insert(ctx context.Context, db *gorm.DB, table, primaryKey string, values map[string]any) (int64, error) {
	columns := sortedColumns(values)

	var query string
	args := make([]any, 0, len(columns))
	if len(columns) == 0 {
		query = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES RETURNING %s", table, primaryKey)
	} else {
		placeholders := make([]string, len(columns))
		for i, column := range columns {
			placeholders[i] = "?"
			args = append(args, values[column])
		}
		query = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
			table, strings.Join(columns, ", "), strings.Join(placeholders, ", "), primaryKey)
	}

	var id int64
	if err := db.WithContext(ctx).Raw(query, args...).Row().Scan(&id); err != nil {
		return 0, Classify(err)
	}
	return id, nil
}

// UpdateByID sets the given columns on one row and returns the affected count.
func UpdateByID(ctx context.Context, db *gorm.DB, table, primaryKey string, id int64, values map[string]any) (int64, error) {
	columns := sortedColumns(values)
	if len(columns) == 0 {
		return 0, nil
	}

	assignments := make([]string, len(columns))
	args := make([]any, 0, len(columns)+1)
	for i, column := range columns {
		assignments[i] = column + " = ?"
		args = append(args, values[column])
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?", table, strings.Join(assignments, ", "), primaryKey)
	result := db.WithContext(ctx).Exec(query, args...)
	if result.Error != nil {
		return 0, Classify(result.Error)
	}
	return result.RowsAffected, nil
}

// DeleteWhere removes every row whose column value is in ids.
func DeleteWhere(ctx context.Context, db *gorm.DB, table, column string, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE %s IN ?", table, column)
	result := db.WithContext(ctx).Exec(query, ids)
	if result.Error != nil {
		return 0, Classify(result.Error)
	}
	return result.RowsAffected, nil
}
