package records

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeRecordsRepo struct {
	rows     map[string]map[int64]Row
	nextID   int64
	deleteFK bool
}

func newFakeRecordsRepo() *fakeRecordsRepo {
	return &fakeRecordsRepo{rows: make(map[string]map[int64]Row)}
}

func (r *fakeRecordsRepo) table(entity Entity) map[int64]Row {
	rows, ok := r.rows[entity.Table]
	if !ok {
		rows = make(map[int64]Row)
		r.rows[entity.Table] = rows
	}
	return rows
}

func (r *fakeRecordsRepo) FetchAll(ctx context.Context, entity Entity) ([]Row, error) {
	result := make([]Row, 0)
	for _, row := range r.table(entity) {
		result = append(result, row)
	}
	return result, nil
}

func (r *fakeRecordsRepo) FetchByID(ctx context.Context, entity Entity, id int64) (Row, error) {
	row, ok := r.table(entity)[id]
	if !ok {
		return nil, ErrNotFound
	}
	return row, nil
}

func (r *fakeRecordsRepo) Insert(ctx context.Context, entity Entity, values map[string]any) (int64, error) {
	r.nextID++
	row := Row{entity.PrimaryKey: r.nextID}
	for k, v := range values {
		row[k] = v
	}
	r.table(entity)[r.nextID] = row
	return r.nextID, nil
}

func (r *fakeRecordsRepo) UpdateByID(ctx context.Context, entity Entity, id int64, values map[string]any) (int64, error) {
	row, ok := r.table(entity)[id]
	if !ok {
		return 0, nil
	}
	for k, v := range values {
		row[k] = v
	}
	return 1, nil
}

func (r *fakeRecordsRepo) DeleteByID(ctx context.Context, entity Entity, id int64) (int64, error) {
	if r.deleteFK {
		return 0, ErrConflict
	}
	if _, ok := r.table(entity)[id]; !ok {
		return 0, nil
	}
	delete(r.table(entity), id)
	return 1, nil
}

func TestRegistryIsValid(t *testing.T) {
	if err := ValidateRegistry(); err != nil {
		t.Fatalf("expected valid registry, got %v", err)
	}
	if len(Names()) != 12 {
		t.Fatalf("expected 12 entities, got %d", len(Names()))
	}
}

func TestValidateRejectsUnsafeIdentifiers(t *testing.T) {
	tests := []struct {
		name     string
		entities []Entity
	}{
		{"table injection", []Entity{{Name: "X", Table: "x; drop table familia", PrimaryKey: "id", Columns: []string{"a"}}}},
		{"column with quote", []Entity{{Name: "X", Table: "x", PrimaryKey: "id", Columns: []string{`a"b`}}}},
		{"writable primary key", []Entity{{Name: "X", Table: "x", PrimaryKey: "id", Columns: []string{"id"}}}},
		{"duplicate column", []Entity{{Name: "X", Table: "x", PrimaryKey: "id", Columns: []string{"a", "a"}}}},
		{"duplicate entity", []Entity{
			{Name: "X", Table: "x", PrimaryKey: "id", Columns: []string{"a"}},
			{Name: "x", Table: "y", PrimaryKey: "id", Columns: []string{"a"}},
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := validate(tc.entities); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLookupIgnoresCase(t *testing.T) {
	entity, err := Lookup("criancacepas")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if entity.Table != "crianca_cepas" {
		t.Fatalf("unexpected table %q", entity.Table)
	}
	_, err = Lookup("usuario")
	if !errors.Is(err, ErrUnknownEntity) {
		t.Fatalf("expected ErrUnknownEntity, got %v", err)
	}
	if !strings.Contains(err.Error(), "Monitor") || !strings.Contains(err.Error(), "CriancaCepas") {
		t.Fatalf("expected known entities listed, got %v", err)
	}
}

func TestInsertFiltersAndNormalizes(t *testing.T) {
	repo := newFakeRecordsRepo()
	svc := NewService(repo)
	var written []string
	svc.OnWrite(func(entity Entity) { written = append(written, entity.Name) })

	id, err := svc.Insert(context.Background(), "Animal", map[string]any{
		"id":         float64(99),
		"FAMILIA_ID": float64(3),
		"tem_animal": true,
		"especie":    " gato ",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	row := repo.rows["animal"][id]
	if row["familia_id"] != int64(3) || row["tem_animal"] != int16(1) || row["especie"] != "gato" {
		t.Fatalf("unexpected stored row %v", row)
	}
	if row["id"] != id {
		t.Fatalf("expected primary key from store, got %v", row["id"])
	}
	if len(written) != 1 || written[0] != "Animal" {
		t.Fatalf("expected write callback, got %v", written)
	}
}

func TestInsertRejectsUnknownColumnsAndEmptyBody(t *testing.T) {
	svc := NewService(newFakeRecordsRepo())

	if _, err := svc.Insert(context.Background(), "Monitor", map[string]any{"nome": "A", "senha": "x"}); !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("expected ErrUnknownColumn, got %v", err)
	}
	if _, err := svc.Insert(context.Background(), "Monitor", map[string]any{}); !errors.Is(err, ErrEmptyBody) {
		t.Fatalf("expected ErrEmptyBody, got %v", err)
	}
	if _, err := svc.Insert(context.Background(), "Monitor", map[string]any{"id": 1}); !errors.Is(err, ErrEmptyBody) {
		t.Fatalf("expected ErrEmptyBody when only the key is sent, got %v", err)
	}
}

func TestUpdateAndDeleteMissingRow(t *testing.T) {
	svc := NewService(newFakeRecordsRepo())

	if _, err := svc.Update(context.Background(), "Area", 5, map[string]any{"nome": "Norte"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Delete(context.Background(), "Area", 5); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Delete(context.Background(), "Area", 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestDeleteConflictPropagates(t *testing.T) {
	repo := newFakeRecordsRepo()
	repo.deleteFK = true
	svc := NewService(repo)
	called := false
	svc.OnWrite(func(Entity) { called = true })

	if _, err := svc.Delete(context.Background(), "Familia", 1); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if called {
		t.Fatalf("expected no write callback on failure")
	}
}
