package records

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

type Service struct {
	repo    Repository
	onWrite []func(Entity)
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// OnWrite registers a callback run after every successful insert, update or
// delete. Read caches use it to drop stale entries.
func (s *Service) OnWrite(fn func(Entity)) {
	s.onWrite = append(s.onWrite, fn)
}

func (s *Service) written(entity Entity) {
	for _, fn := range s.onWrite {
		fn(entity)
	}
}

func (s *Service) List(ctx context.Context, name string) ([]Row, error) {
	entity, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return s.repo.FetchAll(ctx, entity)
}

func (s *Service) Get(ctx context.Context, name string, id int64) (Row, error) {
	entity, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid id", ErrInvalidInput)
	}
	return s.repo.FetchByID(ctx, entity, id)
}

func (s *Service) Insert(ctx context.Context, name string, body map[string]any) (int64, error) {
	entity, err := Lookup(name)
	if err != nil {
		return 0, err
	}
	values, err := filterColumns(entity, body)
	if err != nil {
		return 0, err
	}

	id, err := s.repo.Insert(ctx, entity, values)
	if err != nil {
		return 0, err
	}
	s.written(entity)
	return id, nil
}

func (s *Service) Update(ctx context.Context, name string, id int64, body map[string]any) (int64, error) {
	entity, err := Lookup(name)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, fmt.Errorf("%w: invalid id", ErrInvalidInput)
	}
	values, err := filterColumns(entity, body)
	if err != nil {
		return 0, err
	}

	affected, err := s.repo.UpdateByID(ctx, entity, id, values)
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		return 0, ErrNotFound
	}
	s.written(entity)
	return affected, nil
}

func (s *Service) Delete(ctx context.Context, name string, id int64) (int64, error) {
	entity, err := Lookup(name)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, fmt.Errorf("%w: invalid id", ErrInvalidInput)
	}

	affected, err := s.repo.DeleteByID(ctx, entity, id)
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		return 0, ErrNotFound
	}
	s.written(entity)
	return affected, nil
}

// filterColumns keeps only registered columns and normalizes decoded JSON
// values for the driver.
func filterColumns(entity Entity, body map[string]any) (map[string]any, error) {
	if len(body) == 0 {
		return nil, ErrEmptyBody
	}

	values := make(map[string]any, len(body))
	var unknown []string
	for key, value := range body {
		column := strings.ToLower(strings.TrimSpace(key))
		if column == entity.PrimaryKey {
			continue
		}
		if !entity.HasColumn(column) {
			unknown = append(unknown, key)
			continue
		}
		values[column] = normalizeValue(value)
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("%w: %s has no column %s", ErrUnknownColumn, entity.Name, strings.Join(unknown, ", "))
	}
	if len(values) == 0 {
		return nil, ErrEmptyBody
	}
	return values, nil
}

func normalizeValue(value any) any {
	switch typed := value.(type) {
	case json.Number:
		if n, err := typed.Int64(); err == nil {
			return n
		}
		if f, err := typed.Float64(); err == nil {
			return f
		}
		return typed.String()
	case float64:
		if typed == float64(int64(typed)) {
			return int64(typed)
		}
		return typed
	case bool:
		if typed {
			return int16(1)
		}
		return int16(0)
	case string:
		return strings.TrimSpace(typed)
	default:
		return value
	}
}
