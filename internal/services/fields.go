package services

import (
	"context"
	"time"

	"farmdash/internal/core"
	"farmdash/internal/records"
	"farmdash/internal/stats"
)

type FieldService struct {
	*entityService[core.Field]
}

func NewFieldService(d Deps) *FieldService {
	s := newEntityService[core.Field](d, records.Fields)
	s.prepare = func(f *core.Field, _ time.Time) { f.ApplyDefaults() }
	return &FieldService{s}
}

func (s *FieldService) Stats(ctx context.Context) (stats.FieldStats, error) {
	fields, err := s.List(ctx, records.ListOptions{})
	if err != nil {
		return stats.FieldStats{}, err
	}
	return stats.Fields(fields), nil
}
