package services

import (
	"context"
	"time"

	"farmdash/internal/core"
	"farmdash/internal/enrich"
	"farmdash/internal/records"
	"farmdash/internal/stats"
)

type EquipmentService struct {
	*entityService[core.Equipment]
	refs refLoader
}

func NewEquipmentService(d Deps) *EquipmentService {
	s := newEntityService[core.Equipment](d, records.EquipmentTab)
	s.prepare = func(e *core.Equipment, _ time.Time) { e.ApplyDefaults() }
	return &EquipmentService{entityService: s, refs: newRefLoader(d.Store)}
}

// ListEnriched orders equipment by name unless opts sorts otherwise.
func (s *EquipmentService) ListEnriched(ctx context.Context, opts records.ListOptions) ([]enrich.EquipmentView, error) {
	if len(opts.Sort) == 0 {
		opts.Sort = []records.Sort{{Field: "name"}}
	}
	return enrichedList(ctx, s.entityService, s.refs, opts, enrich.Refs.Equipment)
}

func (s *EquipmentService) Stats(ctx context.Context) (stats.EquipmentStats, error) {
	items, err := s.List(ctx, records.ListOptions{})
	if err != nil {
		return stats.EquipmentStats{}, err
	}
	return stats.Equipment(items), nil
}

type TaskService struct {
	*entityService[core.Task]
	refs refLoader
}

func NewTaskService(d Deps) *TaskService {
	s := newEntityService[core.Task](d, records.Tasks)
	s.prepare = func(t *core.Task, _ time.Time) { t.ApplyDefaults() }
	return &TaskService{entityService: s, refs: newRefLoader(d.Store)}
}

// TaskQuery selects tasks; zero values match everything.
type TaskQuery struct {
	FieldID int64
	CropID  int64
	Status  core.TaskStatus
}

func (q TaskQuery) options() records.ListOptions {
	var opts records.ListOptions
	if q.FieldID != 0 {
		opts.Filters = append(opts.Filters, records.Eq("fieldId", q.FieldID))
	}
	if q.CropID != 0 {
		opts.Filters = append(opts.Filters, records.Eq("cropId", q.CropID))
	}
	if q.Status != "" {
		opts.Filters = append(opts.Filters, records.Eq("status", string(q.Status)))
	}
	return opts
}

func (s *TaskService) ListEnriched(ctx context.Context, q TaskQuery) ([]enrich.TaskView, error) {
	return enrichedList(ctx, s.entityService, s.refs, q.options(), enrich.Refs.Task)
}

func (s *TaskService) ByField(ctx context.Context, fieldID int64) ([]enrich.TaskView, error) {
	return s.ListEnriched(ctx, TaskQuery{FieldID: fieldID})
}

func (s *TaskService) ByCrop(ctx context.Context, cropID int64) ([]enrich.TaskView, error) {
	return s.ListEnriched(ctx, TaskQuery{CropID: cropID})
}

func (s *TaskService) ByStatus(ctx context.Context, status core.TaskStatus) ([]enrich.TaskView, error) {
	return s.ListEnriched(ctx, TaskQuery{Status: status})
}

func (s *TaskService) Stats(ctx context.Context) (stats.TaskStats, error) {
	tasks, err := s.List(ctx, records.ListOptions{})
	if err != nil {
		return stats.TaskStats{}, err
	}
	return stats.Tasks(tasks, s.now()), nil
}
