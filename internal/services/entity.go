// Package services provides the entity services: validated CRUD over the
// record store, enriched listings and per-entity statistics.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"farmdash/internal/amqp"
	"farmdash/internal/core"
	"farmdash/internal/records"
)

// Publisher announces committed writes. A nil Publisher disables events.
type Publisher interface {
	PublishRecordEvent(ctx context.Context, ev amqp.RecordEvent) error
}

// Entity is implemented by every stored domain type.
type Entity interface {
	Validate() error
}

// entityService is the CRUD core shared by every entity service.
type entityService[T Entity] struct {
	table *records.Table[T]
	pub   Publisher
	now   func() time.Time

	// prepare fills defaults and derived attributes before a create.
	prepare func(v *T, now time.Time)
	// reconcile adjusts a merged update and the patch that will be written.
	reconcile func(current T, merged *T, patch records.Record, now time.Time) error
}

func newEntityService[T Entity](d Deps, table string) *entityService[T] {
	return &entityService[T]{
		table: records.NewTable[T](d.Store, table),
		pub:   d.Publisher,
		now:   d.now(),
	}
}

func (s *entityService[T]) List(ctx context.Context, opts records.ListOptions) ([]T, error) {
	items, err := s.table.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.table.Name(), err)
	}
	return items, nil
}

func (s *entityService[T]) Get(ctx context.Context, id int64) (T, error) {
	v, err := s.table.Get(ctx, id)
	if err != nil {
		return v, fmt.Errorf("get %s: %w", s.table.Name(), err)
	}
	return v, nil
}

// Create validates v and stores it. Nothing is written when validation
// fails.
func (s *entityService[T]) Create(ctx context.Context, v T) (T, error) {
	var zero T
	if s.prepare != nil {
		s.prepare(&v, s.now())
	}
	if err := v.Validate(); err != nil {
		return zero, err
	}
	created, err := s.table.Create(ctx, v)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to create record", "table", s.table.Name(), "error", err)
		return zero, fmt.Errorf("create %s: %w", s.table.Name(), err)
	}
	s.publish(ctx, amqp.ActionCreated, 0, created)
	return created, nil
}

// Update applies a partial update. Unknown and store-maintained attributes
// are ignored; the merged result must validate before anything is written.
func (s *entityService[T]) Update(ctx context.Context, id int64, patch records.Record) (T, error) {
	var zero T
	current, err := s.Get(ctx, id)
	if err != nil {
		return zero, err
	}
	merged, clean, err := records.Merge(current, patch)
	if err != nil {
		return zero, err
	}
	if s.reconcile != nil {
		if err := s.reconcile(current, &merged, clean, s.now()); err != nil {
			return zero, err
		}
	}
	if err := merged.Validate(); err != nil {
		return zero, err
	}
	if len(clean) == 0 {
		return current, nil
	}
	updated, err := s.table.Update(ctx, id, clean)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to update record", "table", s.table.Name(), "id", id, "error", err)
		return zero, fmt.Errorf("update %s: %w", s.table.Name(), err)
	}
	s.publish(ctx, amqp.ActionUpdated, id, updated)
	return updated, nil
}

// Delete removes the record. Dependent records are left untouched.
func (s *entityService[T]) Delete(ctx context.Context, id int64) error {
	ok, err := s.table.Delete(ctx, id)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to delete record", "table", s.table.Name(), "id", id, "error", err)
		return fmt.Errorf("delete %s: %w", s.table.Name(), err)
	}
	if !ok {
		return fmt.Errorf("delete %s %d: %w", s.table.Name(), id, records.ErrNotFound)
	}
	s.publish(ctx, amqp.ActionDeleted, id, nil)
	return nil
}

// publish never fails the write it follows: the record is already stored.
// A zero id is taken from v.
func (s *entityService[T]) publish(ctx context.Context, action amqp.Action, id int64, v any) {
	if s.pub == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping record event",
			"table", s.table.Name(), "action", action)
		return
	}
	var rec records.Record
	if v != nil {
		var err error
		if rec, err = records.Encode(v); err != nil {
			slog.ErrorContext(ctx, "Failed to encode record event", "table", s.table.Name(), "error", err)
			return
		}
		if id == 0 {
			id = rec.ID()
		}
	}
	ev := amqp.NewRecordEvent(s.table.Name(), id, action, rec)
	if err := s.pub.PublishRecordEvent(ctx, *ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish record event",
			"table", s.table.Name(), "id", id, "action", action, "error", err)
	}
}

// validationError wraps a single-attribute failure.
func validationError(field, msg string) error {
	return &core.ValidationError{Fields: map[string]string{field: msg}}
}

// IsNotFound reports whether err means the record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, records.ErrNotFound)
}
