// Package memory is an in-process record store. Nothing survives a restart;
// it backs tests and demo runs.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"farmdash/internal/records"
)

type Store struct {
	mu     sync.Mutex
	tables map[string]*table
	now    func() time.Time
}

type table struct {
	nextID int64
	rows   map[int64]records.Record
}

var _ records.Store = (*Store)(nil)

func New() *Store {
	s := &Store{tables: make(map[string]*table), now: time.Now}
	for _, name := range records.Tables {
		s.tables[name] = &table{nextID: 1, rows: make(map[int64]records.Record)}
	}
	return s
}

// WithClock replaces the timestamp source.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) table(name string) (*table, error) {
	t, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", records.ErrUnknownTable, name)
	}
	return t, nil
}

func (s *Store) List(_ context.Context, name string, opts records.ListOptions) ([]records.Record, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.table(name)
	if err != nil {
		return nil, err
	}
	all := make([]records.Record, 0, len(t.rows))
	for _, r := range t.rows {
		all = append(all, r.Clone())
	}
	return records.Apply(all, opts), nil
}

func (s *Store) Get(_ context.Context, name string, id int64) (records.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.table(name)
	if err != nil {
		return nil, err
	}
	r, ok := t.rows[id]
	if !ok {
		return nil, fmt.Errorf("%s %d: %w", name, id, records.ErrNotFound)
	}
	return r.Clone(), nil
}

func (s *Store) Create(_ context.Context, name string, rec records.Record) (records.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.table(name)
	if err != nil {
		return nil, err
	}
	stamp := s.now().UTC().Format(time.RFC3339Nano)
	row := rec.Clone()
	row[records.KeyID] = t.nextID
	row[records.KeyCreatedAt] = stamp
	row[records.KeyUpdatedAt] = stamp
	t.rows[t.nextID] = row
	t.nextID++
	return row.Clone(), nil
}

func (s *Store) Update(_ context.Context, name string, id int64, partial records.Record) (records.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.table(name)
	if err != nil {
		return nil, err
	}
	row, ok := t.rows[id]
	if !ok {
		return nil, fmt.Errorf("%s %d: %w", name, id, records.ErrNotFound)
	}
	row = row.Clone()
	for k, v := range partial {
		if k == records.KeyID || k == records.KeyCreatedAt {
			continue
		}
		row[k] = v
	}
	row[records.KeyUpdatedAt] = s.now().UTC().Format(time.RFC3339Nano)
	t.rows[id] = row
	return row.Clone(), nil
}

func (s *Store) Delete(_ context.Context, name string, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.table(name)
	if err != nil {
		return false, err
	}
	if _, ok := t.rows[id]; !ok {
		return false, nil
	}
	delete(t.rows, id)
	return true, nil
}
