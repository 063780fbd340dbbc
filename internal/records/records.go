// Package records defines the record access layer: list/get/create/update/
// delete over named tables of loosely typed records. Storage backends
// implement Store; services talk to it through the typed Table wrapper.
package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
)

// Table names known to every backend.
const (
	Fields       = "fields"
	Crops        = "crops"
	Plantings    = "planting_records"
	Fertilizers  = "fertilizer_records"
	Irrigations  = "irrigation_records"
	Pests        = "pest_observations"
	EquipmentTab = "equipment"
	Tasks        = "tasks"
	Expenses     = "expenses"
	Incomes      = "incomes"
)

// Tables lists every table in creation order.
var Tables = []string{
	Fields, Crops, Plantings, Fertilizers, Irrigations,
	Pests, EquipmentTab, Tasks, Expenses, Incomes,
}

// Reserved attribute names maintained by the store.
const (
	KeyID        = "id"
	KeyCreatedAt = "createdAt"
	KeyUpdatedAt = "updatedAt"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrUnknownTable  = errors.New("unknown table")
	ErrInvalidFilter = errors.New("invalid filter")
)

// Record is one row: attribute name to JSON-compatible value.
type Record map[string]any

// ID returns the record's numeric id, or 0 when absent.
func (r Record) ID() int64 {
	id, _ := AsInt64(r[KeyID])
	return id
}

// Clone returns a shallow copy.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

type Op string

const (
	OpEq  Op = "eq"
	OpNe  Op = "ne"
	OpGte Op = "gte"
	OpLte Op = "lte"
)

type Filter struct {
	Field string
	Op    Op
	Value any
}

func Eq(field string, v any) Filter  { return Filter{Field: field, Op: OpEq, Value: v} }
func Ne(field string, v any) Filter  { return Filter{Field: field, Op: OpNe, Value: v} }
func Gte(field string, v any) Filter { return Filter{Field: field, Op: OpGte, Value: v} }
func Lte(field string, v any) Filter { return Filter{Field: field, Op: OpLte, Value: v} }

type Sort struct {
	Field string
	Desc  bool
}

// ListOptions narrows a List call. The zero value lists everything in id
// order.
type ListOptions struct {
	Filters []Filter
	Sort    []Sort
	Limit   int
}

// Store is the record access layer contract. Implementations must be safe
// for concurrent use. Nothing is retried: a failure is returned as-is.
type Store interface {
	List(ctx context.Context, table string, opts ListOptions) ([]Record, error)
	Get(ctx context.Context, table string, id int64) (Record, error)
	Create(ctx context.Context, table string, rec Record) (Record, error)
	Update(ctx context.Context, table string, id int64, partial Record) (Record, error)
	Delete(ctx context.Context, table string, id int64) (bool, error)
}

var fieldName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// CheckTable reports ErrUnknownTable for names outside Tables.
func CheckTable(table string) error {
	for _, t := range Tables {
		if t == table {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownTable, table)
}

// Validate rejects attribute names that are not plain identifiers and
// unknown operators. Backends call it before building queries.
func (o ListOptions) Validate() error {
	for _, f := range o.Filters {
		if !fieldName.MatchString(f.Field) {
			return fmt.Errorf("%w: field %q", ErrInvalidFilter, f.Field)
		}
		switch f.Op {
		case OpEq, OpNe, OpGte, OpLte:
		default:
			return fmt.Errorf("%w: operator %q", ErrInvalidFilter, f.Op)
		}
	}
	for _, s := range o.Sort {
		if !fieldName.MatchString(s.Field) {
			return fmt.Errorf("%w: sort field %q", ErrInvalidFilter, s.Field)
		}
	}
	if o.Limit < 0 {
		return fmt.Errorf("%w: negative limit", ErrInvalidFilter)
	}
	return nil
}

// AsInt64 converts the numeric shapes a record value can take.
func AsInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), n == float64(int64(n))
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	}
	return 0, false
}
