package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// ErrInvalidRecord wraps values that do not fit the entity's shape.
var ErrInvalidRecord = errors.New("invalid record")

// Table is a typed view of one named table. T must be a struct whose JSON
// encoding is the record layout.
type Table[T any] struct {
	store Store
	name  string
}

func NewTable[T any](store Store, name string) *Table[T] {
	return &Table[T]{store: store, name: name}
}

func (t *Table[T]) Name() string { return t.name }

func (t *Table[T]) List(ctx context.Context, opts ListOptions) ([]T, error) {
	recs, err := t.store.List(ctx, t.name, opts)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(recs))
	for _, r := range recs {
		v, err := Decode[T](r)
		if err != nil {
			return nil, fmt.Errorf("decode %s %d: %w", t.name, r.ID(), err)
		}
		out = append(out, v)
	}
	return out, nil
}

func (t *Table[T]) Get(ctx context.Context, id int64) (T, error) {
	var zero T
	rec, err := t.store.Get(ctx, t.name, id)
	if err != nil {
		return zero, err
	}
	return Decode[T](rec)
}

// Create stores v. Store-maintained attributes on v are ignored.
func (t *Table[T]) Create(ctx context.Context, v T) (T, error) {
	var zero T
	rec, err := Encode(v)
	if err != nil {
		return zero, err
	}
	delete(rec, KeyID)
	delete(rec, KeyCreatedAt)
	delete(rec, KeyUpdatedAt)
	created, err := t.store.Create(ctx, t.name, rec)
	if err != nil {
		return zero, err
	}
	return Decode[T](created)
}

func (t *Table[T]) Update(ctx context.Context, id int64, partial Record) (T, error) {
	var zero T
	updated, err := t.store.Update(ctx, t.name, id, partial)
	if err != nil {
		return zero, err
	}
	return Decode[T](updated)
}

func (t *Table[T]) Delete(ctx context.Context, id int64) (bool, error) {
	return t.store.Delete(ctx, t.name, id)
}

// Encode converts an entity to its record form.
func Encode(v any) (Record, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return rec, nil
}

// Decode converts a record to an entity.
func Decode[T any](rec Record) (T, error) {
	var v T
	b, err := json.Marshal(rec)
	if err != nil {
		return v, fmt.Errorf("decode record: %w", err)
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return v, nil
}

// Merge overlays patch on current. Only attributes of T take part;
// store-maintained and unknown keys are dropped. It returns the merged
// entity and the cleaned patch, which is what should be written.
func Merge[T any](current T, patch Record) (T, Record, error) {
	var zero T
	rec, err := Encode(current)
	if err != nil {
		return zero, nil, err
	}
	known := Attributes[T]()
	clean := make(Record, len(patch))
	for k, v := range patch {
		if !known[k] || k == KeyID || k == KeyCreatedAt || k == KeyUpdatedAt {
			continue
		}
		rec[k] = v
		clean[k] = v
	}
	merged, err := Decode[T](rec)
	if err != nil {
		return zero, nil, err
	}
	// Re-encode through T so the written values have canonical form,
	// e.g. "2025-04-01T00:00:00Z" becomes "2025-04-01".
	canonical, err := Encode(merged)
	if err != nil {
		return zero, nil, err
	}
	for k := range clean {
		clean[k] = canonical[k]
	}
	return merged, clean, nil
}

var attrCache sync.Map // reflect.Type -> map[string]bool

// Attributes returns the JSON attribute names of struct type T.
func Attributes[T any]() map[string]bool {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	if cached, ok := attrCache.Load(typ); ok {
		return cached.(map[string]bool)
	}
	out := make(map[string]bool)
	if typ.Kind() == reflect.Struct {
		for i := 0; i < typ.NumField(); i++ {
			f := typ.Field(i)
			if !f.IsExported() {
				continue
			}
			name := f.Name
			if tag, ok := f.Tag.Lookup("json"); ok {
				tagName, _, _ := strings.Cut(tag, ",")
				if tagName == "-" {
					continue
				}
				if tagName != "" {
					name = tagName
				}
			}
			out[name] = true
		}
	}
	attrCache.Store(typ, out)
	return out
}

// EncodeValue converts any JSON-encodable value to its record value form,
// e.g. a slice of structs to []any of maps.
func EncodeValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	return out, nil
}
