// Package enrich attaches display names to records by resolving their
// foreign-key ids against loaded collections. Resolution never fails: an
// id that does not resolve yields a fixed label.
package enrich

import "farmdash/internal/core"

// Labels shown in place of a name that cannot be resolved.
const (
	UnknownField  = "Unknown Field"
	UnknownCrop   = "Unknown Crop"
	NotApplicable = "N/A"
	NoField       = "No Field"
)

// Lookup maps ids to display names.
type Lookup map[int64]string

// Index builds a Lookup from items.
func Index[T any](items []T, entry func(T) (int64, string)) Lookup {
	l := make(Lookup, len(items))
	for _, it := range items {
		id, name := entry(it)
		l[id] = name
	}
	return l
}

func FieldNames(fields []core.Field) Lookup {
	return Index(fields, func(f core.Field) (int64, string) { return f.ID, f.Name })
}

func CropNames(crops []core.Crop) Lookup {
	return Index(crops, func(c core.Crop) (int64, string) { return c.ID, c.Name })
}

// Name resolves a required reference.
func (l Lookup) Name(id int64, missing string) string {
	if name, ok := l[id]; ok {
		return name
	}
	return missing
}

// Optional resolves a reference that may be absent.
func (l Lookup) Optional(id *int64, absent, missing string) string {
	if id == nil || *id == 0 {
		return absent
	}
	return l.Name(*id, missing)
}

// Refs bundles the collections every view is built against.
type Refs struct {
	Fields Lookup
	Crops  Lookup
}

func NewRefs(fields []core.Field, crops []core.Crop) Refs {
	return Refs{Fields: FieldNames(fields), Crops: CropNames(crops)}
}

// Map applies fn to every item.
func Map[T, V any](items []T, fn func(T) V) []V {
	out := make([]V, len(items))
	for i, it := range items {
		out[i] = fn(it)
	}
	return out
}
