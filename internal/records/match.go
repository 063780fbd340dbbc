package records

import (
	"encoding/json"
	"sort"
)

// Compare orders two record values. Numbers compare numerically whatever
// their Go type, strings lexically (which orders YYYY-MM-DD dates and RFC
// 3339 UTC timestamps correctly), booleans false before true. nil sorts
// before everything. ok is false for values of different kinds.
func Compare(a, b any) (c int, ok bool) {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0, true
		case a == nil:
			return -1, true
		default:
			return 1, true
		}
	}
	if x, xok := asFloat(a); xok {
		y, yok := asFloat(b)
		if !yok {
			return 0, false
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, true
	}
	switch x := a.(type) {
	case string:
		y, yok := b.(string)
		if !yok {
			return 0, false
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, true
	case bool:
		y, yok := b.(bool)
		if !yok {
			return 0, false
		}
		switch {
		case x == y:
			return 0, true
		case !x:
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// Match evaluates filters against rec in memory. A filter on a missing
// attribute compares against nil, so Eq(x, nil) matches absent values.
func Match(rec Record, filters []Filter) bool {
	for _, f := range filters {
		c, ok := Compare(rec[f.Field], f.Value)
		switch f.Op {
		case OpEq:
			if !ok || c != 0 {
				return false
			}
		case OpNe:
			if ok && c == 0 {
				return false
			}
		case OpGte:
			if !ok || c < 0 || rec[f.Field] == nil {
				return false
			}
		case OpLte:
			if !ok || c > 0 || rec[f.Field] == nil {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// SortRecords orders recs by the sort keys, falling back to id ascending.
func SortRecords(recs []Record, keys []Sort) {
	sort.SliceStable(recs, func(i, j int) bool {
		for _, k := range keys {
			c, _ := Compare(recs[i][k.Field], recs[j][k.Field])
			if c == 0 {
				continue
			}
			if k.Desc {
				return c > 0
			}
			return c < 0
		}
		return recs[i].ID() < recs[j].ID()
	})
}

// Apply filters, sorts and limits recs in memory.
func Apply(recs []Record, opts ListOptions) []Record {
	out := make([]Record, 0, len(recs))
	for _, r := range recs {
		if Match(r, opts.Filters) {
			out = append(out, r)
		}
	}
	SortRecords(out, opts.Sort)
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}
