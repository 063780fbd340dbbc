// Package seed loads demo and fixture data from YAML files through the
// entity services, so seeded records get the same defaults and validation
// as API writes.
package seed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"farmdash/internal/core"
	"farmdash/internal/records"
	"farmdash/internal/services"
)

// File is a seed document. Items are attribute maps in record layout;
// a "field" or "crop" attribute names a field or crop seeded earlier
// (or already stored) and is replaced by its id.
type File struct {
	Fields      []map[string]any `yaml:"fields"`
	Crops       []map[string]any `yaml:"crops"`
	Plantings   []map[string]any `yaml:"plantings"`
	Fertilizers []map[string]any `yaml:"fertilizers"`
	Irrigations []map[string]any `yaml:"irrigations"`
	Pests       []map[string]any `yaml:"pests"`
	Equipment   []map[string]any `yaml:"equipment"`
	Tasks       []map[string]any `yaml:"tasks"`
	Expenses    []map[string]any `yaml:"expenses"`
	Incomes     []map[string]any `yaml:"incomes"`
}

// Result counts created records per table.
type Result map[string]int

func Parse(r io.Reader) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return &f, nil
}

func ParseFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer fh.Close()
	return Parse(fh)
}

// Apply creates every item in dependency order. It stops at the first
// failure; records created before it stay.
func Apply(ctx context.Context, svc *services.Services, f *File) (Result, error) {
	a := applier{svc: svc, fieldIDs: map[string]int64{}, cropIDs: map[string]int64{}, result: Result{}}
	if err := a.loadNames(ctx); err != nil {
		return nil, err
	}

	steps := []struct {
		table string
		items []map[string]any
		fn    func(context.Context, records.Record) (int64, string, error)
	}{
		{records.Fields, f.Fields, create(svc.Fields.Create, func(v core.Field) (int64, string) { return v.ID, v.Name })},
		{records.Crops, f.Crops, create(svc.Crops.Create, func(v core.Crop) (int64, string) { return v.ID, v.Name })},
		{records.Plantings, f.Plantings, create(svc.Plantings.Create, func(v core.PlantingRecord) (int64, string) { return v.ID, "" })},
		{records.Fertilizers, f.Fertilizers, create(svc.Fertilizers.Create, func(v core.FertilizerRecord) (int64, string) { return v.ID, "" })},
		{records.Irrigations, f.Irrigations, create(svc.Irrigations.Create, func(v core.IrrigationRecord) (int64, string) { return v.ID, "" })},
		{records.Pests, f.Pests, create(svc.Pests.Create, func(v core.PestObservation) (int64, string) { return v.ID, "" })},
		{records.EquipmentTab, f.Equipment, create(svc.Equipment.Create, func(v core.Equipment) (int64, string) { return v.ID, v.Name })},
		{records.Tasks, f.Tasks, create(svc.Tasks.Create, func(v core.Task) (int64, string) { return v.ID, v.Name })},
		{records.Expenses, f.Expenses, create(svc.Expenses.Create, func(v core.Expense) (int64, string) { return v.ID, "" })},
		{records.Incomes, f.Incomes, create(svc.Incomes.Create, func(v core.Income) (int64, string) { return v.ID, "" })},
	}

	for _, step := range steps {
		for i, item := range step.items {
			rec, err := a.resolve(item)
			if err != nil {
				return a.result, fmt.Errorf("%s[%d]: %w", step.table, i, err)
			}
			id, name, err := step.fn(ctx, rec)
			if err != nil {
				return a.result, fmt.Errorf("%s[%d]: %w", step.table, i, err)
			}
			switch step.table {
			case records.Fields:
				a.fieldIDs[name] = id
			case records.Crops:
				a.cropIDs[name] = id
			}
			a.result[step.table]++
		}
	}
	slog.InfoContext(ctx, "Seed applied", "created", map[string]int(a.result))
	return a.result, nil
}

func create[T services.Entity](fn func(context.Context, T) (T, error), key func(T) (int64, string)) func(context.Context, records.Record) (int64, string, error) {
	return func(ctx context.Context, rec records.Record) (int64, string, error) {
		v, err := records.Decode[T](rec)
		if err != nil {
			return 0, "", err
		}
		created, err := fn(ctx, v)
		if err != nil {
			return 0, "", err
		}
		id, name := key(created)
		return id, name, nil
	}
}

type applier struct {
	svc      *services.Services
	fieldIDs map[string]int64
	cropIDs  map[string]int64
	result   Result
}

// loadNames lets seed files reference records already in the store.
func (a *applier) loadNames(ctx context.Context) error {
	fields, err := a.svc.Fields.List(ctx, records.ListOptions{})
	if err != nil {
		return err
	}
	for _, f := range fields {
		a.fieldIDs[f.Name] = f.ID
	}
	crops, err := a.svc.Crops.List(ctx, records.ListOptions{})
	if err != nil {
		return err
	}
	for _, c := range crops {
		a.cropIDs[c.Name] = c.ID
	}
	return nil
}

func (a *applier) resolve(item map[string]any) (records.Record, error) {
	rec := make(records.Record, len(item))
	for k, v := range item {
		rec[k] = normalize(v)
	}
	refs := []struct {
		name, attr string
		ids        map[string]int64
	}{
		{"field", "fieldId", a.fieldIDs},
		{"crop", "cropId", a.cropIDs},
	}
	for _, ref := range refs {
		v, ok := rec[ref.name]
		if !ok {
			continue
		}
		delete(rec, ref.name)
		name, _ := v.(string)
		id, found := ref.ids[name]
		if !found {
			return nil, fmt.Errorf("unknown %s %q", ref.name, v)
		}
		rec[ref.attr] = id
	}
	return rec, nil
}

// normalize turns YAML timestamps into calendar dates.
func normalize(v any) any {
	if t, ok := v.(time.Time); ok {
		return core.DateOf(t).String()
	}
	return v
}
