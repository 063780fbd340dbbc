package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"farmdash/internal/core"
	"farmdash/internal/enrich"
	"farmdash/internal/records"
)

// Deps are the collaborators every service is built from.
type Deps struct {
	Store     records.Store
	Publisher Publisher
	// Now defaults to time.Now.
	Now func() time.Time
}

func (d Deps) now() func() time.Time {
	if d.Now != nil {
		return d.Now
	}
	return time.Now
}

// Services is the set of entity services sharing one store.
type Services struct {
	Fields      *FieldService
	Crops       *CropService
	Plantings   *PlantingService
	Fertilizers *FertilizerService
	Irrigations *IrrigationService
	Pests       *PestService
	Equipment   *EquipmentService
	Tasks       *TaskService
	Expenses    *ExpenseService
	Incomes     *IncomeService
	Finance     *FinanceService
}

func New(d Deps) *Services {
	return &Services{
		Fields:      NewFieldService(d),
		Crops:       NewCropService(d),
		Plantings:   NewPlantingService(d),
		Fertilizers: NewFertilizerService(d),
		Irrigations: NewIrrigationService(d),
		Pests:       NewPestService(d),
		Equipment:   NewEquipmentService(d),
		Tasks:       NewTaskService(d),
		Expenses:    NewExpenseService(d),
		Incomes:     NewIncomeService(d),
		Finance:     NewFinanceService(d),
	}
}

// refLoader loads the collections display names are resolved against.
type refLoader struct {
	fields *records.Table[core.Field]
	crops  *records.Table[core.Crop]
}

func newRefLoader(store records.Store) refLoader {
	return refLoader{
		fields: records.NewTable[core.Field](store, records.Fields),
		crops:  records.NewTable[core.Crop](store, records.Crops),
	}
}

// load fetches fields and crops concurrently; either failure fails both.
func (l refLoader) load(ctx context.Context) (enrich.Refs, error) {
	var fields []core.Field
	var crops []core.Crop
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		fields, err = l.fields.List(gctx, records.ListOptions{})
		return err
	})
	g.Go(func() error {
		var err error
		crops, err = l.crops.List(gctx, records.ListOptions{})
		return err
	})
	if err := g.Wait(); err != nil {
		return enrich.Refs{}, err
	}
	return enrich.NewRefs(fields, crops), nil
}

// enrichedList lists items and the reference collections concurrently and
// joins them.
func enrichedList[T Entity, V any](ctx context.Context, s *entityService[T], refs refLoader,
	opts records.ListOptions, view func(enrich.Refs, T) V) ([]V, error) {
	var items []T
	var r enrich.Refs
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.List(gctx, opts)
		return err
	})
	g.Go(func() error {
		var err error
		r, err = refs.load(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := make([]V, len(items))
	for i, it := range items {
		out[i] = view(r, it)
	}
	return out, nil
}

func byField(fieldID int64) records.ListOptions {
	return records.ListOptions{Filters: []records.Filter{records.Eq("fieldId", fieldID)}}
}
