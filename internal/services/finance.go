package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"farmdash/internal/core"
	"farmdash/internal/enrich"
	"farmdash/internal/ledger"
	"farmdash/internal/records"
)

type ExpenseService struct {
	*entityService[core.Expense]
	refs refLoader
}

func NewExpenseService(d Deps) *ExpenseService {
	s := newEntityService[core.Expense](d, records.Expenses)
	s.prepare = func(e *core.Expense, _ time.Time) { e.ApplyDefaults() }
	return &ExpenseService{entityService: s, refs: newRefLoader(d.Store)}
}

func (s *ExpenseService) ListEnriched(ctx context.Context, opts records.ListOptions) ([]enrich.ExpenseView, error) {
	return enrichedList(ctx, s.entityService, s.refs, opts, enrich.Refs.Expense)
}

type IncomeService struct {
	*entityService[core.Income]
	refs refLoader
}

func NewIncomeService(d Deps) *IncomeService {
	s := newEntityService[core.Income](d, records.Incomes)
	s.prepare = func(i *core.Income, _ time.Time) { i.DeriveAmount() }
	return &IncomeService{entityService: s, refs: newRefLoader(d.Store)}
}

func (s *IncomeService) ListEnriched(ctx context.Context, opts records.ListOptions) ([]enrich.IncomeView, error) {
	return enrichedList(ctx, s.entityService, s.refs, opts, enrich.Refs.Income)
}

// FinanceService derives the ledger views from freshly listed records.
type FinanceService struct {
	expenses *records.Table[core.Expense]
	incomes  *records.Table[core.Income]
	fields   *records.Table[core.Field]
	crops    *records.Table[core.Crop]
	now      func() time.Time
}

func NewFinanceService(d Deps) *FinanceService {
	return &FinanceService{
		expenses: records.NewTable[core.Expense](d.Store, records.Expenses),
		incomes:  records.NewTable[core.Income](d.Store, records.Incomes),
		fields:   records.NewTable[core.Field](d.Store, records.Fields),
		crops:    records.NewTable[core.Crop](d.Store, records.Crops),
		now:      d.now(),
	}
}

// books is one consistent load of everything the ledger needs.
type books struct {
	expenses []core.Expense
	incomes  []core.Income
	fields   []core.Field
	crops    []core.Crop
}

func (s *FinanceService) load(ctx context.Context, withRefs bool) (books, error) {
	var b books
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		b.expenses, err = s.expenses.List(gctx, records.ListOptions{})
		return err
	})
	g.Go(func() error {
		var err error
		b.incomes, err = s.incomes.List(gctx, records.ListOptions{})
		return err
	})
	if withRefs {
		g.Go(func() error {
			var err error
			b.fields, err = s.fields.List(gctx, records.ListOptions{})
			return err
		})
		g.Go(func() error {
			var err error
			b.crops, err = s.crops.List(gctx, records.ListOptions{})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return books{}, fmt.Errorf("load ledger: %w", err)
	}
	return b, nil
}

func (s *FinanceService) Stats(ctx context.Context) (ledger.Summary, error) {
	b, err := s.load(ctx, false)
	if err != nil {
		return ledger.Summary{}, err
	}
	return ledger.Summarize(b.expenses, b.incomes, s.now()), nil
}

func (s *FinanceService) Transactions(ctx context.Context, f ledger.Filter) ([]ledger.Transaction, error) {
	b, err := s.load(ctx, true)
	if err != nil {
		return nil, err
	}
	return ledger.Transactions(enrich.NewRefs(b.fields, b.crops), b.expenses, b.incomes, f), nil
}

func (s *FinanceService) ProfitabilityByField(ctx context.Context) ([]ledger.Profitability, error) {
	b, err := s.load(ctx, true)
	if err != nil {
		return nil, err
	}
	return ledger.ByField(b.fields, b.expenses, b.incomes), nil
}

func (s *FinanceService) ProfitabilityByCrop(ctx context.Context) ([]ledger.Profitability, error) {
	b, err := s.load(ctx, true)
	if err != nil {
		return nil, err
	}
	return ledger.ByCrop(b.crops, b.expenses, b.incomes), nil
}

// Export writes the ledger workbook for the filtered journal.
func (s *FinanceService) Export(ctx context.Context, w io.Writer, f ledger.Filter) error {
	b, err := s.load(ctx, true)
	if err != nil {
		return err
	}
	summary := ledger.Summarize(b.expenses, b.incomes, s.now())
	txs := ledger.Transactions(enrich.NewRefs(b.fields, b.crops), b.expenses, b.incomes, f)
	return ledger.WriteWorkbook(w, summary, txs, ledger.ByField(b.fields, b.expenses, b.incomes))
}
