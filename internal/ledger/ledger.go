// Package ledger derives financial rollups from the expense and income
// logs.
package ledger

import (
	"time"

	"farmdash/internal/core"
	"farmdash/internal/stats"
)

// Summary is the finance overview. Every amount is rounded for
// presentation; net and margin are derived from the unrounded totals.
type Summary struct {
	TotalExpenses      float64            `json:"totalExpenses"`
	TotalIncome        float64            `json:"totalIncome"`
	NetProfit          float64            `json:"netProfit"`
	ProfitMargin       float64            `json:"profitMargin"`
	MonthlyExpenses    float64            `json:"monthlyExpenses"`
	MonthlyIncome      float64            `json:"monthlyIncome"`
	MonthlyNet         float64            `json:"monthlyNet"`
	ExpensesByCategory map[string]float64 `json:"expensesByCategory"`
	ExpenseCount       int                `json:"expenseCount"`
	IncomeCount        int                `json:"incomeCount"`
}

func expenseAmount(e core.Expense) float64 { return e.Amount }
func incomeAmount(i core.Income) float64   { return i.Amount }

// Margin is net/income as a percentage, 0 when there is no income.
func Margin(net, income float64) float64 {
	if income == 0 {
		return 0
	}
	return core.RoundMoney(net / income * 100)
}

// Summarize rolls up both logs. The month window opens on the first of
// now's month at UTC midnight.
func Summarize(expenses []core.Expense, incomes []core.Income, now time.Time) Summary {
	totalExp := stats.Sum(expenses, expenseAmount, nil)
	totalInc := stats.Sum(incomes, incomeAmount, nil)
	net := totalInc - totalExp

	start := core.MonthStart(now)
	monthExp := stats.Sum(expenses, expenseAmount, func(e core.Expense) bool { return e.Date.OnOrAfter(start) })
	monthInc := stats.Sum(incomes, incomeAmount, func(i core.Income) bool { return i.Date.OnOrAfter(start) })

	byCategory := stats.GroupSum(expenses, func(e core.Expense) string {
		if e.Category == "" {
			return string(core.CategoryOther)
		}
		return string(e.Category)
	}, expenseAmount)
	for k, v := range byCategory {
		byCategory[k] = core.RoundMoney(v)
	}

	return Summary{
		TotalExpenses:      core.RoundMoney(totalExp),
		TotalIncome:        core.RoundMoney(totalInc),
		NetProfit:          core.RoundMoney(net),
		ProfitMargin:       Margin(net, totalInc),
		MonthlyExpenses:    core.RoundMoney(monthExp),
		MonthlyIncome:      core.RoundMoney(monthInc),
		MonthlyNet:         core.RoundMoney(monthInc - monthExp),
		ExpensesByCategory: byCategory,
		ExpenseCount:       len(expenses),
		IncomeCount:        len(incomes),
	}
}

// Profitability is the rollup restricted to one field or crop.
type Profitability struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	TotalExpenses float64 `json:"totalExpenses"`
	TotalIncome   float64 `json:"totalIncome"`
	NetProfit     float64 `json:"netProfit"`
	ProfitMargin  float64 `json:"profitMargin"`
}

func rollup(id int64, name string, expenses []core.Expense, incomes []core.Income,
	expMatch func(core.Expense) bool, incMatch func(core.Income) bool) Profitability {
	exp := stats.Sum(expenses, expenseAmount, expMatch)
	inc := stats.Sum(incomes, incomeAmount, incMatch)
	return Profitability{
		ID:            id,
		Name:          name,
		TotalExpenses: core.RoundMoney(exp),
		TotalIncome:   core.RoundMoney(inc),
		NetProfit:     core.RoundMoney(inc - exp),
		ProfitMargin:  Margin(inc-exp, inc),
	}
}

// ByField reports one row per field, in the order given.
func ByField(fields []core.Field, expenses []core.Expense, incomes []core.Income) []Profitability {
	out := make([]Profitability, 0, len(fields))
	for _, f := range fields {
		id := f.ID
		out = append(out, rollup(id, f.Name, expenses, incomes,
			func(e core.Expense) bool { return e.FieldID == id },
			func(i core.Income) bool { return i.FieldID == id }))
	}
	return out
}

// ByCrop reports one row per crop. Records without a crop count for none.
func ByCrop(crops []core.Crop, expenses []core.Expense, incomes []core.Income) []Profitability {
	out := make([]Profitability, 0, len(crops))
	for _, c := range crops {
		id := c.ID
		out = append(out, rollup(id, c.Name, expenses, incomes,
			func(e core.Expense) bool { return e.CropID != nil && *e.CropID == id },
			func(i core.Income) bool { return i.CropID != nil && *i.CropID == id }))
	}
	return out
}
