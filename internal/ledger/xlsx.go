package ledger

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"
)

const (
	summarySheet      = "Summary"
	transactionsSheet = "Transactions"
	fieldsSheet       = "Fields"
)

// WriteWorkbook renders the summary, the journal and per-field
// profitability as an XLSX workbook.
func WriteWorkbook(w io.Writer, s Summary, txs []Transaction, fields []Profitability) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{transactionsSheet, fieldsSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	summary := [][]any{
		{"Metric", "Value"},
		{"Total expenses", s.TotalExpenses},
		{"Total income", s.TotalIncome},
		{"Net profit", s.NetProfit},
		{"Profit margin %", s.ProfitMargin},
		{"Monthly expenses", s.MonthlyExpenses},
		{"Monthly income", s.MonthlyIncome},
		{"Monthly net", s.MonthlyNet},
	}
	categories := make([]string, 0, len(s.ExpensesByCategory))
	for k := range s.ExpensesByCategory {
		categories = append(categories, k)
	}
	sort.Strings(categories)
	for _, c := range categories {
		summary = append(summary, []any{"Expenses: " + c, s.ExpensesByCategory[c]})
	}
	if err := writeRows(f, summarySheet, summary, bold); err != nil {
		return err
	}

	journal := [][]any{{"Date", "Type", "Description", "Category", "Field", "Crop", "Party", "Amount"}}
	for _, t := range txs {
		journal = append(journal, []any{
			t.Date.String(), string(t.Type), t.Description, t.Category,
			t.FieldName, t.CropName, t.Party, t.Amount,
		})
	}
	if err := writeRows(f, transactionsSheet, journal, bold); err != nil {
		return err
	}

	perField := [][]any{{"Field", "Income", "Expenses", "Net profit", "Margin %"}}
	for _, p := range fields {
		perField = append(perField, []any{p.Name, p.TotalIncome, p.TotalExpenses, p.NetProfit, p.ProfitMargin})
	}
	if err := writeRows(f, fieldsSheet, perField, bold); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// writeRows writes rows from A1 down and bolds the header row.
func writeRows(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	if len(rows) == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}
	return nil
}
