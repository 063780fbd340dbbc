package ledger

import (
	"sort"
	"strings"

	"farmdash/internal/core"
	"farmdash/internal/enrich"
)

// Transaction is one line of the merged expense and income journal.
type Transaction struct {
	Type        core.TransactionKind `json:"type"`
	ID          int64                `json:"id"`
	Date        core.Date            `json:"date"`
	Description string               `json:"description"`
	Amount      float64              `json:"amount"`
	Category    string               `json:"category,omitempty"`
	FieldID     int64                `json:"fieldId"`
	FieldName   string               `json:"fieldName"`
	CropName    string               `json:"cropName"`
	Party       string               `json:"party,omitempty"`
}

// Filter narrows the journal. Zero values match everything. Incomes carry
// no category, so a category filter keeps expenses only.
type Filter struct {
	Query    string
	Category string
	FieldID  int64
	From     core.Date
	To       core.Date
}

func (f Filter) match(desc, party, category string, fieldID int64, date core.Date) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if !strings.Contains(strings.ToLower(desc), q) && !strings.Contains(strings.ToLower(party), q) {
			return false
		}
	}
	if f.Category != "" && category != f.Category {
		return false
	}
	if f.FieldID != 0 && fieldID != f.FieldID {
		return false
	}
	if !f.From.IsZero() && date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && date.After(f.To) {
		return false
	}
	return true
}

// Transactions merges both logs, newest first. Ties keep expenses before
// incomes and then id order.
func Transactions(refs enrich.Refs, expenses []core.Expense, incomes []core.Income, f Filter) []Transaction {
	out := make([]Transaction, 0, len(expenses)+len(incomes))
	for _, e := range expenses {
		if !f.match(e.Description, e.Supplier, string(e.Category), e.FieldID, e.Date) {
			continue
		}
		v := refs.Expense(e)
		out = append(out, Transaction{
			Type:        core.KindExpense,
			ID:          e.ID,
			Date:        e.Date,
			Description: e.Description,
			Amount:      e.Amount,
			Category:    string(e.Category),
			FieldID:     e.FieldID,
			FieldName:   v.FieldName,
			CropName:    v.CropName,
			Party:       e.Supplier,
		})
	}
	for _, i := range incomes {
		if !f.match(i.Description, i.Buyer, "", i.FieldID, i.Date) {
			continue
		}
		v := refs.Income(i)
		out = append(out, Transaction{
			Type:        core.KindIncome,
			ID:          i.ID,
			Date:        i.Date,
			Description: i.Description,
			Amount:      i.Amount,
			FieldID:     i.FieldID,
			FieldName:   v.FieldName,
			CropName:    v.CropName,
			Party:       i.Buyer,
		})
	}
	sort.SliceStable(out, func(a, b int) bool {
		if !out[a].Date.Equal(out[b].Date.Time) {
			return out[a].Date.After(out[b].Date)
		}
		if out[a].Type != out[b].Type {
			return out[a].Type == core.KindExpense
		}
		return out[a].ID < out[b].ID
	})
	return out
}
