package core

import "strings"

type (
	// Expense is one persisted ledger entry. The same struct is scanned from
	// storage and serialized in API responses.
	Expense struct {
		ID          int64   `json:"id"`
		Date        string  `json:"date"`
		Amount      float64 `json:"amount"`
		Category    string  `json:"category"`
		Subcategory string  `json:"subcategory"`
		Note        string  `json:"note"`
	}

	// DateRange selects dates between Start and End, both inclusive.
	// Dates are compared as plain strings.
	DateRange struct {
		Start string
		End   string
	}

	// SummaryFilter narrows a summary to a date range and, optionally,
	// a single category.
	SummaryFilter struct {
		Range    DateRange
		Category string
	}
)

// NewExpense builds an unsaved expense. Optional fields left empty keep
// their zero value, which is also the stored default.
func NewExpense(date string, amount float64, category, subcategory, note string) Expense {
	return Expense{
		Date:        date,
		Amount:      amount,
		Category:    category,
		Subcategory: subcategory,
		Note:        note,
	}
}

// Contains reports whether date lies within the range.
func (r DateRange) Contains(date string) bool {
	return strings.Compare(date, r.Start) >= 0 && strings.Compare(date, r.End) <= 0
}

// HasCategory reports whether the filter restricts to one category.
// An empty category means no restriction.
func (f SummaryFilter) HasCategory() bool {
	return f.Category != ""
}

// Matches reports whether e falls under the filter.
func (f SummaryFilter) Matches(e Expense) bool {
	if !f.Range.Contains(e.Date) {
		return false
	}
	return !f.HasCategory() || e.Category == f.Category
}
