package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
	"ledger/internal/ports"
)

// Ensure interface conformance
var (
	_ ports.ExpenseWriter     = (*Store)(nil)
	_ ports.ExpenseLister     = (*Store)(nil)
	_ ports.ExpenseSummarizer = (*Store)(nil)
	_ ports.TaxonomyReader    = (*Store)(nil)
	_ ports.Pinger            = (*Store)(nil)
)

// Store keeps expenses in process memory. Ids start at 1 and are never
// reused, matching the SQLite backend.
type Store struct {
	mu     sync.Mutex
	nextID int64
	items  []core.Expense
}

func New() *Store {
	return &Store{nextID: 1}
}

// CreateExpense stores a copy of e under a fresh id.
func (s *Store) CreateExpense(_ context.Context, e core.Expense) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.nextID
	s.nextID++
	s.items = append(s.items, e)
	return e.ID, nil
}

// ListExpenses returns matching expenses in insertion order.
func (s *Store) ListExpenses(_ context.Context, r core.DateRange) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Expense, 0)
	for _, e := range s.items {
		if r.Contains(e.Date) {
			out = append(out, e)
		}
	}
	return out, nil
}

// SummarizeExpenses sums amounts per category with decimal arithmetic so
// totals do not drift with insertion order.
func (s *Store) SummarizeExpenses(_ context.Context, f core.SummaryFilter) ([]core.CategoryTotal, error) {
	s.mu.Lock()
	sums := map[string]decimal.Decimal{}
	for _, e := range s.items {
		if !f.Matches(e) {
			continue
		}
		sums[e.Category] = sums[e.Category].Add(decimal.NewFromFloat(e.Amount))
	}
	s.mu.Unlock()

	cats := make([]string, 0, len(sums))
	for c := range sums {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	out := make([]core.CategoryTotal, 0, len(cats))
	for _, c := range cats {
		out = append(out, core.CategoryTotal{Category: c, TotalAmount: sums[c].InexactFloat64()})
	}
	return out, nil
}

// ListCategories returns the distinct categories recorded so far, sorted.
func (s *Store) ListCategories(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]struct{}{}
	var out []string
	for _, e := range s.items {
		if _, ok := seen[e.Category]; ok {
			continue
		}
		seen[e.Category] = struct{}{}
		out = append(out, e.Category)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) Ping(context.Context) error { return nil }
