package adapters

import (
	"context"

	"ledger/internal/core"
	"ledger/internal/ports"
	"ledger/internal/services"
)

// ReadStore is the read side of a storage backend.
type ReadStore interface {
	ports.ExpenseLister
	ports.ExpenseSummarizer
	ports.Pinger
}

// LedgerAdapter joins a storage backend with the services layered on top
// of it, so the HTTP handlers see one value regardless of where rows live.
// Writes go through the expense service, taxonomy reads through the cache.
type LedgerAdapter struct {
	store    ReadStore
	service  *services.ExpenseService
	taxonomy *services.TaxonomyService
}

func NewLedgerAdapter(store ReadStore, service *services.ExpenseService, taxonomy *services.TaxonomyService) *LedgerAdapter {
	return &LedgerAdapter{
		store:    store,
		service:  service,
		taxonomy: taxonomy,
	}
}

// CreateExpense implements ports.ExpenseWriter
func (a *LedgerAdapter) CreateExpense(ctx context.Context, e core.Expense) (int64, error) {
	return a.service.CreateExpense(ctx, e)
}

// ListExpenses implements ports.ExpenseLister
func (a *LedgerAdapter) ListExpenses(ctx context.Context, r core.DateRange) ([]core.Expense, error) {
	return a.store.ListExpenses(ctx, r)
}

// SummarizeExpenses implements ports.ExpenseSummarizer
func (a *LedgerAdapter) SummarizeExpenses(ctx context.Context, f core.SummaryFilter) ([]core.CategoryTotal, error) {
	return a.store.SummarizeExpenses(ctx, f)
}

// ListCategories implements ports.TaxonomyReader
func (a *LedgerAdapter) ListCategories(ctx context.Context) ([]string, error) {
	return a.taxonomy.ListCategories(ctx)
}

// Ping implements ports.Pinger
func (a *LedgerAdapter) Ping(ctx context.Context) error {
	return a.store.Ping(ctx)
}
