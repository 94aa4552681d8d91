package ports

import (
	"context"

	"ledger/internal/core"
)

// Ports implemented by the storage backends.
type (
	// ExpenseWriter persists a new expense and returns its generated id.
	ExpenseWriter interface {
		CreateExpense(ctx context.Context, e core.Expense) (id int64, err error)
	}

	// ExpenseLister returns the expenses dated within a range, in insertion order.
	ExpenseLister interface {
		ListExpenses(ctx context.Context, r core.DateRange) ([]core.Expense, error)
	}

	// ExpenseSummarizer aggregates amounts per category.
	ExpenseSummarizer interface {
		// SummarizeExpenses returns one total per category present in the
		// filtered range, ordered by category name.
		SummarizeExpenses(ctx context.Context, f core.SummaryFilter) ([]core.CategoryTotal, error)
	}

	// TaxonomyReader lists the distinct categories already recorded.
	TaxonomyReader interface {
		ListCategories(ctx context.Context) ([]string, error)
	}

	// Pinger reports whether the backing store is reachable.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)
