package sheets

import (
	"context"

	"ledger/internal/core"
)

// Ports for outbound adapters.
type (
	// RowAppender mirrors a stored expense as one spreadsheet row.
	RowAppender interface {
		AppendExpense(ctx context.Context, e core.Expense) error
	}
)
