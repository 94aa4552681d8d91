package storage

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"ledger/internal/core"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

const expensesTable = "expenses"

type CreateExpenseParams struct {
	Date        string
	Amount      float64
	Category    string
	Subcategory string
	Note        string
}

// CreateExpense inserts one row and returns the id assigned by SQLite.
func (q *Queries) CreateExpense(ctx context.Context, arg CreateExpenseParams) (int64, error) {
	query, args, err := psql.Insert(expensesTable).
		Columns("date", "amount", "category", "subcategory", "note").
		Values(arg.Date, arg.Amount, arg.Category, arg.Subcategory, arg.Note).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert: %w", err)
	}

	var id int64
	if err := q.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

type ListExpensesByDateParams struct {
	StartDate string
	EndDate   string
}

// ListExpensesByDate returns rows with date BETWEEN start AND end, by ascending id.
func (q *Queries) ListExpensesByDate(ctx context.Context, arg ListExpensesByDateParams) ([]core.Expense, error) {
	query, args, err := psql.
		Select("id", "date", "amount", "category", "COALESCE(subcategory, '')", "COALESCE(note, '')").
		From(expensesTable).
		Where(sq.Expr("date BETWEEN ? AND ?", arg.StartDate, arg.EndDate)).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]core.Expense, 0)
	for rows.Next() {
		var e core.Expense
		if err := rows.Scan(&e.ID, &e.Date, &e.Amount, &e.Category, &e.Subcategory, &e.Note); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type SummarizeExpensesParams struct {
	StartDate string
	EndDate   string
	// Category restricts the summary when non-empty.
	Category string
}

// SummarizeExpenses sums amount per category, ordered by category.
func (q *Queries) SummarizeExpenses(ctx context.Context, arg SummarizeExpensesParams) ([]core.CategoryTotal, error) {
	builder := psql.
		Select("category", "SUM(amount) AS total_amount").
		From(expensesTable).
		Where(sq.Expr("date BETWEEN ? AND ?", arg.StartDate, arg.EndDate))
	if arg.Category != "" {
		builder = builder.Where(sq.Eq{"category": arg.Category})
	}

	query, args, err := builder.
		GroupBy("category").
		OrderBy("category ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build summary: %w", err)
	}

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make([]core.CategoryTotal, 0)
	for rows.Next() {
		var ct core.CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.TotalAmount); err != nil {
			return nil, err
		}
		totals = append(totals, ct)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return totals, nil
}

// GetCategories returns the distinct categories in use, sorted.
func (q *Queries) GetCategories(ctx context.Context) ([]string, error) {
	query, args, err := psql.
		Select("category").
		Distinct().
		From(expensesTable).
		OrderBy("category ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build categories: %w", err)
	}

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []string
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, err
		}
		items = append(items, category)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
