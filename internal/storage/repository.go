package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"ledger/internal/core"
	"ledger/internal/ports"

	_ "modernc.org/sqlite"
)

// Ensure interface conformance
var (
	_ ports.ExpenseWriter     = (*SQLiteRepository)(nil)
	_ ports.ExpenseLister     = (*SQLiteRepository)(nil)
	_ ports.ExpenseSummarizer = (*SQLiteRepository)(nil)
	_ ports.TaxonomyReader    = (*SQLiteRepository)(nil)
	_ ports.Pinger            = (*SQLiteRepository)(nil)
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

// NewSQLiteRepository opens the database at dbPath and makes sure the
// expenses table exists. Any error leaves nothing open.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{
		db:      db,
		queries: New(db),
	}

	return repo, nil
}

// dsn enables WAL and a busy timeout so concurrent writers wait on the
// file lock instead of failing with SQLITE_BUSY.
func dsn(dbPath string) string {
	return "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// CreateExpense implements ports.ExpenseWriter
func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (int64, error) {
	id, err := r.queries.CreateExpense(ctx, CreateExpenseParams{
		Date:        e.Date,
		Amount:      e.Amount,
		Category:    e.Category,
		Subcategory: e.Subcategory,
		Note:        e.Note,
	})
	if err != nil {
		return 0, fmt.Errorf("create expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", id,
		"date", e.Date,
		"amount", e.Amount,
		"category", e.Category)

	return id, nil
}

// ListExpenses implements ports.ExpenseLister
func (r *SQLiteRepository) ListExpenses(ctx context.Context, dr core.DateRange) ([]core.Expense, error) {
	items, err := r.queries.ListExpensesByDate(ctx, ListExpensesByDateParams{
		StartDate: dr.Start,
		EndDate:   dr.End,
	})
	if err != nil {
		return nil, fmt.Errorf("list expenses by date: %w", err)
	}
	return items, nil
}

// SummarizeExpenses implements ports.ExpenseSummarizer
func (r *SQLiteRepository) SummarizeExpenses(ctx context.Context, f core.SummaryFilter) ([]core.CategoryTotal, error) {
	totals, err := r.queries.SummarizeExpenses(ctx, SummarizeExpensesParams{
		StartDate: f.Range.Start,
		EndDate:   f.Range.End,
		Category:  f.Category,
	})
	if err != nil {
		return nil, fmt.Errorf("summarize expenses: %w", err)
	}
	return totals, nil
}

// ListCategories implements ports.TaxonomyReader
func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]string, error) {
	cats, err := r.queries.GetCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("get categories: %w", err)
	}
	return cats, nil
}
