package storage

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "expenses.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestNewSQLiteRepositoryIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expenses.db")

	first, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	id, err := first.CreateExpense(context.Background(), core.NewExpense("2024-01-01", 1, "food", "", ""))
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	defer second.Close()

	items, err := second.ListExpenses(context.Background(), core.DateRange{Start: "2024-01-01", End: "2024-01-01"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, id, items[0].ID)
}

func TestNewSQLiteRepositoryFailsOnUnusablePath(t *testing.T) {
	// A directory where the database file should be.
	dir := t.TempDir()
	_, err := NewSQLiteRepository(dir)
	require.Error(t, err)
}

func TestCreateExpenseAssignsIncreasingIDs(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	var last int64
	for i := 0; i < 5; i++ {
		id, err := repo.CreateExpense(ctx, core.NewExpense("2024-01-01", float64(i), "food", "", ""))
		require.NoError(t, err)
		assert.Greater(t, id, last)
		last = id
	}
}

func TestCreateExpenseConcurrentIDsAreUnique(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	const n = 20
	ids := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := repo.CreateExpense(ctx, core.NewExpense("2024-01-01", 1, "food", "", ""))
			assert.NoError(t, err)
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[int64]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func TestListExpensesRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	want := core.NewExpense("2024-01-06", 7.25, "food", "bar", "coffee")
	id, err := repo.CreateExpense(ctx, want)
	require.NoError(t, err)
	want.ID = id

	items, err := repo.ListExpenses(ctx, core.DateRange{Start: "2024-01-01", End: "2024-01-31"})
	require.NoError(t, err)
	require.Equal(t, []core.Expense{want}, items)
}

func TestListExpensesOrderAndBounds(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	// Inserted out of date order; listing must follow insertion order.
	for _, d := range []string{"2024-01-20", "2024-01-05", "2023-12-31", "2024-01-31", "2024-02-01"} {
		_, err := repo.CreateExpense(ctx, core.NewExpense(d, 1, "food", "", ""))
		require.NoError(t, err)
	}

	items, err := repo.ListExpenses(ctx, core.DateRange{Start: "2024-01-01", End: "2024-01-31"})
	require.NoError(t, err)

	var dates []string
	for i, e := range items {
		dates = append(dates, e.Date)
		if i > 0 {
			assert.Greater(t, e.ID, items[i-1].ID)
		}
	}
	assert.Equal(t, []string{"2024-01-20", "2024-01-05", "2024-01-31"}, dates)
}

func TestListExpensesSingleDay(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, d := range []string{"2024-03-10", "2024-03-11", "2024-03-10", "2024-03-09"} {
		_, err := repo.CreateExpense(ctx, core.NewExpense(d, 1, "food", "", ""))
		require.NoError(t, err)
	}

	items, err := repo.ListExpenses(ctx, core.DateRange{Start: "2024-03-10", End: "2024-03-10"})
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, e := range items {
		assert.Equal(t, "2024-03-10", e.Date)
	}
	assert.Less(t, items[0].ID, items[1].ID)
}

func TestListExpensesEmptyIsNotNil(t *testing.T) {
	repo := newTestRepo(t)

	items, err := repo.ListExpenses(context.Background(), core.DateRange{Start: "2024-01-01", End: "2024-01-31"})
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestSummarizeExpenses(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	seed := []core.Expense{
		core.NewExpense("2024-01-05", 12.5, "food", "", ""),
		core.NewExpense("2024-01-06", 7.25, "food", "", "coffee"),
		core.NewExpense("2024-01-07", 500, "rent", "", ""),
		core.NewExpense("2024-01-08", -20, "bank", "", "refund"),
		core.NewExpense("2024-02-01", 99, "food", "", ""),
	}
	for _, e := range seed {
		_, err := repo.CreateExpense(ctx, e)
		require.NoError(t, err)
	}
	jan := core.DateRange{Start: "2024-01-01", End: "2024-01-31"}

	t.Run("all categories sorted", func(t *testing.T) {
		totals, err := repo.SummarizeExpenses(ctx, core.SummaryFilter{Range: jan})
		require.NoError(t, err)
		require.Len(t, totals, 3)
		assert.Equal(t, "bank", totals[0].Category)
		assert.InDelta(t, -20, totals[0].TotalAmount, 1e-9)
		assert.Equal(t, "food", totals[1].Category)
		assert.InDelta(t, 19.75, totals[1].TotalAmount, 1e-9)
		assert.Equal(t, "rent", totals[2].Category)
		assert.InDelta(t, 500, totals[2].TotalAmount, 1e-9)
	})

	t.Run("category filter", func(t *testing.T) {
		totals, err := repo.SummarizeExpenses(ctx, core.SummaryFilter{Range: jan, Category: "rent"})
		require.NoError(t, err)
		require.Len(t, totals, 1)
		assert.Equal(t, "rent", totals[0].Category)
	})

	t.Run("unknown category yields empty", func(t *testing.T) {
		totals, err := repo.SummarizeExpenses(ctx, core.SummaryFilter{Range: jan, Category: "travel"})
		require.NoError(t, err)
		assert.NotNil(t, totals)
		assert.Empty(t, totals)
	})

	t.Run("category filter is exact", func(t *testing.T) {
		totals, err := repo.SummarizeExpenses(ctx, core.SummaryFilter{Range: jan, Category: "Food"})
		require.NoError(t, err)
		assert.Empty(t, totals)
	})
}

func TestListCategories(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, c := range []string{"rent", "food", "rent", ""} {
		_, err := repo.CreateExpense(ctx, core.NewExpense("2024-01-01", 1, c, "", ""))
		require.NoError(t, err)
	}

	cats, err := repo.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"", "food", "rent"}, cats)
}

func TestClosedRepositoryReturnsErrors(t *testing.T) {
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "expenses.db"))
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	ctx := context.Background()
	_, err = repo.CreateExpense(ctx, core.NewExpense("2024-01-01", 1, "food", "", ""))
	assert.Error(t, err)
	_, err = repo.ListExpenses(ctx, core.DateRange{Start: "a", End: "z"})
	assert.Error(t, err)
	_, err = repo.SummarizeExpenses(ctx, core.SummaryFilter{Range: core.DateRange{Start: "a", End: "z"}})
	assert.Error(t, err)
	assert.Error(t, repo.Ping(ctx))
}
