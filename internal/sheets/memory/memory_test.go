package memory

import (
	"context"
	"testing"

	"ledger/internal/core"
)

func TestMemoryStoreCreateAndList(t *testing.T) {
	s := New()
	ctx := context.Background()

	id1, err := s.CreateExpense(ctx, core.NewExpense("2024-01-05", 12.5, "food", "", ""))
	if err != nil || id1 != 1 {
		t.Fatalf("unexpected create: id=%d err=%v", id1, err)
	}
	id2, err := s.CreateExpense(ctx, core.NewExpense("2024-01-06", 7.25, "food", "", "coffee"))
	if err != nil || id2 != 2 {
		t.Fatalf("unexpected create: id=%d err=%v", id2, err)
	}
	if _, err := s.CreateExpense(ctx, core.NewExpense("2024-02-01", 1, "food", "", "")); err != nil {
		t.Fatalf("create: %v", err)
	}

	items, err := s.ListExpenses(ctx, core.DateRange{Start: "2024-01-01", End: "2024-01-31"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 || items[0].ID != 1 || items[1].ID != 2 {
		t.Fatalf("unexpected items: %+v", items)
	}
	if items[1].Note != "coffee" {
		t.Fatalf("note not preserved: %+v", items[1])
	}
}

func TestMemoryStoreListEmpty(t *testing.T) {
	items, err := New().ListExpenses(context.Background(), core.DateRange{Start: "a", End: "z"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", items)
	}
}

func TestMemoryStoreSummarize(t *testing.T) {
	s := New()
	ctx := context.Background()
	for _, e := range []core.Expense{
		core.NewExpense("2024-01-05", 0.1, "food", "", ""),
		core.NewExpense("2024-01-06", 0.2, "food", "", ""),
		core.NewExpense("2024-01-07", 3, "bank", "", ""),
		core.NewExpense("2024-03-01", 100, "rent", "", ""),
	} {
		if _, err := s.CreateExpense(ctx, e); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	jan := core.DateRange{Start: "2024-01-01", End: "2024-01-31"}

	totals, err := s.SummarizeExpenses(ctx, core.SummaryFilter{Range: jan})
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	want := []core.CategoryTotal{{Category: "bank", TotalAmount: 3}, {Category: "food", TotalAmount: 0.3}}
	if len(totals) != len(want) {
		t.Fatalf("got %+v, want %+v", totals, want)
	}
	for i := range want {
		if totals[i] != want[i] {
			t.Fatalf("got %+v, want %+v", totals, want)
		}
	}

	filtered, _ := s.SummarizeExpenses(ctx, core.SummaryFilter{Range: jan, Category: "rent"})
	if len(filtered) != 0 {
		t.Fatalf("rent outside range should be absent, got %+v", filtered)
	}
}

func TestMemoryStoreListCategories(t *testing.T) {
	s := New()
	ctx := context.Background()
	for _, c := range []string{"rent", "food", "rent"} {
		_, _ = s.CreateExpense(ctx, core.NewExpense("2024-01-01", 1, c, "", ""))
	}
	cats, err := s.ListCategories(ctx)
	if err != nil || len(cats) != 2 || cats[0] != "food" || cats[1] != "rent" {
		t.Fatalf("unexpected categories: %v err=%v", cats, err)
	}
}
