package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"ledger/internal/core"
)

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Component: ComponentStorage, Output: &buf})

	logger.Info("Expense saved", FieldExpenseID, 3)

	out := buf.String()
	if !strings.Contains(out, "component=storage") {
		t.Errorf("expected component field, got %q", out)
	}
	if !strings.Contains(out, "expense_id=3") {
		t.Errorf("expected expense_id field, got %q", out)
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelWarn, Output: &buf})

	logger.Info("hidden")
	logger.Debug("hidden too")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info/debug should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn should pass: %q", out)
	}
}

func TestWithComponentDoesNotDuplicateField(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf}).WithComponent(ComponentHTTP)

	logger.Info("request")

	out := buf.String()
	if strings.Count(out, "component=") != 1 {
		t.Errorf("expected a single component field, got %q", out)
	}
	if logger.Component() != ComponentHTTP {
		t.Errorf("Component() = %q, want %q", logger.Component(), ComponentHTTP)
	}
}

func TestFieldsWithExpense(t *testing.T) {
	e := core.NewExpense("2024-01-05", 12.5, "food", "", "secret note")
	e.ID = 7

	fields := NewFields().WithExpense(e).WithOperation(OpCreate)

	if fields[FieldExpenseID] != int64(7) {
		t.Errorf("expense_id = %v", fields[FieldExpenseID])
	}
	if _, ok := fields[FieldSubcategory]; ok {
		t.Error("empty subcategory should be omitted")
	}
	for _, v := range fields {
		if v == "secret note" {
			t.Error("note must not be logged")
		}
	}
	if got := len(fields.ToSlice()); got != len(fields)*2 {
		t.Errorf("ToSlice() length = %d, want %d", got, len(fields)*2)
	}
}

func TestFromContextFallsBack(t *testing.T) {
	logger := FromContext(context.Background())
	if logger == nil || logger.Logger == nil {
		t.Fatal("expected a default logger")
	}
	if logger.Component() != "unknown" {
		t.Errorf("Component() = %q, want unknown", logger.Component())
	}
}

func TestNewContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Output: &buf, Component: ComponentHTTP}).With(FieldRequestID, "req_abc")

	ctx := NewContext(context.Background(), base)
	FromContext(ctx).InfoContext(ctx, "inside handler")

	if FromContext(ctx) != base {
		t.Error("FromContext did not return the stored logger")
	}
	if !strings.Contains(buf.String(), "request_id=req_abc") {
		t.Errorf("expected request id in log, got %q", buf.String())
	}
}
