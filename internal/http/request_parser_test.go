package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core"
)

func TestDecodeCreateExpense(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		want     core.Expense
		wantErrs ValidationErrors
	}{
		{
			name: "optional fields default to empty",
			body: `{"date":"2024-01-05","amount":12.5,"category":"food"}`,
			want: core.NewExpense("2024-01-05", 12.5, "food", "", ""),
		},
		{
			name: "amount given as a numeric string",
			body: `{"date":"2024-01-05","amount":" 7.25 ","category":"food","note":"coffee"}`,
			want: core.NewExpense("2024-01-05", 7.25, "food", "", "coffee"),
		},
		{
			name: "null optional fields",
			body: `{"date":"2024-01-05","amount":0,"category":"","subcategory":null,"note":null}`,
			want: core.NewExpense("2024-01-05", 0, "", "", ""),
		},
		{
			name: "unknown fields are ignored",
			body: `{"date":"d","amount":-3,"category":"c","extra":true}`,
			want: core.NewExpense("d", -3, "c", "", ""),
		},
		{
			name:     "NaN is not a float",
			body:     `{"date":"d","amount":"NaN","category":"c"}`,
			wantErrs: ValidationErrors{notAFloat("body", "amount")},
		},
		{
			name: "boolean amount",
			body: `{"date":"d","amount":true,"category":"c"}`,
			want: core.NewExpense("d", 1, "c", "", ""),
		},
		{
			name:     "object amount",
			body:     `{"date":"d","amount":{"value":1},"category":"c"}`,
			wantErrs: ValidationErrors{notAFloat("body", "amount")},
		},
		{
			name:     "null amount",
			body:     `{"date":"d","amount":null,"category":"c"}`,
			wantErrs: ValidationErrors{nullNotAllowed("body", "amount")},
		},
		{
			name: "numbers and booleans in text fields",
			body: `{"date":20240105,"amount":1,"category":12.50,"subcategory":false,"note":1e-5}`,
			want: core.NewExpense("20240105", 1, "12.5", "False", "1e-05"),
		},
		{
			name:     "array note",
			body:     `{"date":"d","amount":1,"category":"c","note":["x"]}`,
			wantErrs: ValidationErrors{notAString("body", "note")},
		},
		{
			name: "errors follow field order",
			body: `{"note":{},"category":[2]}`,
			wantErrs: ValidationErrors{
				missingField("body", "date"),
				missingField("body", "amount"),
				notAString("body", "category"),
				notAString("body", "note"),
			},
		},
		{
			name:     "null body",
			body:     `null`,
			wantErrs: ValidationErrors{missingField("body")},
		},
		{
			name:     "whitespace body",
			body:     " \n ",
			wantErrs: ValidationErrors{missingField("body")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, verrs := decodeCreateExpense([]byte(tt.body))
			if tt.wantErrs != nil {
				assert.Equal(t, tt.wantErrs, verrs)
				return
			}
			require.Nil(t, verrs)
			got := core.NewExpense(*body.Date, *body.Amount, *body.Category, deref(body.Subcategory), deref(body.Note))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPythonNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"5", "5"},
		{"-0", "0"},
		{"12345678901234567890123", "12345678901234567890123"},
		{"5.0", "5.0"},
		{"12.50", "12.5"},
		{"1e3", "1000.0"},
		{"0.0001", "0.0001"},
		{"1e-5", "1e-05"},
		{"1e16", "1e+16"},
		{"123456789012345.6", "123456789012345.6"},
		{"-2.5E2", "-250.0"},
		{"1e400", "inf"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, pythonNumber(json.Number(tt.in)))
		})
	}
}

func TestParseCreateExpenseBodyTooLarge(t *testing.T) {
	payload := `{"date":"2024-01-05","amount":1,"category":"food","note":"` + strings.Repeat("x", maxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/expenses", strings.NewReader(payload))
	rr := httptest.NewRecorder()

	_, verrs, err := ParseCreateExpense(rr, req)
	require.Error(t, err)
	assert.Nil(t, verrs)

	var tooLarge *http.MaxBytesError
	assert.ErrorAs(t, err, &tooLarge)
}

func TestParseSummaryFilter(t *testing.T) {
	f, verrs := ParseSummaryFilter(url.Values{
		"start_date": {"2024-01-01"},
		"end_date":   {"2024-01-31"},
		"category":   {"food"},
	})
	require.Nil(t, verrs)
	assert.Equal(t, core.SummaryFilter{Range: core.DateRange{Start: "2024-01-01", End: "2024-01-31"}, Category: "food"}, f)
	assert.True(t, f.HasCategory())

	f, verrs = ParseSummaryFilter(url.Values{"start_date": {""}, "end_date": {""}})
	require.Nil(t, verrs, "present but empty dates are accepted")
	assert.False(t, f.HasCategory())

	_, verrs = ParseSummaryFilter(url.Values{"category": {"food"}})
	assert.Equal(t, ValidationErrors{missingField("query", "start_date"), missingField("query", "end_date")}, verrs)
}

func TestValidationErrorsError(t *testing.T) {
	verrs := ValidationErrors{missingField("query", "start_date"), notAFloat("body", "amount")}
	assert.Equal(t, "query.start_date: field required; body.amount: value is not a valid float", verrs.Error())
}
