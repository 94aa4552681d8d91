// Package http provides the JSON API server and its handlers.
//
// This file turns request bodies and query strings into domain values.
// Problems are reported as ValidationErrors in the shape FastAPI clients
// already understand: {"loc": [...], "msg": "...", "type": "..."}.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"
	"net/http"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"ledger/internal/core"
)

const maxBodyBytes = 1 << 20

// Error locations
const (
	locBody  = "body"
	locQuery = "query"
)

// ValidationError describes one rejected input.
type ValidationError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// ValidationErrors is returned by the parsers; a nil value means the input
// was accepted.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, fmt.Sprintf("%s: %s", strings.Join(e.Loc, "."), e.Msg))
	}
	return strings.Join(parts, "; ")
}

func missingField(loc ...string) ValidationError {
	return ValidationError{Loc: loc, Msg: "field required", Type: "value_error.missing"}
}

func notAFloat(loc ...string) ValidationError {
	return ValidationError{Loc: loc, Msg: "value is not a valid float", Type: "type_error.float"}
}

func notAString(loc ...string) ValidationError {
	return ValidationError{Loc: loc, Msg: "str type expected", Type: "type_error.str"}
}

func nullNotAllowed(loc ...string) ValidationError {
	return ValidationError{Loc: loc, Msg: "none is not an allowed value", Type: "type_error.none.not_allowed"}
}

var validate = newValidator()

// newValidator reports fields by their json names so errors carry the
// names the client sent.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Required fields are pointers so that "required" checks presence: an
// empty string or a zero amount is accepted.
type createExpenseBody struct {
	Date        *string  `json:"date" validate:"required"`
	Amount      *float64 `json:"amount" validate:"required"`
	Category    *string  `json:"category" validate:"required"`
	Subcategory *string  `json:"subcategory"`
	Note        *string  `json:"note"`
}

var createExpenseFields = []string{"date", "amount", "category", "subcategory", "note"}

type dateRangeQuery struct {
	StartDate *string `json:"start_date" validate:"required"`
	EndDate   *string `json:"end_date" validate:"required"`
}

var dateRangeFields = []string{"start_date", "end_date"}

// ParseCreateExpense reads a create body. It returns either a ready
// expense or the list of problems; a non-validation read failure is
// returned as err.
func ParseCreateExpense(w http.ResponseWriter, r *http.Request) (core.Expense, ValidationErrors, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return core.Expense{}, nil, fmt.Errorf("read request body: %w", err)
	}

	body, verrs := decodeCreateExpense(data)
	if verrs != nil {
		return core.Expense{}, verrs, nil
	}

	return core.NewExpense(*body.Date, *body.Amount, *body.Category, deref(body.Subcategory), deref(body.Note)), nil, nil
}

func decodeCreateExpense(data []byte) (createExpenseBody, ValidationErrors) {
	var body createExpenseBody

	if len(strings.TrimSpace(string(data))) == 0 {
		return body, ValidationErrors{missingField(locBody)}
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return body, ValidationErrors{{Loc: []string{locBody}, Msg: "value is not a valid dict", Type: "type_error.dict"}}
		}
		return body, ValidationErrors{{Loc: []string{locBody}, Msg: err.Error(), Type: "value_error.jsondecode"}}
	}
	if raw == nil {
		return body, ValidationErrors{missingField(locBody)}
	}

	var verrs ValidationErrors
	failed := make(map[string]bool)
	fail := func(e ValidationError) {
		verrs = append(verrs, e)
		failed[e.Loc[len(e.Loc)-1]] = true
	}

	stringField := func(name string, dst **string, required bool) {
		v, ok := raw[name]
		if !ok {
			return
		}
		if isNull(v) {
			if required {
				fail(nullNotAllowed(locBody, name))
			}
			return
		}
		s, ok := coerceString(v)
		if !ok {
			fail(notAString(locBody, name))
			return
		}
		*dst = &s
	}

	stringField("date", &body.Date, true)
	if v, ok := raw["amount"]; ok {
		if isNull(v) {
			fail(nullNotAllowed(locBody, "amount"))
		} else if f, ok := coerceFloat(v); ok {
			body.Amount = &f
		} else {
			fail(notAFloat(locBody, "amount"))
		}
	}
	stringField("category", &body.Category, true)
	stringField("subcategory", &body.Subcategory, false)
	stringField("note", &body.Note, false)

	for _, e := range structErrors(validate.Struct(body), locBody) {
		if !failed[e.Loc[len(e.Loc)-1]] {
			verrs = append(verrs, e)
		}
	}

	if len(verrs) == 0 {
		return body, nil
	}
	sortByField(verrs, createExpenseFields)
	return body, verrs
}

// ParseDateRange reads the required start_date and end_date query parameters.
func ParseDateRange(query url.Values) (core.DateRange, ValidationErrors) {
	q := dateRangeQuery{
		StartDate: lastValue(query, "start_date"),
		EndDate:   lastValue(query, "end_date"),
	}

	if verrs := structErrors(validate.Struct(q), locQuery); verrs != nil {
		sortByField(verrs, dateRangeFields)
		return core.DateRange{}, verrs
	}

	return core.DateRange{Start: *q.StartDate, End: *q.EndDate}, nil
}

// ParseSummaryFilter reads a date range plus the optional category. An
// empty category means no filter.
func ParseSummaryFilter(query url.Values) (core.SummaryFilter, ValidationErrors) {
	dr, verrs := ParseDateRange(query)
	if verrs != nil {
		return core.SummaryFilter{}, verrs
	}
	return core.SummaryFilter{Range: dr, Category: deref(lastValue(query, "category"))}, nil
}

// structErrors converts validator failures into ValidationErrors under loc.
func structErrors(err error, loc string) ValidationErrors {
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return ValidationErrors{{Loc: []string{loc}, Msg: err.Error(), Type: "value_error"}}
	}

	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			out = append(out, missingField(loc, fe.Field()))
		default:
			out = append(out, ValidationError{
				Loc:  []string{loc, fe.Field()},
				Msg:  fmt.Sprintf("failed on the '%s' rule", fe.Tag()),
				Type: "value_error." + fe.Tag(),
			})
		}
	}
	return out
}

// sortByField orders errors the way the fields are declared.
func sortByField(verrs ValidationErrors, order []string) {
	rank := make(map[string]int, len(order))
	for i, name := range order {
		rank[name] = i
	}
	sort.SliceStable(verrs, func(i, j int) bool {
		return fieldRank(verrs[i], rank) < fieldRank(verrs[j], rank)
	})
}

func fieldRank(e ValidationError, rank map[string]int) int {
	if len(e.Loc) < 2 {
		return -1
	}
	if r, ok := rank[e.Loc[1]]; ok {
		return r
	}
	return len(rank)
}

// Coercion follows pydantic v1's lax mode, which FastAPI clients of this
// API were written against: str fields take numbers and booleans in their
// Python spelling, float fields take numeric strings and booleans.

// coerceString accepts a JSON string, number or boolean.
func coerceString(v json.RawMessage) (string, bool) {
	decoded, ok := decodeScalar(v)
	if !ok {
		return "", false
	}

	switch val := decoded.(type) {
	case string:
		return val, true
	case bool:
		if val {
			return "True", true
		}
		return "False", true
	case json.Number:
		return pythonNumber(val), true
	default:
		return "", false
	}
}

// coerceFloat accepts a JSON number, a string holding one, or a boolean.
func coerceFloat(v json.RawMessage) (float64, bool) {
	decoded, ok := decodeScalar(v)
	if !ok {
		return 0, false
	}

	var f float64
	switch val := decoded.(type) {
	case json.Number:
		parsed, err := strconv.ParseFloat(val.String(), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case bool:
		if val {
			f = 1
		}
	default:
		return 0, false
	}

	// Not representable in a JSON response.
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func decodeScalar(v json.RawMessage) (any, bool) {
	dec := json.NewDecoder(bytes.NewReader(v))
	dec.UseNumber()
	var decoded any
	if err := dec.Decode(&decoded); err != nil {
		return nil, false
	}
	return decoded, true
}

// pythonNumber renders n the way Python's str() does after json.loads:
// integers keep their digits, anything with a fraction or exponent is a
// float printed in repr form (12.0, 1e-05, 1e+16).
func pythonNumber(n json.Number) string {
	text := n.String()
	if !strings.ContainsAny(text, ".eE") {
		if i, ok := new(big.Int).SetString(text, 10); ok {
			return i.String()
		}
		return text
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil && !math.IsInf(f, 0) {
		return text
	}
	return pythonFloat(f)
}

func pythonFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}

	if f != 0 {
		sci := strconv.FormatFloat(f, 'e', -1, 64)
		exp, _ := strconv.Atoi(sci[strings.LastIndexByte(sci, 'e')+1:])
		if exp < -4 || exp >= 16 {
			return sci
		}
	}

	out := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(out, ".") {
		out += ".0"
	}
	return out
}

func isNull(v json.RawMessage) bool {
	return strings.TrimSpace(string(v)) == "null"
}

// lastValue returns the last occurrence of key, or nil when it is absent.
func lastValue(query url.Values, key string) *string {
	vals, ok := query[key]
	if !ok || len(vals) == 0 {
		return nil
	}
	v := vals[len(vals)-1]
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
