package google

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"ledger/internal/core"
	ports "ledger/internal/sheets"
)

// Ensure interface conformance
var _ ports.RowAppender = (*Mirror)(nil)

var errMissingCredentials = errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")

// Config selects the target sheet and the service account used to reach it.
type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
}

// Mirror appends expenses to a Google Sheet, one row per expense.
type Mirror struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// New creates a Mirror authenticated with the configured service account.
// Inline JSON wins over a credentials file.
func New(ctx context.Context, cfg Config) (*Mirror, error) {
	var creds goption.ClientOption
	switch {
	case strings.TrimSpace(cfg.ServiceAccountJSON) != "":
		creds = goption.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON))
	case strings.TrimSpace(cfg.ServiceAccountFile) != "":
		creds = goption.WithCredentialsFile(cfg.ServiceAccountFile)
	default:
		return nil, errMissingCredentials
	}

	return newMirror(ctx, cfg, creds, goption.WithScopes(gsheet.SpreadsheetsScope))
}

func newMirror(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Mirror, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheetName := strings.TrimSpace(cfg.SheetName)
	if sheetName == "" {
		sheetName = "Expenses"
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Mirror{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// AppendExpense adds e after the last row of the sheet. Values are entered
// as if typed by a user so dates and amounts get the sheet's formatting.
func (m *Mirror) AppendExpense(ctx context.Context, e core.Expense) error {
	if m.svc == nil {
		return errors.New("sheets service not initialized")
	}

	rng := sheetRange(m.sheetName, "A:F")
	vr := &gsheet.ValueRange{Values: [][]any{expenseRow(e)}}

	_, err := m.svc.Spreadsheets.Values.Append(m.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append expense %d to %s: %w", e.ID, m.sheetName, err)
	}
	return nil
}

// expenseRow lays out an expense as columns A..F.
func expenseRow(e core.Expense) []any {
	return []any{e.ID, e.Date, e.Amount, e.Category, e.Subcategory, e.Note}
}

// sheetRange builds an A1 range, quoting sheet names that need it.
func sheetRange(sheet, cells string) string {
	if strings.IndexFunc(sheet, func(r rune) bool {
		return !(r == '_' || r >= '0' && r <= '9' || r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z')
	}) >= 0 {
		sheet = "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
	}
	return sheet + "!" + cells
}
