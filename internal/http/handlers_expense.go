package http

import (
	"errors"
	"net/http"

	"ledger/internal/log"
)

type createExpenseResponse struct {
	Status string `json:"status"`
	ID     int64  `json:"id"`
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	e, verrs, err := ParseCreateExpense(w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeDetail(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		log.FromContext(ctx).WarnContext(ctx, "Failed to read request body", log.FieldError, err)
		writeDetail(w, http.StatusBadRequest, "Could not read request body")
		return
	}
	if verrs != nil {
		writeValidationErrors(w, verrs)
		return
	}

	id, err := s.ledger.CreateExpense(ctx, e)
	if err != nil {
		s.databaseError(w, r, log.OpCreate, err)
		return
	}

	e.ID = id
	log.FromContext(ctx).InfoContext(ctx, "Expense created", log.NewFields().WithExpense(e).ToSlice()...)

	writeJSON(w, http.StatusOK, createExpenseResponse{Status: "ok", ID: id})
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dr, verrs := ParseDateRange(r.URL.Query())
	if verrs != nil {
		writeValidationErrors(w, verrs)
		return
	}

	items, err := s.ledger.ListExpenses(ctx, dr)
	if err != nil {
		s.databaseError(w, r, log.OpList, err)
		return
	}

	log.FromContext(ctx).DebugContext(ctx, "Listed expenses",
		append(log.NewFields().WithRange(dr).ToSlice(), log.FieldCount, len(items))...)

	writeJSON(w, http.StatusOK, emptyIfNil(items))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter, verrs := ParseSummaryFilter(r.URL.Query())
	if verrs != nil {
		writeValidationErrors(w, verrs)
		return
	}

	totals, err := s.ledger.SummarizeExpenses(ctx, filter)
	if err != nil {
		s.databaseError(w, r, log.OpSummarize, err)
		return
	}

	writeJSON(w, http.StatusOK, emptyIfNil(totals))
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.ledger.ListCategories(r.Context())
	if err != nil {
		s.databaseError(w, r, log.OpTaxonomy, err)
		return
	}

	writeJSON(w, http.StatusOK, emptyIfNil(cats))
}

// databaseError logs a storage failure and renders it as a 500 carrying
// the error text.
func (s *Server) databaseError(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	log.FromContext(ctx).ErrorContext(ctx, "Storage operation failed",
		log.NewFields().WithOperation(op).WithError(err).ToSlice()...)

	writeDetail(w, http.StatusInternalServerError, "Database error: "+err.Error())
}
