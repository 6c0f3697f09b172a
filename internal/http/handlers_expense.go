package http

import (
	"errors"
	"fmt"
	"net/http"

	"expensetracker/internal/analytics"
	"expensetracker/internal/core"
	"expensetracker/internal/log"
	"expensetracker/internal/services"
)

// ExportFilename is the attachment name of the CSV download.
const ExportFilename = "expenses_export.csv"

func (s *Server) handleNewExpense(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "expense_new.html", "", newExpenseView{
		page:       page{Title: "Add Expense", Active: "add"},
		Today:      s.today().String(),
		Categories: core.Categories,
	})
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		logger.WarnContext(ctx, "Parse body error", log.FieldError, err, log.FieldOperation, log.OpCreate)
		BadRequestError("Invalid request format").Write(w)
		return
	}

	e, err := ParseExpenseInput(p, s.today())
	if err == nil {
		var id int64
		id, err = s.expenses.AddExpense(ctx, e)
		if err == nil {
			msg := fmt.Sprintf("Expense #%d saved: %s (%s, %s)", id, e.Amount.Display(), e.Category, e.Date)
			SuccessResponse(msg).
				TriggerExpenseCreated(id, e.Date.String()).
				TriggerFormReset().
				TriggerSuccessNotification(msg).
				Write(w)
			return
		}
	}

	if services.IsValidation(err) {
		logger.InfoContext(ctx, "Expense rejected",
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypeValidation,
			log.FieldOperation, log.OpValidate)
		UnprocessableEntityError(validationMessage(err)).Write(w)
		return
	}

	log.LogError(ctx, logger, "Failed to save expense", err, log.ErrorTypeDatabase, log.OpCreate)
	InternalServerError("Error saving expense").Write(w)
}

// validationMessage turns a validation error into the text shown under the form.
func validationMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		return "Amount must be a positive number"
	case errors.Is(err, core.ErrInvalidDate):
		return "Date must be a valid YYYY-MM-DD day"
	case errors.Is(err, core.ErrEmptyCategory):
		return "Please choose a category"
	case errors.Is(err, core.ErrUnknownCategory):
		return "Unknown category"
	case errors.Is(err, core.ErrNotesTooLong):
		return "Notes are too long (max 500 characters)"
	default:
		return err.Error()
	}
}

// filteredExpenses fetches every record and applies the View & Export filter.
func (s *Server) filteredExpenses(w http.ResponseWriter, r *http.Request) (all, view []core.Expense, f analytics.Filter, ok bool) {
	ctx := r.Context()

	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return nil, nil, f, false
	}

	all, err = s.expenses.FetchAll(ctx)
	if err != nil {
		log.LogError(ctx, log.FromContext(ctx), "Failed to load expenses", err, log.ErrorTypeDatabase, log.OpList)
		InternalServerError("Error loading expenses").Write(w)
		return nil, nil, f, false
	}
	return all, analytics.ComputeView(all, f), f, true
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	all, records, f, ok := s.filteredExpenses(w, r)
	if !ok {
		return
	}

	view := expensesView{
		page:       page{Title: "View & Export", Active: "expenses"},
		Search:     f.Search,
		Categories: categoryOptions(analytics.PresentCategories(all), f.Categories),
		Records:    records,
		Total:      analytics.Sum(records),
		ExportURL:  exportURL(f),
		Empty:      len(all) == 0,
	}
	view.Start, view.End = f.Start.String(), f.End.String()
	if first, last, hasData := analytics.Bounds(all); hasData {
		if f.Start.IsZero() {
			view.Start = first.String()
		}
		if f.End.IsZero() {
			view.End = last.String()
		}
	}

	log.FromContext(r.Context()).DebugContext(r.Context(), "Expenses listed",
		log.FieldOperation, log.OpList,
		log.FieldRecords, len(records))

	if isHTMX(r) {
		s.render(w, r, "expenses.html", "expenses-results", view)
		return
	}
	s.render(w, r, "expenses.html", "", view)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	_, records, _, ok := s.filteredExpenses(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+ExportFilename+`"`)
	if err := analytics.WriteCSV(w, records); err != nil {
		log.LogError(r.Context(), log.FromContext(r.Context()), "Failed to write CSV export", err, log.ErrorTypeInternal, log.OpExport)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Expenses exported",
		log.FieldOperation, log.OpExport,
		log.FieldRecords, len(records))
}
