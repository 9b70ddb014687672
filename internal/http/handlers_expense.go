package http

import (
	"bytes"
	"errors"
	"net/http"

	"finwise/internal/auth"
	"finwise/internal/core"
	"finwise/internal/export"
	"finwise/internal/log"
	"finwise/internal/report"
	"finwise/internal/services"
)

type dashboardView struct {
	report.Dashboard
	SortedCategories []report.CategoryAmount
	WindowDays       int
}

type expensesView struct {
	Transactions []core.Transaction
	Summary      report.ExpenseSummary
	Form         services.TransactionInput
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())
	d, err := s.deps.Transactions.Dashboard(r.Context(), u.ID)
	if err != nil {
		s.failPage(w, r, "Failed to build dashboard", err)
		return
	}
	s.render(w, r, "dashboard", http.StatusOK, s.newPage(r, "Dashboard", dashboardView{
		Dashboard:        d,
		SortedCategories: report.SortedCategories(d.Categories),
		WindowDays:       report.RecentWindowDays,
	}))
}

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	s.renderExpenses(w, r, http.StatusOK, services.TransactionInput{
		Date: core.DateOf(s.now()).String(),
	}, "")
}

func (s *Server) renderExpenses(w http.ResponseWriter, r *http.Request, status int, form services.TransactionInput, formErr string) {
	u, _ := auth.UserFromContext(r.Context())
	txs, summary, err := s.deps.Transactions.Overview(r.Context(), u.ID)
	if err != nil {
		s.failPage(w, r, "Failed to list transactions", err)
		return
	}
	p := s.newPage(r, "Expenses", expensesView{Transactions: txs, Summary: summary, Form: form})
	p.Error = formErr
	s.render(w, r, "expenses", status, p)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())
	body, err := ParseRequestBody(w, r)
	if err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Invalid request")
		return
	}
	in := services.TransactionInput{
		Amount:      body.Get("amount"),
		Category:    body.Get("category"),
		Description: body.Get("description"),
		Date:        body.Get("date"),
	}

	t, err := s.deps.Transactions.Create(r.Context(), u.ID, in)
	if err != nil {
		status := statusFor(err)
		if body.IsJSON() {
			s.failJSON(w, r, "Failed to create transaction", err)
			return
		}
		if status != http.StatusUnprocessableEntity {
			s.failPage(w, r, "Failed to create transaction", err)
			return
		}
		s.logFailure(r, "Transaction rejected", err, status)
		s.renderExpenses(w, r, status, in, userMessage(err, status))
		return
	}

	if body.IsJSON() {
		s.writeJSON(w, r, http.StatusCreated, toTransactionJSON(t))
		return
	}
	seeOther(w, r, withNotice("/expenses", "expense_added"))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())
	id, err := pathID(r, "id")
	if err == nil {
		err = s.deps.Transactions.Delete(r.Context(), u.ID, id)
	}
	if err != nil {
		s.failPage(w, r, "Failed to delete transaction", err)
		return
	}
	seeOther(w, r, withNotice("/expenses", "expense_deleted"))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())
	txs, err := s.deps.Transactions.List(r.Context(), u.ID)
	if err != nil {
		s.failPage(w, r, "Failed to load transactions for export", err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, txs); err != nil {
		if errors.Is(err, export.ErrNoData) {
			http.Redirect(w, r, withNotice("/expenses", "no_data"), http.StatusSeeOther)
			return
		}
		s.internalError(w, r, err)
		return
	}

	log.FromContext(r.Context()).WithComponent(log.ComponentExport).InfoContext(r.Context(), "Transactions exported",
		log.FieldOperation, log.OpExport,
		"rows", len(txs))

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+export.Filename(s.now()))
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleLearn(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "learn", http.StatusOK, s.newPage(r, "Learn", nil))
}
