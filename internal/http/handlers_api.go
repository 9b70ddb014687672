package http

import (
	"net/http"

	"finwise/internal/auth"
	"finwise/internal/core"
	"finwise/internal/report"
)

const createdAtLayout = "2006-01-02 15:04:05"

type transactionJSON struct {
	ID          int64      `json:"id"`
	Amount      core.Money `json:"amount"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	Date        string     `json:"date"`
	CreatedAt   string     `json:"created_at"`
}

func toTransactionJSON(t core.Transaction) transactionJSON {
	return transactionJSON{
		ID:          t.ID,
		Amount:      t.Amount,
		Category:    t.Category,
		Description: t.Description,
		Date:        t.Date.String(),
		CreatedAt:   t.CreatedAt.UTC().Format(createdAtLayout),
	}
}

// dashboardDataJSON feeds the dashboard charts. Earnings are a placeholder
// series, flagged by EarningsSynthetic.
type dashboardDataJSON struct {
	Categories        map[string]core.Money `json:"categories"`
	Months            []string              `json:"months"`
	Earnings          []core.Money          `json:"earnings"`
	Spending          []core.Money          `json:"spending"`
	Savings           []core.Money          `json:"savings"`
	EarningsSynthetic bool                  `json:"earnings_synthetic"`
}

func toDashboardDataJSON(d report.Dashboard) dashboardDataJSON {
	out := dashboardDataJSON{
		Categories: d.Categories,
		Months:     make([]string, 0, len(d.Trend)),
		Earnings:   make([]core.Money, 0, len(d.Trend)),
		Spending:   make([]core.Money, 0, len(d.Trend)),
		Savings:    make([]core.Money, 0, len(d.Trend)),
	}
	for _, p := range d.Trend {
		out.Months = append(out.Months, p.Label)
		out.Earnings = append(out.Earnings, p.Earnings)
		out.Spending = append(out.Spending, p.Spending)
		out.Savings = append(out.Savings, p.Savings)
		out.EarningsSynthetic = out.EarningsSynthetic || p.EarningsSynthetic
	}
	return out
}

func (s *Server) handleAPITransactions(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())
	txs, err := s.deps.Transactions.List(r.Context(), u.ID)
	if err != nil {
		s.failJSON(w, r, "Failed to list transactions", err)
		return
	}
	out := make([]transactionJSON, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionJSON(t))
	}
	s.writeJSON(w, r, http.StatusOK, out)
}

func (s *Server) handleAPIDashboardData(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())
	d, err := s.deps.Transactions.Dashboard(r.Context(), u.ID)
	if err != nil {
		s.failJSON(w, r, "Failed to build dashboard data", err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, toDashboardDataJSON(d))
}
