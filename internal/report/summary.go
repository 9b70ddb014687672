package report

import (
	"sort"
	"time"

	"finwise/internal/core"
)

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount core.Money
}

// Dashboard bundles the aggregates shown on the dashboard page.
type Dashboard struct {
	TotalSpent     core.Money
	RecentSpending core.Money
	Categories     map[string]core.Money
	Trend          []MonthPoint
}

// ExpenseSummary bundles the aggregates shown above the expense list.
type ExpenseSummary struct {
	TotalSpent       core.Money
	HighestExpense   core.Money
	TransactionCount int
}

// BuildDashboard computes every dashboard aggregate against now.
func BuildDashboard(txs []core.Transaction, now time.Time) Dashboard {
	return Dashboard{
		TotalSpent:     TotalSpent(txs),
		RecentSpending: RecentSpending(txs, now, RecentWindowDays),
		Categories:     CategoryBreakdown(txs),
		Trend:          MonthlyTrend(txs, now, TrendMonths),
	}
}

func SummarizeExpenses(txs []core.Transaction) ExpenseSummary {
	return ExpenseSummary{
		TotalSpent:       TotalSpent(txs),
		HighestExpense:   HighestExpense(txs),
		TransactionCount: TransactionCount(txs),
	}
}

// SortedCategories returns the breakdown largest first, ties by name, for
// display. The breakdown itself is unordered.
func SortedCategories(breakdown map[string]core.Money) []CategoryAmount {
	out := make([]CategoryAmount, 0, len(breakdown))
	for name, amount := range breakdown {
		out = append(out, CategoryAmount{Name: name, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Name < out[j].Name
	})
	return out
}
