// Package report computes read-only spending summaries from a user's
// transactions. Every function is pure: it depends only on its arguments and
// never touches storage.
package report

import (
	"time"

	"finwise/internal/core"
)

const (
	// RecentWindowDays is the rolling window used for "spent this month".
	RecentWindowDays = 30
	// TrendMonths is the number of calendar months in the dashboard trend.
	TrendMonths = 6
)

// Placeholder earnings. No income source exists; these constants only feed
// the synthetic earnings series and must never be read as real income.
var (
	placeholderEarningsBase = core.Units(1000)
	placeholderEarningsStep = core.Units(100)
)

// MonthPoint is one calendar month of the trend series.
type MonthPoint struct {
	Year     int
	Month    time.Month
	Label    string
	Spending core.Money
	// Earnings is fabricated: spending plus a fixed placeholder offset.
	Earnings core.Money
	Savings  core.Money
	// EarningsSynthetic is always true; it travels with the value so callers
	// cannot mistake it for real income.
	EarningsSynthetic bool
}

// TotalSpent sums every transaction amount.
func TotalSpent(txs []core.Transaction) core.Money {
	var total core.Money
	for _, t := range txs {
		total = total.Add(t.Amount)
	}
	return total
}

// RecentSpending sums transactions dated on or after now minus windowDays.
// Comparison is by calendar date in now's location; time-of-day is ignored.
func RecentSpending(txs []core.Transaction, now time.Time, windowDays int) core.Money {
	cutoff := core.DateOf(now).AddDays(-windowDays)
	var total core.Money
	for _, t := range txs {
		if t.Date.OnOrAfter(cutoff) {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// CategoryBreakdown groups amounts by the raw category string.
func CategoryBreakdown(txs []core.Transaction) map[string]core.Money {
	out := make(map[string]core.Money)
	for _, t := range txs {
		out[t.Category] = out[t.Category].Add(t.Amount)
	}
	return out
}

// MonthlyTrend returns one point per calendar month for the months ending at
// the month containing now, oldest first.
func MonthlyTrend(txs []core.Transaction, now time.Time, months int) []MonthPoint {
	if months <= 0 {
		return []MonthPoint{}
	}
	y, m, _ := now.Date()
	current := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)

	points := make([]MonthPoint, 0, months)
	for offset := months - 1; offset >= 0; offset-- {
		start := current.AddDate(0, -offset, 0)
		var spending core.Money
		for _, t := range txs {
			if t.Date.SameMonth(start.Year(), start.Month()) {
				spending = spending.Add(t.Amount)
			}
		}
		earnings := placeholderEarnings(spending, offset)
		points = append(points, MonthPoint{
			Year:              start.Year(),
			Month:             start.Month(),
			Label:             start.Format("Jan"),
			Spending:          spending,
			Earnings:          earnings,
			Savings:           earnings.Sub(spending),
			EarningsSynthetic: true,
		})
	}
	return points
}

// placeholderEarnings is spending + (1000 + offset*100) currency units.
func placeholderEarnings(spending core.Money, offset int) core.Money {
	bump := core.Money{Cents: placeholderEarningsBase.Cents + int64(offset)*placeholderEarningsStep.Cents}
	return spending.Add(bump)
}

// HighestExpense returns the largest amount, or zero when txs is empty.
func HighestExpense(txs []core.Transaction) core.Money {
	var highest core.Money
	for i, t := range txs {
		if i == 0 || t.Amount.Cents > highest.Cents {
			highest = t.Amount
		}
	}
	return highest
}

func TransactionCount(txs []core.Transaction) int {
	return len(txs)
}
