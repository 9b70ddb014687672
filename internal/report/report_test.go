package report

import (
	"testing"
	"time"

	"finwise/internal/core"
)

func tx(amount int64, category string, date core.Date) core.Transaction {
	return core.Transaction{UserID: 1, Amount: core.Units(amount), Category: category, Description: "x", Date: date}
}

func TestTotalSpent(t *testing.T) {
	txs := []core.Transaction{
		tx(10, "food", core.NewDate(2024, 1, 1)),
		tx(5, "food", core.NewDate(2024, 1, 2)),
		{Amount: core.Money{Cents: 250}, Category: "gas", Date: core.NewDate(2024, 1, 3)},
	}
	if got := TotalSpent(txs); got.Cents != 1750 {
		t.Fatalf("TotalSpent = %d, want 1750", got.Cents)
	}
	if got := TotalSpent(nil); !got.IsZero() {
		t.Fatalf("TotalSpent(nil) = %v, want 0", got)
	}
}

func TestRecentSpendingWindow(t *testing.T) {
	now := time.Date(2024, 3, 31, 15, 30, 0, 0, time.UTC)
	today := core.DateOf(now)

	tests := []struct {
		name string
		date core.Date
		want int64
	}{
		{"today", today, 1000},
		{"29 days ago", today.AddDays(-29), 1000},
		{"exactly 30 days ago is inclusive", today.AddDays(-30), 1000},
		{"31 days ago is excluded", today.AddDays(-31), 0},
		{"future date counts", today.AddDays(2), 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RecentSpending([]core.Transaction{tx(10, "food", tt.date)}, now, RecentWindowDays)
			if got.Cents != tt.want {
				t.Fatalf("RecentSpending = %d, want %d", got.Cents, tt.want)
			}
		})
	}
}

func TestRecentSpendingIgnoresTimeOfDay(t *testing.T) {
	early := time.Date(2024, 3, 31, 0, 0, 1, 0, time.UTC)
	late := time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC)
	txs := []core.Transaction{tx(7, "gas", core.NewDate(2024, 3, 1))}

	if a, b := RecentSpending(txs, early, 30), RecentSpending(txs, late, 30); a != b {
		t.Fatalf("time of day changed result: %v vs %v", a, b)
	}
}

func TestCategoryBreakdown(t *testing.T) {
	d := core.NewDate(2024, 2, 1)
	txs := []core.Transaction{tx(10, "food", d), tx(5, "food", d), tx(7, "gas", d)}

	got := CategoryBreakdown(txs)
	if len(got) != 2 {
		t.Fatalf("expected 2 categories, got %v", got)
	}
	if got["food"] != core.Units(15) {
		t.Errorf("food = %v, want 15.00", got["food"])
	}
	if got["gas"] != core.Units(7) {
		t.Errorf("gas = %v, want 7.00", got["gas"])
	}
}

func TestCategoryBreakdownKeysAreExact(t *testing.T) {
	d := core.NewDate(2024, 2, 1)
	got := CategoryBreakdown([]core.Transaction{tx(1, "Food", d), tx(2, "food", d), tx(3, "food ", d)})
	if len(got) != 3 {
		t.Fatalf("categories differing by case or whitespace must stay distinct, got %v", got)
	}
	if len(CategoryBreakdown(nil)) != 0 {
		t.Fatal("empty input should give empty breakdown")
	}
}

func TestMonthlyTrend(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	txs := []core.Transaction{
		tx(40, "food", core.NewDate(2024, 3, 2)),
		tx(10, "food", core.NewDate(2024, 3, 31)),
		tx(20, "gas", core.NewDate(2024, 1, 20)),
		tx(99, "gas", core.NewDate(2023, 3, 10)),  // same month, wrong year
		tx(50, "rent", core.NewDate(2023, 9, 30)), // outside the window
	}

	points := MonthlyTrend(txs, now, TrendMonths)
	if len(points) != 6 {
		t.Fatalf("expected 6 points, got %d", len(points))
	}

	wantLabels := []string{"Oct", "Nov", "Dec", "Jan", "Feb", "Mar"}
	for i, p := range points {
		if p.Label != wantLabels[i] {
			t.Errorf("point %d label = %q, want %q", i, p.Label, wantLabels[i])
		}
		if !p.EarningsSynthetic {
			t.Errorf("point %d must be marked synthetic", i)
		}
		offset := int64(len(points) - 1 - i)
		wantEarnings := p.Spending.Cents + (1000+offset*100)*100
		if p.Earnings.Cents != wantEarnings {
			t.Errorf("point %d earnings = %d, want %d", i, p.Earnings.Cents, wantEarnings)
		}
		if p.Savings != p.Earnings.Sub(p.Spending) {
			t.Errorf("point %d savings = %v", i, p.Savings)
		}
	}

	if points[5].Spending != core.Units(50) {
		t.Errorf("March spending = %v, want 50.00", points[5].Spending)
	}
	if points[3].Spending != core.Units(20) {
		t.Errorf("January spending = %v, want 20.00", points[3].Spending)
	}
	if points[0].Year != 2023 || points[0].Month != time.October {
		t.Errorf("oldest point = %d-%v, want 2023-October", points[0].Year, points[0].Month)
	}
}

func TestMonthlyTrendEndOfMonth(t *testing.T) {
	// Day 31 must not roll a previous month over into the next one.
	now := time.Date(2024, 5, 31, 9, 0, 0, 0, time.UTC)
	points := MonthlyTrend(nil, now, 6)
	want := []string{"Dec", "Jan", "Feb", "Mar", "Apr", "May"}
	for i, p := range points {
		if p.Label != want[i] {
			t.Fatalf("labels = %v, want %v", labels(points), want)
		}
		if !p.Spending.IsZero() {
			t.Fatalf("empty input gave spending %v", p.Spending)
		}
	}
}

func labels(points []MonthPoint) []string {
	out := make([]string, len(points))
	for i, p := range points {
		out[i] = p.Label
	}
	return out
}

func TestHighestExpenseAndCount(t *testing.T) {
	d := core.NewDate(2024, 1, 1)
	txs := []core.Transaction{tx(3, "a", d), tx(12, "b", d), tx(8, "c", d)}
	if got := HighestExpense(txs); got != core.Units(12) {
		t.Fatalf("HighestExpense = %v", got)
	}
	if got := HighestExpense(nil); !got.IsZero() {
		t.Fatalf("HighestExpense(nil) = %v", got)
	}
	if TransactionCount(txs) != 3 || TransactionCount(nil) != 0 {
		t.Fatal("TransactionCount mismatch")
	}
}

func TestBuildDashboardEmpty(t *testing.T) {
	d := BuildDashboard(nil, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	if !d.TotalSpent.IsZero() || !d.RecentSpending.IsZero() {
		t.Fatalf("expected zero totals, got %+v", d)
	}
	if len(d.Categories) != 0 {
		t.Fatalf("expected no categories, got %v", d.Categories)
	}
	if len(d.Trend) != TrendMonths {
		t.Fatalf("trend length = %d", len(d.Trend))
	}
}

func TestSortedCategories(t *testing.T) {
	got := SortedCategories(map[string]core.Money{
		"gas":  core.Units(7),
		"food": core.Units(15),
		"bus":  core.Units(7),
	})
	want := []string{"food", "bus", "gas"}
	for i, c := range got {
		if c.Name != want[i] {
			t.Fatalf("order = %+v, want %v", got, want)
		}
	}
}

func TestSummarizeExpenses(t *testing.T) {
	d := core.NewDate(2024, 1, 1)
	s := SummarizeExpenses([]core.Transaction{tx(4, "a", d), tx(6, "b", d)})
	if s.TotalSpent != core.Units(10) || s.HighestExpense != core.Units(6) || s.TransactionCount != 2 {
		t.Fatalf("summary = %+v", s)
	}
}
