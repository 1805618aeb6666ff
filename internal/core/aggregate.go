package core

import (
	"sort"
	"time"
)

type (
	// CategoryTotal is an aggregated magnitude for one category.
	CategoryTotal struct {
		Category string `json:"category"`
		Total    Money  `json:"total"`
	}

	// BudgetReport pairs a budget with spending derived from transactions in
	// the budget's month. Percent is unclamped: overspending exceeds 100.
	BudgetReport struct {
		Budget    Budget  `json:"budget"`
		Spent     Money   `json:"spent"`
		Remaining Money   `json:"remaining"`
		Percent   float64 `json:"percent"`
	}

	// GoalReport pairs a goal with its progress. DaysLeft is nil when the
	// goal carries no target date, and negative once the date has passed.
	GoalReport struct {
		Goal     Goal    `json:"goal"`
		Percent  float64 `json:"percent"`
		DaysLeft *int    `json:"days_left"`
	}

	// MonthFlow is one month of the income/expense trend. Month is the
	// YYYY-MM key; Expense is a magnitude, Income a signed (positive) sum.
	MonthFlow struct {
		Month   string `json:"month"`
		Income  Money  `json:"income"`
		Expense Money  `json:"expense"`
	}
)

// TotalBalance is the signed sum of all amounts. Expenses are stored
// negative, so income and spending offset naturally.
func TotalBalance(txs []Transaction) Money {
	var total Money
	for _, t := range txs {
		total = total.Add(t.Amount)
	}
	return total
}

// MonthlySpending sums expense amounts dated in the calendar month of now.
// The result is a signed (non-positive) sum, matching storage convention.
func MonthlySpending(txs []Transaction, now time.Time) Money {
	month := DateOf(now)
	var total Money
	for _, t := range txs {
		if t.Type == Expense && t.Date.SameMonth(month) {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// CategoryBreakdown groups transactions of the given type by category and
// sums magnitudes. Order follows first occurrence in the input.
func CategoryBreakdown(txs []Transaction, typ TransactionType) []CategoryTotal {
	index := make(map[string]int)
	out := make([]CategoryTotal, 0)
	for _, t := range txs {
		if t.Type != typ {
			continue
		}
		i, ok := index[t.Category]
		if !ok {
			i = len(out)
			index[t.Category] = i
			out = append(out, CategoryTotal{Category: t.Category})
		}
		out[i].Total = out[i].Total.Add(t.Amount.Abs())
	}
	return out
}

// SpendingByCategory is the expense breakdown ranked by magnitude,
// descending, for the spending report.
func SpendingByCategory(txs []Transaction) []CategoryTotal {
	out := CategoryBreakdown(txs, Expense)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total.Cents > out[j].Total.Cents
	})
	return out
}

// BudgetProgress derives spending against one budget: expense magnitudes for
// the budget's category within the budget's calendar month. A zero-amount
// budget reports 0 percent rather than failing on division.
func BudgetProgress(b Budget, txs []Transaction) BudgetReport {
	var spent Money
	for _, t := range txs {
		if t.Type == Expense && t.Category == b.Category && t.Date.SameMonth(b.Period) {
			spent = spent.Add(t.Amount.Abs())
		}
	}
	report := BudgetReport{
		Budget:    b,
		Spent:     spent,
		Remaining: Money{Cents: b.Amount.Cents - spent.Cents},
	}
	if b.Amount.Cents > 0 {
		report.Percent = float64(spent.Cents) / float64(b.Amount.Cents) * 100
	}
	return report
}

// BudgetProgressAll derives a report per budget, preserving budget order.
func BudgetProgressAll(budgets []Budget, txs []Transaction) []BudgetReport {
	out := make([]BudgetReport, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, BudgetProgress(b, txs))
	}
	return out
}

// GoalProgress derives goal completion as of today. Percent is unclamped; a
// zero-target goal reports 0.
func GoalProgress(g Goal, today time.Time) GoalReport {
	report := GoalReport{Goal: g}
	if g.TargetAmount.Cents > 0 {
		report.Percent = float64(g.CurrentAmount.Cents) / float64(g.TargetAmount.Cents) * 100
	}
	if g.TargetDate != nil {
		days := int(DateOf(g.TargetDate.Time).Sub(DateOf(today).Time) / (24 * time.Hour))
		report.DaysLeft = &days
	}
	return report
}

// GoalProgressAll derives a report per goal, preserving goal order.
func GoalProgressAll(goals []Goal, today time.Time) []GoalReport {
	out := make([]GoalReport, 0, len(goals))
	for _, g := range goals {
		out = append(out, GoalProgress(g, today))
	}
	return out
}

// MonthlyTrend groups transactions by calendar month, summing income as a
// signed total and expenses as magnitudes. Only months with at least one
// transaction appear; output is chronologically ascending.
func MonthlyTrend(txs []Transaction) []MonthFlow {
	index := make(map[string]int)
	out := make([]MonthFlow, 0)
	for _, t := range txs {
		key := t.Date.YearMonth()
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, MonthFlow{Month: key})
		}
		if t.Type == Income {
			out[i].Income = out[i].Income.Add(t.Amount)
		} else {
			out[i].Expense = out[i].Expense.Add(t.Amount.Abs())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Month < out[j].Month
	})
	return out
}
