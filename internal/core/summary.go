package core

import "time"

type (
	// CategoryAmount is an expense sum for one category within a period.
	CategoryAmount struct {
		Category Category
		Amount   Money
	}

	// BudgetStatus is the progress of one category budget: a percent
	// clamped at 100 for display, plus the raw remaining/overage values.
	BudgetStatus struct {
		Spent     Money
		Limit     Money
		Percent   float64 // min(100, spent/limit*100)
		Exceeded  bool    // spent > limit
		Remaining Money   // limit - spent when not exceeded
		Overage   Money   // spent - limit when exceeded
	}

	// MonthBucket is one entry of the six-month trailing series.
	MonthBucket struct {
		Label   string // short month name, e.g. "Aug"
		Year    int
		Month   time.Month
		Income  Money
		Expense Money
		Balance Money
	}

	// BudgetRow pairs a budget with its in-period status.
	BudgetRow struct {
		Budget Budget
		Status BudgetStatus
	}

	// GoalRow pairs a goal with its completion percent.
	GoalRow struct {
		Goal    Goal
		Percent float64
	}

	// Report is the aggregate for one calendar month, consumed by the
	// dashboard, the printable statement and the advice prompt.
	Report struct {
		Year        int
		Month       time.Month
		Income      Money
		Expense     Money
		Balance     Money
		SavingsRate float64
		ByCategory  []CategoryAmount
		Budgets     []BudgetRow
		Goals       []GoalRow
	}
)

// PeriodTotal sums the amounts of transactions of the given type whose
// date falls in the given calendar year and month.
func PeriodTotal(ts []Transaction, year int, month time.Month, typ TransactionType) Money {
	var sum Money
	for _, tx := range ts {
		if tx.Type == typ && tx.Date.InPeriod(year, month) {
			sum = sum.Add(tx.Amount)
		}
	}
	return sum
}

// Balance is income minus expense.
func Balance(income, expense Money) Money {
	return income.Sub(expense)
}

// SavingsRate is (income-expense)/income as a percentage, 0 when income
// is zero.
func SavingsRate(income, expense Money) float64 {
	if income.Cents == 0 {
		return 0
	}
	return float64(income.Cents-expense.Cents) / float64(income.Cents) * 100
}

// CategoryBreakdown returns the per-category expense sums for the period
// in canonical category order. Categories with a zero sum are excluded
// from the result, not from the domain.
func CategoryBreakdown(ts []Transaction, year int, month time.Month) []CategoryAmount {
	var out []CategoryAmount
	for _, cat := range Categories() {
		var sum Money
		for _, tx := range ts {
			if tx.Type == Expense && tx.Category == cat && tx.Date.InPeriod(year, month) {
				sum = sum.Add(tx.Amount)
			}
		}
		if sum.Cents > 0 {
			out = append(out, CategoryAmount{Category: cat, Amount: sum})
		}
	}
	return out
}

// BudgetProgress computes budget usage. The percent is clamped at 100;
// the raw overage stays computable from Spent and Limit.
func BudgetProgress(spent, limit Money) BudgetStatus {
	st := BudgetStatus{Spent: spent, Limit: limit}
	if limit.Cents > 0 {
		p := float64(spent.Cents) / float64(limit.Cents) * 100
		if p > 100 {
			p = 100
		}
		st.Percent = p
	} else if spent.Cents > 0 {
		st.Percent = 100
	}
	if spent.Cents > limit.Cents {
		st.Exceeded = true
		st.Overage = spent.Sub(limit)
	} else {
		st.Remaining = limit.Sub(spent)
	}
	return st
}

// GoalProgress is current/target as a percentage, unclamped: the display
// layer clamps the visual bar, the formula does not.
func GoalProgress(current, target Money) float64 {
	if target.Cents == 0 {
		return 0
	}
	return float64(current.Cents) / float64(target.Cents) * 100
}

// SixMonthSeries returns exactly six trailing calendar-month buckets
// ending at asOf's month, oldest first.
func SixMonthSeries(ts []Transaction, asOf time.Time) []MonthBucket {
	buckets := make([]MonthBucket, 0, 6)
	for i := 5; i >= 0; i-- {
		d := time.Date(asOf.Year(), asOf.Month()-time.Month(i), 1, 0, 0, 0, 0, time.UTC)
		income := PeriodTotal(ts, d.Year(), d.Month(), Income)
		expense := PeriodTotal(ts, d.Year(), d.Month(), Expense)
		buckets = append(buckets, MonthBucket{
			Label:   d.Month().String()[:3],
			Year:    d.Year(),
			Month:   d.Month(),
			Income:  income,
			Expense: expense,
			Balance: Balance(income, expense),
		})
	}
	return buckets
}

// MonthReport assembles the full aggregate for one calendar month.
func MonthReport(s AppState, year int, month time.Month) Report {
	income := PeriodTotal(s.Transactions, year, month, Income)
	expense := PeriodTotal(s.Transactions, year, month, Expense)

	r := Report{
		Year:        year,
		Month:       month,
		Income:      income,
		Expense:     expense,
		Balance:     Balance(income, expense),
		SavingsRate: SavingsRate(income, expense),
		ByCategory:  CategoryBreakdown(s.Transactions, year, month),
	}
	for _, b := range s.Budgets {
		spent := categorySpent(s.Transactions, b.Category, year, month)
		r.Budgets = append(r.Budgets, BudgetRow{Budget: b, Status: BudgetProgress(spent, b.Limit)})
	}
	for _, g := range s.Goals {
		r.Goals = append(r.Goals, GoalRow{Goal: g, Percent: GoalProgress(g.CurrentAmount, g.TargetAmount)})
	}
	return r
}

func categorySpent(ts []Transaction, cat Category, year int, month time.Month) Money {
	var sum Money
	for _, tx := range ts {
		if tx.Type == Expense && tx.Category == cat && tx.Date.InPeriod(year, month) {
			sum = sum.Add(tx.Amount)
		}
	}
	return sum
}

// CategorySpentAllTime sums expenses for a category across all periods,
// the figure the budget screen tracks against its limits.
func CategorySpentAllTime(ts []Transaction, cat Category) Money {
	var sum Money
	for _, tx := range ts {
		if tx.Type == Expense && tx.Category == cat {
			sum = sum.Add(tx.Amount)
		}
	}
	return sum
}
