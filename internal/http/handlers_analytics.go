package http

import (
	"net/http"
	"time"

	"fintrack/internal/core"
)

// handleAnalytics renders the six-month trend and the current month's
// category breakdown.
func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	st := s.store.Snapshot()
	now := time.Now()

	series := core.SixMonthSeries(st.Transactions, now)

	// Bar heights scale against the largest monthly figure.
	var maxCents int64
	for _, b := range series {
		if b.Income.Cents > maxCents {
			maxCents = b.Income.Cents
		}
		if b.Expense.Cents > maxCents {
			maxCents = b.Expense.Cents
		}
	}

	type bucket struct {
		Label         string
		Income        string
		Expense       string
		Balance       string
		IncomeHeight  int
		ExpenseHeight int
	}
	scale := func(m core.Money) int {
		if maxCents == 0 {
			return 0
		}
		h := int((m.Cents*100 + maxCents/2) / maxCents)
		if h > 0 && h < 2 {
			h = 2
		}
		if h > 100 {
			h = 100
		}
		return h
	}

	buckets := make([]bucket, 0, len(series))
	for _, b := range series {
		buckets = append(buckets, bucket{
			Label:         b.Label,
			Income:        formatTaka(b.Income),
			Expense:       formatTaka(b.Expense),
			Balance:       formatTaka(b.Balance),
			IncomeHeight:  scale(b.Income),
			ExpenseHeight: scale(b.Expense),
		})
	}

	breakdown := core.CategoryBreakdown(st.Transactions, now.Year(), now.Month())
	expense := core.PeriodTotal(st.Transactions, now.Year(), now.Month(), core.Expense)

	type slice struct {
		Category core.Category
		Amount   string
		Share    int // percent of the month's expense
	}
	slices := make([]slice, 0, len(breakdown))
	for _, c := range breakdown {
		share := 0
		if expense.Cents > 0 {
			share = int((c.Amount.Cents*100 + expense.Cents/2) / expense.Cents)
		}
		slices = append(slices, slice{
			Category: c.Category,
			Amount:   formatTaka(c.Amount),
			Share:    share,
		})
	}

	data := struct {
		page
		MonthLabel string
		Buckets    []bucket
		Slices     []slice
	}{
		page:       s.pageFor("Analytics", "analytics"),
		MonthLabel: now.Format("January 2006"),
		Buckets:    buckets,
		Slices:     slices,
	}
	s.render(w, r, "analytics.html", data)
}
