package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"fintrack/internal/core"
)

type txRow struct {
	ID       string
	Type     core.TransactionType
	Category core.Category
	Date     string
	Note     string
	Amount   string
	Expense  bool
}

func newTxRow(tx core.Transaction) txRow {
	return txRow{
		ID:       tx.ID,
		Type:     tx.Type,
		Category: tx.Category,
		Date:     tx.Date.Format("02 Jan 2006"),
		Note:     tx.Note,
		Amount:   formatTaka(tx.Amount),
		Expense:  tx.Type == core.Expense,
	}
}

// handleDashboard renders the month overview with a prev/next navigator.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	year, month := parseYearMonth(r)
	st := s.store.Snapshot()
	report := core.MonthReport(st, year, month)

	// Most recent five transactions regardless of period; the list is
	// newest-first already.
	recent := make([]txRow, 0, 5)
	for _, tx := range st.Transactions {
		if len(recent) == 5 {
			break
		}
		recent = append(recent, newTxRow(tx))
	}

	py, pm := prevMonth(year, month)
	ny, nm := nextMonth(year, month)

	data := struct {
		page
		MonthLabel  string
		Income      string
		Expense     string
		Balance     string
		SavingsRate string
		Recent      []txRow
		PrevURL     string
		NextURL     string
	}{
		page:        s.pageFor("Dashboard", "dashboard"),
		MonthLabel:  fmt.Sprintf("%s %d", month, year),
		Income:      formatTaka(report.Income),
		Expense:     formatTaka(report.Expense),
		Balance:     formatTaka(report.Balance),
		SavingsRate: fmt.Sprintf("%.1f%%", report.SavingsRate),
		Recent:      recent,
		PrevURL:     fmt.Sprintf("/?year=%d&month=%d", py, int(pm)),
		NextURL:     fmt.Sprintf("/?year=%d&month=%d", ny, int(nm)),
	}

	slog.DebugContext(r.Context(), "Dashboard rendered",
		"year", year, "month", int(month),
		"income_cents", report.Income.Cents,
		"expense_cents", report.Expense.Cents)

	s.render(w, r, "dashboard.html", data)
}

// handleReport renders the printable monthly statement.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r)
	st := s.store.Snapshot()
	report := core.MonthReport(st, year, month)

	type catRow struct {
		Category core.Category
		Amount   string
	}
	type budgetLine struct {
		Category core.Category
		Spent    string
		Limit    string
		Exceeded bool
	}

	data := struct {
		page
		MonthLabel  string
		GeneratedAt string
		Income      string
		Expense     string
		Balance     string
		SavingsRate string
		ByCategory  []catRow
		Budgets     []budgetLine
		Goals       []goalRow
	}{
		page:        s.pageFor("Monthly Statement", "settings"),
		MonthLabel:  fmt.Sprintf("%s %d", month, year),
		GeneratedAt: time.Now().Format("02 Jan 2006 15:04"),
		Income:      formatTaka(report.Income),
		Expense:     formatTaka(report.Expense),
		Balance:     formatTaka(report.Balance),
		SavingsRate: fmt.Sprintf("%.1f%%", report.SavingsRate),
	}
	for _, c := range report.ByCategory {
		data.ByCategory = append(data.ByCategory, catRow{Category: c.Category, Amount: formatTaka(c.Amount)})
	}
	for _, b := range report.Budgets {
		data.Budgets = append(data.Budgets, budgetLine{
			Category: b.Budget.Category,
			Spent:    formatTaka(b.Status.Spent),
			Limit:    formatTaka(b.Budget.Limit),
			Exceeded: b.Status.Exceeded,
		})
	}
	for _, g := range report.Goals {
		data.Goals = append(data.Goals, newGoalRow(g))
	}

	s.render(w, r, "report.html", data)
}
