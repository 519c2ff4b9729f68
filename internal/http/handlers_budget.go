package http

import (
	"log/slog"
	"net/http"
	"strings"

	"fintrack/internal/core"
)

// handleBudget shows per-category limits against all-time spend and
// accepts limit updates.
func (s *Server) handleBudget(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderBudget(w, r)
	case http.MethodPost:
		s.updateBudget(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) renderBudget(w http.ResponseWriter, r *http.Request) {
	st := s.store.Snapshot()

	type row struct {
		Category  core.Category
		Limit     string
		LimitRaw  string
		Spent     string
		Percent   int
		Exceeded  bool
		Remaining string
		Overage   string
	}

	rows := make([]row, 0, len(st.Budgets))
	for _, b := range st.Budgets {
		spent := core.CategorySpentAllTime(st.Transactions, b.Category)
		status := core.BudgetProgress(spent, b.Limit)
		rows = append(rows, row{
			Category:  b.Category,
			Limit:     formatTaka(b.Limit),
			LimitRaw:  moneyField(b.Limit),
			Spent:     formatTaka(spent),
			Percent:   int(status.Percent),
			Exceeded:  status.Exceeded,
			Remaining: formatTaka(status.Remaining),
			Overage:   formatTaka(status.Overage),
		})
	}

	data := struct {
		page
		Rows   []row
		Notice string
	}{
		page:   s.pageFor("Budgets", "budget"),
		Rows:   rows,
		Notice: sanitizeInput(r.URL.Query().Get("notice")),
	}
	s.render(w, r, "budget.html", data)
}

func (s *Server) updateBudget(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	category := core.Category(strings.TrimSpace(r.Form.Get("category")))
	if !category.Valid() {
		http.Error(w, "unknown category", http.StatusUnprocessableEntity)
		return
	}
	cents, err := core.ParseDecimalToCents(strings.TrimSpace(r.Form.Get("limit")))
	if err != nil {
		http.Error(w, "invalid limit", http.StatusUnprocessableEntity)
		return
	}

	// Only expense categories carry a budget row; updating a category
	// without one is a store no-op and must not claim success.
	if !hasBudget(s.store.Snapshot(), category) {
		http.Redirect(w, r, "/budget?notice=No+budget+exists+for+that+category", http.StatusSeeOther)
		return
	}

	if err := s.store.UpdateBudget(r.Context(), category, core.Money{Cents: cents}); err != nil {
		slog.ErrorContext(r.Context(), "Budget update failed", "error", err, "category", string(category))
		http.Error(w, "failed to save", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/budget?notice=Budget+updated", http.StatusSeeOther)
}

func hasBudget(st core.AppState, category core.Category) bool {
	for _, b := range st.Budgets {
		if b.Category == category {
			return true
		}
	}
	return false
}
