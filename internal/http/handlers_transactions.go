package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fintrack/internal/core"
)

// handleTransactions lists transactions and accepts new ones.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		s.renderTransactions(w, r, sanitizeInput(q.Get("notice")), sanitizeInput(q.Get("warning")))
	case http.MethodPost:
		s.createTransaction(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) renderTransactions(w http.ResponseWriter, r *http.Request, notice, warning string) {
	st := s.store.Snapshot()

	rows := make([]txRow, 0, len(st.Transactions))
	for _, tx := range st.Transactions {
		rows = append(rows, newTxRow(tx))
	}

	data := struct {
		page
		Rows              []txRow
		ExpenseCategories []core.Category
		IncomeCategories  []core.Category
		Today             string
		Notice            string
		Warning           string
	}{
		page:              s.pageFor("Transactions", "transactions"),
		Rows:              rows,
		ExpenseCategories: core.ExpenseCategories(),
		IncomeCategories:  core.IncomeCategories(),
		Today:             time.Now().Format("2006-01-02"),
		Notice:            notice,
		Warning:           warning,
	}
	s.render(w, r, "transactions.html", data)
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err, "url", r.URL.Path)
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	cents, err := core.ParseDecimalToCents(strings.TrimSpace(r.Form.Get("amount")))
	if err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		s.renderError(w, r, "transactions.html", "Invalid amount")
		return
	}
	date, err := core.ParseDate(strings.TrimSpace(r.Form.Get("date")))
	if err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		s.renderError(w, r, "transactions.html", "Invalid date")
		return
	}

	tx := core.Transaction{
		Type:     core.TransactionType(r.Form.Get("type")),
		Amount:   core.Money{Cents: cents},
		Category: core.Category(r.Form.Get("category")),
		Date:     date,
		Note:     sanitizeInput(r.Form.Get("note")),
	}
	if err := tx.Validate(); err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		s.renderError(w, r, "transactions.html", "Invalid transaction: "+err.Error())
		return
	}

	created, err := s.store.AddTransaction(r.Context(), tx)
	if err != nil {
		slog.ErrorContext(r.Context(), "Transaction create failed", "error", err)
		http.Error(w, "failed to save", http.StatusInternalServerError)
		return
	}

	// Warn when an expense pushes its category over budget this month.
	warning := ""
	if created.Type == core.Expense {
		st := s.store.Snapshot()
		for _, b := range st.Budgets {
			if b.Category != created.Category {
				continue
			}
			spent := core.PeriodTotal(filterCategory(st.Transactions, created.Category), created.Date.Year(), created.Date.Month(), core.Expense)
			if status := core.BudgetProgress(spent, b.Limit); status.Exceeded {
				warning = string(created.Category) + " is over budget by " + formatTaka(status.Overage) + " this month."
			}
		}
	}

	http.Redirect(w, r, transactionsURL("Transaction added", warning), http.StatusSeeOther)
}

// handleDeleteTransaction removes one transaction by id.
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	id := strings.TrimSpace(r.Form.Get("id"))
	if id == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}

	if err := s.store.DeleteTransaction(r.Context(), id); err != nil {
		slog.ErrorContext(r.Context(), "Transaction delete failed", "error", err, "transaction_id", id)
		http.Error(w, "failed to delete", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, transactionsURL("Transaction deleted", ""), http.StatusSeeOther)
}

// renderError re-renders a screen with an error notice.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, name, msg string) {
	switch name {
	case "transactions.html":
		s.renderTransactions(w, r, "", msg)
	default:
		_, _ = w.Write([]byte(`<div class="error">` + msg + `</div>`))
	}
}

func transactionsURL(notice, warning string) string {
	v := url.Values{}
	if notice != "" {
		v.Set("notice", notice)
	}
	if warning != "" {
		v.Set("warning", warning)
	}
	if len(v) == 0 {
		return "/transactions"
	}
	return "/transactions?" + v.Encode()
}

func filterCategory(ts []core.Transaction, cat core.Category) []core.Transaction {
	out := make([]core.Transaction, 0, len(ts))
	for _, tx := range ts {
		if tx.Category == cat {
			out = append(out, tx)
		}
	}
	return out
}
