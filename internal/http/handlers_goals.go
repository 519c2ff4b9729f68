package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"fintrack/internal/core"
)

type goalRow struct {
	ID      string
	Name    string
	Current string
	Target  string
	Percent string
	Width   int
	Done    bool
}

func newGoalRow(row core.GoalRow) goalRow {
	width := int(row.Percent)
	if width > 100 {
		width = 100
	}
	return goalRow{
		ID:      row.Goal.ID,
		Name:    row.Goal.Name,
		Current: formatTaka(row.Goal.CurrentAmount),
		Target:  formatTaka(row.Goal.TargetAmount),
		Percent: fmt.Sprintf("%.0f%%", row.Percent),
		Width:   width,
		Done:    row.Goal.CurrentAmount.Cents >= row.Goal.TargetAmount.Cents,
	}
}

// handleGoals lists savings goals and accepts new ones.
func (s *Server) handleGoals(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderGoals(w, r)
	case http.MethodPost:
		s.createGoal(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) renderGoals(w http.ResponseWriter, r *http.Request) {
	st := s.store.Snapshot()

	rows := make([]goalRow, 0, len(st.Goals))
	for _, g := range st.Goals {
		rows = append(rows, newGoalRow(core.GoalRow{
			Goal:    g,
			Percent: core.GoalProgress(g.CurrentAmount, g.TargetAmount),
		}))
	}

	data := struct {
		page
		Rows   []goalRow
		Notice string
	}{
		page:   s.pageFor("Savings Goals", "goals"),
		Rows:   rows,
		Notice: sanitizeInput(r.URL.Query().Get("notice")),
	}
	s.render(w, r, "goals.html", data)
}

func (s *Server) createGoal(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	cents, err := core.ParseDecimalToCents(strings.TrimSpace(r.Form.Get("target")))
	if err != nil {
		http.Error(w, "invalid target amount", http.StatusUnprocessableEntity)
		return
	}
	g := core.Goal{
		Name:         sanitizeInput(r.Form.Get("name")),
		TargetAmount: core.Money{Cents: cents},
	}
	if err := g.Validate(); err != nil {
		http.Error(w, "invalid goal: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	created, err := s.store.AddGoal(r.Context(), g)
	if err != nil {
		slog.ErrorContext(r.Context(), "Goal create failed", "error", err)
		http.Error(w, "failed to save", http.StatusInternalServerError)
		return
	}
	slog.InfoContext(r.Context(), "Goal created", "goal_id", created.ID)
	http.Redirect(w, r, "/goals?notice=Goal+added", http.StatusSeeOther)
}

// handleGoalProgress adds saved money to a goal. Progress through this
// path caps at the target; an import can still carry a goal beyond it.
func (s *Server) handleGoalProgress(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	id := strings.TrimSpace(r.Form.Get("id"))
	cents, err := core.ParseDecimalToCents(strings.TrimSpace(r.Form.Get("amount")))
	if err != nil || id == "" {
		http.Error(w, "invalid progress", http.StatusUnprocessableEntity)
		return
	}

	var updated core.Money
	found := false
	for _, g := range s.store.Snapshot().Goals {
		if g.ID != id {
			continue
		}
		found = true
		updated = g.CurrentAmount.Add(core.Money{Cents: cents})
		if updated.Cents > g.TargetAmount.Cents {
			updated = g.TargetAmount
		}
	}
	if !found {
		http.NotFound(w, r)
		return
	}

	if err := s.store.UpdateGoal(r.Context(), id, updated); err != nil {
		slog.ErrorContext(r.Context(), "Goal progress failed", "error", err, "goal_id", id)
		http.Error(w, "failed to save", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/goals?notice=Progress+saved", http.StatusSeeOther)
}
