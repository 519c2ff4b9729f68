package http

import (
	"log/slog"
	"net/http"
	"strings"

	"fintrack/internal/state"
)

// handleLock renders the keypad and checks submitted attempts.
func (s *Server) handleLock(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if !s.store.Snapshot().IsLocked {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		s.renderLock(w, r, false)
	case http.MethodPost:
		s.tryUnlock(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) renderLock(w http.ResponseWriter, r *http.Request, failed bool) {
	data := struct {
		page
		Failed bool
	}{
		page:   s.pageFor("Locked", "lock"),
		Failed: failed,
	}
	s.render(w, r, "lock.html", data)
}

func (s *Server) tryUnlock(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	// The keypad posts one digit per field; assemble like the on-screen pad.
	var pad state.PinPad
	for _, d := range strings.TrimSpace(r.Form.Get("pin")) {
		pad.Press(d)
	}
	if !pad.Full() {
		s.renderLock(w, r, true)
		return
	}

	ok, err := s.store.Unlock(r.Context(), pad.Value())
	if err != nil {
		slog.ErrorContext(r.Context(), "Unlock failed", "error", err)
		http.Error(w, "failed to unlock", http.StatusInternalServerError)
		return
	}
	if !ok {
		slog.WarnContext(r.Context(), "Wrong PIN attempt")
		s.renderLock(w, r, true)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleLockNow locks the app immediately when a pin is configured.
func (s *Server) handleLockNow(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	if s.store.Snapshot().PIN == "" {
		http.Redirect(w, r, "/settings?notice=Set+a+PIN+first", http.StatusSeeOther)
		return
	}
	if err := s.store.SetLocked(r.Context(), true); err != nil {
		slog.ErrorContext(r.Context(), "Lock failed", "error", err)
		http.Error(w, "failed to lock", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/lock", http.StatusSeeOther)
}
