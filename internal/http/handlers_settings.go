package http

import (
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"fintrack/internal/ai"
	"fintrack/internal/core"
	"fintrack/internal/state"
)

// maxAvatarBytes caps profile photo uploads before base64 expansion.
const maxAvatarBytes = 1 << 20

// handleSettings renders the settings screen.
func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	s.pinMu.Lock()
	confirming := s.pinSetup.Phase() == state.PinSetupConfirm
	mismatched := s.pinSetup.Mismatched()
	s.pinMu.Unlock()

	s.adviceMu.Lock()
	advice := s.lastAdvice
	s.adviceMu.Unlock()

	data := struct {
		page
		Advice        string
		AdviceEnabled bool
		PinConfirming bool
		PinMismatch   bool
		Notice        string
	}{
		page:          s.pageFor("Settings", "settings"),
		Advice:        advice,
		AdviceEnabled: s.advisor != nil && s.advisor.Enabled(),
		PinConfirming: confirming,
		PinMismatch:   mismatched,
		Notice:        sanitizeInput(r.URL.Query().Get("notice")),
	}
	s.render(w, r, "settings.html", data)
}

// handleProfile updates the display name and optional avatar photo. The
// photo is stored inline as a data URI so the backup file stays
// self-contained.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	st := s.store.Snapshot()
	profile := st.User

	if name := sanitizeInput(r.FormValue("name")); name != "" {
		profile.Name = name
	}

	if file, header, err := r.FormFile("avatar"); err == nil {
		defer file.Close()
		raw, err := io.ReadAll(io.LimitReader(file, maxAvatarBytes+1))
		if err != nil {
			http.Error(w, "failed to read photo", http.StatusBadRequest)
			return
		}
		if len(raw) > maxAvatarBytes {
			http.Error(w, "photo too large", http.StatusRequestEntityTooLarge)
			return
		}
		contentType := header.Header.Get("Content-Type")
		if !strings.HasPrefix(contentType, "image/") {
			contentType = http.DetectContentType(raw)
		}
		if !strings.HasPrefix(contentType, "image/") {
			http.Error(w, "not an image", http.StatusUnsupportedMediaType)
			return
		}
		profile.Avatar = "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(raw)
	}

	if err := s.store.UpdateUser(r.Context(), profile); err != nil {
		slog.ErrorContext(r.Context(), "Profile update failed", "error", err)
		http.Error(w, "failed to save", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/settings?notice=Profile+updated", http.StatusSeeOther)
}

// handleTheme flips between light and dark.
func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	next := core.ThemeDark
	if s.store.Snapshot().Theme == core.ThemeDark {
		next = core.ThemeLight
	}
	if err := s.store.SetTheme(r.Context(), next); err != nil {
		slog.ErrorContext(r.Context(), "Theme switch failed", "error", err)
		http.Error(w, "failed to save", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/settings", http.StatusSeeOther)
}

// handlePinSetup drives the create/confirm flow. The first valid entry
// advances to confirmation; a matching second entry stores the pin.
func (s *Server) handlePinSetup(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	entry := strings.TrimSpace(r.Form.Get("pin"))
	if len(entry) != state.PinLength || strings.Trim(entry, "0123456789") != "" {
		http.Redirect(w, r, "/settings?notice=PIN+must+be+4+digits", http.StatusSeeOther)
		return
	}

	s.pinMu.Lock()
	pin, done := s.pinSetup.Submit(entry)
	mismatched := s.pinSetup.Mismatched()
	s.pinMu.Unlock()

	if !done {
		if mismatched {
			http.Redirect(w, r, "/settings?notice=PINs+do+not+match.+Try+again.", http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, "/settings?notice=Confirm+your+PIN", http.StatusSeeOther)
		return
	}

	if err := s.store.SetPin(r.Context(), pin); err != nil {
		slog.ErrorContext(r.Context(), "PIN setup failed", "error", err)
		http.Error(w, "failed to save", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/settings?notice=PIN+enabled", http.StatusSeeOther)
}

// handlePinRemove drops PIN protection.
func (s *Server) handlePinRemove(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	s.pinMu.Lock()
	s.pinSetup.Reset()
	s.pinMu.Unlock()

	if err := s.store.SetPin(r.Context(), ""); err != nil {
		slog.ErrorContext(r.Context(), "PIN removal failed", "error", err)
		http.Error(w, "failed to save", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/settings?notice=PIN+removed", http.StatusSeeOther)
}

// handleAdvice asks the advisor for the current month's coaching text.
func (s *Server) handleAdvice(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	now := time.Now()
	report := core.MonthReport(s.store.Snapshot(), now.Year(), now.Month())

	advice, err := s.advisor.Advise(r.Context(), report)
	if errors.Is(err, ai.ErrNoAPIKey) {
		http.Redirect(w, r, "/settings?notice=AI+Insights+require+an+API+key", http.StatusSeeOther)
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Advice request failed", "error", err)
		advice = ai.FallbackAdvice
	}

	s.adviceMu.Lock()
	s.lastAdvice = advice
	s.adviceMu.Unlock()

	http.Redirect(w, r, "/settings", http.StatusSeeOther)
}

// handleExport streams the full state as a downloadable backup file.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, filename, err := s.store.Export()
	if err != nil {
		slog.ErrorContext(r.Context(), "Export failed", "error", err)
		http.Error(w, "failed to export", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_, _ = w.Write(data)
}

// handleImport replaces the entire state from an uploaded backup file.
const maxBackupBytes = 8 << 20

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	if err := r.ParseMultipartForm(maxBackupBytes); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	file, _, err := r.FormFile("backup")
	if err != nil {
		http.Error(w, "missing backup file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	payload, err := io.ReadAll(io.LimitReader(file, maxBackupBytes))
	if err != nil {
		http.Error(w, "failed to read backup", http.StatusBadRequest)
		return
	}

	if err := s.store.Import(r.Context(), payload); err != nil {
		if errors.Is(err, state.ErrInvalidBackup) {
			http.Redirect(w, r, "/settings?notice=Invalid+backup+file", http.StatusSeeOther)
			return
		}
		slog.ErrorContext(r.Context(), "Import failed", "error", err)
		http.Error(w, "failed to import", http.StatusInternalServerError)
		return
	}

	// An imported pin re-locks the app; land on the keypad in that case.
	if s.store.Snapshot().IsLocked {
		http.Redirect(w, r, "/lock", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/settings?notice=Backup+restored", http.StatusSeeOther)
}
