// Package http provides the HTTP server and handler implementations.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"fintrack/internal/ai"
	"fintrack/internal/state"
	appweb "fintrack/web"
)

type Server struct {
	http.Server
	templates *template.Template
	store     *state.Store
	advisor   *ai.Advisor

	// PIN setup is a two-step flow; the app is single-user so one
	// server-side machine suffices.
	pinMu    sync.Mutex
	pinSetup state.PinSetup

	// Latest generated advice, shown on the settings page.
	adviceMu   sync.Mutex
	lastAdvice string
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, store *state.Store, advisor *ai.Advisor) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		store:   store,
		advisor: advisor,
	}

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	// The lock screen and its endpoints stay reachable while locked.
	mux.HandleFunc("/lock", s.withSecurityHeaders(s.handleLock))
	mux.HandleFunc("/lock/now", s.withSecurityHeaders(s.handleLockNow))

	page := func(h http.HandlerFunc) http.HandlerFunc {
		return s.withSecurityHeaders(s.withUnlockGate(h))
	}
	mux.HandleFunc("/", page(s.handleDashboard))
	mux.HandleFunc("/transactions", page(s.handleTransactions))
	mux.HandleFunc("/transactions/delete", page(s.handleDeleteTransaction))
	mux.HandleFunc("/budget", page(s.handleBudget))
	mux.HandleFunc("/analytics", page(s.handleAnalytics))
	mux.HandleFunc("/goals", page(s.handleGoals))
	mux.HandleFunc("/goals/progress", page(s.handleGoalProgress))
	mux.HandleFunc("/settings", page(s.handleSettings))
	mux.HandleFunc("/settings/profile", page(s.handleProfile))
	mux.HandleFunc("/settings/theme", page(s.handleTheme))
	mux.HandleFunc("/settings/pin", page(s.handlePinSetup))
	mux.HandleFunc("/settings/pin/remove", page(s.handlePinRemove))
	mux.HandleFunc("/settings/advice", page(s.handleAdvice))
	mux.HandleFunc("/report", page(s.handleReport))
	mux.HandleFunc("/export", page(s.handleExport))
	mux.HandleFunc("/import", page(s.handleImport))

	return s
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.Server.Shutdown(ctx)
}

// withUnlockGate redirects everything to the lock screen while the app
// is locked.
func (s *Server) withUnlockGate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.store.Snapshot().IsLocked {
			http.Redirect(w, r, "/lock", http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

// withSecurityHeaders adds security headers and request logging to responses
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Extract client IP (considering proxies)
		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		// Generate request ID for tracing
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// render executes a page template, failing loudly when templates did not
// load at startup.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution failed", "error", err, "template", name)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// requirePost rejects non-POST methods.
func requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
