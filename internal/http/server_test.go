package http

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"fintrack/internal/ai"
	"fintrack/internal/config"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/state"
)

type memSnapshots struct {
	state core.AppState
	ok    bool
}

func (m *memSnapshots) Load(_ context.Context) (core.AppState, bool, error) {
	return m.state, m.ok, nil
}

func (m *memSnapshots) Save(_ context.Context, s core.AppState) error {
	m.state, m.ok = s, true
	return nil
}

func (m *memSnapshots) Close() error { return nil }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := state.Open(context.Background(), &memSnapshots{})
	if err != nil {
		t.Fatalf("state.Open() error = %v", err)
	}
	advisor := ai.New(&config.Config{OpenAIModel: "gpt-4o-mini"}, applog.New(applog.DefaultConfig()))
	return NewServer(":0", store, advisor)
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func postForm(t *testing.T, srv *Server, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestDashboardAndHealth(t *testing.T) {
	srv := newTestServer(t)

	rr := get(t, srv, "/")
	if rr.Code != http.StatusOK {
		t.Fatalf("dashboard status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Guest User") {
		t.Error("dashboard missing the default profile name")
	}

	for _, path := range []string{"/healthz", "/readyz"} {
		if rr := get(t, srv, path); rr.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, rr.Code)
		}
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(t)
	rr := get(t, srv, "/")

	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rr.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}

func TestCreateTransaction(t *testing.T) {
	srv := newTestServer(t)

	rr := postForm(t, srv, "/transactions", url.Values{
		"type":     {"expense"},
		"amount":   {"120.50"},
		"category": {"Food"},
		"date":     {"2026-08-15"},
		"note":     {"lunch"},
	})
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("create status = %d, body = %s", rr.Code, rr.Body.String())
	}

	list := get(t, srv, "/transactions")
	if !strings.Contains(list.Body.String(), "lunch") {
		t.Error("transaction list missing the created entry")
	}
	if !strings.Contains(list.Body.String(), "৳120.50") {
		t.Error("transaction list missing the formatted amount")
	}
}

func TestCreateTransactionRejectsBadInput(t *testing.T) {
	srv := newTestServer(t)

	cases := []struct {
		name string
		form url.Values
	}{
		{"bad amount", url.Values{"type": {"expense"}, "amount": {"abc"}, "category": {"Food"}, "date": {"2026-08-15"}}},
		{"negative amount", url.Values{"type": {"expense"}, "amount": {"-5"}, "category": {"Food"}, "date": {"2026-08-15"}}},
		{"bad category", url.Values{"type": {"expense"}, "amount": {"5"}, "category": {"Nope"}, "date": {"2026-08-15"}}},
		{"bad date", url.Values{"type": {"expense"}, "amount": {"5"}, "category": {"Food"}, "date": {"15/08/2026"}}},
		{"bad type", url.Values{"type": {"transfer"}, "amount": {"5"}, "category": {"Food"}, "date": {"2026-08-15"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if rr := postForm(t, srv, "/transactions", tc.form); rr.Code != http.StatusUnprocessableEntity {
				t.Errorf("status = %d, want 422", rr.Code)
			}
		})
	}
}

func TestBudgetOverrunWarning(t *testing.T) {
	srv := newTestServer(t)

	// Default Food budget is ৳5,000; one expense above it triggers the warning.
	rr := postForm(t, srv, "/transactions", url.Values{
		"type":     {"expense"},
		"amount":   {"6000"},
		"category": {"Food"},
		"date":     {"2026-08-15"},
	})
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("create status = %d", rr.Code)
	}
	loc := rr.Header().Get("Location")
	if !strings.Contains(loc, "warning=") {
		t.Errorf("redirect %q carries no overrun warning", loc)
	}

	list := get(t, srv, loc)
	if !strings.Contains(list.Body.String(), "over budget") {
		t.Error("list missing the overrun warning")
	}
}

func TestUpdateBudget(t *testing.T) {
	srv := newTestServer(t)

	rr := postForm(t, srv, "/budget", url.Values{"category": {"Food"}, "limit": {"7500"}})
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("update status = %d", rr.Code)
	}
	if body := get(t, srv, "/budget").Body.String(); !strings.Contains(body, "৳7,500") {
		t.Error("budget page missing the new limit")
	}
}

func TestUpdateBudgetUnbudgetedCategory(t *testing.T) {
	srv := newTestServer(t)

	// Salary is a valid category but never has a budget row, so the
	// store leaves the state untouched and the page must say so.
	rr := postForm(t, srv, "/budget", url.Values{"category": {"Salary"}, "limit": {"7500"}})
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("update status = %d", rr.Code)
	}
	loc := rr.Header().Get("Location")
	if !strings.Contains(loc, "No+budget+exists") {
		t.Errorf("redirect = %q, want a no-budget notice", loc)
	}
	if strings.Contains(loc, "Budget+updated") {
		t.Errorf("redirect = %q claims success for a no-op", loc)
	}
}

func TestGoalFlow(t *testing.T) {
	srv := newTestServer(t)

	rr := postForm(t, srv, "/goals", url.Values{"name": {"New Laptop"}, "target": {"80000"}})
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("create status = %d", rr.Code)
	}

	body := get(t, srv, "/goals").Body.String()
	if !strings.Contains(body, "New Laptop") {
		t.Fatal("goals page missing the new goal")
	}
	id := extractGoalID(t, srv)

	// Progress beyond the target clamps on this path.
	rr = postForm(t, srv, "/goals/progress", url.Values{"id": {id}, "amount": {"100000"}})
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("progress status = %d", rr.Code)
	}
	body = get(t, srv, "/goals").Body.String()
	if !strings.Contains(body, "Goal reached!") {
		t.Error("goal not marked done after clamped progress")
	}
	if !strings.Contains(body, "৳80,000 of ৳80,000") {
		t.Error("goal progress not clamped to the target")
	}
}

func extractGoalID(t *testing.T, srv *Server) string {
	t.Helper()
	body := get(t, srv, "/goals").Body.String()
	marker := `name="id" value="`
	i := strings.Index(body, marker)
	if i < 0 {
		t.Fatal("no goal id input in goals page")
	}
	rest := body[i+len(marker):]
	return rest[:strings.Index(rest, `"`)]
}

func TestLockFlow(t *testing.T) {
	srv := newTestServer(t)

	// Two-step setup: choose then confirm.
	postForm(t, srv, "/settings/pin", url.Values{"pin": {"1234"}})
	rr := postForm(t, srv, "/settings/pin", url.Values{"pin": {"1234"}})
	if loc := rr.Header().Get("Location"); !strings.Contains(loc, "PIN+enabled") {
		t.Fatalf("setup redirect = %q", loc)
	}

	if rr := postForm(t, srv, "/lock/now", nil); rr.Code != http.StatusSeeOther {
		t.Fatalf("lock status = %d", rr.Code)
	}

	// Locked: pages redirect to the keypad.
	if rr := get(t, srv, "/"); rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/lock" {
		t.Fatalf("locked dashboard = %d -> %q", rr.Code, rr.Header().Get("Location"))
	}

	// Wrong pin re-renders the keypad.
	rr = postForm(t, srv, "/lock", url.Values{"pin": {"1111"}})
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "Wrong PIN") {
		t.Fatalf("wrong pin: status = %d", rr.Code)
	}

	// Correct pin unlocks.
	rr = postForm(t, srv, "/lock", url.Values{"pin": {"1234"}})
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/" {
		t.Fatalf("unlock = %d -> %q", rr.Code, rr.Header().Get("Location"))
	}
	if rr := get(t, srv, "/"); rr.Code != http.StatusOK {
		t.Errorf("dashboard after unlock = %d", rr.Code)
	}
}

func TestPinSetupMismatch(t *testing.T) {
	srv := newTestServer(t)

	postForm(t, srv, "/settings/pin", url.Values{"pin": {"1234"}})
	rr := postForm(t, srv, "/settings/pin", url.Values{"pin": {"9999"}})
	if loc := rr.Header().Get("Location"); !strings.Contains(loc, "do+not+match") {
		t.Fatalf("mismatch redirect = %q", loc)
	}

	// No pin was stored, so locking is refused.
	rr = postForm(t, srv, "/lock/now", nil)
	if loc := rr.Header().Get("Location"); !strings.Contains(loc, "Set+a+PIN+first") {
		t.Errorf("lock without pin redirect = %q", loc)
	}
}

func TestExportAndImport(t *testing.T) {
	srv := newTestServer(t)

	postForm(t, srv, "/transactions", url.Values{
		"type": {"income"}, "amount": {"20000"}, "category": {"Salary"}, "date": {"2026-08-01"},
	})

	rr := get(t, srv, "/export")
	if rr.Code != http.StatusOK {
		t.Fatalf("export status = %d", rr.Code)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "fintrack_backup_") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	backup := rr.Body.Bytes()

	// Restore into a fresh server.
	fresh := newTestServer(t)
	rr2 := postMultipart(t, fresh, "/import", "backup", "backup.json", backup)
	if rr2.Code != http.StatusSeeOther {
		t.Fatalf("import status = %d", rr2.Code)
	}
	if body := get(t, fresh, "/transactions").Body.String(); !strings.Contains(body, "৳20,000") {
		t.Error("imported transaction missing")
	}
}

func TestImportRejectsGarbage(t *testing.T) {
	srv := newTestServer(t)

	rr := postMultipart(t, srv, "/import", "backup", "backup.json", []byte("{broken"))
	if loc := rr.Header().Get("Location"); !strings.Contains(loc, "Invalid+backup") {
		t.Errorf("garbage import redirect = %q", loc)
	}
}

func postMultipart(t *testing.T, srv *Server, path, field, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestUploadedAvatarRendersInHeader(t *testing.T) {
	srv := newTestServer(t)

	// A minimal PNG header is enough for content sniffing.
	png := []byte("\x89PNG\r\n\x1a\nrest")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("name", "Sazid"); err != nil {
		t.Fatal(err)
	}
	fw, err := mw.CreateFormFile("avatar", "me.png")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(png); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/settings/profile", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("profile update status = %d", rr.Code)
	}

	body := get(t, srv, "/").Body.String()
	if !strings.Contains(body, `src="data:image/png;base64,`) {
		t.Error("header missing the avatar data URI")
	}
	if strings.Contains(body, "ZgotmplZ") {
		t.Error("avatar src was sanitized away")
	}
}

func TestAdviceWithoutKeyRedirects(t *testing.T) {
	srv := newTestServer(t)

	rr := postForm(t, srv, "/settings/advice", nil)
	if loc := rr.Header().Get("Location"); !strings.Contains(loc, "API+key") {
		t.Errorf("advice redirect = %q", loc)
	}
}
