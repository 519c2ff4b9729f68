package http

import (
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
)

// page carries the fields every screen template needs.
type page struct {
	Title  string
	Active string
	Theme  core.Theme
	User   core.UserProfile
	// AvatarURL is the stored avatar as a pre-approved URL value: the
	// autoescaper filters data: URIs out of src attributes otherwise.
	// Only set for values the upload handler shape-checked.
	AvatarURL template.URL
	HasPin    bool
}

func (s *Server) pageFor(title, active string) page {
	st := s.store.Snapshot()
	p := page{
		Title:  title,
		Active: active,
		Theme:  st.Theme,
		User:   st.User,
		HasPin: st.PIN != "",
	}
	if strings.HasPrefix(st.User.Avatar, "data:image/") {
		p.AvatarURL = template.URL(st.User.Avatar)
	}
	return p
}

// parseYearMonth extracts year and month from query parameters.
// Returns current year/month as defaults if not provided or invalid.
func parseYearMonth(r *http.Request) (int, time.Month) {
	now := time.Now()
	year := now.Year()
	month := int(now.Month())

	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			year = y
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil {
			month = m
		}
	}
	if month < 1 || month > 12 {
		month = int(now.Month())
	}
	return year, time.Month(month)
}

// prevMonth and nextMonth compute navigator targets.
func prevMonth(year int, month time.Month) (int, time.Month) {
	d := time.Date(year, month-1, 1, 0, 0, 0, 0, time.UTC)
	return d.Year(), d.Month()
}

func nextMonth(year int, month time.Month) (int, time.Month) {
	d := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC)
	return d.Year(), d.Month()
}

// moneyField renders money as a plain decimal suitable for re-parsing
// from a form input: no separators, no currency sign.
func moneyField(m core.Money) string {
	whole := m.Cents / 100
	frac := m.Cents % 100
	if frac == 0 {
		return strconv.FormatInt(whole, 10)
	}
	return strconv.FormatInt(whole, 10) + "." + strconv.FormatInt(frac/10, 10) + strconv.FormatInt(frac%10, 10)
}

// formatTaka formats a money value as a taka currency string (e.g. "৳1,250.50").
func formatTaka(m core.Money) string {
	if m.Cents < 0 {
		return "-৳" + core.Money{Cents: -m.Cents}.String()
	}
	return "৳" + m.String()
}
