package http

import (
	"net/http/httptest"
	"testing"
	"time"

	"fintrack/internal/core"
)

func TestParseYearMonth(t *testing.T) {
	now := time.Now()

	cases := []struct {
		name      string
		url       string
		wantYear  int
		wantMonth time.Month
	}{
		{"explicit", "/?year=2025&month=3", 2025, time.March},
		{"defaults", "/", now.Year(), now.Month()},
		{"month out of range", "/?year=2025&month=13", 2025, now.Month()},
		{"garbage month", "/?year=2025&month=abc", 2025, now.Month()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tc.url, nil)
			year, month := parseYearMonth(r)
			if year != tc.wantYear || month != tc.wantMonth {
				t.Errorf("got (%d, %v), want (%d, %v)", year, month, tc.wantYear, tc.wantMonth)
			}
		})
	}
}

func TestMonthNavigation(t *testing.T) {
	if y, m := prevMonth(2026, time.January); y != 2025 || m != time.December {
		t.Errorf("prevMonth(Jan 2026) = %d %v", y, m)
	}
	if y, m := nextMonth(2025, time.December); y != 2026 || m != time.January {
		t.Errorf("nextMonth(Dec 2025) = %d %v", y, m)
	}
}

func TestFormatTaka(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "৳0"},
		{12050, "৳120.50"},
		{500000, "৳5,000"},
		{-4500, "-৳45"},
	}
	for _, tc := range cases {
		if got := formatTaka(core.Money{Cents: tc.cents}); got != tc.want {
			t.Errorf("formatTaka(%d) = %q, want %q", tc.cents, got, tc.want)
		}
	}
}

func TestMoneyFieldRoundTrips(t *testing.T) {
	for _, cents := range []int64{0, 100, 12050, 500000, 999999} {
		s := moneyField(core.Money{Cents: cents})
		parsed, err := core.ParseDecimalToCents(s)
		if err != nil {
			t.Fatalf("moneyField(%d) = %q does not parse: %v", cents, s, err)
		}
		if parsed != cents {
			t.Errorf("round trip %d -> %q -> %d", cents, s, parsed)
		}
	}
}
