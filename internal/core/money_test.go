package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"12.34", 1234, true},
		{"12,34", 1234, true},
		{"12.345", 1234, true},
		{"12.346", 1235, true},
		{"0", 0, true},
		{"", 0, false},
		{"-5", 0, false},
		{"+5", 0, false},
		{"1.2.3", 0, false},
		{"abc", 0, false},
		{".5", 50, true},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("%q: got %d, %v; want %d", tc.in, got, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q: expected error", tc.in)
		}
	}
}

func TestMoneyString(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{123450, "1,234.50"},
		{100, "1"},
		{5, "0.05"},
		{-250000, "-2,500"},
		{0, "0"},
	}
	for _, tc := range cases {
		if got := (Money{Cents: tc.cents}).String(); got != tc.want {
			t.Fatalf("%d cents: got %q, want %q", tc.cents, got, tc.want)
		}
	}
}

func TestMoneyJSONIsPlainCents(t *testing.T) {
	b, err := (Money{Cents: 420}).MarshalJSON()
	if err != nil || string(b) != "420" {
		t.Fatalf("got %s, %v", b, err)
	}
	var m Money
	if err := m.UnmarshalJSON([]byte("69")); err != nil || m.Cents != 69 {
		t.Fatalf("got %+v, %v", m, err)
	}
}
