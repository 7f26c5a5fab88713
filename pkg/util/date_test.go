package util

import (
	"testing"
	"time"
)

func TestParseDateLayouts(t *testing.T) {
	want := time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)
	for _, s := range []string{"2024-10-10", "2024/10/10", "20241010", "2024-10-10 13:30:00", "2024-10-10T13:30:00Z"} {
		got, ok := ParseDate(s)
		if !ok {
			t.Fatalf("ParseDate(%q): expected ok", s)
		}
		if !got.Equal(want) {
			t.Fatalf("ParseDate(%q) = %v, want %v", s, got, want)
		}
	}
}

func TestParseDateUnixSeconds(t *testing.T) {
	ts := time.Date(2024, 10, 10, 9, 0, 0, 0, time.UTC)
	got, ok := ParseDate("1728550800")
	if !ok {
		t.Fatalf("expected ok")
	}
	if !got.Equal(DayUTC(ts)) {
		t.Fatalf("got %v, want %v", got, DayUTC(ts))
	}
}

func TestParseDateRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "not-a-date", "10-10"} {
		if _, ok := ParseDate(s); ok {
			t.Fatalf("ParseDate(%q): expected failure", s)
		}
	}
}

func TestWeekKeyCrossesYear(t *testing.T) {
	// 2024-12-30 and 2025-01-02 share ISO week 1 of 2025
	a := WeekKey(time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC))
	b := WeekKey(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC))
	if a != b {
		t.Fatalf("same ISO week expected, got %d and %d", a, b)
	}
	c := WeekKey(time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC))
	if c == b {
		t.Fatalf("next week must change the key")
	}
}

func TestToFloatCoercion(t *testing.T) {
	cases := []struct {
		in   any
		want float64
		ok   bool
	}{
		{float64(1.5), 1.5, true},
		{int64(42), 42, true},
		{"3.14", 3.14, true},
		{"1,234.5", 1234.5, true},
		{[]byte("2.0"), 2.0, true},
		{" ", 0, false},
		{nil, 0, false},
	}
	for _, tc := range cases {
		got, ok := ToFloat(tc.in)
		if ok != tc.ok || (ok && got != tc.want) {
			t.Fatalf("ToFloat(%v) = (%v, %v), want (%v, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestToStringFloatSymbol(t *testing.T) {
	got, ok := ToString(float64(2330))
	if !ok || got != "2330" {
		t.Fatalf("ToString(2330.0) = (%q, %v)", got, ok)
	}
}
