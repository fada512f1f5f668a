package clock

import (
	"testing"
	"time"
)

func TestNowUsesDisplayTimezone(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	instant := time.Date(2026, 2, 16, 22, 30, 0, 0, time.UTC)
	clk := NewFixed(loc, func() time.Time { return instant })

	now := clk.Now()
	if now.Hour() != 1 || now.Day() != 17 {
		t.Fatalf("expected 01:30 on the 17th in display tz, got %s", now)
	}
}

func TestAtPinsClockToDate(t *testing.T) {
	clk := NewFixed(time.UTC, time.Now)
	date := time.Date(2026, 2, 16, 23, 59, 0, 0, time.UTC)

	at := clk.At(date, 9, 15)
	if at.Year() != 2026 || at.Month() != 2 || at.Day() != 16 || at.Hour() != 9 || at.Minute() != 15 {
		t.Fatalf("unexpected result: %s", at)
	}
}

func TestSameDayComparesCivilDates(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	clk := NewFixed(loc, time.Now)

	// 22:30 UTC is already the next civil day in UTC+3.
	a := time.Date(2026, 2, 16, 22, 30, 0, 0, time.UTC)
	b := time.Date(2026, 2, 17, 8, 0, 0, 0, loc)
	if !clk.SameDay(a, b) {
		t.Fatalf("expected %s and %s to share a civil day", a, b)
	}

	c := time.Date(2026, 2, 16, 8, 0, 0, 0, loc)
	if clk.SameDay(a, c) {
		t.Fatalf("expected %s and %s to differ", a, c)
	}
}

func TestNewRejectsUnknownTimezone(t *testing.T) {
	if _, err := New("Not/AZone"); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}
