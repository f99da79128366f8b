package timeutil

import (
	"testing"
	"time"
)

func TestNow_AlwaysUTC(t *testing.T) {
	now := Now()

	if now.Location() != time.UTC {
		t.Errorf("Now() returned non-UTC timezone: %v", now.Location())
	}
}

func TestStartOfDay(t *testing.T) {
	tests := []struct {
		name     string
		input    time.Time
		expected string
	}{
		{
			name:     "midnight UTC",
			input:    time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC),
			expected: "2025-11-20 00:00:00 +0000 UTC",
		},
		{
			name:     "late evening UTC",
			input:    time.Date(2025, 11, 20, 23, 59, 59, 0, time.UTC),
			expected: "2025-11-20 00:00:00 +0000 UTC",
		},
		{
			name:     "offset zone normalised to UTC date",
			input:    time.Date(2025, 11, 20, 22, 0, 0, 0, time.FixedZone("IST", 5*3600+1800)),
			expected: "2025-11-20 00:00:00 +0000 UTC",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := StartOfDay(tt.input)

			if result.String() != tt.expected {
				t.Errorf("StartOfDay() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestStartOfMonth(t *testing.T) {
	got := StartOfMonth(time.Date(2024, 2, 29, 15, 4, 5, 0, time.UTC))
	want := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	if !got.Equal(want) {
		t.Errorf("StartOfMonth() = %v, want %v", got, want)
	}
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		name string
		a    time.Time
		b    time.Time
		want int
	}{
		{"same day ignores clock", time.Date(2025, 3, 1, 23, 0, 0, 0, time.UTC), time.Date(2025, 3, 1, 1, 0, 0, 0, time.UTC), 0},
		{"across month end", time.Date(2025, 1, 30, 0, 0, 0, 0, time.UTC), time.Date(2025, 2, 2, 0, 0, 0, 0, time.UTC), 3},
		{"across leap day", time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 2},
		{"backwards is negative", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC), -5},
		{"across year", time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC), time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysBetween(tt.a, tt.b); got != tt.want {
				t.Errorf("DaysBetween() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSameMonth(t *testing.T) {
	a := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	if !SameMonth(a, time.Date(2025, 6, 30, 23, 0, 0, 0, time.UTC)) {
		t.Errorf("SameMonth() = false for June 1 and June 30")
	}
	if SameMonth(a, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("SameMonth() = true for different years")
	}
}

func TestParseISODate(t *testing.T) {
	got, err := ParseISODate("2025-04-07")
	if err != nil {
		t.Fatalf("ParseISODate() error = %v", err)
	}
	if FormatDate(got) != "2025-04-07" || got.Location() != time.UTC {
		t.Errorf("ParseISODate() = %v", got)
	}
	if MonthKey(got) != "2025-04" {
		t.Errorf("MonthKey() = %s, want 2025-04", MonthKey(got))
	}

	if _, err := ParseISODate("07/04/2025"); err == nil {
		t.Errorf("ParseISODate() expected error for non-ISO input")
	}
}

func TestToUTC(t *testing.T) {
	est, _ := time.LoadLocation("America/New_York")
	estTime := time.Date(2025, 11, 20, 12, 0, 0, 0, est)

	utcTime := ToUTC(estTime)

	if utcTime.Location() != time.UTC {
		t.Errorf("ToUTC() returned non-UTC: %v", utcTime.Location())
	}

	// EST noon = UTC 17:00
	if utcTime.Hour() != 17 {
		t.Errorf("ToUTC() hour = %d, want 17", utcTime.Hour())
	}
}
