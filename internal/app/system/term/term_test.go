package term

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestExpiry(t *testing.T) {
	tests := []struct {
		today time.Time
		want  time.Time
	}{
		{date(2026, 3, 15), date(2029, 12, 31)},
		{date(2027, 6, 1), date(2029, 12, 31)},
		{date(2025, 12, 31), date(2027, 12, 31)},
		{date(2024, 1, 1), date(2027, 12, 31)},
		{date(2028, 7, 4), date(2031, 12, 31)},
	}
	for _, tt := range tests {
		got := Expiry(tt.today)
		if !got.Equal(tt.want) {
			t.Errorf("Expiry(%s) = %s, want %s",
				tt.today.Format("2006-01-02"), got.Format("2006-01-02"), tt.want.Format("2006-01-02"))
		}
	}
}

func TestExpiry_AlwaysOddDecember31(t *testing.T) {
	for y := 2024; y <= 2040; y++ {
		for _, m := range []time.Month{time.January, time.June, time.December} {
			got := Expiry(date(y, m, 15))
			if got.Year()%2 == 0 {
				t.Errorf("Expiry(%d-%02d) landed on even year %d", y, m, got.Year())
			}
			if got.Year() < y+2 {
				t.Errorf("Expiry(%d-%02d) = %d, less than two years out", y, m, got.Year())
			}
			if got.Month() != time.December || got.Day() != 31 {
				t.Errorf("Expiry(%d-%02d) = %s, want December 31", y, m, got.Format("2006-01-02"))
			}
		}
	}
}
