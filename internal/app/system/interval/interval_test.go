package interval

import (
	"testing"
	"time"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func at(h int) time.Time { return base.Add(time.Duration(h) * time.Hour) }

func TestWindow_Active(t *testing.T) {
	end := at(10)
	tests := []struct {
		name string
		w    Window
		now  time.Time
		want bool
	}{
		{"before start", Closed(at(0), end), at(-1), false},
		{"at start", Closed(at(0), end), at(0), true},
		{"inside", Closed(at(0), end), at(5), true},
		{"at end is inactive", Closed(at(0), end), end, false},
		{"after end", Closed(at(0), end), at(11), false},
		{"open-ended at start", Open(at(0)), at(0), true},
		{"open-ended far future", Open(at(0)), at(100000), true},
		{"open-ended before start", Open(at(0)), at(-1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.w.Active(tt.now); got != tt.want {
				t.Errorf("Active(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Window
		want bool
	}{
		{"disjoint", Closed(at(0), at(2)), Closed(at(3), at(5)), false},
		{"adjacent never overlap", Closed(at(0), at(2)), Closed(at(2), at(4)), false},
		{"partial overlap", Closed(at(0), at(3)), Closed(at(2), at(5)), true},
		{"contained", Closed(at(0), at(10)), Closed(at(2), at(4)), true},
		{"identical", Closed(at(0), at(2)), Closed(at(0), at(2)), true},
		{"open vs closed overlapping", Open(at(5)), Closed(at(0), at(6)), true},
		{"open vs closed adjacent", Open(at(5)), Closed(at(0), at(5)), false},
		{"both open", Open(at(0)), Open(at(100)), true},
		{"share a single interior instant", Closed(at(0), at(2)), Closed(at(1), at(1).Add(time.Nanosecond)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.a, tt.b); got != tt.want {
				t.Errorf("Overlaps(a, b) = %v, want %v", got, tt.want)
			}
			// Overlaps is symmetric.
			if got := Overlaps(tt.b, tt.a); got != tt.want {
				t.Errorf("Overlaps(b, a) = %v, want %v", got, tt.want)
			}
		})
	}
}
