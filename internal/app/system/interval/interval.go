// internal/app/system/interval/interval.go
package interval

import "time"

// Window is a half-open validity window [From, To). A nil To means the
// window is open-ended.
type Window struct {
	From time.Time
	To   *time.Time
}

// Active reports whether now falls inside the window. The window is
// half-open: it is inactive at the exact instant of To.
func (w Window) Active(now time.Time) bool {
	if now.Before(w.From) {
		return false
	}
	return w.To == nil || now.Before(*w.To)
}

// Overlaps reports whether two windows share any instant, treating a nil end
// as unbounded. Symmetric. Adjacent windows (a ends exactly when b starts)
// do not overlap.
func Overlaps(a, b Window) bool {
	// a.end > b.start
	if a.To != nil && !a.To.After(b.From) {
		return false
	}
	// b.end > a.start
	if b.To != nil && !b.To.After(a.From) {
		return false
	}
	return true
}

// Closed builds a bounded window. Callers must ensure to > from; the role
// store validates this before persisting.
func Closed(from, to time.Time) Window {
	return Window{From: from, To: &to}
}

// Open builds an open-ended window starting at from.
func Open(from time.Time) Window {
	return Window{From: from}
}
