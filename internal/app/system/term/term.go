// internal/app/system/term/term.go
package term

import "time"

// Expiry computes the renewal deadline for a membership term granted today.
//
// The candidate year is today's year plus two, bumped to the next year if it
// lands on an even one. The result is December 31 of that (odd) year, so the
// deadline is always at least two years out and all terms synchronize to the
// same biennial cycle.
func Expiry(today time.Time) time.Time {
	year := today.Year() + 2
	if year%2 == 0 {
		year++
	}
	return time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
}
