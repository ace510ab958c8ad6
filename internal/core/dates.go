package core

import "time"

const day = 24 * time.Hour

// DateOf truncates t to its calendar date at UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddYears moves d by n calendar years. 29 February lands on 28 February in
// non-leap years rather than rolling into March.
func AddYears(d time.Time, n int) time.Time {
	y, m, dd := d.Date()
	y += n
	if m == time.February && dd == 29 && !isLeap(y) {
		dd = 28
	}
	return time.Date(y, m, dd, 0, 0, 0, 0, time.UTC)
}

func AddDays(d time.Time, n int) time.Time {
	return d.AddDate(0, 0, n)
}

// DaysBetween counts whole days from a to b. Both must be UTC dates.
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a) / day)
}

// TermEnd is the last covered day of a one year term beginning on start.
func TermEnd(start time.Time) time.Time {
	return AddDays(AddYears(start, 1), -1)
}

// AgeOn returns completed years of age on the given date.
func AgeOn(dob, on time.Time) int {
	age := on.Year() - dob.Year()
	if on.Month() < dob.Month() || (on.Month() == dob.Month() && on.Day() < dob.Day()) {
		age--
	}
	return age
}

func isLeap(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}
