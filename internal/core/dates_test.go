package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDateOf_DropsTimeOfDay(t *testing.T) {
	in := time.Date(2024, 5, 17, 23, 59, 59, 999, time.UTC)
	assert.Equal(t, date(2024, 5, 17), DateOf(in))
}

func TestAddYears(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		n    int
		want time.Time
	}{
		{"ordinary day", date(2023, 6, 15), 1, date(2024, 6, 15)},
		{"leap day into common year", date(2024, 2, 29), 1, date(2025, 2, 28)},
		{"leap day into leap year", date(2024, 2, 29), 4, date(2028, 2, 29)},
		{"century is not leap", date(2096, 2, 29), 4, date(2100, 2, 28)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AddYears(tt.in, tt.n))
		})
	}
}

func TestTermEnd(t *testing.T) {
	assert.Equal(t, date(2024, 12, 31), TermEnd(date(2024, 1, 1)))
	assert.Equal(t, date(2025, 2, 27), TermEnd(date(2024, 2, 29)))
	assert.Equal(t, date(2025, 2, 28), TermEnd(date(2024, 3, 1)))
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 365, DaysBetween(date(2024, 1, 1), date(2024, 12, 31)))
	assert.Equal(t, 0, DaysBetween(date(2024, 1, 1), date(2024, 1, 1)))
	assert.Equal(t, -1, DaysBetween(date(2024, 1, 2), date(2024, 1, 1)))
}

func TestAgeOn(t *testing.T) {
	dob := date(2008, 3, 1)
	assert.Equal(t, 15, AgeOn(dob, date(2024, 2, 29)))
	assert.Equal(t, 16, AgeOn(dob, date(2024, 3, 1)))

	leapling := date(2008, 2, 29)
	assert.Equal(t, 15, AgeOn(leapling, date(2024, 2, 28)))
	assert.Equal(t, 16, AgeOn(leapling, date(2024, 2, 29)))
}
