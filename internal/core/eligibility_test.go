package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var today = date(2024, 3, 1)

func holder(dob time.Time) PolicyHolder {
	return PolicyHolder{FirstName: "Sam", LastName: "Jones", DateOfBirth: dob}
}

func quoteStarting(start time.Time, holders ...PolicyHolder) Quote {
	return Quote{StartDate: start, EndDate: TermEnd(start), Holders: holders}
}

func TestValidateCreation(t *testing.T) {
	adult := holder(date(1980, 1, 1))

	tests := []struct {
		name string
		q    Quote
		want error
	}{
		{"starts today", quoteStarting(today, adult), nil},
		{"starts yesterday", quoteStarting(AddDays(today, -1), adult), ErrStartDateInPast},
		{"starts in 60 days", quoteStarting(AddDays(today, 60), adult), nil},
		{"starts in 61 days", quoteStarting(AddDays(today, 61), adult), ErrStartDateTooFar},
		{"term one day long", Quote{StartDate: today, EndDate: AddYears(today, 1), Holders: []PolicyHolder{adult}}, ErrInvalidPolicyLength},
		{"term one day short", Quote{StartDate: today, EndDate: AddDays(TermEnd(today), -1), Holders: []PolicyHolder{adult}}, ErrInvalidPolicyLength},
		{"no holders", quoteStarting(today), ErrNoHolders},
		{"three holders", quoteStarting(today, adult, adult, adult), nil},
		{"four holders", quoteStarting(today, adult, adult, adult, adult), ErrTooManyHolders},
		{"holder turns 16 on start", quoteStarting(today, adult, holder(date(2008, 3, 1))), nil},
		{"holder 16 the day after start", quoteStarting(today, adult, holder(date(2008, 3, 2))), ErrHolderTooYoung},
		{"past start reported before holder count", quoteStarting(AddDays(today, -1)), ErrStartDateInPast},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCreation(tt.q, today)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestValidateCreation_IgnoresTimeOfDay(t *testing.T) {
	q := quoteStarting(today, holder(date(1980, 1, 1)))
	assert.NoError(t, ValidateCreation(q, today.Add(23*time.Hour)))
}

func TestValidateCreation_AgeMeasuredOnStartDate(t *testing.T) {
	start := AddDays(today, 30)
	// 15 today, 16 by the start date
	q := quoteStarting(start, holder(date(2008, 3, 15)))
	assert.NoError(t, ValidateCreation(q, today))
}
