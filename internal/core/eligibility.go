package core

import "time"

const (
	MaxStartDaysAhead = 60
	MinHolders        = 1
	MaxHolders        = 3
	MinHolderAge      = 16
)

var (
	ErrStartDateInPast     = newError(ErrValidation, "Policy start date cannot be in the past")
	ErrStartDateTooFar     = newError(ErrValidation, "Policy start date cannot be more than 60 days in the future")
	ErrInvalidPolicyLength = newError(ErrValidation, "Policy must last exactly one year")
	ErrNoHolders           = newError(ErrValidation, "Policy must have at least one policy holder")
	ErrTooManyHolders      = newError(ErrValidation, "Policy cannot have more than three policy holders")
	ErrHolderTooYoung      = newError(ErrValidation, "All policy holders must be at least 16 years old on the policy start date")
)

// ValidateCreation checks a quote against the creation rules and returns the
// first rule that fails, in this order: start date not in the past, start date
// at most 60 days ahead, one year term, holder count, holder age.
func ValidateCreation(q Quote, today time.Time) error {
	today = DateOf(today)
	start := DateOf(q.StartDate)

	if start.Before(today) {
		return ErrStartDateInPast
	}
	if start.After(AddDays(today, MaxStartDaysAhead)) {
		return ErrStartDateTooFar
	}
	if !DateOf(q.EndDate).Equal(TermEnd(start)) {
		return ErrInvalidPolicyLength
	}
	if len(q.Holders) < MinHolders {
		return ErrNoHolders
	}
	if len(q.Holders) > MaxHolders {
		return ErrTooManyHolders
	}
	for _, h := range q.Holders {
		if AgeOn(h.DateOfBirth, start) < MinHolderAge {
			return ErrHolderTooYoung
		}
	}
	return nil
}
