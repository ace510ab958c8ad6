// Package policyapi holds the wire models exchanged with API clients.
package policyapi

import (
	"time"

	"github.com/shopspring/decimal"
)

type Policy struct {
	ID          int64           `json:"id"`
	StartDate   Date            `json:"start_date"`
	EndDate     Date            `json:"end_date"`
	Amount      decimal.Decimal `json:"amount"`
	AutoRenew   bool            `json:"auto_renew"`
	Cancelled   bool            `json:"cancelled"`
	CancelledAt *time.Time      `json:"cancelled_at,omitempty"`
	Property    Property        `json:"property"`
	Holders     []Holder        `json:"holders"`
	Payments    []Payment       `json:"payments"`
	Refunds     []Refund        `json:"refunds"`
}

type Holder struct {
	ID          int64  `json:"id,omitempty"`
	PolicyID    int64  `json:"policy_id,omitempty"`
	FirstName   string `json:"first_name" validate:"required,max=100"`
	LastName    string `json:"last_name" validate:"required,max=100"`
	DateOfBirth Date   `json:"date_of_birth" validate:"required"`
}

type Property struct {
	ID           int64  `json:"id,omitempty"`
	PolicyID     int64  `json:"policy_id,omitempty"`
	AddressLine1 string `json:"address_line1" validate:"required,max=200"`
	AddressLine2 string `json:"address_line2,omitempty" validate:"max=200"`
	AddressLine3 string `json:"address_line3,omitempty" validate:"max=200"`
	PostCode     string `json:"post_code" validate:"required,max=16"`
}

type Payment struct {
	ID          int64           `json:"id"`
	PolicyID    int64           `json:"policy_id"`
	PaymentType PaymentType     `json:"payment_type"`
	Amount      decimal.Decimal `json:"amount"`
	CreatedAt   time.Time       `json:"created_at"`
}

type Refund struct {
	ID          int64           `json:"id"`
	PolicyID    int64           `json:"policy_id"`
	PaymentType PaymentType     `json:"payment_type"`
	Amount      decimal.Decimal `json:"amount"`
	CreatedAt   time.Time       `json:"created_at"`
	Reason      string          `json:"reason"`
}

// PaymentType is the name of a payment method, e.g. "DirectDebit".
type PaymentType string

type RenewResult struct {
	PolicyID      int64           `json:"policy_id"`
	NewStartDate  Date            `json:"new_start_date"`
	NewEndDate    Date            `json:"new_end_date"`
	NewAmount     decimal.Decimal `json:"new_amount"`
	PaymentRaised bool            `json:"payment_raised"`
}

type CancelResult struct {
	PolicyID     int64           `json:"policy_id"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
	PaymentType  PaymentType     `json:"payment_type"`
}

type QuoteRequest struct {
	StartDate Date            `json:"start_date" validate:"required"`
	EndDate   Date            `json:"end_date" validate:"required"`
	Amount    decimal.Decimal `json:"amount" validate:"gte=0"`
	Property  Property        `json:"property"`
	Holders   []Holder        `json:"holders" validate:"dive"`
}

type Quote struct {
	ID        int64           `json:"id"`
	StartDate Date            `json:"start_date"`
	EndDate   Date            `json:"end_date"`
	Amount    decimal.Decimal `json:"amount"`
	Property  Property        `json:"property"`
	Holders   []Holder        `json:"holders"`
	CreatedAt time.Time       `json:"created_at"`
}
