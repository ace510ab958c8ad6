package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentType int

const (
	PaymentTypeNone PaymentType = iota
	PaymentTypeDebitCard
	PaymentTypeCreditCard
	PaymentTypeDirectDebit
	PaymentTypeBankTransfer
	PaymentTypeInternalCredit
)

var paymentTypeNames = [...]string{
	PaymentTypeNone:           "None",
	PaymentTypeDebitCard:      "DebitCard",
	PaymentTypeCreditCard:     "CreditCard",
	PaymentTypeDirectDebit:    "DirectDebit",
	PaymentTypeBankTransfer:   "BankTransfer",
	PaymentTypeInternalCredit: "InternalCredit",
}

func (t PaymentType) String() string {
	if t < 0 || int(t) >= len(paymentTypeNames) {
		return paymentTypeNames[PaymentTypeNone]
	}
	return paymentTypeNames[t]
}

// ParsePaymentType maps a name back to its PaymentType. Unknown names yield PaymentTypeNone.
func ParsePaymentType(name string) PaymentType {
	for i, n := range paymentTypeNames {
		if n == name {
			return PaymentType(i)
		}
	}
	return PaymentTypeNone
}

// Policy is the aggregate root of an insurance contract. StartDate and EndDate
// are calendar dates held at UTC midnight.
type Policy struct {
	ID          int64
	StartDate   time.Time
	EndDate     time.Time
	Amount      decimal.Decimal
	AutoRenew   bool
	Cancelled   bool
	CancelledAt *time.Time
	Property    PolicyProperty
	Holders     []PolicyHolder
	Payments    []Payment
	Refunds     []Refund
}

type PolicyHolder struct {
	ID          int64
	PolicyID    int64
	FirstName   string
	LastName    string
	DateOfBirth time.Time
}

type PolicyProperty struct {
	ID           int64
	PolicyID     int64
	AddressLine1 string
	AddressLine2 string
	AddressLine3 string
	PostCode     string
}

type Payment struct {
	ID        int64
	PolicyID  int64
	Type      PaymentType
	Amount    decimal.Decimal
	CreatedAt time.Time
}

type Refund struct {
	ID        int64
	PolicyID  int64
	Type      PaymentType
	Amount    decimal.Decimal
	CreatedAt time.Time
	Reason    string
}

// TotalPaid sums every payment recorded against the policy.
func (p Policy) TotalPaid() decimal.Decimal {
	total := decimal.Zero
	for _, pay := range p.Payments {
		total = total.Add(pay.Amount)
	}
	return total
}

// PolicyRepo persists the policy header and the records it owns.
type PolicyRepo interface {
	GetPolicy(ctx context.Context, id int64) (Policy, error)
	AddPolicy(ctx context.Context, p Policy) (Policy, error)
	AddPropertyToPolicy(ctx context.Context, policyID int64, prop PolicyProperty) error
	AddHolderToPolicy(ctx context.Context, policyID int64, h PolicyHolder) error
	// CancelPolicy sets the cancelled flag. It reports false when nothing was cancelled.
	CancelPolicy(ctx context.Context, policyID int64) (bool, error)
}

// PaymentRepo appends payment and refund records. Records are never updated or removed.
type PaymentRepo interface {
	AddPaymentToPolicy(ctx context.Context, policyID int64, p Payment) (Payment, error)
	AddRefundToPolicy(ctx context.Context, policyID int64, r Refund) (Refund, error)
}

type Repository interface {
	PolicyRepo
	PaymentRepo
}

// Transactor runs fn as a single unit of work where the backend supports it.
type Transactor interface {
	WithTx(ctx context.Context, fn func(repo Repository) error) error
}

// Store is what the lifecycle orchestrator needs from a backend.
type Store interface {
	Repository
	Transactor
}

var (
	ErrPolicyNotFound         = newError(ErrNotFound, "Policy not found")
	ErrPolicyExpired          = newError(ErrInvalidState, "Policy has already expired")
	ErrPolicyExpiredRenew     = newError(ErrPolicyExpired, "Policy has already expired and cannot be renewed")
	ErrPolicyExpiredCancel    = newError(ErrPolicyExpired, "Policy has already expired and cannot be cancelled")
	ErrOutsideRenewalWindow   = newError(ErrInvalidState, "Policy can only be renewed within 30 days of its expiration date")
	ErrPolicyAlreadyCancelled = newError(ErrInvalidState, "Policy has already been cancelled")
	ErrPropertyExists         = newError(ErrConflict, "Policy already has a property")
)
