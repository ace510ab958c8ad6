package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type EventType string

const (
	EventPolicyCreated   EventType = "policy.created"
	EventPolicyRenewed   EventType = "policy.renewed"
	EventPolicyCancelled EventType = "policy.cancelled"
	EventPaymentRaised   EventType = "payment.raised"
	EventRefundRaised    EventType = "refund.raised"
)

// Event notifies downstream systems (payments, documents) of a lifecycle change.
type Event struct {
	Type        EventType
	PolicyID    int64
	Amount      decimal.Decimal
	PaymentType PaymentType
	Reason      string
	OccurredAt  time.Time
}

type EventPublisher interface {
	Publish(ctx context.Context, events ...Event) error
}

type Operation string

const (
	OpGet    Operation = "get"
	OpCreate Operation = "create"
	OpRenew  Operation = "renew"
	OpCancel Operation = "cancel"
)

// LifecycleObserver receives the outcome of each orchestrator operation.
type LifecycleObserver interface {
	ObserveOperation(op Operation, err error)
	ObserveRefund(amount decimal.Decimal, typ PaymentType)
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, ...Event) error { return nil }

type noopObserver struct{}

func (noopObserver) ObserveOperation(Operation, error)          {}
func (noopObserver) ObserveRefund(decimal.Decimal, PaymentType) {}
