package mongo

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/MrKriegler/go-policy-admin/internal/core"
)

const (
	ColPolicies = "policies"
	ColQuotes   = "quotes"
	ColCounters = "counters"
)

// PolicyDoc stores the whole aggregate in one document.
type PolicyDoc struct {
	ID          int64                `bson:"_id"`
	StartDate   time.Time            `bson:"start_date"`
	EndDate     time.Time            `bson:"end_date"`
	Amount      primitive.Decimal128 `bson:"amount"`
	AutoRenew   bool                 `bson:"auto_renew"`
	Cancelled   bool                 `bson:"cancelled"`
	CancelledAt *time.Time           `bson:"cancelled_at,omitempty"`
	Property    *PropertyDoc         `bson:"property,omitempty"`
	Holders     []HolderDoc          `bson:"holders"`
	Payments    []PaymentDoc         `bson:"payments"`
	Refunds     []RefundDoc          `bson:"refunds"`
}

type PropertyDoc struct {
	ID           int64  `bson:"id"`
	AddressLine1 string `bson:"address_line1"`
	AddressLine2 string `bson:"address_line2,omitempty"`
	AddressLine3 string `bson:"address_line3,omitempty"`
	PostCode     string `bson:"post_code"`
}

type HolderDoc struct {
	ID          int64     `bson:"id"`
	FirstName   string    `bson:"first_name"`
	LastName    string    `bson:"last_name"`
	DateOfBirth time.Time `bson:"date_of_birth"`
}

type PaymentDoc struct {
	ID          int64                `bson:"id"`
	PaymentType int                  `bson:"payment_type"`
	Amount      primitive.Decimal128 `bson:"amount"`
	CreatedAt   time.Time            `bson:"created_at"`
}

type RefundDoc struct {
	ID          int64                `bson:"id"`
	PaymentType int                  `bson:"payment_type"`
	Amount      primitive.Decimal128 `bson:"amount"`
	CreatedAt   time.Time            `bson:"created_at"`
	Reason      string               `bson:"reason"`
}

type QuoteDoc struct {
	ID        int64                `bson:"_id"`
	StartDate time.Time            `bson:"start_date"`
	EndDate   time.Time            `bson:"end_date"`
	Amount    primitive.Decimal128 `bson:"amount"`
	Property  PropertyDoc          `bson:"property"`
	Holders   []HolderDoc          `bson:"holders"`
	CreatedAt time.Time            `bson:"created_at"`
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	out, ok := primitive.ParseDecimal128FromBigInt(d.Coefficient(), int(d.Exponent()))
	if !ok {
		return primitive.Decimal128{}, fmt.Errorf("amount %s out of decimal128 range", d)
	}
	return out, nil
}

func fromDecimal128(d primitive.Decimal128) (decimal.Decimal, error) {
	bi, exp, err := d.BigInt()
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("decode decimal128: %w", err)
	}
	return decimal.NewFromBigInt(bi, int32(exp)), nil
}

func fromPolicyDoc(d PolicyDoc) (core.Policy, error) {
	amount, err := fromDecimal128(d.Amount)
	if err != nil {
		return core.Policy{}, err
	}
	p := core.Policy{
		ID:          d.ID,
		StartDate:   core.DateOf(d.StartDate),
		EndDate:     core.DateOf(d.EndDate),
		Amount:      amount,
		AutoRenew:   d.AutoRenew,
		Cancelled:   d.Cancelled,
		CancelledAt: d.CancelledAt,
		Holders:     make([]core.PolicyHolder, 0, len(d.Holders)),
		Payments:    make([]core.Payment, 0, len(d.Payments)),
		Refunds:     make([]core.Refund, 0, len(d.Refunds)),
	}
	if d.Property != nil {
		p.Property = fromPropertyDoc(*d.Property, d.ID)
	}
	for _, h := range d.Holders {
		p.Holders = append(p.Holders, fromHolderDoc(h, d.ID))
	}
	for _, pay := range d.Payments {
		amt, err := fromDecimal128(pay.Amount)
		if err != nil {
			return core.Policy{}, err
		}
		p.Payments = append(p.Payments, core.Payment{
			ID:        pay.ID,
			PolicyID:  d.ID,
			Type:      core.PaymentType(pay.PaymentType),
			Amount:    amt,
			CreatedAt: pay.CreatedAt.UTC(),
		})
	}
	for _, r := range d.Refunds {
		amt, err := fromDecimal128(r.Amount)
		if err != nil {
			return core.Policy{}, err
		}
		p.Refunds = append(p.Refunds, core.Refund{
			ID:        r.ID,
			PolicyID:  d.ID,
			Type:      core.PaymentType(r.PaymentType),
			Amount:    amt,
			CreatedAt: r.CreatedAt.UTC(),
			Reason:    r.Reason,
		})
	}
	return p, nil
}

func toPropertyDoc(p core.PolicyProperty) PropertyDoc {
	return PropertyDoc{
		ID:           p.ID,
		AddressLine1: p.AddressLine1,
		AddressLine2: p.AddressLine2,
		AddressLine3: p.AddressLine3,
		PostCode:     p.PostCode,
	}
}

func fromPropertyDoc(d PropertyDoc, policyID int64) core.PolicyProperty {
	return core.PolicyProperty{
		ID:           d.ID,
		PolicyID:     policyID,
		AddressLine1: d.AddressLine1,
		AddressLine2: d.AddressLine2,
		AddressLine3: d.AddressLine3,
		PostCode:     d.PostCode,
	}
}

func toHolderDoc(h core.PolicyHolder) HolderDoc {
	return HolderDoc{
		ID:          h.ID,
		FirstName:   h.FirstName,
		LastName:    h.LastName,
		DateOfBirth: core.DateOf(h.DateOfBirth),
	}
}

func fromHolderDoc(d HolderDoc, policyID int64) core.PolicyHolder {
	return core.PolicyHolder{
		ID:          d.ID,
		PolicyID:    policyID,
		FirstName:   d.FirstName,
		LastName:    d.LastName,
		DateOfBirth: core.DateOf(d.DateOfBirth),
	}
}

func toQuoteDoc(q core.Quote) (QuoteDoc, error) {
	amount, err := toDecimal128(q.Amount)
	if err != nil {
		return QuoteDoc{}, err
	}
	doc := QuoteDoc{
		ID:        q.ID,
		StartDate: core.DateOf(q.StartDate),
		EndDate:   core.DateOf(q.EndDate),
		Amount:    amount,
		Property:  toPropertyDoc(q.Property),
		Holders:   make([]HolderDoc, 0, len(q.Holders)),
		CreatedAt: q.CreatedAt,
	}
	for _, h := range q.Holders {
		doc.Holders = append(doc.Holders, toHolderDoc(h))
	}
	return doc, nil
}

func fromQuoteDoc(d QuoteDoc) (core.Quote, error) {
	amount, err := fromDecimal128(d.Amount)
	if err != nil {
		return core.Quote{}, err
	}
	q := core.Quote{
		ID:        d.ID,
		StartDate: core.DateOf(d.StartDate),
		EndDate:   core.DateOf(d.EndDate),
		Amount:    amount,
		Property:  fromPropertyDoc(d.Property, 0),
		Holders:   make([]core.PolicyHolder, 0, len(d.Holders)),
		CreatedAt: d.CreatedAt.UTC(),
	}
	for _, h := range d.Holders {
		q.Holders = append(q.Holders, fromHolderDoc(h, 0))
	}
	return q, nil
}
