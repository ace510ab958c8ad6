package dynamo

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrKriegler/go-policy-admin/internal/core"
)

const dateLayout = "2006-01-02"

// PolicyItem holds the whole aggregate. Dates are "YYYY-MM-DD", amounts decimal strings.
type PolicyItem struct {
	ID          int64         `dynamodbav:"id"`
	StartDate   string        `dynamodbav:"start_date"`
	EndDate     string        `dynamodbav:"end_date"`
	Amount      string        `dynamodbav:"amount"`
	AutoRenew   bool          `dynamodbav:"auto_renew"`
	Cancelled   bool          `dynamodbav:"cancelled"`
	CancelledAt string        `dynamodbav:"cancelled_at,omitempty"`
	Property    *PropertyItem `dynamodbav:"property,omitempty"`
	Holders     []HolderItem  `dynamodbav:"holders"`
	Payments    []PaymentItem `dynamodbav:"payments"`
	Refunds     []RefundItem  `dynamodbav:"refunds"`
}

type PropertyItem struct {
	ID           int64  `dynamodbav:"id"`
	AddressLine1 string `dynamodbav:"address_line1"`
	AddressLine2 string `dynamodbav:"address_line2,omitempty"`
	AddressLine3 string `dynamodbav:"address_line3,omitempty"`
	PostCode     string `dynamodbav:"post_code"`
}

type HolderItem struct {
	ID          int64  `dynamodbav:"id"`
	FirstName   string `dynamodbav:"first_name"`
	LastName    string `dynamodbav:"last_name"`
	DateOfBirth string `dynamodbav:"date_of_birth"`
}

type PaymentItem struct {
	ID          int64  `dynamodbav:"id"`
	PaymentType int    `dynamodbav:"payment_type"`
	Amount      string `dynamodbav:"amount"`
	CreatedAt   string `dynamodbav:"created_at"`
}

type RefundItem struct {
	ID          int64  `dynamodbav:"id"`
	PaymentType int    `dynamodbav:"payment_type"`
	Amount      string `dynamodbav:"amount"`
	CreatedAt   string `dynamodbav:"created_at"`
	Reason      string `dynamodbav:"reason"`
}

type QuoteItem struct {
	ID        int64        `dynamodbav:"id"`
	StartDate string       `dynamodbav:"start_date"`
	EndDate   string       `dynamodbav:"end_date"`
	Amount    string       `dynamodbav:"amount"`
	Property  PropertyItem `dynamodbav:"property"`
	Holders   []HolderItem `dynamodbav:"holders"`
	CreatedAt string       `dynamodbav:"created_at"`
}

func formatDate(t time.Time) string { return t.Format(dateLayout) }

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

func (i PolicyItem) ToCore() (core.Policy, error) {
	start, err := parseDate(i.StartDate)
	if err != nil {
		return core.Policy{}, err
	}
	end, err := parseDate(i.EndDate)
	if err != nil {
		return core.Policy{}, err
	}
	amount, err := decimal.NewFromString(i.Amount)
	if err != nil {
		return core.Policy{}, fmt.Errorf("parse amount: %w", err)
	}

	p := core.Policy{
		ID:        i.ID,
		StartDate: start,
		EndDate:   end,
		Amount:    amount,
		AutoRenew: i.AutoRenew,
		Cancelled: i.Cancelled,
		Holders:   make([]core.PolicyHolder, 0, len(i.Holders)),
		Payments:  make([]core.Payment, 0, len(i.Payments)),
		Refunds:   make([]core.Refund, 0, len(i.Refunds)),
	}
	if i.CancelledAt != "" {
		at, err := parseTimestamp(i.CancelledAt)
		if err != nil {
			return core.Policy{}, err
		}
		p.CancelledAt = &at
	}
	if i.Property != nil {
		p.Property = i.Property.toCore(i.ID)
	}
	for _, h := range i.Holders {
		holder, err := h.toCore(i.ID)
		if err != nil {
			return core.Policy{}, err
		}
		p.Holders = append(p.Holders, holder)
	}
	for _, pay := range i.Payments {
		amt, err := decimal.NewFromString(pay.Amount)
		if err != nil {
			return core.Policy{}, fmt.Errorf("parse payment amount: %w", err)
		}
		at, err := parseTimestamp(pay.CreatedAt)
		if err != nil {
			return core.Policy{}, err
		}
		p.Payments = append(p.Payments, core.Payment{
			ID: pay.ID, PolicyID: i.ID, Type: core.PaymentType(pay.PaymentType), Amount: amt, CreatedAt: at,
		})
	}
	for _, r := range i.Refunds {
		amt, err := decimal.NewFromString(r.Amount)
		if err != nil {
			return core.Policy{}, fmt.Errorf("parse refund amount: %w", err)
		}
		at, err := parseTimestamp(r.CreatedAt)
		if err != nil {
			return core.Policy{}, err
		}
		p.Refunds = append(p.Refunds, core.Refund{
			ID: r.ID, PolicyID: i.ID, Type: core.PaymentType(r.PaymentType), Amount: amt, CreatedAt: at, Reason: r.Reason,
		})
	}
	return p, nil
}

func propertyItemFromCore(p core.PolicyProperty) PropertyItem {
	return PropertyItem{
		ID:           p.ID,
		AddressLine1: p.AddressLine1,
		AddressLine2: p.AddressLine2,
		AddressLine3: p.AddressLine3,
		PostCode:     p.PostCode,
	}
}

func (i PropertyItem) toCore(policyID int64) core.PolicyProperty {
	return core.PolicyProperty{
		ID:           i.ID,
		PolicyID:     policyID,
		AddressLine1: i.AddressLine1,
		AddressLine2: i.AddressLine2,
		AddressLine3: i.AddressLine3,
		PostCode:     i.PostCode,
	}
}

func holderItemFromCore(h core.PolicyHolder) HolderItem {
	return HolderItem{
		ID:          h.ID,
		FirstName:   h.FirstName,
		LastName:    h.LastName,
		DateOfBirth: formatDate(h.DateOfBirth),
	}
}

func (i HolderItem) toCore(policyID int64) (core.PolicyHolder, error) {
	dob, err := parseDate(i.DateOfBirth)
	if err != nil {
		return core.PolicyHolder{}, err
	}
	return core.PolicyHolder{
		ID:          i.ID,
		PolicyID:    policyID,
		FirstName:   i.FirstName,
		LastName:    i.LastName,
		DateOfBirth: dob,
	}, nil
}

func quoteItemFromCore(q core.Quote) QuoteItem {
	item := QuoteItem{
		ID:        q.ID,
		StartDate: formatDate(q.StartDate),
		EndDate:   formatDate(q.EndDate),
		Amount:    q.Amount.String(),
		Property:  propertyItemFromCore(q.Property),
		Holders:   make([]HolderItem, 0, len(q.Holders)),
		CreatedAt: q.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	for _, h := range q.Holders {
		item.Holders = append(item.Holders, holderItemFromCore(h))
	}
	return item
}

func (i QuoteItem) ToCore() (core.Quote, error) {
	start, err := parseDate(i.StartDate)
	if err != nil {
		return core.Quote{}, err
	}
	end, err := parseDate(i.EndDate)
	if err != nil {
		return core.Quote{}, err
	}
	amount, err := decimal.NewFromString(i.Amount)
	if err != nil {
		return core.Quote{}, fmt.Errorf("parse amount: %w", err)
	}
	createdAt, err := parseTimestamp(i.CreatedAt)
	if err != nil {
		return core.Quote{}, err
	}

	q := core.Quote{
		ID:        i.ID,
		StartDate: start,
		EndDate:   end,
		Amount:    amount,
		Property:  i.Property.toCore(0),
		Holders:   make([]core.PolicyHolder, 0, len(i.Holders)),
		CreatedAt: createdAt,
	}
	for _, h := range i.Holders {
		holder, err := h.toCore(0)
		if err != nil {
			return core.Quote{}, err
		}
		q.Holders = append(q.Holders, holder)
	}
	return q, nil
}
