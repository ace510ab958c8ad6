package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrKriegler/go-policy-admin/internal/core"
)

type PgPolicy struct {
	ID          int64           `db:"id"           goqu:"skipinsert"`
	StartDate   time.Time       `db:"start_date"`
	EndDate     time.Time       `db:"end_date"`
	Amount      decimal.Decimal `db:"amount"`
	AutoRenew   bool            `db:"auto_renew"`
	Cancelled   bool            `db:"cancelled"    goqu:"skipinsert"`
	CancelledAt sql.NullTime    `db:"cancelled_at" goqu:"skipinsert"`
}

func (p PgPolicy) ToDomain() core.Policy {
	out := core.Policy{
		ID:        p.ID,
		StartDate: core.DateOf(p.StartDate),
		EndDate:   core.DateOf(p.EndDate),
		Amount:    p.Amount,
		AutoRenew: p.AutoRenew,
		Cancelled: p.Cancelled,
	}
	if p.CancelledAt.Valid {
		at := p.CancelledAt.Time.UTC()
		out.CancelledAt = &at
	}
	return out
}

func pgPolicyFromDomain(p core.Policy) PgPolicy {
	return PgPolicy{
		StartDate: core.DateOf(p.StartDate),
		EndDate:   core.DateOf(p.EndDate),
		Amount:    p.Amount,
		AutoRenew: p.AutoRenew,
	}
}

type PgProperty struct {
	ID           int64  `db:"id"        goqu:"skipinsert"`
	PolicyID     int64  `db:"policy_id"`
	AddressLine1 string `db:"address_line1"`
	AddressLine2 string `db:"address_line2"`
	AddressLine3 string `db:"address_line3"`
	PostCode     string `db:"post_code"`
}

func (p PgProperty) ToDomain() core.PolicyProperty {
	return core.PolicyProperty{
		ID:           p.ID,
		PolicyID:     p.PolicyID,
		AddressLine1: p.AddressLine1,
		AddressLine2: p.AddressLine2,
		AddressLine3: p.AddressLine3,
		PostCode:     p.PostCode,
	}
}

type PgHolder struct {
	ID          int64     `db:"id"        goqu:"skipinsert"`
	PolicyID    int64     `db:"policy_id"`
	FirstName   string    `db:"first_name"`
	LastName    string    `db:"last_name"`
	DateOfBirth time.Time `db:"date_of_birth"`
}

func (h PgHolder) ToDomain() core.PolicyHolder {
	return core.PolicyHolder{
		ID:          h.ID,
		PolicyID:    h.PolicyID,
		FirstName:   h.FirstName,
		LastName:    h.LastName,
		DateOfBirth: core.DateOf(h.DateOfBirth),
	}
}

type PgPayment struct {
	ID          int64           `db:"id"        goqu:"skipinsert"`
	PolicyID    int64           `db:"policy_id"`
	PaymentType int16           `db:"payment_type"`
	Amount      decimal.Decimal `db:"amount"`
	CreatedAt   time.Time       `db:"created_at"`
}

func (p PgPayment) ToDomain() core.Payment {
	return core.Payment{
		ID:        p.ID,
		PolicyID:  p.PolicyID,
		Type:      core.PaymentType(p.PaymentType),
		Amount:    p.Amount,
		CreatedAt: p.CreatedAt.UTC(),
	}
}

type PgRefund struct {
	ID          int64           `db:"id"        goqu:"skipinsert"`
	PolicyID    int64           `db:"policy_id"`
	PaymentType int16           `db:"payment_type"`
	Amount      decimal.Decimal `db:"amount"`
	Reason      string          `db:"reason"`
	CreatedAt   time.Time       `db:"created_at"`
}

func (r PgRefund) ToDomain() core.Refund {
	return core.Refund{
		ID:        r.ID,
		PolicyID:  r.PolicyID,
		Type:      core.PaymentType(r.PaymentType),
		Amount:    r.Amount,
		Reason:    r.Reason,
		CreatedAt: r.CreatedAt.UTC(),
	}
}

type PgQuote struct {
	ID        int64           `db:"id"       goqu:"skipinsert"`
	StartDate time.Time       `db:"start_date"`
	EndDate   time.Time       `db:"end_date"`
	Amount    decimal.Decimal `db:"amount"`
	Property  json.RawMessage `db:"property"`
	Holders   json.RawMessage `db:"holders"`
	CreatedAt time.Time       `db:"created_at"`
}

// quoteHolder is the JSONB shape of a holder stored with a quote.
type quoteHolder struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	DateOfBirth string `json:"date_of_birth"`
}

type quoteProperty struct {
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2,omitempty"`
	AddressLine3 string `json:"address_line3,omitempty"`
	PostCode     string `json:"post_code"`
}

const dateLayout = "2006-01-02"

func (q PgQuote) ToDomain() (core.Quote, error) {
	var prop quoteProperty
	if err := json.Unmarshal(q.Property, &prop); err != nil {
		return core.Quote{}, fmt.Errorf("could not unmarshal quote property: %w", err)
	}
	var holders []quoteHolder
	if err := json.Unmarshal(q.Holders, &holders); err != nil {
		return core.Quote{}, fmt.Errorf("could not unmarshal quote holders: %w", err)
	}

	out := core.Quote{
		ID:        q.ID,
		StartDate: core.DateOf(q.StartDate),
		EndDate:   core.DateOf(q.EndDate),
		Amount:    q.Amount,
		Property: core.PolicyProperty{
			AddressLine1: prop.AddressLine1,
			AddressLine2: prop.AddressLine2,
			AddressLine3: prop.AddressLine3,
			PostCode:     prop.PostCode,
		},
		Holders:   make([]core.PolicyHolder, 0, len(holders)),
		CreatedAt: q.CreatedAt.UTC(),
	}
	for _, h := range holders {
		dob, err := time.Parse(dateLayout, h.DateOfBirth)
		if err != nil {
			return core.Quote{}, fmt.Errorf("could not parse holder date of birth: %w", err)
		}
		out.Holders = append(out.Holders, core.PolicyHolder{
			FirstName:   h.FirstName,
			LastName:    h.LastName,
			DateOfBirth: dob,
		})
	}
	return out, nil
}

func pgQuoteFromDomain(q core.Quote) (PgQuote, error) {
	prop, err := json.Marshal(quoteProperty{
		AddressLine1: q.Property.AddressLine1,
		AddressLine2: q.Property.AddressLine2,
		AddressLine3: q.Property.AddressLine3,
		PostCode:     q.Property.PostCode,
	})
	if err != nil {
		return PgQuote{}, fmt.Errorf("could not marshal quote property: %w", err)
	}

	holders := make([]quoteHolder, 0, len(q.Holders))
	for _, h := range q.Holders {
		holders = append(holders, quoteHolder{
			FirstName:   h.FirstName,
			LastName:    h.LastName,
			DateOfBirth: h.DateOfBirth.Format(dateLayout),
		})
	}
	hs, err := json.Marshal(holders)
	if err != nil {
		return PgQuote{}, fmt.Errorf("could not marshal quote holders: %w", err)
	}

	return PgQuote{
		StartDate: core.DateOf(q.StartDate),
		EndDate:   core.DateOf(q.EndDate),
		Amount:    q.Amount,
		Property:  prop,
		Holders:   hs,
		CreatedAt: q.CreatedAt,
	}, nil
}
