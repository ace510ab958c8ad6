package core

import (
	"github.com/MrKriegler/go-policy-admin/pkg/policyapi"
)

func PolicyToModel(p Policy) policyapi.Policy {
	return policyapi.Policy{
		ID:          p.ID,
		StartDate:   policyapi.NewDate(p.StartDate),
		EndDate:     policyapi.NewDate(p.EndDate),
		Amount:      p.Amount,
		AutoRenew:   p.AutoRenew,
		Cancelled:   p.Cancelled,
		CancelledAt: p.CancelledAt,
		Property:    PropertyToModel(p.Property),
		Holders:     mapSlice(p.Holders, HolderToModel),
		Payments:    mapSlice(p.Payments, PaymentToModel),
		Refunds:     mapSlice(p.Refunds, RefundToModel),
	}
}

func PolicyFromModel(m policyapi.Policy) Policy {
	return Policy{
		ID:          m.ID,
		StartDate:   m.StartDate.Time,
		EndDate:     m.EndDate.Time,
		Amount:      m.Amount,
		AutoRenew:   m.AutoRenew,
		Cancelled:   m.Cancelled,
		CancelledAt: m.CancelledAt,
		Property:    PropertyFromModel(m.Property),
		Holders:     mapSlice(m.Holders, HolderFromModel),
		Payments:    mapSlice(m.Payments, PaymentFromModel),
		Refunds:     mapSlice(m.Refunds, RefundFromModel),
	}
}

func HolderToModel(h PolicyHolder) policyapi.Holder {
	return policyapi.Holder{
		ID:          h.ID,
		PolicyID:    h.PolicyID,
		FirstName:   h.FirstName,
		LastName:    h.LastName,
		DateOfBirth: policyapi.NewDate(h.DateOfBirth),
	}
}

func HolderFromModel(m policyapi.Holder) PolicyHolder {
	return PolicyHolder{
		ID:          m.ID,
		PolicyID:    m.PolicyID,
		FirstName:   m.FirstName,
		LastName:    m.LastName,
		DateOfBirth: m.DateOfBirth.Time,
	}
}

func PropertyToModel(p PolicyProperty) policyapi.Property {
	return policyapi.Property{
		ID:           p.ID,
		PolicyID:     p.PolicyID,
		AddressLine1: p.AddressLine1,
		AddressLine2: p.AddressLine2,
		AddressLine3: p.AddressLine3,
		PostCode:     p.PostCode,
	}
}

func PropertyFromModel(m policyapi.Property) PolicyProperty {
	return PolicyProperty{
		ID:           m.ID,
		PolicyID:     m.PolicyID,
		AddressLine1: m.AddressLine1,
		AddressLine2: m.AddressLine2,
		AddressLine3: m.AddressLine3,
		PostCode:     m.PostCode,
	}
}

func PaymentToModel(p Payment) policyapi.Payment {
	return policyapi.Payment{
		ID:          p.ID,
		PolicyID:    p.PolicyID,
		PaymentType: policyapi.PaymentType(p.Type.String()),
		Amount:      p.Amount,
		CreatedAt:   p.CreatedAt,
	}
}

func PaymentFromModel(m policyapi.Payment) Payment {
	return Payment{
		ID:        m.ID,
		PolicyID:  m.PolicyID,
		Type:      ParsePaymentType(string(m.PaymentType)),
		Amount:    m.Amount,
		CreatedAt: m.CreatedAt,
	}
}

func RefundToModel(r Refund) policyapi.Refund {
	return policyapi.Refund{
		ID:          r.ID,
		PolicyID:    r.PolicyID,
		PaymentType: policyapi.PaymentType(r.Type.String()),
		Amount:      r.Amount,
		CreatedAt:   r.CreatedAt,
		Reason:      r.Reason,
	}
}

func RefundFromModel(m policyapi.Refund) Refund {
	return Refund{
		ID:        m.ID,
		PolicyID:  m.PolicyID,
		Type:      ParsePaymentType(string(m.PaymentType)),
		Amount:    m.Amount,
		CreatedAt: m.CreatedAt,
		Reason:    m.Reason,
	}
}

func QuoteToModel(q Quote) policyapi.Quote {
	return policyapi.Quote{
		ID:        q.ID,
		StartDate: policyapi.NewDate(q.StartDate),
		EndDate:   policyapi.NewDate(q.EndDate),
		Amount:    q.Amount,
		Property:  PropertyToModel(q.Property),
		Holders:   mapSlice(q.Holders, HolderToModel),
		CreatedAt: q.CreatedAt,
	}
}

func QuoteFromRequest(in policyapi.QuoteRequest) Quote {
	return Quote{
		StartDate: in.StartDate.Time,
		EndDate:   in.EndDate.Time,
		Amount:    in.Amount,
		Property:  PropertyFromModel(in.Property),
		Holders:   mapSlice(in.Holders, HolderFromModel),
	}
}

// mapSlice never returns nil so empty collections encode as [].
func mapSlice[S, D any](in []S, f func(S) D) []D {
	out := make([]D, 0, len(in))
	for _, v := range in {
		out = append(out, f(v))
	}
	return out
}
