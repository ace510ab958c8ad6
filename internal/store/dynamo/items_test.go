package dynamo

import (
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrKriegler/go-policy-admin/internal/core"
)

func TestQuoteItemThroughAttributeValues(t *testing.T) {
	q := core.Quote{
		ID:        4,
		StartDate: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC),
		Amount:    decimal.RequireFromString("300.10"),
		Property:  core.PolicyProperty{AddressLine1: "1 Mill Lane", PostCode: "OX1 1AA"},
		Holders:   []core.PolicyHolder{{FirstName: "Ann", LastName: "Smith", DateOfBirth: time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC)}},
		CreatedAt: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
	}

	av, err := attributevalue.MarshalMap(quoteItemFromCore(q))
	require.NoError(t, err)
	assert.Contains(t, av, "id")

	var item QuoteItem
	require.NoError(t, attributevalue.UnmarshalMap(av, &item))
	assert.Equal(t, "2024-03-10", item.StartDate)

	got, err := item.ToCore()
	require.NoError(t, err)
	assert.Equal(t, q.StartDate, got.StartDate)
	assert.True(t, q.Amount.Equal(got.Amount))
	assert.Equal(t, q.Holders[0].DateOfBirth, got.Holders[0].DateOfBirth)
	assert.Equal(t, q.CreatedAt, got.CreatedAt)
}

func TestPolicyItemToCore(t *testing.T) {
	item := PolicyItem{
		ID:          7,
		StartDate:   "2024-03-01",
		EndDate:     "2025-02-28",
		Amount:      "480.00",
		Cancelled:   true,
		CancelledAt: "2024-03-05T10:00:00Z",
		Property:    &PropertyItem{ID: 3, PostCode: "OX1 1AA"},
		Payments: []PaymentItem{
			{ID: 1, PaymentType: int(core.PaymentTypeDirectDebit), Amount: "480.00", CreatedAt: "2024-02-20T09:00:00Z"},
		},
	}

	p, err := item.ToCore()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC), p.EndDate)
	require.NotNil(t, p.CancelledAt)
	assert.Equal(t, int64(7), p.Property.PolicyID)
	require.Len(t, p.Payments, 1)
	assert.Equal(t, core.PaymentTypeDirectDebit, p.Payments[0].Type)
	assert.NotNil(t, p.Holders)
	assert.NotNil(t, p.Refunds)
}

func TestPolicyItemToCore_Malformed(t *testing.T) {
	tests := map[string]PolicyItem{
		"bad start date": {StartDate: "01/03/2024", EndDate: "2025-02-28", Amount: "1"},
		"bad amount":     {StartDate: "2024-03-01", EndDate: "2025-02-28", Amount: "ten"},
		"bad payment timestamp": {
			StartDate: "2024-03-01", EndDate: "2025-02-28", Amount: "1",
			Payments: []PaymentItem{{Amount: "1", CreatedAt: "yesterday"}},
		},
	}
	for name, item := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := item.ToCore()
			assert.Error(t, err)
		})
	}
}
