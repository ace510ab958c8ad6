package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrKriegler/go-policy-admin/pkg/policyapi"
)

// Quote is the priced offer a policy is created from.
type Quote struct {
	ID        int64
	StartDate time.Time
	EndDate   time.Time
	Amount    decimal.Decimal
	Property  PolicyProperty
	Holders   []PolicyHolder
	CreatedAt time.Time
}

type QuoteRepo interface {
	CreateQuote(ctx context.Context, q Quote) (Quote, error)
	GetQuote(ctx context.Context, id int64) (Quote, error)
}

type QuoteService interface {
	// Create validates and stores a quote request.
	Create(ctx context.Context, in policyapi.QuoteRequest) (policyapi.Quote, error)

	// Get loads a stored quote.
	Get(ctx context.Context, id int64) (Quote, error)
}

var (
	ErrQuoteNotFound = newError(ErrNotFound, "Quote not found")
)
