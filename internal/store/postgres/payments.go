package postgres

import (
	"context"
	"fmt"

	"github.com/MrKriegler/go-policy-admin/internal/core"
)

const (
	paymentsTable = "payments"
	refundsTable  = "refunds"
)

func (p *PgSQL) AddPaymentToPolicy(ctx context.Context, policyID int64, pay core.Payment) (core.Payment, error) {
	var row PgPayment
	if _, err := p.Builder.Insert(paymentsTable).
		Rows(PgPayment{
			PolicyID:    policyID,
			PaymentType: int16(pay.Type),
			Amount:      pay.Amount,
			CreatedAt:   pay.CreatedAt,
		}).
		Returning(&PgPayment{}).
		Prepared(true).
		Executor().ScanStructContext(ctx, &row); err != nil {
		return core.Payment{}, fmt.Errorf("could not insert payment into pg: %w", err)
	}
	return row.ToDomain(), nil
}

func (p *PgSQL) AddRefundToPolicy(ctx context.Context, policyID int64, r core.Refund) (core.Refund, error) {
	var row PgRefund
	if _, err := p.Builder.Insert(refundsTable).
		Rows(PgRefund{
			PolicyID:    policyID,
			PaymentType: int16(r.Type),
			Amount:      r.Amount,
			Reason:      r.Reason,
			CreatedAt:   r.CreatedAt,
		}).
		Returning(&PgRefund{}).
		Prepared(true).
		Executor().ScanStructContext(ctx, &row); err != nil {
		return core.Refund{}, fmt.Errorf("could not insert refund into pg: %w", err)
	}
	return row.ToDomain(), nil
}
