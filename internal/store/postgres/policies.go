package postgres

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/MrKriegler/go-policy-admin/internal/core"
)

const (
	policiesTable   = "policies"
	propertiesTable = "policy_properties"
	holdersTable    = "policy_holders"
)

// GetPolicy loads the header and every record the policy owns.
func (p *PgSQL) GetPolicy(ctx context.Context, id int64) (core.Policy, error) {
	var row PgPolicy
	found, err := p.Builder.From(policiesTable).
		Where(goqu.I("id").Eq(id)).
		Prepared(true).
		ScanStructContext(ctx, &row)
	if err != nil {
		return core.Policy{}, fmt.Errorf("could not get policy from pg: %w", err)
	}
	if !found {
		return core.Policy{}, core.ErrPolicyNotFound
	}
	policy := row.ToDomain()

	var prop PgProperty
	found, err = p.Builder.From(propertiesTable).
		Where(goqu.I("policy_id").Eq(id)).
		Prepared(true).
		ScanStructContext(ctx, &prop)
	if err != nil {
		return core.Policy{}, fmt.Errorf("could not get policy property from pg: %w", err)
	}
	if found {
		policy.Property = prop.ToDomain()
	}

	var holders []PgHolder
	if err := p.byPolicy(holdersTable, id).ScanStructsContext(ctx, &holders); err != nil {
		return core.Policy{}, fmt.Errorf("could not get policy holders from pg: %w", err)
	}
	var payments []PgPayment
	if err := p.byPolicy(paymentsTable, id).ScanStructsContext(ctx, &payments); err != nil {
		return core.Policy{}, fmt.Errorf("could not get payments from pg: %w", err)
	}
	var refunds []PgRefund
	if err := p.byPolicy(refundsTable, id).ScanStructsContext(ctx, &refunds); err != nil {
		return core.Policy{}, fmt.Errorf("could not get refunds from pg: %w", err)
	}

	policy.Holders = make([]core.PolicyHolder, 0, len(holders))
	for _, h := range holders {
		policy.Holders = append(policy.Holders, h.ToDomain())
	}
	policy.Payments = make([]core.Payment, 0, len(payments))
	for _, pay := range payments {
		policy.Payments = append(policy.Payments, pay.ToDomain())
	}
	policy.Refunds = make([]core.Refund, 0, len(refunds))
	for _, r := range refunds {
		policy.Refunds = append(policy.Refunds, r.ToDomain())
	}

	return policy, nil
}

func (p *PgSQL) byPolicy(table string, policyID int64) *goqu.SelectDataset {
	return p.Builder.From(table).
		Where(goqu.I("policy_id").Eq(policyID)).
		Order(goqu.I("id").Asc()).
		Prepared(true)
}

func (p *PgSQL) AddPolicy(ctx context.Context, policy core.Policy) (core.Policy, error) {
	var row PgPolicy
	if _, err := p.Builder.Insert(policiesTable).
		Rows(pgPolicyFromDomain(policy)).
		Returning(&PgPolicy{}).
		Prepared(true).
		Executor().ScanStructContext(ctx, &row); err != nil {
		return core.Policy{}, fmt.Errorf("could not insert policy into pg: %w", err)
	}
	return row.ToDomain(), nil
}

func (p *PgSQL) AddPropertyToPolicy(ctx context.Context, policyID int64, prop core.PolicyProperty) error {
	_, err := p.Builder.Insert(propertiesTable).
		Rows(PgProperty{
			PolicyID:     policyID,
			AddressLine1: prop.AddressLine1,
			AddressLine2: prop.AddressLine2,
			AddressLine3: prop.AddressLine3,
			PostCode:     prop.PostCode,
		}).
		Prepared(true).
		Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("could not insert policy property into pg: %w", err)
	}
	return nil
}

func (p *PgSQL) AddHolderToPolicy(ctx context.Context, policyID int64, h core.PolicyHolder) error {
	_, err := p.Builder.Insert(holdersTable).
		Rows(PgHolder{
			PolicyID:    policyID,
			FirstName:   h.FirstName,
			LastName:    h.LastName,
			DateOfBirth: core.DateOf(h.DateOfBirth),
		}).
		Prepared(true).
		Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("could not insert policy holder into pg: %w", err)
	}
	return nil
}

// CancelPolicy flips the cancelled flag once; a second call reports false.
func (p *PgSQL) CancelPolicy(ctx context.Context, policyID int64) (bool, error) {
	res, err := p.Builder.Update(policiesTable).
		Set(goqu.Record{
			"cancelled":    true,
			"cancelled_at": goqu.L("CURRENT_TIMESTAMP"),
		}).
		Where(
			goqu.I("id").Eq(policyID),
			goqu.I("cancelled").IsFalse(),
		).
		Prepared(true).
		Executor().ExecContext(ctx)
	if err != nil {
		return false, fmt.Errorf("could not cancel policy in pg: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("could not read affected rows: %w", err)
	}
	return n == 1, nil
}
