package postgres

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/MrKriegler/go-policy-admin/internal/core"
)

const quotesTable = "quotes"

func (p *PgSQL) CreateQuote(ctx context.Context, q core.Quote) (core.Quote, error) {
	row, err := pgQuoteFromDomain(q)
	if err != nil {
		return core.Quote{}, err
	}

	var saved PgQuote
	if _, err := p.Builder.Insert(quotesTable).
		Rows(row).
		Returning(&PgQuote{}).
		Prepared(true).
		Executor().ScanStructContext(ctx, &saved); err != nil {
		return core.Quote{}, fmt.Errorf("could not insert quote into pg: %w", err)
	}
	return saved.ToDomain()
}

func (p *PgSQL) GetQuote(ctx context.Context, id int64) (core.Quote, error) {
	var row PgQuote
	found, err := p.Builder.From(quotesTable).
		Where(goqu.I("id").Eq(id)).
		Prepared(true).
		ScanStructContext(ctx, &row)
	if err != nil {
		return core.Quote{}, fmt.Errorf("could not get quote from pg: %w", err)
	}
	if !found {
		return core.Quote{}, core.ErrQuoteNotFound
	}
	return row.ToDomain()
}
