package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/MrKriegler/go-policy-admin/internal/core"
)

type QuoteRepo struct {
	client *dynamodb.Client
}

func NewQuoteRepo(client *dynamodb.Client) *QuoteRepo {
	return &QuoteRepo{client: client}
}

func (r *QuoteRepo) CreateQuote(ctx context.Context, q core.Quote) (core.Quote, error) {
	id, err := nextID(ctx, r.client, "quotes")
	if err != nil {
		return core.Quote{}, err
	}
	q.ID = id

	item := quoteItemFromCore(q)
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return core.Quote{}, fmt.Errorf("quotes.marshal: %w", err)
	}

	cond := expression.AttributeNotExists(expression.Name("id"))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return core.Quote{}, fmt.Errorf("quotes.buildExpr: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(TableQuotes),
		Item:                      av,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return core.Quote{}, core.ErrConflict
		}
		return core.Quote{}, fmt.Errorf("quotes.putItem: %w", err)
	}

	return item.ToCore()
}

func (r *QuoteRepo) GetQuote(ctx context.Context, id int64) (core.Quote, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(TableQuotes),
		Key:       idKey(id),
	})
	if err != nil {
		return core.Quote{}, fmt.Errorf("quotes.getItem: %w", err)
	}
	if out.Item == nil {
		return core.Quote{}, core.ErrQuoteNotFound
	}

	var item QuoteItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return core.Quote{}, fmt.Errorf("quotes.unmarshal: %w", err)
	}
	return item.ToCore()
}
