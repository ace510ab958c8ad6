package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/MrKriegler/go-policy-admin/internal/core"
)

// PolicyRepo stores each policy aggregate as one item and grows its lists with list_append.
type PolicyRepo struct {
	client *dynamodb.Client
}

func NewPolicyRepo(client *dynamodb.Client) *PolicyRepo {
	return &PolicyRepo{client: client}
}

func idKey(id int64) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberN{Value: strconv.FormatInt(id, 10)},
	}
}

func (r *PolicyRepo) GetPolicy(ctx context.Context, id int64) (core.Policy, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(TablePolicies),
		Key:            idKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return core.Policy{}, fmt.Errorf("policies.getItem: %w", err)
	}
	if out.Item == nil {
		return core.Policy{}, core.ErrPolicyNotFound
	}

	var item PolicyItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return core.Policy{}, fmt.Errorf("policies.unmarshal: %w", err)
	}
	return item.ToCore()
}

func (r *PolicyRepo) AddPolicy(ctx context.Context, p core.Policy) (core.Policy, error) {
	id, err := nextID(ctx, r.client, "policies")
	if err != nil {
		return core.Policy{}, err
	}

	item := PolicyItem{
		ID:        id,
		StartDate: formatDate(p.StartDate),
		EndDate:   formatDate(p.EndDate),
		Amount:    p.Amount.String(),
		AutoRenew: p.AutoRenew,
		Holders:   []HolderItem{},
		Payments:  []PaymentItem{},
		Refunds:   []RefundItem{},
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return core.Policy{}, fmt.Errorf("policies.marshal: %w", err)
	}

	cond := expression.AttributeNotExists(expression.Name("id"))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return core.Policy{}, fmt.Errorf("policies.buildExpr: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(TablePolicies),
		Item:                      av,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return core.Policy{}, fmt.Errorf("policies.putItem: %w", core.ErrConflict)
		}
		return core.Policy{}, fmt.Errorf("policies.putItem: %w", err)
	}
	return item.ToCore()
}

func (r *PolicyRepo) AddPropertyToPolicy(ctx context.Context, policyID int64, prop core.PolicyProperty) error {
	id, err := nextID(ctx, r.client, "properties")
	if err != nil {
		return err
	}
	prop.ID = id

	cond := expression.AttributeExists(expression.Name("id")).
		And(expression.AttributeNotExists(expression.Name("property")))
	update := expression.Set(expression.Name("property"), expression.Value(propertyItemFromCore(prop)))

	err = r.update(ctx, policyID, update, cond)
	if err == nil {
		return nil
	}
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		if ccf.Item == nil {
			return core.ErrPolicyNotFound
		}
		return core.ErrPropertyExists
	}
	return fmt.Errorf("policies.setProperty: %w", err)
}

func (r *PolicyRepo) AddHolderToPolicy(ctx context.Context, policyID int64, h core.PolicyHolder) error {
	id, err := nextID(ctx, r.client, "holders")
	if err != nil {
		return err
	}
	h.ID = id
	return r.appendTo(ctx, policyID, "holders", []HolderItem{holderItemFromCore(h)})
}

func (r *PolicyRepo) CancelPolicy(ctx context.Context, policyID int64) (bool, error) {
	cond := expression.AttributeExists(expression.Name("id")).
		And(expression.Name("cancelled").Equal(expression.Value(false)))
	update := expression.Set(expression.Name("cancelled"), expression.Value(true)).
		Set(expression.Name("cancelled_at"), expression.Value(time.Now().UTC().Format(time.RFC3339Nano)))

	err := r.update(ctx, policyID, update, cond)
	if err == nil {
		return true, nil
	}
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return false, nil
	}
	return false, fmt.Errorf("policies.cancel: %w", err)
}

func (r *PolicyRepo) AddPaymentToPolicy(ctx context.Context, policyID int64, p core.Payment) (core.Payment, error) {
	id, err := nextID(ctx, r.client, "payments")
	if err != nil {
		return core.Payment{}, err
	}
	p.ID, p.PolicyID = id, policyID

	err = r.appendTo(ctx, policyID, "payments", []PaymentItem{{
		ID:          p.ID,
		PaymentType: int(p.Type),
		Amount:      p.Amount.String(),
		CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339Nano),
	}})
	if err != nil {
		return core.Payment{}, err
	}
	return p, nil
}

func (r *PolicyRepo) AddRefundToPolicy(ctx context.Context, policyID int64, rf core.Refund) (core.Refund, error) {
	id, err := nextID(ctx, r.client, "refunds")
	if err != nil {
		return core.Refund{}, err
	}
	rf.ID, rf.PolicyID = id, policyID

	err = r.appendTo(ctx, policyID, "refunds", []RefundItem{{
		ID:          rf.ID,
		PaymentType: int(rf.Type),
		Amount:      rf.Amount.String(),
		CreatedAt:   rf.CreatedAt.UTC().Format(time.RFC3339Nano),
		Reason:      rf.Reason,
	}})
	if err != nil {
		return core.Refund{}, err
	}
	return rf, nil
}

// WithTx calls fn directly. Each step is a conditional single-item write;
// DynamoDB transactions cannot read back their own writes.
func (r *PolicyRepo) WithTx(ctx context.Context, fn func(repo core.Repository) error) error {
	return fn(r)
}

func (r *PolicyRepo) Ping(ctx context.Context) error {
	_, err := r.client.ListTables(ctx, &dynamodb.ListTablesInput{Limit: aws.Int32(1)})
	return err
}

func (r *PolicyRepo) appendTo(ctx context.Context, policyID int64, field string, v interface{}) error {
	cond := expression.AttributeExists(expression.Name("id"))
	update := expression.Set(expression.Name(field),
		expression.ListAppend(expression.Name(field), expression.Value(v)))

	err := r.update(ctx, policyID, update, cond)
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return core.ErrPolicyNotFound
		}
		return fmt.Errorf("policies.append(%s): %w", field, err)
	}
	return nil
}

func (r *PolicyRepo) update(ctx context.Context, policyID int64, update expression.UpdateBuilder, cond expression.ConditionBuilder) error {
	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("policies.buildExpr: %w", err)
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                           aws.String(TablePolicies),
		Key:                                 idKey(policyID),
		UpdateExpression:                    expr.Update(),
		ConditionExpression:                 expr.Condition(),
		ExpressionAttributeNames:            expr.Names(),
		ExpressionAttributeValues:           expr.Values(),
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	return err
}

// nextID atomically increments a named counter.
func nextID(ctx context.Context, client *dynamodb.Client, name string) (int64, error) {
	out, err := client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(TableCounters),
		Key: map[string]types.AttributeValue{
			"counter_name": &types.AttributeValueMemberS{Value: name},
		},
		UpdateExpression: aws.String("SET counter_value = if_not_exists(counter_value, :zero) + :inc"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":zero": &types.AttributeValueMemberN{Value: "0"},
			":inc":  &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, fmt.Errorf("counters.updateItem: %w", err)
	}

	var counter struct {
		Value int64 `dynamodbav:"counter_value"`
	}
	if err := attributevalue.UnmarshalMap(out.Attributes, &counter); err != nil {
		return 0, fmt.Errorf("counters.unmarshal: %w", err)
	}
	return counter.Value, nil
}

var _ core.Store = (*PolicyRepo)(nil)
