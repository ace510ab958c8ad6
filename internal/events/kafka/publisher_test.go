package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/MrKriegler/go-policy-admin/internal/core"
)

type fakeProducer struct {
	records []*kgo.Record
	err     error
	closed  bool
}

func (f *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	f.records = append(f.records, rs...)
	results := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		results = append(results, kgo.ProduceResult{Record: r, Err: f.err})
	}
	return results
}

func (f *fakeProducer) Close() { f.closed = true }

func TestPublish_EncodesRefundEvent(t *testing.T) {
	fp := &fakeProducer{}
	p := newPublisher(fp, "policy-lifecycle")
	p.newID = func() string { return "evt-1" }

	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	err := p.Publish(context.Background(), core.Event{
		Type:        core.EventRefundRaised,
		PolicyID:    42,
		Amount:      decimal.RequireFromString("250.5"),
		PaymentType: core.PaymentTypeDirectDebit,
		Reason:      core.RefundReasonCancellation,
		OccurredAt:  at,
	})
	require.NoError(t, err)
	require.Len(t, fp.records, 1)

	rec := fp.records[0]
	assert.Equal(t, "policy-lifecycle", rec.Topic)
	assert.Equal(t, "42", string(rec.Key))
	assert.Equal(t, "event_type", rec.Headers[0].Key)
	assert.Equal(t, "refund.raised", string(rec.Headers[0].Value))

	var msg message
	require.NoError(t, json.Unmarshal(rec.Value, &msg))
	assert.Equal(t, "evt-1", msg.ID)
	assert.Equal(t, "refund.raised", msg.Type)
	assert.Equal(t, int64(42), msg.PolicyID)
	assert.Equal(t, "250.50", msg.Amount)
	assert.Equal(t, "DirectDebit", msg.PaymentType)
	assert.Equal(t, "Policy cancellation", msg.Reason)
	assert.True(t, at.Equal(msg.OccurredAt))
}

func TestPublish_PolicyEventHasNoAmount(t *testing.T) {
	fp := &fakeProducer{}
	p := newPublisher(fp, "t")

	require.NoError(t, p.Publish(context.Background(), core.Event{Type: core.EventPolicyCancelled, PolicyID: 7}))

	var raw map[string]any
	require.NoError(t, json.Unmarshal(fp.records[0].Value, &raw))
	assert.NotContains(t, raw, "amount")
	assert.NotContains(t, raw, "payment_type")
	assert.NotEmpty(t, raw["id"])
}

func TestPublish_NoEventsIsNoop(t *testing.T) {
	fp := &fakeProducer{}
	p := newPublisher(fp, "t")

	require.NoError(t, p.Publish(context.Background()))
	assert.Empty(t, fp.records)
}

func TestPublish_ProduceError(t *testing.T) {
	fp := &fakeProducer{err: errors.New("broker down")}
	p := newPublisher(fp, "t")

	err := p.Publish(context.Background(), core.Event{Type: core.EventPolicyCreated, PolicyID: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

func TestClose(t *testing.T) {
	fp := &fakeProducer{}
	newPublisher(fp, "t").Close()
	assert.True(t, fp.closed)
}
