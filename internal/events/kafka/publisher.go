package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/MrKriegler/go-policy-admin/internal/core"
)

// message is the JSON payload written for each lifecycle event.
type message struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	PolicyID    int64     `json:"policy_id"`
	Amount      string    `json:"amount,omitempty"`
	PaymentType string    `json:"payment_type,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// Publisher writes lifecycle events to a single topic keyed by policy id,
// so all events of one policy stay ordered within a partition.
type Publisher struct {
	client producer
	topic  string
	newID  func() string
}

// NewPublisher connects to brokers. deliveryTimeout caps how long a record
// may wait for the broker before it fails; zero leaves the client default.
func NewPublisher(brokers []string, topic string, deliveryTimeout time.Duration) (*Publisher, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	}
	if deliveryTimeout > 0 {
		opts = append(opts, kgo.RecordDeliveryTimeout(deliveryTimeout))
	}
	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return newPublisher(client, topic), nil
}

func newPublisher(client producer, topic string) *Publisher {
	return &Publisher{client: client, topic: topic, newID: uuid.NewString}
}

func (p *Publisher) Publish(ctx context.Context, events ...core.Event) error {
	if len(events) == 0 {
		return nil
	}

	records := make([]*kgo.Record, 0, len(events))
	for _, e := range events {
		rec, err := p.record(e)
		if err != nil {
			return err
		}
		records = append(records, rec)
	}

	if err := p.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return fmt.Errorf("produce %d events: %w", len(records), err)
	}
	return nil
}

func (p *Publisher) record(e core.Event) (*kgo.Record, error) {
	msg := message{
		ID:         p.newID(),
		Type:       string(e.Type),
		PolicyID:   e.PolicyID,
		Reason:     e.Reason,
		OccurredAt: e.OccurredAt.UTC(),
	}
	if !e.Amount.IsZero() || e.Type == core.EventRefundRaised || e.Type == core.EventPaymentRaised {
		msg.Amount = e.Amount.StringFixed(2)
		msg.PaymentType = e.PaymentType.String()
	}

	value, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode event %s: %w", e.Type, err)
	}

	return &kgo.Record{
		Topic: p.topic,
		Key:   []byte(strconv.FormatInt(e.PolicyID, 10)),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(e.Type)},
		},
	}, nil
}

func (p *Publisher) Close() {
	p.client.Close()
}

var _ core.EventPublisher = (*Publisher)(nil)
