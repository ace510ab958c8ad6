// Package memory is a process-local backend used for development and tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/MrKriegler/go-policy-admin/internal/core"
)

type policyRecord struct {
	policy   core.Policy
	property *core.PolicyProperty
	holders  []core.PolicyHolder
	payments []core.Payment
	refunds  []core.Refund
}

type state struct {
	policies map[int64]policyRecord
	quotes   map[int64]core.Quote
	seq      map[string]int64
}

func (st state) clone() state {
	out := state{
		policies: make(map[int64]policyRecord, len(st.policies)),
		quotes:   make(map[int64]core.Quote, len(st.quotes)),
		seq:      make(map[string]int64, len(st.seq)),
	}
	for id, rec := range st.policies {
		if rec.property != nil {
			prop := *rec.property
			rec.property = &prop
		}
		rec.holders = slices.Clone(rec.holders)
		rec.payments = slices.Clone(rec.payments)
		rec.refunds = slices.Clone(rec.refunds)
		out.policies[id] = rec
	}
	for id, q := range st.quotes {
		q.Holders = slices.Clone(q.Holders)
		out.quotes[id] = q
	}
	for k, v := range st.seq {
		out.seq[k] = v
	}
	return out
}

// Store keeps policies and quotes in maps guarded by a single mutex.
type Store struct {
	mu sync.Mutex
	st state
}

func New() *Store {
	return &Store{st: state{
		policies: map[int64]policyRecord{},
		quotes:   map[int64]core.Quote{},
		seq:      map[string]int64{},
	}}
}

func (s *Store) Ping(context.Context) error { return nil }

// WithTx runs fn with exclusive access and restores the previous state if fn fails.
func (s *Store) WithTx(ctx context.Context, fn func(repo core.Repository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(&txRepo{st: &s.st}); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

func (s *Store) locked() *txRepo { return &txRepo{st: &s.st} }

func (s *Store) GetPolicy(ctx context.Context, id int64) (core.Policy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked().GetPolicy(ctx, id)
}

func (s *Store) AddPolicy(ctx context.Context, p core.Policy) (core.Policy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked().AddPolicy(ctx, p)
}

func (s *Store) AddPropertyToPolicy(ctx context.Context, policyID int64, prop core.PolicyProperty) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked().AddPropertyToPolicy(ctx, policyID, prop)
}

func (s *Store) AddHolderToPolicy(ctx context.Context, policyID int64, h core.PolicyHolder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked().AddHolderToPolicy(ctx, policyID, h)
}

func (s *Store) CancelPolicy(ctx context.Context, policyID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked().CancelPolicy(ctx, policyID)
}

func (s *Store) AddPaymentToPolicy(ctx context.Context, policyID int64, p core.Payment) (core.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked().AddPaymentToPolicy(ctx, policyID, p)
}

func (s *Store) AddRefundToPolicy(ctx context.Context, policyID int64, r core.Refund) (core.Refund, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked().AddRefundToPolicy(ctx, policyID, r)
}

func (s *Store) CreateQuote(ctx context.Context, q core.Quote) (core.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := &s.st
	q.ID = st.next("quotes")
	q.Holders = slices.Clone(q.Holders)
	st.quotes[q.ID] = q
	return q, nil
}

func (s *Store) GetQuote(ctx context.Context, id int64) (core.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.st.quotes[id]
	if !ok {
		return core.Quote{}, core.ErrQuoteNotFound
	}
	q.Holders = slices.Clone(q.Holders)
	return q, nil
}

func (st *state) next(name string) int64 {
	st.seq[name]++
	return st.seq[name]
}

// txRepo operates on state without locking; callers hold Store.mu.
type txRepo struct {
	st *state
}

func (r *txRepo) GetPolicy(ctx context.Context, id int64) (core.Policy, error) {
	rec, ok := r.st.policies[id]
	if !ok {
		return core.Policy{}, core.ErrPolicyNotFound
	}
	p := rec.policy
	if rec.property != nil {
		p.Property = *rec.property
	}
	p.Holders = append([]core.PolicyHolder{}, rec.holders...)
	p.Payments = append([]core.Payment{}, rec.payments...)
	p.Refunds = append([]core.Refund{}, rec.refunds...)
	return p, nil
}

func (r *txRepo) AddPolicy(ctx context.Context, p core.Policy) (core.Policy, error) {
	header := core.Policy{
		ID:        r.st.next("policies"),
		StartDate: p.StartDate,
		EndDate:   p.EndDate,
		Amount:    p.Amount,
		AutoRenew: p.AutoRenew,
	}
	r.st.policies[header.ID] = policyRecord{policy: header}
	return header, nil
}

func (r *txRepo) AddPropertyToPolicy(ctx context.Context, policyID int64, prop core.PolicyProperty) error {
	rec, ok := r.st.policies[policyID]
	if !ok {
		return core.ErrPolicyNotFound
	}
	if rec.property != nil {
		return core.ErrPropertyExists
	}
	prop.ID = r.st.next("properties")
	prop.PolicyID = policyID
	rec.property = &prop
	r.st.policies[policyID] = rec
	return nil
}

func (r *txRepo) AddHolderToPolicy(ctx context.Context, policyID int64, h core.PolicyHolder) error {
	rec, ok := r.st.policies[policyID]
	if !ok {
		return core.ErrPolicyNotFound
	}
	h.ID = r.st.next("holders")
	h.PolicyID = policyID
	rec.holders = append(rec.holders, h)
	r.st.policies[policyID] = rec
	return nil
}

func (r *txRepo) CancelPolicy(ctx context.Context, policyID int64) (bool, error) {
	rec, ok := r.st.policies[policyID]
	if !ok || rec.policy.Cancelled {
		return false, nil
	}
	now := time.Now().UTC()
	rec.policy.Cancelled = true
	rec.policy.CancelledAt = &now
	r.st.policies[policyID] = rec
	return true, nil
}

func (r *txRepo) AddPaymentToPolicy(ctx context.Context, policyID int64, p core.Payment) (core.Payment, error) {
	rec, ok := r.st.policies[policyID]
	if !ok {
		return core.Payment{}, fmt.Errorf("payments.insert: %w", core.ErrPolicyNotFound)
	}
	p.ID = r.st.next("payments")
	p.PolicyID = policyID
	rec.payments = append(rec.payments, p)
	r.st.policies[policyID] = rec
	return p, nil
}

func (r *txRepo) AddRefundToPolicy(ctx context.Context, policyID int64, rf core.Refund) (core.Refund, error) {
	rec, ok := r.st.policies[policyID]
	if !ok {
		return core.Refund{}, fmt.Errorf("refunds.insert: %w", core.ErrPolicyNotFound)
	}
	rf.ID = r.st.next("refunds")
	rf.PolicyID = policyID
	rec.refunds = append(rec.refunds, rf)
	r.st.policies[policyID] = rec
	return rf, nil
}
