package core_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/MrKriegler/go-policy-admin/internal/core"
	"github.com/MrKriegler/go-policy-admin/internal/store/memory"
	"github.com/MrKriegler/go-policy-admin/pkg/policyapi"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type recordingPublisher struct {
	events []core.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, events ...core.Event) error {
	p.events = append(p.events, events...)
	return p.err
}

func (p *recordingPublisher) types() []core.EventType {
	out := make([]core.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// blockingPublisher waits until its context gives up, like a broker that never answers.
type blockingPublisher struct {
	err error
}

func (p *blockingPublisher) Publish(ctx context.Context, _ ...core.Event) error {
	<-ctx.Done()
	p.err = ctx.Err()
	return p.err
}

// cancelOnPublish cancels the caller's context, then reports whether its own context survived.
type cancelOnPublish struct {
	cancel context.CancelFunc
	err    error
}

func (p *cancelOnPublish) Publish(ctx context.Context, _ ...core.Event) error {
	p.cancel()
	p.err = ctx.Err()
	return nil
}

type recordingObserver struct {
	ops     map[core.Operation][]error
	refunds []decimal.Decimal
}

func (o *recordingObserver) ObserveOperation(op core.Operation, err error) {
	if o.ops == nil {
		o.ops = map[core.Operation][]error{}
	}
	o.ops[op] = append(o.ops[op], err)
}

func (o *recordingObserver) ObserveRefund(amount decimal.Decimal, _ core.PaymentType) {
	o.refunds = append(o.refunds, amount)
}

type PolicyServiceSuite struct {
	suite.Suite

	now      time.Time
	store    *memory.Store
	events   *recordingPublisher
	observer *recordingObserver
	svc      core.PolicyService
}

func TestPolicyServiceSuite(t *testing.T) {
	suite.Run(t, new(PolicyServiceSuite))
}

func (s *PolicyServiceSuite) SetupTest() {
	s.now = time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	s.store = memory.New()
	s.events = &recordingPublisher{}
	s.observer = &recordingObserver{}
	s.svc = s.newService()
}

func (s *PolicyServiceSuite) newService(opts ...core.Option) core.PolicyService {
	base := []core.Option{
		core.WithClock(func() time.Time { return s.now }),
		core.WithEvents(s.events),
		core.WithObserver(s.observer),
	}
	return core.NewPolicyService(s.store, append(base, opts...)...)
}

func (s *PolicyServiceSuite) today() time.Time { return core.DateOf(s.now) }

func (s *PolicyServiceSuite) quote(start time.Time, holders int) core.Quote {
	q := core.Quote{
		ID:        1,
		StartDate: start,
		EndDate:   core.TermEnd(start),
		Amount:    decimal.RequireFromString("480.00"),
		Property: core.PolicyProperty{
			ID:           99,
			AddressLine1: "1 High Street",
			PostCode:     "SW1A 1AA",
		},
	}
	for i := 0; i < holders; i++ {
		q.Holders = append(q.Holders, core.PolicyHolder{
			FirstName:   "Holder",
			LastName:    string(rune('A' + i)),
			DateOfBirth: day(1980+i, 1, 1),
		})
	}
	return q
}

// seed stores a policy directly so tests can place its term anywhere relative to today.
func (s *PolicyServiceSuite) seed(start, end time.Time, autoRenew bool, paid string) int64 {
	ctx := context.Background()
	p, err := s.store.AddPolicy(ctx, core.Policy{
		StartDate: start,
		EndDate:   end,
		Amount:    decimal.RequireFromString(paid),
		AutoRenew: autoRenew,
	})
	s.Require().NoError(err)
	s.Require().NoError(s.store.AddPropertyToPolicy(ctx, p.ID, core.PolicyProperty{AddressLine1: "9 Elm Row", PostCode: "EH7 4AA"}))
	s.Require().NoError(s.store.AddHolderToPolicy(ctx, p.ID, core.PolicyHolder{FirstName: "Ada", LastName: "Lovelace", DateOfBirth: day(1985, 12, 10)}))
	if paid != "0" {
		_, err = s.store.AddPaymentToPolicy(ctx, p.ID, core.Payment{Type: core.PaymentTypeDirectDebit, Amount: decimal.RequireFromString(paid)})
		s.Require().NoError(err)
	}
	return p.ID
}

func (s *PolicyServiceSuite) TestCreateFromQuote() {
	q := s.quote(core.AddDays(s.today(), 10), 2)

	p, err := s.svc.CreateFromQuote(context.Background(), q)
	s.Require().NoError(err)

	s.NotZero(p.ID)
	s.Equal(policyapi.NewDate(q.StartDate), p.StartDate)
	s.Equal(policyapi.NewDate(q.EndDate), p.EndDate)
	s.True(p.AutoRenew)
	s.False(p.Cancelled)
	s.Equal("SW1A 1AA", p.Property.PostCode)
	s.Equal(p.ID, p.Property.PolicyID)
	s.NotEqual(int64(99), p.Property.ID, "property gets a fresh id")
	s.Require().Len(p.Holders, 2)
	s.Equal("A", p.Holders[0].LastName)
	s.Equal("B", p.Holders[1].LastName)
	s.Require().Len(p.Payments, 1)
	s.Equal(policyapi.PaymentType("DirectDebit"), p.Payments[0].PaymentType)
	s.True(q.Amount.Equal(p.Payments[0].Amount))
	s.Empty(p.Refunds)

	s.Equal([]core.EventType{core.EventPolicyCreated, core.EventPaymentRaised}, s.events.types())
	s.Equal([]error{nil}, s.observer.ops[core.OpCreate])
}

func (s *PolicyServiceSuite) TestCreateFromQuote_ReturnsStoredAggregate() {
	p, err := s.svc.CreateFromQuote(context.Background(), s.quote(s.today(), 1))
	s.Require().NoError(err)

	stored, err := s.svc.Get(context.Background(), p.ID)
	s.Require().NoError(err)
	s.Equal(stored, p)
}

func (s *PolicyServiceSuite) TestCreateFromQuote_IneligibleQuotePersistsNothing() {
	q := s.quote(core.AddDays(s.today(), -1), 1)

	_, err := s.svc.CreateFromQuote(context.Background(), q)
	s.Require().ErrorIs(err, core.ErrStartDateInPast)
	s.Equal("Policy start date cannot be in the past", core.MessageOf(err))

	_, err = s.svc.Get(context.Background(), 1)
	s.ErrorIs(err, core.ErrPolicyNotFound)
	s.Empty(s.events.events)
}

func (s *PolicyServiceSuite) TestCreateFromQuote_EventFailureDoesNotFailCreate() {
	s.events.err = errors.New("broker unavailable")

	_, err := s.svc.CreateFromQuote(context.Background(), s.quote(s.today(), 1))
	s.NoError(err)
}

func (s *PolicyServiceSuite) TestCreateFromQuote_UnresponsiveBrokerDoesNotHoldResponse() {
	broker := &blockingPublisher{}
	svc := s.newService(core.WithEvents(broker), core.WithPublishTimeout(20*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	started := time.Now()
	p, err := svc.CreateFromQuote(ctx, s.quote(s.today(), 1))
	s.Require().NoError(err)
	s.Less(time.Since(started), 5*time.Second)
	s.NotZero(p.ID)

	s.ErrorIs(broker.err, context.DeadlineExceeded)
	s.NoError(ctx.Err(), "request context is left alone")
}

func (s *PolicyServiceSuite) TestCancel_PublishesAfterRequestIsCancelled() {
	end := core.AddDays(s.today(), 100)
	id := s.seed(core.AddDays(core.AddYears(end, -1), 1), end, true, "500")

	ctx, cancel := context.WithCancel(context.Background())
	pub := &cancelOnPublish{cancel: cancel}
	svc := s.newService(core.WithEvents(pub))

	_, err := svc.Cancel(ctx, id)
	s.Require().NoError(err)
	s.NoError(pub.err, "events are not tied to the caller's cancellation")
}

func (s *PolicyServiceSuite) TestGet_NotFound() {
	for _, id := range []int64{0, -3, 404} {
		_, err := s.svc.Get(context.Background(), id)
		s.ErrorIs(err, core.ErrPolicyNotFound, "id %d", id)
		s.Equal("Policy not found", core.MessageOf(err))
	}
}

func (s *PolicyServiceSuite) TestRenew_WithinWindow() {
	end := core.AddDays(s.today(), 15)
	id := s.seed(core.AddDays(core.AddYears(end, -1), 1), end, true, "480.00")

	res, err := s.svc.Renew(context.Background(), id)
	s.Require().NoError(err)

	s.NotEqual(id, res.PolicyID)
	s.Equal(policyapi.NewDate(core.AddDays(end, 1)), res.NewStartDate)
	s.Equal(policyapi.NewDate(core.AddYears(end, 1)), res.NewEndDate)
	s.True(decimal.RequireFromString("480").Equal(res.NewAmount))
	s.True(res.PaymentRaised)

	renewed, err := s.svc.Get(context.Background(), res.PolicyID)
	s.Require().NoError(err)
	s.True(renewed.AutoRenew)
	s.Equal("EH7 4AA", renewed.Property.PostCode)
	s.Empty(renewed.Holders, "holders are not carried over")
	s.Require().Len(renewed.Payments, 1)
	s.Equal(policyapi.PaymentType("DirectDebit"), renewed.Payments[0].PaymentType)

	original, err := s.svc.Get(context.Background(), id)
	s.Require().NoError(err)
	s.True(original.AutoRenew, "original is left untouched")
	s.NotEqual(original.Property.ID, renewed.Property.ID)

	s.Equal([]core.EventType{core.EventPolicyRenewed, core.EventPaymentRaised}, s.events.types())
}

func (s *PolicyServiceSuite) TestRenew_WithoutAutoRenewRaisesNoPayment() {
	end := core.AddDays(s.today(), 5)
	id := s.seed(core.AddDays(core.AddYears(end, -1), 1), end, false, "300")

	res, err := s.svc.Renew(context.Background(), id)
	s.Require().NoError(err)
	s.True(res.PaymentRaised, "reported as raised unless actual reporting is enabled")

	renewed, err := s.svc.Get(context.Background(), res.PolicyID)
	s.Require().NoError(err)
	s.False(renewed.AutoRenew)
	s.Empty(renewed.Payments)
	s.Equal([]core.EventType{core.EventPolicyRenewed}, s.events.types())
}

func (s *PolicyServiceSuite) TestRenew_ReportsActualPaymentWhenEnabled() {
	svc := s.newService(core.WithActualRenewalPayment(true))
	end := core.AddDays(s.today(), 5)
	id := s.seed(core.AddDays(core.AddYears(end, -1), 1), end, false, "300")

	res, err := svc.Renew(context.Background(), id)
	s.Require().NoError(err)
	s.False(res.PaymentRaised)
}

func (s *PolicyServiceSuite) TestRenew_Window() {
	tests := []struct {
		name    string
		endIn   int
		wantErr error
	}{
		{"31 days before end", 31, core.ErrOutsideRenewalWindow},
		{"30 days before end", 30, nil},
		{"on end date", 0, nil},
		{"day after end", -1, core.ErrPolicyExpiredRenew},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			end := core.AddDays(s.today(), tt.endIn)
			id := s.seed(core.AddDays(core.AddYears(end, -1), 1), end, true, "100")

			_, err := s.svc.Renew(context.Background(), id)
			if tt.wantErr == nil {
				s.NoError(err)
				return
			}
			s.ErrorIs(err, tt.wantErr)
			s.ErrorIs(err, core.ErrInvalidState)
		})
	}
}

func (s *PolicyServiceSuite) TestRenew_Messages() {
	expired := s.seed(day(2023, 1, 1), day(2023, 12, 31), true, "100")
	_, err := s.svc.Renew(context.Background(), expired)
	s.Equal("Policy has already expired and cannot be renewed", core.MessageOf(err))

	early := s.seed(day(2024, 1, 1), day(2024, 12, 31), true, "100")
	_, err = s.svc.Renew(context.Background(), early)
	s.Equal("Policy can only be renewed within 30 days of its expiration date", core.MessageOf(err))

	_, err = s.svc.Renew(context.Background(), 999)
	s.Equal("Policy not found", core.MessageOf(err))
}

func (s *PolicyServiceSuite) TestCancel_InsideCoolingOff() {
	id := s.seed(core.AddDays(s.today(), -3), core.TermEnd(core.AddDays(s.today(), -3)), true, "480.00")

	res, err := s.svc.Cancel(context.Background(), id)
	s.Require().NoError(err)
	s.Equal(id, res.PolicyID)
	s.True(decimal.RequireFromString("480").Equal(res.RefundAmount))
	s.Equal(policyapi.PaymentType("DirectDebit"), res.PaymentType)

	p, err := s.svc.Get(context.Background(), id)
	s.Require().NoError(err)
	s.True(p.Cancelled)
	s.NotNil(p.CancelledAt)
	s.Require().Len(p.Refunds, 1)
	s.Equal("Policy cancellation", p.Refunds[0].Reason)

	s.Equal([]core.EventType{core.EventPolicyCancelled, core.EventRefundRaised}, s.events.types())
	s.Len(s.observer.refunds, 1)
}

func (s *PolicyServiceSuite) TestCancel_ProRata() {
	// term 2024-01-01..2024-12-31, today 2024-03-01: 306 of 366 days remain, 0.84
	id := s.seed(day(2024, 1, 1), day(2024, 12, 31), true, "500")

	res, err := s.svc.Cancel(context.Background(), id)
	s.Require().NoError(err)
	s.True(decimal.RequireFromString("420").Equal(res.RefundAmount), "got %s", res.RefundAmount)
}

func (s *PolicyServiceSuite) TestCancel_Twice() {
	id := s.seed(day(2024, 1, 1), day(2024, 12, 31), true, "500")

	_, err := s.svc.Cancel(context.Background(), id)
	s.Require().NoError(err)

	_, err = s.svc.Cancel(context.Background(), id)
	s.ErrorIs(err, core.ErrPolicyAlreadyCancelled)

	p, err := s.svc.Get(context.Background(), id)
	s.Require().NoError(err)
	s.Len(p.Refunds, 1)
}

func (s *PolicyServiceSuite) TestCancel_OnEndDateIsExpired() {
	id := s.seed(core.AddDays(core.AddYears(s.today(), -1), 1), s.today(), true, "500")

	_, err := s.svc.Cancel(context.Background(), id)
	s.ErrorIs(err, core.ErrPolicyExpiredCancel)
	s.Equal("Policy has already expired and cannot be cancelled", core.MessageOf(err))

	p, err := s.svc.Get(context.Background(), id)
	s.Require().NoError(err)
	s.False(p.Cancelled)
	s.Empty(p.Refunds)
	s.Empty(s.events.events)
}

func (s *PolicyServiceSuite) TestCancel_DayBeforeEnd() {
	end := core.AddDays(s.today(), 1)
	id := s.seed(core.AddDays(core.AddYears(end, -1), 1), end, true, "365")

	res, err := s.svc.Cancel(context.Background(), id)
	s.Require().NoError(err)
	// 2 of 366 days remain (the term spans 29 February): 0.0055 rounds to 0.01
	s.True(decimal.RequireFromString("3.65").Equal(res.RefundAmount), "got %s", res.RefundAmount)
}

func (s *PolicyServiceSuite) TestIsAssociatedWithUser() {
	ok, err := s.svc.IsAssociatedWithUser(context.Background(), 1, "user-1")
	s.NoError(err)
	s.True(ok)
}

// mockStore lets tests fail individual repository calls.
type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetPolicy(ctx context.Context, id int64) (core.Policy, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(core.Policy), args.Error(1)
}

func (m *mockStore) AddPolicy(ctx context.Context, p core.Policy) (core.Policy, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(core.Policy), args.Error(1)
}

func (m *mockStore) AddPropertyToPolicy(ctx context.Context, policyID int64, prop core.PolicyProperty) error {
	return m.Called(ctx, policyID, prop).Error(0)
}

func (m *mockStore) AddHolderToPolicy(ctx context.Context, policyID int64, h core.PolicyHolder) error {
	return m.Called(ctx, policyID, h).Error(0)
}

func (m *mockStore) CancelPolicy(ctx context.Context, policyID int64) (bool, error) {
	args := m.Called(ctx, policyID)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) AddPaymentToPolicy(ctx context.Context, policyID int64, p core.Payment) (core.Payment, error) {
	args := m.Called(ctx, policyID, p)
	return args.Get(0).(core.Payment), args.Error(1)
}

func (m *mockStore) AddRefundToPolicy(ctx context.Context, policyID int64, r core.Refund) (core.Refund, error) {
	args := m.Called(ctx, policyID, r)
	return args.Get(0).(core.Refund), args.Error(1)
}

func (m *mockStore) WithTx(_ context.Context, fn func(repo core.Repository) error) error {
	return fn(m)
}

func fixedClock() core.Option {
	return core.WithClock(func() time.Time { return day(2024, 3, 1) })
}

func livePolicy() core.Policy {
	return core.Policy{
		ID:        5,
		StartDate: day(2024, 1, 1),
		EndDate:   day(2024, 12, 31),
		Amount:    decimal.NewFromInt(500),
		AutoRenew: true,
		Payments:  []core.Payment{{ID: 1, PolicyID: 5, Type: core.PaymentTypeCreditCard, Amount: decimal.NewFromInt(500)}},
	}
}

func TestCancel_CancellationNotApplied(t *testing.T) {
	st := &mockStore{}
	st.On("GetPolicy", mock.Anything, int64(5)).Return(livePolicy(), nil)
	st.On("CancelPolicy", mock.Anything, int64(5)).Return(false, nil)

	_, err := core.NewPolicyService(st, fixedClock()).Cancel(context.Background(), 5)
	require.ErrorIs(t, err, core.ErrPersistence)
	assert.Equal(t, "Failed to cancel policy", core.MessageOf(err))
	st.AssertNotCalled(t, "AddRefundToPolicy", mock.Anything, mock.Anything, mock.Anything)
}

func TestCancel_RefundWriteFails(t *testing.T) {
	st := &mockStore{}
	st.On("GetPolicy", mock.Anything, int64(5)).Return(livePolicy(), nil)
	st.On("CancelPolicy", mock.Anything, int64(5)).Return(true, nil)
	st.On("AddRefundToPolicy", mock.Anything, int64(5), mock.MatchedBy(func(r core.Refund) bool {
		return r.Type == core.PaymentTypeCreditCard && r.Reason == core.RefundReasonCancellation
	})).Return(core.Refund{}, errors.New("write timeout"))

	_, err := core.NewPolicyService(st, fixedClock()).Cancel(context.Background(), 5)
	require.ErrorIs(t, err, core.ErrPersistence)
	assert.Equal(t, "Failed to add refund to policy", core.MessageOf(err))
	st.AssertExpectations(t)
}

func TestGet_LoadFailureIsPersistence(t *testing.T) {
	st := &mockStore{}
	st.On("GetPolicy", mock.Anything, int64(5)).Return(core.Policy{}, errors.New("connection refused"))

	_, err := core.NewPolicyService(st, fixedClock()).Get(context.Background(), 5)
	require.ErrorIs(t, err, core.ErrPersistence)
	assert.Equal(t, "Failed to load policy", core.MessageOf(err))
}

func TestRenew_CreationFailureIsWrapped(t *testing.T) {
	old := livePolicy()
	old.EndDate = day(2024, 3, 10)

	st := &mockStore{}
	st.On("GetPolicy", mock.Anything, int64(5)).Return(old, nil)
	st.On("AddPolicy", mock.Anything, mock.Anything).Return(core.Policy{}, errors.New("unique violation"))

	_, err := core.NewPolicyService(st, fixedClock()).Renew(context.Background(), 5)
	require.ErrorIs(t, err, core.ErrPersistence)
	assert.Equal(t, "Failed to create renewed policy: Failed to create policy", core.MessageOf(err))
}

func TestCreate_HolderWriteFails(t *testing.T) {
	st := &mockStore{}
	st.On("AddPolicy", mock.Anything, mock.Anything).Return(core.Policy{ID: 8}, nil)
	st.On("AddPropertyToPolicy", mock.Anything, int64(8), mock.Anything).Return(nil)
	st.On("AddHolderToPolicy", mock.Anything, int64(8), mock.Anything).Return(errors.New("fk violation"))

	q := core.Quote{
		StartDate: day(2024, 3, 1),
		EndDate:   day(2025, 2, 28),
		Amount:    decimal.NewFromInt(100),
		Holders:   []core.PolicyHolder{{FirstName: "A", LastName: "B", DateOfBirth: day(1990, 1, 1)}},
	}
	_, err := core.NewPolicyService(st, fixedClock()).CreateFromQuote(context.Background(), q)
	require.ErrorIs(t, err, core.ErrPersistence)
	assert.Equal(t, "Failed to add policy holder to policy", core.MessageOf(err))
	st.AssertNotCalled(t, "AddPaymentToPolicy", mock.Anything, mock.Anything, mock.Anything)
}
