package core

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrKriegler/go-policy-admin/pkg/policyapi"
)

const (
	RenewalWindowDays        = 30
	RefundReasonCancellation = "Policy cancellation"
	CancelSuccessMessage     = "Policy Cancelled and Refund has been raised"

	DefaultPublishTimeout = 5 * time.Second
)

type PolicyService interface {
	// Get retrieves a policy with its property, holders, payments and refunds.
	Get(ctx context.Context, id int64) (policyapi.Policy, error)

	// CreateFromQuote checks eligibility and issues a policy with a direct debit payment for the full amount.
	CreateFromQuote(ctx context.Context, q Quote) (policyapi.Policy, error)

	// Renew issues the follow-on policy for the year after the current one ends.
	Renew(ctx context.Context, id int64) (policyapi.RenewResult, error)

	// Cancel marks the policy cancelled and raises a refund.
	Cancel(ctx context.Context, id int64) (policyapi.CancelResult, error)

	// IsAssociatedWithUser reports whether userID may act on the policy.
	IsAssociatedWithUser(ctx context.Context, policyID int64, userID string) (bool, error)
}

type policyService struct {
	store    Store
	events   EventPublisher
	observer LifecycleObserver
	log      *slog.Logger
	clock    func() time.Time

	publishTimeout             time.Duration
	reportActualRenewalPayment bool
}

type Option func(*policyService)

// WithClock replaces the wall clock. Only the calendar date in UTC is used for rules.
func WithClock(clock func() time.Time) Option {
	return func(s *policyService) { s.clock = clock }
}

func WithEvents(p EventPublisher) Option {
	return func(s *policyService) { s.events = p }
}

// WithPublishTimeout bounds how long a lifecycle call waits on its events.
// Non-positive values keep the default.
func WithPublishTimeout(d time.Duration) Option {
	return func(s *policyService) {
		if d > 0 {
			s.publishTimeout = d
		}
	}
}

func WithObserver(o LifecycleObserver) Option {
	return func(s *policyService) { s.observer = o }
}

func WithLogger(log *slog.Logger) Option {
	return func(s *policyService) { s.log = log }
}

// WithActualRenewalPayment makes Renew report whether a payment was really raised
// instead of always reporting true.
func WithActualRenewalPayment(enabled bool) Option {
	return func(s *policyService) { s.reportActualRenewalPayment = enabled }
}

func NewPolicyService(store Store, opts ...Option) PolicyService {
	s := &policyService{
		store:    store,
		events:   noopPublisher{},
		observer: noopObserver{},
		log:      slog.Default(),
		clock:    time.Now,

		publishTimeout: DefaultPublishTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *policyService) Get(ctx context.Context, id int64) (_ policyapi.Policy, err error) {
	defer func() { s.observer.ObserveOperation(OpGet, err) }()

	p, err := s.load(ctx, s.store, id)
	if err != nil {
		return policyapi.Policy{}, err
	}
	return PolicyToModel(p), nil
}

func (s *policyService) CreateFromQuote(ctx context.Context, q Quote) (_ policyapi.Policy, err error) {
	defer func() { s.observer.ObserveOperation(OpCreate, err) }()

	// 1) Eligibility
	if err := ValidateCreation(q, s.today()); err != nil {
		return policyapi.Policy{}, err
	}

	draft := Policy{
		StartDate: DateOf(q.StartDate),
		EndDate:   DateOf(q.EndDate),
		Amount:    q.Amount,
		AutoRenew: true,
		Property:  q.Property,
		Holders:   q.Holders,
	}

	// 2) Persist the aggregate and its payment as one unit
	var created Policy
	err = s.store.WithTx(ctx, func(repo Repository) error {
		var err error
		created, err = s.issue(ctx, repo, draft, true)
		return err
	})
	if err != nil {
		return policyapi.Policy{}, classify(err, "Failed to create policy")
	}

	// 3) Notify
	s.publish(ctx,
		s.event(EventPolicyCreated, created.ID, created.Amount, PaymentTypeNone, ""),
		s.event(EventPaymentRaised, created.ID, created.Amount, PaymentTypeDirectDebit, ""),
	)

	return PolicyToModel(created), nil
}

func (s *policyService) Renew(ctx context.Context, id int64) (_ policyapi.RenewResult, err error) {
	defer func() { s.observer.ObserveOperation(OpRenew, err) }()

	today := s.today()

	// 1) Load current policy
	old, err := s.load(ctx, s.store, id)
	if err != nil {
		return policyapi.RenewResult{}, err
	}

	// 2) Renewal window: the last 30 days up to and including the end date
	if today.After(old.EndDate) {
		return policyapi.RenewResult{}, ErrPolicyExpiredRenew
	}
	if today.Before(AddDays(old.EndDate, -RenewalWindowDays)) {
		return policyapi.RenewResult{}, ErrOutsideRenewalWindow
	}

	// 3) Follow-on policy. Holders are not carried over.
	draft := Policy{
		StartDate: AddDays(old.EndDate, 1),
		EndDate:   AddYears(old.EndDate, 1),
		Amount:    old.Amount,
		AutoRenew: old.AutoRenew,
		Property:  old.Property,
	}

	var renewed Policy
	err = s.store.WithTx(ctx, func(repo Repository) error {
		var err error
		renewed, err = s.issue(ctx, repo, draft, old.AutoRenew)
		return err
	})
	if err != nil {
		err = classify(err, "Failed to create policy")
		return policyapi.RenewResult{}, Persistence("Failed to create renewed policy: "+MessageOf(err), err)
	}

	events := []Event{s.event(EventPolicyRenewed, renewed.ID, renewed.Amount, PaymentTypeNone, "")}
	if old.AutoRenew {
		events = append(events, s.event(EventPaymentRaised, renewed.ID, renewed.Amount, PaymentTypeDirectDebit, ""))
	}
	s.publish(ctx, events...)

	raised := true
	if s.reportActualRenewalPayment {
		raised = old.AutoRenew
	}

	return policyapi.RenewResult{
		PolicyID:      renewed.ID,
		NewStartDate:  policyapi.NewDate(renewed.StartDate),
		NewEndDate:    policyapi.NewDate(renewed.EndDate),
		NewAmount:     renewed.Amount,
		PaymentRaised: raised,
	}, nil
}

func (s *policyService) Cancel(ctx context.Context, id int64) (_ policyapi.CancelResult, err error) {
	defer func() { s.observer.ObserveOperation(OpCancel, err) }()

	today := s.today()

	// 1) Load policy
	p, err := s.load(ctx, s.store, id)
	if err != nil {
		return policyapi.CancelResult{}, err
	}

	// 2) Only live policies can be cancelled
	if p.Cancelled {
		return policyapi.CancelResult{}, ErrPolicyAlreadyCancelled
	}
	if !today.Before(p.EndDate) {
		return policyapi.CancelResult{}, ErrPolicyExpiredCancel
	}

	// 3) Flag and refund together
	var refund Refund
	err = s.store.WithTx(ctx, func(repo Repository) error {
		ok, err := repo.CancelPolicy(ctx, p.ID)
		if err != nil {
			return Persistence("Failed to cancel policy", err)
		}
		if !ok {
			return Persistence("Failed to cancel policy", nil)
		}

		amount, typ := ComputeRefund(p, today)
		refund, err = repo.AddRefundToPolicy(ctx, p.ID, Refund{
			PolicyID:  p.ID,
			Type:      typ,
			Amount:    amount,
			CreatedAt: s.clock().UTC(),
			Reason:    RefundReasonCancellation,
		})
		if err != nil {
			return Persistence("Failed to add refund to policy", err)
		}
		return nil
	})
	if err != nil {
		return policyapi.CancelResult{}, classify(err, "Failed to cancel policy")
	}

	s.observer.ObserveRefund(refund.Amount, refund.Type)
	s.publish(ctx,
		s.event(EventPolicyCancelled, p.ID, refund.Amount, refund.Type, RefundReasonCancellation),
		s.event(EventRefundRaised, p.ID, refund.Amount, refund.Type, RefundReasonCancellation),
	)

	return policyapi.CancelResult{
		PolicyID:     p.ID,
		RefundAmount: refund.Amount,
		PaymentType:  policyapi.PaymentType(refund.Type.String()),
	}, nil
}

// IsAssociatedWithUser always allows access until policy ownership is modelled.
func (s *policyService) IsAssociatedWithUser(ctx context.Context, policyID int64, userID string) (bool, error) {
	return true, nil
}

// issue writes header, property, holders and optionally a direct debit payment,
// then reads the aggregate back.
func (s *policyService) issue(ctx context.Context, repo Repository, p Policy, raisePayment bool) (Policy, error) {
	// 1) Header
	saved, err := repo.AddPolicy(ctx, Policy{
		StartDate: p.StartDate,
		EndDate:   p.EndDate,
		Amount:    p.Amount,
		AutoRenew: p.AutoRenew,
	})
	if err != nil {
		return Policy{}, Persistence("Failed to create policy", err)
	}

	// 2) Property
	prop := p.Property
	prop.ID, prop.PolicyID = 0, saved.ID
	if err := repo.AddPropertyToPolicy(ctx, saved.ID, prop); err != nil {
		return Policy{}, Persistence("Failed to add property to policy", err)
	}

	// 3) Holders, in quote order
	for _, h := range p.Holders {
		h.ID, h.PolicyID = 0, saved.ID
		if err := repo.AddHolderToPolicy(ctx, saved.ID, h); err != nil {
			return Policy{}, Persistence("Failed to add policy holder to policy", err)
		}
	}

	// 4) Payment for the full amount
	if raisePayment {
		_, err := repo.AddPaymentToPolicy(ctx, saved.ID, Payment{
			PolicyID:  saved.ID,
			Type:      PaymentTypeDirectDebit,
			Amount:    p.Amount,
			CreatedAt: s.clock().UTC(),
		})
		if err != nil {
			return Policy{}, Persistence("Failed to add payment to policy", err)
		}
	}

	// 5) Read back what was stored
	return s.load(ctx, repo, saved.ID)
}

func (s *policyService) load(ctx context.Context, repo Repository, id int64) (Policy, error) {
	if id <= 0 {
		return Policy{}, ErrPolicyNotFound
	}
	p, err := repo.GetPolicy(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Policy{}, ErrPolicyNotFound
		}
		return Policy{}, Persistence("Failed to load policy", err)
	}
	return p, nil
}

// classify leaves domain errors as they are and files anything else under ErrPersistence.
func classify(err error, msg string) error {
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	return Persistence(msg, err)
}

func (s *policyService) today() time.Time {
	return DateOf(s.clock().UTC())
}

func (s *policyService) event(t EventType, policyID int64, amount decimal.Decimal, typ PaymentType, reason string) Event {
	return Event{
		Type:        t,
		PolicyID:    policyID,
		Amount:      amount,
		PaymentType: typ,
		Reason:      reason,
		OccurredAt:  s.clock().UTC(),
	}
}

// publish is best effort; the lifecycle change is already committed.
// Events run on their own deadline, detached from the caller's cancellation.
func (s *policyService) publish(ctx context.Context, events ...Event) {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()

	if err := s.events.Publish(pctx, events...); err != nil {
		s.log.WarnContext(ctx, "failed to publish lifecycle events", "count", len(events), "err", err)
	}
}
