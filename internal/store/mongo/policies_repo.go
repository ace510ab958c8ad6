package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	mongodrv "go.mongodb.org/mongo-driver/mongo"

	"github.com/MrKriegler/go-policy-admin/internal/core"
)

// PolicyRepoMongo keeps each policy aggregate in a single document.
type PolicyRepoMongo struct {
	coll      *mongodrv.Collection
	counters  *mongodrv.Collection
	opTimeout time.Duration
	// useTx wraps WithTx in a multi-document transaction. Requires a replica set.
	useTx bool
}

func NewPolicyRepo(db *mongodrv.Database, opTimeout time.Duration, useTx bool) *PolicyRepoMongo {
	return &PolicyRepoMongo{
		coll:      db.Collection(ColPolicies),
		counters:  db.Collection(ColCounters),
		opTimeout: opTimeout,
		useTx:     useTx,
	}
}

func (repo *PolicyRepoMongo) GetPolicy(ctx context.Context, id int64) (core.Policy, error) {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	var doc PolicyDoc
	err := repo.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongodrv.ErrNoDocuments) {
			return core.Policy{}, core.ErrPolicyNotFound
		}
		return core.Policy{}, fmt.Errorf("policies.findOne: %w", err)
	}
	return fromPolicyDoc(doc)
}

func (repo *PolicyRepoMongo) AddPolicy(ctx context.Context, p core.Policy) (core.Policy, error) {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	id, err := nextID(ctx, repo.counters, ColPolicies)
	if err != nil {
		return core.Policy{}, err
	}
	amount, err := toDecimal128(p.Amount)
	if err != nil {
		return core.Policy{}, err
	}

	doc := PolicyDoc{
		ID:        id,
		StartDate: core.DateOf(p.StartDate),
		EndDate:   core.DateOf(p.EndDate),
		Amount:    amount,
		AutoRenew: p.AutoRenew,
		Holders:   []HolderDoc{},
		Payments:  []PaymentDoc{},
		Refunds:   []RefundDoc{},
	}
	if _, err := repo.coll.InsertOne(ctx, doc); err != nil {
		return core.Policy{}, fmt.Errorf("policies.insert: %w", err)
	}
	return fromPolicyDoc(doc)
}

func (repo *PolicyRepoMongo) AddPropertyToPolicy(ctx context.Context, policyID int64, prop core.PolicyProperty) error {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	id, err := nextID(ctx, repo.counters, "properties")
	if err != nil {
		return err
	}
	prop.ID = id

	res, err := repo.coll.UpdateOne(ctx,
		bson.M{"_id": policyID, "property": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"property": toPropertyDoc(prop)}},
	)
	if err != nil {
		return fmt.Errorf("policies.setProperty: %w", err)
	}
	if res.MatchedCount == 0 {
		return repo.missingOr(ctx, policyID, core.ErrPropertyExists)
	}
	return nil
}

func (repo *PolicyRepoMongo) AddHolderToPolicy(ctx context.Context, policyID int64, h core.PolicyHolder) error {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	id, err := nextID(ctx, repo.counters, "holders")
	if err != nil {
		return err
	}
	h.ID = id
	return repo.push(ctx, policyID, "holders", toHolderDoc(h))
}

func (repo *PolicyRepoMongo) CancelPolicy(ctx context.Context, policyID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	res, err := repo.coll.UpdateOne(ctx,
		bson.M{"_id": policyID, "cancelled": false},
		bson.M{"$set": bson.M{"cancelled": true, "cancelled_at": time.Now().UTC()}},
	)
	if err != nil {
		return false, fmt.Errorf("policies.cancel: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

func (repo *PolicyRepoMongo) AddPaymentToPolicy(ctx context.Context, policyID int64, p core.Payment) (core.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	id, err := nextID(ctx, repo.counters, "payments")
	if err != nil {
		return core.Payment{}, err
	}
	amount, err := toDecimal128(p.Amount)
	if err != nil {
		return core.Payment{}, err
	}
	p.ID, p.PolicyID = id, policyID

	err = repo.push(ctx, policyID, "payments", PaymentDoc{
		ID:          p.ID,
		PaymentType: int(p.Type),
		Amount:      amount,
		CreatedAt:   p.CreatedAt,
	})
	if err != nil {
		return core.Payment{}, err
	}
	return p, nil
}

func (repo *PolicyRepoMongo) AddRefundToPolicy(ctx context.Context, policyID int64, r core.Refund) (core.Refund, error) {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	id, err := nextID(ctx, repo.counters, "refunds")
	if err != nil {
		return core.Refund{}, err
	}
	amount, err := toDecimal128(r.Amount)
	if err != nil {
		return core.Refund{}, err
	}
	r.ID, r.PolicyID = id, policyID

	err = repo.push(ctx, policyID, "refunds", RefundDoc{
		ID:          r.ID,
		PaymentType: int(r.Type),
		Amount:      amount,
		CreatedAt:   r.CreatedAt,
		Reason:      r.Reason,
	})
	if err != nil {
		return core.Refund{}, err
	}
	return r, nil
}

// WithTx runs fn in a session transaction when enabled, otherwise directly.
// Without transactions the steps of fn are applied one by one.
func (repo *PolicyRepoMongo) WithTx(ctx context.Context, fn func(repo core.Repository) error) error {
	if !repo.useTx {
		return fn(repo)
	}

	sess, err := repo.coll.Database().Client().StartSession()
	if err != nil {
		return fmt.Errorf("mongo.startSession: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongodrv.SessionContext) (interface{}, error) {
		return nil, fn(&sessionRepo{base: repo, sess: sess})
	})
	return err
}

func (repo *PolicyRepoMongo) Ping(ctx context.Context) error {
	return repo.coll.Database().Client().Ping(ctx, nil)
}

func (repo *PolicyRepoMongo) push(ctx context.Context, policyID int64, field string, v interface{}) error {
	res, err := repo.coll.UpdateOne(ctx,
		bson.M{"_id": policyID},
		bson.M{"$push": bson.M{field: v}},
	)
	if err != nil {
		return fmt.Errorf("policies.push(%s): %w", field, err)
	}
	if res.MatchedCount == 0 {
		return core.ErrPolicyNotFound
	}
	return nil
}

// missingOr reports ErrPolicyNotFound if the policy does not exist, otherwise err.
func (repo *PolicyRepoMongo) missingOr(ctx context.Context, policyID int64, err error) error {
	n, cerr := repo.coll.CountDocuments(ctx, bson.M{"_id": policyID})
	if cerr != nil {
		return fmt.Errorf("policies.count: %w", cerr)
	}
	if n == 0 {
		return core.ErrPolicyNotFound
	}
	return err
}

// sessionRepo binds every call to the session of an open transaction.
type sessionRepo struct {
	base *PolicyRepoMongo
	sess mongodrv.Session
}

func (r *sessionRepo) bind(ctx context.Context) context.Context {
	return mongodrv.NewSessionContext(ctx, r.sess)
}

func (r *sessionRepo) GetPolicy(ctx context.Context, id int64) (core.Policy, error) {
	return r.base.GetPolicy(r.bind(ctx), id)
}

func (r *sessionRepo) AddPolicy(ctx context.Context, p core.Policy) (core.Policy, error) {
	return r.base.AddPolicy(r.bind(ctx), p)
}

func (r *sessionRepo) AddPropertyToPolicy(ctx context.Context, policyID int64, prop core.PolicyProperty) error {
	return r.base.AddPropertyToPolicy(r.bind(ctx), policyID, prop)
}

func (r *sessionRepo) AddHolderToPolicy(ctx context.Context, policyID int64, h core.PolicyHolder) error {
	return r.base.AddHolderToPolicy(r.bind(ctx), policyID, h)
}

func (r *sessionRepo) CancelPolicy(ctx context.Context, policyID int64) (bool, error) {
	return r.base.CancelPolicy(r.bind(ctx), policyID)
}

func (r *sessionRepo) AddPaymentToPolicy(ctx context.Context, policyID int64, p core.Payment) (core.Payment, error) {
	return r.base.AddPaymentToPolicy(r.bind(ctx), policyID, p)
}

func (r *sessionRepo) AddRefundToPolicy(ctx context.Context, policyID int64, rf core.Refund) (core.Refund, error) {
	return r.base.AddRefundToPolicy(r.bind(ctx), policyID, rf)
}

var _ core.Store = (*PolicyRepoMongo)(nil)
