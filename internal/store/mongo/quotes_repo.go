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

type QuoteRepoMongo struct {
	coll      *mongodrv.Collection
	counters  *mongodrv.Collection
	opTimeout time.Duration
}

func NewQuoteRepo(db *mongodrv.Database, opTimeout time.Duration) *QuoteRepoMongo {
	return &QuoteRepoMongo{
		coll:      db.Collection(ColQuotes),
		counters:  db.Collection(ColCounters),
		opTimeout: opTimeout,
	}
}

func (repo *QuoteRepoMongo) CreateQuote(ctx context.Context, q core.Quote) (core.Quote, error) {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	id, err := nextID(ctx, repo.counters, ColQuotes)
	if err != nil {
		return core.Quote{}, err
	}
	q.ID = id

	doc, err := toQuoteDoc(q)
	if err != nil {
		return core.Quote{}, err
	}
	if _, err := repo.coll.InsertOne(ctx, doc); err != nil {
		var we mongodrv.WriteException
		if errors.As(err, &we) {
			for _, e := range we.WriteErrors {
				if e.Code == 11000 {
					return core.Quote{}, core.ErrConflict
				}
			}
		}
		return core.Quote{}, fmt.Errorf("quotes.insert: %w", err)
	}
	return fromQuoteDoc(doc)
}

func (repo *QuoteRepoMongo) GetQuote(ctx context.Context, id int64) (core.Quote, error) {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	var doc QuoteDoc
	err := repo.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongodrv.ErrNoDocuments) {
			return core.Quote{}, core.ErrQuoteNotFound
		}
		return core.Quote{}, fmt.Errorf("quotes.findOne: %w", err)
	}
	return fromQuoteDoc(doc)
}
