package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	if err := ensurePoliciesIndexes(ctx, db); err != nil {
		return fmt.Errorf("ensure policies indexes: %w", err)
	}
	if err := ensureQuotesIndexes(ctx, db); err != nil {
		return fmt.Errorf("ensure quotes indexes: %w", err)
	}
	return nil
}

func ensurePoliciesIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(ColPolicies)
	models := []mongo.IndexModel{
		newIndex("end_date", 1, "policies_end_date", false),
		{Keys: bson.D{{Key: "cancelled", Value: 1}, {Key: "end_date", Value: 1}},
			Options: options.Index().SetName("policies_cancelled_end_date"),
		},
	}
	_, err := coll.Indexes().CreateMany(ctx, models)
	return err
}

func ensureQuotesIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(ColQuotes)
	models := []mongo.IndexModel{
		newIndex("created_at", 1, "quotes_created_at", false),
	}
	_, err := coll.Indexes().CreateMany(ctx, models)
	return err
}

func newIndex(field string, asc int32, name string, unique bool) mongo.IndexModel {
	opts := options.Index().SetName(name)
	if unique {
		opts = opts.SetUnique(true)
	}
	return mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: asc}},
		Options: opts,
	}
}
