package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	mongodrv "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// nextID atomically increments the named sequence and returns its new value.
func nextID(ctx context.Context, counters *mongodrv.Collection, name string) (int64, error) {
	filter := bson.M{"_id": name}
	update := bson.M{"$inc": bson.M{"seq": int64(1)}}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var result struct {
		Seq int64 `bson:"seq"`
	}
	if err := counters.FindOneAndUpdate(ctx, filter, update, opts).Decode(&result); err != nil {
		return 0, fmt.Errorf("counters.next(%s): %w", name, err)
	}
	return result.Seq, nil
}
