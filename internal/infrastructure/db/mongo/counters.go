package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// sequence hands out monotonically increasing int64 ids per collection from
// the counters collection.
type sequence struct {
	coll *mongo.Collection
	name string
}

func newSequence(db *mongo.Database, name string) sequence {
	return sequence{coll: db.Collection(collectionCounters), name: name}
}

func (s sequence) next(ctx context.Context) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": s.name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("next %s id: %w", s.name, err)
	}
	return doc.Seq, nil
}

// page converts 1-based paging into find options.
func page(pageNum, pageSize int) *options.FindOptions {
	return options.Find().
		SetSkip(int64((pageNum - 1) * pageSize)).
		SetLimit(int64(pageSize))
}
