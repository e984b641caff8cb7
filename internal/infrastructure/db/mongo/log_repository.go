package mongo

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/netbar/billing-system/internal/core/domain"
	"github.com/netbar/billing-system/internal/core/ports"
)

// LogRepository persists the audit trail to the logs collection.
type LogRepository struct {
	coll *mongo.Collection
	seq  sequence
}

func NewLogRepository(db *mongo.Database) *LogRepository {
	return &LogRepository{coll: db.Collection(collectionLogs), seq: newSequence(db, collectionLogs)}
}

type mongoLog struct {
	ID        int64     `bson:"_id"`
	Timestamp time.Time `bson:"timestamp"`
	Kind      string    `bson:"kind"`
	ActorID   string    `bson:"actor_id"`
	Action    string    `bson:"action"`
	Details   string    `bson:"details"`
}

func (r *LogRepository) Insert(ctx context.Context, entry *domain.LogEntry) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.seq.next(ctx)
	if err != nil {
		return err
	}
	entry.ID = id

	doc := mongoLog{
		ID:        entry.ID,
		Timestamp: entry.Timestamp.UTC(),
		Kind:      string(entry.Kind),
		ActorID:   entry.ActorID,
		Action:    entry.Action,
		Details:   entry.Details,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert log: %w", err)
	}
	return nil
}

// List returns one page of audit records, newest first.
func (r *LogRepository) List(ctx context.Context, filter ports.LogFilter) ([]*domain.LogEntry, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	q := bson.M{}
	if filter.Kind != "" {
		q["kind"] = string(filter.Kind)
	}
	if filter.ActorID != "" {
		q["actor_id"] = filter.ActorID
	}
	if filter.Action != "" {
		q["action"] = filter.Action
	}
	if filter.Keyword != "" {
		q["details"] = primitive.Regex{Pattern: regexp.QuoteMeta(filter.Keyword), Options: "i"}
	}

	total, err := r.coll.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("count logs: %w", err)
	}

	opts := page(filter.PageNum, filter.PageSize).SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.coll.Find(ctx, q, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find logs: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoLog
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode logs: %w", err)
	}
	out := make([]*domain.LogEntry, 0, len(docs))
	for _, d := range docs {
		out = append(out, &domain.LogEntry{
			ID:        d.ID,
			Timestamp: d.Timestamp,
			Kind:      domain.LogKind(d.Kind),
			ActorID:   d.ActorID,
			Action:    d.Action,
			Details:   d.Details,
		})
	}
	return out, total, nil
}
