package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/netbar/billing-system/internal/core/domain"
)

type MessageRepository struct {
	coll *mongo.Collection
	seq  sequence
}

func NewMessageRepository(db *mongo.Database) *MessageRepository {
	return &MessageRepository{coll: db.Collection(collectionMessages), seq: newSequence(db, collectionMessages)}
}

type mongoMessage struct {
	ID        int64     `bson:"_id"`
	Content   string    `bson:"content"`
	Time      time.Time `bson:"time"`
	UserID    *int64    `bson:"user_id"`
	MachineID int64     `bson:"machine_id"`
	Status    string    `bson:"status"`
}

func (d mongoMessage) toDomain() *domain.Message {
	return &domain.Message{
		ID:        d.ID,
		Content:   d.Content,
		Time:      d.Time,
		UserID:    d.UserID,
		MachineID: d.MachineID,
		Status:    domain.MessageStatus(d.Status),
	}
}

func (r *MessageRepository) Create(ctx context.Context, m *domain.Message) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.seq.next(ctx)
	if err != nil {
		return err
	}
	m.ID = id

	doc := mongoMessage{
		ID:        m.ID,
		Content:   m.Content,
		Time:      m.Time,
		UserID:    m.UserID,
		MachineID: m.MachineID,
		Status:    string(m.Status),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return messageInsertError(err)
	}
	return nil
}

// messageInsertError maps a hit on the pending-per-machine index to
// ErrPendingCallExists.
func messageInsertError(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrPendingCallExists
	}
	return fmt.Errorf("insert message: %w", err)
}

func (r *MessageRepository) FindByID(ctx context.Context, id int64) (*domain.Message, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MessageRepository) FindPendingByMachine(ctx context.Context, machineID int64) (*domain.Message, error) {
	return r.findOne(ctx, bson.M{"machine_id": machineID, "status": string(domain.MessagePending)})
}

func (r *MessageRepository) findOne(ctx context.Context, filter bson.M) (*domain.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoMessage
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, fmt.Errorf("find message: %w", err)
	}
	return doc.toDomain(), nil
}

// ListPending returns pending messages, oldest first.
func (r *MessageRepository) ListPending(ctx context.Context) ([]*domain.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.coll.Find(ctx,
		bson.M{"status": string(domain.MessagePending)},
		options.Find().SetSort(bson.D{{Key: "time", Value: 1}, {Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("find messages: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoMessage
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	out := make([]*domain.Message, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *MessageRepository) UpdateStatus(ctx context.Context, id int64, from, to domain.MessageStatus) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "status": string(from)},
		bson.M{"$set": bson.M{"status": string(to)}},
	)
	if err != nil {
		return fmt.Errorf("update message status: %w", err)
	}
	if res.MatchedCount == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
		return domain.ErrInvalidTransition
	}
	return nil
}
