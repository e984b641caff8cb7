package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/netbar/billing-system/internal/core/domain"
)

type ZoneRepository struct {
	coll *mongo.Collection
	seq  sequence
}

func NewZoneRepository(db *mongo.Database) *ZoneRepository {
	return &ZoneRepository{coll: db.Collection(collectionZones), seq: newSequence(db, collectionZones)}
}

type mongoZone struct {
	ID           int64   `bson:"_id"`
	Name         string  `bson:"name"`
	Capacity     int     `bson:"capacity"`
	PricePerHour float64 `bson:"price_per_hour"`
	Description  string  `bson:"description"`
}

func (d mongoZone) toDomain() *domain.Zone {
	return &domain.Zone{
		ID:           d.ID,
		Name:         d.Name,
		Capacity:     d.Capacity,
		PricePerHour: d.PricePerHour,
		Description:  d.Description,
	}
}

func (r *ZoneRepository) Create(ctx context.Context, z *domain.Zone) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.seq.next(ctx)
	if err != nil {
		return err
	}
	z.ID = id

	doc := mongoZone{ID: z.ID, Name: z.Name, Capacity: z.Capacity, PricePerHour: z.PricePerHour, Description: z.Description}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrZoneExists
		}
		return fmt.Errorf("insert zone: %w", err)
	}
	return nil
}

func (r *ZoneRepository) FindByID(ctx context.Context, id int64) (*domain.Zone, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *ZoneRepository) FindByName(ctx context.Context, name string) (*domain.Zone, error) {
	return r.findOne(ctx, bson.M{"name": name})
}

func (r *ZoneRepository) findOne(ctx context.Context, filter bson.M) (*domain.Zone, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoZone
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrZoneNotFound
		}
		return nil, fmt.Errorf("find zone: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *ZoneRepository) Update(ctx context.Context, z *domain.Zone) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": z.ID}, bson.M{"$set": bson.M{
		"name":           z.Name,
		"capacity":       z.Capacity,
		"price_per_hour": z.PricePerHour,
		"description":    z.Description,
	}})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrZoneExists
		}
		return fmt.Errorf("update zone: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrZoneNotFound
	}
	return nil
}

func (r *ZoneRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete zone: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrZoneNotFound
	}
	return nil
}

func (r *ZoneRepository) List(ctx context.Context) ([]*domain.Zone, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find zones: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoZone
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode zones: %w", err)
	}
	out := make([]*domain.Zone, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}
