package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/netbar/billing-system/internal/core/domain"
)

type CommodityRepository struct {
	coll *mongo.Collection
	seq  sequence
}

func NewCommodityRepository(db *mongo.Database) *CommodityRepository {
	return &CommodityRepository{coll: db.Collection(collectionCommodities), seq: newSequence(db, collectionCommodities)}
}

type mongoCommodity struct {
	ID    int64   `bson:"_id"`
	Name  string  `bson:"name"`
	Price float64 `bson:"price"`
	Unit  string  `bson:"unit"`
	Stock int     `bson:"stock"`
}

func (d mongoCommodity) toDomain() *domain.Commodity {
	return &domain.Commodity{ID: d.ID, Name: d.Name, Price: d.Price, Unit: d.Unit, Stock: d.Stock}
}

func (r *CommodityRepository) Create(ctx context.Context, c *domain.Commodity) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.seq.next(ctx)
	if err != nil {
		return err
	}
	c.ID = id

	doc := mongoCommodity{ID: c.ID, Name: c.Name, Price: c.Price, Unit: c.Unit, Stock: c.Stock}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert commodity: %w", err)
	}
	return nil
}

func (r *CommodityRepository) FindByID(ctx context.Context, id int64) (*domain.Commodity, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoCommodity
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCommodityNotFound
		}
		return nil, fmt.Errorf("find commodity: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *CommodityRepository) Update(ctx context.Context, c *domain.Commodity) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": c.ID}, bson.M{"$set": bson.M{
		"name":  c.Name,
		"price": c.Price,
		"unit":  c.Unit,
		"stock": c.Stock,
	}})
	if err != nil {
		return fmt.Errorf("update commodity: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrCommodityNotFound
	}
	return nil
}

func (r *CommodityRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete commodity: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrCommodityNotFound
	}
	return nil
}

func (r *CommodityRepository) List(ctx context.Context, name string) ([]*domain.Commodity, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	q := bson.M{}
	if name != "" {
		q["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(name), Options: "i"}
	}

	cur, err := r.coll.Find(ctx, q, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find commodities: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoCommodity
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode commodities: %w", err)
	}
	out := make([]*domain.Commodity, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

// AdjustStock applies delta guarded by $gte so stock never goes negative.
func (r *CommodityRepository) AdjustStock(ctx context.Context, id int64, delta int) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": id}
	if delta < 0 {
		filter["stock"] = bson.M{"$gte": -delta}
	}
	res, err := r.coll.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"stock": delta}})
	if err != nil {
		return fmt.Errorf("adjust stock: %w", err)
	}
	if res.MatchedCount == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
		return domain.ErrInsufficientStock
	}
	return nil
}
