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
	"github.com/netbar/billing-system/internal/core/ports"
)

// MachineRepository implements ports.MachineRepository using MongoDB. Status
// changes are compare-and-set on the current status.
type MachineRepository struct {
	coll *mongo.Collection
	seq  sequence
}

func NewMachineRepository(db *mongo.Database) *MachineRepository {
	return &MachineRepository{coll: db.Collection(collectionMachines), seq: newSequence(db, collectionMachines)}
}

type mongoMachine struct {
	ID            int64     `bson:"_id"`
	Name          string    `bson:"name"`
	ZoneID        int64     `bson:"zone_id"`
	IPAddress     string    `bson:"ip_address"`
	Status        string    `bson:"status"`
	CurrentUserID *int64    `bson:"current_user_id"`
	CreatedAt     time.Time `bson:"created_at"`
}

func (d mongoMachine) toDomain() *domain.Machine {
	return &domain.Machine{
		ID:            d.ID,
		Name:          d.Name,
		ZoneID:        d.ZoneID,
		IPAddress:     d.IPAddress,
		Status:        domain.MachineStatus(d.Status),
		CurrentUserID: d.CurrentUserID,
		CreatedAt:     d.CreatedAt,
	}
}

func (r *MachineRepository) Create(ctx context.Context, m *domain.Machine) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.seq.next(ctx)
	if err != nil {
		return err
	}
	m.ID = id

	doc := mongoMachine{
		ID:            m.ID,
		Name:          m.Name,
		ZoneID:        m.ZoneID,
		IPAddress:     m.IPAddress,
		Status:        string(m.Status),
		CurrentUserID: m.CurrentUserID,
		CreatedAt:     m.CreatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrMachineExists
		}
		return fmt.Errorf("insert machine: %w", err)
	}
	return nil
}

func (r *MachineRepository) FindByID(ctx context.Context, id int64) (*domain.Machine, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MachineRepository) FindByName(ctx context.Context, name string) (*domain.Machine, error) {
	return r.findOne(ctx, bson.M{"name": name})
}

func (r *MachineRepository) findOne(ctx context.Context, filter bson.M) (*domain.Machine, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoMachine
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrMachineNotFound
		}
		return nil, fmt.Errorf("find machine: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *MachineRepository) Update(ctx context.Context, m *domain.Machine) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": m.ID}, bson.M{"$set": bson.M{
		"name":       m.Name,
		"zone_id":    m.ZoneID,
		"ip_address": m.IPAddress,
	}})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrMachineExists
		}
		return fmt.Errorf("update machine: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrMachineNotFound
	}
	return nil
}

func (r *MachineRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id, "status": bson.M{"$ne": string(domain.MachineOccupied)}})
	if err != nil {
		return fmt.Errorf("delete machine: %w", err)
	}
	if res.DeletedCount == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
		return domain.ErrMachineBusy
	}
	return nil
}

func (r *MachineRepository) List(ctx context.Context, filter ports.MachineFilter) ([]*domain.Machine, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	q := bson.M{}
	if filter.ZoneID > 0 {
		q["zone_id"] = filter.ZoneID
	}
	if filter.Status != "" {
		q["status"] = filter.Status
	}

	cur, err := r.coll.Find(ctx, q, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find machines: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoMachine
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode machines: %w", err)
	}
	out := make([]*domain.Machine, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *MachineRepository) CountByZone(ctx context.Context, zoneID int64) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{"zone_id": zoneID})
	if err != nil {
		return 0, fmt.Errorf("count machines: %w", err)
	}
	return n, nil
}

func (r *MachineRepository) Stats(ctx context.Context) (*domain.MachineStats, error) {
	counts, err := countByStatus(ctx, r.coll)
	if err != nil {
		return nil, err
	}
	stats := &domain.MachineStats{
		OccupiedMachines: counts[string(domain.MachineOccupied)],
		IdleMachines:     counts[string(domain.MachineIdle)],
		AbnormalMachines: counts[string(domain.MachineAbnormal)],
	}
	for _, n := range counts {
		stats.TotalMachines += n
	}
	return stats, nil
}

func (r *MachineRepository) Occupy(ctx context.Context, id, userID int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "status": string(domain.MachineIdle)},
		bson.M{"$set": bson.M{"status": string(domain.MachineOccupied), "current_user_id": userID}},
	)
	if err != nil {
		return fmt.Errorf("occupy machine: %w", err)
	}
	if res.MatchedCount == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
		return domain.ErrMachineBusy
	}
	return nil
}

// Release clears the seated user. An Abnormal machine keeps its status.
func (r *MachineRepository) Release(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"status": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$status", string(domain.MachineOccupied)}},
				string(domain.MachineIdle),
				"$status",
			}},
			"current_user_id": nil,
		}}},
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("release machine: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrMachineNotFound
	}
	return nil
}

func (r *MachineRepository) SetStatus(ctx context.Context, id int64, status domain.MachineStatus, from ...domain.MachineStatus) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	allowed := make(bson.A, 0, len(from))
	for _, s := range from {
		allowed = append(allowed, string(s))
	}

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "status": bson.M{"$in": allowed}},
		bson.M{"$set": bson.M{"status": string(status)}},
	)
	if err != nil {
		return fmt.Errorf("set machine status: %w", err)
	}
	if res.MatchedCount == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
		return domain.ErrMachineBusy
	}
	return nil
}
