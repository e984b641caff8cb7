package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/netbar/billing-system/internal/core/domain"
	"github.com/netbar/billing-system/internal/core/ports"
)

// UserRepository implements ports.UserRepository using MongoDB. Balance and
// session changes are single-document conditional updates.
type UserRepository struct {
	coll *mongo.Collection
	seq  sequence
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(collectionUsers), seq: newSequence(db, collectionUsers)}
}

type mongoUser struct {
	ID                  int64      `bson:"_id"`
	Name                string     `bson:"name"`
	IdentityCard        string     `bson:"identity_card"`
	PhoneNumber         string     `bson:"phone_number"`
	PasswordHash        string     `bson:"password_hash"`
	Balance             float64    `bson:"balance"`
	Status              string     `bson:"status"`
	MachineID           *int64     `bson:"machine_id"`
	LastOnComputerTime  *time.Time `bson:"last_on_computer_time"`
	LastOffComputerTime *time.Time `bson:"last_off_computer_time"`
	RegisterTime        time.Time  `bson:"register_time"`
}

func toMongoUser(u *domain.User) mongoUser {
	return mongoUser{
		ID:                  u.ID,
		Name:                u.Name,
		IdentityCard:        u.IdentityCard,
		PhoneNumber:         u.PhoneNumber,
		PasswordHash:        u.PasswordHash,
		Balance:             u.Balance,
		Status:              string(u.Status),
		MachineID:           u.MachineID,
		LastOnComputerTime:  u.LastOnComputerTime,
		LastOffComputerTime: u.LastOffComputerTime,
		RegisterTime:        u.RegisterTime,
	}
}

func (d mongoUser) toDomain() *domain.User {
	return &domain.User{
		ID:                  d.ID,
		Name:                d.Name,
		IdentityCard:        d.IdentityCard,
		PhoneNumber:         d.PhoneNumber,
		PasswordHash:        d.PasswordHash,
		Balance:             d.Balance,
		Status:              domain.UserStatus(d.Status),
		MachineID:           d.MachineID,
		LastOnComputerTime:  d.LastOnComputerTime,
		LastOffComputerTime: d.LastOffComputerTime,
		RegisterTime:        d.RegisterTime,
	}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.seq.next(ctx)
	if err != nil {
		return err
	}
	u.ID = id

	if _, err := r.coll.InsertOne(ctx, toMongoUser(u)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) FindByIdentityCard(ctx context.Context, identityCard string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"identity_card": identityCard})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoUser
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": u.ID}, bson.M{"$set": bson.M{
		"name":          u.Name,
		"identity_card": u.IdentityCard,
		"phone_number":  u.PhoneNumber,
		"password_hash": u.PasswordHash,
	}})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrUserExists
		}
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// SetStatus only matches while the stored status is still from, so a
// session starting or stopping in between is never overwritten.
func (r *UserRepository) SetStatus(ctx context.Context, id int64, from, to domain.UserStatus) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "status": string(from)},
		bson.M{"$set": bson.M{"status": string(to)}})
	if err != nil {
		return fmt.Errorf("set user status: %w", err)
	}
	if res.MatchedCount == 0 {
		if _, ferr := r.FindByID(ctx, id); ferr != nil {
			return ferr
		}
		return domain.ErrUserOnline
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context, filter ports.UserFilter) ([]*domain.User, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	q := bson.M{}
	if filter.Name != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Name), Options: "i"}
		q["$or"] = bson.A{
			bson.M{"name": re},
			bson.M{"identity_card": re},
			bson.M{"phone_number": re},
		}
	}
	if filter.Status != "" {
		q["status"] = filter.Status
	}

	total, err := r.coll.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	opts := page(filter.PageNum, filter.PageSize).SetSort(bson.D{{Key: "_id", Value: 1}})
	users, err := r.find(ctx, q, opts)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *UserRepository) ListOnline(ctx context.Context) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return r.find(ctx, bson.M{"status": string(domain.UserOnline)}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

func (r *UserRepository) find(ctx context.Context, q bson.M, opts *options.FindOptions) ([]*domain.User, error) {
	cur, err := r.coll.Find(ctx, q, opts)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoUser
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	out := make([]*domain.User, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *UserRepository) Stats(ctx context.Context) (*domain.UserStats, error) {
	counts, err := countByStatus(ctx, r.coll)
	if err != nil {
		return nil, err
	}
	stats := &domain.UserStats{
		OnlineUsers: counts[string(domain.UserOnline)],
		BannedUsers: counts[string(domain.UserBanned)],
	}
	for _, n := range counts {
		stats.TotalUsers += n
	}
	return stats, nil
}

// AdjustBalance applies delta with a $gte guard so that concurrent debits
// cannot overdraw. The stored value is rounded to cents.
func (r *UserRepository) AdjustBalance(ctx context.Context, id int64, delta float64) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": id}
	if delta < 0 {
		filter["balance"] = bson.M{"$gte": -delta}
	}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"balance": bson.M{"$round": bson.A{bson.M{"$add": bson.A{"$balance", delta}}, 2}},
		}}},
	}

	var doc mongoUser
	err := r.coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, ferr := r.FindByID(ctx, id); ferr != nil {
			return nil, ferr
		}
		return nil, domain.ErrInsufficientBalance
	}
	if err != nil {
		return nil, fmt.Errorf("adjust balance: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) StartSession(ctx context.Context, id, machineID int64, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "status": string(domain.UserOffline)},
		bson.M{"$set": bson.M{
			"status":                string(domain.UserOnline),
			"machine_id":            machineID,
			"last_on_computer_time": at,
		}},
	)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	if res.MatchedCount == 0 {
		u, err := r.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if u.Status == domain.UserBanned {
			return domain.ErrUserBanned
		}
		return domain.ErrUserOnline
	}
	return nil
}

func (r *UserRepository) EndSession(ctx context.Context, id int64, charge float64, at time.Time) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"status":                 string(domain.UserOffline),
			"machine_id":             nil,
			"last_off_computer_time": at,
			"balance": bson.M{"$round": bson.A{
				bson.M{"$max": bson.A{bson.M{"$subtract": bson.A{"$balance", charge}}, 0}}, 2,
			}},
		}}},
	}

	var doc mongoUser
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": string(domain.UserOnline)},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, ferr := r.FindByID(ctx, id); ferr != nil {
			return nil, ferr
		}
		return nil, domain.ErrUserOffline
	}
	if err != nil {
		return nil, fmt.Errorf("end session: %w", err)
	}
	return doc.toDomain(), nil
}

// countByStatus groups a collection by its status field.
func countByStatus(ctx context.Context, coll *mongo.Collection) (map[string]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "n": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer cur.Close(ctx)

	var rows []struct {
		Status string `bson:"_id"`
		N      int64  `bson:"n"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode status counts: %w", err)
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.N
	}
	return out, nil
}
