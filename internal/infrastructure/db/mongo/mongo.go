package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/netbar/billing-system/internal/core/domain"
)

const defaultTimeout = 10 * time.Second

// Collection names.
const (
	collectionCounters    = "counters"
	collectionAdmins      = "admins"
	collectionUsers       = "users"
	collectionZones       = "zones"
	collectionMachines    = "machines"
	collectionCommodities = "commodities"
	collectionOrders      = "orders"
	collectionMessages    = "messages"
	collectionLogs        = "logs"
)

// Config captures the minimal settings required to establish a MongoDB connection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect establishes a MongoDB client, verifies connectivity with a ping, and
// returns both the client and the selected database. A default timeout is
// applied when none is provided.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(cfg.Database)
	return client, db, nil
}

// EnsureIndexes creates the unique and lookup indexes every collection relies on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	for coll, models := range indexModels() {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

func indexModels() map[string][]mongo.IndexModel {
	unique := options.Index().SetUnique(true)
	return map[string][]mongo.IndexModel{
		collectionAdmins: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: unique},
		},
		collectionUsers: {
			{Keys: bson.D{{Key: "identity_card", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "status", Value: 1}}},
		},
		collectionZones: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: unique},
		},
		collectionMachines: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "zone_id", Value: 1}}},
		},
		collectionOrders: {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "order_date", Value: -1}}},
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
		},
		collectionMessages: {
			{Keys: bson.D{{Key: "machine_id", Value: 1}, {Key: "status", Value: 1}}},
			// at most one pending message per machine
			{
				Keys: bson.D{{Key: "machine_id", Value: 1}},
				Options: options.Index().
					SetName("machine_pending_unique").
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"status": string(domain.MessagePending)}),
			},
		},
		collectionLogs: {
			{Keys: bson.D{{Key: "kind", Value: 1}, {Key: "timestamp", Value: -1}}},
		},
	}
}

// Ping reports whether the database answers. Used by the readiness probe.
func Ping(ctx context.Context, client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return client.Ping(ctx, nil)
}
