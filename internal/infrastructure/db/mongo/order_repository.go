package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/netbar/billing-system/internal/core/domain"
	"github.com/netbar/billing-system/internal/core/ports"
)

type OrderRepository struct {
	coll *mongo.Collection
	seq  sequence
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{coll: db.Collection(collectionOrders), seq: newSequence(db, collectionOrders)}
}

type mongoOrderLine struct {
	CommodityID int64   `bson:"commodity_id"`
	Name        string  `bson:"name"`
	Price       float64 `bson:"price"`
	Quantity    int     `bson:"quantity"`
}

type mongoOrder struct {
	ID            int64            `bson:"_id"`
	UserID        int64            `bson:"user_id"`
	MachineID     int64            `bson:"machine_id"`
	MachineZoneID int64            `bson:"machine_zone_id"`
	OrderDate     time.Time        `bson:"order_date"`
	Status        string           `bson:"status"`
	TotalPrice    float64          `bson:"total_price"`
	Commodities   []mongoOrderLine `bson:"commodities"`
	HandledAt     *time.Time       `bson:"handled_at,omitempty"`
}

func toMongoOrder(o *domain.Order) mongoOrder {
	lines := make([]mongoOrderLine, 0, len(o.Commodities))
	for _, l := range o.Commodities {
		lines = append(lines, mongoOrderLine(l))
	}
	return mongoOrder{
		ID:            o.ID,
		UserID:        o.UserID,
		MachineID:     o.MachineID,
		MachineZoneID: o.MachineZoneID,
		OrderDate:     o.OrderDate,
		Status:        string(o.Status),
		TotalPrice:    o.TotalPrice,
		Commodities:   lines,
		HandledAt:     o.HandledAt,
	}
}

func (d mongoOrder) toDomain() *domain.Order {
	lines := make([]domain.OrderLine, 0, len(d.Commodities))
	for _, l := range d.Commodities {
		lines = append(lines, domain.OrderLine(l))
	}
	return &domain.Order{
		ID:            d.ID,
		UserID:        d.UserID,
		MachineID:     d.MachineID,
		MachineZoneID: d.MachineZoneID,
		OrderDate:     d.OrderDate,
		Status:        domain.OrderStatus(d.Status),
		TotalPrice:    d.TotalPrice,
		Commodities:   lines,
		HandledAt:     d.HandledAt,
	}
}

// Create inserts a new order document.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.seq.next(ctx)
	if err != nil {
		return err
	}
	o.ID = id

	if _, err := r.coll.InsertOne(ctx, toMongoOrder(o)); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoOrder
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	return doc.toDomain(), nil
}

// Search returns one page of orders, newest first.
func (r *OrderRepository) Search(ctx context.Context, filter ports.OrderFilter) ([]*domain.Order, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	q := bson.M{}
	if filter.Status != "" {
		q["status"] = filter.Status
	}
	if filter.UserID > 0 {
		q["user_id"] = filter.UserID
	}
	if filter.MachineID > 0 {
		q["machine_id"] = filter.MachineID
	}
	if !filter.DateFrom.IsZero() || !filter.DateTo.IsZero() {
		dateFilter := bson.M{}
		if !filter.DateFrom.IsZero() {
			dateFilter["$gte"] = filter.DateFrom
		}
		if !filter.DateTo.IsZero() {
			dateFilter["$lte"] = filter.DateTo
		}
		q["order_date"] = dateFilter
	}

	total, err := r.coll.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	opts := page(filter.PageNum, filter.PageSize).
		SetSort(bson.D{{Key: "order_date", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.coll.Find(ctx, q, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find orders: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoOrder
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode orders: %w", err)
	}
	out := make([]*domain.Order, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, total, nil
}

func (r *OrderRepository) CountByStatus(ctx context.Context, status domain.OrderStatus) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{"status": string(status)})
	if err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return n, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, from, to domain.OrderStatus, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "status": string(from)},
		bson.M{"$set": bson.M{"status": string(to), "handled_at": at}},
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if res.MatchedCount == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
		return domain.ErrInvalidTransition
	}
	return nil
}

// SalesReport aggregates completed orders in [from, to] into totals, per-day
// revenue and the best-selling commodities in a single $facet pass.
func (r *OrderRepository) SalesReport(ctx context.Context, from, to time.Time, top int) (*domain.SalesReport, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"status":     string(domain.OrderCompleted),
			"order_date": bson.M{"$gte": from, "$lte": to},
		}}},
		{{Key: "$facet", Value: bson.M{
			"totals": bson.A{
				bson.M{"$group": bson.M{
					"_id":     nil,
					"orders":  bson.M{"$sum": 1},
					"revenue": bson.M{"$sum": "$total_price"},
				}},
			},
			"daily": bson.A{
				bson.M{"$group": bson.M{
					"_id":     bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$order_date"}},
					"orders":  bson.M{"$sum": 1},
					"revenue": bson.M{"$sum": "$total_price"},
				}},
				bson.M{"$sort": bson.M{"_id": 1}},
			},
			"top": bson.A{
				bson.M{"$unwind": "$commodities"},
				bson.M{"$group": bson.M{
					"_id":      "$commodities.commodity_id",
					"name":     bson.M{"$first": "$commodities.name"},
					"quantity": bson.M{"$sum": "$commodities.quantity"},
					"revenue": bson.M{"$sum": bson.M{"$multiply": bson.A{
						"$commodities.price", "$commodities.quantity",
					}}},
				}},
				bson.M{"$sort": bson.D{{Key: "quantity", Value: -1}, {Key: "_id", Value: 1}}},
				bson.M{"$limit": top},
			},
		}}},
	}

	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("sales report: %w", err)
	}
	defer cur.Close(ctx)

	type bucket struct {
		Key      any     `bson:"_id"`
		Name     string  `bson:"name"`
		Orders   int64   `bson:"orders"`
		Quantity int64   `bson:"quantity"`
		Revenue  float64 `bson:"revenue"`
	}
	var rows []struct {
		Totals []bucket `bson:"totals"`
		Daily  []bucket `bson:"daily"`
		Top    []bucket `bson:"top"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode sales report: %w", err)
	}

	report := &domain.SalesReport{
		From:           from,
		To:             to,
		Daily:          []domain.DailySales{},
		TopCommodities: []domain.CommoditySales{},
	}
	if len(rows) == 0 {
		return report, nil
	}
	row := rows[0]
	if len(row.Totals) > 0 {
		report.Orders = row.Totals[0].Orders
		report.Revenue = domain.RoundMoney(row.Totals[0].Revenue)
	}
	for _, d := range row.Daily {
		date, _ := d.Key.(string)
		report.Daily = append(report.Daily, domain.DailySales{
			Date:    date,
			Orders:  d.Orders,
			Revenue: domain.RoundMoney(d.Revenue),
		})
	}
	for _, t := range row.Top {
		report.TopCommodities = append(report.TopCommodities, domain.CommoditySales{
			CommodityID: toInt64(t.Key),
			Name:        t.Name,
			Quantity:    t.Quantity,
			Revenue:     domain.RoundMoney(t.Revenue),
		})
	}
	return report, nil
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}
