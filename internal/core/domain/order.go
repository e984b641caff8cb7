package domain

import "time"

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "Pending"
	OrderCompleted OrderStatus = "Completed"
	OrderCancelled OrderStatus = "Cancelled"
)

// validOrderTransitions defines the allowed state machine transitions.
var validOrderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending: {OrderCompleted, OrderCancelled},
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range validOrderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// OrderLine is a single commodity entry in an order, priced at order time.
type OrderLine struct {
	CommodityID int64   `json:"commodityId"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
}

// Order ties a user, the machine they sit at, and the commodities they bought.
type Order struct {
	ID            int64       `json:"id"`
	UserID        int64       `json:"userId"`
	MachineID     int64       `json:"machineId"`
	MachineZoneID int64       `json:"machineZoneId"`
	OrderDate     time.Time   `json:"orderDate"`
	Status        OrderStatus `json:"status"`
	TotalPrice    float64     `json:"totalPrice"`
	Commodities   []OrderLine `json:"commodities"`
	HandledAt     *time.Time  `json:"handledAt,omitempty"`
}

// Total sums price*quantity over all lines.
func (o *Order) Total() float64 {
	var sum float64
	for _, l := range o.Commodities {
		sum += l.Price * float64(l.Quantity)
	}
	return RoundMoney(sum)
}
