package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/netbar/billing-system/internal/api/metrics"
	"github.com/netbar/billing-system/internal/core/domain"
	"github.com/netbar/billing-system/internal/core/ports"
)

const topCommodities = 5

type OrderService struct {
	orders      ports.OrderRepository
	users       ports.UserRepository
	machines    ports.MachineRepository
	commodities ports.CommodityRepository
	idem        ports.IdempotencyStore
	events      ports.EventPublisher
	audit       ports.AuditRecorder
	logger      zerolog.Logger
}

func NewOrderService(
	orders ports.OrderRepository,
	users ports.UserRepository,
	machines ports.MachineRepository,
	commodities ports.CommodityRepository,
	idem ports.IdempotencyStore,
	events ports.EventPublisher,
	audit ports.AuditRecorder,
	logger zerolog.Logger,
) *OrderService {
	return &OrderService{
		orders:      orders,
		users:       users,
		machines:    machines,
		commodities: commodities,
		idem:        idem,
		events:      events,
		audit:       audit,
		logger:      logger,
	}
}

// Create prices the requested lines from the catalog, reserves stock, debits
// the balance and stores a Pending order. Each step is undone if a later one
// fails.
func (s *OrderService) Create(ctx context.Context, in ports.CreateOrderInput) (*domain.Order, error) {
	lines, err := mergeLines(in.Lines)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if user.Status == domain.UserBanned {
		return nil, domain.ErrUserBanned
	}
	if user.Status != domain.UserOnline || user.MachineID == nil || *user.MachineID != in.MachineID {
		return nil, fmt.Errorf("%w: user is not seated at machine %d", domain.ErrUserOffline, in.MachineID)
	}

	machine, err := s.machines.FindByID(ctx, in.MachineID)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		UserID:        in.UserID,
		MachineID:     in.MachineID,
		MachineZoneID: machine.ZoneID,
		Status:        domain.OrderPending,
		Commodities:   make([]domain.OrderLine, 0, len(lines)),
	}
	for _, l := range lines {
		c, err := s.commodities.FindByID(ctx, l.CommodityID)
		if err != nil {
			return nil, err
		}
		if c.Stock < l.Quantity {
			return nil, fmt.Errorf("%w: %s", domain.ErrInsufficientStock, c.Name)
		}
		order.Commodities = append(order.Commodities, domain.OrderLine{
			CommodityID: c.ID,
			Name:        c.Name,
			Price:       c.Price,
			Quantity:    l.Quantity,
		})
	}
	order.TotalPrice = order.Total()
	if user.Balance < order.TotalPrice {
		return nil, domain.ErrInsufficientBalance
	}

	release, err := claim(ctx, s.idem, s.logger, "order", in.IdempotencyKey)
	if err != nil {
		return nil, err
	}

	reserved := make([]domain.OrderLine, 0, len(order.Commodities))
	undo := func(refund bool) {
		cctx, cancel := detached(ctx)
		defer cancel()
		s.restock(cctx, reserved)
		if refund {
			if _, err := s.users.AdjustBalance(cctx, order.UserID, order.TotalPrice); err != nil {
				s.logger.Error().Err(err).Int64("user_id", order.UserID).Msg("failed to refund aborted order")
			}
		}
		release()
	}

	for _, l := range order.Commodities {
		if err := s.commodities.AdjustStock(ctx, l.CommodityID, -l.Quantity); err != nil {
			undo(false)
			return nil, fmt.Errorf("reserve %s: %w", l.Name, err)
		}
		reserved = append(reserved, l)
	}

	if _, err := s.users.AdjustBalance(ctx, order.UserID, -order.TotalPrice); err != nil {
		undo(false)
		return nil, fmt.Errorf("debit balance: %w", err)
	}

	order.OrderDate = time.Now().UTC()
	if err := s.orders.Create(ctx, order); err != nil {
		undo(true)
		s.logger.Error().Err(err).Msg("failed to create order")
		return nil, err
	}

	metrics.OrdersCreatedTotal.Inc()
	metrics.OrderRevenueTotal.Add(order.TotalPrice)
	s.logger.Info().
		Int64("order_id", order.ID).
		Int64("user_id", order.UserID).
		Float64("total", order.TotalPrice).
		Msg("order created")

	s.audit.UserEvent(ctx, order.UserID, domain.ActionPurchase,
		fmt.Sprintf("order #%d: %d items, ¥%.2f", order.ID, len(order.Commodities), order.TotalPrice))
	publish(ctx, s.events, s.logger, ports.SubjectOrderCreated, order)
	return order, nil
}

func (s *OrderService) Get(ctx context.Context, id int64) (*domain.Order, error) {
	return s.orders.FindByID(ctx, id)
}

func (s *OrderService) Search(ctx context.Context, filter ports.OrderFilter) (*domain.Page[*domain.Order], error) {
	filter.PageNum, filter.PageSize = domain.NormalizePage(filter.PageNum, filter.PageSize)
	if filter.Status != "" {
		switch domain.OrderStatus(filter.Status) {
		case domain.OrderPending, domain.OrderCompleted, domain.OrderCancelled:
		default:
			return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, filter.Status)
		}
	}

	items, total, err := s.orders.Search(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := domain.NewPage(items, total, filter.PageNum, filter.PageSize)
	return &page, nil
}

// UpdateStatus completes or cancels a pending order. Cancelling refunds the
// balance and returns the goods to stock.
func (s *OrderService) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("order %d: %w (from %s to %s)", id, domain.ErrInvalidTransition, order.Status, status)
	}

	now := time.Now().UTC()
	if err := s.orders.UpdateStatus(ctx, id, order.Status, status, now); err != nil {
		return nil, err
	}
	order.Status = status
	order.HandledAt = &now

	subject := ports.SubjectOrderCompleted
	if status == domain.OrderCancelled {
		subject = ports.SubjectOrderCancelled
		cctx, cancel := detached(ctx)
		if _, err := s.users.AdjustBalance(cctx, order.UserID, order.TotalPrice); err != nil {
			s.logger.Error().Err(err).Int64("order_id", id).Msg("failed to refund cancelled order")
		}
		s.restock(cctx, order.Commodities)
		cancel()
	}

	metrics.OrdersHandledTotal.WithLabelValues(string(status)).Inc()
	s.logger.Info().Int64("order_id", id).Str("status", string(status)).Msg("order handled")
	s.audit.ManagementEvent(ctx, ports.ActorFromContext(ctx), domain.ActionOrderHandled,
		fmt.Sprintf("order #%d %s", id, status))
	publish(ctx, s.events, s.logger, subject, order)
	return order, nil
}

func (s *OrderService) PendingCount(ctx context.Context) (int64, error) {
	return s.orders.CountByStatus(ctx, domain.OrderPending)
}

// SalesReport summarises completed orders in [from, to]. Zero bounds default
// to the last seven days.
func (s *OrderService) SalesReport(ctx context.Context, from, to time.Time) (*domain.SalesReport, error) {
	if to.IsZero() {
		to = time.Now().UTC()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -7)
	}
	if from.After(to) {
		return nil, fmt.Errorf("%w: startDate is after endDate", domain.ErrInvalidInput)
	}
	return s.orders.SalesReport(ctx, from, to, topCommodities)
}

func (s *OrderService) restock(ctx context.Context, lines []domain.OrderLine) {
	for _, l := range lines {
		if err := s.commodities.AdjustStock(ctx, l.CommodityID, l.Quantity); err != nil {
			s.logger.Error().Err(err).Int64("commodity_id", l.CommodityID).Msg("failed to restock")
		}
	}
}

// mergeLines validates quantities and folds repeated commodities into one line,
// keeping first-seen order.
func mergeLines(in []ports.OrderLineInput) ([]ports.OrderLineInput, error) {
	if len(in) == 0 {
		return nil, fmt.Errorf("%w: order has no items", domain.ErrInvalidInput)
	}
	idx := make(map[int64]int, len(in))
	out := make([]ports.OrderLineInput, 0, len(in))
	for _, l := range in {
		if l.Quantity <= 0 {
			return nil, fmt.Errorf("%w: invalid quantity for commodity %d", domain.ErrInvalidInput, l.CommodityID)
		}
		if i, ok := idx[l.CommodityID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		idx[l.CommodityID] = len(out)
		out = append(out, l)
	}
	return out, nil
}
