package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
)

const defaultOrderWorkers = 4

type OrderService struct {
	Orders     repo.Collection[models.Order]
	Items      repo.Collection[models.OrderItem]
	Products   repo.Collection[models.Product]
	Categories repo.Collection[models.Category]
	Users      repo.Collection[models.User]
	Pricing    *PricingResolver
	Events     EventPublisher

	// Workers bounds how many line items are written or priced at once.
	Workers int
}

type ItemOutcome struct {
	ItemID  uuid.UUID `json:"itemId"`
	Deleted bool      `json:"deleted"`
	Error   string    `json:"error,omitempty"`
}

// CascadeReport lists what happened to every child item of a removed order.
type CascadeReport struct {
	OrderID uuid.UUID     `json:"orderId"`
	Items   []ItemOutcome `json:"items"`
	Failed  int           `json:"failed"`
}

func (r CascadeReport) OK() bool { return r.Failed == 0 }

type placeLine struct {
	productID uuid.UUID
	quantity  int
}

func (s *OrderService) workers() int {
	if s.Workers < 1 {
		return defaultOrderWorkers
	}
	return s.Workers
}

func (s *OrderService) validatePlaceOrder(ctx context.Context, req transport.PlaceOrderRequest) (uuid.UUID, []placeLine, models.OrderStatus, error) {
	if err := transport.Validate(req); err != nil {
		return uuid.Nil, nil, "", fmt.Errorf("%w: %v", ErrValidation, err)
	}

	status := models.OrderStatusPending
	if req.Status != "" {
		status = models.OrderStatus(req.Status)
		if !status.Valid() {
			return uuid.Nil, nil, "", fmt.Errorf("%w: unknown status %q", ErrValidation, req.Status)
		}
	}

	userID, err := uuid.Parse(req.User)
	if err != nil {
		return uuid.Nil, nil, "", fmt.Errorf("%w: user %q is not a valid id", ErrInvalidReference, req.User)
	}

	lines := make([]placeLine, len(req.OrderItems))
	for i, it := range req.OrderItems {
		id, err := uuid.Parse(it.Product)
		if err != nil {
			return uuid.Nil, nil, "", fmt.Errorf("%w: orderItems[%d]: product %q is not a valid id", ErrInvalidReference, i, it.Product)
		}
		lines[i] = placeLine{productID: id, quantity: it.Quantity}
	}

	if _, err := s.Users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return uuid.Nil, nil, "", fmt.Errorf("%w: user %s does not exist", ErrInvalidReference, userID)
		}
		return uuid.Nil, nil, "", storageErr("get user", err)
	}

	return userID, lines, status, nil
}

// PlaceOrder writes one OrderItem per line, prices every item and then
// writes the order itself. When any step after the first item write fails,
// the items written so far are deleted again before the error is returned.
func (s *OrderService) PlaceOrder(ctx context.Context, req transport.PlaceOrderRequest) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.place")

	userID, lines, status, err := s.validatePlaceOrder(ctx, req)
	if err != nil {
		return nil, err
	}

	items := make([]models.OrderItem, len(lines))
	created := make([]bool, len(lines))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers())
	for i := range lines {
		i := i
		g.Go(func() error {
			items[i] = models.OrderItem{ProductID: lines[i].productID, Quantity: lines[i].quantity}
			if err := s.Items.Create(gctx, &items[i]); err != nil {
				return fmt.Errorf("%w: create order item %d: %w", ErrStorage, i, err)
			}
			created[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.compensate(ctx, l, items, created)
		return nil, err
	}

	lineTotals := make([]decimal.Decimal, len(items))
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(s.workers())
	for i := range items {
		i := i
		g.Go(func() error {
			total, err := s.Pricing.LineTotal(gctx, items[i])
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					return fmt.Errorf("%w: orderItems[%d]: product %s not found", ErrInvalidReference, i, items[i].ProductID)
				}
				return err
			}
			lineTotals[i] = total
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.compensate(ctx, l, items, created)
		return nil, err
	}

	totalPrice := decimal.Zero
	for _, lt := range lineTotals {
		totalPrice = totalPrice.Add(lt)
	}

	itemIDs := make([]uuid.UUID, len(items))
	for i := range items {
		itemIDs[i] = items[i].ID
	}

	order := &models.Order{
		OrderItemIDs:     itemIDs,
		ShippingAddress1: req.ShippingAddress1,
		ShippingAddress2: req.ShippingAddress2,
		City:             req.City,
		Zip:              req.Zip,
		Country:          req.Country,
		Phone:            req.Phone,
		Status:           status,
		TotalPrice:       totalPrice,
		UserID:           userID,
	}
	if err := s.Orders.Create(ctx, order); err != nil {
		s.compensate(ctx, l, items, created)
		return nil, storageErr("create order", err)
	}

	l.Info("order_placed", "order_id", order.ID, "items", len(items), "total_price", totalPrice.String())
	publish(ctx, l, s.Events, TopicOrderEvents, order.ID.String(), map[string]any{
		"type":       "order_created",
		"orderID":    order.ID,
		"userID":     order.UserID,
		"totalPrice": order.TotalPrice,
		"items":      len(order.OrderItemIDs),
	})
	return order, nil
}

// compensate runs on a context that survives the caller's cancellation so an
// aborted request still cleans up after itself.
func (s *OrderService) compensate(ctx context.Context, l *slog.Logger, items []models.OrderItem, created []bool) {
	ids := make([]uuid.UUID, 0, len(items))
	for i := range items {
		if created[i] {
			ids = append(ids, items[i].ID)
		}
	}
	if len(ids) == 0 {
		return
	}

	outcomes, failed := s.deleteItems(context.WithoutCancel(ctx), ids)
	if failed > 0 {
		l.Error("order_compensation_incomplete", "items", len(ids), "failed", failed, "outcomes", outcomes)
		return
	}
	l.Warn("order_compensated", "items", len(ids))
}

func (s *OrderService) deleteItems(ctx context.Context, ids []uuid.UUID) ([]ItemOutcome, int) {
	outcomes := make([]ItemOutcome, 0, len(ids))
	failed := 0
	for _, id := range ids {
		out := ItemOutcome{ItemID: id}
		if _, err := s.Items.Delete(ctx, id); err != nil {
			out.Error = err.Error()
			failed++
		} else {
			out.Deleted = true
		}
		outcomes = append(outcomes, out)
	}
	return outcomes, failed
}

// DeleteOrder removes the order and then each of its items in turn. A failed
// item deletion is recorded in the report and does not bring the order back.
func (s *OrderService) DeleteOrder(ctx context.Context, id uuid.UUID) (CascadeReport, error) {
	l := logging.FromContext(ctx).With("svc", "order.delete", "order_id", id)

	order, err := s.Orders.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return CascadeReport{}, fmt.Errorf("%w: order %s", ErrNotFound, id)
		}
		return CascadeReport{}, storageErr("delete order", err)
	}

	outcomes, failed := s.deleteItems(ctx, order.OrderItemIDs)
	report := CascadeReport{OrderID: order.ID, Items: outcomes, Failed: failed}
	if failed > 0 {
		l.Warn("order_items_cascade_incomplete", "items", len(outcomes), "failed", failed)
	}

	publish(ctx, l, s.Events, TopicOrderEvents, order.ID.String(), map[string]any{
		"type":    "order_deleted",
		"orderID": order.ID,
	})
	return report, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*OrderView, error) {
	order, err := s.Orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: order %s", ErrNotFound, id)
		}
		return nil, storageErr("get order", err)
	}
	views, err := s.populate(ctx, []models.Order{*order})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *OrderService) ListOrders(ctx context.Context) ([]OrderView, error) {
	orders, err := s.Orders.Find(ctx, repo.Query{Sort: "created_at desc"})
	if err != nil {
		return nil, storageErr("list orders", err)
	}
	return s.populate(ctx, orders)
}

func (s *OrderService) OrdersForUser(ctx context.Context, userID uuid.UUID) ([]OrderView, error) {
	orders, err := s.Orders.Find(ctx, repo.Query{
		Filter: repo.Filter{"user_id": userID},
		Sort:   "created_at desc",
	})
	if err != nil {
		return nil, storageErr("list user orders", err)
	}
	return s.populate(ctx, orders)
}

func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.Order, error) {
	st := models.OrderStatus(status)
	if !st.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	order, err := s.Orders.Update(ctx, id, func(o *models.Order) { o.Status = st })
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: order %s", ErrNotFound, id)
		}
		return nil, storageErr("update order", err)
	}

	l := logging.FromContext(ctx).With("svc", "order.update_status")
	publish(ctx, l, s.Events, TopicOrderEvents, order.ID.String(), map[string]any{
		"type":    "order_status_changed",
		"orderID": order.ID,
		"status":  order.Status,
	})
	return order, nil
}

// TotalSales is zero when there are no orders.
func (s *OrderService) TotalSales(ctx context.Context) (decimal.Decimal, error) {
	total, err := s.Orders.Sum(ctx, "TotalPrice", nil)
	if err != nil {
		return decimal.Zero, storageErr("sum total sales", err)
	}
	return total, nil
}

func (s *OrderService) OrderCount(ctx context.Context) (int64, error) {
	n, err := s.Orders.Count(ctx, nil)
	if err != nil {
		return 0, storageErr("count orders", err)
	}
	return n, nil
}
