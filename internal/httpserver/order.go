package httpserver

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func (h *OrderHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create")

	var req transport.PlaceOrderRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "create_order_error", err)
	}

	claims := auth.ClaimsFrom(c)
	if req.User == "" && claims != nil {
		req.User = claims.UserID
	}
	if _, err := uuid.Parse(req.User); err != nil {
		return serviceError(l, "create_order_error",
			fmt.Errorf("%w: user %q is not a valid id", service.ErrInvalidReference, req.User))
	}
	if !auth.IsSelfOrAdmin(c, req.User) {
		l.Warn("create_order_error", "status", 401, "reason", "order placed for another user")
		return echo.NewHTTPError(http.StatusUnauthorized, "The user is not authorized")
	}

	order, err := h.Svc.PlaceOrder(ctx, req)
	if err != nil {
		return serviceError(l, "create_order_error", err)
	}

	l.Info("create_order_success", "order_id", order.ID)
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list")

	orders, err := h.Svc.ListOrders(ctx)
	if err != nil {
		return serviceError(l, "list_orders_error", err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get")

	id, err := parseID(c, "id")
	if err != nil {
		return serviceError(l, "get_order_error", err)
	}

	order, err := h.Svc.GetOrder(ctx, id)
	if err != nil {
		return serviceError(l, "get_order_error", err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_status")

	id, err := parseID(c, "id")
	if err != nil {
		return serviceError(l, "update_order_error", err)
	}

	var req transport.UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "update_order_error", err)
	}

	order, err := h.Svc.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		return serviceError(l, "update_order_error", err)
	}

	l.Info("update_order_success", "order_id", order.ID, "order_status", order.Status)
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) DeleteOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.delete")

	id, err := parseID(c, "id")
	if err != nil {
		return serviceError(l, "delete_order_error", err)
	}

	report, err := h.Svc.DeleteOrder(ctx, id)
	if err != nil {
		return serviceError(l, "delete_order_error", err)
	}

	l.Info("delete_order_success", "order_id", id, "items_failed", report.Failed)
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "the order is deleted!",
		"cascade": report,
	})
}

func (h *OrderHTTP) TotalSales(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.total_sales")

	total, err := h.Svc.TotalSales(ctx)
	if err != nil {
		return serviceError(l, "total_sales_error", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"totalsales": total})
}

func (h *OrderHTTP) OrderCount(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.count")

	n, err := h.Svc.OrderCount(ctx)
	if err != nil {
		return serviceError(l, "order_count_error", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"orderCount": n})
}

// UserOrders is open to the owner of the orders and to admins.
func (h *OrderHTTP) UserOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.user_orders")

	userID, err := parseID(c, "userId")
	if err != nil {
		return serviceError(l, "user_orders_error", err)
	}
	if !auth.IsSelfOrAdmin(c, userID.String()) {
		l.Warn("user_orders_error", "status", 401, "reason", "orders of another user")
		return echo.NewHTTPError(http.StatusUnauthorized, "The user is not authorized")
	}

	orders, err := h.Svc.OrdersForUser(ctx, userID)
	if err != nil {
		return serviceError(l, "user_orders_error", err)
	}
	return c.JSON(http.StatusOK, orders)
}
