package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/transport"
)

func TestOrderService_PlaceOrder_TotalIsSumOfLineTotals(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := f.orderService()
	ctx := context.Background()

	cat := f.category(t, "Electronics")
	p1 := f.product(t, "P1", "10.0", cat.ID)
	p2 := f.product(t, "P2", "5.5", cat.ID)
	u := f.user(t, "buyer@example.com")

	order, err := svc.PlaceOrder(ctx, orderRequest(u.ID, line(p1.ID, 2), line(p2.ID, 1)))
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("25.5").Equal(order.TotalPrice), "got %s", order.TotalPrice)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, u.ID, order.UserID)
	require.Len(t, order.OrderItemIDs, 2)

	first, err := f.Items.GetByID(ctx, order.OrderItemIDs[0])
	require.NoError(t, err)
	assert.Equal(t, p1.ID, first.ProductID)
	assert.Equal(t, 2, first.Quantity)

	second, err := f.Items.GetByID(ctx, order.OrderItemIDs[1])
	require.NoError(t, err)
	assert.Equal(t, p2.ID, second.ProductID)

	stored, err := f.Orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, order.TotalPrice.Equal(stored.TotalPrice))
	assert.Equal(t, order.OrderItemIDs, stored.OrderItemIDs)

	assert.Equal(t, []string{"order_created"}, f.Events.types())
}

func TestOrderService_PlaceOrder_ManyLines(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := f.orderService()
	cat := f.category(t, "Books")
	u := f.user(t, "reader@example.com")

	want := decimal.Zero
	var lines []transport.OrderItemRequest
	prices := []string{"1.10", "2.20", "3.30", "4.40", "5.50", "6.60", "7.70"}
	for i, price := range prices {
		p := f.product(t, "book", price, cat.ID)
		lines = append(lines, line(p.ID, i+1))
		want = want.Add(p.Price.Mul(decimal.NewFromInt(int64(i + 1))))
	}

	order, err := svc.PlaceOrder(context.Background(), orderRequest(u.ID, lines...))
	require.NoError(t, err)
	assert.True(t, want.Equal(order.TotalPrice), "want %s got %s", want, order.TotalPrice)
	assert.Len(t, order.OrderItemIDs, len(prices))
	assert.EqualValues(t, len(prices), f.itemCount(t))
}

func TestOrderService_PlaceOrder_EmptyListHasZeroTotal(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	u := f.user(t, "empty@example.com")

	order, err := f.orderService().PlaceOrder(context.Background(), orderRequest(u.ID))
	require.NoError(t, err)
	assert.True(t, order.TotalPrice.IsZero())
	assert.Empty(t, order.OrderItemIDs)
}

func TestOrderService_PlaceOrder_MissingProductAbortsAndCompensates(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := f.orderService()
	cat := f.category(t, "Toys")
	p1 := f.product(t, "P1", "10.0", cat.ID)
	u := f.user(t, "toys@example.com")
	missing := uuid.New()

	_, err := svc.PlaceOrder(context.Background(), orderRequest(u.ID, line(p1.ID, 1), line(missing, 3)))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidReference)
	assert.Contains(t, err.Error(), "orderItems[1]")
	assert.Contains(t, err.Error(), missing.String())

	assert.Zero(t, f.itemCount(t), "created items must be compensated")
	n, err := f.Orders.Count(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, f.Events.types())
}

func TestOrderService_PlaceOrder_Validation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := f.orderService()
	cat := f.category(t, "Food")
	p := f.product(t, "Bread", "1.5", cat.ID)
	u := f.user(t, "food@example.com")

	tests := []struct {
		name    string
		req     transport.PlaceOrderRequest
		wantErr error
	}{
		{
			name:    "zero quantity",
			req:     orderRequest(u.ID, line(p.ID, 0)),
			wantErr: ErrValidation,
		},
		{
			name:    "malformed product id",
			req:     orderRequest(u.ID, transport.OrderItemRequest{Product: "not-an-id", Quantity: 1}),
			wantErr: ErrInvalidReference,
		},
		{
			name: "malformed user id",
			req: func() transport.PlaceOrderRequest {
				r := orderRequest(u.ID, line(p.ID, 1))
				r.User = "42"
				return r
			}(),
			wantErr: ErrInvalidReference,
		},
		{
			name:    "unknown user",
			req:     orderRequest(uuid.New(), line(p.ID, 1)),
			wantErr: ErrInvalidReference,
		},
		{
			name: "unknown status",
			req: func() transport.PlaceOrderRequest {
				r := orderRequest(u.ID, line(p.ID, 1))
				r.Status = "lost"
				return r
			}(),
			wantErr: ErrValidation,
		},
		{
			name: "missing shipping address",
			req: func() transport.PlaceOrderRequest {
				r := orderRequest(u.ID, line(p.ID, 1))
				r.ShippingAddress1 = ""
				return r
			}(),
			wantErr: ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.PlaceOrder(context.Background(), tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.Zero(t, f.itemCount(t), "validation failures must not write anything")
}

func TestOrderService_PlaceOrder_ItemWriteFailureCompensates(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	cat := f.category(t, "Garden")
	p1 := f.product(t, "Rake", "12.00", cat.ID)
	p2 := f.product(t, "Hose", "20.00", cat.ID)
	u := f.user(t, "garden@example.com")

	items := &faultyCollection[models.OrderItem]{Collection: f.Items}
	items.On("Create", mock.Anything, mock.MatchedBy(func(it *models.OrderItem) bool {
		return it.ProductID == p2.ID
	})).Return(errors.New("disk full"))
	items.On("Create", mock.Anything, mock.Anything).Return(nil)
	items.On("Delete", mock.Anything, mock.Anything).Return(nil, nil)

	svc := f.orderService()
	svc.Items = items
	svc.Workers = 1

	_, err := svc.PlaceOrder(context.Background(), orderRequest(u.ID, line(p1.ID, 1), line(p2.ID, 1)))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorage)
	assert.Contains(t, err.Error(), "disk full")

	assert.Zero(t, f.itemCount(t))
	items.AssertCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestOrderService_PlaceOrder_OrderWriteFailureCompensates(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	cat := f.category(t, "Music")
	p := f.product(t, "Guitar", "300.00", cat.ID)
	u := f.user(t, "music@example.com")

	orders := &faultyCollection[models.Order]{Collection: f.Orders}
	orders.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection reset"))

	svc := f.orderService()
	svc.Orders = orders

	_, err := svc.PlaceOrder(context.Background(), orderRequest(u.ID, line(p.ID, 2)))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorage)
	assert.Zero(t, f.itemCount(t))
	orders.AssertNumberOfCalls(t, "Create", 1)
}

func TestOrderService_DeleteOrder_CascadesToItems(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := f.orderService()
	ctx := context.Background()
	cat := f.category(t, "Sport")
	p1 := f.product(t, "Ball", "9.99", cat.ID)
	p2 := f.product(t, "Net", "19.99", cat.ID)
	u := f.user(t, "sport@example.com")

	order, err := svc.PlaceOrder(ctx, orderRequest(u.ID, line(p1.ID, 1), line(p2.ID, 2)))
	require.NoError(t, err)
	require.EqualValues(t, 2, f.itemCount(t))

	report, err := svc.DeleteOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Equal(t, order.ID, report.OrderID)
	require.Len(t, report.Items, 2)
	for _, out := range report.Items {
		assert.True(t, out.Deleted)
	}

	assert.Zero(t, f.itemCount(t))
	_, err = f.Orders.GetByID(ctx, order.ID)
	assert.Error(t, err)
}

func TestOrderService_DeleteOrder_ChildFailureIsReported(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	cat := f.category(t, "Office")
	p1 := f.product(t, "Pen", "1.00", cat.ID)
	p2 := f.product(t, "Paper", "4.00", cat.ID)
	u := f.user(t, "office@example.com")

	order, err := f.orderService().PlaceOrder(ctx, orderRequest(u.ID, line(p1.ID, 1), line(p2.ID, 1)))
	require.NoError(t, err)
	stuck := order.OrderItemIDs[0]

	items := &faultyCollection[models.OrderItem]{Collection: f.Items}
	items.On("Delete", mock.Anything, stuck).Return(nil, errors.New("locked"))
	items.On("Delete", mock.Anything, mock.Anything).Return(nil, nil)

	svc := f.orderService()
	svc.Items = items

	report, err := svc.DeleteOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, report.OK())
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Items, 2)
	assert.False(t, report.Items[0].Deleted)
	assert.Equal(t, "locked", report.Items[0].Error)
	assert.True(t, report.Items[1].Deleted)

	_, err = f.Orders.GetByID(ctx, order.ID)
	assert.Error(t, err, "order stays deleted")
	assert.EqualValues(t, 1, f.itemCount(t))
}

func TestOrderService_DeleteOrder_NotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.orderService().DeleteOrder(context.Background(), uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrderService_TotalSalesAndCount(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := f.orderService()
	ctx := context.Background()

	total, err := svc.TotalSales(ctx)
	require.NoError(t, err)
	assert.True(t, total.IsZero())

	n, err := svc.OrderCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	cat := f.category(t, "Kitchen")
	p := f.product(t, "Pan", "15.25", cat.ID)
	u := f.user(t, "kitchen@example.com")
	_, err = svc.PlaceOrder(ctx, orderRequest(u.ID, line(p.ID, 2)))
	require.NoError(t, err)
	_, err = svc.PlaceOrder(ctx, orderRequest(u.ID, line(p.ID, 1)))
	require.NoError(t, err)

	total, err = svc.TotalSales(ctx)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("45.75").Equal(total), "got %s", total)

	n, err = svc.OrderCount(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestOrderService_OrdersForUser_PopulatedNewestFirst(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := f.orderService()
	ctx := context.Background()
	cat := f.category(t, "Shoes")
	p := f.product(t, "Sneaker", "50.00", cat.ID)
	u := f.user(t, "shoes@example.com")
	other := f.user(t, "other@example.com")

	older, err := svc.PlaceOrder(ctx, orderRequest(u.ID, line(p.ID, 1)))
	require.NoError(t, err)
	newer, err := svc.PlaceOrder(ctx, orderRequest(u.ID, line(p.ID, 2)))
	require.NoError(t, err)
	_, err = svc.PlaceOrder(ctx, orderRequest(other.ID, line(p.ID, 3)))
	require.NoError(t, err)

	views, err := svc.OrdersForUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, newer.ID, views[0].ID)
	assert.Equal(t, older.ID, views[1].ID)

	v := views[0]
	require.NotNil(t, v.User)
	assert.Equal(t, u.Email, v.User.Email)
	require.Len(t, v.OrderItems, 1)
	assert.Equal(t, 2, v.OrderItems[0].Quantity)
	require.NotNil(t, v.OrderItems[0].Product)
	assert.Equal(t, p.ID, v.OrderItems[0].Product.ID)
	require.NotNil(t, v.OrderItems[0].Product.Category)
	assert.Equal(t, "Shoes", v.OrderItems[0].Product.Category.Name)

	none, err := svc.OrdersForUser(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestOrderService_PopulatedViewAfterDeletes(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := f.orderService()
	ctx := context.Background()
	cat := f.category(t, "Tools")
	p := f.product(t, "Hammer", "8.00", cat.ID)
	u := f.user(t, "tools@example.com")

	order, err := svc.PlaceOrder(ctx, orderRequest(u.ID, line(p.ID, 1)))
	require.NoError(t, err)

	_, err = f.Products.Delete(ctx, p.ID)
	require.NoError(t, err)
	_, err = f.Users.Delete(ctx, u.ID)
	require.NoError(t, err)

	view, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Nil(t, view.User)
	require.Len(t, view.OrderItems, 1)
	assert.Nil(t, view.OrderItems[0].Product)
	assert.True(t, decimal.RequireFromString("8").Equal(view.TotalPrice), "total is a snapshot")
}

func TestOrderService_UpdateStatus(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := f.orderService()
	ctx := context.Background()
	u := f.user(t, "status@example.com")

	order, err := svc.PlaceOrder(ctx, orderRequest(u.ID))
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(ctx, order.ID, "shipped")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, updated.Status)

	_, err = svc.UpdateStatus(ctx, order.ID, "teleported")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.UpdateStatus(ctx, uuid.New(), "shipped")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPricingResolver_ResolvePrice(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	cat := f.category(t, "Misc")
	p := f.product(t, "Thing", "3.75", cat.ID)
	r := &PricingResolver{Products: f.Products}

	price, err := r.ResolvePrice(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("3.75").Equal(price))

	_, err = f.Products.Update(ctx, p.ID, func(p *models.Product) { p.Price = decimal.RequireFromString("4.25") })
	require.NoError(t, err)
	price, err = r.ResolvePrice(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("4.25").Equal(price), "no caching")

	total, err := r.LineTotal(ctx, models.OrderItem{ProductID: p.ID, Quantity: 4})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("17").Equal(total))

	_, err = r.ResolvePrice(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
