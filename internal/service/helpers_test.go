package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/testdb"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type fixture struct {
	DB         *gorm.DB
	Orders     *repo.GormCollection[models.Order]
	Items      *repo.GormCollection[models.OrderItem]
	Products   *repo.GormCollection[models.Product]
	Categories *repo.GormCollection[models.Category]
	Users      *repo.GormCollection[models.User]
	Events     *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testdb.Open(t)
	return &fixture{
		DB:         db,
		Orders:     repo.NewGormCollection[models.Order](db),
		Items:      repo.NewGormCollection[models.OrderItem](db),
		Products:   repo.NewGormCollection[models.Product](db),
		Categories: repo.NewGormCollection[models.Category](db),
		Users:      repo.NewGormCollection[models.User](db),
		Events:     &recordingPublisher{},
	}
}

func (f *fixture) orderService() *OrderService {
	return &OrderService{
		Orders:     f.Orders,
		Items:      f.Items,
		Products:   f.Products,
		Categories: f.Categories,
		Users:      f.Users,
		Pricing:    &PricingResolver{Products: f.Products},
		Events:     f.Events,
		Workers:    2,
	}
}

func (f *fixture) category(t *testing.T, name string) models.Category {
	t.Helper()
	c := models.Category{Name: name, Icon: "icon", Color: "#fff"}
	require.NoError(t, f.Categories.Create(context.Background(), &c))
	return c
}

func (f *fixture) product(t *testing.T, name, price string, categoryID uuid.UUID) models.Product {
	t.Helper()
	p := models.Product{
		Name:         name,
		Description:  name + " description",
		Price:        decimal.RequireFromString(price),
		CategoryID:   categoryID,
		CountInStock: 10,
		Images:       []string{},
	}
	require.NoError(t, f.Products.Create(context.Background(), &p))
	return p
}

func (f *fixture) user(t *testing.T, email string) models.User {
	t.Helper()
	u := models.User{Name: "user " + email, Email: email, PasswordHash: "x"}
	require.NoError(t, f.Users.Create(context.Background(), &u))
	return u
}

func (f *fixture) itemCount(t *testing.T) int64 {
	t.Helper()
	n, err := f.Items.Count(context.Background(), nil)
	require.NoError(t, err)
	return n
}

func orderRequest(userID uuid.UUID, lines ...transport.OrderItemRequest) transport.PlaceOrderRequest {
	return transport.PlaceOrderRequest{
		OrderItems:       lines,
		ShippingAddress1: "Flowers street 45",
		City:             "Prague",
		Zip:              "00000",
		Country:          "Czech Republic",
		Phone:            "+420702241333",
		User:             userID.String(),
	}
}

func line(productID uuid.UUID, qty int) transport.OrderItemRequest {
	return transport.OrderItemRequest{Product: productID.String(), Quantity: qty}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []map[string]any
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic, _ string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	e := map[string]any{"topic": topic}
	if m, ok := event.(map[string]any); ok {
		for k, v := range m {
			e[k] = v
		}
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e["type"].(string))
	}
	return out
}

// faultyCollection delegates to a real collection unless the mock
// expectation for the call returns an error.
type faultyCollection[T any] struct {
	mock.Mock
	repo.Collection[T]
}

func (f *faultyCollection[T]) Create(ctx context.Context, entity *T) error {
	if err := f.Called(ctx, entity).Error(0); err != nil {
		return err
	}
	return f.Collection.Create(ctx, entity)
}

func (f *faultyCollection[T]) Delete(ctx context.Context, id uuid.UUID) (*T, error) {
	if err := f.Called(ctx, id).Error(1); err != nil {
		return nil, err
	}
	return f.Collection.Delete(ctx, id)
}
