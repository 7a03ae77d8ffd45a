package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
)

// ProductView replaces the category reference of a product with the category
// itself. Category is nil when the category no longer exists.
type ProductView struct {
	models.Product
	Category *models.Category `json:"category"`
}

// ItemView carries the live product; Product is nil once it has been deleted.
type ItemView struct {
	ID       uuid.UUID    `json:"id"`
	Quantity int          `json:"quantity"`
	Product  *ProductView `json:"product"`
}

type UserSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// OrderView is an order with its references resolved. User is nil when the
// owner has been deleted.
type OrderView struct {
	models.Order
	OrderItems []ItemView   `json:"orderItems"`
	User       *UserSummary `json:"user"`
}

func (s *OrderService) populate(ctx context.Context, orders []models.Order) ([]OrderView, error) {
	views := make([]OrderView, len(orders))
	if len(orders) == 0 {
		return views, nil
	}

	var itemIDs, userIDs []uuid.UUID
	for _, o := range orders {
		itemIDs = append(itemIDs, o.OrderItemIDs...)
		userIDs = append(userIDs, o.UserID)
	}

	items, err := byID(ctx, s.Items, itemIDs, func(i models.OrderItem) uuid.UUID { return i.ID })
	if err != nil {
		return nil, storageErr("populate order items", err)
	}
	users, err := byID(ctx, s.Users, userIDs, func(u models.User) uuid.UUID { return u.ID })
	if err != nil {
		return nil, storageErr("populate users", err)
	}

	productIDs := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		productIDs = append(productIDs, it.ProductID)
	}
	products, err := populateProducts(ctx, s.Products, s.Categories, productIDs)
	if err != nil {
		return nil, err
	}

	for i, o := range orders {
		v := OrderView{Order: o, OrderItems: make([]ItemView, 0, len(o.OrderItemIDs))}
		for _, id := range o.OrderItemIDs {
			it, ok := items[id]
			if !ok {
				continue
			}
			iv := ItemView{ID: it.ID, Quantity: it.Quantity}
			if p, ok := products[it.ProductID]; ok {
				iv.Product = p
			}
			v.OrderItems = append(v.OrderItems, iv)
		}
		if u, ok := users[o.UserID]; ok {
			v.User = &UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
		}
		views[i] = v
	}
	return views, nil
}

func populateProducts(
	ctx context.Context,
	products repo.Collection[models.Product],
	categories repo.Collection[models.Category],
	ids []uuid.UUID,
) (map[uuid.UUID]*ProductView, error) {
	found, err := byID(ctx, products, ids, func(p models.Product) uuid.UUID { return p.ID })
	if err != nil {
		return nil, storageErr("populate products", err)
	}

	categoryIDs := make([]uuid.UUID, 0, len(found))
	for _, p := range found {
		categoryIDs = append(categoryIDs, p.CategoryID)
	}
	cats, err := byID(ctx, categories, categoryIDs, func(c models.Category) uuid.UUID { return c.ID })
	if err != nil {
		return nil, storageErr("populate categories", err)
	}

	out := make(map[uuid.UUID]*ProductView, len(found))
	for id, p := range found {
		pv := &ProductView{Product: p}
		if c, ok := cats[p.CategoryID]; ok {
			c := c
			pv.Category = &c
		}
		out[id] = pv
	}
	return out, nil
}

func byID[T any](ctx context.Context, c repo.Collection[T], ids []uuid.UUID, key func(T) uuid.UUID) (map[uuid.UUID]T, error) {
	out := make(map[uuid.UUID]T)
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := c.Find(ctx, repo.Query{Filter: repo.Filter{"id": ids}})
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[key(r)] = r
	}
	return out, nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
