package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
)

// PricingResolver reads the current stored price of a product. Nothing is
// cached, so every call reflects the latest price.
type PricingResolver struct {
	Products repo.Collection[models.Product]
}

func (p *PricingResolver) ResolvePrice(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	product, err := p.Products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return decimal.Zero, fmt.Errorf("%w: product %s", ErrNotFound, productID)
		}
		return decimal.Zero, storageErr("get product", err)
	}
	return product.Price, nil
}

// LineTotal resolves the unit price of the item's product and multiplies it
// by the quantity.
func (p *PricingResolver) LineTotal(ctx context.Context, item models.OrderItem) (decimal.Decimal, error) {
	unit, err := p.ResolvePrice(ctx, item.ProductID)
	if err != nil {
		return decimal.Zero, err
	}
	return unit.Mul(decimal.NewFromInt(int64(item.Quantity))), nil
}
