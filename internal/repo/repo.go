package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("record not found")

// Filter matches records field by field. A slice value matches any of its
// elements.
type Filter map[string]any

type Query struct {
	Filter Filter
	Sort   string
	Limit  int
	Offset int
}

type Collection[T any] interface {
	Create(ctx context.Context, entity *T) error
	GetByID(ctx context.Context, id uuid.UUID) (*T, error)
	Update(ctx context.Context, id uuid.UUID, apply func(*T)) (*T, error)
	Delete(ctx context.Context, id uuid.UUID) (*T, error)
	Find(ctx context.Context, q Query) ([]T, error)
	Count(ctx context.Context, f Filter) (int64, error)
	Sum(ctx context.Context, field string, f Filter) (decimal.Decimal, error)
}
