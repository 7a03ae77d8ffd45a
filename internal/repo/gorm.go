package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type GormCollection[T any] struct {
	DB *gorm.DB
}

func NewGormCollection[T any](db *gorm.DB) *GormCollection[T] {
	return &GormCollection[T]{DB: db}
}

func (r *GormCollection[T]) Create(ctx context.Context, entity *T) error {
	return r.DB.WithContext(ctx).Create(entity).Error
}

func (r *GormCollection[T]) GetByID(ctx context.Context, id uuid.UUID) (*T, error) {
	var entity T
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&entity).Error; err != nil {
		return nil, notFound(err)
	}
	return &entity, nil
}

func (r *GormCollection[T]) Update(ctx context.Context, id uuid.UUID, apply func(*T)) (*T, error) {
	var entity T
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&entity).Error; err != nil {
			return err
		}
		apply(&entity)
		return tx.Save(&entity).Error
	})
	if err != nil {
		return nil, notFound(err)
	}
	return &entity, nil
}

func (r *GormCollection[T]) Delete(ctx context.Context, id uuid.UUID) (*T, error) {
	var entity T
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&entity).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(new(T))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return nil, notFound(err)
	}
	return &entity, nil
}

func (r *GormCollection[T]) Find(ctx context.Context, q Query) ([]T, error) {
	tx := r.scoped(ctx, q.Filter)
	if q.Sort != "" {
		tx = tx.Order(q.Sort)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}

	items := make([]T, 0)
	if err := tx.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormCollection[T]) Count(ctx context.Context, f Filter) (int64, error) {
	var total int64
	if err := r.scoped(ctx, f).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *GormCollection[T]) Sum(ctx context.Context, field string, f Filter) (decimal.Decimal, error) {
	stmt := &gorm.Statement{DB: r.DB}
	if err := stmt.Parse(new(T)); err != nil {
		return decimal.Zero, err
	}
	column := stmt.Schema.LookUpField(field)
	if column == nil || column.DBName == "" {
		return decimal.Zero, fmt.Errorf("unknown field %q", field)
	}

	var total decimal.Decimal
	row := r.scoped(ctx, f).Select("COALESCE(SUM(" + column.DBName + "), 0)").Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func (r *GormCollection[T]) scoped(ctx context.Context, f Filter) *gorm.DB {
	tx := r.DB.WithContext(ctx).Model(new(T))
	if len(f) > 0 {
		tx = tx.Where(map[string]any(f))
	}
	return tx
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
