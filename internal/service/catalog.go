package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
)

// ProductIndex is the full-text mirror of the product collection.
type ProductIndex interface {
	IndexProduct(ctx context.Context, p models.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, query string, from, size int) (int64, []models.Product, error)
}

type CatalogService struct {
	Categories repo.Collection[models.Category]
	Products   repo.Collection[models.Product]
	Index      ProductIndex
	Events     EventPublisher
}

func (s *CatalogService) CreateCategory(ctx context.Context, req transport.CategoryRequest) (*models.Category, error) {
	if err := transport.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	cat := &models.Category{Name: req.Name, Icon: req.Icon, Color: req.Color}
	if err := s.Categories.Create(ctx, cat); err != nil {
		return nil, storageErr("create category", err)
	}
	return cat, nil
}

func (s *CatalogService) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	cat, err := s.Categories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: category %s", ErrNotFound, id)
		}
		return nil, storageErr("get category", err)
	}
	return cat, nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	cats, err := s.Categories.Find(ctx, repo.Query{Sort: "name"})
	if err != nil {
		return nil, storageErr("list categories", err)
	}
	return cats, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id uuid.UUID, req transport.CategoryRequest) (*models.Category, error) {
	if err := transport.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	cat, err := s.Categories.Update(ctx, id, func(c *models.Category) {
		c.Name = req.Name
		c.Icon = req.Icon
		c.Color = req.Color
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: category %s", ErrNotFound, id)
		}
		return nil, storageErr("update category", err)
	}
	return cat, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Categories.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("%w: category %s", ErrNotFound, id)
		}
		return storageErr("delete category", err)
	}
	return nil
}

func (s *CatalogService) categoryRef(ctx context.Context, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: category %q is not a valid id", ErrInvalidReference, raw)
	}
	if _, err := s.Categories.GetByID(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return uuid.Nil, fmt.Errorf("%w: category %s does not exist", ErrInvalidReference, id)
		}
		return uuid.Nil, storageErr("get category", err)
	}
	return id, nil
}

func (s *CatalogService) validateProduct(ctx context.Context, req transport.ProductRequest) (uuid.UUID, error) {
	if err := transport.Validate(req); err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if req.Price.IsNegative() {
		return uuid.Nil, fmt.Errorf("%w: price must be >= 0", ErrValidation)
	}
	return s.categoryRef(ctx, req.Category)
}

func (s *CatalogService) CreateProduct(ctx context.Context, req transport.ProductRequest) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.create_product")

	categoryID, err := s.validateProduct(ctx, req)
	if err != nil {
		return nil, err
	}

	p := &models.Product{
		Name:            req.Name,
		Description:     req.Description,
		RichDescription: req.RichDescription,
		Image:           req.Image,
		Images:          []string{},
		Brand:           req.Brand,
		Price:           req.Price,
		CategoryID:      categoryID,
		CountInStock:    req.CountInStock,
		Rating:          req.Rating,
		NumReviews:      req.NumReviews,
		IsFeatured:      req.IsFeatured,
	}
	if err := s.Products.Create(ctx, p); err != nil {
		return nil, storageErr("create product", err)
	}

	s.mirror(ctx, l, "product_created", *p)
	return p, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*ProductView, error) {
	p, err := s.Products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: product %s", ErrNotFound, id)
		}
		return nil, storageErr("get product", err)
	}

	view := &ProductView{Product: *p}
	cat, err := s.Categories.GetByID(ctx, p.CategoryID)
	switch {
	case err == nil:
		view.Category = cat
	case !errors.Is(err, repo.ErrNotFound):
		return nil, storageErr("get category", err)
	}
	return view, nil
}

// ListProducts narrows the listing to the given categories when any are
// supplied.
func (s *CatalogService) ListProducts(ctx context.Context, categories []string) ([]models.Product, error) {
	q := repo.Query{Sort: "created_at desc"}
	if len(categories) > 0 {
		ids := make([]uuid.UUID, 0, len(categories))
		for _, raw := range categories {
			id, err := uuid.Parse(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: category %q is not a valid id", ErrInvalidReference, raw)
			}
			ids = append(ids, id)
		}
		q.Filter = repo.Filter{"category_id": ids}
	}

	products, err := s.Products.Find(ctx, q)
	if err != nil {
		return nil, storageErr("list products", err)
	}
	return products, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, req transport.ProductRequest) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.update_product")

	categoryID, err := s.validateProduct(ctx, req)
	if err != nil {
		return nil, err
	}

	p, err := s.Products.Update(ctx, id, func(p *models.Product) {
		p.Name = req.Name
		p.Description = req.Description
		p.RichDescription = req.RichDescription
		p.Image = req.Image
		p.Brand = req.Brand
		p.Price = req.Price
		p.CategoryID = categoryID
		p.CountInStock = req.CountInStock
		p.Rating = req.Rating
		p.NumReviews = req.NumReviews
		p.IsFeatured = req.IsFeatured
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: product %s", ErrNotFound, id)
		}
		return nil, storageErr("update product", err)
	}

	s.mirror(ctx, l, "product_updated", *p)
	return p, nil
}

// UpdateGallery replaces the image URL list of a product.
func (s *CatalogService) UpdateGallery(ctx context.Context, id uuid.UUID, req transport.GalleryImagesRequest) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.update_gallery")

	if err := transport.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	p, err := s.Products.Update(ctx, id, func(p *models.Product) {
		p.Images = append([]string(nil), req.Images...)
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: product %s", ErrNotFound, id)
		}
		return nil, storageErr("update product images", err)
	}

	s.mirror(ctx, l, "product_updated", *p)
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	l := logging.FromContext(ctx).With("svc", "catalog.delete_product")

	if _, err := s.Products.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("%w: product %s", ErrNotFound, id)
		}
		return storageErr("delete product", err)
	}

	if s.Index != nil {
		if err := s.Index.DeleteProduct(ctx, id); err != nil {
			l.Warn("index_delete_failed", "product_id", id, "error", err)
		}
	}
	publish(ctx, l, s.Events, TopicProductEvents, id.String(), map[string]any{
		"type":      "product_deleted",
		"productID": id,
	})
	return nil
}

func (s *CatalogService) ProductCount(ctx context.Context) (int64, error) {
	n, err := s.Products.Count(ctx, nil)
	if err != nil {
		return 0, storageErr("count products", err)
	}
	return n, nil
}

// FeaturedProducts returns up to count featured products; zero means all.
func (s *CatalogService) FeaturedProducts(ctx context.Context, count int) ([]models.Product, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: count must be >= 0", ErrValidation)
	}
	products, err := s.Products.Find(ctx, repo.Query{
		Filter: repo.Filter{"is_featured": true},
		Sort:   "created_at desc",
		Limit:  count,
	})
	if err != nil {
		return nil, storageErr("list featured products", err)
	}
	return products, nil
}

func (s *CatalogService) Search(ctx context.Context, query string, from, size int) (int64, []models.Product, error) {
	if s.Index == nil {
		return 0, nil, fmt.Errorf("%w: search index is not configured", ErrUnavailable)
	}
	if query == "" {
		return 0, nil, fmt.Errorf("%w: query is required", ErrValidation)
	}
	total, items, err := s.Index.Search(ctx, query, from, size)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: search: %w", ErrUnavailable, err)
	}
	return total, items, nil
}

func (s *CatalogService) mirror(ctx context.Context, l *slog.Logger, eventType string, p models.Product) {
	if s.Index != nil {
		if err := s.Index.IndexProduct(ctx, p); err != nil {
			l.Warn("index_product_failed", "product_id", p.ID, "error", err)
		}
	}
	publish(ctx, l, s.Events, TopicProductEvents, p.ID.String(), map[string]any{
		"type":      eventType,
		"productID": p.ID,
		"name":      p.Name,
		"price":     p.Price,
	})
}
