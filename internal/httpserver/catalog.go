package httpserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/internal/util"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func (h *CatalogHTTP) ListCategories(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.list")

	cats, err := h.Svc.ListCategories(ctx)
	if err != nil {
		return serviceError(l, "list_categories_error", err)
	}
	return c.JSON(http.StatusOK, cats)
}

func (h *CatalogHTTP) GetCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.get")

	id, err := parseID(c, "id")
	if err != nil {
		return serviceError(l, "get_category_error", err)
	}
	cat, err := h.Svc.GetCategory(ctx, id)
	if err != nil {
		return serviceError(l, "get_category_error", err)
	}
	return c.JSON(http.StatusOK, cat)
}

func (h *CatalogHTTP) CreateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.create")

	var req transport.CategoryRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "create_category_error", err)
	}
	cat, err := h.Svc.CreateCategory(ctx, req)
	if err != nil {
		return serviceError(l, "create_category_error", err)
	}

	l.Info("create_category_success", "category_id", cat.ID)
	return c.JSON(http.StatusCreated, cat)
}

func (h *CatalogHTTP) UpdateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.update")

	id, err := parseID(c, "id")
	if err != nil {
		return serviceError(l, "update_category_error", err)
	}
	var req transport.CategoryRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "update_category_error", err)
	}
	cat, err := h.Svc.UpdateCategory(ctx, id, req)
	if err != nil {
		return serviceError(l, "update_category_error", err)
	}
	return c.JSON(http.StatusOK, cat)
}

func (h *CatalogHTTP) DeleteCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.delete")

	id, err := parseID(c, "id")
	if err != nil {
		return serviceError(l, "delete_category_error", err)
	}
	if err := h.Svc.DeleteCategory(ctx, id); err != nil {
		return serviceError(l, "delete_category_error", err)
	}
	return c.JSON(http.StatusOK, transport.StatusResponse{Success: true, Message: "the category is deleted!"})
}

// ListProducts accepts ?categories=<id>,<id> to narrow the listing.
func (h *CatalogHTTP) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.list")

	var categories []string
	if raw := c.QueryParam("categories"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				categories = append(categories, part)
			}
		}
	}

	products, err := h.Svc.ListProducts(ctx, categories)
	if err != nil {
		return serviceError(l, "list_products_error", err)
	}
	return c.JSON(http.StatusOK, products)
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get")

	id, err := parseID(c, "id")
	if err != nil {
		return serviceError(l, "get_product_error", err)
	}
	product, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		return serviceError(l, "get_product_error", err)
	}
	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create")

	var req transport.ProductRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "create_product_error", err)
	}
	product, err := h.Svc.CreateProduct(ctx, req)
	if err != nil {
		return serviceError(l, "create_product_error", err)
	}

	l.Info("create_product_success", "product_id", product.ID)
	return c.JSON(http.StatusCreated, product)
}

func (h *CatalogHTTP) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.update")

	id, err := parseID(c, "id")
	if err != nil {
		return serviceError(l, "update_product_error", err)
	}
	var req transport.ProductRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "update_product_error", err)
	}
	product, err := h.Svc.UpdateProduct(ctx, id, req)
	if err != nil {
		return serviceError(l, "update_product_error", err)
	}
	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHTTP) UpdateGallery(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.gallery")

	id, err := parseID(c, "id")
	if err != nil {
		return serviceError(l, "update_gallery_error", err)
	}
	var req transport.GalleryImagesRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "update_gallery_error", err)
	}
	product, err := h.Svc.UpdateGallery(ctx, id, req)
	if err != nil {
		return serviceError(l, "update_gallery_error", err)
	}
	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete")

	id, err := parseID(c, "id")
	if err != nil {
		return serviceError(l, "delete_product_error", err)
	}
	if err := h.Svc.DeleteProduct(ctx, id); err != nil {
		return serviceError(l, "delete_product_error", err)
	}
	return c.JSON(http.StatusOK, transport.StatusResponse{Success: true, Message: "the product is deleted!"})
}

func (h *CatalogHTTP) ProductCount(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.count")

	n, err := h.Svc.ProductCount(ctx)
	if err != nil {
		return serviceError(l, "product_count_error", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"productCount": n})
}

func (h *CatalogHTTP) FeaturedProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.featured")

	count, err := strconv.Atoi(c.Param("count"))
	if err != nil {
		l.Warn("featured_products_error", "status", 400, "reason", "count is not a number", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "count is not a number")
	}
	products, err := h.Svc.FeaturedProducts(ctx, count)
	if err != nil {
		return serviceError(l, "featured_products_error", err)
	}
	return c.JSON(http.StatusOK, products)
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Svc.Search(ctx, c.QueryParam("q"), offset, limit)
	if err != nil {
		return serviceError(l, "search_products_error", err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": util.TotalPages(total, limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}
