package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/middleware/auth"
)

type Deps struct {
	Orders    *OrderHTTP
	Users     *UserHTTP
	Catalog   *CatalogHTTP
	JWTSecret []byte
	Prefix    string
	Ready     func() error
}

// Route is one row of the route table. The same rows register the handlers
// and fill the access policy, so a route cannot exist without a level.
type Route struct {
	Method  string
	Path    string
	Access  auth.AccessLevel
	Handler echo.HandlerFunc
}

func (d *Deps) Routes() []Route {
	const (
		public = auth.Public
		authn  = auth.Authenticated
		admin  = auth.Admin
	)

	return []Route{
		{http.MethodGet, "/health/live", public, live},
		{http.MethodGet, "/health/ready", public, d.ready},

		{http.MethodPost, "/users/register", public, d.Users.Register},
		{http.MethodPost, "/users/login", public, d.Users.Login},
		{http.MethodGet, "/users", admin, d.Users.ListUsers},
		{http.MethodGet, "/users/get/count", admin, d.Users.UserCount},
		{http.MethodGet, "/users/:id", admin, d.Users.GetUser},
		{http.MethodPut, "/users/:id", admin, d.Users.UpdateUser},
		{http.MethodDelete, "/users/:id", admin, d.Users.DeleteUser},

		{http.MethodGet, "/categories", public, d.Catalog.ListCategories},
		{http.MethodGet, "/categories/:id", public, d.Catalog.GetCategory},
		{http.MethodPost, "/categories", admin, d.Catalog.CreateCategory},
		{http.MethodPut, "/categories/:id", admin, d.Catalog.UpdateCategory},
		{http.MethodDelete, "/categories/:id", admin, d.Catalog.DeleteCategory},

		{http.MethodGet, "/products", public, d.Catalog.ListProducts},
		{http.MethodGet, "/products/search", public, d.Catalog.SearchProducts},
		{http.MethodGet, "/products/get/count", public, d.Catalog.ProductCount},
		{http.MethodGet, "/products/get/featured/:count", public, d.Catalog.FeaturedProducts},
		{http.MethodGet, "/products/:id", public, d.Catalog.GetProduct},
		{http.MethodPost, "/products", admin, d.Catalog.CreateProduct},
		{http.MethodPut, "/products/:id", admin, d.Catalog.UpdateProduct},
		{http.MethodPut, "/products/gallery-images/:id", admin, d.Catalog.UpdateGallery},
		{http.MethodDelete, "/products/:id", admin, d.Catalog.DeleteProduct},

		{http.MethodPost, "/orders", authn, d.Orders.CreateOrder},
		{http.MethodGet, "/orders/get/user-orders/:userId", authn, d.Orders.UserOrders},
		{http.MethodGet, "/orders", admin, d.Orders.ListOrders},
		{http.MethodGet, "/orders/get/total-sales", admin, d.Orders.TotalSales},
		{http.MethodGet, "/orders/get/count", admin, d.Orders.OrderCount},
		{http.MethodGet, "/orders/:id", admin, d.Orders.GetOrder},
		{http.MethodPut, "/orders/:id", admin, d.Orders.UpdateStatus},
		{http.MethodDelete, "/orders/:id", admin, d.Orders.DeleteOrder},
	}
}

// Register installs the error envelope and the access gate, then mounts every
// route under d.Prefix. It returns the policy that was built.
func Register(e *echo.Echo, d *Deps) *auth.Policy {
	e.HTTPErrorHandler = ErrorHandler

	policy := auth.NewPolicy()
	e.Use(auth.Gate(d.JWTSecret, policy))

	for _, r := range d.Routes() {
		path := d.Prefix + r.Path
		e.Add(r.Method, path, r.Handler)
		policy.Set(r.Method, path, r.Access)
	}
	return policy
}

func live(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func (d *Deps) ready(c echo.Context) error {
	if d.Ready != nil {
		if err := d.Ready(); err != nil {
			return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
		}
	}
	return c.NoContent(http.StatusOK)
}
