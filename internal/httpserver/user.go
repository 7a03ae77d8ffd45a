package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type UserHTTP struct {
	Svc *service.UserService
}

func (h *UserHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "register_error", err)
	}

	user, err := h.Svc.Register(ctx, req)
	if err != nil {
		return serviceError(l, "register_error", err)
	}

	l.Info("register_success", "user_id", user.ID)
	return c.JSON(http.StatusOK, user)
}

func (h *UserHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "login_error", err)
	}

	resp, err := h.Svc.Login(ctx, req)
	if err != nil {
		return serviceError(l, "login_error", err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *UserHTTP) ListUsers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.list")

	users, err := h.Svc.List(ctx)
	if err != nil {
		return serviceError(l, "list_users_error", err)
	}
	return c.JSON(http.StatusOK, users)
}

func (h *UserHTTP) GetUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.get")

	id, err := parseID(c, "id")
	if err != nil {
		return serviceError(l, "get_user_error", err)
	}
	user, err := h.Svc.Get(ctx, id)
	if err != nil {
		return serviceError(l, "get_user_error", err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHTTP) UpdateUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.update")

	id, err := parseID(c, "id")
	if err != nil {
		return serviceError(l, "update_user_error", err)
	}
	var req transport.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "update_user_error", err)
	}

	user, err := h.Svc.Update(ctx, id, req)
	if err != nil {
		return serviceError(l, "update_user_error", err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHTTP) DeleteUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.delete")

	id, err := parseID(c, "id")
	if err != nil {
		return serviceError(l, "delete_user_error", err)
	}
	if err := h.Svc.Delete(ctx, id); err != nil {
		return serviceError(l, "delete_user_error", err)
	}
	return c.JSON(http.StatusOK, transport.StatusResponse{Success: true, Message: "the user is deleted!"})
}

func (h *UserHTTP) UserCount(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.count")

	n, err := h.Svc.Count(ctx)
	if err != nil {
		return serviceError(l, "user_count_error", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"userCount": n})
}
