package auth

import (
	"errors"
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/tokens"
	"github.com/Skotchmaster/storefront/internal/transport"
)

const (
	claimsKey       = "claims"
	AccessCookie    = "accessToken"
	unauthorizedMsg = "The user is not authorized"
)

var errInsufficientRights = errors.New("insufficient rights")

// Admit is the decision taken once a token has been verified.
func Admit(level AccessLevel, claims *tokens.Claims) bool {
	switch level {
	case Public:
		return true
	case Authenticated:
		return claims != nil
	case Admin:
		return claims != nil && claims.IsAdmin
	}
	return false
}

// Gate checks every request against the policy. Public routes pass without a
// token. Everything else needs a valid HS256 token from the Authorization
// header or the accessToken cookie, and Admin routes also need the admin
// flag. Every refusal is a 401.
func Gate(secret []byte, policy *Policy) echo.MiddlewareFunc {
	verify := echojwt.WithConfig(echojwt.Config{
		ContextKey:  claimsKey,
		TokenLookup: "header:Authorization:Bearer ,cookie:" + AccessCookie,
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			return tokens.Parse(auth, secret)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return reject(c, "invalid or missing token", err)
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		admitted := verify(func(c echo.Context) error {
			claims := ClaimsFrom(c)
			level := policy.Level(c.Request().Method, c.Path())
			if !Admit(level, claims) {
				return reject(c, "route requires "+level.String(), errInsufficientRights)
			}

			ctx := c.Request().Context()
			l := logging.FromContext(ctx).With("user_id", claims.UserID, "is_admin", claims.IsAdmin)
			c.SetRequest(c.Request().WithContext(logging.IntoContext(ctx, l)))
			return next(c)
		})

		return func(c echo.Context) error {
			level, tagged := policy.Lookup(c.Request().Method, c.Path())
			if level == Public || (!tagged && !routed(c)) {
				return next(c)
			}
			return admitted(c)
		}
	}
}

// routed reports whether a handler is registered for the request's method
// and route. Requests that match nothing reach Echo's not-found or
// method-not-allowed handler, which only ever answers with an error.
func routed(c echo.Context) bool {
	method, path := c.Request().Method, c.Path()
	for _, r := range c.Echo().Routes() {
		if r.Method == method && r.Path == path {
			return true
		}
	}
	return false
}

func reject(c echo.Context, reason string, err error) error {
	l := logging.FromContext(c.Request().Context())
	l.Warn("access_rejected", "status", http.StatusUnauthorized, "reason", reason, "error", err)
	return c.JSON(http.StatusUnauthorized, transport.StatusResponse{Success: false, Message: unauthorizedMsg})
}

// ClaimsFrom returns the claims of an admitted request, or nil on public
// routes.
func ClaimsFrom(c echo.Context) *tokens.Claims {
	claims, _ := c.Get(claimsKey).(*tokens.Claims)
	return claims
}

// IsSelfOrAdmin reports whether the caller is the given user or an admin.
func IsSelfOrAdmin(c echo.Context, userID string) bool {
	claims := ClaimsFrom(c)
	return claims != nil && (claims.IsAdmin || claims.UserID == userID)
}
