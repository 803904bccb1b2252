package middleware // middleware provides shared request processing for handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/filmio/internal/model"
	"github.com/iliyamo/filmio/internal/session"
)

// RequireRole returns a middleware function that enforces that the signed-in
// member has one of the specified roles.  It must run after RequireSession,
// which places the principal on the context.  A missing principal or a role
// outside the allowed set is sent back to the sign-in page.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := session.PrincipalFrom(c)
			if p == nil || !allowed[p.Role] {
				return c.Redirect(http.StatusFound, LoginPath)
			}
			return next(c)
		}
	}
}

// RequireAdmin is RequireRole for the admin panel.
func RequireAdmin() echo.MiddlewareFunc { return RequireRole(model.RoleAdmin) }
