package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/filmio/internal/session"
)

const (
	LoginPath   = "/login"
	TimeoutPath = "/login?timeout=1"
)

// RequireSession gates pages behind a signed-in session.  Requests without a
// principal go to the sign-in page.  A session idle for longer than the
// manager's timeout is destroyed and the browser is sent to the sign-in page
// with the timeout indicator.  Otherwise the idle timer is refreshed and the
// principal is placed on the context.
func RequireSession(m *session.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s, err := m.Current(c)
			if err != nil {
				c.Logger().Errorf("[session] load failed: %v", err)
				return c.Redirect(http.StatusFound, LoginPath)
			}
			if s == nil || s.Data.Principal == nil {
				return c.Redirect(http.StatusFound, LoginPath)
			}
			if m.Expired(s) {
				if err := m.Destroy(c); err != nil {
					c.Logger().Warnf("[session] destroy expired %s: %v", s.ID, err)
				}
				return c.Redirect(http.StatusFound, TimeoutPath)
			}
			if err := m.Touch(c, s); err != nil {
				c.Logger().Warnf("[session] touch %s: %v", s.ID, err)
			}
			session.WithPrincipal(c, s.Data.Principal)
			return next(c)
		}
	}
}
