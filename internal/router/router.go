package router // package router defines how HTTP routes are registered for the site

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/filmio/internal/handler"
	"github.com/iliyamo/filmio/internal/session"
)

// RegisterRoutes registers routes that do not require a session: the
// health check and a redirect from the site root to the sign-in page.
func RegisterRoutes(e *echo.Echo, db handler.Pinger, sessions *session.Manager) {
	e.GET("/healthz", handler.Health(db, sessions))
	e.GET("/", func(c echo.Context) error { return c.Redirect(http.StatusFound, "/login") })
}

// RegisterAuth registers the sign-in page and the sign-in, register and
// logout form posts.  limiter guards the credential posts against
// repeated attempts; pass a pass-through middleware to disable it.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, limiter echo.MiddlewareFunc) {
	e.GET("/login", a.LoginPage)
	e.POST("/login", a.Login, limiter)
	e.POST("/register", a.Register, limiter)
	e.POST("/logout", a.Logout)
}
