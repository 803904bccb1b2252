package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/filmio/internal/handler"
	"github.com/iliyamo/filmio/internal/middleware"
	"github.com/iliyamo/filmio/internal/session"
)

// RegisterAdmin registers the admin panel under /admin.  The group requires
// an active session and the admin role.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, sessions *session.Manager) {
	g := e.Group(
		"/admin",
		middleware.RequireSession(sessions),
		middleware.RequireAdmin(),
	)
	g.GET("", h.Show)
	g.POST("", h.Post)
}
