package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/filmio/internal/handler"
	"github.com/iliyamo/filmio/internal/middleware"
	"github.com/iliyamo/filmio/internal/session"
)

// RegisterMember registers the member pages.  Every route requires an
// active session; admins may use them too.
func RegisterMember(e *echo.Echo, d *handler.DashboardHandler, r *handler.RatingsHandler, sessions *session.Manager) {
	gate := middleware.RequireSession(sessions)
	e.GET("/dashboard", d.Show, gate)
	e.POST("/dashboard", d.Post, gate)
	e.GET("/ratings", r.Show, gate)
	e.POST("/ratings", r.Post, gate)
}
