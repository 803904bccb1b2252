package handler // declare the package name; contains HTTP handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/filmio/internal/session"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Health is a simple health-check endpoint used by load balancers and
// monitoring systems.  It answers "ok" when the database and the session
// store respond and 503 otherwise.  Nil dependencies are skipped.
func Health(db Pinger, sessions *session.Manager) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := dbCtx(c)
		defer cancel()
		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				c.Logger().Warnf("[health] database ping failed: %v", err)
				return c.String(http.StatusServiceUnavailable, "database unavailable")
			}
		}
		if sessions != nil {
			if err := sessions.Ping(ctx); err != nil {
				c.Logger().Warnf("[health] session store ping failed: %v", err)
				return c.String(http.StatusServiceUnavailable, "session store unavailable")
			}
		}
		return c.String(http.StatusOK, "ok")
	}
}
