package middleware

// identity.go defines helper functions shared across middleware files.  It
// provides a userID extraction function that reads the member id from the
// principal placed by RequireSession.  Anonymous requests (the sign-in and
// register forms) report "guest".

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/filmio/internal/session"
)

func userID(c echo.Context) string {
	p := session.PrincipalFrom(c)
	if p == nil || p.MemberID == 0 {
		return "guest"
	}
	return strconv.FormatUint(p.MemberID, 10)
}
