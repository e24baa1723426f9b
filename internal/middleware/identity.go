package middleware

// identity.go holds helpers shared by the caching and rate-limit middlewares
// for identifying the caller of a request.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// callerID returns the authenticated church's ID as a string, or "anon" for
// unauthenticated requests.  JWTAuth stores the sub claim under "church_id";
// depending on how the token was decoded it may surface as a string or a
// float64.
func callerID(c echo.Context) string {
	switch v := c.Get("church_id").(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		if v > 0 {
			return strconv.FormatUint(uint64(v), 10)
		}
	}
	return "anon"
}
