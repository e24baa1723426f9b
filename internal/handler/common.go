// Package handler defines the HTTP handlers for the venue hire API.
package handler

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"
)

// getChurchID extracts the authenticated church's ID from the request
// context.  The JWT middleware stores the sub claim under "church_id";
// depending on how the claim was decoded it can arrive as a number or a
// string.
func getChurchID(c echo.Context) (uint64, error) {
	v := c.Get("church_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid church_id in context")
}

// pathID parses the named path parameter as an unsigned integer ID.
func pathID(c echo.Context, name string) (uint64, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}
