package middleware

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

// currentUserID returns a stable identifier for the caller, used when
// building rate-limit keys. JWTAuth stores the raw "sub" claim, which may
// decode as a float64, so the value is normalized through fmt. Anonymous
// requests map to "anon".
func currentUserID(c echo.Context) string {
	v := c.Get("user_id")
	if v == nil {
		return "anon"
	}
	switch t := v.(type) {
	case string:
		if t == "" {
			return "anon"
		}
		return t
	case float64:
		return fmt.Sprintf("%.0f", t)
	default:
		return fmt.Sprint(t)
	}
}
