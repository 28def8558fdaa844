package middleware

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// RoleAdmin is the role claim required by the admin routes.
const RoleAdmin = "ADMIN"

// RequireRole enforces that the authenticated caller has one of roles.
// It assumes JWTAuth ran first and stored the "role" claim; a missing or
// unlisted role aborts with 403 Forbidden.
func RequireRole(roles ...string) echo.MiddlewareFunc {
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            role, ok := c.Get(ctxRole).(string)
            if !ok || !allowed[role] {
                return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
            }
            return next(c)
        }
    }
}
