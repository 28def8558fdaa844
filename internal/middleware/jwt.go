package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "errors"
    "net/http"
    "strings"

    "github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens
    "github.com/labstack/echo/v4"
)

// Context keys set by the JWT middlewares.
const (
    ctxIdentity = "user_id"
    ctxRole     = "role"
)

var errNoBearer = errors.New("missing bearer token")

// JWTAuth returns an Echo middleware that requires a valid HS256 Bearer
// token and injects the token's subject and role claims into the request
// context.  It guards the admin routes, usually followed by RequireRole.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            claims, err := bearerClaims(c, secret)
            if errors.Is(err, errNoBearer) {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }
            setClaims(c, claims)
            return next(c)
        }
    }
}

// OptionalJWT is JWTAuth for routes open to anonymous users.  A request
// without an Authorization header passes through with no identity; a
// header carrying a bad token is still rejected with 401 so a broken
// client does not silently book seats anonymously.
func OptionalJWT(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            claims, err := bearerClaims(c, secret)
            switch {
            case errors.Is(err, errNoBearer) && c.Request().Header.Get("Authorization") == "":
                return next(c)
            case err != nil:
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }
            setClaims(c, claims)
            return next(c)
        }
    }
}

// bearerClaims parses the Authorization header.  Only HMAC signing
// methods are accepted.
func bearerClaims(c echo.Context, secret string) (jwt.MapClaims, error) {
    auth := c.Request().Header.Get("Authorization")
    if !strings.HasPrefix(auth, "Bearer ") {
        return nil, errNoBearer
    }
    raw := strings.TrimPrefix(auth, "Bearer ")

    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, echo.ErrUnauthorized
        }
        return []byte(secret), nil
    })
    if err != nil || !tok.Valid {
        return nil, errors.New("invalid token")
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return nil, errors.New("invalid claims")
    }
    return claims, nil
}

// setClaims stores the subject and role as strings.  Non-string claims
// are ignored.
func setClaims(c echo.Context, claims jwt.MapClaims) {
    if sub, err := claims.GetSubject(); err == nil && sub != "" {
        c.Set(ctxIdentity, sub)
    }
    if role, ok := claims["role"].(string); ok {
        c.Set(ctxRole, role)
    }
}
