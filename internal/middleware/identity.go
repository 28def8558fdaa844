package middleware

// identity.go exposes the request identity set by JWTAuth or OptionalJWT
// and mints tokens for operators and tests.  The booking service never
// issues tokens to students itself; IssueToken exists for the admin CLI
// path and for handler tests.

import (
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"
)

// Identity returns the token subject of the current request, or "" for
// anonymous requests.
func Identity(c echo.Context) string {
    if s, ok := c.Get(ctxIdentity).(string); ok {
        return s
    }
    return ""
}

// IssueToken signs an HS256 token for subject with the given role.  The
// token carries sub, role, iat and exp claims.
func IssueToken(secret, subject, role string, ttl time.Duration) (string, error) {
    now := time.Now().UTC()
    claims := jwt.MapClaims{
        "sub":  subject,
        "role": role,
        "iat":  now.Unix(),
        "exp":  now.Add(ttl).Unix(),
    }
    return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
