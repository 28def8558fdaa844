package handler // declare the package name; contains HTTP handlers

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// Health is the liveness probe.  It does not touch the booking store, so a
// store outage shows up as 500s on the seat routes rather than as a dead
// process.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}
