package handler // declare the package name; contains HTTP handlers

import (
    "context"
    "database/sql"
    "net/http" // status codes
    "time"

    "github.com/labstack/echo/v4"
)

// Health is the liveness endpoint used by load balancers.  It returns a
// plain text "ok" with 200.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}

// Ready reports 503 while the database cannot be pinged.
func Ready(db *sql.DB) echo.HandlerFunc {
    return func(c echo.Context) error {
        ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
        defer cancel()
        if err := db.PingContext(ctx); err != nil {
            return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "database unavailable"})
        }
        return c.String(http.StatusOK, "ok")
    }
}
