package middleware

// identity.go holds the context keys JWTAuth writes and the accessors
// handlers and other middleware read them with.

import (
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/theatre-reservation/internal/utils"
)

const (
    ctxUserID = "user_id"
    ctxRole   = "role"
)

func setIdentity(c echo.Context, id utils.Identity) {
    c.Set(ctxUserID, id.UserID)
    c.Set(ctxRole, id.Role)
}

// UserID returns the authenticated user's id.  ok is false on routes
// without JWTAuth.
func UserID(c echo.Context) (uint64, bool) {
    id, ok := c.Get(ctxUserID).(uint64)
    return id, ok && id != 0
}

// Role returns the role claim of the authenticated user or "".
func Role(c echo.Context) string {
    r, _ := c.Get(ctxRole).(string)
    return r
}

// principal names the caller for rate limit keys; "anon" when
// unauthenticated.
func principal(c echo.Context) string {
    if id, ok := UserID(c); ok {
        return strconv.FormatUint(id, 10)
    }
    return "anon"
}
