package middleware

import (
    "time"

    "github.com/hashicorp/go-hclog"
    "github.com/labstack/echo/v4"
)

// RequestLogger writes one structured line per request.  Server errors
// are logged at error level, client errors at warn, the rest at info.
func RequestLogger(logger hclog.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                // let the error handler write the response so the status is final
                c.Error(err)
            }

            res := c.Response()
            args := []interface{}{
                "method", c.Request().Method,
                "path", c.Request().URL.Path,
                "route", c.Path(),
                "status", res.Status,
                "bytes", res.Size,
                "latency", time.Since(start),
                "remote_ip", c.RealIP(),
                "request_id", res.Header().Get(echo.HeaderXRequestID),
            }
            if id, ok := UserID(c); ok {
                args = append(args, "user_id", id)
            }
            switch {
            case res.Status >= 500:
                if err != nil {
                    args = append(args, "error", err)
                }
                logger.Error("request", args...)
            case res.Status >= 400:
                logger.Warn("request", args...)
            default:
                logger.Info("request", args...)
            }
            return nil
        }
    }
}
