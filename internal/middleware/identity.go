package middleware

// identity.go carries small request-scoped helpers shared across middleware
// and handlers: the request timestamp stamped on arrival and echoed back in
// list envelopes.

import (
	"time"

	"github.com/labstack/echo/v4"
)

const requestTimeKey = "requestTime"

// RequestTime stamps the arrival time of every request into the context.
func RequestTime() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(requestTimeKey, time.Now().UTC())
			return next(c)
		}
	}
}

// RequestedAt returns the arrival timestamp stamped by RequestTime, or the
// current time when the middleware did not run (tests, health checks).
func RequestedAt(c echo.Context) time.Time {
	if t, ok := c.Get(requestTimeKey).(time.Time); ok {
		return t
	}
	return time.Now().UTC()
}
