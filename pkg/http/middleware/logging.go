package middleware

import (
	"time"

	applogger "CandleScope/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RequestLogging logs one structured line per request. A nil logger keeps
// the middleware mounted but silent.
func RequestLogging(l *applogger.Logger) echo.MiddlewareFunc {
	if l == nil {
		l = applogger.Nop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			req := c.Request()
			res := c.Response()
			l.Info("request",
				applogger.String("method", req.Method),
				applogger.String("path", req.RequestURI),
				applogger.String("remote", c.RealIP()),
				applogger.Int("status", res.Status),
				applogger.Int64("bytes", res.Size),
				applogger.Duration("duration", time.Since(start)),
			)
			return err
		}
	}
}
