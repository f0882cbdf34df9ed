package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuditLog records every mutating API call with the acting user. Reads are not logged.
func AuditLog(log *zap.SugaredLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Method == http.MethodGet || req.Method == http.MethodHead || req.Method == http.MethodOptions {
				return next(c)
			}

			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			actor := ""
			if user := GetCurrentUser(c); user != nil {
				actor = user.Name
			}
			log.Infow("Audit",
				"actor", actor,
				"method", req.Method,
				"route", c.Path(),
				"uri", req.RequestURI,
				"status", status,
				"ip", c.RealIP(),
			)
			return err
		}
	}
}
